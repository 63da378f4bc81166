package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewMain().Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Index replaces the engine built from --dir. Set it before Run in tests.
	Index Index
}

func NewMain() *Main {
	return &Main{}
}

// Run parses args, builds the index from the corpus directory and runs the
// selected command.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("wordindex"),
		kong.Description("Build an in-memory word index over a directory of text files and query it."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) { exited = true }),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'wordindex --help' to see available commands")
	}

	kongCtx, err := parser.Parse(args)
	if exited {
		return nil
	}
	if err != nil {
		return err
	}

	if m.Index != nil {
		deps.Index = m.Index
	} else {
		engine, err := indexer.New(ctx, config.IndexerConfig{
			CorpusDir: cli.Dir,
			Extension: cli.Ext,
			FileOrder: cli.Order,
		}, indexer.WithLogger(logger.New(stderr, cli.LogLevel, "text").With("component", "indexer")))
		if err != nil {
			return err
		}
		deps.Index = engine
	}

	return kongCtx.Run(deps)
}
