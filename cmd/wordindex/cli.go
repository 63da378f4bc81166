package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
)

// Index is the query surface the commands need.
type Index interface {
	Search(word string) index.OccurrenceList
	Frequency(word string) int
	Report() indexer.BuildReport
}

// Dependencies holds everything a command needs to run.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Index  Index
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Dir      string `short:"d" default:"text_pages" env:"WI_INDEXER_CORPUS_DIR" help:"Corpus directory"`
	Ext      string `default:".txt" help:"Document file extension"`
	Order    string `default:"lexical" enum:"lexical,native" help:"File order used to assign page indices"`
	LogLevel string `default:"warn" enum:"debug,info,warn,error" help:"Log level for build messages on stderr"`

	Search SearchCmd `cmd:"" help:"List every occurrence of a word"`
	Freq   FreqCmd   `cmd:"" help:"Print how often each word occurs"`
	Stats  StatsCmd  `cmd:"" help:"Print index build statistics"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Word  string `arg:"" help:"Word to look up"`
	Limit int    `short:"n" default:"0" help:"Print at most this many occurrences (0 = all)"`
}

func (c *SearchCmd) Run(deps *Dependencies) error {
	occurrences := deps.Index.Search(c.Word)
	if len(occurrences) == 0 {
		fmt.Fprintf(deps.Stderr, "%q not found\n", c.Word)
		return nil
	}
	if c.Limit > 0 && c.Limit < len(occurrences) {
		occurrences = occurrences[:c.Limit]
	}
	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	for _, o := range occurrences {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", o.Filename, o.PageIndex, o.Position)
	}
	return tw.Flush()
}

// FreqCmd is the "freq" subcommand.
type FreqCmd struct {
	Words []string `arg:"" help:"Words to count"`
}

func (c *FreqCmd) Run(deps *Dependencies) error {
	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	for _, w := range c.Words {
		fmt.Fprintf(tw, "%s\t%d\n", w, deps.Index.Frequency(w))
	}
	return tw.Flush()
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}

func (c *StatsCmd) Run(deps *Dependencies) error {
	r := deps.Index.Report()
	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "corpus\t%s\n", r.CorpusDir)
	fmt.Fprintf(tw, "order\t%s\n", r.FileOrder)
	fmt.Fprintf(tw, "available\t%t\n", r.Available)
	if r.Reason != "" {
		fmt.Fprintf(tw, "reason\t%s\n", r.Reason)
	}
	fmt.Fprintf(tw, "files indexed\t%d\n", r.FilesIndexed)
	fmt.Fprintf(tw, "files skipped\t%d\n", r.FilesSkipped)
	fmt.Fprintf(tw, "tokens\t%d\n", r.Tokens)
	fmt.Fprintf(tw, "distinct words\t%d\n", r.DistinctWords)
	fmt.Fprintf(tw, "trie nodes\t%d\n", r.TrieNodes)
	fmt.Fprintf(tw, "build time\t%dms\n", r.DurationMs)
	return tw.Flush()
}
