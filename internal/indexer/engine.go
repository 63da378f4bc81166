package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/tracing"
)

// BuildReport summarises one index build.
type BuildReport struct {
	BuildID       string    `json:"build_id"`
	CorpusDir     string    `json:"corpus_dir"`
	Extension     string    `json:"extension"`
	FileOrder     string    `json:"file_order"`
	Available     bool      `json:"available"`
	Reason        string    `json:"reason,omitempty"`
	Cancelled     bool      `json:"cancelled,omitempty"`
	FilesListed   int       `json:"files_listed"`
	FilesIndexed  int       `json:"files_indexed"`
	FilesSkipped  int       `json:"files_skipped"`
	Skipped       []string  `json:"skipped,omitempty"`
	Tokens        int       `json:"tokens"`
	DistinctWords int       `json:"distinct_words"`
	TrieNodes     int       `json:"trie_nodes"`
	DurationMs    int64     `json:"duration_ms"`
	BuiltAt       time.Time `json:"built_at"`
}

// Option customises an Engine.
type Option func(*Engine)

// WithMetrics records build statistics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger replaces the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithReadFile replaces the function used to read documents.
func WithReadFile(fn func(path string) ([]byte, error)) Option {
	return func(e *Engine) { e.readFile = fn }
}

// Engine owns the index built from one corpus directory. The build runs to
// completion inside New; afterwards the engine never changes, so Search and
// Frequency are safe for concurrent use without locking.
type Engine struct {
	memIndex    *index.MemoryIndex
	report      BuildReport
	unavailable error
	cfg         config.IndexerConfig
	order       corpus.Order
	metrics     *metrics.Metrics
	logger      *slog.Logger
	readFile    func(path string) ([]byte, error)
}

// New builds the index for cfg.CorpusDir. A missing or empty corpus is not an
// error: the engine comes up empty and answers every query with nothing. The
// only errors are configuration errors.
func New(ctx context.Context, cfg config.IndexerConfig, opts ...Option) (*Engine, error) {
	order, err := corpus.ParseOrder(cfg.FileOrder)
	if err != nil {
		return nil, fmt.Errorf("creating index engine: %w", err)
	}
	if cfg.Extension == "" {
		cfg.Extension = corpus.DefaultExtension
	}
	e := &Engine{
		memIndex: index.NewMemoryIndex(),
		cfg:      cfg,
		order:    order,
		logger:   slog.Default().With("component", "indexer"),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.build(ctx)
	return e, nil
}

func (e *Engine) build(ctx context.Context) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "index.build")
	e.report = BuildReport{
		BuildID:   span.TraceID,
		CorpusDir: e.cfg.CorpusDir,
		Extension: e.cfg.Extension,
		FileOrder: string(e.order),
	}
	defer func() {
		e.finish(time.Since(start))
		span.SetAttr("files_indexed", e.report.FilesIndexed)
		span.SetAttr("tokens", e.report.Tokens)
		span.End()
		span.Log(ctx, e.logger)
	}()

	_, listSpan := tracing.StartSpan(ctx, "corpus.list")
	docs, err := corpus.List(e.cfg.CorpusDir, e.cfg.Extension, e.order)
	listSpan.SetAttr("documents", len(docs))
	listSpan.End()
	if err != nil {
		e.unavailable = err
		e.logger.Warn("corpus unavailable, serving an empty index",
			"corpus_dir", e.cfg.CorpusDir,
			"error", err,
		)
		return
	}
	e.report.FilesListed = len(docs)
	e.logger.Info("indexing corpus",
		"corpus_dir", e.cfg.CorpusDir,
		"documents", len(docs),
		"file_order", e.order,
	)

	_, indexSpan := tracing.StartSpan(ctx, "corpus.index")
	defer indexSpan.End()
	for _, doc := range docs {
		if ctx.Err() != nil {
			e.report.Cancelled = true
			e.logger.Warn("index build cancelled",
				"indexed", e.report.FilesIndexed,
				"remaining", len(docs)-e.report.FilesIndexed-e.report.FilesSkipped,
			)
			return
		}
		if err := e.indexDocument(doc); err != nil {
			e.report.FilesSkipped++
			e.report.Skipped = append(e.report.Skipped, doc.Name)
			e.logger.Error("skipping unreadable document",
				"file", doc.Name,
				"page_index", doc.PageIndex,
				"error", err,
			)
			if e.metrics != nil {
				e.metrics.DocsSkippedTotal.Inc()
			}
		}
	}
	if e.report.FilesIndexed == 0 {
		e.unavailable = fmt.Errorf("%w: no document in %s could be read",
			apperrors.ErrIndexUnavailable, e.cfg.CorpusDir)
	}
}

// indexDocument reads the whole document before touching the index, so a
// failed read leaves nothing behind.
func (e *Engine) indexDocument(doc corpus.Document) error {
	data, err := e.readFile(doc.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrDocumentRead, doc.Name, err)
	}
	tokens := e.memIndex.AddDocument(doc.Name, doc.PageIndex, string(data))
	e.report.FilesIndexed++
	e.report.Tokens += tokens
	e.logger.Debug("document indexed",
		"file", doc.Name,
		"page_index", doc.PageIndex,
		"token_count", tokens,
	)
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.TokensIndexedTotal.Add(float64(tokens))
	}
	return nil
}

func (e *Engine) finish(elapsed time.Duration) {
	e.report.Available = e.report.FilesIndexed > 0
	if !e.report.Available {
		if e.unavailable == nil {
			e.unavailable = apperrors.ErrIndexUnavailable
		}
		e.report.Reason = e.unavailable.Error()
	}
	e.report.DistinctWords = e.memIndex.Frequencies().Len()
	e.report.TrieNodes = e.memIndex.Prefix().Nodes()
	e.report.DurationMs = elapsed.Milliseconds()
	e.report.BuiltAt = time.Now().UTC()

	if e.metrics != nil {
		e.metrics.IndexDistinctWords.Set(float64(e.report.DistinctWords))
		e.metrics.IndexTrieNodes.Set(float64(e.report.TrieNodes))
		e.metrics.IndexBuildSeconds.Set(elapsed.Seconds())
		if e.report.Available {
			e.metrics.IndexReady.Set(1)
		}
	}
	e.logger.Info("index build complete",
		"available", e.report.Available,
		"files_indexed", e.report.FilesIndexed,
		"files_skipped", e.report.FilesSkipped,
		"tokens", e.report.Tokens,
		"distinct_words", e.report.DistinctWords,
		"duration_ms", e.report.DurationMs,
	)
}

// Search returns every occurrence recorded for word. Non-letters in word are
// ignored, the same way they were when the index was built. The result is
// shared and must not be modified.
func (e *Engine) Search(word string) index.OccurrenceList {
	return e.memIndex.Search(word)
}

// Frequency returns how many times the exact token word appeared in the
// corpus.
func (e *Engine) Frequency(word string) int {
	return e.memIndex.Frequency(word)
}

// Report returns the statistics of the build. The Skipped slice is copied.
func (e *Engine) Report() BuildReport {
	r := e.report
	if r.Skipped != nil {
		r.Skipped = append([]string(nil), r.Skipped...)
	}
	return r
}

// Available reports whether at least one document was indexed.
func (e *Engine) Available() bool {
	return e.report.Available
}

// Unavailable returns why the index is empty, wrapping ErrIndexUnavailable,
// or nil when documents were indexed.
func (e *Engine) Unavailable() error {
	if e.report.Available {
		return nil
	}
	return e.unavailable
}
