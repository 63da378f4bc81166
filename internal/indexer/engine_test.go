package indexer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func corpusDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newEngine(t *testing.T, dir string, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	e, err := New(context.Background(), config.IndexerConfig{CorpusDir: dir}, opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_SingleDocument(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "The cat sat. The cat ran."})

	e := newEngine(t, dir)

	assert.True(t, e.Available())
	assert.NoError(t, e.Unavailable())
	assert.Equal(t, index.OccurrenceList{
		{Filename: "a.txt", PageIndex: 1, Position: 1},
		{Filename: "a.txt", PageIndex: 1, Position: 4},
	}, e.Search("cat"))
	assert.Equal(t, 2, e.Frequency("the"))
	assert.Equal(t, 2, e.Frequency("cat"))
	assert.Equal(t, 1, e.Frequency("sat"))
	assert.Equal(t, 1, e.Frequency("ran"))
	assert.Equal(t, 0, e.Frequency("dog"))
	assert.Empty(t, e.Search("dog"))

	r := e.Report()
	assert.Equal(t, 1, r.FilesListed)
	assert.Equal(t, 1, r.FilesIndexed)
	assert.Equal(t, 6, r.Tokens)
	assert.Equal(t, 4, r.DistinctWords)
	assert.Equal(t, "lexical", r.FileOrder)
	assert.Equal(t, ".txt", r.Extension)
	assert.Empty(t, r.Reason)
}

func TestEngine_LeadingPunctuationStartsAtZero(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "...The cat sat."})

	e := newEngine(t, dir)

	// Positions count words, not separator runs, so the first word is 0.
	assert.Equal(t, index.OccurrenceList{{Filename: "a.txt", PageIndex: 1, Position: 0}}, e.Search("the"))
	assert.Equal(t, index.OccurrenceList{{Filename: "a.txt", PageIndex: 1, Position: 2}}, e.Search("sat"))
	assert.Equal(t, 3, e.Report().Tokens)
}

func TestEngine_LexicalPageIndices(t *testing.T) {
	dir := corpusDir(t, map[string]string{
		"c.txt": "shared gamma",
		"a.txt": "shared alpha",
		"b.txt": "shared beta",
	})

	e := newEngine(t, dir)

	got := e.Search("shared")
	require.Len(t, got, 3)
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		assert.Equal(t, want, got[i].Filename)
		assert.Equal(t, i+1, got[i].PageIndex)
		assert.Equal(t, 0, got[i].Position)
	}
	assert.Equal(t, 3, e.Frequency("shared"))
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, got.Files())
}

func TestEngine_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	e := newEngine(t, dir)

	assert.False(t, e.Available())
	assert.ErrorIs(t, e.Unavailable(), apperrors.ErrIndexUnavailable)
	assert.Empty(t, e.Search("anything"))
	assert.Equal(t, 0, e.Frequency("anything"))

	r := e.Report()
	assert.False(t, r.Available)
	assert.NotEmpty(t, r.Reason)
	assert.Zero(t, r.FilesListed)
}

func TestEngine_EmptyDirectory(t *testing.T) {
	e := newEngine(t, t.TempDir())

	assert.False(t, e.Available())
	assert.ErrorIs(t, e.Unavailable(), apperrors.ErrIndexUnavailable)
}

func TestEngine_UnreadableDocumentIsSkipped(t *testing.T) {
	dir := corpusDir(t, map[string]string{
		"a.txt": "alpha words",
		"b.txt": "broken",
		"c.txt": "gamma words",
	})
	readFile := func(path string) ([]byte, error) {
		if filepath.Base(path) == "b.txt" {
			return nil, errors.New("permission denied")
		}
		return os.ReadFile(path)
	}

	e := newEngine(t, dir, WithReadFile(readFile))

	assert.True(t, e.Available())
	assert.Empty(t, e.Search("broken"))
	got := e.Search("words")
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].PageIndex)
	// b.txt keeps its slot in the listing order.
	assert.Equal(t, 3, got[1].PageIndex)

	r := e.Report()
	assert.Equal(t, 3, r.FilesListed)
	assert.Equal(t, 2, r.FilesIndexed)
	assert.Equal(t, 1, r.FilesSkipped)
	assert.Equal(t, []string{"b.txt"}, r.Skipped)
}

func TestEngine_AllDocumentsUnreadable(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "x"})
	readFile := func(string) ([]byte, error) { return nil, errors.New("io error") }

	e := newEngine(t, dir, WithReadFile(readFile))

	assert.False(t, e.Available())
	assert.ErrorIs(t, e.Unavailable(), apperrors.ErrIndexUnavailable)
	assert.Equal(t, 1, e.Report().FilesSkipped)
}

func TestEngine_ReportCopiesSkipped(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "ok", "b.txt": "bad"})
	readFile := func(path string) ([]byte, error) {
		if filepath.Base(path) == "b.txt" {
			return nil, errors.New("bad")
		}
		return os.ReadFile(path)
	}
	e := newEngine(t, dir, WithReadFile(readFile))

	r := e.Report()
	r.Skipped[0] = "mutated"

	assert.Equal(t, []string{"b.txt"}, e.Report().Skipped)
}

func TestEngine_CancelledBuild(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := New(ctx, config.IndexerConfig{CorpusDir: dir}, WithLogger(quietLogger()))

	require.NoError(t, err)
	r := e.Report()
	assert.True(t, r.Cancelled)
	assert.Zero(t, r.FilesIndexed)
	assert.False(t, e.Available())
}

func TestEngine_InvalidFileOrder(t *testing.T) {
	_, err := New(context.Background(), config.IndexerConfig{CorpusDir: t.TempDir(), FileOrder: "shuffled"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}

func TestEngine_Metrics(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "one two two", "b.txt": "three"})
	readFile := func(path string) ([]byte, error) {
		if filepath.Base(path) == "b.txt" {
			return nil, errors.New("gone")
		}
		return os.ReadFile(path)
	}
	m := metrics.New(prometheus.NewRegistry())

	newEngine(t, dir, WithMetrics(m), WithReadFile(readFile))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocsSkippedTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TokensIndexedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IndexDistinctWords))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexReady))
}

func TestEngine_BuildTrace(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "traced"})
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := newEngine(t, dir, WithLogger(l))

	assert.NotEmpty(t, e.Report().BuildID)
	out := buf.String()
	assert.Contains(t, out, `"span":"index.build"`)
	assert.Contains(t, out, `"span":"corpus.list"`)
	assert.Contains(t, out, `"span":"corpus.index"`)
	assert.Contains(t, out, e.Report().BuildID)
}

func TestEngine_ConcurrentQueries(t *testing.T) {
	dir := corpusDir(t, map[string]string{"a.txt": "read only after build"})
	e := newEngine(t, dir)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = e.Search("read")
				_ = e.Frequency("build")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Len(t, e.Search("read"), 1)
}
