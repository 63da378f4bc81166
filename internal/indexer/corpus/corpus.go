// Package corpus lists the documents of a corpus directory in a defined
// order. The position of a document in that order becomes its page index.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
)

const DefaultExtension = ".txt"

// Order decides the sequence in which documents are handed to the indexer.
type Order string

const (
	// OrderLexical sorts documents by file name, giving reproducible page
	// indices.
	OrderLexical Order = "lexical"
	// OrderNative keeps whatever order the directory read returns.
	OrderNative Order = "native"
)

// ParseOrder accepts "lexical", "native", or "" (lexical).
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderLexical:
		return OrderLexical, nil
	case OrderNative:
		return OrderNative, nil
	default:
		return "", fmt.Errorf("%w: unknown file order %q", apperrors.ErrInvalidConfig, s)
	}
}

// Document is a file selected for indexing. PageIndex starts at 1.
type Document struct {
	Name      string
	Path      string
	PageIndex int
}

// List returns the entries of dir whose name ends in ext, arranged by order
// and numbered from 1. Subdirectories are ignored; anything else is listed
// and left for the reader to fail on. A missing path, a
// path that is not a directory, or a directory without matching files yields
// an error wrapping ErrIndexUnavailable.
func List(dir string, ext string, order Order) ([]Document, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: stat corpus directory %s: %v", apperrors.ErrIndexUnavailable, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", apperrors.ErrIndexUnavailable, dir)
	}
	names, err := readNames(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading corpus directory %s: %v", apperrors.ErrIndexUnavailable, dir, err)
	}
	if order == OrderLexical {
		sort.Strings(names)
	}

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, ext) {
			continue
		}
		path := filepath.Join(dir, name)
		fi, err := os.Lstat(path)
		if err == nil && fi.IsDir() {
			continue
		}
		docs = append(docs, Document{
			Name:      name,
			Path:      path,
			PageIndex: len(docs) + 1,
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", apperrors.ErrIndexUnavailable, ext, dir)
	}
	return docs, nil
}

// readNames returns the entry names of dir in directory order. os.ReadDir
// would sort them, which would hide the native order.
func readNames(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}
