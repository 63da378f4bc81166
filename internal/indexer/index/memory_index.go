package index

import (
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/tokenizer"
)

// MemoryIndex feeds the same token stream into a PrefixIndex and a
// FrequencyTree. It is written by a single goroutine during a build and is
// read-only afterwards.
type MemoryIndex struct {
	prefix   *PrefixIndex
	freq     *FrequencyTree
	docCount int
	tokens   int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		prefix: NewPrefixIndex(),
		freq:   NewFrequencyTree(),
	}
}

// AddDocument tokenizes text and records every token under filename and
// pageIndex. It returns the number of tokens indexed.
func (m *MemoryIndex) AddDocument(filename string, pageIndex int, text string) int {
	tokens := tokenizer.Tokenize(text)
	for _, token := range tokens {
		m.prefix.Insert(token.Term, filename, pageIndex, token.Position)
		m.freq.Insert(token.Term)
	}
	m.docCount++
	m.tokens += len(tokens)
	return len(tokens)
}

func (m *MemoryIndex) Search(word string) OccurrenceList {
	return m.prefix.Search(word)
}

func (m *MemoryIndex) Frequency(word string) int {
	return m.freq.Frequency(word)
}

func (m *MemoryIndex) Prefix() *PrefixIndex {
	return m.prefix
}

func (m *MemoryIndex) Frequencies() *FrequencyTree {
	return m.freq
}

func (m *MemoryIndex) DocCount() int {
	return m.docCount
}

func (m *MemoryIndex) TokenCount() int {
	return m.tokens
}
