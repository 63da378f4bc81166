// Package tokenizer splits document text into lower-cased word tokens. A word
// is a maximal run of ASCII letters, digits and underscores; everything else
// separates words.
package tokenizer

import "strings"

// Token is a single normalised word and its zero-based position among the
// tokens of the text it came from.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into lower-cased Tokens. Empty runs are discarded, so
// positions are consecutive.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !IsWordChar(r)
	})
	tokens := make([]Token, 0, len(words))
	for _, word := range words {
		tokens = append(tokens, Token{
			Term:     strings.ToLower(word),
			Position: len(tokens),
		})
	}
	return tokens
}

// Terms returns only the terms of Tokenize(text).
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return terms
}

// IsWordChar reports whether r is an ASCII letter, digit or underscore.
func IsWordChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	default:
		return false
	}
}
