package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []Token
	}{
		{
			name: "sentence punctuation",
			text: "The cat sat. The cat ran.",
			want: []Token{
				{"the", 0}, {"cat", 1}, {"sat", 2}, {"the", 3}, {"cat", 4}, {"ran", 5},
			},
		},
		{
			name: "leading separators do not shift positions",
			text: "  ...Hello, World!",
			want: []Token{{"hello", 0}, {"world", 1}},
		},
		{
			name: "leading punctuation",
			text: "\"Quoted\" start",
			want: []Token{{"quoted", 0}, {"start", 1}},
		},
		{
			name: "digits and underscores are word characters",
			text: "item_1 v2 2024",
			want: []Token{{"item_1", 0}, {"v2", 1}, {"2024", 2}},
		},
		{
			name: "hyphen and apostrophe split",
			text: "don't well-known",
			want: []Token{{"don", 0}, {"t", 1}, {"well", 2}, {"known", 3}},
		},
		{
			name: "non-ASCII letters split",
			text: "café au lait",
			want: []Token{{"caf", 0}, {"au", 1}, {"lait", 2}},
		},
		{
			name: "only separators",
			text: " \t\n!?",
			want: []Token{},
		},
		{
			name: "empty",
			text: "",
			want: []Token{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.text))
		})
	}
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"mixed", "case", "words"}, Terms("MiXeD CASE words"))
	assert.Empty(t, Terms(""))
}

func TestIsWordChar(t *testing.T) {
	for _, r := range "azAZ09_" {
		assert.True(t, IsWordChar(r), string(r))
	}
	for _, r := range " .-'é\t" {
		assert.False(t, IsWordChar(r), string(r))
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. The inverted index maps each term to the pages containing it,
        along with positional information. `, 20)
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(text)
	}
}
