package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Basic(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits on whitespace",
			input: "Vacation Policy",
			want:  []string{"vacation", "policy"},
		},
		{
			name:  "splits on hyphen",
			input: "work-from-home",
			want:  []string{"work", "home"}, // "from" is a stop word
		},
		{
			name:  "keeps dots inside tokens",
			input: "see section 2.4.1 for details",
			want:  []string{"see", "section", "2.4.1", "details"},
		},
		{
			name:  "strips punctuation",
			input: "benefits, (including dental)!",
			want:  []string{"benefits", "including", "dental"},
		},
		{
			name:  "drops short tokens",
			input: "a b c documentation",
			want:  []string{"documentation"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "only stop words",
			input: "the and of",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Tokenize(tt.input))
		})
	}
}

func TestTokenizer_PreservedAcronyms(t *testing.T) {
	tok := NewTokenizer()

	// "hr" and "it" would normally be dropped (short / stop word).
	tokens := tok.Tokenize("Contact HR about IT equipment and PTO")
	assert.Contains(t, tokens, "hr")
	assert.Contains(t, tokens, "it")
	assert.Contains(t, tokens, "pto")
	assert.Contains(t, tokens, "equipment")
}

func TestTokenizer_CustomLists(t *testing.T) {
	tok := NewTokenizerWithLists([]string{"foo"}, []string{"qk"})

	tokens := tok.Tokenize("foo bar qk")
	assert.NotContains(t, tokens, "foo")
	assert.Contains(t, tokens, "bar")
	assert.Contains(t, tokens, "qk")
}
