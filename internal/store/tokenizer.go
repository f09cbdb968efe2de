package store

import (
	"strings"
	"unicode"
)

// DefaultStopWords are common English words excluded from indexing.
var DefaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "he", "her", "his", "if", "in", "into", "is", "it", "its",
	"no", "not", "of", "on", "or", "our", "she", "such", "that", "the",
	"their", "then", "there", "these", "they", "this", "to", "was", "we",
	"were", "will", "with", "you", "your",
}

// PreservedAcronyms are short domain acronyms kept even though they fall
// below the minimum token length or appear in the stop list.
var PreservedAcronyms = []string{
	"hr", "it", "ai", "api", "sla", "kpi", "pto", "faq", "sop", "id",
	"gdpr", "soc", "iso", "vpn", "sso", "qa",
}

// Tokenizer splits document and query text into index terms.
// Rules: lowercase, strip non-alphanumeric except '-' and '.', split on
// whitespace and hyphen, drop tokens shorter than 2 characters, drop stop
// words. Tokens in the preserve list survive both filters.
type Tokenizer struct {
	stopWords map[string]struct{}
	preserved map[string]struct{}
}

// NewTokenizer creates a tokenizer with the default stop-word and
// acronym-preserve lists.
func NewTokenizer() *Tokenizer {
	return NewTokenizerWithLists(DefaultStopWords, PreservedAcronyms)
}

// NewTokenizerWithLists creates a tokenizer with custom word lists.
func NewTokenizerWithLists(stopWords, preserved []string) *Tokenizer {
	return &Tokenizer{
		stopWords: buildWordSet(stopWords),
		preserved: buildWordSet(preserved),
	}
}

// Tokenize splits text into normalized index terms.
func (t *Tokenizer) Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	lowered := strings.ToLower(text)

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		token := strings.Trim(current.String(), ".")
		current.Reset()
		if t.keep(token) {
			tokens = append(tokens, token)
		}
	}

	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.':
			current.WriteRune(r)
		default:
			// Whitespace, hyphen, and all other punctuation are boundaries.
			flush()
		}
	}
	flush()

	if tokens == nil {
		return []string{}
	}
	return tokens
}

// keep reports whether a normalized token should be indexed.
func (t *Tokenizer) keep(token string) bool {
	if token == "" {
		return false
	}
	if _, ok := t.preserved[token]; ok {
		return true
	}
	if len(token) < 2 {
		return false
	}
	if _, ok := t.stopWords[token]; ok {
		return false
	}
	return true
}

// buildWordSet converts a word list to a lookup set.
func buildWordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}
