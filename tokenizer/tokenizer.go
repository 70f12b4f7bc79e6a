// Package tokenizer turns record text into bag-of-words tokens.
//
// The base contract is Tokenize: lowercase, then take maximal runs of ASCII
// letters and digits. Everything else is a separator. A Tokenizer layers
// optional Unicode folding, stopword removal and bigram enrichment on top.
package tokenizer

import (
	"strings"

	"github.com/orsinium-labs/stopwords"
)

// Tokenizer extracts tokens with optional normalization and enrichment.
// The zero value and a nil *Tokenizer both behave like Tokenize.
// A Tokenizer is safe for concurrent use once constructed.
type Tokenizer struct {
	fold      bool
	stopwords *stopwords.Stopwords
	bigrams   Bigrams
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithFolding strips diacritics and lowercases with Unicode rules before
// matching, so "Café" yields "cafe" rather than "caf".
func WithFolding() Option {
	return func(t *Tokenizer) {
		t.fold = true
	}
}

// WithStopwords drops English stopwords from the unigram stream.
func WithStopwords() Option {
	return func(t *Tokenizer) {
		t.stopwords = stopwords.MustGet("en")
	}
}

// WithBigrams appends a "first_second" token for every adjacent pair of
// unigrams found in b.
func WithBigrams(b Bigrams) Option {
	return func(t *Tokenizer) {
		if len(b) > 0 {
			t.bigrams = b
		}
	}
}

// New creates a Tokenizer.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize applies the configured pipeline to text.
func (t *Tokenizer) Tokenize(text string) []string {
	if t == nil {
		return Tokenize(text)
	}
	if t.fold {
		text = Fold(text)
	}

	tokens := Tokenize(text)
	if t.stopwords != nil {
		kept := tokens[:0]
		for _, tok := range tokens {
			if !t.stopwords.Contains(tok) {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	if len(t.bigrams) > 0 {
		n := len(tokens)
		for i := 1; i < n; i++ {
			if t.bigrams.Contains(tokens[i-1], tokens[i]) {
				tokens = append(tokens, BigramToken(tokens[i-1], tokens[i]))
			}
		}
	}
	return tokens
}

// Tokenize lowercases ASCII letters in text and returns its maximal runs of
// [a-z0-9]. Empty input, or input with no such runs, yields no tokens.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	start := -1
	for i := 0; i < len(text); i++ {
		if isWordByte(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, strings.ToLower(text[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, strings.ToLower(text[start:]))
	}
	return tokens
}

// isWordByte reports whether b is an ASCII letter or digit. Bytes of
// multi-byte UTF-8 sequences are always >= 0x80 and therefore separators.
func isWordByte(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
