package tokenizer

import (
	"slices"
	"sort"
)

// bigramSep joins the two halves of a bigram token. It is never produced by
// Tokenize, so bigram tokens cannot collide with unigrams.
const bigramSep = "_"

// Bigrams is a set of known collocations keyed by BigramToken.
type Bigrams map[string]struct{}

// BigramToken returns the token emitted for the pair (first, second).
func BigramToken(first, second string) string {
	return first + bigramSep + second
}

// NewBigrams builds a set from explicit pairs.
func NewBigrams(pairs ...[2]string) Bigrams {
	b := make(Bigrams, len(pairs))
	for _, p := range pairs {
		b[BigramToken(p[0], p[1])] = struct{}{}
	}
	return b
}

// Contains reports whether (first, second) is a known collocation.
func (b Bigrams) Contains(first, second string) bool {
	_, ok := b[BigramToken(first, second)]
	return ok
}

// Tokens returns the bigram tokens in sorted order.
func (b Bigrams) Tokens() []string {
	out := make([]string, 0, len(b))
	for tok := range b {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// MineCollocations finds adjacent pairs that occur together far more often
// than their unigram frequencies predict. A pair is kept when its count
// exceeds minCount and its lift
//
//	(f(ab) / N2) / (f(a) * f(b) / N1²)
//
// exceeds minLift, where N1 and N2 are the total unigram and bigram counts.
// Pairs never cross document boundaries.
func MineCollocations(docs [][]string, minCount, minLift float64) Bigrams {
	unigrams := make(map[string]float64)
	pairs := make(map[[2]string]float64)
	var n1, n2 float64

	for _, doc := range docs {
		for i, tok := range doc {
			unigrams[tok]++
			n1++
			if i > 0 {
				pairs[[2]string{doc[i-1], tok}]++
				n2++
			}
		}
	}

	out := make(Bigrams)
	if n2 == 0 {
		return out
	}

	for pair, count := range pairs {
		if count <= minCount {
			continue
		}
		expected := unigrams[pair[0]] * unigrams[pair[1]] / (n1 * n1)
		if (count/n2)/expected > minLift {
			out[BigramToken(pair[0], pair[1])] = struct{}{}
		}
	}
	return out
}

// NewWithCollocations builds a Tokenizer with opts plus a bigram set mined
// from texts. The texts are tokenized under opts alone, so folding and
// stopword removal shape which pairs are found.
func NewWithCollocations(texts []string, minCount, minLift float64, opts ...Option) *Tokenizer {
	base := New(opts...)
	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = base.Tokenize(text)
	}
	bigrams := MineCollocations(docs, minCount, minLift)
	return New(append(slices.Clone(opts), WithBigrams(bigrams))...)
}
