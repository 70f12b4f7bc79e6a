package nbem

import (
	"maps"
	"slices"

	"github.com/jamesainslie/go-nbem/corpus"
	"github.com/jamesainslie/go-nbem/tokenizer"
)

// Document is a record with its tokens extracted once.
type Document struct {
	Record corpus.Record
	Tokens []string
}

// NewDocument tokenizes rec with tok. A nil tok uses tokenizer.Tokenize.
func NewDocument(rec corpus.Record, tok *tokenizer.Tokenizer) Document {
	return Document{Record: rec, Tokens: tok.Tokenize(rec.Text())}
}

// NewDocuments tokenizes every record, preserving order.
func NewDocuments(records []corpus.Record, tok *tokenizer.Tokenizer) []Document {
	docs := make([]Document, len(records))
	for i, rec := range records {
		docs[i] = NewDocument(rec, tok)
	}
	return docs
}

// Weighted pairs a document with a class distribution for soft counting.
// Weight scales every count the document contributes; a Weight of zero or
// less excludes the document.
type Weighted struct {
	Posterior Posterior
	Doc       Document
	Weight    float64
}

// Model holds class priors and per-class token weights.
//
// Priors are class weights, not necessarily normalized. Likelihood tables
// hold expected token counts until Normalize turns each into a probability
// distribution. Every class in the priors has a (possibly empty) table.
// A Model is never mutated after construction.
type Model struct {
	classes    []string
	priors     map[string]float64
	likelihood map[string]map[string]float64
	normalized bool
}

func newModel() *Model {
	return &Model{
		priors:     make(map[string]float64),
		likelihood: make(map[string]map[string]float64),
	}
}

// table returns the likelihood table for class, registering the class.
func (m *Model) table(class string) map[string]float64 {
	t, ok := m.likelihood[class]
	if !ok {
		t = make(map[string]float64)
		m.likelihood[class] = t
		if _, ok := m.priors[class]; !ok {
			m.priors[class] = 0
		}
	}
	return t
}

// seal fixes the class order used for argmax and reports.
func (m *Model) seal() *Model {
	m.classes = slices.Sorted(maps.Keys(m.priors))
	return m
}

// SeedFromLabeled counts each labeled document once toward its class prior
// and each token occurrence once toward its class table. Unlabeled documents
// are ignored.
func SeedFromLabeled(docs []Document) *Model {
	m := newModel()
	for _, d := range docs {
		label := d.Record.Label
		if label == "" {
			continue
		}
		t := m.table(label)
		m.priors[label]++
		for _, tok := range d.Tokens {
			t[tok]++
		}
	}
	return m.seal()
}

// SeedFromWeighted accumulates soft counts: for every class c in a
// document's posterior, the prior of c grows by weight*posterior[c] and so
// does the count of every token occurrence under c. A one-hot posterior with
// weight 1 reproduces SeedFromLabeled for that document.
func SeedFromWeighted(ws []Weighted) *Model {
	m := newModel()
	for _, w := range ws {
		if !(w.Weight > 0) {
			continue
		}
		for _, class := range w.Posterior.Classes() {
			p := w.Weight * w.Posterior[class]
			t := m.table(class)
			m.priors[class] += p
			if p == 0 {
				continue
			}
			for _, tok := range w.Doc.Tokens {
				t[tok] += p
			}
		}
	}
	return m.seal()
}

// Normalize returns a model whose per-class tables each sum to 1. A class
// whose table total is zero keeps an empty table and its prior; lookups for
// it resolve to the floor probability. Normalize on a normalized model
// returns the receiver.
func (m *Model) Normalize() *Model {
	if m.normalized {
		return m
	}

	out := newModel()
	out.normalized = true
	for _, class := range m.classes {
		out.priors[class] = m.priors[class]
		src := m.likelihood[class]
		dst := make(map[string]float64, len(src))
		out.likelihood[class] = dst

		// Sum in token order so totals are reproducible bit for bit.
		tokens := slices.Sorted(maps.Keys(src))
		var total float64
		for _, tok := range tokens {
			total += src[tok]
		}
		if total <= 0 {
			clear(dst)
			continue
		}
		for _, tok := range tokens {
			if v := src[tok]; v > 0 {
				dst[tok] = v / total
			}
		}
	}
	return out.seal()
}

// Classes returns the model's classes in sorted order.
func (m *Model) Classes() []string {
	return slices.Clone(m.classes)
}

// NumClasses returns the number of classes.
func (m *Model) NumClasses() int {
	return len(m.classes)
}

// HasClass reports whether class appears in the priors.
func (m *Model) HasClass(class string) bool {
	_, ok := m.priors[class]
	return ok
}

// Prior returns the raw prior weight of class.
func (m *Model) Prior(class string) float64 {
	return m.priors[class]
}

// Likelihood returns the stored weight of token under class: a probability
// once normalized, an expected count before.
func (m *Model) Likelihood(class, token string) float64 {
	return m.likelihood[class][token]
}

// TableSize returns the number of tokens with weight under class.
func (m *Model) TableSize(class string) int {
	return len(m.likelihood[class])
}

// Normalized reports whether the likelihood tables are probabilities.
func (m *Model) Normalized() bool {
	return m.normalized
}

// VocabularySize returns the number of distinct tokens across all classes.
func (m *Model) VocabularySize() int {
	seen := make(map[string]struct{})
	for _, t := range m.likelihood {
		for tok := range t {
			seen[tok] = struct{}{}
		}
	}
	return len(seen)
}
