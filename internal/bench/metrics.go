package bench

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	nbem "github.com/jamesainslie/go-nbem"
)

// Config holds evaluation parameters.
type Config struct {
	PrecisionWeight float64
	RecallWeight    float64
}

// DefaultConfig returns default evaluation configuration.
func DefaultConfig() Config {
	return Config{
		PrecisionWeight: 1.0,
		RecallWeight:    1.0,
	}
}

// Metrics holds one-vs-rest results for a class, or their macro average
// when Class is empty.
type Metrics struct {
	Class          string
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
	WeightedScore  float64
}

// Evaluate computes per-class metrics, sorted by class, over every class
// that occurs in either predictions or truth.
func Evaluate(predicted, truth []string, cfg Config) ([]Metrics, error) {
	if len(predicted) != len(truth) {
		return nil, fmt.Errorf("%w: %d predictions, %d labels", nbem.ErrLengthMismatch, len(predicted), len(truth))
	}
	if len(truth) == 0 {
		return nil, nbem.ErrEmptyCorpus
	}

	classes := lo.Uniq(append(slices.Clone(truth), predicted...))
	slices.Sort(classes)

	byClass := make(map[string]*Metrics, len(classes))
	out := make([]Metrics, len(classes))
	for i, c := range classes {
		out[i].Class = c
		byClass[c] = &out[i]
	}

	for i := range truth {
		p, t := predicted[i], truth[i]
		if p == t {
			byClass[t].TruePositives++
			continue
		}
		byClass[p].FalsePositives++
		byClass[t].FalseNegatives++
	}

	for i := range out {
		out[i].derive(cfg)
	}
	return out, nil
}

func (m *Metrics) derive(cfg Config) {
	tp, fp, fn := m.TruePositives, m.FalsePositives, m.FalseNegatives
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	m.WeightedScore = weighted(m.Precision, m.Recall, cfg)
}

func weighted(precision, recall float64, cfg Config) float64 {
	wp := cfg.PrecisionWeight
	wr := cfg.RecallWeight
	if wp+wr > 0 {
		return (wp*precision + wr*recall) / (wp + wr)
	}
	return 0
}

// Macro averages per-class precision, recall and F1 with equal class weight.
// Counts are summed.
func Macro(per []Metrics, cfg Config) Metrics {
	var m Metrics
	if len(per) == 0 {
		return m
	}

	precision := make([]float64, len(per))
	recall := make([]float64, len(per))
	f1 := make([]float64, len(per))
	for i, c := range per {
		m.TruePositives += c.TruePositives
		m.FalsePositives += c.FalsePositives
		m.FalseNegatives += c.FalseNegatives
		precision[i], recall[i], f1[i] = c.Precision, c.Recall, c.F1
	}

	m.Precision = stat.Mean(precision, nil)
	m.Recall = stat.Mean(recall, nil)
	m.F1 = stat.Mean(f1, nil)
	m.WeightedScore = weighted(m.Precision, m.Recall, cfg)
	return m
}
