package bench

import (
	"context"
	"fmt"
	"math"
	"sort"

	nbem "github.com/jamesainslie/go-nbem"
	"github.com/jamesainslie/go-nbem/corpus"
)

// SweepResult holds the outcome of one EM run at a given unlabeled weight.
type SweepResult struct {
	Weight   float64
	Accuracy float64
	Rounds   int
	State    nbem.State
	Macro    Metrics
	Classes  []Metrics
}

// SweepWeights generates weights from min to max inclusive with given step.
func SweepWeights(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	n := int(math.Floor((max-min)/step + 1e-9))
	weights := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		weights = append(weights, min+float64(i)*step)
	}
	return weights
}

// Sweep trains once per unlabeled weight and scores the final model on the
// labeled test records. Results are sorted by accuracy, then macro F1,
// best first. opts apply to every run; the tokenizer and floor among them
// also apply to final scoring.
func Sweep(ctx context.Context, train, test []corpus.Record, cfg Config, weights []float64, opts ...nbem.Option) ([]SweepResult, error) {
	var results []SweepResult

	for _, w := range weights {
		runOpts := append(append([]nbem.Option(nil), opts...), nbem.WithUnlabeledWeight(w))
		res, err := nbem.NewTrainer(runOpts...).Run(ctx, train, test)
		if err != nil {
			return nil, fmt.Errorf("weight %v: %w", w, err)
		}

		clf := nbem.NewClassifier(res.Model, opts...)
		var pred, truth []string
		for _, r := range test {
			if !r.Labeled() {
				continue
			}
			p, _ := clf.ClassifyRecord(r)
			pred = append(pred, p)
			truth = append(truth, r.Label)
		}

		acc, err := nbem.Accuracy(pred, truth)
		if err != nil {
			return nil, fmt.Errorf("weight %v: %w", w, err)
		}
		per, err := Evaluate(pred, truth, cfg)
		if err != nil {
			return nil, fmt.Errorf("weight %v: %w", w, err)
		}

		results = append(results, SweepResult{
			Weight:   w,
			Accuracy: acc,
			Rounds:   len(res.Rounds),
			State:    res.State,
			Macro:    Macro(per, cfg),
			Classes:  per,
		})
	}

	// Sort by accuracy descending, macro F1 as tie-break
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Accuracy != results[j].Accuracy {
			return results[i].Accuracy > results[j].Accuracy
		}
		return results[i].Macro.F1 > results[j].Macro.F1
	})

	return results, nil
}
