// Package bench provides evaluation utilities for the EM classifier:
// seeded holdout splits, per-class metrics and unlabeled-weight sweeps.
package bench

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/jamesainslie/go-nbem/corpus"
)

var (
	// ErrInvalidFraction indicates a holdout fraction outside (0, 1).
	ErrInvalidFraction = errors.New("bench: holdout fraction must be in (0, 1)")

	// ErrTooFewLabeled indicates fewer than two labeled records to split.
	ErrTooFewLabeled = errors.New("bench: need at least two labeled records for a holdout split")
)

// Holdout moves a seeded random fraction of the labeled records into a
// test set. Unlabeled records always stay in train. Both outputs keep the
// input order, and each gets at least one labeled record.
func Holdout(records []corpus.Record, fraction float64, seed uint64) (train, test []corpus.Record, err error) {
	if !(fraction > 0 && fraction < 1) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidFraction, fraction)
	}

	labeledIdx := lo.FilterMap(records, func(r corpus.Record, i int) (int, bool) {
		return i, r.Labeled()
	})
	if len(labeledIdx) < 2 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrTooFewLabeled, len(labeledIdx))
	}

	n := int(math.Round(fraction * float64(len(labeledIdx))))
	n = max(1, min(n, len(labeledIdx)-1))

	rng := rand.New(rand.NewPCG(seed, seed))
	held := make(map[int]bool, n)
	for _, j := range rng.Perm(len(labeledIdx))[:n] {
		held[labeledIdx[j]] = true
	}

	for i, r := range records {
		if held[i] {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return train, test, nil
}

// LoadSplit reads the training file and, when testPath is empty, carves
// the test set out of it with Holdout. Otherwise it reads testPath.
func LoadSplit(trainPath, testPath string, fraction float64, seed uint64) (train, test []corpus.Record, err error) {
	records, err := corpus.ReadFile(trainPath)
	if err != nil {
		return nil, nil, err
	}
	if testPath == "" {
		return Holdout(records, fraction, seed)
	}

	test, err = corpus.ReadFile(testPath)
	if err != nil {
		return nil, nil, err
	}
	return records, test, nil
}
