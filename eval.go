package nbem

import (
	"fmt"
	"slices"
)

// Accuracy returns the fraction of predictions equal to the ground truth.
// An empty comparison is an error rather than NaN.
func Accuracy(predictions, truth []string) (float64, error) {
	if len(predictions) != len(truth) {
		return 0, fmt.Errorf("%w: %d predictions, %d labels", ErrLengthMismatch, len(predictions), len(truth))
	}
	if len(truth) == 0 {
		return 0, ErrEmptyCorpus
	}

	correct := 0
	for i := range truth {
		if predictions[i] == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth)), nil
}

// Evaluation summarizes a classifier's predictions over labeled documents.
type Evaluation struct {
	Correct  int
	Total    int
	Accuracy float64

	// Unknown counts documents whose true class the model never saw. They
	// are counted in Total as misses.
	Unknown        int
	UnknownClasses []string

	Predictions []string
}

// Evaluate classifies every labeled document and compares against its
// label. Unlabeled documents are skipped. Returns ErrEmptyCorpus when no
// labeled document remains.
func Evaluate(c *Classifier, docs []Document) (Evaluation, error) {
	var ev Evaluation
	var truth []string
	for _, d := range docs {
		if !d.Record.Labeled() {
			continue
		}
		pred, _ := c.Classify(d.Tokens)
		if !c.model.HasClass(d.Record.Label) {
			ev.Unknown++
			if !slices.Contains(ev.UnknownClasses, d.Record.Label) {
				ev.UnknownClasses = append(ev.UnknownClasses, d.Record.Label)
			}
		}
		if pred == d.Record.Label {
			ev.Correct++
		}
		ev.Predictions = append(ev.Predictions, pred)
		truth = append(truth, d.Record.Label)
	}

	acc, err := Accuracy(ev.Predictions, truth)
	if err != nil {
		return ev, err
	}
	ev.Total = len(truth)
	ev.Accuracy = acc
	slices.Sort(ev.UnknownClasses)
	return ev, nil
}
