package nbem

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/jamesainslie/go-nbem/corpus"
	"github.com/jamesainslie/go-nbem/inference"
)

// State is the phase of an EM run.
type State int

const (
	StateInitializing State = iota
	StateIterating
	StateConverged
	StateMaxRounds
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateMaxRounds:
		return "max-rounds"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RoundReport describes one EM round. Accuracy is measured with the model
// that entered the round, before its M-step.
type RoundReport struct {
	Round    int
	Correct  int
	Total    int
	Unknown  int
	Accuracy float64

	// Delta is the summed absolute change of unlabeled posteriors since the
	// previous round. It is zero in the first round.
	Delta float64

	// LogLikelihood is the training objective under the round's model:
	// labeled documents contribute the score of their class, unlabeled
	// documents the log-sum-exp over classes.
	LogLikelihood float64
}

// Result is the outcome of Trainer.Run.
type Result struct {
	Rounds []RoundReport

	// Model is the output of the last M-step.
	Model *Model
	State State

	// MissingClasses lists configured classes with no labeled training record.
	MissingClasses []string
}

// Final returns the last round's report.
func (r *Result) Final() RoundReport {
	if len(r.Rounds) == 0 {
		return RoundReport{}
	}
	return r.Rounds[len(r.Rounds)-1]
}

// Trainer runs semi-supervised EM over labeled and unlabeled records.
// A Trainer holds only configuration and may be reused.
type Trainer struct {
	cfg config
}

// NewTrainer creates a Trainer with the given options.
func NewTrainer(opts ...Option) *Trainer {
	return &Trainer{cfg: newConfig(opts)}
}

// Run seeds a model from the labeled training records and refines it with
// EM. Labeled test records are classified each round to report accuracy;
// in transductive mode they also join the unlabeled pool with labels hidden.
func (t *Trainer) Run(ctx context.Context, train, test []corpus.Record) (*Result, error) {
	cfg := t.cfg
	log := cfg.logger
	res := &Result{State: StateInitializing}

	trainDocs := NewDocuments(train, cfg.tokenizer)
	testDocs := NewDocuments(test, cfg.tokenizer)

	labeled := lo.Filter(trainDocs, func(d Document, _ int) bool { return d.Record.Labeled() })
	if len(labeled) == 0 {
		return nil, ErrNoLabeledRecords
	}
	if !lo.SomeBy(testDocs, func(d Document) bool { return d.Record.Labeled() }) {
		return nil, fmt.Errorf("test set has no labeled records: %w", ErrEmptyCorpus)
	}

	model := SeedFromLabeled(labeled).Normalize()
	classes := model.Classes()

	res.MissingClasses = lo.Filter(lo.Uniq(cfg.classes), func(c string, _ int) bool { return !model.HasClass(c) })
	slices.Sort(res.MissingClasses)
	for _, c := range res.MissingClasses {
		log.Warn("configured class has no labeled training records", "class", c)
	}

	hard := make([]Weighted, len(labeled))
	for i, d := range labeled {
		hard[i] = Weighted{Posterior: OneHot(d.Record.Label, classes), Doc: d, Weight: 1}
	}

	unlabeled := lo.Reject(trainDocs, func(d Document, _ int) bool { return d.Record.Labeled() })
	if cfg.transductive {
		for _, d := range testDocs {
			d.Record.Label = ""
			unlabeled = append(unlabeled, d)
		}
	}

	log.Info("em start",
		"labeled", len(labeled),
		"unlabeled", len(unlabeled),
		"test", len(testDocs),
		"classes", len(classes),
		"rounds", cfg.rounds,
		"transductive", cfg.transductive)

	pool := inference.NewPool(cfg.workers)
	defer func() { _ = pool.Close() }()

	warned := make(map[string]bool)
	var prev []Posterior
	res.State = StateIterating

	for round := 1; round <= cfg.rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clf := NewClassifier(model, WithFloor(cfg.floor))

		// E-step
		posts, unlabeledLL, err := t.expect(ctx, pool, clf, unlabeled)
		if err != nil {
			return nil, fmt.Errorf("round %d: e-step: %w", round, err)
		}

		ev, err := Evaluate(clf, testDocs)
		if err != nil {
			return nil, fmt.Errorf("round %d: evaluate: %w", round, err)
		}
		for _, c := range ev.UnknownClasses {
			if !warned[c] {
				warned[c] = true
				log.Warn("test class never seen in training", "class", c, "err", ErrUnknownClass)
			}
		}

		report := RoundReport{
			Round:         round,
			Correct:       ev.Correct,
			Total:         ev.Total,
			Unknown:       ev.Unknown,
			Accuracy:      ev.Accuracy,
			Delta:         posteriorDelta(prev, posts, classes),
			LogLikelihood: labeledLogLikelihood(clf, labeled) + unlabeledLL,
		}
		res.Rounds = append(res.Rounds, report)
		log.Info("em round",
			"round", report.Round,
			"correct", report.Correct,
			"total", report.Total,
			"accuracy", report.Accuracy,
			"delta", report.Delta,
			"loglik", report.LogLikelihood)
		if cfg.onRound != nil {
			cfg.onRound(report)
		}

		// M-step
		model = t.maximize(hard, unlabeled, posts)

		if cfg.epsilon > 0 && prev != nil && report.Delta < cfg.epsilon {
			res.State = StateConverged
			log.Info("em converged", "round", round, "delta", report.Delta)
			break
		}
		prev = posts
	}

	if res.State == StateIterating {
		res.State = StateMaxRounds
	}
	res.Model = model
	return res, nil
}

// expect computes the posterior of every unlabeled document in parallel and
// returns them by index with the summed log evidence.
func (t *Trainer) expect(ctx context.Context, pool *inference.Pool, clf *Classifier, docs []Document) ([]Posterior, float64, error) {
	posts := make([]Posterior, len(docs))
	evidence := make([]float64, len(docs))

	err := inference.Map(ctx, pool, len(docs), func(ctx context.Context, s *inference.Session, i int) error {
		scores, err := s.Infer(ctx, clf, docs[i].Tokens)
		if err != nil {
			return err
		}
		evidence[i] = logSumExp(scores)
		posts[i] = clf.posteriorFrom(scores)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	var ll float64
	for _, e := range evidence {
		ll += e
	}
	return posts, ll, nil
}

// maximize rebuilds the model from the fixed labeled posteriors and the
// fresh unlabeled ones.
func (t *Trainer) maximize(hard []Weighted, docs []Document, posts []Posterior) *Model {
	ws := slices.Clone(hard)
	for i, d := range docs {
		ws = append(ws, Weighted{Posterior: posts[i], Doc: d, Weight: t.cfg.unlabeledWeight})
	}
	return SeedFromWeighted(ws).Normalize()
}

func labeledLogLikelihood(clf *Classifier, docs []Document) float64 {
	buf := make([]float64, clf.NumClasses())
	var ll float64
	for _, d := range docs {
		idx := slices.Index(clf.classes, d.Record.Label)
		if idx < 0 {
			continue
		}
		ll += clf.LogScores(d.Tokens, buf)[idx]
	}
	return ll
}

// posteriorDelta returns the L1 distance between two rounds of posteriors.
func posteriorDelta(prev, cur []Posterior, classes []string) float64 {
	if prev == nil {
		return 0
	}
	var delta float64
	for i := range cur {
		for _, c := range classes {
			delta += math.Abs(cur[i][c] - prev[i][c])
		}
	}
	return delta
}

var _ inference.Scorer = (*Classifier)(nil)
