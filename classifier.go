package nbem

import (
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/jamesainslie/go-nbem/corpus"
	"github.com/jamesainslie/go-nbem/tokenizer"
)

// Scores maps each class to its log-space score.
type Scores map[string]float64

// Posterior maps each class to a probability.
type Posterior map[string]float64

// OneHot returns a posterior with all mass on class and zero on the others.
func OneHot(class string, classes []string) Posterior {
	p := make(Posterior, len(classes)+1)
	for _, c := range classes {
		p[c] = 0
	}
	p[class] = 1
	return p
}

// Uniform returns an equal distribution over classes.
func Uniform(classes []string) Posterior {
	p := make(Posterior, len(classes))
	for _, c := range classes {
		p[c] = 1 / float64(len(classes))
	}
	return p
}

// Classes returns the posterior's classes in sorted order.
func (p Posterior) Classes() []string {
	return slices.Sorted(maps.Keys(p))
}

// Sum returns the total probability mass, added in class order.
func (p Posterior) Sum() float64 {
	var total float64
	for _, c := range p.Classes() {
		total += p[c]
	}
	return total
}

// Best returns the most probable class. Ties go to the first class in
// sorted order.
func (p Posterior) Best() (string, bool) {
	best, found := "", false
	for _, c := range p.Classes() {
		if !found || p[c] > p[best] {
			best, found = c, true
		}
	}
	return best, found
}

// Classifier scores token sequences against a normalized Model.
// It is safe for concurrent use.
type Classifier struct {
	model     *Model
	classes   []string
	logPriors []float64
	floor     float64
	logFloor  float64
	tokenizer *tokenizer.Tokenizer
}

// NewClassifier creates a Classifier for m, normalizing it first if needed.
// Only WithFloor and WithTokenizer affect a Classifier.
func NewClassifier(m *Model, opts ...Option) *Classifier {
	cfg := newConfig(opts)
	m = m.Normalize()

	c := &Classifier{
		model:     m,
		classes:   m.classes,
		logPriors: make([]float64, len(m.classes)),
		floor:     cfg.floor,
		logFloor:  math.Log(cfg.floor),
		tokenizer: cfg.tokenizer,
	}

	var total float64
	for _, class := range c.classes {
		total += m.priors[class]
	}
	for i, class := range c.classes {
		p := 0.0
		if total > 0 {
			p = m.priors[class] / total
		}
		c.logPriors[i] = floorLog(p, c.floor)
	}
	return c
}

// floorLog is the one place the floor probability is applied.
func floorLog(p, floor float64) float64 {
	if !(p > floor) {
		p = floor
	}
	return math.Log(p)
}

// Model returns the normalized model the classifier scores against.
func (c *Classifier) Model() *Model {
	return c.model
}

// Classes returns the classes in scoring order.
func (c *Classifier) Classes() []string {
	return slices.Clone(c.classes)
}

// NumClasses implements inference.Scorer.
func (c *Classifier) NumClasses() int {
	return len(c.classes)
}

// LogScores implements inference.Scorer. It writes one log score per class,
// in Classes order, into dst.
func (c *Classifier) LogScores(tokens []string, dst []float64) []float64 {
	for i, class := range c.classes {
		table := c.model.likelihood[class]
		s := c.logPriors[i]
		for _, tok := range tokens {
			if p, ok := table[tok]; ok {
				s += floorLog(p, c.floor)
			} else {
				s += c.logFloor
			}
		}
		dst[i] = s
	}
	return dst
}

// Score returns the log score of every class for tokens. Scores are finite
// for any input: unseen tokens contribute the log floor to every class.
func (c *Classifier) Score(tokens []string) Scores {
	raw := c.LogScores(tokens, make([]float64, len(c.classes)))
	out := make(Scores, len(raw))
	for i, class := range c.classes {
		out[class] = raw[i]
	}
	return out
}

// Classify returns the highest scoring class. It returns false only when
// the model has no classes.
func (c *Classifier) Classify(tokens []string) (string, bool) {
	if len(c.classes) == 0 {
		return "", false
	}
	raw := c.LogScores(tokens, make([]float64, len(c.classes)))
	return c.classes[argmax(raw)], true
}

// Posterior returns the class distribution for tokens.
func (c *Classifier) Posterior(tokens []string) Posterior {
	raw := c.LogScores(tokens, make([]float64, len(c.classes)))
	return c.posteriorFrom(raw)
}

// ClassifyRecord tokenizes rec with the classifier's tokenizer and classifies it.
func (c *Classifier) ClassifyRecord(rec corpus.Record) (string, bool) {
	return c.Classify(c.tokenizer.Tokenize(rec.Text()))
}

// PosteriorRecord tokenizes rec with the classifier's tokenizer and returns
// its posterior.
func (c *Classifier) PosteriorRecord(rec corpus.Record) Posterior {
	return c.Posterior(c.tokenizer.Tokenize(rec.Text()))
}

func (c *Classifier) posteriorFrom(logScores []float64) Posterior {
	probs := normalizeLogScores(logScores)
	p := make(Posterior, len(c.classes))
	for i, class := range c.classes {
		p[class] = probs[i]
	}
	return p
}

// argmax returns the first index holding the maximum value.
func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

// normalizeLogScores turns log scores into probabilities that sum to 1.
// When the total underflows or is not finite the result is uniform.
func normalizeLogScores(logScores []float64) []float64 {
	n := len(logScores)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	lse := logSumExp(logScores)
	if math.IsInf(lse, 0) || math.IsNaN(lse) {
		return uniform(out)
	}

	var total float64
	for i, s := range logScores {
		out[i] = math.Exp(s - lse)
		total += out[i]
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return uniform(out)
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func uniform(out []float64) []float64 {
	for i := range out {
		out[i] = 1 / float64(len(out))
	}
	return out
}

// logSumExp is gonum's log-sum-exp with an empty-slice guard.
func logSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(xs)
}
