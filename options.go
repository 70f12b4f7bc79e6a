package nbem

import (
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-nbem/tokenizer"
)

const (
	// DefaultRounds is the number of EM rounds when no convergence stop fires.
	DefaultRounds = 10

	// DefaultFloor is the minimum probability substituted for unseen
	// (class, token) pairs and empty priors.
	DefaultFloor = 1e-4

	// DefaultEpsilon is the L1 posterior change below which EM stops early.
	DefaultEpsilon = 1e-6
)

// Option configures a Classifier or Trainer.
type Option func(*config)

type config struct {
	rounds          int
	epsilon         float64
	floor           float64
	unlabeledWeight float64
	workers         int
	transductive    bool
	classes         []string
	tokenizer       *tokenizer.Tokenizer
	logger          *slog.Logger
	onRound         func(RoundReport)
}

func defaultConfig() config {
	return config{
		rounds:          DefaultRounds,
		epsilon:         DefaultEpsilon,
		floor:           DefaultFloor,
		unlabeledWeight: 1.0,
		workers:         runtime.NumCPU(),
		transductive:    true,
		logger:          slog.Default(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithRounds sets the maximum number of EM rounds (default: 10).
func WithRounds(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.rounds = n
		}
	}
}

// WithEpsilon sets the convergence threshold on the summed absolute change
// of unlabeled posteriors between rounds (default: 1e-6). Zero disables the
// early stop.
func WithEpsilon(eps float64) Option {
	return func(c *config) {
		if eps >= 0 {
			c.epsilon = eps
		}
	}
}

// WithFloor sets the floor probability (default: 1e-4). Values outside
// (0, 1) are ignored.
func WithFloor(p float64) Option {
	return func(c *config) {
		if p > 0 && p < 1 {
			c.floor = p
		}
	}
}

// WithUnlabeledWeight scales the soft counts contributed by unlabeled
// records in the M-step (default: 1.0, equal to labeled evidence).
func WithUnlabeledWeight(w float64) Option {
	return func(c *config) {
		if w >= 0 {
			c.unlabeledWeight = w
		}
	}
}

// WithWorkers sets the E-step parallelism (default: runtime.NumCPU()).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithTransductive controls whether test records, with their labels hidden,
// join the unlabeled pool (default: true).
func WithTransductive(on bool) Option {
	return func(c *config) {
		c.transductive = on
	}
}

// WithClasses declares the classes the caller expects. Classes missing from
// the labeled training data are reported, not fatal.
func WithClasses(classes ...string) Option {
	return func(c *config) {
		c.classes = append([]string(nil), classes...)
	}
}

// WithTokenizer sets the tokenizer (default: tokenizer.Tokenize behavior).
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(c *config) {
		if t != nil {
			c.tokenizer = t
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRoundHook registers a callback invoked after each round's evaluation.
func WithRoundHook(fn func(RoundReport)) Option {
	return func(c *config) {
		c.onRound = fn
	}
}
