package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	nbem "github.com/jamesainslie/go-nbem"
	"github.com/jamesainslie/go-nbem/corpus"
	"github.com/jamesainslie/go-nbem/internal/bench"
	"github.com/jamesainslie/go-nbem/tokenizer"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	rounds    int
	workers   int
	holdout   float64
	seed      uint64
	wp        float64
	wr        float64
	sweepMin  float64
	sweepMax  float64
	sweepStep float64
	fold      bool
	stopwords bool
	bigrams   bool
	perClass  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "nbem-bench TRAIN [TEST]",
		Short: "Sweep the unlabeled-data weight and report accuracy and per-class metrics",
		Long: `nbem-bench trains once per unlabeled weight in [sweep-min, sweep-max] and
scores each final model on the labeled test records. With only TRAIN given,
a seeded holdout of its labeled records becomes the test set.`,
		Args:          cobra.RangeArgs(1, 2),
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			testPath := ""
			if len(args) == 2 {
				testPath = args[1]
			}
			return run(cmd.Context(), o, args[0], testPath, stdout)
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.rounds, "rounds", nbem.DefaultRounds, "maximum number of EM rounds per run")
	f.IntVar(&o.workers, "workers", 0, "E-step parallelism (0 = number of CPUs)")
	f.Float64Var(&o.holdout, "holdout", 0.2, "fraction of labeled training records held out when TEST is omitted")
	f.Uint64Var(&o.seed, "seed", 1, "holdout shuffle seed")
	f.Float64Var(&o.wp, "wp", 1.0, "precision weight")
	f.Float64Var(&o.wr, "wr", 1.0, "recall weight")
	f.Float64Var(&o.sweepMin, "sweep-min", 0, "sweep minimum unlabeled weight")
	f.Float64Var(&o.sweepMax, "sweep-max", 1, "sweep maximum unlabeled weight")
	f.Float64Var(&o.sweepStep, "sweep-step", 0.25, "sweep step size")
	f.BoolVar(&o.fold, "fold", false, "strip diacritics and apply Unicode lowercasing before tokenizing")
	f.BoolVar(&o.stopwords, "stopwords", false, "drop English stopwords")
	f.BoolVar(&o.bigrams, "bigrams", false, "add collocation tokens mined from the training text")
	f.BoolVar(&o.perClass, "per-class", false, "print per-class metrics for the best weight")

	return cmd
}

func run(ctx context.Context, o options, trainPath, testPath string, stdout io.Writer) error {
	train, test, err := bench.LoadSplit(trainPath, testPath, o.holdout, o.seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Loaded %d training and %d test records\n\n", len(train), len(test))

	weights := bench.SweepWeights(o.sweepMin, o.sweepMax, o.sweepStep)
	if len(weights) == 0 {
		return fmt.Errorf("empty sweep: min=%g max=%g step=%g", o.sweepMin, o.sweepMax, o.sweepStep)
	}

	cfg := bench.Config{PrecisionWeight: o.wp, RecallWeight: o.wr}
	opts := []nbem.Option{
		nbem.WithRounds(o.rounds),
		nbem.WithTokenizer(buildTokenizer(o, train)),
		nbem.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if o.workers > 0 {
		opts = append(opts, nbem.WithWorkers(o.workers))
	}

	results, err := bench.Sweep(ctx, train, test, cfg, weights, opts...)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	fmt.Fprintf(stdout, "Unlabeled Weight Sweep (wp=%.1f, wr=%.1f)\n", cfg.PrecisionWeight, cfg.RecallWeight)
	fmt.Fprintln(stdout, strings.Repeat("-", 66))
	fmt.Fprintf(stdout, "%-8s %-8s %-7s %-11s %-8s %-8s %-8s\n", "Weight", "Acc", "Rounds", "State", "Prec", "Rec", "F1")

	// Print sorted by weight for readability
	for _, w := range weights {
		r, ok := lo.Find(results, func(r bench.SweepResult) bool { return r.Weight == w })
		if !ok {
			continue
		}
		fmt.Fprintf(stdout, "%-8.3f %-8.4f %-7d %-11s %-8.2f %-8.2f %-8.2f\n",
			r.Weight, r.Accuracy, r.Rounds, r.State, r.Macro.Precision, r.Macro.Recall, r.Macro.F1)
	}

	fmt.Fprintln(stdout, strings.Repeat("-", 66))
	best := results[0]
	fmt.Fprintf(stdout, "Optimal: %.3f (Accuracy: %.4f, Weighted: %.2f)\n", best.Weight, best.Accuracy, best.Macro.WeightedScore)

	if o.perClass {
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "%-20s %-5s %-5s %-5s %-8s %-8s %-8s\n", "Class", "TP", "FP", "FN", "Prec", "Rec", "F1")
		for _, m := range best.Classes {
			fmt.Fprintf(stdout, "%-20s %-5d %-5d %-5d %-8.2f %-8.2f %-8.2f\n",
				m.Class, m.TruePositives, m.FalsePositives, m.FalseNegatives, m.Precision, m.Recall, m.F1)
		}
	}
	return nil
}

func buildTokenizer(o options, train []corpus.Record) *tokenizer.Tokenizer {
	var opts []tokenizer.Option
	if o.fold {
		opts = append(opts, tokenizer.WithFolding())
	}
	if o.stopwords {
		opts = append(opts, tokenizer.WithStopwords())
	}
	if !o.bigrams {
		return tokenizer.New(opts...)
	}
	texts := lo.Map(train, func(r corpus.Record, _ int) string { return r.Text() })
	return tokenizer.NewWithCollocations(texts, 100, 100, opts...)
}
