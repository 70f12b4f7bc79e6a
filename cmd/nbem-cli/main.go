package main

import (
	"context"
	"errors"
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
	"github.com/jamesainslie/go-nbem/internal/store"
	"github.com/jamesainslie/go-nbem/tokenizer"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	rounds          int
	epsilon         float64
	floor           float64
	unlabeledWeight float64
	workers         int
	transductive    bool
	fold            bool
	stopwords       bool
	bigrams         bool
	bigramMinCount  float64
	bigramMinLift   float64
	classes         []string
	history         string
	dumpModel       string
	verbose         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "nbem-cli TRAIN TEST",
		Short: "Train a Naive Bayes classifier with EM and report per-round accuracy",
		Long: `nbem-cli seeds a multinomial Naive Bayes model from the labeled records in
TRAIN, refines it with Expectation-Maximization over the unlabeled records,
and reports accuracy on the labeled records in TEST after every round.

Both files hold one record per line: id<TAB>label<TAB>text[<TAB>text...].
An empty label or "?" marks a record as unlabeled.`,
		Args:          cobra.ExactArgs(2),
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, args[0], args[1], stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.IntVar(&o.rounds, "rounds", nbem.DefaultRounds, "maximum number of EM rounds")
	f.Float64Var(&o.epsilon, "epsilon", nbem.DefaultEpsilon, "stop when unlabeled posteriors move less than this (0 disables)")
	f.Float64Var(&o.floor, "floor", nbem.DefaultFloor, "floor probability for unseen tokens")
	f.Float64Var(&o.unlabeledWeight, "unlabeled-weight", 1.0, "weight of unlabeled soft counts relative to labeled counts")
	f.IntVar(&o.workers, "workers", 0, "E-step parallelism (0 = number of CPUs)")
	f.BoolVar(&o.transductive, "transductive", true, "add test records, labels hidden, to the unlabeled pool")
	f.BoolVar(&o.fold, "fold", false, "strip diacritics and apply Unicode lowercasing before tokenizing")
	f.BoolVar(&o.stopwords, "stopwords", false, "drop English stopwords")
	f.BoolVar(&o.bigrams, "bigrams", false, "add collocation tokens mined from the training text")
	f.Float64Var(&o.bigramMinCount, "bigram-min-count", 100, "minimum pair count for a collocation")
	f.Float64Var(&o.bigramMinLift, "bigram-min-lift", 100, "minimum lift for a collocation")
	f.StringSliceVar(&o.classes, "classes", nil, "expected classes; any without labeled training records are reported")
	f.StringVar(&o.history, "history", "", "SQLite file recording rounds and the final model")
	f.StringVar(&o.dumpModel, "dump-model", "", "write the final model as JSON to this path")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log progress at debug level")

	return cmd
}

func run(ctx context.Context, o options, trainPath, testPath string, stdout, stderr io.Writer) (err error) {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	train, err := corpus.ReadFile(trainPath)
	if err != nil {
		return fmt.Errorf("reading training file: %w", err)
	}
	test, err := corpus.ReadFile(testPath)
	if err != nil {
		return fmt.Errorf("reading test file: %w", err)
	}
	logger.Debug("corpus loaded", "train", len(train), "test", len(test))

	tok := buildTokenizer(o, train)

	var hist *store.Store
	var runID int64
	var histErrs []error
	if o.history != "" {
		hist, err = store.Open(o.history)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer func() {
			if cerr := hist.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}()
		runID, err = hist.CreateRun(trainPath, testPath, describe(o))
		if err != nil {
			return err
		}
	}

	opts := []nbem.Option{
		nbem.WithRounds(o.rounds),
		nbem.WithEpsilon(o.epsilon),
		nbem.WithFloor(o.floor),
		nbem.WithUnlabeledWeight(o.unlabeledWeight),
		nbem.WithTransductive(o.transductive),
		nbem.WithClasses(o.classes...),
		nbem.WithTokenizer(tok),
		nbem.WithLogger(logger),
		nbem.WithRoundHook(func(r nbem.RoundReport) {
			fmt.Fprintf(stdout, "round=%d correct=%d total=%d accuracy=%f\n", r.Round, r.Correct, r.Total, r.Accuracy)
			if hist != nil {
				histErrs = append(histErrs, hist.AddRound(store.Round{
					RunID:         runID,
					Round:         r.Round,
					Correct:       r.Correct,
					Total:         r.Total,
					Unknown:       r.Unknown,
					Accuracy:      r.Accuracy,
					Delta:         r.Delta,
					LogLikelihood: r.LogLikelihood,
				}))
			}
		}),
	}
	if o.workers > 0 {
		opts = append(opts, nbem.WithWorkers(o.workers))
	}

	res, err := nbem.NewTrainer(opts...).Run(ctx, train, test)
	if err != nil {
		return err
	}

	final := res.Final()
	fmt.Fprintf(stdout, "final state=%s rounds=%d correct=%d total=%d accuracy=%f\n",
		res.State, len(res.Rounds), final.Correct, final.Total, final.Accuracy)
	if len(res.MissingClasses) > 0 {
		fmt.Fprintf(stdout, "missing classes: %s\n", strings.Join(res.MissingClasses, ", "))
	}

	if hist != nil {
		if err := errors.Join(histErrs...); err != nil {
			return fmt.Errorf("recording rounds: %w", err)
		}
		snap, err := res.Model.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encoding model: %w", err)
		}
		if err := hist.SaveSnapshot(runID, final.Round, snap); err != nil {
			return err
		}
		if err := hist.FinishRun(runID, res.State.String()); err != nil {
			return err
		}
	}

	if o.dumpModel != "" {
		data, err := res.Model.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding model: %w", err)
		}
		if err := os.WriteFile(o.dumpModel, data, 0o644); err != nil {
			return fmt.Errorf("writing model: %w", err)
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
	return tokenizer.NewWithCollocations(texts, o.bigramMinCount, o.bigramMinLift, opts...)
}

func describe(o options) string {
	return fmt.Sprintf("rounds=%d epsilon=%g floor=%g unlabeled-weight=%g transductive=%t fold=%t stopwords=%t bigrams=%t",
		o.rounds, o.epsilon, o.floor, o.unlabeledWeight, o.transductive, o.fold, o.stopwords, o.bigrams)
}
