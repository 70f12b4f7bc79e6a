// Package nbem classifies short text records with multinomial Naive Bayes
// and refines the model with Expectation-Maximization over unlabeled records.
//
// # Quick Start
//
//	train, err := corpus.ReadFile("train.tsv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	test, err := corpus.ReadFile("test.tsv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := nbem.NewTrainer(nbem.WithRounds(10)).Run(ctx, train, test)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("accuracy: %.4f\n", res.Final().Accuracy)
//
//	clf := nbem.NewClassifier(res.Model)
//	label, _ := clf.Classify(tokenizer.Tokenize("kernel panic on boot"))
//
// # Scoring
//
// Scores are computed in log space. Every prior and every (class, token)
// lookup is clamped to a floor probability (DefaultFloor, see WithFloor),
// so an unseen token attenuates every class equally and never zeroes one
// out. Posteriors are normalized with log-sum-exp and fall back to uniform
// when the total underflows. Classes are ordered lexicographically; ties
// go to the first.
//
// # EM
//
// A Trainer seeds a model from labeled training records, then repeats an
// E-step (posteriors for every unlabeled record), an evaluation against the
// labeled test records, and an M-step (rebuild from labeled one-hot plus
// unlabeled soft counts). It stops after WithRounds rounds or once the
// posteriors move less than WithEpsilon.
//
// # Thread Safety
//
// Model and Classifier are immutable after construction and safe for
// concurrent use. The E-step runs across WithWorkers goroutines.
package nbem
