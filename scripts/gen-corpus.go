//go:build ignore

// Generate a synthetic topic corpus in the tab-separated record format.
// Writes train.tsv (a few labeled records per class plus many unlabeled)
// and test.tsv (labeled) to the output directory.
// Usage: go run ./scripts/gen-corpus.go -out testdata
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

var topics = map[string][]string{
	"sports":  {"ball", "goal", "team", "score", "coach", "league", "match", "season", "striker", "referee"},
	"tech":    {"chip", "code", "kernel", "cloud", "server", "laptop", "driver", "patch", "compiler", "latency"},
	"finance": {"bank", "stock", "bond", "yield", "market", "loan", "equity", "dividend", "inflation", "broker"},
	"weather": {"rain", "storm", "wind", "cloudy", "sunny", "forecast", "snow", "humidity", "thunder", "frost"},
}

var filler = []string{"the", "new", "report", "today", "big", "week", "city", "people", "time", "after", "says", "local"}

func main() {
	outDir := flag.String("out", "testdata", "output directory")
	labeled := flag.Int("labeled", 5, "labeled training records per class")
	unlabeled := flag.Int("unlabeled", 400, "unlabeled training records")
	test := flag.Int("test", 200, "labeled test records")
	words := flag.Int("words", 14, "words per record")
	topical := flag.Float64("topical", 0.45, "probability a word comes from the record's topic")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewPCG(*seed, *seed))
	classes := []string{"finance", "sports", "tech", "weather"}

	doc := func(class string) string {
		out := make([]string, *words)
		for i := range out {
			if rng.Float64() < *topical {
				out[i] = topics[class][rng.IntN(len(topics[class]))]
			} else {
				out[i] = filler[rng.IntN(len(filler))]
			}
		}
		return strings.Join(out, " ")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	var train, testRows []string
	n := 0
	for _, c := range classes {
		for range *labeled {
			n++
			train = append(train, fmt.Sprintf("d%d\t%s\t%s", n, c, doc(c)))
		}
	}
	for range *unlabeled {
		n++
		c := classes[rng.IntN(len(classes))]
		train = append(train, fmt.Sprintf("d%d\t\t%s", n, doc(c)))
	}
	for range *test {
		n++
		c := classes[rng.IntN(len(classes))]
		testRows = append(testRows, fmt.Sprintf("d%d\t%s\t%s", n, c, doc(c)))
	}

	for name, rows := range map[string][]string{"train.tsv": train, "test.tsv": testRows} {
		path := filepath.Join(*outDir, name)
		if err := writeLines(path, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  -> %s (%d records)\n", path, len(rows))
	}
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
