package bench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/go-nbem/corpus"
)

func labeledRecords(n int) []corpus.Record {
	var out []corpus.Record
	for i := range n {
		label := "a"
		if i%2 == 1 {
			label = "b"
		}
		out = append(out, corpus.Record{ID: fmt.Sprintf("r%d", i), Label: label, Fields: []string{"text"}})
	}
	return out
}

func TestHoldout(t *testing.T) {
	records := labeledRecords(10)
	records = append(records, corpus.Record{ID: "u1", Fields: []string{"unlabeled"}})

	train, test, err := Holdout(records, 0.3, 42)
	if err != nil {
		t.Fatalf("Holdout failed: %v", err)
	}

	if len(test) != 3 {
		t.Errorf("expected 3 held out records, got %d", len(test))
	}
	if len(train) != 8 {
		t.Errorf("expected 8 training records, got %d", len(train))
	}
	for _, r := range test {
		if !r.Labeled() {
			t.Errorf("unlabeled record %s moved to test", r.ID)
		}
	}

	// Order is preserved on both sides.
	pos := make(map[string]int)
	for i, r := range records {
		pos[r.ID] = i
	}
	for _, side := range [][]corpus.Record{train, test} {
		for i := 1; i < len(side); i++ {
			if pos[side[i-1].ID] > pos[side[i].ID] {
				t.Errorf("order not preserved: %s before %s", side[i-1].ID, side[i].ID)
			}
		}
	}
}

func TestHoldout_Deterministic(t *testing.T) {
	records := labeledRecords(20)

	_, a, err := Holdout(records, 0.25, 7)
	if err != nil {
		t.Fatal(err)
	}
	_, b, err := Holdout(records, 0.25, 7)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("test[%d]: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
}

func TestHoldout_Clamps(t *testing.T) {
	records := labeledRecords(2)

	for _, fraction := range []float64{0.01, 0.99} {
		train, test, err := Holdout(records, fraction, 1)
		if err != nil {
			t.Fatalf("fraction %v: %v", fraction, err)
		}
		if len(train) != 1 || len(test) != 1 {
			t.Errorf("fraction %v: got %d/%d, want 1/1", fraction, len(train), len(test))
		}
	}
}

func TestHoldout_Errors(t *testing.T) {
	tests := []struct {
		name     string
		records  []corpus.Record
		fraction float64
		want     error
	}{
		{"zero fraction", labeledRecords(4), 0, ErrInvalidFraction},
		{"whole corpus", labeledRecords(4), 1, ErrInvalidFraction},
		{"one labeled", labeledRecords(1), 0.5, ErrTooFewLabeled},
		{"none", nil, 0.5, ErrTooFewLabeled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Holdout(tt.records, tt.fraction, 1)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func writeTSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSplit(t *testing.T) {
	dir := t.TempDir()
	trainPath := writeTSV(t, dir, "train.tsv",
		"1\ta\tapple pie",
		"2\tb\tdog park",
		"3\ta\tapple tart",
		"4\tb\tdog walk",
	)
	testPath := writeTSV(t, dir, "test.tsv", "5\ta\tapple")

	t.Run("explicit test file", func(t *testing.T) {
		train, test, err := LoadSplit(trainPath, testPath, 0.5, 1)
		if err != nil {
			t.Fatalf("LoadSplit failed: %v", err)
		}
		if len(train) != 4 || len(test) != 1 {
			t.Errorf("got %d/%d records, want 4/1", len(train), len(test))
		}
	})

	t.Run("holdout", func(t *testing.T) {
		train, test, err := LoadSplit(trainPath, "", 0.5, 1)
		if err != nil {
			t.Fatalf("LoadSplit failed: %v", err)
		}
		if len(train) != 2 || len(test) != 2 {
			t.Errorf("got %d/%d records, want 2/2", len(train), len(test))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadSplit(filepath.Join(dir, "nope.tsv"), "", 0.5, 1)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("malformed test file", func(t *testing.T) {
		bad := writeTSV(t, dir, "bad.tsv", "only\ttwo")
		_, _, err := LoadSplit(trainPath, bad, 0.5, 1)
		if !errors.Is(err, corpus.ErrFormat) {
			t.Errorf("expected corpus.ErrFormat, got %v", err)
		}
	})
}
