package tokenizer

import (
	"reflect"
	"testing"
)

func TestBigrams_Contains(t *testing.T) {
	b := NewBigrams([2]string{"new", "york"})
	if !b.Contains("new", "york") {
		t.Error("expected (new, york) to be present")
	}
	if b.Contains("york", "new") {
		t.Error("pairs are ordered; (york, new) should be absent")
	}
}

func TestMineCollocations(t *testing.T) {
	var docs [][]string
	// "kernel panic" always co-occurs; "the" is frequent everywhere.
	for i := 0; i < 20; i++ {
		docs = append(docs, []string{"kernel", "panic", "on", "the", "host"})
		docs = append(docs, []string{"the", "disk", "is", "the", "bottleneck"})
	}

	got := MineCollocations(docs, 10, 5)
	if !got.Contains("kernel", "panic") {
		t.Errorf("expected kernel_panic, got %v", got.Tokens())
	}
	// "the" is frequent enough that its pairs fall below the lift gate.
	if got.Contains("on", "the") || got.Contains("the", "disk") {
		t.Errorf("unexpected low-lift pair in %v", got.Tokens())
	}

	// Count gate excludes everything below the threshold.
	if strict := MineCollocations(docs, 100, 1); len(strict) != 0 {
		t.Errorf("expected no bigrams above count 100, got %v", strict.Tokens())
	}
}

func TestMineCollocations_Empty(t *testing.T) {
	if got := MineCollocations(nil, 0, 0); len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}
	if got := MineCollocations([][]string{{"single"}}, 0, 0); len(got) != 0 {
		t.Errorf("expected empty set for unigram-only docs, got %v", got)
	}
}

func TestBigrams_Tokens(t *testing.T) {
	b := NewBigrams([2]string{"b", "c"}, [2]string{"a", "b"})
	want := []string{"a_b", "b_c"}
	if got := b.Tokens(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %q, want %q", got, want)
	}
}

func TestNewWithCollocations(t *testing.T) {
	var texts []string
	for i := 0; i < 20; i++ {
		texts = append(texts, "Kernel panic on the host", "the disk is the bottleneck")
	}

	tok := NewWithCollocations(texts, 10, 5)
	got := tok.Tokenize("kernel panic")
	want := []string{"kernel", "panic", "kernel_panic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %q, want %q", got, want)
	}
}
