package inference

import (
	"context"
	"errors"
	"testing"
)

// lengthScorer scores class i as -(i+1) * len(tokens).
type lengthScorer struct{ classes int }

func (s lengthScorer) NumClasses() int { return s.classes }

func (s lengthScorer) LogScores(tokens []string, dst []float64) []float64 {
	for i := range dst {
		dst[i] = -float64((i + 1) * len(tokens))
	}
	return dst
}

func TestSession_Infer(t *testing.T) {
	session := NewSession()
	defer func() { _ = session.Close() }()

	scores, err := session.Infer(context.Background(), lengthScorer{classes: 3}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	want := []float64{-2, -4, -6}
	if len(scores) != len(want) {
		t.Fatalf("expected %d scores, got %d", len(want), len(scores))
	}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("scores[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
}

func TestSession_Infer_ReusesBuffer(t *testing.T) {
	session := NewSession()
	defer func() { _ = session.Close() }()

	ctx := context.Background()
	first, err := session.Infer(ctx, lengthScorer{classes: 4}, []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := session.Infer(ctx, lengthScorer{classes: 2}, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}

	if len(second) != 2 {
		t.Errorf("expected 2 scores, got %d", len(second))
	}
	if &first[0] != &second[0] {
		t.Error("expected the session buffer to be reused")
	}
}

func TestSession_Infer_ContextCancelled(t *testing.T) {
	session := NewSession()
	defer func() { _ = session.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Infer(ctx, lengthScorer{classes: 1}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSession_Close_Idempotent(t *testing.T) {
	session := NewSession()

	// First close should succeed
	if err := session.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}

	// Second close should also succeed (idempotent)
	if err := session.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestSession_Infer_AfterClose(t *testing.T) {
	session := NewSession()

	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := session.Infer(context.Background(), lengthScorer{classes: 2}, []string{"x"})
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}
