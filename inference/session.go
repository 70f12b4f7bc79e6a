// Package inference runs per-record scoring across a bounded set of sessions.
//
// A Session owns a reusable score buffer; a Pool hands sessions out to
// concurrent workers; Map drives a parallel loop over record indices.
package inference

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("inference: pool is closed")

	// ErrSessionClosed is returned by Infer after Close.
	ErrSessionClosed = errors.New("inference: session is closed")
)

// Scorer computes one log score per class for a token sequence.
// LogScores must write into dst (len(dst) == NumClasses()) and return it.
type Scorer interface {
	NumClasses() int
	LogScores(tokens []string, dst []float64) []float64
}

// Session wraps the scratch space for one in-flight scoring call.
type Session struct {
	buf    []float64
	mu     sync.Mutex
	closed bool
}

// NewSession creates a session.
func NewSession() *Session {
	return &Session{}
}

// Infer scores tokens with scorer. The returned slice belongs to the session
// and is overwritten by the next Infer call; copy it to keep it.
func (s *Session) Infer(ctx context.Context, scorer Scorer, tokens []string) ([]float64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	n := scorer.NumClasses()
	if cap(s.buf) < n {
		s.buf = make([]float64, n)
	}
	return scorer.LogScores(tokens, s.buf[:n]), nil
}

// Close releases the session buffer.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.buf = nil
	return nil
}
