package inference

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool manages a pool of sessions for concurrent scoring.
type Pool struct {
	sessions chan *Session
	size     int
	mu       sync.Mutex
	closed   bool
}

// NewPool creates a pool of size sessions. Sizes below 1 become 1.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	pool := &Pool{
		sessions: make(chan *Session, size),
		size:     size,
	}
	for i := 0; i < size; i++ {
		pool.sessions <- NewSession()
	}
	return pool
}

// Acquire gets a session from the pool, blocking if none available.
// Respects context cancellation. Returns error if pool is closed.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case session, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		return session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session to the pool.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = s.Close() // Pool closed; clean up session
		return
	}

	select {
	case p.sessions <- s:
	default:
		_ = s.Close() // Pool full; clean up excess session
	}
}

// Close closes all sessions in the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sessions)
	p.mu.Unlock()

	var errs []error
	for session := range p.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.size
}

// Map calls fn once for every index in [0, n), running at most p.Size()
// calls at a time, each with its own session. The first error cancels the
// remaining work and is returned. fn must only write state owned by index i.
func Map(ctx context.Context, p *Pool, n int, fn func(ctx context.Context, s *Session, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Size())

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s, err := p.Acquire(gctx)
			if err != nil {
				return err
			}
			defer p.Release(s)
			return fn(gctx, s, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// The loop may have stopped early on a parent cancellation with no
	// goroutine observing it.
	return ctx.Err()
}
