package trie

import (
	"bytes"
	"context"
	"sync"
)

// Coordinator grants exclusive write access to non-overlapping path ranges.
// Two prefixes overlap when either is a prefix of the other. The store never
// detects overlapping writers on its own; callers that want the check go
// through TryAcquire or Acquire before mutating under a prefix.
type Coordinator struct {
	mu     sync.Mutex
	held   [][]byte
	notify chan struct{}
}

// NewCoordinator returns an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{notify: make(chan struct{})}
}

func overlaps(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return bytes.Equal(a[:n], b[:n])
}

// TryAcquire claims prefix if it overlaps no currently held range. The
// returned release function must be called exactly once.
func (c *Coordinator) TryAcquire(prefix []byte) (release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.held {
		if overlaps(h, prefix) {
			return nil, false
		}
	}
	p := make([]byte, len(prefix))
	copy(p, prefix)
	c.held = append(c.held, p)
	return func() { c.release(p) }, true
}

// Acquire blocks until prefix can be claimed or ctx is done.
func (c *Coordinator) Acquire(ctx context.Context, prefix []byte) (release func(), err error) {
	for {
		c.mu.Lock()
		blocked := false
		for _, h := range c.held {
			if overlaps(h, prefix) {
				blocked = true
				break
			}
		}
		if !blocked {
			p := make([]byte, len(prefix))
			copy(p, prefix)
			c.held = append(c.held, p)
			c.mu.Unlock()
			return func() { c.release(p) }, nil
		}
		wait := c.notify
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

func (c *Coordinator) release(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.held {
		if bytes.Equal(h, p) {
			c.held = append(c.held[:i], c.held[i+1:]...)
			break
		}
	}
	close(c.notify)
	c.notify = make(chan struct{})
}
