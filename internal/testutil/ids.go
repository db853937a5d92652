// Package testutil holds deterministic stand-ins used across package tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs issues UUID-shaped ids from a counter, so stores opened
// with it assign the same ids on every run.
//
// Safe for concurrent use.
type SequentialIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialIDs creates a generator whose first id ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// NewID returns the next id, e.g. "00000000-0000-7000-8000-000000000001".
func (g *SequentialIDs) NewID() (string, error) {
	return ID(g.Next()), nil
}

// Next increments and returns the counter.
func (g *SequentialIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.seq
}

// Current returns the counter without incrementing.
func (g *SequentialIDs) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence; the next id ends in 1 again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// ID formats the n-th sequential id.
func ID(n int64) string {
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", n)
}
