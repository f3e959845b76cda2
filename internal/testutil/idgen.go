package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator produces predictable event ids for tests.
//
// Production uses time-sortable UUIDv7 ids; golden traces need stable
// bytes, so tests substitute "evt-000001", "evt-000002", ...
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "evt".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id in sequence.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}

// Reset restarts the sequence. After Reset the next id is prefix-000001.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
