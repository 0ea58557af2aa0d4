package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates event ids "<prefix>-0001", "<prefix>-0002", ...
//
// The same scenario with a fresh SequentialIDs produces byte-identical
// event logs, which golden snapshots rely on. Implements
// engine.IDGenerator.
//
// Safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "ev".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "ev"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
