package refnum

import (
	"context"
	"sync"
	"time"
)

// MemoryGenerator is an in-process Generator for the in-memory storage
// backend and for tests. Safe for concurrent use.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
	padWidth int
}

// NewMemory creates an in-memory reference generator.
func NewMemory() *MemoryGenerator {
	return &MemoryGenerator{
		counters: make(map[string]int64),
		padWidth: DefaultPadWidth,
	}
}

// Next implements Generator.
func (g *MemoryGenerator) Next(ctx context.Context, prefix string, date time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := buildKey(prefix, date)
	g.counters[key]++
	return Format(prefix, date, g.counters[key], g.padWidth), nil
}
