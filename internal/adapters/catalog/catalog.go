// Package catalog provides read access to the known betting lines for a
// cycle. The engine treats the catalog as read-only; an external ingestion
// collaborator refreshes it on its own schedule via Replace.
package catalog

import (
	"context"
	"sync"

	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/pkg/metrics"
)

// Catalog exposes the lines published for a cycle.
//
// Implementations must iterate in a stable order (insertion order here)
// so that matcher tie-breaks stay deterministic. An empty catalog is a
// normal state, not an error; errors mean the source itself failed.
type Catalog interface {
	Lines(ctx context.Context, cycle model.Cycle) ([]model.Line, error)
}

// MemoryCatalog is an insertion-ordered in-memory Catalog.
type MemoryCatalog struct {
	mu    sync.RWMutex
	lines []model.Line
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{}
}

// Lines returns the lines published for cycle, in insertion order.
func (c *MemoryCatalog) Lines(_ context.Context, cycle model.Cycle) ([]model.Line, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Line, 0, len(c.lines))
	for _, l := range c.lines {
		if l.Cycle == cycle {
			out = append(out, l)
		}
	}
	return out, nil
}

// Add appends lines to the catalog.
func (c *MemoryCatalog) Add(lines ...model.Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, lines...)
	metrics.UpdateCatalogSize(len(c.lines))
}

// Replace swaps the published lines for cycle with a fresh ingestion
// batch. Lines from other cycles are kept.
func (c *MemoryCatalog) Replace(cycle model.Cycle, lines []model.Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]model.Line, 0, len(c.lines))
	for _, l := range c.lines {
		if l.Cycle != cycle {
			kept = append(kept, l)
		}
	}
	c.lines = append(kept, lines...)

	metrics.RecordCatalogRefresh()
	metrics.UpdateCatalogSize(len(c.lines))
}

// Len returns the total number of lines across all cycles.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}
