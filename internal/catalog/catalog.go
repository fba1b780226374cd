// Package catalog holds the process-wide metadata catalog: the mapping
// from a dotted logical field name to its physical table/column/type and
// the policy resource tags the access-check stage needs.
//
// Catalog is the one piece of state in this worker that genuinely is
// process-wide rather than per-request — SPEC_FULL.md section 9 calls for
// it to be modeled as an owned structure held by the worker and passed by
// reference, protected by a reader-writer lock, rather than a module
// global. This is ported from original_source's DataCatalog class, whose
// class-level _attributes dict played the same role with no synchronization
// at all.
package catalog

import (
	"sync"

	"github.com/co-codin/query-compiler/internal/ir"
)

// Entry is one resolved catalog record.
type Entry struct {
	Table      ir.Table
	Field      string
	Type       string
	Attributes []string
}

// Catalog is a reader-writer-locked map of logical name to Entry, shared by
// every compilation running in this process.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty catalog, optionally pre-seeded with fixture entries
// (used by tests and by local development against the sample warehouse
// schema from original_source's DataCatalog).
func New(seed map[string]Entry) *Catalog {
	entries := make(map[string]Entry, len(seed))
	for k, v := range seed {
		entries[k] = v
	}
	return &Catalog{entries: entries}
}

// Get returns the entry for name, if resolved.
func (c *Catalog) Get(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[name]
	return entry, ok
}

// Has reports whether name is already resolved.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Missing returns the subset of names not yet resolved, preserving order.
func (c *Catalog) Missing(names []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var missing []string
	for _, name := range names {
		if _, ok := c.entries[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Merge adds newly resolved entries. Catalog is monotonic: existing entries
// are never overwritten or removed, matching the invariant in spec section
// 3 ("entries may be added but never removed or mutated").
func (c *Catalog) Merge(resolved map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, entry := range resolved {
		if _, exists := c.entries[name]; exists {
			continue
		}
		c.entries[name] = entry
	}
}
