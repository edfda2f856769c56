// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"sync"

	"github.com/pdiddy/npmscout/pkg/types"
)

// Task is one discovered search partial awaiting enrichment. A task is
// owned by exactly one worker for its lifetime.
type Task struct {
	// Index is the task's position in discovery order, used to restore
	// that order for the relevance sort.
	Index int

	// Record is the search-result partial for the package.
	Record types.PartialRecord
}

// entry pairs a finished package with its discovery index.
type entry struct {
	index int
	pkg   types.Package
}

// resultStore collects finished packages from concurrent workers. Append
// is the only operation used while workers run; reads happen only after
// all workers have joined.
type resultStore struct {
	mu      sync.Mutex
	entries []entry
}

func (s *resultStore) append(index int, pkg types.Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{index: index, pkg: pkg})
}

func (s *resultStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// snapshot returns a copy of the collected entries.
func (s *resultStore) snapshot() []entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entry, len(s.entries))
	copy(out, s.entries)
	return out
}
