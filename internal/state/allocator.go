package state

import (
	"fmt"
	"sync"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// Allocator hands out column ids. Ids are monotonically increasing across the
// lifetime of the store: the high-water mark is read once at construction and
// advanced in memory, so deleted columns never surrender their ids.
type Allocator struct {
	mu   sync.Mutex
	next int64
}

// NewAllocator seeds an allocator from the store's highest assigned column id.
func NewAllocator(store core.Store) (*Allocator, error) {
	max, err := store.MaxColumnID()
	if err != nil {
		return nil, fmt.Errorf("failed to seed column id allocator: %w", err)
	}
	return &Allocator{next: max}, nil
}

// Next returns the next unused column id.
func (a *Allocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	return a.next
}
