package filter

import (
	"context"
	"fmt"
	"sync"
)

// MemoryFilter implements Filter using an in-memory map.
// Addresses are base58 and compared case-sensitively. Until the first
// successful Rebuild every address passes, so a cold start never drops events.
type MemoryFilter struct {
	source    Source
	addresses map[string]struct{}
	built     bool
	mu        sync.RWMutex
}

// NewMemoryFilter creates a new in-memory filter backed by source.
func NewMemoryFilter(source Source) *MemoryFilter {
	return &MemoryFilter{
		source:    source,
		addresses: make(map[string]struct{}),
	}
}

// Contains checks if an address is tracked.
func (f *MemoryFilter) Contains(address string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.built {
		return true
	}
	_, exists := f.addresses[address]
	return exists
}

// Add adds an address to the filter.
func (f *MemoryFilter) Add(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addresses[address] = struct{}{}
}

// Size returns the number of tracked addresses.
func (f *MemoryFilter) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.addresses)
}

// Rebuild replaces the tracked set with the source's current addresses.
// On error the previous set is kept.
func (f *MemoryFilter) Rebuild(ctx context.Context) error {
	addrs, err := f.source.Addresses(ctx)
	if err != nil {
		return fmt.Errorf("failed to load addresses: %w", err)
	}

	next := make(map[string]struct{}, len(addrs))
	for _, addr := range addrs {
		next[addr] = struct{}{}
	}

	f.mu.Lock()
	f.addresses = next
	f.built = true
	f.mu.Unlock()
	return nil
}
