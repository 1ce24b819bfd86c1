// Package filter keeps an in-memory set of tracked addresses so the
// classifier can drop irrelevant transfers without a registry round trip.
package filter

import "context"

// Filter defines the interface for address filtering
type Filter interface {
	// Contains checks if an address may be tracked
	Contains(address string) bool

	// Add adds an address to the filter
	Add(address string)

	// Size returns the number of tracked addresses
	Size() int

	// Rebuild reloads the filter from its source
	Rebuild(ctx context.Context) error
}

// Source lists every tracked address.
type Source interface {
	Addresses(ctx context.Context) ([]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]string, error)

func (f SourceFunc) Addresses(ctx context.Context) ([]string, error) { return f(ctx) }
