// Package cache provides the in-process response cache for the Bazar gateway.
package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vyrodovalexey/bazargw/internal/book"
)

// ErrCacheMiss indicates that the key was not found in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Kind tells which projection a cache entry holds.
type Kind int

const (
	// KindNone marks a request that is not cache-eligible.
	KindNone Kind = iota
	// KindInfo is a single book summary from an /info/ lookup.
	KindInfo
	// KindSearch is an ordered list of summaries from a /search/ lookup.
	KindSearch
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSearch:
		return "search"
	default:
		return "none"
	}
}

// Value is a cached, normalized payload. Exactly one of Summary or List is
// meaningful, selected by Kind. Values are treated as immutable once stored.
type Value struct {
	Kind    Kind
	Summary book.Summary
	List    []book.Summary
}

// InfoValue wraps a single summary.
func InfoValue(s book.Summary) Value {
	return Value{Kind: KindInfo, Summary: s}
}

// SearchValue wraps an ordered list of summaries.
func SearchValue(list []book.Summary) Value {
	cp := make([]book.Summary, len(list))
	copy(cp, list)
	return Value{Kind: KindSearch, List: cp}
}

// ContainsID reports whether a search value lists a summary with the given
// identifier.
func (v Value) ContainsID(id string) bool {
	if v.Kind != KindSearch {
		return false
	}
	for _, s := range v.List {
		if s.HasID(id) {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the value as the response body served on a hit:
// an object for info entries and an array for search entries.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindSearch {
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Summary)
}

// Cache is the contract of the response cache.
type Cache interface {
	// Lookup returns the entry for key or ErrCacheMiss.
	Lookup(ctx context.Context, key string) (Value, error)

	// Store inserts or overwrites the entry for key.
	Store(ctx context.Context, key string, value Value)

	// Invalidate removes the info entry of the given book identifier and
	// every search entry listing it. It returns the number of entries removed.
	Invalidate(ctx context.Context, id string) int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Entries       int   `json:"entries"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Stores        int64 `json:"stores"`
	Invalidations int64 `json:"invalidations"`
	Removed       int64 `json:"removed"`
}
