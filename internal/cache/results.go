package cache

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

// Results stores credibility results keyed by Key
type Results struct {
	store  Cache
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats counts lookups since the Results was created
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewResults wraps a byte cache for credibility results
func NewResults(store Cache, ttl time.Duration) *Results {
	return &Results{store: store, ttl: ttl}
}

// Get returns a cached result. Undecodable entries are dropped and reported as misses.
func (r *Results) Get(key string) (*model.CredibilityResult, bool) {
	data, found := r.store.Get(key)
	if !found {
		r.misses.Add(1)
		return nil, false
	}

	var result model.CredibilityResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = r.store.Delete(key)
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return &result, true
}

// Put stores a result
func (r *Results) Put(key string, result *model.CredibilityResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := r.store.Set(key, data, r.ttl); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// Stats returns the hit and miss counters
func (r *Results) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// Clear drops every cached result
func (r *Results) Clear() error {
	return r.store.Clear()
}

// Prune drops expired results when the backing store supports it
func (r *Results) Prune() (int, error) {
	if p, ok := r.store.(interface{ Prune() (int, error) }); ok {
		return p.Prune()
	}
	return 0, nil
}
