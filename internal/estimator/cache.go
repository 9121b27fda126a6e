package estimator

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/location-estimator/internal/domain"
)

// Cache is the session-scoped single-slot store for the best estimate
// obtained so far. A point cache, not a spatial index: there is exactly one
// current-best entry, replaced wholesale.
//
// Replacement is governed by confidence tier, not arrival order, so a
// slow-finishing provider can never clobber a better estimate written by a
// faster one.
type Cache struct {
	mu     sync.Mutex
	entry  domain.Estimate
	filled bool
	expiry time.Time
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewCache creates a cache with the given TTL. Pass a nil clock for real time.
func NewCache(ttl time.Duration, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{ttl: ttl, clock: clock}
}

// Get returns the stored estimate, treating an expired entry as absent.
func (c *Cache) Get() (domain.Estimate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.filled || c.clock.Now().After(c.expiry) {
		return domain.Estimate{}, false
	}
	return c.entry, true
}

// Put stores the estimate if its confidence tier is at least the stored
// entry's, or if the stored entry has expired. Low-confidence estimates are
// never stored (read-through only); they would only displace something
// better or pin a worthless coordinate for the TTL window.
// Returns whether the estimate was stored.
func (c *Cache) Put(e domain.Estimate) bool {
	if e.Confidence() == domain.ConfidenceLow {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.filled && now.Before(c.expiry) && e.Confidence() < c.entry.Confidence() {
		return false
	}

	c.entry = e
	c.filled = true
	c.expiry = now.Add(c.ttl)
	return true
}

// Expired reports whether the cache holds only an expired entry.
func (c *Cache) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filled && c.clock.Now().After(c.expiry)
}

// Clear drops the stored entry. Used when a session ends.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filled = false
	c.entry = domain.Estimate{}
}
