// Package cache keeps recently extracted exhibitor records in memory so
// repeated API requests for one profile page skip the browser.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/fairscrape/models"
)

// maxAge is the oldest an entry may be before eviction prefers it.
const maxAge = time.Hour

// entry holds a cached record with its creation timestamp.
type entry struct {
	record    models.ExhibitorRecord
	engine    string
	createdAt time.Time
}

// Cache is an in-memory record cache bounded by entry count.
// It is safe for concurrent use. A nil *Cache never stores anything.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	now        func() time.Time
}

// New creates a Cache holding up to maxEntries records. It returns nil when
// maxEntries is not positive, which disables caching.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		return nil
	}
	return &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key returns the cache key of a profile URL.
func Key(url string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(h[:])
}

// Get returns the cached record for key when it is younger than age, along
// with the engine that produced it. age <= 0 skips the lookup.
func (c *Cache) Get(key string, age time.Duration) (models.ExhibitorRecord, string, bool) {
	if c == nil || age <= 0 {
		return models.ExhibitorRecord{}, "", false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.createdAt) > age {
		return models.ExhibitorRecord{}, "", false
	}
	return e.record, e.engine, true
}

// Set stores rec under key. At capacity, stale entries are dropped first;
// if none are stale one arbitrary entry makes room.
func (c *Cache) Set(key string, rec models.ExhibitorRecord, engine string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k, e := range c.store {
			if now.Sub(e.createdAt) > maxAge {
				delete(c.store, k)
			}
		}
		if len(c.store) >= c.maxEntries {
			for k := range c.store {
				delete(c.store, k)
				break
			}
		}
	}

	c.store[key] = &entry{record: rec, engine: engine, createdAt: now}
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
