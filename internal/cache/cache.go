package cache

import (
	"sync"
	"time"

	"github.com/shawty-app/shawty/internal/model"
)

type entry struct {
	link     model.Link
	cachedAt time.Time
}

// LinkCache is a single-process, TTL-bounded cache of link records keyed by
// short code. It shields the store from read amplification on hot codes and
// deliberately serves data up to TTL stale; writes elsewhere never invalidate
// it. Entries for inactive codes are never evicted, so memory grows with the
// number of distinct codes seen.
type LinkCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	now func() time.Time // overridable in tests
}

func New(ttl time.Duration) *LinkCache {
	return &LinkCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached link if the entry is younger than the TTL.
// Anything older is a miss; the entry stays until the next Put overwrites it.
func (c *LinkCache) Get(code string) (model.Link, bool) {
	c.mu.RLock()
	e, ok := c.entries[code]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.cachedAt) >= c.ttl {
		return model.Link{}, false
	}

	return e.link, true
}

// Put unconditionally overwrites the entry and stamps the current time
func (c *LinkCache) Put(code string, link model.Link) {
	c.mu.Lock()
	c.entries[code] = entry{link: link, cachedAt: c.now()}
	c.mu.Unlock()
}

// Len reports the number of entries held, fresh or stale
func (c *LinkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
