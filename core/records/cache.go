package records

import (
	"context"
	"sync"
	"time"
)

// Kind names a record collection; it is the cache invalidation scope.
type Kind string

const (
	KindStudents   Kind = "students"
	KindMarks      Kind = "marks"
	KindAttendance Kind = "attendance"
)

var Kinds = []Kind{KindStudents, KindMarks, KindAttendance}

// Cache holds encoded read results keyed by kind and filter.
type Cache interface {
	Get(ctx context.Context, kind Kind, key string) ([]byte, bool, error)
	Set(ctx context.Context, kind Kind, key string, val []byte) error
	Invalidate(ctx context.Context, kinds ...Kind) error
}

// MemoryCache is the in-process Cache. It only sees the writes of its own process: another
// process writing to the same store (the admin CLI, a second API instance) leaves its entries
// stale until they expire. Processes sharing a store should share a cache instead.
type MemoryCache struct {
	sync.RWMutex
	ttl     time.Duration
	entries map[Kind]map[string]memoryEntry
}

type memoryEntry struct {
	val     []byte
	expires time.Time // zero: never
}

var _ Cache = (*MemoryCache)(nil) // interface compliance check

// NewMemoryCache returns an empty cache. Entries expire after ttl, when given and positive.
func NewMemoryCache(ttl ...time.Duration) *MemoryCache {
	c := &MemoryCache{entries: make(map[Kind]map[string]memoryEntry)}
	if len(ttl) > 0 && ttl[0] > 0 {
		c.ttl = ttl[0]
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, kind Kind, key string) ([]byte, bool, error) {
	c.RLock()
	defer c.RUnlock()
	e, ok := c.entries[kind][key]
	if !ok || (!e.expires.IsZero() && !NowFunc().Before(e.expires)) {
		return nil, false, nil
	}
	return e.val, true, nil
}

func (c *MemoryCache) Set(_ context.Context, kind Kind, key string, val []byte) error {
	c.Lock()
	defer c.Unlock()
	if c.entries[kind] == nil {
		c.entries[kind] = make(map[string]memoryEntry)
	}
	e := memoryEntry{val: val}
	if c.ttl > 0 {
		e.expires = NowFunc().Add(c.ttl)
	}
	c.entries[kind][key] = e
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, kinds ...Kind) error {
	c.Lock()
	defer c.Unlock()
	for _, kind := range kinds {
		delete(c.entries, kind)
	}
	return nil
}

// Len counts the cached entries of kind.
func (c *MemoryCache) Len(kind Kind) int {
	c.RLock()
	defer c.RUnlock()
	return len(c.entries[kind])
}
