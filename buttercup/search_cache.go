package buttercup

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// SearchCache keeps the sessions of recent search messages so their pages can be
// changed with reactions. Only the newest sessions are kept, Get returns
// ErrSearchNotFound for everything else.
type SearchCache interface {
	Get(ctx context.Context, messageID snowflake.ID) (*SearchSession, error)
	Set(ctx context.Context, messageID snowflake.ID, session SearchSession) error
}

func NewMemorySearchCache(capacity int) *MemorySearchCache {
	return &MemorySearchCache{
		capacity: capacity,
		entries:  map[snowflake.ID]searchCacheEntry{},
	}
}

type searchCacheEntry struct {
	lastModified time.Time
	session      SearchSession
}

type MemorySearchCache struct {
	capacity int
	mu       sync.Mutex
	entries  map[snowflake.ID]searchCacheEntry
}

func (c *MemorySearchCache) Get(_ context.Context, messageID snowflake.ID) (*SearchSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[messageID]
	if !ok {
		return nil, ErrSearchNotFound
	}
	session := entry.session
	return &session, nil
}

func (c *MemorySearchCache) Set(_ context.Context, messageID snowflake.ID, session SearchSession) error {
	c.set(messageID, session, time.Now())
	return nil
}

func (c *MemorySearchCache) set(messageID snowflake.ID, session SearchSession, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[messageID] = searchCacheEntry{
		lastModified: now,
		session:      session,
	}
	c.clean()
}

// clean evicts the least recently modified entries until the capacity is met.
func (c *MemorySearchCache) clean() {
	for len(c.entries) > c.capacity {
		var (
			oldestID snowflake.ID
			oldest   time.Time
			found    bool
		)
		for id, entry := range c.entries {
			if !found || entry.lastModified.Before(oldest) {
				oldestID, oldest, found = id, entry.lastModified, true
			}
		}
		delete(c.entries, oldestID)
	}
}

func (c *MemorySearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
