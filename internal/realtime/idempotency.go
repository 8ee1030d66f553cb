package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// idempotencyTTL is how long a cached command result is replayable.
const idempotencyTTL = 5 * time.Minute

// pruneThreshold bounds the cache: once it grows past this many entries a
// Put sweeps out everything expired.
const pruneThreshold = 4096

type idempotencyKey struct {
	workspaceID uuid.UUID
	userID      uuid.UUID
	target      string
	command     string
	clientMsgID string
}

type idempotencyEntry struct {
	result    any
	expiresAt time.Time
}

// idempotencyCache remembers the result of every mutating command keyed by
// (workspace, user, target, command, client_msg_id) so a retried command
// replays the original outcome instead of executing twice.
type idempotencyCache struct {
	mu      sync.Mutex
	entries map[idempotencyKey]idempotencyEntry
	now     func() time.Time
}

func newIdempotencyCache() *idempotencyCache {
	return &idempotencyCache{
		entries: make(map[idempotencyKey]idempotencyEntry),
		now:     time.Now,
	}
}

func (c *idempotencyCache) Get(key idempotencyKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.result, true
}

func (c *idempotencyCache) Put(key idempotencyKey, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= pruneThreshold {
		now := c.now()
		for k, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = idempotencyEntry{result: result, expiresAt: c.now().Add(idempotencyTTL)}
}
