// Package cache implements the per-session LLM response cache. Lookups are
// keyed by a stable hash of the normalized prompt; hits substitute for a
// model call and roll their recorded token counts into the session's cache
// tally instead of the total tally.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/sudoCommit/alumnium/pkg/types"
)

// Entry is one cached model response plus the token counts the call would
// have spent.
type Entry struct {
	Payload json.RawMessage  `json:"payload"`
	Usage   types.TokenUsage `json:"usage"`
}

// Store is the external backing store a cache can flush to. Implementations
// own the on-wire format.
type Store interface {
	// Load returns previously flushed entries.
	Load(ctx context.Context) (map[string]Entry, error)
	// Flush persists the given entries.
	Flush(ctx context.Context, entries map[string]Entry) error
}

// Cache is a per-session response cache. It is safe for concurrent use.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]Entry
	uncommitted map[string]bool
	usage       types.TokenUsage
	store       Store
}

// New creates a cache, seeding it from the store when one is configured.
// Entries loaded from the store count as committed.
func New(ctx context.Context, store Store) (*Cache, error) {
	c := &Cache{
		entries:     make(map[string]Entry),
		uncommitted: make(map[string]bool),
		store:       store,
	}
	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		for k, e := range loaded {
			c.entries[k] = e
		}
	}
	return c, nil
}

// Key computes the stable lookup key over the normalized prompt parts:
// serialized messages, tool schemas, structured-output schema, provider and
// model name. Any JSON-serializable parts participate.
func Key(parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		// Encoding into a hash cannot fail for the value kinds used
		// as key parts.
		_ = enc.Encode(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for key. On a hit the entry's recorded usage
// is added to the cache tally.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	c.usage.Add(entry.Usage)
	return entry, true
}

// Put stores an entry under key. The entry is uncommitted until Save.
func (c *Cache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry
	c.uncommitted[key] = true
}

// Usage returns the tokens cache hits have substituted for so far.
func (c *Cache) Usage() types.TokenUsage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Save flushes uncommitted entries to the backing store and marks them
// committed. Without a store, Save succeeds as a no-op.
func (c *Cache) Save(ctx context.Context) error {
	c.mu.Lock()
	pending := make(map[string]Entry, len(c.uncommitted))
	for key := range c.uncommitted {
		pending[key] = c.entries[key]
	}
	c.mu.Unlock()

	if c.store == nil || len(pending) == 0 {
		c.clearUncommitted(pending)
		return nil
	}
	if err := c.store.Flush(ctx, pending); err != nil {
		return err
	}
	c.clearUncommitted(pending)
	return nil
}

func (c *Cache) clearUncommitted(flushed map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range flushed {
		delete(c.uncommitted, key)
	}
}

// Discard drops all uncommitted entries.
func (c *Cache) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.uncommitted {
		delete(c.entries, key)
	}
	c.uncommitted = make(map[string]bool)
}
