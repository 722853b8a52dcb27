package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// History is the version-history summary of one content file. Nil fields
// mean the history collaborator had no data.
type History struct {
	Created *time.Time
	Updated *time.Time
}

// HistoryLookup reports when a file first appeared and when it was last
// modified. Implementations must be safe for concurrent use.
type HistoryLookup interface {
	FirstAndLastChange(ctx context.Context, path string) (History, error)
}

// NoHistory is a HistoryLookup that knows nothing.
type NoHistory struct{}

func (NoHistory) FirstAndLastChange(context.Context, string) (History, error) {
	return History{}, nil
}

// HistoryCache memoizes another HistoryLookup. Concurrent lookups of the
// same path share one underlying call.
type HistoryCache struct {
	next  HistoryLookup
	mu    sync.Mutex
	items map[string]History
	group singleflight.Group
}

func NewHistoryCache(next HistoryLookup) *HistoryCache {
	return &HistoryCache{next: next, items: make(map[string]History)}
}

func (c *HistoryCache) FirstAndLastChange(ctx context.Context, path string) (History, error) {
	c.mu.Lock()
	h, ok := c.items[path]
	c.mu.Unlock()
	if ok {
		return h, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		h, err := c.next.FirstAndLastChange(ctx, path)
		if err != nil {
			return History{}, err
		}
		c.mu.Lock()
		c.items[path] = h
		c.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return History{}, err
	}
	return v.(History), nil
}

// Invalidate drops every cached result. BuildSite calls it before each run.
func (c *HistoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]History)
}

// isoTimestamp formats t the way git's %cI does, or returns nil.
func isoTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
