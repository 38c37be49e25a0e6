// Package personalize keeps per-user persona tags in recency order.
//
// Tags extracted from a run's marker payload are merged into the user's
// list when the run ends: fresh tags move to the front, duplicates keep
// a single entry, and the list is capped. Each run reads the list once
// at start and writes at most once at end; concurrent runs for the same
// user race on the write and the last writer wins.

package personalize

import "sync"

// DefaultCapacity bounds a user's tag list.
const DefaultCapacity = 20

// TagCache holds recency-ordered persona tags per user.
type TagCache struct {
	mu       sync.RWMutex
	tags     map[string][]string
	capacity int
}

// NewTagCache creates a cache with the given per-user capacity.
// Non-positive capacity falls back to DefaultCapacity.
func NewTagCache(capacity int) *TagCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &TagCache{
		tags:     make(map[string][]string),
		capacity: capacity,
	}
}

// Tags returns the user's tags, most recent first.
func (c *TagCache) Tags(userID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	existing := c.tags[userID]
	copied := make([]string, len(existing))
	copy(copied, existing)
	return copied
}

// Update merges fresh tags into the user's list. Fresh tags lead in
// their given order, previously known tags follow, duplicates collapse
// to their most recent position, and the result is trimmed to capacity.
func (c *TagCache) Update(userID string, fresh []string) {
	if len(fresh) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(fresh))
	merged := make([]string, 0, c.capacity)
	for _, tag := range fresh {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}
	for _, tag := range c.tags[userID] {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}
	if len(merged) > c.capacity {
		merged = merged[:c.capacity]
	}
	c.tags[userID] = merged
}
