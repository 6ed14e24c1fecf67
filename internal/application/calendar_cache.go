package application

import (
	"fmt"
	"sync"
	"time"
)

// calendarCache stores recently expanded calendar windows to avoid repeated
// recurrence expansion for identical read queries while reservations remain
// unchanged. Every mutating reservation operation invalidates it wholesale.
type calendarCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]calendarCacheEntry
}

type calendarCacheEntry struct {
	occurrences []CalendarEntry
	expiresAt   time.Time
}

func newCalendarCache(ttl time.Duration, maxEntries int, now func() time.Time) *calendarCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &calendarCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]calendarCacheEntry),
	}
}

func (c *calendarCache) Get(key string) ([]CalendarEntry, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneEntries(entry.occurrences), true
}

func (c *calendarCache) Store(key string, occurrences []CalendarEntry) {
	if c == nil {
		return
	}
	cloned := cloneEntries(occurrences)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = calendarCacheEntry{occurrences: cloned, expiresAt: expiry}
}

func (c *calendarCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]calendarCacheEntry)
	c.mu.Unlock()
}

func (c *calendarCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *calendarCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneEntries(entries []CalendarEntry) []CalendarEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]CalendarEntry, len(entries))
	copy(out, entries)
	return out
}

func calendarCacheKey(params CalendarParams, windowStart, windowEnd time.Time) string {
	return fmt.Sprintf("%s|%d|%d", params.RoomID, windowStart.UnixNano(), windowEnd.UnixNano())
}
