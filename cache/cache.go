// Copyright 2025 Storyloom Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package cache provides a bounded in-memory byte cache with age- and
// size-based eviction.
//
// The pipeline keys it by content hash so re-submitted or overlapping
// documents skip repeat capability calls. Eviction runs in two phases: first
// entries older than the max age go, then oldest entries go one at a time
// until the byte budget holds. Eviction is all-or-nothing per entry.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Defaults for the cache bounds.
const (
	DefaultMaxBytes = 64 << 20 // 64 MB
	DefaultMaxAge   = 30 * time.Minute
)

// ErrPayloadTooLarge indicates a single payload exceeds the whole cache
// budget and was refused rather than evicting everything else.
var ErrPayloadTooLarge = errors.New("payload exceeds cache budget")

type entry struct {
	payload  []byte
	storedAt time.Time
}

// Cache is a thread-safe byte store bounded by total payload size and entry
// age.
type Cache struct {
	mu       sync.RWMutex
	maxBytes int64
	maxAge   time.Duration
	entries  map[string]*entry
	total    int64
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a cache. Non-positive bounds fall back to the defaults.
func New(maxBytes int64, maxAge time.Duration) *Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Cache{
		maxBytes: maxBytes,
		maxAge:   maxAge,
		entries:  make(map[string]*entry),
		now:      time.Now,
		logger:   slog.Default().With("component", "cache"),
	}
}

// Set stores payload under key, evicting if the byte budget overflows.
// A payload larger than the whole budget is refused.
func (c *Cache) Set(key string, payload []byte) error {
	size := int64(len(payload))
	if size > c.maxBytes {
		return fmt.Errorf("%w: %d bytes over %d budget", ErrPayloadTooLarge, size, c.maxBytes)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.total -= int64(len(old.payload))
	}
	c.entries[key] = &entry{payload: payload, storedAt: c.now()}
	c.total += size

	if c.total > c.maxBytes {
		c.evictLocked()
	}
	return nil
}

// Get returns the payload for key. Entries past the max age read as misses
// even before eviction removes them.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.maxAge {
		return nil, false
	}
	return e.payload, true
}

// Remove deletes key if present.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.total -= int64(len(e.payload))
		delete(c.entries, key)
	}
}

// Len returns the number of entries, expired ones included until evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TotalSize returns the summed payload bytes currently held.
func (c *Cache) TotalSize() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Optimize runs eviction immediately. The scheduler calls this under memory
// pressure before re-reading its gauge.
func (c *Cache) Optimize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked()
}

// evictLocked applies the two eviction phases. Caller holds the write lock.
func (c *Cache) evictLocked() {
	aged := 0
	cutoff := c.now().Add(-c.maxAge)
	for key, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			c.total -= int64(len(e.payload))
			delete(c.entries, key)
			aged++
		}
	}

	sized := 0
	for c.total > c.maxBytes && len(c.entries) > 0 {
		oldestKey := ""
		var oldestAt time.Time
		first := true
		for key, e := range c.entries {
			older := e.storedAt.Before(oldestAt)
			// Tie-break on key so eviction order is deterministic.
			tie := e.storedAt.Equal(oldestAt) && key < oldestKey
			if first || older || tie {
				oldestKey = key
				oldestAt = e.storedAt
				first = false
			}
		}
		c.total -= int64(len(c.entries[oldestKey].payload))
		delete(c.entries, oldestKey)
		sized++
	}

	if aged > 0 || sized > 0 {
		c.logger.Debug("evicted cache entries",
			"aged", aged,
			"sized", sized,
			"remaining", len(c.entries),
			"bytes", c.total)
	}
}
