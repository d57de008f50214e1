// Copyright 2026 Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dedup

import (
	"context"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

var _ Backend = (*Memory)(nil)

// Memory is the in-process backend. Each process has its own view, so under
// scale-out duplicates are only suppressed per process.
type Memory struct {
	// Do not embed or use type directly to reduce the cache's API surface.
	c    *cache.Cache
	lock sync.Mutex
	now  func() time.Time
}

// NewMemory creates an empty in-process cache. Expired entries are removed by
// calling DeleteExpired, usually from a periodic task.
func NewMemory() *Memory {
	return newMemory(time.Now)
}

func newMemory(now func() time.Time) *Memory {
	return &Memory{
		// Items are always inserted with an expiration and cleaned manually.
		c:   cache.New(cache.NoExpiration, 0),
		now: now,
	}
}

// RecentlySeen implements Cache.
func (m *Memory) RecentlySeen(_ context.Context, key string, ttl time.Duration) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	now := m.now()
	seen := false
	if v, ok := m.c.Get(key); ok {
		seen = now.Sub(v.(time.Time)) < ttl
	}
	if ttl > 0 {
		m.c.Set(key, now, ttl)
	} else {
		m.c.Delete(key)
	}
	return seen
}

// Forget implements Forgetter.
func (m *Memory) Forget(_ context.Context, key string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.c.Delete(key)
}

// DeleteExpired removes expired entries and returns how many were removed.
func (m *Memory) DeleteExpired(_ context.Context) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	before := m.c.ItemCount()
	m.c.DeleteExpired()
	return before - m.c.ItemCount(), nil
}

// Len returns the number of entries, including expired ones not yet deleted.
func (m *Memory) Len() int {
	return m.c.ItemCount()
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
