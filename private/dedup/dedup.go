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

// Package dedup implements the recently-seen cache used to suppress duplicate
// view counts and duplicate notification sends.
//
// The cache is advisory soft state. Entries never need to survive a restart,
// and a lookup that cannot be answered in time is treated as "not recently
// seen" (fail open). Two backends exist: an in-process map, correct for a
// single process, and a shared Redis instance, correct across processes.
package dedup

import (
	"context"
	"time"

	"github.com/newsdesk/newsdesk/pkg/metrics"
)

// Cache answers whether a key was seen recently.
type Cache interface {
	// RecentlySeen returns true if key was marked within the last ttl. In
	// either case key is marked as seen now. The check and the mark are
	// atomic per key.
	RecentlySeen(ctx context.Context, key string, ttl time.Duration) bool
}

// Forgetter is implemented by caches that can drop the mark of a key again.
type Forgetter interface {
	Forget(ctx context.Context, key string)
}

// Forget drops the mark of key if c is a Forgetter. Otherwise the mark
// expires with its ttl.
func Forget(ctx context.Context, c Cache, key string) {
	if f, ok := c.(Forgetter); ok {
		f.Forget(ctx, key)
	}
}

// Backend is a Cache that holds resources.
type Backend interface {
	Cache
	Close() error
}

// Key builds the cache key for a subject and a dimension, e.g.
// Key(articleID, "view").
func Key(subject, dimension string) string {
	return subject + ":" + dimension
}

// Result labels of the lookup counter.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Instrumented counts the lookups of a Cache.
type Instrumented struct {
	Cache Cache
	// Backend is the backend label value.
	Backend string
	// Lookups is incremented per lookup with the labels backend and result.
	Lookups metrics.Counter
}

// RecentlySeen delegates to the wrapped cache and counts the result.
func (i Instrumented) RecentlySeen(ctx context.Context, key string, ttl time.Duration) bool {
	seen := i.Cache.RecentlySeen(ctx, key, ttl)
	result := ResultMiss
	if seen {
		result = ResultHit
	}
	metrics.CounterInc(metrics.CounterWith(i.Lookups, "backend", i.Backend, "result", result))
	return seen
}

// Forget delegates to the wrapped cache.
func (i Instrumented) Forget(ctx context.Context, key string) {
	Forget(ctx, i.Cache, key)
}
