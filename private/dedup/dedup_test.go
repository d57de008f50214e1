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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "a1:push", Key("a1", "push"))
}

func TestMemoryRecentlySeen(t *testing.T) {
	ctx := context.Background()
	ttl := time.Minute

	t.Run("seen within ttl", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		m := newMemory(clock.Now)
		assert.False(t, m.RecentlySeen(ctx, "k", ttl))
		clock.Advance(ttl / 2)
		assert.True(t, m.RecentlySeen(ctx, "k", ttl))
	})
	t.Run("expires after ttl", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		m := newMemory(clock.Now)
		assert.False(t, m.RecentlySeen(ctx, "k", ttl))
		clock.Advance(ttl)
		assert.False(t, m.RecentlySeen(ctx, "k", ttl))
		// The lookup after expiry marks the key again.
		assert.True(t, m.RecentlySeen(ctx, "k", ttl))
	})
	t.Run("sliding window", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		m := newMemory(clock.Now)
		assert.False(t, m.RecentlySeen(ctx, "k", ttl))
		for i := 0; i < 5; i++ {
			clock.Advance(ttl - time.Second)
			assert.True(t, m.RecentlySeen(ctx, "k", ttl))
		}
	})
	t.Run("keys are independent", func(t *testing.T) {
		m := NewMemory()
		assert.False(t, m.RecentlySeen(ctx, Key("a1", "push"), ttl))
		assert.False(t, m.RecentlySeen(ctx, Key("a2", "push"), ttl))
		assert.True(t, m.RecentlySeen(ctx, Key("a1", "push"), ttl))
	})
	t.Run("non-positive ttl never hits", func(t *testing.T) {
		m := NewMemory()
		assert.False(t, m.RecentlySeen(ctx, "k", 0))
		assert.False(t, m.RecentlySeen(ctx, "k", 0))
		assert.Equal(t, 0, m.Len())
	})
	t.Run("concurrent first lookup", func(t *testing.T) {
		m := NewMemory()
		var wg sync.WaitGroup
		misses := make(chan struct{}, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !m.RecentlySeen(ctx, "k", ttl) {
					misses <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(misses)
		assert.Len(t, misses, 1)
	})
}

func TestMemoryDeleteExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.RecentlySeen(ctx, "short", time.Millisecond)
	m.RecentlySeen(ctx, "long", time.Hour)
	require.Equal(t, 2, m.Len())
	time.Sleep(5 * time.Millisecond)
	n, err := m.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, m.Len())
}

func TestRedisRecentlySeen(t *testing.T) {
	ctx := context.Background()
	ttl := time.Minute

	t.Run("seen within ttl", func(t *testing.T) {
		mr := miniredis.RunT(t)
		r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), RedisOptions{})
		defer r.Close()
		assert.False(t, r.RecentlySeen(ctx, "k", ttl))
		mr.FastForward(ttl / 2)
		assert.True(t, r.RecentlySeen(ctx, "k", ttl))
		assert.True(t, mr.Exists("dedup:k"))
	})
	t.Run("expires after ttl", func(t *testing.T) {
		mr := miniredis.RunT(t)
		r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), RedisOptions{})
		defer r.Close()
		assert.False(t, r.RecentlySeen(ctx, "k", ttl))
		mr.FastForward(ttl)
		assert.False(t, r.RecentlySeen(ctx, "k", ttl))
		assert.True(t, r.RecentlySeen(ctx, "k", ttl))
	})
	t.Run("custom prefix", func(t *testing.T) {
		mr := miniredis.RunT(t)
		r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			RedisOptions{Prefix: "nd:"})
		defer r.Close()
		r.RecentlySeen(ctx, Key("a1", "push"), ttl)
		assert.True(t, mr.Exists("nd:a1:push"))
		assert.Equal(t, ttl, mr.TTL("nd:a1:push"))
	})
	t.Run("fails open", func(t *testing.T) {
		mr := miniredis.RunT(t)
		failOpen := metrics.NewTestCounter()
		r := NewRedis(redis.NewClient(&redis.Options{
			Addr:       mr.Addr(),
			MaxRetries: -1,
		}), RedisOptions{FailOpen: failOpen})
		defer r.Close()
		assert.False(t, r.RecentlySeen(ctx, "k", ttl))
		mr.Close()
		assert.False(t, r.RecentlySeen(ctx, "k", ttl))
		assert.Equal(t, float64(1), metrics.CounterValue(failOpen))
	})
}

func TestInstrumented(t *testing.T) {
	ctx := context.Background()
	lookups := metrics.NewTestCounter()
	c := Instrumented{Cache: NewMemory(), Backend: BackendMemory, Lookups: lookups}
	c.RecentlySeen(ctx, "k", time.Minute)
	c.RecentlySeen(ctx, "k", time.Minute)
	c.RecentlySeen(ctx, "k", time.Minute)
	assert.Equal(t, float64(1), metrics.CounterValue(
		lookups.With("backend", BackendMemory, "result", ResultMiss)))
	assert.Equal(t, float64(2), metrics.CounterValue(
		lookups.With("backend", BackendMemory, "result", ResultHit)))
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	ttl := time.Minute
	mr := miniredis.RunT(t)
	redisCache := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), RedisOptions{})
	defer redisCache.Close()
	memCfg := Config{Backend: BackendMemory}
	configured, err := memCfg.New(Metrics{})
	require.NoError(t, err)
	defer configured.Close()

	testCases := map[string]Cache{
		"memory":       NewMemory(),
		"redis":        redisCache,
		"instrumented": Instrumented{Cache: NewMemory(), Backend: BackendMemory},
		"configured":   configured,
	}
	for name, c := range testCases {
		t.Run(name, func(t *testing.T) {
			key := Key(name, "push")
			assert.False(t, c.RecentlySeen(ctx, key, ttl))
			Forget(ctx, c, key)
			assert.False(t, c.RecentlySeen(ctx, key, ttl))
			assert.True(t, c.RecentlySeen(ctx, key, ttl))
		})
	}
}
