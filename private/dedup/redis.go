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
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/metrics"
)

// DefaultLookupTimeout bounds a single Redis lookup.
const DefaultLookupTimeout = 50 * time.Millisecond

var _ Backend = (*Redis)(nil)

// Redis is the shared backend. All processes using the same Redis instance
// share their view of recently seen keys.
type Redis struct {
	client redis.UniversalClient
	// Prefix is prepended to every key.
	prefix        string
	lookupTimeout time.Duration
	// FailOpen is incremented for every lookup that failed or timed out.
	failOpen metrics.Counter
}

// RedisOptions configure the Redis backend.
type RedisOptions struct {
	// Prefix is prepended to all keys. (default "dedup:")
	Prefix string
	// LookupTimeout bounds a single lookup. (default DefaultLookupTimeout)
	LookupTimeout time.Duration
	// FailOpen counts lookups answered with false because of an error.
	FailOpen metrics.Counter
}

// NewRedis creates the shared backend on top of client. The backend takes
// ownership of the client.
func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "dedup:"
	}
	if opts.LookupTimeout == 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	return &Redis{
		client:        client,
		prefix:        opts.Prefix,
		lookupTimeout: opts.LookupTimeout,
		failOpen:      opts.FailOpen,
	}
}

// RecentlySeen implements Cache. The check and the mark are a single
// SET ... PX ttl GET command. A previous value means the key is still within
// the TTL it was written with.
func (r *Redis) RecentlySeen(ctx context.Context, key string, ttl time.Duration) bool {
	if ttl < time.Millisecond {
		return false
	}
	ctx, cancelF := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancelF()
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	_, err := r.client.SetArgs(ctx, r.prefix+key, now, redis.SetArgs{
		TTL: ttl,
		Get: true,
	}).Result()
	switch {
	case err == nil:
		return true
	case errors.Is(err, redis.Nil):
		return false
	default:
		log.FromCtx(ctx).Info("Dedup lookup failed, failing open", "key", key, "err", err)
		metrics.CounterInc(r.failOpen)
		return false
	}
}

// Forget implements Forgetter. Errors are logged; the mark then expires with
// its ttl.
func (r *Redis) Forget(ctx context.Context, key string) {
	ctx, cancelF := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancelF()
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		log.FromCtx(ctx).Info("Dedup forget failed", "key", key, "err", err)
	}
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
