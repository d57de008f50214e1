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
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/metrics"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/pkg/private/util"
	"github.com/newsdesk/newsdesk/private/config"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

const (
	// DefaultCleanupInterval is the interval of the memory backend cleaner.
	DefaultCleanupInterval = time.Minute
	// DefaultViewWindow is the window in which repeated views of the same
	// reader are counted once.
	DefaultViewWindow = 30 * time.Minute
	// DefaultPushWindow is the window in which a re-published article does
	// not trigger another push notification.
	DefaultPushWindow = time.Hour
)

var _ config.Config = (*Config)(nil)

// Config selects and configures the dedup backend.
type Config struct {
	// Backend is "memory" or "redis". If empty, redis is used when an address
	// is configured and memory otherwise.
	Backend string `toml:"backend,omitempty"`
	// CleanupInterval is the interval at which the memory backend drops
	// expired entries.
	CleanupInterval util.DurWrap `toml:"cleanup_interval,omitempty"`
	// ViewWindow is the view counting dedup window.
	ViewWindow util.DurWrap `toml:"view_window,omitempty"`
	// PushWindow is the duplicate notification window.
	PushWindow util.DurWrap `toml:"push_window,omitempty"`
	Redis      RedisConfig  `toml:"redis,omitempty"`
}

// RedisConfig is the connection configuration of the shared backend.
type RedisConfig struct {
	Address       string       `toml:"address,omitempty"`
	Password      string       `toml:"password,omitempty"`
	DB            int          `toml:"db,omitempty"`
	LookupTimeout util.DurWrap `toml:"lookup_timeout,omitempty"`
}

// InitDefaults initializes the default values.
func (cfg *Config) InitDefaults() {
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
		if cfg.Redis.Address != "" {
			cfg.Backend = BackendRedis
		}
	}
	if cfg.CleanupInterval.Duration == 0 {
		cfg.CleanupInterval.Duration = DefaultCleanupInterval
	}
	if cfg.ViewWindow.Duration == 0 {
		cfg.ViewWindow.Duration = DefaultViewWindow
	}
	if cfg.PushWindow.Duration == 0 {
		cfg.PushWindow.Duration = DefaultPushWindow
	}
	if cfg.Redis.LookupTimeout.Duration == 0 {
		cfg.Redis.LookupTimeout.Duration = DefaultLookupTimeout
	}
}

// Validate validates the configuration.
func (cfg *Config) Validate() error {
	switch cfg.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Redis.Address == "" {
			return serrors.New("redis backend requires an address")
		}
	default:
		return serrors.New("unknown dedup backend", "backend", cfg.Backend)
	}
	if cfg.ViewWindow.Duration <= 0 || cfg.PushWindow.Duration <= 0 {
		return serrors.New("dedup windows must be positive",
			"view_window", cfg.ViewWindow, "push_window", cfg.PushWindow)
	}
	if cfg.Redis.LookupTimeout.Duration <= 0 {
		return serrors.New("lookup_timeout must be positive")
	}
	return nil
}

// Sample writes a config sample to the writer.
func (cfg *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, sample)
	config.WriteSample(dst, path, ctx, &cfg.Redis)
}

// Sample writes a config sample to the writer.
func (cfg *RedisConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, redisSample)
}

// ConfigName is the key in the toml file.
func (cfg *RedisConfig) ConfigName() string {
	return "redis"
}

// ConfigName is the key in the toml file.
func (cfg *Config) ConfigName() string {
	return "dedup"
}

// Metrics are the metrics of a dedup backend built from the configuration.
type Metrics struct {
	// Lookups is labeled with backend and result.
	Lookups metrics.Counter
	// FailOpen counts failed shared lookups.
	FailOpen metrics.Counter
}

// New builds the configured backend. The returned cache counts its lookups.
func (cfg *Config) New(m Metrics) (Backend, error) {
	switch cfg.Backend {
	case BackendRedis:
		log.Info("Using shared dedup cache", "backend", BackendRedis, "addr", cfg.Redis.Address)
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		r := NewRedis(client, RedisOptions{
			LookupTimeout: cfg.Redis.LookupTimeout.Duration,
			FailOpen:      m.FailOpen,
		})
		return instrumentedBackend{
			Instrumented: Instrumented{Cache: r, Backend: BackendRedis, Lookups: m.Lookups},
			closer:       r,
		}, nil
	case BackendMemory:
		log.Info("Using process local dedup cache", "backend", BackendMemory)
		mem := NewMemory()
		return instrumentedMemory{
			Instrumented: Instrumented{Cache: mem, Backend: BackendMemory, Lookups: m.Lookups},
			Memory:       mem,
		}, nil
	default:
		return nil, serrors.New("unknown dedup backend", "backend", cfg.Backend)
	}
}

type instrumentedBackend struct {
	Instrumented
	closer io.Closer
}

func (b instrumentedBackend) Close() error {
	return b.closer.Close()
}

// instrumentedMemory keeps DeleteExpired of the memory backend visible, so
// that callers can schedule the cleaner.
type instrumentedMemory struct {
	Instrumented
	*Memory
}

func (b instrumentedMemory) RecentlySeen(ctx context.Context, key string,
	ttl time.Duration) bool {

	return b.Instrumented.RecentlySeen(ctx, key, ttl)
}

func (b instrumentedMemory) Forget(ctx context.Context, key string) {
	b.Instrumented.Forget(ctx, key)
}
