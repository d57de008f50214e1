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

package dedup_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/metrics"
	"github.com/newsdesk/newsdesk/private/dedup"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg dedup.Config
	cfg.Sample(&sample, nil, nil)
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().Decode(&cfg)
	require.NoError(t, err)
	cfg.InitDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, dedup.BackendMemory, cfg.Backend)
	assert.Equal(t, dedup.DefaultCleanupInterval, cfg.CleanupInterval.Duration)
	assert.Equal(t, dedup.DefaultViewWindow, cfg.ViewWindow.Duration)
	assert.Equal(t, dedup.DefaultPushWindow, cfg.PushWindow.Duration)
	assert.Equal(t, dedup.DefaultLookupTimeout, cfg.Redis.LookupTimeout.Duration)
}

func TestConfigInitDefaults(t *testing.T) {
	testCases := map[string]struct {
		Config   dedup.Config
		Expected string
	}{
		"empty": {
			Expected: dedup.BackendMemory,
		},
		"address selects redis": {
			Config:   dedup.Config{Redis: dedup.RedisConfig{Address: "localhost:6379"}},
			Expected: dedup.BackendRedis,
		},
		"explicit memory": {
			Config: dedup.Config{
				Backend: dedup.BackendMemory,
				Redis:   dedup.RedisConfig{Address: "localhost:6379"},
			},
			Expected: dedup.BackendMemory,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.Config.InitDefaults()
			assert.Equal(t, tc.Expected, tc.Config.Backend)
			assert.NoError(t, tc.Config.Validate())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	testCases := map[string]func(cfg *dedup.Config){
		"unknown backend":  func(cfg *dedup.Config) { cfg.Backend = "memcached" },
		"redis no address": func(cfg *dedup.Config) { cfg.Backend = dedup.BackendRedis },
		"negative window":  func(cfg *dedup.Config) { cfg.PushWindow.Duration = -time.Second },
		"negative timeout": func(cfg *dedup.Config) { cfg.Redis.LookupTimeout.Duration = -1 },
	}
	for name, modify := range testCases {
		t.Run(name, func(t *testing.T) {
			var cfg dedup.Config
			cfg.InitDefaults()
			modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigNew(t *testing.T) {
	var cfg dedup.Config
	cfg.InitDefaults()
	lookups := metrics.NewTestCounter()
	c, err := cfg.New(dedup.Metrics{Lookups: lookups})
	require.NoError(t, err)
	defer c.Close()
	_, ok := c.(interface {
		DeleteExpired(ctx context.Context) (int, error)
	})
	assert.True(t, ok, "memory backend exposes DeleteExpired")
}
