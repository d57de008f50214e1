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

package live_test

import (
	"bytes"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/private/util"
	"github.com/newsdesk/newsdesk/private/live"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg live.Config
	cfg.Sample(&sample, nil, nil)
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().Decode(&cfg)
	require.NoError(t, err)
	cfg.InitDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, live.DefaultWriteTimeout, cfg.WriteTimeout.Duration)
	assert.Equal(t, live.DefaultChannelCacheSize, cfg.ChannelCacheSize)
	assert.Empty(t, cfg.Relay.Address)
	assert.Equal(t, "newsdesk:live-cues", cfg.Relay.Channel)
}

func TestConfigValidate(t *testing.T) {
	valid := func() live.Config {
		var cfg live.Config
		cfg.InitDefaults()
		return cfg
	}
	testCases := map[string]struct {
		Modify    func(*live.Config)
		AssertErr assert.ErrorAssertionFunc
	}{
		"defaults": {
			Modify:    func(*live.Config) {},
			AssertErr: assert.NoError,
		},
		"negative write timeout": {
			Modify:    func(c *live.Config) { c.WriteTimeout = util.DurWrap{Duration: -1} },
			AssertErr: assert.Error,
		},
		"negative concurrency": {
			Modify:    func(c *live.Config) { c.MaxConcurrentSends = -1 },
			AssertErr: assert.Error,
		},
		"negative cache size": {
			Modify:    func(c *live.Config) { c.ChannelCacheSize = -5 },
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			tc.Modify(&cfg)
			tc.AssertErr(t, cfg.Validate())
		})
	}
}
