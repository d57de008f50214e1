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

package live

import (
	"io"

	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/pkg/private/util"
	"github.com/newsdesk/newsdesk/private/config"
)

var _ config.Config = (*Config)(nil)

// Config is the live distribution configuration.
type Config struct {
	// WriteTimeout bounds a single cue write to a reader.
	WriteTimeout util.DurWrap `toml:"write_timeout,omitempty"`
	// MaxConcurrentSends limits the concurrent cue writes of one publish.
	// Zero means no limit.
	MaxConcurrentSends int `toml:"max_concurrent_sends,omitempty"`
	// ChannelCacheSize is the number of known channel ids cached.
	ChannelCacheSize int `toml:"channel_cache_size,omitempty"`
	// AllowedOrigins are the host patterns of the cross-origin websocket
	// clients.
	AllowedOrigins []string    `toml:"allowed_origins,omitempty"`
	Relay          RelayConfig `toml:"relay,omitempty"`
}

// RelayConfig configures the cross-process relay. The relay is disabled if
// no address is set.
type RelayConfig struct {
	Address  string `toml:"address,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db,omitempty"`
	Channel  string `toml:"channel,omitempty"`
}

// InitDefaults initializes the default values.
func (cfg *Config) InitDefaults() {
	if cfg.WriteTimeout.Duration == 0 {
		cfg.WriteTimeout.Duration = DefaultWriteTimeout
	}
	if cfg.ChannelCacheSize == 0 {
		cfg.ChannelCacheSize = DefaultChannelCacheSize
	}
	if cfg.Relay.Channel == "" {
		cfg.Relay.Channel = "newsdesk:live-cues"
	}
}

// Validate validates the configuration.
func (cfg *Config) Validate() error {
	if cfg.WriteTimeout.Duration <= 0 {
		return serrors.New("write_timeout must be positive", "write_timeout", cfg.WriteTimeout)
	}
	if cfg.MaxConcurrentSends < 0 {
		return serrors.New("max_concurrent_sends must not be negative",
			"max_concurrent_sends", cfg.MaxConcurrentSends)
	}
	if cfg.ChannelCacheSize <= 0 {
		return serrors.New("channel_cache_size must be positive",
			"channel_cache_size", cfg.ChannelCacheSize)
	}
	return nil
}

// Sample writes a config sample to the writer.
func (cfg *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, sample)
	config.WriteSample(dst, path, ctx, &cfg.Relay)
}

// Sample writes a config sample to the writer.
func (cfg *RelayConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, relaySample)
}

// ConfigName is the key in the toml file.
func (cfg *RelayConfig) ConfigName() string {
	return "relay"
}

// ConfigName is the key in the toml file.
func (cfg *Config) ConfigName() string {
	return "live"
}
