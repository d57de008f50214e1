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

package push

import (
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/pkg/private/util"
	"github.com/newsdesk/newsdesk/private/config"
)

const (
	// DefaultTTL is how long push services keep undelivered messages.
	DefaultTTL = 12 * time.Hour
	// DefaultDeliveryTimeout bounds a single delivery attempt.
	DefaultDeliveryTimeout = 10 * time.Second
	// DefaultMaxConcurrentDeliveries limits the deliveries in flight per
	// dispatch.
	DefaultMaxConcurrentDeliveries = 64
	// DefaultBaseURL is the public URL of the site.
	DefaultBaseURL = "https://news.example.com"
)

var urgencies = map[string]struct{}{
	"very-low": {},
	"low":      {},
	"normal":   {},
	"high":     {},
}

var _ config.Config = (*Config)(nil)

// Config is the push notification configuration.
type Config struct {
	// VAPIDPublicKey is the application server public key, base64url
	// encoded. Browsers need it to subscribe.
	VAPIDPublicKey string `toml:"vapid_public_key,omitempty"`
	// VAPIDPrivateKey is the application server private key.
	VAPIDPrivateKey string `toml:"vapid_private_key,omitempty"`
	// Subject is the contact of the operator, a mailto: or https: URL.
	Subject string `toml:"subject,omitempty"`
	// TTL is how long push services keep undelivered messages.
	TTL util.DurWrap `toml:"ttl,omitempty"`
	// Urgency is the message urgency.
	Urgency string `toml:"urgency,omitempty"`
	// DeliveryTimeout bounds a single delivery attempt.
	DeliveryTimeout util.DurWrap `toml:"delivery_timeout,omitempty"`
	// MaxConcurrentDeliveries limits the deliveries in flight per dispatch.
	MaxConcurrentDeliveries int `toml:"max_concurrent_deliveries,omitempty"`
	// BaseURL is the public URL of the site, notifications link below it.
	BaseURL string `toml:"base_url,omitempty"`
}

// InitDefaults initializes the default values.
func (cfg *Config) InitDefaults() {
	if cfg.TTL.Duration == 0 {
		cfg.TTL.Duration = DefaultTTL
	}
	if cfg.Urgency == "" {
		cfg.Urgency = "high"
	}
	if cfg.DeliveryTimeout.Duration == 0 {
		cfg.DeliveryTimeout.Duration = DefaultDeliveryTimeout
	}
	if cfg.MaxConcurrentDeliveries == 0 {
		cfg.MaxConcurrentDeliveries = DefaultMaxConcurrentDeliveries
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
}

// Validate validates the configuration. Missing VAPID keys are allowed, push
// delivery is disabled in that case.
func (cfg *Config) Validate() error {
	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return serrors.New("vapid_public_key and vapid_private_key must be set together")
	}
	if cfg.Enabled() && !strings.HasPrefix(cfg.Subject, "mailto:") &&
		!strings.HasPrefix(cfg.Subject, "https://") {

		return serrors.New("subject must be a mailto: or https: URL", "subject", cfg.Subject)
	}
	if cfg.TTL.Duration < 0 {
		return serrors.New("ttl must not be negative", "ttl", cfg.TTL)
	}
	if _, ok := urgencies[cfg.Urgency]; !ok {
		return serrors.New("unknown urgency", "urgency", cfg.Urgency)
	}
	if cfg.DeliveryTimeout.Duration <= 0 {
		return serrors.New("delivery_timeout must be positive",
			"delivery_timeout", cfg.DeliveryTimeout)
	}
	if cfg.MaxConcurrentDeliveries <= 0 {
		return serrors.New("max_concurrent_deliveries must be positive",
			"max_concurrent_deliveries", cfg.MaxConcurrentDeliveries)
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || !u.IsAbs() {
		return serrors.New("base_url must be an absolute URL", "base_url", cfg.BaseURL)
	}
	return nil
}

// Enabled returns whether push delivery is configured.
func (cfg *Config) Enabled() bool {
	return cfg.VAPIDPrivateKey != ""
}

// WebPushOptions returns the transport options.
func (cfg *Config) WebPushOptions() WebPushOptions {
	return WebPushOptions{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subject:         cfg.Subject,
		TTL:             cfg.TTL.Duration,
		Urgency:         cfg.Urgency,
	}
}

// Sample writes a config sample to the writer.
func (cfg *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, sample)
}

// ConfigName is the key in the toml file.
func (cfg *Config) ConfigName() string {
	return "push"
}
