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

// Package config contains the configuration of the newsdesk service.
package config

import (
	"fmt"
	"io"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/private/config"
	"github.com/newsdesk/newsdesk/private/dedup"
	"github.com/newsdesk/newsdesk/private/env"
	"github.com/newsdesk/newsdesk/private/homepage"
	"github.com/newsdesk/newsdesk/private/live"
	api "github.com/newsdesk/newsdesk/private/mgmtapi"
	"github.com/newsdesk/newsdesk/private/push"
	"github.com/newsdesk/newsdesk/private/storage"
)

const idSample = "newsdesk-1"

var _ config.Config = (*Config)(nil)

// Config is the newsdesk configuration.
type Config struct {
	General   env.General      `toml:"general,omitempty"`
	Logging   log.Config       `toml:"log,omitempty"`
	Metrics   env.Metrics      `toml:"metrics,omitempty"`
	Tracing   env.Tracing      `toml:"tracing,omitempty"`
	API       api.Config       `toml:"api,omitempty"`
	ArticleDB storage.DBConfig `toml:"article_db,omitempty"`
	LiveDB    storage.DBConfig `toml:"live_db,omitempty"`
	PushDB    storage.DBConfig `toml:"push_db,omitempty"`
	Dedup     dedup.Config     `toml:"dedup,omitempty"`
	Homepage  homepage.Config  `toml:"homepage,omitempty"`
	Live      live.Config      `toml:"live,omitempty"`
	Push      push.Config      `toml:"push,omitempty"`
}

// InitDefaults initializes the default values for all parts of the config.
func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Tracing,
		&cfg.API,
		cfg.ArticleDB.WithDefault(fmt.Sprintf(storage.DefaultArticleDBPath, cfg.General.ID)),
		cfg.LiveDB.WithDefault(fmt.Sprintf(storage.DefaultLiveDBPath, cfg.General.ID)),
		cfg.PushDB.WithDefault(fmt.Sprintf(storage.DefaultPushDBPath, cfg.General.ID)),
		&cfg.Dedup,
		&cfg.Homepage,
		&cfg.Live,
		&cfg.Push,
	)
}

// Validate validates all parts of the config.
func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.ArticleDB,
		&cfg.LiveDB,
		&cfg.PushDB,
		&cfg.Dedup,
		&cfg.Homepage,
		&cfg.Live,
		&cfg.Push,
	)
}

// Sample generates a sample config file for the newsdesk service.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: idSample},
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.Tracing,
		&cfg.API,
		storage.NewSampler("article_db", storage.DefaultArticleDBPath),
		storage.NewSampler("live_db", storage.DefaultLiveDBPath),
		storage.NewSampler("push_db", storage.DefaultPushDBPath),
		&cfg.Dedup,
		&cfg.Homepage,
		&cfg.Live,
		&cfg.Push,
	)
}

// ConfigName is the key in the toml file.
func (cfg *Config) ConfigName() string {
	return "newsdesk_config"
}
