// Copyright 2021 Anapaya Systems
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

// Package mgmtapi contains the shared pieces of the newsdesk HTTP API: the
// listen configuration and RFC 7807 problem responses.
package mgmtapi

import (
	"io"

	"github.com/newsdesk/newsdesk/private/config"
)

// Config is the API configuration.
type Config struct {
	config.NoDefaulter
	config.NoValidator
	// Addr is the address the API listens on. If empty, the API is not
	// served.
	Addr string `toml:"addr,omitempty"`
	// AllowedOrigins are the CORS origins of the browser clients.
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// Sample writes a config sample to the writer.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, sample)
}

// ConfigName is the key in the toml file.
func (cfg *Config) ConfigName() string {
	return "api"
}
