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

package homepage

import (
	"fmt"
	"io"
	"strings"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/config"
	"github.com/newsdesk/newsdesk/private/storage/article"
)

var _ config.Config = (*Config)(nil)

// Config is the homepage layout.
type Config struct {
	// Slots in priority order. If empty, DefaultSlots is used.
	Slots []SlotConfig `toml:"slots,omitempty"`
}

// SlotConfig is the configuration of one slot. Empty filter fields match
// everything.
type SlotConfig struct {
	Name        string   `toml:"name"`
	Category    string   `toml:"category,omitempty"`
	Subcategory string   `toml:"subcategory,omitempty"`
	Type        string   `toml:"type,omitempty"`
	Tags        []string `toml:"tags,omitempty"`
	Limit       int      `toml:"limit"`
	Order       string   `toml:"order,omitempty"`
}

// DefaultSlots is the layout used if no slots are configured.
func DefaultSlots() []SlotConfig {
	return []SlotConfig{
		{Name: "lead", Limit: 1},
		{Name: "breaking", Category: string(news.CategoryBreaking), Limit: 5},
		{Name: "politics", Category: string(news.CategoryPolitics), Limit: 4},
		{Name: "world", Category: string(news.CategoryWorld), Limit: 4},
		{Name: "business", Category: string(news.CategoryBusiness), Limit: 4},
		{Name: "sports", Category: string(news.CategorySports), Limit: 4},
		{Name: "culture", Category: string(news.CategoryCulture), Limit: 4},
		{Name: "opinion", Type: "opinion", Limit: 3},
	}
}

// InitDefaults initializes the default values.
func (cfg *Config) InitDefaults() {
	if len(cfg.Slots) == 0 {
		cfg.Slots = DefaultSlots()
	}
	for i := range cfg.Slots {
		if cfg.Slots[i].Order == "" {
			cfg.Slots[i].Order = string(article.OrderNewest)
		}
	}
}

// Validate validates the configuration.
func (cfg *Config) Validate() error {
	_, err := cfg.Layout()
	return err
}

// Layout returns the configured slots.
func (cfg *Config) Layout() ([]Slot, error) {
	names := make(map[string]struct{}, len(cfg.Slots))
	slots := make([]Slot, 0, len(cfg.Slots))
	for i, sc := range cfg.Slots {
		s, err := sc.slot()
		if err != nil {
			return nil, serrors.Wrap("invalid slot", err, "index", i, "name", sc.Name)
		}
		if _, ok := names[s.Name]; ok {
			return nil, serrors.New("duplicate slot name", "index", i, "name", sc.Name)
		}
		names[s.Name] = struct{}{}
		slots = append(slots, s)
	}
	return slots, nil
}

func (sc SlotConfig) slot() (Slot, error) {
	if sc.Name == "" {
		return Slot{}, serrors.New("name required")
	}
	if sc.Limit <= 0 {
		return Slot{}, serrors.New("limit must be positive", "limit", sc.Limit)
	}
	order, err := article.ParseOrder(sc.Order)
	if err != nil {
		return Slot{}, err
	}
	s := Slot{Name: sc.Name, Limit: sc.Limit, Order: order, Filter: article.Filter{Tags: sc.Tags}}
	if sc.Category != "" {
		c, err := news.ParseKnownCategory(sc.Category)
		if err != nil {
			return Slot{}, err
		}
		s.Filter.Category = news.Some(c)
	}
	if sc.Subcategory != "" {
		s.Filter.Subcategory = news.Some(sc.Subcategory)
	}
	if sc.Type != "" {
		s.Filter.Type = news.Some(sc.Type)
	}
	return s, nil
}

// Sample writes a config sample to the writer.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	slots := strings.Join(path.Extend("slots"), ".")
	config.WriteString(dst, fmt.Sprintf(sample, slots, slots, slots))
}

// ConfigName is the key in the toml file.
func (cfg *Config) ConfigName() string {
	return "homepage"
}
