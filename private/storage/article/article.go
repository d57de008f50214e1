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

// Package article defines the article storage API used by the homepage
// allocator and the publishing path.
package article

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

// Order is the sort order of a query result.
type Order string

const (
	// OrderNewest returns the most recently created articles first.
	OrderNewest Order = "newest"
	// OrderOldest returns the least recently created articles first.
	OrderOldest Order = "oldest"
)

// ParseOrder parses an order name. The empty string is OrderNewest.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderNewest, nil
	case OrderNewest, OrderOldest:
		return o, nil
	default:
		return "", serrors.New("unknown order", "order", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	parsed, err := ParseOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Filter selects published articles. Unset fields match everything. An
// article matches Tags if it carries all of them.
type Filter struct {
	Category    news.Optional[news.Category]
	Subcategory news.Optional[string]
	Type        news.Optional[string]
	Tags        []string
}

// Matches returns whether a satisfies the filter.
func (f Filter) Matches(a news.Article) bool {
	if !a.Published {
		return false
	}
	if c, ok := f.Category.Get(); ok && a.Category != c {
		return false
	}
	if s, ok := f.Subcategory.Get(); ok && a.Subcategory != s {
		return false
	}
	if t, ok := f.Type.Get(); ok && a.Type != t {
		return false
	}
	for _, tag := range f.Tags {
		if !slices.Contains(a.Tags, tag) {
			return false
		}
	}
	return true
}

// Read is the read part of the article store.
type Read interface {
	// Article returns the article with the given id. If it does not exist an
	// error matching db.ErrNotFound is returned.
	Article(ctx context.Context, id string) (news.Article, error)
	// FindByFilter returns up to limit published articles matching filter
	// whose id is not in exclude, sorted by order. Ties in creation time are
	// broken by insertion order, so results are deterministic.
	FindByFilter(ctx context.Context, filter Filter, exclude []string, limit int,
		order Order) ([]news.Article, error)
}

// Write is the write part of the article store.
type Write interface {
	// InsertArticle stores a. An existing article with the same id is
	// replaced, keeping its view count and creation time.
	InsertArticle(ctx context.Context, a news.Article) error
	// IncrementViews adds one view and returns the new count.
	IncrementViews(ctx context.Context, id string) (int64, error)
}

// DB is the article store.
type DB interface {
	Read
	Write
	io.Closer
}
