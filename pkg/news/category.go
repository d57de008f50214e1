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

package news

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

// Category is a known topic category of articles and push subscriptions.
type Category string

// The known categories. CategoryOther is the explicit fallback for any
// category name that is not known.
const (
	CategoryBreaking   Category = "breaking"
	CategoryPolitics   Category = "politics"
	CategorySports     Category = "sports"
	CategoryBusiness   Category = "business"
	CategoryTechnology Category = "technology"
	CategoryCulture    Category = "culture"
	CategoryWorld      Category = "world"
	CategoryLocal      Category = "local"
	CategoryOther      Category = "other"
)

var (
	// ErrEmptyCategory is returned when parsing an empty category name.
	ErrEmptyCategory = serrors.New("empty category")
	// ErrUnknownCategory is returned by ParseKnownCategory for names that are
	// not known.
	ErrUnknownCategory = serrors.New("unknown category")
)

var knownCategories = map[Category]struct{}{
	CategoryBreaking:   {},
	CategoryPolitics:   {},
	CategorySports:     {},
	CategoryBusiness:   {},
	CategoryTechnology: {},
	CategoryCulture:    {},
	CategoryWorld:      {},
	CategoryLocal:      {},
	CategoryOther:      {},
}

// ParseCategory parses a subscription category name. Matching is
// case-insensitive and ignores surrounding whitespace. Unknown names map to
// CategoryOther; an empty name is an error.
func ParseCategory(s string) (Category, error) {
	c, err := normalizeCategory(s)
	if err != nil {
		return "", err
	}
	if !c.Known() {
		return CategoryOther, nil
	}
	return c, nil
}

// ParseKnownCategory is like ParseCategory but rejects unknown names instead
// of mapping them to CategoryOther. Articles and homepage slots use it.
func ParseKnownCategory(s string) (Category, error) {
	c, err := normalizeCategory(s)
	if err != nil {
		return "", err
	}
	if !c.Known() {
		return "", serrors.JoinNoStack(ErrUnknownCategory, nil, "category", s)
	}
	return c, nil
}

func normalizeCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", ErrEmptyCategory
	}
	return Category(s), nil
}

// Known returns whether c is one of the known categories.
func (c Category) Known() bool {
	_, ok := knownCategories[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// UnmarshalText implements encoding.TextUnmarshaler. The name is normalized
// but not checked, so the decoded value of an unknown name is not Known().
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := normalizeCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DefaultCategories is the set a subscription gets when no category was
// selected.
func DefaultCategories() CategorySet {
	return NewCategorySet(CategoryBreaking)
}

// CategorySet is a set of categories.
type CategorySet map[Category]struct{}

// NewCategorySet returns a set holding the given categories.
func NewCategorySet(cs ...Category) CategorySet {
	s := make(CategorySet, len(cs))
	for _, c := range cs {
		s[c] = struct{}{}
	}
	return s
}

// ParseCategorySet parses every name with ParseCategory. An empty input
// yields the default set. Empty names are rejected.
func ParseCategorySet(names []string) (CategorySet, error) {
	s := make(CategorySet, len(names))
	for i, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, serrors.Wrap("parsing category", err, "index", i)
		}
		s[c] = struct{}{}
	}
	return s.Normalize(), nil
}

// Contains returns whether c is in the set.
func (s CategorySet) Contains(c Category) bool {
	_, ok := s[c]
	return ok
}

// Slice returns the categories in lexical order.
func (s CategorySet) Slice() []Category {
	r := make([]Category, 0, len(s))
	for c := range s {
		r = append(r, c)
	}
	slices.Sort(r)
	return r
}

// Normalize returns s, or the default set if s is empty.
func (s CategorySet) Normalize() CategorySet {
	if len(s) == 0 {
		return DefaultCategories()
	}
	return s
}

// MarshalJSON encodes the set as a sorted list.
func (s CategorySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes a list of category names.
func (s *CategorySet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	parsed, err := ParseCategorySet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
