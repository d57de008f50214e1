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

// Package homepage allocates published articles to the homepage slots.
//
// Slots are processed in declaration order. Each slot takes up to its limit
// of matching articles that no earlier slot claimed, so the declaration order
// encodes editorial priority. A slot that finds fewer unclaimed articles than
// its limit stays short; it is never backfilled from other filters.
package homepage

import (
	"context"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/storage/article"
)

// Slot is one homepage section.
type Slot struct {
	Name   string
	Filter article.Filter
	Limit  int
	Order  article.Order
}

// Store is the article query the allocator needs.
type Store interface {
	FindByFilter(ctx context.Context, filter article.Filter, exclude []string, limit int,
		order article.Order) ([]news.Article, error)
}

// SlotResult is the allocation of one slot.
type SlotResult struct {
	Slot     Slot
	Articles []news.Article
}

// Layout is the allocation of all slots, in slot declaration order.
type Layout []SlotResult

// IDs returns the article ids per slot name.
func (l Layout) IDs() map[string][]string {
	r := make(map[string][]string, len(l))
	for _, s := range l {
		ids := make([]string, 0, len(s.Articles))
		for _, a := range s.Articles {
			ids = append(ids, a.ID)
		}
		r[s.Slot.Name] = ids
	}
	return r
}

// Allocator fills homepage slots from a Store.
type Allocator struct {
	Store Store
}

// Allocate fills slots in order. An article is placed in at most one slot.
// Store errors abort the allocation.
func (a Allocator) Allocate(ctx context.Context, slots []Slot) (Layout, error) {
	logger := log.FromCtx(ctx)
	claimed := make(map[string]struct{})
	exclude := make([]string, 0)
	layout := make(Layout, 0, len(slots))
	for _, slot := range slots {
		res := SlotResult{Slot: slot}
		if slot.Limit > 0 {
			found, err := a.Store.FindByFilter(ctx, slot.Filter, exclude, slot.Limit, slot.Order)
			if err != nil {
				return nil, serrors.Wrap("filling slot", err, "slot", slot.Name)
			}
			for _, art := range found {
				if len(res.Articles) == slot.Limit {
					break
				}
				if _, ok := claimed[art.ID]; ok {
					continue
				}
				claimed[art.ID] = struct{}{}
				res.Articles = append(res.Articles, art)
			}
			for _, art := range res.Articles {
				exclude = append(exclude, art.ID)
			}
		}
		if len(res.Articles) < slot.Limit {
			logger.Debug("Homepage slot under-filled", "slot", slot.Name,
				"limit", slot.Limit, "filled", len(res.Articles))
		}
		layout = append(layout, res)
	}
	return layout, nil
}
