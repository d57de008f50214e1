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

// Package push defines the storage API of push subscriptions.
package push

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/newsdesk/newsdesk/pkg/news"
)

// DB is the push subscription store. There is at most one subscription per
// endpoint.
type DB interface {
	// UpsertSubscription stores s. An existing subscription with the same
	// endpoint is replaced, including its categories, and keeps its creation
	// time.
	UpsertSubscription(ctx context.Context, s news.PushSubscription) error
	// DeleteSubscription removes the subscription of the endpoint and reports
	// whether one existed.
	DeleteSubscription(ctx context.Context, endpoint string) (bool, error)
	// Subscription returns the subscription of the endpoint, or an error
	// matching db.ErrNotFound.
	Subscription(ctx context.Context, endpoint string) (news.PushSubscription, error)
	// Subscriptions returns a lazy sequence of the subscriptions that
	// selected category, or of all subscriptions if category is not set. The
	// store is read page by page. Each iteration starts from the beginning.
	// After an error is yielded the sequence ends.
	Subscriptions(ctx context.Context,
		category news.Optional[news.Category]) iter.Seq2[news.PushSubscription, error]
	// DeleteExpired removes the subscriptions whose expiration hint lies
	// before now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	io.Closer
}
