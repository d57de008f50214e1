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

// Package push manages the push subscriptions of readers and delivers
// encrypted notifications to them.
//
// Subscriptions are validated at the registry boundary: a registration with a
// malformed endpoint, missing keys or unusable categories is rejected with an
// error matching ErrInvalidSubscription. An empty category selection is not an
// error; it is corrected to the default set.
package push

import (
	"context"
	"encoding/base64"
	"errors"
	"iter"
	"net"
	"net/url"
	"time"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	pushstorage "github.com/newsdesk/newsdesk/private/storage/push"
)

// ErrInvalidSubscription indicates a registration that was rejected.
var ErrInvalidSubscription = errors.New("invalid subscription")

// Registration is a subscription request as sent by a browser.
type Registration struct {
	Endpoint   string        `json:"endpoint"`
	Keys       news.PushKeys `json:"keys"`
	Categories []string      `json:"categories"`
	// ExpirationTime is the expiration hint in milliseconds since the epoch.
	ExpirationTime news.Optional[int64] `json:"expirationTime"`
}

// Validate checks r and returns the subscription it describes. CreatedAt is
// left to the store.
func Validate(r Registration) (news.PushSubscription, error) {
	if err := validateEndpoint(r.Endpoint); err != nil {
		return news.PushSubscription{}, err
	}
	if err := validateKey("keys.p256dh", r.Keys.P256dh); err != nil {
		return news.PushSubscription{}, err
	}
	if err := validateKey("keys.auth", r.Keys.Auth); err != nil {
		return news.PushSubscription{}, err
	}
	categories, err := news.ParseCategorySet(r.Categories)
	if err != nil {
		return news.PushSubscription{}, serrors.JoinNoStack(ErrInvalidSubscription, err,
			"field", "categories")
	}
	s := news.PushSubscription{
		Endpoint:   r.Endpoint,
		Keys:       r.Keys,
		Categories: categories,
	}
	if ms, ok := r.ExpirationTime.Get(); ok {
		s.ExpirationTime = news.Some(time.UnixMilli(ms).UTC())
	}
	return s, nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return serrors.JoinNoStack(ErrInvalidSubscription, nil,
			"field", "endpoint", "detail", "missing")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return serrors.JoinNoStack(ErrInvalidSubscription, err, "field", "endpoint")
	}
	if !u.IsAbs() || u.Host == "" {
		return serrors.JoinNoStack(ErrInvalidSubscription, nil,
			"field", "endpoint", "detail", "not an absolute URL")
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLocalhost(u.Hostname()) {
			return nil
		}
	}
	return serrors.JoinNoStack(ErrInvalidSubscription, nil,
		"field", "endpoint", "detail", "scheme not allowed", "scheme", u.Scheme)
}

func isLocalhost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func validateKey(field, key string) error {
	if key == "" {
		return serrors.JoinNoStack(ErrInvalidSubscription, nil,
			"field", field, "detail", "missing")
	}
	// Browsers emit unpadded base64url, tolerate padding anyway.
	enc := base64.RawURLEncoding
	if len(key)%4 == 0 && key[len(key)-1] == '=' {
		enc = base64.URLEncoding
	}
	if _, err := enc.DecodeString(key); err != nil {
		return serrors.JoinNoStack(ErrInvalidSubscription, err, "field", field)
	}
	return nil
}

// Registry is the set of push subscriptions.
type Registry interface {
	// Register validates r and stores the subscription. A subscription with
	// the same endpoint is replaced.
	Register(ctx context.Context, r Registration) (news.PushSubscription, error)
	// Unregister removes the subscription of the endpoint. Unknown endpoints
	// are not an error.
	Unregister(ctx context.Context, endpoint string) error
	// FindByCategory returns a lazy, restartable sequence of the
	// subscriptions that selected category.
	FindByCategory(ctx context.Context,
		category news.Category) iter.Seq2[news.PushSubscription, error]
}

var _ Registry = (*DBRegistry)(nil)

// DBRegistry is a Registry backed by a subscription store.
type DBRegistry struct {
	DB pushstorage.DB
}

// Register implements Registry.
func (r DBRegistry) Register(ctx context.Context,
	reg Registration) (news.PushSubscription, error) {

	s, err := Validate(reg)
	if err != nil {
		return news.PushSubscription{}, err
	}
	if err := r.DB.UpsertSubscription(ctx, s); err != nil {
		return news.PushSubscription{}, serrors.Wrap("storing subscription", err)
	}
	log.FromCtx(ctx).Debug("Push subscription registered", "endpoint", s.Endpoint,
		"categories", s.Categories.Slice())
	return s, nil
}

// Unregister implements Registry.
func (r DBRegistry) Unregister(ctx context.Context, endpoint string) error {
	existed, err := r.DB.DeleteSubscription(ctx, endpoint)
	if err != nil {
		return serrors.Wrap("deleting subscription", err)
	}
	if existed {
		log.FromCtx(ctx).Debug("Push subscription removed", "endpoint", endpoint)
	}
	return nil
}

// FindByCategory implements Registry.
func (r DBRegistry) FindByCategory(ctx context.Context,
	category news.Category) iter.Seq2[news.PushSubscription, error] {

	return r.DB.Subscriptions(ctx, news.Some(category))
}
