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

// Package newsdesk ties the stores, the live hub and the notification
// dispatcher together into the publishing paths of the newsroom.
//
// A publish succeeds or fails based on the durable write alone. Live cues and
// push notifications are sent afterwards, in the background, and their
// outcome is never reported to the editor.
package newsdesk

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/live"
	"github.com/newsdesk/newsdesk/private/storage/article"
	"github.com/newsdesk/newsdesk/private/storage/db"
)

// ErrInvalidArticle indicates an article that cannot be published.
var ErrInvalidArticle = errors.New("invalid article")

// ArticleNotifier is told about every published article.
type ArticleNotifier interface {
	// OnArticlePublished must not block on delivery.
	OnArticlePublished(ctx context.Context, a news.Article) bool
}

// Publisher publishes articles and live entries.
type Publisher struct {
	Articles article.Write
	// Notifier is optional.
	Notifier ArticleNotifier
	Live     *live.Service
	// Now returns the current time. (default time.Now)
	Now func() time.Time
}

// PublishArticle stores a as published article and triggers its
// notifications. Missing ids, slugs and creation times are filled in. The
// returned error only reflects validation and the durable write.
func (p *Publisher) PublishArticle(ctx context.Context, a news.Article) (news.Article, error) {
	if strings.TrimSpace(a.Title) == "" {
		return news.Article{}, serrors.JoinNoStack(ErrInvalidArticle, nil,
			"field", "title", "detail", "missing")
	}
	if a.Category == "" {
		return news.Article{}, serrors.JoinNoStack(ErrInvalidArticle, nil,
			"field", "category", "detail", "missing")
	}
	c, err := news.ParseKnownCategory(string(a.Category))
	if err != nil {
		return news.Article{}, serrors.JoinNoStack(ErrInvalidArticle, err,
			"field", "category")
	}
	a.Category = c
	if a.ID == "" {
		a.ID = news.NewID()
	}
	if a.Slug == "" {
		a.Slug = news.SlugFromTitle(a.Title)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = p.now()
	}
	a.Published = true
	if err := p.Articles.InsertArticle(ctx, a); err != nil {
		return news.Article{}, serrors.Wrap("storing article", err, "id", a.ID)
	}
	logger := log.FromCtx(ctx)
	logger.Info("Article published", "id", a.ID, "category", a.Category, "alert", a.Alert)
	if p.Notifier != nil && p.Notifier.OnArticlePublished(ctx, a) {
		logger.Debug("Push dispatch started", "id", a.ID)
	}
	return a, nil
}

// PublishEntry stores e in the live channel and announces it to the live
// readers. Missing ids and creation times are filled in.
func (p *Publisher) PublishEntry(ctx context.Context, channelID string,
	e news.LiveEntry) (news.LiveEntry, error) {

	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Body) == "" {
		return news.LiveEntry{}, db.NewInputDataError("entry without title and body", nil,
			"channel", channelID)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = p.now()
	}
	stored, err := p.Live.PostEntry(ctx, channelID, e)
	if err != nil {
		return news.LiveEntry{}, err
	}
	return stored, nil
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}
