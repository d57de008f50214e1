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

// Package sqlite implements the push subscription store on sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/storage/db"
	"github.com/newsdesk/newsdesk/private/storage/push"
)

const (
	// SchemaVersion is the version of the SQLite schema understood by this backend.
	// Whenever changes to the schema are made, this version number should be increased
	// to prevent data corruption between incompatible database schemas.
	SchemaVersion = 1
	// Schema is the SQLite database layout.
	Schema = `CREATE TABLE subscriptions(
		row_id INTEGER PRIMARY KEY AUTOINCREMENT,
		endpoint TEXT NOT NULL UNIQUE,
		p256dh TEXT NOT NULL,
		auth TEXT NOT NULL,
		expiration INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX subscriptions_expiration ON subscriptions(expiration);
	CREATE TABLE subscription_categories(
		subscription_row_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		PRIMARY KEY (category, subscription_row_id),
		FOREIGN KEY (subscription_row_id) REFERENCES subscriptions(row_id) ON DELETE CASCADE
	);
	`

	// DefaultPageSize is the number of subscriptions read per query.
	DefaultPageSize = 500
)

var _ push.DB = (*Backend)(nil)

// Backend implements the push subscription store on top of sqlite.
type Backend struct {
	db       *db.Sqlite
	pageSize int
}

// New returns a new SQLite backend opening a database at the given path. If
// no database exists a new database is created. If the schema version of the
// stored database is different from SchemaVersion, an error is returned.
// Subscriptions are read in pages of pageSize, or DefaultPageSize if
// pageSize is not positive.
func New(path string, cfg *db.SqliteConfig, pageSize int) (*Backend, error) {
	s, err := db.NewSqlite(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Setup(Schema, SchemaVersion); err != nil {
		s.Close()
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Backend{db: s, pageSize: pageSize}, nil
}

// DB returns the underlying database.
func (b *Backend) DB() *db.Sqlite {
	return b.db
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// UpsertSubscription implements push.DB.
func (b *Backend) UpsertSubscription(ctx context.Context, s news.PushSubscription) error {
	if s.Endpoint == "" {
		return db.NewInputDataError("subscription without endpoint", nil)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	var expiration *int64
	if exp, ok := s.ExpirationTime.Get(); ok {
		v := exp.UnixNano()
		expiration = &v
	}
	return b.db.WithTx(ctx, func(tx *sql.Tx) error {
		var rowID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO subscriptions (endpoint, p256dh, auth, expiration, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(endpoint) DO UPDATE SET
				p256dh = excluded.p256dh, auth = excluded.auth,
				expiration = excluded.expiration
			RETURNING row_id`,
			s.Endpoint, s.Keys.P256dh, s.Keys.Auth, expiration, s.CreatedAt.UnixNano(),
		).Scan(&rowID)
		if err != nil {
			return db.NewWriteError("inserting subscription", err, "endpoint", s.Endpoint)
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM subscription_categories WHERE subscription_row_id = ?`, rowID)
		if err != nil {
			return db.NewWriteError("deleting categories", err, "endpoint", s.Endpoint)
		}
		for _, c := range s.Categories.Slice() {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO subscription_categories (subscription_row_id, category)
				VALUES (?, ?)`, rowID, string(c))
			if err != nil {
				return db.NewWriteError("inserting category", err,
					"endpoint", s.Endpoint, "category", c)
			}
		}
		return nil
	})
}

// DeleteSubscription implements push.DB.
func (b *Backend) DeleteSubscription(ctx context.Context, endpoint string) (bool, error) {
	res, err := b.db.Full.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return false, db.NewWriteError("deleting subscription", err, "endpoint", endpoint)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, db.NewWriteError("deleting subscription", err, "endpoint", endpoint)
	}
	return n > 0, nil
}

// DeleteExpired implements push.DB.
func (b *Backend) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := b.db.Full.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE expiration IS NOT NULL AND expiration < ?`,
		now.UnixNano())
	if err != nil {
		return 0, db.NewWriteError("deleting expired subscriptions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, db.NewWriteError("deleting expired subscriptions", err)
	}
	return int(n), nil
}

// Subscription implements push.DB.
func (b *Backend) Subscription(ctx context.Context,
	endpoint string) (news.PushSubscription, error) {

	var r record
	err := b.db.ReadOnly.QueryRowContext(ctx, `
		SELECT row_id, endpoint, p256dh, auth, expiration, created_at
		FROM subscriptions WHERE endpoint = ?`, endpoint).Scan(r.fields()...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return news.PushSubscription{}, db.NewNotFoundError("subscription",
			"endpoint", endpoint)
	case err != nil:
		return news.PushSubscription{}, db.NewReadError("selecting subscription", err,
			"endpoint", endpoint)
	}
	page := []record{r}
	if err := b.loadCategories(ctx, page); err != nil {
		return news.PushSubscription{}, err
	}
	return page[0].subscription(), nil
}

// Subscriptions implements push.DB. Pages are selected by row id, so a
// subscription is visited at most once per iteration even if the store is
// modified concurrently.
func (b *Backend) Subscriptions(ctx context.Context,
	category news.Optional[news.Category]) iter.Seq2[news.PushSubscription, error] {

	return func(yield func(news.PushSubscription, error) bool) {
		var last int64
		for {
			page, err := b.page(ctx, category, last)
			if err != nil {
				yield(news.PushSubscription{}, err)
				return
			}
			for _, r := range page {
				if !yield(r.subscription(), nil) {
					return
				}
			}
			if len(page) < b.pageSize {
				return
			}
			last = page[len(page)-1].rowID
		}
	}
}

func (b *Backend) page(ctx context.Context, category news.Optional[news.Category],
	after int64) ([]record, error) {

	query := `
		SELECT s.row_id, s.endpoint, s.p256dh, s.auth, s.expiration, s.created_at
		FROM subscriptions s WHERE s.row_id > ?`
	args := []any{after}
	if c, ok := category.Get(); ok {
		query = `
			SELECT s.row_id, s.endpoint, s.p256dh, s.auth, s.expiration, s.created_at
			FROM subscriptions s
			JOIN subscription_categories c ON c.subscription_row_id = s.row_id
			WHERE c.category = ? AND s.row_id > ?`
		args = []any{string(c), after}
	}
	query += ` ORDER BY s.row_id LIMIT ?`
	args = append(args, b.pageSize)

	rows, err := b.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.NewReadError("selecting subscriptions", err)
	}
	defer rows.Close()
	var page []record
	for rows.Next() {
		var r record
		if err := rows.Scan(r.fields()...); err != nil {
			return nil, db.NewReadError("scanning subscription", err)
		}
		page = append(page, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating subscriptions", err)
	}
	if err := b.loadCategories(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (b *Backend) loadCategories(ctx context.Context, page []record) error {
	if len(page) == 0 {
		return nil
	}
	byRowID := make(map[int64]*record, len(page))
	args := make([]any, 0, len(page))
	for i := range page {
		page[i].categories = news.NewCategorySet()
		byRowID[page[i].rowID] = &page[i]
		args = append(args, page[i].rowID)
	}
	query := `SELECT subscription_row_id, category FROM subscription_categories
		WHERE subscription_row_id IN (` +
		strings.TrimSuffix(strings.Repeat("?,", len(args)), ",") + `)`
	rows, err := b.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return db.NewReadError("selecting categories", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rowID    int64
			category string
		)
		if err := rows.Scan(&rowID, &category); err != nil {
			return db.NewReadError("scanning category", err)
		}
		if r, ok := byRowID[rowID]; ok {
			r.categories[news.Category(category)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return db.NewReadError("iterating categories", err)
	}
	return nil
}

type record struct {
	rowID      int64
	endpoint   string
	p256dh     string
	auth       string
	expiration sql.NullInt64
	createdAt  int64
	categories news.CategorySet
}

func (r *record) fields() []any {
	return []any{&r.rowID, &r.endpoint, &r.p256dh, &r.auth, &r.expiration, &r.createdAt}
}

func (r record) subscription() news.PushSubscription {
	s := news.PushSubscription{
		Endpoint:   r.endpoint,
		Keys:       news.PushKeys{P256dh: r.p256dh, Auth: r.auth},
		Categories: r.categories,
		CreatedAt:  time.Unix(0, r.createdAt).UTC(),
	}
	if r.expiration.Valid {
		s.ExpirationTime = news.Some(time.Unix(0, r.expiration.Int64).UTC())
	}
	return s
}
