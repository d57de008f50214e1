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

// Package sqlite implements the article store on sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/storage/article"
	"github.com/newsdesk/newsdesk/private/storage/db"
)

const (
	// SchemaVersion is the version of the SQLite schema understood by this backend.
	// Whenever changes to the schema are made, this version number should be increased
	// to prevent data corruption between incompatible database schemas.
	SchemaVersion = 1
	// Schema is the SQLite database layout.
	Schema = `CREATE TABLE articles(
		row_id INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		body TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		type TEXT NOT NULL,
		image TEXT,
		alert INTEGER NOT NULL,
		published INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		views INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX articles_listing ON articles(published, category, created_at);
	CREATE TABLE article_tags(
		article_row_id INTEGER NOT NULL,
		tag TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (article_row_id, tag),
		FOREIGN KEY (article_row_id) REFERENCES articles(row_id) ON DELETE CASCADE
	);
	CREATE INDEX article_tags_tag ON article_tags(tag);
	`
)

var _ article.DB = (*Backend)(nil)

// Backend implements the article store on top of sqlite.
type Backend struct {
	db *db.Sqlite
}

// New returns a new SQLite backend opening a database at the given path. If
// no database exists a new database is created. If the schema version of the
// stored database is different from SchemaVersion, an error is returned.
func New(path string, cfg *db.SqliteConfig) (*Backend, error) {
	s, err := db.NewSqlite(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Setup(Schema, SchemaVersion); err != nil {
		s.Close()
		return nil, err
	}
	return &Backend{db: s}, nil
}

// DB returns the underlying database.
func (b *Backend) DB() *db.Sqlite {
	return b.db
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// InsertArticle implements article.Write.
func (b *Backend) InsertArticle(ctx context.Context, a news.Article) error {
	if a.ID == "" {
		return db.NewInputDataError("article without id", nil)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return b.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO articles (id, slug, title, summary, body, category, subcategory,
				type, image, alert, published, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				slug = excluded.slug, title = excluded.title, summary = excluded.summary,
				body = excluded.body, category = excluded.category,
				subcategory = excluded.subcategory, type = excluded.type,
				image = excluded.image, alert = excluded.alert,
				published = excluded.published
			RETURNING row_id
		`
		var rowID int64
		err := tx.QueryRowContext(ctx, query, a.ID, a.Slug, a.Title, a.Summary, a.Body,
			string(a.Category), a.Subcategory, a.Type, a.Image.Ptr(),
			a.Alert, a.Published, a.CreatedAt.UnixNano()).Scan(&rowID)
		if err != nil {
			return db.NewWriteError("inserting article", err, "id", a.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM article_tags WHERE article_row_id = ?`, rowID); err != nil {
			return db.NewWriteError("deleting tags", err, "id", a.ID)
		}
		// Repeated tags keep their first position.
		for i, tag := range a.Tags {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO article_tags (article_row_id, tag, position)
				VALUES (?, ?, ?)`,
				rowID, tag, i)
			if err != nil {
				return db.NewWriteError("inserting tag", err, "id", a.ID, "tag", tag)
			}
		}
		return nil
	})
}

// IncrementViews implements article.Write.
func (b *Backend) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := b.db.Full.QueryRowContext(ctx,
		`UPDATE articles SET views = views + 1 WHERE id = ? RETURNING views`, id).Scan(&views)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, db.NewNotFoundError("article", "id", id)
	case err != nil:
		return 0, db.NewWriteError("incrementing views", err, "id", id)
	}
	return views, nil
}

const selectArticle = `
	SELECT row_id, id, slug, title, summary, body, category, subcategory, type, image,
		alert, published, created_at, views
	FROM articles`

// Article implements article.Read.
func (b *Backend) Article(ctx context.Context, id string) (news.Article, error) {
	row := b.db.ReadOnly.QueryRowContext(ctx, selectArticle+` WHERE id = ?`, id)
	rowID, a, err := scanArticle(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return news.Article{}, db.NewNotFoundError("article", "id", id)
	case err != nil:
		return news.Article{}, err
	}
	if err := b.loadTags(ctx, map[int64]*news.Article{rowID: &a}); err != nil {
		return news.Article{}, err
	}
	return a, nil
}

// FindByFilter implements article.Read.
func (b *Backend) FindByFilter(ctx context.Context, filter article.Filter, exclude []string,
	limit int, order article.Order) ([]news.Article, error) {

	if limit <= 0 {
		return nil, nil
	}
	conds := []string{"published = 1"}
	var args []any
	if c, ok := filter.Category.Get(); ok {
		conds = append(conds, "category = ?")
		args = append(args, string(c))
	}
	if s, ok := filter.Subcategory.Get(); ok {
		conds = append(conds, "subcategory = ?")
		args = append(args, s)
	}
	if t, ok := filter.Type.Get(); ok {
		conds = append(conds, "type = ?")
		args = append(args, t)
	}
	for _, tag := range filter.Tags {
		conds = append(conds, `EXISTS (SELECT 1 FROM article_tags t
			WHERE t.article_row_id = articles.row_id AND t.tag = ?)`)
		args = append(args, tag)
	}
	if len(exclude) > 0 {
		conds = append(conds, "id NOT IN ("+placeholders(len(exclude))+")")
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	dir := "DESC"
	if order == article.OrderOldest {
		dir = "ASC"
	}
	query := selectArticle + " WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY created_at " + dir + ", row_id " + dir + " LIMIT ?"
	args = append(args, limit)

	rows, err := b.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.NewReadError("selecting articles", err)
	}
	defer rows.Close()
	var res []news.Article
	var rowIDs []int64
	for rows.Next() {
		rowID, a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating articles", err)
	}
	byRow := make(map[int64]*news.Article, len(res))
	for i, rowID := range rowIDs {
		byRow[rowID] = &res[i]
	}
	if err := b.loadTags(ctx, byRow); err != nil {
		return nil, err
	}
	return res, nil
}

// loadTags fills in the tags of the articles, keyed by their row id.
func (b *Backend) loadTags(ctx context.Context, articles map[int64]*news.Article) error {
	if len(articles) == 0 {
		return nil
	}
	args := make([]any, 0, len(articles))
	for rowID := range articles {
		args = append(args, rowID)
	}
	query := `
		SELECT article_row_id, tag FROM article_tags
		WHERE article_row_id IN (` + placeholders(len(args)) + `)
		ORDER BY article_row_id, position`
	rows, err := b.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return db.NewReadError("selecting tags", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rowID int64
			tag   string
		)
		if err := rows.Scan(&rowID, &tag); err != nil {
			return db.NewReadError("scanning tag", err)
		}
		if a, ok := articles[rowID]; ok {
			a.Tags = append(a.Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return db.NewReadError("iterating tags", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (int64, news.Article, error) {
	var (
		rowID     int64
		a         news.Article
		category  string
		image     sql.NullString
		createdAt int64
	)
	err := s.Scan(&rowID, &a.ID, &a.Slug, &a.Title, &a.Summary, &a.Body, &category,
		&a.Subcategory, &a.Type, &image, &a.Alert, &a.Published, &createdAt, &a.Views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, news.Article{}, err
	}
	if err != nil {
		return 0, news.Article{}, db.NewReadError("scanning article", err)
	}
	a.Category = news.Category(category)
	if image.Valid {
		a.Image = news.Some(image.String)
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	return rowID, a, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
