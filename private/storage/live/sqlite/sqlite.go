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

// Package sqlite implements the live event store on sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/storage/db"
	"github.com/newsdesk/newsdesk/private/storage/live"
)

const (
	// SchemaVersion is the version of the SQLite schema understood by this backend.
	// Whenever changes to the schema are made, this version number should be increased
	// to prevent data corruption between incompatible database schemas.
	SchemaVersion = 1
	// Schema is the SQLite database layout.
	Schema = `CREATE TABLE channels(
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		current INTEGER NOT NULL
	);
	CREATE TABLE entries(
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		channel_id TEXT NOT NULL,
		author TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		media TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (channel_id) REFERENCES channels(id)
	);
	CREATE INDEX entries_order ON entries(channel_id, created_at, seq);
	`
)

// ErrArchived indicates that an entry was posted to an archived channel.
var ErrArchived = errors.New("channel archived")

var _ live.DB = (*Backend)(nil)

// Backend implements the live event store on top of sqlite.
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

// InsertChannel implements live.DB.
func (b *Backend) InsertChannel(ctx context.Context, c news.LiveChannel) error {
	if c.ID == "" {
		return db.NewInputDataError("channel without id", nil)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := b.db.Full.ExecContext(ctx,
		`INSERT INTO channels (id, title, created_at, current) VALUES (?, ?, ?, 1)`,
		c.ID, c.Title, c.CreatedAt.UnixNano())
	if err != nil {
		return db.NewWriteError("inserting channel", err, "id", c.ID)
	}
	return nil
}

// Channel implements live.DB.
func (b *Backend) Channel(ctx context.Context, id string) (news.LiveChannel, error) {
	row := b.db.ReadOnly.QueryRowContext(ctx,
		`SELECT id, title, created_at, current FROM channels WHERE id = ?`, id)
	c, err := scanChannel(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return news.LiveChannel{}, db.NewNotFoundError("channel", "id", id)
	case err != nil:
		return news.LiveChannel{}, db.NewReadError("selecting channel", err, "id", id)
	}
	return c, nil
}

// Channels implements live.DB.
func (b *Backend) Channels(ctx context.Context, currentOnly bool) ([]news.LiveChannel, error) {
	query := `SELECT id, title, created_at, current FROM channels`
	if currentOnly {
		query += ` WHERE current = 1`
	}
	query += ` ORDER BY created_at DESC, id`
	rows, err := b.db.ReadOnly.QueryContext(ctx, query)
	if err != nil {
		return nil, db.NewReadError("selecting channels", err)
	}
	defer rows.Close()
	var res []news.LiveChannel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, db.NewReadError("scanning channel", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating channels", err)
	}
	return res, nil
}

// Archive implements live.DB.
func (b *Backend) Archive(ctx context.Context, id string) error {
	res, err := b.db.Full.ExecContext(ctx, `UPDATE channels SET current = 0 WHERE id = ?`, id)
	if err != nil {
		return db.NewWriteError("archiving channel", err, "id", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return db.NewWriteError("archiving channel", err, "id", id)
	}
	if n == 0 {
		return db.NewNotFoundError("channel", "id", id)
	}
	return nil
}

// InsertEntry implements live.DB. Posting to an archived channel returns an
// error matching ErrArchived.
func (b *Backend) InsertEntry(ctx context.Context, e news.LiveEntry) (news.LiveEntry, error) {
	if e.ID == "" {
		return news.LiveEntry{}, db.NewInputDataError("entry without id", nil)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	err := b.db.WithTx(ctx, func(tx *sql.Tx) error {
		var current bool
		err := tx.QueryRowContext(ctx, `SELECT current FROM channels WHERE id = ?`,
			e.ChannelID).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return db.NewNotFoundError("channel", "id", e.ChannelID)
		case err != nil:
			return db.NewReadError("selecting channel", err, "id", e.ChannelID)
		case !current:
			return db.NewInputDataError("posting entry", ErrArchived, "channel", e.ChannelID)
		}
		var latest sql.NullInt64
		err = tx.QueryRowContext(ctx,
			`SELECT MAX(created_at) FROM entries WHERE channel_id = ?`,
			e.ChannelID).Scan(&latest)
		if err != nil {
			return db.NewReadError("selecting latest entry", err, "channel", e.ChannelID)
		}
		createdAt := e.CreatedAt.UnixNano()
		if latest.Valid && createdAt < latest.Int64 {
			createdAt = latest.Int64
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO entries (id, channel_id, author, title, body, media, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING seq`,
			e.ID, e.ChannelID, e.Author, e.Title, e.Body, e.Media.Ptr(), createdAt,
		).Scan(&e.Seq)
		if err != nil {
			return db.NewWriteError("inserting entry", err, "id", e.ID)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		return nil
	})
	if err != nil {
		return news.LiveEntry{}, err
	}
	return e, nil
}

// Entries implements live.DB.
func (b *Backend) Entries(ctx context.Context, channelID string,
	since news.Optional[string]) ([]news.LiveEntry, error) {

	query := `
		SELECT seq, id, channel_id, author, title, body, media, created_at
		FROM entries WHERE channel_id = ?1`
	args := []any{channelID}
	if sinceID, ok := since.Get(); ok {
		var sinceSeq, sinceCreated int64
		err := b.db.ReadOnly.QueryRowContext(ctx,
			`SELECT seq, created_at FROM entries WHERE id = ? AND channel_id = ?`,
			sinceID, channelID).Scan(&sinceSeq, &sinceCreated)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return nil, db.NewReadError("selecting since entry", err, "id", sinceID)
		default:
			query += ` AND (created_at > ?2 OR (created_at = ?2 AND seq > ?3))`
			args = append(args, sinceCreated, sinceSeq)
		}
	}
	query += ` ORDER BY created_at, seq`
	rows, err := b.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.NewReadError("selecting entries", err, "channel", channelID)
	}
	defer rows.Close()
	var res []news.LiveEntry
	for rows.Next() {
		var (
			e         news.LiveEntry
			media     sql.NullString
			createdAt int64
		)
		err := rows.Scan(&e.Seq, &e.ID, &e.ChannelID, &e.Author, &e.Title, &e.Body,
			&media, &createdAt)
		if err != nil {
			return nil, db.NewReadError("scanning entry", err)
		}
		if media.Valid {
			e.Media = news.Some(media.String)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating entries", err)
	}
	return res, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(s scanner) (news.LiveChannel, error) {
	var (
		c         news.LiveChannel
		createdAt int64
	)
	if err := s.Scan(&c.ID, &c.Title, &createdAt, &c.Current); err != nil {
		return news.LiveChannel{}, err
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	return c, nil
}
