// Copyright 2020 Anapaya Systems
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

// Package storage provides factories for the newsdesk storage backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/config"
	"github.com/newsdesk/newsdesk/private/periodic"
	"github.com/newsdesk/newsdesk/private/storage/article"
	sqlitearticle "github.com/newsdesk/newsdesk/private/storage/article/sqlite"
	"github.com/newsdesk/newsdesk/private/storage/cleaner"
	"github.com/newsdesk/newsdesk/private/storage/db"
	"github.com/newsdesk/newsdesk/private/storage/live"
	sqlitelive "github.com/newsdesk/newsdesk/private/storage/live/sqlite"
	"github.com/newsdesk/newsdesk/private/storage/push"
	sqlitepush "github.com/newsdesk/newsdesk/private/storage/push/sqlite"
)

// Backend indicates the database backend type.
type Backend string

const (
	// BackendSqlite indicates an sqlite backend.
	BackendSqlite Backend = "sqlite"
	// DefaultPath indicates the default connection string for a generic database.
	DefaultPath          = "/var/lib/newsdesk/newsdesk.db"
	DefaultArticleDBPath = "/var/lib/newsdesk/%s.article.db"
	DefaultLiveDBPath    = "/var/lib/newsdesk/%s.live.db"
	DefaultPushDBPath    = "/var/lib/newsdesk/%s.push.db"

	// DefaultCleanupInterval is the interval of the expired data cleaners.
	DefaultCleanupInterval = 5 * time.Minute
)

// SetID returns a clone of the configuration that has the ID set on the connection string.
func SetID(cfg DBConfig, id string) *DBConfig {
	cfg.Connection = fmt.Sprintf(cfg.Connection, id)
	return &cfg
}

var _ (config.Config) = (*DBConfig)(nil)

// DBConfig is the configuration for the connection to a database.
type DBConfig struct {
	Connection string `toml:"connection,omitempty"`
	// MaxOpenReadConns limits the read pool. Writes always use a single
	// connection.
	MaxOpenReadConns int `toml:"max_open_read_conns,omitempty"`
	MaxIdleReadConns int `toml:"max_idle_read_conns,omitempty"`
	// PageSize is the number of records read per query by iterating stores.
	PageSize int `toml:"page_size,omitempty"`
}

type writeDefault struct {
	*DBConfig
	defaultPath string
}

func (w writeDefault) InitDefaults() {
	if w.Connection == "" {
		w.Connection = w.defaultPath
	}
}

// WithDefault returns a defaulter that sets the connection to path if it is
// empty.
func (cfg *DBConfig) WithDefault(path string) config.Defaulter {
	return writeDefault{DBConfig: cfg, defaultPath: path}
}

func (cfg *DBConfig) InitDefaults() {
	if cfg.Connection == "" {
		cfg.Connection = DefaultPath
	}
}

func (cfg *DBConfig) Validate() error {
	if cfg.MaxOpenReadConns < 0 || cfg.MaxIdleReadConns < 0 || cfg.PageSize < 0 {
		return serrors.New("negative database limits",
			"max_open_read_conns", cfg.MaxOpenReadConns,
			"max_idle_read_conns", cfg.MaxIdleReadConns, "page_size", cfg.PageSize)
	}
	return nil
}

// Sample writes a config sample to the writer.
func (cfg *DBConfig) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, fmt.Sprintf(sample, DefaultPath))
}

// NewSampler returns the sampler of a database block called name. The sample
// connection is defaultPath formatted with the service id of the context.
func NewSampler(name, defaultPath string) config.TableSampler {
	return dbSampler{name: name, defaultPath: defaultPath}
}

type dbSampler struct {
	name        string
	defaultPath string
}

func (s dbSampler) Sample(dst io.Writer, _ config.Path, ctx config.CtxMap) {
	config.WriteString(dst, fmt.Sprintf(sample, fmt.Sprintf(s.defaultPath, ctx[config.ID])))
}

func (s dbSampler) ConfigName() string {
	return s.name
}

// ConfigName is the key in the toml file.
func (cfg *DBConfig) ConfigName() string {
	return "db"
}

func (cfg *DBConfig) sqliteConfig() *db.SqliteConfig {
	return &db.SqliteConfig{
		MaxOpenReadConns: cfg.MaxOpenReadConns,
		MaxIdleReadConns: cfg.MaxIdleReadConns,
	}
}

// NewArticleStorage opens the article store.
func NewArticleStorage(c DBConfig) (article.DB, error) {
	log.Info("Connecting ArticleDB", "backend", BackendSqlite, "connection", c.Connection)
	return sqlitearticle.New(c.Connection, c.sqliteConfig())
}

// NewLiveStorage opens the live event store.
func NewLiveStorage(c DBConfig) (live.DB, error) {
	log.Info("Connecting LiveDB", "backend", BackendSqlite, "connection", c.Connection)
	return sqlitelive.New(c.Connection, c.sqliteConfig())
}

// NewPushStorage opens the push subscription store and starts a periodic
// task that deletes expired subscriptions. Closing the store stops the task.
func NewPushStorage(c DBConfig, cleanupInterval time.Duration) (push.DB, error) {
	log.Info("Connecting PushDB", "backend", BackendSqlite, "connection", c.Connection)
	db, err := sqlitepush.New(c.Connection, c.sqliteConfig(), c.PageSize)
	if err != nil {
		return nil, err
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	// Start a periodic task that cleans up the expired subscriptions.
	cleaner := periodic.Start(
		cleaner.New(
			func(ctx context.Context) (int, error) {
				return db.DeleteExpired(ctx, time.Now())
			},
			"push_db",
			cleaner.NewMetrics("push_db"),
		),
		cleanupInterval,
		cleanupInterval,
	)
	return pushDBWithCleaner{
		DB:      db,
		cleaner: cleaner,
	}, nil
}

// pushDBWithCleaner implements the push.DB interface and stops both the
// database and the cleanup task on Close.
type pushDBWithCleaner struct {
	push.DB
	cleaner *periodic.Runner
}

func (b pushDBWithCleaner) Close() error {
	b.cleaner.Kill()
	return b.DB.Close()
}
