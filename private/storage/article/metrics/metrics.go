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

// Package metrics wraps an article store with query metrics and tracing.
package metrics

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/newsdesk/newsdesk/pkg/metrics"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/prom"
	"github.com/newsdesk/newsdesk/private/storage/article"
	dblib "github.com/newsdesk/newsdesk/private/storage/db"
)

type promOp string

const (
	promOpGet       promOp = "get"
	promOpFind      promOp = "find_by_filter"
	promOpInsert    promOp = "insert"
	promOpIncrement promOp = "increment_views"
)

// Config configures the wrapper.
type Config struct {
	Driver string
	// QueriesTotal is labeled with driver, operation and result.
	QueriesTotal metrics.Counter
}

// WrapDB wraps db into one that also exports metrics and traces every
// query.
func WrapDB(db article.DB, cfg Config) article.DB {
	return &metricsDB{db: db, cfg: cfg}
}

type queryLabels struct {
	Driver    string
	Operation string
	Result    string
}

func (l queryLabels) Expand() []string {
	return []string{"driver", l.Driver, "operation", l.Operation, prom.LabelResult, l.Result}
}

var _ article.DB = (*metricsDB)(nil)

type metricsDB struct {
	db  article.DB
	cfg Config
}

func (db *metricsDB) observe(ctx context.Context, op promOp,
	action func(ctx context.Context) error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, fmt.Sprintf("articledb.%s", op))
	defer span.Finish()
	err := action(ctx)

	label := dblib.ErrToMetricLabel(err)
	if err != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.msg", err)
	}
	span.SetTag("result.label", label)

	labels := queryLabels{
		Driver:    db.cfg.Driver,
		Operation: string(op),
		Result:    label,
	}
	metrics.CounterInc(metrics.CounterWith(db.cfg.QueriesTotal, labels.Expand()...))
}

func (db *metricsDB) Article(ctx context.Context, id string) (news.Article, error) {
	var (
		a   news.Article
		err error
	)
	db.observe(ctx, promOpGet, func(ctx context.Context) error {
		a, err = db.db.Article(ctx, id)
		return err
	})
	return a, err
}

func (db *metricsDB) FindByFilter(ctx context.Context, filter article.Filter,
	exclude []string, limit int, order article.Order) ([]news.Article, error) {

	var (
		res []news.Article
		err error
	)
	db.observe(ctx, promOpFind, func(ctx context.Context) error {
		res, err = db.db.FindByFilter(ctx, filter, exclude, limit, order)
		return err
	})
	return res, err
}

func (db *metricsDB) InsertArticle(ctx context.Context, a news.Article) error {
	var err error
	db.observe(ctx, promOpInsert, func(ctx context.Context) error {
		err = db.db.InsertArticle(ctx, a)
		return err
	})
	return err
}

func (db *metricsDB) IncrementViews(ctx context.Context, id string) (int64, error) {
	var (
		views int64
		err   error
	)
	db.observe(ctx, promOpIncrement, func(ctx context.Context) error {
		views, err = db.db.IncrementViews(ctx, id)
		return err
	})
	return views, err
}

func (db *metricsDB) Close() error {
	return db.db.Close()
}
