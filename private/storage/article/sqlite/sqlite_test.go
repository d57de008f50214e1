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

package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/xtest"
	"github.com/newsdesk/newsdesk/private/storage/article"
	"github.com/newsdesk/newsdesk/private/storage/article/sqlite"
	"github.com/newsdesk/newsdesk/private/storage/db"
)

var base = time.Date(2025, 11, 5, 20, 0, 0, 0, time.UTC)

func newBackend(t *testing.T) *sqlite.Backend {
	b, err := sqlite.New(xtest.TempDBPath(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func testArticle(id string, c news.Category, minute int, tags ...string) news.Article {
	return news.Article{
		ID:        id,
		Slug:      "slug-" + id,
		Title:     "Title " + id,
		Body:      "<p>Body</p>",
		Category:  c,
		Type:      "news",
		Tags:      tags,
		Published: true,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
}

func ids(articles []news.Article) []string {
	var r []string
	for _, a := range articles {
		r = append(r, a.ID)
	}
	return r
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	a := testArticle("a1", news.CategoryPolitics, 0, "election", "live")
	a.Image = news.Some("https://img.example/a1.jpg")
	a.Alert = true
	require.NoError(t, b.InsertArticle(ctx, a))

	got, err := b.Article(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = b.Article(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestInsertReplacesKeepingViews(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	a := testArticle("a1", news.CategorySports, 0, "football")
	require.NoError(t, b.InsertArticle(ctx, a))
	views, err := b.IncrementViews(ctx, "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, views)

	a.Title = "Updated"
	a.Tags = []string{"tennis"}
	a.CreatedAt = base.Add(time.Hour)
	require.NoError(t, b.InsertArticle(ctx, a))
	got, err := b.Article(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.Equal(t, []string{"tennis"}, got.Tags)
	assert.EqualValues(t, 1, got.Views)
	assert.Equal(t, base, got.CreatedAt)

	res, err := b.FindByFilter(ctx, article.Filter{Tags: []string{"football"}}, nil, 10,
		article.OrderNewest)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestTagsKeepOrder(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	require.NoError(t, b.InsertArticle(ctx,
		testArticle("a1", news.CategoryPolitics, 0, "live", "election", "live")))
	require.NoError(t, b.InsertArticle(ctx,
		testArticle("a2", news.CategoryPolitics, 1, "zurich", "election")))
	require.NoError(t, b.InsertArticle(ctx, testArticle("a3", news.CategoryPolitics, 2)))

	got, err := b.Article(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "election"}, got.Tags)

	res, err := b.FindByFilter(ctx, article.Filter{}, nil, 10, article.OrderOldest)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []string{"live", "election"}, res[0].Tags)
	assert.Equal(t, []string{"zurich", "election"}, res[1].Tags)
	assert.Nil(t, res[2].Tags)

	var columns int
	err = b.DB().ReadOnly.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info('articles') WHERE name = 'tags'`).Scan(&columns)
	require.NoError(t, err)
	assert.Zero(t, columns, "tags are only kept in article_tags")
}

func TestInsertRequiresID(t *testing.T) {
	b := newBackend(t)
	err := b.InsertArticle(context.Background(), news.Article{Title: "no id"})
	assert.ErrorIs(t, err, db.ErrInvalidInputData)
}

func TestIncrementViewsUnknown(t *testing.T) {
	b := newBackend(t)
	_, err := b.IncrementViews(context.Background(), "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestFindByFilter(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	draft := testArticle("draft", news.CategoryPolitics, 9)
	draft.Published = false
	opinion := testArticle("opinion", news.CategoryPolitics, 8, "election")
	opinion.Type = "opinion"
	local := testArticle("local", news.CategoryLocal, 7)
	local.Subcategory = "zurich"
	for _, a := range []news.Article{
		testArticle("p1", news.CategoryPolitics, 1, "election"),
		testArticle("p2", news.CategoryPolitics, 2),
		testArticle("p3", news.CategoryPolitics, 3, "election", "live"),
		// Same creation time as p3, inserted later.
		testArticle("p4", news.CategoryPolitics, 3),
		testArticle("s1", news.CategorySports, 4, "election"),
		draft, opinion, local,
	} {
		require.NoError(t, b.InsertArticle(ctx, a))
	}

	testCases := map[string]struct {
		Filter   article.Filter
		Exclude  []string
		Limit    int
		Order    article.Order
		Expected []string
	}{
		"all newest": {
			Limit:    100,
			Order:    article.OrderNewest,
			Expected: []string{"opinion", "local", "s1", "p4", "p3", "p2", "p1"},
		},
		"category oldest": {
			Filter:   article.Filter{Category: news.Some(news.CategoryPolitics)},
			Limit:    3,
			Order:    article.OrderOldest,
			Expected: []string{"p1", "p2", "p3"},
		},
		"category type": {
			Filter: article.Filter{
				Category: news.Some(news.CategoryPolitics),
				Type:     news.Some("news"),
			},
			Limit:    2,
			Order:    article.OrderNewest,
			Expected: []string{"p4", "p3"},
		},
		"subcategory": {
			Filter:   article.Filter{Subcategory: news.Some("zurich")},
			Limit:    10,
			Expected: []string{"local"},
		},
		"all tags required": {
			Filter:   article.Filter{Tags: []string{"election", "live"}},
			Limit:    10,
			Expected: []string{"p3"},
		},
		"tag across categories": {
			Filter:   article.Filter{Tags: []string{"election"}},
			Limit:    10,
			Order:    article.OrderNewest,
			Expected: []string{"opinion", "s1", "p3", "p1"},
		},
		"exclusion": {
			Filter:   article.Filter{Category: news.Some(news.CategoryPolitics)},
			Exclude:  []string{"opinion", "p4", "p2"},
			Limit:    10,
			Expected: []string{"p3", "p1"},
		},
		"zero limit": {
			Limit: 0,
		},
		"no match": {
			Filter: article.Filter{Category: news.Some(news.CategoryCulture)},
			Limit:  10,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			res, err := b.FindByFilter(ctx, tc.Filter, tc.Exclude, tc.Limit, tc.Order)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, ids(res))
			for _, a := range res {
				assert.True(t, tc.Filter.Matches(a))
			}
		})
	}
}

func TestParseOrder(t *testing.T) {
	o, err := article.ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, article.OrderNewest, o)
	o, err = article.ParseOrder("Oldest")
	require.NoError(t, err)
	assert.Equal(t, article.OrderOldest, o)
	_, err = article.ParseOrder("random")
	assert.Error(t, err)
}
