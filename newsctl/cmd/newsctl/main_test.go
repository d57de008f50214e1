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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/push"
	articlesqlite "github.com/newsdesk/newsdesk/private/storage/article/sqlite"
	pushsqlite "github.com/newsdesk/newsdesk/private/storage/push/sqlite"
)

const testConfig = `
[general]
id = "newsdesk-test"

[article_db]
connection = %q

[push_db]
connection = %q

[homepage]
[[homepage.slots]]
name = "lead"
limit = 1

[[homepage.slots]]
name = "sports"
category = "sports"
limit = 3
`

func setup(t *testing.T) string {
	dir := t.TempDir()
	articlePath := filepath.Join(dir, "article.db")
	pushPath := filepath.Join(dir, "push.db")
	ctx := context.Background()

	articles, err := articlesqlite.New(articlePath, nil)
	require.NoError(t, err)
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, a := range []news.Article{
		{ID: "derby", Title: "Derby ends level", Category: news.CategorySports},
		{ID: "cup", Title: "Cup final tonight", Category: news.CategorySports},
		{ID: "budget", Title: "Budget passes", Category: news.CategoryPolitics},
	} {
		a.Published = true
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, articles.InsertArticle(ctx, a))
	}
	require.NoError(t, articles.Close())

	subs, err := pushsqlite.New(pushPath, nil, 0)
	require.NoError(t, err)
	reg := push.DBRegistry{DB: subs}
	for _, r := range []push.Registration{
		{Endpoint: "https://push.example.com/a", Categories: []string{"sports"}},
		{Endpoint: "https://push.example.com/b", Categories: []string{"politics"}},
	} {
		r.Keys = news.PushKeys{
			P256dh: "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM",
			Auth:   "tBHItJI5svbpez7KI4CCXg",
		}
		_, err := reg.Register(ctx, r)
		require.NoError(t, err)
	}
	require.NoError(t, subs.Close())

	file := filepath.Join(dir, "newsdesk.toml")
	err = os.WriteFile(file, []byte(fmt.Sprintf(testConfig, articlePath, pushPath)), 0o644)
	require.NoError(t, err)
	return file
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRoot()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHomepage(t *testing.T) {
	file := setup(t)

	out, err := run(t, "homepage", "--config", file, "--format", "json")
	require.NoError(t, err, out)
	var slots []slotOutput
	require.NoError(t, json.Unmarshal([]byte(out), &slots))
	require.Len(t, slots, 2)
	require.Len(t, slots[0].Articles, 1)
	assert.Equal(t, "budget", slots[0].Articles[0].ID)
	var sports []string
	for _, a := range slots[1].Articles {
		sports = append(sports, a.ID)
	}
	assert.Equal(t, []string{"cup", "derby"}, sports)

	out, err = run(t, "homepage", "--config", file)
	require.NoError(t, err, out)
	assert.Contains(t, out, "SLOT")
	assert.Contains(t, out, "Cup final tonight")

	_, err = run(t, "homepage", "--config", file, "--format", "xml")
	assert.Error(t, err)
	_, err = run(t, "homepage")
	assert.Error(t, err)
}

func TestSubscriptions(t *testing.T) {
	file := setup(t)

	out, err := run(t, "subscriptions", "--config", file, "--format", "yaml")
	require.NoError(t, err, out)
	var all []subscriptionOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &all))
	assert.Len(t, all, 2)

	out, err = run(t, "subscriptions", "--config", file, "--category", "sports")
	require.NoError(t, err, out)
	assert.Contains(t, out, "https://push.example.com/a")
	assert.NotContains(t, out, "https://push.example.com/b")
	assert.Contains(t, out, "1 subscription(s)")

	_, err = run(t, "subscriptions", "--config", file, "--category", "")
	assert.NoError(t, err)
	_, err = run(t, "subscriptions", "--config", file, "--category", "weather")
	assert.Error(t, err)
}

func TestVAPID(t *testing.T) {
	out, err := run(t, "vapid")
	require.NoError(t, err)
	assert.Contains(t, out, "vapid_public_key = ")
	assert.Contains(t, out, "vapid_private_key = ")

	dir := filepath.Join(t.TempDir(), "keys")
	_, err = run(t, "vapid", "--out", dir)
	require.NoError(t, err)
	keys, ok, err := push.LoadVAPIDKeys(dir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, keys.Private)
}

func TestSample(t *testing.T) {
	out, err := run(t, "sample", "config")
	require.NoError(t, err)
	assert.Contains(t, out, `id = "newsdesk-1"`)
	assert.Contains(t, out, "[[homepage.slots]]")
}
