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

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/newsdesk"
	"github.com/newsdesk/newsdesk/newsdesk/api"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/dedup"
	"github.com/newsdesk/newsdesk/private/homepage"
	"github.com/newsdesk/newsdesk/private/live"
	"github.com/newsdesk/newsdesk/private/mgmtapi"
	"github.com/newsdesk/newsdesk/private/push"
	articlesqlite "github.com/newsdesk/newsdesk/private/storage/article/sqlite"
	livesqlite "github.com/newsdesk/newsdesk/private/storage/live/sqlite"
	pushsqlite "github.com/newsdesk/newsdesk/private/storage/push/sqlite"
)

const (
	testP256dh = "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM"
	testAuth   = "tBHItJI5svbpez7KI4CCXg"
)

type testServer struct {
	*httptest.Server
	live *live.Service
}

func newServer(t *testing.T, vapidKey string) *testServer {
	dir := t.TempDir()
	articles, err := articlesqlite.New(filepath.Join(dir, "article.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { articles.Close() })
	liveDB, err := livesqlite.New(filepath.Join(dir, "live.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { liveDB.Close() })
	pushDB, err := pushsqlite.New(filepath.Join(dir, "push.db"), nil, 0)
	require.NoError(t, err)
	t.Cleanup(func() { pushDB.Close() })

	hub := live.NewHub(live.HubOptions{WriteTimeout: time.Second})
	liveSvc, err := live.NewService(live.ServiceOptions{DB: liveDB, Hub: hub})
	require.NoError(t, err)
	t.Cleanup(liveSvc.Wait)

	s := &api.Server{
		Articles: articles,
		Publisher: &newsdesk.Publisher{
			Articles: articles,
			Live:     liveSvc,
		},
		Homepage: homepage.Allocator{Store: articles},
		Slots: []homepage.Slot{
			{Name: "lead", Limit: 1},
			{Name: "more", Limit: 5},
		},
		Live:           liveSvc,
		LiveReaders:    live.Handler{Hub: hub},
		Push:           push.DBRegistry{DB: pushDB},
		Views:          dedup.NewMemory(),
		ViewWindow:     time.Hour,
		VAPIDPublicKey: vapidKey,
	}
	srv := httptest.NewServer(api.Handler(s, chi.NewRouter()))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, live: liveSvc}
}

func (s *testServer) do(t *testing.T, method, path string, body any,
	header http.Header) (int, []byte) {

	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	rsp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()
	raw, err := io.ReadAll(rsp.Body)
	require.NoError(t, err)
	return rsp.StatusCode, raw
}

func decodeProblem(t *testing.T, raw []byte) mgmtapi.Problem {
	t.Helper()
	var p mgmtapi.Problem
	require.NoError(t, json.Unmarshal(raw, &p), string(raw))
	return p
}

func TestArticles(t *testing.T) {
	srv := newServer(t, "")

	t.Run("missing title", func(t *testing.T) {
		status, raw := srv.do(t, http.MethodPost, "/api/v1/articles",
			news.Article{Category: news.CategoryPolitics}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, mgmtapi.TypeBadRequest, decodeProblem(t, raw).Type)
	})
	t.Run("unknown category", func(t *testing.T) {
		status, _ := srv.do(t, http.MethodPost, "/api/v1/articles",
			news.Article{Title: "Budget", Category: "gossip"}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/articles",
			bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		rsp, err := srv.Client().Do(req)
		require.NoError(t, err)
		rsp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, rsp.StatusCode)
		assert.Equal(t, "application/problem+json", rsp.Header.Get("Content-Type"))
	})
	t.Run("publish and get", func(t *testing.T) {
		status, raw := srv.do(t, http.MethodPost, "/api/v1/articles", news.Article{
			ID:       "budget-2026",
			Title:    "Budget passes",
			Category: news.CategoryPolitics,
		}, nil)
		require.Equal(t, http.StatusCreated, status, string(raw))
		var published news.Article
		require.NoError(t, json.Unmarshal(raw, &published))
		assert.True(t, published.Published)
		assert.False(t, published.CreatedAt.IsZero())

		status, raw = srv.do(t, http.MethodGet, "/api/v1/articles/budget-2026", nil, nil)
		require.Equal(t, http.StatusOK, status)
		var got news.Article
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "Budget passes", got.Title)
	})
	t.Run("not found", func(t *testing.T) {
		status, raw := srv.do(t, http.MethodGet, "/api/v1/articles/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, mgmtapi.TypeNotFound, decodeProblem(t, raw).Type)
	})
}

type viewResult struct {
	Views   int64 `json:"views"`
	Counted bool  `json:"counted"`
}

func TestCountView(t *testing.T) {
	srv := newServer(t, "")
	status, _ := srv.do(t, http.MethodPost, "/api/v1/articles", news.Article{
		ID: "a1", Title: "Derby", Category: news.CategorySports,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	view := func(reader string) viewResult {
		status, raw := srv.do(t, http.MethodPost, "/api/v1/articles/a1/views", nil,
			http.Header{api.ReaderHeader: []string{reader}})
		require.Equal(t, http.StatusOK, status, string(raw))
		var r viewResult
		require.NoError(t, json.Unmarshal(raw, &r))
		return r
	}
	assert.Equal(t, viewResult{Views: 1, Counted: true}, view("alice"))
	assert.Equal(t, viewResult{Views: 1, Counted: false}, view("alice"))
	assert.Equal(t, viewResult{Views: 2, Counted: true}, view("bob"))

	status, _ = srv.do(t, http.MethodPost, "/api/v1/articles/nope/views", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHomepage(t *testing.T) {
	srv := newServer(t, "")
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		status, _ := srv.do(t, http.MethodPost, "/api/v1/articles", news.Article{
			ID:        id,
			Title:     id,
			Category:  news.CategoryWorld,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	status, raw := srv.do(t, http.MethodGet, "/api/v1/homepage", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var rep struct {
		Slots []struct {
			Name     string         `json:"name"`
			Articles []news.Article `json:"articles"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(raw, &rep))
	require.Len(t, rep.Slots, 2)
	assert.Equal(t, "lead", rep.Slots[0].Name)
	require.Len(t, rep.Slots[0].Articles, 1)
	assert.Equal(t, "new", rep.Slots[0].Articles[0].ID)
	var more []string
	for _, a := range rep.Slots[1].Articles {
		more = append(more, a.ID)
	}
	assert.Equal(t, []string{"mid", "old"}, more)
}

func TestLive(t *testing.T) {
	srv := newServer(t, "")

	status, raw := srv.do(t, http.MethodPost, "/api/v1/live", map[string]string{"title": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, status, string(raw))

	status, raw = srv.do(t, http.MethodPost, "/api/v1/live",
		map[string]string{"id": "election-2025", "title": "Election night"}, nil)
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, _ = srv.do(t, http.MethodPost, "/api/v1/live/election-2025/entries",
		news.LiveEntry{Author: "desk"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = srv.do(t, http.MethodPost, "/api/v1/live/election-2025/entries",
		news.LiveEntry{Author: "desk", Title: "Polls close"}, nil)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var first news.LiveEntry
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.NotEmpty(t, first.ID)

	status, raw = srv.do(t, http.MethodPost, "/api/v1/live/election-2025/entries",
		news.LiveEntry{Author: "desk", Body: "First results"}, nil)
	require.Equal(t, http.StatusCreated, status, string(raw))

	var entries []news.LiveEntry
	status, raw = srv.do(t, http.MethodGet, "/api/v1/live/election-2025/entries", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)

	status, raw = srv.do(t, http.MethodGet,
		"/api/v1/live/election-2025/entries?since="+first.ID, nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "First results", entries[0].Body)

	status, _ = srv.do(t, http.MethodGet, "/api/v1/live/unknown/entries", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = srv.do(t, http.MethodGet, "/api/v1/live?current=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/live/election-2025/archive", nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	var channels []news.LiveChannel
	status, raw = srv.do(t, http.MethodGet, "/api/v1/live?current=true", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &channels))
	assert.Empty(t, channels)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/live/election-2025/entries",
		news.LiveEntry{Title: "Late"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPushSubscriptions(t *testing.T) {
	reg := push.Registration{
		Endpoint:   "https://push.example.com/send/abc",
		Keys:       news.PushKeys{P256dh: testP256dh, Auth: testAuth},
		Categories: []string{"breaking", "politics"},
	}

	t.Run("vapid unavailable", func(t *testing.T) {
		srv := newServer(t, "")
		status, raw := srv.do(t, http.MethodGet, "/api/v1/push/vapid", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, mgmtapi.TypeUnavailable, decodeProblem(t, raw).Type)
	})
	t.Run("subscribe and unsubscribe", func(t *testing.T) {
		srv := newServer(t, "BPublicKey")
		status, raw := srv.do(t, http.MethodGet, "/api/v1/push/vapid", nil, nil)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"publicKey":"BPublicKey"}`, string(raw))

		status, raw = srv.do(t, http.MethodPost, "/api/v1/push/subscriptions", reg, nil)
		require.Equal(t, http.StatusCreated, status, string(raw))

		invalid := reg
		invalid.Endpoint = "http://push.example.com/send/abc"
		status, raw = srv.do(t, http.MethodPost, "/api/v1/push/subscriptions", invalid, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, mgmtapi.TypeBadRequest, decodeProblem(t, raw).Type)

		status, _ = srv.do(t, http.MethodDelete,
			"/api/v1/push/subscriptions?endpoint="+url.QueryEscape(reg.Endpoint), nil, nil)
		assert.Equal(t, http.StatusNoContent, status)
		// Removing twice is fine.
		status, _ = srv.do(t, http.MethodDelete, "/api/v1/push/subscriptions",
			map[string]string{"endpoint": reg.Endpoint}, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = srv.do(t, http.MethodDelete, "/api/v1/push/subscriptions",
			map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}
