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

// Package api implements the newsdesk HTTP API.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/newsdesk/newsdesk/newsdesk"
	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/dedup"
	"github.com/newsdesk/newsdesk/private/homepage"
	"github.com/newsdesk/newsdesk/private/live"
	"github.com/newsdesk/newsdesk/private/mgmtapi"
	"github.com/newsdesk/newsdesk/private/push"
	"github.com/newsdesk/newsdesk/private/storage/article"
	"github.com/newsdesk/newsdesk/private/storage/db"
)

// maxBodySize limits request bodies.
const maxBodySize = 1 << 20

// ReaderHeader carries a stable reader identifier used for view counting. If
// absent, the client address and user agent identify the reader.
const ReaderHeader = "X-Reader-Id"

// Server serves the API.
type Server struct {
	Articles  article.DB
	Publisher *newsdesk.Publisher
	Homepage  homepage.Allocator
	Slots     []homepage.Slot
	Live      *live.Service
	// LiveReaders serves the websocket of the live readers.
	LiveReaders http.Handler
	Push        push.Registry
	// Views suppresses repeated views of the same reader. Optional.
	Views      dedup.Cache
	ViewWindow time.Duration
	// VAPIDPublicKey is handed to browsers that subscribe. If empty, push is
	// reported as unavailable.
	VAPIDPublicKey string
}

// Handler returns the API handler with all routes mounted below /api/v1 of
// r.
func Handler(s *Server, r chi.Router) http.Handler {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(withRequestLogger)
		r.Post("/articles", s.PublishArticle)
		r.Get("/articles/{id}", s.GetArticle)
		r.Post("/articles/{id}/views", s.CountView)
		r.Get("/homepage", s.GetHomepage)
		r.Post("/live", s.CreateChannel)
		r.Get("/live", s.GetChannels)
		if s.LiveReaders != nil {
			r.Handle("/live/ws", s.LiveReaders)
		}
		r.Post("/live/{channel}/archive", s.ArchiveChannel)
		r.Post("/live/{channel}/entries", s.PostEntry)
		r.Get("/live/{channel}/entries", s.GetEntries)
		r.Post("/push/subscriptions", s.Subscribe)
		r.Delete("/push/subscriptions", s.Unsubscribe)
		r.Get("/push/vapid", s.GetVAPIDKey)
	})
	return r
}

func withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.FromCtx(r.Context()).New("debug_id", log.NewDebugID())
		next.ServeHTTP(w, r.WithContext(log.CtxWith(r.Context(), logger)))
	})
}

// PublishArticle stores and publishes an article.
func (s *Server) PublishArticle(w http.ResponseWriter, r *http.Request) {
	var a news.Article
	if !decode(w, r, &a) {
		return
	}
	published, err := s.Publisher.PublishArticle(r.Context(), a)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	mgmtapi.WriteJSON(w, http.StatusCreated, published)
}

// GetArticle returns an article.
func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.Articles.Article(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	mgmtapi.WriteJSON(w, http.StatusOK, a)
}

type viewResponse struct {
	ID      string `json:"id"`
	Views   int64  `json:"views"`
	Counted bool   `json:"counted"`
}

// CountView counts a view of the article unless the same reader viewed it
// recently.
func (s *Server) CountView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	a, err := s.Articles.Article(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	key := dedup.Key(id, "view:"+readerFingerprint(r))
	if s.Views != nil && s.Views.RecentlySeen(ctx, key, s.viewWindow()) {
		mgmtapi.WriteJSON(w, http.StatusOK, viewResponse{ID: id, Views: a.Views})
		return
	}
	views, err := s.Articles.IncrementViews(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	mgmtapi.WriteJSON(w, http.StatusOK, viewResponse{ID: id, Views: views, Counted: true})
}

func (s *Server) viewWindow() time.Duration {
	if s.ViewWindow > 0 {
		return s.ViewWindow
	}
	return dedup.DefaultViewWindow
}

func readerFingerprint(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ReaderHeader)); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	sum := sha256.Sum256([]byte(host + "|" + r.UserAgent()))
	return hex.EncodeToString(sum[:8])
}

type slotResponse struct {
	Name     string         `json:"name"`
	Articles []news.Article `json:"articles"`
}

// GetHomepage allocates the articles of the configured slots.
func (s *Server) GetHomepage(w http.ResponseWriter, r *http.Request) {
	layout, err := s.Homepage.Allocate(r.Context(), s.Slots)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	rep := struct {
		Slots []slotResponse `json:"slots"`
	}{Slots: make([]slotResponse, 0, len(layout))}
	for _, res := range layout {
		articles := res.Articles
		if articles == nil {
			articles = []news.Article{}
		}
		rep.Slots = append(rep.Slots, slotResponse{Name: res.Slot.Name, Articles: articles})
	}
	mgmtapi.WriteJSON(w, http.StatusOK, rep)
}

type channelRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CreateChannel creates a live channel.
func (s *Server) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		mgmtapi.NewProblem(http.StatusBadRequest, mgmtapi.TypeBadRequest,
			"title is required").Write(w)
		return
	}
	c, err := s.Live.CreateChannel(r.Context(), req.ID, req.Title)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	mgmtapi.WriteJSON(w, http.StatusCreated, c)
}

// GetChannels lists the live channels. With current=true only the channels
// that are not archived are listed.
func (s *Server) GetChannels(w http.ResponseWriter, r *http.Request) {
	currentOnly := false
	if v := r.URL.Query().Get("current"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			mgmtapi.NewProblem(http.StatusBadRequest, mgmtapi.TypeBadRequest,
				"current must be a boolean").Write(w)
			return
		}
		currentOnly = b
	}
	channels, err := s.Live.Channels(r.Context(), currentOnly)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if channels == nil {
		channels = []news.LiveChannel{}
	}
	mgmtapi.WriteJSON(w, http.StatusOK, channels)
}

// ArchiveChannel archives a live channel.
func (s *Server) ArchiveChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.Live.Archive(r.Context(), chi.URLParam(r, "channel")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostEntry publishes a live entry.
func (s *Server) PostEntry(w http.ResponseWriter, r *http.Request) {
	var e news.LiveEntry
	if !decode(w, r, &e) {
		return
	}
	// Ids and sequence numbers are assigned by the server.
	e.ID, e.Seq = "", 0
	stored, err := s.Publisher.PublishEntry(r.Context(), chi.URLParam(r, "channel"), e)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	mgmtapi.WriteJSON(w, http.StatusCreated, stored)
}

// GetEntries returns the entries of a live channel in creation order,
// optionally only those after the entry given by the since parameter.
func (s *Server) GetEntries(w http.ResponseWriter, r *http.Request) {
	since := news.None[string]()
	if v := r.URL.Query().Get("since"); v != "" {
		since = news.Some(v)
	}
	entries, err := s.Live.Entries(r.Context(), chi.URLParam(r, "channel"), since)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if entries == nil {
		entries = []news.LiveEntry{}
	}
	mgmtapi.WriteJSON(w, http.StatusOK, entries)
}

// Subscribe registers a push subscription.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	var reg push.Registration
	if !decode(w, r, &reg) {
		return
	}
	sub, err := s.Push.Register(r.Context(), reg)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	mgmtapi.WriteJSON(w, http.StatusCreated, sub)
}

// Unsubscribe removes a push subscription. The endpoint is given by the
// endpoint query parameter or in the request body.
func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		var req struct {
			Endpoint string `json:"endpoint"`
		}
		if !decode(w, r, &req) {
			return
		}
		endpoint = req.Endpoint
	}
	if endpoint == "" {
		mgmtapi.NewProblem(http.StatusBadRequest, mgmtapi.TypeBadRequest,
			"endpoint is required").Write(w)
		return
	}
	if err := s.Push.Unregister(r.Context(), endpoint); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVAPIDKey returns the application server key browsers subscribe with.
func (s *Server) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if s.VAPIDPublicKey == "" {
		mgmtapi.NewProblem(http.StatusServiceUnavailable, mgmtapi.TypeUnavailable,
			"push notifications are not configured").Write(w)
		return
	}
	mgmtapi.WriteJSON(w, http.StatusOK, struct {
		PublicKey string `json:"publicKey"`
	}{PublicKey: s.VAPIDPublicKey})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		mgmtapi.NewProblem(http.StatusBadRequest, mgmtapi.TypeBadRequest,
			"malformed request body: "+err.Error()).Write(w)
		return false
	}
	return true
}

// writeError maps err to a problem response. Validation errors are client
// errors; everything else the stores report is an internal error.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		mgmtapi.NewProblem(http.StatusNotFound, mgmtapi.TypeNotFound, err.Error()).Write(w)
	case errors.Is(err, push.ErrInvalidSubscription),
		errors.Is(err, newsdesk.ErrInvalidArticle),
		errors.Is(err, db.ErrInvalidInputData):
		mgmtapi.NewProblem(http.StatusBadRequest, mgmtapi.TypeBadRequest, err.Error()).Write(w)
	default:
		log.FromCtx(ctx).Error("Request failed", "err", err)
		mgmtapi.NewProblem(http.StatusInternalServerError, mgmtapi.TypeInternal,
			"internal error").Write(w)
	}
}
