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

package live

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/arc/v2"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	livestorage "github.com/newsdesk/newsdesk/private/storage/live"
)

// DefaultChannelCacheSize is the number of known channel ids cached.
const DefaultChannelCacheSize = 1024

// CuePublisher propagates cues to other processes.
type CuePublisher interface {
	Publish(ctx context.Context, cue news.Cue) error
}

// ServiceOptions configure a Service.
type ServiceOptions struct {
	DB  livestorage.DB
	Hub Broadcaster
	// Relay is optional.
	Relay CuePublisher
	// ChannelCacheSize is the size of the known channel cache.
	// (default DefaultChannelCacheSize)
	ChannelCacheSize int
}

// Service is the live event API: it manages channels, stores entries and
// announces new entries to the live readers.
type Service struct {
	db    livestorage.DB
	hub   Broadcaster
	relay CuePublisher
	// known caches the ids of existing channels. Channels are never deleted,
	// so entries never become stale.
	known *arc.ARCCache[string, struct{}]
	wg    sync.WaitGroup
}

// NewService creates a live service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.ChannelCacheSize <= 0 {
		opts.ChannelCacheSize = DefaultChannelCacheSize
	}
	known, err := arc.NewARC[string, struct{}](opts.ChannelCacheSize)
	if err != nil {
		return nil, serrors.Wrap("creating channel cache", err)
	}
	return &Service{
		db:    opts.DB,
		hub:   opts.Hub,
		relay: opts.Relay,
		known: known,
	}, nil
}

// CreateChannel creates a current channel. If id is empty, a random id is
// used.
func (s *Service) CreateChannel(ctx context.Context, id, title string) (news.LiveChannel, error) {
	if id == "" {
		id = news.NewID()
	}
	c := news.LiveChannel{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().UTC(),
		Current:   true,
	}
	if err := s.db.InsertChannel(ctx, c); err != nil {
		return news.LiveChannel{}, err
	}
	s.known.Add(id, struct{}{})
	log.FromCtx(ctx).Info("Live channel created", "channel", id)
	return c, nil
}

// Channel returns the channel.
func (s *Service) Channel(ctx context.Context, id string) (news.LiveChannel, error) {
	return s.db.Channel(ctx, id)
}

// Channels returns the channels, newest first.
func (s *Service) Channels(ctx context.Context, currentOnly bool) ([]news.LiveChannel, error) {
	return s.db.Channels(ctx, currentOnly)
}

// Archive marks the channel as not current.
func (s *Service) Archive(ctx context.Context, id string) error {
	if err := s.db.Archive(ctx, id); err != nil {
		return err
	}
	log.FromCtx(ctx).Info("Live channel archived", "channel", id)
	return nil
}

// PostEntry stores e in the channel and returns the stored entry. The
// entry is announced to the live readers in the background; the outcome of
// the announcement never affects the result.
func (s *Service) PostEntry(ctx context.Context, channelID string,
	e news.LiveEntry) (news.LiveEntry, error) {

	if e.ID == "" {
		e.ID = news.NewID()
	}
	e.ChannelID = channelID
	stored, err := s.db.InsertEntry(ctx, e)
	if err != nil {
		return news.LiveEntry{}, err
	}
	s.known.Add(channelID, struct{}{})

	cue := news.NewEntryCue(stored)
	bgCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer log.HandlePanic()
		defer s.wg.Done()
		s.announce(bgCtx, cue)
	}()
	return stored, nil
}

func (s *Service) announce(ctx context.Context, cue news.Cue) {
	logger := log.FromCtx(ctx)
	if s.hub != nil {
		res := s.hub.Broadcast(ctx, cue)
		logger.Debug("Live entry announced", "channel", cue.ChannelID, "entry", cue.EntryID,
			"delivered", res.Delivered, "dropped", len(res.Dropped))
	}
	if s.relay != nil {
		if err := s.relay.Publish(ctx, cue); err != nil {
			logger.Info("Relaying live cue failed", "channel", cue.ChannelID,
				"entry", cue.EntryID, "err", err)
		}
	}
}

// Entries returns the entries of the channel in creation order, optionally
// only those after the entry since. Unknown channels return an error matching
// db.ErrNotFound.
func (s *Service) Entries(ctx context.Context, channelID string,
	since news.Optional[string]) ([]news.LiveEntry, error) {

	if !s.known.Contains(channelID) {
		if _, err := s.db.Channel(ctx, channelID); err != nil {
			return nil, err
		}
		s.known.Add(channelID, struct{}{})
	}
	entries, err := s.db.Entries(ctx, channelID, since)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Wait waits for the pending announcements.
func (s *Service) Wait() {
	s.wg.Wait()
}
