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

// Package relay propagates live cues between newsdesk processes over Redis
// pub/sub. Each process keeps its own readers; the relay makes sure that a
// cue published in one process reaches the readers of all processes.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/live"
)

const (
	// DefaultChannel is the default pub/sub channel.
	DefaultChannel = "newsdesk:live-cues"
	// DefaultRetryInterval is the initial wait before subscribing again.
	DefaultRetryInterval = time.Second
	// DefaultMaxRetryInterval caps the doubling retry wait.
	DefaultMaxRetryInterval = 30 * time.Second
)

// message is the wire format on the pub/sub channel.
type message struct {
	Origin string   `json:"origin"`
	Cue    news.Cue `json:"cue"`
}

var _ live.CuePublisher = (*Relay)(nil)

// Relay publishes local cues and re-broadcasts remote cues. Cues published by
// the relay itself are ignored when they come back from Redis, since they
// were already broadcast locally.
type Relay struct {
	client   redis.UniversalClient
	channel  string
	origin   string
	retry    time.Duration
	maxRetry time.Duration
}

// Options configure a relay.
type Options struct {
	// Channel is the pub/sub channel. (default DefaultChannel)
	Channel string
	// Origin identifies this process. (default random)
	Origin string
	// RetryInterval is the first wait after a failed subscription. It doubles
	// up to MaxRetryInterval. (default DefaultRetryInterval)
	RetryInterval time.Duration
	// MaxRetryInterval caps the subscription retry wait.
	// (default DefaultMaxRetryInterval)
	MaxRetryInterval time.Duration
}

// New creates a relay on top of client.
func New(client redis.UniversalClient, opts Options) *Relay {
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.Origin == "" {
		opts.Origin = news.NewID()
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.MaxRetryInterval < opts.RetryInterval {
		opts.MaxRetryInterval = max(DefaultMaxRetryInterval, opts.RetryInterval)
	}
	return &Relay{
		client:   client,
		channel:  opts.Channel,
		origin:   opts.Origin,
		retry:    opts.RetryInterval,
		maxRetry: opts.MaxRetryInterval,
	}
}

// Publish sends cue to the other processes.
func (r *Relay) Publish(ctx context.Context, cue news.Cue) error {
	raw, err := json.Marshal(message{Origin: r.origin, Cue: cue})
	if err != nil {
		return serrors.Wrap("encoding cue", err)
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		return serrors.Wrap("publishing cue", err, "channel", r.channel)
	}
	return nil
}

// Run subscribes to the channel and broadcasts the cues of other processes
// to local readers until ctx is done. ready, if not nil, is closed once the
// subscription is active. An unreachable server is retried with a growing
// wait; local readers keep getting the cues of this process meanwhile. Run
// only returns once ctx is done.
func (r *Relay) Run(ctx context.Context, local live.Broadcaster, ready chan<- struct{}) error {
	logger := log.FromCtx(ctx)
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	wait := r.retry
	for {
		// Receive blocks until the subscription is confirmed.
		_, err := sub.Receive(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil
		}
		logger.Error("Live relay subscription failed, retrying", "channel", r.channel,
			"retry_in", wait, "err", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait = min(2*wait, r.maxRetry)
	}
	if ready != nil {
		close(ready)
	}
	logger.Info("Live relay subscribed", "channel", r.channel, "origin", r.origin)
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var m message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				logger.Info("Ignoring malformed relay message", "err", err)
				continue
			}
			if m.Origin == r.origin {
				continue
			}
			res := local.Broadcast(ctx, m.Cue)
			logger.Debug("Relayed live cue", "origin", m.Origin, "channel", m.Cue.ChannelID,
				"entry", m.Cue.EntryID, "delivered", res.Delivered)
		}
	}
}

// Close closes the client.
func (r *Relay) Close() error {
	return r.client.Close()
}
