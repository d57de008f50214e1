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

package relay_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/log/testlog"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/xtest"
	"github.com/newsdesk/newsdesk/private/live"
	"github.com/newsdesk/newsdesk/private/live/relay"
)

type recordingHub struct {
	mtx  sync.Mutex
	cues []news.Cue
}

func (h *recordingHub) Broadcast(_ context.Context, cue news.Cue) live.PublishResult {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.cues = append(h.cues, cue)
	return live.PublishResult{Delivered: 1}
}

func (h *recordingHub) received() []news.Cue {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return append([]news.Cue(nil), h.cues...)
}

func newRelay(t *testing.T, mr *miniredis.Miniredis, origin string) *relay.Relay {
	r := relay.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), relay.Options{
		Channel: "test:cues",
		Origin:  origin,
	})
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRelay(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancelF := context.WithCancel(log.CtxWith(context.Background(), testlog.NewLogger(t)))
	defer cancelF()

	local := newRelay(t, mr, "local")
	remote := newRelay(t, mr, "remote")
	hub := &recordingHub{}

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- local.Run(ctx, hub, ready)
	}()
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not subscribe")
	}

	own := news.Cue{Type: news.CueTypeLiveEntry, ChannelID: "election", EntryID: "own"}
	foreign := news.Cue{Type: news.CueTypeLiveEntry, ChannelID: "election", EntryID: "foreign"}
	require.NoError(t, local.Publish(ctx, own))
	require.NoError(t, remote.Publish(ctx, foreign))

	require.Eventually(t, func() bool { return len(hub.received()) > 0 },
		5*time.Second, 10*time.Millisecond)
	// Messages are delivered in order, the own cue came first and was skipped.
	cues := hub.received()
	require.Len(t, cues, 1)
	assert.Equal(t, "foreign", cues[0].EntryID)

	cancelF()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelayPublishFails(t *testing.T) {
	mr := miniredis.RunT(t)
	r := relay.New(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}),
		relay.Options{})
	defer r.Close()
	mr.Close()
	err := r.Publish(context.Background(), news.Cue{EntryID: "e1"})
	assert.Error(t, err)
}

func TestRelayServerLate(t *testing.T) {
	// Reserve an address nobody listens on yet.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancelF := context.WithCancel(log.CtxWith(context.Background(), testlog.NewLogger(t)))
	defer cancelF()
	local := relay.New(redis.NewClient(&redis.Options{Addr: addr}), relay.Options{
		Channel:          "test:cues",
		Origin:           "local",
		RetryInterval:    10 * time.Millisecond,
		MaxRetryInterval: 50 * time.Millisecond,
	})
	defer local.Close()
	hub := &recordingHub{}

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- local.Run(ctx, hub, ready)
	}()
	xtest.AssertReadDoesNotReturnBefore(t, ready, 100*time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("relay stopped while the server was down: %v", err)
	default:
	}

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.StartAddr(addr))
	defer mr.Close()
	xtest.AssertReadReturnsBefore(t, ready, 5*time.Second)

	remote := newRelay(t, mr, "remote")
	foreign := news.Cue{Type: news.CueTypeLiveEntry, ChannelID: "election", EntryID: "late"}
	require.NoError(t, remote.Publish(ctx, foreign))
	require.Eventually(t, func() bool { return len(hub.received()) == 1 },
		5*time.Second, 10*time.Millisecond)

	cancelF()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelayStopsWhileRetrying(t *testing.T) {
	mr := miniredis.RunT(t)
	r := newRelay(t, mr, "local")
	mr.Close()

	ctx, cancelF := context.WithCancel(log.CtxWith(context.Background(), testlog.NewLogger(t)))
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, &recordingHub{}, nil)
	}()
	time.Sleep(20 * time.Millisecond)
	cancelF()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
}
