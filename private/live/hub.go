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
	"time"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/sync/errgroup"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/metrics"
	"github.com/newsdesk/newsdesk/pkg/news"
)

// DefaultWriteTimeout bounds a single cue write.
const DefaultWriteTimeout = 5 * time.Second

// Cue results.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)

// Metrics are the hub metrics. Nil fields are ignored.
type Metrics struct {
	// Connections is the number of registered connections.
	Connections metrics.Gauge
	// Cues counts cue writes, labeled with result.
	Cues metrics.Counter
}

// Broadcaster sends cues to the local readers.
type Broadcaster interface {
	Broadcast(ctx context.Context, cue news.Cue) PublishResult
}

// PublishResult is the outcome of one publish.
type PublishResult struct {
	// Delivered is the number of connections the cue was written to.
	Delivered int
	// Dropped are the ids of the connections that failed and were removed.
	Dropped []string
}

// HubOptions configure a hub.
type HubOptions struct {
	// Registry is the connection set. If nil, a new registry is used.
	Registry *Registry
	// WriteTimeout bounds each cue write. (default DefaultWriteTimeout)
	WriteTimeout time.Duration
	// MaxConcurrentSends limits the concurrent writes of one publish. Zero
	// or negative means no limit.
	MaxConcurrentSends int
	Metrics            Metrics
}

// Hub fans cues out to the connections of its registry.
type Hub struct {
	registry     *Registry
	writeTimeout time.Duration
	parallelism  int
	metrics      Metrics
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a hub.
func NewHub(opts HubOptions) *Hub {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	parallelism := opts.MaxConcurrentSends
	if parallelism <= 0 {
		parallelism = -1
	}
	return &Hub{
		registry:     opts.Registry,
		writeTimeout: opts.WriteTimeout,
		parallelism:  parallelism,
		metrics:      opts.Metrics,
	}
}

// Registry returns the connection set of the hub.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect adds c to the fan-out set.
func (h *Hub) Connect(c Conn) {
	if old, ok := h.registry.Add(c); ok && old != c {
		old.Close()
	}
	metrics.GaugeSet(h.metrics.Connections, float64(h.registry.Len()))
}

// Disconnect removes the connection with the given id. Unknown ids are
// ignored. The connection is not closed.
func (h *Hub) Disconnect(id string) {
	h.registry.Remove(id)
	metrics.GaugeSet(h.metrics.Connections, float64(h.registry.Len()))
}

// Close closes and removes all connections.
func (h *Hub) Close() {
	for _, c := range h.registry.Snapshot() {
		h.registry.removeConn(c)
		c.Close()
	}
	metrics.GaugeSet(h.metrics.Connections, float64(h.registry.Len()))
}

// Publish announces entry e of the channel to every connected reader.
func (h *Hub) Publish(ctx context.Context, channelID string, e news.LiveEntry) PublishResult {
	cue := news.NewEntryCue(e)
	cue.ChannelID = channelID
	return h.Broadcast(ctx, cue)
}

// Broadcast writes cue to every registered connection, one task per
// connection, and waits for all writes. Connections whose write fails are
// removed and closed. Failures are logged and never returned.
func (h *Hub) Broadcast(ctx context.Context, cue news.Cue) PublishResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "live.broadcast")
	defer span.Finish()
	span.SetTag("channel", cue.ChannelID)
	logger := log.FromCtx(ctx)

	conns := h.registry.Snapshot()
	errs := make([]error, len(conns))
	var g errgroup.Group
	g.SetLimit(h.parallelism)
	for i, c := range conns {
		g.Go(func() error {
			defer log.HandlePanic()
			sendCtx, cancelF := context.WithTimeout(ctx, h.writeTimeout)
			defer cancelF()
			errs[i] = c.Send(sendCtx, cue)
			return nil
		})
	}
	_ = g.Wait()

	var res PublishResult
	for i, c := range conns {
		if errs[i] == nil {
			res.Delivered++
			continue
		}
		logger.Debug("Dropping live connection", "conn", c.ID(), "err", errs[i])
		h.registry.removeConn(c)
		if err := c.Close(); err != nil {
			logger.Debug("Closing live connection failed", "conn", c.ID(), "err", err)
		}
		res.Dropped = append(res.Dropped, c.ID())
	}
	metrics.CounterAdd(metrics.CounterWith(h.metrics.Cues, "result", ResultDelivered),
		float64(res.Delivered))
	metrics.CounterAdd(metrics.CounterWith(h.metrics.Cues, "result", ResultFailed),
		float64(len(res.Dropped)))
	metrics.GaugeSet(h.metrics.Connections, float64(h.registry.Len()))
	span.SetTag("delivered", res.Delivered)
	span.SetTag("dropped", len(res.Dropped))
	return res
}
