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

// Package notify sends push notifications for breaking articles.
//
// A dispatch runs detached from the publish request that triggered it. Every
// matching subscription gets an independent delivery attempt; the outcome of
// one attempt never affects the others. Subscriptions whose endpoint is gone
// are removed, transient failures are logged and dropped. There is no retry.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/sync/errgroup"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/metrics"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/dedup"
	"github.com/newsdesk/newsdesk/private/push"
)

// Metrics are the dispatcher metrics. Nil fields are ignored.
type Metrics struct {
	// Deliveries counts delivery attempts, labeled with result.
	Deliveries metrics.Counter
	// Removed counts the subscriptions removed after a permanent failure.
	Removed metrics.Counter
}

// Report summarizes one dispatch.
type Report struct {
	ArticleID string
	Category  news.Category
	// Duplicate is set if the article was dispatched recently and nothing was
	// sent.
	Duplicate bool
	Success   int
	Permanent int
	Transient int
	// Expired counts the subscriptions skipped because their expiration hint
	// passed.
	Expired int
	// Removed counts the subscriptions that were unregistered.
	Removed int
	// Err is set if the dispatch stopped early, e.g. because the
	// subscriptions could not be read. Deliveries started before the error
	// are still counted.
	Err error
}

// Attempts returns the number of delivery attempts.
func (r Report) Attempts() int {
	return r.Success + r.Permanent + r.Transient
}

// Options configure a Dispatcher.
type Options struct {
	Registry  push.Registry
	Transport push.Transport
	// Dedup suppresses duplicate dispatches of the same article. Optional.
	Dedup dedup.Cache
	// DedupWindow is the window in which an article is dispatched once.
	// (default dedup.DefaultPushWindow)
	DedupWindow time.Duration
	// BaseURL is the public URL of the site.
	BaseURL string
	// DeliveryTimeout bounds each delivery attempt.
	// (default push.DefaultDeliveryTimeout)
	DeliveryTimeout time.Duration
	// MaxConcurrentDeliveries limits the attempts in flight per dispatch.
	// (default push.DefaultMaxConcurrentDeliveries)
	MaxConcurrentDeliveries int
	Metrics                 Metrics
	// OnReport is called with the report of every dispatch. Optional.
	OnReport func(Report)
	// Now returns the current time. (default time.Now)
	Now func() time.Time
}

// Dispatcher delivers push notifications for alert articles.
type Dispatcher struct {
	opts Options
	wg   sync.WaitGroup
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = dedup.DefaultPushWindow
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = push.DefaultDeliveryTimeout
	}
	if opts.MaxConcurrentDeliveries <= 0 {
		opts.MaxConcurrentDeliveries = push.DefaultMaxConcurrentDeliveries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{opts: opts}
}

// OnArticlePublished starts the dispatch of a in the background and returns
// whether a dispatch was started. Articles that are not published alerts are
// ignored. Cancelling ctx does not stop the dispatch.
func (d *Dispatcher) OnArticlePublished(ctx context.Context, a news.Article) bool {
	if !a.Alert || !a.Published {
		return false
	}
	bgCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer log.HandlePanic()
		defer d.wg.Done()
		d.Dispatch(bgCtx, a)
	}()
	return true
}

// Wait waits for the dispatches in flight.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch delivers the notification of a to every subscription of its
// category and waits for all attempts.
func (d *Dispatcher) Dispatch(ctx context.Context, a news.Article) Report {
	span, ctx := opentracing.StartSpanFromContext(ctx, "notify.dispatch")
	defer span.Finish()
	span.SetTag("article", a.ID)
	span.SetTag("category", a.Category.String())
	ctx, logger := log.WithLabels(ctx, "article", a.ID, "category", a.Category)

	report := d.dispatch(ctx, a)

	for _, o := range []push.Outcome{push.OutcomeSuccess, push.OutcomePermanent,
		push.OutcomeTransient} {
		metrics.CounterAdd(metrics.CounterWith(d.opts.Metrics.Deliveries, "result", o.String()),
			float64(report.count(o)))
	}
	metrics.CounterAdd(d.opts.Metrics.Removed, float64(report.Removed))
	span.SetTag("attempts", report.Attempts())
	switch {
	case report.Err != nil:
		logger.Error("Push dispatch aborted", "err", report.Err, "attempts", report.Attempts())
	case report.Duplicate:
		logger.Debug("Push dispatch skipped, article dispatched recently")
	default:
		logger.Info("Push dispatch done", "success", report.Success,
			"permanent", report.Permanent, "transient", report.Transient,
			"removed", report.Removed, "expired", report.Expired)
	}
	if d.opts.OnReport != nil {
		d.opts.OnReport(report)
	}
	return report
}

func (r Report) count(o push.Outcome) int {
	switch o {
	case push.OutcomeSuccess:
		return r.Success
	case push.OutcomePermanent:
		return r.Permanent
	default:
		return r.Transient
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, a news.Article) Report {
	report := Report{ArticleID: a.ID, Category: a.Category}
	if d.opts.Dedup != nil &&
		d.opts.Dedup.RecentlySeen(ctx, dedup.Key(a.ID, "push"), d.opts.DedupWindow) {

		report.Duplicate = true
		return report
	}
	payload, err := push.NewPayload(a, d.opts.BaseURL)
	if err != nil {
		report.Err = err
		d.release(ctx, a)
		return report
	}
	raw, err := payload.Encode()
	if err != nil {
		report.Err = err
		d.release(ctx, a)
		return report
	}

	logger := log.FromCtx(ctx)
	now := d.opts.Now()
	var mtx sync.Mutex
	var g errgroup.Group
	g.SetLimit(d.opts.MaxConcurrentDeliveries)
	for sub, err := range d.opts.Registry.FindByCategory(ctx, a.Category) {
		if err != nil {
			report.Err = err
			break
		}
		if sub.Expired(now) {
			report.Expired++
			continue
		}
		g.Go(func() error {
			defer log.HandlePanic()
			outcome, removed := d.deliver(ctx, sub, raw)
			mtx.Lock()
			defer mtx.Unlock()
			switch outcome {
			case push.OutcomeSuccess:
				report.Success++
			case push.OutcomePermanent:
				report.Permanent++
			default:
				report.Transient++
			}
			if removed {
				report.Removed++
			}
			return nil
		})
	}
	_ = g.Wait()
	if report.Err != nil {
		logger.Debug("Reading subscriptions failed", "err", report.Err)
		if report.Attempts() == 0 {
			d.release(ctx, a)
		}
	}
	return report
}

// release drops the duplicate mark of a dispatch that sent nothing, so that a
// re-publish can try again.
func (d *Dispatcher) release(ctx context.Context, a news.Article) {
	if d.opts.Dedup != nil {
		dedup.Forget(ctx, d.opts.Dedup, dedup.Key(a.ID, "push"))
	}
}

// deliver makes one delivery attempt and unregisters the subscription if its
// endpoint is gone.
func (d *Dispatcher) deliver(ctx context.Context, sub news.PushSubscription,
	payload []byte) (push.Outcome, bool) {

	logger := log.FromCtx(ctx)
	deliverCtx, cancelF := context.WithTimeout(ctx, d.opts.DeliveryTimeout)
	defer cancelF()
	outcome, err := d.opts.Transport.Deliver(deliverCtx, sub, payload)
	switch outcome {
	case push.OutcomeSuccess:
		return outcome, false
	case push.OutcomePermanent:
		logger.Debug("Push endpoint gone, removing subscription", "endpoint", sub.Endpoint,
			"err", err)
		if err := d.opts.Registry.Unregister(ctx, sub.Endpoint); err != nil {
			logger.Error("Removing subscription failed", "endpoint", sub.Endpoint, "err", err)
			return outcome, false
		}
		return outcome, true
	default:
		logger.Debug("Push delivery failed", "endpoint", sub.Endpoint, "err", err)
		return push.OutcomeTransient, false
	}
}
