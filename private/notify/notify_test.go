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

package notify_test

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/log/testlog"
	"github.com/newsdesk/newsdesk/pkg/metrics"
	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/pkg/private/xtest"
	"github.com/newsdesk/newsdesk/private/dedup"
	"github.com/newsdesk/newsdesk/private/notify"
	"github.com/newsdesk/newsdesk/private/push"
	"github.com/newsdesk/newsdesk/private/push/mock_push"
	"github.com/newsdesk/newsdesk/private/storage/push/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testP256dh = "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM"
	testAuth   = "tBHItJI5svbpez7KI4CCXg"
)

// fakeTransport records the endpoints it delivers to and answers with the
// configured outcome, success by default.
type fakeTransport struct {
	outcomes map[string]push.Outcome

	mtx       sync.Mutex
	endpoints []string
}

func (t *fakeTransport) Deliver(_ context.Context, sub news.PushSubscription,
	_ []byte) (push.Outcome, error) {

	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.endpoints = append(t.endpoints, sub.Endpoint)
	if o, ok := t.outcomes[sub.Endpoint]; ok && o != push.OutcomeSuccess {
		return o, serrors.New("delivery failed", "outcome", o)
	}
	return push.OutcomeSuccess, nil
}

func (t *fakeTransport) delivered() []string {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	r := append([]string(nil), t.endpoints...)
	sort.Strings(r)
	return r
}

func newRegistry(t *testing.T) push.DBRegistry {
	b, err := sqlite.New(xtest.TempDBPath(t), nil, 2)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return push.DBRegistry{DB: b}
}

func register(t *testing.T, r push.Registry, endpoint string, categories ...string) {
	_, err := r.Register(context.Background(), push.Registration{
		Endpoint:   endpoint,
		Keys:       news.PushKeys{P256dh: testP256dh, Auth: testAuth},
		Categories: categories,
	})
	require.NoError(t, err)
}

func endpoints(t *testing.T, r push.Registry, c news.Category) []string {
	var eps []string
	for s, err := range r.FindByCategory(context.Background(), c) {
		require.NoError(t, err)
		eps = append(eps, s.Endpoint)
	}
	sort.Strings(eps)
	return eps
}

func alert(id string, c news.Category) news.Article {
	return news.Article{
		ID:        id,
		Title:     "Alert " + id,
		Body:      "<p>Something happened.</p>",
		Category:  c,
		Alert:     true,
		Published: true,
	}
}

func TestFaultIsolation(t *testing.T) {
	reg := newRegistry(t)
	var all []string
	for i := 0; i < 5; i++ {
		ep := fmt.Sprintf("https://push.example/%d", i)
		register(t, reg, ep, "sports")
		all = append(all, ep)
	}
	gone := "https://push.example/2"
	transport := &fakeTransport{outcomes: map[string]push.Outcome{
		gone: push.OutcomePermanent,
	}}
	deliveries, removed := metrics.NewTestCounter(), metrics.NewTestCounter()
	d := notify.New(notify.Options{
		Registry:  reg,
		Transport: transport,
		BaseURL:   "https://news.example.com",
		Metrics:   notify.Metrics{Deliveries: deliveries, Removed: removed},
	})

	ctx := log.CtxWith(context.Background(), testlog.NewLogger(t))
	report := d.Dispatch(ctx, alert("a1", news.CategorySports))
	require.NoError(t, report.Err)
	assert.Equal(t, all, transport.delivered())
	assert.Equal(t, 4, report.Success)
	assert.Equal(t, 1, report.Permanent)
	assert.Equal(t, 1, report.Removed)

	var remaining []string
	for _, ep := range all {
		if ep != gone {
			remaining = append(remaining, ep)
		}
	}
	assert.Equal(t, remaining, endpoints(t, reg, news.CategorySports))
	assert.Equal(t, 4.0, metrics.CounterValue(deliveries.With("result", "success")))
	assert.Equal(t, 1.0, metrics.CounterValue(deliveries.With("result", "permanent_failure")))
	assert.Equal(t, 1.0, metrics.CounterValue(removed))
}

func TestTransientFailureKeepsSubscription(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "https://push.example/ok", "sports")
	register(t, reg, "https://push.example/flaky", "sports")
	transport := &fakeTransport{outcomes: map[string]push.Outcome{
		"https://push.example/flaky": push.OutcomeTransient,
	}}
	d := notify.New(notify.Options{
		Registry:  reg,
		Transport: transport,
		BaseURL:   "https://news.example.com",
	})
	report := d.Dispatch(context.Background(), alert("a1", news.CategorySports))
	assert.Equal(t, 1, report.Success)
	assert.Equal(t, 1, report.Transient)
	assert.Equal(t, 0, report.Removed)
	assert.Len(t, endpoints(t, reg, news.CategorySports), 2)
}

func TestCategoryFilter(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "https://push.example/fan", "Sports")
	transport := &fakeTransport{}
	var mtx sync.Mutex
	var reports []notify.Report
	d := notify.New(notify.Options{
		Registry:  reg,
		Transport: transport,
		BaseURL:   "https://news.example.com",
		OnReport: func(r notify.Report) {
			mtx.Lock()
			defer mtx.Unlock()
			reports = append(reports, r)
		},
	})

	ctx := context.Background()
	require.True(t, d.OnArticlePublished(ctx, alert("p1", news.CategoryPolitics)))
	d.Wait()
	assert.Empty(t, transport.delivered())

	require.True(t, d.OnArticlePublished(ctx, alert("s1", news.CategorySports)))
	d.Wait()
	assert.Equal(t, []string{"https://push.example/fan"}, transport.delivered())

	require.Len(t, reports, 2)
	assert.Equal(t, 0, reports[0].Attempts())
	assert.Equal(t, 1, reports[1].Success)
}

func TestOnArticlePublished(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	// Neither the registry nor the transport may be used.
	reg := mock_push.NewMockRegistry(ctrl)
	transport := mock_push.NewMockTransport(ctrl)
	d := notify.New(notify.Options{Registry: reg, Transport: transport})

	ctx := context.Background()
	notAlert := alert("a1", news.CategorySports)
	notAlert.Alert = false
	assert.False(t, d.OnArticlePublished(ctx, notAlert))
	draft := alert("a2", news.CategorySports)
	draft.Published = false
	assert.False(t, d.OnArticlePublished(ctx, draft))
	d.Wait()
}

func TestDetachedFromRequest(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "https://push.example/1", "breaking")
	transport := &fakeTransport{}
	d := notify.New(notify.Options{
		Registry:  reg,
		Transport: transport,
		BaseURL:   "https://news.example.com",
	})
	ctx, cancelF := context.WithCancel(context.Background())
	require.True(t, d.OnArticlePublished(ctx, alert("a1", news.CategoryBreaking)))
	cancelF()
	d.Wait()
	assert.Equal(t, []string{"https://push.example/1"}, transport.delivered())
}

func TestDuplicateSuppression(t *testing.T) {
	reg := newRegistry(t)
	register(t, reg, "https://push.example/1", "breaking")
	transport := &fakeTransport{}
	d := notify.New(notify.Options{
		Registry:    reg,
		Transport:   transport,
		Dedup:       dedup.NewMemory(),
		DedupWindow: time.Hour,
		BaseURL:     "https://news.example.com",
	})
	ctx := context.Background()
	first := d.Dispatch(ctx, alert("a1", news.CategoryBreaking))
	second := d.Dispatch(ctx, alert("a1", news.CategoryBreaking))
	other := d.Dispatch(ctx, alert("a2", news.CategoryBreaking))
	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.False(t, other.Duplicate)
	assert.Len(t, transport.delivered(), 2)
}

func TestExpiredSubscriptionSkipped(t *testing.T) {
	reg := newRegistry(t)
	now := time.Date(2025, 11, 5, 20, 0, 0, 0, time.UTC)
	_, err := reg.Register(context.Background(), push.Registration{
		Endpoint:       "https://push.example/old",
		Keys:           news.PushKeys{P256dh: testP256dh, Auth: testAuth},
		ExpirationTime: news.Some(now.Add(-time.Hour).UnixMilli()),
	})
	require.NoError(t, err)
	register(t, reg, "https://push.example/new")
	transport := &fakeTransport{}
	d := notify.New(notify.Options{
		Registry:  reg,
		Transport: transport,
		BaseURL:   "https://news.example.com",
		Now:       func() time.Time { return now },
	})
	report := d.Dispatch(context.Background(), alert("a1", news.CategoryBreaking))
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, []string{"https://push.example/new"}, transport.delivered())
}

func TestRegistryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sub := news.PushSubscription{Endpoint: "https://push.example/1"}
	var seq iter.Seq2[news.PushSubscription, error] = func(
		yield func(news.PushSubscription, error) bool) {

		if !yield(sub, nil) {
			return
		}
		yield(news.PushSubscription{}, serrors.New("store unreachable"))
	}
	reg := mock_push.NewMockRegistry(ctrl)
	reg.EXPECT().FindByCategory(gomock.Any(), news.CategoryBreaking).Return(seq)
	transport := mock_push.NewMockTransport(ctrl)
	transport.EXPECT().Deliver(gomock.Any(), sub, gomock.Any()).Return(push.OutcomeSuccess, nil)

	d := notify.New(notify.Options{
		Registry:  reg,
		Transport: transport,
		BaseURL:   "https://news.example.com",
	})
	report := d.Dispatch(context.Background(), alert("a1", news.CategoryBreaking))
	assert.Error(t, report.Err)
	assert.Equal(t, 1, report.Success)
}

func TestRegistryErrorReleasesDuplicateMark(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sub := news.PushSubscription{Endpoint: "https://push.example/1"}
	var failing iter.Seq2[news.PushSubscription, error] = func(
		yield func(news.PushSubscription, error) bool) {

		yield(news.PushSubscription{}, serrors.New("store unreachable"))
	}
	var working iter.Seq2[news.PushSubscription, error] = func(
		yield func(news.PushSubscription, error) bool) {

		yield(sub, nil)
	}
	reg := mock_push.NewMockRegistry(ctrl)
	gomock.InOrder(
		reg.EXPECT().FindByCategory(gomock.Any(), news.CategoryBreaking).Return(failing),
		reg.EXPECT().FindByCategory(gomock.Any(), news.CategoryBreaking).Return(working),
	)
	transport := mock_push.NewMockTransport(ctrl)
	transport.EXPECT().Deliver(gomock.Any(), sub, gomock.Any()).Return(push.OutcomeSuccess, nil)

	d := notify.New(notify.Options{
		Registry:    reg,
		Transport:   transport,
		Dedup:       dedup.NewMemory(),
		DedupWindow: time.Hour,
		BaseURL:     "https://news.example.com",
	})
	ctx := context.Background()
	first := d.Dispatch(ctx, alert("a1", news.CategoryBreaking))
	require.Error(t, first.Err)
	assert.Equal(t, 0, first.Attempts())

	second := d.Dispatch(ctx, alert("a1", news.CategoryBreaking))
	assert.False(t, second.Duplicate)
	assert.NoError(t, second.Err)
	assert.Equal(t, 1, second.Success)

	third := d.Dispatch(ctx, alert("a1", news.CategoryBreaking))
	assert.True(t, third.Duplicate)
}

func TestUnregisterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sub := news.PushSubscription{Endpoint: "https://push.example/gone"}
	reg := mock_push.NewMockRegistry(ctrl)
	reg.EXPECT().FindByCategory(gomock.Any(), news.CategoryBreaking).Return(
		iter.Seq2[news.PushSubscription, error](
			func(yield func(news.PushSubscription, error) bool) { yield(sub, nil) }))
	reg.EXPECT().Unregister(gomock.Any(), sub.Endpoint).Return(serrors.New("locked"))
	transport := mock_push.NewMockTransport(ctrl)
	transport.EXPECT().Deliver(gomock.Any(), sub, gomock.Any()).
		Return(push.OutcomePermanent, serrors.New("gone"))

	d := notify.New(notify.Options{
		Registry:  reg,
		Transport: transport,
		BaseURL:   "https://news.example.com",
	})
	report := d.Dispatch(context.Background(), alert("a1", news.CategoryBreaking))
	assert.NoError(t, report.Err)
	assert.Equal(t, 1, report.Permanent)
	assert.Equal(t, 0, report.Removed)
}

func TestBoundedConcurrency(t *testing.T) {
	reg := newRegistry(t)
	for i := 0; i < 10; i++ {
		register(t, reg, fmt.Sprintf("https://push.example/%d", i), "world")
	}
	var mtx sync.Mutex
	var inFlight, peak int
	transport := deliverFunc(func() {
		mtx.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mtx.Unlock()
		time.Sleep(5 * time.Millisecond)
		mtx.Lock()
		inFlight--
		mtx.Unlock()
	})
	d := notify.New(notify.Options{
		Registry:                reg,
		Transport:               transport,
		BaseURL:                 "https://news.example.com",
		MaxConcurrentDeliveries: 3,
	})
	report := d.Dispatch(context.Background(), alert("a1", news.CategoryWorld))
	assert.Equal(t, 10, report.Success)
	assert.LessOrEqual(t, peak, 3)
}

type deliverFunc func()

func (f deliverFunc) Deliver(context.Context, news.PushSubscription,
	[]byte) (push.Outcome, error) {

	f()
	return push.OutcomeSuccess, nil
}
