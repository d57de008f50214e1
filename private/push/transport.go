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

package push

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

// Outcome classifies a delivery attempt.
type Outcome int

const (
	// OutcomeSuccess means the push service accepted the message.
	OutcomeSuccess Outcome = iota
	// OutcomePermanent means the endpoint is gone. The subscription must be
	// removed and never retried.
	OutcomePermanent
	// OutcomeTransient means the attempt failed for now. The message is
	// dropped.
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePermanent:
		return "permanent_failure"
	case OutcomeTransient:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Transport delivers an encrypted payload to a subscription. Failures are
// reported as an outcome together with an error describing them.
type Transport interface {
	Deliver(ctx context.Context, sub news.PushSubscription, payload []byte) (Outcome, error)
}

// Classify maps the response of a push service to an outcome. A request error
// (network failure, timeout) is transient.
func Classify(status int, err error) Outcome {
	if err != nil {
		return OutcomeTransient
	}
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusNotFound, status == http.StatusGone:
		return OutcomePermanent
	default:
		return OutcomeTransient
	}
}

// WebPushOptions configure the web push transport.
type WebPushOptions struct {
	// VAPIDPublicKey and VAPIDPrivateKey identify the application server to
	// the push services.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subject is the contact of the application server, a mailto: or https:
	// URL.
	Subject string
	// TTL is how long the push service keeps an undelivered message.
	TTL time.Duration
	// Urgency is the message urgency. (default "high")
	Urgency string
	// HTTPClient sends the requests. (default http.DefaultClient)
	HTTPClient webpush.HTTPClient
}

var _ Transport = (*WebPush)(nil)

// WebPush delivers messages with the web push protocol, encrypting the
// payload for the subscription keys and signing the request with VAPID.
type WebPush struct {
	opts WebPushOptions
}

// NewWebPush creates a web push transport.
func NewWebPush(opts WebPushOptions) *WebPush {
	if opts.Urgency == "" {
		opts.Urgency = string(webpush.UrgencyHigh)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &WebPush{opts: opts}
}

// Deliver implements Transport.
func (w *WebPush) Deliver(ctx context.Context, sub news.PushSubscription,
	payload []byte) (Outcome, error) {

	rsp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      w.opts.HTTPClient,
		Subscriber:      w.opts.Subject,
		TTL:             int(w.opts.TTL.Seconds()),
		Urgency:         webpush.Urgency(w.opts.Urgency),
		VAPIDPublicKey:  w.opts.VAPIDPublicKey,
		VAPIDPrivateKey: w.opts.VAPIDPrivateKey,
	})
	if err != nil {
		return Classify(0, err), serrors.Wrap("sending push message", err)
	}
	defer rsp.Body.Close()
	// Drain so that the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(rsp.Body, 4096))
	outcome := Classify(rsp.StatusCode, nil)
	if outcome != OutcomeSuccess {
		return outcome, serrors.New("push service rejected message", "status", rsp.StatusCode)
	}
	return outcome, nil
}
