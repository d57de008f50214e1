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

package push_test

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
	"github.com/newsdesk/newsdesk/private/push"
)

func TestClassify(t *testing.T) {
	testCases := map[string]struct {
		Status   int
		Err      error
		Expected push.Outcome
	}{
		"created":         {Status: http.StatusCreated, Expected: push.OutcomeSuccess},
		"ok":              {Status: http.StatusOK, Expected: push.OutcomeSuccess},
		"not found":       {Status: http.StatusNotFound, Expected: push.OutcomePermanent},
		"gone":            {Status: http.StatusGone, Expected: push.OutcomePermanent},
		"too many":        {Status: http.StatusTooManyRequests, Expected: push.OutcomeTransient},
		"server error":    {Status: http.StatusBadGateway, Expected: push.OutcomeTransient},
		"bad request":     {Status: http.StatusBadRequest, Expected: push.OutcomeTransient},
		"payload too big": {Status: http.StatusRequestEntityTooLarge, Expected: push.OutcomeTransient},
		"network error":   {Err: serrors.New("connection reset"), Expected: push.OutcomeTransient},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, push.Classify(tc.Status, tc.Err))
		})
	}
}

// clientKeys returns fresh subscription keys as a browser would create them.
func clientKeys(t *testing.T) news.PushKeys {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return news.PushKeys{
		P256dh: base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(secret),
	}
}

func TestWebPushDeliver(t *testing.T) {
	vapidPriv, vapidPub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	testCases := map[string]struct {
		Status    int
		Expected  push.Outcome
		AssertErr assert.ErrorAssertionFunc
	}{
		"accepted": {
			Status:    http.StatusCreated,
			Expected:  push.OutcomeSuccess,
			AssertErr: assert.NoError,
		},
		"gone": {
			Status:    http.StatusGone,
			Expected:  push.OutcomePermanent,
			AssertErr: assert.Error,
		},
		"unavailable": {
			Status:    http.StatusServiceUnavailable,
			Expected:  push.OutcomeTransient,
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var got *http.Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r
				w.WriteHeader(tc.Status)
			}))
			defer srv.Close()

			transport := push.NewWebPush(push.WebPushOptions{
				VAPIDPublicKey:  vapidPub,
				VAPIDPrivateKey: vapidPriv,
				Subject:         "mailto:desk@news.example.com",
				TTL:             time.Hour,
				HTTPClient:      srv.Client(),
			})
			sub := news.PushSubscription{
				Endpoint: srv.URL + "/send/1",
				Keys:     clientKeys(t),
			}
			outcome, err := transport.Deliver(context.Background(), sub, []byte(`{"title":"x"}`))
			tc.AssertErr(t, err)
			assert.Equal(t, tc.Expected, outcome)
			require.NotNil(t, got)
			assert.Equal(t, http.MethodPost, got.Method)
			assert.Equal(t, "/send/1", got.URL.Path)
			assert.Equal(t, "aes128gcm", got.Header.Get("Content-Encoding"))
			assert.Equal(t, "3600", got.Header.Get("TTL"))
			assert.Equal(t, "high", got.Header.Get("Urgency"))
			assert.Contains(t, got.Header.Get("Authorization"), "vapid ")
		})
	}
}

func TestWebPushUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	vapidPriv, vapidPub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	transport := push.NewWebPush(push.WebPushOptions{
		VAPIDPublicKey:  vapidPub,
		VAPIDPrivateKey: vapidPriv,
		Subject:         "mailto:desk@news.example.com",
	})
	outcome, err := transport.Deliver(context.Background(), news.PushSubscription{
		Endpoint: endpoint,
		Keys:     clientKeys(t),
	}, []byte(`{}`))
	assert.Error(t, err)
	assert.Equal(t, push.OutcomeTransient, outcome)
}
