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

package live_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/private/live"
)

func TestHandler(t *testing.T) {
	hub := live.NewHub(live.HubOptions{WriteTimeout: time.Second})
	srv := httptest.NewServer(live.Handler{Hub: hub})
	defer srv.Close()

	ctx, cancelF := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelF()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.CloseNow()

	require.Eventually(t, func() bool { return hub.Registry().Len() == 1 },
		time.Second, 10*time.Millisecond)

	res := hub.Publish(ctx, "election", testEntry)
	assert.Equal(t, 1, res.Delivered)

	var cue news.Cue
	require.NoError(t, wsjson.Read(ctx, c, &cue))
	assert.Equal(t, news.CueTypeLiveEntry, cue.Type)
	assert.Equal(t, "election", cue.ChannelID)
	assert.Equal(t, "e1", cue.EntryID)
	assert.True(t, testEntry.CreatedAt.Equal(cue.At))

	require.NoError(t, c.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return hub.Registry().Len() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestHandlerRejectsPlainRequest(t *testing.T) {
	hub := live.NewHub(live.HubOptions{})
	srv := httptest.NewServer(live.Handler{Hub: hub})
	defer srv.Close()

	rsp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	rsp.Body.Close()
	assert.GreaterOrEqual(t, rsp.StatusCode, 400)
	assert.Equal(t, 0, hub.Registry().Len())
}
