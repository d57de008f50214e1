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
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/news"
)

// Handler upgrades requests to websocket connections and registers them with
// the hub until the client goes away. Cues are sent as JSON text messages.
// Messages from the client are discarded.
type Handler struct {
	Hub *Hub
	// OriginPatterns are the host patterns of the allowed cross-origin
	// clients. Same-origin clients are always allowed.
	OriginPatterns []string
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.FromCtx(r.Context())
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		// Accept already wrote the error response.
		logger.Debug("Accepting websocket failed", "err", err)
		return
	}
	conn := &wsConn{id: news.NewID(), c: c}
	ctx := c.CloseRead(r.Context())
	h.Hub.Connect(conn)
	logger.Debug("Live reader connected", "conn", conn.id, "remote", r.RemoteAddr)
	<-ctx.Done()
	h.Hub.Disconnect(conn.id)
	c.CloseNow()
	logger.Debug("Live reader disconnected", "conn", conn.id)
}

type wsConn struct {
	id string
	c  *websocket.Conn
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(ctx context.Context, cue news.Cue) error {
	return wsjson.Write(ctx, c.c, cue)
}

func (c *wsConn) Close() error {
	return c.c.CloseNow()
}
