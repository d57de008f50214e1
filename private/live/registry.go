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

// Package live distributes "new entry available" cues to connected live
// readers.
//
// The hub is best-effort: every connection registered at publish time gets
// at most one cue per publish, and a connection whose write fails is dropped
// from the hub. There is no replay; readers catch up by re-fetching the
// entries of their channel from the store.
package live

import (
	"context"
	"sync"

	"github.com/newsdesk/newsdesk/pkg/news"
)

// Conn is a connected live reader.
type Conn interface {
	// ID identifies the connection. IDs are unique within a registry.
	ID() string
	// Send writes the cue to the reader.
	Send(ctx context.Context, cue news.Cue) error
	// Close closes the connection.
	Close() error
}

// Registry is the set of connections a hub fans out to. The zero value is
// not usable, use NewRegistry.
type Registry struct {
	mtx   sync.RWMutex
	conns map[string]Conn
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Add registers c. A connection with the same id is replaced and returned.
func (r *Registry) Add(c Conn) (Conn, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	old, ok := r.conns[c.ID()]
	r.conns[c.ID()] = c
	return old, ok
}

// Remove unregisters the connection with the given id and returns it.
func (r *Registry) Remove(id string) (Conn, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	c, ok := r.conns[id]
	delete(r.conns, id)
	return c, ok
}

// removeConn unregisters c unless its id was taken over by another
// connection in the meantime.
func (r *Registry) removeConn(c Conn) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if cur, ok := r.conns[c.ID()]; !ok || cur != c {
		return false
	}
	delete(r.conns, c.ID())
	return true
}

// Snapshot returns the currently registered connections.
func (r *Registry) Snapshot() []Conn {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.conns)
}
