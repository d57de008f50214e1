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

// Package live defines the storage API of live channels and their entries.
package live

import (
	"context"
	"io"

	"github.com/newsdesk/newsdesk/pkg/news"
)

// DB is the live event store. Entries of a channel are returned in creation
// order, so a re-fetch always yields a growing prefix of the channel.
type DB interface {
	// InsertChannel stores a new channel. The channel is current.
	InsertChannel(ctx context.Context, c news.LiveChannel) error
	// Channel returns the channel with the given id, or an error matching
	// db.ErrNotFound.
	Channel(ctx context.Context, id string) (news.LiveChannel, error)
	// Channels returns the channels, newest first. If currentOnly is set,
	// archived channels are skipped.
	Channels(ctx context.Context, currentOnly bool) ([]news.LiveChannel, error)
	// Archive marks the channel as not current. Archiving an archived
	// channel is a no-op.
	Archive(ctx context.Context, id string) error
	// InsertEntry stores e in its channel and returns it with the assigned
	// sequence number. A creation time before the channel's latest entry is
	// moved up to that entry's time, so that no entry is ever inserted before
	// an entry that readers may already have seen.
	InsertEntry(ctx context.Context, e news.LiveEntry) (news.LiveEntry, error)
	// Entries returns the entries of the channel in creation order. If since
	// is set, only the entries after the entry with that id are returned. An
	// unknown since id returns all entries.
	Entries(ctx context.Context, channelID string,
		since news.Optional[string]) ([]news.LiveEntry, error)
	io.Closer
}
