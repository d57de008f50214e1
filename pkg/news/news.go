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

// Package news contains the records that flow through the newsdesk
// live-update and notification pipeline: articles, live channels and their
// entries, push subscriptions and the cues sent to live readers.
package news

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
)

// NewID returns a new random record identifier.
func NewID() string {
	return uuid.NewString()
}

// SlugFromTitle derives a URL slug from an article title. Punctuation is
// dropped, camel case words and digit runs are split, and the words are
// joined with dashes.
func SlugFromTitle(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	// strcase only folds ASCII letters.
	return strings.ToLower(strcase.ToKebab(strings.Join(words, " ")))
}

// Article is a published or draft article as seen by the pipeline.
type Article struct {
	ID      string `json:"id"`
	Slug    string `json:"slug,omitempty"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	// Body is rich content (HTML).
	Body        string   `json:"body,omitempty"`
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	// Type is the editorial type tag, e.g. "news", "opinion" or "video".
	Type  string           `json:"type,omitempty"`
	Tags  []string         `json:"tags,omitempty"`
	Image Optional[string] `json:"image"`
	// Alert marks the article as breaking, i.e. it triggers push
	// notifications when published.
	Alert     bool      `json:"alert"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	Views     int64     `json:"views"`
}

// HasTag returns whether the article carries tag.
func (a Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// LiveChannel is a topical live-update stream, e.g. an election night. A
// channel is never deleted; archiving clears Current.
type LiveChannel struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Current   bool      `json:"current"`
}

// LiveEntry is one update within a live channel. Entries are immutable once
// stored; corrections are posted as new entries.
type LiveEntry struct {
	ID        string `json:"id"`
	ChannelID string `json:"channelId"`
	// Seq is assigned by the store and increases with every insert. It breaks
	// ties between entries with the same creation time.
	Seq       int64            `json:"seq"`
	Author    string           `json:"author"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Media     Optional[string] `json:"media"`
	CreatedAt time.Time        `json:"createdAt"`
}

// PushKeys are the client keys needed to encrypt a push payload.
type PushKeys struct {
	// P256dh is the client's ECDH public key, base64url encoded.
	P256dh string `json:"p256dh"`
	// Auth is the client's authentication secret, base64url encoded.
	Auth string `json:"auth"`
}

// PushSubscription is a reader's push delivery target. There is at most one
// subscription per endpoint.
type PushSubscription struct {
	Endpoint       string              `json:"endpoint"`
	Keys           PushKeys            `json:"keys"`
	Categories     CategorySet         `json:"categories"`
	ExpirationTime Optional[time.Time] `json:"expirationTime"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Expired returns whether the subscription's expiration hint lies before now.
func (s PushSubscription) Expired(now time.Time) bool {
	exp, ok := s.ExpirationTime.Get()
	return ok && exp.Before(now)
}

// CueTypeLiveEntry is the type of the cue announcing a new live entry.
const CueTypeLiveEntry = "live-entry"

// Cue tells a live reader that something new is available. It carries no
// entry payload; readers re-fetch from the store.
type Cue struct {
	Type      string    `json:"type"`
	ChannelID string    `json:"channelId"`
	EntryID   string    `json:"entryId"`
	At        time.Time `json:"at"`
}

// NewEntryCue returns the cue announcing e.
func NewEntryCue(e LiveEntry) Cue {
	return Cue{
		Type:      CueTypeLiveEntry,
		ChannelID: e.ChannelID,
		EntryID:   e.ID,
		At:        e.CreatedAt,
	}
}
