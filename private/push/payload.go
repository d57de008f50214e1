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
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/newsdesk/newsdesk/pkg/news"
	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

// DefaultExcerptLength is the maximum number of characters of the body
// excerpt.
const DefaultExcerptLength = 140

// Payload is the notification shown by the reader's browser. It is encoded as
// JSON and encrypted by the transport.
type Payload struct {
	Title string                `json:"title"`
	Body  string                `json:"body"`
	URL   string                `json:"url"`
	Image news.Optional[string] `json:"image"`
}

// NewPayload builds the notification of article a. The body is a plain text
// excerpt of the summary, or of the article body if there is no summary. The
// target URL is the article path below baseURL.
func NewPayload(a news.Article, baseURL string) (Payload, error) {
	source := a.Summary
	if strings.TrimSpace(source) == "" {
		source = a.Body
	}
	text, err := plainText(source)
	if err != nil {
		return Payload{}, serrors.Wrap("extracting excerpt", err, "article", a.ID)
	}
	target, err := articleURL(baseURL, a)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		Title: a.Title,
		Body:  Excerpt(text, DefaultExcerptLength),
		URL:   target,
		Image: a.Image,
	}, nil
}

// Encode returns the JSON encoding of the payload.
func (p Payload) Encode() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, serrors.Wrap("encoding payload", err)
	}
	return raw, nil
}

func plainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, figure").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

func articleURL(baseURL string, a news.Article) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", serrors.Wrap("parsing base URL", err, "base_url", baseURL)
	}
	ref := a.Slug
	if ref == "" {
		ref = a.ID
	}
	return base.JoinPath("articles", ref).String(), nil
}

// Excerpt shortens text to at most n characters. Text is cut at the last word
// boundary and marked with an ellipsis.
func Excerpt(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n-1])
	if runes[n-1] != ' ' {
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ,;:.") + "…"
}
