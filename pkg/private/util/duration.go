// Copyright 2018 Anapaya Systems
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

// Package util contains small helpers shared by configuration code.
package util

import (
	"regexp"
	"strconv"
	"time"

	"github.com/newsdesk/newsdesk/pkg/private/serrors"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365 * day
)

var durationRegexp = regexp.MustCompile(`^(-?[0-9]+)(y|w|d|h|m|s|ms|us|µs|ns)$`)

var durationUnits = map[string]time.Duration{
	"y":  year,
	"w":  week,
	"d":  day,
	"h":  time.Hour,
	"m":  time.Minute,
	"s":  time.Second,
	"ms": time.Millisecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ns": time.Nanosecond,
}

// ParseDuration parses a duration consisting of an integer and a single unit
// suffix, e.g. "90s", "12h" or "2d". Supported units are y, w, d, h, m, s, ms,
// us (or µs) and ns. Compound durations such as "1h30m" are rejected.
func ParseDuration(s string) (time.Duration, error) {
	matches := durationRegexp.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, serrors.New("invalid duration", "input", s)
	}
	n, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, serrors.Wrap("parsing duration value", err, "input", s)
	}
	unit := durationUnits[matches[2]]
	if n > int64(1<<63-1)/int64(unit) || n < -int64(1<<63-1)/int64(unit) {
		return 0, serrors.New("duration out of range", "input", s)
	}
	return time.Duration(n) * unit, nil
}

// FmtDuration formats d using the largest unit that represents it exactly,
// in a form that ParseDuration accepts.
func FmtDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	for _, u := range []struct {
		suffix string
		unit   time.Duration
	}{
		{"y", year},
		{"w", week},
		{"d", day},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
		{"ms", time.Millisecond},
		{"us", time.Microsecond},
	} {
		if d%u.unit == 0 {
			return strconv.FormatInt(int64(d/u.unit), 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(d), 10) + "ns"
}
