// Copyright 2020 Anapaya Systems
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

package metrics

import (
	"sort"
	"strings"
	"sync"
)

// storage is shared by a test metric and all the children created with With.
// Values are keyed by the canonical form of the label set.
type storage struct {
	mtx    sync.Mutex
	values map[string]float64
}

func newStorage() *storage {
	return &storage{values: make(map[string]float64)}
}

func (s *storage) add(key string, delta float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.values[key] += delta
}

func (s *storage) set(key string, v float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.values[key] = v
}

func (s *storage) get(key string) float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.values[key]
}

func (s *storage) sum() float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	var total float64
	for _, v := range s.values {
		total += v
	}
	return total
}

type labels map[string]string

func (l labels) with(labelValues ...string) labels {
	if len(labelValues)%2 != 0 {
		labelValues = append(labelValues, "unknown")
	}
	r := make(labels, len(l)+len(labelValues)/2)
	for k, v := range l {
		r[k] = v
	}
	for i := 0; i < len(labelValues); i += 2 {
		r[labelValues[i]] = labelValues[i+1]
	}
	return r
}

func (l labels) key() string {
	parts := make([]string, 0, len(l))
	for k, v := range l {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// TestCounter implements a counter for use in tests. Children created with
// With share the storage of their parent.
type TestCounter struct {
	storage *storage
	labels  labels
}

// NewTestCounter creates a new counter for use in tests.
func NewTestCounter() *TestCounter {
	return &TestCounter{storage: newStorage(), labels: labels{}}
}

// With returns the child counter for the given label values.
func (c *TestCounter) With(labelValues ...string) Counter {
	return &TestCounter{storage: c.storage, labels: c.labels.with(labelValues...)}
}

// Add increases the counter. It panics if delta is negative.
func (c *TestCounter) Add(delta float64) {
	if delta < 0 {
		panic("counter increment value is < 0")
	}
	c.storage.add(c.labels.key(), delta)
}

// CounterValue extracts the value out of a TestCounter for the exact label set
// of c. If the argument is not a *TestCounter, CounterValue will panic.
func CounterValue(c Counter) float64 {
	tc := c.(*TestCounter)
	return tc.storage.get(tc.labels.key())
}

// CounterSum returns the sum over all label sets of the counter family c
// belongs to.
func CounterSum(c Counter) float64 {
	return c.(*TestCounter).storage.sum()
}

// TestGauge implements a gauge for use in tests.
type TestGauge struct {
	storage *storage
	labels  labels
}

// NewTestGauge creates a new gauge for use in tests.
func NewTestGauge() *TestGauge {
	return &TestGauge{storage: newStorage(), labels: labels{}}
}

// With returns the child gauge for the given label values.
func (g *TestGauge) With(labelValues ...string) Gauge {
	return &TestGauge{storage: g.storage, labels: g.labels.with(labelValues...)}
}

// Set sets the gauge to v.
func (g *TestGauge) Set(v float64) {
	g.storage.set(g.labels.key(), v)
}

// Add increases the gauge by delta, which may be negative.
func (g *TestGauge) Add(delta float64) {
	g.storage.add(g.labels.key(), delta)
}

// GaugeValue extracts the value out of a TestGauge. If the argument is not a
// *TestGauge, GaugeValue will panic.
func GaugeValue(g Gauge) float64 {
	tg := g.(*TestGauge)
	return tg.storage.get(tg.labels.key())
}
