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

package periodic

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/newsdesk/newsdesk/pkg/metrics"
)

// Event types reported by the runner.
const (
	EventStop    = "stop"
	EventKill    = "kill"
	EventTrigger = "triggered"
)

// Metrics contains the metrics of a periodic runner. All fields are optional.
type Metrics struct {
	// Events returns the counter for the given event type.
	Events func(string) metrics.Counter
	// Period is set to the task period in seconds.
	Period metrics.Gauge
	// Runtime is set to the duration of the last run in seconds.
	Runtime metrics.Gauge
	// StartTime is set to the unix timestamp of the start of the last run.
	StartTime metrics.Gauge
}

func (m *Metrics) event(t string) metrics.Counter {
	if m.Events == nil {
		return nil
	}
	return m.Events(t)
}

var (
	promOnce      sync.Once
	promEvents    metrics.Counter
	promPeriod    metrics.Gauge
	promRuntime   metrics.Gauge
	promStartTime metrics.Gauge
)

func initProm() {
	promEvents = metrics.NewPromCounterFrom(prometheus.CounterOpts{
		Namespace: "periodic",
		Name:      "events_total",
		Help:      "Total number of events of periodic tasks.",
	}, []string{"task", "event_type"})
	promPeriod = metrics.NewPromGaugeFrom(prometheus.GaugeOpts{
		Namespace: "periodic",
		Name:      "period_seconds",
		Help:      "Period of the periodic task.",
	}, []string{"task"})
	promRuntime = metrics.NewPromGaugeFrom(prometheus.GaugeOpts{
		Namespace: "periodic",
		Name:      "runtime_duration_seconds",
		Help:      "Duration of the last run of the periodic task.",
	}, []string{"task"})
	promStartTime = metrics.NewPromGaugeFrom(prometheus.GaugeOpts{
		Namespace: "periodic",
		Name:      "runtime_timestamp_seconds",
		Help:      "Unix timestamp of the start of the last run.",
	}, []string{"task"})
}

func defaultMetrics(task string) *Metrics {
	promOnce.Do(initProm)
	return &Metrics{
		Events: func(t string) metrics.Counter {
			return promEvents.With("task", task, "event_type", t)
		},
		Period:    promPeriod.With("task", task),
		Runtime:   promRuntime.With("task", task),
		StartTime: promStartTime.With("task", task),
	}
}
