// Copyright 2018 ETH Zurich, Anapaya Systems
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

// Package periodic runs background tasks, such as the storage cleaners and
// the dedup cache janitor, at a fixed period.
package periodic

import (
	"context"
	"time"

	"github.com/newsdesk/newsdesk/pkg/log"
	"github.com/newsdesk/newsdesk/pkg/metrics"
)

// Task is a task that has to be periodically executed.
type Task interface {
	// Run executes the task once, it should return within the context's
	// timeout.
	Run(context.Context)
	// Name returns the task name, used for logging and metrics. It must be a
	// valid prometheus label value.
	Name() string
}

// Func implements the Task interface.
type Func struct {
	// Task is the function that is executed on Run.
	Task func(context.Context)
	// TaskName is returned by Name.
	TaskName string
}

// Run runs the task function.
func (f Func) Run(ctx context.Context) {
	f.Task(ctx)
}

// Name returns the task name.
func (f Func) Name() string {
	return f.TaskName
}

// Runner runs a task periodically.
type Runner struct {
	task         Task
	ticker       *time.Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
	metrics      *Metrics
}

// Start creates and starts a new Runner to run the given task periodically.
// The timeout is used for the context timeout of the task. The timeout can be
// larger than the period. That means if a task takes a long time it will be
// immediately retriggered.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithMetrics(task, defaultMetrics(task.Name()), period, timeout)
}

// StartWithMetrics is like Start, but reports to the given metrics. A nil
// Metrics disables metrics reporting.
func StartWithMetrics(task Task, m *Metrics, period, timeout time.Duration) *Runner {
	ctx, cancelF := context.WithCancel(context.Background())
	logger := log.New("debug_id", log.NewDebugID(), "task", task.Name())
	ctx = log.CtxWith(ctx, logger)
	if m == nil {
		m = &Metrics{}
	}
	runner := &Runner{
		task:         task,
		ticker:       time.NewTicker(period),
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          ctx,
		cancelF:      cancelF,
		trigger:      make(chan struct{}),
		metrics:      m,
	}
	logger.Debug("Starting periodic task", "period", period, "timeout", timeout)
	metrics.GaugeSet(m.Period, period.Seconds())
	go func() {
		defer log.HandlePanic()
		runner.runLoop()
	}()
	return runner
}

// Stop stops the periodic execution of the Runner. If the task is currently
// running this method will block until it is done.
func (r *Runner) Stop() {
	if r == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	<-r.loopFinished
	metrics.CounterInc(r.metrics.event(EventStop))
}

// Kill is like stop but it also cancels the context of the current running
// method.
func (r *Runner) Kill() {
	if r == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.cancelF()
	<-r.loopFinished
	metrics.CounterInc(r.metrics.event(EventKill))
}

// TriggerRun triggers the periodic task to run now. This does not impact the
// normal periodicity of this task. That means if the period is 5m and you
// call TriggerRun() after 2 minutes, the next execution will be in 3 minutes.
//
// The method blocks until either the triggered run was started or the runner
// was stopped, in which case the triggered run will not be executed.
func (r *Runner) TriggerRun() {
	select {
	// Either we were stopped or we can put something in the trigger channel.
	case <-r.stop:
	case r.trigger <- struct{}{}:
		metrics.CounterInc(r.metrics.event(EventTrigger))
	}
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer r.cancelF()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	select {
	// Make sure that stop case is evaluated first, so that when we kill and
	// both channels are ready we always go into stop first.
	case <-r.stop:
		return
	default:
		start := time.Now()
		ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
		r.task.Run(ctx)
		cancelF()
		metrics.GaugeSet(r.metrics.StartTime, float64(start.Unix()))
		metrics.GaugeSet(r.metrics.Runtime, time.Since(start).Seconds())
	}
}
