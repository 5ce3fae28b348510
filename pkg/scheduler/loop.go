// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/defaults"
	"github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/metrics"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
	"k8s.io/utils/clock"
)

// Task is one governor driven by a Loop.
type Task interface {
	Name() string
	// Period is read before every re-arm so tunable changes apply on the
	// next cycle.
	Period() time.Duration
	Cycle(ctx context.Context) error
	// Restore is the corrective action run once when the loop is disabled.
	Restore(ctx context.Context) error
}

// Resetter is implemented by tasks that keep state which must be cleared
// before the first cycle after Enable.
type Resetter interface {
	Reset()
}

// Suspender is implemented by tasks that act on host suspend and resume.
type Suspender interface {
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Loop runs a Task periodically with at most one pending invocation.
// The next invocation is armed only after the previous cycle returns.
type Loop struct {
	task  Task
	clock clock.WithDelayedExecution

	mu        sync.Mutex
	timer     clock.Timer
	gen       uint64
	inflight  chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	enabled   bool
	suspended bool
	stopped   bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock replaces the real clock, typically with a fake in tests.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// New creates a stopped, enabled Loop for task. Nothing runs until Start.
func New(task Task, opts ...Option) *Loop {
	l := &Loop{
		task:    task,
		clock:   clock.RealClock{},
		enabled: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	return l
}

// Name returns the task name.
func (l *Loop) Name() string {
	return l.task.Name()
}

// Enabled reports whether the loop is enabled.
func (l *Loop) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Suspended reports whether the loop is paused by Suspend.
func (l *Loop) Suspended() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suspended
}

// Pending reports whether an invocation is armed.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timer != nil
}

// Start arms the first invocation after initialDelay. Later calls are
// no-ops.
func (l *Loop) Start(initialDelay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopped {
		return
	}
	l.started = true
	metrics.SetActive(l.task.Name(), l.enabled)
	slog.Info("governor loop started",
		"governor", l.task.Name(),
		"enabled", l.enabled,
		"initialDelay", initialDelay.String())
	l.armLocked(initialDelay)
}

// Enable resumes periodic cycles with a fresh reference reading.
func (l *Loop) Enable() {
	l.mu.Lock()
	if l.stopped || l.enabled {
		l.mu.Unlock()
		return
	}
	l.enabled = true
	l.gen++
	l.mu.Unlock()

	if r, ok := l.task.(Resetter); ok {
		r.Reset()
	}
	metrics.SetActive(l.task.Name(), true)
	slog.Info("governor enabled", "governor", l.task.Name())

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started && l.enabled {
		l.armLocked(l.task.Period())
	}
}

// Disable cancels the pending invocation, waits for an in-flight cycle and
// runs Restore once.
func (l *Loop) Disable(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped || !l.enabled {
		l.mu.Unlock()
		return nil
	}
	l.enabled = false
	wait := l.haltLocked()
	l.mu.Unlock()

	if err := waitFor(ctx, wait); err != nil {
		return err
	}
	metrics.SetActive(l.task.Name(), false)
	slog.Info("governor disabled", "governor", l.task.Name())

	if err := l.task.Restore(ctx); err != nil {
		slog.Warn("governor restore failed", "governor", l.task.Name(), "error", err)
		return err
	}
	return nil
}

// Suspend pauses the loop and forwards to the task when it is a Suspender.
// Tasks without suspend behavior keep running.
func (l *Loop) Suspend(ctx context.Context) error {
	s, ok := l.task.(Suspender)
	if !ok {
		return nil
	}

	l.mu.Lock()
	if l.stopped || l.suspended {
		l.mu.Unlock()
		return nil
	}
	l.suspended = true
	enabled := l.enabled
	wait := l.haltLocked()
	l.mu.Unlock()

	if err := waitFor(ctx, wait); err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	slog.Info("governor suspended", "governor", l.task.Name())
	return s.Suspend(ctx)
}

// Resume undoes Suspend and re-arms the loop.
func (l *Loop) Resume(ctx context.Context) error {
	s, ok := l.task.(Suspender)
	if !ok {
		return nil
	}

	l.mu.Lock()
	if l.stopped || !l.suspended {
		l.mu.Unlock()
		return nil
	}
	l.suspended = false
	enabled := l.enabled
	l.mu.Unlock()

	var err error
	if enabled {
		slog.Info("governor resumed", "governor", l.task.Name())
		err = s.Resume(ctx)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started && l.enabled && !l.suspended && !l.stopped {
		l.armLocked(l.task.Period())
	}
	return err
}

// Stop tears the loop down. No cycle runs after Stop returns.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	wait := l.haltLocked()
	l.mu.Unlock()
	return waitFor(ctx, wait)
}

// BindActive drives Enable and Disable from a boolean tunable. The current
// value is applied immediately.
func (l *Loop) BindActive(store *tunable.Store, name string) {
	store.OnChange(func(c tunable.Change) {
		if c.Name != name {
			return
		}
		if c.New != 0 {
			l.Enable()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), defaults.GovernorDisableTimeout)
		defer cancel()
		if err := l.Disable(ctx); err != nil {
			slog.Warn("failed to disable governor", "governor", l.task.Name(), "error", err)
		}
	})

	if !store.Bool(name) {
		l.mu.Lock()
		l.enabled = false
		l.haltLocked()
		l.mu.Unlock()
		metrics.SetActive(l.task.Name(), false)
	}
}

// haltLocked invalidates the pending invocation and cancels the in-flight
// cycle. It returns a channel closed when that cycle finishes.
func (l *Loop) haltLocked() <-chan struct{} {
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.cancel()
	l.ctx, l.cancel = context.WithCancel(context.Background())
	return l.inflight
}

func (l *Loop) armLocked(d time.Duration) {
	if l.timer != nil || !l.enabled || l.suspended || l.stopped {
		return
	}
	gen := l.gen
	l.timer = l.clock.AfterFunc(d, func() {
		go l.fire(gen)
	})
}

func (l *Loop) fire(gen uint64) {
	l.mu.Lock()
	if gen != l.gen || !l.enabled || l.suspended || l.stopped {
		l.mu.Unlock()
		return
	}
	l.timer = nil
	done := make(chan struct{})
	l.inflight = done
	ctx := l.ctx
	l.mu.Unlock()

	err := l.task.Cycle(ctx)
	if err != nil {
		logCycleError(l.task.Name(), err)
	}

	l.mu.Lock()
	// a newer cycle may own inflight after a timed-out Disable and Enable
	if l.inflight == done {
		l.inflight = nil
	}
	if gen == l.gen {
		l.armLocked(l.task.Period())
	}
	l.mu.Unlock()
	close(done)
}

func logCycleError(name string, err error) {
	if errors.HasCode(err, errors.ErrCodeSampling) || stderrors.Is(err, context.Canceled) {
		slog.Debug("governor cycle skipped", "governor", name, "error", err)
		return
	}
	slog.Warn("governor cycle failed", "governor", name, "error", err)
}

func waitFor(ctx context.Context, done <-chan struct{}) error {
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeTimeout, "timed out waiting for in-flight cycle", ctx.Err())
	}
}
