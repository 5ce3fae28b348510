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

package hotplug

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/journal"
	"github.com/NVIDIA/cns-governor/pkg/metrics"
	"github.com/NVIDIA/cns-governor/pkg/sampler"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
	"github.com/NVIDIA/cns-governor/pkg/unit"
)

// Status is a point-in-time view of the governor.
type Status struct {
	Governor    string    `json:"governor" yaml:"governor"`
	Policy      Policy    `json:"policy" yaml:"policy"`
	Active      bool      `json:"active" yaml:"active"`
	Units       int       `json:"units" yaml:"units"`
	Online      string    `json:"online" yaml:"online"`
	Load        uint64    `json:"load" yaml:"load"`
	LastAction  string    `json:"lastAction" yaml:"lastAction"`
	LastCycle   time.Time `json:"lastCycle,omitzero" yaml:"lastCycle,omitempty"`
	Counters    Counters  `json:"counters" yaml:"counters"`
	FreqScaling bool      `json:"frequencyScaled" yaml:"frequencyScaled"`
}

// Governor brings units online and takes them offline based on load.
//
// Cycle, Restore, Suspend and Resume serialize on one mutex that guards the
// debounce counters and the sampler. Tunables are read once per cycle into
// a Params snapshot.
type Governor struct {
	policy   Policy
	topology unit.Topology
	switcher unit.Switch
	sampler  *sampler.Sampler
	store    *tunable.Store
	recorder journal.Recorder
	clock    clock.PassiveClock
	freq     unit.FrequencyReader

	mu         sync.Mutex
	counters   Counters
	lastLoad   uint64
	lastAction Action
	lastCycle  time.Time
}

// Option configures a Governor.
type Option func(*Governor)

// WithPolicy selects the de-escalation counter policy. Defaults to HardReset.
func WithPolicy(p Policy) Option {
	return func(g *Governor) {
		g.policy = p
	}
}

// WithFrequencyScaling scales each unit's load by cur/max frequency.
func WithFrequencyScaling(r unit.FrequencyReader) Option {
	return func(g *Governor) {
		g.freq = r
	}
}

// WithTunables uses store instead of a fresh default store.
func WithTunables(store *tunable.Store) Option {
	return func(g *Governor) {
		g.store = store
	}
}

// WithRecorder sends decisions to r.
func WithRecorder(r journal.Recorder) Option {
	return func(g *Governor) {
		g.recorder = r
	}
}

// WithClock sets the clock used for status timestamps.
func WithClock(c clock.PassiveClock) Option {
	return func(g *Governor) {
		g.clock = c
	}
}

// New returns a hotplug governor over the given collaborators.
func New(topology unit.Topology, sw unit.Switch, counters unit.CounterReader, opts ...Option) *Governor {
	g := &Governor{
		policy:   HardReset,
		topology: topology,
		switcher: sw,
		recorder: journal.Discard,
		clock:    clock.RealClock{},
	}
	for _, o := range opts {
		o(g)
	}
	if g.store == nil {
		g.store = NewTunables()
	}

	var sopts []sampler.Option
	if g.freq != nil {
		sopts = append(sopts, sampler.WithFrequencyScaling(g.freq))
	}
	g.sampler = sampler.New(topology.Count(), counters, sopts...)
	return g
}

// Name returns the governor name.
func (g *Governor) Name() string {
	return Name
}

// Tunables returns the governor's tunable store.
func (g *Governor) Tunables() *tunable.Store {
	return g.store
}

// Period returns the current sampling period.
func (g *Governor) Period() time.Duration {
	return g.store.Duration(ParamSamplePeriod)
}

// Cycle samples load, advances the counters and performs at most one action.
//
// Sampling failures return an ErrCodeSampling error without touching the
// counters. Actuation is best effort: the counters are reset as if the
// action succeeded and the failure is returned as ErrCodeActuation.
func (g *Governor) Cycle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := g.clock.Now()
	p := ParamsFrom(g.store).Normalize(g.topology.Count())

	g.mu.Lock()
	defer g.mu.Unlock()

	online, err := g.topology.Online()
	if err != nil {
		metrics.ObserveCycle(Name, metrics.OutcomeSkipped, g.clock.Since(start).Seconds())
		return errors.Wrap(errors.ErrCodeSampling, "failed to read online units", err)
	}

	sample, err := g.sampler.Sample(online)
	if err != nil {
		metrics.ObserveCycle(Name, metrics.OutcomeSkipped, g.clock.Since(start).Seconds())
		if stderrors.Is(err, sampler.ErrNoActiveUnits) {
			return errors.Wrap(errors.ErrCodeSampling, "cycle skipped", err)
		}
		return err
	}
	if sample.ValidUnits() == 0 {
		// priming pass or stale counters: nothing to decide on
		metrics.ObserveCycle(Name, metrics.OutcomeSkipped, g.clock.Since(start).Seconds())
		return nil
	}

	action, next := Decide(Input{Load: sample.Load, Online: len(online)}, g.counters, p, g.policy)
	if g.store.Bool(ParamDebug) {
		slog.Info("hotplug cycle",
			"load", sample.Load,
			"online", len(online),
			"action", action.String(),
			"escalate", next.Escalate,
			"descend_all", next.DescendAll,
			"deescalate", next.Deescalate)
	}
	g.counters = next
	g.lastLoad = sample.Load
	g.lastAction = action
	g.lastCycle = start
	metrics.SetLastMetric(Name, float64(sample.Load))

	var (
		acted  []unit.ID
		actErr error
	)
	switch action {
	case EscalateOne:
		if off := unit.Offline(g.topology.Count(), online); len(off) > 0 {
			acted, actErr = g.bringOnline(off[:1], action.String())
		}
	case EscalateAll:
		off := unit.Offline(g.topology.Count(), online)
		if room := int(p.MaxUnits) - len(online); room < len(off) {
			off = off[:max(room, 0)]
		}
		acted, actErr = g.bringOnline(off, action.String())
	case DeescalateOne:
		if victim, ok := pickVictim(online, sample); ok {
			acted, actErr = g.takeOffline([]unit.ID{victim}, action.String())
		} else {
			slog.Debug("no idle unit to take offline", "load", sample.Load)
		}
	}

	if action != None {
		n := len(online)
		if action == DeescalateOne {
			n -= len(acted)
		} else {
			n += len(acted)
		}
		metrics.SetOnlineUnits(n)
		g.record(action.String(), int64(sample.Load), acted, actErr)
	}

	outcome := metrics.OutcomeOK
	if actErr != nil {
		outcome = metrics.OutcomeActuationFailed
	}
	metrics.ObserveCycle(Name, outcome, g.clock.Since(start).Seconds())
	return actErr
}

// pickVictim returns the online non-primary unit with the greatest idle
// depth; ties go to the lowest index. Nothing qualifies unless some unit
// reports a depth above zero.
func pickVictim(online []unit.ID, s sampler.Sample) (unit.ID, bool) {
	var (
		best  unit.ID
		depth uint64
	)
	ids := slices.Clone(online)
	slices.Sort(ids)
	for _, id := range ids {
		if id == unit.Primary {
			continue
		}
		if d := s.IdleDepth(id); d > depth {
			best, depth = id, d
		}
	}
	return best, depth > 0
}

// Restore brings every unit online. It is the corrective action run when
// the governor is disabled.
func (g *Governor) Restore(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()

	online, err := g.topology.Online()
	if err != nil {
		return errors.Wrap(errors.ErrCodeSampling, "failed to read online units", err)
	}
	off := unit.Offline(g.topology.Count(), online)
	acted, err := g.bringOnline(off, "restore")
	metrics.SetOnlineUnits(len(online) + len(acted))
	g.record("restore", 0, acted, err)
	return err
}

// Suspend takes every unit but the primary offline.
func (g *Governor) Suspend(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()

	online, err := g.topology.Online()
	if err != nil {
		return errors.Wrap(errors.ErrCodeSampling, "failed to read online units", err)
	}
	victims := make([]unit.ID, 0, len(online))
	for _, id := range slices.Backward(online) {
		if id != unit.Primary {
			victims = append(victims, id)
		}
	}
	acted, err := g.takeOffline(victims, "suspend")
	metrics.SetOnlineUnits(len(online) - len(acted))
	g.record("suspend", 0, acted, err)
	return err
}

// Resume brings units online up to max_units.
func (g *Governor) Resume(ctx context.Context) error {
	p := ParamsFrom(g.store).Normalize(g.topology.Count())

	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()

	online, err := g.topology.Online()
	if err != nil {
		return errors.Wrap(errors.ErrCodeSampling, "failed to read online units", err)
	}
	off := unit.Offline(g.topology.Count(), online)
	if room := int(p.MaxUnits) - len(online); room < len(off) {
		off = off[:max(room, 0)]
	}
	acted, err := g.bringOnline(off, "resume")
	metrics.SetOnlineUnits(len(online) + len(acted))
	g.record("resume", 0, acted, err)
	return err
}

// Reset clears the counters and the sampler's reference readings.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *Governor) resetLocked() {
	g.counters = Counters{}
	g.sampler.Reset()
}

// Counters returns the current debounce counters.
func (g *Governor) Counters() Counters {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counters
}

// Status returns a snapshot for the status endpoint.
func (g *Governor) Status() Status {
	g.mu.Lock()
	st := Status{
		Governor:    Name,
		Policy:      g.policy,
		Active:      g.store.Bool(ParamActive),
		Units:       g.topology.Count(),
		Load:        g.lastLoad,
		LastAction:  g.lastAction.String(),
		LastCycle:   g.lastCycle,
		Counters:    g.counters,
		FreqScaling: g.sampler.FrequencyScaled(),
	}
	g.mu.Unlock()

	if online, err := g.topology.Online(); err == nil {
		st.Online = unit.FormatList(online)
	}
	return st
}

func (g *Governor) bringOnline(ids []unit.ID, action string) ([]unit.ID, error) {
	return g.actuate(ids, action, g.switcher.BringOnline, "failed to bring units online")
}

func (g *Governor) takeOffline(ids []unit.ID, action string) ([]unit.ID, error) {
	return g.actuate(ids, action, g.switcher.TakeOffline, "failed to take units offline")
}

func (g *Governor) actuate(ids []unit.ID, action string, fn func(unit.ID) error, msg string) ([]unit.ID, error) {
	var (
		done []unit.ID
		errs []error
	)
	for _, id := range ids {
		err := fn(id)
		metrics.ObserveActuation(Name, action, err)
		if err != nil {
			slog.Warn("unit actuation failed", "action", action, "unit", uint(id), "error", err)
			errs = append(errs, fmt.Errorf("unit %d: %w", id, err))
			continue
		}
		slog.Debug("unit actuated", "action", action, "unit", uint(id))
		done = append(done, id)
	}
	if len(errs) > 0 {
		return done, errors.WrapWithContext(errors.ErrCodeActuation, msg, stderrors.Join(errs...),
			map[string]any{"action": action})
	}
	return done, nil
}

func (g *Governor) record(action string, metric int64, acted []unit.ID, err error) {
	e := journal.Event{
		Time:     g.clock.Now(),
		Governor: Name,
		Action:   action,
		Metric:   metric,
		Units:    unit.FormatList(acted),
	}
	if err != nil {
		e.Error = err.Error()
	}
	g.recorder.Record(e)
}
