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

package thermal

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/cns-governor/pkg/defaults"
	"github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/journal"
	"github.com/NVIDIA/cns-governor/pkg/metrics"
	"github.com/NVIDIA/cns-governor/pkg/sampler"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
	"github.com/NVIDIA/cns-governor/pkg/unit"
)

// Status is a point-in-time view of the limiter.
type Status struct {
	Governor string `json:"governor" yaml:"governor"`
	Active   bool   `json:"active" yaml:"active"`
	Sensor   string `json:"sensor" yaml:"sensor"`
	Temp     int    `json:"temp" yaml:"temp"`
	Limited  bool   `json:"limited" yaml:"limited"`
	CapKHz   uint64 `json:"capKHz,omitempty" yaml:"capKHz,omitempty"`
	TableLen int    `json:"tableLen" yaml:"tableLen"`
	// Lagging lists units still waiting for the applied cap.
	Lagging   string    `json:"lagging,omitempty" yaml:"lagging,omitempty"`
	LastCycle time.Time `json:"lastCycle,omitzero" yaml:"lastCycle,omitempty"`
}

// Limiter caps the maximum frequency of every unit based on temperature.
//
// The frequency table is loaded on the first cycle with a valid reading and
// retried every cycle until it succeeds. A new cap is pushed to every unit
// and online units are retargeted so the cap takes effect immediately.
//
// The cap in force is tracked per unit. Units that rejected the applied cap
// are retried on every cycle until they accept it.
type Limiter struct {
	topology  unit.Topology
	sensor    *sampler.ThermalSampler
	tables    unit.FrequencyTableReader
	capper    unit.FrequencyCapper
	retargets unit.Retargeter
	store     *tunable.Store
	recorder  journal.Recorder
	clock     clock.PassiveClock
	sensorID  string

	mu        sync.Mutex
	table     []uint64
	applied   uint64
	units     []uint64
	lastTemp  int
	lastCycle time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithSensor selects the temperature sensor. Defaults to "0".
func WithSensor(id string) Option {
	return func(l *Limiter) {
		l.sensorID = id
	}
}

// WithRetargeter re-evaluates online units after each cap change.
func WithRetargeter(r unit.Retargeter) Option {
	return func(l *Limiter) {
		l.retargets = r
	}
}

// WithTunables uses store instead of a fresh default store.
func WithTunables(store *tunable.Store) Option {
	return func(l *Limiter) {
		l.store = store
	}
}

// WithRecorder sends decisions to r.
func WithRecorder(r journal.Recorder) Option {
	return func(l *Limiter) {
		l.recorder = r
	}
}

// WithClock sets the clock used for status timestamps.
func WithClock(c clock.PassiveClock) Option {
	return func(l *Limiter) {
		l.clock = c
	}
}

// New returns a limiter. No cap is assumed to be applied at start.
func New(topology unit.Topology, temps unit.TemperatureReader, tables unit.FrequencyTableReader,
	capper unit.FrequencyCapper, opts ...Option) *Limiter {

	l := &Limiter{
		topology: topology,
		tables:   tables,
		capper:   capper,
		recorder: journal.Discard,
		clock:    clock.RealClock{},
		sensorID: defaults.ThermalSensor,
		applied:  unit.NoLimit,
	}
	for _, o := range opts {
		o(l)
	}
	l.units = make([]uint64, topology.Count())
	for i := range l.units {
		l.units[i] = unit.NoLimit
	}
	if l.store == nil {
		l.store = NewTunables()
	}
	l.sensor = sampler.NewThermal(temps, l.sensorID)
	return l
}

// Name returns the governor name.
func (l *Limiter) Name() string {
	return Name
}

// Tunables returns the limiter's tunable store.
func (l *Limiter) Tunables() *tunable.Store {
	return l.store
}

// Period returns the current polling period.
func (l *Limiter) Period() time.Duration {
	return l.store.Duration(ParamPollPeriod)
}

// Applied returns the cap currently in force, or unit.NoLimit.
func (l *Limiter) Applied() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applied
}

// Cycle reads the sensor and applies the ladder.
//
// A failed sensor read or a missing frequency table returns ErrCodeSampling
// and changes nothing. When the computed cap equals the applied one and
// every unit holds it, no actuator is called. If every unit rejects a new cap
// the applied cap is left unchanged so the next cycle tries again.
func (l *Limiter) Cycle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := l.clock.Now()
	ladder := LadderFrom(l.store)

	l.mu.Lock()
	defer l.mu.Unlock()

	temp, ok := l.sensor.Sample()
	if !ok {
		metrics.ObserveCycle(Name, metrics.OutcomeSkipped, l.clock.Since(start).Seconds())
		return errors.NewWithContext(errors.ErrCodeSampling, "temperature unavailable",
			map[string]any{"sensor": l.sensorID})
	}
	l.lastTemp = temp
	l.lastCycle = start
	metrics.SetLastMetric(Name, float64(temp))

	if l.table == nil {
		if err := l.loadTable(); err != nil {
			metrics.ObserveCycle(Name, metrics.OutcomeSkipped, l.clock.Since(start).Seconds())
			return err
		}
	}

	next := Decide(temp, l.table, l.applied, ladder)
	if next == l.applied {
		if l.settledLocked() {
			metrics.ObserveCycle(Name, metrics.OutcomeOK, l.clock.Since(start).Seconds())
			return nil
		}
		slog.Debug("retrying frequency cap", "cap", capString(next), "units", unit.FormatList(l.laggingLocked()))
	} else {
		slog.Info("thermal threshold reached", "temp", temp, "cap", capString(next))
	}
	err := l.applyLocked(next, "limit", int64(temp))

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeActuationFailed
	}
	metrics.ObserveCycle(Name, outcome, l.clock.Since(start).Seconds())
	return err
}

// Restore clears the frequency cap from every unit still holding one.
func (l *Limiter) Restore(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.applied == unit.NoLimit && l.settledLocked() {
		return nil
	}
	return l.applyLocked(unit.NoLimit, "restore", int64(l.lastTemp))
}

// Status returns a snapshot for the status endpoint.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Status{
		Governor:  Name,
		Active:    l.store.Bool(ParamActive),
		Sensor:    l.sensorID,
		Temp:      l.lastTemp,
		Limited:   l.applied != unit.NoLimit,
		TableLen:  len(l.table),
		LastCycle: l.lastCycle,
		Lagging:   unit.FormatList(l.laggingLocked()),
	}
	if st.Limited {
		st.CapKHz = l.applied
	}
	return st
}

func (l *Limiter) loadTable() error {
	table, err := l.tables.FrequencyTable(unit.Primary)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSampling, "failed to read frequency table", err)
	}
	if len(table) == 0 {
		return errors.New(errors.ErrCodeSampling, "frequency table is empty")
	}
	l.table = table
	slog.Debug("frequency table loaded", "steps", len(table), "max", table[len(table)-1])
	return nil
}

// unitCap returns the cap in force on id.
func (l *Limiter) unitCap(id unit.ID) uint64 {
	if int(id) < len(l.units) {
		return l.units[id]
	}
	return unit.NoLimit
}

func (l *Limiter) setUnitCap(id unit.ID, capKHz uint64) {
	for int(id) >= len(l.units) {
		l.units = append(l.units, unit.NoLimit)
	}
	l.units[id] = capKHz
}

// laggingLocked returns the units whose cap differs from the applied one.
func (l *Limiter) laggingLocked() []unit.ID {
	var ids []unit.ID
	for i := 0; i < l.topology.Count(); i++ {
		if l.unitCap(unit.ID(i)) != l.applied {
			ids = append(ids, unit.ID(i))
		}
	}
	return ids
}

func (l *Limiter) settledLocked() bool {
	return len(l.laggingLocked()) == 0
}

// applyLocked pushes capKHz to every unit not already holding it and
// retargets the online ones.
func (l *Limiter) applyLocked(capKHz uint64, action string, metric int64) error {
	var (
		accepted []unit.ID
		errs     []error
	)
	for i := 0; i < l.topology.Count(); i++ {
		id := unit.ID(i)
		if l.unitCap(id) == capKHz {
			continue
		}
		err := l.capper.ApplyFrequencyCap(id, capKHz)
		metrics.ObserveActuation(Name, action, err)
		if err != nil {
			slog.Warn("frequency cap rejected", "unit", i, "cap", capString(capKHz), "error", err)
			errs = append(errs, fmt.Errorf("unit %d: %w", i, err))
			continue
		}
		l.setUnitCap(id, capKHz)
		accepted = append(accepted, id)
	}

	if l.retargets != nil && len(accepted) > 0 {
		online, err := l.topology.Online()
		if err != nil {
			errs = append(errs, fmt.Errorf("online units: %w", err))
		}
		for _, id := range online {
			if err := l.retargets.Retarget(id); err != nil {
				slog.Debug("retarget failed", "unit", uint(id), "error", err)
				errs = append(errs, fmt.Errorf("retarget unit %d: %w", id, err))
			}
		}
	}

	if len(accepted) > 0 {
		l.applied = capKHz
		if capKHz == unit.NoLimit {
			metrics.SetFrequencyCap(0)
		} else {
			metrics.SetFrequencyCap(capKHz)
		}
	}

	var err error
	if len(errs) > 0 {
		err = errors.WrapWithContext(errors.ErrCodeActuation, "failed to apply frequency cap",
			stderrors.Join(errs...), map[string]any{"cap": capString(capKHz)})
	}

	e := journal.Event{
		Time:     l.clock.Now(),
		Governor: Name,
		Action:   action,
		Metric:   metric,
		Units:    unit.FormatList(accepted),
	}
	if capKHz != unit.NoLimit {
		e.Cap = capKHz
	}
	if err != nil {
		e.Error = err.Error()
	}
	l.recorder.Record(e)
	return err
}

func capString(capKHz uint64) string {
	if capKHz == unit.NoLimit {
		return "none"
	}
	return fmt.Sprintf("%dkHz", capKHz)
}
