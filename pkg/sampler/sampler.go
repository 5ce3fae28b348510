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

package sampler

import (
	stderrors "errors"
	"fmt"

	"github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/unit"
)

// ErrNoActiveUnits is returned when a sample is requested with no online
// units; the aggregate is undefined and the cycle must be skipped.
var ErrNoActiveUnits = stderrors.New("no active units")

// UnitLoad is one unit's contribution to a sample.
type UnitLoad struct {
	ID unit.ID `json:"id"`
	// Load is the busy percentage over the interval, after frequency scaling.
	Load uint64 `json:"load"`
	// IdleDepth is 100 minus the unscaled busy percentage. Units without a
	// usable interval report zero and are never de-escalation candidates.
	IdleDepth uint64 `json:"idleDepth"`
	// Valid is false when the unit was priming or its deltas were unusable.
	Valid bool `json:"valid"`
}

// Sample is the result of one sampling pass.
type Sample struct {
	// Load is the sum of per-unit loads divided by the number of online units.
	Load  uint64     `json:"load"`
	Units []UnitLoad `json:"units"`
}

// ValidUnits returns how many units contributed a usable interval.
func (s Sample) ValidUnits() int {
	n := 0
	for _, u := range s.Units {
		if u.Valid {
			n++
		}
	}
	return n
}

// IdleDepth returns the idle depth recorded for id, or zero.
func (s Sample) IdleDepth(id unit.ID) uint64 {
	for _, u := range s.Units {
		if u.ID == id {
			return u.IdleDepth
		}
	}
	return 0
}

type record struct {
	prevIdle uint64
	prevWall uint64
	primed   bool
}

type reading struct {
	idle, wall uint64
	cur, max   uint64
}

// Sampler derives an aggregate load metric from cumulative per-unit counters.
// It is not safe for concurrent use; the owning governor serializes cycles.
type Sampler struct {
	counters unit.CounterReader
	freq     unit.FrequencyReader
	records  []record
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithFrequencyScaling multiplies each unit's load by cur/max so load
// measured below maximum frequency is not overstated.
func WithFrequencyScaling(r unit.FrequencyReader) Option {
	return func(s *Sampler) {
		s.freq = r
	}
}

// New returns a sampler with one record per unit.
func New(count int, counters unit.CounterReader, opts ...Option) *Sampler {
	if count < 1 {
		count = 1
	}
	s := &Sampler{
		counters: counters,
		records:  make([]record, count),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FrequencyScaled reports whether loads are scaled by frequency.
func (s *Sampler) FrequencyScaled() bool {
	return s.freq != nil
}

// Reset drops all previous readings so the next sample starts from a fresh
// reference time.
func (s *Sampler) Reset() {
	for i := range s.records {
		s.records[i] = record{}
	}
}

// Sample reads every online unit and returns the aggregate load.
//
// All counters are read before any record is updated: a read failure
// returns an ErrCodeSampling error and leaves the previous readings intact.
// A unit's first reading, a zero wall delta, or a wall delta smaller than
// the idle delta contributes nothing for this pass.
func (s *Sampler) Sample(online []unit.ID) (Sample, error) {
	if len(online) == 0 {
		return Sample{}, ErrNoActiveUnits
	}

	readings := make([]reading, len(online))
	for i, id := range online {
		idle, wall, err := s.counters.ReadUnitCounters(id)
		if err != nil {
			return Sample{}, errors.WrapWithContext(errors.ErrCodeSampling,
				"failed to read unit counters", err, map[string]any{"unit": uint(id)})
		}
		r := reading{idle: idle, wall: wall}
		if s.freq != nil {
			r.cur, r.max, err = s.freq.ReadUnitFrequency(id)
			if err != nil {
				return Sample{}, errors.WrapWithContext(errors.ErrCodeSampling,
					"failed to read unit frequency", err, map[string]any{"unit": uint(id)})
			}
			if r.max == 0 {
				return Sample{}, errors.New(errors.ErrCodeSampling,
					fmt.Sprintf("unit %d reports zero maximum frequency", id))
			}
		}
		readings[i] = r
	}

	out := Sample{Units: make([]UnitLoad, len(online))}
	var total uint64
	for i, id := range online {
		rec := s.record(id)
		r := readings[i]
		ul := UnitLoad{ID: id}

		if rec.primed {
			idleDelta := delta(r.idle, rec.prevIdle)
			wallDelta := delta(r.wall, rec.prevWall)
			if wallDelta > 0 && wallDelta >= idleDelta {
				busy := 100 * (wallDelta - idleDelta) / wallDelta
				ul.IdleDepth = 100 - busy
				ul.Load = busy
				if s.freq != nil {
					ul.Load = busy * r.cur / r.max
				}
				ul.Valid = true
				total += ul.Load
			}
		}

		rec.prevIdle, rec.prevWall, rec.primed = r.idle, r.wall, true
		out.Units[i] = ul
	}

	out.Load = total / uint64(len(online))
	return out, nil
}

func (s *Sampler) record(id unit.ID) *record {
	if int(id) >= len(s.records) {
		grown := make([]record, int(id)+1)
		copy(grown, s.records)
		s.records = grown
	}
	return &s.records[id]
}

// delta returns now-prev, or zero when the counter went backwards.
func delta(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	return 0
}
