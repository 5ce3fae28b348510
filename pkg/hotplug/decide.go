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
	"fmt"
	"strings"
)

// Policy selects how the de-escalation counter behaves when load recovers.
type Policy int

const (
	// HardReset zeroes the de-escalation counter as soon as load is back at
	// or above the down threshold.
	HardReset Policy = iota
	// DecayOne decrements the de-escalation counter by one instead, so a
	// single noisy sample does not discard accumulated evidence.
	DecayOne
)

// String returns the policy name used in configuration.
func (p Policy) String() string {
	switch p {
	case DecayOne:
		return "decay-one"
	default:
		return "hard-reset"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hard-reset", "hardreset":
		return HardReset, nil
	case "decay-one", "decayone":
		return DecayOne, nil
	default:
		return HardReset, fmt.Errorf("unknown hysteresis policy %q", s)
	}
}

// Action is the outcome of one decision.
type Action int

const (
	None Action = iota
	EscalateOne
	EscalateAll
	DeescalateOne
)

// String returns the action name used in logs and the journal.
func (a Action) String() string {
	switch a {
	case EscalateOne:
		return "escalate_one"
	case EscalateAll:
		return "escalate_all"
	case DeescalateOne:
		return "deescalate_one"
	default:
		return "none"
	}
}

// Counters are the debounce counters carried between cycles.
type Counters struct {
	Escalate   uint64 `json:"escalate" yaml:"escalate"`
	DescendAll uint64 `json:"descendAll" yaml:"descendAll"`
	Deescalate uint64 `json:"deescalate" yaml:"deescalate"`
}

// Params is the per-cycle snapshot of the hotplug tunables.
type Params struct {
	MinUnits           uint64
	MaxUnits           uint64
	UpThresholdOne     uint64
	UpThresholdAll     uint64
	EscalateDebounce   uint64
	DescendAllDebounce uint64
	DownThreshold      uint64
	DownDebounce       uint64
	// FallbackUp replaces UpThresholdOne while one unit or fewer is online.
	FallbackUp uint64
	// FallbackDown replaces DownThreshold while two units or fewer are online.
	FallbackDown uint64
}

// Normalize enforces 1 <= MinUnits <= MaxUnits <= count.
func (p Params) Normalize(count int) Params {
	if p.MinUnits < 1 {
		p.MinUnits = 1
	}
	if p.MaxUnits < p.MinUnits {
		p.MaxUnits = p.MinUnits
	}
	if count > 0 && p.MaxUnits > uint64(count) {
		p.MaxUnits = uint64(count)
	}
	if p.MinUnits > p.MaxUnits {
		p.MinUnits = p.MaxUnits
	}
	return p
}

// Input is what one cycle observed.
type Input struct {
	Load   uint64
	Online int
}

// Decide runs one step of the hysteresis state machine. It is pure: the
// returned counters replace the caller's, and all counters are zero after
// any action.
func Decide(in Input, c Counters, p Params, policy Policy) (Action, Counters) {
	online := uint64(in.Online)

	up := p.FallbackUp
	if online > 1 {
		up = p.UpThresholdOne
	}
	down := p.FallbackDown
	if online > 2 {
		down = p.DownThreshold
	}

	if in.Load > up && online < p.MaxUnits {
		c.Escalate++
		c.Deescalate = 0
		if in.Load > p.UpThresholdAll {
			c.DescendAll++
			if c.DescendAll > p.DescendAllDebounce {
				return EscalateAll, Counters{}
			}
		} else if c.Escalate > p.EscalateDebounce {
			return EscalateOne, Counters{}
		}
		return None, c
	}

	c.Escalate = 0
	c.DescendAll = 0
	if in.Load < down && online > p.MinUnits {
		c.Deescalate++
		if c.Deescalate > p.DownDebounce {
			return DeescalateOne, Counters{}
		}
		return None, c
	}

	switch policy {
	case DecayOne:
		if c.Deescalate > 0 {
			c.Deescalate--
		}
	default:
		c.Deescalate = 0
	}
	return None, c
}
