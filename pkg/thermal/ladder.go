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

import "github.com/NVIDIA/cns-governor/pkg/unit"

const (
	// OverTemp is the absolute ceiling in degrees Celsius. Above it the cap
	// drops to OverTempIndex regardless of the configured step.
	OverTemp = 88

	// OverTempIndex is the frequency table index used above OverTemp.
	OverTempIndex = 2

	// secondStage and thirdStage are the offsets above the limit at which
	// the cap steps down a second and third time.
	secondStage = 6
	thirdStage  = 14
)

// Ladder is the per-cycle snapshot of the limiter tunables.
type Ladder struct {
	LimitTemp  int
	Hysteresis int
	FreqStep   int
}

// Decide maps a temperature to a frequency cap from table (ascending).
//
//	temp > limit       -> table[top - step]
//	temp > limit + 6   -> table[top - 2*step]
//	temp > limit + 14  -> table[top - 3*step], or table[2] above OverTemp
//	temp < limit - hys -> unit.NoLimit
//
// Between limit-hysteresis and limit the current cap is kept. Indices are
// clamped to the table. An empty table keeps the current cap.
func Decide(temp int, table []uint64, current uint64, l Ladder) uint64 {
	if len(table) == 0 {
		return current
	}
	top := len(table) - 1

	switch {
	case temp > l.LimitTemp:
		idx := top - l.FreqStep
		if temp > l.LimitTemp+secondStage {
			idx = top - 2*l.FreqStep
			if temp > l.LimitTemp+thirdStage {
				idx = top - 3*l.FreqStep
				if temp > OverTemp {
					idx = OverTempIndex
				}
			}
		}
		return table[clampIndex(idx, top)]
	case temp < l.LimitTemp-l.Hysteresis:
		return unit.NoLimit
	default:
		return current
	}
}

func clampIndex(idx, top int) int {
	if idx < 0 {
		return 0
	}
	if idx > top {
		return top
	}
	return idx
}
