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

package unit

import "math"

// ID identifies an actuatable unit (a CPU core).
type ID uint

// Primary is never taken offline by the automatic logic.
const Primary ID = 0

// NoLimit passed to ApplyFrequencyCap removes any cap.
const NoLimit uint64 = math.MaxUint64

// Topology reports the units known to the host.
type Topology interface {
	// Count returns the number of actuatable units, online or not.
	Count() int
	// Online returns the currently online units in ascending order.
	Online() ([]ID, error)
}

// Switch brings units online and takes them offline.
type Switch interface {
	BringOnline(id ID) error
	TakeOffline(id ID) error
}

// CounterReader returns cumulative idle and wall time for a unit in microseconds.
type CounterReader interface {
	ReadUnitCounters(id ID) (idleUs, wallUs uint64, err error)
}

// FrequencyReader returns the current and maximum operating frequency in kHz.
type FrequencyReader interface {
	ReadUnitFrequency(id ID) (cur, max uint64, err error)
}

// FrequencyCapper limits the maximum frequency a unit may select.
type FrequencyCapper interface {
	ApplyFrequencyCap(id ID, capKHz uint64) error
}

// Retargeter asks the unit's frequency policy to re-evaluate now.
type Retargeter interface {
	Retarget(id ID) error
}

// FrequencyTableReader returns the selectable frequencies of a unit in
// ascending order.
type FrequencyTableReader interface {
	FrequencyTable(id ID) ([]uint64, error)
}

// TemperatureReader reads a sensor in degrees Celsius.
type TemperatureReader interface {
	ReadTemperature(sensor string) (int, error)
}
