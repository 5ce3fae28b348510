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
	"log/slog"

	"github.com/NVIDIA/cns-governor/pkg/unit"
)

// ThermalSampler reads one temperature sensor.
type ThermalSampler struct {
	reader unit.TemperatureReader
	sensor string
}

// NewThermal returns a sampler bound to sensor.
func NewThermal(reader unit.TemperatureReader, sensor string) *ThermalSampler {
	return &ThermalSampler{reader: reader, sensor: sensor}
}

// Sensor returns the sensor identity.
func (t *ThermalSampler) Sensor() string {
	return t.sensor
}

// Sample returns the current temperature in degrees Celsius. On a read
// failure ok is false; a failed read is never reported as zero.
func (t *ThermalSampler) Sample() (temp int, ok bool) {
	temp, err := t.reader.ReadTemperature(t.sensor)
	if err != nil {
		slog.Debug("temperature read failed", "sensor", t.sensor, "error", err)
		return 0, false
	}
	return temp, true
}
