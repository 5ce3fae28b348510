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

package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Thermal reads thermal zones under /sys/class/thermal.
type Thermal struct {
	root   string
	parser *Parser
}

// NewThermal creates a Thermal adapter rooted at sysRoot.
func NewThermal(sysRoot string) *Thermal {
	if sysRoot == "" {
		sysRoot = DefaultSysRoot
	}
	return &Thermal{
		root:   filepath.Join(sysRoot, "class", "thermal"),
		parser: NewParser(),
	}
}

// ReadTemperature returns the temperature of sensor in whole degrees
// Celsius. A numeric sensor names thermal_zone<N>; anything else is matched
// against each zone's type.
func (t *Thermal) ReadTemperature(sensor string) (int, error) {
	zone, err := t.zoneDir(sensor)
	if err != nil {
		return 0, err
	}
	milli, err := t.parser.ReadInt(filepath.Join(zone, "temp"))
	if err != nil {
		return 0, err
	}
	return int(milli / 1000), nil
}

func (t *Thermal) zoneDir(sensor string) (string, error) {
	sensor = strings.TrimSpace(sensor)
	if _, err := strconv.ParseUint(sensor, 10, 32); err == nil {
		return filepath.Join(t.root, "thermal_zone"+sensor), nil
	}

	entries, err := os.ReadDir(t.root)
	if err != nil {
		return "", fmt.Errorf("failed to list thermal zones: %w", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "thermal_zone") {
			continue
		}
		dir := filepath.Join(t.root, e.Name())
		typ, err := t.parser.ReadString(filepath.Join(dir, "type"))
		if err == nil && typ == sensor {
			return dir, nil
		}
	}
	return "", fmt.Errorf("thermal sensor %q: %w", sensor, os.ErrNotExist)
}
