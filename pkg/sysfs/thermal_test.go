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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThermal_ReadTemperature(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"class/thermal/thermal_zone0/temp":   "45500\n",
		"class/thermal/thermal_zone0/type":   "acpitz\n",
		"class/thermal/thermal_zone1/temp":   "81000\n",
		"class/thermal/thermal_zone1/type":   "x86_pkg_temp\n",
		"class/thermal/thermal_zone2/temp":   "garbage\n",
		"class/thermal/cooling_device0/type": "Processor\n",
	})
	th := NewThermal(root)

	tests := []struct {
		sensor  string
		want    int
		wantErr bool
	}{
		{"0", 45, false},
		{"1", 81, false},
		{"x86_pkg_temp", 81, false},
		{" acpitz ", 45, false},
		{"2", 0, true},
		{"7", 0, true},
		{"missing", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.sensor, func(t *testing.T) {
			got, err := th.ReadTemperature(tt.sensor)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewThermal_DefaultRoot(t *testing.T) {
	assert.Equal(t, "/sys/class/thermal", NewThermal("").root)
}
