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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/defaults"
	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "127.0.0.1", c.Server.Address)
	assert.Equal(t, 8089, c.Server.Port)
	assert.Equal(t, "/sys", c.SysRoot)
	assert.Equal(t, "/proc", c.ProcRoot)
	assert.Equal(t, "hard-reset", c.Hotplug.Policy)
	assert.Equal(t, defaults.HotplugInitialDelay, time.Duration(*c.Hotplug.InitialDelay))
	assert.Equal(t, defaults.ThermalSensor, c.Thermal.Sensor)
	assert.True(t, c.HotplugEnabled())
	assert.True(t, c.ThermalEnabled())
	assert.Empty(t, c.Status.Output)
	assert.NoError(t, c.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "cnsgov.yaml", `
kind: GovernorConfig
apiVersion: cnsgov.nvidia.com/v1
server:
  port: 9000
sysRoot: /host/sys
hotplug:
  policy: decay-one
  frequencyScaled: true
  initialDelay: 5s
  tunables:
    max_units: "8"
    down_debounce: "4"
thermal:
  enabled: false
  sensor: x86_pkg_temp
status:
  output: cm://kube-system/cnsgov
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", c.Server.Address)
	assert.Equal(t, header.KindConfig, c.Kind)
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, "/host/sys", c.SysRoot)
	assert.Equal(t, "/proc", c.ProcRoot)
	assert.Equal(t, "decay-one", c.Hotplug.Policy)
	assert.True(t, c.Hotplug.FrequencyScaled)
	assert.Equal(t, 5*time.Second, time.Duration(*c.Hotplug.InitialDelay))
	assert.Equal(t, map[string]string{"max_units": "8", "down_debounce": "4"}, c.Hotplug.Tunables)
	assert.True(t, c.HotplugEnabled())
	assert.False(t, c.ThermalEnabled())
	assert.Equal(t, "x86_pkg_temp", c.Thermal.Sensor)
	assert.Equal(t, "yaml", c.Status.Format)
	assert.Equal(t, DefaultStatusInterval, c.Status.Interval)
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "cnsgov.json", `{
  "hotplug": {"initialDelay": "0s", "tunables": {"active": "0"}},
  "status": {"output": "/tmp/status.json", "format": "json", "interval": "30s"}
}`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, *c.Hotplug.InitialDelay)
	assert.Equal(t, "0", c.Hotplug.Tunables["active"])
	assert.Equal(t, Duration(30*time.Second), c.Status.Interval)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown field", "c.yaml", "hotplug:\n  bogus: 1\n"},
		{"bad policy", "c.yaml", "hotplug:\n  policy: sometimes\n"},
		{"bad duration", "c.yaml", "hotplug:\n  initialDelay: soon\n"},
		{"negative delay", "c.yaml", "hotplug:\n  initialDelay: -1s\n"},
		{"unknown tunable", "c.yaml", "hotplug:\n  tunables:\n    turbo: \"1\"\n"},
		{"tunable out of range", "c.yaml", "hotplug:\n  tunables:\n    up_threshold_one: \"101\"\n"},
		{"bad thermal tunable", "c.yaml", "thermal:\n  tunables:\n    poll_ms: \"0\"\n"},
		{"bad port", "c.yaml", "server:\n  port: 70000\n"},
		{"bad status format", "c.yaml", "status:\n  output: out.txt\n  format: xml\n"},
		{"malformed json", "c.json", "{"},
		{"wrong kind", "c.yaml", "kind: GovernorStatus\n"},
		{"wrong apiVersion", "c.yaml", "apiVersion: v2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, cnserrors.HasCode(err, cnserrors.ErrCodeInvalidRequest), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1m30s ")))
	assert.Equal(t, Duration(90*time.Second), d)

	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))

	assert.Error(t, d.UnmarshalText([]byte("90")))
}
