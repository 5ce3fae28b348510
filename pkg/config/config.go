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
	"fmt"
	"strings"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/defaults"
	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/header"
	"github.com/NVIDIA/cns-governor/pkg/hotplug"
	"github.com/NVIDIA/cns-governor/pkg/serializer"
	"github.com/NVIDIA/cns-governor/pkg/server"
	"github.com/NVIDIA/cns-governor/pkg/sysfs"
	"github.com/NVIDIA/cns-governor/pkg/thermal"
)

// Duration is a time.Duration that reads and writes as "20s" in both JSON
// and YAML.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// Config is the daemon configuration file.
type Config struct {
	header.Header `json:",inline" yaml:",inline"`

	Server   ServerConfig  `json:"server" yaml:"server"`
	SysRoot  string        `json:"sysRoot,omitempty" yaml:"sysRoot,omitempty"`
	ProcRoot string        `json:"procRoot,omitempty" yaml:"procRoot,omitempty"`
	Hotplug  HotplugConfig `json:"hotplug" yaml:"hotplug"`
	Thermal  ThermalConfig `json:"thermal" yaml:"thermal"`
	Status   StatusConfig  `json:"status" yaml:"status"`
}

// ServerConfig sets the tunable API listen address.
type ServerConfig struct {
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// HotplugConfig configures the load governor. Tunables are applied to the
// governor's store at start; values are strings as written to the API.
type HotplugConfig struct {
	Enabled         *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Policy          string            `json:"policy,omitempty" yaml:"policy,omitempty"`
	FrequencyScaled bool              `json:"frequencyScaled,omitempty" yaml:"frequencyScaled,omitempty"`
	InitialDelay    *Duration         `json:"initialDelay,omitempty" yaml:"initialDelay,omitempty"`
	Tunables        map[string]string `json:"tunables,omitempty" yaml:"tunables,omitempty"`
}

// ThermalConfig configures the frequency limiter.
type ThermalConfig struct {
	Enabled  *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Sensor   string            `json:"sensor,omitempty" yaml:"sensor,omitempty"`
	Tunables map[string]string `json:"tunables,omitempty" yaml:"tunables,omitempty"`
}

// StatusConfig optionally publishes the status view on an interval to a
// file or a cm://namespace/name ConfigMap.
type StatusConfig struct {
	Output   string   `json:"output,omitempty" yaml:"output,omitempty"`
	Format   string   `json:"format,omitempty" yaml:"format,omitempty"`
	Interval Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// DefaultStatusInterval is used when a status output is set without an
// interval.
const DefaultStatusInterval = Duration(time.Minute)

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path (local file or cm://namespace/name), fills defaults and
// validates the result. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	c, err := serializer.FromFile[Config](path, serializer.WithStrict())
	if err != nil {
		return nil, cnserrors.WrapWithContext(cnserrors.ErrCodeInvalidRequest,
			"failed to load configuration", err, map[string]any{"path": path})
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = server.DefaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = server.DefaultPort
	}
	if c.SysRoot == "" {
		c.SysRoot = sysfs.DefaultSysRoot
	}
	if c.ProcRoot == "" {
		c.ProcRoot = sysfs.DefaultProcRoot
	}
	if c.Hotplug.Policy == "" {
		c.Hotplug.Policy = hotplug.HardReset.String()
	}
	if c.Hotplug.InitialDelay == nil {
		d := Duration(defaults.HotplugInitialDelay)
		c.Hotplug.InitialDelay = &d
	}
	if c.Thermal.Sensor == "" {
		c.Thermal.Sensor = defaults.ThermalSensor
	}
	if c.Status.Output != "" {
		if c.Status.Format == "" {
			c.Status.Format = string(serializer.FormatYAML)
		}
		if c.Status.Interval == 0 {
			c.Status.Interval = DefaultStatusInterval
		}
	}
}

// Validate checks the configuration, including that every tunable override
// names a known parameter and parses within its range.
func (c *Config) Validate() error {
	if err := c.Header.Check(header.KindConfig); err != nil {
		return cnserrors.Wrap(cnserrors.ErrCodeInvalidRequest, "invalid configuration header", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port must be between 1 and 65535", "port", c.Server.Port)
	}
	if _, err := hotplug.ParsePolicy(c.Hotplug.Policy); err != nil {
		return cnserrors.Wrap(cnserrors.ErrCodeInvalidRequest, "invalid hotplug.policy", err)
	}
	if c.Hotplug.InitialDelay != nil && *c.Hotplug.InitialDelay < 0 {
		return invalid("hotplug.initialDelay cannot be negative", "initialDelay", c.Hotplug.InitialDelay.String())
	}
	if err := hotplug.NewTunables().Apply(c.Hotplug.Tunables); err != nil {
		return cnserrors.Wrap(cnserrors.ErrCodeInvalidRequest, "invalid hotplug.tunables", err)
	}
	if err := thermal.NewTunables().Apply(c.Thermal.Tunables); err != nil {
		return cnserrors.Wrap(cnserrors.ErrCodeInvalidRequest, "invalid thermal.tunables", err)
	}
	if c.Status.Output != "" {
		if serializer.Format(c.Status.Format).IsUnknown() {
			return invalid("unknown status.format", "format", c.Status.Format)
		}
		if c.Status.Interval <= 0 {
			return invalid("status.interval must be positive", "interval", c.Status.Interval.String())
		}
	}
	return nil
}

// HotplugEnabled reports whether the load governor should run.
func (c *Config) HotplugEnabled() bool {
	return c.Hotplug.Enabled == nil || *c.Hotplug.Enabled
}

// ThermalEnabled reports whether the frequency limiter should run.
func (c *Config) ThermalEnabled() bool {
	return c.Thermal.Enabled == nil || *c.Thermal.Enabled
}

// String returns d in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

func invalid(msg, key string, value any) error {
	return cnserrors.NewWithContext(cnserrors.ErrCodeInvalidRequest, msg, map[string]any{key: value})
}
