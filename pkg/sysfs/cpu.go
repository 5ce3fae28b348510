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
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/NVIDIA/cns-governor/pkg/unit"
)

const (
	// DefaultSysRoot is where sysfs is mounted.
	DefaultSysRoot = "/sys"
	// DefaultProcRoot is where procfs is mounted.
	DefaultProcRoot = "/proc"

	// defaultClockTicks is USER_HZ on every mainstream architecture.
	defaultClockTicks = 100
)

// ErrUnitNotFound is returned when a unit has no entry in /proc/stat,
// which is the case for offline CPUs.
var ErrUnitNotFound = stderrors.New("unit not found")

// CPUOption configures a CPU adapter.
type CPUOption func(*CPU)

// WithSysRoot overrides the sysfs mount point.
func WithSysRoot(root string) CPUOption {
	return func(c *CPU) {
		c.sysRoot = root
	}
}

// WithProcRoot overrides the procfs mount point.
func WithProcRoot(root string) CPUOption {
	return func(c *CPU) {
		c.procRoot = root
	}
}

// WithClockTicks overrides USER_HZ used to convert /proc/stat jiffies.
func WithClockTicks(hz int) CPUOption {
	return func(c *CPU) {
		if hz > 0 {
			c.clockTicks = hz
		}
	}
}

// CPU exposes Linux CPU hotplug, cpufreq and /proc/stat counters as the
// unit interfaces.
type CPU struct {
	sysRoot    string
	procRoot   string
	clockTicks int
	parser     *Parser

	countOnce sync.Once
	count     int
}

// NewCPU creates a CPU adapter. USER_HZ defaults to the CLK_TCK environment
// variable, then 100.
func NewCPU(opts ...CPUOption) *CPU {
	c := &CPU{
		sysRoot:    DefaultSysRoot,
		procRoot:   DefaultProcRoot,
		clockTicks: clockTicksFromEnv(),
		parser:     NewParser(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func clockTicksFromEnv() int {
	if v, err := strconv.Atoi(os.Getenv("CLK_TCK")); err == nil && v > 0 {
		return v
	}
	return defaultClockTicks
}

func (c *CPU) cpuDir() string {
	return filepath.Join(c.sysRoot, "devices", "system", "cpu")
}

func (c *CPU) unitPath(id unit.ID, elem ...string) string {
	return filepath.Join(append([]string{c.cpuDir(), fmt.Sprintf("cpu%d", id)}, elem...)...)
}

// Count returns the number of present CPUs. It is read once; a missing
// "present" file yields 1.
func (c *CPU) Count() int {
	c.countOnce.Do(func() {
		c.count = 1
		for _, name := range []string{"present", "possible"} {
			ids, err := c.parser.ReadList(filepath.Join(c.cpuDir(), name))
			if err == nil && len(ids) > 0 {
				c.count = int(ids[len(ids)-1]) + 1
				return
			}
		}
	})
	return c.count
}

// Online returns the online CPUs in ascending order.
func (c *CPU) Online() ([]unit.ID, error) {
	return c.parser.ReadList(filepath.Join(c.cpuDir(), "online"))
}

// BringOnline writes 1 to cpuN/online. CPUs without an online attribute
// (commonly cpu0) are always online.
func (c *CPU) BringOnline(id unit.ID) error {
	err := c.parser.Write(c.unitPath(id, "online"), "1")
	if err != nil && stderrors.Is(err, os.ErrNotExist) && id == unit.Primary {
		return nil
	}
	return err
}

// TakeOffline writes 0 to cpuN/online.
func (c *CPU) TakeOffline(id unit.ID) error {
	return c.parser.Write(c.unitPath(id, "online"), "0")
}

// ReadUnitCounters returns cumulative idle (idle + iowait) and wall time
// (user through steal) for the CPU from /proc/stat, in microseconds.
func (c *CPU) ReadUnitCounters(id unit.ID) (idleUs, wallUs uint64, err error) {
	lines, err := c.parser.ReadLines(filepath.Join(c.procRoot, "stat"))
	if err != nil {
		return 0, 0, err
	}

	label := fmt.Sprintf("cpu%d", id)
	for _, line := range lines {
		fs := strings.Fields(line)
		if len(fs) == 0 || fs[0] != label {
			continue
		}
		if len(fs) < 9 {
			return 0, 0, fmt.Errorf("short /proc/stat line for %s: %q", label, line)
		}
		var vals [8]uint64
		for i := range vals {
			v, err := strconv.ParseUint(fs[i+1], 10, 64)
			if err != nil {
				return 0, 0, fmt.Errorf("invalid /proc/stat field for %s: %w", label, err)
			}
			vals[i] = v
		}
		// user nice system idle iowait irq softirq steal
		idle := vals[3] + vals[4]
		var wall uint64
		for _, v := range vals {
			wall += v
		}
		return c.toMicros(idle), c.toMicros(wall), nil
	}
	return 0, 0, fmt.Errorf("%s: %w", label, ErrUnitNotFound)
}

func (c *CPU) toMicros(jiffies uint64) uint64 {
	return jiffies * 1_000_000 / uint64(c.clockTicks)
}

// ReadUnitFrequency returns scaling_cur_freq and cpuinfo_max_freq in kHz.
func (c *CPU) ReadUnitFrequency(id unit.ID) (cur, maxKHz uint64, err error) {
	cur, err = c.parser.ReadUint(c.unitPath(id, "cpufreq", "scaling_cur_freq"))
	if err != nil {
		return 0, 0, err
	}
	maxKHz, err = c.parser.ReadUint(c.unitPath(id, "cpufreq", "cpuinfo_max_freq"))
	if err != nil {
		return 0, 0, err
	}
	return cur, maxKHz, nil
}

// ApplyFrequencyCap writes scaling_max_freq. unit.NoLimit restores the
// hardware maximum.
func (c *CPU) ApplyFrequencyCap(id unit.ID, capKHz uint64) error {
	if capKHz == unit.NoLimit {
		hw, err := c.parser.ReadUint(c.unitPath(id, "cpufreq", "cpuinfo_max_freq"))
		if err != nil {
			return err
		}
		capKHz = hw
	}
	return c.parser.Write(c.unitPath(id, "cpufreq", "scaling_max_freq"), strconv.FormatUint(capKHz, 10))
}

// Retarget rewrites the current scaling_governor, which makes cpufreq
// re-evaluate the policy limits immediately.
func (c *CPU) Retarget(id unit.ID) error {
	path := c.unitPath(id, "cpufreq", "scaling_governor")
	gov, err := c.parser.ReadString(path)
	if err != nil {
		return err
	}
	return c.parser.Write(path, gov)
}

// FrequencyTable returns scaling_available_frequencies in ascending order.
func (c *CPU) FrequencyTable(id unit.ID) ([]uint64, error) {
	table, err := c.parser.ReadUints(c.unitPath(id, "cpufreq", "scaling_available_frequencies"))
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("cpu%d: empty frequency table", id)
	}
	slices.Sort(table)
	return slices.Compact(table), nil
}

var (
	_ unit.Topology             = (*CPU)(nil)
	_ unit.Switch               = (*CPU)(nil)
	_ unit.CounterReader        = (*CPU)(nil)
	_ unit.FrequencyReader      = (*CPU)(nil)
	_ unit.FrequencyCapper      = (*CPU)(nil)
	_ unit.Retargeter           = (*CPU)(nil)
	_ unit.FrequencyTableReader = (*CPU)(nil)
	_ unit.TemperatureReader    = (*Thermal)(nil)
)
