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

// Package sysfs adapts Linux kernel interfaces to the unit contracts used
// by the governors.
//
// CPU covers hotplug (devices/system/cpu/cpuN/online), load counters
// (/proc/stat), and cpufreq (scaling_cur_freq, cpuinfo_max_freq,
// scaling_max_freq, scaling_governor, scaling_available_frequencies).
// Thermal reads thermal_zoneN/temp in millidegrees.
//
// All paths hang off configurable roots so tests run against t.TempDir()
// trees:
//
//	cpu := sysfs.NewCPU(sysfs.WithSysRoot(root+"/sys"), sysfs.WithProcRoot(root+"/proc"))
//	online, err := cpu.Online()
package sysfs
