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

package defaults

import "time"

// Hotplug governor tunable defaults.
const (
	HotplugUpThresholdOne     = 60
	HotplugUpThresholdAll     = 98
	HotplugEscalateDebounce   = 2
	HotplugDescendAllDebounce = 1
	HotplugDownThreshold      = 30
	HotplugDownDebounce       = 10
	HotplugSamplePeriod       = 200 * time.Millisecond
	HotplugMinUnits           = 1
	HotplugMaxUnits           = 4

	// HotplugFallbackUp replaces the single-step threshold while only one
	// unit is online.
	HotplugFallbackUp = 20

	// HotplugFallbackDown replaces the de-escalation threshold while two or
	// fewer units are online.
	HotplugFallbackDown = 5

	// HotplugInitialDelay holds off the first cycle after start so boot
	// activity does not drive decisions.
	HotplugInitialDelay = 20 * time.Second

	// JournalCapacity is the number of decisions kept for the status view.
	JournalCapacity = 64
)

// Thermal limiter tunable defaults.
const (
	ThermalLimitTemp      = 80
	ThermalHysteresisTemp = 5
	ThermalFreqStep       = 2
	ThermalPollPeriod     = 250 * time.Millisecond
	ThermalSensor         = "0"
)
