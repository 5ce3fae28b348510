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

package hotplug

import (
	"github.com/NVIDIA/cns-governor/pkg/defaults"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
)

// Tunable names.
const (
	ParamActive             = "active"
	ParamUpThresholdOne     = "up_threshold_one"
	ParamUpThresholdAll     = "up_threshold_all"
	ParamEscalateDebounce   = "escalate_debounce"
	ParamDescendAllDebounce = "descend_all_debounce"
	ParamDownThreshold      = "down_threshold"
	ParamDownDebounce       = "down_debounce"
	ParamSamplePeriod       = "sample_period_ms"
	ParamMinUnits           = "min_units"
	ParamMaxUnits           = "max_units"
	ParamFallbackUp         = "fallback_up_threshold"
	ParamFallbackDown       = "fallback_down_threshold"
	ParamDebug              = "debug"
)

// Name is the governor name used for its tunable store, metrics and routes.
const Name = "hotplug"

// NewTunables returns the hotplug tunable store at its defaults.
func NewTunables() *tunable.Store {
	return tunable.NewStore(Name,
		tunable.Param{Name: ParamActive, Kind: tunable.KindBool, Default: 1,
			Description: "enable the governor; disabling brings every unit online"},
		tunable.Param{Name: ParamUpThresholdOne, Default: defaults.HotplugUpThresholdOne, Max: 100,
			Description: "load percent above which one unit is brought online"},
		tunable.Param{Name: ParamUpThresholdAll, Default: defaults.HotplugUpThresholdAll, Max: 100,
			Description: "load percent above which every unit is brought online"},
		tunable.Param{Name: ParamEscalateDebounce, Default: defaults.HotplugEscalateDebounce,
			Description: "consecutive samples above up_threshold_one before escalating one unit"},
		tunable.Param{Name: ParamDescendAllDebounce, Default: defaults.HotplugDescendAllDebounce,
			Description: "consecutive samples above up_threshold_all before escalating to max_units"},
		tunable.Param{Name: ParamDownThreshold, Default: defaults.HotplugDownThreshold, Max: 100,
			Description: "load percent below which one unit is taken offline"},
		tunable.Param{Name: ParamDownDebounce, Default: defaults.HotplugDownDebounce,
			Description: "consecutive samples below down_threshold before de-escalating"},
		tunable.Param{Name: ParamSamplePeriod, Kind: tunable.KindMillis, Min: 1,
			Default:     uint64(defaults.HotplugSamplePeriod.Milliseconds()),
			Description: "sampling period in milliseconds"},
		tunable.Param{Name: ParamMinUnits, Default: defaults.HotplugMinUnits, Min: 1,
			Description: "fewest units kept online"},
		tunable.Param{Name: ParamMaxUnits, Default: defaults.HotplugMaxUnits, Min: 1,
			Description: "most units brought online"},
		tunable.Param{Name: ParamFallbackUp, Default: defaults.HotplugFallbackUp, Max: 100,
			Description: "escalation threshold used while a single unit is online"},
		tunable.Param{Name: ParamFallbackDown, Default: defaults.HotplugFallbackDown, Max: 100,
			Description: "de-escalation threshold used while two or fewer units are online"},
		tunable.Param{Name: ParamDebug, Kind: tunable.KindBool,
			Description: "log counters and load every cycle"},
	)
}

// ParamsFrom snapshots the decision parameters from store.
func ParamsFrom(store *tunable.Store) Params {
	v := store.Snapshot()
	return Params{
		MinUnits:           v[ParamMinUnits],
		MaxUnits:           v[ParamMaxUnits],
		UpThresholdOne:     v[ParamUpThresholdOne],
		UpThresholdAll:     v[ParamUpThresholdAll],
		EscalateDebounce:   v[ParamEscalateDebounce],
		DescendAllDebounce: v[ParamDescendAllDebounce],
		DownThreshold:      v[ParamDownThreshold],
		DownDebounce:       v[ParamDownDebounce],
		FallbackUp:         v[ParamFallbackUp],
		FallbackDown:       v[ParamFallbackDown],
	}
}
