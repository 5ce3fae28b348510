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

package thermal

import (
	"github.com/NVIDIA/cns-governor/pkg/defaults"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
)

// Name is the governor name used for its tunable store, metrics and routes.
const Name = "thermal"

// Tunable names.
const (
	ParamActive     = "active"
	ParamLimitTemp  = "limit_temp"
	ParamHysteresis = "hysteresis_temp"
	ParamFreqStep   = "freq_step"
	ParamPollPeriod = "poll_ms"
)

// NewTunables returns the thermal tunable store at its defaults.
func NewTunables() *tunable.Store {
	return tunable.NewStore(Name,
		tunable.Param{Name: ParamActive, Kind: tunable.KindBool, Default: 1,
			Description: "enable the limiter; disabling clears any frequency cap"},
		tunable.Param{Name: ParamLimitTemp, Default: defaults.ThermalLimitTemp, Max: 150,
			Description: "temperature in degrees Celsius above which frequency is capped"},
		tunable.Param{Name: ParamHysteresis, Default: defaults.ThermalHysteresisTemp, Max: 150,
			Description: "degrees below limit_temp at which the cap is removed"},
		tunable.Param{Name: ParamFreqStep, Default: defaults.ThermalFreqStep, Max: 64,
			Description: "frequency table steps dropped per ladder stage"},
		tunable.Param{Name: ParamPollPeriod, Kind: tunable.KindMillis, Min: 1,
			Default:     uint64(defaults.ThermalPollPeriod.Milliseconds()),
			Description: "sensor polling period in milliseconds"},
	)
}

// LadderFrom snapshots the ladder parameters from store.
func LadderFrom(store *tunable.Store) Ladder {
	v := store.Snapshot()
	return Ladder{
		LimitTemp:  int(v[ParamLimitTemp]),
		Hysteresis: int(v[ParamHysteresis]),
		FreqStep:   int(v[ParamFreqStep]),
	}
}
