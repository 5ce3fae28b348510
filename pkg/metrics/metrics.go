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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeSkipped         = "skipped"
	OutcomeActuationFailed = "actuation_failed"
)

// Actuation results.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnsgov_cycles_total",
			Help: "Total number of governor cycles by outcome",
		},
		[]string{"governor", "outcome"},
	)

	cycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cnsgov_cycle_duration_seconds",
			Help:    "Governor cycle latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"governor"},
	)

	actuationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnsgov_actuations_total",
			Help: "Total number of actuator calls by action and result",
		},
		[]string{"governor", "action", "result"},
	)

	lastMetric = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cnsgov_last_metric",
			Help: "Last sampled metric (load percent or degrees Celsius)",
		},
		[]string{"governor"},
	)

	onlineUnits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cnsgov_online_units",
			Help: "Number of units online after the last hotplug cycle",
		},
	)

	frequencyCap = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cnsgov_frequency_cap_khz",
			Help: "Applied maximum frequency cap in kHz, 0 when unrestricted",
		},
	)

	tunableWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnsgov_tunable_writes_total",
			Help: "Total number of tunable writes by result",
		},
		[]string{"governor", "result"},
	)

	governorActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cnsgov_governor_active",
			Help: "Whether the governor loop is scheduling cycles",
		},
		[]string{"governor"},
	)
)

// ObserveCycle records a finished cycle.
func ObserveCycle(governor, outcome string, seconds float64) {
	cyclesTotal.WithLabelValues(governor, outcome).Inc()
	cycleDuration.WithLabelValues(governor).Observe(seconds)
}

// ObserveActuation records one actuator call.
func ObserveActuation(governor, action string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	actuationsTotal.WithLabelValues(governor, action, result).Inc()
}

// SetLastMetric records the metric a decision was based on.
func SetLastMetric(governor string, v float64) {
	lastMetric.WithLabelValues(governor).Set(v)
}

// SetOnlineUnits records the online unit count.
func SetOnlineUnits(n int) {
	onlineUnits.Set(float64(n))
}

// SetFrequencyCap records the applied cap; pass 0 for no cap.
func SetFrequencyCap(khz uint64) {
	frequencyCap.Set(float64(khz))
}

// ObserveTunableWrite records a tunable write attempt.
func ObserveTunableWrite(governor string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	tunableWrites.WithLabelValues(governor, result).Inc()
}

// SetActive records whether a governor loop is enabled.
func SetActive(governor string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	governorActive.WithLabelValues(governor).Set(v)
}
