// Package sampler turns raw unit counters into the metrics the governors
// decide on.
//
// Sampler keeps one record per unit (idle and wall time from the previous
// pass) in an arena sized to the unit count. Each pass computes
//
//	load = 100 * (wall_delta - idle_delta) / wall_delta
//
// per online unit, optionally scaled by cur/max frequency, and divides the
// sum by the number of online units. A unit's first reading only primes its
// record. Asking for a sample with no online units returns ErrNoActiveUnits.
//
// ThermalSampler wraps a single temperature sensor and reports a failed read
// as "no sample" rather than zero degrees.
package sampler
