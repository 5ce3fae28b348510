// Package thermal implements the temperature-based maximum frequency limiter.
//
// Each cycle reads one sensor and walks a staged ladder over the unit's
// frequency table (see Decide). There is no debounce: the ladder is
// re-evaluated from the current reading every cycle, and a cap equal to the
// one already applied causes no actuator call.
package thermal
