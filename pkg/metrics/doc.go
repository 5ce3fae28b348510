// Package metrics exposes Prometheus collectors for the governors.
//
// Collectors register with the default registry through promauto and are
// served by the /metrics endpoint of pkg/server.
package metrics
