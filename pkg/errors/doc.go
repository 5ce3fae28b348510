// Package errors provides structured error types for better observability
// and programmatic error handling across the governor.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeSampling,
//	    "failed to read zone temperature",
//	    cause,
//	    map[string]any{
//	        "sensor": sensorID,
//	    },
//	)
//
// Sampling and actuation failures carry their own codes so the control
// loops can tell a skipped cycle from a refused transition:
//
//	if errors.HasCode(err, errors.ErrCodeSampling) {
//	    // re-arm without deciding
//	}
package errors
