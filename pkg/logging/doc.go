// Package logging provides structured logging utilities for the governor daemon.
//
// # Overview
//
// This package wraps the standard library slog package with CNS-specific defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)

// Package logging configures the process-wide slog logger used by cnsgov.
//
// Records are JSON on stderr and always carry the module and version that
// produced them. Debug level adds source locations, which is handy when
// following per-cycle counter traces from the hotplug governor:
//
//	{"time":"...","level":"DEBUG","source":{...},"msg":"hotplug cycle",
//	 "module":"cnsgov","version":"v0.3.0","load":72,"escalate":1,"deescalate":0}
//
// The level comes from --log-level, or LOG_LEVEL when the flag is absent,
// and accepts debug, info, warn (or warning) and error in any case. Anything
// else is info.
//
//	LOG_LEVEL=debug cnsgov run -c /etc/cnsgov/config.yaml
//
// NewLogLogger bridges components that still want a *log.Logger, such as
// http.Server.ErrorLog.
package logging
