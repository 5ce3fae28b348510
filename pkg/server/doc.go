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

// Package server provides the HTTP server that hosts the cnsgov tunable
// and status API.
//
// The server owns the cross-cutting concerns; API packages only supply
// handlers keyed by http.ServeMux pattern:
//
//	s := server.New(
//	    server.WithName("cnsgov"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "GET /v1/status": h.Status,
//	    }),
//	)
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//
// # Middleware
//
// Every supplied handler is wrapped, outermost first, with:
//
//   - Prometheus metrics (cnsgov_http_*), labeled by matched route
//   - API version negotiation via Accept: application/vnd.nvidia.cnsgov.v1+json
//   - X-Request-Id propagation (UUID) for log correlation
//   - Panic recovery
//   - Token bucket rate limiting (golang.org/x/time/rate)
//   - Debug request logging
//
// # System endpoints
//
//	GET /         server name, version, readiness and routes
//	GET /health   liveness
//	GET /ready    readiness; 503 while starting or shutting down
//	GET /metrics  Prometheus exposition
//
// # Errors
//
// WriteErrorFromErr maps a pkg/errors StructuredError onto an HTTP status
// and a JSON ErrorResponse carrying the code, request ID and a retryable
// hint.
//
// # Configuration
//
// NewConfig applies defaults from pkg/defaults. PORT and
// SHUTDOWN_TIMEOUT_SECONDS override the listen port and drain window.
package server
