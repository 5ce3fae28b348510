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

// Handler timeouts for HTTP request processing.
const (
	// TunableHandlerTimeout bounds a tunable read or write request.
	TunableHandlerTimeout = 5 * time.Second

	// StatusHandlerTimeout bounds a status request, which fans out to every
	// governor and the decision journal.
	StatusHandlerTimeout = 10 * time.Second

	// EventHandlerTimeout bounds a suspend or resume request.
	// Suspend offlines units one by one, so it is longer than a tunable write.
	EventHandlerTimeout = 30 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// Governor lifecycle timeouts.
const (
	// GovernorDisableTimeout bounds Disable: waiting for the in-flight cycle
	// plus the final corrective actuation.
	GovernorDisableTimeout = 15 * time.Second

	// WatchdogFallbackInterval is used when systemd requests a watchdog but
	// the interval cannot be determined.
	WatchdogFallbackInterval = 10 * time.Second
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sApplyTimeout is the timeout for applying the status ConfigMap.
	K8sApplyTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)
