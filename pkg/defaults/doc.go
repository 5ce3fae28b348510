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

// Package defaults provides centralized configuration constants for the governor.
//
// Governor tunable defaults live next to the timeout values used by the
// HTTP surface and the daemon, so that fixtures, the config loader and the
// tunable stores all agree on one set of numbers.
//
// # Usage
//
//	import "github.com/NVIDIA/cns-governor/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.GovernorDisableTimeout)
//	defer cancel()
//
// # Timeout Guidelines
//
//   - HTTP handlers: 5s for tunables, 30s for suspend/resume
//   - Governor disable: 15s to drain the in-flight cycle and restore units
//   - Server shutdown: 30s for graceful shutdown
package defaults
