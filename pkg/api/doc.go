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

// Package api exposes the governors over HTTP and provides the matching
// client used by the CLI.
//
// Endpoints:
//
//	GET  /v1/tunables                    every governor's tunables
//	GET  /v1/tunables/{governor}         one governor
//	GET  /v1/tunables/{governor}/{name}  one tunable
//	PUT  /v1/tunables/{governor}/{name}  write the raw request body
//	GET  /v1/status                      loop state, governor detail, recent decisions
//	POST /v1/events/{suspend|resume}     system power events
//
// Errors use the server.ErrorResponse envelope with pkg/errors codes.
// Writing "active" blocks until the governor has been enabled or disabled,
// including the final corrective actuation on disable.
package api
