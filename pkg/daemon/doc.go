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

// Package daemon wires the governors, their tunable stores and scheduler
// loops, and the HTTP API into one process.
//
// Run blocks until its context is canceled. While running:
//   - SIGUSR1 suspends and SIGUSR2 resumes every suspendable governor
//   - systemd is told READY=1 once started and STOPPING=1 on the way out,
//     and WATCHDOG=1 is sent at half of WatchdogSec when configured
//   - the status view is optionally published to a file or ConfigMap
//
// On shutdown every loop is disabled, which restores all units online and
// clears any frequency cap, and then stopped.
package daemon
