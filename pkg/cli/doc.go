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

// Package cli implements the cnsgov command-line interface.
//
// # Commands
//
// run - Run the governor daemon:
//
//	cnsgov run [--config FILE|cm://namespace/name] [--address ADDR] [--port PORT]
//
// tunables - Read and write tunables on a running daemon:
//
//	cnsgov tunables list [governor]
//	cnsgov tunables get <governor> <name>
//	cnsgov tunables set <governor> <name> <value>
//
// status - Show governor state and recent decisions:
//
//	cnsgov status [--output FILE|cm://namespace/name] [--format yaml|json|table]
//
// suspend, resume - Send system power events to the daemon:
//
//	cnsgov suspend
//	cnsgov resume
//
// # Global Flags
//
//	--log-level    Logging verbosity (debug, info, warn, error)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// Client commands take --url (CNSGOV_URL) to reach the daemon, which
// listens on http://127.0.0.1:8089 by default.
//
// # Environment Variables
//
//	LOG_LEVEL         Set logging verbosity
//	CNSGOV_URL        Daemon API endpoint for client commands
//	CNSGOV_CONFIG     Configuration file for run
//	CNSGOV_SYS_ROOT   sysfs mount point for run
//	CNSGOV_PROC_ROOT  procfs mount point for run
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
package cli
