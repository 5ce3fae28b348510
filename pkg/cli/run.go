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

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cns-governor/pkg/config"
	"github.com/NVIDIA/cns-governor/pkg/daemon"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the governor daemon",
		Description: `Run the load (hotplug) and thermal governors and serve the tunable API.

The daemon needs write access to /sys/devices/system/cpu. Tunables can be
changed at runtime through the API or the "tunables set" command.

# Signals

  SIGUSR1  suspend: take every non-primary unit offline and pause
  SIGUSR2  resume: bring units back online up to max_units
  SIGTERM  disable every governor, restoring all units online and clearing
           any frequency cap, then exit

# Examples

Run with defaults:
  cnsgov run

Run with a configuration file and publish status to a ConfigMap:
  cnsgov run --config /etc/cnsgov/config.yaml`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file or ConfigMap URI (cm://namespace/name)",
				Sources: cli.EnvVars("CNSGOV_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "address",
				Usage:   "API listen address (overrides config)",
				Sources: cli.EnvVars("CNSGOV_ADDRESS"),
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "API listen port (overrides config)",
				Sources: cli.EnvVars("CNSGOV_PORT"),
			},
			&cli.StringFlag{
				Name:    "sys-root",
				Usage:   "sysfs mount point (overrides config)",
				Sources: cli.EnvVars("CNSGOV_SYS_ROOT"),
			},
			&cli.StringFlag{
				Name:    "proc-root",
				Usage:   "procfs mount point (overrides config)",
				Sources: cli.EnvVars("CNSGOV_PROC_ROOT"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			d, err := daemon.New(cfg, daemon.WithVersion(version))
			if err != nil {
				return fmt.Errorf("failed to initialize daemon: %w", err)
			}
			return d.Run(ctx)
		},
	}
}

// loadConfig reads --config, or the defaults, and applies flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if v := cmd.String("address"); v != "" {
		cfg.Server.Address = v
	}
	if v := cmd.Int("port"); v != 0 {
		cfg.Server.Port = int(v)
	}
	if v := cmd.String("sys-root"); v != "" {
		cfg.SysRoot = v
	}
	if v := cmd.String("proc-root"); v != "" {
		cfg.ProcRoot = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
