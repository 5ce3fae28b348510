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
)

func tunablesCmd() *cli.Command {
	return &cli.Command{
		Name:  "tunables",
		Usage: "Read and write governor tunables on a running daemon",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List tunables of every governor, or of one",
				ArgsUsage: "[governor]",
				Flags:     []cli.Flag{urlFlag, outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					c := newClient(cmd)
					if gov := cmd.Args().First(); gov != "" {
						set, err := c.GovernorTunables(ctx, gov)
						if err != nil {
							return err
						}
						return writeOutput(ctx, cmd, set)
					}
					sets, err := c.Tunables(ctx)
					if err != nil {
						return err
					}
					return writeOutput(ctx, cmd, sets)
				},
			},
			{
				Name:      "get",
				Usage:     "Show one tunable",
				ArgsUsage: "<governor> <name>",
				Flags:     []cli.Flag{urlFlag, outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 2 {
						return fmt.Errorf("expected <governor> <name>, got %d arguments", cmd.NArg())
					}
					v, err := newClient(cmd).Tunable(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
					if err != nil {
						return err
					}
					return writeOutput(ctx, cmd, v)
				},
			},
			{
				Name:      "set",
				Usage:     "Write one tunable",
				ArgsUsage: "<governor> <name> <value>",
				Description: `Write a tunable on the running daemon. Booleans accept 0/1, true/false,
on/off and yes/no. Setting "active" to 0 blocks until the governor has
restored every unit online (hotplug) or cleared the frequency cap (thermal).

  cnsgov tunables set hotplug max_units 8
  cnsgov tunables set thermal active off`,
				Flags: []cli.Flag{urlFlag, outputFlag, formatFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 3 {
						return fmt.Errorf("expected <governor> <name> <value>, got %d arguments", cmd.NArg())
					}
					args := cmd.Args()
					v, err := newClient(cmd).SetTunable(ctx, args.Get(0), args.Get(1), args.Get(2))
					if err != nil {
						return err
					}
					return writeOutput(ctx, cmd, v)
				},
			},
		},
	}
}
