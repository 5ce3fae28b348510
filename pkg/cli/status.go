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

	"github.com/NVIDIA/cns-governor/pkg/api"
)

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show governor state and recent decisions",
		Description: `Fetch the status view from a running daemon: loop state of each governor,
its latest load or temperature reading, and the most recent decisions.

The status can be written to a file or a ConfigMap:
  cnsgov status --format json --output status.json
  cnsgov status --output cm://kube-system/cnsgov-status`,
		Flags: []cli.Flag{urlFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			st, err := newClient(cmd).Status(ctx)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, st)
		},
	}
}

func eventCmd(event, usage string) *cli.Command {
	return &cli.Command{
		Name:  event,
		Usage: usage,
		Flags: []cli.Flag{urlFlag, outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c := newClient(cmd)
			var (
				st  *api.Status
				err error
			)
			switch event {
			case api.EventSuspend:
				st, err = c.Suspend(ctx)
			case api.EventResume:
				st, err = c.Resume(ctx)
			default:
				return fmt.Errorf("unknown event %q", event)
			}
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd, st)
		},
	}
}
