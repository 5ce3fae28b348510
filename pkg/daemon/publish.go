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

package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/serializer"
)

// publishStatus writes the status view to the configured output on every
// interval until ctx is canceled. File outputs are rewritten each time.
func (d *Daemon) publishStatus(ctx context.Context) {
	interval := time.Duration(d.cfg.Status.Interval)
	ticker := d.clock.NewTicker(interval)
	defer ticker.Stop()

	d.publishOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			d.publishOnce(ctx)
		}
	}
}

func (d *Daemon) publishOnce(ctx context.Context) {
	st, err := d.handler.Status(ctx)
	if err != nil {
		slog.Warn("failed to build status", "error", err)
		return
	}

	ser := serializer.NewFileWriterOrStdout(serializer.Format(d.cfg.Status.Format), d.cfg.Status.Output)
	if closer, ok := ser.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close status output", "error", err)
			}
		}()
	}
	if err := ser.Serialize(ctx, st); err != nil {
		slog.Warn("failed to publish status", "output", d.cfg.Status.Output, "error", err)
	}
}
