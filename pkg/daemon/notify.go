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
	"log/slog"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/defaults"
	sd "github.com/coreos/go-systemd/v22/daemon"
)

// Service manager notification states.
const (
	NotifyReady    = sd.SdNotifyReady
	NotifyStopping = sd.SdNotifyStopping
	NotifyWatchdog = sd.SdNotifyWatchdog
)

// Notifier reports service state to the service manager.
type Notifier interface {
	// Notify sends state. It reports false when no manager is listening.
	Notify(state string) (bool, error)
	// WatchdogInterval returns the watchdog timeout, or zero when the
	// watchdog is not enabled for this process.
	WatchdogInterval() (time.Duration, error)
}

type systemdNotifier struct{}

func (systemdNotifier) Notify(state string) (bool, error) {
	return sd.SdNotify(false, state)
}

func (systemdNotifier) WatchdogInterval() (time.Duration, error) {
	return sd.SdWatchdogEnabled(false)
}

func (d *Daemon) notify(state string) {
	sent, err := d.notifier.Notify(state)
	switch {
	case err != nil:
		slog.Warn("service manager notification failed", "state", state, "error", err)
	case sent:
		slog.Debug("service manager notified", "state", state)
	}
}

// watchdog pings the service manager at half the configured interval until
// ctx is canceled. It returns immediately when no watchdog is configured.
func (d *Daemon) watchdog(ctx context.Context) error {
	interval, err := d.notifier.WatchdogInterval()
	if err != nil {
		slog.Warn("invalid watchdog configuration, using fallback",
			"error", err, "interval", defaults.WatchdogFallbackInterval.String())
		interval = defaults.WatchdogFallbackInterval
	}
	if interval <= 0 {
		return nil
	}

	ticker := d.clock.NewTicker(interval / 2)
	defer ticker.Stop()
	slog.Info("watchdog enabled", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			d.notify(NotifyWatchdog)
		}
	}
}
