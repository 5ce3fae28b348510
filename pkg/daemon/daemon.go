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
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/api"
	"github.com/NVIDIA/cns-governor/pkg/config"
	"github.com/NVIDIA/cns-governor/pkg/defaults"
	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/hotplug"
	"github.com/NVIDIA/cns-governor/pkg/journal"
	"github.com/NVIDIA/cns-governor/pkg/scheduler"
	"github.com/NVIDIA/cns-governor/pkg/server"
	"github.com/NVIDIA/cns-governor/pkg/sysfs"
	"github.com/NVIDIA/cns-governor/pkg/thermal"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

// Name identifies the daemon in logs, the API root and systemd.
const Name = "cnsgov"

type governor struct {
	loop  *scheduler.Loop
	api   api.Governor
	delay time.Duration
}

// Daemon runs the configured governors and the tunable API.
type Daemon struct {
	cfg       *config.Config
	version   string
	clock     clock.WithTickerAndDelayedExecution
	notifier  Notifier
	journal   *journal.Journal
	governors []governor
	handler   *api.Handler
	server    *server.Server
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithVersion sets the version reported by the API.
func WithVersion(v string) Option {
	return func(d *Daemon) {
		d.version = v
	}
}

// WithClock drives the governor loops from c.
func WithClock(c clock.WithTickerAndDelayedExecution) Option {
	return func(d *Daemon) {
		d.clock = c
	}
}

// WithNotifier replaces the systemd notifier.
func WithNotifier(n Notifier) Option {
	return func(d *Daemon) {
		d.notifier = n
	}
}

// New wires the governors described by cfg against the kernel interfaces
// under cfg.SysRoot and cfg.ProcRoot.
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	d := &Daemon{
		cfg:      cfg,
		version:  "dev",
		clock:    clock.RealClock{},
		notifier: systemdNotifier{},
		journal:  journal.New(defaults.JournalCapacity),
	}
	for _, opt := range opts {
		opt(d)
	}

	cpu := sysfs.NewCPU(sysfs.WithSysRoot(cfg.SysRoot), sysfs.WithProcRoot(cfg.ProcRoot))

	if cfg.HotplugEnabled() {
		g, err := d.newHotplug(cpu)
		if err != nil {
			return nil, err
		}
		d.governors = append(d.governors, g)
	}
	if cfg.ThermalEnabled() {
		g, err := d.newThermal(cpu, sysfs.NewThermal(cfg.SysRoot))
		if err != nil {
			return nil, err
		}
		d.governors = append(d.governors, g)
	}

	hopts := []api.Option{
		api.WithVersion(d.version),
		api.WithJournal(d.journal),
		api.WithController(d),
	}
	for _, g := range d.governors {
		hopts = append(hopts, api.WithGovernor(g.api))
	}
	d.handler = api.NewHandler(hopts...)

	d.server = server.New(
		server.WithName(Name),
		server.WithVersion(d.version),
		server.WithAddress(cfg.Server.Address, cfg.Server.Port),
		server.WithHandler(d.handler.Routes()),
	)
	return d, nil
}

func (d *Daemon) newHotplug(cpu *sysfs.CPU) (governor, error) {
	policy, err := hotplug.ParsePolicy(d.cfg.Hotplug.Policy)
	if err != nil {
		return governor{}, cnserrors.Wrap(cnserrors.ErrCodeInvalidRequest, "invalid hotplug policy", err)
	}
	store := hotplug.NewTunables()
	if err := store.Apply(d.cfg.Hotplug.Tunables); err != nil {
		return governor{}, err
	}

	opts := []hotplug.Option{
		hotplug.WithPolicy(policy),
		hotplug.WithTunables(store),
		hotplug.WithRecorder(d.journal),
		hotplug.WithClock(d.clock),
	}
	if d.cfg.Hotplug.FrequencyScaled {
		opts = append(opts, hotplug.WithFrequencyScaling(cpu))
	}
	gov := hotplug.New(cpu, cpu, cpu, opts...)

	var delay time.Duration
	if d.cfg.Hotplug.InitialDelay != nil {
		delay = time.Duration(*d.cfg.Hotplug.InitialDelay)
	}
	loop := scheduler.New(gov, scheduler.WithClock(d.clock))
	loop.BindActive(store, hotplug.ParamActive)
	return governor{
		loop:  loop,
		delay: delay,
		api: api.Governor{
			Name:   gov.Name(),
			Store:  store,
			Loop:   loop,
			Status: func() any { return gov.Status() },
		},
	}, nil
}

func (d *Daemon) newThermal(cpu *sysfs.CPU, sensors *sysfs.Thermal) (governor, error) {
	store := thermal.NewTunables()
	if err := store.Apply(d.cfg.Thermal.Tunables); err != nil {
		return governor{}, err
	}

	lim := thermal.New(cpu, sensors, cpu, cpu,
		thermal.WithSensor(d.cfg.Thermal.Sensor),
		thermal.WithRetargeter(cpu),
		thermal.WithTunables(store),
		thermal.WithRecorder(d.journal),
		thermal.WithClock(d.clock),
	)
	loop := scheduler.New(lim, scheduler.WithClock(d.clock))
	loop.BindActive(store, thermal.ParamActive)
	return governor{
		loop: loop,
		api: api.Governor{
			Name:   lim.Name(),
			Store:  store,
			Loop:   loop,
			Status: func() any { return lim.Status() },
		},
	}, nil
}

// Handler returns the API handler.
func (d *Daemon) Handler() *api.Handler {
	return d.handler
}

// Run starts every governor loop and the API server and blocks until ctx is
// canceled or a component fails. On the way out every loop is disabled,
// which runs its final corrective actuation, and stopped.
func (d *Daemon) Run(ctx context.Context) error {
	for _, g := range d.governors {
		g.loop.Start(g.delay)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(signals)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.server.Start(gctx)
	})
	g.Go(func() error {
		d.handleSignals(gctx, signals)
		return nil
	})
	g.Go(func() error {
		return d.watchdog(gctx)
	})
	if d.cfg.Status.Output != "" {
		g.Go(func() error {
			d.publishStatus(gctx)
			return nil
		})
	}

	d.notify(NotifyReady)
	slog.Info("daemon started", "governors", len(d.governors), "version", d.version)

	err := g.Wait()
	d.notify(NotifyStopping)
	return errors.Join(err, d.shutdown())
}

func (d *Daemon) shutdown() error {
	var errs []error
	for _, g := range d.governors {
		ctx, cancel := context.WithTimeout(context.Background(), defaults.GovernorDisableTimeout)
		if err := g.loop.Disable(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := g.loop.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	slog.Info("daemon stopped")
	return errors.Join(errs...)
}

// Suspend pauses every governor that supports it for a system suspend.
func (d *Daemon) Suspend(ctx context.Context) error {
	var errs []error
	for _, g := range d.governors {
		if err := g.loop.Suspend(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resume undoes Suspend.
func (d *Daemon) Resume(ctx context.Context) error {
	var errs []error
	for _, g := range d.governors {
		if err := g.loop.Resume(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// handleSignals maps SIGUSR1 to Suspend and SIGUSR2 to Resume.
func (d *Daemon) handleSignals(ctx context.Context, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			evCtx, cancel := context.WithTimeout(ctx, defaults.EventHandlerTimeout)
			var err error
			switch sig {
			case syscall.SIGUSR1:
				slog.Info("suspend signal received")
				err = d.Suspend(evCtx)
			case syscall.SIGUSR2:
				slog.Info("resume signal received")
				err = d.Resume(evCtx)
			}
			cancel()
			if err != nil {
				slog.Error("signal handling failed", "signal", sig.String(), "error", err)
			}
		}
	}
}
