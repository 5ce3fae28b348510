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
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/cns-governor/pkg/api"
	"github.com/NVIDIA/cns-governor/pkg/hotplug"
	"github.com/NVIDIA/cns-governor/pkg/server"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
)

func TestRootCmd_CommandStructure(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, name, root.Name)

	want := []string{"run", "tunables", "status", "suspend", "resume"}
	got := make([]string, 0, len(root.Commands))
	for _, c := range root.Commands {
		got = append(got, c.Name)
	}
	assert.Equal(t, want, got)

	var tunables *cli.Command
	for _, c := range root.Commands {
		if c.Name == "tunables" {
			tunables = c
		}
	}
	require.NotNil(t, tunables)
	sub := make([]string, 0, len(tunables.Commands))
	for _, c := range tunables.Commands {
		sub = append(sub, c.Name)
	}
	assert.Equal(t, []string{"list", "get", "set"}, sub)
}

func newTestAPI(t *testing.T) (*httptest.Server, *tunable.Store) {
	t.Helper()
	store := hotplug.NewTunables()
	h := api.NewHandler(
		api.WithVersion("test"),
		api.WithGovernor(api.Governor{Name: hotplug.Name, Store: store}),
	)
	ts := httptest.NewServer(server.New(server.WithHandler(h.Routes())).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	return newRootCmd().Run(context.Background(), append([]string{name}, args...))
}

func TestTunablesSet(t *testing.T) {
	ts, store := newTestAPI(t)
	out := filepath.Join(t.TempDir(), "value.json")

	err := runCLI(t, "tunables", "set", "--url", ts.URL, "--output", out, "--format", "json",
		hotplug.Name, hotplug.ParamMaxUnits, "8")
	require.NoError(t, err)
	assert.Equal(t, uint64(8), store.Uint(hotplug.ParamMaxUnits))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var v tunable.Value
	require.NoError(t, json.Unmarshal(b, &v))
	assert.Equal(t, hotplug.ParamMaxUnits, v.Name)
	assert.Equal(t, uint64(8), v.Value)
}

func TestTunablesSet_Errors(t *testing.T) {
	ts, store := newTestAPI(t)

	err := runCLI(t, "tunables", "set", "--url", ts.URL, hotplug.Name, hotplug.ParamMaxUnits)
	assert.ErrorContains(t, err, "expected <governor> <name> <value>")

	err = runCLI(t, "tunables", "set", "--url", ts.URL, hotplug.Name, hotplug.ParamUpThresholdOne, "150")
	assert.Error(t, err)
	assert.Equal(t, uint64(60), store.Uint(hotplug.ParamUpThresholdOne))
}

func TestTunablesGetAndList(t *testing.T) {
	ts, _ := newTestAPI(t)
	dir := t.TempDir()

	out := filepath.Join(dir, "get.yaml")
	require.NoError(t, runCLI(t, "tunables", "get", "--url", ts.URL, "--output", out, "--format", "yaml",
		hotplug.Name, hotplug.ParamDownThreshold))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "value: 30")

	out = filepath.Join(dir, "list.json")
	require.NoError(t, runCLI(t, "tunables", "list", "--url", ts.URL, "--output", out, "--format", "json"))
	b, err = os.ReadFile(out)
	require.NoError(t, err)
	var sets []api.TunableSet
	require.NoError(t, json.Unmarshal(b, &sets))
	require.Len(t, sets, 1)
	assert.Equal(t, hotplug.Name, sets[0].Governor)

	err = runCLI(t, "tunables", "get", "--url", ts.URL, hotplug.Name)
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	ts, _ := newTestAPI(t)
	out := filepath.Join(t.TempDir(), "status.txt")

	require.NoError(t, runCLI(t, "status", "--url", ts.URL, "--output", out, "--format", "table"))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "FIELD")
	assert.Contains(t, string(b), "governors.[0].name")

	err = runCLI(t, "status", "--url", ts.URL, "--format", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestEvent_NotEnabled(t *testing.T) {
	ts, _ := newTestAPI(t)
	err := runCLI(t, "suspend", "--url", ts.URL, "--output", filepath.Join(t.TempDir(), "s.yaml"))
	assert.Error(t, err, "the test API has no controller")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cnsgov.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\nsysRoot: /host/sys\n"), 0o600))

	tests := []struct {
		name        string
		args        []string
		wantPort    int
		wantAddress string
		wantSysRoot string
		wantErr     bool
	}{
		{name: "defaults", wantPort: 8089, wantAddress: "127.0.0.1", wantSysRoot: "/sys"},
		{name: "file", args: []string{"--config", path}, wantPort: 9001, wantAddress: "127.0.0.1", wantSysRoot: "/host/sys"},
		{name: "flags override file", args: []string{"--config", path, "--port", "9100", "--address", "0.0.0.0", "--sys-root", "/s"},
			wantPort: 9100, wantAddress: "0.0.0.0", wantSysRoot: "/s"},
		{name: "bad port", args: []string{"--port", "70000"}, wantErr: true},
		{name: "missing file", args: []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := runCmd()
			cmd.Action = func(_ context.Context, c *cli.Command) error {
				cfg, err := loadConfig(c)
				if tt.wantErr {
					assert.Error(t, err)
					return nil
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantPort, cfg.Server.Port)
				assert.Equal(t, tt.wantAddress, cfg.Server.Address)
				assert.Equal(t, tt.wantSysRoot, cfg.SysRoot)
				return nil
			}
			require.NoError(t, cmd.Run(context.Background(), append([]string{"run"}, tt.args...)))
		})
	}
}
