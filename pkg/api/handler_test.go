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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/header"
	"github.com/NVIDIA/cns-governor/pkg/journal"
	"github.com/NVIDIA/cns-governor/pkg/server"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoop struct {
	enabled, suspended, pending bool
}

func (f *fakeLoop) Enabled() bool   { return f.enabled }
func (f *fakeLoop) Suspended() bool { return f.suspended }
func (f *fakeLoop) Pending() bool   { return f.pending }

type fakeController struct {
	mu     sync.Mutex
	loop   *fakeLoop
	calls  []string
	failOn string
}

func (f *fakeController) Suspend(context.Context) error { return f.handle(EventSuspend, true) }
func (f *fakeController) Resume(context.Context) error  { return f.handle(EventResume, false) }

func (f *fakeController) handle(event string, suspended bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, event)
	if f.failOn == event {
		return cnserrors.New(cnserrors.ErrCodeActuation, "unit refused")
	}
	f.loop.suspended = suspended
	return nil
}

type fixture struct {
	handler    http.Handler
	store      *tunable.Store
	loop       *fakeLoop
	controller *fakeController
	journal    *journal.Journal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: tunable.NewStore("hotplug",
			tunable.Param{Name: "active", Kind: tunable.KindBool, Default: 1},
			tunable.Param{Name: "down_threshold", Default: 30, Max: 100},
		),
		loop:    &fakeLoop{enabled: true, pending: true},
		journal: journal.New(8),
	}
	f.controller = &fakeController{loop: f.loop}
	f.journal.Record(journal.Event{Governor: "hotplug", Action: "escalate-one", Metric: 75, Units: "1"})

	h := NewHandler(
		WithVersion("1.2.3"),
		WithGovernor(Governor{
			Name:   "hotplug",
			Store:  f.store,
			Loop:   f.loop,
			Status: func() any { return map[string]int{"load": 42} },
		}),
		WithGovernor(Governor{
			Name:  "thermal",
			Store: tunable.NewStore("thermal", tunable.Param{Name: "limit_temp", Default: 80}),
		}),
		WithJournal(f.journal),
		WithController(f.controller),
	)
	h.kernel = func() string { return "6.8.0-test" }
	h.hostname = func() string { return "node-a" }
	h.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	f.handler = server.New(server.WithHandler(h.Routes())).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

func TestTunables_List(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/tunables", "")
	require.Equal(t, http.StatusOK, rec.Code)

	sets := decode[[]TunableSet](t, rec)
	require.Len(t, sets, 2)
	assert.Equal(t, "hotplug", sets[0].Governor)
	assert.Len(t, sets[0].Tunables, 2)
	assert.Equal(t, "thermal", sets[1].Governor)
}

func TestTunables_Get(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"governor", "/v1/tunables/hotplug", http.StatusOK},
		{"tunable", "/v1/tunables/hotplug/down_threshold", http.StatusOK},
		{"unknown governor", "/v1/tunables/cooling", http.StatusNotFound},
		{"unknown tunable", "/v1/tunables/hotplug/turbo", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	v := decode[tunable.Value](t, f.do(t, http.MethodGet, "/v1/tunables/hotplug/down_threshold", ""))
	assert.Equal(t, uint64(30), v.Value)
	assert.Equal(t, tunable.KindUint, v.Kind)
}

func TestTunables_Set(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/v1/tunables/hotplug/down_threshold", "25\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(25), decode[tunable.Value](t, rec).Value)
	assert.Equal(t, uint64(25), f.store.Uint("down_threshold"))

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   cnserrors.ErrorCode
	}{
		{"not a number", "/v1/tunables/hotplug/down_threshold", "abc", http.StatusBadRequest, cnserrors.ErrCodeInvalidRequest},
		{"out of range", "/v1/tunables/hotplug/down_threshold", "101", http.StatusBadRequest, cnserrors.ErrCodeInvalidRequest},
		{"unknown tunable", "/v1/tunables/hotplug/turbo", "1", http.StatusNotFound, cnserrors.ErrCodeNotFound},
		{"too large", "/v1/tunables/hotplug/down_threshold", strings.Repeat("1", 100), http.StatusBadRequest, cnserrors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decode[server.ErrorResponse](t, rec).Code)
			assert.Equal(t, uint64(25), f.store.Uint("down_threshold"), "rejected writes leave the value unchanged")
		})
	}
}

func TestTunables_UnsupportedMethod(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodDelete, "/v1/tunables/hotplug/active", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "unmatched methods fall through to the root handler")
	assert.Equal(t, "active", f.store.Params()[0].Name)
	assert.True(t, f.store.Bool("active"))
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode[Status](t, rec)
	assert.Equal(t, header.KindStatus, st.Kind)
	assert.Equal(t, header.APIVersion, st.APIVersion)
	assert.Equal(t, "1.2.3", st.Metadata["version"])
	assert.Equal(t, "1.2.3", st.Version)
	assert.Equal(t, "node-a", st.Hostname)
	assert.Equal(t, "6.8.0-test", st.Kernel)
	assert.False(t, st.Suspended)
	require.Len(t, st.Governors, 2)
	assert.True(t, st.Governors[0].Enabled)
	assert.True(t, st.Governors[0].Pending)
	assert.Equal(t, map[string]any{"load": float64(42)}, st.Governors[0].Detail)
	assert.False(t, st.Governors[1].Enabled, "governors without a loop report disabled")
	require.Len(t, st.Events, 1)
	assert.Equal(t, "escalate-one", st.Events[0].Action)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/events/suspend", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[Status](t, rec).Suspended)

	rec = f.do(t, http.MethodPost, "/v1/events/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[Status](t, rec).Suspended)

	rec = f.do(t, http.MethodPost, "/v1/events/hibernate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.controller.failOn = EventSuspend
	rec = f.do(t, http.MethodPost, "/v1/events/suspend", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	er := decode[server.ErrorResponse](t, rec)
	assert.Equal(t, cnserrors.ErrCodeActuation, er.Code)
	assert.True(t, er.Retryable)

	assert.Equal(t, []string{"suspend", "resume", "suspend"}, f.controller.calls)
}

func TestEvents_NoController(t *testing.T) {
	h := NewHandler()
	srv := server.New(server.WithHandler(h.Routes())).Handler()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/events/suspend", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus_Canceled(t *testing.T) {
	h := NewHandler(WithGovernor(Governor{Name: "hotplug", Store: tunable.NewStore("hotplug")}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Status(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, cnserrors.ErrCodeTimeout, cnserrors.CodeOf(err))
}
