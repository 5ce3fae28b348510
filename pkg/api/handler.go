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
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/defaults"
	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/journal"
	"github.com/NVIDIA/cns-governor/pkg/k8s/node"
	"github.com/NVIDIA/cns-governor/pkg/metrics"
	"github.com/NVIDIA/cns-governor/pkg/serializer"
	"github.com/NVIDIA/cns-governor/pkg/server"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
)

// Route patterns served by Handler.
const (
	RouteTunables        = "GET /v1/tunables"
	RouteGovernor        = "GET /v1/tunables/{governor}"
	RouteTunable         = "GET /v1/tunables/{governor}/{name}"
	RouteSetTunable      = "PUT /v1/tunables/{governor}/{name}"
	RouteStatus          = "GET /v1/status"
	RouteEvent           = "POST /v1/events/{event}"
	EventSuspend         = "suspend"
	EventResume          = "resume"
	maxTunableValueBytes = 64
)

// LoopState reports the scheduling state of a governor.
type LoopState interface {
	Enabled() bool
	Suspended() bool
	Pending() bool
}

// Controller handles system power events.
type Controller interface {
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
}

// EventSource provides recent governor decisions.
type EventSource interface {
	Events() []journal.Event
}

// Governor is one governor exposed through the API.
type Governor struct {
	Name   string
	Store  *tunable.Store
	Loop   LoopState
	Status func() any
}

// Handler serves the tunable, status and event endpoints.
type Handler struct {
	version    string
	governors  []Governor
	journal    EventSource
	controller Controller
	kernel     func() string
	hostname   func() string
	now        func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithVersion sets the version reported in the status view.
func WithVersion(v string) Option {
	return func(h *Handler) {
		h.version = v
	}
}

// WithGovernor exposes g. Governors are listed in registration order.
func WithGovernor(g Governor) Option {
	return func(h *Handler) {
		h.governors = append(h.governors, g)
	}
}

// WithJournal includes recent decisions in the status view.
func WithJournal(j EventSource) Option {
	return func(h *Handler) {
		h.journal = j
	}
}

// WithController enables the suspend and resume events.
func WithController(c Controller) Option {
	return func(h *Handler) {
		h.controller = c
	}
}

// NewHandler creates a Handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		version:  "dev",
		kernel:   kernelRelease,
		hostname: node.Name,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the handlers keyed by ServeMux pattern, for
// server.WithHandler.
func (h *Handler) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		RouteTunables:   h.handleTunables,
		RouteGovernor:   h.handleGovernor,
		RouteTunable:    h.handleTunable,
		RouteSetTunable: h.handleSetTunable,
		RouteStatus:     h.handleStatus,
		RouteEvent:      h.handleEvent,
	}
}

// TunableSet is the tunables of one governor.
type TunableSet struct {
	Governor string          `json:"governor" yaml:"governor"`
	Tunables []tunable.Value `json:"tunables" yaml:"tunables"`
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*Governor, bool) {
	name := r.PathValue("governor")
	for i := range h.governors {
		if h.governors[i].Name == name {
			return &h.governors[i], true
		}
	}
	server.WriteError(w, r, http.StatusNotFound, cnserrors.ErrCodeNotFound,
		"unknown governor", false, map[string]any{"governor": name})
	return nil, false
}

func (h *Handler) handleTunables(w http.ResponseWriter, _ *http.Request) {
	sets := make([]TunableSet, 0, len(h.governors))
	for _, g := range h.governors {
		sets = append(sets, TunableSet{Governor: g.Name, Tunables: g.Store.Values()})
	}
	serializer.RespondJSON(w, http.StatusOK, sets)
}

func (h *Handler) handleGovernor(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, TunableSet{Governor: g.Name, Tunables: g.Store.Values()})
}

func (h *Handler) handleTunable(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	v, err := g.Store.Describe(r.PathValue("name"))
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to read tunable", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, v)
}

// handleSetTunable stores the raw request body. Writing "active" runs the
// enable/disable transition before the response is sent.
func (h *Handler) handleSetTunable(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTunableValueBytes))
	if err != nil {
		server.WriteError(w, r, http.StatusBadRequest, cnserrors.ErrCodeInvalidRequest,
			"failed to read tunable value", false, map[string]any{"error": err.Error()})
		return
	}
	raw := strings.TrimSpace(string(body))

	err = g.Store.Set(name, raw)
	metrics.ObserveTunableWrite(g.Name, err)
	if err != nil {
		slog.Warn("tunable write rejected", "governor", g.Name, "tunable", name, "value", raw, "error", err)
		server.WriteErrorFromErr(w, r, err, "failed to write tunable", nil)
		return
	}

	v, err := g.Store.Describe(name)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to read tunable", nil)
		return
	}
	slog.Info("tunable updated", "governor", g.Name, "tunable", name, "value", v.Value)
	serializer.RespondJSON(w, http.StatusOK, v)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaults.StatusHandlerTimeout)
	defer cancel()

	st, err := h.Status(ctx)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to build status", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, st)
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	if h.controller == nil {
		server.WriteError(w, r, http.StatusServiceUnavailable, cnserrors.ErrCodeUnavailable,
			"events are not enabled", false, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaults.EventHandlerTimeout)
	defer cancel()

	event := r.PathValue("event")
	var err error
	switch event {
	case EventSuspend:
		err = h.controller.Suspend(ctx)
	case EventResume:
		err = h.controller.Resume(ctx)
	default:
		server.WriteError(w, r, http.StatusNotFound, cnserrors.ErrCodeNotFound,
			"unknown event", false, map[string]any{"event": event})
		return
	}
	if err != nil {
		slog.Error("event failed", "event", event, "error", err)
		server.WriteErrorFromErr(w, r, err, "event failed", map[string]any{"event": event})
		return
	}

	slog.Info("event handled", "event", event)
	st, err := h.Status(ctx)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "failed to build status", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, st)
}
