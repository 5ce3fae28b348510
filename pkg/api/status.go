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
	"time"

	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/header"
	"github.com/NVIDIA/cns-governor/pkg/journal"
	"golang.org/x/sys/unix"
)

// Status is the daemon-wide view returned by GET /v1/status.
type Status struct {
	header.Header `json:",inline" yaml:",inline"`

	Version   string           `json:"version" yaml:"version"`
	Hostname  string           `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Kernel    string           `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Time      time.Time        `json:"time" yaml:"time"`
	Suspended bool             `json:"suspended" yaml:"suspended"`
	Governors []GovernorStatus `json:"governors" yaml:"governors"`
	Events    []journal.Event  `json:"events,omitempty" yaml:"events,omitempty"`
}

// GovernorStatus combines the loop state with the governor's own view.
type GovernorStatus struct {
	Name      string `json:"name" yaml:"name"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Suspended bool   `json:"suspended" yaml:"suspended"`
	Pending   bool   `json:"pending" yaml:"pending"`
	Detail    any    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Status builds the status view.
func (h *Handler) Status(ctx context.Context) (*Status, error) {
	now := h.now()
	st := &Status{
		Header:    header.New(header.KindStatus, h.version, now),
		Version:   h.version,
		Kernel:    h.kernel(),
		Time:      now.UTC(),
		Governors: make([]GovernorStatus, 0, len(h.governors)),
	}
	st.Hostname = h.hostname()

	for _, g := range h.governors {
		if err := ctx.Err(); err != nil {
			return nil, cnserrors.Wrap(cnserrors.ErrCodeTimeout, "status request canceled", err)
		}
		gs := GovernorStatus{Name: g.Name}
		if g.Loop != nil {
			gs.Enabled = g.Loop.Enabled()
			gs.Suspended = g.Loop.Suspended()
			gs.Pending = g.Loop.Pending()
			st.Suspended = st.Suspended || gs.Suspended
		}
		if g.Status != nil {
			gs.Detail = g.Status()
		}
		st.Governors = append(st.Governors, gs)
	}

	if h.journal != nil {
		st.Events = h.journal.Events()
	}
	return st, nil
}

// kernelRelease returns the running kernel release, or "" if unavailable.
func kernelRelease() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return unix.ByteSliceToString(u.Release[:])
}
