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

package journal

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Event records one governor decision.
type Event struct {
	Time     time.Time `json:"time" yaml:"time"`
	Governor string    `json:"governor" yaml:"governor"`
	Action   string    `json:"action" yaml:"action"`
	// Metric is the load percentage or temperature the decision was based on.
	Metric int64 `json:"metric" yaml:"metric"`
	// Units lists the units acted on in cpulist format.
	Units string `json:"units,omitempty" yaml:"units,omitempty"`
	// Cap is the applied frequency cap in kHz, zero when not applicable.
	Cap   uint64 `json:"cap,omitempty" yaml:"cap,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Recorder accepts decision events.
type Recorder interface {
	Record(Event)
}

// Discard is a Recorder that drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Event) {}

// Journal keeps the most recent events up to a fixed capacity.
type Journal struct {
	mu       sync.Mutex
	events   *queue.Queue
	capacity int
}

// New returns a journal holding at most capacity events.
func New(capacity int) *Journal {
	if capacity < 1 {
		capacity = 1
	}
	return &Journal{
		events:   queue.New(),
		capacity: capacity,
	}
}

// Record appends e, evicting the oldest event when full.
func (j *Journal) Record(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events.Add(e)
	for j.events.Length() > j.capacity {
		j.events.Remove()
	}
}

// Events returns the retained events, oldest first.
func (j *Journal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, j.events.Length())
	for i := range out {
		out[i] = j.events.Get(i).(Event)
	}
	return out
}

// Len returns the number of retained events.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.events.Length()
}
