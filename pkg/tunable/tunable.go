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

package tunable

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NVIDIA/cns-governor/pkg/errors"
)

// Kind describes how a parameter's raw text is parsed.
type Kind int

const (
	// KindUint is a non-negative integer.
	KindUint Kind = iota
	// KindBool is stored as 0 or 1.
	KindBool
	// KindMillis is a non-negative integer number of milliseconds, at most
	// MaxMillis.
	KindMillis
)

// MaxMillis bounds every KindMillis parameter. Periods are one hour at most.
const MaxMillis = uint64(time.Hour / time.Millisecond)

// String returns the kind name used in API responses.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindMillis:
		return "millis"
	default:
		return "uint"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "uint":
		*k = KindUint
	case "bool":
		*k = KindBool
	case "millis":
		*k = KindMillis
	default:
		return fmt.Errorf("unknown tunable kind %q", string(b))
	}
	return nil
}

// Param describes one named tunable.
type Param struct {
	Name        string
	Description string
	Kind        Kind
	Default     uint64
	// Min is the smallest accepted value.
	Min uint64
	// Max is the largest accepted value; zero means unbounded, except for
	// KindMillis which never exceeds MaxMillis.
	Max uint64
}

// Value is a parameter together with its current value.
type Value struct {
	Name        string `json:"name" yaml:"name"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	Value       uint64 `json:"value" yaml:"value"`
	Default     uint64 `json:"default" yaml:"default"`
	Min         uint64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         uint64 `json:"max,omitempty" yaml:"max,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Change is delivered to listeners after a successful write.
type Change struct {
	Store string
	Name  string
	Old   uint64
	New   uint64
}

// Store is a fixed set of named parameters for one governor.
//
// Values live in atomics so the control loop can read single fields without
// locking. Writes serialize on mu, and Snapshot takes the read side so a
// multi-field copy is never torn by a concurrent Apply.
type Store struct {
	name   string
	params []Param
	index  map[string]int
	values []atomic.Uint64

	mu        sync.RWMutex
	listeners []func(Change)
}

// NewStore creates a store holding params at their defaults.
// It panics on duplicate names or a default outside its bounds.
func NewStore(name string, params ...Param) *Store {
	s := &Store{
		name:   name,
		params: params,
		index:  make(map[string]int, len(params)),
		values: make([]atomic.Uint64, len(params)),
	}
	for i, p := range params {
		if _, dup := s.index[p.Name]; dup {
			panic(fmt.Sprintf("tunable %s: duplicate parameter %q", name, p.Name))
		}
		if err := p.check(p.Default); err != nil {
			panic(fmt.Sprintf("tunable %s: %v", name, err))
		}
		s.index[p.Name] = i
		s.values[i].Store(p.Default)
	}
	return s
}

// Name returns the store (governor) name.
func (s *Store) Name() string {
	return s.name
}

// Params returns the parameter descriptors in registration order.
func (s *Store) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// Get returns the current value of name.
func (s *Store) Get(name string) (uint64, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, s.notFound(name)
	}
	return s.values[i].Load(), nil
}

// Uint returns the current value of name, or zero if it is not registered.
func (s *Store) Uint(name string) uint64 {
	v, _ := s.Get(name)
	return v
}

// Bool reports whether name is non-zero.
func (s *Store) Bool(name string) bool {
	return s.Uint(name) != 0
}

// Duration returns a millisecond parameter as a time.Duration.
func (s *Store) Duration(name string) time.Duration {
	return time.Duration(s.Uint(name)) * time.Millisecond
}

// Snapshot returns a consistent copy of all values.
func (s *Store) Snapshot() map[string]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]uint64, len(s.params))
	for i, p := range s.params {
		out[p.Name] = s.values[i].Load()
	}
	return out
}

// Values returns every parameter with its current value in registration order.
func (s *Store) Values() []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Value, len(s.params))
	for i, p := range s.params {
		out[i] = p.value(s.values[i].Load())
	}
	return out
}

// Describe returns one parameter with its current value.
func (s *Store) Describe(name string) (Value, error) {
	i, ok := s.index[name]
	if !ok {
		return Value{}, s.notFound(name)
	}
	return s.params[i].value(s.values[i].Load()), nil
}

// Set parses raw and stores it under name. Invalid input leaves the store
// unchanged.
func (s *Store) Set(name, raw string) error {
	i, ok := s.index[name]
	if !ok {
		return s.notFound(name)
	}
	v, err := s.params[i].parse(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.values[i].Swap(v)
	s.mu.Unlock()

	if old != v {
		s.notify([]Change{{Store: s.name, Name: name, Old: old, New: v}})
	}
	return nil
}

// Apply sets several parameters at once. Every value is validated before any
// is stored, so a single bad entry rejects the whole batch.
func (s *Store) Apply(raw map[string]string) error {
	parsed := make(map[int]uint64, len(raw))
	for name, r := range raw {
		i, ok := s.index[name]
		if !ok {
			return s.notFound(name)
		}
		v, err := s.params[i].parse(r)
		if err != nil {
			return err
		}
		parsed[i] = v
	}

	var changes []Change
	s.mu.Lock()
	for i, v := range parsed {
		if old := s.values[i].Swap(v); old != v {
			changes = append(changes, Change{Store: s.name, Name: s.params[i].Name, Old: old, New: v})
		}
	}
	s.mu.Unlock()

	s.notify(changes)
	return nil
}

// OnChange registers fn to run after every successful write that changes a
// value. Listeners run synchronously on the writer's goroutine, outside the
// store lock.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.mu.RLock()
	listeners := make([]func(Change), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, c := range changes {
		for _, fn := range listeners {
			fn(c)
		}
	}
}

func (s *Store) notFound(name string) error {
	return errors.NewWithContext(errors.ErrCodeNotFound,
		fmt.Sprintf("unknown tunable %q", name),
		map[string]any{"governor": s.name, "tunable": name})
}

func (p Param) value(v uint64) Value {
	return Value{
		Name:        p.Name,
		Kind:        p.Kind,
		Value:       v,
		Default:     p.Default,
		Min:         p.Min,
		Max:         p.upper(),
		Description: p.Description,
	}
}

func (p Param) parse(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if p.Kind == KindBool {
		switch strings.ToLower(raw) {
		case "true", "on", "yes":
			return 1, nil
		case "false", "off", "no":
			return 0, nil
		}
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid value for %s", p.Name), err,
			map[string]any{"tunable": p.Name, "value": raw})
	}
	if p.Kind == KindBool && v > 1 {
		v = 1
	}
	if err := p.check(v); err != nil {
		return 0, err
	}
	return v, nil
}

func (p Param) check(v uint64) error {
	upper := p.upper()
	if v < p.Min || (upper != 0 && v > upper) {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s out of range", p.Name),
			map[string]any{"tunable": p.Name, "value": v, "min": p.Min, "max": upper})
	}
	return nil
}

// upper is the effective maximum of p, or zero when unbounded.
func (p Param) upper() uint64 {
	if p.Kind == KindMillis && (p.Max == 0 || p.Max > MaxMillis) {
		return MaxMillis
	}
	return p.Max
}
