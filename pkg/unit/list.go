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

package unit

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParseList parses the kernel cpulist format ("0-3,6,8-9") into sorted,
// de-duplicated IDs. An empty or whitespace-only string yields no IDs.
func ParseList(s string) ([]ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	seen := make(map[ID]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid unit %q: %w", part, err)
		}
		end := start
		if isRange {
			end, err = strconv.ParseUint(hi, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid unit range %q: %w", part, err)
			}
			if end < start {
				return nil, fmt.Errorf("invalid unit range %q: end before start", part)
			}
		}
		for i := start; i <= end; i++ {
			seen[ID(i)] = struct{}{}
		}
	}

	ids := make([]ID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// FormatList renders IDs in cpulist format, collapsing consecutive runs.
func FormatList(ids []ID) string {
	if len(ids) == 0 {
		return ""
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	start, prev := sorted[0], sorted[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			fmt.Fprintf(&b, "%d", start)
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, id := range sorted[1:] {
		if id == prev+1 {
			prev = id
			continue
		}
		flush()
		start, prev = id, id
	}
	flush()
	return b.String()
}

// Offline returns the IDs in [0, count) that are not in online, ascending.
func Offline(count int, online []ID) []ID {
	on := make(map[ID]struct{}, len(online))
	for _, id := range online {
		on[id] = struct{}{}
	}
	var off []ID
	for i := 0; i < count; i++ {
		if _, ok := on[ID(i)]; !ok {
			off = append(off, ID(i))
		}
	}
	return off
}
