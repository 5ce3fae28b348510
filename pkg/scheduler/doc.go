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

// Package scheduler runs governors periodically.
//
// A Loop owns one Task and keeps at most one invocation pending. The next
// invocation is armed with the task's current Period only after the
// previous cycle returns, so a slow cycle stretches the interval instead of
// stacking invocations. Timers come from k8s.io/utils/clock; tests drive
// the loop with a fake clock.
//
// Lifecycle:
//
//	loop := scheduler.New(governor)
//	loop.BindActive(governor.Tunables(), "active")
//	loop.Start(20 * time.Second)
//	...
//	_ = loop.Disable(ctx) // final Restore
//	_ = loop.Stop(ctx)
//
// Cycle errors are logged and never stop the loop. Sampling failures log at
// debug level since they are expected while hardware settles.
package scheduler
