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

// Package config loads the cnsgov daemon configuration.
//
// The file is YAML or JSON (chosen by extension) or a cm://namespace/name
// ConfigMap, decoded strictly:
//
//	server:
//	  address: 127.0.0.1
//	  port: 8089
//	hotplug:
//	  policy: decay-one
//	  initialDelay: 20s
//	  tunables:
//	    max_units: "8"
//	thermal:
//	  sensor: x86_pkg_temp
//	status:
//	  output: cm://kube-system/cnsgov-status
//	  interval: 1m
//
// Omitted fields take the values from Default.
package config
