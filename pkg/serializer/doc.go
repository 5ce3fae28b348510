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

// Package serializer reads and writes cnsgov data in JSON, YAML and table
// form.
//
// Output destinations:
//   - stdout or a file: NewFileWriterOrStdout(format, path)
//   - a Kubernetes ConfigMap: a cm://namespace/name path, applied with
//     server-side apply under the "cnsgov" field manager
//   - an HTTP response: RespondJSON(w, status, v)
//
// The table format flattens nested values into dotted FIELD/VALUE rows
// using JSON field names:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatTable, "")
//	if err := w.Serialize(ctx, status); err != nil {
//		return err
//	}
//
// Configuration files are loaded with FromFile, which picks the format from
// the file extension and also accepts ConfigMap URIs:
//
//	cfg, err := serializer.FromFile[config.Config]("/etc/cnsgov/config.yaml", serializer.WithStrict())
package serializer
