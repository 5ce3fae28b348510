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

package serializer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type testConfig struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"config.json", FormatJSON},
		{"CONFIG.JSON", FormatJSON},
		{"config.yaml", FormatYAML},
		{"config.yml", FormatYAML},
		{"out.table", FormatTable},
		{"out.txt", FormatTable},
		{"file.unknown", FormatJSON},
		{"", FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromPath(tt.path))
		})
	}
}

func TestNewReader_RejectsFormats(t *testing.T) {
	_, err := NewReader(FormatTable, strings.NewReader(""))
	assert.Error(t, err)
	_, err = NewReader(Format("xml"), strings.NewReader(""))
	assert.Error(t, err)
}

func TestReader_Deserialize(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		strict  bool
		want    testConfig
		wantErr bool
	}{
		{"json", FormatJSON, `{"name":"a","value":1}`, false, testConfig{"a", 1}, false},
		{"yaml", FormatYAML, "name: b\nvalue: 2\n", false, testConfig{"b", 2}, false},
		{"empty yaml", FormatYAML, "", false, testConfig{}, false},
		{"empty json", FormatJSON, "", false, testConfig{}, false},
		{"invalid json", FormatJSON, `{"name":`, false, testConfig{}, true},
		{"unknown field lenient", FormatYAML, "name: c\nextra: 1\n", false, testConfig{Name: "c"}, false},
		{"unknown field strict yaml", FormatYAML, "name: c\nextra: 1\n", true, testConfig{}, true},
		{"unknown field strict json", FormatJSON, `{"extra":1}`, true, testConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []ReaderOption
			if tt.strict {
				opts = append(opts, WithStrict())
			}
			r, err := NewReader(tt.format, strings.NewReader(tt.input), opts...)
			require.NoError(t, err)

			var got testConfig
			err = r.Deserialize(&got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReader_NilChecks(t *testing.T) {
	var r *Reader
	assert.Error(t, r.Deserialize(&testConfig{}))
	assert.NoError(t, r.Close())

	r = &Reader{format: FormatJSON}
	assert.Error(t, r.Deserialize(&testConfig{}))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nvalue: 7\n"), 0o600))

	got, err := FromFile[testConfig](path)
	require.NoError(t, err)
	assert.Equal(t, testConfig{"x", 7}, *got)

	_, err = FromFile[testConfig](filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = FromFile[testConfig]("cm://bad")
	assert.ErrorContains(t, err, "invalid ConfigMap URI")
}

func TestFromConfigMap(t *testing.T) {
	cs := fake.NewClientset(&corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "cnsgov", Namespace: "kube-system"},
		Data: map[string]string{
			"format":      "yaml",
			"config.yaml": "name: cm\nvalue: 3\n",
		},
	}, &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "empty", Namespace: "kube-system"},
		Data:       map[string]string{"note": "nothing"},
	})

	got, err := fromConfigMap[testConfig](cs, "kube-system", "cnsgov")
	require.NoError(t, err)
	assert.Equal(t, testConfig{"cm", 3}, *got)

	_, err = fromConfigMap[testConfig](cs, "kube-system", "empty")
	assert.ErrorContains(t, err, "no json or yaml data key")

	_, err = fromConfigMap[testConfig](cs, "kube-system", "missing")
	assert.Error(t, err)
}
