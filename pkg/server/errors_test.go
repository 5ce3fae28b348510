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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		name string
		code cnserrors.ErrorCode
		want int
	}{
		{"invalid request", cnserrors.ErrCodeInvalidRequest, http.StatusBadRequest},
		{"not found", cnserrors.ErrCodeNotFound, http.StatusNotFound},
		{"method not allowed", cnserrors.ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{"rate limit", cnserrors.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{"unavailable", cnserrors.ErrCodeUnavailable, http.StatusServiceUnavailable},
		{"sampling", cnserrors.ErrCodeSampling, http.StatusServiceUnavailable},
		{"timeout", cnserrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{"actuation", cnserrors.ErrCodeActuation, http.StatusInternalServerError},
		{"internal", cnserrors.ErrCodeInternal, http.StatusInternalServerError},
		{"unknown defaults to internal", cnserrors.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusFromCode(tt.code); got != tt.want {
				t.Fatalf("HTTPStatusFromCode(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestRetryableFromCode(t *testing.T) {
	tests := []struct {
		code cnserrors.ErrorCode
		want bool
	}{
		{cnserrors.ErrCodeInvalidRequest, false},
		{cnserrors.ErrCodeNotFound, false},
		{cnserrors.ErrCodeMethodNotAllowed, false},
		{cnserrors.ErrCodeTimeout, true},
		{cnserrors.ErrCodeUnavailable, true},
		{cnserrors.ErrCodeRateLimitExceeded, true},
		{cnserrors.ErrCodeInternal, true},
		{cnserrors.ErrCodeSampling, true},
		{cnserrors.ErrCodeActuation, true},
		{cnserrors.ErrorCode("SOMETHING_ELSE"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := retryableFromCode(tt.code); got != tt.want {
				t.Fatalf("retryableFromCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestMergeDetails(t *testing.T) {
	t.Run("both empty returns nil", func(t *testing.T) {
		assert.Nil(t, mergeDetails(nil, nil))
		assert.Nil(t, mergeDetails(map[string]any{}, map[string]any{}))
	})

	t.Run("second overwrites first", func(t *testing.T) {
		a := map[string]any{"a": 1, "shared": "a"}
		b := map[string]any{"b": 2, "shared": "b"}
		got := mergeDetails(a, b)
		assert.Equal(t, map[string]any{"a": 1, "b": 2, "shared": "b"}, got)
		assert.Equal(t, "a", a["shared"], "inputs must not be mutated")
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteError_UsesRequestIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), contextKeyRequestID, "req-1"))
	rec := httptest.NewRecorder()

	WriteError(rec, req, http.StatusBadRequest, cnserrors.ErrCodeInvalidRequest, "bad", false, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, cnserrors.ErrCodeInvalidRequest, resp.Code)
	assert.False(t, resp.Retryable)
}

func TestWriteErrorFromErr(t *testing.T) {
	t.Run("structured error keeps code and context", func(t *testing.T) {
		err := cnserrors.WrapWithContext(cnserrors.ErrCodeActuation, "unit refused",
			errors.New("device busy"), map[string]any{"unit": float64(3)})
		req := httptest.NewRequest(http.MethodPut, "/v1/tunables/hotplug/max_units", nil)
		rec := httptest.NewRecorder()

		WriteErrorFromErr(rec, req, err, "fallback", map[string]any{"governor": "hotplug"})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, cnserrors.ErrCodeActuation, resp.Code)
		assert.Equal(t, "unit refused", resp.Message)
		assert.True(t, resp.Retryable)
		assert.Equal(t, "device busy", resp.Details["error"])
		assert.Equal(t, float64(3), resp.Details["unit"])
		assert.Equal(t, "hotplug", resp.Details["governor"])
		assert.NotEmpty(t, resp.RequestID)
	})

	t.Run("wrapped structured error", func(t *testing.T) {
		err := cnserrors.New(cnserrors.ErrCodeNotFound, "no such tunable")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		WriteErrorFromErr(rec, req, errors.Join(err), "fallback", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeError(t, rec)
		assert.Nil(t, resp.Details)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		WriteErrorFromErr(rec, req, errors.New("boom"), "fallback", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, cnserrors.ErrCodeInternal, resp.Code)
		assert.Equal(t, "fallback", resp.Message)
		assert.Equal(t, "boom", resp.Details["error"])
	})
}
