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
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/NVIDIA/cns-governor/pkg/defaults"
	cnserrors "github.com/NVIDIA/cns-governor/pkg/errors"
	"github.com/NVIDIA/cns-governor/pkg/server"
	"github.com/NVIDIA/cns-governor/pkg/tunable"
)

// DefaultURL is the daemon's default API endpoint.
var DefaultURL = fmt.Sprintf("http://%s:%d", server.DefaultAddress, server.DefaultPort)

// Client talks to a running daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// NewClient creates a client for the daemon at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   defaults.HTTPConnectTimeout,
		KeepAlive: defaults.HTTPKeepAlive,
	}
	return &http.Client{
		Timeout: defaults.HTTPClientTimeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ResponseHeaderTimeout: defaults.HTTPResponseHeaderTimeout,
			IdleConnTimeout:       defaults.HTTPIdleConnTimeout,
			MaxIdleConns:          4,
		},
	}
}

// Tunables returns every governor's tunables.
func (c *Client) Tunables(ctx context.Context) ([]TunableSet, error) {
	var out []TunableSet
	if err := c.do(ctx, http.MethodGet, "/v1/tunables", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GovernorTunables returns the tunables of one governor.
func (c *Client) GovernorTunables(ctx context.Context, governor string) (*TunableSet, error) {
	var out TunableSet
	if err := c.do(ctx, http.MethodGet, tunablePath(governor), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tunable returns a single tunable.
func (c *Client) Tunable(ctx context.Context, governor, name string) (*tunable.Value, error) {
	var out tunable.Value
	if err := c.do(ctx, http.MethodGet, tunablePath(governor, name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetTunable writes value and returns the stored result.
func (c *Client) SetTunable(ctx context.Context, governor, name, value string) (*tunable.Value, error) {
	var out tunable.Value
	if err := c.do(ctx, http.MethodPut, tunablePath(governor, name), strings.NewReader(value), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the daemon status view.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suspend sends the suspend event and returns the resulting status.
func (c *Client) Suspend(ctx context.Context) (*Status, error) {
	return c.event(ctx, EventSuspend)
}

// Resume sends the resume event and returns the resulting status.
func (c *Client) Resume(ctx context.Context) (*Status, error) {
	return c.event(ctx, EventResume)
}

func (c *Client) event(ctx context.Context, event string) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodPost, "/v1/events/"+url.PathEscape(event), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func tunablePath(elem ...string) string {
	p := "/v1/tunables"
	for _, e := range elem {
		p += "/" + url.PathEscape(e)
	}
	return p
}

// do sends the request and decodes a 2xx body into out. Error responses
// are returned as StructuredErrors carrying the server's code.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return cnserrors.Wrap(cnserrors.ErrCodeInvalidRequest, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return cnserrors.WrapWithContext(cnserrors.ErrCodeUnavailable, "daemon unreachable", err,
			map[string]any{"url": c.baseURL})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er server.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Code == "" {
			return cnserrors.NewWithContext(cnserrors.ErrCodeInternal,
				fmt.Sprintf("unexpected response: %s", resp.Status),
				map[string]any{"path": path})
		}
		return cnserrors.NewWithContext(er.Code, er.Message, er.Details)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return cnserrors.Wrap(cnserrors.ErrCodeInternal, "failed to decode response", err)
	}
	return nil
}
