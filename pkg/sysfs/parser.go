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

package sysfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/NVIDIA/cns-governor/pkg/unit"
)

const defaultMaxSize = 1 << 20

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxSize caps the size of files the parser accepts. Default is 1MB.
func WithMaxSize(size int) ParserOption {
	return func(p *Parser) {
		p.maxSize = size
	}
}

// Parser reads and writes small kernel attribute files.
type Parser struct {
	maxSize int
}

// NewParser creates a Parser with the provided options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReadString returns the trimmed content of path.
func (p *Parser) ReadString(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	if len(b) > p.maxSize {
		return "", fmt.Errorf("file %q exceeds maximum size of %d bytes", path, p.maxSize)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("content of file %q is not valid UTF-8", path)
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadLines returns the non-empty trimmed lines of path.
func (p *Parser) ReadLines(path string) ([]string, error) {
	s, err := p.ReadString(path)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// ReadUint parses path as a single unsigned decimal.
func (p *Parser) ReadUint(path string) (uint64, error) {
	s, err := p.ReadString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value in %q: %w", path, err)
	}
	return v, nil
}

// ReadInt parses path as a single signed decimal.
func (p *Parser) ReadInt(path string) (int64, error) {
	s, err := p.ReadString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value in %q: %w", path, err)
	}
	return v, nil
}

// ReadUints parses path as whitespace-separated unsigned decimals.
func (p *Parser) ReadUints(path string) ([]uint64, error) {
	s, err := p.ReadString(path)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	out := make([]uint64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q in %q: %w", f, path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadList parses path as a kernel range list such as "0-3,6".
func (p *Parser) ReadList(path string) ([]unit.ID, error) {
	s, err := p.ReadString(path)
	if err != nil {
		return nil, err
	}
	ids, err := unit.ParseList(s)
	if err != nil {
		return nil, fmt.Errorf("invalid list in %q: %w", path, err)
	}
	return ids, nil
}

// Write stores value in an existing attribute file.
func (p *Parser) Write(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %q for writing: %w", path, err)
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	return nil
}
