// Copyright 2025 Poiesic Systems
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

package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/docflow/routing"
)

// DefaultMaxBytes is the largest file a chain will hand to a converter.
const DefaultMaxBytes int64 = 32 << 20

// Converter turns one family of file formats into plain text.
type Converter interface {
	// Name returns the converter name (e.g., "text", "html", "pdftotext")
	Name() string

	// Supports returns true if this converter handles the given extension.
	// The extension is lower-case with a leading dot.
	Supports(ext string) bool

	// Convert extracts the text of the file at path.
	Convert(ctx context.Context, path string) (string, error)
}

// Chain tries converters in order and returns the first non-empty text.
type Chain struct {
	converters []Converter
	maxBytes   int64
	logger     *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithConverters replaces the default converter list.
func WithConverters(converters ...Converter) Option {
	return func(c *Chain) {
		c.converters = converters
	}
}

// WithMaxBytes sets the size limit for input files.
func WithMaxBytes(n int64) Option {
	return func(c *Chain) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewChain creates a chain with the built-in converters.
func NewChain(opts ...Option) *Chain {
	c := &Chain{
		converters: []Converter{
			NewTextConverter(),
			NewHTMLConverter(),
			NewDOCXConverter(),
			NewPDFConverter(),
		},
		maxBytes: DefaultMaxBytes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "converter")
	return c
}

// Supports reports whether any converter handles the path's extension.
func (c *Chain) Supports(path string) bool {
	ext := routing.NormalizeExtension(filepath.Ext(path))
	for _, conv := range c.converters {
		if conv.Supports(ext) {
			return true
		}
	}
	return false
}

// Convert returns the first non-empty text produced by a supporting converter.
// When none produces output the text is empty and the error, if any,
// joins ErrNoOutput with the individual converter failures.
func (c *Chain) Convert(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > c.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	ext := routing.NormalizeExtension(filepath.Ext(path))
	var errs []error
	for _, conv := range c.converters {
		if !conv.Supports(ext) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := conv.Convert(ctx, path)
		if err != nil {
			c.logger.Warn("converter failed", "converter", conv.Name(), "path", path, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", conv.Name(), err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			c.logger.Debug("converter produced no text", "converter", conv.Name(), "path", path)
			continue
		}
		return text, nil
	}

	if len(errs) > 0 {
		return "", errors.Join(append([]error{ErrNoOutput}, errs...)...)
	}
	return "", nil
}
