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

package watcher

import (
	"log/slog"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/routing"
)

// DefaultBatchSize is used when WithBatchSize is not given.
const DefaultBatchSize = 10

// Option configures a Watcher.
type Option func(*Watcher) error

// WithBatchSize sets how many discoveries trigger an automatic flush.
func WithBatchSize(size int) Option {
	return func(w *Watcher) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		w.batchSize = size
		return nil
	}
}

// WithRecursive controls whether subdirectories are scanned and watched.
// Default is true.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) error {
		w.recursive = recursive
		return nil
	}
}

// WithClassifier sets the path classifier used for routing metadata.
// Default is a routing.PathClassifier over the watcher's extensions.
func WithClassifier(c *routing.PathClassifier) Option {
	return func(w *Watcher) error {
		w.classifier = c
		return nil
	}
}

// WithDiscoveryHook registers a callback fired once per accepted file.
func WithDiscoveryHook(fn func(core.DiscoveredFile)) Option {
	return func(w *Watcher) error {
		w.onDiscover = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}
