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

package ingestion

import (
	"log/slog"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/routing"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithBatchHook registers fn to run for every batch the watcher flushes,
// before its items are queued. Hooks run in registration order.
func WithBatchHook(fn func([]core.DiscoveredFile)) Option {
	return func(o *Orchestrator) error {
		if fn != nil {
			o.batchHooks = append(o.batchHooks, fn)
		}
		return nil
	}
}

// WithResultHook registers fn to run for every terminal result. Hooks run
// in registration order on worker goroutines and must be safe for
// concurrent use.
func WithResultHook(fn func(core.PipelineResult)) Option {
	return func(o *Orchestrator) error {
		if fn != nil {
			o.resultHooks = append(o.resultHooks, fn)
		}
		return nil
	}
}

// WithClassifier sets the path classifier used by the watcher.
// Default is routing.NewPathClassifier with the configured extensions.
func WithClassifier(c *routing.PathClassifier) Option {
	return func(o *Orchestrator) error {
		o.classifier = c
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}
