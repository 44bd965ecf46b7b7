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

package sink

import (
	"context"
	"log/slog"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// ResultRecorder appends pipeline results to the persistent result log.
type ResultRecorder struct {
	results storage.ResultRepository
	logger  *slog.Logger
}

// NewResultRecorder creates a recorder. A nil logger uses slog.Default().
func NewResultRecorder(results storage.ResultRepository, logger *slog.Logger) (*ResultRecorder, error) {
	if results == nil {
		return nil, ErrResultRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultRecorder{
		results: results,
		logger:  logger.With("component", "result-recorder"),
	}, nil
}

// Record stores result. Its signature matches the orchestrator's result hook;
// storage failures are logged rather than returned since the pipeline
// outcome has already been decided.
func (r *ResultRecorder) Record(result core.PipelineResult) {
	if err := r.results.AppendResult(context.Background(), &result); err != nil {
		r.logger.Error("failed to record pipeline result", "path", result.Path, "status", result.Status, "err", err)
	}
}

// Recent returns up to limit results, most recent first.
func (r *ResultRecorder) Recent(ctx context.Context, limit int) ([]*core.PipelineResult, error) {
	return r.results.ListResults(ctx, limit)
}

// History returns every result recorded for path, oldest first.
func (r *ResultRecorder) History(ctx context.Context, path string) ([]*core.PipelineResult, error) {
	return r.results.ResultsForPath(ctx, path)
}
