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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docflow/core"
)

// pipeline runs one work item through convert, classify, extract and ingest.
// It holds no per-item state and is shared by all workers.
type pipeline struct {
	collab Collaborators
	state  *state
	logger *slog.Logger
}

func newPipeline(collab Collaborators, st *state, logger *slog.Logger) *pipeline {
	return &pipeline{
		collab: collab,
		state:  st,
		logger: logger,
	}
}

// run always returns a terminal result. Panics in collaborators are
// recovered into a failed result at the stage they occurred in.
func (p *pipeline) run(ctx context.Context, item *core.WorkItem, workerID int) (result core.PipelineResult) {
	path := item.File.Path
	logger := p.logger.With("path", path, "worker", workerID)

	result = core.PipelineResult{
		ItemID:    item.ID,
		Path:      path,
		Stage:     core.StageQueued,
		Routing:   item.File.Routing,
		WorkerID:  workerID,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			result.Status = core.StatusFailed
			result.Error = fmt.Sprintf("panic: %v", r)
			logger.Error("pipeline panicked", "stage", result.Stage, "panic", r)
		}
		result.FinishedAt = time.Now().UTC()
	}()

	result.Stage = core.StageConverting
	if !p.collab.Converter.Supports(path) {
		result.Status = core.StatusSkipped
		result.Error = fmt.Sprintf("%s: %s", ErrNoConverter, filepath.Ext(path))
		logger.Info("skipping file", "reason", result.Error)
		return result
	}
	text, err := p.collab.Converter.Convert(ctx, path)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoText
	}
	if err != nil {
		result.Status = core.StatusConvertedFailed
		result.Error = err.Error()
		logger.Warn("conversion failed", "err", err)
		return result
	}
	p.state.stageDone(core.StageConverting)

	result.Stage = core.StageClassifying
	classification, err := p.collab.Classifier.Classify(ctx, text, result.Routing)
	if err != nil {
		logger.Warn("classification failed, keeping path routing", "err", err)
	} else {
		result.Routing = applyClassification(result.Routing, classification)
		p.state.stageDone(core.StageClassifying)
	}

	result.Stage = core.StageExtracting
	extraction, err := p.collab.Extractor.ExtractEntities(ctx, text, result.Routing.Sector)
	if err != nil {
		logger.Warn("entity extraction failed, continuing without entities", "err", err)
		extraction = &core.Extraction{}
	} else {
		if extraction == nil {
			extraction = &core.Extraction{}
		}
		if err := core.ValidateExtraction(extraction); err != nil {
			result.Status = core.StatusValidationFailed
			result.Error = err.Error()
			logger.Warn("extraction rejected", "err", err)
			return result
		}
		p.state.stageDone(core.StageExtracting)
	}

	result.Stage = core.StageIngesting
	receipt, err := p.collab.Sink.Ingest(ctx, extraction.Entities, extraction.Relationships, result.Routing, text, path)
	if err != nil {
		result.Status = core.StatusFailed
		if errors.Is(err, core.ErrValidation) {
			result.Status = core.StatusValidationFailed
		}
		result.Error = err.Error()
		logger.Error("ingest failed", "status", result.Status, "err", err)
		return result
	}
	p.state.stageDone(core.StageIngesting)

	result.Stage = core.StageDone
	result.Status = core.StatusSuccess
	if receipt != nil {
		result.DocID = receipt.DocID
		result.EntityCount = receipt.EntityCount
		result.RelationshipCount = receipt.RelationshipCount
	}
	logger.Debug("document ingested",
		"docID", result.DocID,
		"sector", result.Routing.Sector,
		"entities", result.EntityCount,
		"relationships", result.RelationshipCount)
	return result
}

// applyClassification overwrites routing with the non-empty classifier fields.
func applyClassification(routing core.RoutingMetadata, c *core.Classification) core.RoutingMetadata {
	if c == nil {
		return routing
	}
	if c.Sector != "" {
		routing.Sector = c.Sector
	}
	if c.Subsector != "" {
		routing.Subsector = c.Subsector
	}
	if c.DocType != "" {
		routing.DocType = c.DocType
	}
	if c.Confidence > 0 {
		routing.Confidence = c.Confidence
	}
	return routing
}
