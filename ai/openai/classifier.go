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

package openai

import (
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/routing"
)

// Classifier implements ai.Classifier with a JSON-mode chat model.
type Classifier struct {
	chat    *chatModel
	sectors *routing.PathClassifier
	logger  *slog.Logger
}

type classificationResponse struct {
	Sector     string  `json:"sector"`
	Subsector  string  `json:"subsector"`
	DocType    string  `json:"doc_type"`
	Confidence float64 `json:"confidence"`
}

func newClassifier(config *ai.Config) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	chat, err := newChatModel(config, "openai-classifier")
	if err != nil {
		return nil, err
	}
	return &Classifier{
		chat:    chat,
		sectors: routing.NewPathClassifier(),
		logger:  chat.logger,
	}, nil
}

// NewClassifier creates a classifier using the provided configuration.
func NewClassifier(config *ai.Config) (ai.Classifier, error) {
	return newClassifier(config)
}

// Classify asks the model for sector, subsector and document type. Sector
// labels outside the vocabulary and unknown document types are dropped so
// they never overwrite path-derived routing.
func (c *Classifier) Classify(ctx context.Context, text string, routingHint core.RoutingMetadata) (*core.Classification, error) {
	prompt := buildClassificationPrompt(routing.SectorNames(c.sectors.Sectors()), routingHint)

	var resp classificationResponse
	if err := c.chat.generateJSON(ctx, prompt, text, &resp); err != nil {
		return nil, err
	}

	class := &core.Classification{
		Subsector:  normalizeLabel(resp.Subsector),
		Confidence: min(max(resp.Confidence, 0), 1),
	}
	if sector, ok := c.sectors.MatchSector(resp.Sector); ok {
		class.Sector = sector
	} else if resp.Sector != "" {
		c.logger.Debug("model returned unknown sector", "sector", resp.Sector)
	}
	if docType := normalizeLabel(resp.DocType); slices.Contains(ai.DocTypes, docType) {
		class.DocType = docType
	}

	c.logger.Debug("classified document",
		"sector", class.Sector,
		"subsector", class.Subsector,
		"doc_type", class.DocType,
		"confidence", class.Confidence)
	return class, nil
}
