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
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
)

// EntityExtractor implements ai.EntityExtractor with a JSON-mode chat model.
type EntityExtractor struct {
	chat          *chatModel
	minImportance int
	logger        *slog.Logger
}

type extractionResponse struct {
	Entities []struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		Importance int    `json:"importance"`
	} `json:"entities"`
	Relationships []struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Type   string `json:"type"`
	} `json:"relationships"`
}

func newEntityExtractor(config *ai.Config) (*EntityExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	chat, err := newChatModel(config, "openai-extractor")
	if err != nil {
		return nil, err
	}
	return &EntityExtractor{
		chat:          chat,
		minImportance: config.MinImportance,
		logger:        chat.logger,
	}, nil
}

// NewEntityExtractor creates an entity extractor using the provided configuration.
func NewEntityExtractor(config *ai.Config) (ai.EntityExtractor, error) {
	return newEntityExtractor(config)
}

// ExtractEntities returns entities at or above the minimum importance,
// most important first, and the relationships between those entities.
// Relationships that reference a dropped entity are discarded.
func (e *EntityExtractor) ExtractEntities(ctx context.Context, text string, sector string) (*core.Extraction, error) {
	var resp extractionResponse
	if err := e.chat.generateJSON(ctx, buildExtractionPrompt(sector), text, &resp); err != nil {
		return nil, err
	}

	byName := make(map[string]core.ExtractedEntity, len(resp.Entities))
	for _, raw := range resp.Entities {
		entity := core.ExtractedEntity{
			Name:       strings.ToLower(strings.TrimSpace(raw.Name)),
			Type:       normalizeLabel(raw.Type),
			Importance: raw.Importance,
		}
		if entity.Name == "" || entity.Type == "" || entity.Importance < e.minImportance {
			continue
		}
		if prev, ok := byName[entity.Name]; ok && prev.Importance >= entity.Importance {
			continue
		}
		byName[entity.Name] = entity
	}

	extraction := &core.Extraction{
		Entities: make([]core.ExtractedEntity, 0, len(byName)),
	}
	for _, entity := range byName {
		extraction.Entities = append(extraction.Entities, entity)
	}
	slices.SortFunc(extraction.Entities, func(a, b core.ExtractedEntity) int {
		if c := cmp.Compare(b.Importance, a.Importance); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	seen := make(map[core.ExtractedRelationship]bool)
	for _, raw := range resp.Relationships {
		rel := core.ExtractedRelationship{
			Source: strings.ToLower(strings.TrimSpace(raw.Source)),
			Target: strings.ToLower(strings.TrimSpace(raw.Target)),
			Type:   normalizeLabel(raw.Type),
		}
		_, srcOK := byName[rel.Source]
		_, dstOK := byName[rel.Target]
		if !srcOK || !dstOK || rel.Type == "" || rel.Source == rel.Target || seen[rel] {
			continue
		}
		seen[rel] = true
		extraction.Relationships = append(extraction.Relationships, rel)
	}

	e.logger.Debug("extracted entities",
		"total", len(resp.Entities),
		"kept", len(extraction.Entities),
		"relationships", len(extraction.Relationships))
	return extraction, nil
}
