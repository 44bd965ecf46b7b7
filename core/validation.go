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

package core

import (
	"fmt"
	"strings"
)

// ValidateExtraction validates extractor output before it reaches a sink.
//
// Validation rules:
//   - every entity has a non-blank name and type
//   - every relationship has a non-blank type
//   - relationship endpoints name entities of the same extraction (case-insensitive)
//
// A nil extraction is valid and means "nothing extracted".
func ValidateExtraction(x *Extraction) error {
	if x == nil {
		return nil
	}

	names := make(map[string]struct{}, len(x.Entities))
	for i, e := range x.Entities {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: entity %d: %w", ErrValidation, i, ErrEmptyEntityName)
		}
		if strings.TrimSpace(e.Type) == "" {
			return fmt.Errorf("%w: entity %q: %w", ErrValidation, e.Name, ErrEmptyEntityType)
		}
		names[strings.ToLower(e.Name)] = struct{}{}
	}

	for _, r := range x.Relationships {
		if strings.TrimSpace(r.Type) == "" {
			return fmt.Errorf("%w: %s -> %s: %w", ErrValidation, r.Source, r.Target, ErrEmptyRelationshipType)
		}
		if _, ok := names[strings.ToLower(r.Source)]; !ok {
			return fmt.Errorf("%w: source %q: %w", ErrValidation, r.Source, ErrDanglingRelationship)
		}
		if _, ok := names[strings.ToLower(r.Target)]; !ok {
			return fmt.Errorf("%w: target %q: %w", ErrValidation, r.Target, ErrDanglingRelationship)
		}
	}
	return nil
}

// ValidateDocument validates a document before it is persisted.
//
// NOT validated (populated by the sink):
//   - Vector, EntityIds, RelationshipIds
//   - Revision and timestamps
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}
	if doc.Path == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyPath)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: %s: %w", ErrValidation, doc.Path, ErrEmptyText)
	}
	return ValidateRouting(doc.Routing)
}

// ValidateRouting checks that routing confidence is a probability.
func ValidateRouting(r RoutingMetadata) error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: %w: %v", ErrValidation, ErrInvalidConfidence, r.Confidence)
	}
	return nil
}
