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

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
)

// FormatConverter turns a file into plain text.
type FormatConverter interface {
	// Supports reports whether any conversion is available for path.
	Supports(path string) bool

	// Convert returns the text of path. Empty text means no converter
	// produced output.
	Convert(ctx context.Context, path string) (string, error)
}

// Sink persists a processed document. Errors wrapping core.ErrValidation
// are reported as validation failures, all others as failures.
type Sink interface {
	Ingest(
		ctx context.Context,
		entities []core.ExtractedEntity,
		relationships []core.ExtractedRelationship,
		routing core.RoutingMetadata,
		text string,
		sourcePath string,
	) (*core.IngestReceipt, error)
}

// Collaborators are the services a worker calls. All are required.
type Collaborators struct {
	Converter  FormatConverter
	Classifier ai.Classifier
	Extractor  ai.EntityExtractor
	Sink       Sink
}

func (c Collaborators) validate() error {
	switch {
	case c.Converter == nil:
		return ErrConverterRequired
	case c.Classifier == nil:
		return ErrClassifierRequired
	case c.Extractor == nil:
		return ErrExtractorRequired
	case c.Sink == nil:
		return ErrSinkRequired
	}
	return nil
}
