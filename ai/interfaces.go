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

package ai

import (
	"context"

	"github.com/poiesic/docflow/core"
)

type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple texts in one call.
	// The returned slice is in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type Classifier interface {
	// Classify assigns a sector, subsector and document type to text.
	// routing carries what the path already revealed and may be used as a hint.
	// Empty fields in the returned Classification mean "no opinion".
	Classify(ctx context.Context, text string, routing core.RoutingMetadata) (*core.Classification, error)
}

type EntityExtractor interface {
	// ExtractEntities finds named entities and the relationships between them.
	// sector narrows the vocabulary the model is steered towards and may be empty.
	// Returns an empty Extraction when nothing is found.
	ExtractEntities(ctx context.Context, text string, sector string) (*core.Extraction, error)
}

type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Classifier returns the document classification service.
	Classifier() Classifier

	// EntityExtractor returns the entity extraction service.
	EntityExtractor() EntityExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
