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

// Package ai provides abstractions for the model-backed collaborators of the
// ingestion pipeline.
//
// Three services are defined:
//
//   - Embedder: generates vector embeddings from document text
//   - Classifier: assigns sector, subsector and document type
//   - EntityExtractor: extracts entities and relationships
//
// AIProvider aggregates them for convenient initialization.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo-backed implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic, goroutine-safe test doubles
//
// Production constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types. Mock constructors return concrete types so tests can
// inject behavior and read call counts:
//
//	extractor := mock.NewMockEntityExtractor()
//	extractor.ExtractEntitiesFunc = func(ctx context.Context, text, sector string) (*core.Extraction, error) {
//	    return nil, errors.New("model unavailable")
//	}
//	count := extractor.CallCount()
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	class, err := provider.Classifier().Classify(ctx, text, routing)
//	extraction, err := provider.EntityExtractor().ExtractEntities(ctx, text, class.Sector)
package ai
