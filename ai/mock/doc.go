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

// Package mock provides goroutine-safe test doubles for the ai services.
//
// Each mock exposes a func field that overrides its default behavior and a
// call counter for assertions. Counters are atomic and the func fields are
// guarded, so mocks can be shared by concurrent pipeline workers.
//
//	extractor := mock.NewMockEntityExtractor()
//	extractor.SetExtractFunc(func(ctx context.Context, text, sector string) (*core.Extraction, error) {
//	    return nil, errors.New("model unavailable")
//	})
//	count := extractor.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: deterministic unit vectors derived from a text hash
//   - MockClassifier: echoes path routing, or matches sector keywords in the text
//   - MockEntityExtractor: turns the first distinct long words into entities
//   - MockProvider: aggregates the three
package mock
