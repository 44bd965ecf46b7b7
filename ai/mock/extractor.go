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

package mock

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/poiesic/docflow/core"
)

// MaxEntities bounds the entities produced by the default extraction.
const MaxEntities = 5

// MockEntityExtractor is a test double for ai.EntityExtractor.
type MockEntityExtractor struct {
	mu          sync.RWMutex
	extractFunc func(ctx context.Context, text string, sector string) (*core.Extraction, error)
	callCount   atomic.Int64
}

// NewMockEntityExtractor creates a mock extractor with default behavior.
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{}
}

// SetExtractFunc overrides ExtractEntities.
func (m *MockEntityExtractor) SetExtractFunc(fn func(ctx context.Context, text string, sector string) (*core.Extraction, error)) *MockEntityExtractor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractFunc = fn
	return m
}

// ExtractEntities turns the first distinct words of five or more letters into
// entities of decreasing importance, linked in order by "references".
func (m *MockEntityExtractor) ExtractEntities(ctx context.Context, text string, sector string) (*core.Extraction, error) {
	m.callCount.Add(1)

	m.mu.RLock()
	fn := m.extractFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(ctx, text, sector)
	}

	extraction := &core.Extraction{}
	seen := make(map[string]bool)
	importance := 10
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(extraction.Entities) >= MaxEntities {
			break
		}
		word = strings.Trim(word, ".,!?;:\"'()[]{}#*-")
		if len(word) < 5 || seen[word] {
			continue
		}
		seen[word] = true

		entityType := "system"
		if sector != "" {
			entityType = "asset"
		}
		extraction.Entities = append(extraction.Entities, core.ExtractedEntity{
			Name:       word,
			Type:       entityType,
			Importance: importance,
		})
		if n := len(extraction.Entities); n > 1 {
			extraction.Relationships = append(extraction.Relationships, core.ExtractedRelationship{
				Source: extraction.Entities[n-2].Name,
				Target: word,
				Type:   "references",
			})
		}
		importance--
	}
	return extraction, nil
}

// CallCount returns the number of times ExtractEntities was called.
func (m *MockEntityExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockEntityExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount.Store(0)
	m.extractFunc = nil
}
