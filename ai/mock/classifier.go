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
	"github.com/poiesic/docflow/routing"
)

// MockClassifier is a test double for ai.Classifier.
type MockClassifier struct {
	mu           sync.RWMutex
	classifyFunc func(ctx context.Context, text string, hint core.RoutingMetadata) (*core.Classification, error)
	sectors      *routing.PathClassifier
	callCount    atomic.Int64
}

// NewMockClassifier creates a mock classifier with default behavior.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{sectors: routing.NewPathClassifier()}
}

// SetClassifyFunc overrides Classify.
func (m *MockClassifier) SetClassifyFunc(fn func(ctx context.Context, text string, hint core.RoutingMetadata) (*core.Classification, error)) *MockClassifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifyFunc = fn
	return m
}

// Classify keeps a path-derived sector with high confidence. Otherwise the
// first word of text that names a sector wins with low confidence.
func (m *MockClassifier) Classify(ctx context.Context, text string, hint core.RoutingMetadata) (*core.Classification, error) {
	m.callCount.Add(1)

	m.mu.RLock()
	fn := m.classifyFunc
	m.mu.RUnlock()
	if fn != nil {
		return fn(ctx, text, hint)
	}

	if hint.Sector != "" {
		return &core.Classification{
			Sector:     hint.Sector,
			Subsector:  hint.Subsector,
			DocType:    "report",
			Confidence: 0.9,
		}, nil
	}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if sector, ok := m.sectors.MatchSector(strings.Trim(word, ".,!?;:\"'()[]{}")); ok {
			return &core.Classification{Sector: sector, DocType: "report", Confidence: 0.4}, nil
		}
	}
	return &core.Classification{}, nil
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount.Store(0)
	m.classifyFunc = nil
}
