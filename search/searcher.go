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

package search

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// Scoring weights.
const (
	DefaultMinSimilarity = 0.60

	bothSignalsBoost = 1.5
	entityOnlyScore  = 1.2
	verbatimBoost    = 0.3
)

// Searcher finds documents relevant to a free-text query.
type Searcher struct {
	documents     storage.DocumentRepository
	entities      storage.EntityRepository
	embedder      ai.Embedder
	extractor     ai.EntityExtractor
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the cosine similarity a document needs to count as
// a semantic hit. Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	entities storage.EntityRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		documents:     documents,
		entities:      entities,
		embedder:      provider.Embedder(),
		extractor:     provider.EntityExtractor(),
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar searches for documents relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for documents with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Semantic search
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := s.documents.FindSimilar(ctx, core.NormalizeVector(embedding), s.minSimilarity, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}

	semanticScores := make(map[string]float32, len(matches))
	semanticIDs := make([]string, 0, len(matches))
	for _, match := range matches {
		semanticScores[match.Document.Id] = match.Score
		semanticIDs = append(semanticIDs, match.Document.Id)
	}
	monitor.AfterSemanticSearch(semanticIDs)

	// 2. Entities named in the query. Extraction failures degrade to
	// semantic-only search.
	entities := s.queryEntities(ctx, query)
	monitor.AfterQueryEntityExtraction(entities)

	// 3. Documents mentioning those entities
	entitySet := make(map[string]struct{})
	for _, entity := range entities {
		docIDs, err := s.documents.GetDocumentsByEntity(ctx, entity.Id)
		if err != nil {
			s.logger.Warn("failed to get documents for entity", "entityID", entity.Id, "err", err)
			continue
		}
		monitor.FoundRelatedDocuments(entity.Tuple(), docIDs)
		for _, id := range docIDs {
			entitySet[id] = struct{}{}
		}
	}
	monitor.AfterEntityRelatedSearch(maps.Keys(entitySet))

	// 4. Combine and score
	ids := make(map[string]struct{}, len(semanticScores)+len(entitySet))
	for id := range semanticScores {
		ids[id] = struct{}{}
	}
	for id := range entitySet {
		ids[id] = struct{}{}
	}
	if len(ids) == 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	docs, err := s.documents.GetDocuments(ctx, slices.Sorted(maps.Keys(ids))...)
	if err != nil {
		s.logger.Error("error retrieving documents", "documentCount", len(ids), "err", err)
		return nil, err
	}
	monitor.AfterDocumentRetrieval(docs)

	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		similarity, inSemantic := semanticScores[doc.Id]
		_, inEntity := entitySet[doc.Id]

		var score float32
		switch {
		case inSemantic && inEntity:
			score = bothSignalsBoost * similarity
			monitor.SemanticAndEntityHit(doc)
		case inEntity:
			score = entityOnlyScore
			monitor.EntityHit(doc)
		default:
			score = similarity
			monitor.SemanticHit(doc)
		}

		if containsAllQueryWords(doc.Text, query) {
			score += verbatimBoost
		}

		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    score,
		})
	}

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Document.Path, b.Document.Path)
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// queryEntities extracts entities from the query and keeps those already stored.
func (s *Searcher) queryEntities(ctx context.Context, query string) []*core.Entity {
	extraction, err := s.extractor.ExtractEntities(ctx, query, "")
	if err != nil {
		s.logger.Warn("error extracting entities from query", "err", err)
		return nil
	}
	if extraction == nil {
		return nil
	}

	entities := make([]*core.Entity, 0, len(extraction.Entities))
	for _, e := range extraction.Entities {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		entityType := strings.ToLower(strings.TrimSpace(e.Type))
		entity, err := s.entities.FindEntityByNameAndType(ctx, name, entityType)
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("entity not found in database", "tuple", core.EntityTuple(name, entityType))
			continue
		}
		if err != nil {
			s.logger.Warn("error looking up entity", "tuple", core.EntityTuple(name, entityType), "err", err)
			continue
		}
		entities = append(entities, entity)
	}
	return entities
}
