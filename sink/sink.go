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

package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/retry"
	"github.com/poiesic/docflow/storage"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 50 * time.Millisecond
)

// Sink stores documents, entities and relationships.
// It is safe for concurrent use by multiple workers.
type Sink struct {
	documents   storage.DocumentRepository
	entities    storage.EntityRepository
	embedder    ai.Embedder
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithEmbedder enables document embeddings. Without one, documents are
// stored with an empty vector.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(s *Sink) {
		s.embedder = embedder
	}
}

// WithRetry sets how often conflicting writes and embedding calls are retried.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(s *Sink) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a Sink over the given repositories.
func New(documents storage.DocumentRepository, entities storage.EntityRepository, opts ...Option) (*Sink, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if entities == nil {
		return nil, ErrEntityRepositoryRequired
	}

	s := &Sink{
		documents:   documents,
		entities:    entities,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sink")
	return s, nil
}

// Ingest persists one document. Validation failures wrap core.ErrValidation.
func (s *Sink) Ingest(
	ctx context.Context,
	entities []core.ExtractedEntity,
	relationships []core.ExtractedRelationship,
	routing core.RoutingMetadata,
	text string,
	sourcePath string,
) (*core.IngestReceipt, error) {
	doc := &core.Document{
		Path:    sourcePath,
		Routing: routing,
		Text:    text,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if err := core.ValidateExtraction(&core.Extraction{Entities: entities, Relationships: relationships}); err != nil {
		return nil, err
	}

	var (
		vector   []float32
		resolved map[string]*core.Entity
	)

	g, gctx := errgroup.WithContext(ctx)
	if s.embedder != nil {
		g.Go(func() error {
			v, err := s.embed(gctx, text)
			if err != nil {
				return err
			}
			vector = v
			return nil
		})
	}
	g.Go(func() error {
		r, err := s.resolveEntities(gctx, entities)
		if err != nil {
			return err
		}
		resolved = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rels, err := s.storeRelationships(ctx, resolved, relationships)
	if err != nil {
		return nil, err
	}

	doc.Vector = vector
	doc.EntityIds = entityIDs(entities, resolved)
	doc.RelationshipIds = make([]core.ID, 0, len(rels))
	for _, rel := range rels {
		doc.RelationshipIds = append(doc.RelationshipIds, rel.Id)
	}

	var stored *core.Document
	err = s.withConflictRetry(ctx, func() error {
		attempt := *doc
		var err error
		stored, err = s.documents.UpsertDocument(ctx, &attempt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert document %s: %w", sourcePath, err)
	}

	s.logger.Debug("document stored",
		"path", sourcePath,
		"docID", stored.Id,
		"revision", stored.Revision,
		"entities", len(stored.EntityIds),
		"relationships", len(stored.RelationshipIds))

	return &core.IngestReceipt{
		DocID:             stored.Id,
		EntityCount:       len(stored.EntityIds),
		RelationshipCount: len(stored.RelationshipIds),
		Revision:          stored.Revision,
	}, nil
}

func (s *Sink) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retry.WithBackoff(ctx, func() error {
		v, err := s.embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	}, s.maxAttempts, s.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	return core.NormalizeVector(vector), nil
}

// resolveEntities maps lower-cased entity names to stored entities.
func (s *Sink) resolveEntities(ctx context.Context, entities []core.ExtractedEntity) (map[string]*core.Entity, error) {
	resolved := make(map[string]*core.Entity, len(entities))
	for _, e := range entities {
		name := entityKey(e.Name)
		if _, ok := resolved[name]; ok {
			continue
		}
		entityType := strings.ToLower(strings.TrimSpace(e.Type))

		var entity *core.Entity
		err := s.withConflictRetry(ctx, func() error {
			var err error
			entity, err = s.entities.GetOrCreateEntity(ctx, name, entityType)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("resolve entity %q: %w", e.Name, err)
		}
		resolved[name] = entity
	}
	return resolved, nil
}

func (s *Sink) storeRelationships(
	ctx context.Context,
	resolved map[string]*core.Entity,
	relationships []core.ExtractedRelationship,
) ([]*core.Relationship, error) {
	seen := make(map[core.ID]struct{}, len(relationships))
	var rels []*core.Relationship
	for _, r := range relationships {
		source, ok := resolved[entityKey(r.Source)]
		if !ok {
			continue
		}
		target, ok := resolved[entityKey(r.Target)]
		if !ok || source.Id == target.Id {
			continue
		}
		relType := strings.ToLower(strings.TrimSpace(r.Type))
		id := core.RelationshipID(source.Id, relType, target.Id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rels = append(rels, &core.Relationship{
			Id:       id,
			SourceId: source.Id,
			TargetId: target.Id,
			Type:     relType,
		})
	}
	if len(rels) == 0 {
		return nil, nil
	}

	var stored []*core.Relationship
	err := s.withConflictRetry(ctx, func() error {
		var err error
		stored, err = s.entities.AddRelationships(ctx, rels...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store relationships: %w", err)
	}
	return stored, nil
}

// withConflictRetry retries op only while it fails with storage.ErrConflict.
func (s *Sink) withConflictRetry(ctx context.Context, op func() error) error {
	return retry.WithBackoff(ctx, func() error {
		err := op()
		if err != nil && !errors.Is(err, storage.ErrConflict) {
			return retry.Permanent(err)
		}
		return err
	}, s.maxAttempts, s.retryDelay)
}

func entityIDs(entities []core.ExtractedEntity, resolved map[string]*core.Entity) []core.ID {
	ids := make([]core.ID, 0, len(resolved))
	seen := make(map[core.ID]struct{}, len(resolved))
	for _, e := range entities {
		entity, ok := resolved[entityKey(e.Name)]
		if !ok {
			continue
		}
		if _, dup := seen[entity.Id]; dup {
			continue
		}
		seen[entity.Id] = struct{}{}
		ids = append(ids, entity.Id)
	}
	return ids
}

func entityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
