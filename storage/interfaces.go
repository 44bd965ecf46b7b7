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

package storage

import (
	"context"

	"github.com/poiesic/docflow/core"
)

// Repository is the base interface for all repositories.
type Repository interface {
	// Close releases resources held by the repository. It does not close
	// the shared backend.
	Close() error
}

// DocumentRepository stores ingested documents.
type DocumentRepository interface {
	Repository

	// UpsertDocument stores doc keyed by its path. An empty Id is filled from
	// the path index or core.DocumentID. Re-ingesting a path keeps the ID and
	// InsertedAt and increments Revision; the first write has Revision 1.
	UpsertDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments returns only the documents that exist.
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// GetDocumentByPath returns ErrNotFound if no document came from path.
	GetDocumentByPath(ctx context.Context, path string) (*core.Document, error)

	// DeleteDocument removes a document and its indices.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocumentIDs pages through document IDs in key order, starting
	// after afterID ("" starts at the beginning).
	ListDocumentIDs(ctx context.Context, afterID string, limit int) ([]string, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// UpdateVectors replaces the embeddings of existing documents.
	UpdateVectors(ctx context.Context, vectors map[string][]float32) error

	// GetDocumentsByEntity returns IDs of documents that mention an entity.
	GetDocumentsByEntity(ctx context.Context, entityID core.ID) ([]string, error)

	// FindSimilar returns documents with similarity >= minSimilarity, best
	// first, at most limit of them (limit <= 0 means no limit).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// EntityRepository stores entities and the relationships between them.
type EntityRepository interface {
	Repository

	// GetOrCreateEntity finds or creates an entity by name and type.
	// Safe under concurrent creation of the same entity.
	GetOrCreateEntity(ctx context.Context, name, entityType string) (*core.Entity, error)

	// GetEntity returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id core.ID) (*core.Entity, error)

	// GetEntities returns only the entities that exist.
	GetEntities(ctx context.Context, ids ...core.ID) ([]*core.Entity, error)

	// FindEntityByNameAndType returns ErrNotFound if no entity matches.
	FindEntityByNameAndType(ctx context.Context, name, entityType string) (*core.Entity, error)

	// AddRelationships stores relationships idempotently. IDs are derived
	// from (source, type, target) when zero.
	AddRelationships(ctx context.Context, relationships ...*core.Relationship) ([]*core.Relationship, error)

	// GetRelationshipsForEntity returns relationships where the entity is
	// source or target.
	GetRelationshipsForEntity(ctx context.Context, id core.ID) ([]*core.Relationship, error)
}

// ResultRepository is the append-only log of pipeline outcomes.
type ResultRepository interface {
	Repository

	// AppendResult adds a result to the end of the log.
	AppendResult(ctx context.Context, result *core.PipelineResult) error

	// ListResults returns up to limit results, most recent first
	// (limit <= 0 returns all).
	ListResults(ctx context.Context, limit int) ([]*core.PipelineResult, error)

	// ResultsForPath returns every result recorded for path, oldest first.
	ResultsForPath(ctx context.Context, path string) ([]*core.PipelineResult, error)
}
