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

package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// DocumentRepository implements storage.DocumentRepository using BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// UpsertDocument stores a document keyed by its path.
func (r *DocumentRepository) UpsertDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc == nil || doc.Path == "" {
		return nil, fmt.Errorf("%w: document path is required", storage.ErrInvalidQuery)
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Id == "" {
			id, err := readDocumentIDByPath(tx, doc.Path)
			if err != nil {
				return err
			}
			if id == "" {
				id = core.DocumentID(doc.Path)
			}
			doc.Id = id
		}

		key := makeDocumentKey(doc.Id)
		old, err := readDocument(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if old != nil {
			doc.Revision = old.Revision + 1
			doc.InsertedAt = old.InsertedAt
			if err := deleteDocumentIndices(tx, old); err != nil {
				return err
			}
		} else {
			doc.Revision = 1
			doc.InsertedAt = now
		}
		doc.UpdatedAt = now

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeDocumentPathKey(doc.Path), []byte(doc.Id)); err != nil {
			return err
		}
		for _, entityID := range doc.EntityIds {
			if err := tx.Set(makeDocumentEntityKey(entityID, doc.Id), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentByPath looks a document up through the path index.
func (r *DocumentRepository) GetDocumentByPath(ctx context.Context, path string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readDocumentIDByPath(tx, path)
		if err != nil {
			return err
		}
		if id == "" {
			return storage.ErrNotFound
		}
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteDocument removes a document and its indices.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if err := deleteDocumentIndices(tx, doc); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentPathKey(doc.Path)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListDocumentIDs pages through document IDs in key order.
func (r *DocumentRepository) ListDocumentIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeDocumentKey(afterID)); iter.Valid() && len(ids) < limit; iter.Next() {
			id := string(iter.Item().Key()[len(documentPrefix):])
			if id == afterID {
				continue
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	return ids, err
}

// CountDocuments counts document keys without reading values.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.forEachKey(tx, []byte(documentPrefix), false, func(*badger.Item) error {
			count++
			return nil
		})
	}, false)
	return count, err
}

// UpdateVectors replaces the embeddings of existing documents.
// Returns ErrNotFound if any document doesn't exist.
func (r *DocumentRepository) UpdateVectors(ctx context.Context, vectors map[string][]float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for id, vector := range vectors {
			key := makeDocumentKey(id)
			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
			}
			doc.Vector = vector
			doc.UpdatedAt = now

			value, err := storage.MarshalDocument(doc)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocumentsByEntity returns IDs of documents that mention an entity.
func (r *DocumentRepository) GetDocumentsByEntity(ctx context.Context, entityID core.ID) ([]string, error) {
	var ids []string
	prefix := makePartialDocumentEntityKey(entityID)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.forEachKey(tx, prefix, false, func(item *badger.Item) error {
			ids = append(ids, string(item.Key()[len(prefix):]))
			return nil
		})
	}, false)
	return ids, err
}

// FindSimilar scans every document with an embedding and scores it by dot
// product, which is cosine similarity for normalized vectors.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.backend.forEachKey(tx, []byte(documentPrefix), true, func(item *badger.Item) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc *core.Document
			err := item.Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(doc.Vector) == 0 {
				return nil
			}

			similarity := core.DotProduct(vector, doc.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.SearchResult{Document: doc, Score: similarity})
			}
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// readDocument returns nil when the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

// readDocumentIDByPath returns "" when the path is not indexed.
func readDocumentIDByPath(tx *badger.Txn, path string) (string, error) {
	item, err := tx.Get(makeDocumentPathKey(path))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func deleteDocumentIndices(tx *badger.Txn, doc *core.Document) error {
	for _, entityID := range doc.EntityIds {
		if err := tx.Delete(makeDocumentEntityKey(entityID, doc.Id)); err != nil {
			return err
		}
	}
	return nil
}
