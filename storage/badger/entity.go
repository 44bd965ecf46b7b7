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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// EntityRepository implements storage.EntityRepository using BadgerDB.
type EntityRepository struct {
	backend *Backend
}

var _ storage.EntityRepository = (*EntityRepository)(nil)

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(backend *Backend) (*EntityRepository, error) {
	return &EntityRepository{backend: backend}, nil
}

// Close releases resources. EntityRepository has no resources to release.
func (r *EntityRepository) Close() error {
	return nil
}

// GetOrCreateEntity finds or creates an entity by name and type.
func (r *EntityRepository) GetOrCreateEntity(ctx context.Context, name, entityType string) (*core.Entity, error) {
	if name == "" || entityType == "" {
		return nil, fmt.Errorf("%w: entity name and type are required", storage.ErrInvalidQuery)
	}

	entity, err := r.FindEntityByNameAndType(ctx, name, entityType)
	if err == nil {
		return entity, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	entity = &core.Entity{
		Id:         core.EntityID(name, entityType),
		Name:       name,
		Type:       entityType,
		InsertedAt: now,
		UpdatedAt:  now,
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := storage.MarshalEntity(entity)
		if err != nil {
			return err
		}
		if err := tx.Set(makeEntityKey(entity.Id), value); err != nil {
			return err
		}
		id, err := storage.MarshalID(entity.Id)
		if err != nil {
			return err
		}
		if err := tx.Set(makeEntityTupleKey(name, entityType), id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		// Another writer may have created it first.
		existing, findErr := r.FindEntityByNameAndType(ctx, name, entityType)
		if findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return entity, nil
}

// GetEntity retrieves a single entity by ID.
func (r *EntityRepository) GetEntity(ctx context.Context, id core.ID) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntity(tx, makeEntityKey(id))
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

// GetEntities retrieves multiple entities by their IDs.
func (r *EntityRepository) GetEntities(ctx context.Context, ids ...core.ID) ([]*core.Entity, error) {
	var result []*core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entity, err := readEntity(tx, makeEntityKey(id))
			if err != nil {
				return err
			}
			if entity != nil {
				result = append(result, entity)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindEntityByNameAndType finds an entity through the tuple index.
func (r *EntityRepository) FindEntityByNameAndType(ctx context.Context, name, entityType string) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntityTupleKey(name, entityType))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var entityID core.ID
		err = item.Value(func(val []byte) error {
			entityID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readEntity(tx, makeEntityKey(entityID))
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

// AddRelationships stores relationships and indexes them under both endpoints.
// Storing an edge twice keeps its original InsertedAt.
func (r *EntityRepository) AddRelationships(ctx context.Context, relationships ...*core.Relationship) ([]*core.Relationship, error) {
	if len(relationships) == 0 {
		return nil, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, rel := range relationships {
			if rel.SourceId == 0 || rel.TargetId == 0 || rel.Type == "" {
				return fmt.Errorf("%w: relationship needs source, target and type", storage.ErrInvalidQuery)
			}
			if rel.Id == 0 {
				rel.Id = core.RelationshipID(rel.SourceId, rel.Type, rel.TargetId)
			}

			key := makeRelationshipKey(rel.Id)
			old, err := readRelationship(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				// Indices were written with the original.
				rel.InsertedAt = old.InsertedAt
				continue
			}
			rel.InsertedAt = now

			value, err := storage.MarshalRelationship(rel)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
			if err := tx.Set(makeRelationshipIndexKey(rel.SourceId, rel.Id), nil); err != nil {
				return err
			}
			if err := tx.Set(makeRelationshipIndexKey(rel.TargetId, rel.Id), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return relationships, nil
}

// GetRelationshipsForEntity returns relationships where the entity is source or target.
func (r *EntityRepository) GetRelationshipsForEntity(ctx context.Context, id core.ID) ([]*core.Relationship, error) {
	var result []*core.Relationship
	prefix := makePartialRelationshipIndexKey(id)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var relIDs [][]byte
		err := r.backend.forEachKey(tx, prefix, false, func(item *badger.Item) error {
			relIDs = append(relIDs, item.KeyCopy(nil)[len(prefix):])
			return nil
		})
		if err != nil {
			return err
		}

		for _, relID := range relIDs {
			key := append([]byte(relationshipPrefix), relID...)
			rel, err := readRelationship(tx, key)
			if err != nil {
				return err
			}
			if rel != nil {
				result = append(result, rel)
			}
		}
		return nil
	}, false)
	return result, err
}

// readEntity returns nil when the key doesn't exist.
func readEntity(tx *badger.Txn, key []byte) (*core.Entity, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entity *core.Entity
	err = item.Value(func(val []byte) error {
		var err error
		entity, err = storage.UnmarshalEntity(val)
		return err
	})
	return entity, err
}

// readRelationship returns nil when the key doesn't exist.
func readRelationship(tx *badger.Txn, key []byte) (*core.Relationship, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var rel *core.Relationship
	err = item.Value(func(val []byte) error {
		var err error
		rel, err = storage.UnmarshalRelationship(val)
		return err
	})
	return rel, err
}
