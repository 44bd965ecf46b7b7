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
	"bytes"
	"context"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// ResultRepository implements storage.ResultRepository using BadgerDB.
// Results are keyed by a monotonically increasing sequence number.
type ResultRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.ResultRepository = (*ResultRepository)(nil)

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(backend *Backend) (*ResultRepository, error) {
	seq, err := backend.GetSequence(resultSeq)
	if err != nil {
		return nil, err
	}
	return &ResultRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the result sequence.
func (r *ResultRepository) Close() error {
	return r.seq.Release()
}

// AppendResult adds a result to the end of the log.
func (r *ResultRepository) AppendResult(ctx context.Context, result *core.PipelineResult) error {
	next, err := r.seq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		next, err = r.seq.Next()
		if err != nil {
			return err
		}
	}

	value, err := storage.MarshalResult(result)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeResultKey(next), value); err != nil {
			return err
		}
		if err := tx.Set(makeResultPathKey(result.Path, next), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListResults returns up to limit results, most recent first.
func (r *ResultRepository) ListResults(ctx context.Context, limit int) ([]*core.PipelineResult, error) {
	var results []*core.PipelineResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(resultPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := append(bytes.Clone(prefix), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		for iter.Seek(start); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			result, err := readResultItem(iter.Item())
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	}, false)
	return results, err
}

// ResultsForPath returns every result recorded for path, oldest first.
func (r *ResultRepository) ResultsForPath(ctx context.Context, path string) ([]*core.PipelineResult, error) {
	var results []*core.PipelineResult
	prefix := makePartialResultPathKey(path)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var seqs []uint64
		err := r.backend.forEachKey(tx, prefix, false, func(item *badger.Item) error {
			key := item.Key()
			if len(key) != len(prefix)+8 {
				return nil
			}
			seqs = append(seqs, binary.BigEndian.Uint64(key[len(prefix):]))
			return nil
		})
		if err != nil {
			return err
		}

		for _, seq := range seqs {
			item, err := tx.Get(makeResultKey(seq))
			if err != nil {
				return err
			}
			result, err := readResultItem(item)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	}, false)
	return results, err
}

func readResultItem(item *badger.Item) (*core.PipelineResult, error) {
	var result *core.PipelineResult
	err := item.Value(func(val []byte) error {
		var err error
		result, err = storage.UnmarshalResult(val)
		return err
	})
	return result, err
}
