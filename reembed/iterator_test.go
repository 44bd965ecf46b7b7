package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
	"github.com/poiesic/docflow/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos.Documents
}

func addDocuments(t *testing.T, repo storage.DocumentRepository, n int) []*core.Document {
	t.Helper()
	docs := make([]*core.Document, n)
	for i := range docs {
		doc, err := repo.UpsertDocument(context.Background(), &core.Document{
			Path: fmt.Sprintf("/docs/%03d.md", i),
			Text: fmt.Sprintf("document %d", i),
		})
		require.NoError(t, err)
		docs[i] = doc
	}
	return docs
}

func TestDocumentIterator_Basic(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, 5)

	iterator := NewDocumentIterator(repo, 2)

	var batchSizes []int
	seen := make(map[string]bool)
	err := iterator.ForEach(context.Background(), func(docs []*core.Document) error {
		batchSizes = append(batchSizes, len(docs))
		for _, d := range docs {
			seen[d.Id] = true
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, batchSizes)
	assert.Len(t, seen, 5)
}

func TestDocumentIterator_BatchSizes(t *testing.T) {
	tests := []struct {
		docs      int
		batchSize int
		batches   int
	}{
		{docs: 10, batchSize: 3, batches: 4},
		{docs: 10, batchSize: 5, batches: 2},
		{docs: 10, batchSize: 10, batches: 2},
		{docs: 10, batchSize: 100, batches: 1},
		{docs: 1, batchSize: 1, batches: 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d docs by %d", tt.docs, tt.batchSize), func(t *testing.T) {
			repo := setupTestDB(t)
			addDocuments(t, repo, tt.docs)

			total, calls := 0, 0
			err := NewDocumentIterator(repo, tt.batchSize).ForEach(context.Background(), func(docs []*core.Document) error {
				calls++
				total += len(docs)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.docs, total)
			// A full final page costs one extra empty lookup but no extra callback.
			assert.LessOrEqual(t, calls, tt.batches)
		})
	}
}

func TestDocumentIterator_EmptyDatabase(t *testing.T) {
	repo := setupTestDB(t)

	called := false
	err := NewDocumentIterator(repo, 10).ForEach(context.Background(), func([]*core.Document) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDocumentIterator_ErrorHandling(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, 6)

	expected := errors.New("processing error")
	calls := 0
	err := NewDocumentIterator(repo, 2).ForEach(context.Background(), func([]*core.Document) error {
		calls++
		if calls == 2 {
			return expected
		}
		return nil
	})
	assert.Equal(t, expected, err)
	assert.Equal(t, 2, calls)
}

func TestDocumentIterator_ContextCancellation(t *testing.T) {
	repo := setupTestDB(t)
	addDocuments(t, repo, 6)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := NewDocumentIterator(repo, 2).ForEach(ctx, func([]*core.Document) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDocumentIterator_InvalidBatchSize(t *testing.T) {
	repo := setupTestDB(t)

	assert.Equal(t, DefaultBatchSize, NewDocumentIterator(repo, 0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewDocumentIterator(repo, -5).batchSize)
}
