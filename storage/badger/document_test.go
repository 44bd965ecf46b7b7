package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestUpsertDocument_Create(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.UpsertDocument(ctx, &core.Document{
		Path:      "/data/energy/grid/acme/report.md",
		Text:      "substation report",
		EntityIds: []core.ID{1, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, core.DocumentID("/data/energy/grid/acme/report.md"), doc.Id)
	assert.Equal(t, 1, doc.Revision)
	assert.False(t, doc.InsertedAt.IsZero())
	assert.Equal(t, doc.InsertedAt, doc.UpdatedAt)

	stored, err := repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "substation report", stored.Text)
	assert.Equal(t, []core.ID{1, 2}, stored.EntityIds)
}

func TestUpsertDocument_ReingestIncrementsRevision(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()
	path := "/data/notes.md"

	first, err := repos.Documents.UpsertDocument(ctx, &core.Document{Path: path, Text: "v1", EntityIds: []core.ID{1}})
	require.NoError(t, err)
	inserted := first.InsertedAt

	second, err := repos.Documents.UpsertDocument(ctx, &core.Document{Path: path, Text: "v2", EntityIds: []core.ID{2}})
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, 2, second.Revision)
	assert.True(t, inserted.Equal(second.InsertedAt))

	count, err := repos.Documents.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The old entity index is replaced.
	ids, err := repos.Documents.GetDocumentsByEntity(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
	ids, err = repos.Documents.GetDocumentsByEntity(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{first.Id}, ids)
}

func TestUpsertDocument_RequiresPath(t *testing.T) {
	repos := newTestRepositories(t)

	_, err := repos.Documents.UpsertDocument(context.Background(), &core.Document{Text: "orphan"})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = repos.Documents.UpsertDocument(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestGetDocument_NotFound(t *testing.T) {
	repos := newTestRepositories(t)

	_, err := repos.Documents.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDocumentByPath(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.UpsertDocument(ctx, &core.Document{Path: "/a.md", Text: "a"})
	require.NoError(t, err)

	found, err := repos.Documents.GetDocumentByPath(ctx, "/a.md")
	require.NoError(t, err)
	assert.Equal(t, doc.Id, found.Id)

	_, err = repos.Documents.GetDocumentByPath(ctx, "/b.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDocuments_SkipsMissing(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.UpsertDocument(ctx, &core.Document{Path: "/a.md", Text: "a"})
	require.NoError(t, err)

	docs, err := repos.Documents.GetDocuments(ctx, doc.Id, "missing")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.Id, docs[0].Id)
}

func TestDeleteDocument(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.UpsertDocument(ctx, &core.Document{Path: "/a.md", Text: "a", EntityIds: []core.ID{5}})
	require.NoError(t, err)

	require.NoError(t, repos.Documents.DeleteDocument(ctx, doc.Id))

	_, err = repos.Documents.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repos.Documents.GetDocumentByPath(ctx, "/a.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	ids, err := repos.Documents.GetDocumentsByEntity(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, repos.Documents.DeleteDocument(ctx, doc.Id), storage.ErrNotFound)
}

func TestListDocumentIDs_Pages(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	for _, p := range []string{"/1.md", "/2.md", "/3.md", "/4.md", "/5.md"} {
		_, err := repos.Documents.UpsertDocument(ctx, &core.Document{Path: p, Text: p})
		require.NoError(t, err)
	}

	var all []string
	after := ""
	for {
		page, err := repos.Documents.ListDocumentIDs(ctx, after, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		assert.LessOrEqual(t, len(page), 2)
		all = append(all, page...)
		after = page[len(page)-1]
	}
	assert.Len(t, all, 5)
	assert.IsIncreasing(t, all)

	_, err := repos.Documents.ListDocumentIDs(ctx, "", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestUpdateVectors(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.UpsertDocument(ctx, &core.Document{Path: "/a.md", Text: "a"})
	require.NoError(t, err)

	require.NoError(t, repos.Documents.UpdateVectors(ctx, map[string][]float32{doc.Id: {0, 1}}))

	stored, err := repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, stored.Vector)
	assert.Equal(t, 1, stored.Revision)

	err = repos.Documents.UpdateVectors(ctx, map[string][]float32{"missing": {1}})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindSimilar(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	docs := []*core.Document{
		{Path: "/same.md", Text: "same", Vector: []float32{1, 0, 0}},
		{Path: "/close.md", Text: "close", Vector: []float32{0.8, 0.6, 0}},
		{Path: "/far.md", Text: "far", Vector: []float32{0, 0, 1}},
		{Path: "/none.md", Text: "no vector"},
	}
	for _, d := range docs {
		_, err := repos.Documents.UpsertDocument(ctx, d)
		require.NoError(t, err)
	}

	query := []float32{1, 0, 0}

	t.Run("threshold", func(t *testing.T) {
		results, err := repos.Documents.FindSimilar(ctx, query, 0.7, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "same", results[0].Document.Text)
		assert.Equal(t, "close", results[1].Document.Text)
		assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	})

	t.Run("limit", func(t *testing.T) {
		results, err := repos.Documents.FindSimilar(ctx, query, 0, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "same", results[0].Document.Text)
	})

	t.Run("no limit", func(t *testing.T) {
		results, err := repos.Documents.FindSimilar(ctx, query, 0, 0)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}

func TestFindSimilar_NoDocuments(t *testing.T) {
	repos := newTestRepositories(t)

	results, err := repos.Documents.FindSimilar(context.Background(), []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDocumentRepository_ClosedBackend(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	_, err = repos.Documents.GetDocument(context.Background(), "x")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
