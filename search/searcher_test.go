package search

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"testing"

	"github.com/poiesic/docflow/ai/mock"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/sink"
	"github.com/poiesic/docflow/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repos    *badger.Repositories
	provider *mock.MockProvider
	searcher *Searcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), mock.NewMockClassifier(), mock.NewMockEntityExtractor())
	searcher, err := NewSearcher(repos.Documents, repos.Entities, provider)
	require.NoError(t, err)

	return &fixture{repos: repos, provider: provider, searcher: searcher}
}

// ingest stores text the way the pipeline would, with mock extraction.
func (f *fixture) ingest(t *testing.T, path, text string) {
	t.Helper()
	ctx := context.Background()

	s, err := sink.New(f.repos.Documents, f.repos.Entities, sink.WithEmbedder(f.provider.Embedder()))
	require.NoError(t, err)

	x, err := f.provider.EntityExtractor().ExtractEntities(ctx, text, "")
	require.NoError(t, err)
	_, err = s.Ingest(ctx, x.Entities, x.Relationships, core.RoutingMetadata{}, text, path)
	require.NoError(t, err)
}

func (f *fixture) seed(t *testing.T) {
	f.ingest(t, "/a.md", "transformer inspection north substation")
	f.ingest(t, "/b.md", "quarterly budget review")
	f.ingest(t, "/c.md", "transformer replacement schedule")
}

func paths(results []*core.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.Path
	}
	return out
}

func TestNewSearcher(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Documents, repos.Entities, provider)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		assert.Equal(t, float32(DefaultMinSimilarity), searcher.minSimilarity)
	})

	t.Run("with options", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Documents, repos.Entities, provider,
			WithLogger(slog.Default()), WithMinSimilarity(0.8))
		require.NoError(t, err)
		assert.Equal(t, float32(0.8), searcher.minSimilarity)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Documents, repos.Entities, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewSearcher(nil, repos.Entities, provider)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil entity repository", func(t *testing.T) {
		_, err := NewSearcher(repos.Documents, nil, provider)
		assert.Equal(t, ErrEntityRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(repos.Documents, repos.Entities, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestFindSimilar_EmptyDatabase(t *testing.T) {
	f := newFixture(t)

	results, err := f.searcher.FindSimilar(context.Background(), "test query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_BothSignalsRankFirst(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	results, err := f.searcher.FindSimilar(context.Background(), "transformer inspection north substation", 10)
	require.NoError(t, err)

	require.Equal(t, []string{"/a.md", "/c.md"}, paths(results))
	// Exact text: similarity 1.0 boosted for both signals, plus verbatim.
	assert.InDelta(t, bothSignalsBoost+verbatimBoost, results[0].Score, 1e-4)
	assert.InDelta(t, entityOnlyScore, results[1].Score, 1e-4)
}

func TestFindSimilar_EntityOnly(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	results, err := f.searcher.FindSimilar(context.Background(), "transformer", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"/a.md", "/c.md"}, paths(results))
	for _, r := range results {
		assert.InDelta(t, entityOnlyScore+verbatimBoost, r.Score, 1e-4)
	}
}

func TestFindSimilar_MaxHits(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	results, err := f.searcher.FindSimilar(context.Background(), "transformer", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestFindSimilar_ExtractionFailureFallsBackToSemantic(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	f.provider.GetMockExtractor().SetExtractFunc(func(ctx context.Context, text, sector string) (*core.Extraction, error) {
		return nil, errors.New("model offline")
	})

	results, err := f.searcher.FindSimilar(context.Background(), "quarterly budget review", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"/b.md"}, paths(results))
	assert.InDelta(t, 1.0+verbatimBoost, results[0].Score, 1e-4)
}

func TestFindSimilar_EmbeddingError(t *testing.T) {
	f := newFixture(t)
	f.provider.GetMockEmbedder().SetEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding failed")
	})

	_, err := f.searcher.FindSimilar(context.Background(), "anything", 10)
	assert.Error(t, err)
}

type recordingMonitor struct {
	query        string
	semantic     []string
	entities     []*core.Entity
	related      map[string][]string
	entityDocs   []string
	retrieved    int
	bothHits     int
	semanticHits int
	entityHits   int
	finished     []*core.SearchResult
}

func (m *recordingMonitor) Start(query string) { m.query = query }

func (m *recordingMonitor) AfterSemanticSearch(ids []string) { m.semantic = ids }

func (m *recordingMonitor) AfterQueryEntityExtraction(e []*core.Entity) { m.entities = e }

func (m *recordingMonitor) FoundRelatedDocuments(tuple string, ids []string) {
	if m.related == nil {
		m.related = make(map[string][]string)
	}
	m.related[tuple] = ids
}

func (m *recordingMonitor) AfterEntityRelatedSearch(ids iter.Seq[string]) {
	m.entityDocs = slices.Sorted(ids)
}

func (m *recordingMonitor) AfterDocumentRetrieval(docs []*core.Document) { m.retrieved = len(docs) }

func (m *recordingMonitor) SemanticAndEntityHit(*core.Document) { m.bothHits++ }

func (m *recordingMonitor) SemanticHit(*core.Document) { m.semanticHits++ }

func (m *recordingMonitor) EntityHit(*core.Document) { m.entityHits++ }

func (m *recordingMonitor) Finish(results []*core.SearchResult) { m.finished = results }

func TestFindSimilarWithMonitor(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	monitor := &recordingMonitor{}
	query := "transformer inspection north substation"
	results, err := f.searcher.FindSimilarWithMonitor(context.Background(), query, 10, monitor)
	require.NoError(t, err)

	assert.Equal(t, query, monitor.query)
	assert.Equal(t, []string{core.DocumentID("/a.md")}, monitor.semantic)
	assert.Len(t, monitor.entities, 4)
	assert.Contains(t, monitor.related, core.EntityTuple("transformer", "system"))
	assert.ElementsMatch(t, []string{core.DocumentID("/a.md"), core.DocumentID("/c.md")}, monitor.entityDocs)
	assert.Equal(t, 2, monitor.retrieved)
	assert.Equal(t, 1, monitor.bothHits)
	assert.Equal(t, 1, monitor.entityHits)
	assert.Equal(t, 0, monitor.semanticHits)
	assert.Equal(t, results, monitor.finished)
}

func TestContainsAllQueryWords(t *testing.T) {
	tests := []struct {
		doc, query string
		want       bool
	}{
		{"Transformer T4 failed inspection.", "transformer inspection", true},
		{"Transformer T4 failed inspection.", "the transformer, T4", true},
		{"Transformer T4 failed inspection.", "transformer outage", false},
		{"anything", "the of and", false},
		{"", "transformer", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsAllQueryWords(tt.doc, tt.query), "%q in %q", tt.query, tt.doc)
	}
}
