package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/poiesic/docflow/ai/mock"
	"github.com/poiesic/docflow/config"
	"github.com/poiesic/docflow/core"
	"github.com/stretchr/testify/require"
)

// fileConverter reads files verbatim and refuses .bin files.
type fileConverter struct {
	convertFunc func(ctx context.Context, path string) (string, error)
}

func (c *fileConverter) Supports(path string) bool {
	return filepath.Ext(path) != ".bin"
}

func (c *fileConverter) Convert(ctx context.Context, path string) (string, error) {
	if c.convertFunc != nil {
		return c.convertFunc(ctx, path)
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

type ingestCall struct {
	path     string
	routing  core.RoutingMetadata
	entities int
}

// recordingSink remembers every call and succeeds unless ingestFunc says otherwise.
type recordingSink struct {
	ingestFunc func(ctx context.Context, path string) error
	count      atomic.Int32

	mu    sync.Mutex
	calls []ingestCall
}

func (s *recordingSink) Ingest(
	ctx context.Context,
	entities []core.ExtractedEntity,
	relationships []core.ExtractedRelationship,
	routing core.RoutingMetadata,
	text string,
	sourcePath string,
) (*core.IngestReceipt, error) {
	s.count.Add(1)
	s.mu.Lock()
	s.calls = append(s.calls, ingestCall{path: sourcePath, routing: routing, entities: len(entities)})
	s.mu.Unlock()

	if s.ingestFunc != nil {
		if err := s.ingestFunc(ctx, sourcePath); err != nil {
			return nil, err
		}
	}
	return &core.IngestReceipt{
		DocID:             core.DocumentID(sourcePath),
		EntityCount:       len(entities),
		RelationshipCount: len(relationships),
		Revision:          1,
	}, nil
}

func (s *recordingSink) Calls() []ingestCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ingestCall(nil), s.calls...)
}

func testCollaborators(sink Sink) Collaborators {
	return Collaborators{
		Converter:  &fileConverter{},
		Classifier: mock.NewMockClassifier(),
		Extractor:  mock.NewMockEntityExtractor(),
		Sink:       sink,
	}
}

func testConfig(dir string) config.PipelineConfig {
	return config.PipelineConfig{
		WatchDirectories:     []string{dir},
		SupportedExtensions:  []string{".md", ".txt", ".bin"},
		Recursive:            true,
		BatchSize:            2,
		ParallelWorkers:      2,
		CheckIntervalSeconds: 0.02,
		JoinTimeoutSeconds:   5,
	}
}

// tempDir returns a symlink-free temporary directory so paths compare
// equal to the watcher's canonical paths.
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// moveIn writes a file elsewhere and renames it into dir, so watchers see
// a single create event for a complete file.
func moveIn(t *testing.T, staging, dir, name, contents string) string {
	t.Helper()
	src := writeFile(t, staging, name, contents)
	dst := filepath.Join(dir, name)
	require.NoError(t, os.Rename(src, dst))
	return dst
}
