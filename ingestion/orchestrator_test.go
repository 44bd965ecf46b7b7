package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/docflow/ai/mock"
	"github.com/poiesic/docflow/config"
	"github.com/poiesic/docflow/convert"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/sink"
	"github.com/poiesic/docflow/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

func startAsync(o *Orchestrator, ctx context.Context, mode Mode, opts *RunOptions) <-chan Snapshot {
	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := o.Start(ctx, mode, opts)
		done <- snap
	}()
	return done
}

func TestNewOrchestrator_Validation(t *testing.T) {
	dir := tempDir(t)
	full := testCollaborators(&recordingSink{})

	tests := []struct {
		name    string
		mutate  func(*Collaborators)
		wantErr error
	}{
		{name: "converter", mutate: func(c *Collaborators) { c.Converter = nil }, wantErr: ErrConverterRequired},
		{name: "classifier", mutate: func(c *Collaborators) { c.Classifier = nil }, wantErr: ErrClassifierRequired},
		{name: "extractor", mutate: func(c *Collaborators) { c.Extractor = nil }, wantErr: ErrExtractorRequired},
		{name: "sink", mutate: func(c *Collaborators) { c.Sink = nil }, wantErr: ErrSinkRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collab := full
			tt.mutate(&collab)
			_, err := NewOrchestrator(testConfig(dir), collab)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("config", func(t *testing.T) {
		cfg := testConfig(dir)
		cfg.ParallelWorkers = 0
		_, err := NewOrchestrator(cfg, full)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestOrchestrator_InitialStatus(t *testing.T) {
	o, err := NewOrchestrator(testConfig(tempDir(t)), testCollaborators(&recordingSink{}))
	require.NoError(t, err)

	snap := o.Status()
	assert.Equal(t, StatusInitialized, snap.Status)
	assert.Zero(t, snap.AliveWorkers)
	assert.Zero(t, snap.Elapsed())
}

// Three markdown files, an executable and an unreadable file: only the
// markdown files are discovered and all of them succeed.
func TestOrchestrator_MixedDirectory(t *testing.T) {
	dir := tempDir(t)
	for _, name := range []string{"alpha.md", "bravo.md", "charlie.md"} {
		writeFile(t, filepath.Join(dir, "energy", "grid"), name, "Transformer maintenance report for substation "+name)
	}
	writeFile(t, dir, "installer.exe", "MZ")
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.md"), filepath.Join(dir, "unreadable.md")))

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	docSink, err := sink.New(repos.Documents, repos.Entities,
		sink.WithEmbedder(mock.NewMockEmbedder()),
		sink.WithRetry(10, time.Millisecond))
	require.NoError(t, err)

	cfg := testConfig(dir)
	cfg.SupportedExtensions = []string{".md"}
	o, err := NewOrchestrator(cfg, Collaborators{
		Converter:  convert.NewChain(),
		Classifier: mock.NewMockClassifier(),
		Extractor:  mock.NewMockEntityExtractor(),
		Sink:       docSink,
	})
	require.NoError(t, err)

	snap, err := o.Start(context.Background(), ModeBatch, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Discovered)
	assert.Equal(t, 3, snap.Success)
	assert.Equal(t, 3, snap.Converted)
	assert.Equal(t, 3, snap.Ingested)
	assert.Empty(t, snap.Errors)
	assert.Equal(t, StatusStopped, snap.Status)

	count, err := repos.Documents.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	doc, err := repos.Documents.GetDocumentByPath(context.Background(), filepath.Join(dir, "energy", "grid", "alpha.md"))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "energy", doc.Routing.Sector)
	assert.Equal(t, "grid", doc.Routing.Subsector)
}

// A sink that always fails turns every item into a failure with its own error record.
func TestOrchestrator_FailingSink(t *testing.T) {
	dir := tempDir(t)
	var want []string
	for i := range 4 {
		want = append(want, writeFile(t, dir, fmt.Sprintf("doc%d.md", i), "unreachable storage backend"))
	}
	failing := &recordingSink{ingestFunc: func(context.Context, string) error {
		return errors.New("connection refused")
	}}

	o, err := NewOrchestrator(testConfig(dir), testCollaborators(failing))
	require.NoError(t, err)

	snap, err := o.Start(context.Background(), ModeBatch, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, snap.Discovered)
	assert.Equal(t, 4, snap.Failed)
	assert.Zero(t, snap.Success)
	require.Len(t, snap.Errors, 4)

	var paths []string
	for _, rec := range snap.Errors {
		paths = append(paths, rec.Path)
		assert.Equal(t, core.StageIngesting, rec.Stage)
		assert.Equal(t, "connection refused", rec.Message)
	}
	assert.ElementsMatch(t, want, paths)
}

func TestOrchestrator_EveryOutcomeAccounted(t *testing.T) {
	dir := tempDir(t)
	writeFile(t, dir, "good1.md", "routine inspection summary")
	writeFile(t, dir, "good2.md", "quarterly compliance review")
	writeFile(t, dir, "image.bin", "\x00\x01")
	writeFile(t, dir, "empty.md", "")
	writeFile(t, dir, "invalid.md", "malformed extraction output")
	writeFile(t, dir, "reject.md", "storage outage notes")

	collab := testCollaborators(&recordingSink{ingestFunc: func(_ context.Context, path string) error {
		if strings.HasSuffix(path, "reject.md") {
			return errors.New("write failed")
		}
		return nil
	}})
	collab.Extractor = mock.NewMockEntityExtractor().SetExtractFunc(
		func(_ context.Context, text string, _ string) (*core.Extraction, error) {
			if strings.HasPrefix(text, "malformed") {
				return &core.Extraction{Relationships: []core.ExtractedRelationship{
					{Source: "ghost", Target: "phantom", Type: "haunts"},
				}}, nil
			}
			return &core.Extraction{}, nil
		})

	cfg := testConfig(dir)
	cfg.ParallelWorkers = 3
	o, err := NewOrchestrator(cfg, collab)
	require.NoError(t, err)

	snap, err := o.Start(context.Background(), ModeBatch, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, snap.Discovered)
	assert.Equal(t, 2, snap.Success)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, 1, snap.ConvertedFailed)
	assert.Equal(t, 1, snap.ValidationFailed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, snap.Discovered, snap.Resolved())
	assert.Len(t, snap.Errors, 4)
	assert.Zero(t, snap.QueueDepth)
	assert.Zero(t, snap.InFlight)
	assert.Zero(t, snap.AliveWorkers)
}

func TestOrchestrator_BatchHook(t *testing.T) {
	dir := tempDir(t)
	for i := range 12 {
		writeFile(t, dir, fmt.Sprintf("doc%02d.md", i), "shift handover log")
	}

	var mu sync.Mutex
	var sizes []int
	cfg := testConfig(dir)
	cfg.BatchSize = 5
	o, err := NewOrchestrator(cfg, testCollaborators(&recordingSink{}),
		WithBatchHook(func(batch []core.DiscoveredFile) {
			mu.Lock()
			sizes = append(sizes, len(batch))
			mu.Unlock()
		}))
	require.NoError(t, err)

	snap, err := o.Start(context.Background(), ModeBatch, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 5, 2}, sizes)
	assert.Equal(t, 3, snap.Batches)
	assert.Equal(t, 12, snap.Success)
}

func TestOrchestrator_ResultHook(t *testing.T) {
	dir := tempDir(t)
	writeFile(t, dir, "a.md", "first document body")
	writeFile(t, dir, "b.bin", "skip me")

	var mu sync.Mutex
	var later atomic.Int32
	results := map[string]core.Status{}
	o, err := NewOrchestrator(testConfig(dir), testCollaborators(&recordingSink{}),
		WithResultHook(func(r core.PipelineResult) {
			mu.Lock()
			results[filepath.Base(r.Path)] = r.Status
			mu.Unlock()
			panic("hook bug")
		}),
		WithResultHook(func(core.PipelineResult) { later.Add(1) }))
	require.NoError(t, err)

	snap, err := o.Start(context.Background(), ModeBatch, nil)
	require.NoError(t, err)

	// A panicking hook does not keep later hooks from running.
	assert.EqualValues(t, 2, later.Load())

	assert.Equal(t, map[string]core.Status{
		"a.md":  core.StatusSuccess,
		"b.bin": core.StatusSkipped,
	}, results)
	assert.Equal(t, 2, snap.Resolved())
}

func TestOrchestrator_BatchExplicitFiles(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, dir, "a.md", "first document body")
	writeFile(t, dir, "b.md", "second document body")
	c := writeFile(t, dir, "c.md", "third document body")

	recorder := &recordingSink{}
	cfg := testConfig(dir)
	cfg.BatchSize = 10
	o, err := NewOrchestrator(cfg, testCollaborators(recorder))
	require.NoError(t, err)

	snap, err := o.Start(context.Background(), ModeBatch, &RunOptions{Files: []string{a, c, a}})
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Discovered)
	assert.Equal(t, 2, snap.Success)
	var paths []string
	for _, call := range recorder.Calls() {
		paths = append(paths, call.path)
	}
	assert.ElementsMatch(t, []string{a, c}, paths)
}

func TestOrchestrator_Backpressure(t *testing.T) {
	dir := tempDir(t)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		writeFile(t, dir, name, "slow storage write")
	}

	release := make(chan struct{})
	stalled := &recordingSink{ingestFunc: func(context.Context, string) error {
		<-release
		return nil
	}}

	cfg := testConfig(dir)
	cfg.BatchSize = 1
	cfg.ParallelWorkers = 1
	cfg.QueueCapacity = 1
	o, err := NewOrchestrator(cfg, testCollaborators(stalled))
	require.NoError(t, err)

	done := startAsync(o, context.Background(), ModeBatch, nil)

	// One item in the sink, one queued, the third flush blocked on Put.
	require.Eventually(t, func() bool {
		s := o.Status()
		return s.Discovered == 3 && s.Batches == 3 && s.InFlight == 1 && s.QueueDepth == 1
	}, waitFor, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, stalled.count.Load())
	select {
	case <-done:
		t.Fatal("batch run finished while the sink was stalled")
	default:
	}

	close(release)
	select {
	case snap := <-done:
		assert.Equal(t, 3, snap.Success)
	case <-time.After(waitFor):
		t.Fatal("batch run did not finish")
	}
}

func TestOrchestrator_DurationEndsUnderBackpressure(t *testing.T) {
	dir := tempDir(t)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		writeFile(t, dir, name, "slow storage write")
	}

	release := make(chan struct{})
	timer := time.AfterFunc(1500*time.Millisecond, func() { close(release) })
	defer timer.Stop()
	stalled := &recordingSink{ingestFunc: func(context.Context, string) error {
		<-release
		return nil
	}}

	cfg := testConfig(dir)
	cfg.BatchSize = 1
	cfg.ParallelWorkers = 1
	cfg.QueueCapacity = 1
	cfg.Duration = 1
	o, err := NewOrchestrator(cfg, testCollaborators(stalled))
	require.NoError(t, err)

	// The third flush is still blocked on Put when the run duration ends.
	snap, err := o.Start(context.Background(), ModeWatch, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Discovered)
	assert.Equal(t, 3, snap.Success)
	assert.Zero(t, snap.Failed)
	assert.Empty(t, snap.Errors)
	assert.EqualValues(t, 3, stalled.count.Load())
}

// lockedBuffer collects log output written from several goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestOrchestrator_ComponentLogKeys(t *testing.T) {
	dir := tempDir(t)
	writeFile(t, dir, "a.md", "grid maintenance log")

	var out lockedBuffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o, err := NewOrchestrator(testConfig(dir), testCollaborators(&recordingSink{}), WithLogger(logger))
	require.NoError(t, err)

	snap, err := o.Start(context.Background(), ModeBatch, nil)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Success)

	logs := out.String()
	assert.Contains(t, logs, "component=watcher")
	assert.Contains(t, logs, "component=orchestrator")
	for _, line := range strings.Split(logs, "\n") {
		assert.LessOrEqual(t, strings.Count(line, "component="), 1, line)
	}
}

func TestOrchestrator_WatchAndStop(t *testing.T) {
	dir := tempDir(t)
	staging := tempDir(t)
	writeFile(t, dir, "existing.md", "baseline configuration")

	cfg := testConfig(dir)
	cfg.BatchSize = 1
	recorder := &recordingSink{}
	o, err := NewOrchestrator(cfg, testCollaborators(recorder))
	require.NoError(t, err)

	done := startAsync(o, context.Background(), ModeWatch, &RunOptions{StatusInterval: 20 * time.Millisecond})

	require.Eventually(t, func() bool { return o.Status().Success == 1 }, waitFor, 10*time.Millisecond)
	assert.Equal(t, StatusRunning, o.Status().Status)
	assert.Equal(t, 2, o.Status().AliveWorkers)

	moveIn(t, staging, dir, "arrived.md", "incident response runbook")
	require.Eventually(t, func() bool { return o.Status().Success == 2 }, waitFor, 10*time.Millisecond)

	snap := o.Stop(context.Background())
	assert.Equal(t, StatusStopped, snap.Status)
	assert.Equal(t, 2, snap.Success)
	assert.Zero(t, snap.AliveWorkers)
	assert.False(t, snap.StoppedAt.IsZero())

	select {
	case final := <-done:
		assert.Equal(t, snap.Success, final.Success)
		assert.Equal(t, StatusStopped, final.Status)
	case <-time.After(waitFor):
		t.Fatal("Start did not return after Stop")
	}

	again := o.Stop(context.Background())
	assert.Equal(t, snap.Success, again.Success)
	assert.Equal(t, snap.StoppedAt, again.StoppedAt)
}

func TestOrchestrator_RediscoverAfterCompletion(t *testing.T) {
	dir := tempDir(t)
	staging := tempDir(t)
	path := writeFile(t, dir, "manual.md", "version one")

	cfg := testConfig(dir)
	cfg.BatchSize = 1
	recorder := &recordingSink{}
	o, err := NewOrchestrator(cfg, testCollaborators(recorder))
	require.NoError(t, err)

	done := startAsync(o, context.Background(), ModeWatch, nil)
	defer func() {
		o.Stop(context.Background())
		<-done
	}()

	require.Eventually(t, func() bool { return o.Status().Success == 1 }, waitFor, 10*time.Millisecond)

	moveIn(t, staging, dir, "manual.md", "version two")
	require.Eventually(t, func() bool { return o.Status().Success == 2 }, waitFor, 10*time.Millisecond)

	calls := recorder.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, path, calls[0].path)
	assert.Equal(t, path, calls[1].path)
}

func TestOrchestrator_StopFlushesPending(t *testing.T) {
	dir := tempDir(t)
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		writeFile(t, dir, name, "pending document")
	}

	cfg := testConfig(dir)
	cfg.BatchSize = 10
	o, err := NewOrchestrator(cfg, testCollaborators(&recordingSink{}))
	require.NoError(t, err)

	done := startAsync(o, context.Background(), ModeWatch, nil)

	require.Eventually(t, func() bool { return o.Status().Discovered == 3 }, waitFor, 10*time.Millisecond)
	assert.Zero(t, o.Status().Batches)

	snap := o.Stop(context.Background())
	assert.Equal(t, 1, snap.Batches)
	assert.Equal(t, 3, snap.Success)
	<-done
}

func TestOrchestrator_DurationEndsWatch(t *testing.T) {
	cfg := testConfig(tempDir(t))
	cfg.Duration = 1
	o, err := NewOrchestrator(cfg, testCollaborators(&recordingSink{}))
	require.NoError(t, err)

	start := time.Now()
	snap, err := o.Start(context.Background(), ModeWatch, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusStopped, snap.Status)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.Less(t, time.Since(start), waitFor)
}

func TestOrchestrator_ContextCancelEndsWatch(t *testing.T) {
	o, err := NewOrchestrator(testConfig(tempDir(t)), testCollaborators(&recordingSink{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := startAsync(o, ctx, ModeWatch, nil)

	require.Eventually(t, func() bool { return o.Status().Status == StatusRunning }, waitFor, 10*time.Millisecond)
	cancel()

	select {
	case snap := <-done:
		assert.Equal(t, StatusStopped, snap.Status)
	case <-time.After(waitFor):
		t.Fatal("watch did not end on cancel")
	}
}

func TestOrchestrator_SingleUse(t *testing.T) {
	o, err := NewOrchestrator(testConfig(tempDir(t)), testCollaborators(&recordingSink{}))
	require.NoError(t, err)

	_, err = o.Start(context.Background(), Mode("stream"), nil)
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = o.Start(context.Background(), ModeBatch, nil)
	require.NoError(t, err)

	_, err = o.Start(context.Background(), ModeBatch, nil)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestOrchestrator_StopBeforeStart(t *testing.T) {
	o, err := NewOrchestrator(testConfig(tempDir(t)), testCollaborators(&recordingSink{}))
	require.NoError(t, err)

	snap := o.Stop(context.Background())
	assert.Equal(t, StatusStopped, snap.Status)

	_, err = o.Start(context.Background(), ModeWatch, nil)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestOrchestrator_ConcurrentStatus(t *testing.T) {
	dir := tempDir(t)
	for i := range 20 {
		writeFile(t, dir, fmt.Sprintf("doc%02d.md", i), "concurrent status read")
	}

	cfg := testConfig(dir)
	cfg.ParallelWorkers = 4
	o, err := NewOrchestrator(cfg, testCollaborators(&recordingSink{}))
	require.NoError(t, err)

	var stop atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !stop.Load() {
			s := o.Status()
			assert.LessOrEqual(t, s.Resolved(), s.Discovered)
		}
	}()

	snap, err := o.Start(context.Background(), ModeBatch, nil)
	stop.Store(true)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 20, snap.Success)
}
