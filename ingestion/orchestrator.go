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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docflow/config"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/queue"
	"github.com/poiesic/docflow/routing"
	"github.com/poiesic/docflow/watcher"
	"golang.org/x/sync/errgroup"
)

// Mode selects how Start runs.
type Mode string

const (
	// ModeWatch runs until the context ends, Stop is called, or the
	// configured duration elapses.
	ModeWatch Mode = "watch"

	// ModeBatch processes what is present once, then stops.
	ModeBatch Mode = "batch"
)

// defaultJoinTimeout applies when the configuration leaves the join unbounded.
const defaultJoinTimeout = 30 * time.Second

// RunOptions holds optional parameters for Start.
type RunOptions struct {
	// Files seeds a batch run. When empty, the watch directories are scanned.
	Files []string

	// StatusInterval sets how often a watch run logs its counters.
	// Zero disables the report.
	StatusInterval time.Duration
}

// Orchestrator wires a watcher, a bounded queue and a worker pool.
// An Orchestrator runs once: a second Start returns ErrAlreadyStarted.
type Orchestrator struct {
	cfg        config.PipelineConfig
	pipeline   *pipeline
	state      *state
	queue      *queue.Queue[*core.WorkItem]
	watcher    *watcher.Watcher
	classifier *routing.PathClassifier
	logger     *slog.Logger

	batchHooks  []func([]core.DiscoveredFile)
	resultHooks []func(core.PipelineResult)

	pool     *ants.Pool
	started  atomic.Bool
	running  atomic.Bool
	alive    atomic.Int32
	stopOnce sync.Once
}

// NewOrchestrator validates cfg and collab and prepares the queue and watcher.
// No goroutines run until Start.
func NewOrchestrator(cfg config.PipelineConfig, collab Collaborators, opts ...Option) (*Orchestrator, error) {
	if err := collab.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:    cfg,
		state:  newState(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	base := o.logger
	o.logger = base.With("component", "orchestrator")
	if o.classifier == nil {
		o.classifier = routing.NewPathClassifier(routing.WithExtensions(cfg.SupportedExtensions...))
	}

	q, err := queue.New[*core.WorkItem](cfg.Capacity())
	if err != nil {
		return nil, err
	}
	o.queue = q

	w, err := watcher.New(cfg.WatchDirectories, cfg.SupportedExtensions, o.enqueue,
		watcher.WithBatchSize(cfg.BatchSize),
		watcher.WithRecursive(cfg.Recursive),
		watcher.WithClassifier(o.classifier),
		watcher.WithDiscoveryHook(o.discovered),
		watcher.WithLogger(base),
	)
	if err != nil {
		return nil, err
	}
	o.watcher = w
	o.pipeline = newPipeline(collab, o.state, o.logger)
	return o, nil
}

// Start runs the pipeline in the given mode and returns the final snapshot.
// Configuration and subscription errors are returned before any worker runs.
// Stage failures never surface here; they are counted in the snapshot.
func (o *Orchestrator) Start(ctx context.Context, mode Mode, opts *RunOptions) (Snapshot, error) {
	if mode != ModeWatch && mode != ModeBatch {
		return o.Status(), fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if !o.started.CompareAndSwap(false, true) {
		return o.Status(), ErrAlreadyStarted
	}
	if opts == nil {
		opts = &RunOptions{}
	}

	if mode == ModeWatch {
		if err := o.watcher.Subscribe(); err != nil {
			return o.Status(), err
		}
	}
	if err := o.spawnWorkers(ctx); err != nil {
		o.Stop(context.WithoutCancel(ctx))
		return o.Status(), err
	}

	o.logger.Info("orchestrator started",
		"mode", mode,
		"workers", o.cfg.ParallelWorkers,
		"batchSize", o.cfg.BatchSize,
		"capacity", o.queue.Cap())

	var err error
	if mode == ModeBatch {
		err = o.runBatch(ctx, opts)
	} else {
		err = o.runWatch(ctx, opts)
	}

	snap := o.Stop(context.WithoutCancel(ctx))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Interruption is a normal way to end a run.
		err = nil
	}
	return snap, err
}

func (o *Orchestrator) spawnWorkers(ctx context.Context) error {
	pool, err := ants.NewPool(o.cfg.ParallelWorkers,
		ants.WithPanicHandler(func(p any) {
			o.logger.Error("worker panicked", "panic", p)
		}))
	if err != nil {
		return err
	}
	o.pool = pool
	o.running.Store(true)
	o.state.setStatus(StatusRunning)

	// Workers finish their current item even after ctx ends.
	workCtx := context.WithoutCancel(ctx)
	for i := range o.cfg.ParallelWorkers {
		id := i + 1
		o.alive.Add(1)
		if err := pool.Submit(func() { o.work(workCtx, id) }); err != nil {
			o.alive.Add(-1)
			return fmt.Errorf("start worker %d: %w", id, err)
		}
	}
	return nil
}

func (o *Orchestrator) runBatch(ctx context.Context, opts *RunOptions) error {
	if len(opts.Files) > 0 {
		for _, path := range opts.Files {
			if _, err := o.watcher.HandleNewFile(ctx, path); err != nil {
				return err
			}
		}
	} else if _, err := o.watcher.Scan(ctx); err != nil {
		return err
	}
	if err := o.watcher.Flush(ctx, true); err != nil {
		return err
	}
	return o.queue.Join(ctx)
}

func (o *Orchestrator) runWatch(ctx context.Context, opts *RunOptions) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if d := o.cfg.RunDuration(); d > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, d)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return o.watcher.Watch(gctx)
	})
	if opts.StatusInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(opts.StatusInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					o.logStatus()
				}
			}
		})
	}
	return g.Wait()
}

// Stop ends the run: the watcher unsubscribes and flushes what is pending,
// the queue closes, and workers drain it before exiting. Waiting for the
// workers is bounded by the join timeout. Stop is idempotent; every call
// returns the final snapshot.
func (o *Orchestrator) Stop(ctx context.Context) Snapshot {
	o.stopOnce.Do(func() {
		o.started.Store(true)
		o.state.setStatus(StatusStopping)

		if err := o.watcher.Stop(ctx); err != nil {
			o.logger.Error("final flush failed", "err", err)
		}

		o.running.Store(false)
		o.queue.Close()

		if o.pool != nil {
			timeout := o.cfg.JoinTimeout()
			if timeout <= 0 {
				timeout = defaultJoinTimeout
			}
			if err := o.pool.ReleaseTimeout(timeout); err != nil {
				o.logger.Warn("workers still busy after join timeout",
					"timeout", timeout, "alive", o.alive.Load(), "err", err)
			}
		}

		o.state.setStatus(StatusStopped)
		o.logStatus()
	})
	return o.Status()
}

// Status returns a copy of the counters with current queue and worker figures.
func (o *Orchestrator) Status() Snapshot {
	snap := o.state.copy()
	stats := o.queue.Stats()
	snap.QueueDepth = stats.Queued
	snap.InFlight = stats.InFlight
	snap.AliveWorkers = int(o.alive.Load())
	return snap
}

// work is one worker's loop. It exits once the orchestrator stops running
// and the queue is drained.
func (o *Orchestrator) work(ctx context.Context, id int) {
	defer o.alive.Add(-1)
	logger := o.logger.With("worker", id)
	logger.Debug("worker started")

	for {
		item, ok := o.queue.Get(o.cfg.CheckInterval())
		if !ok {
			if o.queue.Closed() || !o.running.Load() {
				logger.Debug("worker exiting")
				return
			}
			continue
		}
		o.finish(o.pipeline.run(ctx, item, id))
		if err := o.queue.TaskDone(); err != nil {
			logger.Error("queue accounting error", "err", err)
		}
	}
}

// finish lets the watcher rediscover the path, records the terminal result
// and notifies the result hook.
func (o *Orchestrator) finish(result core.PipelineResult) {
	o.watcher.Release(result.Path)
	o.state.record(result)
	for _, hook := range o.resultHooks {
		o.callHook("result", func() { hook(result) })
	}
}

func (o *Orchestrator) discovered(core.DiscoveredFile) {
	o.state.update(func(s *Snapshot) { s.Discovered++ })
}

// enqueue is the watcher's batch callback. Items that cannot be queued
// are recorded as failed so no discovered file goes unaccounted for.
//
// Put ignores cancellation of the run context: a flush blocked on a full
// queue when the run ends still lands its items, and workers drain them
// during Stop. Only a closed queue rejects a discovered file.
func (o *Orchestrator) enqueue(ctx context.Context, batch []core.DiscoveredFile) error {
	o.state.update(func(s *Snapshot) { s.Batches++ })
	for _, hook := range o.batchHooks {
		o.callHook("batch", func() { hook(batch) })
	}

	putCtx := context.WithoutCancel(ctx)
	for i, file := range batch {
		if err := o.queue.Put(putCtx, core.NewWorkItem(file)); err != nil {
			for _, lost := range batch[i:] {
				now := time.Now().UTC()
				o.finish(core.PipelineResult{
					ItemID:     uuid.New(),
					Path:       lost.Path,
					Stage:      core.StageQueued,
					Status:     core.StatusFailed,
					Error:      fmt.Sprintf("enqueue: %v", err),
					Routing:    lost.Routing,
					StartedAt:  now,
					FinishedAt: now,
				})
			}
			return err
		}
	}
	return nil
}

func (o *Orchestrator) callHook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("hook panicked", "hook", name, "panic", r)
		}
	}()
	fn()
}

func (o *Orchestrator) logStatus() {
	s := o.Status()
	o.logger.Info("pipeline status",
		"status", s.Status,
		"discovered", s.Discovered,
		"success", s.Success,
		"skipped", s.Skipped,
		"validationFailed", s.ValidationFailed,
		"convertedFailed", s.ConvertedFailed,
		"failed", s.Failed,
		"queued", s.QueueDepth,
		"inFlight", s.InFlight)
}
