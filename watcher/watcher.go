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

package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/routing"
)

// BatchFunc receives a flushed batch. It may block; a blocked BatchFunc
// stalls discovery, which is how queue backpressure reaches the watcher.
type BatchFunc func(ctx context.Context, batch []core.DiscoveredFile) error

// Watcher discovers files under a set of roots and hands them out in batches.
//
// A canonical path is accepted at most once until Release is called for it,
// so a path that is pending or in flight is never handed out twice.
type Watcher struct {
	roots      []string
	recursive  bool
	extensions map[string]struct{}
	batchSize  int
	classifier *routing.PathClassifier
	onBatch    BatchFunc
	onDiscover func(core.DiscoveredFile)
	logger     *slog.Logger

	mu      sync.Mutex
	seen    map[string]struct{}
	pending []core.DiscoveredFile
	stopped bool
	fsw     *fsnotify.Watcher

	// Releases are parked here by workers and applied by discovery,
	// so only the discovery side ever mutates seen.
	releaseMu sync.Mutex
	released  []string

	flushMu  sync.Mutex
	flushes  atomic.Int64
	stopCh   chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	watching atomic.Bool
}

// New creates a watcher. onBatch is required.
func New(roots []string, extensions []string, onBatch BatchFunc, opts ...Option) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	if len(extensions) == 0 {
		return nil, ErrNoExtensions
	}
	if onBatch == nil {
		return nil, ErrBatchFuncRequired
	}

	w := &Watcher{
		recursive:  true,
		extensions: make(map[string]struct{}, len(extensions)),
		batchSize:  DefaultBatchSize,
		onBatch:    onBatch,
		logger:     slog.Default(),
		seen:       make(map[string]struct{}),
		stopCh:     make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	for _, ext := range extensions {
		w.extensions[routing.NormalizeExtension(ext)] = struct{}{}
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		w.roots = append(w.roots, abs)
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	if w.classifier == nil {
		w.classifier = routing.NewPathClassifier(routing.WithExtensions(extensions...))
	}
	w.logger = w.logger.With("component", "watcher")
	return w, nil
}

// Scan walks every root once and routes each file through HandleNewFile.
// Returns the number of files accepted. Unreadable entries are logged and skipped.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	accepted := 0
	for _, root := range w.roots {
		n, err := w.scanDir(ctx, root)
		accepted += n
		if err != nil {
			return accepted, err
		}
	}
	return accepted, nil
}

func (w *Watcher) scanDir(ctx context.Context, dir string) (int, error) {
	accepted := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && !w.recursive {
				return fs.SkipDir
			}
			return nil
		}
		ok, err := w.HandleNewFile(ctx, path)
		if err != nil {
			return err
		}
		if ok {
			accepted++
		}
		return nil
	})
	return accepted, err
}

// HandleNewFile considers one path for discovery. It reports whether the
// path was accepted into the pending buffer. Rejected paths (duplicate,
// unsupported extension, unreadable, vanished, directory) are not errors;
// the error return only reports a failed flush.
func (w *Watcher) HandleNewFile(ctx context.Context, path string) (bool, error) {
	if !w.allowed(path) {
		return false, nil
	}

	canonical, err := canonicalize(path)
	if err != nil {
		w.logger.Warn("dropping unreadable file", "path", path, "err", err)
		return false, nil
	}
	if !w.allowed(canonical) {
		return false, nil
	}

	w.applyReleases()

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return false, nil
	}
	if _, dup := w.seen[canonical]; dup {
		w.mu.Unlock()
		w.logger.Debug("ignoring duplicate", "path", canonical)
		return false, nil
	}
	file := core.DiscoveredFile{
		Path:         canonical,
		DiscoveredAt: time.Now().UTC(),
		Routing:      w.classifier.Classify(w.relative(canonical)),
	}
	w.seen[canonical] = struct{}{}
	w.pending = append(w.pending, file)
	full := len(w.pending) >= w.batchSize
	w.mu.Unlock()

	w.logger.Debug("discovered file", "path", canonical, "sector", file.Routing.Sector)
	if w.onDiscover != nil {
		w.onDiscover(file)
	}

	if full {
		return true, w.Flush(ctx, false)
	}
	return true, nil
}

// Flush emits the pending buffer as one batch. Without force only a full
// batch is emitted; with force a partial batch is emitted too.
// Flushes are serialized so batches leave in discovery order.
func (w *Watcher) Flush(ctx context.Context, force bool) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	if len(w.pending) == 0 || (!force && len(w.pending) < w.batchSize) {
		w.mu.Unlock()
		return nil
	}
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	w.flushes.Add(1)
	w.logger.Debug("flushing batch", "size", len(batch), "forced", force)

	if err := w.onBatch(ctx, batch); err != nil {
		return fmt.Errorf("%w: %w", ErrFlushFailed, err)
	}
	return nil
}

// Release forgets a path once its item reached a terminal outcome, so a later
// create or write event may discover it again. Safe to call from any goroutine.
func (w *Watcher) Release(path string) {
	w.releaseMu.Lock()
	w.released = append(w.released, path)
	w.releaseMu.Unlock()
}

func (w *Watcher) applyReleases() {
	w.releaseMu.Lock()
	released := w.released
	w.released = nil
	w.releaseMu.Unlock()

	if len(released) == 0 {
		return
	}
	w.mu.Lock()
	for _, path := range released {
		delete(w.seen, path)
	}
	w.mu.Unlock()
}

// Subscribe registers filesystem notifications for every root (and every
// subdirectory when recursive). Watch calls it when needed; calling it first
// surfaces subscription errors before any work starts.
func (w *Watcher) Subscribe() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	if w.fsw != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}
	for _, root := range w.roots {
		if err := w.addTree(fsw, root); err != nil {
			fsw.Close()
			return fmt.Errorf("%w: %s: %w", ErrSubscribe, root, err)
		}
	}
	w.fsw = fsw
	return nil
}

// addTree subscribes dir and, when recursive, its subdirectories.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	if !w.recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("cannot watch directory", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("cannot watch directory", "path", path, "err", err)
		}
		return nil
	})
}

// Watch subscribes, scans the roots, then routes create and write events
// through HandleNewFile until ctx ends or Stop is called. Rename and remove
// events are ignored: a move is seen only as a create at its destination.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.Subscribe(); err != nil {
		return err
	}
	if !w.watching.CompareAndSwap(false, true) {
		return ErrAlreadyWatching
	}
	defer close(w.loopDone)

	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()

	if _, err := w.Scan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("initial scan failed", "err", err)
	}

	w.logger.Info("watching", "roots", w.roots, "recursive", w.recursive)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		// Release bookkeeping still needs a chance to run on quiet trees.
		w.applyReleases()
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		w.logger.Debug("event path vanished", "path", event.Name, "err", err)
		return
	}

	if info.IsDir() {
		if !event.Has(fsnotify.Create) || !w.recursive {
			return
		}
		w.mu.Lock()
		fsw := w.fsw
		w.mu.Unlock()
		if fsw != nil {
			if err := w.addTree(fsw, event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", event.Name, "err", err)
			}
		}
		if _, err := w.scanDir(ctx, event.Name); err != nil {
			w.logger.Warn("scan of new directory failed", "path", event.Name, "err", err)
		}
		return
	}

	if _, err := w.HandleNewFile(ctx, event.Name); err != nil {
		w.logger.Error("flush failed", "path", event.Name, "err", err)
	}
}

// Stop unsubscribes, waits for the event loop to exit, and force-flushes
// whatever is still pending. Later calls return nil without doing anything.
func (w *Watcher) Stop(ctx context.Context) error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)

		w.mu.Lock()
		fsw := w.fsw
		w.mu.Unlock()

		if w.watching.Load() {
			select {
			case <-w.loopDone:
			case <-ctx.Done():
				w.logger.Warn("event loop did not exit before deadline", "err", ctx.Err())
			}
		}
		if fsw != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				w.logger.Warn("error closing fsnotify watcher", "err", closeErr)
			}
		}

		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()

		err = w.Flush(ctx, true)
		w.logger.Debug("watcher stopped", "flushes", w.flushes.Load())
	})
	return err
}

// Pending returns the number of discovered files not yet flushed.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Flushes returns how many batches have been emitted.
func (w *Watcher) Flushes() int {
	return int(w.flushes.Load())
}

// Roots returns a copy of the canonical roots being watched.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// relative strips the deepest root containing path, so directories above
// a root never take part in routing. Paths outside every root are
// returned unchanged.
func (w *Watcher) relative(path string) string {
	best := path
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(rel) < len(best) {
			best = rel
		}
	}
	return best
}

func (w *Watcher) allowed(path string) bool {
	_, ok := w.extensions[routing.NormalizeExtension(filepath.Ext(path))]
	return ok
}

// canonicalize resolves path to an absolute, symlink-free regular file
// that can be opened for reading.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotRegularFile
	}
	f, err := os.Open(resolved)
	if err != nil {
		return "", err
	}
	f.Close()
	return resolved, nil
}
