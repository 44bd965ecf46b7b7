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
	"slices"
	"sync"
	"time"

	"github.com/poiesic/docflow/core"
)

// Status is the orchestrator lifecycle state.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusStopping    Status = "stopping"
	StatusStopped     Status = "stopped"
)

// Snapshot is a consistent copy of the orchestrator's counters.
type Snapshot struct {
	Status Status

	// Progress counters. Stage counters count successful completions.
	Discovered int
	Batches    int
	Converted  int
	Classified int
	Extracted  int
	Ingested   int

	// Terminal outcomes. Their sum equals Discovered once the queue drains.
	Success          int
	Skipped          int
	ValidationFailed int
	ConvertedFailed  int
	Failed           int

	// Errors has one entry per item that did not succeed.
	Errors []core.ErrorRecord

	QueueDepth   int
	InFlight     int
	AliveWorkers int

	StartedAt time.Time
	StoppedAt time.Time
}

// Resolved returns the number of items with a terminal outcome.
func (s Snapshot) Resolved() int {
	return s.Success + s.Skipped + s.ValidationFailed + s.ConvertedFailed + s.Failed
}

// Elapsed returns the run time, measured up to now while still running.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.StoppedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.StoppedAt.Sub(s.StartedAt)
}

// state holds the mutable counters behind a single lock.
type state struct {
	mu   sync.Mutex
	snap Snapshot
}

func newState() *state {
	return &state{snap: Snapshot{Status: StatusInitialized}}
}

func (s *state) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
}

func (s *state) setStatus(status Status) {
	s.update(func(snap *Snapshot) {
		snap.Status = status
		switch status {
		case StatusRunning:
			snap.StartedAt = time.Now().UTC()
		case StatusStopped:
			snap.StoppedAt = time.Now().UTC()
		}
	})
}

func (s *state) status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Status
}

// stageDone counts a successfully completed stage.
func (s *state) stageDone(stage core.Stage) {
	s.update(func(snap *Snapshot) {
		switch stage {
		case core.StageConverting:
			snap.Converted++
		case core.StageClassifying:
			snap.Classified++
		case core.StageExtracting:
			snap.Extracted++
		case core.StageIngesting:
			snap.Ingested++
		}
	})
}

func (s *state) record(result core.PipelineResult) {
	s.update(func(snap *Snapshot) {
		switch result.Status {
		case core.StatusSuccess:
			snap.Success++
			return
		case core.StatusSkipped:
			snap.Skipped++
		case core.StatusValidationFailed:
			snap.ValidationFailed++
		case core.StatusConvertedFailed:
			snap.ConvertedFailed++
		default:
			snap.Failed++
		}
		snap.Errors = append(snap.Errors, core.ErrorRecord{
			Path:    result.Path,
			Stage:   result.Stage,
			Message: result.Error,
		})
	})
}

func (s *state) copy() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Errors = slices.Clone(s.snap.Errors)
	return snap
}
