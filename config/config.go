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

package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/routing"
)

// PipelineConfig controls discovery and the worker pool.
type PipelineConfig struct {
	WatchDirectories     []string `toml:"watch_directories"`
	SupportedExtensions  []string `toml:"supported_extensions"`
	Recursive            bool     `toml:"recursive"`
	BatchSize            int      `toml:"batch_size"`
	ParallelWorkers      int      `toml:"parallel_workers"`
	CheckIntervalSeconds float64  `toml:"check_interval_seconds"`

	// Duration bounds a watch run in seconds. Zero runs until stopped.
	Duration int `toml:"duration"`

	// QueueCapacity bounds the work queue. Zero means 2 * ParallelWorkers * BatchSize.
	QueueCapacity int `toml:"queue_capacity"`

	// JoinTimeoutSeconds bounds how long Stop waits for workers.
	JoinTimeoutSeconds float64 `toml:"join_timeout_seconds"`
}

// CheckInterval is how long an idle worker waits on the queue before
// re-checking the stop flag.
func (p PipelineConfig) CheckInterval() time.Duration {
	return seconds(p.CheckIntervalSeconds)
}

// RunDuration is the watch-mode time limit; zero means unbounded.
func (p PipelineConfig) RunDuration() time.Duration {
	return time.Duration(p.Duration) * time.Second
}

// JoinTimeout bounds the wait for workers during Stop.
func (p PipelineConfig) JoinTimeout() time.Duration {
	return seconds(p.JoinTimeoutSeconds)
}

// Capacity returns the effective queue capacity.
func (p PipelineConfig) Capacity() int {
	if p.QueueCapacity > 0 {
		return p.QueueCapacity
	}
	return max(1, 2*p.ParallelWorkers*p.BatchSize)
}

// StorageConfig selects where documents and results are kept.
type StorageConfig struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

// Config is the complete docflow configuration.
type Config struct {
	Pipeline PipelineConfig `toml:"pipeline"`
	Storage  StorageConfig  `toml:"storage"`
	AI       ai.Config      `toml:"ai"`
	LogLevel string         `toml:"log_level"`
}

// DefaultExtensions are the formats the built-in converters handle.
var DefaultExtensions = []string{
	".txt", ".md", ".markdown", ".csv", ".json", ".log", ".yaml", ".yml",
	".html", ".htm", ".docx", ".pdf",
}

// DefaultConfig returns a configuration that watches nothing yet; callers
// must supply at least one directory.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			SupportedExtensions:  slices.Clone(DefaultExtensions),
			Recursive:            true,
			BatchSize:            10,
			ParallelWorkers:      4,
			CheckIntervalSeconds: 1,
			JoinTimeoutSeconds:   30,
		},
		Storage: StorageConfig{
			Path: "docflow.db",
		},
		AI:       *ai.DefaultConfig(),
		LogLevel: "info",
	}
}

// Option overrides a single setting, typically from a command-line flag.
type Option func(*Config)

// WithWatchDirectories replaces the watched directories.
func WithWatchDirectories(dirs ...string) Option {
	return func(c *Config) {
		if len(dirs) > 0 {
			c.Pipeline.WatchDirectories = dirs
		}
	}
}

// WithExtensions replaces the extension allow-list.
func WithExtensions(exts ...string) Option {
	return func(c *Config) {
		if len(exts) > 0 {
			c.Pipeline.SupportedExtensions = exts
		}
	}
}

// WithRecursive sets whether subdirectories are scanned and watched.
func WithRecursive(recursive bool) Option {
	return func(c *Config) {
		c.Pipeline.Recursive = recursive
	}
}

// WithBatchSize sets the number of files per batch.
func WithBatchSize(size int) Option {
	return func(c *Config) {
		c.Pipeline.BatchSize = size
	}
}

// WithWorkers sets the number of pipeline workers.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Pipeline.ParallelWorkers = n
	}
}

// WithDuration limits a watch run to the given number of seconds.
func WithDuration(seconds int) Option {
	return func(c *Config) {
		c.Pipeline.Duration = seconds
	}
}

// WithQueueCapacity sets the work queue bound.
func WithQueueCapacity(n int) Option {
	return func(c *Config) {
		c.Pipeline.QueueCapacity = n
	}
}

// WithStoragePath sets the database directory.
func WithStoragePath(path string) Option {
	return func(c *Config) {
		c.Storage.Path = path
	}
}

// WithInMemoryStorage keeps everything in memory.
func WithInMemoryStorage(inMemory bool) Option {
	return func(c *Config) {
		c.Storage.InMemory = inMemory
	}
}

// WithAI applies AI options on top of the current AI settings.
func WithAI(opts ...ai.ConfigOption) Option {
	return func(c *Config) {
		for _, opt := range opts {
			opt(&c.AI)
		}
	}
}

// Apply runs opts in order.
func (c *Config) Apply(opts ...Option) *Config {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize lower-cases extensions with a leading dot, drops duplicates and
// makes directories absolute.
func (c *Config) Normalize() error {
	exts := make([]string, 0, len(c.Pipeline.SupportedExtensions))
	for _, ext := range c.Pipeline.SupportedExtensions {
		ext = routing.NormalizeExtension(ext)
		if ext != "" && !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	c.Pipeline.SupportedExtensions = exts

	dirs := make([]string, 0, len(c.Pipeline.WatchDirectories))
	for _, dir := range c.Pipeline.WatchDirectories {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("%w: watch directory %s: %w", ErrInvalidConfig, dir, err)
		}
		if !slices.Contains(dirs, abs) {
			dirs = append(dirs, abs)
		}
	}
	c.Pipeline.WatchDirectories = dirs

	c.AI.Normalize()
	return nil
}

// Validate checks the pipeline and storage settings. AI settings are
// validated by the provider that uses them.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path required", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the discovery and worker pool settings.
func (p PipelineConfig) Validate() error {
	switch {
	case len(p.WatchDirectories) == 0:
		return fmt.Errorf("%w: at least one watch directory required", ErrInvalidConfig)
	case len(p.SupportedExtensions) == 0:
		return fmt.Errorf("%w: at least one supported extension required", ErrInvalidConfig)
	case p.BatchSize < 1:
		return fmt.Errorf("%w: batch_size must be at least 1", ErrInvalidConfig)
	case p.ParallelWorkers < 1:
		return fmt.Errorf("%w: parallel_workers must be at least 1", ErrInvalidConfig)
	case p.CheckIntervalSeconds <= 0:
		return fmt.Errorf("%w: check_interval_seconds must be positive", ErrInvalidConfig)
	case p.Duration < 0:
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidConfig)
	case p.QueueCapacity < 0:
		return fmt.Errorf("%w: queue_capacity must not be negative", ErrInvalidConfig)
	case p.JoinTimeoutSeconds < 0:
		return fmt.Errorf("%w: join_timeout_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
