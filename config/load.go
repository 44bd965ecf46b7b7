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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCFLOW_"

// Load reads a TOML file over DefaultConfig. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrLoadFailed, path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set are never overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", ErrLoadFailed, f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from DOCFLOW_* variables. List values are
// comma-separated.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = splitList(v)
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	list("WATCH_DIRECTORIES", &c.Pipeline.WatchDirectories)
	list("SUPPORTED_EXTENSIONS", &c.Pipeline.SupportedExtensions)
	boolean("RECURSIVE", &c.Pipeline.Recursive)
	integer("BATCH_SIZE", &c.Pipeline.BatchSize)
	integer("PARALLEL_WORKERS", &c.Pipeline.ParallelWorkers)
	float("CHECK_INTERVAL_SECONDS", &c.Pipeline.CheckIntervalSeconds)
	integer("DURATION", &c.Pipeline.Duration)
	integer("QUEUE_CAPACITY", &c.Pipeline.QueueCapacity)
	float("JOIN_TIMEOUT_SECONDS", &c.Pipeline.JoinTimeoutSeconds)
	str("STORAGE_PATH", &c.Storage.Path)
	boolean("STORAGE_IN_MEMORY", &c.Storage.InMemory)
	str("LOG_LEVEL", &c.LogLevel)
	str("EMBEDDING_HOST", &c.AI.EmbeddingHost)
	str("CLASSIFIER_HOST", &c.AI.ClassifierHost)
	str("EMBEDDING_MODEL", &c.AI.EmbeddingModel)
	str("CLASSIFIER_MODEL", &c.AI.ClassifierModel)
	str("API_KEY", &c.AI.APIKey)
	integer("MIN_IMPORTANCE", &c.AI.MinImportance)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
