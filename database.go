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

// Package docflow wires storage, AI services and the ingestion pipeline
// into a single handle.
package docflow

import (
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/ai/openai"
	"github.com/poiesic/docflow/config"
	"github.com/poiesic/docflow/convert"
	"github.com/poiesic/docflow/ingestion"
	"github.com/poiesic/docflow/reembed"
	"github.com/poiesic/docflow/search"
	"github.com/poiesic/docflow/sink"
	"github.com/poiesic/docflow/storage"
	"github.com/poiesic/docflow/storage/badger"
)

type Database struct {
	config   *config.Config
	repos    *badger.Repositories
	provider ai.AIProvider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithAIProvider replaces the OpenAI-compatible provider built from the
// configuration, e.g. with mock.NewMockProvider() for offline runs.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the store described by cfg.Storage and the AI provider
// described by cfg.AI. A nil cfg uses config.DefaultConfig().
func NewDatabase(cfg *config.Config, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	var (
		repos *badger.Repositories
		err   error
	)
	if cfg.Storage.InMemory {
		repos, err = badger.NewMemoryRepositories()
	} else {
		repos, err = badger.OpenRepositories(cfg.Storage.Path, false)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(&cfg.AI)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	return &Database{
		config:   cfg,
		repos:    repos,
		provider: provider,
		logger:   options.logger,
	}, nil
}

// Close releases the AI provider and the store.
func (db *Database) Close() error {
	var errs []error
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (db *Database) Config() *config.Config {
	return db.config
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.repos.Documents
}

func (db *Database) EntityRepository() storage.EntityRepository {
	return db.repos.Entities
}

func (db *Database) ResultRepository() storage.ResultRepository {
	return db.repos.Results
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewSink returns a sink that embeds documents with the provider's embedder.
func (db *Database) NewSink(opts ...sink.Option) (*sink.Sink, error) {
	opts = append([]sink.Option{
		sink.WithEmbedder(db.provider.Embedder()),
		sink.WithLogger(db.logger),
	}, opts...)
	return sink.New(db.repos.Documents, db.repos.Entities, opts...)
}

func (db *Database) NewRecorder() (*sink.ResultRecorder, error) {
	return sink.NewResultRecorder(db.repos.Results, db.logger)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(db.logger)}, opts...)
	return search.NewSearcher(db.repos.Documents, db.repos.Entities, db.provider, opts...)
}

// NewReembedder returns a reembedder using the provider's embedder.
// A nil cfg uses reembed.DefaultConfig().
func (db *Database) NewReembedder(cfg *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.repos.Documents, db.provider.Embedder(), cfg, progress)
}

// NewOrchestrator builds an orchestrator over the configured pipeline
// settings. Every result is persisted to the result log before the
// hooks given in opts run. A nil converter uses the built-in chain.
func (db *Database) NewOrchestrator(converter ingestion.FormatConverter, opts ...ingestion.Option) (*ingestion.Orchestrator, error) {
	if converter == nil {
		converter = convert.NewChain(convert.WithLogger(db.logger))
	}
	docSink, err := db.NewSink()
	if err != nil {
		return nil, err
	}
	recorder, err := db.NewRecorder()
	if err != nil {
		return nil, err
	}

	collab := ingestion.Collaborators{
		Converter:  converter,
		Classifier: db.provider.Classifier(),
		Extractor:  db.provider.EntityExtractor(),
		Sink:       docSink,
	}
	opts = append([]ingestion.Option{
		ingestion.WithLogger(db.logger),
		ingestion.WithResultHook(recorder.Record),
	}, opts...)
	return ingestion.NewOrchestrator(db.config.Pipeline, collab, opts...)
}
