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

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/docflow"
	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/ai/mock"
	"github.com/poiesic/docflow/config"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/ingestion"
	"github.com/poiesic/docflow/progress"
	"github.com/poiesic/docflow/reembed"
	"github.com/poiesic/docflow/search"
	"github.com/urfave/cli/v2"
)

// loadConfig layers defaults, the --config file, DOCFLOW_* variables and
// command-line flags, in that order.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnv(".env"); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	var opts []config.Option
	if c.IsSet("db") {
		opts = append(opts, config.WithStoragePath(c.String("db")))
	}
	if c.IsSet("dir") {
		opts = append(opts, config.WithWatchDirectories(c.StringSlice("dir")...))
	}
	if c.IsSet("ext") {
		opts = append(opts, config.WithExtensions(c.StringSlice("ext")...))
	}
	if c.IsSet("recursive") {
		opts = append(opts, config.WithRecursive(c.Bool("recursive")))
	}
	if c.IsSet("workers") {
		opts = append(opts, config.WithWorkers(c.Int("workers")))
	}
	if c.IsSet("batch-size") && c.Command.Name != "reembed" {
		opts = append(opts, config.WithBatchSize(c.Int("batch-size")))
	}
	if c.IsSet("duration") {
		opts = append(opts, config.WithDuration(c.Int("duration")))
	}

	var aiOpts []ai.ConfigOption
	if c.IsSet("embedding-host") {
		aiOpts = append(aiOpts, ai.WithEmbeddingHost(c.String("embedding-host")))
	}
	if c.IsSet("embedding-model") {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(c.String("embedding-model")))
	}
	if c.IsSet("classifier-host") {
		aiOpts = append(aiOpts, ai.WithClassifierHost(c.String("classifier-host")))
	}
	if c.IsSet("classifier-model") {
		aiOpts = append(aiOpts, ai.WithClassifierModel(c.String("classifier-model")))
	}
	opts = append(opts, config.WithAI(aiOpts...))

	cfg.Apply(opts...)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(c *cli.Context, cfg *config.Config) (*docflow.Database, error) {
	var opts []docflow.DatabaseOption
	if c.Bool("mock-ai") {
		opts = append(opts, docflow.WithAIProvider(mock.NewMockProvider()))
	}
	db, err := docflow.NewDatabase(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := db.NewOrchestrator(nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(c.App.ErrWriter, "Watching: %s\n", strings.Join(cfg.Pipeline.WatchDirectories, ", "))
	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintln(c.App.ErrWriter, "Press Ctrl+C to stop")

	snap, err := orchestrator.Start(ctx, ingestion.ModeWatch, &ingestion.RunOptions{
		StatusInterval: c.Duration("status-interval"),
	})
	printReport(c.App.Writer, snap)
	return err
}

func batchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	files := c.Args().Slice()
	if len(files) > 0 && len(cfg.Pipeline.WatchDirectories) == 0 {
		// Explicit files need no watch directory of their own.
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.Pipeline.WatchDirectories = []string{cwd}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tracker := progress.New(c.App.ErrWriter, 0, c.Int("report-interval"),
		progress.WithLabel("Ingesting"), progress.WithUnit("files"))
	var queued int
	orchestrator, err := db.NewOrchestrator(nil,
		ingestion.WithBatchHook(func(batch []core.DiscoveredFile) {
			queued += len(batch)
			tracker.SetTotal(queued)
		}),
		ingestion.WithResultHook(func(core.PipelineResult) {
			tracker.Increment(1)
		}),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker.Start()
	snap, err := orchestrator.Start(ctx, ingestion.ModeBatch, &ingestion.RunOptions{Files: files})
	tracker.Finish()
	printReport(c.App.Writer, snap)
	if err != nil {
		return err
	}
	if snap.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", snap.Failed, snap.Discovered)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("search query is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(search.WithMinSimilarity(float32(c.Float64("min-similarity"))))
	if err != nil {
		return err
	}
	results, err := searcher.FindSimilar(c.Context, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Found %d hits\n", len(results))
	for i, hit := range results {
		r := hit.Document.Routing
		fmt.Fprintf(out, "%d: %s [%s/%s/%s][%0.3f]\n",
			i, hit.Document.Path, orDash(r.Sector), orDash(r.Subsector), orDash(r.Customer), hit.Score)
	}
	return nil
}

func resultsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	recorder, err := db.NewRecorder()
	if err != nil {
		return err
	}
	var results []*core.PipelineResult
	if path := c.String("path"); path != "" {
		if path, err = filepath.Abs(path); err != nil {
			return err
		}
		results, err = recorder.History(c.Context, path)
	} else {
		results, err = recorder.Recent(c.Context, c.Int("limit"))
	}
	if err != nil {
		return fmt.Errorf("failed to read results: %w", err)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tSTATUS\tSTAGE\tSECTOR\tENTITIES\tDURATION\tPATH\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.FinishedAt.Local().Format(time.DateTime),
			r.Status,
			r.Stage,
			orDash(r.Routing.Sector),
			r.EntityCount,
			r.Duration().Round(time.Millisecond),
			r.Path,
			r.Error)
	}
	return tw.Flush()
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := db.NewReembedder(reembedConfig, c.App.ErrWriter).Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// printReport writes the final counters and one line per failed file.
func printReport(w io.Writer, s ingestion.Snapshot) {
	fmt.Fprintf(w, "Status: %s after %s\n", s.Status, s.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(w, "Discovered: %d in %d batches\n", s.Discovered, s.Batches)
	fmt.Fprintf(w, "Stages: converted %d, classified %d, extracted %d, ingested %d\n",
		s.Converted, s.Classified, s.Extracted, s.Ingested)
	fmt.Fprintf(w, "Outcomes: success %d, skipped %d, validation_failed %d, converted_failed %d, failed %d\n",
		s.Success, s.Skipped, s.ValidationFailed, s.ConvertedFailed, s.Failed)
	if len(s.Errors) == 0 {
		return
	}
	fmt.Fprintln(w, "Errors:")
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  %s [%s]: %s\n", e.Path, e.Stage, e.Message)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
