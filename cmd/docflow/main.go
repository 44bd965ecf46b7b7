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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docflow",
		Usage: "Discover, classify and index documents from watched directories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "Watch directories and ingest new files until interrupted",
				Action: watchCommand,
				Flags: append(append(storeFlags(), pipelineFlags()...),
					&cli.IntFlag{
						Name:  "duration",
						Usage: "Stop after this many seconds (0 runs until interrupted)",
					},
					&cli.DurationFlag{
						Name:  "status-interval",
						Usage: "Log pipeline counters at this interval (0 disables)",
						Value: 30 * time.Second,
					},
				),
			},
			{
				Name:      "batch",
				Usage:     "Ingest the given files, or everything under the watch directories, once",
				ArgsUsage: "[file...]",
				Action:    batchCommand,
				Flags: append(append(storeFlags(), pipelineFlags()...),
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N files",
						Value: 10,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search ingested documents",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum cosine similarity for a semantic hit",
						Value: 0.6,
					},
				),
			},
			{
				Name:   "results",
				Usage:  "Print the pipeline result log",
				Action: resultsCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of most recent results to print (0 prints all)",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Only print results for this file",
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute document embeddings with the configured embedding model",
				Action: reembedCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}
}

// storeFlags select the configuration file, the database and the AI services.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a TOML configuration file",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "classifier-host",
			Usage: "Chat model host URL for classification and entity extraction",
		},
		&cli.StringFlag{
			Name:  "classifier-model",
			Usage: "Chat model name for classification and entity extraction",
		},
		&cli.BoolFlag{
			Name:  "mock-ai",
			Usage: "Use deterministic offline AI services instead of a model server",
		},
	}
}

// pipelineFlags override the [pipeline] configuration section.
func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "dir",
			Usage: "Directory to watch (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "ext",
			Usage: "Supported file extension (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "recursive",
			Usage: "Descend into subdirectories",
			Value: true,
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of parallel workers",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Files per discovery batch",
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
