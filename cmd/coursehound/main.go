// Copyright 2025 Coursehound Authors
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	coursehound "github.com/coursehound/coursehound"
	"github.com/coursehound/coursehound/ai"
	"github.com/coursehound/coursehound/backfill"
	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/filter"
	"github.com/coursehound/coursehound/remote"
	"github.com/coursehound/coursehound/replicate"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "coursehound",
		Usage: "Local-first course catalog replica with hybrid search",
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
				Name:   "load",
				Usage:  "Bulk-load the catalog into the local replica",
				Action: loadCommand,
				Flags:  append(replicaFlags(), sourceFlags()...),
			},
			{
				Name:   "refresh",
				Usage:  "Fetch and merge records changed since the last refresh",
				Action: refreshCommand,
				Flags: append(append(replicaFlags(), sourceFlags()...),
					&cli.DurationFlag{
						Name:  "freshness",
						Usage: "Skip the refresh if the replica is younger than this",
						Value: 24 * time.Hour,
					}),
			},
			{
				Name:      "search",
				Usage:     "Search the local replica",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(replicaFlags(), sourceFlags()...),
					&cli.StringFlag{
						Name:  "schema",
						Usage: "Path to the institution's filter schema YAML",
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Filter selection as key=value (repeatable; comma-separate multi-select values)",
					},
					&cli.BoolFlag{
						Name:  "hybrid",
						Usage: "Blend vector similarity into the ranking",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Result page number (0-based)",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Results per page",
						Value: 20,
					}),
			},
			{
				Name:   "backfill",
				Usage:  "Compute embeddings for records that lack them",
				Action: backfillCommand,
				Flags: append(append(replicaFlags(), sourceFlags()...),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Concurrent embedding batches",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed records that already have vectors",
					}),
			},
			{
				Name:   "stats",
				Usage:  "Show replica metadata and record count",
				Action: statsCommand,
				Flags:  append(replicaFlags(), sourceFlags()...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func replicaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the local replica directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "nomic-embed-text",
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "catalog-url",
			Usage: "Base URL of the course catalog service",
		},
		&cli.StringFlag{
			Name:  "snapshot",
			Usage: "Path to a JSON catalog snapshot (used instead of catalog-url)",
		},
	}
}

// newSource builds the catalog source from flags: a snapshot file when
// given, the catalog service otherwise.
func newSource(c *cli.Context) (replicate.Source, error) {
	if snapshot := c.String("snapshot"); snapshot != "" {
		return remote.NewFileSource(snapshot)
	}
	if baseURL := c.String("catalog-url"); baseURL != "" {
		return remote.NewHTTPSource(baseURL)
	}
	return nil, fmt.Errorf("either --catalog-url or --snapshot is required")
}

func newReplica(c *cli.Context, extra ...coursehound.ReplicaOption) (*coursehound.Replica, error) {
	source, err := newSource(c)
	if err != nil {
		return nil, err
	}

	aiConfig := ai.DefaultConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := append([]coursehound.ReplicaOption{coursehound.WithAIConfig(aiConfig)}, extra...)
	return coursehound.NewReplica(c.String("db"), source, opts...)
}

func loadCommand(c *cli.Context) error {
	replica, err := newReplica(c)
	if err != nil {
		return err
	}
	defer replica.Close()

	ctx := context.Background()
	records, err := replica.Coordinator().Load(ctx)
	if err != nil {
		return fmt.Errorf("bulk load failed: %w", err)
	}

	fmt.Printf("Loaded %d records\n", len(records))
	return nil
}

func refreshCommand(c *cli.Context) error {
	replica, err := newReplica(c,
		coursehound.WithCoordinatorOptions(replicate.WithFreshness(c.Duration("freshness"))))
	if err != nil {
		return err
	}
	defer replica.Close()

	ctx := context.Background()
	records, err := replica.Coordinator().Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	fmt.Printf("Replica holds %d records\n", len(records))
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")

	var opts []coursehound.ReplicaOption
	if schemaPath := c.String("schema"); schemaPath != "" {
		schema, err := filter.LoadSchema(schemaPath)
		if err != nil {
			return err
		}
		opts = append(opts, coursehound.WithSchema(schema))
	}

	replica, err := newReplica(c, opts...)
	if err != nil {
		return err
	}
	defer replica.Close()

	selections, err := parseSelections(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	ctx := context.Background()
	var page *coursehound.SearchPage
	if c.Bool("hybrid") {
		page, err = replica.SearchHybrid(ctx, query, selections, c.Int("page"), c.Int("page-size"))
	} else {
		page, err = replica.Search(ctx, query, selections, c.Int("page"), c.Int("page-size"))
	}
	if err != nil {
		return err
	}

	fmt.Printf("%d results (page %d)\n", page.Total, page.Page)
	for _, result := range page.Results {
		record := result.Record
		fmt.Printf("%6.3f  %-16s %s (%d reviews)\n",
			result.Score, record.Code, record.Name, record.ReviewCount)
	}
	return nil
}

// parseSelections turns repeated key=value flags into filter selections.
// A credits selection accepts "min-max"; other values split on commas
// into multi-select lists.
func parseSelections(raw []string) ([]filter.Selection, error) {
	selections := make([]filter.Selection, 0, len(raw))
	for _, item := range raw {
		key, value, found := strings.Cut(item, "=")
		if !found {
			selections = append(selections, filter.Selection{Key: item})
			continue
		}

		if key == "credits" {
			creditRange, err := parseCreditRange(value)
			if err != nil {
				return nil, err
			}
			selections = append(selections, filter.Selection{Key: key, Range: creditRange})
			continue
		}

		selections = append(selections, filter.Selection{
			Key:    key,
			Values: strings.Split(value, ","),
		})
	}
	return selections, nil
}

func parseCreditRange(value string) (*core.CreditRange, error) {
	low, high, found := strings.Cut(value, "-")
	if !found {
		high = low
	}
	var creditRange core.CreditRange
	if _, err := fmt.Sscanf(low, "%d", &creditRange.Min); err != nil {
		return nil, fmt.Errorf("invalid credits filter %q", value)
	}
	if _, err := fmt.Sscanf(high, "%d", &creditRange.Max); err != nil {
		return nil, fmt.Errorf("invalid credits filter %q", value)
	}
	return &creditRange, nil
}

func backfillCommand(c *cli.Context) error {
	replica, err := newReplica(c)
	if err != nil {
		return err
	}
	defer replica.Close()

	backfiller, err := replica.NewBackfiller(
		backfill.WithBatchSize(c.Int("batch-size")),
		backfill.WithPoolSize(c.Int("pool-size")),
		backfill.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		backfill.WithForce(c.Bool("force")),
		backfill.WithProgress(os.Stderr),
	)
	if err != nil {
		return err
	}
	defer backfiller.Release()

	embedded, err := backfiller.Run(context.Background())
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	fmt.Printf("Embedded %d records\n", embedded)
	return nil
}

func statsCommand(c *cli.Context) error {
	replica, err := newReplica(c)
	if err != nil {
		return err
	}
	defer replica.Close()

	md, count, err := replica.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Records:        %d\n", count)
	fmt.Printf("Expected total: %d\n", md.ExpectedTotal)
	fmt.Printf("Data version:   %d\n", md.DataVersion)
	if md.LastRefresh.IsZero() {
		fmt.Printf("Last refresh:   never\n")
	} else {
		fmt.Printf("Last refresh:   %s\n", md.LastRefresh.Format(time.RFC3339))
	}
	return nil
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
