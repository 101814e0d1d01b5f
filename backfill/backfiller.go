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


package backfill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/coursehound/coursehound/ai"
	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
	"github.com/panjf2000/ants/v2"
)

// Backfiller walks the catalog and computes embeddings for records that
// have none, batching the work across a bounded worker pool.
type Backfiller struct {
	repo     storage.CatalogRepository
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
	progress io.Writer

	batchSize      int
	reportInterval int
	maxRetries     int
	retryDelay     time.Duration
	force          bool
}

// Option configures a Backfiller.
type Option func(*Backfiller) error

// WithPoolSize sets the worker pool size for concurrent batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Backfiller) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithBatchSize sets how many records each embedding request carries.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(b *Backfiller) error {
		if size > 0 {
			b.batchSize = size
		}
		return nil
	}
}

// WithRetry sets the attempt count and base backoff delay for embedding
// calls. Defaults are 3 attempts, 1s.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(b *Backfiller) error {
		if maxRetries > 0 {
			b.maxRetries = maxRetries
		}
		b.retryDelay = baseDelay
		return nil
	}
}

// WithForce re-embeds every record, including those that already carry a
// vector.
func WithForce(force bool) Option {
	return func(b *Backfiller) error {
		b.force = force
		return nil
	}
}

// WithProgress sets where progress output is written. Default is
// io.Discard.
func WithProgress(w io.Writer) Option {
	return func(b *Backfiller) error {
		if w != nil {
			b.progress = w
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backfiller) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBackfiller creates a backfiller over the local catalog.
func NewBackfiller(repo storage.CatalogRepository, embedder ai.Embedder, opts ...Option) (*Backfiller, error) {
	if repo == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Backfiller{
		repo:           repo,
		embedder:       embedder,
		pool:           pool,
		logger:         slog.Default(),
		progress:       io.Discard,
		batchSize:      100,
		reportInterval: 100,
		maxRetries:     3,
		retryDelay:     time.Second,
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			b.Release()
			return nil, err
		}
	}

	return b, nil
}

// Release releases the worker pool. The backfiller should not be used
// after calling Release.
func (b *Backfiller) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Run embeds every record missing a vector and persists the results.
// Returns the number of records embedded.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	records, err := b.repo.GetAllRecords(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoData) {
			fmt.Fprintf(b.progress, "No records found in catalog (0 records)\n")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query records: %w", err)
	}

	pending := records
	if !b.force {
		pending = make([]*core.Record, 0, len(records))
		for _, record := range records {
			if len(record.Vector) == 0 {
				pending = append(pending, record)
			}
		}
	}

	if len(pending) == 0 {
		fmt.Fprintf(b.progress, "All %d records already embedded\n", len(records))
		return 0, nil
	}

	fmt.Fprintf(b.progress, "Backfilling %d of %d records (batch size: %d)\n",
		len(pending), len(records), b.batchSize)

	tracker := NewProgressTracker(b.progress, len(pending), b.reportInterval)
	tracker.Start()

	processor := NewBatchProcessor(b.repo, b.embedder, b.maxRetries, b.retryDelay)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for start := 0; start < len(pending); start += b.batchSize {
		end := start + b.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()
			if err := processor.Process(ctx, batch); err != nil {
				b.logger.Error("batch backfill failed", "records", len(batch), "err", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			tracker.Increment(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Backfill complete. Embedded %d records in %v (%.1f courses/sec)\n",
		len(pending), elapsed.Round(time.Second), float64(len(pending))/elapsed.Seconds())

	return len(pending), nil
}
