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


package replicate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
	"golang.org/x/sync/singleflight"
)

// State describes where a replica is in its lifecycle.
type State int

const (
	// StateEmpty means no local data has ever been loaded.
	StateEmpty State = iota
	// StateLoading means the initial bulk load is in flight.
	StateLoading
	// StateReady means local data is available to serve.
	StateReady
	// StateRefreshing means a differential refresh is in flight.
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

const (
	defaultFreshness    = 24 * time.Hour
	defaultCooldown     = 5 * time.Second
	defaultMaxAttempts  = 3
	defaultRetryDelay   = 500 * time.Millisecond
	defaultPageDelay    = 250 * time.Millisecond
	defaultRefreshLimit = 500

	// Bulk loads split into at most maxLoadPages sequential pages; each page
	// targets about pageTargetSize records to bound peak memory and request
	// size.
	maxLoadPages   = 4
	pageTargetSize = 2500
)

// Coordinator orchestrates the local replica: initial bulk load and
// differential refresh, serialized by a per-replica single-flight group.
// It is the only component that writes to the catalog repository.
type Coordinator struct {
	repo   storage.CatalogRepository
	source Source
	group  singleflight.Group
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	lastAttempt time.Time

	freshness    time.Duration
	cooldown     time.Duration
	retry        Backoff
	pageDelay    time.Duration
	refreshLimit int
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithFreshness sets how old the replica may be before a refresh actually
// fetches from the remote catalog. Default is 24 hours.
func WithFreshness(d time.Duration) Option {
	return func(c *Coordinator) error {
		c.freshness = d
		return nil
	}
}

// WithCooldown sets the minimum interval between independent load attempts.
// Default is 5 seconds.
func WithCooldown(d time.Duration) Option {
	return func(c *Coordinator) error {
		c.cooldown = d
		return nil
	}
}

// WithRetry sets the attempt count and base backoff delay for page fetches
// during bulk load. Defaults are 3 attempts, 500ms.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Coordinator) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.retry = Backoff{Attempts: maxAttempts, Base: baseDelay}
		return nil
	}
}

// WithPageDelay sets the pause between sequential bulk-load pages.
// Default is 250ms.
func WithPageDelay(d time.Duration) Option {
	return func(c *Coordinator) error {
		c.pageDelay = d
		return nil
	}
}

// WithRefreshLimit bounds how many changed records one refresh fetches.
// Default is 500.
func WithRefreshLimit(n int) Option {
	return func(c *Coordinator) error {
		if n > 0 {
			c.refreshLimit = n
		}
		return nil
	}
}

// NewCoordinator creates a replication coordinator for one replica.
func NewCoordinator(repo storage.CatalogRepository, source Source, opts ...Option) (*Coordinator, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if source == nil {
		return nil, ErrSourceRequired
	}

	c := &Coordinator{
		repo:         repo,
		source:       source,
		logger:       slog.Default().With("component", "replication-coordinator"),
		state:        StateEmpty,
		freshness:    defaultFreshness,
		cooldown:     defaultCooldown,
		retry:        Backoff{Attempts: defaultMaxAttempts, Base: defaultRetryDelay},
		pageDelay:    defaultPageDelay,
		refreshLimit: defaultRefreshLimit,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	// A pre-existing replica starts ready, not empty.
	count, err := repo.CountRecords(context.Background())
	if err == nil && count > 0 {
		c.state = StateReady
	}

	return c, nil
}

// State returns the replica's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ensure returns the replica's records, bulk-loading on first use and
// refreshing when the local data is stale. Concurrent callers share one
// in-flight load or refresh.
func (c *Coordinator) Ensure(ctx context.Context) ([]*core.Record, error) {
	count, err := c.repo.CountRecords(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return c.Load(ctx)
	}
	return c.Refresh(ctx)
}

// Load performs the initial bulk load: fetch the remote total, split it
// into 1-4 sequential pages, fetch each page with bounded retry and an
// inter-page delay, and persist the result. Failures are fatal to the
// attempt; no fallback data is synthesized.
//
// Concurrent callers await the in-flight load rather than issuing
// duplicate network work, and rapid repeated calls inside the cooldown
// window are served from local data.
func (c *Coordinator) Load(ctx context.Context) ([]*core.Record, error) {
	if local, err, handled := c.cooldownResult(ctx); handled {
		return local, err
	}

	result, err, _ := c.group.Do("replica", func() (any, error) {
		return c.doLoad(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*core.Record), nil
}

// Refresh performs a differential refresh: if the replica is younger than
// the freshness window this is a no-op returning local data; otherwise
// recently-changed records are fetched and merged by course code.
//
// Refresh failures are non-fatal: the last known-good local data is
// returned and the failure is only logged.
func (c *Coordinator) Refresh(ctx context.Context) ([]*core.Record, error) {
	result, err, _ := c.group.Do("replica", func() (any, error) {
		return c.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*core.Record), nil
}

// cooldownResult handles loads that land inside the cooldown window:
// local data is served when any exists, otherwise the attempt is rejected
// with ErrCooldown. Calls arriving while a load or refresh is already in
// flight are not handled here; they join the single-flight group and
// share its result.
func (c *Coordinator) cooldownResult(ctx context.Context) ([]*core.Record, error, bool) {
	c.mu.Lock()
	inFlight := c.state == StateLoading || c.state == StateRefreshing
	inCooldown := !c.lastAttempt.IsZero() && time.Since(c.lastAttempt) < c.cooldown
	c.mu.Unlock()
	if inFlight || !inCooldown {
		return nil, nil, false
	}

	local, err := c.repo.GetAllRecords(ctx)
	if err != nil {
		return nil, ErrCooldown, true
	}
	c.logger.Debug("load requested during cooldown, serving local data", "records", len(local))
	return local, nil, true
}

func (c *Coordinator) doLoad(ctx context.Context) ([]*core.Record, error) {
	c.setState(StateLoading)
	c.markAttempt()

	var total int
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var countErr error
		total, countErr = c.source.Count(ctx)
		return countErr
	})
	if err != nil {
		c.setState(StateEmpty)
		return nil, fmt.Errorf("fetch catalog count: %w", err)
	}

	pages := pageCount(total)
	pageSize := (total + pages - 1) / pages
	if pageSize == 0 {
		pageSize = 1
	}

	records := make([]*core.Record, 0, total)
	for page := 0; page < pages; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, c.pageDelay); err != nil {
				c.setState(StateEmpty)
				return nil, err
			}
		}

		var batch []*core.Record
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			var pageErr error
			batch, pageErr = c.source.Page(ctx, page, pageSize)
			return pageErr
		})
		if err != nil {
			c.setState(StateEmpty)
			return nil, fmt.Errorf("fetch catalog page %d/%d: %w", page+1, pages, err)
		}
		records = append(records, batch...)
	}

	if err := c.repo.PutRecords(ctx, records...); err != nil {
		c.setState(StateEmpty)
		return nil, fmt.Errorf("persist bulk load: %w", err)
	}
	if err := c.repo.SetExpectedTotal(ctx, total); err != nil {
		c.setState(StateEmpty)
		return nil, err
	}
	if err := c.repo.SetLastRefresh(ctx, time.Now().UTC()); err != nil {
		c.setState(StateEmpty)
		return nil, err
	}

	c.setState(StateReady)
	c.logger.Info("bulk load complete", "records", len(records), "pages", pages)
	return records, nil
}

func (c *Coordinator) doRefresh(ctx context.Context) ([]*core.Record, error) {
	local, err := c.repo.GetAllRecords(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoData) {
			return c.doLoad(ctx)
		}
		return nil, err
	}

	md, err := c.repo.GetMetadata(ctx)
	if err != nil {
		return nil, err
	}

	if time.Since(md.LastRefresh) < c.freshness {
		c.setState(StateReady)
		return local, nil
	}

	c.setState(StateRefreshing)
	c.markAttempt()

	changed, err := c.source.Since(ctx, md.LastRefresh, c.refreshLimit)
	if err != nil {
		// Stale data is an acceptable degraded state; an apparently-empty
		// catalog is not. Keep serving the last known-good replica.
		c.logger.Warn("refresh fetch failed, serving stale data", "err", err)
		c.setState(StateReady)
		return local, nil
	}

	merged := Merge(local, changed)
	if err := c.repo.PutRecords(ctx, merged...); err != nil {
		c.logger.Warn("refresh persist failed, serving stale data", "err", err)
		c.setState(StateReady)
		return local, nil
	}
	if err := c.repo.SetLastRefresh(ctx, time.Now().UTC()); err != nil {
		c.logger.Warn("refresh metadata update failed", "err", err)
	}

	c.setState(StateReady)
	c.logger.Info("refresh complete", "changed", len(changed), "total", len(merged))
	return merged, nil
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) markAttempt() {
	c.mu.Lock()
	c.lastAttempt = time.Now()
	c.mu.Unlock()
}

// pageCount splits a dataset into 1-4 pages of roughly pageTargetSize
// records each.
func pageCount(total int) int {
	pages := (total + pageTargetSize - 1) / pageTargetSize
	if pages < 1 {
		return 1
	}
	if pages > maxLoadPages {
		return maxLoadPages
	}
	return pages
}

// sleepCtx pauses for d, waking early if the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
