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


package coursehound

import (
	"context"
	"log/slog"

	"github.com/coursehound/coursehound/ai"
	"github.com/coursehound/coursehound/ai/openai"
	"github.com/coursehound/coursehound/backfill"
	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/embedding"
	"github.com/coursehound/coursehound/filter"
	"github.com/coursehound/coursehound/replicate"
	"github.com/coursehound/coursehound/search"
	"github.com/coursehound/coursehound/storage"
	"github.com/coursehound/coursehound/storage/badger"
)

// searchCandidateLimit bounds how many match candidates feed the filter
// stage before pagination.
const searchCandidateLimit = 200

// Replica is the top-level handle on one local catalog replica: storage,
// replication, embedding cache, match engine and filter schema wired
// together.
type Replica struct {
	backend       *badger.Backend
	catalogRepo   storage.CatalogRepository
	embeddingRepo storage.EmbeddingRepository
	embedder      ai.Embedder
	cache         *embedding.Cache
	coordinator   *replicate.Coordinator
	matcher       *search.Matcher
	schema        *filter.Schema
	logger        *slog.Logger
}

// ReplicaOption configures a Replica.
type ReplicaOption func(*replicaOptions)

type replicaOptions struct {
	aiConfig        *ai.Config
	schema          *filter.Schema
	embedder        ai.Embedder
	inMemory        bool
	coordinatorOpts []replicate.Option
	matcherOpts     []search.Option
	logger          *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) ReplicaOption {
	return func(o *replicaOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithSchema sets the institution's filter schema.
// Default is filter.DefaultSchema().
func WithSchema(schema *filter.Schema) ReplicaOption {
	return func(o *replicaOptions) {
		if schema != nil {
			o.schema = schema
		}
	}
}

// WithEmbedder overrides the embedding collaborator, bypassing the
// OpenAI-compatible client built from the AI config.
func WithEmbedder(embedder ai.Embedder) ReplicaOption {
	return func(o *replicaOptions) {
		o.embedder = embedder
	}
}

// WithInMemory keeps the replica entirely in memory, with no files on
// disk. Intended for tests and ephemeral sessions.
func WithInMemory() ReplicaOption {
	return func(o *replicaOptions) {
		o.inMemory = true
	}
}

// WithCoordinatorOptions forwards options to the replication coordinator.
func WithCoordinatorOptions(opts ...replicate.Option) ReplicaOption {
	return func(o *replicaOptions) {
		o.coordinatorOpts = append(o.coordinatorOpts, opts...)
	}
}

// WithMatcherOptions forwards options to the match engine.
func WithMatcherOptions(opts ...search.Option) ReplicaOption {
	return func(o *replicaOptions) {
		o.matcherOpts = append(o.matcherOpts, opts...)
	}
}

// WithLogger sets a custom logger for the replica and its components.
func WithLogger(logger *slog.Logger) ReplicaOption {
	return func(o *replicaOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewReplica opens (or creates) a local catalog replica at filePath,
// replicating from the given source.
func NewReplica(filePath string, source replicate.Source, opts ...ReplicaOption) (*Replica, error) {
	options := &replicaOptions{
		aiConfig: ai.DefaultConfig(),
		schema:   filter.DefaultSchema(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	catalogRepo, err := badger.NewCatalogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embeddingRepo, err := badger.NewEmbeddingRepository(backend)
	if err != nil {
		catalogRepo.Close()
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			embeddingRepo.Close()
			catalogRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	cache, err := embedding.NewCache(embeddingRepo, embedder,
		embedding.WithLogger(options.logger))
	if err != nil {
		embeddingRepo.Close()
		catalogRepo.Close()
		backend.Close()
		return nil, err
	}

	coordinatorOpts := append([]replicate.Option{replicate.WithLogger(options.logger)},
		options.coordinatorOpts...)
	coordinator, err := replicate.NewCoordinator(catalogRepo, source, coordinatorOpts...)
	if err != nil {
		embeddingRepo.Close()
		catalogRepo.Close()
		backend.Close()
		return nil, err
	}

	matcherOpts := append([]search.Option{search.WithLogger(options.logger)},
		options.matcherOpts...)
	matcher, err := search.NewMatcher(catalogRepo, cache, matcherOpts...)
	if err != nil {
		embeddingRepo.Close()
		catalogRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Replica{
		backend:       backend,
		catalogRepo:   catalogRepo,
		embeddingRepo: embeddingRepo,
		embedder:      embedder,
		cache:         cache,
		coordinator:   coordinator,
		matcher:       matcher,
		schema:        options.schema,
		logger:        options.logger,
	}, nil
}

// Close releases the match index and storage.
func (r *Replica) Close() error {
	if err := r.matcher.Close(); err != nil {
		r.logger.Error("error closing match index", "err", err)
	}
	if err := r.embeddingRepo.Close(); err != nil {
		r.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := r.catalogRepo.Close(); err != nil {
		r.logger.Error("error closing catalog repository", "err", err)
		return err
	}
	if err := r.backend.Close(); err != nil {
		r.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// CatalogRepository exposes the underlying record store.
func (r *Replica) CatalogRepository() storage.CatalogRepository {
	return r.catalogRepo
}

// Coordinator exposes the replication coordinator.
func (r *Replica) Coordinator() *replicate.Coordinator {
	return r.coordinator
}

// Schema returns the active filter schema.
func (r *Replica) Schema() *filter.Schema {
	return r.schema
}

// Ensure makes the replica ready to serve: bulk load on first use,
// freshness-gated refresh afterwards.
func (r *Replica) Ensure(ctx context.Context) error {
	_, err := r.coordinator.Ensure(ctx)
	return err
}

// NewBackfiller builds an embedding backfiller over this replica.
func (r *Replica) NewBackfiller(opts ...backfill.Option) (*backfill.Backfiller, error) {
	return backfill.NewBackfiller(r.catalogRepo, r.embedder, opts...)
}

// SearchPage is one page of filtered search results.
type SearchPage struct {
	Results  []*core.SearchResult
	Total    int
	Page     int
	PageSize int
}

// Search answers a query with the keyword match tiers, narrows the
// candidates by the filter selections, and paginates. Page numbering
// starts at 0; a non-positive pageSize returns everything on one page.
func (r *Replica) Search(ctx context.Context, query string, selections []filter.Selection, page, pageSize int) (*SearchPage, error) {
	if err := r.Ensure(ctx); err != nil {
		return nil, err
	}

	results, err := r.matcher.Match(ctx, query, searchCandidateLimit)
	if err != nil {
		return nil, err
	}
	return r.paginate(results, selections, page, pageSize), nil
}

// SearchHybrid is Search with the hybrid keyword-plus-vector ranking.
func (r *Replica) SearchHybrid(ctx context.Context, query string, selections []filter.Selection, page, pageSize int) (*SearchPage, error) {
	if err := r.Ensure(ctx); err != nil {
		return nil, err
	}

	results, err := r.matcher.HybridMatch(ctx, query, searchCandidateLimit)
	if err != nil {
		return nil, err
	}
	return r.paginate(results, selections, page, pageSize), nil
}

func (r *Replica) paginate(results []*core.SearchResult, selections []filter.Selection, page, pageSize int) *SearchPage {
	filtered := results
	if len(selections) > 0 {
		filtered = make([]*core.SearchResult, 0, len(results))
		for _, result := range results {
			if filter.Matches(result.Record, r.schema, selections) {
				filtered = append(filtered, result)
			}
		}
	}

	total := len(filtered)
	if pageSize <= 0 {
		return &SearchPage{Results: filtered, Total: total, Page: 0, PageSize: total}
	}

	start := page * pageSize
	if start < 0 || start >= total {
		return &SearchPage{Results: []*core.SearchResult{}, Total: total, Page: page, PageSize: pageSize}
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return &SearchPage{Results: filtered[start:end], Total: total, Page: page, PageSize: pageSize}
}

// Stats reports the replica's metadata and current record count.
func (r *Replica) Stats(ctx context.Context) (core.ReplicaMetadata, int, error) {
	md, err := r.catalogRepo.GetMetadata(ctx)
	if err != nil {
		return core.ReplicaMetadata{}, 0, err
	}
	count, err := r.catalogRepo.CountRecords(ctx)
	if err != nil {
		return core.ReplicaMetadata{}, 0, err
	}
	return *md, count, nil
}
