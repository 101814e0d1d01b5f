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


package embedding

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/coursehound/coursehound/ai"
	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
	"golang.org/x/sync/singleflight"
)

// Cache resolves text to embedding vectors through three layers:
// an in-memory map, the persistent embedding repository, and finally the
// remote embedder. Concurrent requests for the same normalized text share
// one outstanding remote call.
//
// Entries are immutable for a given text and are never evicted
// individually; Clear wipes the whole cache.
type Cache struct {
	repo     storage.EmbeddingRepository
	embedder ai.Embedder
	group    singleflight.Group
	mu       sync.RWMutex
	memory   map[core.Key][]float32
	logger   *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCache creates a new embedding cache.
func NewCache(repo storage.EmbeddingRepository, embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &Cache{
		repo:     repo,
		embedder: embedder,
		memory:   make(map[core.Key][]float32),
		logger:   slog.Default().With("component", "embedding-cache"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// NormalizeText produces the cache key form of a text: trimmed and
// lowercased. Strings that normalize identically intentionally share one
// cache entry.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// GetOrCompute returns the embedding for text, consulting the in-memory
// layer, then the persistent store, then the remote embedder. A remote
// result is written to both layers before being returned.
//
// If the remote embedder fails, the failure is returned as-is; the cache
// never synthesizes a fallback vector.
func (c *Cache) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil, ErrEmptyText
	}
	key := core.KeyFromText(normalized)

	if vector, ok := c.fromMemory(key); ok {
		return vector, nil
	}

	// Deduplicate concurrent misses for the same normalized text: every
	// waiter receives the same vector or the same failure.
	result, err, _ := c.group.Do(normalized, func() (any, error) {
		if vector, ok := c.fromMemory(key); ok {
			return vector, nil
		}

		vector, err := c.repo.GetVector(ctx, key)
		if err == nil {
			c.toMemory(key, vector)
			return vector, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}

		vector, err = c.embedder.EmbedText(ctx, normalized)
		if err != nil {
			c.logger.Error("remote embedding failed", "err", err)
			return nil, err
		}

		if err := c.repo.PutVector(ctx, key, vector); err != nil {
			// A failed persist degrades durability, not correctness; the
			// vector is still served and kept in memory.
			c.logger.Warn("failed to persist embedding", "err", err)
		}
		c.toMemory(key, vector)
		return vector, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// Clear wipes both the in-memory layer and the persistent store.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.memory = make(map[core.Key][]float32)
	c.mu.Unlock()

	return c.repo.ClearVectors(ctx)
}

// MemorySize returns the number of entries in the in-memory layer.
func (c *Cache) MemorySize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}

func (c *Cache) fromMemory(key core.Key) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vector, ok := c.memory[key]
	return vector, ok
}

func (c *Cache) toMemory(key core.Key, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory[key] = vector
}
