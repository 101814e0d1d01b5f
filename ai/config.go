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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the embedding service.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// DefaultConfig returns a Config pointing at a local OpenAI-compatible
// embedding server.
func DefaultConfig(opts ...ConfigOption) *Config {
	c := &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validation errors
var (
	// ErrEmptyHost indicates the embedding host is not set.
	ErrEmptyHost = errors.New("embedding host cannot be empty")

	// ErrInvalidHost indicates the embedding host is not an http(s) URL.
	ErrInvalidHost = errors.New("embedding host must be an http(s) URL")

	// ErrEmptyModel indicates the embedding model is not set.
	ErrEmptyModel = errors.New("embedding model cannot be empty")
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.EmbeddingHost == "" {
		return ErrEmptyHost
	}
	if !strings.HasPrefix(c.EmbeddingHost, "http://") && !strings.HasPrefix(c.EmbeddingHost, "https://") {
		return ErrInvalidHost
	}
	if c.EmbeddingModel == "" {
		return ErrEmptyModel
	}
	return nil
}
