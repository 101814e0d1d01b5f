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


package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coursehound/coursehound/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrShortResponse is returned when the service answers a request with
// fewer vectors than texts.
var ErrShortResponse = errors.New("embedding service returned too few vectors")

// Embedder talks to an OpenAI-compatible embeddings endpoint through
// langchaingo. The catalog embeds course text in batches, so the batch
// call is the primary path; single-text requests ride the same path.
type Embedder struct {
	client embeddings.Embedder
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder builds an embedder from the AI configuration.
func NewEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services (Ollama, llama.cpp) ignore the
	// token, but langchaingo requires one to be set.
	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	client, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedding client: %w", err)
	}

	return &Embedder{
		client: client,
		logger: slog.Default().With("component", "openai-embedder"),
	}, nil
}

// EmbedTexts embeds a batch of texts in one request, preserving input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding request failed", "texts", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) < len(texts) {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrShortResponse, len(texts), len(vectors))
	}
	return vectors, nil
}

// EmbedText embeds a single text through the batch path.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
