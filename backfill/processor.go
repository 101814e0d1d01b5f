package backfill

import (
	"context"
	"fmt"
	"time"

	"github.com/coursehound/coursehound/ai"
	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/replicate"
	"github.com/coursehound/coursehound/storage"
)

// BatchProcessor generates embeddings for batches of catalog records.
type BatchProcessor struct {
	repo     storage.CatalogRepository
	embedder ai.Embedder
	retry    replicate.Backoff
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.CatalogRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		retry:    replicate.Backoff{Attempts: maxRetries, Base: retryBaseDelay},
	}
}

// embeddingText is what gets embedded for a course: the code anchors the
// department vocabulary, name and description carry the content.
func embeddingText(record *core.Record) string {
	text := record.Code + " " + record.Name
	if record.Description != "" {
		text += " " + record.Description
	}
	return text
}

// Process generates embeddings for a batch of records and persists the
// updated records. Vectors are normalized after embedding so cosine
// similarity behaves.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = embeddingText(record)
	}

	var embeddings [][]float32
	err := bp.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.retry.Attempts, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(records), len(embeddings))
	}

	for i := range records {
		records[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if err := bp.repo.PutRecords(ctx, records...); err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}
