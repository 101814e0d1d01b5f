package backfill

import "errors"

var (
	// ErrCatalogRepositoryRequired is returned when a catalog repository is not provided.
	ErrCatalogRepositoryRequired = errors.New("catalog repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmbeddingCountMismatch is returned when the embedder yields a
	// different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
