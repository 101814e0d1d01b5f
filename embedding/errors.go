package embedding

import "errors"

var (
	// ErrRepositoryRequired is returned when an embedding repository is not provided.
	ErrRepositoryRequired = errors.New("embedding repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyText is returned when the text normalizes to an empty string.
	ErrEmptyText = errors.New("text cannot be empty")
)
