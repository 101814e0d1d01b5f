package storage

import (
	"context"
	"time"

	"github.com/coursehound/coursehound/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CatalogRepository provides operations for the local course catalog replica
// and its metadata. Records are keyed by course code; writing an existing
// code overwrites the stored record in place.
type CatalogRepository interface {
	Repository

	// PutRecords persists a batch of records, tagging each with the current
	// wall-clock time. Batches above the chunk threshold are written in
	// sequential sub-transactions; each chunk commit is atomic. The replica
	// metadata (total count, data version) is updated exactly once per call,
	// after all chunks have committed.
	// On failure, already-committed chunks remain valid; the metadata update
	// is skipped and the error is returned.
	PutRecords(ctx context.Context, records ...*core.Record) error

	// GetRecord retrieves a single record by course code.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, code string) (*core.Record, error)

	// GetAllRecords returns every stored record.
	// Returns ErrNoData if the replica is empty, so callers can distinguish
	// "never loaded" from "loaded and legitimately empty results".
	GetAllRecords(ctx context.Context) ([]*core.Record, error)

	// CountRecords returns the number of stored records without
	// materializing them. Used for fast presence checks.
	CountRecords(ctx context.Context) (int, error)

	// Clear wipes all records and resets the replica metadata atomically.
	// The data version survives (and is bumped) so derived indices rebuild.
	Clear(ctx context.Context) error

	// GetMetadata returns the replica metadata. A replica that has never
	// been written returns zero-valued metadata, not an error.
	GetMetadata(ctx context.Context) (*core.ReplicaMetadata, error)

	// SetLastRefresh records the time of the last successful load or refresh.
	SetLastRefresh(ctx context.Context, t time.Time) error

	// SetExpectedTotal records the total count reported by the remote catalog.
	SetExpectedTotal(ctx context.Context, n int) error
}

// EmbeddingRepository provides the persistent layer of the embedding cache:
// a content-hash key to vector mapping. Entries are immutable once written
// and are only removed by ClearVectors.
type EmbeddingRepository interface {
	Repository

	// GetVector retrieves the cached vector for a key.
	// Returns ErrNotFound if no entry exists.
	GetVector(ctx context.Context, key core.Key) ([]float32, error)

	// PutVector stores a vector under a key. Writing an existing key
	// overwrites it (entries for identical text are identical anyway).
	PutVector(ctx context.Context, key core.Key, vector []float32) error

	// ClearVectors removes every cached vector.
	ClearVectors(ctx context.Context) error
}
