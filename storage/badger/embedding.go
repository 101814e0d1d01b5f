package badger

import (
	"context"

	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
	"github.com/dgraph-io/badger/v4"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
// It is the persistent layer of the embedding cache.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	return &EmbeddingRepository{backend: backend}, nil
}

// Close releases resources. EmbeddingRepository has no resources to release.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EmbeddingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetVector retrieves the cached vector for a key.
func (r *EmbeddingRepository) GetVector(ctx context.Context, key core.Key) ([]float32, error) {
	var vector []float32
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			vector, unmarshalErr = storage.UnmarshalVector(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// PutVector stores a vector under a key.
func (r *EmbeddingRepository) PutVector(ctx context.Context, key core.Key, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEmbeddingKey(key), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ClearVectors removes every cached vector.
func (r *EmbeddingRepository) ClearVectors(ctx context.Context) error {
	var keys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = embeddingKeyPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}
