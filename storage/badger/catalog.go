package badger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
	"github.com/dgraph-io/badger/v4"
)

// defaultChunkSize bounds how many records a single write transaction
// carries, so one large putMany never blocks the host for long.
const defaultChunkSize = 500

// CatalogRepository implements storage.CatalogRepository for BadgerDB.
type CatalogRepository struct {
	backend   *Backend
	chunkSize int
	logger    *slog.Logger

	// The metadata row is read-modified-written inside optimistic
	// transactions; concurrent writers would abort each other with a
	// transaction conflict, so every metadata update serializes on mdMu.
	mdMu sync.Mutex
}

var _ storage.CatalogRepository = (*CatalogRepository)(nil)

// CatalogOption configures a CatalogRepository.
type CatalogOption func(*CatalogRepository)

// WithChunkSize sets the number of records written per sub-transaction.
// Values below 1 fall back to the default.
func WithChunkSize(size int) CatalogOption {
	return func(r *CatalogRepository) {
		if size >= 1 {
			r.chunkSize = size
		}
	}
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(backend *Backend, opts ...CatalogOption) (*CatalogRepository, error) {
	r := &CatalogRepository{
		backend:   backend,
		chunkSize: defaultChunkSize,
		logger:    slog.Default().With("component", "catalog-repository"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases resources. CatalogRepository has no resources to release.
func (r *CatalogRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CatalogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutRecords persists a batch of records in sequential chunks.
// Each record is tagged with the current wall-clock time. The replica
// metadata (total count, data version) is updated once, after the last
// chunk commits. A failure aborts the remaining chunks but leaves
// already-committed chunks in place.
func (r *CatalogRepository) PutRecords(ctx context.Context, records ...*core.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for start := 0; start < len(records); start += r.chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + r.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, record := range chunk {
				record.RefreshedAt = now
				key := makeRecordKey(record.Code)
				value := storage.MarshalRecord(record)
				if err := tx.Set(key, value); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			r.logger.Error("chunk write failed", "offset", start, "chunk", len(chunk), "err", err)
			return err
		}
	}

	return r.bumpMetadata(func(md *core.ReplicaMetadata, total int) {
		md.TotalRecords = total
	})
}

// GetRecord retrieves a single record by course code.
func (r *CatalogRepository) GetRecord(ctx context.Context, code string) (*core.Record, error) {
	var result *core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		record, err := readRecord(tx, makeRecordKey(code))
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}
		result = record
		return nil
	}, false)
	return result, err
}

// GetAllRecords returns every stored record, or ErrNoData if the replica
// is empty.
func (r *CatalogRepository) GetAllRecords(ctx context.Context) ([]*core.Record, error) {
	var results []*core.Record
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.Record
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalRecord(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.ErrNoData
	}
	return results, nil
}

// CountRecords returns the number of stored records without reading values.
func (r *CatalogRepository) CountRecords(ctx context.Context) (int, error) {
	return r.backend.countKeys(recordKeyPrefix())
}

// Clear wipes all records and resets the replica metadata. The data
// version is bumped so derived indices rebuild on next use.
func (r *CatalogRepository) Clear(ctx context.Context) error {
	var keys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordKeyPrefix()
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

	for start := 0; start < len(keys); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(keys) {
			end = len(keys)
		}
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, key := range keys[start:end] {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
	}

	return r.bumpMetadata(func(md *core.ReplicaMetadata, total int) {
		md.TotalRecords = total
		md.ExpectedTotal = 0
		md.LastRefresh = time.Time{}
	})
}

// GetMetadata returns the replica metadata, zero-valued if never written.
func (r *CatalogRepository) GetMetadata(ctx context.Context) (*core.ReplicaMetadata, error) {
	md := &core.ReplicaMetadata{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMetadataKey())
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			md, unmarshalErr = storage.UnmarshalMetadata(val)
			return unmarshalErr
		})
	}, false)
	return md, err
}

// SetLastRefresh records the time of the last successful load or refresh.
func (r *CatalogRepository) SetLastRefresh(ctx context.Context, t time.Time) error {
	return r.updateMetadata(func(md *core.ReplicaMetadata) {
		md.LastRefresh = t.UTC()
	})
}

// SetExpectedTotal records the total count reported by the remote catalog.
func (r *CatalogRepository) SetExpectedTotal(ctx context.Context, n int) error {
	return r.updateMetadata(func(md *core.ReplicaMetadata) {
		md.ExpectedTotal = n
	})
}

// Helper methods

// readRecord reads a catalog record from the transaction.
// Returns nil, nil when the key is absent.
func readRecord(tx *badger.Txn, key []byte) (*core.Record, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.Record
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRecord(val)
		return unmarshalErr
	})
	return record, err
}

// bumpMetadata recounts the stored records, applies fn and increments the
// data version in a single metadata write. The count and the write happen
// under mdMu so the stored total matches a state the count observed.
func (r *CatalogRepository) bumpMetadata(fn func(md *core.ReplicaMetadata, total int)) error {
	r.mdMu.Lock()
	defer r.mdMu.Unlock()

	total, err := r.backend.countKeys(recordKeyPrefix())
	if err != nil {
		return err
	}
	return r.writeMetadata(func(md *core.ReplicaMetadata) {
		fn(md, total)
		md.DataVersion++
	})
}

// updateMetadata applies a read-modify-write cycle on the metadata row.
func (r *CatalogRepository) updateMetadata(fn func(md *core.ReplicaMetadata)) error {
	r.mdMu.Lock()
	defer r.mdMu.Unlock()
	return r.writeMetadata(fn)
}

// writeMetadata runs the metadata transaction. Callers must hold mdMu.
func (r *CatalogRepository) writeMetadata(fn func(md *core.ReplicaMetadata)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		md := &core.ReplicaMetadata{}
		item, err := tx.Get(makeMetadataKey())
		if err == nil {
			err = item.Value(func(val []byte) error {
				var unmarshalErr error
				md, unmarshalErr = storage.UnmarshalMetadata(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		fn(md)
		if err := tx.Set(makeMetadataKey(), storage.MarshalMetadata(md)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
