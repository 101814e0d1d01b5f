package badger

import (
	"context"
	"testing"

	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbeddings(t *testing.T) *EmbeddingRepository {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	repo, err := NewEmbeddingRepository(backend)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestEmbeddingPutGet(t *testing.T) {
	repo := newTestEmbeddings(t)
	ctx := context.Background()

	key := core.KeyFromText("neuroscience")
	vector := []float32{0.1, 0.2, 0.3}

	require.NoError(t, repo.PutVector(ctx, key, vector))

	got, err := repo.GetVector(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, vector, got)
}

func TestEmbeddingGet_NotFound(t *testing.T) {
	repo := newTestEmbeddings(t)

	_, err := repo.GetVector(context.Background(), core.KeyFromText("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEmbeddingClear(t *testing.T) {
	repo := newTestEmbeddings(t)
	ctx := context.Background()

	require.NoError(t, repo.PutVector(ctx, core.KeyFromText("a"), []float32{1}))
	require.NoError(t, repo.PutVector(ctx, core.KeyFromText("b"), []float32{2}))

	require.NoError(t, repo.ClearVectors(ctx))

	_, err := repo.GetVector(ctx, core.KeyFromText("a"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetVector(ctx, core.KeyFromText("b"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
