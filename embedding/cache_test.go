package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coursehound/coursehound/ai/mock"
	"github.com/coursehound/coursehound/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *mock.MockEmbedder) {
	t.Helper()
	_, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	cache, err := NewCache(embRepo, embedder)
	require.NoError(t, err)
	return cache, embedder
}

func TestNewCache(t *testing.T) {
	t.Run("nil repository", func(t *testing.T) {
		_, err := NewCache(nil, mock.NewMockEmbedder())
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, embRepo, backend, err := badger.NewMemoryRepositories()
		require.NoError(t, err)
		defer backend.Close()
		defer embRepo.Close()

		_, err = NewCache(embRepo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "neuroscience", NormalizeText("  Neuroscience "))
	assert.Equal(t, "comp sci", NormalizeText("COMP SCI"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	cache, embedder := newTestCache(t)
	ctx := context.Background()

	v1, err := cache.GetOrCompute(ctx, "neuroscience")
	require.NoError(t, err)
	require.NotEmpty(t, v1)
	assert.Equal(t, 1, embedder.CallCount())

	// Second call is served from memory; the embedder is not consulted again.
	v2, err := cache.GetOrCompute(ctx, "neuroscience")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestGetOrCompute_NormalizedKeysShareEntry(t *testing.T) {
	cache, embedder := newTestCache(t)
	ctx := context.Background()

	v1, err := cache.GetOrCompute(ctx, "  Neuroscience ")
	require.NoError(t, err)

	v2, err := cache.GetOrCompute(ctx, "NEUROSCIENCE")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestGetOrCompute_PersistentLayerSurvivesMemoryLoss(t *testing.T) {
	_, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	defer embRepo.Close()

	ctx := context.Background()
	embedder := mock.NewMockEmbedder()

	cache1, err := NewCache(embRepo, embedder)
	require.NoError(t, err)
	v1, err := cache1.GetOrCompute(ctx, "linguistics")
	require.NoError(t, err)

	// A fresh cache over the same repository hits the persistent layer.
	cache2, err := NewCache(embRepo, embedder)
	require.NoError(t, err)
	v2, err := cache2.GetOrCompute(ctx, "linguistics")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestGetOrCompute_ConcurrentRequestsShareOneFetch(t *testing.T) {
	cache, embedder := newTestCache(t)
	ctx := context.Background()

	release := make(chan struct{})
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-release
		return []float32{0.5, 0.5}, nil
	}

	const callers = 8
	results := make([][]float32, callers)
	errs := make([]error, callers)

	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = cache.GetOrCompute(ctx, "neuroscience")
		}(i)
	}

	started.Wait()
	// Give every caller time to join the in-flight request before it resolves.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	// Exactly one remote embed call; every caller got the identical vector.
	assert.Equal(t, 1, embedder.CallCount())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []float32{0.5, 0.5}, results[i])
	}
}

func TestGetOrCompute_RemoteFailurePropagates(t *testing.T) {
	cache, embedder := newTestCache(t)
	ctx := context.Background()

	boom := errors.New("embedding service unavailable")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	_, err := cache.GetOrCompute(ctx, "neuroscience")
	assert.ErrorIs(t, err, boom)

	// Failures are not cached: a later call retries the remote service.
	embedder.EmbedTextFunc = nil
	v, err := cache.GetOrCompute(ctx, "neuroscience")
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestGetOrCompute_EmptyText(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.GetOrCompute(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestClear(t *testing.T) {
	cache, embedder := newTestCache(t)
	ctx := context.Background()

	_, err := cache.GetOrCompute(ctx, "neuroscience")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.MemorySize())

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.MemorySize())

	// After a full clear the next lookup goes back to the remote service.
	_, err = cache.GetOrCompute(ctx, "neuroscience")
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.CallCount())
}
