package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	t.Run("vector with itself is 1", func(t *testing.T) {
		v := []float32{0.3, -0.4, 0.5}
		sim, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	})

	t.Run("zero vector is 0, not an error", func(t *testing.T) {
		sim, err := Cosine([]float32{1, 2, 3}, []float32{0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim)
	})

	t.Run("orthogonal vectors are 0", func(t *testing.T) {
		sim, err := Cosine([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-6)
	})

	t.Run("opposite vectors are -1", func(t *testing.T) {
		sim, err := Cosine([]float32{1, 0}, []float32{-1, 0})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-6)
	})

	t.Run("dimension mismatch is fatal", func(t *testing.T) {
		_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length output", func(t *testing.T) {
		got := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, got[0], 1e-6)
		assert.InDelta(t, 0.8, got[1], 1e-6)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		got := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, got)
	})

	t.Run("empty vector", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})
}

func TestHashVector(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, HashVector("COMP SCI 540", 256), HashVector("COMP SCI 540", 256))
	})

	t.Run("distinct text differs", func(t *testing.T) {
		assert.NotEqual(t, HashVector("COMP SCI 540", 64), HashVector("MATH 221", 64))
	})

	t.Run("unit length", func(t *testing.T) {
		v := HashVector("anything", 32)
		sim, err := Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	})
}
