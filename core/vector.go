package core

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-crypt/x/blake2b"
)

// Cosine computes the cosine similarity of two vectors.
// Vectors of different lengths are an input error. A zero-magnitude vector
// yields a similarity of 0 rather than an error, so records with degenerate
// embeddings score as no-similarity instead of aborting the search.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// HashVector creates a deterministic unit-length embedding from text.
// It is the fallback for records whose real embedding has not been fetched
// yet: the same text always produces the same vector, so similarity scores
// stay stable across searches.
func HashVector(text string, dim int) []float32 {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(text))
	seed := binary.LittleEndian.Uint32(h.Sum(nil))

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// LCG constants (Numerical Recipes)
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}

	return NormalizeVector(vector)
}
