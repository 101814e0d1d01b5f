package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
	"github.com/coursehound/coursehound/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVectorizer resolves embeddings through an injectable function,
// defaulting to deterministic hash vectors.
type stubVectorizer struct {
	mu    sync.Mutex
	fn    func(text string) ([]float32, error)
	calls int
}

func (s *stubVectorizer) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(text)
	}
	return core.HashVector(text, 64), nil
}

func newTestMatcher(t *testing.T, records []*core.Record, opts ...Option) (*Matcher, storage.CatalogRepository, *stubVectorizer) {
	t.Helper()
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	if len(records) > 0 {
		require.NoError(t, repo.PutRecords(context.Background(), records...))
	}

	vectorizer := &stubVectorizer{}
	matcher, err := NewMatcher(repo, vectorizer, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { matcher.Close() })
	return matcher, repo, vectorizer
}

func codes(results []*core.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Record.Code
	}
	return out
}

func TestNewMatcher_RequiresDependencies(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewMatcher(nil, &stubVectorizer{})
	assert.ErrorIs(t, err, ErrCatalogRepositoryRequired)

	_, err = NewMatcher(repo, nil)
	assert.ErrorIs(t, err, ErrVectorizerRequired)

	_, err = NewMatcher(repo, &stubVectorizer{}, WithSimilarityThreshold(1.5))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewMatcher(repo, &stubVectorizer{}, WithHybridWeight(-0.1))
	assert.ErrorIs(t, err, ErrInvalidWeight)
}

func TestMatch_ShortQueryBrowsesByPopularity(t *testing.T) {
	matcher, _, _ := newTestMatcher(t, []*core.Record{
		{Code: "MATH 221", Name: "Calculus I", ReviewCount: 30},
		{Code: "BIO 101", Name: "Intro Biology", ReviewCount: 90},
		{Code: "ART 100", Name: "Drawing", ReviewCount: 30},
	})

	results, err := matcher.Match(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"BIO 101", "ART 100", "MATH 221"}, codes(results))

	// Single-character queries browse too.
	results, err = matcher.Match(context.Background(), "b", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"BIO 101", "ART 100", "MATH 221"}, codes(results))
}

func TestMatch_ExactCodeComesFirst(t *testing.T) {
	matcher, _, _ := newTestMatcher(t, []*core.Record{
		{Code: "COMP SCI 220", Name: "Programming I", ReviewCount: 50},
		{Code: "COMP SCI 2200", Name: "Programming Topics", ReviewCount: 500},
		{Code: "MATH 221", Name: "Calculus I", ReviewCount: 5},
	})

	// Case- and whitespace-insensitive exact match wins over the more
	// popular prefix match.
	results, err := matcher.Match(context.Background(), "compsci220", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "COMP SCI 220", results[0].Record.Code)
}

func TestMatch_PrefixSortedByCourseNumber(t *testing.T) {
	matcher, _, _ := newTestMatcher(t, []*core.Record{
		{Code: "COMP SCI 220", Name: "Programming I", ReviewCount: 50},
		{Code: "COMP SCI 300", Name: "Programming II", ReviewCount: 10},
	})

	results, err := matcher.Match(context.Background(), "COMP SCI", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"COMP SCI 220", "COMP SCI 300"}, codes(results))
}

func TestMatch_FuzzyTierRankedByPopularity(t *testing.T) {
	matcher, _, _ := newTestMatcher(t, []*core.Record{
		{Code: "BIO 101", Name: "Introductory Biology", Description: "Cells and organisms", ReviewCount: 10},
		{Code: "BIO 301", Name: "Advanced Biology", Description: "Molecular biology in depth", ReviewCount: 80},
		{Code: "MATH 221", Name: "Calculus I", Description: "Limits and derivatives", ReviewCount: 500},
	})

	results, err := matcher.Match(context.Background(), "biology", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Both biology courses match; the more-reviewed one ranks first.
	assert.Equal(t, []string{"BIO 301", "BIO 101"}, codes(results))
}

func TestMatch_AbbreviationExpansion(t *testing.T) {
	matcher, _, _ := newTestMatcher(t, []*core.Record{
		{Code: "ZOO 520", Name: "Computer Science for Biologists", ReviewCount: 5},
		{Code: "HIST 101", Name: "World History", ReviewCount: 50},
	})

	results, err := matcher.Match(context.Background(), "cs", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ZOO 520", results[0].Record.Code)
}

func TestMatch_EmptyCatalogReturnsNoResults(t *testing.T) {
	matcher, _, _ := newTestMatcher(t, nil)

	results, err := matcher.Match(context.Background(), "biology", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMatch_RespectsMaxHits(t *testing.T) {
	records := []*core.Record{
		{Code: "COMP SCI 200", ReviewCount: 1},
		{Code: "COMP SCI 220", ReviewCount: 2},
		{Code: "COMP SCI 300", ReviewCount: 3},
		{Code: "COMP SCI 400", ReviewCount: 4},
	}
	matcher, _, _ := newTestMatcher(t, records)

	results, err := matcher.Match(context.Background(), "COMP SCI", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"COMP SCI 200", "COMP SCI 220"}, codes(results))
}

func TestMatch_ReindexesAfterDataVersionChange(t *testing.T) {
	matcher, repo, _ := newTestMatcher(t, []*core.Record{
		{Code: "BIO 101", Name: "Introductory Biology", ReviewCount: 10},
	})

	ctx := context.Background()
	results, err := matcher.Match(ctx, "biology", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, repo.PutRecords(ctx,
		&core.Record{Code: "BIO 201", Name: "Field Biology", ReviewCount: 99}))

	results, err = matcher.Match(ctx, "biology", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestVectorMatch_RanksBySimilarity(t *testing.T) {
	matcher, _, vectorizer := newTestMatcher(t, []*core.Record{
		{Code: "NEURO 500", Name: "Neuroscience", Vector: []float32{1, 0, 0}},
		{Code: "ART 100", Name: "Drawing", Vector: []float32{0, 1, 0}},
		{Code: "NEURO 300", Name: "Brain and Behavior", Vector: []float32{0.9, 0.1, 0}},
	})
	vectorizer.fn = func(string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	results, err := matcher.VectorMatch(context.Background(), "neuroscience", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// ART 100 is orthogonal to the query and falls under the threshold.
	assert.Equal(t, "NEURO 500", results[0].Record.Code)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "NEURO 300", results[1].Record.Code)
}

func TestVectorMatch_HashFallbackForMissingVectors(t *testing.T) {
	matcher, _, vectorizer := newTestMatcher(t, []*core.Record{
		{Code: "NEURO 500", Name: "Neuroscience"},
		{Code: "ART 100", Name: "Drawing"},
	})
	// The query embedding lines up exactly with NEURO 500's hash
	// substitute, so the fallback path produces a full-confidence hit.
	vectorizer.fn = func(string) ([]float32, error) {
		return core.HashVector("NEURO 500 Neuroscience", 64), nil
	}

	results, err := matcher.VectorMatch(context.Background(), "neuroscience", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "NEURO 500", results[0].Record.Code)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestVectorMatch_QueryEmbeddingFailureFallsBack(t *testing.T) {
	// The stored vector equals the hash substitute the matcher computes
	// for the query, so the degraded path still finds the course.
	matcher, _, vectorizer := newTestMatcher(t, []*core.Record{
		{Code: "NEURO 500", Name: "Neuroscience", Vector: core.HashVector("neuroscience", 256)},
	})
	vectorizer.fn = func(string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	results, err := matcher.VectorMatch(context.Background(), "neuroscience", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "NEURO 500", results[0].Record.Code)
}

func TestHybridMatch_CombinesKeywordAndVector(t *testing.T) {
	matcher, _, vectorizer := newTestMatcher(t, []*core.Record{
		{Code: "NEURO 500", Name: "Neuroscience", Vector: []float32{1, 0}, ReviewCount: 5},
		{Code: "PSYCH 202", Name: "Introduction to Psychology", Vector: []float32{0.8, 0.6}, ReviewCount: 400},
		{Code: "ART 100", Name: "Drawing", Vector: []float32{0, 1}, ReviewCount: 50},
	})
	vectorizer.fn = func(string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	results, err := matcher.HybridMatch(context.Background(), "neuroscience", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// NEURO 500 wins both the keyword tier and the vector tier.
	assert.Equal(t, "NEURO 500", results[0].Record.Code)

	// Scores are descending.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

// recordingMonitor counts lifecycle callbacks and captures each result
// set passed to Finish.
type recordingMonitor struct {
	starts   int
	finishes int
	finals   [][]string
}

func (r *recordingMonitor) Start(string)                { r.starts++ }
func (r *recordingMonitor) BrowseDefault(int)           {}
func (r *recordingMonitor) CodeTierHit([]*core.Record)  {}
func (r *recordingMonitor) FuzzyTierHit([]*core.Record) {}
func (r *recordingMonitor) VectorScore(string, float64) {}

func (r *recordingMonitor) Finish(results []*core.SearchResult) {
	r.finishes++
	r.finals = append(r.finals, codes(results))
}

func TestHybridMatch_MonitorSeesOneFinalResultSet(t *testing.T) {
	matcher, _, vectorizer := newTestMatcher(t, []*core.Record{
		{Code: "NEURO 500", Name: "Neuroscience", Vector: []float32{1, 0}, ReviewCount: 5},
		{Code: "PSYCH 202", Name: "Introduction to Psychology", Vector: []float32{0.8, 0.6}, ReviewCount: 400},
	})
	vectorizer.fn = func(string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	monitor := &recordingMonitor{}
	results, err := matcher.HybridMatchWithMonitor(context.Background(), "neuroscience", 10, monitor)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// The intermediate keyword ranking must not leak through Finish; the
	// monitor sees exactly the hybrid result it would get from the call.
	assert.Equal(t, 1, monitor.starts)
	assert.Equal(t, 1, monitor.finishes)
	require.Len(t, monitor.finals, 1)
	assert.Equal(t, codes(results), monitor.finals[0])
}

func TestHybridMatch_ShortQueryBrowses(t *testing.T) {
	matcher, _, vectorizer := newTestMatcher(t, []*core.Record{
		{Code: "MATH 221", ReviewCount: 30},
		{Code: "BIO 101", ReviewCount: 90},
	})

	results, err := matcher.HybridMatch(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"BIO 101", "MATH 221"}, codes(results))
	assert.Zero(t, vectorizer.calls)
}
