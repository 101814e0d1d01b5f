// Copyright 2025 Coursehound Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/storage"
)

const (
	defaultThreshold    = 0.60
	defaultHybridWeight = 0.60
	defaultFallbackDim  = 256

	// Queries shorter than this browse the catalog by popularity instead
	// of matching.
	minQueryLength = 2
)

// Vectorizer resolves a text to its embedding vector.
type Vectorizer interface {
	GetOrCompute(ctx context.Context, text string) ([]float32, error)
}

// Matcher ranks course records against free-text queries using tiered
// matching: exact/prefix code match, fuzzy token match, vector
// similarity, and a hybrid combination of the last two.
type Matcher struct {
	repo       storage.CatalogRepository
	vectorizer Vectorizer
	logger     *slog.Logger

	threshold    float64
	hybridWeight float64
	fallbackDim  int

	mu    sync.Mutex
	index *fuzzyIndex
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithSimilarityThreshold sets the minimum normalized cosine score a
// record needs to survive the vector tier. Default is 0.60.
func WithSimilarityThreshold(threshold float64) Option {
	return func(m *Matcher) error {
		if threshold < 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		m.threshold = threshold
		return nil
	}
}

// WithHybridWeight sets the vector score's share of the hybrid score;
// the keyword rank gets the remainder. Default is 0.60.
func WithHybridWeight(weight float64) Option {
	return func(m *Matcher) error {
		if weight < 0 || weight > 1 {
			return ErrInvalidWeight
		}
		m.hybridWeight = weight
		return nil
	}
}

// WithFallbackDimension sets the vector length used when hashing a
// substitute embedding for records that have none. Default is 256.
func WithFallbackDimension(dim int) Option {
	return func(m *Matcher) error {
		if dim > 0 {
			m.fallbackDim = dim
		}
		return nil
	}
}

// NewMatcher creates a matcher over the local catalog replica.
func NewMatcher(repo storage.CatalogRepository, vectorizer Vectorizer, opts ...Option) (*Matcher, error) {
	if repo == nil {
		return nil, ErrCatalogRepositoryRequired
	}
	if vectorizer == nil {
		return nil, ErrVectorizerRequired
	}

	m := &Matcher{
		repo:         repo,
		vectorizer:   vectorizer,
		logger:       slog.Default(),
		threshold:    defaultThreshold,
		hybridWeight: defaultHybridWeight,
		fallbackDim:  defaultFallbackDim,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Close releases the in-memory fuzzy index.
func (m *Matcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.index.close()
	m.index = nil
	return err
}

// Match ranks records for the query through the keyword tiers: browse
// for sub-length queries, then exact/prefix code match, then fuzzy token
// match. Returns up to maxHits results.
func (m *Matcher) Match(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return m.MatchWithMonitor(ctx, query, maxHits, nil)
}

// MatchWithMonitor is Match with per-tier observation hooks.
func (m *Matcher) MatchWithMonitor(ctx context.Context, query string, maxHits int, monitor MatchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	results, err := m.matchTiers(ctx, query, maxHits, monitor)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)
	return results, nil
}

// matchTiers runs the keyword tiers without the Start/Finish bookends,
// so the hybrid path can reuse it for its keyword leg and still report
// exactly one final result set per query.
func (m *Matcher) matchTiers(ctx context.Context, query string, maxHits int, monitor MatchMonitor) ([]*core.SearchResult, error) {
	idx, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return []*core.SearchResult{}, nil
	}

	trimmed := strings.TrimSpace(query)
	if len(trimmed) < minQueryLength {
		monitor.BrowseDefault(len(idx.records))
		return rankByPosition(browseByPopularity(idx.records), maxHits), nil
	}

	if matches := matchByCode(idx.records, trimmed); len(matches) > 0 {
		monitor.CodeTierHit(matches)
		return rankByPosition(matches, maxHits), nil
	}

	matches, err := idx.query(ctx, expandQuery(trimmed), fuzzyCandidateLimit(maxHits))
	if err != nil {
		m.logger.Error("fuzzy tier failed", "query", query, "err", err)
		return nil, err
	}
	monitor.FuzzyTierHit(matches)

	// Fuzzy hits are re-ranked by popularity; relevance already gated
	// which records got in.
	sortByPopularity(matches)
	return rankByPosition(matches, maxHits), nil
}

// VectorMatch ranks records by cosine similarity between the query's
// embedding and each record's stored embedding. Records without one get
// a deterministic hash-based substitute. Scores are normalized by the
// maximum observed score and thresholded.
func (m *Matcher) VectorMatch(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return m.vectorMatch(ctx, query, maxHits, &noopMonitor{})
}

func (m *Matcher) vectorMatch(ctx context.Context, query string, maxHits int, monitor MatchMonitor) ([]*core.SearchResult, error) {
	idx, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return []*core.SearchResult{}, nil
	}

	queryVector, err := m.vectorizer.GetOrCompute(ctx, query)
	if err != nil {
		// The cache does not synthesize fallback vectors; the matcher does.
		m.logger.Warn("query embedding unavailable, using hash substitute", "query", query, "err", err)
		queryVector = core.HashVector(query, m.fallbackDim)
	}

	scores := m.scoreByVector(idx.records, queryVector, monitor)

	results := make([]*core.SearchResult, 0, len(scores))
	for _, record := range idx.records {
		score, ok := scores[record.Code]
		if !ok || score < m.threshold {
			continue
		}
		results = append(results, &core.SearchResult{Record: record, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.Code < results[j].Record.Code
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	return results, nil
}

// HybridMatch combines the keyword tiers with vector similarity: each
// candidate's score is a weighted sum of its normalized vector score and
// a linear rank score from the keyword ordering.
func (m *Matcher) HybridMatch(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return m.HybridMatchWithMonitor(ctx, query, maxHits, nil)
}

// HybridMatchWithMonitor is HybridMatch with per-tier observation hooks.
func (m *Matcher) HybridMatchWithMonitor(ctx context.Context, query string, maxHits int, monitor MatchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	trimmed := strings.TrimSpace(query)
	if len(trimmed) < minQueryLength {
		results, err := m.matchTiers(ctx, query, maxHits, monitor)
		if err != nil {
			return nil, err
		}
		monitor.Finish(results)
		return results, nil
	}

	keyword, err := m.matchTiers(ctx, query, fuzzyCandidateLimit(maxHits), monitor)
	if err != nil {
		return nil, err
	}

	vector, err := m.vectorMatch(ctx, query, fuzzyCandidateLimit(maxHits), monitor)
	if err != nil {
		return nil, err
	}

	// Linear rank score: the top keyword result gets 1.0, decaying to
	// just above zero for the last.
	rankScores := make(map[string]float64, len(keyword))
	for i, result := range keyword {
		rankScores[result.Record.Code] = float64(len(keyword)-i) / float64(len(keyword))
	}
	vectorScores := make(map[string]float64, len(vector))
	for _, result := range vector {
		vectorScores[result.Record.Code] = result.Score
	}

	byCode := make(map[string]*core.Record, len(keyword)+len(vector))
	for _, result := range keyword {
		byCode[result.Record.Code] = result.Record
	}
	for _, result := range vector {
		byCode[result.Record.Code] = result.Record
	}

	results := make([]*core.SearchResult, 0, len(byCode))
	for code, record := range byCode {
		combined := m.hybridWeight*vectorScores[code] + (1-m.hybridWeight)*rankScores[code]
		results = append(results, &core.SearchResult{Record: record, Score: combined})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.Code < results[j].Record.Code
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)
	return results, nil
}

// snapshot returns the fuzzy index for the current data version,
// rebuilding it when the replica has moved. Returns nil when the replica
// is empty.
func (m *Matcher) snapshot(ctx context.Context) (*fuzzyIndex, error) {
	md, err := m.repo.GetMetadata(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index != nil && m.index.version == md.DataVersion {
		return m.index, nil
	}

	records, err := m.repo.GetAllRecords(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}

	idx, err := newFuzzyIndex(records, md.DataVersion)
	if err != nil {
		return nil, err
	}

	if m.index != nil {
		if closeErr := m.index.close(); closeErr != nil {
			m.logger.Warn("failed to close stale fuzzy index", "err", closeErr)
		}
	}
	m.index = idx
	m.logger.Debug("rebuilt fuzzy index", "records", len(records), "version", md.DataVersion)
	return idx, nil
}

// scoreByVector computes max-normalized cosine scores per record. A
// record whose similarity cannot be computed scores zero rather than
// failing the whole search.
func (m *Matcher) scoreByVector(records []*core.Record, queryVector []float32, monitor MatchMonitor) map[string]float64 {
	scores := make(map[string]float64, len(records))
	maxScore := 0.0
	for _, record := range records {
		vector := record.Vector
		if len(vector) == 0 {
			vector = core.HashVector(record.Code+" "+record.Name, len(queryVector))
		}
		score, err := core.Cosine(queryVector, vector)
		if err != nil {
			m.logger.Debug("similarity unavailable for record", "code", record.Code, "err", err)
			score = 0
		}
		scores[record.Code] = score
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for code := range scores {
			scores[code] /= maxScore
			monitor.VectorScore(code, scores[code])
		}
	}
	return scores
}

// matchByCode returns records whose code the query equals or prefixes,
// compared case- and whitespace-insensitively. Exact matches come first;
// prefix matches follow sorted by trailing course number.
func matchByCode(records []*core.Record, query string) []*core.Record {
	normQuery := normalizeCode(query)
	if normQuery == "" {
		return nil
	}

	var matches []*core.Record
	exact := make(map[string]bool)
	for _, record := range records {
		normCode := normalizeCode(record.Code)
		if normCode == normQuery {
			matches = append(matches, record)
			exact[record.Code] = true
		} else if strings.HasPrefix(normCode, normQuery) {
			matches = append(matches, record)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		ei, ej := exact[matches[i].Code], exact[matches[j].Code]
		if ei != ej {
			return ei
		}
		si, sj := numericSuffix(matches[i].Code), numericSuffix(matches[j].Code)
		if si != sj {
			return si < sj
		}
		return matches[i].Code < matches[j].Code
	})
	return matches
}

// browseByPopularity returns a copy of the catalog sorted by review
// count descending, code ascending.
func browseByPopularity(records []*core.Record) []*core.Record {
	sorted := make([]*core.Record, len(records))
	copy(sorted, records)
	sortByPopularity(sorted)
	return sorted
}

func sortByPopularity(records []*core.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].ReviewCount != records[j].ReviewCount {
			return records[i].ReviewCount > records[j].ReviewCount
		}
		return records[i].Code < records[j].Code
	})
}

// rankByPosition converts an ordered record list into scored results
// with a linear position-based score, capped at maxHits.
func rankByPosition(records []*core.Record, maxHits int) []*core.SearchResult {
	if maxHits > 0 && len(records) > maxHits {
		records = records[:maxHits]
	}
	results := make([]*core.SearchResult, len(records))
	for i, record := range records {
		results[i] = &core.SearchResult{
			Record: record,
			Score:  float64(len(records)-i) / float64(len(records)),
		}
	}
	return results
}

// fuzzyCandidateLimit widens the candidate pool beyond the requested
// page so that re-ranking has something to work with.
func fuzzyCandidateLimit(maxHits int) int {
	if maxHits <= 0 {
		return 100
	}
	limit := maxHits * 3
	if limit < 25 {
		limit = 25
	}
	return limit
}
