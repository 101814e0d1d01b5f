package coursehound

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coursehound/coursehound/ai/mock"
	"github.com/coursehound/coursehound/core"
	"github.com/coursehound/coursehound/filter"
	"github.com/coursehound/coursehound/replicate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticSource serves a fixed record set, with no changes since any
// timestamp.
type staticSource struct {
	records []*core.Record
}

func (s *staticSource) Count(ctx context.Context) (int, error) {
	return len(s.records), nil
}

func (s *staticSource) Page(ctx context.Context, page, pageSize int) ([]*core.Record, error) {
	start := page * pageSize
	if start >= len(s.records) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(s.records) {
		end = len(s.records)
	}
	return s.records[start:end], nil
}

func (s *staticSource) Since(ctx context.Context, ts time.Time, limit int) ([]*core.Record, error) {
	return nil, nil
}

func testCatalog() []*core.Record {
	return []*core.Record{
		{
			Code:        "COMP SCI 220",
			Name:        "Programming I",
			Credits:     core.Credits(4),
			ReviewCount: 50,
		},
		{
			Code:          "COMP SCI 300",
			Name:          "Programming II",
			Credits:       core.Credits(3),
			Prerequisites: "COMP SCI 220",
			ReviewCount:   10,
		},
		{
			Code:        "MATH 221",
			Name:        "Calculus and Analytic Geometry I",
			Credits:     core.CreditRange{Min: 5, Max: 5},
			ReviewCount: 120,
			// Matches the mock embedder's output for the query "calculus".
			Vector: core.HashVector("calculus", 256),
		},
	}
}

func newTestReplica(t *testing.T) *Replica {
	t.Helper()
	replica, err := NewReplica("", &staticSource{records: testCatalog()},
		WithInMemory(),
		WithEmbedder(mock.NewMockEmbedder()),
		WithCoordinatorOptions(replicate.WithPageDelay(0)))
	require.NoError(t, err)
	t.Cleanup(func() { replica.Close() })
	return replica
}

func TestReplica_EnsureLoadsCatalog(t *testing.T) {
	replica := newTestReplica(t)
	ctx := context.Background()

	require.NoError(t, replica.Ensure(ctx))

	md, count, err := replica.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, md.ExpectedTotal)
	assert.False(t, md.LastRefresh.IsZero())
}

func TestReplica_SearchPrefixScenario(t *testing.T) {
	replica := newTestReplica(t)

	page, err := replica.Search(context.Background(), "COMP SCI", nil, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "COMP SCI 220", page.Results[0].Record.Code)
	assert.Equal(t, "COMP SCI 300", page.Results[1].Record.Code)
}

func TestReplica_SearchBrowseDefault(t *testing.T) {
	replica := newTestReplica(t)

	page, err := replica.Search(context.Background(), "", nil, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	assert.Equal(t, "MATH 221", page.Results[0].Record.Code)
}

func TestReplica_SearchWithFilters(t *testing.T) {
	replica := newTestReplica(t)

	page, err := replica.Search(context.Background(), "COMP SCI",
		[]filter.Selection{{Key: "no-prereqs"}}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "COMP SCI 220", page.Results[0].Record.Code)

	page, err = replica.Search(context.Background(), "COMP SCI",
		[]filter.Selection{{Key: "credits", Range: &core.CreditRange{Min: 1, Max: 2}}}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestReplica_SearchPagination(t *testing.T) {
	records := make([]*core.Record, 30)
	for i := range records {
		records[i] = &core.Record{
			Code:        fmt.Sprintf("COMP SCI %d", 100+i),
			Name:        fmt.Sprintf("Course %d", i),
			Credits:     core.Credits(3),
			ReviewCount: i,
		}
	}

	replica, err := NewReplica("", &staticSource{records: records},
		WithInMemory(),
		WithEmbedder(mock.NewMockEmbedder()),
		WithCoordinatorOptions(replicate.WithPageDelay(0)))
	require.NoError(t, err)
	t.Cleanup(func() { replica.Close() })

	ctx := context.Background()
	first, err := replica.Search(ctx, "COMP SCI", nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 30, first.Total)
	assert.Len(t, first.Results, 10)
	assert.Equal(t, "COMP SCI 100", first.Results[0].Record.Code)

	last, err := replica.Search(ctx, "COMP SCI", nil, 2, 10)
	require.NoError(t, err)
	assert.Len(t, last.Results, 10)
	assert.Equal(t, "COMP SCI 120", last.Results[0].Record.Code)

	beyond, err := replica.Search(ctx, "COMP SCI", nil, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Results)
	assert.Equal(t, 30, beyond.Total)
}

func TestReplica_SearchHybrid(t *testing.T) {
	replica := newTestReplica(t)

	page, err := replica.SearchHybrid(context.Background(), "calculus", nil, 0, 10)
	require.NoError(t, err)
	require.NotZero(t, page.Total)
	assert.Equal(t, "MATH 221", page.Results[0].Record.Code)
}
