package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/courses/count", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 2}`)
	})
	mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		fmt.Fprint(w, `{"courses": [
			{"code": "COMP SCI 220", "name": "Programming I", "creditsMin": 4, "creditsMax": 4},
			{"code": "MATH 221", "name": "Calculus I", "creditsMin": 5, "creditsMax": 5}
		]}`)
	})
	mux.HandleFunc("/courses/changed", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("since"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"courses": [
			{"code": "MATH 221", "name": "Calculus I (revised)", "creditsMin": 5, "creditsMax": 5}
		]}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestNewHTTPSource_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPSource("  ")
	assert.ErrorIs(t, err, ErrEmptyBaseURL)
}

func TestHTTPSource_Count(t *testing.T) {
	server := newCatalogServer(t)
	source, err := NewHTTPSource(server.URL)
	require.NoError(t, err)

	count, err := source.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHTTPSource_Page(t *testing.T) {
	server := newCatalogServer(t)
	source, err := NewHTTPSource(server.URL)
	require.NoError(t, err)

	records, err := source.Page(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "COMP SCI 220", records[0].Code)
	assert.Equal(t, 5, records[1].Credits.Min)
}

func TestHTTPSource_Since(t *testing.T) {
	server := newCatalogServer(t)
	source, err := NewHTTPSource(server.URL)
	require.NoError(t, err)

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records, err := source.Since(context.Background(), since, 500)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Calculus I (revised)", records[0].Name)
}

func TestHTTPSource_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	source, err := NewHTTPSource(server.URL)
	require.NoError(t, err)

	_, err = source.Count(context.Background())
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestHTTPSource_ContextCancellation(t *testing.T) {
	server := newCatalogServer(t)
	source, err := NewHTTPSource(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.Count(ctx)
	assert.Error(t, err)
}
