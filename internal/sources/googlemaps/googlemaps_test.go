package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymscout/leads-cli/internal/fetcher"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/resilience"
	"github.com/gymscout/leads-cli/internal/source"
)

func testFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts: 2,
		Schedule:    []time.Duration{time.Millisecond},
	}
}

func ashburn() model.ResolvedLocation {
	return model.ResolvedLocation{
		City:      "Ashburn",
		State:     "Virginia",
		Latitude:  39.0437567,
		Longitude: -77.4874416,
	}
}

func result(id, title, address string) map[string]any {
	return map[string]any{
		"place_id": id,
		"title":    title,
		"address":  address,
		"phone":    "(571) 223-1615",
		"website":  "https://example.com/" + id,
		"type":     "Gym",
	}
}

func writeResults(w http.ResponseWriter, results []map[string]any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"local_results": results})
}

func TestFetch_PaginatesAndDedupes(t *testing.T) {
	pagesSeen := map[string][]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "google_maps", q.Get("engine"))
		assert.Equal(t, "@39.0437567,-77.4874416,12z", q.Get("ll"))
		assert.Equal(t, "search", q.Get("type"))
		assert.Equal(t, "test-key", q.Get("api_key"))

		query := q.Get("q")
		pagesSeen[query] = append(pagesSeen[query], q.Get("start"))

		if query != "gym" {
			writeResults(w, nil)
			return
		}

		switch q.Get("start") {
		case "0":
			// A full page keeps the query paginating.
			page := make([]map[string]any, 0, resultsPerPage)
			for i := 0; i < resultsPerPage; i++ {
				page = append(page, result(
					fmt.Sprintf("p%d", i),
					fmt.Sprintf("Gym %d", i),
					"44610 Guilford Dr, Ashburn, VA 20147",
				))
			}
			writeResults(w, page)
		case "20":
			writeResults(w, []map[string]any{
				result("p0", "Gym 0", "44610 Guilford Dr, Ashburn, VA 20147"),
				{"data_id": "d1", "title": "Data Only Gym", "address": "1 Loop Rd, Ashburn, VA 20147"},
				{"title": "No ID Gym", "address": ""},
			})
		default:
			t.Errorf("unexpected page start %q", q.Get("start"))
		}
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{BaseURL: srv.URL, APIKey: "test-key"})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)

	// 20 from the full page, then the short page adds two: the repeated
	// place id is dropped, the id-less result is kept.
	require.Len(t, leads, 22)
	assert.Equal(t, []string{"0", "20"}, pagesSeen["gym"], "short page ends the query")
	assert.Equal(t, []string{"0"}, pagesSeen["yoga studio"], "empty page ends the query")
	assert.Len(t, pagesSeen, 5, "every default query runs")

	first := leads[0]
	assert.Equal(t, "Gym 0", first.Name)
	assert.Equal(t, "44610 Guilford Dr", first.Address)
	assert.Equal(t, "Ashburn", first.City)
	assert.Equal(t, "VA", first.State)
	assert.Equal(t, "(571) 223-1615", first.Phone)
	assert.Equal(t, "https://example.com/p0", first.Website)
	assert.Equal(t, "Gym", first.Category)
	assert.Equal(t, []string{"google_maps"}, first.Sources)
}

func TestFetch_NoAPIKeyYieldsEmptySuccess(t *testing.T) {
	s := New(testFetcher(), Config{BaseURL: "http://127.0.0.1:1"})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestFetch_AbandonsFailingQueryAndContinues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "gym" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeResults(w, []map[string]any{
			result("y1", "Flow Yoga", "2 Calm St, Ashburn, VA 20147"),
		})
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Queries: []string{"gym", "yoga studio"},
	})
	s.retry = fastRetry()

	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err, "a failing query must not fail the source")
	require.Len(t, leads, 1)
	assert.Equal(t, "Flow Yoga", leads[0].Name)
}

func TestFetch_SkipsNamelessResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResults(w, []map[string]any{
			{"place_id": "p1", "title": "   "},
			result("p2", "Real Gym", "3 Iron Way, Ashburn, VA 20147"),
		})
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{BaseURL: srv.URL, APIKey: "test-key", Queries: []string{"gym"}})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Real Gym", leads[0].Name)
}

func TestFetch_ContextCancelledPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResults(w, nil)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(testFetcher(), Config{BaseURL: srv.URL, APIKey: "test-key", Queries: []string{"gym"}})
	_, err := s.Fetch(ctx, ashburn(), source.Options{})
	require.Error(t, err)
}

func TestSplitAddress(t *testing.T) {
	loc := ashburn()

	tests := []struct {
		name    string
		raw     string
		address string
		city    string
		state   string
	}{
		{
			name:    "street city state zip",
			raw:     "123 Main St, Charleston, SC 29401",
			address: "123 Main St",
			city:    "Charleston",
			state:   "SC",
		},
		{
			name:    "multi part street stays joined",
			raw:     "123 Main St, Suite 4, Charleston, SC 29401",
			address: "123 Main St, Suite 4",
			city:    "Charleston",
			state:   "SC",
		},
		{
			name:    "missing state falls back to resolved location",
			raw:     "123 Main St, Charleston,  ",
			address: "123 Main St",
			city:    "Charleston",
			state:   "Virginia",
		},
		{
			name:    "two parts keep only the street",
			raw:     "123 Main St, Charleston",
			address: "123 Main St",
			city:    "Ashburn",
			state:   "Virginia",
		},
		{
			name:    "unsplittable address passes through",
			raw:     "Courthouse Square",
			address: "Courthouse Square",
			city:    "Ashburn",
			state:   "Virginia",
		},
		{
			name:    "empty address",
			raw:     "",
			address: "",
			city:    "Ashburn",
			state:   "Virginia",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			address, city, state := splitAddress(tt.raw, loc)
			assert.Equal(t, tt.address, address)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.state, state)
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := New(testFetcher(), Config{APIKey: "k"})
	assert.Equal(t, "https://serpapi.com/search", s.cfg.BaseURL)
	assert.Len(t, s.cfg.Queries, 5)
	assert.Equal(t, 3, s.cfg.MaxPages)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second}, s.retry.Schedule)
	assert.Equal(t, "google_maps", s.Name())
}
