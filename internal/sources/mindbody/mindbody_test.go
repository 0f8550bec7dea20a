package mindbody

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymscout/leads-cli/internal/fetcher"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/resilience"
	"github.com/gymscout/leads-cli/internal/source"
)

const pageOne = `{
	"data": [
		{"id": "loc-1", "attributes": {
			"name": "Gold's Gym Ashburn #0196", "slug": "golds-gym-ashburn",
			"address": "44610 Guilford Dr", "city": "Ashburn", "state": "VA",
			"phone": "5712231615", "categories": ["Gym"]}},
		{"id": "loc-2", "attributes": {
			"name": "Massage Envy", "slug": "massage-envy",
			"city": "Ashburn", "state": "VA", "categories": ["Massage"]}}
	],
	"meta": {"found": 3}
}`

const pageTwo = `{
	"data": [
		{"id": "loc-3", "attributes": {"name": "Pure Barre", "categories": []}}
	],
	"meta": {"found": 3}
}`

func testFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
}

func ashburn() model.ResolvedLocation {
	return model.ResolvedLocation{
		City:      "Ashburn",
		State:     "Virginia",
		Latitude:  39.0437567,
		Longitude: -77.4874416,
	}
}

func TestFetch_PagesUntilReportedTotal(t *testing.T) {
	var pagesSeen []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "distance", req.Sort)
		assert.Equal(t, 50, req.Page.Size)
		assert.InDelta(t, 40233.6, req.Filter.Radius, 0.1)
		assert.InDelta(t, 39.0437567, req.Filter.Latitude, 1e-9)
		assert.Equal(t, []string{"Fitness"}, req.Filter.CategoryTypes)

		pagesSeen = append(pagesSeen, req.Page.Number)
		w.Header().Set("Content-Type", "application/json")
		if req.Page.Number == 1 {
			_, _ = w.Write([]byte(pageOne))
			return
		}
		_, _ = w.Write([]byte(pageTwo))
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{APIURL: srv.URL})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, pagesSeen)
	require.Len(t, leads, 2, "massage listing is filtered out")

	gold := leads[0]
	assert.Equal(t, "Gold's Gym Ashburn #0196", gold.Name)
	assert.Equal(t, "44610 Guilford Dr", gold.Address)
	assert.Equal(t, "Ashburn", gold.City)
	assert.Equal(t, "VA", gold.State)
	assert.Equal(t, "5712231615", gold.Phone)
	assert.Equal(t, "https://www.mindbodyonline.com/explore/locations/golds-gym-ashburn", gold.Website)
	assert.Equal(t, "Gym", gold.Category)
	assert.Equal(t, []string{"mindbody"}, gold.Sources)
}

func TestFetch_FallbacksForSparseItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [{"id": "loc-9", "attributes": {"name": "Pure Barre"}}],
			"meta": {"found": 1}
		}`))
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{APIURL: srv.URL})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	assert.Equal(t, "Ashburn", leads[0].City, "missing city falls back to the resolved location")
	assert.Equal(t, "Virginia", leads[0].State)
	assert.Equal(t, "Fitness", leads[0].Category, "no categories falls back to Fitness")
	assert.Empty(t, leads[0].Website, "no slug means no marketplace URL")
}

func TestFetch_DeduplicatesByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": "loc-1", "attributes": {"name": "Gold's Gym", "categories": ["Gym"]}},
				{"id": "loc-1", "attributes": {"name": "Gold's Gym", "categories": ["Gym"]}}
			],
			"meta": {"found": 2}
		}`))
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{APIURL: srv.URL})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestFetch_SkipsNamelessItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [{"id": "loc-1", "attributes": {"name": "   "}}],
			"meta": {"found": 1}
		}`))
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{APIURL: srv.URL})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestFetch_EmptyResultIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [], "meta": {"found": 0}}`))
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{APIURL: srv.URL})
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestFetch_TransientFailureStaysTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := New(testFetcher(), Config{APIURL: srv.URL})
	_, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err), "5xx from the gateway must surface as retryable")
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := New(testFetcher(), Config{})
	assert.Equal(t, DefaultConfig().APIURL, s.cfg.APIURL)
	assert.Equal(t, 50, s.cfg.PageSize)
	assert.InDelta(t, 40233.6, s.cfg.Radius, 0.1)
	assert.Equal(t, "mindbody", s.Name())
}
