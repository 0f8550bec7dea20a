package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent    = "gymscout-leads-cli/1.0 (+https://github.com/gymscout/leads-cli)"
)

// HTTPClient is the slice of http.Client the Nominatim client needs,
// extracted so tests can substitute a mock transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Nominatim queries the OpenStreetMap Nominatim search API.
type Nominatim struct {
	baseURL    string
	httpClient HTTPClient
	userAgent  string
	limiter    *rate.Limiter
}

func newNominatim() *Nominatim {
	return &Nominatim{
		baseURL:    defaultNominatimURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(1, 1), // public instance policy: 1 req/s
	}
}

func (n *Nominatim) setRateLimit(rps float64) {
	if rps <= 0 {
		n.limiter = nil
		return
	}
	n.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// nominatimPlace is the subset of a Nominatim search result we consume.
type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Hamlet  string `json:"hamlet"`
	State   string `json:"state"`
}

// Search returns the best match for the query, or ErrNoResults when
// Nominatim has none.
func (n *Nominatim) Search(ctx context.Context, query string) (nominatimPlace, error) {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return nominatimPlace{}, eris.Wrap(err, "geocode: rate limit")
		}
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nominatimPlace{}, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nominatimPlace{}, eris.Wrapf(err, "geocode: query %q", query)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nominatimPlace{}, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nominatimPlace{}, eris.Wrap(err, "geocode: read response")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nominatimPlace{}, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return nominatimPlace{}, eris.Wrapf(ErrNoResults, "query %q", query)
	}
	return places[0], nil
}
