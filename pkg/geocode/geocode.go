// Package geocode resolves free-text place names ("Ashburn, VA") into
// coordinates and canonical city/state fields via the OpenStreetMap
// Nominatim API, with a whole-file JSON cache keyed by the raw query string.
package geocode

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/model"
)

// Resolver turns a raw place query into a ResolvedLocation.
type Resolver interface {
	Resolve(ctx context.Context, query string) (model.ResolvedLocation, error)
}

// ErrNoResults is returned when Nominatim cannot map the query to a place.
var ErrNoResults = eris.New("geocode: no results for query")

// Option configures the resolver.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for Nominatim requests.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.nominatim.httpClient = hc
	}
}

// WithBaseURL overrides the Nominatim endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.nominatim.baseURL = u
	}
}

// WithUserAgent overrides the User-Agent sent to Nominatim. The public
// instance rejects clients without an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.nominatim.userAgent = ua
	}
}

// WithRateLimit overrides the request rate. The public Nominatim instance
// allows at most 1 req/s, which is the default.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.nominatim.setRateLimit(rps)
	}
}

// WithCacheFile enables the file-backed location cache at the given path.
// The file is loaded once at construction and rewritten wholesale on every
// new resolution.
func WithCacheFile(path string) Option {
	return func(c *Client) {
		c.cache = NewFileCache(path)
	}
}

// Client resolves locations through Nominatim, consulting the cache first.
type Client struct {
	nominatim *Nominatim
	cache     *FileCache
}

// NewClient creates a resolver with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{nominatim: newNominatim()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve maps the query to a location. Cached entries are returned without
// touching the network; new resolutions are cached before returning. A query
// Nominatim cannot place fails with ErrNoResults.
func (c *Client) Resolve(ctx context.Context, query string) (model.ResolvedLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.ResolvedLocation{}, eris.New("geocode: empty query")
	}

	if c.cache != nil {
		if loc, ok := c.cache.Get(query); ok {
			zap.L().Debug("geocode cache hit", zap.String("query", query))
			return loc, nil
		}
	}

	place, err := c.nominatim.Search(ctx, query)
	if err != nil {
		return model.ResolvedLocation{}, err
	}

	loc, err := buildLocation(query, place)
	if err != nil {
		return model.ResolvedLocation{}, err
	}

	if c.cache != nil {
		if err := c.cache.Put(query, loc); err != nil {
			zap.L().Warn("geocode cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	return loc, nil
}

// buildLocation derives the canonical fields and adapter encodings from a
// Nominatim place. City falls back through the settlement ladder and then
// the query's own comma prefix; state falls back to the query's comma suffix.
func buildLocation(query string, place nominatimPlace) (model.ResolvedLocation, error) {
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return model.ResolvedLocation{}, eris.Wrapf(err, "geocode: bad latitude %q", place.Lat)
	}
	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return model.ResolvedLocation{}, eris.Wrapf(err, "geocode: bad longitude %q", place.Lon)
	}

	parts := strings.Split(query, ",")

	city := firstOf(place.Address.City, place.Address.Town, place.Address.Village, place.Address.Hamlet)
	if city == "" {
		city = strings.TrimSpace(parts[0])
	}

	state := place.Address.State
	if state == "" && len(parts) > 1 {
		state = strings.TrimSpace(parts[1])
	}

	return model.ResolvedLocation{
		Query:      query,
		Latitude:   lat,
		Longitude:  lng,
		City:       city,
		State:      state,
		URLEncoded: url.QueryEscape(query),
		Slug:       Slugify(query),
	}, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the input and collapses every non-alphanumeric run to a
// single dash: "Ashburn, VA" -> "ashburn-va".
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
