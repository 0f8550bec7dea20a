// Package googlemaps fetches fitness businesses from Google Maps through the
// SerpAPI search engine. No browser is involved and phone numbers arrive in
// the search response itself.
package googlemaps

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/fetcher"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/resilience"
	"github.com/gymscout/leads-cli/internal/source"
)

// resultsPerPage is fixed by the SerpAPI Google Maps engine.
const resultsPerPage = 20

// Config tunes the SerpAPI searches.
type Config struct {
	BaseURL string
	// APIKey is the SerpAPI key. When empty the source yields zero leads
	// and a warning instead of an error, so runs without a key still work.
	APIKey string
	// Queries are searched one by one around the resolved location. Broad
	// terms cover the fitness landscape without burning through the
	// 250 free-tier searches per month.
	Queries []string
	// MaxPages caps pagination per query; 20 results per page.
	MaxPages int
}

// DefaultConfig returns the production search settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://serpapi.com/search",
		Queries:  []string{"gym", "yoga studio", "martial arts", "fitness studio", "boxing gym"},
		MaxPages: 3,
	}
}

// Source queries the SerpAPI Google Maps engine.
type Source struct {
	fetcher fetcher.Fetcher
	cfg     Config
	retry   resilience.RetryConfig
}

var _ source.Source = (*Source)(nil)

// New creates the google_maps source.
func New(f fetcher.Fetcher, cfg Config) *Source {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if len(cfg.Queries) == 0 {
		cfg.Queries = def.Queries
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	return &Source{
		fetcher: f,
		cfg:     cfg,
		// SerpAPI rate limits are keyed to the account, not the client, so
		// the waits between request-level retries run much longer than the
		// transport-level backoff.
		retry: resilience.RetryConfig{
			MaxAttempts: 3,
			Schedule:    []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second},
		},
	}
}

// Name implements source.Source.
func (s *Source) Name() string { return "google_maps" }

type searchResponse struct {
	LocalResults []localResult `json:"local_results"`
	// Error carries SerpAPI's explanation when a search returns nothing,
	// such as an exhausted quota.
	Error string `json:"error"`
}

type localResult struct {
	Title   string `json:"title"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Type    string `json:"type"`
	PlaceID string `json:"place_id"`
	DataID  string `json:"data_id"`
}

// Fetch implements source.Source. Each query pages through map results until
// a page comes back empty or short; results are deduplicated across queries
// by place id.
func (s *Source) Fetch(ctx context.Context, loc model.ResolvedLocation, _ source.Options) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	if s.cfg.APIKey == "" {
		log.Warn("no SerpAPI key configured, skipping source")
		return nil, nil
	}

	ll := "@" + strconv.FormatFloat(loc.Latitude, 'f', -1, 64) +
		"," + strconv.FormatFloat(loc.Longitude, 'f', -1, 64) + ",12z"

	var results []localResult
	seen := make(map[string]struct{})

	for _, query := range s.cfg.Queries {
		for page := 0; page < s.cfg.MaxPages; page++ {
			resp, err := s.searchPage(ctx, query, ll, page)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				// A query that keeps failing is abandoned; the remaining
				// queries still run with whatever has been collected.
				log.Warn("abandoning query after repeated failures",
					zap.String("query", query),
					zap.Int("page", page+1),
					zap.Error(err),
				)
				break
			}

			if len(resp.LocalResults) == 0 {
				if resp.Error != "" {
					log.Debug("no results for query",
						zap.String("query", query),
						zap.String("detail", resp.Error),
					)
				}
				break
			}

			fresh := 0
			for _, r := range resp.LocalResults {
				id := r.PlaceID
				if id == "" {
					id = r.DataID
				}
				if id != "" {
					if _, dup := seen[id]; dup {
						continue
					}
					seen[id] = struct{}{}
				}
				results = append(results, r)
				fresh++
			}

			log.Debug("page fetched",
				zap.String("query", query),
				zap.Int("page", page+1),
				zap.Int("results", len(resp.LocalResults)),
				zap.Int("new", fresh),
			)

			if len(resp.LocalResults) < resultsPerPage {
				break
			}
		}
	}

	return s.parseResults(results, loc), nil
}

func (s *Source) searchPage(ctx context.Context, query, ll string, page int) (*searchResponse, error) {
	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("q", query)
	params.Set("ll", ll)
	params.Set("type", "search")
	params.Set("start", strconv.Itoa(page*resultsPerPage))
	params.Set("api_key", s.cfg.APIKey)

	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger(s.Name(), "search")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*searchResponse, error) {
		var resp searchResponse
		if err := s.fetcher.GetJSON(ctx, s.cfg.BaseURL+"?"+params.Encode(), &resp); err != nil {
			return nil, eris.Wrapf(err, "google_maps: query %q page %d", query, page+1)
		}
		return &resp, nil
	})
}

func (s *Source) parseResults(results []localResult, loc model.ResolvedLocation) []model.Lead {
	leads := make([]model.Lead, 0, len(results))
	for _, r := range results {
		name := strings.TrimSpace(r.Title)
		if name == "" {
			continue
		}

		address, city, state := splitAddress(r.Address, loc)

		category := r.Type
		if category == "" {
			category = "Fitness"
		}

		leads = append(leads, model.Lead{
			Name:     name,
			Address:  address,
			City:     city,
			State:    state,
			Phone:    r.Phone,
			Website:  r.Website,
			Category: category,
			Sources:  []string{s.Name()},
		})
	}
	return leads
}

// splitAddress breaks a "street, city, ST zip" map address into its parts,
// falling back to the resolved location for whatever is missing.
func splitAddress(raw string, loc model.ResolvedLocation) (address, city, state string) {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 3:
		address = strings.Join(parts[:len(parts)-2], ", ")
		city = parts[len(parts)-2]
		state = loc.State
		if fields := strings.Fields(parts[len(parts)-1]); len(fields) > 0 {
			state = fields[0]
		}
	case len(parts) == 2:
		address = parts[0]
		city = loc.City
		state = loc.State
	default:
		address = raw
		city = loc.City
		state = loc.State
	}
	return address, city, state
}
