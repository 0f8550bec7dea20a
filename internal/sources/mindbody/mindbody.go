// Package mindbody fetches fitness locations from the MindBody marketplace
// gateway API, paging by distance from the resolved location.
package mindbody

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/fetcher"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/source"
)

// Some businesses self-register under Fitness even when they're not gyms;
// this second filter catches what the API-level categoryTypes can't.
var nonFitnessCategories = map[string]struct{}{
	"massage":         {},
	"acupuncture":     {},
	"face treatments": {},
	"med spa":         {},
	"nails":           {},
	"hair":            {},
	"waxing":          {},
	"tanning":         {},
	"tattoo":          {},
}

// Config tunes the gateway search.
type Config struct {
	APIURL   string
	PageSize int
	// Radius is the search radius in meters.
	Radius float64
}

// DefaultConfig returns the production gateway settings.
func DefaultConfig() Config {
	return Config{
		APIURL:   "https://prod-mkt-gateway.mindbody.io/v1/search/locations",
		PageSize: 50,
		Radius:   40233.6, // ~25 miles
	}
}

// Source pages through the gateway's location search.
type Source struct {
	fetcher fetcher.Fetcher
	cfg     Config
}

var _ source.Source = (*Source)(nil)

// New creates the mindbody source.
func New(f fetcher.Fetcher, cfg Config) *Source {
	def := DefaultConfig()
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.Radius <= 0 {
		cfg.Radius = def.Radius
	}
	return &Source{fetcher: f, cfg: cfg}
}

// Name implements source.Source.
func (s *Source) Name() string { return "mindbody" }

type searchRequest struct {
	Sort   string       `json:"sort"`
	Page   searchPage   `json:"page"`
	Filter searchFilter `json:"filter"`
}

type searchPage struct {
	Size   int `json:"size"`
	Number int `json:"number"`
}

type searchFilter struct {
	Radius        float64  `json:"radius"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	CategoryTypes []string `json:"categoryTypes"`
}

type searchResponse struct {
	Data []locationItem `json:"data"`
	Meta struct {
		Found int `json:"found"`
	} `json:"meta"`
}

type locationItem struct {
	ID         string `json:"id"`
	Attributes struct {
		Name       string   `json:"name"`
		Slug       string   `json:"slug"`
		Address    string   `json:"address"`
		City       string   `json:"city"`
		State      string   `json:"state"`
		Phone      string   `json:"phone"`
		Categories []string `json:"categories"`
	} `json:"attributes"`
}

// Fetch implements source.Source. It walks result pages sorted by distance
// until a page comes back empty or the reported total is reached.
func (s *Source) Fetch(ctx context.Context, loc model.ResolvedLocation, _ source.Options) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	var items []locationItem
	found := -1
	for page := 1; ; page++ {
		req := searchRequest{
			Sort: "distance",
			Page: searchPage{Size: s.cfg.PageSize, Number: page},
			Filter: searchFilter{
				Radius:        s.cfg.Radius,
				Latitude:      loc.Latitude,
				Longitude:     loc.Longitude,
				CategoryTypes: []string{"Fitness"},
			},
		}

		var resp searchResponse
		if err := s.fetcher.PostJSON(ctx, s.cfg.APIURL, req, &resp); err != nil {
			return nil, eris.Wrapf(err, "mindbody: search page %d", page)
		}

		if found < 0 {
			found = resp.Meta.Found
			log.Debug("gateway reports total locations", zap.Int("found", found))
		}

		items = append(items, resp.Data...)
		log.Debug("page fetched",
			zap.Int("page", page),
			zap.Int("items", len(resp.Data)),
			zap.Int("collected", len(items)),
		)

		if len(resp.Data) == 0 || len(items) >= found {
			break
		}
	}

	return s.parseItems(items, loc), nil
}

func (s *Source) parseItems(items []locationItem, loc model.ResolvedLocation) []model.Lead {
	leads := make([]model.Lead, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		attrs := item.Attributes
		name := strings.TrimSpace(attrs.Name)
		if name == "" {
			continue
		}

		category := "Fitness"
		if len(attrs.Categories) > 0 {
			category = attrs.Categories[0]
		}
		if _, skip := nonFitnessCategories[strings.ToLower(category)]; skip {
			continue
		}

		var website string
		if attrs.Slug != "" {
			website = "https://www.mindbodyonline.com/explore/locations/" + attrs.Slug
		}

		city := attrs.City
		if city == "" {
			city = loc.City
		}
		state := attrs.State
		if state == "" {
			state = loc.State
		}

		leads = append(leads, model.Lead{
			Name:     name,
			Address:  attrs.Address,
			City:     city,
			State:    state,
			Phone:    attrs.Phone,
			Website:  website,
			Category: category,
			Sources:  []string{s.Name()},
		})
	}
	return leads
}
