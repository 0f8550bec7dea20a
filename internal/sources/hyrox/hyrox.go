// Package hyrox finds HYROX partner gyms through the WP Store Locator
// endpoint that backs the partner-gym finder page.
package hyrox

import (
	"context"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/fetcher"
	"github.com/gymscout/leads-cli/internal/geo"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/source"
)

// Config tunes the store locator search.
type Config struct {
	AjaxURL string
	// MaxResults and SearchRadius (miles) are passed to the locator.
	MaxResults   int
	SearchRadius int
	// RadiusDeg is the half-width of the post-filter box in degrees; the
	// locator itself is generous about what counts as "near".
	RadiusDeg float64
}

// DefaultConfig returns the production locator settings.
func DefaultConfig() Config {
	return Config{
		AjaxURL:      "https://gyms.elbnetz.cloud/wp-admin/admin-ajax.php",
		MaxResults:   100,
		SearchRadius: 50,
		RadiusDeg:    0.75, // ~50 miles
	}
}

// Source queries the locator and box-filters the results.
type Source struct {
	fetcher fetcher.Fetcher
	cfg     Config
}

var _ source.Source = (*Source)(nil)

// New creates the hyrox source.
func New(f fetcher.Fetcher, cfg Config) *Source {
	def := DefaultConfig()
	if cfg.AjaxURL == "" {
		cfg.AjaxURL = def.AjaxURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.SearchRadius <= 0 {
		cfg.SearchRadius = def.SearchRadius
	}
	if cfg.RadiusDeg <= 0 {
		cfg.RadiusDeg = def.RadiusDeg
	}
	return &Source{fetcher: f, cfg: cfg}
}

// Name implements source.Source.
func (s *Source) Name() string { return "hyrox" }

// wpslStore matches the WP Store Locator response. Coordinates arrive as
// strings because WordPress stores them as post meta.
type wpslStore struct {
	Store    string `json:"store"`
	Address  string `json:"address"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Phone    string `json:"phone"`
	URL      string `json:"url"`
	Lat      string `json:"lat"`
	Lng      string `json:"lng"`
}

// Fetch implements source.Source.
func (s *Source) Fetch(ctx context.Context, loc model.ResolvedLocation, _ source.Options) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	params := url.Values{}
	params.Set("action", "store_search")
	params.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	params.Set("max_results", strconv.Itoa(s.cfg.MaxResults))
	params.Set("search_radius", strconv.Itoa(s.cfg.SearchRadius))
	params.Set("autoload", "1")

	var stores []wpslStore
	if err := s.fetcher.GetJSON(ctx, s.cfg.AjaxURL+"?"+params.Encode(), &stores); err != nil {
		return nil, eris.Wrap(err, "hyrox: store search")
	}
	log.Debug("locator returned stores", zap.Int("count", len(stores)))

	box := geo.BoxAround(loc.Latitude, loc.Longitude, s.cfg.RadiusDeg)
	leads := make([]model.Lead, 0, len(stores))
	for _, st := range stores {
		lat, errLat := strconv.ParseFloat(st.Lat, 64)
		lng, errLng := strconv.ParseFloat(st.Lng, 64)
		if errLat != nil || errLng != nil || !geo.InBox(box, lat, lng) {
			continue
		}

		name := strings.TrimSpace(html.UnescapeString(st.Store))
		if name == "" {
			continue
		}

		var addressParts []string
		if a := strings.TrimSpace(st.Address); a != "" {
			addressParts = append(addressParts, html.UnescapeString(a))
		}
		if a2 := strings.TrimSpace(st.Address2); a2 != "" {
			addressParts = append(addressParts, html.UnescapeString(a2))
		}

		city := strings.TrimSpace(html.UnescapeString(st.City))
		if city == "" {
			city = loc.City
		}
		state := strings.TrimSpace(html.UnescapeString(st.State))
		if state == "" {
			state = loc.State
		}

		leads = append(leads, model.Lead{
			Name:     name,
			Address:  strings.Join(addressParts, ", "),
			City:     city,
			State:    state,
			Phone:    strings.TrimSpace(st.Phone),
			Website:  strings.TrimSpace(st.URL),
			Category: "HYROX Partner",
			Sources:  []string{s.Name()},
		})
	}

	log.Debug("stores within box", zap.Int("count", len(leads)))
	return leads, nil
}
