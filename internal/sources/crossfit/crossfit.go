// Package crossfit fetches CrossFit affiliates from the public affiliate map
// GeoJSON feed and optionally enriches them with phone numbers scraped from
// the affiliate detail pages.
package crossfit

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gymscout/leads-cli/internal/browser"
	"github.com/gymscout/leads-cli/internal/fetcher"
	"github.com/gymscout/leads-cli/internal/geo"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/source"
)

// Config tunes the affiliate map fetch and enrichment.
type Config struct {
	MapURL string
	// RadiusDeg bounds affiliates to a box around the target, in degrees.
	// Half a degree is roughly thirty miles.
	RadiusDeg float64
	// EnrichWorkers caps concurrent detail-page visits.
	EnrichWorkers int
}

// DefaultConfig returns the production affiliate map settings.
func DefaultConfig() Config {
	return Config{
		MapURL:        "https://map.crossfit.com/getAllAffiliates.php",
		RadiusDeg:     0.5,
		EnrichWorkers: 5,
	}
}

// renderer is the slice of browser.Session that enrichment needs.
type renderer interface {
	HTML(ctx context.Context, pageURL string, opts ...browser.PageOption) (string, error)
	Close()
}

// Source filters the worldwide affiliate feed down to the target area.
type Source struct {
	fetcher    fetcher.Fetcher
	cfg        Config
	newSession func(ctx context.Context, opts browser.Options) renderer
}

var _ source.Source = (*Source)(nil)

// New creates the crossfit source.
func New(f fetcher.Fetcher, cfg Config) *Source {
	def := DefaultConfig()
	if cfg.MapURL == "" {
		cfg.MapURL = def.MapURL
	}
	if cfg.RadiusDeg <= 0 {
		cfg.RadiusDeg = def.RadiusDeg
	}
	if cfg.EnrichWorkers <= 0 {
		cfg.EnrichWorkers = def.EnrichWorkers
	}
	return &Source{
		fetcher: f,
		cfg:     cfg,
		newSession: func(ctx context.Context, opts browser.Options) renderer {
			return browser.NewSession(ctx, opts)
		},
	}
}

// Name implements source.Source.
func (s *Source) Name() string { return "crossfit" }

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties struct {
		Name    string `json:"name"`
		Slug    string `json:"slug"`
		Address string `json:"address"`
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
	} `json:"properties"`
	Geometry struct {
		// GeoJSON order: longitude first.
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Fetch implements source.Source. The feed lists every affiliate worldwide,
// so the work is filtering, not paging.
func (s *Source) Fetch(ctx context.Context, loc model.ResolvedLocation, opts source.Options) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	var fc featureCollection
	if err := s.fetcher.GetJSON(ctx, s.cfg.MapURL, &fc); err != nil {
		return nil, eris.Wrap(err, "crossfit: affiliate map")
	}
	log.Debug("affiliate map fetched", zap.Int("worldwide", len(fc.Features)))

	box := geo.BoxAround(loc.Latitude, loc.Longitude, s.cfg.RadiusDeg)

	var leads []model.Lead
	for _, f := range fc.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		lng, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
		if !geo.InBox(box, lat, lng) {
			continue
		}

		props := f.Properties
		name := strings.TrimSpace(props.Name)
		if name == "" {
			continue
		}

		address := props.Address
		if address == "" {
			address = props.Street
		}
		city := props.City
		if city == "" {
			city = loc.City
		}
		state := props.State
		if state == "" {
			state = loc.State
		}

		var website string
		if props.Slug != "" {
			website = "https://www.crossfit.com" + props.Slug
		}

		leads = append(leads, model.Lead{
			Name:     name,
			Address:  address,
			City:     city,
			State:    state,
			Website:  website,
			Category: "CrossFit",
			Sources:  []string{s.Name()},
		})
	}
	log.Debug("affiliates within radius",
		zap.Int("count", len(leads)),
		zap.Float64("radius_deg", s.cfg.RadiusDeg),
	)

	if opts.Enrich {
		s.enrichPhones(ctx, leads, opts.Headless)
	}
	return leads, nil
}

// enrichPhones visits affiliate detail pages in parallel and fills in phone
// numbers. Enrichment is best effort; a page that fails to render leaves its
// lead untouched.
func (s *Source) enrichPhones(ctx context.Context, leads []model.Lead, headless bool) {
	var targets []int
	for i := range leads {
		if leads[i].Website != "" {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return
	}

	log := zap.L().With(zap.String("source", s.Name()))
	log.Info("enriching phone numbers",
		zap.Int("leads", len(targets)),
		zap.Int("workers", s.cfg.EnrichWorkers),
	)

	// Detail pages are React rendered; the plain fetcher would only see the
	// application shell.
	session := s.newSession(ctx, browser.Options{
		Headless: headless,
		Timeout:  20 * time.Second,
	})
	defer session.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EnrichWorkers)
	for _, i := range targets {
		g.Go(func() error {
			html, err := session.HTML(gctx, leads[i].Website)
			if err != nil {
				log.Debug("detail page failed",
					zap.String("name", leads[i].Name),
					zap.Error(err),
				)
				return nil
			}
			if phone := browser.ExtractPhone(html); phone != "" {
				leads[i].Phone = phone
				log.Debug("phone found",
					zap.String("name", leads[i].Name),
					zap.String("phone", phone),
				)
			}
			return nil
		})
	}
	// Goroutines never return errors; Wait just joins them.
	_ = g.Wait()
}
