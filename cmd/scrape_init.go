package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/config"
	"github.com/gymscout/leads-cli/internal/engine"
	"github.com/gymscout/leads-cli/internal/export"
	"github.com/gymscout/leads-cli/internal/fetcher"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/reconcile"
	"github.com/gymscout/leads-cli/internal/source"
	"github.com/gymscout/leads-cli/internal/sources/classpass"
	"github.com/gymscout/leads-cli/internal/sources/crossfit"
	"github.com/gymscout/leads-cli/internal/sources/googlemaps"
	"github.com/gymscout/leads-cli/internal/sources/hyrox"
	"github.com/gymscout/leads-cli/internal/sources/mindbody"
	"github.com/gymscout/leads-cli/internal/store"
	"github.com/gymscout/leads-cli/pkg/geocode"
)

// scrapeEnv bundles the long-lived pieces a scrape needs: the location
// resolver, the source registry, the engine over it, and the optional
// run store.
type scrapeEnv struct {
	Geo      *geocode.Client
	Registry *source.Registry
	Engine   *engine.Engine
	Store    store.Store // nil when run recording is disabled
}

// Close releases resources held by the scrape environment.
func (se *scrapeEnv) Close() {
	if se.Store != nil {
		_ = se.Store.Close()
	}
}

// initScrapeEnv builds the registry from the per-source tuning file, wires
// the geocoder, and opens the run store when recording is requested.
// Callers should defer env.Close().
func initScrapeEnv(ctx context.Context, recordRuns bool) (*scrapeEnv, error) {
	tuning, err := config.LoadSources(cfg.Scrape.SourcesFile)
	if err != nil {
		return nil, err
	}

	geo := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithCacheFile(cfg.Geocode.CachePath),
	)

	reg := buildRegistry(tuning)
	env := &scrapeEnv{Geo: geo, Registry: reg, Engine: engine.New(reg)}

	if recordRuns {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
	}

	return env, nil
}

// buildRegistry registers every source adapter, applying tuning overrides
// over the adapter defaults. Registration order is the default run order.
func buildRegistry(tuning *config.SourcesConfig) *source.Registry {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})

	reg := source.NewRegistry()
	reg.Register(mindbody.New(f, mindbody.Config{
		APIURL:   tuning.MindBody.APIURL,
		PageSize: tuning.MindBody.PageSize,
		Radius:   tuning.MindBody.RadiusMeters,
	}))
	reg.Register(crossfit.New(f, crossfit.Config{
		MapURL:        tuning.CrossFit.MapURL,
		RadiusDeg:     tuning.CrossFit.RadiusDeg,
		EnrichWorkers: tuning.CrossFit.EnrichWorkers,
	}))
	reg.Register(googlemaps.New(f, googlemaps.Config{
		BaseURL:  tuning.GoogleMaps.BaseURL,
		APIKey:   cfg.SerpAPI.Key,
		Queries:  tuning.GoogleMaps.Queries,
		MaxPages: tuning.GoogleMaps.MaxPages,
	}))
	reg.Register(hyrox.New(f, hyrox.Config{
		AjaxURL:      tuning.Hyrox.AjaxURL,
		MaxResults:   tuning.Hyrox.MaxResults,
		SearchRadius: tuning.Hyrox.SearchRadius,
		RadiusDeg:    tuning.Hyrox.RadiusDeg,
	}))
	reg.Register(classpass.New(classpass.Config{
		BaseURL:     tuning.ClassPass.BaseURL,
		Scrolls:     tuning.ClassPass.Scrolls,
		PageTimeout: time.Duration(tuning.ClassPass.PageTimeoutSecs) * time.Second,
	}))

	return reg
}

// scrapeRequest carries one acquisition request through the shared flow.
type scrapeRequest struct {
	ID         string // pre-assigned run ID; empty lets the store assign one
	Query      string
	Sources    []string
	Sequential bool
	Headless   bool
	Enrich     bool
	Format     string // "csv" or "xlsx"
	Output     string // empty derives output/<slug>-leads.<ext>
}

// runScrape executes one full acquisition against an already-resolved
// location: fan out, reconcile, export to disk, and record when a store is
// attached. Store failures are logged, never returned; the scrape result
// stands on its own.
func (se *scrapeEnv) runScrape(ctx context.Context, loc model.ResolvedLocation, req scrapeRequest) (*model.Run, []model.Lead, error) {
	res, err := se.Engine.Run(ctx, loc, engine.RunOpts{
		Sources:    req.Sources,
		Sequential: req.Sequential,
		Headless:   req.Headless,
		Enrich:     req.Enrich,
	})
	if err != nil {
		return nil, nil, err
	}

	unique := reconcile.New(reconcile.DefaultThreshold).Reconcile(res.Leads)

	outPath := req.Output
	if outPath == "" {
		outPath = filepath.Join(cfg.Scrape.OutputDir, loc.Slug+"-leads."+req.Format)
	}

	if len(unique) > 0 {
		switch req.Format {
		case "xlsx":
			err = export.WriteXLSX(unique, outPath)
		default:
			err = export.WriteCSV(unique, outPath)
		}
		if err != nil {
			return nil, nil, err
		}
	} else {
		// Nothing to write; the summary reports the empty result.
		outPath = ""
	}

	selected := req.Sources
	if len(selected) == 0 {
		selected = se.Registry.AllNames()
	}

	run := &model.Run{
		ID:        req.ID,
		Query:     req.Query,
		City:      loc.City,
		State:     loc.State,
		Sources:   selected,
		Leads:     len(unique),
		WithPhone: model.CountWithPhone(unique),
		Output:    outPath,
		Outcomes:  res.Outcomes,
	}

	if se.Store != nil {
		if err := se.Store.SaveRun(ctx, run); err != nil {
			zap.L().Warn("run not recorded", zap.Error(err))
		} else if err := se.Store.SaveOutcomes(ctx, run.ID, run.Outcomes); err != nil {
			zap.L().Warn("outcomes not recorded", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	return run, unique, nil
}
