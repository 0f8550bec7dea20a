// Package classpass scrapes studio listings from the ClassPass city
// directory. The directory is a React app, so listings are read from a
// browser-rendered DOM rather than an API.
package classpass

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/browser"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/source"
)

// consentSelector is the TrustArc cookie banner button. It blocks clicks
// when present and reappears on detail pages.
const consentSelector = "#truste-consent-button"

// socialDomains are outbound links that are never the studio's own site.
var socialDomains = []string{
	"google.com", "youtube.com", "facebook.com", "instagram.com",
	"twitter.com", "yelp.com", "classpass.com", "theknot.com",
	"linkedin.com", "tiktok.com",
}

// Config tunes the directory scrape.
type Config struct {
	BaseURL string
	// Scrolls is how many times the directory is scrolled to trigger lazy
	// loading of further venue cards.
	Scrolls int
	// PageTimeout bounds a single page render. The directory is heavy.
	PageTimeout time.Duration
}

// DefaultConfig returns the production directory settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://classpass.com",
		Scrolls:     4,
		PageTimeout: 90 * time.Second,
	}
}

// renderer is the slice of browser.Session this source needs.
type renderer interface {
	HTML(ctx context.Context, pageURL string, opts ...browser.PageOption) (string, error)
	Close()
}

// Source renders the city directory and parses venue cards from the DOM.
type Source struct {
	cfg        Config
	newSession func(ctx context.Context, opts browser.Options) renderer
}

var _ source.Source = (*Source)(nil)

// New creates the classpass source.
func New(cfg Config) *Source {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Scrolls <= 0 {
		cfg.Scrolls = def.Scrolls
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = def.PageTimeout
	}
	return &Source{
		cfg: cfg,
		newSession: func(ctx context.Context, opts browser.Options) renderer {
			return browser.NewSession(ctx, opts)
		},
	}
}

// Name implements source.Source.
func (s *Source) Name() string { return "classpass" }

// Fetch implements source.Source. It renders the city directory, scrolls to
// load venue cards, and parses them from the DOM snapshot. With Enrich on,
// each studio detail page is visited for a phone number and the studio's
// own website.
func (s *Source) Fetch(ctx context.Context, loc model.ResolvedLocation, opts source.Options) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	pageURL := s.cfg.BaseURL + "/classes/" + citySlug(loc.Slug)
	log.Debug("rendering venue directory", zap.String("url", pageURL))

	session := s.newSession(ctx, browser.Options{
		Headless: opts.Headless,
		Timeout:  s.cfg.PageTimeout,
	})
	defer session.Close()

	html, err := session.HTML(ctx, pageURL,
		browser.WithConsentClick(consentSelector),
		browser.WithWaitVisible(`[data-testid="VenueItem"]`),
		browser.WithScrolls(s.cfg.Scrolls, 2*time.Second),
		browser.WithSettle(3*time.Second),
	)
	if err != nil {
		return nil, eris.Wrap(err, "classpass: venue directory")
	}

	leads, err := s.parseCards(html, loc)
	if err != nil {
		return nil, err
	}
	log.Debug("venue cards parsed", zap.Int("count", len(leads)))

	if opts.Enrich {
		s.enrich(ctx, session, leads)
	}
	return leads, nil
}

// citySlug converts a geocoder slug like "fort-wayne-in" into the ClassPass
// form "fort-wayne--in" with a double dash before the state.
func citySlug(slug string) string {
	i := strings.LastIndex(slug, "-")
	if i < 0 {
		return slug
	}
	return slug[:i] + "--" + slug[i+1:]
}

func (s *Source) parseCards(html string, loc model.ResolvedLocation) ([]model.Lead, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "classpass: parse directory")
	}

	cards := doc.Find(`[data-testid="VenueItem"]`)
	if cards.Length() == 0 {
		cards = doc.Find(`[data-component="VenueItem"]`)
	}

	seen := make(map[string]struct{})
	var leads []model.Lead
	cards.Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(`[data-qa="VenueItem.name"]`).First().Text())
		if name == "" {
			name = strings.TrimSpace(card.Find("h2 a").First().Text())
		}
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}

		// The card's location line is a street or neighborhood; the city
		// and state always come from the resolved location.
		address := strings.TrimSpace(card.Find(`[data-qa="VenueItem.location"]`).First().Text())

		category := strings.TrimSpace(card.Find(`[data-qa="VenueItem.activities"]`).First().Text())
		if category == "" {
			category = "Fitness"
		}

		var website string
		if href, ok := card.Find(`a[href*="/studios/"]`).First().Attr("href"); ok {
			website = href
			if strings.HasPrefix(href, "/") {
				website = s.cfg.BaseURL + href
			}
		}

		leads = append(leads, model.Lead{
			Name:     name,
			Address:  address,
			City:     loc.City,
			State:    loc.State,
			Website:  website,
			Category: category,
			Sources:  []string{s.Name()},
		})
	})
	return leads, nil
}

// enrich visits studio detail pages one by one, filling in the phone number
// and swapping the ClassPass listing URL for the studio's own website when
// one is linked. Failed visits leave the lead as parsed.
func (s *Source) enrich(ctx context.Context, session renderer, leads []model.Lead) {
	var targets []int
	for i := range leads {
		if leads[i].Phone == "" && strings.Contains(leads[i].Website, "classpass.com") {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return
	}

	log := zap.L().With(zap.String("source", s.Name()))
	log.Info("enriching leads from detail pages", zap.Int("leads", len(targets)))

	for _, i := range targets {
		if ctx.Err() != nil {
			return
		}

		html, err := session.HTML(ctx, leads[i].Website,
			browser.WithConsentClick(consentSelector),
			browser.WithSettle(2*time.Second),
		)
		if err != nil {
			log.Debug("detail page failed",
				zap.String("name", leads[i].Name),
				zap.Error(err),
			)
			continue
		}

		leads[i].Phone = browser.ExtractPhone(html)
		if site := studioWebsite(html); site != "" {
			leads[i].Website = site
		}
	}
}

// studioWebsite returns the first outbound link that is not a map, social,
// or review site. Detail pages open the studio's own site in a new tab.
func studioWebsite(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var website string
	doc.Find(`a[target="_blank"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return true
		}
		for _, d := range socialDomains {
			if strings.Contains(href, d) {
				return true
			}
		}
		website = href
		return false
	})
	return website
}
