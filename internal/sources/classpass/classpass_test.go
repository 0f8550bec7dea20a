package classpass

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymscout/leads-cli/internal/browser"
	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/source"
)

const directoryHTML = `<html><body>
	<div data-testid="VenueItem">
		<h2><a data-qa="VenueItem.name" href="/studios/solidcore-ashburn">[solidcore] Ashburn</a></h2>
		<p data-qa="VenueItem.location">One Loudoun</p>
		<p data-qa="VenueItem.activities">Pilates</p>
	</div>
	<div data-testid="VenueItem">
		<h2><a href="/studios/flow-yoga">Flow Yoga</a></h2>
		<p data-qa="VenueItem.location">Broadlands</p>
	</div>
	<div data-testid="VenueItem">
		<h2><a data-qa="VenueItem.name" href="/studios/solidcore-ashburn">[solidcore] Ashburn</a></h2>
	</div>
	<div data-testid="VenueItem">
		<p data-qa="VenueItem.location">No name here</p>
	</div>
</body></html>`

const detailHTML = `<html><body>
	<a href="https://www.instagram.com/solidcore" target="_blank">Instagram</a>
	<a href="/studios/other" target="_blank">Relative</a>
	<a href="https://www.solidcore.co/va/ashburn" target="_blank">Visit website</a>
	<a href="tel:+1-571-555-0123">Call</a>
</body></html>`

type stubRenderer struct {
	mu     sync.Mutex
	pages  map[string]string
	visits []string
	closed bool
}

func (r *stubRenderer) HTML(_ context.Context, pageURL string, _ ...browser.PageOption) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, pageURL)
	html, ok := r.pages[pageURL]
	if !ok {
		return "", errors.New("render failed")
	}
	return html, nil
}

func (r *stubRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func newTestSource(stub *stubRenderer) *Source {
	s := New(Config{})
	s.newSession = func(_ context.Context, _ browser.Options) renderer { return stub }
	return s
}

func ashburn() model.ResolvedLocation {
	return model.ResolvedLocation{
		City:  "Ashburn",
		State: "Virginia",
		Slug:  "ashburn-va",
	}
}

func TestFetch_ParsesVenueCards(t *testing.T) {
	stub := &stubRenderer{pages: map[string]string{
		"https://classpass.com/classes/ashburn--va": directoryHTML,
	}}

	s := newTestSource(stub)
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.NoError(t, err)

	// The duplicate and the nameless card are dropped.
	require.Len(t, leads, 2)

	first := leads[0]
	assert.Equal(t, "[solidcore] Ashburn", first.Name)
	assert.Equal(t, "One Loudoun", first.Address)
	assert.Equal(t, "Ashburn", first.City)
	assert.Equal(t, "Virginia", first.State)
	assert.Equal(t, "https://classpass.com/studios/solidcore-ashburn", first.Website)
	assert.Equal(t, "Pilates", first.Category)
	assert.Empty(t, first.Phone)
	assert.Equal(t, []string{"classpass"}, first.Sources)

	second := leads[1]
	assert.Equal(t, "Flow Yoga", second.Name, "h2 a backs up the name selector")
	assert.Equal(t, "Fitness", second.Category, "missing activities default")

	assert.Equal(t, []string{"https://classpass.com/classes/ashburn--va"}, stub.visits)
	assert.True(t, stub.closed)
}

func TestFetch_EnrichVisitsDetailPages(t *testing.T) {
	stub := &stubRenderer{pages: map[string]string{
		"https://classpass.com/classes/ashburn--va":       directoryHTML,
		"https://classpass.com/studios/solidcore-ashburn": detailHTML,
	}}

	s := newTestSource(stub)
	leads, err := s.Fetch(context.Background(), ashburn(), source.Options{Enrich: true})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "+1-571-555-0123", leads[0].Phone)
	assert.Equal(t, "https://www.solidcore.co/va/ashburn", leads[0].Website,
		"the studio's own site replaces the listing URL")

	// Flow Yoga's detail page fails to render; the lead stays as parsed.
	assert.Empty(t, leads[1].Phone)
	assert.Equal(t, "https://classpass.com/studios/flow-yoga", leads[1].Website)

	assert.Len(t, stub.visits, 3, "directory plus one detail page per lead")
}

func TestFetch_RenderFailurePropagates(t *testing.T) {
	stub := &stubRenderer{}

	s := newTestSource(stub)
	_, err := s.Fetch(context.Background(), ashburn(), source.Options{})
	require.Error(t, err)
	assert.True(t, stub.closed)
}

func TestParseCards_ComponentFallback(t *testing.T) {
	html := `<html><body>
		<div data-component="VenueItem">
			<h2><a href="/studios/iron-works">Iron Works</a></h2>
		</div>
	</body></html>`

	s := New(Config{})
	leads, err := s.parseCards(html, ashburn())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Iron Works", leads[0].Name)
}

func TestCitySlug(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"bozeman-mt", "bozeman--mt"},
		{"fort-wayne-in", "fort-wayne--in"},
		{"ashburn-va", "ashburn--va"},
		{"chicago", "chicago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, citySlug(tt.slug), tt.slug)
	}
}

func TestStudioWebsite(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "skips social links",
			html: detailHTML,
			want: "https://www.solidcore.co/va/ashburn",
		},
		{
			name: "social only",
			html: `<a href="https://facebook.com/x" target="_blank">f</a>`,
			want: "",
		},
		{
			name: "ignores links without target blank",
			html: `<a href="https://www.solidcore.co">site</a>`,
			want: "",
		},
		{
			name: "ignores relative hrefs",
			html: `<a href="/about" target="_blank">about</a>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, studioWebsite(tt.html))
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, DefaultConfig(), s.cfg)
	assert.Equal(t, "classpass", s.Name())
}
