// Package source defines the contract between the scrape engine and the
// individual lead directories, the registry the CLI selects them from, and
// the retry shell that isolates one directory's failures from the rest of
// a run.
package source

import (
	"context"

	"github.com/gymscout/leads-cli/internal/model"
)

// Options tunes a single fetch.
type Options struct {
	// Headless runs browser-backed sources without a visible window.
	Headless bool

	// Enrich allows follow-up detail-page visits that backfill phone
	// numbers and websites. Disabling it trades completeness for speed.
	Enrich bool
}

// Source is one lead directory. Implementations own their network and
// browser lifecycle, release those resources on every exit path, and signal
// retryable failures with resilience.TransientError. An empty result is a
// valid success, not an error.
type Source interface {
	// Name returns the unique registry identifier (e.g., "mindbody").
	Name() string

	// Fetch collects every lead the directory lists near the location.
	// Every returned lead carries this source's name in its provenance.
	Fetch(ctx context.Context, loc model.ResolvedLocation, opts Options) ([]model.Lead, error)
}
