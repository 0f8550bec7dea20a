// Package store records scrape runs so past acquisitions can be reviewed
// without scraping again. Recording is optional and advisory: a run that
// fails to persist is logged and the scrape result stands.
package store

import (
	"context"

	"github.com/gymscout/leads-cli/internal/model"
)

// RunFilter narrows ListRuns.
type RunFilter struct {
	// City matches case-insensitively when set.
	City string
	// Limit caps the result; zero means the default of 100.
	Limit int
}

// Store persists run history. SQLite is the default and needs no setup;
// Postgres serves teams sharing one history.
type Store interface {
	// SaveRun inserts the run row, assigning ID and CreatedAt when the
	// caller left them zero.
	SaveRun(ctx context.Context, run *model.Run) error

	// SaveOutcomes records the per-source outcomes of a saved run,
	// preserving selection order.
	SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error

	// GetRun loads one run with its outcomes.
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// ListRuns returns recent runs, newest first, with outcomes attached.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
