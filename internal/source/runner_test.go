package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts: 3,
		Schedule:    []time.Duration{time.Millisecond},
	}
}

func transientErr(msg string) error {
	return resilience.NewTransientError(errors.New(msg), 503)
}

func ashburn() model.ResolvedLocation {
	return model.ResolvedLocation{City: "Ashburn", State: "Virginia", Latitude: 39.04, Longitude: -77.48}
}

func TestFetchWithRetry_Success(t *testing.T) {
	src := &mockSource{
		name: "mindbody",
		leads: []model.Lead{
			{Name: "Iron Works", Phone: "(571) 223-1615", Sources: []string{"mindbody"}},
			{Name: "Flow Yoga", Sources: []string{"mindbody"}},
		},
	}

	leads, outcome := FetchWithRetry(context.Background(), fastRetry(), src, ashburn(), Options{})
	require.Len(t, leads, 2)
	assert.Equal(t, "mindbody", outcome.Source)
	assert.Equal(t, model.SourceSucceeded, outcome.Status)
	assert.Equal(t, 2, outcome.Leads)
	assert.Equal(t, 1, outcome.WithPhone)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, outcome.Error)
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	src := &mockSource{
		name:  "crossfit",
		leads: []model.Lead{{Name: "CrossFit Loudoun", Sources: []string{"crossfit"}}},
		errs:  []error{transientErr("gateway timeout"), nil},
	}

	leads, outcome := FetchWithRetry(context.Background(), fastRetry(), src, ashburn(), Options{})
	require.Len(t, leads, 1)
	assert.Equal(t, model.SourceSucceeded, outcome.Status)
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, 2, src.calls)
}

func TestFetchWithRetry_ExhaustedAfterBudget(t *testing.T) {
	src := &mockSource{
		name: "classpass",
		errs: []error{transientErr("nav failed"), transientErr("nav failed"), transientErr("nav failed")},
	}

	leads, outcome := FetchWithRetry(context.Background(), fastRetry(), src, ashburn(), Options{})
	assert.Empty(t, leads, "an exhausted source contributes no leads")
	assert.Equal(t, model.SourceExhausted, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 0, outcome.Leads)
	assert.Contains(t, outcome.Error, "nav failed")
	assert.Equal(t, 3, src.calls)
}

func TestFetchWithRetry_FatalErrorExhaustsImmediately(t *testing.T) {
	src := &mockSource{
		name: "google_maps",
		errs: []error{errors.New("unexpected payload shape")},
	}

	leads, outcome := FetchWithRetry(context.Background(), fastRetry(), src, ashburn(), Options{})
	assert.Empty(t, leads)
	assert.Equal(t, model.SourceExhausted, outcome.Status)
	assert.Equal(t, 1, outcome.Attempts, "fatal errors must not be retried")
	assert.Equal(t, 1, src.calls)
}

func TestFetchWithRetry_EmptyResultIsSuccess(t *testing.T) {
	src := &mockSource{name: "hyrox"}

	leads, outcome := FetchWithRetry(context.Background(), fastRetry(), src, ashburn(), Options{})
	assert.Empty(t, leads)
	assert.Equal(t, model.SourceSucceeded, outcome.Status)
	assert.Equal(t, 0, outcome.Leads)
	assert.Empty(t, outcome.Error)
}

func TestFetchWithRetry_ContextCancelledStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &mockSource{
		name: "mindbody",
		errs: []error{transientErr("reset"), transientErr("reset"), transientErr("reset")},
	}

	cancel()
	_, outcome := FetchWithRetry(ctx, fastRetry(), src, ashburn(), Options{})
	assert.Equal(t, model.SourceExhausted, outcome.Status)
	assert.Equal(t, 1, src.calls, "no further attempts once the context is gone")
}
