package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gymscout/leads-cli/internal/config"
	"github.com/gymscout/leads-cli/internal/model"
)

func TestFormatScrapeSummary(t *testing.T) {
	outcomes := []model.Outcome{
		{Source: "mindbody", Status: model.SourceSucceeded, Leads: 42, WithPhone: 30, Elapsed: 12 * time.Second},
		{Source: "crossfit", Status: model.SourceSucceeded, Leads: 8, WithPhone: 8, Elapsed: 3 * time.Second},
	}
	unique := []model.Lead{
		{Name: "Gold's Gym", Phone: "5712345678"},
		{Name: "Flow Yoga"},
	}

	var buf bytes.Buffer
	formatScrapeSummary(&buf, "Ashburn, Virginia", outcomes, unique, "output/ashburn-va-leads.csv")

	out := buf.String()
	assert.Contains(t, out, "=== Results: Ashburn, Virginia ===")
	assert.Contains(t, out, "mindbody       42 leads   (30 with phone)   12s")
	assert.Contains(t, out, "crossfit        8 leads   (8 with phone)   3s")
	assert.Contains(t, out, "Total           2 unique  (1 with phone)")
	assert.Contains(t, out, "Output: output/ashburn-va-leads.csv")
	assert.NotContains(t, out, "[exhausted]")
}

func TestFormatScrapeSummary_ExhaustedSourceVisible(t *testing.T) {
	outcomes := []model.Outcome{
		{Source: "mindbody", Status: model.SourceSucceeded, Leads: 10, WithPhone: 4, Elapsed: 5 * time.Second},
		{Source: "classpass", Status: model.SourceExhausted, Attempts: 3, Elapsed: 95 * time.Second, Error: "navigation timeout"},
	}
	unique := []model.Lead{{Name: "Gold's Gym"}}

	var buf bytes.Buffer
	formatScrapeSummary(&buf, "Denver, Colorado", outcomes, unique, "output/denver-co-leads.csv")

	out := buf.String()
	assert.Contains(t, out, "classpass       0 leads   (0 with phone)   95s   [exhausted]")
	assert.Contains(t, out, "Output: output/denver-co-leads.csv")
}

func TestFormatScrapeSummary_NoLeads(t *testing.T) {
	outcomes := []model.Outcome{
		{Source: "mindbody", Status: model.SourceSucceeded, Leads: 0, WithPhone: 0, Elapsed: 2 * time.Second},
	}

	var buf bytes.Buffer
	formatScrapeSummary(&buf, "Nowhere, Kansas", outcomes, nil, "")

	out := buf.String()
	assert.Contains(t, out, "Total           0 unique  (0 with phone)")
	assert.Contains(t, out, "No leads found from any source.")
	assert.NotContains(t, out, "Output:")
}

func TestBuildRegistry_OrderAndNames(t *testing.T) {
	cfg = &config.Config{}

	reg := buildRegistry(&config.SourcesConfig{})
	assert.Equal(t, []string{"mindbody", "crossfit", "google_maps", "hyrox", "classpass"}, reg.AllNames())
}
