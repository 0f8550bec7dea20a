package export

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/pkg/salesforce"
)

// sfLeadSource tags inserted records so reps can tell scraped leads apart
// from inbound ones.
const sfLeadSource = "GymScout"

// SalesforceSink inserts leads as Lead sObjects through the collections API.
type SalesforceSink struct {
	client salesforce.Client
}

// NewSalesforceSink creates a sink backed by the given Salesforce client.
func NewSalesforceSink(client salesforce.Client) *SalesforceSink {
	return &SalesforceSink{client: client}
}

// Push inserts every lead and returns the number Salesforce accepted.
// Per-record rejections are logged and skipped rather than failing the push.
func (s *SalesforceSink) Push(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	records := make([]map[string]any, 0, len(leads))
	for _, l := range leads {
		records = append(records, sfLeadRecord(l))
	}

	results, err := s.client.InsertCollection(ctx, "Lead", records)
	if err != nil {
		return 0, eris.Wrap(err, "salesforce sink: insert leads")
	}

	inserted := 0
	for i, r := range results {
		if r.Success {
			inserted++
			continue
		}
		zap.L().Warn("salesforce rejected lead",
			zap.String("name", leads[i].Name),
			zap.Strings("errors", r.Errors))
	}
	return inserted, nil
}

// sfLeadRecord maps a lead to Lead sObject fields. The Lead object requires
// a contact surname, which scraping never yields, so the company name fills
// LastName as well.
func sfLeadRecord(l model.Lead) map[string]any {
	name := model.CleanDisplayName(l.Name)
	rec := map[string]any{
		"Company":    name,
		"LastName":   name,
		"LeadSource": sfLeadSource,
	}

	for field, value := range map[string]string{
		"Street":      l.Address,
		"City":        l.City,
		"State":       l.State,
		"Phone":       model.CanonicalPhone(l.Phone),
		"Website":     l.Website,
		"Description": l.Provenance(),
	} {
		if value != "" {
			rec[field] = value
		}
	}

	return rec
}
