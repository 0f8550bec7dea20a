// Package export writes reconciled leads to their destinations: CSV and XLSX
// files on disk, and optionally a Notion database or Salesforce for teams
// that track outreach there. Every sink applies the same display-name and
// phone normalization so a lead looks identical wherever it lands.
package export

import (
	"github.com/gymscout/leads-cli/internal/model"
)

// leadColumns defines the ordered output columns shared by the CSV and XLSX sinks.
var leadColumns = []string{
	"name",
	"address",
	"city",
	"state",
	"phone",
	"website",
	"category",
	"provenance",
}

// leadRow renders one lead in leadColumns order with normalized name and phone.
func leadRow(l model.Lead) []string {
	return []string{
		model.CleanDisplayName(l.Name),
		l.Address,
		l.City,
		l.State,
		model.CanonicalPhone(l.Phone),
		l.Website,
		l.Category,
		l.Provenance(),
	}
}
