package model

import "time"

// Run is one recorded scrape: where it looked, what it found, and how each
// source fared. Runs are written to the optional run store so past
// acquisitions can be reviewed without re-scraping.
type Run struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Sources   []string  `json:"sources"`
	Leads     int       `json:"leads"`
	WithPhone int       `json:"with_phone"`
	Output    string    `json:"output,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Outcomes  []Outcome `json:"outcomes,omitempty"`
}
