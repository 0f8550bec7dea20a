package model

import "time"

// SourceStatus is the terminal state of one retry-wrapped adapter invocation.
type SourceStatus string

const (
	SourceSucceeded SourceStatus = "succeeded"
	SourceExhausted SourceStatus = "exhausted"
)

// Outcome reports how a single source fared during a run. One Outcome is
// produced per selected source even when the source was exhausted, so partial
// failure is always visible in the summary.
type Outcome struct {
	Source    string        `json:"source"`
	Status    SourceStatus  `json:"status"`
	Leads     int           `json:"leads"`
	WithPhone int           `json:"with_phone"`
	Attempts  int           `json:"attempts"`
	Elapsed   time.Duration `json:"elapsed"`
	Error     string        `json:"error,omitempty"`
}
