package model

// ResolvedLocation holds the geocoded coordinates and canonical place fields
// for one raw location query, plus the derived encodings adapters need.
// Immutable once produced; cached keyed by the exact query string, so Query
// itself is not persisted inside the cache record.
type ResolvedLocation struct {
	Query      string  `json:"-"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	URLEncoded string  `json:"url_encoded"`
	Slug       string  `json:"slug"`
}

// Label renders the location for logs and summaries, e.g. "Ashburn, VA".
func (r ResolvedLocation) Label() string {
	if r.City == "" {
		return r.Query
	}
	if r.State == "" {
		return r.City
	}
	return r.City + ", " + r.State
}
