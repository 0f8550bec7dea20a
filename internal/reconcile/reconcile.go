// Package reconcile merges near-duplicate facility leads gathered from
// different sources. Two leads merge when their location keys (lowercased
// city plus abbreviation-normalized state) are equal and their normalized
// names are exact, similar beyond a threshold, or prefix-contained.
//
// The bucket scan is quadratic in the number of input leads. That is fine
// for the tens to low hundreds a single city search produces; anything
// larger needs a blocking index first.
package reconcile

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/gymscout/leads-cli/internal/model"
)

// DefaultThreshold is the minimum name-similarity ratio for two leads with
// equal location keys to be considered the same facility.
const DefaultThreshold = 0.85

// minContainmentLen guards the prefix-containment rule against short names
// like "f45" swallowing everything that starts with the same letters.
const minContainmentLen = 4

// Reconciler deduplicates leads across sources.
type Reconciler struct {
	threshold float64
}

// New returns a Reconciler with the given similarity threshold; values
// outside (0, 1] fall back to DefaultThreshold.
func New(threshold float64) *Reconciler {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Reconciler{threshold: threshold}
}

type locationKey struct {
	city  string
	state string
}

func keyFor(l model.Lead) locationKey {
	return locationKey{
		city:  strings.ToLower(strings.TrimSpace(l.City)),
		state: NormalizeState(l.State),
	}
}

// Reconcile merges the input leads into a set of unique buckets, preserving
// first-seen order. Each incoming lead is absorbed by the first existing
// bucket whose location key and normalized name match; otherwise it starts
// a new bucket. Input leads are never mutated.
func (r *Reconciler) Reconcile(leads []model.Lead) []model.Lead {
	if len(leads) == 0 {
		return nil
	}

	unique := make([]model.Lead, 0, len(leads))
	keys := make([]locationKey, 0, len(leads))
	names := make([]string, 0, len(leads))

	for _, lead := range leads {
		normName := NormalizeName(lead.Name)
		key := keyFor(lead)

		matched := false
		for i := range unique {
			if keys[i] != key {
				continue
			}
			if r.nameMatch(normName, names[i]) {
				unique[i] = merge(unique[i], lead)
				// The bucket's name only changes when it was empty and the
				// incoming lead filled it, but the cached form must follow.
				names[i] = NormalizeName(unique[i].Name)
				matched = true
				break
			}
		}

		if !matched {
			fresh := lead
			fresh.Sources = append([]string(nil), lead.Sources...)
			unique = append(unique, fresh)
			keys = append(keys, key)
			names = append(names, normName)
		}
	}

	return unique
}

// nameMatch applies the three-way matching rule to two normalized names:
// exact equality, similarity ratio at or above the threshold, or the shorter
// name (at least minContainmentLen characters) prefixing the longer.
func (r *Reconciler) nameMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if levenshtein.Similarity(a, b, nil) >= r.threshold {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= minContainmentLen && strings.HasPrefix(long, short)
}

// merge folds the incoming lead into the existing bucket: the bucket keeps
// every non-empty field it already has, fills gaps from the incoming lead,
// and unions provenance.
func merge(existing, incoming model.Lead) model.Lead {
	return model.Lead{
		Name:     firstNonEmpty(existing.Name, incoming.Name),
		Address:  firstNonEmpty(existing.Address, incoming.Address),
		City:     firstNonEmpty(existing.City, incoming.City),
		State:    firstNonEmpty(existing.State, incoming.State),
		Phone:    firstNonEmpty(existing.Phone, incoming.Phone),
		Website:  firstNonEmpty(existing.Website, incoming.Website),
		Category: firstNonEmpty(existing.Category, incoming.Category),
		Sources:  model.UnionSources(existing.Sources, incoming.Sources),
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
