package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Lead is one candidate facility record. Adapters create leads with a single
// provenance tag; the reconciler is the only component that mutates a lead
// afterwards, by filling empty fields and unioning provenance during a merge.
type Lead struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	City     string   `json:"city"`
	State    string   `json:"state"`
	Phone    string   `json:"phone"`
	Website  string   `json:"website"`
	Category string   `json:"category"`
	Sources  []string `json:"sources"`
}

// Provenance renders the lead's source tags as a sorted, comma-joined list.
func (l Lead) Provenance() string {
	tags := append([]string(nil), l.Sources...)
	sort.Strings(tags)
	return strings.Join(tags, ", ")
}

// UnionSources returns the sorted union of two provenance tag sets.
func UnionSources(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, tags := range [][]string{a, b} {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CountWithPhone reports how many leads carry a non-empty phone number.
func CountWithPhone(leads []Lead) int {
	n := 0
	for _, l := range leads {
		if l.Phone != "" {
			n++
		}
	}
	return n
}

var (
	trailingStoreCode   = regexp.MustCompile(`\s*#\w+$`)
	trailingFranchiseID = regexp.MustCompile(`,?\s*[A-Z]{2}-[A-Z]{2}-\d+$`)
	trailingRegionCode  = regexp.MustCompile(`\s+[A-Z]{2}\.[A-Z]{2}\.[A-Z]{2}$`)
	nonDigit            = regexp.MustCompile(`\D`)
)

// CleanDisplayName strips trailing location codes that booking platforms
// append to facility names:
//
//	"Orangetheory Fitness Ashburn #0196"    -> "Orangetheory Fitness Ashburn"
//	"Elements Massage Ashburn, EM-VA-20005" -> "Elements Massage Ashburn"
//	"SomeStudio DC.MD.VA"                   -> "SomeStudio"
func CleanDisplayName(name string) string {
	name = trailingStoreCode.ReplaceAllString(name, "")
	name = trailingFranchiseID.ReplaceAllString(name, "")
	name = trailingRegionCode.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// CanonicalPhone renders a US phone number as (XXX) XXX-XXXX. An 11-digit
// number with a leading 1 has the country code dropped. Anything that does
// not reduce to exactly 10 digits is returned unchanged, so unparseable
// values are never fabricated or lost. Applying it twice is a no-op.
func CanonicalPhone(raw string) string {
	if raw == "" {
		return ""
	}
	digits := nonDigit.ReplaceAllString(raw, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return raw
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}
