package report

import (
	"time"

	"ergolens/api/internal/store"
)

// FacetAll is the sentinel company/site selection meaning "no constraint".
const FacetAll = "all"

// Facets are the user-chosen narrowing constraints applied on top of the
// access-scoped set. Zero time bounds are inactive.
type Facets struct {
	CompanyID string
	SiteID    string
	From      time.Time
	To        time.Time
}

// ApplyFacets filters submissions by the given facets. Filters compose
// conjunctively and the output is always a subset of the input. A
// submission without a resolvable timestamp is excluded whenever either
// date bound is active.
func ApplyFacets(submissions []store.Submission, facets Facets) []store.Submission {
	out := make([]store.Submission, 0, len(submissions))
	for _, sub := range submissions {
		if facets.matches(sub) {
			out = append(out, sub)
		}
	}
	return out
}

func (f Facets) matches(sub store.Submission) bool {
	if constrained(f.CompanyID) && sub.CompanyID != f.CompanyID {
		return false
	}
	if constrained(f.SiteID) && sub.SiteID != f.SiteID {
		return false
	}

	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if !sub.HasTimestamp {
		return false
	}
	if !f.From.IsZero() && sub.SubmittedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && sub.SubmittedAt.After(endOfDay(f.To)) {
		return false
	}
	return true
}

func constrained(id string) bool {
	return id != "" && id != FacetAll
}

// endOfDay extends a date bound to 23:59:59.999999999 of the same day,
// regardless of the time-of-day component supplied by the caller.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
