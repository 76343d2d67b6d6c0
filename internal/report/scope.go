// Package report is the response aggregation and comparative reporting
// engine: pure functions over an already-fetched submission snapshot.
// Every stage treats its input as read-only and returns a fresh slice, so
// re-running a pipeline with the same arguments is idempotent.
package report

import "ergolens/api/internal/store"

// Scope reduces a submission pool to those a principal may see. An
// unrestricted profile passes everything through. Otherwise a non-empty
// company allow-list requires company membership, and a non-empty site
// allow-list independently requires site membership; a submission missing
// the relevant id fails the check.
//
// A profile with neither allow-list passes the pool unchanged. That
// permissive-by-absence rule mirrors the product's access policy: no
// explicit grants means no tenant restriction, not "sees nothing".
func Scope(submissions []store.Submission, profile store.AccessProfile) []store.Submission {
	if profile.Unrestricted {
		out := make([]store.Submission, len(submissions))
		copy(out, submissions)
		return out
	}

	companies := toSet(profile.CompanyIDs)
	sites := toSet(profile.SiteIDs)

	out := make([]store.Submission, 0, len(submissions))
	for _, sub := range submissions {
		if len(companies) > 0 {
			if sub.CompanyID == "" || !companies[sub.CompanyID] {
				continue
			}
		}
		if len(sites) > 0 {
			if sub.SiteID == "" || !sites[sub.SiteID] {
				continue
			}
		}
		out = append(out, sub)
	}
	return out
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
