package report

import (
	"reflect"
	"testing"
	"time"

	"ergolens/api/internal/store"
)

func datedSub(id string, at time.Time) store.Submission {
	return store.Submission{ID: id, SubmittedAt: at, HasTimestamp: true}
}

func TestApplyFacetsAllSentinelIsNoop(t *testing.T) {
	// Scenario D.
	pool := []store.Submission{
		{ID: "s1", CompanyID: "acme", SiteID: "milano"},
		{ID: "s2"},
	}
	got := ApplyFacets(pool, Facets{CompanyID: FacetAll, SiteID: FacetAll})
	if !reflect.DeepEqual(ids(got), ids(pool)) {
		t.Errorf("got %v, want input unchanged", ids(got))
	}
}

func TestApplyFacetsExactMatch(t *testing.T) {
	pool := []store.Submission{
		{ID: "s1", CompanyID: "acme", SiteID: "milano"},
		{ID: "s2", CompanyID: "acme", SiteID: "torino"},
		{ID: "s3", CompanyID: "beta", SiteID: "milano"},
	}
	got := ApplyFacets(pool, Facets{CompanyID: "acme", SiteID: "milano"})
	if !reflect.DeepEqual(ids(got), []string{"s1"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestApplyFacetsDateBounds(t *testing.T) {
	// Scenario B: From is inclusive at the supplied instant; To extends
	// to end of day.
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	pool := []store.Submission{
		datedSub("in", time.Date(2024, 1, 10, 0, 0, 1, 0, time.UTC)),
		datedSub("out", time.Date(2024, 1, 9, 23, 59, 59, 0, time.UTC)),
	}
	got := ApplyFacets(pool, Facets{From: from})
	if !reflect.DeepEqual(ids(got), []string{"in"}) {
		t.Errorf("got %v", ids(got))
	}

	to := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) // time-of-day ignored
	pool = []store.Submission{
		datedSub("late", time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)),
		datedSub("next", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)),
	}
	got = ApplyFacets(pool, Facets{To: to})
	if !reflect.DeepEqual(ids(got), []string{"late"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestApplyFacetsUnresolvedTimestampExcludedByDateBounds(t *testing.T) {
	pool := []store.Submission{
		{ID: "nodate"},
		datedSub("dated", time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)),
	}

	got := ApplyFacets(pool, Facets{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	if !reflect.DeepEqual(ids(got), []string{"dated"}) {
		t.Errorf("with From bound: got %v", ids(got))
	}

	// Without bounds the record passes.
	got = ApplyFacets(pool, Facets{})
	if !reflect.DeepEqual(ids(got), []string{"nodate", "dated"}) {
		t.Errorf("without bounds: got %v", ids(got))
	}
}

func TestApplyFacetsMonotonicNarrowing(t *testing.T) {
	pool := []store.Submission{
		{ID: "s1", CompanyID: "acme"},
		datedSub("s2", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		{ID: "s3", SiteID: "milano"},
	}
	facetSets := []Facets{
		{},
		{CompanyID: "acme"},
		{SiteID: "milano"},
		{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{CompanyID: "acme", To: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	inPool := map[string]bool{}
	for _, s := range pool {
		inPool[s.ID] = true
	}
	for _, f := range facetSets {
		for _, s := range ApplyFacets(pool, f) {
			if !inPool[s.ID] {
				t.Errorf("facets %+v produced %s not in input", f, s.ID)
			}
		}
	}
}
