package report

import (
	"reflect"
	"testing"

	"ergolens/api/internal/store"
)

func scopedPool() []store.Submission {
	return []store.Submission{
		{ID: "s1", CompanyID: "acme", SiteID: "milano"},
		{ID: "s2", CompanyID: "acme", SiteID: "torino"},
		{ID: "s3", CompanyID: "other", SiteID: "milano"},
		{ID: "s4"},
	}
}

func ids(subs []store.Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}
	return out
}

func TestScopeUnrestrictedPassesEverything(t *testing.T) {
	pool := scopedPool()
	got := Scope(pool, store.AccessProfile{Unrestricted: true})
	if !reflect.DeepEqual(ids(got), []string{"s1", "s2", "s3", "s4"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestScopeCompanyAllowList(t *testing.T) {
	// Scenario C: companyId outside the allow-list is excluded regardless
	// of siteId; a submission with no companyId is excluded too.
	got := Scope(scopedPool(), store.AccessProfile{CompanyIDs: []string{"acme"}})
	if !reflect.DeepEqual(ids(got), []string{"s1", "s2"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestScopeSiteAllowListIsIndependent(t *testing.T) {
	profile := store.AccessProfile{
		CompanyIDs: []string{"acme"},
		SiteIDs:    []string{"milano"},
	}
	got := Scope(scopedPool(), profile)
	if !reflect.DeepEqual(ids(got), []string{"s1"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestScopeSiteOnlyAllowList(t *testing.T) {
	// A site allow-list with no company allow-list still requires site
	// membership; a missing siteId means exclusion.
	got := Scope(scopedPool(), store.AccessProfile{SiteIDs: []string{"milano"}})
	if !reflect.DeepEqual(ids(got), []string{"s1", "s3"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestScopePermissiveByAbsence(t *testing.T) {
	// No explicit grants means no tenant restriction, not "sees nothing".
	pool := scopedPool()
	got := Scope(pool, store.AccessProfile{})
	if !reflect.DeepEqual(ids(got), ids(pool)) {
		t.Errorf("got %v, want full pool", ids(got))
	}
}

func TestScopeIdempotent(t *testing.T) {
	profiles := []store.AccessProfile{
		{Unrestricted: true},
		{},
		{CompanyIDs: []string{"acme"}},
		{CompanyIDs: []string{"acme"}, SiteIDs: []string{"torino"}},
		{SiteIDs: []string{"milano"}},
	}
	for _, profile := range profiles {
		once := Scope(scopedPool(), profile)
		twice := Scope(once, profile)
		if !reflect.DeepEqual(ids(once), ids(twice)) {
			t.Errorf("profile %+v not idempotent: %v vs %v", profile, ids(once), ids(twice))
		}
	}
}

func TestScopeDoesNotMutateInput(t *testing.T) {
	pool := scopedPool()
	before := ids(pool)
	_ = Scope(pool, store.AccessProfile{CompanyIDs: []string{"acme"}})
	if !reflect.DeepEqual(ids(pool), before) {
		t.Error("input slice mutated")
	}
}
