package search

import (
	"strings"
	"testing"
)

func TestGrantFilterExcludesUntaggedRecords(t *testing.T) {
	expr := grantFilter("companyId", []string{"co-1", "co-2"})
	if expr != `(companyId = "co-1" OR companyId = "co-2")` {
		t.Fatalf("grantFilter = %q", expr)
	}
	if strings.Contains(expr, `= ""`) {
		t.Fatal("grant filter must not pass records with a blank tenant id")
	}

	if expr := grantFilter("siteId", nil); expr != "" {
		t.Fatalf("empty allow-list should produce no filter, got %q", expr)
	}
}

func TestSearchPredicatesMatchReportScoping(t *testing.T) {
	where, args := searchPredicates(Query{
		AllowedCompanyIDs: []string{"co-1"},
		AllowedSiteIDs:    []string{"site-1", "site-2"},
	}, 2)

	if len(where) != 2 || len(args) != 2 {
		t.Fatalf("predicates = %v args = %v", where, args)
	}
	if where[0] != "s.company_id = ANY($2::text[])" {
		t.Fatalf("company predicate = %q", where[0])
	}
	if where[1] != "s.site_id = ANY($3::text[])" {
		t.Fatalf("site predicate = %q", where[1])
	}
	for _, clause := range where {
		if strings.Contains(clause, "IS NULL") {
			t.Fatalf("predicate %q admits untagged submissions that the report scope hides", clause)
		}
	}
	if args[0] != `{"co-1"}` || args[1] != `{"site-1","site-2"}` {
		t.Fatalf("array literals = %v", args)
	}
}

func TestSearchPredicatesUnrestrictedSkipsGrants(t *testing.T) {
	where, args := searchPredicates(Query{
		Unrestricted:      true,
		AllowedCompanyIDs: []string{"co-1"},
		FilterCompanyID:   "co-9",
	}, 2)

	if len(where) != 1 || where[0] != "s.company_id = $2" {
		t.Fatalf("predicates = %v, want only the facet filter", where)
	}
	if len(args) != 1 || args[0] != "co-9" {
		t.Fatalf("args = %v", args)
	}
}
