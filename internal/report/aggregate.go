package report

import (
	"strings"
	"time"

	"ergolens/api/internal/catalog"
	"ergolens/api/internal/store"
)

// Dimension is a grouping axis for the aggregate analysis views.
type Dimension string

const (
	DimWorker     Dimension = "worker"
	DimDepartment Dimension = "department"
	DimSite       Dimension = "site"
	DimCompany    Dimension = "company"
)

// ParseDimension maps a request parameter onto a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case DimWorker, DimDepartment, DimSite, DimCompany:
		return Dimension(s), true
	default:
		return "", false
	}
}

// Labels for submissions that cannot be attributed to a group. They are
// kept as distinct buckets, never dropped.
const (
	UnknownWorkerLabel     = "Lavoratore sconosciuto"
	UnknownDepartmentLabel = "Reparto non indicato"
	UnassignedLabel        = "Non assegnata"
)

// Reference carries the read-only organization entities used to resolve
// site and company ids into display names.
type Reference struct {
	Companies []store.Company
	Sites     []store.Site
}

func (r Reference) companyName(id string) string {
	for _, c := range r.Companies {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (r Reference) siteName(id string) string {
	for _, s := range r.Sites {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}

// Group is one bucket of the aggregate view.
type Group struct {
	Key         string
	Label       string
	Submissions []store.Submission
}

// GroupStats are the per-group figures each analysis view shows.
type GroupStats struct {
	Count               int
	DistinctRespondents int
	LatestSubmission    time.Time
	HasLatest           bool
}

// GroupBy buckets submissions along a dimension. Groups keep first-seen
// order so repeated renders of the same input never reorder sections.
// Unresolved site/company ids still produce a group labeled with the raw
// id.
func GroupBy(submissions []store.Submission, dim Dimension, ref Reference) []Group {
	var groups []Group
	index := map[string]int{}

	for _, sub := range submissions {
		key, label := groupKey(sub, dim, ref)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Label: label})
		}
		groups[i].Submissions = append(groups[i].Submissions, sub)
	}
	return groups
}

func groupKey(sub store.Submission, dim Dimension, ref Reference) (key, label string) {
	switch dim {
	case DimWorker:
		name := strings.TrimSpace(sub.Answer(catalog.WorkerQuestionID).Text)
		if name == "" {
			return "", UnknownWorkerLabel
		}
		return name, name
	case DimDepartment:
		dept := strings.TrimSpace(sub.Answer(catalog.DepartmentQuestionID).Text)
		if dept == "" {
			return "", UnknownDepartmentLabel
		}
		return dept, dept
	case DimSite:
		if sub.SiteID == "" {
			return "", UnassignedLabel
		}
		if name := ref.siteName(sub.SiteID); name != "" {
			return sub.SiteID, name
		}
		return sub.SiteID, sub.SiteID
	case DimCompany:
		if sub.CompanyID == "" {
			return "", UnassignedLabel
		}
		if name := ref.companyName(sub.CompanyID); name != "" {
			return sub.CompanyID, name
		}
		return sub.CompanyID, sub.CompanyID
	default:
		return "", UnassignedLabel
	}
}

// Stats computes the summary figures for one group.
func Stats(g Group) GroupStats {
	stats := GroupStats{Count: len(g.Submissions)}

	respondents := map[string]bool{}
	for _, sub := range g.Submissions {
		name := strings.TrimSpace(sub.Answer(catalog.WorkerQuestionID).Text)
		respondents[name] = true
		if sub.HasTimestamp && (!stats.HasLatest || sub.SubmittedAt.After(stats.LatestSubmission)) {
			stats.LatestSubmission = sub.SubmittedAt
			stats.HasLatest = true
		}
	}
	stats.DistinctRespondents = len(respondents)
	return stats
}
