package search

import "context"

// Result is a single search hit returned to the caller.
type Result struct {
	ID          string `json:"id"`
	Worker      string `json:"worker"`
	Department  string `json:"department"`
	Company     string `json:"company"`
	Site        string `json:"site"`
	Snippet     string `json:"snippet"`
	CompanyID   string `json:"companyId,omitempty"`
	SiteID      string `json:"siteId,omitempty"`
	SubmittedAt string `json:"submittedAt,omitempty"`
}

// Query describes a search request. AllowedCompanyIDs and AllowedSiteIDs
// carry the caller's tenant grants; nil means unrestricted.
type Query struct {
	Text              string
	FilterCompanyID   string
	FilterSiteID      string
	AllowedCompanyIDs []string
	AllowedSiteIDs    []string
	Unrestricted      bool
	Limit             int
	Offset            int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over submissions.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push submissions into a search index.
type Indexer interface {
	IndexSubmission(rec SubmissionRecord) error
	DeleteSubmission(id string) error
}

// SubmissionRecord is the data we index for a questionnaire submission.
// Content is the flattened text of all answers.
type SubmissionRecord struct {
	ID          string `json:"id"`
	Worker      string `json:"worker"`
	Department  string `json:"department"`
	Company     string `json:"company"`
	Site        string `json:"site"`
	CompanyID   string `json:"companyId"`
	SiteID      string `json:"siteId"`
	Content     string `json:"content"`
	SubmittedAt string `json:"submittedAt"`
}
