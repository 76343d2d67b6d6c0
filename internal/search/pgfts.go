package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// searchPredicates builds the facet and tenant WHERE fragments after the
// fts match, numbering placeholders from argN. A non-empty allow-list
// excludes untagged records, exactly as the report-side scoping does.
func searchPredicates(q Query, argN int) ([]string, []any) {
	var where []string
	var args []any
	if q.FilterCompanyID != "" {
		where = append(where, fmt.Sprintf("s.company_id = $%d", argN))
		args = append(args, q.FilterCompanyID)
		argN++
	}
	if q.FilterSiteID != "" {
		where = append(where, fmt.Sprintf("s.site_id = $%d", argN))
		args = append(args, q.FilterSiteID)
		argN++
	}
	if !q.Unrestricted {
		if len(q.AllowedCompanyIDs) > 0 {
			where = append(where, fmt.Sprintf("s.company_id = ANY($%d::text[])", argN))
			args = append(args, encodeArray(q.AllowedCompanyIDs))
			argN++
		}
		if len(q.AllowedSiteIDs) > 0 {
			where = append(where, fmt.Sprintf("s.site_id = ANY($%d::text[])", argN))
			args = append(args, encodeArray(q.AllowedSiteIDs))
			argN++
		}
	}
	return where, args
}

// Search queries the submissions fts column with plainto_tsquery and ts_rank,
// using ts_headline for snippets. Tenant grants and facet filters become
// WHERE clauses.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('simple', $1)"
	args := []any{q.Text}

	where := []string{"s.fts @@ " + tsQuery}
	predicates, predicateArgs := searchPredicates(q, 2)
	where = append(where, predicates...)
	args = append(args, predicateArgs...)

	baseSQL := fmt.Sprintf(`
		FROM submissions s
		LEFT JOIN companies c ON c.id = s.company_id
		LEFT JOIN sites st ON st.id = s.site_id
		WHERE %s`, strings.Join(where, " AND "))

	var total int
	countSQL := "SELECT count(*) " + baseSQL
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT s.id,
			coalesce(s.answers->>'meta_nome', '') AS worker,
			coalesce(s.answers->>'meta_reparto', '') AS department,
			coalesce(c.name, '') AS company,
			coalesce(st.name, '') AS site,
			ts_headline('simple', coalesce(s.answers::text, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
			coalesce(s.company_id, '') AS company_id,
			coalesce(s.site_id, '') AS site_id,
			coalesce(to_char(s.submitted_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'), '') AS submitted_at
		%s
		ORDER BY ts_rank(s.fts, %s) DESC
		LIMIT %d OFFSET %d`, tsQuery, baseSQL, tsQuery, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Worker, &r.Department, &r.Company, &r.Site, &r.Snippet, &r.CompanyID, &r.SiteID, &r.SubmittedAt); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable submissions for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]SubmissionRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT s.id,
			coalesce(s.answers->>'meta_nome', ''),
			coalesce(s.answers->>'meta_reparto', ''),
			coalesce(c.name, ''),
			coalesce(st.name, ''),
			coalesce(s.company_id, ''),
			coalesce(s.site_id, ''),
			coalesce(s.answers::text, ''),
			coalesce(to_char(s.submitted_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'), '')
		FROM submissions s
		LEFT JOIN companies c ON c.id = s.company_id
		LEFT JOIN sites st ON st.id = s.site_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	defer rows.Close()

	records := make([]SubmissionRecord, 0)
	for rows.Next() {
		var rec SubmissionRecord
		if err := rows.Scan(&rec.ID, &rec.Worker, &rec.Department, &rec.Company, &rec.Site, &rec.CompanyID, &rec.SiteID, &rec.Content, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}

	return records, nil
}

// encodeArray renders a string slice as a Postgres array literal so it can be
// bound as a single parameter to = ANY(...).
func encodeArray(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
