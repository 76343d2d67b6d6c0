package app

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"ergolens/api/internal/auth"
	"ergolens/api/internal/authpw"
	"ergolens/api/internal/catalog"
	"ergolens/api/internal/config"
	"ergolens/api/internal/email"
	"ergolens/api/internal/export"
	"ergolens/api/internal/rbac"
	"ergolens/api/internal/report"
	"ergolens/api/internal/search"
	"ergolens/api/internal/store"
	"ergolens/api/internal/util"
)

// Session is the authenticated caller context. Profile carries the tenant
// grants loaded from the user record at issue time; every scoped read
// takes it explicitly.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	Profile      store.AccessProfile
	JTI          string
	ExpiresAt    time.Time
}

// SubmissionInput is the questionnaire ingest payload. SubmittedAt accepts
// every timestamp shape clients have historically sent; nil means "now".
type SubmissionInput struct {
	Answers     map[string]store.AnswerValue `json:"answers"`
	SubmittedAt any                          `json:"submittedAt"`
	CompanyID   string                       `json:"companyId"`
	SiteID      string                       `json:"siteId"`
}

// FinalReportInput is the header and free-notes block of the closing
// report document.
type FinalReportInput struct {
	Company  string `json:"company"`
	Site     string `json:"site"`
	Compiler string `json:"compiler"`
	Notes    string `json:"notes"`
}

type dataStore interface {
	ListSubmissions(context.Context) ([]store.Submission, error)
	InsertSubmission(context.Context, store.Submission) error
	ListCompanies(context.Context) ([]store.Company, error)
	InsertCompany(context.Context, store.Company) error
	ListSites(context.Context) ([]store.Site, error)
	InsertSite(context.Context, store.Site) error
	GetUserByID(context.Context, string) (store.User, error)
	UpdateUserGrants(context.Context, string, []string, []string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

// SessionStore holds refresh sessions. Postgres is the default; Redis is
// swapped in when configured.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions SessionStore
	authpw   *authpw.Service
	export   *export.Service
	search   *search.Service
	email    *email.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
	}
}

// UseSessionStore swaps the refresh-session backend.
func (s *Service) UseSessionStore(sessions SessionStore) {
	s.sessions = sessions
}

func (s *Service) SetAuthPasswordService(svc *authpw.Service) {
	s.authpw = svc
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SetExportService(svc *export.Service) {
	s.export = svc
}

func (s *Service) SetSearchService(svc *search.Service) {
	s.search = svc
}

func (s *Service) SetEmailService(svc *email.Service) {
	s.email = svc
}

func (s *Service) EmailService() *email.Service {
	return s.email
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) AppBaseURL() string {
	return s.cfg.AppBaseURL
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// CreateSession issues an access/refresh token pair for a verified user.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token. The user record is re-fetched so role
// and tenant grants are current at rotation time.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	sessionUser, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, sessionUser.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		Role: user.Role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		Profile:      user.Profile(),
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		Profile:   user.Profile(),
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// SubmitQuestionnaire ingests one completed questionnaire. Restricted
// profiles may only file against companies and sites they are granted.
func (s *Service) SubmitQuestionnaire(ctx context.Context, session Session, input SubmissionInput) (map[string]any, error) {
	if len(input.Answers) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "answers are required", nil)
	}
	if !session.Profile.Unrestricted {
		if input.CompanyID != "" && len(session.Profile.CompanyIDs) > 0 && !containsID(session.Profile.CompanyIDs, input.CompanyID) {
			return nil, domainError(http.StatusForbidden, "FORBIDDEN", "company is outside the caller's grants", nil)
		}
		if input.SiteID != "" && len(session.Profile.SiteIDs) > 0 && !containsID(session.Profile.SiteIDs, input.SiteID) {
			return nil, domainError(http.StatusForbidden, "FORBIDDEN", "site is outside the caller's grants", nil)
		}
	}

	submittedAt := time.Now()
	hasTimestamp := true
	if input.SubmittedAt != nil {
		submittedAt, hasTimestamp = store.NormalizeTimestamp(input.SubmittedAt)
	}

	sub := store.Submission{
		ID:                util.NewID("sub"),
		SubmittedAt:       submittedAt,
		HasTimestamp:      hasTimestamp,
		Answers:           input.Answers,
		SubmitterIdentity: session.UserName,
		CompanyID:         strings.TrimSpace(input.CompanyID),
		SiteID:            strings.TrimSpace(input.SiteID),
	}
	if err := s.store.InsertSubmission(ctx, sub); err != nil {
		return nil, err
	}

	s.indexSubmission(ctx, sub)

	payload := map[string]any{"id": sub.ID}
	if sub.HasTimestamp {
		payload["submittedAt"] = sub.SubmittedAt.Format(time.RFC3339)
	}
	return payload, nil
}

func (s *Service) indexSubmission(ctx context.Context, sub store.Submission) {
	if s.search == nil {
		return
	}
	ref, err := s.reference(ctx)
	if err != nil {
		ref = report.Reference{}
	}
	rec := search.SubmissionRecord{
		ID:         sub.ID,
		Worker:     strings.TrimSpace(sub.Answer(catalog.WorkerQuestionID).Text),
		Department: strings.TrimSpace(sub.Answer(catalog.DepartmentQuestionID).Text),
		Company:    companyName(ref, sub.CompanyID),
		Site:       siteName(ref, sub.SiteID),
		CompanyID:  sub.CompanyID,
		SiteID:     sub.SiteID,
		Content:    flattenAnswers(sub.Answers),
	}
	if sub.HasTimestamp {
		rec.SubmittedAt = sub.SubmittedAt.Format(time.RFC3339)
	}
	s.search.IndexSubmission(rec)
}

// flattenAnswers joins every textual answer fragment into one searchable
// blob, catalog order first so worker and department lead the text.
func flattenAnswers(answers map[string]store.AnswerValue) string {
	var parts []string
	seen := make(map[string]bool, len(answers))
	appendValue := func(v store.AnswerValue) {
		rendered := report.RenderValue(v)
		if rendered.Rendered != report.AbsentPlaceholder && rendered.ImageRef == "" {
			parts = append(parts, rendered.Rendered)
		}
	}
	for _, q := range catalog.Questions() {
		if v, ok := answers[q.ID]; ok {
			appendValue(v)
			seen[q.ID] = true
		}
	}
	extras := make([]string, 0, len(answers))
	for id := range answers {
		if !seen[id] {
			extras = append(extras, id)
		}
	}
	sort.Strings(extras)
	for _, id := range extras {
		appendValue(answers[id])
	}
	return strings.Join(parts, " ")
}

// ListSubmissions returns submissions visible to the caller's profile.
func (s *Service) ListSubmissions(ctx context.Context, profile store.AccessProfile) ([]map[string]any, error) {
	visible, err := s.visibleSubmissions(ctx, profile)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(visible))
	for _, sub := range visible {
		item := map[string]any{
			"id":        sub.ID,
			"worker":    strings.TrimSpace(sub.Answer(catalog.WorkerQuestionID).Text),
			"companyId": sub.CompanyID,
			"siteId":    sub.SiteID,
			"submitter": sub.SubmitterIdentity,
			"answers":   len(sub.Answers),
		}
		if sub.HasTimestamp {
			item["submittedAt"] = sub.SubmittedAt.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) visibleSubmissions(ctx context.Context, profile store.AccessProfile) ([]store.Submission, error) {
	all, err := s.store.ListSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	return report.Scope(all, profile), nil
}

// Companies lists companies, narrowed to the caller's grants when the
// profile carries a company allow-list.
func (s *Service) Companies(ctx context.Context, profile store.AccessProfile) ([]map[string]any, error) {
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(companies))
	for _, c := range companies {
		if !profile.Unrestricted && len(profile.CompanyIDs) > 0 && !containsID(profile.CompanyIDs, c.ID) {
			continue
		}
		items = append(items, map[string]any{"id": c.ID, "name": c.Name})
	}
	return items, nil
}

// Sites lists sites, optionally narrowed to one company, and to the
// caller's grants when the profile carries a site allow-list.
func (s *Service) Sites(ctx context.Context, profile store.AccessProfile, companyID string) ([]map[string]any, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(sites))
	for _, site := range sites {
		if companyID != "" && site.CompanyID != companyID {
			continue
		}
		if !profile.Unrestricted && len(profile.SiteIDs) > 0 && !containsID(profile.SiteIDs, site.ID) {
			continue
		}
		items = append(items, map[string]any{"id": site.ID, "name": site.Name, "companyId": site.CompanyID})
	}
	return items, nil
}

func (s *Service) CreateCompany(ctx context.Context, name string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	company := store.Company{ID: util.NewID("co"), Name: name}
	if err := s.store.InsertCompany(ctx, company); err != nil {
		return nil, err
	}
	return map[string]any{"id": company.ID, "name": company.Name}, nil
}

func (s *Service) CreateSite(ctx context.Context, name, companyID string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	site := store.Site{ID: util.NewID("site"), Name: name, CompanyID: strings.TrimSpace(companyID)}
	if err := s.store.InsertSite(ctx, site); err != nil {
		return nil, err
	}
	return map[string]any{"id": site.ID, "name": site.Name, "companyId": site.CompanyID}, nil
}

// UpdateUserGrants replaces a user's tenant allow-lists.
func (s *Service) UpdateUserGrants(ctx context.Context, userID string, companyIDs, siteIDs []string) (map[string]any, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateUserGrants(ctx, userID, companyIDs, siteIDs); err != nil {
		return nil, err
	}
	return map[string]any{
		"userId":     userID,
		"companyIds": nonNilStrings(companyIDs),
		"siteIds":    nonNilStrings(siteIDs),
	}, nil
}

func (s *Service) reference(ctx context.Context) (report.Reference, error) {
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return report.Reference{}, err
	}
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		return report.Reference{}, err
	}
	return report.Reference{Companies: companies, Sites: sites}, nil
}

// AnalysisGroups runs the scope, facet, and aggregation pipeline for one
// dimension and returns per-group figures.
func (s *Service) AnalysisGroups(ctx context.Context, profile store.AccessProfile, dim report.Dimension, facets report.Facets) (map[string]any, error) {
	visible, err := s.visibleSubmissions(ctx, profile)
	if err != nil {
		return nil, err
	}
	ref, err := s.reference(ctx)
	if err != nil {
		return nil, err
	}
	filtered := report.ApplyFacets(visible, facets)
	groups := report.GroupBy(filtered, dim, ref)

	items := make([]map[string]any, 0, len(groups))
	for _, group := range groups {
		stats := report.Stats(group)
		item := map[string]any{
			"key":                 group.Key,
			"label":               group.Label,
			"count":               stats.Count,
			"distinctRespondents": stats.DistinctRespondents,
		}
		if stats.HasLatest {
			item["latestSubmission"] = stats.LatestSubmission.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return map[string]any{
		"dimension": string(dim),
		"total":     len(filtered),
		"groups":    items,
	}, nil
}

// Workers lists the distinct respondents of the faceted visible set, for
// the report picker.
func (s *Service) Workers(ctx context.Context, profile store.AccessProfile, facets report.Facets) (map[string]any, error) {
	visible, err := s.visibleSubmissions(ctx, profile)
	if err != nil {
		return nil, err
	}
	ref, err := s.reference(ctx)
	if err != nil {
		return nil, err
	}
	filtered := report.ApplyFacets(visible, facets)
	groups := report.GroupBy(filtered, report.DimWorker, ref)

	items := make([]map[string]any, 0, len(groups))
	for _, group := range groups {
		stats := report.Stats(group)
		item := map[string]any{
			"name":  group.Label,
			"count": stats.Count,
		}
		if stats.HasLatest {
			item["latestSubmission"] = stats.LatestSubmission.Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return map[string]any{"workers": items}, nil
}

// WorkerReport builds the cross-submission comparison for one worker.
func (s *Service) WorkerReport(ctx context.Context, profile store.AccessProfile, workerName string, facets report.Facets) (report.RenderModel, error) {
	workerName = strings.TrimSpace(workerName)
	if workerName == "" {
		return report.RenderModel{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	visible, err := s.visibleSubmissions(ctx, profile)
	if err != nil {
		return report.RenderModel{}, err
	}
	filtered := report.ApplyFacets(visible, facets)

	var matched []store.Submission
	for _, sub := range filtered {
		if workerLabel(sub) == workerName {
			matched = append(matched, sub)
		}
	}
	// Zero matches is a valid result, not an error: the report renders as
	// an empty comparison under the requested name.
	if len(matched) == 0 {
		return report.Compose(nil, nil, report.ReportMeta{
			Worker:      workerName,
			GeneratedAt: time.Now(),
		}), nil
	}

	ref, err := s.reference(ctx)
	if err != nil {
		return report.RenderModel{}, err
	}

	ordered := report.SortBySubmittedAt(matched)
	rows := report.DiffWorker(ordered, catalog.Questions())
	dates := report.SubmissionDates(ordered)

	latest := ordered[len(ordered)-1]
	meta := report.ReportMeta{
		Worker:      workerName,
		Company:     companyName(ref, latest.CompanyID),
		Site:        siteName(ref, latest.SiteID),
		Submitter:   latest.SubmitterIdentity,
		GeneratedAt: time.Now(),
	}
	return report.Compose(rows, dates, meta), nil
}

// ExportWorkerReport renders the worker comparison into a downloadable
// document. Builder failures surface as EXPORT_FAILED and never affect
// the JSON report path.
func (s *Service) ExportWorkerReport(ctx context.Context, profile store.AccessProfile, workerName string, facets report.Facets, format export.Format, notes string) (*export.Result, error) {
	model, err := s.WorkerReport(ctx, profile, workerName, facets)
	if err != nil {
		return nil, err
	}
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_FAILED", "Export service not configured", nil)
	}
	doc := report.ExportDocument(model, notes)
	result, err := s.export.Build(doc, format)
	if err != nil {
		return nil, domainError(http.StatusInternalServerError, "EXPORT_FAILED", "Export failed", nil)
	}
	return result, nil
}

// finalReportBody is the fixed narrative of the closing report.
const finalReportBody = "La presente relazione riassume i risultati emersi dal questionario di valutazione dei rischi relativi all'uso di videoterminali (VDT). I dati raccolti hanno consentito di individuare gli aspetti ergonomici, ambientali e organizzativi rilevanti ai fini della salute e sicurezza dei lavoratori."

// FinalReport renders the closing report PDF: fixed body, header block,
// free conclusive notes.
func (s *Service) FinalReport(ctx context.Context, input FinalReportInput) (*export.Result, error) {
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_FAILED", "Export service not configured", nil)
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		notes = report.AbsentPlaceholder
	}
	doc := export.Document{
		Title:    "Relazione finale - Valutazione VDT",
		BaseName: "Relazione_" + orPlaceholder(input.Company) + "_" + orPlaceholder(input.Site),
		MetaLines: []export.MetaLine{
			{Label: "Azienda", Value: orPlaceholder(input.Company)},
			{Label: "Sede", Value: orPlaceholder(input.Site)},
			{Label: "Compilato da", Value: orPlaceholder(input.Compiler)},
		},
		Body:        finalReportBody,
		Notes:       notes,
		GeneratedAt: time.Now(),
	}
	result, err := s.export.Build(doc, export.FormatPDF)
	if err != nil {
		return nil, domainError(http.StatusInternalServerError, "EXPORT_FAILED", "Export failed", nil)
	}
	return result, nil
}

// Search queries submissions with the caller's grants applied.
func (s *Service) Search(ctx context.Context, session Session, q, companyID, siteID string, limit, offset int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q}
	}
	return s.search.Search(ctx, search.Query{
		Text:              q,
		FilterCompanyID:   companyID,
		FilterSiteID:      siteID,
		AllowedCompanyIDs: session.Profile.CompanyIDs,
		AllowedSiteIDs:    session.Profile.SiteIDs,
		Unrestricted:      session.Profile.Unrestricted,
		Limit:             limit,
		Offset:            offset,
	})
}

func workerLabel(sub store.Submission) string {
	name := strings.TrimSpace(sub.Answer(catalog.WorkerQuestionID).Text)
	if name == "" {
		return report.UnknownWorkerLabel
	}
	return name
}

func companyName(ref report.Reference, id string) string {
	for _, c := range ref.Companies {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func siteName(ref report.Reference, id string) string {
	for _, site := range ref.Sites {
		if site.ID == id {
			return site.Name
		}
	}
	return ""
}

func orPlaceholder(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return report.AbsentPlaceholder
	}
	return value
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
