package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("store: not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListSubmissions loads the full submission snapshot. The report pipeline
// runs over this in-memory slice; no further queries happen during
// aggregation.
func (s *PostgresStore) ListSubmissions(ctx context.Context) ([]Submission, error) {
	const query = `
		SELECT id, submitted_at, answers, submitter_identity,
		       COALESCE(company_id, ''), COALESCE(site_id, '')
		FROM submissions
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []Submission
	for rows.Next() {
		var (
			sub         Submission
			submittedAt sql.NullTime
			answersJSON []byte
		)
		if err := rows.Scan(&sub.ID, &submittedAt, &answersJSON, &sub.SubmitterIdentity, &sub.CompanyID, &sub.SiteID); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if submittedAt.Valid {
			sub.SubmittedAt = submittedAt.Time.UTC()
			sub.HasTimestamp = true
		}
		sub.Answers = decodeAnswers(answersJSON)
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

func (s *PostgresStore) InsertSubmission(ctx context.Context, sub Submission) error {
	answersJSON, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	var submittedAt any
	if sub.HasTimestamp {
		submittedAt = sub.SubmittedAt
	}
	const insert = `
		INSERT INTO submissions (id, submitted_at, answers, submitter_identity, company_id, site_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	`
	if _, err := s.db.ExecContext(ctx, insert, sub.ID, submittedAt, answersJSON, sub.SubmitterIdentity, sub.CompanyID, sub.SiteID); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// decodeAnswers tolerates malformed payloads: a row whose answers column
// cannot be decoded yields an empty map, not an error, so one bad record
// never aborts the snapshot.
func decodeAnswers(raw []byte) map[string]AnswerValue {
	answers := map[string]AnswerValue{}
	if len(raw) == 0 {
		return answers
	}
	if err := json.Unmarshal(raw, &answers); err != nil {
		return map[string]AnswerValue{}
	}
	return answers
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (s *PostgresStore) InsertCompany(ctx context.Context, c Company) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO companies (id, name) VALUES ($1, $2)`, c.ID, c.Name); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, company_id FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.ID, &site.Name, &site.CompanyID); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *PostgresStore) InsertSite(ctx context.Context, site Site) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sites (id, name, company_id) VALUES ($1, $2, $3)`, site.ID, site.Name, site.CompanyID); err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

const userColumns = `
	id, display_name, email, password_hash, role, is_email_verified,
	COALESCE(verification_token, ''), verification_expires_at,
	COALESCE(company_ids, '[]'), COALESCE(site_ids, '[]'),
	created_at, updated_at
`

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (User, error) {
	var (
		user                  User
		verificationExpiresAt sql.NullTime
		companyJSON, siteJSON []byte
	)
	err := row.Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsEmailVerified, &user.VerificationToken,
		&verificationExpiresAt, &companyJSON, &siteJSON,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	if verificationExpiresAt.Valid {
		user.VerificationExpiresAt = &verificationExpiresAt.Time
	}
	if err := json.Unmarshal(companyJSON, &user.CompanyIDs); err != nil {
		user.CompanyIDs = nil
	}
	if err := json.Unmarshal(siteJSON, &user.SiteIDs); err != nil {
		user.SiteIDs = nil
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	companyJSON, _ := json.Marshal(user.CompanyIDs)
	siteJSON, _ := json.Marshal(user.SiteIDs)
	const insert = `
		INSERT INTO users (id, display_name, email, password_hash, role, is_email_verified, verification_token, company_ids, site_ids)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
	`
	if _, err := s.db.ExecContext(ctx, insert,
		user.ID, user.DisplayName, user.Email, user.PasswordHash,
		user.Role, user.IsEmailVerified, user.VerificationToken,
		companyJSON, siteJSON,
	); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserGrants(ctx context.Context, userID string, companyIDs, siteIDs []string) error {
	companyJSON, _ := json.Marshal(companyIDs)
	siteJSON, _ := json.Marshal(siteIDs)
	const update = `UPDATE users SET company_ids = $2, site_ids = $3, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, update, userID, companyJSON, siteJSON); err != nil {
		return fmt.Errorf("update user grants: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const update = `UPDATE users SET verification_token = $2, verification_expires_at = $3, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, update, userID, token, expiresAt); err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	const update = `
		UPDATE users
		SET is_email_verified = TRUE, verification_token = NULL, verification_expires_at = NULL, updated_at = NOW()
		WHERE verification_token = $1 AND verification_expires_at > NOW()
	`
	result, err := s.db.ExecContext(ctx, update, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	const update = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, update, userID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const insert = `INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, insert, token, userID, expiresAt); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	const query = `SELECT user_id FROM password_resets WHERE token = $1 AND used_at IS NULL AND expires_at > NOW()`
	var userID string
	err := s.db.QueryRowContext(ctx, query, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password reset: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at = NOW() WHERE token = $1`, token); err != nil {
		return fmt.Errorf("mark reset used: %w", err)
	}
	return nil
}

// Refresh-session storage. Redis is preferred when configured; these rows
// are the fallback used when it is not.

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	const insert = `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id = $2, expires_at = $3
	`
	if _, err := s.db.ExecContext(ctx, insert, tokenHash, userID, expiresAt); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT user_id FROM refresh_sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`
	var userID string
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return s.GetUserByID(ctx, userID)
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	const insert = `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insert, jti, expiresAt); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}
