package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	Role                  string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CompanyIDs            []string
	SiteIDs               []string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// AccessProfile is the per-session scoping grant derived from a user record.
// It is loaded once at sign-in and passed explicitly through the report
// pipeline; nothing reads it from ambient state.
type AccessProfile struct {
	Unrestricted bool
	CompanyIDs   []string
	SiteIDs      []string
}

// Profile builds the access scope for a user. Admins bypass tenant
// filtering entirely.
func (u User) Profile() AccessProfile {
	return AccessProfile{
		Unrestricted: u.Role == "admin",
		CompanyIDs:   u.CompanyIDs,
		SiteIDs:      u.SiteIDs,
	}
}

type Company struct {
	ID   string
	Name string
}

type Site struct {
	ID        string
	Name      string
	CompanyID string
}

// Submission is one completed questionnaire instance. Answers may be
// partial; a missing question id means the answer is absent, not an error.
type Submission struct {
	ID                string
	SubmittedAt       time.Time
	HasTimestamp      bool
	Answers           map[string]AnswerValue
	SubmitterIdentity string
	CompanyID         string
	SiteID            string
}

// Answer returns the answer for a question id, absent when the key is
// missing.
func (s Submission) Answer(questionID string) AnswerValue {
	if v, ok := s.Answers[questionID]; ok {
		return v
	}
	return AnswerValue{}
}
