package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"ergolens/api/internal/store"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users         map[string]store.User
	emailIndex    map[string]string // email -> userID
	verifications map[string]store.User
	resets        map[string]resetRecord
}

type resetRecord struct {
	userID    string
	expiresAt time.Time
	used      bool
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:         make(map[string]store.User),
		emailIndex:    make(map[string]string),
		verifications: make(map[string]store.User),
		resets:        make(map[string]resetRecord),
	}
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[email]; ok {
		return m.users[userID], nil
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) CreateUser(ctx context.Context, user store.User) error {
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user.ID
	return nil
}

func (m *mockUserStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if user, ok := m.users[userID]; ok {
		user.VerificationToken = token
		user.VerificationExpiresAt = &expiresAt
		m.users[userID] = user
		m.verifications[token] = user
	}
	return nil
}

func (m *mockUserStore) VerifyUserEmail(ctx context.Context, token string) error {
	if user, ok := m.verifications[token]; ok {
		user.IsEmailVerified = true
		m.users[user.ID] = user
		return nil
	}
	return errors.New("invalid token")
}

func (m *mockUserStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	if user, ok := m.users[userID]; ok {
		user.PasswordHash = passwordHash
		m.users[userID] = user
	}
	return nil
}

func (m *mockUserStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	m.resets[token] = resetRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *mockUserStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	rec, ok := m.resets[token]
	if !ok || rec.used || time.Now().After(rec.expiresAt) {
		return "", store.ErrNotFound
	}
	return rec.userID, nil
}

func (m *mockUserStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	if rec, ok := m.resets[token]; ok {
		rec.used = true
		m.resets[token] = rec
	}
	return nil
}

func signUpTestUser(t *testing.T, svc *Service, mock *mockUserStore) store.User {
	t.Helper()
	resp, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "anna@acme.it",
		Password:    "password123",
		DisplayName: "Anna Bianchi",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.VerifyEmail(context.Background(), resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	return mock.users[resp.UserID]
}

func TestSignUpDefaultsToCompiler(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)

	resp, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "anna@acme.it",
		Password:    "password123",
		DisplayName: "Anna Bianchi",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if !resp.RequiresEmailVerify {
		t.Error("expected email verification to be required")
	}
	user := mock.users[resp.UserID]
	if user.Role != "compiler" {
		t.Errorf("role = %q", user.Role)
	}
	if len(user.CompanyIDs) != 0 || len(user.SiteIDs) != 0 {
		t.Error("new users must start without tenant grants")
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc := NewService(newMockUserStore())
	if _, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "anna@acme.it",
		Password:    "short",
		DisplayName: "Anna",
	}); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	signUpTestUser(t, svc, mock)

	if _, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "anna@acme.it",
		Password:    "password123",
		DisplayName: "Altra Anna",
	}); err == nil {
		t.Fatal("expected duplicate email to fail")
	}
}

func TestSignInFlow(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	signUpTestUser(t, svc, mock)

	resp, err := svc.SignIn(context.Background(), SignInRequest{Email: "anna@acme.it", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if resp.RequiresVerify {
		t.Error("verified account should not require verification")
	}

	if _, err := svc.SignIn(context.Background(), SignInRequest{Email: "anna@acme.it", Password: "wrong-password"}); err == nil {
		t.Fatal("expected wrong password to fail")
	}
}

func TestSignInUnverifiedAccount(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	if _, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       "anna@acme.it",
		Password:    "password123",
		DisplayName: "Anna",
	}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	resp, err := svc.SignIn(context.Background(), SignInRequest{Email: "anna@acme.it", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if !resp.RequiresVerify {
		t.Error("unverified account should require verification")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	user := signUpTestUser(t, svc, mock)

	token, err := svc.RequestPasswordReset(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token for a known email")
	}

	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:       token,
		NewPassword: "nuova-password",
	}); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := svc.SignIn(context.Background(), SignInRequest{Email: user.Email, Password: "nuova-password"}); err != nil {
		t.Errorf("sign in with new password failed: %v", err)
	}
}

func TestPasswordResetUnknownEmailDoesNotLeak(t *testing.T) {
	svc := NewService(newMockUserStore())
	token, err := svc.RequestPasswordReset(context.Background(), "ghost@acme.it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Error("unknown email must not produce a token")
	}
}
