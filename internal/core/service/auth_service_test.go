package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/infrastructure/security"
	"github.com/Bakhromov-02/task-management/internal/testutil/memstore"
)

type recordingAudit struct {
	denials []domain.AccessDenial
}

func (r *recordingAudit) RecordDenial(_ context.Context, d domain.AccessDenial) {
	r.denials = append(r.denials, d)
}

type authFixture struct {
	svc    *AuthService
	users  *memstore.Users
	tokens *auth.TokenService
	audit  *recordingAudit
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	hasher, err := security.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "secret"})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	users := memstore.NewUsers()
	audit := &recordingAudit{}
	access := auth.NewAccessController(audit, zerolog.Nop())
	return authFixture{
		svc:    NewAuthService(users, hasher, tokens, access, zerolog.Nop()),
		users:  users,
		tokens: tokens,
		audit:  audit,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.Register(context.Background(), "  Alice@Example.com ", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", res.User.Email)
	}
	if res.User.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", res.User.Role)
	}
	if res.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from result")
	}

	stored, err := f.users.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	claims, err := f.tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.SubjectID != res.User.ID || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := f.tokens.VerifyRefresh(res.RefreshToken); err != nil {
		t.Fatalf("refresh token invalid: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Register(context.Background(), "", "pass123"); !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser for empty email, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), "bob@example.com", "12345"); !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser for short password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)

	_, _ = f.svc.Register(context.Background(), "bob@example.com", "pass123")
	if _, err := f.svc.Register(context.Background(), "BOB@example.com", "pass456"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Register(context.Background(), "carol@example.com", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := f.svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" || res.User.Email != "carol@example.com" {
		t.Fatalf("unexpected result: %+v", res)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "carol@example.com", "badpass"},
		{"unknown email", "ghost@example.com", "s3cret"},
		{"empty password", "carol@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Login(context.Background(), tt.email, tt.password); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.users.Err = errors.New("socket closed")

	_, err := f.svc.Login(context.Background(), "carol@example.com", "s3cret")
	if !errors.Is(err, auth.ErrCredentialStoreUnavailable) {
		t.Fatalf("expected ErrCredentialStoreUnavailable, got %v", err)
	}
}

func TestAuthService_CreateAdmin(t *testing.T) {
	f := newAuthFixture(t)
	admin := domain.Identity{ID: "a1", Email: "root@example.com", Role: domain.RoleAdmin}
	user := domain.Identity{ID: "u1", Email: "alice@example.com", Role: domain.RoleUser}

	created, err := f.svc.CreateAdmin(context.Background(), admin, "ops@example.com", "pass123")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if created.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", created.Role)
	}

	_, err = f.svc.CreateAdmin(context.Background(), user, "sneaky@example.com", "pass123")
	var authzErr *auth.AuthorizationError
	if !errors.As(err, &authzErr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if len(f.audit.denials) != 1 {
		t.Fatalf("expected 1 audited denial, got %d", len(f.audit.denials))
	}
	if _, err := f.users.FindByEmail(context.Background(), "sneaky@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected no account to be created, got %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	res, err := f.svc.Register(context.Background(), "dave@example.com", "pass123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	f.users.SetRole(res.User.ID, domain.RoleAdmin)

	refreshed, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := f.tokens.Verify(refreshed.Token)
	if err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
	if claims.Role != domain.RoleAdmin {
		t.Fatalf("expected role from stored user, got %s", claims.Role)
	}

	_, err = f.svc.Refresh(context.Background(), res.Token)
	var credErr *auth.CredentialError
	if !errors.As(err, &credErr) || credErr.Reason != auth.ReasonInvalidToken {
		t.Fatalf("expected INVALID_TOKEN for access token, got %v", err)
	}
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	f := newAuthFixture(t)
	old, err := auth.NewTokenService(auth.TokenConfig{Secret: "secret"}, auth.WithClock(func() time.Time {
		return time.Now().Add(-31 * 24 * time.Hour)
	}))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	stale, err := old.IssueRefresh("64b7f0c2a1b2c3d4e5f60718", domain.RoleUser)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	_, err = f.svc.Refresh(context.Background(), stale)
	var credErr *auth.CredentialError
	if !errors.As(err, &credErr) || credErr.Reason != auth.ReasonTokenExpired {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestAuthService_ListUsers(t *testing.T) {
	f := newAuthFixture(t)
	for _, email := range []string{"a@example.com", "b@example.com", "c@other.org"} {
		if _, err := f.svc.Register(context.Background(), email, "pass123"); err != nil {
			t.Fatalf("register %s: %v", email, err)
		}
	}

	res, err := f.svc.ListUsers(context.Background(), domain.UserQuery{Email: "EXAMPLE", Limit: 1})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 1 || res.TotalPages != 2 || res.Page != 1 {
		t.Fatalf("unexpected page: total=%d items=%d pages=%d page=%d", res.Total, len(res.Items), res.TotalPages, res.Page)
	}

	if _, err := f.svc.ListUsers(context.Background(), domain.UserQuery{Role: "owner"}); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
