package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

// TokenIssuer is the part of auth.TokenService the auth use cases need.
type TokenIssuer interface {
	Issue(subjectID string, role domain.Role, opts ...auth.IssueOption) (string, error)
	IssueRefresh(subjectID string, role domain.Role) (string, error)
	VerifyRefresh(token string) (*auth.Claims, error)
}

// AuthService implements registration, login and account queries.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens TokenIssuer
	access *auth.AccessController
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens TokenIssuer, access *auth.AccessController, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, access: access, logger: logger, now: time.Now}
}

// Register creates a user-role account and opens a session for it. Any
// requested role is ignored; admins are created through CreateAdmin.
func (s *AuthService) Register(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.createUser(ctx, email, password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return s.session(user)
}

// CreateAdmin creates an admin account on behalf of actor, who must be an
// admin.
func (s *AuthService) CreateAdmin(ctx context.Context, actor domain.Identity, email, password string) (*domain.User, error) {
	if err := s.access.AuthorizeOperation(ctx, "auth.register_admin", &actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("created_by", actor.ID).Msg("admin created")
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, password string, role domain.Role) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < domain.MinPasswordLength {
		return nil, domain.ErrInvalidUser
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login checks credentials. Unknown email and wrong password are reported
// identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrCredentialStoreUnavailable, err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.session(user)
}

// Refresh exchanges a refresh token for a new token pair. The role in the new
// tokens comes from the stored user, not the old token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, &auth.CredentialError{Reason: auth.ReasonTokenExpired, Err: err}
	case err != nil:
		return nil, &auth.CredentialError{Reason: auth.ReasonInvalidToken, Err: err}
	}

	user, err := s.repo.FindByID(ctx, claims.SubjectID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, &auth.CredentialError{Reason: auth.ReasonUserNotFound, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrCredentialStoreUnavailable, err)
	}
	return s.session(user)
}

func (s *AuthService) Profile(ctx context.Context, id domain.Identity) (*domain.User, error) {
	return s.repo.FindByID(ctx, id.ID)
}

func (s *AuthService) ListUsers(ctx context.Context, q domain.UserQuery) (*ports.ListUsersResult, error) {
	page := domain.Page{Number: q.Page, Limit: q.Limit}.Normalize()
	q.Page, q.Limit = page.Number, page.Limit
	q.Email = strings.TrimSpace(q.Email)
	if q.Role != "" && !q.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, q.Role)
	}

	users, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *AuthService) session(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &ports.AuthResult{Token: token, RefreshToken: refresh, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
