package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

const (
	DefaultIssuer     = "task-management-api"
	DefaultAudience   = "task-management-users"
	RefreshAudience   = "refresh-token"
	DefaultAccessTTL  = "1h"
	DefaultRefreshTTL = "30d"
)

// TokenConfig holds the settings the token service is built from. Empty
// optional fields fall back to the defaults above.
type TokenConfig struct {
	Secret     string
	AccessTTL  string
	RefreshTTL string
	Issuer     string
	Audience   string
}

// Claims is the verified content of a token.
type Claims struct {
	SubjectID string
	Role      domain.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

// TokenService issues and verifies HS256 tokens. It holds no mutable state
// after construction.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   string
	now        func() time.Time
}

type Option func(*TokenService)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService validates cfg and returns a ready service.
func NewTokenService(cfg TokenConfig, opts ...Option) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, &ConfigurationError{Field: "secret", Err: errors.New("must not be empty")}
	}
	if cfg.AccessTTL == "" {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == "" {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.Audience == RefreshAudience {
		return nil, &ConfigurationError{Field: "audience", Err: fmt.Errorf("%q is reserved for refresh tokens", RefreshAudience)}
	}

	accessTTL, err := ParseExpiry(cfg.AccessTTL)
	if err != nil {
		return nil, &ConfigurationError{Field: "access expiry", Err: err}
	}
	refreshTTL, err := ParseExpiry(cfg.RefreshTTL)
	if err != nil {
		return nil, &ConfigurationError{Field: "refresh expiry", Err: err}
	}

	s := &TokenService{
		secret:     []byte(cfg.Secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueOption adjusts a single issued token.
type IssueOption func(*issueParams)

type issueParams struct {
	ttl time.Duration
}

// WithTTL overrides the lifetime of one token.
func WithTTL(d time.Duration) IssueOption {
	return func(p *issueParams) { p.ttl = d }
}

// AccessTTL is the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// Issue signs an access token for subjectID carrying role.
func (s *TokenService) Issue(subjectID string, role domain.Role, opts ...IssueOption) (string, error) {
	p := issueParams{ttl: s.accessTTL}
	for _, opt := range opts {
		opt(&p)
	}
	return s.sign(subjectID, role, s.audience, p.ttl)
}

// IssueRefresh signs a long-lived token accepted only by VerifyRefresh.
func (s *TokenService) IssueRefresh(subjectID string, role domain.Role) (string, error) {
	return s.sign(subjectID, role, RefreshAudience, s.refreshTTL)
}

func (s *TokenService) sign(subjectID string, role domain.Role, audience string, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", errors.New("issue token: empty subject")
	}
	if !role.Valid() {
		return "", fmt.Errorf("issue token: %w: %q", domain.ErrInvalidRole, role)
	}
	if ttl <= 0 {
		return "", errors.New("issue token: non-positive lifetime")
	}

	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks an access token. Expiry is evaluated before the signature so
// that every expired token reports ErrTokenExpired; any other defect is
// ErrTokenMalformed.
func (s *TokenService) Verify(token string) (*Claims, error) {
	return s.verify(token, s.audience)
}

// VerifyRefresh applies the same checks as Verify against the refresh
// audience.
func (s *TokenService) VerifyRefresh(token string) (*Claims, error) {
	return s.verify(token, RefreshAudience)
}

func (s *TokenService) verify(raw, audience string) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	var peek tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &peek); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if peek.ExpiresAt != nil && !s.now().Before(peek.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	var claims tokenClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if _, err := parser.ParseWithClaims(raw, &claims, s.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrTokenMalformed, claims.Role)
	}

	out := &Claims{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.UTC()
	}
	return out, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}
