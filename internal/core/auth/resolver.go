package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// IdentityStore loads user records by id. It must return
// domain.ErrUserNotFound when no record exists.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Resolver turns an Authorization header into the identity of the caller.
type Resolver struct {
	tokens TokenVerifier
	users  IdentityStore
}

func NewResolver(tokens TokenVerifier, users IdentityStore) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve authenticates header and returns the identity built from the
// current user record, so a role change takes effect on the next request.
func (r *Resolver) Resolve(ctx context.Context, header string) (domain.Identity, error) {
	if header == "" {
		return domain.Identity{}, credentialError(ReasonNoToken, nil)
	}
	token, ok := bearerToken(header)
	if !ok {
		return domain.Identity{}, credentialError(ReasonInvalidTokenFormat, nil)
	}

	claims, err := r.tokens.Verify(token)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return domain.Identity{}, credentialError(ReasonTokenExpired, err)
	case err != nil:
		return domain.Identity{}, credentialError(ReasonInvalidToken, err)
	}

	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}
	user, err := r.users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Identity{}, credentialError(ReasonUserNotFound, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Identity{}, ctxErr
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrCredentialStoreUnavailable, err)
	}
	if !user.Role.Valid() {
		return domain.Identity{}, fmt.Errorf("%w: user %s: %w", ErrCredentialStoreUnavailable, user.ID, domain.ErrInvalidRole)
	}
	return domain.IdentityOf(user), nil
}

// bearerToken accepts exactly "Bearer " followed by a token with no
// surrounding or embedded whitespace.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", false
	}
	return token, true
}
