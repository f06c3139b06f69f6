package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// Reason is the machine-readable code attached to authentication and
// authorization failures.
type Reason string

const (
	ReasonNoToken                 Reason = "NO_TOKEN"
	ReasonInvalidTokenFormat      Reason = "INVALID_TOKEN_FORMAT"
	ReasonTokenExpired            Reason = "TOKEN_EXPIRED"
	ReasonInvalidToken            Reason = "INVALID_TOKEN"
	ReasonUserNotFound            Reason = "USER_NOT_FOUND"
	ReasonNotAuthenticated        Reason = "NOT_AUTHENTICATED"
	ReasonInsufficientPermissions Reason = "INSUFFICIENT_PERMISSIONS"
)

var reasonMessages = map[Reason]string{
	ReasonNoToken:                 "no token provided",
	ReasonInvalidTokenFormat:      "invalid token format",
	ReasonTokenExpired:            "token expired",
	ReasonInvalidToken:            "invalid token",
	ReasonUserNotFound:            "user not found",
	ReasonNotAuthenticated:        "authentication required",
	ReasonInsufficientPermissions: "insufficient permissions",
}

// Message is the client-facing text for the reason.
func (r Reason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return "unauthorized"
}

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")

	// ErrCredentialStoreUnavailable wraps credential store failures other than
	// a missing record.
	ErrCredentialStoreUnavailable = errors.New("credential store unavailable")

	// ErrUnscopedFilter is returned by repositories handed a task filter that
	// did not pass through Scope.
	ErrUnscopedFilter = errors.New("task filter has not been scoped")
)

// CredentialError reports that a request could not be authenticated.
type CredentialError struct {
	Reason Reason
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason.Message(), e.Err)
	}
	return e.Reason.Message()
}

func (e *CredentialError) Unwrap() error { return e.Err }

func credentialError(reason Reason, err error) *CredentialError {
	return &CredentialError{Reason: reason, Err: err}
}

// AuthorizationError reports that an authenticated identity lacks the role an
// operation requires.
type AuthorizationError struct {
	Identity  domain.Identity
	Required  []domain.Role
	Operation string
}

func (e *AuthorizationError) Error() string {
	roles := make([]string, len(e.Required))
	for i, r := range e.Required {
		roles[i] = string(r)
	}
	return fmt.Sprintf("insufficient permissions: role %q, requires [%s]", e.Identity.Role, strings.Join(roles, ","))
}

// Reason is always ReasonInsufficientPermissions.
func (e *AuthorizationError) Reason() Reason { return ReasonInsufficientPermissions }

// ConfigurationError is returned at construction time when the token service
// cannot be built from the supplied settings.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("auth configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
