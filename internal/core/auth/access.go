package auth

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// AuditRecorder receives access denials. Implementations must not block the
// request path.
type AuditRecorder interface {
	RecordDenial(ctx context.Context, denial domain.AccessDenial)
}

// AccessController decides whether an identity may run an operation.
type AccessController struct {
	audit AuditRecorder
	log   zerolog.Logger
	now   func() time.Time
}

// NewAccessController builds a controller. audit may be nil.
func NewAccessController(audit AuditRecorder, log zerolog.Logger) *AccessController {
	return &AccessController{audit: audit, log: log, now: time.Now}
}

// Authorize admits identity when it holds one of the required roles. An empty
// role list admits any authenticated identity.
func (a *AccessController) Authorize(ctx context.Context, identity *domain.Identity, required ...domain.Role) error {
	return a.AuthorizeOperation(ctx, "", identity, required...)
}

// AuthorizeOperation is Authorize with the operation name recorded on
// denial.
func (a *AccessController) AuthorizeOperation(ctx context.Context, operation string, identity *domain.Identity, required ...domain.Role) error {
	if identity == nil {
		return credentialError(ReasonNotAuthenticated, nil)
	}
	if len(required) == 0 || Satisfies(identity.Role, required...) {
		return nil
	}

	denial := domain.AccessDenial{
		ActorID:       identity.ID,
		ActorEmail:    identity.Email,
		ActorRole:     identity.Role,
		RequiredRoles: slices.Clone(required),
		Operation:     operation,
		RequestID:     RequestIDFromContext(ctx),
		OccurredAt:    a.now().UTC(),
	}
	a.log.Warn().
		Str("user_id", denial.ActorID).
		Str("email", denial.ActorEmail).
		Str("role", string(denial.ActorRole)).
		Interface("required_roles", denial.RequiredRoles).
		Str("operation", operation).
		Str("request_id", denial.RequestID).
		Msg("access denied")
	if a.audit != nil {
		a.audit.RecordDenial(ctx, denial)
	}

	return &AuthorizationError{Identity: *identity, Required: denial.RequiredRoles, Operation: operation}
}

// Satisfies reports whether role is one of required. Membership is strict:
// an admin does not satisfy a route declared for users only.
func Satisfies(role domain.Role, required ...domain.Role) bool {
	return role.Valid() && slices.Contains(required, role)
}
