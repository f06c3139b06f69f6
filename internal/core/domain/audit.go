package domain

import "time"

// AccessDenial is the audit record written when an identity is refused an
// operation by role.
type AccessDenial struct {
	ActorID       string    `json:"actor_id"`
	ActorEmail    string    `json:"actor_email"`
	ActorRole     Role      `json:"actor_role"`
	RequiredRoles []Role    `json:"required_roles"`
	Operation     string    `json:"operation"`
	RequestID     string    `json:"request_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
