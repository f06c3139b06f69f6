package ports

import (
	"context"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// AuditRepository persists access-denial audit records.
type AuditRepository interface {
	InsertDenial(ctx context.Context, denial *domain.AccessDenial) error
}
