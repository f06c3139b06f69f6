package ports

import (
	"context"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// TaskRepository persists tasks. Every read and write that targets existing
// tasks takes an auth.ScopedTaskFilter, so queries can only be built through
// the ownership scoper. Implementations must reject the zero value.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// FindOne returns domain.ErrTaskNotFound when nothing matches the filter.
	FindOne(ctx context.Context, filter auth.ScopedTaskFilter) (*domain.Task, error)
	List(ctx context.Context, filter auth.ScopedTaskFilter, page domain.Page) ([]*domain.Task, int64, error)
	// Update applies patch to the single task matching filter and returns the
	// updated document, or domain.ErrTaskNotFound.
	Update(ctx context.Context, filter auth.ScopedTaskFilter, patch domain.TaskPatch) (*domain.Task, error)
	// Delete removes the single task matching filter, or returns
	// domain.ErrTaskNotFound.
	Delete(ctx context.Context, filter auth.ScopedTaskFilter) error
}
