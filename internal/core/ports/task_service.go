package ports

import (
	"context"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// CreateTaskInput carries the fields a caller may set on a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
}

// ListTasksInput carries the list endpoint parameters. UserID is honoured
// only for admins.
type ListTasksInput struct {
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	Search   string
	UserID   string
	Page     int
	Limit    int
}

// ListTasksResult is a page of tasks.
type ListTasksResult struct {
	Items      []*domain.Task
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// TaskService defines use-case operations for tasks. Every method takes the
// resolved identity explicitly.
type TaskService interface {
	CreateTask(ctx context.Context, id domain.Identity, input CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id domain.Identity, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, id domain.Identity, input ListTasksInput) (*ListTasksResult, error)
	UpdateTask(ctx context.Context, id domain.Identity, taskID string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id domain.Identity, taskID string) error
}
