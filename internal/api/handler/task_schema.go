package handler

import (
	"time"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

type createTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

// updateTaskRequest uses pointers so absent fields are left unchanged.
type updateTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Priority    *string `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Status      *string `json:"status"      validate:"omitempty,oneof=pending completed"`
}

type listTasksRequest struct {
	Page     int    `query:"page"     validate:"omitempty,min=1"`
	Limit    int    `query:"limit"    validate:"omitempty,min=1"`
	Status   string `query:"status"   validate:"omitempty,oneof=pending completed"`
	Priority string `query:"priority" validate:"omitempty,oneof=low medium high"`
	Search   string `query:"search"`
	UserID   string `query:"userId"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	UserID      string     `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type listTasksResponse struct {
	Items      []*taskResponse `json:"items"`
	Pagination pagination      `json:"pagination"`
}

func toTaskResponse(t *domain.Task) *taskResponse {
	return &taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		UserID:      t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

func (r updateTaskRequest) toPatch() domain.TaskPatch {
	p := domain.TaskPatch{Title: r.Title, Description: r.Description}
	if r.Priority != nil {
		v := domain.TaskPriority(*r.Priority)
		p.Priority = &v
	}
	if r.Status != nil {
		v := domain.TaskStatus(*r.Status)
		p.Status = &v
	}
	return p
}
