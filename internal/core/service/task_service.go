package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

// TaskService implements task use cases. Every query is built through
// auth.Scope, so callers only ever see their own tasks unless they are
// admins.
type TaskService struct {
	repo   ports.TaskRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewTaskService(repo ports.TaskRepository, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger, now: time.Now}
}

func (s *TaskService) CreateTask(ctx context.Context, id domain.Identity, input ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", domain.ErrInvalidTask, priority)
	}

	now := s.now().UTC()
	task, err := s.repo.Create(ctx, &domain.Task{
		Title:       title,
		Description: description,
		Status:      domain.StatusPending,
		Priority:    priority,
		OwnerID:     id.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("task_id", task.ID).Str("user_id", id.ID).Msg("task created")
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id domain.Identity, taskID string) (*domain.Task, error) {
	return s.repo.FindOne(ctx, auth.Scope(id, domain.TaskFilter{ID: taskID}))
}

// ListTasks returns a page of tasks. input.UserID selects a target user for
// admins and is ignored for everyone else.
func (s *TaskService) ListTasks(ctx context.Context, id domain.Identity, input ports.ListTasksInput) (*ports.ListTasksResult, error) {
	if input.Status != "" && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidTask, input.Status)
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", domain.ErrInvalidTask, input.Priority)
	}

	base := domain.TaskFilter{
		Status:   input.Status,
		Priority: input.Priority,
		Search:   strings.TrimSpace(input.Search),
	}
	if id.IsAdmin() {
		base.OwnerID = input.UserID
	}
	page := domain.Page{Number: input.Page, Limit: input.Limit}.Normalize()

	tasks, total, err := s.repo.List(ctx, auth.Scope(id, base), page)
	if err != nil {
		return nil, err
	}
	return &ports.ListTasksResult{
		Items:      tasks,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id domain.Identity, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidTask)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if err := validateDescription(description); err != nil {
			return nil, err
		}
		patch.Description = &description
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", domain.ErrInvalidTask, *patch.Priority)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", domain.ErrInvalidTask, *patch.Status)
	}

	task, err := s.repo.Update(ctx, auth.Scope(id, domain.TaskFilter{ID: taskID}), patch)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("task_id", task.ID).Str("user_id", id.ID).Msg("task updated")
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id domain.Identity, taskID string) error {
	if err := s.repo.Delete(ctx, auth.Scope(id, domain.TaskFilter{ID: taskID})); err != nil {
		return err
	}
	s.logger.Info().Str("task_id", taskID).Str("user_id", id.ID).Msg("task deleted")
	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidTask)
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", domain.ErrInvalidTask, domain.MaxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrInvalidTask, domain.MaxDescriptionLength)
	}
	return nil
}
