package domain

import (
	"strings"
	"time"
)

// TaskStatus is the completion state of a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Task is the protected resource. OwnerID is set at creation and never
// reassigned.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	OwnerID     string       `json:"user_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// TaskPatch lists the fields an update may change. The owner is deliberately
// absent.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *TaskPriority
	Status      *TaskStatus
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil
}

// Apply mutates t according to the patch. Completing a task stamps
// CompletedAt; moving it back to pending clears it.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
		switch *p.Status {
		case StatusCompleted:
			if t.CompletedAt == nil {
				ts := now
				t.CompletedAt = &ts
			}
		case StatusPending:
			t.CompletedAt = nil
		}
	}
	t.UpdatedAt = now
}

// TaskFilter is the closed set of terms a task query may carry. OwnerID is
// the only ownership term; nothing else can alias it.
type TaskFilter struct {
	ID       string
	OwnerID  string
	Status   TaskStatus
	Priority TaskPriority
	Search   string // case-insensitive substring on title or description
}

// Matches evaluates the filter against t in memory.
func (f TaskFilter) Matches(t *Task) bool {
	if f.ID != "" && t.ID != f.ID {
		return false
	}
	if f.OwnerID != "" && t.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Limit  int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize applies defaults and caps.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Skip is the number of rows to skip for this page.
func (p Page) Skip() int64 { return int64((p.Number - 1) * p.Limit) }

// TotalPages computes the page count for total rows.
func (p Page) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
