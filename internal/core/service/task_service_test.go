package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
	"github.com/Bakhromov-02/task-management/internal/testutil/memstore"
)

var (
	alice = domain.Identity{ID: "64b7f0c2a1b2c3d4e5f60001", Email: "alice@example.com", Role: domain.RoleUser}
	bob   = domain.Identity{ID: "64b7f0c2a1b2c3d4e5f60002", Email: "bob@example.com", Role: domain.RoleUser}
	admin = domain.Identity{ID: "64b7f0c2a1b2c3d4e5f60003", Email: "root@example.com", Role: domain.RoleAdmin}
)

func newTaskFixture() (*TaskService, *memstore.Tasks) {
	repo := memstore.NewTasks(nil)
	return NewTaskService(repo, zerolog.Nop()), repo
}

func mustCreate(t *testing.T, svc *TaskService, id domain.Identity, title string) *domain.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), id, ports.CreateTaskInput{Title: title})
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", title, err)
	}
	return task
}

func TestTaskService_CreateTask(t *testing.T) {
	svc, _ := newTaskFixture()

	task, err := svc.CreateTask(context.Background(), alice, ports.CreateTaskInput{Title: "  Write report ", Description: "quarterly"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if task.Title != "Write report" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if task.OwnerID != alice.ID {
		t.Fatalf("expected owner %s, got %s", alice.ID, task.OwnerID)
	}
	if task.Status != domain.StatusPending || task.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected defaults: status=%s priority=%s", task.Status, task.Priority)
	}
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	svc, _ := newTaskFixture()

	inputs := []ports.CreateTaskInput{
		{Title: ""},
		{Title: "   "},
		{Title: strings.Repeat("x", domain.MaxTitleLength+1)},
		{Title: "ok", Description: strings.Repeat("x", domain.MaxDescriptionLength+1)},
		{Title: "ok", Priority: "urgent"},
	}
	for _, in := range inputs {
		if _, err := svc.CreateTask(context.Background(), alice, in); !errors.Is(err, domain.ErrInvalidTask) {
			t.Fatalf("expected ErrInvalidTask for %+v, got %v", in, err)
		}
	}
}

func TestTaskService_CrossTenantAccessIsNotFound(t *testing.T) {
	svc, repo := newTaskFixture()
	task := mustCreate(t, svc, alice, "alice's task")

	if _, err := svc.GetTask(context.Background(), bob, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on read, got %v", err)
	}
	title := "hijacked"
	if _, err := svc.UpdateTask(context.Background(), bob, task.ID, domain.TaskPatch{Title: &title}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on update, got %v", err)
	}
	if err := svc.DeleteTask(context.Background(), bob, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on delete, got %v", err)
	}

	stored := repo.All()
	if len(stored) != 1 || stored[0].Title != "alice's task" {
		t.Fatalf("expected task to be untouched, got %+v", stored)
	}
}

func TestTaskService_AdminSeesEveryTask(t *testing.T) {
	svc, _ := newTaskFixture()
	task := mustCreate(t, svc, alice, "alice's task")
	mustCreate(t, svc, bob, "bob's task")

	got, err := svc.GetTask(context.Background(), admin, task.ID)
	if err != nil {
		t.Fatalf("admin GetTask: %v", err)
	}
	if got.OwnerID != alice.ID {
		t.Fatalf("unexpected owner %s", got.OwnerID)
	}

	all, err := svc.ListTasks(context.Background(), admin, ports.ListTasksInput{})
	if err != nil {
		t.Fatalf("admin ListTasks: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected 2 tasks for admin, got %d", all.Total)
	}

	onlyBob, err := svc.ListTasks(context.Background(), admin, ports.ListTasksInput{UserID: bob.ID})
	if err != nil {
		t.Fatalf("admin ListTasks by user: %v", err)
	}
	if onlyBob.Total != 1 || onlyBob.Items[0].OwnerID != bob.ID {
		t.Fatalf("expected only bob's task, got %+v", onlyBob.Items)
	}
}

func TestTaskService_ListTasks_UserIDIgnoredForNonAdmin(t *testing.T) {
	svc, _ := newTaskFixture()
	mustCreate(t, svc, alice, "alice's task")
	mustCreate(t, svc, bob, "bob's task")

	res, err := svc.ListTasks(context.Background(), alice, ports.ListTasksInput{UserID: bob.ID})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if res.Total != 1 || res.Items[0].OwnerID != alice.ID {
		t.Fatalf("expected only alice's task, got %+v", res.Items)
	}
}

func TestTaskService_ListTasks_FiltersAndPaging(t *testing.T) {
	svc, _ := newTaskFixture()
	for _, title := range []string{"Buy milk", "Write report", "Review report", "Call mom"} {
		mustCreate(t, svc, alice, title)
	}

	res, err := svc.ListTasks(context.Background(), alice, ports.ListTasksInput{Search: "REPORT", Limit: 1, Page: 2})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 1 || res.TotalPages != 2 || res.Page != 2 {
		t.Fatalf("unexpected page: total=%d items=%d pages=%d page=%d", res.Total, len(res.Items), res.TotalPages, res.Page)
	}

	if _, err := svc.ListTasks(context.Background(), alice, ports.ListTasksInput{Status: "done"}); !errors.Is(err, domain.ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask for bad status, got %v", err)
	}
}

func TestTaskService_UpdateTask_Completion(t *testing.T) {
	svc, _ := newTaskFixture()
	task := mustCreate(t, svc, alice, "finish me")

	completed := domain.StatusCompleted
	got, err := svc.UpdateTask(context.Background(), alice, task.ID, domain.TaskPatch{Status: &completed})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
	if got.OwnerID != alice.ID {
		t.Fatalf("owner changed to %s", got.OwnerID)
	}

	pending := domain.StatusPending
	got, err = svc.UpdateTask(context.Background(), alice, task.ID, domain.TaskPatch{Status: &pending})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.CompletedAt != nil {
		t.Fatalf("expected completed_at to be cleared")
	}

	if _, err := svc.UpdateTask(context.Background(), alice, task.ID, domain.TaskPatch{}); !errors.Is(err, domain.ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask for empty patch, got %v", err)
	}
}

func TestTaskService_InvalidID(t *testing.T) {
	svc, _ := newTaskFixture()

	if _, err := svc.GetTask(context.Background(), alice, "not-an-id"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestAnalyticsService_UserStats(t *testing.T) {
	svc, repo := newTaskFixture()
	mustCreate(t, svc, alice, "one")
	done := mustCreate(t, svc, alice, "two")
	mustCreate(t, svc, bob, "three")

	completed := domain.StatusCompleted
	if _, err := svc.UpdateTask(context.Background(), alice, done.ID, domain.TaskPatch{Status: &completed}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	analytics := NewAnalyticsService(repo)
	stats, err := analytics.UserStats(context.Background(), alice)
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if stats.TotalTasks != 2 || stats.CompletedTasks != 1 || stats.CompletionRate != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	adminStats, err := analytics.UserStats(context.Background(), admin)
	if err != nil {
		t.Fatalf("admin UserStats: %v", err)
	}
	if adminStats.TotalTasks != 0 {
		t.Fatalf("expected admin's own stats to be empty, got %+v", adminStats)
	}
}

func TestAnalyticsService_TaskAnalytics(t *testing.T) {
	users := memstore.NewUsers()
	repo := memstore.NewTasks(users)
	svc := NewTaskService(repo, zerolog.Nop())
	for i := 0; i < 3; i++ {
		mustCreate(t, svc, alice, "task")
	}
	mustCreate(t, svc, bob, "task")

	analytics := NewAnalyticsService(repo)
	report, err := analytics.TaskAnalytics(context.Background())
	if err != nil {
		t.Fatalf("TaskAnalytics: %v", err)
	}
	if report.Summary.TotalTasks != 4 || report.Summary.PendingTasks != 4 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if len(report.TopPerformers) != 1 || report.TopPerformers[0].UserID != alice.ID {
		t.Fatalf("expected alice as the only top performer, got %+v", report.TopPerformers)
	}
	if len(report.RecentActivity) != 1 || report.RecentActivity[0].Count != 4 {
		t.Fatalf("expected all tasks in recent activity, got %+v", report.RecentActivity)
	}
}
