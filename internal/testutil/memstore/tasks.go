package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

type Tasks struct {
	mu    sync.Mutex
	tasks []*domain.Task
	users *Users
	now   func() time.Time
}

// NewTasks returns an empty task store. users is consulted for analytics
// and may be nil.
func NewTasks(users *Users) *Tasks {
	return &Tasks{users: users, now: time.Now}
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return &c
}

func resolve(filter auth.ScopedTaskFilter) (domain.TaskFilter, error) {
	f, err := filter.Filter()
	if err != nil {
		return f, err
	}
	if f.ID != "" && !primitive.IsValidObjectID(f.ID) {
		return f, domain.ErrInvalidID
	}
	if f.OwnerID != "" && !primitive.IsValidObjectID(f.OwnerID) {
		return f, domain.ErrInvalidID
	}
	return f, nil
}

func (s *Tasks) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneTask(task)
	c.ID = primitive.NewObjectID().Hex()
	s.tasks = append(s.tasks, c)
	return cloneTask(c), nil
}

func (s *Tasks) FindOne(ctx context.Context, filter auth.ScopedTaskFilter) (*domain.Task, error) {
	f, err := resolve(filter)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if f.Matches(t) {
			return cloneTask(t), nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (s *Tasks) List(ctx context.Context, filter auth.ScopedTaskFilter, page domain.Page) ([]*domain.Task, int64, error) {
	f, err := resolve(filter)
	if err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Task
	for _, t := range s.tasks {
		if f.Matches(t) {
			matched = append(matched, cloneTask(t))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, page.Normalize()), int64(len(matched)), nil
}

func (s *Tasks) Update(ctx context.Context, filter auth.ScopedTaskFilter, patch domain.TaskPatch) (*domain.Task, error) {
	f, err := resolve(filter)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if f.Matches(t) {
			patch.Apply(t, s.now().UTC())
			return cloneTask(t), nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (s *Tasks) Delete(ctx context.Context, filter auth.ScopedTaskFilter) error {
	f, err := resolve(filter)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if f.Matches(t) {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

// All returns every stored task regardless of owner.
func (s *Tasks) All() []*domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

func (s *Tasks) OwnerStats(ctx context.Context, filter auth.ScopedTaskFilter) (*domain.OwnerStats, error) {
	f, err := resolve(filter)
	if err != nil {
		return nil, err
	}
	stats := &domain.OwnerStats{}
	for _, t := range s.All() {
		if !f.Matches(t) {
			continue
		}
		stats.TotalTasks++
		if t.Status == domain.StatusCompleted {
			stats.CompletedTasks++
		} else {
			stats.PendingTasks++
		}
		if t.Priority == domain.PriorityHigh {
			stats.HighPriorityTasks++
		}
	}
	return stats, nil
}

func (s *Tasks) TaskAnalytics(ctx context.Context, since time.Time, minTasks int64, topN int64) (*domain.TaskAnalytics, error) {
	tasks := s.All()
	out := &domain.TaskAnalytics{
		TasksByPriority: []domain.GroupCount{},
		TasksByStatus:   []domain.GroupCount{},
		TasksPerUser:    []domain.UserTaskStats{},
		RecentActivity:  []domain.GroupCount{},
		TopPerformers:   []domain.UserTaskStats{},
	}

	byPriority := map[string]int64{}
	byStatus := map[string]int64{}
	byDay := map[string]int64{}
	perUser := map[string]*domain.UserTaskStats{}
	for _, t := range tasks {
		out.Summary.TotalTasks++
		if t.Status == domain.StatusCompleted {
			out.Summary.CompletedTasks++
		}
		byPriority[string(t.Priority)]++
		byStatus[string(t.Status)]++
		if !t.CreatedAt.Before(since) {
			byDay[t.CreatedAt.UTC().Format("2006-01-02")]++
		}
		u, ok := perUser[t.OwnerID]
		if !ok {
			u = &domain.UserTaskStats{UserID: t.OwnerID}
			perUser[t.OwnerID] = u
		}
		u.TotalTasks++
		if t.Status == domain.StatusCompleted {
			u.CompletedTasks++
		}
	}
	out.Summary.PendingTasks = out.Summary.TotalTasks - out.Summary.CompletedTasks
	out.Summary.CompletionRate = domain.CompletionRate(out.Summary.CompletedTasks, out.Summary.TotalTasks)

	var users map[string]domain.User
	if s.users != nil {
		users = s.users.snapshot()
		out.Summary.TotalUsers = int64(len(users))
	}

	out.TasksByPriority = sortedCounts(byPriority, false)
	out.TasksByStatus = sortedCounts(byStatus, false)
	out.RecentActivity = sortedCounts(byDay, true)

	for id, u := range perUser {
		if rec, ok := users[id]; ok {
			u.Email, u.Role = rec.Email, rec.Role
		}
		u.CompletionRate = domain.CompletionRate(u.CompletedTasks, u.TotalTasks)
		out.TasksPerUser = append(out.TasksPerUser, *u)
	}
	sort.Slice(out.TasksPerUser, func(i, j int) bool {
		a, b := out.TasksPerUser[i], out.TasksPerUser[j]
		if a.TotalTasks != b.TotalTasks {
			return a.TotalTasks > b.TotalTasks
		}
		return a.UserID < b.UserID
	})

	out.TopPerformers = domain.TopPerformers(out.TasksPerUser, minTasks, topN)
	return out, nil
}

func sortedCounts(m map[string]int64, byKey bool) []domain.GroupCount {
	out := make([]domain.GroupCount, 0, len(m))
	for k, v := range m {
		out = append(out, domain.GroupCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if byKey || out[i].Count == out[j].Count {
			return out[i].Key < out[j].Key
		}
		return out[i].Count > out[j].Count
	})
	return out
}
