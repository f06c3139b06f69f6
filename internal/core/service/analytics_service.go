package service

import (
	"context"
	"time"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

const (
	recentActivityWindow = 30 * 24 * time.Hour
	topPerformerMinTasks = 3
	topPerformerLimit    = 10
)

type AnalyticsService struct {
	repo ports.AnalyticsRepository
	now  func() time.Time
}

func NewAnalyticsService(repo ports.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo, now: time.Now}
}

// TaskAnalytics builds the admin-wide report. Callers gate it by role.
func (s *AnalyticsService) TaskAnalytics(ctx context.Context) (*domain.TaskAnalytics, error) {
	since := s.now().UTC().Add(-recentActivityWindow)
	return s.repo.TaskAnalytics(ctx, since, topPerformerMinTasks, topPerformerLimit)
}

// UserStats summarises the caller's own tasks, admins included.
func (s *AnalyticsService) UserStats(ctx context.Context, id domain.Identity) (*domain.OwnerStats, error) {
	stats, err := s.repo.OwnerStats(ctx, auth.Scope(id, domain.TaskFilter{OwnerID: id.ID}))
	if err != nil {
		return nil, err
	}
	stats.CompletionRate = domain.CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	return stats, nil
}
