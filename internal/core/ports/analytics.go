package ports

import (
	"context"
	"time"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// AnalyticsRepository runs the aggregation queries behind the analytics
// endpoints.
type AnalyticsRepository interface {
	// TaskAnalytics aggregates over all tasks. since bounds recent activity;
	// minTasks is the threshold for top performers.
	TaskAnalytics(ctx context.Context, since time.Time, minTasks int64, topN int64) (*domain.TaskAnalytics, error)
	// OwnerStats aggregates over the tasks matching filter.
	OwnerStats(ctx context.Context, filter auth.ScopedTaskFilter) (*domain.OwnerStats, error)
}

type AnalyticsService interface {
	TaskAnalytics(ctx context.Context) (*domain.TaskAnalytics, error)
	UserStats(ctx context.Context, id domain.Identity) (*domain.OwnerStats, error)
}
