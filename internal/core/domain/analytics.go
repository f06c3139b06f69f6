package domain

import "sort"

// TaskSummary aggregates task counts over the whole collection.
type TaskSummary struct {
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	PendingTasks   int64   `json:"pending_tasks"`
	CompletionRate float64 `json:"completion_rate"`
	TotalUsers     int64   `json:"total_users"`
}

// GroupCount is a count keyed by a grouping value (priority, status, day).
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// UserTaskStats is a per-user rollup used by the admin analytics view.
type UserTaskStats struct {
	UserID         string  `json:"user_id"`
	Email          string  `json:"email"`
	Role           Role    `json:"role,omitempty"`
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// TaskAnalytics is the admin-wide analytics report.
type TaskAnalytics struct {
	Summary         TaskSummary     `json:"summary"`
	TasksByPriority []GroupCount    `json:"tasks_by_priority"`
	TasksByStatus   []GroupCount    `json:"tasks_by_status"`
	TasksPerUser    []UserTaskStats `json:"tasks_per_user"`
	RecentActivity  []GroupCount    `json:"recent_activity"`
	TopPerformers   []UserTaskStats `json:"top_performers"`
}

// OwnerStats summarises one owner's tasks.
type OwnerStats struct {
	TotalTasks        int64   `json:"total_tasks"`
	CompletedTasks    int64   `json:"completed_tasks"`
	PendingTasks      int64   `json:"pending_tasks"`
	HighPriorityTasks int64   `json:"high_priority_tasks"`
	CompletionRate    float64 `json:"completion_rate"`
}

// CompletionRate returns completed/total as a percentage rounded to two
// decimals, or 0 when there are no tasks.
func CompletionRate(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(completed) / float64(total) * 100
	return float64(int64(r*100+0.5)) / 100
}

// TopPerformers picks users with at least minTasks tasks, ordered by
// completion rate and then task count, keeping at most n.
func TopPerformers(stats []UserTaskStats, minTasks, n int64) []UserTaskStats {
	out := make([]UserTaskStats, 0, len(stats))
	for _, s := range stats {
		if s.TotalTasks >= minTasks {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CompletionRate != out[j].CompletionRate {
			return out[i].CompletionRate > out[j].CompletionRate
		}
		return out[i].TotalTasks > out[j].TotalTasks
	})
	if int64(len(out)) > n {
		out = out[:n]
	}
	return out
}
