package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// AnalyticsRepository implements ports.AnalyticsRepository with aggregation
// pipelines over the tasks collection.
type AnalyticsRepository struct {
	tasks *mongo.Collection
	users *mongo.Collection
}

func NewAnalyticsRepository(db *mongo.Database) *AnalyticsRepository {
	return &AnalyticsRepository{
		tasks: db.Collection(tasksCollection),
		users: db.Collection(usersCollection),
	}
}

type groupDocument struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

type countsDocument struct {
	Total     int64 `bson:"total"`
	Completed int64 `bson:"completed"`
	High      int64 `bson:"high"`
}

type userStatsDocument struct {
	UserID    primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	Role      string             `bson:"role"`
	Total     int64              `bson:"total"`
	Completed int64              `bson:"completed"`
}

type analyticsDocument struct {
	Summary    []countsDocument    `bson:"summary"`
	ByPriority []groupDocument     `bson:"by_priority"`
	ByStatus   []groupDocument     `bson:"by_status"`
	PerUser    []userStatsDocument `bson:"per_user"`
	Recent     []groupDocument     `bson:"recent"`
}

func countIf(field string, value any) bson.D {
	return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$" + field, value}}}, 1, 0,
	}}}}}
}

var countsGroup = bson.D{{Key: "$group", Value: bson.D{
	{Key: "_id", Value: nil},
	{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
	{Key: "completed", Value: countIf("status", string(domain.StatusCompleted))},
	{Key: "high", Value: countIf("priority", string(domain.PriorityHigh))},
}}}

func groupCount(field string) bson.A {
	return bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
}

func analyticsPipeline(since time.Time) mongo.Pipeline {
	perUser := bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user_id"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "completed", Value: countIf("status", string(domain.StatusCompleted))},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "total", Value: 1},
			{Key: "completed", Value: 1},
			{Key: "email", Value: "$user.email"},
			{Key: "role", Value: "$user.role"},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	recent := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	return mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "summary", Value: bson.A{countsGroup}},
			{Key: "by_priority", Value: groupCount("priority")},
			{Key: "by_status", Value: groupCount("status")},
			{Key: "per_user", Value: perUser},
			{Key: "recent", Value: recent},
		}}},
	}
}

func (r *AnalyticsRepository) TaskAnalytics(ctx context.Context, since time.Time, minTasks int64, topN int64) (*domain.TaskAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.tasks.Aggregate(ctx, analyticsPipeline(since))
	if err != nil {
		return nil, fmt.Errorf("aggregate analytics: %w", err)
	}
	defer cur.Close(ctx)

	var docs []analyticsDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode analytics: %w", err)
	}
	var doc analyticsDocument
	if len(docs) > 0 {
		doc = docs[0]
	}

	totalUsers, err := r.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	out := &domain.TaskAnalytics{
		TasksByPriority: toGroupCounts(doc.ByPriority),
		TasksByStatus:   toGroupCounts(doc.ByStatus),
		RecentActivity:  toGroupCounts(doc.Recent),
		TasksPerUser:    make([]domain.UserTaskStats, 0, len(doc.PerUser)),
	}
	if len(doc.Summary) > 0 {
		s := doc.Summary[0]
		out.Summary = domain.TaskSummary{
			TotalTasks:     s.Total,
			CompletedTasks: s.Completed,
			PendingTasks:   s.Total - s.Completed,
			CompletionRate: domain.CompletionRate(s.Completed, s.Total),
		}
	}
	out.Summary.TotalUsers = totalUsers

	for _, u := range doc.PerUser {
		out.TasksPerUser = append(out.TasksPerUser, domain.UserTaskStats{
			UserID:         u.UserID.Hex(),
			Email:          u.Email,
			Role:           domain.Role(u.Role),
			TotalTasks:     u.Total,
			CompletedTasks: u.Completed,
			CompletionRate: domain.CompletionRate(u.Completed, u.Total),
		})
	}
	out.TopPerformers = domain.TopPerformers(out.TasksPerUser, minTasks, topN)
	return out, nil
}

func (r *AnalyticsRepository) OwnerStats(ctx context.Context, filter auth.ScopedTaskFilter) (*domain.OwnerStats, error) {
	query, err := buildTaskQuery(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: query}},
		countsGroup,
	}
	cur, err := r.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate owner stats: %w", err)
	}
	defer cur.Close(ctx)

	var docs []countsDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode owner stats: %w", err)
	}

	stats := &domain.OwnerStats{}
	if len(docs) > 0 {
		d := docs[0]
		stats.TotalTasks = d.Total
		stats.CompletedTasks = d.Completed
		stats.PendingTasks = d.Total - d.Completed
		stats.HighPriorityTasks = d.High
	}
	return stats, nil
}

func toGroupCounts(docs []groupDocument) []domain.GroupCount {
	out := make([]domain.GroupCount, len(docs))
	for i, d := range docs {
		out[i] = domain.GroupCount{Key: d.Key, Count: d.Count}
	}
	return out
}
