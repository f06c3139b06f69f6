package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// TaskRepository implements ports.TaskRepository using MongoDB. Every query
// is derived from an auth.ScopedTaskFilter.
type TaskRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{coll: db.Collection(tasksCollection), now: time.Now}
}

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	UserID      primitive.ObjectID `bson:"user_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty"`
}

func (d *taskDocument) toDomain() *domain.Task {
	t := &domain.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.TaskStatus(d.Status),
		Priority:    domain.TaskPriority(d.Priority),
		OwnerID:     d.UserID.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.CompletedAt != nil {
		ts := d.CompletedAt.UTC()
		t.CompletedAt = &ts
	}
	return t
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	owner, err := primitive.ObjectIDFromHex(task.OwnerID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := taskDocument{
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		UserID:      owner,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		CompletedAt: task.CompletedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert task: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *TaskRepository) FindOne(ctx context.Context, filter auth.ScopedTaskFilter) (*domain.Task, error) {
	query, err := buildTaskQuery(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc taskDocument
	if err := r.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) List(ctx context.Context, filter auth.ScopedTaskFilter, page domain.Page) ([]*domain.Task, int64, error) {
	query, err := buildTaskQuery(filter)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer cur.Close(ctx)

	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode tasks: %w", err)
	}
	tasks := make([]*domain.Task, len(docs))
	for i := range docs {
		tasks[i] = docs[i].toDomain()
	}
	return tasks, total, nil
}

// Update applies patch atomically to the single task matching filter.
func (r *TaskRepository) Update(ctx context.Context, filter auth.ScopedTaskFilter, patch domain.TaskPatch) (*domain.Task, error) {
	query, err := buildTaskQuery(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = r.coll.FindOneAndUpdate(ctx, query, buildTaskUpdate(patch, r.now().UTC()), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) Delete(ctx context.Context, filter auth.ScopedTaskFilter) error {
	query, err := buildTaskQuery(filter)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, query)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// buildTaskQuery translates a scoped filter into a Mongo query. The owner
// term maps only to user_id and search only to an $or over title and
// description.
func buildTaskQuery(filter auth.ScopedTaskFilter) (bson.M, error) {
	f, err := filter.Filter()
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	if f.ID != "" {
		oid, err := primitive.ObjectIDFromHex(f.ID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		query["_id"] = oid
	}
	if f.OwnerID != "" {
		oid, err := primitive.ObjectIDFromHex(f.OwnerID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		query["user_id"] = oid
	}
	if f.Status != "" {
		query["status"] = string(f.Status)
	}
	if f.Priority != "" {
		query["priority"] = string(f.Priority)
	}
	if f.Search != "" {
		re := caseInsensitiveContains(f.Search)
		query["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	return query, nil
}

// buildTaskUpdate renders patch as an update pipeline. Literal values are
// wrapped in $literal so user input is never read as a field path.
// Completing a task keeps an existing completed_at; reopening removes it.
func buildTaskUpdate(patch domain.TaskPatch, now time.Time) mongo.Pipeline {
	set := bson.D{{Key: "updated_at", Value: now}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: literal(*patch.Title)})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: literal(*patch.Description)})
	}
	if patch.Priority != nil {
		set = append(set, bson.E{Key: "priority", Value: literal(string(*patch.Priority))})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: literal(string(*patch.Status))})
		if *patch.Status == domain.StatusCompleted {
			set = append(set, bson.E{Key: "completed_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$completed_at", now}}}})
		}
	}

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	if patch.Status != nil && *patch.Status == domain.StatusPending {
		pipeline = append(pipeline, bson.D{{Key: "$unset", Value: "completed_at"}})
	}
	return pipeline
}

func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}
