package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
)

// AuditRepository persists access denials to the audit_events collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

func (r *AuditRepository) InsertDenial(ctx context.Context, d *domain.AccessDenial) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	required := make(bson.A, len(d.RequiredRoles))
	for i, role := range d.RequiredRoles {
		required[i] = string(role)
	}
	doc := bson.M{
		"type":           "access_denied",
		"actor_id":       d.ActorID,
		"actor_email":    d.ActorEmail,
		"actor_role":     string(d.ActorRole),
		"required_roles": required,
		"operation":      d.Operation,
		"occurred_at":    d.OccurredAt.UTC(),
	}
	if d.RequestID != "" {
		doc["request_id"] = d.RequestID
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
