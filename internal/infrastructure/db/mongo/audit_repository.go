package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

const auditCollection = "audit_events"

// AuditRepository persists account mutation events to the audit trail.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"actor":        event.Actor,
		"action":       event.Action,
		"target":       event.Target,
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.Detail != "" {
		doc["detail"] = event.Detail
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
