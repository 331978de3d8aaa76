package ports

import (
	"context"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

// AuditRepository persists audit events to the audit trail collection.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditService processes audit events dequeued by the dispatcher workers.
type AuditService interface {
	Process(ctx context.Context, event domain.AuditEvent) error
}
