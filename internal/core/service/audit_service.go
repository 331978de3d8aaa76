package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns the AuditService implementation that persists
// events to the audit trail.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Process(ctx context.Context, event domain.AuditEvent) error {
	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	s.log.Debug().
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("target", event.Target).
		Msg("audit event recorded")
	return nil
}
