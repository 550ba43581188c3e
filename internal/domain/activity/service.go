package activity

import (
	"context"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	appctx "github.com/PatrykKozyra/claims-management-system/internal/core/context"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// Service fills in entry defaults and converts append failures into the
// AuditWriteFailed classification, which is always surfaced and never
// silently retried.
type Service struct {
	repo Repository
}

// NewService creates the activity log service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one entry. Actor defaults to the context user ("system" for
// worker and CLI mutations); ID and CreatedAt are generated when zero.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.Actor == "" {
		entry.Actor = appctx.GetUsername(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Append(ctx, &entry); err != nil {
		if apperror.IsAuditWriteFailed(err) {
			return err
		}
		return apperror.NewAuditWriteFailed(entry.EntityType, entry.EntityID.String(), err)
	}
	return nil
}

// ListFor returns the append-ordered trail for one entity.
func (s *Service) ListFor(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListFor(ctx, entityType, entityID, limit)
}
