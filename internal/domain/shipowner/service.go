package shipowner

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/tx"
	"github.com/PatrykKozyra/claims-management-system/internal/domain"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
)

// Service provides business logic for the ship owner catalog.
type Service struct {
	*domain.RecordService[*ShipOwner]
	repo Repository
}

// NewService creates a ship owner service.
func NewService(repo Repository, txManager tx.Manager, activitySvc *activity.Service) *Service {
	base := domain.NewRecordService(domain.RecordServiceConfig[*ShipOwner]{
		Repo:       repo,
		TxManager:  txManager,
		Activity:   activitySvc,
		EntityName: "ship owner",
	})

	svc := &Service{
		RecordService: base,
		repo:          repo,
	}

	base.Hooks().OnBeforeCreate(svc.checkCodeUnique)
	base.Hooks().OnBeforeUpdate(svc.checkCodeUnique)

	return svc
}

// checkCodeUnique rejects a second owner with the same code.
func (s *Service) checkCodeUnique(ctx context.Context, o *ShipOwner) error {
	existing, err := s.repo.GetByCode(ctx, o.Code)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != o.ID {
		return apperror.NewDuplicate("ship owner", "code", o.Code)
	}
	return nil
}

// GetByCode retrieves a ship owner by its short code.
func (s *Service) GetByCode(ctx context.Context, code string) (*ShipOwner, error) {
	return s.repo.GetByCode(ctx, code)
}
