package voyage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/core/tx"
	"github.com/PatrykKozyra/claims-management-system/internal/domain"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
)

// Service provides business logic for voyages.
// Uses composition with domain.SyncedRecordService for the guarded lifecycle.
type Service struct {
	*domain.SyncedRecordService[*Voyage]
	repo Repository
}

// NewService creates a voyage service.
func NewService(repo Repository, txManager tx.Manager, activitySvc *activity.Service) *Service {
	base := domain.NewSyncedRecordService(domain.SyncedRecordServiceConfig[*Voyage]{
		RecordServiceConfig: domain.RecordServiceConfig[*Voyage]{
			Repo:       repo,
			TxManager:  txManager,
			Activity:   activitySvc,
			EntityName: "voyage",
		},
		SyncedRepo: repo,
		NewFn:      func() *Voyage { return New("", "") },
	})

	svc := &Service{
		SyncedRecordService: base,
		repo:                repo,
	}

	base.Hooks().OnBeforeCreate(svc.checkVoyageNumberUnique)

	return svc
}

// checkVoyageNumberUnique rejects a second voyage with the same number.
func (s *Service) checkVoyageNumberUnique(ctx context.Context, v *Voyage) error {
	existing, err := s.repo.GetByVoyageNumber(ctx, v.VoyageNumber)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != v.ID {
		return apperror.NewDuplicate("voyage", "voyageNumber", v.VoyageNumber)
	}
	return nil
}

// GetByVoyageNumber retrieves a voyage by its commercial voyage number.
func (s *Service) GetByVoyageNumber(ctx context.Context, voyageNumber string) (*Voyage, error) {
	return s.repo.GetByVoyageNumber(ctx, voyageNumber)
}

// AssignTo routes a voyage to an analyst. expectedVersion is the version the
// caller last saw; a stale value fails with a concurrent-modification error.
func (s *Service) AssignTo(ctx context.Context, voyageID id.ID, expectedVersion int, analyst string) (*Voyage, error) {
	if analyst == "" {
		return nil, apperror.NewValidation("analyst is required").WithDetail("field", "analyst")
	}

	// Reassignment is logged distinctly from first assignment.
	current, err := s.GetByID(ctx, voyageID)
	if err != nil {
		return nil, err
	}
	action := activity.ActionAssigned
	if current.IsAssigned() && *current.AssignedAnalyst != analyst {
		action = activity.ActionReassigned
	}

	return s.Write(ctx, voyageID, expectedVersion, action, "assigned to "+analyst,
		func(ctx context.Context, v *Voyage) error {
			v.Assign(analyst, time.Now().UTC())
			return nil
		})
}

// Complete marks the voyage's claims work finished.
func (s *Service) Complete(ctx context.Context, voyageID id.ID, expectedVersion int) (*Voyage, error) {
	return s.Write(ctx, voyageID, expectedVersion, activity.ActionStatusChanged, "assignment completed",
		func(ctx context.Context, v *Voyage) error {
			if v.AssignmentStatus != entity.AssignmentAssigned {
				return apperror.NewBusinessRule("voyage_not_assigned",
					"only an assigned voyage can be completed").
					WithDetail("assignmentStatus", string(v.AssignmentStatus))
			}
			v.AssignmentStatus = entity.AssignmentCompleted
			return nil
		})
}

// UpsertFromRadar applies one external voyage record. The feed-authoritative
// fields are overwritten; assignment and notes survive.
func (s *Service) UpsertFromRadar(
	ctx context.Context,
	externalID string,
	payload json.RawMessage,
	fields RadarFields,
	shipOwnerID *id.ID,
) (*Voyage, error) {
	return s.Upsert(ctx, externalID, payload, func(ctx context.Context, v *Voyage, created bool) error {
		v.ApplyRadar(fields)
		v.ShipOwnerID = shipOwnerID
		return nil
	})
}

// Update replaces the voyage's commercial fields and notes. Intended for
// voyages created locally; for RADAR-mirrored voyages the next sync cycle
// overwrites the commercial fields again.
func (s *Service) Update(ctx context.Context, voyageID id.ID, expectedVersion int, apply func(v *Voyage)) (*Voyage, error) {
	return s.Write(ctx, voyageID, expectedVersion, activity.ActionUpdated, "details updated",
		func(ctx context.Context, v *Voyage) error {
			apply(v)
			return nil
		})
}

// UpdateNotes replaces the local notes field.
func (s *Service) UpdateNotes(ctx context.Context, voyageID id.ID, expectedVersion int, notes *string) (*Voyage, error) {
	return s.Write(ctx, voyageID, expectedVersion, activity.ActionUpdated, "notes updated",
		func(ctx context.Context, v *Voyage) error {
			v.Notes = notes
			return nil
		})
}
