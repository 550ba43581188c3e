package claim

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/core/tx"
	"github.com/PatrykKozyra/claims-management-system/internal/domain"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/pkg/numerator"
)

// Service provides business logic for claims.
type Service struct {
	*domain.SyncedRecordService[*Claim]
	repo      Repository
	voyages   voyage.Repository
	numerator *numerator.Service
}

// NewService creates a claim service.
func NewService(
	repo Repository,
	voyages voyage.Repository,
	txManager tx.Manager,
	activitySvc *activity.Service,
	num *numerator.Service,
) *Service {
	base := domain.NewSyncedRecordService(domain.SyncedRecordServiceConfig[*Claim]{
		RecordServiceConfig: domain.RecordServiceConfig[*Claim]{
			Repo:       repo,
			TxManager:  txManager,
			Activity:   activitySvc,
			EntityName: "claim",
		},
		SyncedRepo: repo,
		NewFn:      func() *Claim { return New(id.Nil(), TypeDemurrage) },
	})

	svc := &Service{
		SyncedRecordService: base,
		repo:                repo,
		voyages:             voyages,
		numerator:           num,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates the claim number, checks the voyage reference
// and derives demurrage days from the voyage's laytime allowance.
func (s *Service) prepareForCreate(ctx context.Context, c *Claim) error {
	v, err := s.voyages.GetByID(ctx, c.VoyageID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("referenced voyage does not exist").
				WithDetail("voyageId", c.VoyageID.String())
		}
		return err
	}

	if c.ClaimNumber == "" {
		number, err := s.numerator.NextClaimNumber(ctx)
		if err != nil {
			return fmt.Errorf("generate claim number: %w", err)
		}
		c.ClaimNumber = number
	}
	if c.Currency == "" {
		c.Currency = v.Currency
	}
	c.ComputeDemurrageDays(v.LaytimeAllowed)

	return nil
}

// GetByClaimNumber retrieves a claim by its local number.
func (s *Service) GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error) {
	return s.repo.GetByClaimNumber(ctx, claimNumber)
}

// ListForVoyage retrieves all claims against one voyage, oldest first.
func (s *Service) ListForVoyage(ctx context.Context, voyageID id.ID) ([]*Claim, error) {
	return s.repo.ListForVoyage(ctx, voyageID)
}

// UpsertFromRadar applies one external claim record. Review status, payment
// status and assignment are local and survive; on first sight the claim gets
// a local number and starts as a draft. Demurrage days are recomputed against
// the voyage's current laytime allowance.
func (s *Service) UpsertFromRadar(
	ctx context.Context,
	externalID string,
	payload json.RawMessage,
	fields RadarFields,
	voyageID id.ID,
) (*Claim, error) {
	v, err := s.voyages.GetByID(ctx, voyageID)
	if err != nil {
		return nil, err
	}

	return s.Upsert(ctx, externalID, payload, func(ctx context.Context, c *Claim, created bool) error {
		if created {
			number, err := s.numerator.NextClaimNumber(ctx)
			if err != nil {
				return fmt.Errorf("generate claim number: %w", err)
			}
			c.ClaimNumber = number
			c.VoyageID = voyageID
		}
		c.ApplyRadar(fields)
		c.ComputeDemurrageDays(v.LaytimeAllowed)
		return nil
	})
}

// UpdateDetails edits the claim's amount, laytime and description. A settled
// claim is immutable. Demurrage days are recomputed against the voyage's
// current laytime allowance.
func (s *Service) UpdateDetails(
	ctx context.Context,
	claimID id.ID,
	expectedVersion int,
	claimedAmount decimal.Decimal,
	laytimeUsed *decimal.Decimal,
	description *string,
) (*Claim, error) {
	return s.Write(ctx, claimID, expectedVersion, activity.ActionUpdated, "details updated",
		func(ctx context.Context, c *Claim) error {
			if c.Status == StatusSettled {
				return apperror.NewBusinessRule("claim_settled", "a settled claim cannot be edited")
			}

			v, err := s.voyages.GetByID(ctx, c.VoyageID)
			if err != nil {
				return err
			}

			c.ClaimedAmount = claimedAmount
			c.LaytimeUsed = laytimeUsed
			c.Description = description
			c.ComputeDemurrageDays(v.LaytimeAllowed)
			return nil
		})
}

// TransitionStatus moves the review status along the allowed graph.
func (s *Service) TransitionStatus(ctx context.Context, claimID id.ID, expectedVersion int, target Status) (*Claim, error) {
	return s.Write(ctx, claimID, expectedVersion, activity.ActionStatusChanged, "status -> "+string(target),
		func(ctx context.Context, c *Claim) error {
			return c.Transition(target)
		})
}

// Settle records the settled amount and moves the claim to SETTLED.
func (s *Service) Settle(ctx context.Context, claimID id.ID, expectedVersion int, amount decimal.Decimal) (*Claim, error) {
	if amount.IsNegative() {
		return nil, apperror.NewValidation("settled amount must not be negative").
			WithDetail("field", "settledAmount")
	}
	return s.Write(ctx, claimID, expectedVersion, activity.ActionStatusChanged, "settled",
		func(ctx context.Context, c *Claim) error {
			if err := c.Transition(StatusSettled); err != nil {
				return err
			}
			c.SettledAmount = &amount
			c.PaymentStatus = PaymentPaid
			return nil
		})
}

// AssignTo routes a claim to an analyst.
func (s *Service) AssignTo(ctx context.Context, claimID id.ID, expectedVersion int, analyst string) (*Claim, error) {
	if analyst == "" {
		return nil, apperror.NewValidation("analyst is required").WithDetail("field", "analyst")
	}

	current, err := s.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	action := activity.ActionAssigned
	if current.AssignedTo != nil && *current.AssignedTo != analyst {
		action = activity.ActionReassigned
	}

	return s.Write(ctx, claimID, expectedVersion, action, "assigned to "+analyst,
		func(ctx context.Context, c *Claim) error {
			c.AssignedTo = &analyst
			return nil
		})
}

// SetPaymentStatus updates the money-side status independently of review.
func (s *Service) SetPaymentStatus(ctx context.Context, claimID id.ID, expectedVersion int, status PaymentStatus) (*Claim, error) {
	switch status {
	case PaymentNotSent, PaymentSent, PaymentPartiallyPaid, PaymentPaid, PaymentTimebar, PaymentDisputed:
	default:
		return nil, apperror.NewValidation("invalid payment status").
			WithDetail("field", "paymentStatus").
			WithDetail("value", string(status))
	}
	return s.Write(ctx, claimID, expectedVersion, activity.ActionUpdated, "payment status -> "+string(status),
		func(ctx context.Context, c *Claim) error {
			c.PaymentStatus = status
			return nil
		})
}
