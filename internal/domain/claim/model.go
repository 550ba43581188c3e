// Package claim provides the Claim record: a demurrage or related claim
// raised against a voyage. Claims are numbered locally (CLM-YYYYMMDD-NNNN)
// and may also be mirrored from RADAR.
package claim

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// Type classifies the commercial nature of a claim.
type Type string

const (
	TypeDemurrage   Type = "DEMURRAGE"
	TypePostDeal    Type = "POST_DEAL"
	TypeDespatch    Type = "DESPATCH"
	TypeDeadFreight Type = "DEAD_FREIGHT"
	TypeOther       Type = "OTHER"
)

// Status is the review lifecycle of a claim.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusSubmitted   Status = "SUBMITTED"
	StatusSettled     Status = "SETTLED"
	StatusRejected    Status = "REJECTED"
)

// PaymentStatus tracks the money side independently of review status.
type PaymentStatus string

const (
	PaymentNotSent       PaymentStatus = "NOT_SENT"
	PaymentSent          PaymentStatus = "SENT"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
	PaymentTimebar       PaymentStatus = "TIMEBAR"
	PaymentDisputed      PaymentStatus = "DISPUTED"
)

// statusTransitions enumerates the allowed review-status moves.
var statusTransitions = map[Status][]Status{
	StatusDraft:       {StatusUnderReview},
	StatusUnderReview: {StatusSubmitted, StatusDraft, StatusRejected},
	StatusSubmitted:   {StatusSettled, StatusRejected, StatusUnderReview},
	StatusSettled:     {},
	StatusRejected:    {StatusDraft},
}

// Claim represents one claim against a voyage.
type Claim struct {
	entity.VersionedRecord
	entity.RadarSynced

	ClaimNumber   string        `db:"claim_number" json:"claimNumber"`
	Type          Type          `db:"claim_type" json:"claimType"`
	Status        Status        `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`
	VoyageID      id.ID         `db:"voyage_id" json:"voyageId"`

	ClaimedAmount decimal.Decimal  `db:"claimed_amount" json:"claimedAmount"`
	SettledAmount *decimal.Decimal `db:"settled_amount" json:"settledAmount,omitempty"`
	Currency      string           `db:"currency" json:"currency"`

	// LaytimeUsed drives the derived demurrage days figure.
	LaytimeUsed   *decimal.Decimal `db:"laytime_used" json:"laytimeUsed,omitempty"`
	DemurrageDays *decimal.Decimal `db:"demurrage_days" json:"demurrageDays,omitempty"`

	// Local-only fields, never touched by sync
	AssignedTo  *string `db:"assigned_to" json:"assignedTo,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`
}

// New creates a draft claim at version 0. The claim number is filled in by
// the service before the insert.
func New(voyageID id.ID, claimType Type) *Claim {
	return &Claim{
		VersionedRecord: entity.NewVersionedRecord(),
		Type:            claimType,
		Status:          StatusDraft,
		PaymentStatus:   PaymentNotSent,
		VoyageID:        voyageID,
		Currency:        "USD",
	}
}

// Validate implements entity.Validatable.
func (c *Claim) Validate(ctx context.Context) error {
	if id.IsNil(c.VoyageID) {
		return apperror.NewValidation("claim must reference a voyage").
			WithDetail("field", "voyageId")
	}
	switch c.Type {
	case TypeDemurrage, TypePostDeal, TypeDespatch, TypeDeadFreight, TypeOther:
	default:
		return apperror.NewValidation("invalid claim type").
			WithDetail("field", "claimType").
			WithDetail("value", string(c.Type))
	}
	if _, ok := statusTransitions[c.Status]; !ok {
		return apperror.NewValidation("invalid claim status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}
	if c.ClaimedAmount.IsNegative() {
		return apperror.NewValidation("claimed amount must not be negative").
			WithDetail("field", "claimedAmount")
	}
	if c.SettledAmount != nil && c.SettledAmount.IsNegative() {
		return apperror.NewValidation("settled amount must not be negative").
			WithDetail("field", "settledAmount")
	}
	return nil
}

// CanTransition reports whether the review status may move to target.
func (c *Claim) CanTransition(target Status) bool {
	for _, allowed := range statusTransitions[c.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transition moves the review status or fails with a business-rule error.
func (c *Claim) Transition(target Status) error {
	if !c.CanTransition(target) {
		return apperror.NewStatusTransition("claim", string(c.Status), string(target))
	}
	c.Status = target
	return nil
}

// ComputeDemurrageDays derives demurrage days from laytime used against the
// voyage's allowance. Only meaningful for demurrage claims.
func (c *Claim) ComputeDemurrageDays(laytimeAllowed decimal.Decimal) {
	if c.Type != TypeDemurrage || c.LaytimeUsed == nil {
		return
	}
	days := c.LaytimeUsed.Sub(laytimeAllowed)
	if days.IsNegative() {
		days = decimal.Zero
	}
	c.DemurrageDays = &days
}

// RadarFields is the subset of claim fields the external feed owns.
type RadarFields struct {
	Type          Type
	ClaimedAmount decimal.Decimal
	Currency      string
	LaytimeUsed   *decimal.Decimal
}

// ApplyRadar overwrites the RADAR-authoritative fields, leaving review
// status, payment status, assignment and description untouched.
func (c *Claim) ApplyRadar(in RadarFields) {
	c.Type = in.Type
	c.ClaimedAmount = in.ClaimedAmount
	if in.Currency != "" {
		c.Currency = in.Currency
	}
	c.LaytimeUsed = in.LaytimeUsed
}
