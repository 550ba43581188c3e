package dto

import (
	"github.com/shopspring/decimal"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
)

// CreateClaimRequest is the request body for raising a claim locally.
type CreateClaimRequest struct {
	VoyageID      string           `json:"voyageId" binding:"required"`
	Type          string           `json:"claimType" binding:"required"`
	ClaimedAmount decimal.Decimal  `json:"claimedAmount"`
	Currency      string           `json:"currency"`
	LaytimeUsed   *decimal.Decimal `json:"laytimeUsed"`
	Description   *string          `json:"description"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateClaimRequest) ToEntity() (*claim.Claim, error) {
	voyageID, err := id.Parse(r.VoyageID)
	if err != nil {
		return nil, err
	}

	c := claim.New(voyageID, claim.Type(r.Type))
	c.ClaimedAmount = r.ClaimedAmount
	if r.Currency != "" {
		c.Currency = r.Currency
	}
	c.LaytimeUsed = r.LaytimeUsed
	c.Description = r.Description
	return c, nil
}

// UpdateClaimRequest edits a claim's amount, laytime and description.
type UpdateClaimRequest struct {
	ClaimedAmount decimal.Decimal  `json:"claimedAmount"`
	LaytimeUsed   *decimal.Decimal `json:"laytimeUsed"`
	Description   *string          `json:"description"`
	Version       int              `json:"version" binding:"min=0"`
}

// TransitionClaimRequest moves the review status.
type TransitionClaimRequest struct {
	Status  string `json:"status" binding:"required"`
	Version int    `json:"version" binding:"min=0"`
}

// SettleClaimRequest settles the claim with a final amount.
type SettleClaimRequest struct {
	SettledAmount decimal.Decimal `json:"settledAmount" binding:"required"`
	Version       int             `json:"version" binding:"min=0"`
}

// PaymentStatusRequest updates the money-side status.
type PaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
	Version       int    `json:"version" binding:"min=0"`
}
