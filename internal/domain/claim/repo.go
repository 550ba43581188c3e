package claim

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain"
)

// Repository defines the interface for Claim persistence.
type Repository interface {
	domain.SyncedRepository[*Claim]

	// GetByClaimNumber retrieves a claim by its local number.
	GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error)

	// ListForVoyage retrieves all claims against one voyage, oldest first.
	ListForVoyage(ctx context.Context, voyageID id.ID) ([]*Claim, error)
}
