package shipowner

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/domain"
)

// Repository defines the interface for ShipOwner persistence.
type Repository interface {
	domain.VersionedRepository[*ShipOwner]

	// GetByCode retrieves a ship owner by its short code.
	GetByCode(ctx context.Context, code string) (*ShipOwner, error)
}
