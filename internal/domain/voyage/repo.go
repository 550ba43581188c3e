package voyage

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/domain"
)

// Repository defines the interface for Voyage persistence.
type Repository interface {
	domain.SyncedRepository[*Voyage]

	// GetByVoyageNumber retrieves a voyage by its commercial voyage number.
	GetByVoyageNumber(ctx context.Context, voyageNumber string) (*Voyage, error)
}
