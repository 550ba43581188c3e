package record_repo

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
)

// ShipOwnerRepo persists the ship owner catalog in the "ship_owners" table.
// Ship owners are local reference data and are not mirrored from RADAR.
type ShipOwnerRepo struct {
	*BaseRecordRepo[*shipowner.ShipOwner]
}

// NewShipOwnerRepo creates the ship owner repository.
func NewShipOwnerRepo(txm *postgres.TxManager) *ShipOwnerRepo {
	return &ShipOwnerRepo{
		BaseRecordRepo: NewBaseRecordRepo(txm, Config[*shipowner.ShipOwner]{
			Table:      "ship_owners",
			EntityName: "ship owner",
			SearchCols: []string{"code", "name"},
			NewFn:      func() *shipowner.ShipOwner { return &shipowner.ShipOwner{} },
		}),
	}
}

// GetByCode retrieves a ship owner by its short code.
func (r *ShipOwnerRepo) GetByCode(ctx context.Context, code string) (*shipowner.ShipOwner, error) {
	return r.getBy(ctx, "code", code, false)
}
