package record_repo

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
)

// VoyageRepo persists voyages in the "voyages" table.
type VoyageRepo struct {
	*SyncedRecordRepo[*voyage.Voyage]
}

// NewVoyageRepo creates the voyage repository.
func NewVoyageRepo(txm *postgres.TxManager) *VoyageRepo {
	return &VoyageRepo{
		SyncedRecordRepo: NewSyncedRecordRepo(txm, Config[*voyage.Voyage]{
			Table:      "voyages",
			EntityName: "voyage",
			SearchCols: []string{"voyage_number", "vessel_name", "load_port", "discharge_port"},
			StatusCol:  "assignment_status",
			AnalystCol: "assigned_analyst",
			NewFn:      func() *voyage.Voyage { return &voyage.Voyage{} },
		}),
	}
}

// GetByVoyageNumber retrieves a voyage by its commercial voyage number.
func (r *VoyageRepo) GetByVoyageNumber(ctx context.Context, voyageNumber string) (*voyage.Voyage, error) {
	return r.getBy(ctx, "voyage_number", voyageNumber, false)
}
