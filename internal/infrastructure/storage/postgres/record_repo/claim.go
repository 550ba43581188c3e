package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
)

// ClaimRepo persists claims in the "claims" table.
type ClaimRepo struct {
	*SyncedRecordRepo[*claim.Claim]
}

// NewClaimRepo creates the claim repository.
func NewClaimRepo(txm *postgres.TxManager) *ClaimRepo {
	return &ClaimRepo{
		SyncedRecordRepo: NewSyncedRecordRepo(txm, Config[*claim.Claim]{
			Table:      "claims",
			EntityName: "claim",
			SearchCols: []string{"claim_number", "description"},
			StatusCol:  "status",
			AnalystCol: "assigned_to",
			NewFn:      func() *claim.Claim { return &claim.Claim{} },
		}),
	}
}

// GetByClaimNumber retrieves a claim by its local number.
func (r *ClaimRepo) GetByClaimNumber(ctx context.Context, claimNumber string) (*claim.Claim, error) {
	return r.getBy(ctx, "claim_number", claimNumber, false)
}

// ListForVoyage retrieves all claims against one voyage, oldest first.
func (r *ClaimRepo) ListForVoyage(ctx context.Context, voyageID id.ID) ([]*claim.Claim, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"voyage_id": voyageID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var claims []*claim.Claim
	if err := pgxscan.Select(ctx, r.querier(ctx), &claims, sql, args...); err != nil {
		return nil, fmt.Errorf("list claims for voyage: %w", err)
	}
	return claims, nil
}
