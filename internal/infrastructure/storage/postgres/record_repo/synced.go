package record_repo

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
)

// SyncedRecordRepo extends BaseRecordRepo for records mirrored from the RADAR
// feed, adding lookups by the stable external identifier.
type SyncedRecordRepo[T any] struct {
	*BaseRecordRepo[T]
}

// NewSyncedRecordRepo creates a repository for an externally mirrored record.
func NewSyncedRecordRepo[T any](txm *postgres.TxManager, cfg Config[T]) *SyncedRecordRepo[T] {
	return &SyncedRecordRepo[T]{
		BaseRecordRepo: NewBaseRecordRepo(txm, cfg),
	}
}

// GetByRadarID retrieves a record by its external RADAR identifier.
func (r *SyncedRecordRepo[T]) GetByRadarID(ctx context.Context, radarID string) (T, error) {
	return r.getBy(ctx, "radar_id", radarID, false)
}

// GetForUpdateByRadarID retrieves a record by RADAR identifier with a row
// lock, so the sync upsert's read and force-write happen against the same
// row state.
func (r *SyncedRecordRepo[T]) GetForUpdateByRadarID(ctx context.Context, radarID string) (T, error) {
	return r.getBy(ctx, "radar_id", radarID, true)
}
