package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	appctx "github.com/PatrykKozyra/claims-management-system/internal/core/context"
	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
)

// SyncedRecordService extends RecordService for records mirrored from RADAR.
// The upsert is the sync-path write: it always wins over concurrent local
// edits, because the external feed is authoritative for its fields.
type SyncedRecordService[T entity.Synced] struct {
	*RecordService[T]
	syncedRepo SyncedRepository[T]
	newFn      func() T
}

// SyncedRecordServiceConfig configures the synced record service.
type SyncedRecordServiceConfig[T entity.Synced] struct {
	RecordServiceConfig[T]

	SyncedRepo SyncedRepository[T]

	// NewFn allocates a fresh record for the insert path of Upsert.
	NewFn func() T
}

// NewSyncedRecordService creates a service for an externally mirrored record.
func NewSyncedRecordService[T entity.Synced](cfg SyncedRecordServiceConfig[T]) *SyncedRecordService[T] {
	return &SyncedRecordService[T]{
		RecordService: NewRecordService(cfg.RecordServiceConfig),
		syncedRepo:    cfg.SyncedRepo,
		newFn:         cfg.NewFn,
	}
}

// GetByRadarID retrieves a record by its external identifier.
func (s *SyncedRecordService[T]) GetByRadarID(ctx context.Context, radarID string) (T, error) {
	rec, err := s.syncedRepo.GetByRadarID(ctx, radarID)
	if err != nil {
		return rec, s.normalizeGetErr(err, radarID)
	}
	return rec, nil
}

// Upsert applies one external record. The row is locked for the duration of
// the transaction, apply overwrites the feed-authoritative fields (local-only
// fields stay untouched), and the write goes through ForceUpdate: no version
// predicate, version incremented. A concurrent local edit that read the old
// version then fails its own conditional write, which is the intended
// asymmetry: sync wins, the stale edit is told to re-fetch.
func (s *SyncedRecordService[T]) Upsert(
	ctx context.Context,
	externalID string,
	payload json.RawMessage,
	apply func(ctx context.Context, rec T, created bool) error,
) (T, error) {
	var result T

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()

		rec, err := s.syncedRepo.GetForUpdateByRadarID(ctx, externalID)
		if err != nil && !apperror.IsNotFound(err) {
			return s.normalizeGetErr(err, externalID)
		}

		created := apperror.IsNotFound(err)
		if created {
			rec = s.newFn()
		}

		var before json.RawMessage
		if !created {
			if before, err = activity.Snapshot(rec); err != nil {
				return apperror.NewAuditWriteFailed(s.entityName, externalID, err)
			}
		}

		if err := apply(ctx, rec, created); err != nil {
			return err
		}
		rec.MarkSynced(externalID, payload, now)
		if err := rec.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}

		rec.Touch()
		rec.SetUpdatedBy(appctx.GetUsername(ctx))

		if created {
			if err := s.syncedRepo.Create(ctx, rec); err != nil {
				return fmt.Errorf("create %s from sync: %w", s.entityName, err)
			}
		} else {
			newVersion, err := s.syncedRepo.ForceUpdate(ctx, rec)
			if err != nil {
				return err
			}
			rec.SetVersion(newVersion)
		}

		after, err := activity.Snapshot(rec)
		if err != nil {
			return apperror.NewAuditWriteFailed(s.entityName, rec.GetID().String(), err)
		}
		if err := s.activity.Record(ctx, activity.Entry{
			EntityType:    s.entityName,
			EntityID:      rec.GetID(),
			EntityVersion: rec.GetVersion(),
			Action:        activity.ActionSynced,
			Message:       "radar sync upsert",
			Before:        before,
			After:         after,
		}); err != nil {
			return err
		}

		result = rec
		return nil
	})
	return result, err
}
