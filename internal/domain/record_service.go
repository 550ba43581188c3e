package domain

import (
	"context"
	"fmt"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	appctx "github.com/PatrykKozyra/claims-management-system/internal/core/context"
	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/core/tx"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
)

// RecordService provides the guarded lifecycle for versioned records. Every
// mutation runs in one transaction together with its activity log entry, so a
// failed audit append rolls the data write back too.
type RecordService[T entity.Versioned] struct {
	repo      VersionedRepository[T]
	txManager tx.Manager
	activity  *activity.Service
	hooks     *HookRegistry[T]

	// entityName for error messages and audit entries
	entityName string
}

// RecordServiceConfig configures the record service.
type RecordServiceConfig[T entity.Versioned] struct {
	Repo       VersionedRepository[T]
	TxManager  tx.Manager
	Activity   *activity.Service
	EntityName string
}

// NewRecordService creates a record service.
func NewRecordService[T entity.Versioned](cfg RecordServiceConfig[T]) *RecordService[T] {
	return &RecordService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		activity:   cfg.Activity,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for entity-specific registration.
func (s *RecordService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName returns the name used in errors and audit entries.
func (s *RecordService[T]) EntityName() string {
	return s.entityName
}

func (s *RecordService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *RecordService[T]) normalizeGetErr(err error, idOrKey any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrKey)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrKey)
}

// Create inserts a new record at version 0 and logs a CREATED entry in the
// same transaction.
func (s *RecordService[T]) Create(ctx context.Context, rec T) error {
	if err := rec.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, BeforeCreate, rec); err != nil {
		return err
	}

	rec.SetUpdatedBy(appctx.GetUsername(ctx))

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}

		after, err := activity.Snapshot(rec)
		if err != nil {
			return apperror.NewAuditWriteFailed(s.entityName, rec.GetID().String(), err)
		}
		return s.activity.Record(ctx, activity.Entry{
			EntityType:    s.entityName,
			EntityID:      rec.GetID(),
			EntityVersion: rec.GetVersion(),
			Action:        activity.ActionCreated,
			After:         after,
		})
	})
}

// GetByID retrieves a record by ID.
func (s *RecordService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	rec, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return rec, s.normalizeGetErr(err, entityID.String())
	}
	return rec, nil
}

// Write performs a guarded mutation: the record is loaded, mutated in memory,
// and written back conditionally on expectedVersion. A concurrent writer who
// advanced the version in between makes the conditional write fail with a
// concurrent-modification error carrying the version and payload stored now;
// the caller re-applies against them. The returned record carries the new
// version.
func (s *RecordService[T]) Write(
	ctx context.Context,
	entityID id.ID,
	expectedVersion int,
	action activity.Action,
	message string,
	mutate func(ctx context.Context, rec T) error,
) (T, error) {
	var result T

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}

		// Fail fast on a version the caller already lost against. The
		// conditional UPDATE below still guards the race window after
		// this read. The conflict carries the state stored now so the
		// caller can re-apply without another fetch.
		if rec.GetVersion() != expectedVersion {
			conflict := apperror.NewConcurrentModification(s.entityName, entityID.String(), rec.GetVersion())
			if payload, snapErr := activity.Snapshot(rec); snapErr == nil {
				conflict = conflict.WithDetail("payload", payload)
			}
			return conflict
		}

		before, err := activity.Snapshot(rec)
		if err != nil {
			return apperror.NewAuditWriteFailed(s.entityName, entityID.String(), err)
		}

		if err := mutate(ctx, rec); err != nil {
			return err
		}
		if err := rec.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, rec); err != nil {
			return err
		}

		rec.Touch()
		rec.SetUpdatedBy(appctx.GetUsername(ctx))
		rec.SetVersion(expectedVersion)

		newVersion, err := s.repo.Update(ctx, rec)
		if err != nil {
			return err
		}
		rec.SetVersion(newVersion)

		after, err := activity.Snapshot(rec)
		if err != nil {
			return apperror.NewAuditWriteFailed(s.entityName, entityID.String(), err)
		}
		if err := s.activity.Record(ctx, activity.Entry{
			EntityType:    s.entityName,
			EntityID:      entityID,
			EntityVersion: newVersion,
			Action:        action,
			Message:       message,
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

// Delete soft-deletes a record and logs the mutation.
func (s *RecordService[T]) Delete(ctx context.Context, entityID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID.String())
		}
		if err := s.hooks.Run(ctx, BeforeDelete, rec); err != nil {
			return err
		}

		before, err := activity.Snapshot(rec)
		if err != nil {
			return apperror.NewAuditWriteFailed(s.entityName, entityID.String(), err)
		}

		if err := s.repo.SetDeletionMark(ctx, entityID, true); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}

		return s.activity.Record(ctx, activity.Entry{
			EntityType:    s.entityName,
			EntityID:      entityID,
			EntityVersion: rec.GetVersion() + 1,
			Action:        activity.ActionUpdated,
			Message:       "deletion mark set",
			Before:        before,
		})
	})
}

// List retrieves records with filtering and pagination.
func (s *RecordService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Exists checks if a record exists.
func (s *RecordService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}

// History returns the append-ordered activity trail for one record.
func (s *RecordService[T]) History(ctx context.Context, entityID id.ID, limit int) ([]activity.Entry, error) {
	return s.activity.ListFor(ctx, s.entityName, entityID, limit)
}
