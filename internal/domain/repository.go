// Package domain provides core business logic interfaces and types shared by
// the entity packages.
package domain

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches against the entity's searchable text columns
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// AssignedAnalyst filters records routed to one analyst
	AssignedAnalyst *string

	// Status filters by the entity's primary status column
	Status *string

	// OrderBy specifies sorting (e.g., "updated_at", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-updated_at",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// VersionedRepository defines persistence for optimistically locked records.
// The version check is the single gatekeeper for conflict detection: Update
// commits only when the stored version still equals the entity's version and
// increments it by exactly 1 in the same statement.
type VersionedRepository[T entity.Versioned] interface {
	// Create inserts a new record at version 0.
	Create(ctx context.Context, entity T) error

	// GetByID retrieves a record by primary key.
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetForUpdate retrieves a record by primary key with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (T, error)

	// Update performs the conditional write: the entity's Version field is
	// the expected version. Returns the new version on success, or a
	// concurrent-modification error carrying the current stored version.
	Update(ctx context.Context, entity T) (int, error)

	// List retrieves records with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// Exists checks if a record with the given ID exists.
	Exists(ctx context.Context, id id.ID) (bool, error)

	// SetDeletionMark sets or clears the deletion mark (soft delete).
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
}

// SyncedRepository extends VersionedRepository for records mirrored from the
// RADAR feed, keyed by their stable external identifier.
type SyncedRepository[T entity.Synced] interface {
	VersionedRepository[T]

	// GetByRadarID retrieves a record by its external RADAR identifier.
	GetByRadarID(ctx context.Context, radarID string) (T, error)

	// GetForUpdateByRadarID retrieves a record by RADAR identifier with a
	// row lock. Used by the sync upsert's fetch-then-write.
	GetForUpdateByRadarID(ctx context.Context, radarID string) (T, error)

	// ForceUpdate writes regardless of the stored version, incrementing it.
	// Sync-path only: the external payload is authoritative, and bumping the
	// version makes any in-flight stale local edit fail its own Update.
	ForceUpdate(ctx context.Context, entity T) (int, error)
}
