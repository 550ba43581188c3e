// Package entity holds shared building blocks for persistent domain records.
package entity

import (
	"context"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Versioned is implemented by records carrying the optimistic-lock fields.
// VersionedRecord provides everything except Validate.
type Versioned interface {
	Validatable
	GetID() id.ID
	GetVersion() int
	SetVersion(v int)
	Touch()
	SetUpdatedBy(username string)
}

// VersionedRecord contains the fields every mutable, concurrently edited
// record carries. Version is the optimistic-lock token: it starts at 0 when
// the record is first persisted and the repository increments it by exactly 1
// on every successful write. Two writers racing on the same expected version
// cannot both win; the loser receives a concurrent-modification error.
type VersionedRecord struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking
	Version int `db:"version" json:"version"`

	// DeletionMark indicates a soft-deleted record. Versioned records are
	// never hard-deleted by the concurrency core.
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Last-writer metadata
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewVersionedRecord creates a record with a generated ID at version 0.
func NewVersionedRecord() VersionedRecord {
	now := time.Now().UTC()
	return VersionedRecord{
		ID:        id.New(),
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp. The version itself is advanced by
// the repository inside the conditional UPDATE, not in memory, so a failed
// write leaves no trace on the entity.
func (r *VersionedRecord) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// SetVersion records the version returned by the repository after a
// successful write or upsert.
func (r *VersionedRecord) SetVersion(v int) {
	r.Version = v
}

// GetID returns the primary key (useful for generic repositories).
func (r *VersionedRecord) GetID() id.ID {
	return r.ID
}

// GetVersion returns the current optimistic-lock token.
func (r *VersionedRecord) GetVersion() int {
	return r.Version
}

// SetUpdatedBy records who performed the current mutation.
func (r *VersionedRecord) SetUpdatedBy(username string) {
	r.UpdatedBy = username
}

// MarkDeleted sets the deletion mark.
func (r *VersionedRecord) MarkDeleted() {
	r.DeletionMark = true
}
