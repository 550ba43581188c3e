// Package activity provides the append-only audit trail. Every successful
// mutation of a versioned record (local edit, assignment, or RADAR sync
// upsert) produces exactly one entry; entries are never updated or deleted.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// Action identifies what kind of mutation produced an entry.
type Action string

const (
	ActionCreated       Action = "CREATED"
	ActionUpdated       Action = "UPDATED"
	ActionSynced        Action = "SYNCED"
	ActionAssigned      Action = "ASSIGNED"
	ActionReassigned    Action = "REASSIGNED"
	ActionStatusChanged Action = "STATUS_CHANGED"
)

// Entry is one audit record. Before/After are opaque JSON snapshots of the
// record around the mutation; EntityVersion is the version the mutation
// produced, so the trail can be replayed against the version history.
type Entry struct {
	ID            id.ID           `db:"id" json:"id"`
	EntityType    string          `db:"entity_type" json:"entityType"`
	EntityID      id.ID           `db:"entity_id" json:"entityId"`
	EntityVersion int             `db:"entity_version" json:"entityVersion"`
	Action        Action          `db:"action" json:"action"`
	Actor         string          `db:"actor" json:"actor"`
	Message       string          `db:"message" json:"message,omitempty"`
	Before        json.RawMessage `db:"before_state" json:"before,omitempty"`
	After         json.RawMessage `db:"after_state" json:"after,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// Repository is the persistence contract for the trail. Append must run on
// the same transaction as the data write that triggered it, so both commit
// or roll back together.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error

	// ListFor returns entries for one entity in append order.
	ListFor(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Snapshot marshals an entity into an opaque audit snapshot. Marshal failure
// is reported by the caller as an audit write failure; a mutation without a
// faithful snapshot must not be committed silently.
func Snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
