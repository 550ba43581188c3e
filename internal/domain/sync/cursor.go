package sync

import (
	"context"
	"time"
)

// Known cursor sources: one watermark per RADAR change feed.
const (
	SourceVoyages = "radar_voyages"
	SourceClaims  = "radar_claims"
)

// Cursor is the persisted watermark for one RADAR change feed. It is owned
// and mutated solely by the sync service, and only after a cycle completes
// (even partially), so the next cycle re-requests exactly the failed records
// plus anything new.
type Cursor struct {
	Source       string    `db:"source" json:"source"`
	Token        string    `db:"cursor_token" json:"token"`
	LastSyncedAt time.Time `db:"last_synced_at" json:"lastSyncedAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// CursorStore persists sync watermarks.
type CursorStore interface {
	// Get returns the cursor for a source, or a zero-token cursor when the
	// source has never been synced.
	Get(ctx context.Context, source string) (Cursor, error)

	// Save upserts the cursor.
	Save(ctx context.Context, cursor Cursor) error
}
