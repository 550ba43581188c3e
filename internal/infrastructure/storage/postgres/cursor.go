package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/sync"
)

// Compile-time check.
var _ sync.CursorStore = (*SyncCursorStore)(nil)

// SyncCursorStore persists per-feed sync watermarks in sys_sync_cursor.
type SyncCursorStore struct {
	txManager *TxManager
}

// NewSyncCursorStore creates the cursor store.
func NewSyncCursorStore(txManager *TxManager) *SyncCursorStore {
	return &SyncCursorStore{txManager: txManager}
}

// Get returns the cursor for a source. A source that has never completed a
// cycle yields a zero-token cursor, which makes the first fetch unbounded.
func (s *SyncCursorStore) Get(ctx context.Context, source string) (sync.Cursor, error) {
	cursor := sync.Cursor{Source: source}

	sql := `
		SELECT cursor_token, last_synced_at, updated_at
		FROM sys_sync_cursor
		WHERE source = $1
	`
	row := s.txManager.GetQuerier(ctx).QueryRow(ctx, sql, source)
	err := row.Scan(&cursor.Token, &cursor.LastSyncedAt, &cursor.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return cursor, nil
	}
	if err != nil {
		return cursor, fmt.Errorf("get sync cursor %s: %w", source, err)
	}
	return cursor, nil
}

// Save upserts the cursor for its source.
func (s *SyncCursorStore) Save(ctx context.Context, cursor sync.Cursor) error {
	sql := `
		INSERT INTO sys_sync_cursor (source, cursor_token, last_synced_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source) DO UPDATE SET
			cursor_token = EXCLUDED.cursor_token,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		cursor.Source, cursor.Token, cursor.LastSyncedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save sync cursor %s: %w", cursor.Source, err)
	}
	return nil
}
