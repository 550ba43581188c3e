package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
)

// CompressionAlgo specifies the snapshot compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// snapshotCompressThreshold: RADAR payloads embedded in sync snapshots can be
// tens of kilobytes; anything above this is stored zstd-compressed.
const snapshotCompressThreshold = 10 * 1024

// Compile-time check.
var _ activity.Repository = (*ActivityLogStore)(nil)

// ActivityLogStore persists the append-only audit trail in the activity_log
// table. Append uses the querier bound to the caller's context, so an entry
// written inside a data transaction commits or rolls back with it.
type ActivityLogStore struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// NewActivityLogStore creates the store with shared zstd codec instances.
func NewActivityLogStore(txManager *TxManager) (*ActivityLogStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &ActivityLogStore{
		txManager: txManager,
		encoder:   encoder,
		decoder:   decoder,
	}, nil
}

// Append inserts one entry. The table has no UPDATE or DELETE path.
func (s *ActivityLogStore) Append(ctx context.Context, entry *activity.Entry) error {
	beforeRaw, beforeCompressed, beforeAlgo := s.compress(entry.Before)
	afterRaw, afterCompressed, afterAlgo := s.compress(entry.After)

	// Both snapshots share one algo column; compress marks are per-snapshot
	// via the nullability of the compressed columns.
	algo := CompressionNone
	if beforeAlgo == CompressionZstd || afterAlgo == CompressionZstd {
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO activity_log (
			id, entity_type, entity_id, entity_version, action, actor,
			message, before_state, before_compressed, after_state,
			after_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, entry.EntityVersion,
		entry.Action, entry.Actor, entry.Message,
		beforeRaw, beforeCompressed, afterRaw, afterCompressed,
		algo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append activity entry: %w", err)
	}
	return nil
}

// ListFor returns entries for one entity in append order (oldest first), so
// the trail replays the way it was written.
func (s *ActivityLogStore) ListFor(ctx context.Context, entityType string, entityID id.ID, limit int) ([]activity.Entry, error) {
	sql := `
		SELECT id, entity_type, entity_id, entity_version, action, actor,
			   message, before_state, before_compressed, after_state,
			   after_compressed, compression_algo, created_at
		FROM activity_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at, id
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var (
			e                activity.Entry
			beforeCompressed []byte
			afterCompressed  []byte
			algo             CompressionAlgo
		)
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.EntityVersion, &e.Action,
			&e.Actor, &e.Message, &e.Before, &beforeCompressed, &e.After,
			&afterCompressed, &algo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}

		if algo == CompressionZstd {
			if e.Before, err = s.decompress(e.Before, beforeCompressed); err != nil {
				return nil, fmt.Errorf("decompress before snapshot: %w", err)
			}
			if e.After, err = s.decompress(e.After, afterCompressed); err != nil {
				return nil, fmt.Errorf("decompress after snapshot: %w", err)
			}
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// compress returns either the raw snapshot or its compressed form.
func (s *ActivityLogStore) compress(snapshot json.RawMessage) (json.RawMessage, []byte, CompressionAlgo) {
	if len(snapshot) <= snapshotCompressThreshold {
		return snapshot, nil, CompressionNone
	}
	return nil, s.encoder.EncodeAll(snapshot, nil), CompressionZstd
}

func (s *ActivityLogStore) decompress(raw json.RawMessage, compressed []byte) (json.RawMessage, error) {
	if len(compressed) == 0 {
		return raw, nil
	}
	return s.decoder.DecodeAll(compressed, nil)
}
