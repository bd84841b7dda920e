package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hyggecms/gatekeeper/internal/ratelimit"
)

// GetWindow fetches the current rate-limit window for a key, or nil when
// no record exists.
func (db *DB) GetWindow(ctx context.Context, ipHash, targetType, targetID string) (*ratelimit.Window, error) {
	const query = `
		SELECT window_start, request_count
		FROM comment_rate_limits
		WHERE ip_hash = $1 AND target_type = $2 AND target_id = $3`

	window := ratelimit.Window{
		IPHash:     ipHash,
		TargetType: targetType,
		TargetID:   targetID,
	}

	err := db.Pool.QueryRow(ctx, query, ipHash, targetType, targetID).
		Scan(&window.WindowStart, &window.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("get rate-limit window: %w", err)
	}

	return &window, nil
}

// PutWindow upserts a rate-limit window. The read-then-write increment is
// deliberately non-atomic: concurrent requests for the same key may
// over-admit slightly, which is accepted over blocking locks.
func (db *DB) PutWindow(ctx context.Context, window ratelimit.Window) error {
	const query = `
		INSERT INTO comment_rate_limits (ip_hash, target_type, target_id, window_start, request_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ip_hash, target_type, target_id)
		DO UPDATE SET window_start = EXCLUDED.window_start, request_count = EXCLUDED.request_count`

	if _, err := db.Pool.Exec(ctx, query,
		window.IPHash, window.TargetType, window.TargetID, window.WindowStart, window.Count); err != nil {
		return fmt.Errorf("put rate-limit window: %w", err)
	}

	return nil
}
