package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hyggecms/gatekeeper/internal/moderation"
)

// Append writes one moderation audit record. Records are append-only;
// nothing in this subsystem updates or deletes them.
func (db *DB) Append(ctx context.Context, record moderation.AuditRecord) error {
	const query = `
		INSERT INTO moderation_audit_log (id, decision, target_type, target_id, reason, signal_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := db.Pool.Exec(ctx, query,
		uuid.New(), string(record.Decision), record.TargetType, record.TargetID,
		record.Reason, record.SignalSummary, record.Timestamp); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}

	return nil
}
