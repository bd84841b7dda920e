package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hyggecms/gatekeeper/internal/moderation"
)

// BlacklistKind identifies which deny-list an entry belongs to.
type BlacklistKind string

const (
	BlacklistKeyword BlacklistKind = "keyword"
	BlacklistEmail   BlacklistKind = "email"
	BlacklistIP      BlacklistKind = "ip"
	BlacklistDomain  BlacklistKind = "domain"
)

// AddBlacklistEntry inserts one deny-list entry, ignoring duplicates.
func (db *DB) AddBlacklistEntry(ctx context.Context, kind BlacklistKind, value string) error {
	const query = `
		INSERT INTO blacklist_entries (id, kind, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, value) DO NOTHING`

	if _, err := db.Pool.Exec(ctx, query, uuid.New(), string(kind), value); err != nil {
		return fmt.Errorf("add blacklist entry: %w", err)
	}

	return nil
}

// LoadBlacklist reads all persisted deny-list entries and builds the
// lower-cased Blacklist consumed by the pipeline.
func (db *DB) LoadBlacklist(ctx context.Context) (*moderation.Blacklist, error) {
	const query = `SELECT kind, value FROM blacklist_entries`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load blacklist: %w", err)
	}
	defer rows.Close()

	var keywords, emails, ips, domains []string

	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}

		switch BlacklistKind(kind) {
		case BlacklistKeyword:
			keywords = append(keywords, value)
		case BlacklistEmail:
			emails = append(emails, value)
		case BlacklistIP:
			ips = append(ips, value)
		case BlacklistDomain:
			domains = append(domains, value)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blacklist entries: %w", err)
	}

	return moderation.NewBlacklist(keywords, emails, ips, domains), nil
}
