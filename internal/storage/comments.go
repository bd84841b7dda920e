package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/hyggecms/gatekeeper/internal/core/errors"
	"github.com/hyggecms/gatekeeper/internal/moderation"
)

// CommentStatus is the stored moderation state of a comment.
type CommentStatus string

const (
	CommentApproved CommentStatus = "approved"
	CommentPending  CommentStatus = "pending"
	CommentSpam     CommentStatus = "spam"
	CommentRejected CommentStatus = "rejected"
)

// StatusForVerdict maps a pipeline verdict onto the stored comment status.
// Rate-limited submissions are not stored at all.
func StatusForVerdict(verdict moderation.Verdict) (CommentStatus, bool) {
	switch verdict.Decision {
	case moderation.DecisionApprove:
		return CommentApproved, true
	case moderation.DecisionHold:
		return CommentPending, true
	case moderation.DecisionSpam:
		return CommentSpam, true
	case moderation.DecisionReject:
		return CommentRejected, true
	case moderation.DecisionRateLimited:
		return "", false
	}

	return "", false
}

// Comment is one stored comment row. SubmitterKey is the normalized
// identity key from moderation.SubmitterKey; the prior-approval lookup
// matches on it, so callers must not store the raw email there.
type Comment struct {
	ID           string
	TargetType   string
	TargetID     string
	AuthorName   string
	AuthorEmail  string
	AuthorIP     string
	UserAgent    string
	SubmitterKey string
	Content      string
	Status       CommentStatus
	CreatedAt    time.Time
}

// InsertComment stores a comment with its moderation status and returns
// the generated id.
func (db *DB) InsertComment(ctx context.Context, comment Comment) (string, error) {
	const query = `
		INSERT INTO comments (id, target_type, target_id, author_name, author_email, author_ip, user_agent, submitter_key, content, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	id := uuid.New()

	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := db.Pool.Exec(ctx, query,
		id, comment.TargetType, comment.TargetID, comment.AuthorName, comment.AuthorEmail,
		comment.AuthorIP, comment.UserAgent, comment.SubmitterKey, comment.Content,
		string(comment.Status), createdAt); err != nil {
		return "", fmt.Errorf("insert comment: %w", err)
	}

	return id.String(), nil
}

// HasApprovedComment reports whether the submitter already has at least
// one approved comment, keyed by the normalized submitter key.
func (db *DB) HasApprovedComment(ctx context.Context, submitterKey string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM comments
			WHERE submitter_key = $1 AND status = $2
		)`

	var exists bool
	if err := db.Pool.QueryRow(ctx, query, submitterKey, string(CommentApproved)).Scan(&exists); err != nil {
		return false, fmt.Errorf("prior-approval lookup: %w", err)
	}

	return exists, nil
}

// GetComment fetches one stored comment by id. Returns ErrNotFound when
// no row exists.
func (db *DB) GetComment(ctx context.Context, id string) (*Comment, error) {
	const query = `
		SELECT id::text, target_type, target_id, author_name, author_email, author_ip, user_agent, submitter_key, content, status, created_at
		FROM comments WHERE id = $1`

	var comment Comment

	var status string

	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&comment.ID, &comment.TargetType, &comment.TargetID, &comment.AuthorName, &comment.AuthorEmail,
		&comment.AuthorIP, &comment.UserAgent, &comment.SubmitterKey, &comment.Content, &status, &comment.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("comment %s: %w", id, apperrors.ErrNotFound)
		}

		return nil, fmt.Errorf("get comment: %w", err)
	}

	comment.Status = CommentStatus(status)

	return &comment, nil
}

// UpdateCommentStatus transitions a stored comment, e.g. when a moderator
// approves a held comment.
func (db *DB) UpdateCommentStatus(ctx context.Context, id string, status CommentStatus) error {
	const query = `UPDATE comments SET status = $2 WHERE id = $1`

	if _, err := db.Pool.Exec(ctx, query, id, string(status)); err != nil {
		return fmt.Errorf("update comment status: %w", err)
	}

	return nil
}
