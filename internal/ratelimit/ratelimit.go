// Package ratelimit implements the persistent sliding-window rate limiter
// keyed by (hashed IP, target). The limit is soft: the read-then-write
// increment can over-admit slightly under concurrent requests for the
// same key, which is accepted instead of blocking on distributed locks,
// and store errors fail open so infrastructure trouble never blocks
// legitimate submissions.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyggecms/gatekeeper/internal/platform/observability"
)

// Interval is the fixed window length. Expiry is computed relative to
// "now" at call time, never cached.
const Interval = time.Minute

// Window is one persisted rate-limit record.
type Window struct {
	IPHash      string
	TargetType  string
	TargetID    string
	WindowStart time.Time
	Count       int
}

// WindowStore persists rate-limit windows. GetWindow returns nil without
// error when no record exists; PutWindow upserts.
type WindowStore interface {
	GetWindow(ctx context.Context, ipHash, targetType, targetID string) (*Window, error)
	PutWindow(ctx context.Context, window Window) error
}

// Limiter checks and reserves sliding-window slots.
type Limiter struct {
	store  WindowStore
	logger *zerolog.Logger
	now    func() time.Time
}

func New(store WindowStore, logger *zerolog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// CheckAndReserve reports whether the key is over its ceiling for the
// current window, reserving one slot when it is not. A window older than
// Interval is restarted at zero, not reused. Store errors are logged and
// treated as not limited.
func (l *Limiter) CheckAndReserve(ctx context.Context, ipHash, targetType, targetID string, ceiling int) bool {
	if ceiling <= 0 {
		return false
	}

	now := l.now()

	window, err := l.store.GetWindow(ctx, ipHash, targetType, targetID)
	if err != nil {
		observability.RateLimitStoreFailures.Inc()
		l.logger.Warn().Err(err).Msg("rate-limit window read failed, failing open")

		window = nil
	}

	if window == nil || now.Sub(window.WindowStart) >= Interval {
		window = &Window{
			IPHash:      ipHash,
			TargetType:  targetType,
			TargetID:    targetID,
			WindowStart: now,
			Count:       0,
		}
	}

	if window.Count >= ceiling {
		return true
	}

	window.Count++

	if err := l.store.PutWindow(ctx, *window); err != nil {
		observability.RateLimitStoreFailures.Inc()
		l.logger.Warn().Err(err).Msg("rate-limit window write failed, failing open")
	}

	return false
}

// HashIP derives the persisted key for a client IP so raw addresses never
// reach the window table.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))

	return hex.EncodeToString(sum[:])
}
