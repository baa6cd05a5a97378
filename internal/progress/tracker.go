// Package progress tracks per-session import counters in Redis so the UI
// can poll a cheap endpoint while a session is open. The tracker is
// best-effort: a nil tracker or an unreachable Redis never blocks an import.
package progress

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/contact-engine/internal/pkg/logger"
)

const keyPrefix = "contact_engine:import:"

// DefaultTTL is how long a session's counters outlive its last update.
const DefaultTTL = 24 * time.Hour

// Snapshot is the externally visible progress of one import session.
type Snapshot struct {
	State      string `json:"state"`
	Processed  int    `json:"processed"`
	Created    int    `json:"created"`
	Duplicates int    `json:"duplicates"`
	Errors     int    `json:"errors"`
}

// Tracker persists snapshots in Redis hashes. All methods are safe on a nil
// receiver, which is how deployments without Redis run.
type Tracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTracker creates a tracker. ttl <= 0 uses DefaultTTL.
func NewTracker(rdb *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{rdb: rdb, ttl: ttl}
}

// Set stores the snapshot for a session.
func (t *Tracker) Set(ctx context.Context, sessionID string, s Snapshot) {
	if t == nil || t.rdb == nil {
		return
	}
	key := keyPrefix + sessionID
	pipe := t.rdb.Pipeline()
	pipe.HSet(ctx, key,
		"state", s.State,
		"processed", s.Processed,
		"created", s.Created,
		"duplicates", s.Duplicates,
		"errors", s.Errors,
		"updated_at", time.Now().UTC().Format(time.RFC3339),
	)
	pipe.Expire(ctx, key, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("progress update failed", "session", sessionID, "error", err.Error())
	}
}

// Get loads the snapshot for a session. ok is false when the session is
// unknown, expired, or Redis is not configured.
func (t *Tracker) Get(ctx context.Context, sessionID string) (Snapshot, bool) {
	if t == nil || t.rdb == nil {
		return Snapshot{}, false
	}
	key := keyPrefix + sessionID
	vals, err := t.rdb.HGetAll(ctx, key).Result()
	if err != nil || len(vals) == 0 {
		return Snapshot{}, false
	}
	return Snapshot{
		State:      vals["state"],
		Processed:  atoi(vals["processed"]),
		Created:    atoi(vals["created"]),
		Duplicates: atoi(vals["duplicates"]),
		Errors:     atoi(vals["errors"]),
	}, true
}

// Clear drops a session's counters, used when a session closes.
func (t *Tracker) Clear(ctx context.Context, sessionID string) {
	if t == nil || t.rdb == nil {
		return
	}
	t.rdb.Del(ctx, keyPrefix+sessionID)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
