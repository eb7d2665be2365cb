package presence

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/types"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"

	// FreshnessWindow bounds how long after the last heartbeat a user is
	// still reported online.
	FreshnessWindow = 5 * time.Minute

	// DefaultOnlineWindow is the lookback used by Online when the caller
	// does not supply one.
	DefaultOnlineWindow = 6 * time.Minute

	// coalesceWindow bounds the write rate under frequent polling: a
	// heartbeat that would restate a record updated this recently is
	// skipped. Best-effort only; concurrent heartbeats may still both
	// write and the last one wins.
	coalesceWindow = 10 * time.Second
)

type Tracker struct {
	log   *log.Logger
	db    database.MindlineRepository
	stats stats.StatsProvider
	now   func() time.Time
}

func NewTracker(logger *log.Logger, db database.MindlineRepository, sp stats.StatsProvider) *Tracker {
	return &Tracker{
		log:   logger,
		db:    db,
		stats: sp,
		now:   time.Now,
	}
}

// Heartbeat upserts the user's presence record with the current timestamp.
// The returned record reflects what is stored, which may be the pre-existing
// row when the write was coalesced.
func (t *Tracker) Heartbeat(userId int, status string) (database.PresenceRecord, error) {
	if status == "" {
		status = StatusOnline
	}

	now := t.now().UTC()

	rec, err := t.db.GetPresence(userId)
	if err == nil && rec.Status == status && now.Sub(rec.LastSeen) < coalesceWindow {
		t.stats.Incr("presence_heartbeats_coalesced")
		return rec, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return database.PresenceRecord{}, err
	}

	rec, err = t.db.UpsertPresence(database.UpsertPresenceParams{
		UserId:   userId,
		Status:   status,
		LastSeen: now,
	})
	if err != nil {
		return database.PresenceRecord{}, err
	}

	t.stats.Incr("presence_heartbeats")
	return rec, nil
}

// MarkOffline unconditionally records the user as offline. Unlike Heartbeat
// it is never coalesced, so a logout immediately after a heartbeat still
// lands.
func (t *Tracker) MarkOffline(userId int) error {
	_, err := t.db.UpsertPresence(database.UpsertPresenceParams{
		UserId:   userId,
		Status:   StatusOffline,
		LastSeen: t.now().UTC(),
	})

	return err
}

// Status reports the user's derived online state. A missing record is a
// valid offline state, not an error.
func (t *Tracker) Status(userId int) (types.PresenceStatus, error) {
	rec, err := t.db.GetPresence(userId)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PresenceStatus{UserId: userId, Status: StatusOffline}, nil
	}
	if err != nil {
		return types.PresenceStatus{}, err
	}

	return t.statusOf(rec), nil
}

// StatusBatch reports derived online state for several users at once. Users
// without a record come back offline, so the result always has one entry per
// requested id and each entry equals what Status would report individually.
func (t *Tracker) StatusBatch(userIds []int) (map[int]types.PresenceStatus, error) {
	statuses := make(map[int]types.PresenceStatus, len(userIds))
	for _, id := range userIds {
		statuses[id] = types.PresenceStatus{UserId: id, Status: StatusOffline}
	}

	records, err := t.db.GetPresenceBatch(userIds)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		statuses[rec.UserId] = t.statusOf(rec)
	}

	return statuses, nil
}

// Online lists users whose last heartbeat falls within the window.
func (t *Tracker) Online(window time.Duration) ([]types.PresenceStatus, error) {
	if window <= 0 {
		window = DefaultOnlineWindow
	}

	records, err := t.db.ListPresenceSince(t.now().UTC().Add(-window))
	if err != nil {
		return nil, err
	}

	statuses := make([]types.PresenceStatus, 0, len(records))
	for _, rec := range records {
		statuses = append(statuses, t.statusOf(rec))
	}

	return statuses, nil
}

// statusOf derives the reported state from a stored record. The stored
// status can be stale; freshness is re-evaluated on every read.
func (t *Tracker) statusOf(rec database.PresenceRecord) types.PresenceStatus {
	lastSeen := types.ClientTime(rec.LastSeen)
	return types.PresenceStatus{
		UserId:   rec.UserId,
		Status:   rec.Status,
		Online:   rec.Status == StatusOnline && t.now().UTC().Sub(rec.LastSeen) <= FreshnessWindow,
		LastSeen: &lastSeen,
	}
}
