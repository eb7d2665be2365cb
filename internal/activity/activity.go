package activity

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/presence"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/types"
)

const (
	TypeLogin               = "login"
	TypeLogout              = "logout"
	TypeMoodEntry           = "mood_entry"
	TypeAssessmentCompleted = "assessment_completed"

	// loginDedupWindow suppresses repeat login entries from rapid re-auth
	// or session refresh.
	loginDedupWindow = 5 * time.Minute

	defaultListLimit = 50
)

// Metadata is a tagged union keyed by activity type. Exactly one variant is
// set per entry.
type Metadata struct {
	Login      *LoginMetadata      `json:"login,omitempty"`
	Mood       *MoodMetadata       `json:"mood,omitempty"`
	Assessment *AssessmentMetadata `json:"assessment,omitempty"`
}

type LoginMetadata struct {
	Method string `json:"method,omitempty"`
}

type MoodMetadata struct {
	Rating int `json:"rating"`
}

type AssessmentMetadata struct {
	AssessmentType string  `json:"assessment_type"`
	TotalScore     float64 `json:"total_score"`
}

// EntryParams builds repository insert params with the metadata union
// serialized, for callers that write the activity inside their own
// transaction.
func EntryParams(userId int, activityType string, md Metadata) (database.CreateActivityParams, error) {
	raw, err := json.Marshal(md)
	if err != nil {
		return database.CreateActivityParams{}, fmt.Errorf("marshal activity metadata: %w", err)
	}

	return database.CreateActivityParams{
		UserId:       userId,
		ActivityType: activityType,
		Metadata:     raw,
	}, nil
}

type Log struct {
	log      *log.Logger
	db       database.MindlineRepository
	presence *presence.Tracker
	stats    stats.StatsProvider
	now      func() time.Time
}

func NewLog(logger *log.Logger, db database.MindlineRepository, tracker *presence.Tracker, sp stats.StatsProvider) *Log {
	return &Log{
		log:      logger,
		db:       db,
		presence: tracker,
		stats:    sp,
		now:      time.Now,
	}
}

// RecordLogin appends a login entry unless one already exists inside the
// dedup window, then marks the user online either way.
func (l *Log) RecordLogin(userId int) error {
	last, err := l.db.LatestActivityByType(userId, TypeLogin)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if err != nil || l.now().UTC().Sub(last.CreatedAt) >= loginDedupWindow {
		params, err := EntryParams(userId, TypeLogin, Metadata{Login: &LoginMetadata{Method: "password"}})
		if err != nil {
			return err
		}

		if _, err := l.db.CreateActivity(params); err != nil {
			return err
		}
		l.stats.Incr("activities_recorded")
	} else {
		l.stats.Incr("logins_deduped")
	}

	_, err = l.presence.Heartbeat(userId, presence.StatusOnline)
	return err
}

// RecordLogout always appends a logout entry and marks the user offline.
func (l *Log) RecordLogout(userId int) error {
	params, err := EntryParams(userId, TypeLogout, Metadata{})
	if err != nil {
		return err
	}

	if _, err := l.db.CreateActivity(params); err != nil {
		return err
	}
	l.stats.Incr("activities_recorded")

	return l.presence.MarkOffline(userId)
}

// UserActivities returns the user's entries newest-first, bounded by limit.
func (l *Log) UserActivities(userId, limit int) ([]types.Activity, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	entries, err := l.db.ListActivities(userId, limit)
	if err != nil {
		return nil, err
	}

	activities := make([]types.Activity, 0, len(entries))
	for _, e := range entries {
		activities = append(activities, types.Activity{
			Id:        e.Id,
			UserId:    e.UserId,
			Type:      e.ActivityType,
			Metadata:  e.Metadata,
			CreatedAt: types.ClientTime(e.CreatedAt),
		})
	}

	return activities, nil
}
