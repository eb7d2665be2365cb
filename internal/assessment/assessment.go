package assessment

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/mindline-app/mindline-server/internal/activity"
	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/notification"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/types"
	"github.com/teris-io/shortid"
)

const (
	// Interval is the fixed 180-day due period. Deliberately not
	// calendar-month arithmetic: six 30-day months keeps due dates
	// deterministic across month lengths.
	Interval = 180 * 24 * time.Hour

	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"

	// trendThreshold is the score delta a latest assessment must exceed,
	// in either direction, before the trend leaves stable.
	trendThreshold = 2.0
)

type DueStatus struct {
	IsDue        bool `json:"is_due"`
	DaysUntilDue int  `json:"days_until_due"`
}

type Stats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
	LatestScore  float64 `json:"latest_score"`
	Trend        *string `json:"trend"`
}

type Scheduler struct {
	log   *log.Logger
	db    database.MindlineRepository
	stats stats.StatsProvider
	push  notification.Publisher
	now   func() time.Time
}

func NewScheduler(logger *log.Logger, db database.MindlineRepository, sp stats.StatsProvider, push notification.Publisher) *Scheduler {
	return &Scheduler{
		log:   logger,
		db:    db,
		stats: sp,
		push:  push,
		now:   time.Now,
	}
}

// Submit records a completed self-assessment. The assessment row, its
// completion notification and the derived activity entry are written in a
// single transaction.
func (s *Scheduler) Submit(userId int, assessmentType string, responses map[string]any, totalScore float64, notes string) (types.Assessment, error) {
	raw, err := json.Marshal(responses)
	if err != nil {
		return types.Assessment{}, fmt.Errorf("marshal responses: %w", err)
	}

	externalId, err := shortid.Generate()
	if err != nil {
		return types.Assessment{}, fmt.Errorf("generate assessment id: %w", err)
	}

	actParams, err := activity.EntryParams(userId, activity.TypeAssessmentCompleted, activity.Metadata{
		Assessment: &activity.AssessmentMetadata{
			AssessmentType: assessmentType,
			TotalScore:     totalScore,
		},
	})
	if err != nil {
		return types.Assessment{}, err
	}

	completedAt := s.now().UTC()
	rec, notif, err := s.db.SubmitAssessment(database.SubmitAssessmentParams{
		ExternalId:     externalId,
		UserId:         userId,
		AssessmentType: assessmentType,
		Responses:      raw,
		TotalScore:     totalScore,
		Notes:          notes,
		CompletedAt:    completedAt,
		NextDueAt:      completedAt.Add(Interval),
	}, database.CreateNotificationParams{
		UserId:  userId,
		Type:    notification.TypeAssessment,
		Title:   "Assessment Completed",
		Message: fmt.Sprintf("Your %s assessment has been recorded.", assessmentType),
	}, actParams)
	if err != nil {
		return types.Assessment{}, err
	}

	s.stats.Incr("assessments_submitted")
	if s.push != nil {
		s.push.Publish(notif.UserId, types.Notification{
			Id:        notif.Id,
			UserId:    notif.UserId,
			Type:      notif.Type,
			Title:     notif.Title,
			Message:   notif.Message,
			IsRead:    notif.IsRead,
			CreatedAt: types.ClientTime(notif.CreatedAt),
		})
	}

	return toClient(rec), nil
}

// Due reports whether the user's next periodic assessment is due. With no
// prior assessment the user is due immediately. Overdue users get a negative
// day count. Rows predating stored due dates fall back to completion time
// plus the fixed interval.
func (s *Scheduler) Due(userId int) (DueStatus, error) {
	latest, err := s.db.LatestAssessment(userId)
	if errors.Is(err, sql.ErrNoRows) {
		return DueStatus{IsDue: true, DaysUntilDue: 0}, nil
	}
	if err != nil {
		return DueStatus{}, err
	}

	nextDue := latest.NextDueAt.Time
	if !latest.NextDueAt.Valid {
		nextDue = latest.CompletedAt.Add(Interval)
	}

	remaining := nextDue.Sub(s.now().UTC())
	days := int(math.Ceil(remaining.Hours() / 24))

	return DueStatus{IsDue: remaining <= 0, DaysUntilDue: days}, nil
}

// UserStats summarizes the user's assessment history. Trend is only
// classified once two assessments exist.
func (s *Scheduler) UserStats(userId int) (Stats, error) {
	records, err := s.db.ListAssessments(userId)
	if err != nil {
		return Stats{}, err
	}

	if len(records) == 0 {
		return Stats{}, nil
	}

	var sum float64
	for _, rec := range records {
		sum += rec.TotalScore
	}

	result := Stats{
		Count:        len(records),
		AverageScore: roundOneDecimal(sum / float64(len(records))),
		LatestScore:  records[0].TotalScore,
	}

	if len(records) >= 2 {
		trend := classifyTrend(records[0].TotalScore - records[1].TotalScore)
		result.Trend = &trend
	}

	return result, nil
}

func classifyTrend(diff float64) string {
	switch {
	case diff > trendThreshold:
		return TrendImproving
	case diff < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func roundOneDecimal(x float64) float64 {
	return math.Round(x*10) / 10
}

func toClient(rec database.AssessmentRecord) types.Assessment {
	a := types.Assessment{
		Id:          rec.ExternalId,
		Type:        rec.AssessmentType,
		TotalScore:  rec.TotalScore,
		CompletedAt: types.ClientTime(rec.CompletedAt),
	}
	if rec.NextDueAt.Valid {
		a.NextDueDate = types.ClientTime(rec.NextDueAt.Time)
	}

	return a
}
