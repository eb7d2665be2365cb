package mood

import (
	"errors"
	"log"
	"math"
	"time"

	"github.com/mindline-app/mindline-server/internal/activity"
	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/types"
)

const (
	MinRating = 1
	MaxRating = 10

	defaultListLimit = 50
)

var ErrInvalidRating = errors.New("mood rating must be between 1 and 10")

type Stats struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
}

type Service struct {
	log   *log.Logger
	db    database.MindlineRepository
	stats stats.StatsProvider
	now   func() time.Time
}

func NewService(logger *log.Logger, db database.MindlineRepository, sp stats.StatsProvider) *Service {
	return &Service{
		log:   logger,
		db:    db,
		stats: sp,
		now:   time.Now,
	}
}

// Submit records a mood entry and its derived activity in one transaction.
func (s *Service) Submit(userId, rating int, note string) (types.MoodEntry, error) {
	if rating < MinRating || rating > MaxRating {
		return types.MoodEntry{}, ErrInvalidRating
	}

	actParams, err := activity.EntryParams(userId, activity.TypeMoodEntry, activity.Metadata{
		Mood: &activity.MoodMetadata{Rating: rating},
	})
	if err != nil {
		return types.MoodEntry{}, err
	}

	entry, err := s.db.CreateMoodEntry(database.CreateMoodParams{
		UserId: userId,
		Rating: rating,
		Note:   note,
	}, actParams)
	if err != nil {
		return types.MoodEntry{}, err
	}

	s.stats.Incr("moods_recorded")
	return toClient(entry), nil
}

// History returns the user's mood entries newest-first.
func (s *Service) History(userId, limit int) ([]types.MoodEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.ListMoodEntries(userId, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]types.MoodEntry, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, toClient(m))
	}

	return entries, nil
}

// UserStats summarizes all of the user's mood entries.
func (s *Service) UserStats(userId int) (Stats, error) {
	rows, err := s.db.ListMoodEntries(userId, 0)
	if err != nil {
		return Stats{}, err
	}

	if len(rows) == 0 {
		return Stats{}, nil
	}

	var sum int
	for _, m := range rows {
		sum += m.Rating
	}

	return Stats{
		Count:         len(rows),
		AverageRating: math.Round(float64(sum)/float64(len(rows))*10) / 10,
	}, nil
}

func toClient(m database.MoodEntry) types.MoodEntry {
	return types.MoodEntry{
		Id:        m.Id,
		Rating:    m.Rating,
		Note:      m.Note,
		CreatedAt: types.ClientTime(m.CreatedAt),
	}
}
