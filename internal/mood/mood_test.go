package mood

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mindline-app/mindline-server/internal/activity"
	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testService(t *testing.T) (*Service, *database.MockMindlineRepository) {
	mockRepo := &database.MockMindlineRepository{}
	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("Incr", mock.Anything).Maybe()

	s := NewService(testutil.TestLogger(t), mockRepo, mockStats)
	s.now = func() time.Time { return baseTime }

	return s, mockRepo
}

func TestSubmitRejectsOutOfRangeRatings(t *testing.T) {
	s, mockRepo := testService(t)

	for _, rating := range []int{0, -3, 11, 100} {
		_, err := s.Submit(7, rating, "")
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	mockRepo.AssertNotCalled(t, "CreateMoodEntry", mock.Anything, mock.Anything)
}

func TestSubmitWritesEntryAndActivity(t *testing.T) {
	s, mockRepo := testService(t)
	defer mockRepo.AssertExpectations(t)

	entry := database.MoodEntry{Id: 1, UserId: 7, Rating: 8, Note: "good day", CreatedAt: baseTime}

	mockRepo.On("CreateMoodEntry",
		database.CreateMoodParams{UserId: 7, Rating: 8, Note: "good day"},
		mock.MatchedBy(func(a database.CreateActivityParams) bool {
			if a.UserId != 7 || a.ActivityType != activity.TypeMoodEntry {
				return false
			}
			var md activity.Metadata
			if err := json.Unmarshal(a.Metadata, &md); err != nil {
				return false
			}
			return md.Mood != nil && md.Mood.Rating == 8
		}),
	).Return(entry, nil).Once()

	got, err := s.Submit(7, 8, "good day")
	assert.NoError(t, err)
	assert.Equal(t, 8, got.Rating)
	assert.Equal(t, "good day", got.Note)
}

func TestSubmitAcceptsBoundaryRatings(t *testing.T) {
	s, mockRepo := testService(t)
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("CreateMoodEntry", mock.Anything, mock.Anything).
		Return(database.MoodEntry{Id: 1, UserId: 7, Rating: MinRating, CreatedAt: baseTime}, nil).Twice()

	_, err := s.Submit(7, MinRating, "")
	assert.NoError(t, err)
	_, err = s.Submit(7, MaxRating, "")
	assert.NoError(t, err)
}

func TestHistoryAppliesDefaultLimit(t *testing.T) {
	s, mockRepo := testService(t)
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListMoodEntries", 7, defaultListLimit).Return([]database.MoodEntry{}, nil).Once()

	entries, err := s.History(7, 0)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUserStatsAveragesAllEntries(t *testing.T) {
	s, mockRepo := testService(t)
	defer mockRepo.AssertExpectations(t)

	rows := []database.MoodEntry{
		{Id: 3, UserId: 7, Rating: 8, CreatedAt: baseTime},
		{Id: 2, UserId: 7, Rating: 7, CreatedAt: baseTime.Add(-time.Hour)},
		{Id: 1, UserId: 7, Rating: 7, CreatedAt: baseTime.Add(-2 * time.Hour)},
	}
	mockRepo.On("ListMoodEntries", 7, 0).Return(rows, nil).Once()

	got, err := s.UserStats(7)
	assert.NoError(t, err)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 7.3, got.AverageRating)
}

func TestUserStatsNoEntries(t *testing.T) {
	s, mockRepo := testService(t)
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListMoodEntries", 7, 0).Return([]database.MoodEntry{}, nil).Once()

	got, err := s.UserStats(7)
	assert.NoError(t, err)
	assert.Zero(t, got.Count)
	assert.Zero(t, got.AverageRating)
}
