package activity

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/presence"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testLog(t *testing.T) (*Log, *database.MockMindlineRepository) {
	mockRepo := &database.MockMindlineRepository{}
	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("Incr", mock.Anything).Maybe()

	logger := testutil.TestLogger(t)
	tracker := presence.NewTracker(logger, mockRepo, mockStats)
	l := NewLog(logger, mockRepo, tracker, mockStats)
	l.now = func() time.Time { return baseTime }

	return l, mockRepo
}

func expectPresenceUpsert(mockRepo *database.MockMindlineRepository) {
	mockRepo.On("GetPresence", mock.Anything).Return(database.PresenceRecord{}, sql.ErrNoRows).Maybe()
	mockRepo.On("UpsertPresence", mock.Anything).Return(database.PresenceRecord{}, nil).Once()
}

func TestRecordLoginFirstEntry(t *testing.T) {
	l, mockRepo := testLog(t)
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("LatestActivityByType", 7, TypeLogin).Return(database.ActivityEntry{}, sql.ErrNoRows).Once()
	mockRepo.On("CreateActivity", mock.MatchedBy(func(p database.CreateActivityParams) bool {
		return p.UserId == 7 && p.ActivityType == TypeLogin
	})).Return(database.ActivityEntry{Id: 1}, nil).Once()
	expectPresenceUpsert(mockRepo)

	assert.NoError(t, l.RecordLogin(7))
}

func TestRecordLoginDeduplicatedWithinWindow(t *testing.T) {
	l, mockRepo := testLog(t)
	defer mockRepo.AssertExpectations(t)

	last := database.ActivityEntry{Id: 1, UserId: 7, ActivityType: TypeLogin, CreatedAt: baseTime.Add(-2 * time.Minute)}
	mockRepo.On("LatestActivityByType", 7, TypeLogin).Return(last, nil).Once()
	expectPresenceUpsert(mockRepo)

	assert.NoError(t, l.RecordLogin(7))
	mockRepo.AssertNotCalled(t, "CreateActivity", mock.Anything)
}

func TestRecordLoginAppendsAfterWindow(t *testing.T) {
	l, mockRepo := testLog(t)
	defer mockRepo.AssertExpectations(t)

	last := database.ActivityEntry{Id: 1, UserId: 7, ActivityType: TypeLogin, CreatedAt: baseTime.Add(-6 * time.Minute)}
	mockRepo.On("LatestActivityByType", 7, TypeLogin).Return(last, nil).Once()
	mockRepo.On("CreateActivity", mock.Anything).Return(database.ActivityEntry{Id: 2}, nil).Once()
	expectPresenceUpsert(mockRepo)

	assert.NoError(t, l.RecordLogin(7))
}

func TestRecordLogoutAlwaysAppends(t *testing.T) {
	l, mockRepo := testLog(t)
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("CreateActivity", mock.MatchedBy(func(p database.CreateActivityParams) bool {
		return p.UserId == 7 && p.ActivityType == TypeLogout
	})).Return(database.ActivityEntry{Id: 3}, nil).Once()
	mockRepo.On("UpsertPresence", mock.MatchedBy(func(p database.UpsertPresenceParams) bool {
		return p.UserId == 7 && p.Status == presence.StatusOffline
	})).Return(database.PresenceRecord{}, nil).Once()

	assert.NoError(t, l.RecordLogout(7))
	mockRepo.AssertNotCalled(t, "LatestActivityByType", mock.Anything, mock.Anything)
}

func TestUserActivitiesDefaultLimit(t *testing.T) {
	l, mockRepo := testLog(t)
	defer mockRepo.AssertExpectations(t)

	entries := []database.ActivityEntry{
		{Id: 2, UserId: 7, ActivityType: TypeLogout, CreatedAt: baseTime},
		{Id: 1, UserId: 7, ActivityType: TypeLogin, CreatedAt: baseTime.Add(-time.Hour)},
	}
	mockRepo.On("ListActivities", 7, 50).Return(entries, nil).Once()

	activities, err := l.UserActivities(7, 0)
	assert.NoError(t, err)
	assert.Len(t, activities, 2)
	assert.Equal(t, TypeLogout, activities[0].Type, "expected newest-first ordering preserved")
}

func TestEntryParamsMarshalsSingleVariant(t *testing.T) {
	params, err := EntryParams(7, TypeMoodEntry, Metadata{Mood: &MoodMetadata{Rating: 8}})
	assert.NoError(t, err)
	assert.Equal(t, 7, params.UserId)
	assert.Equal(t, TypeMoodEntry, params.ActivityType)

	var decoded map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(params.Metadata, &decoded))
	assert.Contains(t, decoded, "mood")
	assert.NotContains(t, decoded, "login")
	assert.NotContains(t, decoded, "assessment")
}
