package presence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testTracker(t *testing.T) (*Tracker, *database.MockMindlineRepository) {
	mockRepo := &database.MockMindlineRepository{}
	mockStats := &stats.MockStatsUpdater{}
	mockStats.On("Incr", mock.Anything).Maybe()
	mockStats.On("Decr", mock.Anything).Maybe()

	tracker := NewTracker(testutil.TestLogger(t), mockRepo, mockStats)
	tracker.now = func() time.Time { return baseTime }

	return tracker, mockRepo
}

func TestHeartbeatUpsertsWhenStale(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	existing := database.PresenceRecord{Id: 1, UserId: 7, Status: StatusOnline, LastSeen: baseTime.Add(-30 * time.Second)}
	updated := database.PresenceRecord{Id: 1, UserId: 7, Status: StatusOnline, LastSeen: baseTime}

	mockRepo.On("GetPresence", 7).Return(existing, nil).Once()
	mockRepo.On("UpsertPresence", database.UpsertPresenceParams{
		UserId:   7,
		Status:   StatusOnline,
		LastSeen: baseTime,
	}).Return(updated, nil).Once()

	rec, err := tracker.Heartbeat(7, "")
	assert.NoError(t, err)
	assert.Equal(t, updated, rec, "expected the updated record back")
}

func TestHeartbeatCoalescesRecentWrite(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	existing := database.PresenceRecord{Id: 1, UserId: 7, Status: StatusOnline, LastSeen: baseTime.Add(-5 * time.Second)}
	mockRepo.On("GetPresence", 7).Return(existing, nil).Once()

	rec, err := tracker.Heartbeat(7, StatusOnline)
	assert.NoError(t, err)
	assert.Equal(t, existing, rec, "expected the pre-existing record when coalesced")
	mockRepo.AssertNotCalled(t, "UpsertPresence", mock.Anything)
}

func TestHeartbeatStatusChangeIsNotCoalesced(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	existing := database.PresenceRecord{Id: 1, UserId: 7, Status: StatusOnline, LastSeen: baseTime.Add(-2 * time.Second)}
	updated := database.PresenceRecord{Id: 1, UserId: 7, Status: StatusOffline, LastSeen: baseTime}

	mockRepo.On("GetPresence", 7).Return(existing, nil).Once()
	mockRepo.On("UpsertPresence", mock.Anything).Return(updated, nil).Once()

	rec, err := tracker.Heartbeat(7, StatusOffline)
	assert.NoError(t, err)
	assert.Equal(t, StatusOffline, rec.Status)
}

func TestHeartbeatFirstRecord(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	created := database.PresenceRecord{Id: 1, UserId: 9, Status: StatusOnline, LastSeen: baseTime}
	mockRepo.On("GetPresence", 9).Return(database.PresenceRecord{}, sql.ErrNoRows).Once()
	mockRepo.On("UpsertPresence", mock.Anything).Return(created, nil).Once()

	rec, err := tracker.Heartbeat(9, StatusOnline)
	assert.NoError(t, err)
	assert.Equal(t, created, rec)
}

func TestMarkOfflineAlwaysWrites(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("UpsertPresence", database.UpsertPresenceParams{
		UserId:   7,
		Status:   StatusOffline,
		LastSeen: baseTime,
	}).Return(database.PresenceRecord{}, nil).Once()

	assert.NoError(t, tracker.MarkOffline(7))
	mockRepo.AssertNotCalled(t, "GetPresence", mock.Anything)
}

func TestStatusFreshness(t *testing.T) {
	tcases := []struct {
		name     string
		status   string
		lastSeen time.Time
		online   bool
	}{
		{
			name:     "heartbeat four minutes ago is online",
			status:   StatusOnline,
			lastSeen: baseTime.Add(-4 * time.Minute),
			online:   true,
		},
		{
			name:     "heartbeat at the five minute boundary is online",
			status:   StatusOnline,
			lastSeen: baseTime.Add(-FreshnessWindow),
			online:   true,
		},
		{
			name:     "heartbeat six minutes ago is offline",
			status:   StatusOnline,
			lastSeen: baseTime.Add(-6 * time.Minute),
			online:   false,
		},
		{
			name:     "stored offline status is never online",
			status:   StatusOffline,
			lastSeen: baseTime,
			online:   false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			tracker, mockRepo := testTracker(t)
			defer mockRepo.AssertExpectations(t)

			rec := database.PresenceRecord{Id: 1, UserId: 7, Status: tc.status, LastSeen: tc.lastSeen}
			mockRepo.On("GetPresence", 7).Return(rec, nil).Once()

			status, err := tracker.Status(7)
			assert.NoError(t, err)
			assert.Equal(t, tc.online, status.Online)
			assert.Equal(t, tc.status, status.Status, "stored status is reported as-is")
			assert.NotNil(t, status.LastSeen)
		})
	}
}

func TestStatusMissingRecordIsOffline(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetPresence", 42).Return(database.PresenceRecord{}, sql.ErrNoRows).Once()

	status, err := tracker.Status(42)
	assert.NoError(t, err, "a missing record is a valid offline state")
	assert.False(t, status.Online)
	assert.Equal(t, StatusOffline, status.Status)
	assert.Nil(t, status.LastSeen)
}

func TestStatusBatchMatchesIndividualStatus(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	recs := []database.PresenceRecord{
		{Id: 1, UserId: 1, Status: StatusOnline, LastSeen: baseTime.Add(-time.Minute)},
		{Id: 2, UserId: 2, Status: StatusOnline, LastSeen: baseTime.Add(-10 * time.Minute)},
	}

	mockRepo.On("GetPresenceBatch", []int{1, 2, 3}).Return(recs, nil).Once()
	mockRepo.On("GetPresence", 1).Return(recs[0], nil).Once()
	mockRepo.On("GetPresence", 2).Return(recs[1], nil).Once()
	mockRepo.On("GetPresence", 3).Return(database.PresenceRecord{}, sql.ErrNoRows).Once()

	batch, err := tracker.StatusBatch([]int{1, 2, 3})
	assert.NoError(t, err)
	assert.Len(t, batch, 3)

	for _, id := range []int{1, 2, 3} {
		single, err := tracker.Status(id)
		assert.NoError(t, err)
		assert.Equal(t, single, batch[id], "batch result for user %d must match Status", id)
	}
}

func TestOnlineUsesDefaultWindow(t *testing.T) {
	tracker, mockRepo := testTracker(t)
	defer mockRepo.AssertExpectations(t)

	recs := []database.PresenceRecord{
		{Id: 1, UserId: 1, Status: StatusOnline, LastSeen: baseTime.Add(-time.Minute)},
	}
	mockRepo.On("ListPresenceSince", baseTime.Add(-DefaultOnlineWindow)).Return(recs, nil).Once()

	statuses, err := tracker.Online(0)
	assert.NoError(t, err)
	assert.Len(t, statuses, 1)
	assert.True(t, statuses[0].Online)
}
