package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockMindlineRepository struct {
	mock.Mock
}

func (m *MockMindlineRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockMindlineRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockMindlineRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockMindlineRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockMindlineRepository) ListAccountsByOrg(orgId int) ([]User, error) {
	args := m.Called(orgId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockMindlineRepository) GetPresence(userId int) (PresenceRecord, error) {
	args := m.Called(userId)
	return args.Get(0).(PresenceRecord), args.Error(1)
}
func (m *MockMindlineRepository) GetPresenceBatch(userIds []int) ([]PresenceRecord, error) {
	args := m.Called(userIds)
	return args.Get(0).([]PresenceRecord), args.Error(1)
}
func (m *MockMindlineRepository) UpsertPresence(params UpsertPresenceParams) (PresenceRecord, error) {
	args := m.Called(params)
	return args.Get(0).(PresenceRecord), args.Error(1)
}
func (m *MockMindlineRepository) ListPresenceSince(since time.Time) ([]PresenceRecord, error) {
	args := m.Called(since)
	return args.Get(0).([]PresenceRecord), args.Error(1)
}
func (m *MockMindlineRepository) CreateActivity(params CreateActivityParams) (ActivityEntry, error) {
	args := m.Called(params)
	return args.Get(0).(ActivityEntry), args.Error(1)
}
func (m *MockMindlineRepository) LatestActivityByType(userId int, activityType string) (ActivityEntry, error) {
	args := m.Called(userId, activityType)
	return args.Get(0).(ActivityEntry), args.Error(1)
}
func (m *MockMindlineRepository) ListActivities(userId, limit int) ([]ActivityEntry, error) {
	args := m.Called(userId, limit)
	return args.Get(0).([]ActivityEntry), args.Error(1)
}
func (m *MockMindlineRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	args := m.Called(params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockMindlineRepository) GetNotification(id int) (Notification, error) {
	args := m.Called(id)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockMindlineRepository) ListNotifications(userId, limit int) ([]Notification, error) {
	args := m.Called(userId, limit)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockMindlineRepository) ListUnreadNotifications(userId int) ([]Notification, error) {
	args := m.Called(userId)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockMindlineRepository) MarkNotificationRead(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockMindlineRepository) DeleteNotification(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockMindlineRepository) DeleteNotificationsByUser(userId int) (int, error) {
	args := m.Called(userId)
	return args.Int(0), args.Error(1)
}
func (m *MockMindlineRepository) CreateAnnouncement(params CreateAnnouncementParams, notifications []CreateNotificationParams) (Announcement, []Notification, error) {
	args := m.Called(params, notifications)
	return args.Get(0).(Announcement), args.Get(1).([]Notification), args.Error(2)
}
func (m *MockMindlineRepository) GetAnnouncementByExternalId(externalId string) (Announcement, error) {
	args := m.Called(externalId)
	return args.Get(0).(Announcement), args.Error(1)
}
func (m *MockMindlineRepository) ListAnnouncementsByOrg(orgId int, activeOnly bool) ([]Announcement, error) {
	args := m.Called(orgId, activeOnly)
	return args.Get(0).([]Announcement), args.Error(1)
}
func (m *MockMindlineRepository) MarkAnnouncementRead(announcementId, userId int) error {
	args := m.Called(announcementId, userId)
	return args.Error(0)
}
func (m *MockMindlineRepository) ListAnnouncementReaders(announcementId int) ([]int, error) {
	args := m.Called(announcementId)
	return args.Get(0).([]int), args.Error(1)
}
func (m *MockMindlineRepository) SubmitAssessment(params SubmitAssessmentParams, notification CreateNotificationParams, activity CreateActivityParams) (AssessmentRecord, Notification, error) {
	args := m.Called(params, notification, activity)
	return args.Get(0).(AssessmentRecord), args.Get(1).(Notification), args.Error(2)
}
func (m *MockMindlineRepository) LatestAssessment(userId int) (AssessmentRecord, error) {
	args := m.Called(userId)
	return args.Get(0).(AssessmentRecord), args.Error(1)
}
func (m *MockMindlineRepository) ListAssessments(userId int) ([]AssessmentRecord, error) {
	args := m.Called(userId)
	return args.Get(0).([]AssessmentRecord), args.Error(1)
}
func (m *MockMindlineRepository) CreateMoodEntry(params CreateMoodParams, activity CreateActivityParams) (MoodEntry, error) {
	args := m.Called(params, activity)
	return args.Get(0).(MoodEntry), args.Error(1)
}
func (m *MockMindlineRepository) ListMoodEntries(userId, limit int) ([]MoodEntry, error) {
	args := m.Called(userId, limit)
	return args.Get(0).([]MoodEntry), args.Error(1)
}
