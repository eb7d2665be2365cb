package database

import "time"

type MindlineRepository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	ListAccountsByOrg(orgId int) ([]User, error)

	GetPresence(userId int) (PresenceRecord, error)
	GetPresenceBatch(userIds []int) ([]PresenceRecord, error)
	UpsertPresence(params UpsertPresenceParams) (PresenceRecord, error)
	ListPresenceSince(since time.Time) ([]PresenceRecord, error)

	CreateActivity(params CreateActivityParams) (ActivityEntry, error)
	LatestActivityByType(userId int, activityType string) (ActivityEntry, error)
	ListActivities(userId, limit int) ([]ActivityEntry, error)

	CreateNotification(params CreateNotificationParams) (Notification, error)
	GetNotification(id int) (Notification, error)
	ListNotifications(userId, limit int) ([]Notification, error)
	ListUnreadNotifications(userId int) ([]Notification, error)
	MarkNotificationRead(id int) error
	DeleteNotification(id int) error
	DeleteNotificationsByUser(userId int) (int, error)

	// CreateAnnouncement inserts the announcement and every fan-out
	// notification in a single transaction.
	CreateAnnouncement(params CreateAnnouncementParams, notifications []CreateNotificationParams) (Announcement, []Notification, error)
	GetAnnouncementByExternalId(externalId string) (Announcement, error)
	ListAnnouncementsByOrg(orgId int, activeOnly bool) ([]Announcement, error)
	MarkAnnouncementRead(announcementId, userId int) error
	ListAnnouncementReaders(announcementId int) ([]int, error)

	// SubmitAssessment inserts the assessment, its completion notification
	// and the derived activity entry in a single transaction.
	SubmitAssessment(params SubmitAssessmentParams, notification CreateNotificationParams, activity CreateActivityParams) (AssessmentRecord, Notification, error)
	LatestAssessment(userId int) (AssessmentRecord, error)
	ListAssessments(userId int) ([]AssessmentRecord, error)

	// CreateMoodEntry inserts the mood row and the derived activity entry
	// in a single transaction.
	CreateMoodEntry(params CreateMoodParams, activity CreateActivityParams) (MoodEntry, error)
	ListMoodEntries(userId, limit int) ([]MoodEntry, error)
}
