package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	OrgId        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PresenceRecord struct {
	Id       int
	UserId   int
	Status   string
	LastSeen time.Time
}

type ActivityEntry struct {
	Id           int
	UserId       int
	ActivityType string
	Metadata     json.RawMessage
	CreatedAt    time.Time
}

type Notification struct {
	Id        int
	UserId    int
	Type      string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

type Announcement struct {
	Id         int
	ExternalId string
	OrgId      int
	Title      string
	Body       string
	Visibility string
	Active     bool
	CreatedAt  time.Time
}

type AssessmentRecord struct {
	Id             int
	ExternalId     string
	UserId         int
	AssessmentType string
	Responses      json.RawMessage
	TotalScore     float64
	Notes          string
	CompletedAt    time.Time
	// NextDueAt may be null for rows written before due dates were stored.
	NextDueAt sql.NullTime
}

type MoodEntry struct {
	Id        int
	UserId    int
	Rating    int
	Note      string
	CreatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	OrgId        int
}

type UpsertPresenceParams struct {
	UserId   int
	Status   string
	LastSeen time.Time
}

type CreateActivityParams struct {
	UserId       int
	ActivityType string
	Metadata     json.RawMessage
}

type CreateNotificationParams struct {
	UserId  int
	Type    string
	Title   string
	Message string
}

type CreateAnnouncementParams struct {
	ExternalId string
	OrgId      int
	Title      string
	Body       string
	Visibility string
	Active     bool
}

type SubmitAssessmentParams struct {
	ExternalId     string
	UserId         int
	AssessmentType string
	Responses      json.RawMessage
	TotalScore     float64
	Notes          string
	CompletedAt    time.Time
	NextDueAt      time.Time
}

type CreateMoodParams struct {
	UserId int
	Rating int
	Note   string
}
