package types

import (
	"encoding/json"
)

type User struct {
	Id           int    `json:"id"`
	Username     string `json:"username"`
	EmailAddress string `json:"email_address,omitempty"`
	OrgId        int    `json:"org_id"`
	Password     string `json:"-"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// PresenceStatus is the derived view of a user's liveness. Online is always
// recomputed from the stored status and last-seen timestamp, never persisted.
type PresenceStatus struct {
	UserId   int     `json:"user_id"`
	Status   string  `json:"status"`
	Online   bool    `json:"online"`
	LastSeen *string `json:"last_seen"`
}

type Activity struct {
	Id        int             `json:"id"`
	UserId    int             `json:"user_id"`
	Type      string          `json:"type"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type Notification struct {
	Id        int    `json:"id"`
	UserId    int    `json:"user_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type Announcement struct {
	Id         string `json:"id"`
	OrgId      int    `json:"org_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Visibility string `json:"visibility"`
	Active     bool   `json:"active"`
	ReadBy     []int  `json:"read_by"`
	CreatedAt  string `json:"created_at"`
}

type Assessment struct {
	Id          string  `json:"id"`
	Type        string  `json:"type"`
	TotalScore  float64 `json:"total_score"`
	CompletedAt string  `json:"completed_at"`
	NextDueDate string  `json:"next_due_date"`
}

type MoodEntry struct {
	Id        int    `json:"id"`
	Rating    int    `json:"rating"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}
