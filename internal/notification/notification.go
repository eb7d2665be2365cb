package notification

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/mail"
	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/types"
	"github.com/teris-io/shortid"
)

const (
	TypeAnnouncement = "announcement"
	TypeAssessment   = "assessment"
	TypeSystem       = "system"

	VisibilityOrg = "org"

	defaultListLimit = 200
)

// ErrNotAuthorized is returned when a caller outside the admin allowlist
// attempts a privileged operation. Nothing is written.
var ErrNotAuthorized = errors.New("caller is not an announcement admin")

// Publisher delivers a freshly created notification to any live connection
// the user has. Delivery is best-effort.
type Publisher interface {
	Publish(userId int, n types.Notification)
}

type Service struct {
	log           *log.Logger
	db            database.MindlineRepository
	stats         stats.StatsProvider
	push          Publisher
	mail          mail.Sender
	adminSubjects map[string]struct{}
	now           func() time.Time
}

// NewService builds the notification service. adminSubjects is the allowlist
// of identities permitted to create announcements, injected here rather than
// read from the environment so the service is testable as-is.
func NewService(logger *log.Logger, db database.MindlineRepository, sp stats.StatsProvider, push Publisher, sender mail.Sender, adminSubjects []string) *Service {
	admins := make(map[string]struct{}, len(adminSubjects))
	for _, s := range adminSubjects {
		admins[s] = struct{}{}
	}

	return &Service{
		log:           logger,
		db:            db,
		stats:         sp,
		push:          push,
		mail:          sender,
		adminSubjects: admins,
		now:           time.Now,
	}
}

func (s *Service) IsAdmin(subject string) bool {
	_, ok := s.adminSubjects[subject]
	return ok
}

// Create inserts a single unread notification for one user.
func (s *Service) Create(userId int, notifType, title, message string) (types.Notification, error) {
	n, err := s.db.CreateNotification(database.CreateNotificationParams{
		UserId:  userId,
		Type:    notifType,
		Title:   title,
		Message: message,
	})
	if err != nil {
		return types.Notification{}, err
	}

	s.stats.Incr("notifications_created")

	client := toClient(n)
	if s.push != nil {
		s.push.Publish(n.UserId, client)
	}

	return client, nil
}

// Notifications returns the user's notifications newest-first.
func (s *Service) Notifications(userId, limit int) ([]types.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.ListNotifications(userId, limit)
	if err != nil {
		return nil, err
	}

	notifications := make([]types.Notification, 0, len(rows))
	for _, n := range rows {
		notifications = append(notifications, toClient(n))
	}

	return notifications, nil
}

// MarkRead flips a notification to read. Marking an already-read
// notification is a no-op in effect; a read notification never reverts.
func (s *Service) MarkRead(id int) error {
	return s.db.MarkNotificationRead(id)
}

// MarkAllRead marks every unread notification for the user and returns how
// many were updated. The per-row patches are not atomic as a group; each
// notification has a single owner so interleaved reads are acceptable.
func (s *Service) MarkAllRead(userId int) (int, error) {
	unread, err := s.db.ListUnreadNotifications(userId)
	if err != nil {
		return 0, err
	}

	var updated int
	for _, n := range unread {
		if err := s.db.MarkNotificationRead(n.Id); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

func (s *Service) Delete(id int) error {
	return s.db.DeleteNotification(id)
}

func (s *Service) ClearAll(userId int) (int, error) {
	return s.db.DeleteNotificationsByUser(userId)
}

// CreateAnnouncement inserts one announcement and fans out one notification
// per member of the organization, all in one transaction. The membership
// list is read once up front; a user joining the org mid-call may or may not
// be notified. Returns the announcement and the number of members notified.
func (s *Service) CreateAnnouncement(subject string, orgId int, title, body, visibility string, active bool) (types.Announcement, int, error) {
	if !s.IsAdmin(subject) {
		return types.Announcement{}, 0, ErrNotAuthorized
	}

	if visibility == "" {
		visibility = VisibilityOrg
	}

	members, err := s.db.ListAccountsByOrg(orgId)
	if err != nil {
		return types.Announcement{}, 0, err
	}

	externalId, err := shortid.Generate()
	if err != nil {
		return types.Announcement{}, 0, fmt.Errorf("generate announcement id: %w", err)
	}

	fanout := make([]database.CreateNotificationParams, 0, len(members))
	for _, member := range members {
		fanout = append(fanout, database.CreateNotificationParams{
			UserId:  member.Id,
			Type:    TypeAnnouncement,
			Title:   "New Announcement: " + title,
			Message: body,
		})
	}

	ann, created, err := s.db.CreateAnnouncement(database.CreateAnnouncementParams{
		ExternalId: externalId,
		OrgId:      orgId,
		Title:      title,
		Body:       body,
		Visibility: visibility,
		Active:     active,
	}, fanout)
	if err != nil {
		return types.Announcement{}, 0, err
	}

	s.stats.Incr("announcements_created")
	for _, n := range created {
		s.stats.Incr("notifications_created")
		if s.push != nil {
			s.push.Publish(n.UserId, toClient(n))
		}
	}

	if s.mail != nil {
		for _, member := range members {
			if res := s.mail.Send(member.EmailAddress, title, body); !res.Sent {
				s.log.Printf("announcement mail to %s not sent: %s", member.EmailAddress, res.Reason)
			}
		}
	}

	return announcementToClient(ann, []int{}), len(created), nil
}

// Announcements lists an organization's announcements with their read sets.
func (s *Service) Announcements(orgId int, activeOnly bool) ([]types.Announcement, error) {
	rows, err := s.db.ListAnnouncementsByOrg(orgId, activeOnly)
	if err != nil {
		return nil, err
	}

	announcements := make([]types.Announcement, 0, len(rows))
	for _, a := range rows {
		readers, err := s.db.ListAnnouncementReaders(a.Id)
		if err != nil {
			return nil, err
		}

		announcements = append(announcements, announcementToClient(a, readers))
	}

	return announcements, nil
}

// MarkAnnouncementRead records that the user has seen the announcement.
// Idempotent: repeat calls leave the read set unchanged.
func (s *Service) MarkAnnouncementRead(externalId string, userId int) error {
	ann, err := s.db.GetAnnouncementByExternalId(externalId)
	if err != nil {
		return err
	}

	return s.db.MarkAnnouncementRead(ann.Id, userId)
}

func toClient(n database.Notification) types.Notification {
	return types.Notification{
		Id:        n.Id,
		UserId:    n.UserId,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: types.ClientTime(n.CreatedAt),
	}
}

func announcementToClient(a database.Announcement, readBy []int) types.Announcement {
	if readBy == nil {
		readBy = []int{}
	}

	return types.Announcement{
		Id:         a.ExternalId,
		OrgId:      a.OrgId,
		Title:      a.Title,
		Body:       a.Body,
		Visibility: a.Visibility,
		Active:     a.Active,
		ReadBy:     readBy,
		CreatedAt:  types.ClientTime(a.CreatedAt),
	}
}
