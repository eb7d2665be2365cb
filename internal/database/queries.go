package database

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const (
	insertNotificationQuery = "INSERT INTO notifications (user_id, type, title, message, is_read, created_at) " +
		"VALUES ($1, $2, $3, $4, FALSE, $5) RETURNING id, user_id, type, title, message, is_read, created_at"
	insertActivityQuery = "INSERT INTO activities (user_id, activity_type, metadata, created_at) " +
		"VALUES ($1, $2, $3, $4) RETURNING id, user_id, activity_type, metadata, created_at"
)

func (db *PgMindlineRepository) CreateAccount(params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, org_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, username, email, org_id, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.OrgId,
		now,
		now,
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.OrgId,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgMindlineRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, org_id, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.OrgId,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgMindlineRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, org_id, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.OrgId,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgMindlineRepository) ListAccountsByOrg(orgId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, email, org_id FROM accounts WHERE org_id = $1 ORDER BY id",
		orgId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users = make([]User, 0)
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.Id, &u.Username, &u.EmailAddress, &u.OrgId); err != nil {
			break
		}

		users = append(users, u)
	}

	return users, err
}

func (db *PgMindlineRepository) GetPresence(userId int) (PresenceRecord, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, status, last_seen FROM presence WHERE user_id = $1 LIMIT 1",
		userId,
	)

	var p PresenceRecord
	err := row.Scan(&p.Id, &p.UserId, &p.Status, &p.LastSeen)

	return p, err
}

func (db *PgMindlineRepository) GetPresenceBatch(userIds []int) ([]PresenceRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, status, last_seen FROM presence WHERE user_id = ANY($1)",
		pq.Array(userIds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records = make([]PresenceRecord, 0, len(userIds))
	for rows.Next() {
		var p PresenceRecord
		if err = rows.Scan(&p.Id, &p.UserId, &p.Status, &p.LastSeen); err != nil {
			break
		}

		records = append(records, p)
	}

	return records, err
}

func (db *PgMindlineRepository) UpsertPresence(params UpsertPresenceParams) (PresenceRecord, error) {
	row := db.conn.QueryRow(
		"INSERT INTO presence (user_id, status, last_seen) VALUES ($1, $2, $3) "+
			"ON CONFLICT (user_id) DO UPDATE SET status = EXCLUDED.status, last_seen = EXCLUDED.last_seen "+
			"RETURNING id, user_id, status, last_seen",
		params.UserId,
		params.Status,
		params.LastSeen.UTC(),
	)

	var p PresenceRecord
	err := row.Scan(&p.Id, &p.UserId, &p.Status, &p.LastSeen)

	return p, err
}

func (db *PgMindlineRepository) ListPresenceSince(since time.Time) ([]PresenceRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, status, last_seen FROM presence "+
			"WHERE last_seen >= $1 ORDER BY last_seen DESC",
		since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records = make([]PresenceRecord, 0)
	for rows.Next() {
		var p PresenceRecord
		if err = rows.Scan(&p.Id, &p.UserId, &p.Status, &p.LastSeen); err != nil {
			break
		}

		records = append(records, p)
	}

	return records, err
}

func (db *PgMindlineRepository) CreateActivity(params CreateActivityParams) (ActivityEntry, error) {
	row := db.conn.QueryRow(
		insertActivityQuery,
		params.UserId,
		params.ActivityType,
		params.Metadata,
		time.Now().UTC(),
	)

	return scanActivity(row)
}

func (db *PgMindlineRepository) LatestActivityByType(userId int, activityType string) (ActivityEntry, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, activity_type, metadata, created_at FROM activities "+
			"WHERE user_id = $1 AND activity_type = $2 ORDER BY created_at DESC LIMIT 1",
		userId,
		activityType,
	)

	return scanActivity(row)
}

func (db *PgMindlineRepository) ListActivities(userId, limit int) ([]ActivityEntry, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, activity_type, metadata, created_at FROM activities "+
			"WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries = make([]ActivityEntry, 0, limit)
	for rows.Next() {
		var e ActivityEntry
		if err = rows.Scan(&e.Id, &e.UserId, &e.ActivityType, &e.Metadata, &e.CreatedAt); err != nil {
			break
		}

		entries = append(entries, e)
	}

	return entries, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (ActivityEntry, error) {
	var e ActivityEntry
	err := row.Scan(&e.Id, &e.UserId, &e.ActivityType, &e.Metadata, &e.CreatedAt)
	return e, err
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	err := row.Scan(&n.Id, &n.UserId, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	return n, err
}

func (db *PgMindlineRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	row := db.conn.QueryRow(
		insertNotificationQuery,
		params.UserId,
		params.Type,
		params.Title,
		params.Message,
		time.Now().UTC(),
	)

	return scanNotification(row)
}

func (db *PgMindlineRepository) GetNotification(id int) (Notification, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, type, title, message, is_read, created_at FROM notifications "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	return scanNotification(row)
}

func (db *PgMindlineRepository) ListNotifications(userId, limit int) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, type, title, message, is_read, created_at FROM notifications "+
			"WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (db *PgMindlineRepository) ListUnreadNotifications(userId int) ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, type, title, message, is_read, created_at FROM notifications "+
			"WHERE user_id = $1 AND NOT is_read ORDER BY created_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func collectNotifications(rows *sql.Rows) ([]Notification, error) {
	var notifications = make([]Notification, 0)
	var err error
	for rows.Next() {
		var n Notification
		if err = rows.Scan(&n.Id, &n.UserId, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			break
		}

		notifications = append(notifications, n)
	}

	return notifications, err
}

func (db *PgMindlineRepository) MarkNotificationRead(id int) error {
	res, err := db.conn.Exec("UPDATE notifications SET is_read = TRUE WHERE id = $1", id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgMindlineRepository) DeleteNotification(id int) error {
	res, err := db.conn.Exec("DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgMindlineRepository) DeleteNotificationsByUser(userId int) (int, error) {
	res, err := db.conn.Exec("DELETE FROM notifications WHERE user_id = $1", userId)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()

	return int(affected), err
}

func (db *PgMindlineRepository) CreateAnnouncement(params CreateAnnouncementParams, notifications []CreateNotificationParams) (Announcement, []Notification, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Announcement{}, nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res := tx.QueryRow(
		"INSERT INTO announcements (external_id, org_id, title, body, visibility, active, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"RETURNING id, external_id, org_id, title, body, visibility, active, created_at",
		params.ExternalId,
		params.OrgId,
		params.Title,
		params.Body,
		params.Visibility,
		params.Active,
		now,
	)

	var a Announcement
	err = res.Scan(&a.Id, &a.ExternalId, &a.OrgId, &a.Title, &a.Body, &a.Visibility, &a.Active, &a.CreatedAt)
	if err != nil {
		return Announcement{}, nil, err
	}

	var created = make([]Notification, 0, len(notifications))
	for _, np := range notifications {
		var n Notification
		row := tx.QueryRow(insertNotificationQuery, np.UserId, np.Type, np.Title, np.Message, now)
		if err = row.Scan(&n.Id, &n.UserId, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return Announcement{}, nil, err
		}

		created = append(created, n)
	}

	if err = tx.Commit(); err != nil {
		return Announcement{}, nil, err
	}

	return a, created, nil
}

func (db *PgMindlineRepository) GetAnnouncementByExternalId(externalId string) (Announcement, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, org_id, title, body, visibility, active, created_at FROM announcements "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var a Announcement
	err := row.Scan(&a.Id, &a.ExternalId, &a.OrgId, &a.Title, &a.Body, &a.Visibility, &a.Active, &a.CreatedAt)

	return a, err
}

func (db *PgMindlineRepository) ListAnnouncementsByOrg(orgId int, activeOnly bool) ([]Announcement, error) {
	query := "SELECT id, external_id, org_id, title, body, visibility, active, created_at FROM announcements " +
		"WHERE org_id = $1"
	if activeOnly {
		query += " AND active"
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.conn.Query(query, orgId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var announcements = make([]Announcement, 0)
	for rows.Next() {
		var a Announcement
		if err = rows.Scan(&a.Id, &a.ExternalId, &a.OrgId, &a.Title, &a.Body, &a.Visibility, &a.Active, &a.CreatedAt); err != nil {
			break
		}

		announcements = append(announcements, a)
	}

	return announcements, err
}

func (db *PgMindlineRepository) MarkAnnouncementRead(announcementId, userId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO announcement_reads (announcement_id, user_id, read_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (announcement_id, user_id) DO NOTHING",
		announcementId,
		userId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgMindlineRepository) ListAnnouncementReaders(announcementId int) ([]int, error) {
	rows, err := db.conn.Query(
		"SELECT user_id FROM announcement_reads WHERE announcement_id = $1 ORDER BY user_id",
		announcementId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readers = make([]int, 0)
	for rows.Next() {
		var userId int
		if err = rows.Scan(&userId); err != nil {
			break
		}

		readers = append(readers, userId)
	}

	return readers, err
}

func (db *PgMindlineRepository) SubmitAssessment(params SubmitAssessmentParams, notification CreateNotificationParams, activity CreateActivityParams) (AssessmentRecord, Notification, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return AssessmentRecord{}, Notification{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO assessments (external_id, user_id, assessment_type, responses, total_score, notes, completed_at, next_due_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) "+
			"RETURNING id, external_id, user_id, assessment_type, responses, total_score, notes, completed_at, next_due_at",
		params.ExternalId,
		params.UserId,
		params.AssessmentType,
		params.Responses,
		params.TotalScore,
		params.Notes,
		params.CompletedAt.UTC(),
		params.NextDueAt.UTC(),
	)

	var rec AssessmentRecord
	err = res.Scan(
		&rec.Id,
		&rec.ExternalId,
		&rec.UserId,
		&rec.AssessmentType,
		&rec.Responses,
		&rec.TotalScore,
		&rec.Notes,
		&rec.CompletedAt,
		&rec.NextDueAt,
	)
	if err != nil {
		return AssessmentRecord{}, Notification{}, err
	}

	var n Notification
	row := tx.QueryRow(
		insertNotificationQuery,
		notification.UserId,
		notification.Type,
		notification.Title,
		notification.Message,
		params.CompletedAt.UTC(),
	)
	if err = row.Scan(&n.Id, &n.UserId, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return AssessmentRecord{}, Notification{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO activities (user_id, activity_type, metadata, created_at) VALUES ($1, $2, $3, $4)",
		activity.UserId,
		activity.ActivityType,
		activity.Metadata,
		params.CompletedAt.UTC(),
	)
	if err != nil {
		return AssessmentRecord{}, Notification{}, err
	}

	if err = tx.Commit(); err != nil {
		return AssessmentRecord{}, Notification{}, err
	}

	return rec, n, nil
}

func (db *PgMindlineRepository) LatestAssessment(userId int) (AssessmentRecord, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, user_id, assessment_type, responses, total_score, notes, completed_at, next_due_at "+
			"FROM assessments WHERE user_id = $1 ORDER BY completed_at DESC LIMIT 1",
		userId,
	)

	var rec AssessmentRecord
	err := row.Scan(
		&rec.Id,
		&rec.ExternalId,
		&rec.UserId,
		&rec.AssessmentType,
		&rec.Responses,
		&rec.TotalScore,
		&rec.Notes,
		&rec.CompletedAt,
		&rec.NextDueAt,
	)

	return rec, err
}

func (db *PgMindlineRepository) ListAssessments(userId int) ([]AssessmentRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, user_id, assessment_type, responses, total_score, notes, completed_at, next_due_at "+
			"FROM assessments WHERE user_id = $1 ORDER BY completed_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records = make([]AssessmentRecord, 0)
	for rows.Next() {
		var rec AssessmentRecord
		err = rows.Scan(
			&rec.Id,
			&rec.ExternalId,
			&rec.UserId,
			&rec.AssessmentType,
			&rec.Responses,
			&rec.TotalScore,
			&rec.Notes,
			&rec.CompletedAt,
			&rec.NextDueAt,
		)
		if err != nil {
			break
		}

		records = append(records, rec)
	}

	return records, err
}

func (db *PgMindlineRepository) CreateMoodEntry(params CreateMoodParams, activity CreateActivityParams) (MoodEntry, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return MoodEntry{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res := tx.QueryRow(
		"INSERT INTO moods (user_id, rating, note, created_at) VALUES ($1, $2, $3, $4) "+
			"RETURNING id, user_id, rating, note, created_at",
		params.UserId,
		params.Rating,
		params.Note,
		now,
	)

	var m MoodEntry
	err = res.Scan(&m.Id, &m.UserId, &m.Rating, &m.Note, &m.CreatedAt)
	if err != nil {
		return MoodEntry{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO activities (user_id, activity_type, metadata, created_at) VALUES ($1, $2, $3, $4)",
		activity.UserId,
		activity.ActivityType,
		activity.Metadata,
		now,
	)
	if err != nil {
		return MoodEntry{}, err
	}

	if err = tx.Commit(); err != nil {
		return MoodEntry{}, err
	}

	return m, nil
}

func (db *PgMindlineRepository) ListMoodEntries(userId, limit int) ([]MoodEntry, error) {
	query := "SELECT id, user_id, rating, note, created_at FROM moods WHERE user_id = $1 ORDER BY created_at DESC"
	args := []any{userId}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries = make([]MoodEntry, 0)
	for rows.Next() {
		var m MoodEntry
		if err = rows.Scan(&m.Id, &m.UserId, &m.Rating, &m.Note, &m.CreatedAt); err != nil {
			break
		}

		entries = append(entries, m)
	}

	return entries, err
}
