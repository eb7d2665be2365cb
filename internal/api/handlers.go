package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mindline-app/mindline-server/internal/mood"
	"github.com/mindline-app/mindline-server/internal/notification"
	"github.com/mindline-app/mindline-server/internal/push"
	"github.com/mindline-app/mindline-server/internal/types"
)

type HeartbeatRequest struct {
	Status string `json:"status,omitempty"`
}

type HeartbeatResponse struct {
	Ok       bool   `json:"ok"`
	LastSeen string `json:"last_seen"`
}

type CreateNotificationRequest struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type MarkReadRequest struct {
	Id int `json:"id"`
}

type CreateAnnouncementRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Visibility string `json:"visibility,omitempty"`
	Active     *bool  `json:"active,omitempty"`
}

type MarkAnnouncementReadRequest struct {
	Id string `json:"id"`
}

type SubmitAssessmentRequest struct {
	AssessmentType string         `json:"assessment_type"`
	Responses      map[string]any `json:"responses"`
	TotalScore     float64        `json:"total_score"`
	Notes          string         `json:"notes,omitempty"`
}

type SubmitMoodRequest struct {
	Rating int    `json:"rating"`
	Note   string `json:"note,omitempty"`
}

func (s *MindlineApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *MindlineApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *MindlineApp) heartbeat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req HeartbeatRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	rec, err := s.presence.Heartbeat(userId, req.Status)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, HeartbeatResponse{
		Ok:       true,
		LastSeen: types.ClientTime(rec.LastSeen),
	})
}

func (s *MindlineApp) presenceStatus(w http.ResponseWriter, r *http.Request) {
	if ids := r.URL.Query().Get("user_ids"); ids != "" {
		userIds, err := parseIdList(ids)
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		statuses, err := s.presence.StatusBatch(userIds)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, statuses)
		return
	}

	userId, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	status, err := s.presence.Status(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, status)
}

func (s *MindlineApp) onlineUsers(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if sinceMs := r.URL.Query().Get("since_ms"); sinceMs != "" {
		ms, err := strconv.Atoi(sinceMs)
		if err != nil || ms < 0 {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		window = time.Duration(ms) * time.Millisecond
	}

	statuses, err := s.presence.Online(window)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{"users": statuses})
}

func (s *MindlineApp) getActivities(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	activities, err := s.activity.UserActivities(userId, limit)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{"activities": activities})
}

func (s *MindlineApp) createNotification(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Type == "" || req.Title == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	n, err := s.notifications.Create(userId, req.Type, req.Title, req.Message)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, n)
}

func (s *MindlineApp) getNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notifications, err := s.notifications.Notifications(userId, limit)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// ownNotification resolves the notification and checks it belongs to the
// caller. Notifications are single-owner; another user's id is treated the
// same as a missing row.
func (s *MindlineApp) ownNotification(w http.ResponseWriter, r *http.Request, id int) bool {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return false
	}

	n, err := s.db.GetNotification(id)
	if err != nil || n.UserId != userId {
		var errResp *ApiError
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			errResp = NewInternalServerError(err)
		} else {
			errResp = NewNotFoundError()
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return false
	}

	return true
}

func (s *MindlineApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.ownNotification(w, r, req.Id) {
		return
	}

	if err := s.notifications.MarkRead(req.Id); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *MindlineApp) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.notifications.MarkAllRead(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *MindlineApp) deleteNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rawId := r.URL.Query().Get("id")
	if rawId == "" {
		deleted, err := s.notifications.ClearAll(userId)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, map[string]int{"deleted": deleted})
		return
	}

	id, err := strconv.Atoi(rawId)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.ownNotification(w, r, id) {
		return
	}

	if err := s.notifications.Delete(id); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *MindlineApp) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	caller, apiErr := s.callerAccount(r)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	var req CreateAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" || req.Body == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	ann, notified, err := s.notifications.CreateAnnouncement(
		caller.EmailAddress, caller.OrgId, req.Title, req.Body, req.Visibility, active)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, notification.ErrNotAuthorized) {
			errResp = NewForbiddenError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, map[string]any{
		"id":       ann.Id,
		"notified": notified,
	})
}

func (s *MindlineApp) getAnnouncements(w http.ResponseWriter, r *http.Request) {
	caller, apiErr := s.callerAccount(r)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	announcements, err := s.notifications.Announcements(caller.OrgId, activeOnly)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{"announcements": announcements})
}

func (s *MindlineApp) markAnnouncementRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req MarkAnnouncementReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Id == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.notifications.MarkAnnouncementRead(req.Id, userId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *MindlineApp) submitAssessment(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SubmitAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.AssessmentType == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	a, err := s.assessments.Submit(userId, req.AssessmentType, req.Responses, req.TotalScore, req.Notes)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, map[string]any{
		"id":            a.Id,
		"next_due_date": a.NextDueDate,
	})
}

func (s *MindlineApp) assessmentDue(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	due, err := s.assessments.Due(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, due)
}

func (s *MindlineApp) assessmentStats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userStats, err := s.assessments.UserStats(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userStats)
}

func (s *MindlineApp) submitMood(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SubmitMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	entry, err := s.moods.Submit(userId, req.Rating, req.Note)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, mood.ErrInvalidRating) {
			errResp = NewBadRequestError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, entry)
}

func (s *MindlineApp) getMoods(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.moods.History(userId, limit)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{"moods": entries})
}

func (s *MindlineApp) moodStats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userStats, err := s.moods.UserStats(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userStats)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *MindlineApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("ws upgrade: %v", err)
		return
	}

	client := push.NewClient(userId, conn, s.hub, s.log)
	s.hub.RegisterChan <- client

	go client.Write()
	go client.Read()
}

func (s *MindlineApp) callerAccount(r *http.Request) (types.User, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return types.User{}, NewUnauthorizedError()
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, NewUnauthorizedError()
		}
		return types.User{}, NewInternalServerError(err)
	}

	return userToClient(user), nil
}

func parseIdList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, nil
}
