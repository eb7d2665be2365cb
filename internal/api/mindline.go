package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/mindline-app/mindline-server/internal/activity"
	"github.com/mindline-app/mindline-server/internal/assessment"
	"github.com/mindline-app/mindline-server/internal/config"
	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/mood"
	"github.com/mindline-app/mindline-server/internal/notification"
	"github.com/mindline-app/mindline-server/internal/presence"
	"github.com/mindline-app/mindline-server/internal/push"
)

type MindlineApp struct {
	log           *log.Logger
	db            database.MindlineRepository
	mux           *http.Server
	hub           *push.Hub
	presence      *presence.Tracker
	activity      *activity.Log
	notifications *notification.Service
	assessments   *assessment.Scheduler
	moods         *mood.Service
	signingKey    []byte
}

func NewMindlineApp(
	mux *http.ServeMux,
	logger *log.Logger,
	db database.MindlineRepository,
	hub *push.Hub,
	tracker *presence.Tracker,
	activityLog *activity.Log,
	notifications *notification.Service,
	assessments *assessment.Scheduler,
	moods *mood.Service,
	cfg *config.Config,
) *MindlineApp {
	s := &MindlineApp{
		log:           logger,
		db:            db,
		hub:           hub,
		presence:      tracker,
		activity:      activityLog,
		notifications: notifications,
		assessments:   assessments,
		moods:         moods,
		signingKey:    cfg.SigningKey,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("POST /api/presence/heartbeat", s.authMiddleware(s.heartbeat))
	mux.Handle("GET /api/presence/status", s.authMiddleware(s.presenceStatus))
	mux.Handle("GET /api/presence/online", s.authMiddleware(s.onlineUsers))
	mux.Handle("GET /api/activities", s.authMiddleware(s.getActivities))
	mux.Handle("POST /api/notifications", s.authMiddleware(s.createNotification))
	mux.Handle("GET /api/notifications", s.authMiddleware(s.getNotifications))
	mux.Handle("POST /api/notifications/read", s.authMiddleware(s.markNotificationRead))
	mux.Handle("POST /api/notifications/read-all", s.authMiddleware(s.markAllNotificationsRead))
	mux.Handle("DELETE /api/notifications", s.authMiddleware(s.deleteNotifications))
	mux.Handle("POST /api/announcements", s.authMiddleware(s.createAnnouncement))
	mux.Handle("GET /api/announcements", s.authMiddleware(s.getAnnouncements))
	mux.Handle("POST /api/announcements/read", s.authMiddleware(s.markAnnouncementRead))
	mux.Handle("POST /api/assessments", s.authMiddleware(s.submitAssessment))
	mux.Handle("GET /api/assessments/due", s.authMiddleware(s.assessmentDue))
	mux.Handle("GET /api/assessments/stats", s.authMiddleware(s.assessmentStats))
	mux.Handle("POST /api/moods", s.authMiddleware(s.submitMood))
	mux.Handle("GET /api/moods", s.authMiddleware(s.getMoods))
	mux.Handle("GET /api/moods/stats", s.authMiddleware(s.moodStats))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *MindlineApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *MindlineApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
