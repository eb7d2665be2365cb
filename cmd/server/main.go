package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/mindline-app/mindline-server/internal/activity"
	"github.com/mindline-app/mindline-server/internal/api"
	"github.com/mindline-app/mindline-server/internal/assessment"
	"github.com/mindline-app/mindline-server/internal/config"
	"github.com/mindline-app/mindline-server/internal/database"
	"github.com/mindline-app/mindline-server/internal/mail"
	"github.com/mindline-app/mindline-server/internal/mood"
	"github.com/mindline-app/mindline-server/internal/notification"
	"github.com/mindline-app/mindline-server/internal/presence"
	"github.com/mindline-app/mindline-server/internal/push"
	"github.com/mindline-app/mindline-server/internal/stats"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	smtpAddr       string
	smtpFrom       string
	allowedOrigins stringSliceFlag
	adminSubjects  stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.StringVar(&smtpAddr, "smtp-addr", "", "smtp relay address for outbound notices (empty disables)")
	flag.StringVar(&smtpFrom, "smtp-from", "noreply@mindline.app", "from address for outbound notices")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Var(&adminSubjects, "admin-subjects", "comma-separated list of identities allowed to create announcements")
	flag.Parse()

	logger := log.New(os.Stderr, "[mindline] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins, adminSubjects, smtpAddr, smtpFrom)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgMindlineRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	for _, name := range stats.MetricNames {
		statsUpdater.RegisterMetric(name)
	}

	hub := push.NewHub(logger, statsUpdater)
	tracker := presence.NewTracker(logger, dbConn, statsUpdater)
	activityLog := activity.NewLog(logger, dbConn, tracker, statsUpdater)
	sender := mail.NewSMTPSender(logger, cfg.SMTPAddr, cfg.SMTPFrom)
	notifications := notification.NewService(logger, dbConn, statsUpdater, hub, sender, cfg.AdminSubjects)
	assessments := assessment.NewScheduler(logger, dbConn, statsUpdater, hub)
	moods := mood.NewService(logger, dbConn, statsUpdater)

	srv := api.NewMindlineApp(mux, logger, dbConn, hub, tracker, activityLog, notifications, assessments, moods, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go hub.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down push hub...")
	hub.Stop()

	logger.Println("shutdown complete")
}
