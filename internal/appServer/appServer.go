package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/fleet-insight/config"
	repository "github.com/ds124wfegd/fleet-insight/internal/database/warehouse"
	"github.com/ds124wfegd/fleet-insight/internal/service"
	"github.com/ds124wfegd/fleet-insight/internal/transport"
	"github.com/ds124wfegd/fleet-insight/internal/worker"

	"github.com/ds124wfegd/fleet-insight/pkg/redis"
	"github.com/ds124wfegd/fleet-insight/pkg/scheduler"
	"github.com/ds124wfegd/fleet-insight/pkg/telegram"
	"github.com/ds124wfegd/fleet-insight/pkg/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12}, // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func NewServer(cfg *config.Config) {

	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize warehouse
	db, dialect, err := warehouse.NewWarehouseDB(&cfg.Warehouse)
	if err != nil {
		logrus.Fatalf("Failed to initialize warehouse: %v", err)
	}
	defer db.Close()

	if err := warehouse.Ping(ctx, db, cfg.Warehouse.QueryTimeout); err != nil {
		logrus.WithError(err).Warn("Warehouse unreachable at startup, health will report degraded")
	}

	// Initialize repositories
	opts := repository.Options{
		Dialect:      dialect,
		SourceTable:  cfg.Warehouse.SourceTable,
		AuditTable:   cfg.Warehouse.AuditTable,
		QueryTimeout: cfg.Warehouse.QueryTimeout,
	}
	insightRepo := repository.NewInsightRepository(db, opts)
	auditRepo := repository.NewAuditRepository(db, opts)

	if err := auditRepo.EnsureTable(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to ensure audit table, will retry on first append")
	}

	// Initialize Telegram bot
	var messageClient service.MessageClient
	if cfg.Telegram.BotToken != "" {
		messageClient = telegram.NewBot(cfg.Telegram.BotToken,
			telegram.WithAPIURL(cfg.Telegram.APIURL),
			telegram.WithTimeout(cfg.Telegram.Timeout),
		)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot token not provided, notifications disabled")
	}

	// Initialize run lock
	var locker service.RunLocker = scheduler.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis lock: %v. Continuing with in-process lock...", err)
		} else {
			defer redisClient.Close()
			locker = redis.NewLock(redisClient, cfg.Redis.LockKey, cfg.Redis.LockTTL)
			logrus.Info("Redis run lock initialized")
		}
	}

	// Initialize services
	insightService := service.NewInsightService(insightRepo)
	notifyService := service.NewNotifyService(
		insightService,
		service.NewReportFormatter(cfg.Insight.IdleTimeUnit),
		service.NewNotificationSender(messageClient, cfg.Telegram.ChatID),
		service.NewAuditService(auditRepo),
		locker,
		cfg.Insight.NotifyLimit,
	)
	healthService := service.NewHealthService(insightRepo, messageClient)

	// Initialize and start scheduler
	schedulerState := scheduler.NewState(cfg.Scheduler.Interval, cfg.Scheduler.Enabled)
	var workerStats transport.WorkerStats
	if cfg.Scheduler.Enabled {
		notifyWorker := worker.NewNotifyWorker(notifyService)
		workerStats = notifyWorker
		notifyScheduler := scheduler.NewScheduler(notifyWorker.Run, cfg.Scheduler.Interval, cfg.Scheduler.JobTimeout, schedulerState)

		go notifyScheduler.Start(ctx, cfg.Scheduler.RunOnStart)
		logrus.WithField("interval", cfg.Scheduler.Interval.String()).Info("Notify scheduler started")
	} else {
		logrus.Warn("Scheduler disabled by configuration")
	}

	// Initialize handlers
	insightHandler := transport.NewInsightHandler(insightService, cfg.Insight.PullLimit, cfg.Insight.MaxLimit)
	notifyHandler := transport.NewNotifyHandler(notifyService)
	systemHandler := transport.NewSystemHandler(healthService, schedulerState, workerStats, cfg.App.Name, cfg.Server.AppVersion, cfg.App.BaseURL)

	// Setup HTTP server
	if cfg.IsProduction() || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		err := srv.Run(cfg, transport.InitRoutes(insightHandler, notifyHandler, systemHandler, cfg.Server.RequestTimeout))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("addr", cfg.GetServerAddress()).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
