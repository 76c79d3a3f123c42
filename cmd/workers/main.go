package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"growf/platform-backend/internal/applications"
	"growf/platform-backend/internal/config"
	"growf/platform-backend/internal/database"
	"growf/platform-backend/internal/notifications"
	"growf/platform-backend/internal/programs"
	"growf/platform-backend/internal/reminders"
	"growf/platform-backend/internal/users"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config.json"), "path to the JSON config file")
	once := flag.Bool("once", false, "run a single reminder pass and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("component", "workers"))

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var email notifications.EmailSender
	if cfg.Email.Enabled {
		sender, err := notifications.NewSESSender(ctx, cfg.Email.Region, cfg.Email.FromAddress)
		if err != nil {
			logger.Fatal("Failed to configure email", zap.Error(err))
		}
		email = sender
	}

	usersRepo := users.NewRepository(db)
	// Reminders are stored and emailed here. Live push belongs to the API
	// process, so clients see them on their next list or reconnect.
	notifier := notifications.NewService(notifications.NewGormStore(db), nil, email, usersRepo, logger)
	programService := programs.NewService(programs.NewRepository(db), usersRepo, cfg.Workflow.StrictTransitions, logger)
	applicationService := applications.NewService(applications.NewRepository(db), programService, notifier, cfg.Workflow.StrictTransitions, logger)

	runnerConfig := reminders.DefaultConfig()
	if cfg.Scheduler.ReminderWindow.Duration > 0 {
		runnerConfig.Window = cfg.Scheduler.ReminderWindow.Duration
	}
	runner := reminders.NewRunner(programService, applicationService, notifier, logger, runnerConfig)
	worker := NewReminderWorker(runner, cfg.Scheduler.DeadlineReminderCron, logger)

	if *once {
		worker.RunOnce(ctx)
		return
	}
	if cfg.Scheduler.DeadlineReminderCron == "" {
		logger.Fatal("scheduler.deadline_reminder_cron is empty")
	}
	if err := worker.Start(ctx); err != nil {
		logger.Fatal("Worker error", zap.Error(err))
	}
	logger.Info("Reminder worker stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
