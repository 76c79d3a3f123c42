package main

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"growf/platform-backend/internal/reminders"
)

// ReminderWorker runs deadline reminder passes on a cron schedule.
type ReminderWorker struct {
	runner  *reminders.Runner
	logger  *zap.Logger
	spec    string
	timeout time.Duration
	cron    *cron.Cron
}

func NewReminderWorker(runner *reminders.Runner, spec string, logger *zap.Logger) *ReminderWorker {
	return &ReminderWorker{
		runner:  runner,
		logger:  logger,
		spec:    spec,
		timeout: 10 * time.Minute,
	}
}

// Start schedules the job and blocks until ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) error {
	cl := cronLogger{w.logger}
	w.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := w.cron.AddFunc(w.spec, func() { w.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("schedule deadline reminders: %w", err)
	}

	w.cron.Start()
	w.logger.Info("Reminder worker started",
		zap.String("schedule", w.spec),
		zap.Time("next_run", w.cron.Entry(id).Next))

	<-ctx.Done()
	w.logger.Info("Reminder worker shutting down")
	<-w.cron.Stop().Done()
	return nil
}

// RunOnce performs a single pass with a bounded duration.
func (w *ReminderWorker) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if _, err := w.runner.Run(ctx); err != nil {
		w.logger.Error("Deadline reminder pass failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
