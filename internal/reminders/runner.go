// Package reminders warns companies holding draft applications that a
// program deadline is approaching.
package reminders

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"growf/platform-backend/internal/applications"
	"growf/platform-backend/internal/notifications"
	"growf/platform-backend/internal/programs"
)

type ProgramLister interface {
	ListDeadlineBetween(ctx context.Context, from, to time.Time) ([]programs.Program, error)
}

type DraftLister interface {
	DraftsForPrograms(ctx context.Context, programIDs []uuid.UUID) ([]applications.Application, error)
}

type Notifier interface {
	Notify(ctx context.Context, in notifications.Input) (*notifications.Notification, error)
}

// Config controls a reminder pass.
type Config struct {
	Window        time.Duration
	MaxConcurrent int
}

func DefaultConfig() Config {
	return Config{Window: 72 * time.Hour, MaxConcurrent: 5}
}

// Result summarises one pass.
type Result struct {
	Programs int
	Drafts   int
	Sent     int
	Failed   int
}

type Runner struct {
	programs ProgramLister
	drafts   DraftLister
	notifier Notifier
	logger   *zap.Logger
	config   Config
	now      func() time.Time
}

func NewRunner(lister ProgramLister, drafts DraftLister, notifier Notifier, logger *zap.Logger, config Config) *Runner {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Runner{
		programs: lister,
		drafts:   drafts,
		notifier: notifier,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// Run sends one DEADLINE_REMINDER per draft whose program closes within the
// window. Individual delivery failures are counted, not returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	now := r.now()
	open, err := r.programs.ListDeadlineBetween(ctx, now, now.Add(r.config.Window))
	if err != nil {
		return Result{}, fmt.Errorf("list programs closing soon: %w", err)
	}
	res := Result{Programs: len(open)}
	if len(open) == 0 {
		return res, nil
	}

	byID := make(map[uuid.UUID]*programs.Program, len(open))
	ids := make([]uuid.UUID, 0, len(open))
	for i := range open {
		byID[open[i].ID] = &open[i]
		ids = append(ids, open[i].ID)
	}

	drafts, err := r.drafts.DraftsForPrograms(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("list draft applications: %w", err)
	}
	res.Drafts = len(drafts)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.config.MaxConcurrent)
	)
	for i := range drafts {
		app := &drafts[i]
		program := byID[app.ProgramID]
		if app.Company == nil || program == nil || program.Deadline == nil {
			r.logger.Warn("Skipping reminder without company or deadline", zap.String("application_id", app.ID.String()))
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			err := r.remind(ctx, app, program, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				r.logger.Error("Failed to send deadline reminder",
					zap.Error(err),
					zap.String("application_id", app.ID.String()))
				return
			}
			res.Sent++
		}()
	}
	wg.Wait()

	r.logger.Info("Deadline reminders sent",
		zap.Int("programs", res.Programs),
		zap.Int("drafts", res.Drafts),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (r *Runner) remind(ctx context.Context, app *applications.Application, program *programs.Program, now time.Time) error {
	_, err := r.notifier.Notify(ctx, notifications.Input{
		UserID: app.Company.UserID,
		Type:   notifications.TypeDeadlineReminder,
		Title:  "Application deadline approaching",
		Body: fmt.Sprintf("Your draft application to %q is not submitted yet. The program closes %s.",
			program.Title, describeRemaining(program.Deadline.Sub(now))),
		Data: map[string]any{
			"applicationId": app.ID.String(),
			"programId":     program.ID.String(),
			"deadline":      program.Deadline.UTC().Format(time.RFC3339),
		},
	})
	return err
}

func describeRemaining(d time.Duration) string {
	hours := int(math.Ceil(d.Hours()))
	switch {
	case hours <= 1:
		return "within the hour"
	case hours < 48:
		return fmt.Sprintf("in %d hours", hours)
	default:
		return fmt.Sprintf("in %d days", hours/24)
	}
}
