// Package scheduler drives the reminder lifecycle. One poll cycle queries the
// due set (ScheduledFor <= now, not completed), attempts delivery for each due
// reminder, then advances its state: Completed for one-shots, Rescheduled for
// recurring reminders with a future occurrence, Ended when the next occurrence
// falls past the series end date.
//
// Per item the delivery attempt strictly precedes the lifecycle transition,
// and a failed delivery never blocks the transition: delivery is at-most-once
// while completion is guaranteed. One item's failure is isolated; the rest of
// the due set is always processed. Cycles are idempotent — re-running after a
// clean pass processes nothing — and an interrupted cycle leaves unprocessed
// items due for the next one.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/clock"
	"github.com/recallhq/recall/pkg/eventstream"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/notify"
	"github.com/recallhq/recall/pkg/recurrence"
	"github.com/recallhq/recall/pkg/store"
)

// DefaultPollInterval is the reference cadence of the ticker loop.
const DefaultPollInterval = 60 * time.Second

// ItemError records one isolated per-item failure inside a cycle.
type ItemError struct {
	ReminderID string `json:"reminder_id"`
	Stage      string `json:"stage"`
	Err        string `json:"error"`
}

// Report aggregates the outcome of one poll cycle.
type Report struct {
	Processed           int         `json:"processed"`
	Completed           int         `json:"completed"`
	Rescheduled         int         `json:"rescheduled"`
	Ended               int         `json:"ended"`
	NotificationsSent   int         `json:"notifications_sent"`
	NotificationsFailed int         `json:"notifications_failed"`
	Errors              []ItemError `json:"errors,omitempty"`
}

// Scheduler polls the due set and advances reminder lifecycles.
type Scheduler struct {
	store     store.Driver
	notifier  notify.Notifier
	publisher eventstream.Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

// Config holds the scheduler's dependencies.
type Config struct {
	// Store is the single source of truth for the due set.
	Store store.Driver

	// Notifier delivers rendered reminder text.
	Notifier notify.Notifier

	// Publisher receives reminder-fired events. Optional.
	Publisher eventstream.Publisher

	// Clock supplies "now". Defaults to the system clock.
	Clock clock.Clock

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(c Config) *Scheduler {
	ck := c.Clock
	if ck == nil {
		ck = clock.System{}
	}

	return &Scheduler{
		store:     c.Store,
		notifier:  c.Notifier,
		publisher: c.Publisher,
		clock:     ck,
		logger:    c.Logger,
	}
}

// RunOnce executes one poll cycle and returns its report. The returned error
// is non-nil only when the due set itself cannot be queried; per-item failures
// are recorded in the report instead.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	now := s.clock.Now()

	due, err := s.store.DueReminders(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}

	report := &Report{}
	for _, r := range due {
		s.processItem(ctx, r, now, report)
	}

	s.logger.Info("poll cycle complete",
		zap.Int("processed", report.Processed),
		zap.Int("completed", report.Completed),
		zap.Int("rescheduled", report.Rescheduled),
		zap.Int("ended", report.Ended),
		zap.Int("notifications_sent", report.NotificationsSent),
		zap.Int("notifications_failed", report.NotificationsFailed),
		zap.Int("errors", len(report.Errors)),
	)

	return report, nil
}

// Run invokes RunOnce on the given interval until the context is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("poll cycle failed", zap.Error(err))
			}
		}
	}
}

// processItem delivers then transitions one due reminder. All failures are
// recorded on the report; none propagate.
func (s *Scheduler) processItem(ctx context.Context, r *knowledge.Reminder, now time.Time, report *Report) {
	report.Processed++

	delivered := s.deliver(ctx, r, report)

	transition, err := s.transition(ctx, r, now)
	if err != nil {
		report.Errors = append(report.Errors, ItemError{
			ReminderID: r.ID,
			Stage:      "transition",
			Err:        err.Error(),
		})
		s.logger.Error("lifecycle transition failed",
			zap.String("reminder_id", r.ID),
			zap.Error(err),
		)
		return
	}

	switch transition {
	case "completed":
		report.Completed++
	case "rescheduled":
		report.Rescheduled++
	case "ended":
		report.Ended++
	}

	s.publish(ctx, r, transition, delivered, now)
}

// deliver attempts notification for a due reminder. Failure is recorded and
// deliberately does not block the lifecycle transition.
func (s *Scheduler) deliver(ctx context.Context, r *knowledge.Reminder, report *Report) bool {
	text := r.Content
	if r.Summary != "" {
		text = r.Summary + ": " + r.Content
	}

	delivery, err := s.notifier.Deliver(ctx, r.OwnerID, text)
	if err != nil || delivery == nil || !delivery.Success {
		report.NotificationsFailed++
		if err == nil {
			err = notify.ErrDelivery
		}
		report.Errors = append(report.Errors, ItemError{
			ReminderID: r.ID,
			Stage:      "delivery",
			Err:        err.Error(),
		})
		s.logger.Warn("notification delivery failed",
			zap.String("reminder_id", r.ID),
			zap.Error(knowledge.DependencyError{Dependency: "notification", Err: err}),
		)
		return false
	}

	report.NotificationsSent++
	return true
}

// transition advances the reminder's lifecycle and persists it. Returns the
// transition taken: "completed", "rescheduled", or "ended".
func (s *Scheduler) transition(ctx context.Context, r *knowledge.Reminder, now time.Time) (string, error) {
	if !r.IsRecurring {
		s.complete(r, now)
		if err := s.store.UpdateReminder(ctx, r); err != nil {
			return "", err
		}
		return "completed", nil
	}

	// Step from the series anchor, not the last (possibly clamped) occurrence,
	// so a month-end series keeps its day.
	anchor := r.Recurrence.Anchor
	if anchor.IsZero() {
		anchor = r.ScheduledFor
	}

	next, err := recurrence.Next(anchor, r.Recurrence.Type, r.Recurrence.Interval, now)
	if err != nil {
		// Unsupported type or bad interval is fatal for this item only.
		return "", err
	}

	if end := r.Recurrence.EndDate; end != nil && next.After(*end) {
		s.complete(r, now)
		if err := s.store.UpdateReminder(ctx, r); err != nil {
			return "", err
		}
		return "ended", nil
	}

	r.ScheduledFor = next
	if err := s.store.UpdateReminder(ctx, r); err != nil {
		return "", err
	}
	return "rescheduled", nil
}

func (s *Scheduler) complete(r *knowledge.Reminder, now time.Time) {
	r.IsCompleted = true
	completedAt := now
	r.CompletedAt = &completedAt
}

// publish emits a reminder-fired event, best-effort.
func (s *Scheduler) publish(ctx context.Context, r *knowledge.Reminder, transition string, delivered bool, now time.Time) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishReminder(ctx, &eventstream.ReminderFiredEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeReminderFired,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		ReminderID:    r.ID,
		OwnerID:       r.OwnerID,
		ScheduledFor:  r.ScheduledFor,
		Transition:    transition,
		Delivered:     delivered,
	})
	if err != nil {
		s.logger.Warn("event publish failed",
			zap.String("reminder_id", r.ID),
			zap.Error(knowledge.DependencyError{Dependency: "eventstream", Err: err}),
		)
	}
}
