// Package keeper is the knowledge store facade used by upstream callers
// (agent tools, cron-like triggers). It exposes create, search, and cancel
// operations over both time-triggered reminders and free-form memories,
// validating input before commit and delegating retrieval and deduplication
// to the search engine and arbiter.
package keeper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/clock"
	"github.com/recallhq/recall/pkg/dedupe"
	"github.com/recallhq/recall/pkg/embeddings"
	"github.com/recallhq/recall/pkg/eventstream"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/recurrence"
	"github.com/recallhq/recall/pkg/search"
	"github.com/recallhq/recall/pkg/store"
)

// Service is the knowledge store facade.
type Service struct {
	store     store.Driver
	engine    *search.Engine
	arbiter   *dedupe.Arbiter
	embedder  embeddings.Embedder
	publisher eventstream.Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

// Config holds the facade's dependencies.
type Config struct {
	Store    store.Driver
	Engine   *search.Engine
	Arbiter  *dedupe.Arbiter
	Embedder embeddings.Embedder

	// Publisher receives item-persisted events. Optional.
	Publisher eventstream.Publisher

	// Clock supplies "now". Defaults to the system clock.
	Clock clock.Clock

	Logger *zap.Logger
}

// NewService creates the knowledge store facade.
func NewService(c Config) *Service {
	ck := c.Clock
	if ck == nil {
		ck = clock.System{}
	}

	return &Service{
		store:     c.Store,
		engine:    c.Engine,
		arbiter:   c.Arbiter,
		embedder:  c.Embedder,
		publisher: c.Publisher,
		clock:     ck,
		logger:    c.Logger,
	}
}

// ReminderInput is the caller-supplied part of a new reminder.
type ReminderInput struct {
	OwnerID      string
	ProjectID    string
	Content      string
	Summary      string
	Tags         []string
	ScheduledFor time.Time
	Recurrence   knowledge.Recurrence
}

// CreateReminder validates the input, resolves the committed trigger time,
// and persists the reminder.
//
// The committed ScheduledFor is always strictly in the future: a recurring
// reminder anchored in the past is auto-advanced to its next occurrence, and
// a one-time reminder in the past is rejected with a ValidationError.
func (s *Service) CreateReminder(ctx context.Context, in ReminderInput) (*knowledge.Reminder, error) {
	if in.OwnerID == "" {
		return nil, knowledge.ValidationError{Reason: "owner is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, knowledge.ValidationError{Reason: "content is required"}
	}
	if in.ScheduledFor.IsZero() {
		return nil, knowledge.ValidationError{Reason: "scheduled time is required"}
	}

	rec := in.Recurrence
	if rec.Type == "" {
		rec.Type = knowledge.RecurrenceNone
	}
	if !rec.Type.Valid() {
		return nil, knowledge.ConfigurationError{
			Reason: fmt.Sprintf("unsupported recurrence type %q", rec.Type),
		}
	}

	recurring := rec.Type != knowledge.RecurrenceNone
	if recurring && rec.Interval < 1 {
		return nil, knowledge.ValidationError{
			Reason: fmt.Sprintf("recurrence interval must be >= 1, got %d", rec.Interval),
		}
	}
	if recurring {
		// The anchor pins the series so month-end clamping never drifts the
		// day across occurrences.
		rec.Anchor = in.ScheduledFor
	} else {
		rec.Interval = 0
		rec.EndDate = nil
	}

	now := s.clock.Now()
	interval := rec.Interval
	if !recurring {
		interval = 1
	}

	committed, err := recurrence.Next(in.ScheduledFor, rec.Type, interval, now)
	if err != nil {
		return nil, err
	}

	r := &knowledge.Reminder{
		ID:           uuid.NewString(),
		OwnerID:      in.OwnerID,
		ProjectID:    in.ProjectID,
		Content:      in.Content,
		Summary:      in.Summary,
		Tags:         knowledge.NormalizeTags(in.Tags),
		ScheduledFor: committed,
		Recurrence:   rec,
		IsRecurring:  recurring,
		CreatedAt:    now,
	}

	s.embed(ctx, r)

	if err := s.store.PutReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("storing reminder: %w", err)
	}

	s.publishItem(ctx, r, "reminder", "created", now)
	s.logger.Info("reminder created",
		zap.String("reminder_id", r.ID),
		zap.String("owner_id", r.OwnerID),
		zap.Time("scheduled_for", r.ScheduledFor),
		zap.Bool("recurring", r.IsRecurring),
	)

	return r, nil
}

// MemoryInput is the caller-supplied part of a new memory candidate.
type MemoryInput struct {
	OwnerID       string
	ProjectID     string
	Content       string
	Summary       string
	Tags          []string
	FileReference string
	Metadata      map[string]string
}

// CreateMemory routes the candidate through the deduplication arbiter and
// returns its outcome (created, updated, or skipped).
func (s *Service) CreateMemory(ctx context.Context, in MemoryInput) (*dedupe.Outcome, error) {
	candidate := &knowledge.Memory{
		OwnerID:       in.OwnerID,
		ProjectID:     in.ProjectID,
		Content:       in.Content,
		Summary:       in.Summary,
		Tags:          in.Tags,
		FileReference: in.FileReference,
		Metadata:      in.Metadata,
	}

	outcome, err := s.arbiter.SmartCreate(ctx, candidate)
	if err != nil {
		return nil, err
	}

	if outcome.Action != dedupe.ActionSkipped {
		// Publish the stored item, not the candidate: the arbiter mints the
		// id on create and merges tags on update, so only the store has the
		// persisted state.
		stored, err := s.store.GetMemory(ctx, outcome.ItemID)
		if err != nil {
			s.logger.Warn("loading persisted memory for event",
				zap.String("memory_id", outcome.ItemID),
				zap.Error(err),
			)
		} else {
			s.publishItem(ctx, stored, "memory", string(outcome.Action), s.clock.Now())
		}
	}

	return outcome, nil
}

// CreateMemories routes a batch through the arbiter sequentially, in order.
func (s *Service) CreateMemories(ctx context.Context, ins []MemoryInput) ([]*dedupe.Outcome, error) {
	candidates := make([]*knowledge.Memory, 0, len(ins))
	for _, in := range ins {
		candidates = append(candidates, &knowledge.Memory{
			OwnerID:       in.OwnerID,
			ProjectID:     in.ProjectID,
			Content:       in.Content,
			Summary:       in.Summary,
			Tags:          in.Tags,
			FileReference: in.FileReference,
			Metadata:      in.Metadata,
		})
	}

	return s.arbiter.SmartCreateMultiple(ctx, candidates)
}

// Search delegates to the hybrid engine. It always returns a result set —
// possibly degraded — never a dependency error.
func (s *Service) Search(ctx context.Context, query, ownerID string, opts search.Options) (*search.Results, error) {
	if ownerID == "" {
		return nil, knowledge.ValidationError{Reason: "owner is required"}
	}

	return s.engine.Find(ctx, query, ownerID, opts)
}

// CancelReminder forces a reminder completed. Cancellation is terminal and
// idempotent; a missing or foreign reminder is a NotFoundError.
func (s *Service) CancelReminder(ctx context.Context, ownerID, id string) (*knowledge.Reminder, error) {
	r, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		// Not owned by the caller; indistinguishable from absent.
		return nil, knowledge.NotFoundError{Kind: "reminder", ID: id}
	}

	if r.IsCompleted {
		return r, nil
	}

	now := s.clock.Now()
	r.IsCompleted = true
	r.CompletedAt = &now

	if err := s.store.UpdateReminder(ctx, r); err != nil {
		return nil, fmt.Errorf("cancelling reminder: %w", err)
	}

	s.publishItem(ctx, r, "reminder", "cancelled", now)
	s.logger.Info("reminder cancelled",
		zap.String("reminder_id", r.ID),
		zap.String("owner_id", r.OwnerID),
	)

	return r, nil
}

// ListReminders returns the owner's reminders, newest schedule first.
func (s *Service) ListReminders(ctx context.Context, ownerID string) ([]*knowledge.Reminder, error) {
	if ownerID == "" {
		return nil, knowledge.ValidationError{Reason: "owner is required"}
	}

	return s.store.ListReminders(ctx, ownerID)
}

// GetMemory returns one memory, scoped to its owner.
func (s *Service) GetMemory(ctx context.Context, ownerID, id string) (*knowledge.Memory, error) {
	m, err := s.store.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != ownerID {
		return nil, knowledge.NotFoundError{Kind: "memory", ID: id}
	}

	return m, nil
}

// embed fills the reminder's embedding best-effort; a failing gateway leaves
// the reminder findable by text and tags only.
func (s *Service) embed(ctx context.Context, r *knowledge.Reminder) {
	vec, err := s.embedder.Embed(ctx, r.Content+" "+r.Summary)
	if err != nil {
		s.logger.Warn("embedding generation failed",
			zap.String("reminder_id", r.ID),
			zap.Error(knowledge.DependencyError{Dependency: "embedding", Err: err}),
		)
		return
	}
	r.Embedding = vec
}

func (s *Service) publishItem(ctx context.Context, it knowledge.Item, kind, action string, now time.Time) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishItem(ctx, &eventstream.ItemPersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeItemPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		ItemKind:      kind,
		ItemID:        it.ItemID(),
		OwnerID:       it.Owner(),
		ProjectID:     it.Project(),
		Action:        action,
		Tags:          it.TagSet(),
	})
	if err != nil {
		s.logger.Warn("event publish failed",
			zap.String("item_id", it.ItemID()),
			zap.Error(knowledge.DependencyError{Dependency: "eventstream", Err: err}),
		)
	}
}
