// Package store defines the datastore abstraction for knowledge items.
//
// Engines never build backend queries directly: they describe what they need
// through a [Filter] (equality, case-insensitive containment, tag overlap,
// vector nearest-neighbor) and each driver compiles that capability set to its
// backend. This keeps the search and scheduling logic swappable across the
// in-memory fake, SQLite, and PostgreSQL drivers.
package store

import (
	"context"
	"time"

	"github.com/recallhq/recall/pkg/knowledge"
)

// Match is a knowledge item returned from a filtered query. Distance is the
// vector distance for nearest-neighbor matches and zero otherwise.
type Match struct {
	Item     knowledge.Item
	Distance float64
}

// Driver persists and queries knowledge items.
//
// The due set contract: DueReminders returns reminders with
// ScheduledFor <= now and IsCompleted == false, with no cross-item ordering
// guarantee. Completed reminders never reappear in the due set.
type Driver interface {
	// PutReminder stores a new reminder.
	PutReminder(ctx context.Context, r *knowledge.Reminder) error

	// GetReminder retrieves a reminder by id.
	// Returns knowledge.NotFoundError when absent.
	GetReminder(ctx context.Context, id string) (*knowledge.Reminder, error)

	// UpdateReminder overwrites an existing reminder.
	// Returns knowledge.NotFoundError when absent.
	UpdateReminder(ctx context.Context, r *knowledge.Reminder) error

	// DueReminders returns the due set at the given instant.
	DueReminders(ctx context.Context, now time.Time) ([]*knowledge.Reminder, error)

	// PutMemory stores a new memory.
	PutMemory(ctx context.Context, m *knowledge.Memory) error

	// GetMemory retrieves a memory by id.
	// Returns knowledge.NotFoundError when absent.
	GetMemory(ctx context.Context, id string) (*knowledge.Memory, error)

	// UpdateMemory overwrites an existing memory.
	// Returns knowledge.NotFoundError when absent.
	UpdateMemory(ctx context.Context, m *knowledge.Memory) error

	// FindItems returns items matching the filter, across both reminders
	// and memories.
	FindItems(ctx context.Context, f Filter) ([]Match, error)

	// ListReminders returns all reminders for an owner, newest schedule first.
	ListReminders(ctx context.Context, ownerID string) ([]*knowledge.Reminder, error)

	// Close releases driver resources.
	Close() error
}
