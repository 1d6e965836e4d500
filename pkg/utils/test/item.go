package testutils

import (
	"time"

	"github.com/google/uuid"

	"github.com/recallhq/recall/pkg/knowledge"
)

// NewTestReminder creates a one-shot reminder for testing.
func NewTestReminder(owner, content string, scheduledFor time.Time) *knowledge.Reminder {
	now := time.Now().UTC()
	return &knowledge.Reminder{
		ID:           uuid.NewString(),
		OwnerID:      owner,
		Content:      content,
		ScheduledFor: scheduledFor,
		Recurrence:   knowledge.Recurrence{Type: knowledge.RecurrenceNone},
		CreatedAt:    now,
	}
}

// NewTestMemory creates a memory for testing.
func NewTestMemory(owner, content string, tags ...string) *knowledge.Memory {
	now := time.Now().UTC()
	return &knowledge.Memory{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
