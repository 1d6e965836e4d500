package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeItemPersisted is emitted after a knowledge item is created
	// or updated.
	EventTypeItemPersisted = "recall.item.persisted"

	// EventTypeReminderFired is emitted after a due reminder finishes its
	// lifecycle transition in a poll cycle.
	EventTypeReminderFired = "recall.reminder.fired"
)

// ItemPersistedEvent is a transport-neutral event payload for a persisted
// knowledge item.
type ItemPersistedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// ItemKind is "reminder" or "memory".
	ItemKind string `json:"item_kind"`

	ItemID    string   `json:"item_id"`
	OwnerID   string   `json:"owner_id"`
	ProjectID string   `json:"project_id,omitempty"`
	Action    string   `json:"action"`
	Tags      []string `json:"tags,omitempty"`
}

// ReminderFiredEvent is a transport-neutral event payload for one reminder
// processed in a poll cycle.
type ReminderFiredEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	ReminderID   string    `json:"reminder_id"`
	OwnerID      string    `json:"owner_id"`
	ScheduledFor time.Time `json:"scheduled_for"`

	// Transition is the lifecycle outcome: "completed", "rescheduled",
	// or "ended".
	Transition string `json:"transition"`

	// Delivered reports whether the notification attempt succeeded.
	Delivered bool `json:"delivered"`
}
