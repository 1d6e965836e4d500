// Package knowledge defines the data model for the recall system: reminders,
// memories, the shared item view used by search, and the error taxonomy shared
// by every component.
package knowledge

import "time"

// RecurrenceType enumerates how a reminder repeats.
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

// Valid reports whether the type is one of the recognized recurrence types.
func (t RecurrenceType) Valid() bool {
	switch t {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Recurrence describes the repeat rule of a reminder.
type Recurrence struct {
	// Type selects the repeat unit. RecurrenceNone means one-shot.
	Type RecurrenceType `json:"type"`

	// Interval is the multiple of the repeat unit. Must be >= 1 for
	// recurring reminders.
	Interval int `json:"interval"`

	// Anchor is the series' original scheduled time. Occurrence math derives
	// every step from it, so month-end clamping never drifts the day: a series
	// anchored on Jan 31 fires Feb 28 and then Mar 31, not Mar 28.
	Anchor time.Time `json:"anchor,omitzero"`

	// EndDate, when set, stops the series: an occurrence computed past
	// EndDate ends the reminder instead of rescheduling it.
	EndDate *time.Time `json:"end_date,omitempty"`
}

// Reminder is a time-triggered knowledge item. A reminder is mutated only by
// the scheduler's lifecycle transitions or by explicit cancellation.
type Reminder struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	ProjectID    string     `json:"project_id,omitempty"`
	Content      string     `json:"content"`
	Summary      string     `json:"summary,omitempty"`
	Embedding    []float32  `json:"-"`
	Tags         []string   `json:"tags,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	Recurrence   Recurrence `json:"recurrence"`
	IsRecurring  bool       `json:"is_recurring"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Memory is a free-form knowledge item. Memories are mutated only through the
// deduplication arbiter's update path.
type Memory struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"owner_id"`
	ProjectID     string            `json:"project_id,omitempty"`
	Content       string            `json:"content"`
	Summary       string            `json:"summary,omitempty"`
	Embedding     []float32         `json:"-"`
	Tags          []string          `json:"tags,omitempty"`
	FileReference string            `json:"file_reference,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// MetadataPreviousContent is the metadata key under which the pre-update
// content of a memory is preserved when the arbiter merges new content in.
const MetadataPreviousContent = "previous_content"

// Item is the read-only view shared by reminders and memories. The search
// engine and store filters operate on this view so a single query path covers
// both kinds.
type Item interface {
	// ItemID returns the unique id of the item.
	ItemID() string

	// Owner returns the owning user id.
	Owner() string

	// Project returns the project scope, possibly empty.
	Project() string

	// Body returns the main content text.
	Body() string

	// Brief returns the optional summary text.
	Brief() string

	// TagSet returns the normalized tags.
	TagSet() []string

	// Vector returns the embedding, or nil when none was generated.
	Vector() []float32

	// Stamp returns the recency timestamp used for combined-result
	// ordering: CreatedAt for memories, ScheduledFor for reminders.
	Stamp() time.Time
}

func (r *Reminder) ItemID() string    { return r.ID }
func (r *Reminder) Owner() string     { return r.OwnerID }
func (r *Reminder) Project() string   { return r.ProjectID }
func (r *Reminder) Body() string      { return r.Content }
func (r *Reminder) Brief() string     { return r.Summary }
func (r *Reminder) TagSet() []string  { return r.Tags }
func (r *Reminder) Vector() []float32 { return r.Embedding }
func (r *Reminder) Stamp() time.Time  { return r.ScheduledFor }

func (m *Memory) ItemID() string    { return m.ID }
func (m *Memory) Owner() string     { return m.OwnerID }
func (m *Memory) Project() string   { return m.ProjectID }
func (m *Memory) Body() string      { return m.Content }
func (m *Memory) Brief() string     { return m.Summary }
func (m *Memory) TagSet() []string  { return m.Tags }
func (m *Memory) Vector() []float32 { return m.Embedding }
func (m *Memory) Stamp() time.Time  { return m.CreatedAt }

var (
	_ Item = (*Reminder)(nil)
	_ Item = (*Memory)(nil)
)
