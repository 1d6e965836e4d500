package testutils

import (
	"context"
	"fmt"

	"github.com/recallhq/recall/pkg/eventstream"
)

// MockPublisher is a test publisher that records every published event.
type MockPublisher struct {
	// Items accumulates every item-persisted event.
	Items []*eventstream.ItemPersistedEvent

	// Reminders accumulates every reminder-fired event.
	Reminders []*eventstream.ReminderFiredEvent

	// FailAll causes every publish to return an error.
	FailAll bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishItem(_ context.Context, event *eventstream.ItemPersistedEvent) error {
	if m.FailAll {
		return fmt.Errorf("mock publisher failure")
	}
	m.Items = append(m.Items, event)
	return nil
}

func (m *MockPublisher) PublishReminder(_ context.Context, event *eventstream.ReminderFiredEvent) error {
	if m.FailAll {
		return fmt.Errorf("mock publisher failure")
	}
	m.Reminders = append(m.Reminders, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}
