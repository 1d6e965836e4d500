package eventstream

import "context"

// Publisher publishes knowledge lifecycle events to an event stream backend.
// Publishing is best-effort everywhere it is called: failures are logged by
// the caller and never abort the surrounding operation.
type Publisher interface {
	PublishItem(ctx context.Context, event *ItemPersistedEvent) error
	PublishReminder(ctx context.Context, event *ReminderFiredEvent) error
	Close() error
}
