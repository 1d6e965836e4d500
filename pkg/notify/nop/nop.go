// Package nop provides a no-op notifier used for tests and disabled mode.
package nop

import (
	"context"

	"github.com/recallhq/recall/pkg/notify"
)

// Notifier accepts every delivery without side effects.
type Notifier struct{}

// NewNotifier creates a new no-op notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Deliver reports success and otherwise does nothing.
func (n *Notifier) Deliver(_ context.Context, _, _ string) (*notify.Delivery, error) {
	return &notify.Delivery{Success: true}, nil
}

// Close is a no-op.
func (n *Notifier) Close() error {
	return nil
}

var _ notify.Notifier = (*Notifier)(nil)
