// Package notify defines the notification port used by the scheduler to
// deliver rendered reminder text to an owner's channel. Delivery is
// at-most-once: the scheduler records failures but never blocks lifecycle
// transitions on them.
package notify

import (
	"context"
	"errors"
)

// ErrDelivery is returned when a delivery attempt fails. Callers treat it as
// a recoverable dependency failure.
var ErrDelivery = errors.New("notification delivery failed")

// Delivery reports the outcome of one delivery attempt.
type Delivery struct {
	// Success reports whether the channel accepted the message.
	Success bool

	// MessageID is the channel-assigned id, when available.
	MessageID string
}

// Notifier delivers rendered text to an owner's channel.
type Notifier interface {
	// Deliver sends text to the given channel. A nil error implies
	// Delivery.Success.
	Deliver(ctx context.Context, channel, text string) (*Delivery, error)

	// Close releases any resources held by the notifier.
	Close() error
}
