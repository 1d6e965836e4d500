package testutils

import (
	"context"
	"fmt"

	"github.com/recallhq/recall/pkg/notify"
)

// MockNotifier is a test notifier that records deliveries and returns
// configurable failures.
type MockNotifier struct {
	// Delivered accumulates every text passed to Deliver.
	Delivered []string

	// FailOn causes Deliver to return an error when the text contains it.
	FailOn string
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Deliver(_ context.Context, _, text string) (*notify.Delivery, error) {
	if m.FailOn != "" && containsFold(text, m.FailOn) {
		return nil, fmt.Errorf("mock delivery failure for: %s", m.FailOn)
	}
	m.Delivered = append(m.Delivered, text)
	return &notify.Delivery{Success: true}, nil
}

func (m *MockNotifier) Close() error {
	return nil
}
