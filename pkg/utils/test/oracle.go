package testutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/recallhq/recall/pkg/oracle"
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// MockOracle is a test oracle that returns a fixed verdict.
type MockOracle struct {
	// Verdict is returned by every Resolve call.
	Verdict *oracle.Verdict

	// Fail causes Resolve to return an error.
	Fail bool

	// Requests accumulates every request passed to Resolve.
	Requests []*oracle.Request
}

func NewMockOracle(v *oracle.Verdict) *MockOracle {
	return &MockOracle{Verdict: v}
}

func (m *MockOracle) Resolve(_ context.Context, req *oracle.Request) (*oracle.Verdict, error) {
	m.Requests = append(m.Requests, req)
	if m.Fail {
		return nil, fmt.Errorf("mock oracle failure")
	}
	return m.Verdict, nil
}

func (m *MockOracle) Close() error {
	return nil
}
