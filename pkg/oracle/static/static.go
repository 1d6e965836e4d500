// Package static provides a deterministic oracle used in tests and offline
// mode: it returns a fixed verdict, or a fixed error, for every request.
package static

import (
	"context"
	"sync"

	"github.com/recallhq/recall/pkg/oracle"
)

// Oracle returns a canned verdict for every request and records the requests
// it has seen.
type Oracle struct {
	mu       sync.Mutex
	verdict  *oracle.Verdict
	err      error
	requests []*oracle.Request
}

// NewOracle creates a static oracle answering with the given verdict.
func NewOracle(verdict *oracle.Verdict) *Oracle {
	return &Oracle{verdict: verdict}
}

// NewFailingOracle creates a static oracle failing every request with err.
func NewFailingOracle(err error) *Oracle {
	return &Oracle{err: err}
}

// Resolve records the request and returns the canned answer.
func (o *Oracle) Resolve(_ context.Context, req *oracle.Request) (*oracle.Verdict, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.requests = append(o.requests, req)
	if o.err != nil {
		return nil, o.err
	}

	v := *o.verdict
	return &v, nil
}

// Requests returns the requests seen so far.
func (o *Oracle) Requests() []*oracle.Request {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*oracle.Request, len(o.requests))
	copy(out, o.requests)
	return out
}

// Close is a no-op.
func (o *Oracle) Close() error {
	return nil
}

var _ oracle.Oracle = (*Oracle)(nil)
