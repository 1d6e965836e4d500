// Package oracle defines the decision oracle consulted by the deduplication
// arbiter when a new candidate resembles existing items. The oracle resolves
// identity ambiguity (different aliases may refer to the same first-person
// subject) and returns a strongly-typed verdict; the AI-backed adapter is just
// one implementation of the interface.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action is the oracle's decision for a candidate.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

// ErrUnparsableVerdict is returned when an oracle response cannot be decoded
// into a valid verdict. The arbiter treats it like any other oracle failure
// and defaults to create.
var ErrUnparsableVerdict = errors.New("unparsable oracle verdict")

// ExistingItem is one previously-stored item offered to the oracle for
// comparison.
type ExistingItem struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Similarity float64  `json:"similarity"`
}

// Request is a structured merge-ambiguity comparison.
type Request struct {
	CandidateContent string         `json:"candidate_content"`
	CandidateSummary string         `json:"candidate_summary,omitempty"`
	CandidateTags    []string       `json:"candidate_tags,omitempty"`
	Existing         []ExistingItem `json:"existing"`
	OwnerContext     string         `json:"owner_context,omitempty"`
}

// Verdict is the oracle's structured answer.
type Verdict struct {
	Action     Action  `json:"action"`
	TargetID   string  `json:"target_id,omitempty"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// Oracle resolves create/update/skip for a candidate against similar items.
type Oracle interface {
	Resolve(ctx context.Context, req *Request) (*Verdict, error)

	// Close releases any resources held by the oracle.
	Close() error
}

// ParseVerdict decodes a raw JSON verdict and validates it. Update and skip
// verdicts must name a target id.
func ParseVerdict(raw []byte) (*Verdict, error) {
	// Model output often arrives fenced; strip a ```json block if present.
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var v Verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableVerdict, err)
	}

	switch v.Action {
	case ActionCreate:
	case ActionUpdate, ActionSkip:
		if v.TargetID == "" {
			return nil, fmt.Errorf("%w: %s verdict without target id", ErrUnparsableVerdict, v.Action)
		}
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrUnparsableVerdict, v.Action)
	}

	return &v, nil
}
