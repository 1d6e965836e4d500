// Package dedupe implements the deduplication arbiter: before a new memory is
// created it probes the hybrid search engine for similar items and, when any
// exist, delegates the create/update/skip decision to the configured oracle.
//
// Availability beats precision: when the oracle fails or returns an
// unparsable verdict the candidate is created anyway and the failure reason
// recorded, so candidate information is never silently dropped.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/clock"
	"github.com/recallhq/recall/pkg/embeddings"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/oracle"
	"github.com/recallhq/recall/pkg/search"
	"github.com/recallhq/recall/pkg/store"
)

// Action is the executed outcome of a smart create.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// probeLimit caps how many similar items are offered to the oracle.
const probeLimit = 5

// Outcome reports what the arbiter did with one candidate.
type Outcome struct {
	Action Action `json:"action"`
	ItemID string `json:"item_id"`
	Reason string `json:"reason,omitempty"`
}

// Arbiter resolves create/update/skip for new memory candidates.
type Arbiter struct {
	store    store.Driver
	engine   *search.Engine
	oracle   oracle.Oracle
	embedder embeddings.Embedder
	clock    clock.Clock
	logger   *zap.Logger
}

// Config holds the arbiter's dependencies.
type Config struct {
	Store    store.Driver
	Engine   *search.Engine
	Oracle   oracle.Oracle
	Embedder embeddings.Embedder
	Clock    clock.Clock
	Logger   *zap.Logger
}

// NewArbiter creates a deduplication arbiter.
func NewArbiter(c Config) *Arbiter {
	ck := c.Clock
	if ck == nil {
		ck = clock.System{}
	}

	return &Arbiter{
		store:    c.Store,
		engine:   c.Engine,
		oracle:   c.Oracle,
		embedder: c.Embedder,
		clock:    ck,
		logger:   c.Logger,
	}
}

// SmartCreate resolves one candidate. The candidate's tags are normalized and
// its embedding generated best-effort; an empty similar set creates directly,
// anything else goes through the oracle.
func (a *Arbiter) SmartCreate(ctx context.Context, candidate *knowledge.Memory) (*Outcome, error) {
	if candidate == nil {
		return nil, knowledge.ValidationError{Reason: "nil candidate"}
	}
	if strings.TrimSpace(candidate.Content) == "" {
		return nil, knowledge.ValidationError{Reason: "candidate content is empty"}
	}
	if candidate.OwnerID == "" {
		return nil, knowledge.ValidationError{Reason: "candidate owner is required"}
	}

	candidate.Tags = knowledge.NormalizeTags(candidate.Tags)

	probe := a.probe(candidate)
	found, err := a.engine.Find(ctx, probe, candidate.OwnerID, search.Options{Limit: probeLimit})
	if err != nil {
		return nil, fmt.Errorf("probing for similar items: %w", err)
	}

	similar := memoriesOf(found.Combined)
	if len(similar) == 0 {
		return a.create(ctx, candidate, "no similar items found")
	}

	verdict, err := a.oracle.Resolve(ctx, a.request(candidate, similar))
	if err != nil {
		depErr := knowledge.DependencyError{Dependency: "oracle", Err: err}
		a.logger.Warn("oracle unavailable, defaulting to create", zap.Error(depErr))
		return a.create(ctx, candidate, "oracle unavailable: "+err.Error())
	}

	switch verdict.Action {
	case oracle.ActionUpdate:
		return a.update(ctx, candidate, verdict)

	case oracle.ActionSkip:
		targetID := verdict.TargetID
		if targetID == "" {
			targetID = similar[0].memory.ID
		}
		return &Outcome{
			Action: ActionSkipped,
			ItemID: targetID,
			Reason: verdict.Reasoning,
		}, nil

	case oracle.ActionCreate:
		return a.create(ctx, candidate, verdict.Reasoning)
	}

	// Unreachable with a parsed verdict, but the default stays create.
	return a.create(ctx, candidate, fmt.Sprintf("unexpected verdict %q", verdict.Action))
}

// SmartCreateMultiple processes candidates strictly in order. A later
// candidate's probe observes items created earlier in the same batch; one
// candidate's failure never aborts the rest.
func (a *Arbiter) SmartCreateMultiple(ctx context.Context, candidates []*knowledge.Memory) ([]*Outcome, error) {
	outcomes := make([]*Outcome, 0, len(candidates))
	var errs []error

	for i, c := range candidates {
		outcome, err := a.SmartCreate(ctx, c)
		if err != nil {
			a.logger.Warn("batch candidate failed",
				zap.Int("index", i),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("candidate %d: %w", i, err))
			continue
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, errors.Join(errs...)
}

// create persists the candidate as a new memory.
func (a *Arbiter) create(ctx context.Context, candidate *knowledge.Memory, reason string) (*Outcome, error) {
	now := a.clock.Now()

	m := *candidate
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	a.ensureEmbedding(ctx, &m, m.Content+" "+m.Summary)

	if err := a.store.PutMemory(ctx, &m); err != nil {
		return nil, fmt.Errorf("storing memory: %w", err)
	}

	return &Outcome{Action: ActionCreated, ItemID: m.ID, Reason: reason}, nil
}

// update merges the candidate into the verdict's target: the prior content is
// preserved under metadata, the embedding is regenerated from the merged text,
// and the tag sets are unioned.
func (a *Arbiter) update(ctx context.Context, candidate *knowledge.Memory, verdict *oracle.Verdict) (*Outcome, error) {
	target, err := a.store.GetMemory(ctx, verdict.TargetID)
	if err != nil {
		if knowledge.IsNotFound(err) {
			a.logger.Warn("oracle named a missing update target, creating instead",
				zap.String("target_id", verdict.TargetID),
			)
			return a.create(ctx, candidate, "update target missing: "+verdict.TargetID)
		}
		return nil, fmt.Errorf("loading update target: %w", err)
	}

	if target.Metadata == nil {
		target.Metadata = make(map[string]string)
	}
	target.Metadata[knowledge.MetadataPreviousContent] = target.Content

	merged := strings.TrimSpace(target.Content + "\n\n" + candidate.Content)
	target.Content = merged
	if candidate.Summary != "" {
		target.Summary = candidate.Summary
	}
	target.Tags = knowledge.UnionTags(target.Tags, candidate.Tags)
	target.UpdatedAt = a.clock.Now()

	target.Embedding = nil
	a.ensureEmbedding(ctx, target, merged)

	if err := a.store.UpdateMemory(ctx, target); err != nil {
		return nil, fmt.Errorf("updating memory: %w", err)
	}

	return &Outcome{
		Action: ActionUpdated,
		ItemID: target.ID,
		Reason: verdict.Reasoning,
	}, nil
}

// ensureEmbedding fills in the memory's embedding best-effort. Embedding
// failures are logged and leave the item unembedded; text and tag search
// still cover it.
func (a *Arbiter) ensureEmbedding(ctx context.Context, m *knowledge.Memory, text string) {
	if len(m.Embedding) > 0 {
		return
	}

	vec, err := a.embedder.Embed(ctx, text)
	if err != nil {
		a.logger.Warn("embedding generation failed",
			zap.String("memory_id", m.ID),
			zap.Error(knowledge.DependencyError{Dependency: "embedding", Err: err}),
		)
		return
	}
	m.Embedding = vec
}

// probe builds the lexical probe from candidate content, summary, and tags.
func (a *Arbiter) probe(candidate *knowledge.Memory) string {
	parts := []string{candidate.Content}
	if candidate.Summary != "" {
		parts = append(parts, candidate.Summary)
	}
	if len(candidate.Tags) > 0 {
		parts = append(parts, strings.Join(candidate.Tags, " "))
	}
	return strings.Join(parts, " ")
}

func (a *Arbiter) request(candidate *knowledge.Memory, similar []scoredMemory) *oracle.Request {
	existing := make([]oracle.ExistingItem, 0, len(similar))
	for _, s := range similar {
		existing = append(existing, oracle.ExistingItem{
			ID:         s.memory.ID,
			Content:    s.memory.Content,
			Summary:    s.memory.Summary,
			Tags:       s.memory.Tags,
			Similarity: s.similarity,
		})
	}

	return &oracle.Request{
		CandidateContent: candidate.Content,
		CandidateSummary: candidate.Summary,
		CandidateTags:    candidate.Tags,
		Existing:         existing,
		OwnerContext:     candidate.OwnerID,
	}
}

type scoredMemory struct {
	memory     *knowledge.Memory
	similarity float64
}

// memoriesOf filters combined search results down to memories; reminders are
// never merge targets.
func memoriesOf(results []search.Result) []scoredMemory {
	var out []scoredMemory
	for _, r := range results {
		if m, ok := r.Item.(*knowledge.Memory); ok {
			out = append(out, scoredMemory{memory: m, similarity: r.Similarity})
		}
	}
	return out
}
