// Package search implements the hybrid retrieval engine over the knowledge
// store: vector similarity, case-insensitive text containment, and tag
// overlap, run in parallel and merged into one recency-ranked result set.
//
// Retrieval is resilient by contract: a failing embedding gateway degrades the
// semantic method to the text method's output with a placeholder similarity,
// and a failing individual method leaves its bucket empty. Find never fails
// the whole search because one dependency is down.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/embeddings"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/store"
)

// Method names one retrieval method.
type Method string

const (
	MethodSemantic Method = "semantic"
	MethodText     Method = "text"
	MethodTags     Method = "tags"
)

const (
	// DefaultLimit caps combined results when Options.Limit is zero.
	DefaultLimit = 10

	// DefaultConfidenceThreshold is the semantic similarity above which the
	// semantic method's metadata takes precedence in the combined bucket.
	DefaultConfidenceThreshold = 0.75

	// degradedSimilarity is the placeholder score attached to text matches
	// standing in for the semantic method when embedding fails.
	degradedSimilarity = 0.5
)

// Options controls one search invocation.
type Options struct {
	// Limit caps each bucket and the combined result. Defaults to DefaultLimit.
	Limit int

	// Methods restricts which retrieval methods run. Empty means all.
	Methods []Method
}

// Result is one retrieved item with its similarity metadata.
type Result struct {
	Item       knowledge.Item
	Similarity float64
	Distance   float64
}

// Results groups per-method buckets plus the merged, recency-ranked union.
type Results struct {
	Semantic []Result
	Text     []Result
	Tags     []Result

	// Combined is the union of the buckets, one entry per item id, ordered
	// by item recency descending and truncated to the limit.
	Combined []Result
}

// Engine runs hybrid searches against a store driver.
type Engine struct {
	store     store.Driver
	embedder  embeddings.Embedder
	logger    *zap.Logger
	threshold float64
}

// Config holds the engine's dependencies.
type Config struct {
	// Store is the datastore queried by all methods.
	Store store.Driver

	// Embedder generates query embeddings for the semantic method.
	Embedder embeddings.Embedder

	// ConfidenceThreshold overrides DefaultConfidenceThreshold when > 0.
	ConfidenceThreshold float64

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// NewEngine creates a hybrid search engine.
func NewEngine(c Config) *Engine {
	threshold := c.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	return &Engine{
		store:     c.Store,
		embedder:  c.Embedder,
		logger:    c.Logger,
		threshold: threshold,
	}
}

// Find runs the requested retrieval methods in parallel and merges their
// results. An empty query yields empty results, not an error.
func (e *Engine) Find(ctx context.Context, query, ownerID string, opts Options) (*Results, error) {
	out := &Results{}

	query = strings.TrimSpace(query)
	if query == "" {
		return out, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	want := methodSet(opts.Methods)

	var wg sync.WaitGroup

	if want[MethodSemantic] {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Semantic = e.semantic(ctx, query, ownerID, limit)
		}()
	}

	if want[MethodText] {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Text = e.text(ctx, query, ownerID, limit)
		}()
	}

	if want[MethodTags] {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.Tags = e.tags(ctx, query, ownerID, limit)
		}()
	}

	wg.Wait()

	out.Combined = e.combine(out, limit)

	e.logger.Debug("hybrid search complete",
		zap.String("owner_id", ownerID),
		zap.Int("semantic", len(out.Semantic)),
		zap.Int("text", len(out.Text)),
		zap.Int("tags", len(out.Tags)),
		zap.Int("combined", len(out.Combined)),
	)

	return out, nil
}

// semantic embeds the query and runs a nearest-neighbor lookup. When the
// embedding gateway fails or returns an empty vector it falls back to the
// text method's output with a fixed placeholder similarity.
func (e *Engine) semantic(ctx context.Context, query, ownerID string, limit int) []Result {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil || len(vec) == 0 {
		if err != nil {
			e.logger.Warn("semantic search degraded to text",
				zap.String("owner_id", ownerID),
				zap.Error(knowledge.DependencyError{Dependency: "embedding", Err: err}),
			)
		}

		degraded := e.text(ctx, query, ownerID, limit)
		for i := range degraded {
			degraded[i].Similarity = degradedSimilarity
		}
		return degraded
	}

	matches, err := e.store.FindItems(ctx, store.Filter{
		OwnerID: ownerID,
		Nearest: &store.Nearest{Embedding: vec, K: limit},
		Limit:   limit,
	})
	if err != nil {
		e.logger.Warn("semantic lookup failed", zap.Error(err))
		return nil
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Item:       m.Item,
			Similarity: 1.0 / (1.0 + m.Distance),
			Distance:   m.Distance,
		})
	}
	return results
}

// text matches the query case-insensitively against content and summary.
func (e *Engine) text(ctx context.Context, query, ownerID string, limit int) []Result {
	matches, err := e.store.FindItems(ctx, store.Filter{
		OwnerID:      ownerID,
		ContainsFold: query,
		Limit:        limit,
	})
	if err != nil {
		e.logger.Warn("text lookup failed", zap.Error(err))
		return nil
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{Item: m.Item})
	}
	return results
}

// tags extracts stop-word-filtered query tokens and matches them against item
// tag sets.
func (e *Engine) tags(ctx context.Context, query, ownerID string, limit int) []Result {
	tokens := QueryTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	matches, err := e.store.FindItems(ctx, store.Filter{
		OwnerID:     ownerID,
		TagsOverlap: tokens,
		Limit:       limit,
	})
	if err != nil {
		e.logger.Warn("tag lookup failed", zap.Error(err))
		return nil
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{Item: m.Item})
	}
	return results
}

// combine unions the buckets by item id. When an item was found by several
// methods, the semantic entry's metadata wins if its similarity clears the
// confidence threshold; otherwise the highest similarity seen is kept. Final
// ordering is recency descending, truncated to limit.
func (e *Engine) combine(r *Results, limit int) []Result {
	merged := make(map[string]Result)

	keep := func(candidates []Result, semantic bool) {
		for _, c := range candidates {
			id := c.Item.ItemID()
			existing, ok := merged[id]
			if !ok {
				merged[id] = c
				continue
			}

			if semantic && c.Similarity > e.threshold {
				merged[id] = c
				continue
			}
			if c.Similarity > existing.Similarity {
				existing.Similarity = c.Similarity
				existing.Distance = c.Distance
				merged[id] = existing
			}
		}
	}

	keep(r.Semantic, true)
	keep(r.Text, false)
	keep(r.Tags, false)

	combined := make([]Result, 0, len(merged))
	for _, res := range merged {
		combined = append(combined, res)
	}

	sort.Slice(combined, func(i, j int) bool {
		si, sj := combined[i].Item.Stamp(), combined[j].Item.Stamp()
		if si.Equal(sj) {
			return combined[i].Item.ItemID() < combined[j].Item.ItemID()
		}
		return si.After(sj)
	})

	if len(combined) > limit {
		combined = combined[:limit]
	}

	return combined
}

func methodSet(methods []Method) map[Method]bool {
	if len(methods) == 0 {
		return map[Method]bool{MethodSemantic: true, MethodText: true, MethodTags: true}
	}

	set := make(map[Method]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}
