// Package chargram provides an offline, deterministic embedder that hashes
// character trigrams and word tokens into a fixed-dimension vector. It needs
// no external service, which makes it the local-dev and test default; semantic
// quality is far below a real embedding model.
package chargram

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/recallhq/recall/pkg/embeddings"
)

// DefaultDimensions is the vector width when none is configured.
const DefaultDimensions = 384

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_\-]+`)

// Embedder hashes trigrams and tokens into a normalized vector.
type Embedder struct {
	dims int
}

// Config holds configuration for the chargram embedder.
type Config struct {
	// Dimensions is the vector width. Defaults to DefaultDimensions.
	Dimensions int
}

// NewEmbedder creates a chargram embedder.
func NewEmbedder(cfg Config) *Embedder {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Embed converts text into a normalized bag-of-trigrams vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)

	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return vec, nil
	}

	window := "#" + normalized + "#"
	for i := 0; i+3 <= len(window); i++ {
		vec[e.slot(window[i:i+3])]++
	}

	// Whole tokens get extra weight so exact word overlap dominates.
	for _, token := range tokenPattern.FindAllString(normalized, -1) {
		vec[e.slot("tok:"+token)] += 1.25
	}

	normalize(vec)
	return vec, nil
}

// Close is a no-op.
func (e *Embedder) Close() error { return nil }

func (e *Embedder) slot(s string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(e.dims))
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	if sum == 0 {
		return
	}

	inv := float32(1.0 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

var _ embeddings.Embedder = (*Embedder)(nil)
