// Package inmemory implements store.Driver with in-process maps. It backs the
// unit tests of every engine and doubles as a zero-dependency local-dev store.
// Vector nearest-neighbor is brute-force cosine distance.
package inmemory

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/store"
)

// Driver implements store.Driver using maps guarded by a RWMutex.
type Driver struct {
	mu        sync.RWMutex
	reminders map[string]*knowledge.Reminder
	memories  map[string]*knowledge.Memory
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		reminders: make(map[string]*knowledge.Reminder),
		memories:  make(map[string]*knowledge.Memory),
	}
}

// PutReminder stores a new reminder.
func (d *Driver) PutReminder(_ context.Context, r *knowledge.Reminder) error {
	if r == nil {
		return errors.New("cannot store nil reminder")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *r
	d.reminders[r.ID] = &cp
	return nil
}

// GetReminder retrieves a reminder by id.
func (d *Driver) GetReminder(_ context.Context, id string) (*knowledge.Reminder, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.reminders[id]
	if !ok {
		return nil, knowledge.NotFoundError{Kind: "reminder", ID: id}
	}

	cp := *r
	return &cp, nil
}

// UpdateReminder overwrites an existing reminder.
func (d *Driver) UpdateReminder(_ context.Context, r *knowledge.Reminder) error {
	if r == nil {
		return errors.New("cannot update nil reminder")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.reminders[r.ID]; !ok {
		return knowledge.NotFoundError{Kind: "reminder", ID: r.ID}
	}

	cp := *r
	d.reminders[r.ID] = &cp
	return nil
}

// DueReminders returns non-completed reminders with ScheduledFor <= now.
func (d *Driver) DueReminders(_ context.Context, now time.Time) ([]*knowledge.Reminder, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var due []*knowledge.Reminder
	for _, r := range d.reminders {
		if r.IsCompleted || r.ScheduledFor.After(now) {
			continue
		}
		cp := *r
		due = append(due, &cp)
	}

	return due, nil
}

// PutMemory stores a new memory.
func (d *Driver) PutMemory(_ context.Context, m *knowledge.Memory) error {
	if m == nil {
		return errors.New("cannot store nil memory")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *m
	d.memories[m.ID] = &cp
	return nil
}

// GetMemory retrieves a memory by id.
func (d *Driver) GetMemory(_ context.Context, id string) (*knowledge.Memory, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	m, ok := d.memories[id]
	if !ok {
		return nil, knowledge.NotFoundError{Kind: "memory", ID: id}
	}

	cp := *m
	return &cp, nil
}

// UpdateMemory overwrites an existing memory.
func (d *Driver) UpdateMemory(_ context.Context, m *knowledge.Memory) error {
	if m == nil {
		return errors.New("cannot update nil memory")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.memories[m.ID]; !ok {
		return knowledge.NotFoundError{Kind: "memory", ID: m.ID}
	}

	cp := *m
	d.memories[m.ID] = &cp
	return nil
}

// ListReminders returns all reminders for an owner, newest schedule first.
func (d *Driver) ListReminders(_ context.Context, ownerID string) ([]*knowledge.Reminder, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*knowledge.Reminder
	for _, r := range d.reminders {
		if r.OwnerID != ownerID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledFor.After(out[j].ScheduledFor)
	})

	return out, nil
}

// FindItems evaluates the filter over all items in memory.
func (d *Driver) FindItems(_ context.Context, f store.Filter) ([]store.Match, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var candidates []knowledge.Item
	for _, r := range d.reminders {
		cp := *r
		candidates = append(candidates, &cp)
	}
	for _, m := range d.memories {
		cp := *m
		candidates = append(candidates, &cp)
	}

	var matches []store.Match
	for _, it := range candidates {
		if f.OwnerID != "" && it.Owner() != f.OwnerID {
			continue
		}
		if f.ProjectID != "" && it.Project() != f.ProjectID {
			continue
		}
		if f.ContainsFold != "" && !containsFold(it, f.ContainsFold) {
			continue
		}
		if len(f.TagsOverlap) > 0 && !tagsOverlap(it.TagSet(), f.TagsOverlap) {
			continue
		}

		m := store.Match{Item: it}
		if f.Nearest != nil {
			vec := it.Vector()
			if len(vec) == 0 {
				continue
			}
			m.Distance = cosineDistance(f.Nearest.Embedding, vec)
		}
		matches = append(matches, m)
	}

	if f.Nearest != nil {
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].Distance < matches[j].Distance
		})
		k := f.Nearest.K
		if k <= 0 {
			k = f.EffectiveLimit()
		}
		if len(matches) > k {
			matches = matches[:k]
		}
	} else {
		// Stable recency order so tests are deterministic.
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].Item.Stamp().After(matches[j].Item.Stamp())
		})
	}

	if limit := f.EffectiveLimit(); len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// CountMemories returns the number of stored memories. Test helper.
func (d *Driver) CountMemories() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.memories)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

func containsFold(it knowledge.Item, substr string) bool {
	s := strings.ToLower(substr)
	return strings.Contains(strings.ToLower(it.Body()), s) ||
		strings.Contains(strings.ToLower(it.Brief()), s)
}

func tagsOverlap(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// cosineDistance returns 1 - cosine similarity, in [0, 2].
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

var _ store.Driver = (*Driver)(nil)
