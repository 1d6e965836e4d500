// Package postgres implements the store driver on PostgreSQL with the pgvector
// extension. Both item kinds live in one items table; embeddings are a vector
// column queried with the cosine distance operator, and tag overlap compiles
// to the native array && operator.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/store"
)

// DefaultDimensions matches the chargram embedder's output width.
const DefaultDimensions = 384

const (
	kindReminder = "reminder"
	kindMemory   = "memory"
)

// Driver implements store.Driver on PostgreSQL + pgvector.
type Driver struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Config holds configuration for the PostgreSQL driver.
type Config struct {
	// DSN is the PostgreSQL connection string. Required.
	DSN string

	// Dimensions is the embedding vector width. Defaults to DefaultDimensions.
	Dimensions uint
}

// NewDriver connects the pool, enables pgvector, and creates the schema.
func NewDriver(ctx context.Context, c Config, logger *zap.Logger) (*Driver, error) {
	if c.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	dimensions := c.Dimensions
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}

	pool, err := pgxpool.New(ctx, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("enabling pgvector: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			project_id TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			embedding vector(%d),
			scheduled_for TIMESTAMPTZ,
			recurrence_type TEXT NOT NULL DEFAULT 'none',
			recurrence_interval INTEGER NOT NULL DEFAULT 0,
			recurrence_anchor TIMESTAMPTZ,
			recurrence_end TIMESTAMPTZ,
			is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			file_reference TEXT NOT NULL DEFAULT '',
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, dimensions)
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating items table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_items_owner_kind ON items(owner_id, kind)`,
		`CREATE INDEX IF NOT EXISTS idx_items_due ON items(is_completed, scheduled_for)`,
		`CREATE INDEX IF NOT EXISTS idx_items_tags ON items USING GIN(tags)`,
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	logger.Info("postgres store driver initialized",
		zap.Uint("dimensions", dimensions),
	)

	return &Driver{
		pool:   pool,
		logger: logger,
	}, nil
}

// vectorLiteral renders the embedding in pgvector's text input format.
func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// PutReminder stores a new reminder.
func (d *Driver) PutReminder(ctx context.Context, r *knowledge.Reminder) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO items (
			id, kind, owner_id, project_id, content, summary, tags, embedding,
			scheduled_for, recurrence_type, recurrence_interval, recurrence_anchor, recurrence_end,
			is_recurring, is_completed, completed_at, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector, $9, $10, $11, $12, $13, $14, $15, $16, '{}', $17, $17)`,
		r.ID, kindReminder, r.OwnerID, r.ProjectID, r.Content, r.Summary,
		tagsOf(r.Tags), embeddingOf(r.Embedding),
		nullableTime(r.ScheduledFor), string(r.Recurrence.Type), r.Recurrence.Interval,
		nullableTime(r.Recurrence.Anchor), r.Recurrence.EndDate, r.IsRecurring, r.IsCompleted, r.CompletedAt, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting reminder %s: %w", r.ID, err)
	}
	return nil
}

// GetReminder retrieves a reminder by id.
func (d *Driver) GetReminder(ctx context.Context, id string) (*knowledge.Reminder, error) {
	row := d.pool.QueryRow(ctx, selectColumns+` FROM items WHERE id = $1 AND kind = $2`, id, kindReminder)

	rec := &record{}
	if err := row.Scan(rec.scanDest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, knowledge.NotFoundError{Kind: kindReminder, ID: id}
		}
		return nil, fmt.Errorf("scanning reminder %s: %w", id, err)
	}
	return rec.reminder(), nil
}

// UpdateReminder overwrites an existing reminder.
func (d *Driver) UpdateReminder(ctx context.Context, r *knowledge.Reminder) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE items SET
			owner_id = $3, project_id = $4, content = $5, summary = $6, tags = $7,
			embedding = COALESCE($8::vector, embedding),
			scheduled_for = $9, recurrence_type = $10, recurrence_interval = $11,
			recurrence_anchor = $12, recurrence_end = $13, is_recurring = $14,
			is_completed = $15, completed_at = $16, updated_at = NOW()
		WHERE id = $1 AND kind = $2`,
		r.ID, kindReminder, r.OwnerID, r.ProjectID, r.Content, r.Summary,
		tagsOf(r.Tags), embeddingOf(r.Embedding),
		nullableTime(r.ScheduledFor), string(r.Recurrence.Type), r.Recurrence.Interval,
		nullableTime(r.Recurrence.Anchor), r.Recurrence.EndDate, r.IsRecurring, r.IsCompleted, r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("updating reminder %s: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return knowledge.NotFoundError{Kind: kindReminder, ID: r.ID}
	}
	return nil
}

// DueReminders returns reminders with ScheduledFor <= now that are not
// completed.
func (d *Driver) DueReminders(ctx context.Context, now time.Time) ([]*knowledge.Reminder, error) {
	rows, err := d.pool.Query(ctx,
		selectColumns+` FROM items
		WHERE kind = $1 AND is_completed = FALSE AND scheduled_for IS NOT NULL AND scheduled_for <= $2`,
		kindReminder, now,
	)
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// PutMemory stores a new memory.
func (d *Driver) PutMemory(ctx context.Context, m *knowledge.Memory) error {
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO items (
			id, kind, owner_id, project_id, content, summary, tags, embedding,
			file_reference, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector, $9, $10, $11, $12)`,
		m.ID, kindMemory, m.OwnerID, m.ProjectID, m.Content, m.Summary,
		tagsOf(m.Tags), embeddingOf(m.Embedding),
		m.FileReference, metadata, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting memory %s: %w", m.ID, err)
	}
	return nil
}

// GetMemory retrieves a memory by id.
func (d *Driver) GetMemory(ctx context.Context, id string) (*knowledge.Memory, error) {
	row := d.pool.QueryRow(ctx, selectColumns+` FROM items WHERE id = $1 AND kind = $2`, id, kindMemory)

	rec := &record{}
	if err := row.Scan(rec.scanDest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, knowledge.NotFoundError{Kind: kindMemory, ID: id}
		}
		return nil, fmt.Errorf("scanning memory %s: %w", id, err)
	}
	return rec.memory(), nil
}

// UpdateMemory overwrites an existing memory.
func (d *Driver) UpdateMemory(ctx context.Context, m *knowledge.Memory) error {
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	tag, err := d.pool.Exec(ctx, `
		UPDATE items SET
			owner_id = $3, project_id = $4, content = $5, summary = $6, tags = $7,
			embedding = COALESCE($8::vector, embedding),
			file_reference = $9, metadata = $10, updated_at = $11
		WHERE id = $1 AND kind = $2`,
		m.ID, kindMemory, m.OwnerID, m.ProjectID, m.Content, m.Summary,
		tagsOf(m.Tags), embeddingOf(m.Embedding),
		m.FileReference, metadata, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating memory %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return knowledge.NotFoundError{Kind: kindMemory, ID: m.ID}
	}
	return nil
}

// FindItems compiles the filter to SQL. Nearest-neighbor filters order by the
// pgvector cosine distance operator; all other fields become WHERE clauses.
func (d *Driver) FindItems(ctx context.Context, f store.Filter) ([]store.Match, error) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.OwnerID != "" {
		where = append(where, `owner_id = `+arg(f.OwnerID))
	}
	if f.ProjectID != "" {
		where = append(where, `project_id = `+arg(f.ProjectID))
	}
	if f.ContainsFold != "" {
		p := arg("%" + f.ContainsFold + "%")
		where = append(where, `(content ILIKE `+p+` OR summary ILIKE `+p+`)`)
	}
	if len(f.TagsOverlap) > 0 {
		where = append(where, `tags && `+arg(f.TagsOverlap))
	}

	limit := f.EffectiveLimit()
	selectList := selectColumns
	orderBy := ` ORDER BY GREATEST(scheduled_for, created_at) DESC NULLS LAST`

	if f.Nearest != nil {
		if f.Nearest.K > 0 {
			limit = f.Nearest.K
		}
		p := arg(vectorLiteral(f.Nearest.Embedding))
		where = append(where, `embedding IS NOT NULL`)
		selectList += `, embedding <=> ` + p + `::vector AS distance`
		orderBy = ` ORDER BY embedding <=> ` + p + `::vector`
	}

	query := selectList + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += orderBy + ` LIMIT ` + arg(limit)

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var matches []store.Match
	for rows.Next() {
		rec := &record{}
		dest := rec.scanDest()

		var distance float64
		if f.Nearest != nil {
			dest = append(dest, &distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		item, err := rec.item()
		if err != nil {
			return nil, err
		}
		matches = append(matches, store.Match{Item: item, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return matches, nil
}

// ListReminders returns all reminders for an owner, newest schedule first.
func (d *Driver) ListReminders(ctx context.Context, ownerID string) ([]*knowledge.Reminder, error) {
	rows, err := d.pool.Query(ctx,
		selectColumns+` FROM items
		WHERE kind = $1 AND owner_id = $2
		ORDER BY scheduled_for DESC NULLS LAST`,
		kindReminder, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// Close releases the connection pool.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

func tagsOf(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// embeddingOf renders the embedding as a pgvector literal, or nil so the
// column stays NULL (and COALESCE keeps the previous value on update).
func embeddingOf(v []float32) *string {
	if len(v) == 0 {
		return nil
	}
	lit := vectorLiteral(v)
	return &lit
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

const selectColumns = `SELECT id, kind, owner_id, project_id, content, summary, tags,
	scheduled_for, recurrence_type, recurrence_interval, recurrence_anchor, recurrence_end,
	is_recurring, is_completed, completed_at,
	file_reference, metadata, created_at, updated_at`

type record struct {
	id                 string
	kind               string
	ownerID            string
	projectID          string
	content            string
	summary            string
	tags               []string
	scheduledFor       *time.Time
	recurrenceType     string
	recurrenceInterval int
	recurrenceAnchor   *time.Time
	recurrenceEnd      *time.Time
	isRecurring        bool
	isCompleted        bool
	completedAt        *time.Time
	fileReference      string
	metadata           map[string]string
	createdAt          time.Time
	updatedAt          time.Time
}

func (r *record) scanDest() []any {
	return []any{
		&r.id, &r.kind, &r.ownerID, &r.projectID, &r.content, &r.summary, &r.tags,
		&r.scheduledFor, &r.recurrenceType, &r.recurrenceInterval, &r.recurrenceAnchor, &r.recurrenceEnd,
		&r.isRecurring, &r.isCompleted, &r.completedAt,
		&r.fileReference, &r.metadata, &r.createdAt, &r.updatedAt,
	}
}

func (r *record) item() (knowledge.Item, error) {
	switch r.kind {
	case kindReminder:
		return r.reminder(), nil
	case kindMemory:
		return r.memory(), nil
	}
	return nil, fmt.Errorf("unknown item kind %q for %s", r.kind, r.id)
}

func (r *record) reminder() *knowledge.Reminder {
	rem := &knowledge.Reminder{
		ID:        r.id,
		OwnerID:   r.ownerID,
		ProjectID: r.projectID,
		Content:   r.content,
		Summary:   r.summary,
		Tags:      r.tags,
		Recurrence: knowledge.Recurrence{
			Type:     knowledge.RecurrenceType(r.recurrenceType),
			Interval: r.recurrenceInterval,
			EndDate:  r.recurrenceEnd,
		},
		IsRecurring: r.isRecurring,
		IsCompleted: r.isCompleted,
		CompletedAt: r.completedAt,
		CreatedAt:   r.createdAt,
	}
	if r.scheduledFor != nil {
		rem.ScheduledFor = *r.scheduledFor
	}
	if r.recurrenceAnchor != nil {
		rem.Recurrence.Anchor = *r.recurrenceAnchor
	}
	return rem
}

func (r *record) memory() *knowledge.Memory {
	return &knowledge.Memory{
		ID:            r.id,
		OwnerID:       r.ownerID,
		ProjectID:     r.projectID,
		Content:       r.content,
		Summary:       r.summary,
		Tags:          r.tags,
		FileReference: r.fileReference,
		Metadata:      r.metadata,
		CreatedAt:     r.createdAt,
		UpdatedAt:     r.updatedAt,
	}
}

func scanReminders(rows pgx.Rows) ([]*knowledge.Reminder, error) {
	var reminders []*knowledge.Reminder
	for rows.Next() {
		rec := &record{}
		if err := rows.Scan(rec.scanDest()...); err != nil {
			return nil, fmt.Errorf("scanning reminder: %w", err)
		}
		reminders = append(reminders, rec.reminder())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminders: %w", err)
	}
	return reminders, nil
}

var _ store.Driver = (*Driver)(nil)
