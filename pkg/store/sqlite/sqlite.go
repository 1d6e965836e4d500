// Package sqlite implements the store driver on a single SQLite database with
// the sqlite-vec extension. Reminders and memories share one items table; the
// vec0 virtual table holds embeddings keyed by the item rowid, since vec0
// tables only address rows by integer rowid.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
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

// Driver implements store.Driver on SQLite + sqlite-vec.
type Driver struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the embedding vector width. Defaults to DefaultDimensions.
	Dimensions uint
}

// NewDriver opens the database, verifies sqlite-vec, and creates the schema.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dimensions := c.Dimensions
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			project_id TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			scheduled_for INTEGER,
			recurrence_type TEXT NOT NULL DEFAULT 'none',
			recurrence_interval INTEGER NOT NULL DEFAULT 0,
			recurrence_anchor INTEGER,
			recurrence_end INTEGER,
			is_recurring INTEGER NOT NULL DEFAULT 0,
			is_completed INTEGER NOT NULL DEFAULT 0,
			completed_at INTEGER,
			file_reference TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating items table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_items_owner_kind ON items(owner_id, kind)`,
		`CREATE INDEX IF NOT EXISTS idx_items_due ON items(is_completed, scheduled_for)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS item_embeddings USING vec0(embedding float[%d])`,
		dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite store driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB format
// sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// PutReminder stores a new reminder.
func (d *Driver) PutReminder(ctx context.Context, r *knowledge.Reminder) error {
	return d.insert(ctx, reminderRecord(r), r.Embedding)
}

// GetReminder retrieves a reminder by id.
func (d *Driver) GetReminder(ctx context.Context, id string) (*knowledge.Reminder, error) {
	rec, err := d.get(ctx, id, kindReminder)
	if err != nil {
		return nil, err
	}
	return rec.reminder()
}

// UpdateReminder overwrites an existing reminder.
func (d *Driver) UpdateReminder(ctx context.Context, r *knowledge.Reminder) error {
	return d.update(ctx, reminderRecord(r), r.Embedding)
}

// DueReminders returns reminders with ScheduledFor <= now that are not
// completed.
func (d *Driver) DueReminders(ctx context.Context, now time.Time) ([]*knowledge.Reminder, error) {
	rows, err := d.db.QueryContext(ctx,
		selectColumns+` FROM items
		WHERE kind = ? AND is_completed = 0 AND scheduled_for IS NOT NULL AND scheduled_for <= ?`,
		kindReminder, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// PutMemory stores a new memory.
func (d *Driver) PutMemory(ctx context.Context, m *knowledge.Memory) error {
	rec, err := memoryRecord(m)
	if err != nil {
		return err
	}
	return d.insert(ctx, rec, m.Embedding)
}

// GetMemory retrieves a memory by id.
func (d *Driver) GetMemory(ctx context.Context, id string) (*knowledge.Memory, error) {
	rec, err := d.get(ctx, id, kindMemory)
	if err != nil {
		return nil, err
	}
	return rec.memory()
}

// UpdateMemory overwrites an existing memory.
func (d *Driver) UpdateMemory(ctx context.Context, m *knowledge.Memory) error {
	rec, err := memoryRecord(m)
	if err != nil {
		return err
	}
	return d.update(ctx, rec, m.Embedding)
}

// FindItems compiles the filter to SQL. Nearest-neighbor filters run a vec0
// KNN MATCH joined back to the items table; the equality filters then restrict
// the KNN candidates, so the KNN oversamples to keep the post-filter set full.
func (d *Driver) FindItems(ctx context.Context, f store.Filter) ([]store.Match, error) {
	if f.Nearest != nil {
		return d.findNearest(ctx, f)
	}

	where, args := compileFilter(f)

	query := selectColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY MAX(COALESCE(scheduled_for, 0), created_at) DESC LIMIT ?`
	args = append(args, f.EffectiveLimit())

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var matches []store.Match
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		item, err := rec.item()
		if err != nil {
			return nil, err
		}
		matches = append(matches, store.Match{Item: item})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return matches, nil
}

func (d *Driver) findNearest(ctx context.Context, f store.Filter) ([]store.Match, error) {
	limit := f.Nearest.K
	if limit <= 0 {
		limit = f.EffectiveLimit()
	}

	where, args := compileFilter(f)
	extra := ""
	if len(where) > 0 {
		extra = ` AND ` + strings.Join(where, " AND ")
	}

	// k oversamples because the equality filters apply after the KNN scan.
	knnArgs := []any{serializeFloat32(f.Nearest.Embedding), limit * 4}
	knnArgs = append(knnArgs, args...)
	knnArgs = append(knnArgs, limit)

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+recordColumns("i")+`, ve.distance
		FROM item_embeddings ve
		INNER JOIN items i ON i.rowid = ve.rowid
		WHERE ve.embedding MATCH ? AND ve.k = ?`+extra+`
		ORDER BY ve.distance
		LIMIT ?
	`, knnArgs...)
	if err != nil {
		return nil, fmt.Errorf("querying nearest items: %w", err)
	}
	defer rows.Close()

	var matches []store.Match
	for rows.Next() {
		rec := &record{}
		dest := rec.scanDest()
		var distance float64
		dest = append(dest, &distance)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning nearest item: %w", err)
		}

		item, err := rec.item()
		if err != nil {
			return nil, err
		}
		matches = append(matches, store.Match{Item: item, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest items: %w", err)
	}

	return matches, nil
}

// ListReminders returns all reminders for an owner, newest schedule first.
func (d *Driver) ListReminders(ctx context.Context, ownerID string) ([]*knowledge.Reminder, error) {
	rows, err := d.db.QueryContext(ctx,
		selectColumns+` FROM items
		WHERE kind = ? AND owner_id = ?
		ORDER BY scheduled_for DESC`,
		kindReminder, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// Close releases the database handle.
func (d *Driver) Close() error {
	return d.db.Close()
}

// compileFilter builds WHERE clauses for the non-vector filter fields.
func compileFilter(f store.Filter) (where []string, args []any) {
	if f.OwnerID != "" {
		where = append(where, `owner_id = ?`)
		args = append(args, f.OwnerID)
	}
	if f.ProjectID != "" {
		where = append(where, `project_id = ?`)
		args = append(args, f.ProjectID)
	}
	if f.ContainsFold != "" {
		where = append(where,
			`(LOWER(content) LIKE '%' || LOWER(?) || '%' OR LOWER(summary) LIKE '%' || LOWER(?) || '%')`)
		args = append(args, f.ContainsFold, f.ContainsFold)
	}
	if len(f.TagsOverlap) > 0 {
		placeholders := make([]string, len(f.TagsOverlap))
		for i, tag := range f.TagsOverlap {
			placeholders[i] = "?"
			args = append(args, tag)
		}
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM json_each(items.tags) WHERE json_each.value IN (%s))`,
			strings.Join(placeholders, ","),
		))
	}
	return where, args
}

func (d *Driver) insert(ctx context.Context, rec *record, embedding []float32) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO items (
			id, kind, owner_id, project_id, content, summary, tags,
			scheduled_for, recurrence_type, recurrence_interval, recurrence_anchor, recurrence_end,
			is_recurring, is_completed, completed_at,
			file_reference, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.insertArgs()...,
	)
	if err != nil {
		return fmt.Errorf("inserting item %s: %w", rec.id, err)
	}

	if len(embedding) > 0 {
		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for item %s: %w", rec.id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for item %s: %w", rec.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (d *Driver) update(ctx context.Context, rec *record, embedding []float32) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var rowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM items WHERE id = ? AND kind = ?`, rec.id, rec.kind,
	).Scan(&rowID)
	if err == sql.ErrNoRows {
		return knowledge.NotFoundError{Kind: rec.kind, ID: rec.id}
	}
	if err != nil {
		return fmt.Errorf("locating item %s: %w", rec.id, err)
	}

	args := rec.updateArgs()
	args = append(args, rowID)
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET
			owner_id = ?, project_id = ?, content = ?, summary = ?, tags = ?,
			scheduled_for = ?, recurrence_type = ?, recurrence_interval = ?, recurrence_anchor = ?, recurrence_end = ?,
			is_recurring = ?, is_completed = ?, completed_at = ?,
			file_reference = ?, metadata = ?, created_at = ?, updated_at = ?
		WHERE rowid = ?`,
		args...,
	); err != nil {
		return fmt.Errorf("updating item %s: %w", rec.id, err)
	}

	if len(embedding) > 0 {
		// vec0 does not support UPDATE, so DELETE + INSERT.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM item_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting old embedding for item %s: %w", rec.id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(embedding),
		); err != nil {
			return fmt.Errorf("re-inserting embedding for item %s: %w", rec.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (d *Driver) get(ctx context.Context, id, kind string) (*record, error) {
	row := d.db.QueryRowContext(ctx,
		selectColumns+` FROM items WHERE id = ? AND kind = ?`, id, kind,
	)

	rec := &record{}
	if err := row.Scan(rec.scanDest()...); err != nil {
		if err == sql.ErrNoRows {
			return nil, knowledge.NotFoundError{Kind: kind, ID: id}
		}
		return nil, fmt.Errorf("scanning item %s: %w", id, err)
	}
	return rec, nil
}

// record is the flat row shape shared by both item kinds.
type record struct {
	rowID              int64
	id                 string
	kind               string
	ownerID            string
	projectID          string
	content            string
	summary            string
	tags               string
	scheduledFor       sql.NullInt64
	recurrenceType     string
	recurrenceInterval int
	recurrenceAnchor   sql.NullInt64
	recurrenceEnd      sql.NullInt64
	isRecurring        bool
	isCompleted        bool
	completedAt        sql.NullInt64
	fileReference      string
	metadata           string
	createdAt          int64
	updatedAt          int64
}

const selectColumns = `SELECT rowid, id, kind, owner_id, project_id, content, summary, tags,
	scheduled_for, recurrence_type, recurrence_interval, recurrence_anchor, recurrence_end,
	is_recurring, is_completed, completed_at,
	file_reference, metadata, created_at, updated_at`

func recordColumns(alias string) string {
	cols := []string{
		"rowid", "id", "kind", "owner_id", "project_id", "content", "summary", "tags",
		"scheduled_for", "recurrence_type", "recurrence_interval", "recurrence_anchor", "recurrence_end",
		"is_recurring", "is_completed", "completed_at",
		"file_reference", "metadata", "created_at", "updated_at",
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (r *record) scanDest() []any {
	return []any{
		&r.rowID, &r.id, &r.kind, &r.ownerID, &r.projectID, &r.content, &r.summary, &r.tags,
		&r.scheduledFor, &r.recurrenceType, &r.recurrenceInterval, &r.recurrenceAnchor, &r.recurrenceEnd,
		&r.isRecurring, &r.isCompleted, &r.completedAt,
		&r.fileReference, &r.metadata, &r.createdAt, &r.updatedAt,
	}
}

func scanRecord(rows *sql.Rows) (*record, error) {
	rec := &record{}
	if err := rows.Scan(rec.scanDest()...); err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}
	return rec, nil
}

func (r *record) insertArgs() []any {
	return []any{
		r.id, r.kind, r.ownerID, r.projectID, r.content, r.summary, r.tags,
		r.scheduledFor, r.recurrenceType, r.recurrenceInterval, r.recurrenceAnchor, r.recurrenceEnd,
		r.isRecurring, r.isCompleted, r.completedAt,
		r.fileReference, r.metadata, r.createdAt, r.updatedAt,
	}
}

func (r *record) updateArgs() []any {
	return []any{
		r.ownerID, r.projectID, r.content, r.summary, r.tags,
		r.scheduledFor, r.recurrenceType, r.recurrenceInterval, r.recurrenceAnchor, r.recurrenceEnd,
		r.isRecurring, r.isCompleted, r.completedAt,
		r.fileReference, r.metadata, r.createdAt, r.updatedAt,
	}
}

func (r *record) item() (knowledge.Item, error) {
	switch r.kind {
	case kindReminder:
		return r.reminder()
	case kindMemory:
		return r.memory()
	}
	return nil, fmt.Errorf("unknown item kind %q for %s", r.kind, r.id)
}

func (r *record) reminder() (*knowledge.Reminder, error) {
	var tags []string
	if err := json.Unmarshal([]byte(r.tags), &tags); err != nil {
		return nil, fmt.Errorf("decoding tags for %s: %w", r.id, err)
	}

	rem := &knowledge.Reminder{
		ID:        r.id,
		OwnerID:   r.ownerID,
		ProjectID: r.projectID,
		Content:   r.content,
		Summary:   r.summary,
		Tags:      tags,
		Recurrence: knowledge.Recurrence{
			Type:     knowledge.RecurrenceType(r.recurrenceType),
			Interval: r.recurrenceInterval,
		},
		IsRecurring: r.isRecurring,
		IsCompleted: r.isCompleted,
		CreatedAt:   time.Unix(0, r.createdAt),
	}
	if r.scheduledFor.Valid {
		rem.ScheduledFor = time.Unix(0, r.scheduledFor.Int64)
	}
	if r.recurrenceAnchor.Valid {
		rem.Recurrence.Anchor = time.Unix(0, r.recurrenceAnchor.Int64)
	}
	if r.recurrenceEnd.Valid {
		end := time.Unix(0, r.recurrenceEnd.Int64)
		rem.Recurrence.EndDate = &end
	}
	if r.completedAt.Valid {
		completed := time.Unix(0, r.completedAt.Int64)
		rem.CompletedAt = &completed
	}
	return rem, nil
}

func (r *record) memory() (*knowledge.Memory, error) {
	var tags []string
	if err := json.Unmarshal([]byte(r.tags), &tags); err != nil {
		return nil, fmt.Errorf("decoding tags for %s: %w", r.id, err)
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(r.metadata), &metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", r.id, err)
	}

	return &knowledge.Memory{
		ID:            r.id,
		OwnerID:       r.ownerID,
		ProjectID:     r.projectID,
		Content:       r.content,
		Summary:       r.summary,
		Tags:          tags,
		FileReference: r.fileReference,
		Metadata:      metadata,
		CreatedAt:     time.Unix(0, r.createdAt),
		UpdatedAt:     time.Unix(0, r.updatedAt),
	}, nil
}

func reminderRecord(r *knowledge.Reminder) *record {
	tags, _ := json.Marshal(emptyIfNil(r.Tags))

	rec := &record{
		id:                 r.ID,
		kind:               kindReminder,
		ownerID:            r.OwnerID,
		projectID:          r.ProjectID,
		content:            r.Content,
		summary:            r.Summary,
		tags:               string(tags),
		scheduledFor:       sql.NullInt64{Int64: r.ScheduledFor.UnixNano(), Valid: !r.ScheduledFor.IsZero()},
		recurrenceType:     string(r.Recurrence.Type),
		recurrenceInterval: r.Recurrence.Interval,
		isRecurring:        r.IsRecurring,
		isCompleted:        r.IsCompleted,
		metadata:           "{}",
		createdAt:          r.CreatedAt.UnixNano(),
		updatedAt:          r.CreatedAt.UnixNano(),
	}
	if !r.Recurrence.Anchor.IsZero() {
		rec.recurrenceAnchor = sql.NullInt64{Int64: r.Recurrence.Anchor.UnixNano(), Valid: true}
	}
	if r.Recurrence.EndDate != nil {
		rec.recurrenceEnd = sql.NullInt64{Int64: r.Recurrence.EndDate.UnixNano(), Valid: true}
	}
	if r.CompletedAt != nil {
		rec.completedAt = sql.NullInt64{Int64: r.CompletedAt.UnixNano(), Valid: true}
	}
	if rec.recurrenceType == "" {
		rec.recurrenceType = string(knowledge.RecurrenceNone)
	}
	return rec
}

func memoryRecord(m *knowledge.Memory) (*record, error) {
	tags, _ := json.Marshal(emptyIfNil(m.Tags))

	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata for %s: %w", m.ID, err)
	}

	return &record{
		id:             m.ID,
		kind:           kindMemory,
		ownerID:        m.OwnerID,
		projectID:      m.ProjectID,
		content:        m.Content,
		summary:        m.Summary,
		tags:           string(tags),
		recurrenceType: string(knowledge.RecurrenceNone),
		fileReference:  m.FileReference,
		metadata:       string(metaJSON),
		createdAt:      m.CreatedAt.UnixNano(),
		updatedAt:      m.UpdatedAt.UnixNano(),
	}, nil
}

func emptyIfNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func scanReminders(rows *sql.Rows) ([]*knowledge.Reminder, error) {
	var reminders []*knowledge.Reminder
	for rows.Next() {
		rec := &record{}
		if err := rows.Scan(rec.scanDest()...); err != nil {
			return nil, fmt.Errorf("scanning reminder: %w", err)
		}
		rem, err := rec.reminder()
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminders: %w", err)
	}
	return reminders, nil
}

var _ store.Driver = (*Driver)(nil)
