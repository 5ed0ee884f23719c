// Package sqlite provides SQLite-backed persistence for the calendar store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/mocalendar/internal/calendar/domain"
	"github.com/louisbranch/mocalendar/internal/calendar/storage"
	"github.com/louisbranch/mocalendar/internal/calendar/storage/sqlite/migrations"
	sqlitemigrate "github.com/louisbranch/mocalendar/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for calendar events.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a calendar SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

// CreateEvent persists one new event row.
func (s *Store) CreateEvent(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeEvent(event)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO events (id, name, description, event_type, start_time, end_time)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		normalized.ID,
		normalized.Name,
		normalized.Description,
		string(normalized.Type),
		toMillis(normalized.StartTime),
		endTimeParam(normalized),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEventByID loads one event by id.
func (s *Store) GetEventByID(ctx context.Context, id string) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Event{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Event{}, fmt.Errorf("event id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, description, event_type, start_time, end_time
FROM events
WHERE id = ?
`, id)
	event, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, storage.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("get event by id: %w", err)
	}
	return event, nil
}

// ListEvents lists all events ordered by start time.
func (s *Store) ListEvents(ctx context.Context) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, description, event_type, start_time, end_time
FROM events
ORDER BY start_time ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListEventsOnDay lists events whose interval intersects the 24h window of day.
func (s *Store) ListEventsOnDay(ctx context.Context, day time.Time) ([]domain.Event, error) {
	start, end := domain.DayWindow(day)
	return s.ListEventsBetween(ctx, start, end)
}

// ListEventsBetween lists events whose interval intersects [start, end).
// Point events count as zero-length intervals at their start time.
func (s *Store) ListEventsBetween(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	start = domain.NormalizeTime(start)
	end = domain.NormalizeTime(end)
	if end.Before(start) {
		return nil, fmt.Errorf("range end precedes range start")
	}
	// [t, t) is the empty set; the SQL predicate below would degenerate
	// into point containment.
	if end.Equal(start) {
		return nil, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, description, event_type, start_time, end_time
FROM events
WHERE start_time < ?
  AND COALESCE(end_time, start_time) >= ?
ORDER BY start_time ASC, id ASC
`, toMillis(end), toMillis(start))
	if err != nil {
		return nil, fmt.Errorf("list events between: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// UpdateEvent replaces one event row keyed by id.
func (s *Store) UpdateEvent(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeEvent(event)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE events
SET name = ?, description = ?, event_type = ?, start_time = ?, end_time = ?
WHERE id = ?
`,
		normalized.Name,
		normalized.Description,
		string(normalized.Type),
		toMillis(normalized.StartTime),
		endTimeParam(normalized),
		normalized.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteEvent removes one event row by id.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("event id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendAuditEvent records one operational audit event.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.Operation) == "" {
		return fmt.Errorf("operation is required")
	}
	if strings.TrimSpace(evt.Severity) == "" {
		return fmt.Errorf("severity is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
	INSERT INTO audit_events (timestamp, operation, event_id, severity, detail)
	VALUES (?, ?, ?, ?, ?)
	`,
		toMillis(evt.Timestamp),
		evt.Operation,
		strings.TrimSpace(evt.EventID),
		evt.Severity,
		strings.TrimSpace(evt.Detail),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAuditEvents lists the newest audit events first.
func (s *Store) ListAuditEvents(ctx context.Context, limit int) ([]storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT timestamp, operation, event_id, severity, detail
FROM audit_events
ORDER BY timestamp DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	results := make([]storage.AuditEvent, 0, limit)
	for rows.Next() {
		var evt storage.AuditEvent
		var timestamp int64
		if err := rows.Scan(&timestamp, &evt.Operation, &evt.EventID, &evt.Severity, &evt.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event row: %w", err)
		}
		evt.Timestamp = fromMillis(timestamp)
		results = append(results, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit event rows: %w", err)
	}
	return results, nil
}

type scanner func(dest ...any) error

func normalizeEvent(event domain.Event) (domain.Event, error) {
	event.ID = strings.TrimSpace(event.ID)
	if event.ID == "" {
		return domain.Event{}, fmt.Errorf("event id is required")
	}
	event = event.Normalized()
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func endTimeParam(event domain.Event) sql.NullInt64 {
	if event.EndTime == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*event.EndTime), Valid: true}
}

func scanEvent(scan scanner) (domain.Event, error) {
	var event domain.Event
	var eventType string
	var startTime int64
	var endTime sql.NullInt64
	if err := scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&eventType,
		&startTime,
		&endTime,
	); err != nil {
		return domain.Event{}, err
	}
	event.Type = domain.EventType(eventType)
	event.StartTime = fromMillis(startTime)
	if endTime.Valid {
		value := fromMillis(endTime.Int64)
		event.EndTime = &value
	}
	return event, nil
}

func collectEvents(rows *sql.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}
