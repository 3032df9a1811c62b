package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sqlassist/sqlassist/internal/history"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ history.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

// Record inserts entry, or updates the outcome columns when the query was
// recorded before and has now been executed.
func (s *Store) Record(ctx context.Context, entry history.Entry) error {
	if entry.QueryID == "" {
		return fmt.Errorf("query id is required")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO query_history (
	query_id, question, sql_text, provider, model, executed,
	status, error_message, row_count, export_key, duration_ms, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (query_id) DO UPDATE SET
	executed = EXCLUDED.executed,
	status = EXCLUDED.status,
	error_message = EXCLUDED.error_message,
	row_count = EXCLUDED.row_count,
	export_key = EXCLUDED.export_key,
	duration_ms = query_history.duration_ms + EXCLUDED.duration_ms`,
		entry.QueryID,
		entry.Question,
		entry.SQL,
		entry.Provider,
		entry.Model,
		entry.Executed,
		nullString(entry.Status),
		nullString(entry.Error),
		entry.RowCount,
		nullString(entry.ExportKey),
		entry.DurationMs,
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record query history: %w", err)
	}
	return nil
}

const selectColumns = `
SELECT query_id, question, sql_text, provider, model, executed,
	status, error_message, row_count, export_key, duration_ms, created_at
FROM query_history`

func (s *Store) List(ctx context.Context, limit int) ([]history.Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
ORDER BY created_at DESC
LIMIT $1`, history.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan query history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query history: %w", err)
	}
	return entries, nil
}

func (s *Store) Get(ctx context.Context, queryID string) (history.Entry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, selectColumns+`
WHERE query_id = $1`, queryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history.Entry{}, history.ErrNotFound
		}
		return history.Entry{}, fmt.Errorf("get query history: %w", err)
	}
	return entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (history.Entry, error) {
	var (
		entry                     history.Entry
		status, errMsg, exportKey sql.NullString
	)
	if err := row.Scan(
		&entry.QueryID,
		&entry.Question,
		&entry.SQL,
		&entry.Provider,
		&entry.Model,
		&entry.Executed,
		&status,
		&errMsg,
		&entry.RowCount,
		&exportKey,
		&entry.DurationMs,
		&entry.CreatedAt,
	); err != nil {
		return history.Entry{}, err
	}
	entry.Status = status.String
	entry.Error = errMsg.String
	entry.ExportKey = exportKey.String
	return entry, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
