// Package history defines the write-mostly audit log of assistant queries.
// Nothing in generation reads it back.
package history

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("history entry not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

type Entry struct {
	QueryID    string    `json:"query_id"`
	Question   string    `json:"natural_language_query"`
	SQL        string    `json:"sql_query"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Executed   bool      `json:"executed"`
	Status     string    `json:"status,omitempty"`
	Error      string    `json:"error,omitempty"`
	RowCount   int       `json:"row_count"`
	ExportKey  string    `json:"export_key,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type Store interface {
	Recorder
	List(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, queryID string) (Entry, error)
}

// ClampLimit maps a requested page size onto [1, MaxListLimit], using the default for values <= 0.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
