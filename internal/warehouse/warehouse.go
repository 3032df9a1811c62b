// Package warehouse describes and queries the configured table. Each call
// opens its own connection and closes it before returning.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/errs"
	"github.com/sqlassist/sqlassist/internal/sqlguard"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is a fully materialized result set. Columns keeps the order reported by the driver.
type Result struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Warehouse is what the assistant needs from a SQL backend.
type Warehouse interface {
	Describe(ctx context.Context, table config.Table) ([]Column, error)
	Query(ctx context.Context, query sqlguard.Validated) (Result, error)
}

// Opener returns a fresh handle for one call. The caller closes it.
type Opener func(ctx context.Context) (*sql.DB, error)

type Client struct {
	cfg     config.WarehouseConfig
	dialect dialect
	open    Opener
	logger  *slog.Logger
}

type Option func(*Client)

func WithOpener(open Opener) Option {
	return func(c *Client) { c.open = open }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(cfg config.WarehouseConfig, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	switch cfg.Driver {
	case config.DriverDuckDB:
		c.dialect = duckDBDialect{}
		c.open = openDuckDB(cfg)
	default:
		c.dialect = databricksDialect{}
		c.open = openDatabricks(cfg)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Driver() string { return c.dialect.name() }

func (c *Client) Describe(ctx context.Context, table config.Table) ([]Column, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	if !table.Valid() {
		return nil, errs.New(errs.Configuration, "table not configured: CATALOG_NAME, SCHEMA_NAME and TABLE_NAME are required")
	}

	db, err := c.open(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Execution, "connect to warehouse", err)
	}
	defer func() { _ = db.Close() }()

	statement := c.dialect.describe(table)
	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, errs.Wrap(errs.Execution, "describe table "+table.FullName(), err)
	}
	defer func() { _ = rows.Close() }()

	width, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.Execution, "describe columns", err)
	}
	if len(width) < 2 {
		return nil, errs.Newf(errs.Execution, "describe returned %d columns, want at least 2", len(width))
	}

	columns := make([]Column, 0)
	for rows.Next() {
		values, err := scanRow(rows, len(width))
		if err != nil {
			return nil, errs.Wrap(errs.Execution, "scan describe row", err)
		}
		columns = append(columns, Column{Name: asString(values[0]), Type: asString(values[1])})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Execution, "iterate describe rows", err)
	}
	c.logger.DebugContext(ctx, "table described", "table", table.FullName(), "driver", c.dialect.name(), "columns", len(columns))
	return columns, nil
}

func (c *Client) Query(ctx context.Context, query sqlguard.Validated) (Result, error) {
	if query.IsZero() {
		return Result{}, errs.New(errs.UnsafeQuery, "query has not been validated")
	}
	if err := c.checkConfigured(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	db, err := c.open(ctx)
	if err != nil {
		return Result{}, errs.Wrap(errs.Execution, "connect to warehouse", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query.String())
	if err != nil {
		return Result{}, errs.Wrap(errs.Execution, "execute query", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, errs.Wrap(errs.Execution, "query columns", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := scanRow(rows, len(columns))
		if err != nil {
			return Result{}, errs.Wrap(errs.Execution, "scan row", err)
		}
		record := make(map[string]any, len(columns))
		for i, name := range columns {
			record[name] = values[i]
		}
		resultRows = append(resultRows, record)
	}
	if err := rows.Err(); err != nil {
		return Result{}, errs.Wrap(errs.Execution, "iterate rows", err)
	}

	c.logger.DebugContext(ctx, "query executed",
		"driver", c.dialect.name(),
		"rows", len(resultRows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{Columns: columns, Rows: resultRows}, nil
}

func (c *Client) checkConfigured() error {
	if c.cfg.Complete() {
		return nil
	}
	return errs.New(errs.Configuration, c.dialect.incompleteMessage())
}

func scanRow(rows *sql.Rows, width int) ([]any, error) {
	values := make([]any, width)
	targets := make([]any, width)
	for i := range values {
		targets[i] = &values[i]
	}
	if err := rows.Scan(targets...); err != nil {
		return nil, err
	}
	for i, value := range values {
		if raw, ok := value.([]byte); ok {
			values[i] = string(raw)
		}
	}
	return values, nil
}

func asString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	default:
		return fmt.Sprint(typed)
	}
}

// dialect covers what differs between backends.
type dialect interface {
	name() string
	describe(table config.Table) string
	incompleteMessage() string
}
