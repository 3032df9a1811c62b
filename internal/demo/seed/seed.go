package seed

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqlassist/sqlassist/internal/config"
)

const (
	DefaultRows      = 5000
	DefaultSeed      = 42
	DefaultCustomers = 500
	DefaultDays      = 120
	batchSize        = 500
)

type Options struct {
	Rows      int
	Seed      int64
	Customers int
	Days      int
	// Replace drops existing rows instead of failing when the table exists.
	Replace bool
}

func DefaultOptions() Options {
	return Options{
		Rows:      DefaultRows,
		Seed:      DefaultSeed,
		Customers: DefaultCustomers,
		Days:      DefaultDays,
	}
}

type Seeder struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewSeeder(db *sql.DB, logger *slog.Logger) (*Seeder, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Seeder{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

// OpenDuckDB opens the database file at path, creating it when missing.
func OpenDuckDB(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("duckdb path is required")
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}

// CatalogName is the catalog DuckDB assigns to a database file.
func CatalogName(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Seed creates the table and inserts opts.Rows orders in batches, one
// transaction per batch. It returns the number of rows written.
func (s *Seeder) Seed(ctx context.Context, table config.Table, opts Options) (int, error) {
	if !table.Valid() {
		return 0, fmt.Errorf("table not configured: CATALOG_NAME, SCHEMA_NAME and TABLE_NAME are required")
	}
	if opts.Rows <= 0 {
		return 0, fmt.Errorf("rows must be positive")
	}

	create := "CREATE TABLE "
	if opts.Replace {
		create = "CREATE OR REPLACE TABLE "
	}
	statements := []string{
		"CREATE SCHEMA IF NOT EXISTS " + table.Catalog + "." + table.Schema,
		create + table.FullName() + ` (
	order_id BIGINT PRIMARY KEY,
	order_date DATE NOT NULL,
	customer_id VARCHAR NOT NULL,
	product_name VARCHAR NOT NULL,
	category VARCHAR NOT NULL,
	region VARCHAR NOT NULL,
	channel VARCHAR NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price DOUBLE NOT NULL,
	revenue DOUBLE NOT NULL
)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return 0, fmt.Errorf("prepare table %s: %w", table.FullName(), err)
		}
	}

	generator := NewGenerator(opts.Seed, opts.Customers, opts.Days)
	generator.now = s.now

	insert := `INSERT INTO ` + table.FullName() + ` (order_id, order_date, customer_id, product_name, category, region, channel, quantity, unit_price, revenue)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	written := 0
	for written < opts.Rows {
		size := min(batchSize, opts.Rows-written)
		if err := s.insertBatch(ctx, insert, generator, size); err != nil {
			return written, fmt.Errorf("insert batch at row %d: %w", written, err)
		}
		written += size
		s.logger.DebugContext(ctx, "seed batch written", "table", table.FullName(), "rows", written)
	}
	s.logger.InfoContext(ctx, "demo table seeded", "table", table.FullName(), "rows", written, "seed", opts.Seed)
	return written, nil
}

func (s *Seeder) insertBatch(ctx context.Context, insert string, generator *Generator, size int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < size; i++ {
		order := generator.NextOrder()
		if _, err := stmt.ExecContext(ctx,
			order.OrderID,
			order.OrderDate,
			order.Customer,
			order.Product,
			order.Category,
			order.Region,
			order.Channel,
			order.Quantity,
			order.UnitPrice,
			order.Revenue,
		); err != nil {
			return fmt.Errorf("insert order %d: %w", order.OrderID, err)
		}
	}
	return tx.Commit()
}
