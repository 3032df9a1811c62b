package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqlassist/sqlassist/internal/config"
)

// duckDBDialect serves a local database file. Its catalog is the file's base
// name and its default schema is main.
type duckDBDialect struct{}

func (duckDBDialect) name() string { return config.DriverDuckDB }

func (duckDBDialect) describe(table config.Table) string {
	return "DESCRIBE " + table.FullName()
}

func (duckDBDialect) incompleteMessage() string {
	return "DuckDB configuration incomplete. Set SQLASSIST_DUCKDB_PATH."
}

func openDuckDB(cfg config.WarehouseConfig) Opener {
	return func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("duckdb", cfg.DuckDBPath)
		if err != nil {
			return nil, fmt.Errorf("open duckdb: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping duckdb: %w", err)
		}
		return db, nil
	}
}
