package warehouse

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/sqlguard"
)

func TestDuckDBDescribeAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.duckdb")
	seedDuckDB(t, path,
		`CREATE TABLE products (product_id INTEGER, name VARCHAR, quantity INTEGER)`,
		`INSERT INTO products VALUES (1, 'bolt', 40), (2, 'nut', 90), (3, 'washer', 15)`,
	)

	client := New(config.WarehouseConfig{Driver: config.DriverDuckDB, DuckDBPath: path})
	table := config.Table{Catalog: "warehouse", Schema: "main", Name: "products"}

	columns, err := client.Describe(context.Background(), table)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if len(columns) != 3 || columns[0] != (Column{"product_id", "INTEGER"}) || columns[1] != (Column{"name", "VARCHAR"}) {
		t.Fatalf("columns = %#v", columns)
	}

	result, err := client.Query(context.Background(), sqlguard.MustValidate(
		"SELECT name, quantity FROM warehouse.main.products ORDER BY quantity DESC LIMIT 2"))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if result.Rows[0]["name"] != "nut" || result.Rows[0]["quantity"] != int32(90) {
		t.Fatalf("row[0] = %#v", result.Rows[0])
	}
	if client.Driver() != "duckdb" {
		t.Fatalf("Driver() = %q", client.Driver())
	}
}

func seedDuckDB(t *testing.T, path string, statements ...string) {
	t.Helper()
	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			t.Fatalf("exec %q: %v", statement, err)
		}
	}
}
