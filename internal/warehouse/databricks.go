package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dbsql "github.com/databricks/databricks-sql-go"

	"github.com/sqlassist/sqlassist/internal/config"
)

type databricksDialect struct{}

func (databricksDialect) name() string { return config.DriverDatabricks }

func (databricksDialect) describe(table config.Table) string {
	return "DESCRIBE TABLE " + table.FullName()
}

func (databricksDialect) incompleteMessage() string {
	return "Databricks configuration incomplete. Check environment variables."
}

func openDatabricks(cfg config.WarehouseConfig) Opener {
	return func(context.Context) (*sql.DB, error) {
		connector, err := dbsql.NewConnector(
			dbsql.WithServerHostname(normalizeHost(cfg.Host)),
			dbsql.WithPort(443),
			dbsql.WithHTTPPath(cfg.HTTPPath),
			dbsql.WithAccessToken(cfg.Token),
			dbsql.WithUserAgentEntry("sqlassist"),
		)
		if err != nil {
			return nil, fmt.Errorf("build databricks connector: %w", err)
		}
		return sql.OpenDB(connector), nil
	}
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	return strings.TrimRight(host, "/")
}
