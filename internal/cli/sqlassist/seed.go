package sqlassist

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/demo/seed"
)

func (r *runner) seedCommand() *cobra.Command {
	opts := seed.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the local DuckDB table with generated sales orders",
		Long: `seed creates the configured table inside the SQLASSIST_DUCKDB_PATH database and fills it
with deterministic sales orders. CATALOG_NAME must match the database file name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := r.opts.Config
			if cfg.Warehouse.Driver != config.DriverDuckDB {
				return fmt.Errorf("seed requires SQLASSIST_WAREHOUSE_DRIVER=%s", config.DriverDuckDB)
			}
			if want := seed.CatalogName(cfg.Warehouse.DuckDBPath); cfg.Table.Catalog != want {
				return fmt.Errorf("CATALOG_NAME must be %q for %s", want, cfg.Warehouse.DuckDBPath)
			}

			db, err := r.opts.OpenDB(cmd.Context(), cfg.Warehouse.DuckDBPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			seeder, err := seed.NewSeeder(db, r.opts.Logger)
			if err != nil {
				return err
			}
			written, err := seeder.Seed(cmd.Context(), cfg.Table, opts)
			if err != nil {
				return fmt.Errorf("seed %s: %w", cfg.Table.FullName(), err)
			}
			pterm.Success.WithWriter(cmd.OutOrStdout()).Println(fmt.Sprintf("Seeded %d rows into %s", written, cfg.Table.FullName()))
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Rows, "rows", opts.Rows, "number of orders to generate")
	cmd.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	cmd.Flags().IntVar(&opts.Customers, "customers", opts.Customers, "distinct customer ids")
	cmd.Flags().IntVar(&opts.Days, "days", opts.Days, "trailing days the order dates cover")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "replace the table when it already exists")
	return cmd
}
