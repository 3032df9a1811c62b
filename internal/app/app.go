// Package app assembles the assistant and its optional history and export
// backends from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sqlassist/sqlassist/internal/assistant"
	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/export"
	"github.com/sqlassist/sqlassist/internal/history"
	historypostgres "github.com/sqlassist/sqlassist/internal/history/postgres"
	"github.com/sqlassist/sqlassist/internal/nl2sql"
	"github.com/sqlassist/sqlassist/internal/observability"
	"github.com/sqlassist/sqlassist/internal/storage"
	s3store "github.com/sqlassist/sqlassist/internal/storage/s3"
	"github.com/sqlassist/sqlassist/internal/warehouse"
)

type Runtime struct {
	Assistant *assistant.Assistant
	// History and Exports are nil when the feature is disabled.
	History       history.Store
	HistoryHealth func(ctx context.Context) error
	Exports       storage.ObjectStore

	closers []func() error
}

// Build wires a Runtime. The LLM credential is checked before the history
// database or object store is contacted, and those are only contacted when
// configured. Extra options are applied after the defaults.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...assistant.Option) (*Runtime, error) {
	logger = observability.Discard(logger)
	rt := &Runtime{}

	generator, err := nl2sql.NewGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}

	options := []assistant.Option{
		assistant.WithGenerator(generator),
		assistant.WithLogger(logger),
		assistant.WithWarehouse(warehouse.New(cfg.Warehouse, warehouse.WithLogger(logger))),
	}

	if cfg.History.Enabled() {
		db, err := historypostgres.Open(ctx, cfg.History)
		if err != nil {
			return nil, fmt.Errorf("open history db: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		store := historypostgres.NewStore(db)
		rt.History = store
		rt.HistoryHealth = store.HealthCheck
		options = append(options, assistant.WithRecorder(store))
	}

	if cfg.Export.Enabled {
		objectStore, err := s3store.New(ctx, cfg.Export.ObjectStore)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("initialize object store: %w", err)
		}
		rt.Exports = objectStore
		options = append(options, assistant.WithExporter(export.New(objectStore, cfg.Export.Format)))
	}

	a, err := assistant.New(cfg, append(options, opts...)...)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Assistant = a
	logger.Info("assistant initialized",
		slog.String("provider", a.Provider()),
		slog.String("model", a.Model()),
		slog.String("table", cfg.Table.FullName()),
		slog.String("warehouse", cfg.Warehouse.Driver),
		slog.Bool("history", rt.History != nil),
		slog.Bool("export", rt.Exports != nil),
	)
	return rt, nil
}

func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
