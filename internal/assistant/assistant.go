// Package assistant wires schema lookup, prompt construction, generation,
// the safety gate and execution into a single question-answering pipeline.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/errs"
	"github.com/sqlassist/sqlassist/internal/history"
	"github.com/sqlassist/sqlassist/internal/nl2sql"
	"github.com/sqlassist/sqlassist/internal/observability"
	"github.com/sqlassist/sqlassist/internal/sqlguard"
	"github.com/sqlassist/sqlassist/internal/storage"
	"github.com/sqlassist/sqlassist/internal/warehouse"
)

// Exporter uploads a result set and returns where it was stored.
type Exporter interface {
	Export(ctx context.Context, queryID string, result warehouse.Result, format string) (storage.ObjectInfo, error)
}

type Assistant struct {
	table     config.Table
	generator nl2sql.Generator
	warehouse warehouse.Warehouse
	recorder  history.Recorder
	exporter  Exporter
	logger    *slog.Logger
	newID     func() string

	mu     sync.Mutex
	schema string
	cached bool
}

type Option func(*Assistant)

func WithGenerator(generator nl2sql.Generator) Option {
	return func(a *Assistant) { a.generator = generator }
}

func WithWarehouse(wh warehouse.Warehouse) Option {
	return func(a *Assistant) { a.warehouse = wh }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) { a.logger = logger }
}

func WithRecorder(recorder history.Recorder) Option {
	return func(a *Assistant) { a.recorder = recorder }
}

func WithExporter(exporter Exporter) Option {
	return func(a *Assistant) { a.exporter = exporter }
}

// New builds an assistant for cfg.Table. Without WithGenerator the provider is
// chosen from cfg.LLM and a missing credential fails here, before any network call.
func New(cfg config.Config, opts ...Option) (*Assistant, error) {
	a := &Assistant{
		table: cfg.Table,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = observability.Discard(a.logger)

	if a.generator == nil {
		generator, err := nl2sql.NewGenerator(cfg.LLM)
		if err != nil {
			return nil, err
		}
		a.generator = generator
	}
	if a.warehouse == nil {
		a.warehouse = warehouse.New(cfg.Warehouse, warehouse.WithLogger(a.logger))
	}
	return a, nil
}

func (a *Assistant) Table() config.Table { return a.table }
func (a *Assistant) Provider() string    { return a.generator.Name() }
func (a *Assistant) Model() string       { return a.generator.Model() }

// SchemaText returns the rendered column list, describing the table on the
// first successful call only.
func (a *Assistant) SchemaText(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached {
		return a.schema, nil
	}

	columns, err := a.warehouse.Describe(ctx, a.table)
	if err != nil {
		return "", err
	}
	a.schema = RenderSchema(columns)
	a.cached = true
	a.logger.InfoContext(ctx, "table schema loaded", "table", a.table.FullName(), "columns", len(columns))
	return a.schema, nil
}

func RenderSchema(columns []warehouse.Column) string {
	lines := make([]string, 0, len(columns))
	for _, column := range columns {
		lines = append(lines, fmt.Sprintf("  - %s: %s", column.Name, column.Type))
	}
	return strings.Join(lines, "\n")
}

// GenerateSQL translates question without validating or executing the result.
func (a *Assistant) GenerateSQL(ctx context.Context, question string) (string, error) {
	schema, err := a.SchemaText(ctx)
	if err != nil {
		return "", err
	}
	prompt := nl2sql.BuildPrompt(question, a.table.FullName(), schema)

	start := time.Now()
	sql, err := a.generator.Generate(ctx, prompt)
	observability.ObserveGeneration(a.generator.Name(), time.Since(start), err)
	if err != nil {
		a.logger.WarnContext(ctx, "sql generation failed", "provider", a.generator.Name(), "err", err)
		return "", err
	}
	a.logger.DebugContext(ctx, "sql generated", "provider", a.generator.Name(), "model", a.generator.Model(), "sql", sql)
	return sql, nil
}

// Query generates SQL for question and, when execute is set, validates and
// runs it. Generation failures are returned as errors; anything that goes
// wrong after generation is reported in the envelope instead.
func (a *Assistant) Query(ctx context.Context, question string, execute bool) (Envelope, error) {
	return a.run(ctx, question, execute, "")
}

// QueryAndExport executes question and exports a successful result. An export
// failure is logged and leaves Export empty.
func (a *Assistant) QueryAndExport(ctx context.Context, question, format string) (Envelope, error) {
	if a.exporter == nil {
		return Envelope{}, errs.New(errs.Configuration, "result export is not configured")
	}
	return a.run(ctx, question, true, format)
}

// Execute validates and runs the SQL of an envelope produced by Query without
// execution, so the statement that runs is the one the caller already saw.
func (a *Assistant) Execute(ctx context.Context, env Envelope) Envelope {
	start := time.Now()
	env.Status, env.Error, env.Columns, env.Results = "", "", nil, nil
	a.execute(ctx, &env)
	a.record(ctx, env, time.Since(start))
	return env
}

func (a *Assistant) run(ctx context.Context, question string, execute bool, exportFormat string) (Envelope, error) {
	start := time.Now()
	sql, err := a.GenerateSQL(ctx, question)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{
		QueryID:  a.newID(),
		Question: question,
		SQL:      sql,
		Provider: a.generator.Name(),
		Model:    a.generator.Model(),
	}
	if execute {
		a.execute(ctx, &env)
	}
	if execute && exportFormat != "" && env.Succeeded() {
		key, err := a.Export(ctx, env, exportFormat)
		if err != nil {
			a.logger.WarnContext(ctx, "query result export failed", "query_id", env.QueryID, "err", err)
		}
		env.Export = key
	}
	a.record(ctx, env, time.Since(start))
	return env, nil
}

func (a *Assistant) execute(ctx context.Context, env *Envelope) {
	validated, err := sqlguard.Validate(env.SQL)
	if err != nil {
		observability.IncrementUnsafeQuery()
		a.logger.WarnContext(ctx, "generated sql rejected", "query_id", env.QueryID, "err", err)
		env.Status, env.Error = StatusError, err.Error()
		return
	}

	result, err := a.warehouse.Query(ctx, validated)
	observability.ObserveExecution(len(result.Rows), err)
	if err != nil {
		a.logger.WarnContext(ctx, "query execution failed", "query_id", env.QueryID, "kind", errs.KindOf(err), "err", err)
		env.Status, env.Error = StatusError, err.Error()
		return
	}
	env.Status = StatusSuccess
	env.Columns = result.Columns
	env.Results = result.Rows
}

// Export uploads the rows of a successful envelope and returns the object key.
func (a *Assistant) Export(ctx context.Context, env Envelope, format string) (string, error) {
	if a.exporter == nil {
		return "", errs.New(errs.Configuration, "result export is not configured")
	}
	if !env.Succeeded() {
		return "", fmt.Errorf("export requires a successfully executed query")
	}
	info, err := a.exporter.Export(ctx, env.QueryID, warehouse.Result{Columns: env.Columns, Rows: env.Results}, format)
	if err != nil {
		return "", fmt.Errorf("export query %s: %w", env.QueryID, err)
	}
	a.logger.InfoContext(ctx, "query result exported", "query_id", env.QueryID, "key", info.Key, "bytes", info.Size)
	return info.Key, nil
}

func (a *Assistant) record(ctx context.Context, env Envelope, elapsed time.Duration) {
	if a.recorder == nil {
		return
	}
	entry := history.Entry{
		QueryID:    env.QueryID,
		Question:   env.Question,
		SQL:        env.SQL,
		Provider:   env.Provider,
		Model:      env.Model,
		Executed:   env.Executed(),
		Status:     env.Status,
		Error:      env.Error,
		RowCount:   len(env.Results),
		ExportKey:  env.Export,
		DurationMs: elapsed.Milliseconds(),
	}
	if err := a.recorder.Record(ctx, entry); err != nil {
		a.logger.ErrorContext(ctx, "record query history failed", "query_id", env.QueryID, "err", err)
	}
}
