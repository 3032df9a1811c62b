// Package sqlassist implements the sqlassist command line: local commands that
// run the assistant in-process and remote commands that call the HTTP API.
package sqlassist

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqlassist/sqlassist/internal/app"
	"github.com/sqlassist/sqlassist/internal/assistant"
	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/demo/seed"
	"github.com/sqlassist/sqlassist/internal/history"
)

// Session is the assistant surface the local commands drive.
type Session interface {
	Table() config.Table
	Provider() string
	Model() string
	SchemaText(ctx context.Context) (string, error)
	Query(ctx context.Context, question string, execute bool) (assistant.Envelope, error)
	Execute(ctx context.Context, env assistant.Envelope) assistant.Envelope
	QueryAndExport(ctx context.Context, question, format string) (assistant.Envelope, error)
}

// Env is an opened session plus the optional history store.
type Env struct {
	Session Session
	History history.Store
	Close   func() error
}

type Opener func(ctx context.Context, cfg config.Config) (*Env, error)

// DatabaseOpener opens the local DuckDB file the seed command writes to.
type DatabaseOpener func(ctx context.Context, path string) (*sql.DB, error)

type Options struct {
	Config     config.Config
	Logger     *slog.Logger
	Open       Opener
	OpenDB     DatabaseOpener
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	HTTPClient *http.Client
	APIURL     string
	APIKey     string
}

// OpenRuntime opens a session backed by app.Build.
func OpenRuntime(logger *slog.Logger) Opener {
	return func(ctx context.Context, cfg config.Config) (*Env, error) {
		rt, err := app.Build(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Env{Session: rt.Assistant, History: rt.History, Close: rt.Close}, nil
	}
}

type runner struct {
	opts     Options
	provider string
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Open == nil {
		opts.Open = OpenRuntime(opts.Logger)
	}
	if opts.OpenDB == nil {
		opts.OpenDB = seed.OpenDuckDB
	}
	r := &runner{opts: opts}

	root := &cobra.Command{
		Use:           "sqlassist",
		Short:         "Ask questions about a warehouse table in plain language",
		Long:          `sqlassist translates natural-language questions into SELECT statements for one configured table and can run them against the warehouse.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.PersistentFlags().StringVar(&r.provider, "provider", "", "LLM provider to use (openai|gemini), overrides LLM_PROVIDER")

	root.AddCommand(
		r.askCommand(),
		r.runCommand(),
		r.schemaCommand(),
		r.examplesCommand(),
		r.interactiveCommand(),
		r.historyCommand(),
		r.seedCommand(),
		newRemoteCommand(opts),
	)
	return root
}

// open applies command-line overrides and opens a session. The caller must
// invoke the returned close function.
func (r *runner) open(ctx context.Context) (*Env, func(), error) {
	cfg := r.opts.Config
	if provider := strings.TrimSpace(r.provider); provider != "" {
		cfg.LLM.Provider = strings.ToLower(provider)
	}
	env, err := r.opts.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize assistant: %w", err)
	}
	return env, func() {
		if env.Close != nil {
			_ = env.Close()
		}
	}, nil
}

func questionArg(args []string) (string, error) {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return "", fmt.Errorf("a question is required")
	}
	return question, nil
}
