package sqlassist

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"

	"github.com/sqlassist/sqlassist/internal/assistant"
	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/history"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

type fakeSession struct {
	sql      string
	genErr   error
	result   assistant.Envelope
	provider string

	questions []string
	executed  int
	exported  string
}

func (f *fakeSession) Table() config.Table {
	return config.Table{Catalog: "main", Schema: "default", Name: "sales"}
}

func (f *fakeSession) Provider() string {
	if f.provider == "" {
		return "openai"
	}
	return f.provider
}

func (f *fakeSession) Model() string { return "gpt-4" }

func (f *fakeSession) SchemaText(context.Context) (string, error) {
	return "  - product: string\n  - quantity: int", nil
}

func (f *fakeSession) Query(_ context.Context, question string, execute bool) (assistant.Envelope, error) {
	f.questions = append(f.questions, question)
	if f.genErr != nil {
		return assistant.Envelope{}, f.genErr
	}
	env := assistant.Envelope{QueryID: "q-1", Question: question, SQL: f.sql}
	if execute {
		return f.Execute(context.Background(), env), nil
	}
	return env, nil
}

func (f *fakeSession) Execute(_ context.Context, env assistant.Envelope) assistant.Envelope {
	f.executed++
	env.Status = f.result.Status
	env.Error = f.result.Error
	env.Columns = f.result.Columns
	env.Results = f.result.Results
	return env
}

func (f *fakeSession) QueryAndExport(ctx context.Context, question, format string) (assistant.Envelope, error) {
	f.exported = format
	env, err := f.Query(ctx, question, true)
	env.Export = "exports/date=2026-10-17/q-1." + format
	return env, err
}

type fakeHistory struct {
	entries []history.Entry
}

func (f *fakeHistory) Record(context.Context, history.Entry) error { return nil }
func (f *fakeHistory) List(context.Context, int) ([]history.Entry, error) {
	return f.entries, nil
}
func (f *fakeHistory) Get(context.Context, string) (history.Entry, error) {
	return history.Entry{}, history.ErrNotFound
}

func successResult(rows int) assistant.Envelope {
	env := assistant.Envelope{Status: assistant.StatusSuccess, Columns: []string{"product", "quantity"}}
	for i := 0; i < rows; i++ {
		env.Results = append(env.Results, map[string]any{"product": "p" + string(rune('a'+i)), "quantity": int64(i)})
	}
	return env
}

func execute(t *testing.T, session *fakeSession, store history.Store, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	root := NewRootCommand(Options{
		Open: func(_ context.Context, cfg config.Config) (*Env, error) {
			if cfg.LLM.Provider != "" {
				session.provider = cfg.LLM.Provider
			}
			return &Env{Session: session, History: store}, nil
		},
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
	})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestAskPrintsSQL(t *testing.T) {
	session := &fakeSession{sql: "SELECT product FROM main.default.sales LIMIT 10"}

	out, err := execute(t, session, nil, "", "ask", "Show", "me", "the", "top", "10", "products")
	if err != nil {
		t.Fatalf("ask error = %v", err)
	}
	if !strings.Contains(out, "SELECT product FROM main.default.sales LIMIT 10") {
		t.Fatalf("output = %q", out)
	}
	if session.questions[0] != "Show me the top 10 products" {
		t.Fatalf("question = %q", session.questions[0])
	}
	if session.executed != 0 {
		t.Fatal("ask must not execute")
	}
}

func TestAskProviderOverride(t *testing.T) {
	session := &fakeSession{sql: "SELECT 1"}

	if _, err := execute(t, session, nil, "", "--provider", "Gemini", "ask", "q"); err != nil {
		t.Fatalf("ask error = %v", err)
	}
	if session.provider != "gemini" {
		t.Fatalf("provider = %q", session.provider)
	}
}

func TestAskPropagatesGenerationError(t *testing.T) {
	session := &fakeSession{genErr: errors.New("openai: rate limit exceeded, try again later")}

	_, err := execute(t, session, nil, "", "ask", "q")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("ask error = %v", err)
	}
}

func TestRunRendersRows(t *testing.T) {
	session := &fakeSession{sql: "SELECT product, quantity FROM main.default.sales", result: successResult(3)}

	out, err := execute(t, session, nil, "", "run", "--rows", "2", "top products")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	for _, want := range []string{"Results: 3 rows returned", "pa", "pb", "... and 1 more rows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "pc") {
		t.Fatalf("third row should be hidden:\n%s", out)
	}
}

func TestRunReportsExecutionError(t *testing.T) {
	session := &fakeSession{sql: "SELECT 1", result: assistant.Envelope{Status: assistant.StatusError, Error: "connection refused"}}

	_, err := execute(t, session, nil, "", "run", "q")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("run error = %v", err)
	}
}

func TestRunExport(t *testing.T) {
	session := &fakeSession{sql: "SELECT 1", result: successResult(1)}

	out, err := execute(t, session, nil, "", "run", "--export", "parquet", "q")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if session.exported != "parquet" || !strings.Contains(out, "q-1.parquet") {
		t.Fatalf("export=%q output=%s", session.exported, out)
	}

	if _, err := execute(t, session, nil, "", "run", "--export", "xlsx", "q"); err == nil {
		t.Fatal("expected unsupported export format error")
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, &fakeSession{}, nil, "", "schema")
	if err != nil {
		t.Fatalf("schema error = %v", err)
	}
	if !strings.Contains(out, "main.default.sales") || !strings.Contains(out, "  - quantity: int") {
		t.Fatalf("output = %q", out)
	}
}

func TestExamplesDefaultAndFile(t *testing.T) {
	session := &fakeSession{sql: "SELECT 1"}
	out, err := execute(t, session, nil, "", "examples")
	if err != nil {
		t.Fatalf("examples error = %v", err)
	}
	if len(session.questions) != len(DefaultExamples) || !strings.Contains(out, "1. Natural Language: "+DefaultExamples[0]) {
		t.Fatalf("questions=%v output=%s", session.questions, out)
	}

	path := filepath.Join(t.TempDir(), "questions.yaml")
	content := "questions:\n  - Count the number of unique categories\n  - What is the average value by category?\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write examples: %v", err)
	}
	session = &fakeSession{sql: "SELECT COUNT(DISTINCT category) FROM main.default.sales"}
	out, err = execute(t, session, nil, "", "examples", "--file", path)
	if err != nil {
		t.Fatalf("examples --file error = %v", err)
	}
	if len(session.questions) != 2 || !strings.Contains(out, "2. Natural Language: What is the average value by category?") {
		t.Fatalf("questions=%v output=%s", session.questions, out)
	}
}

func TestExamplesFileWithoutQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("questions: []\n"), 0o600); err != nil {
		t.Fatalf("write examples: %v", err)
	}
	if _, err := execute(t, &fakeSession{}, nil, "", "examples", "--file", path); err == nil {
		t.Fatal("expected error for empty examples file")
	}
}

func TestInteractiveConfirmsBeforeExecuting(t *testing.T) {
	session := &fakeSession{sql: "SELECT product FROM main.default.sales", result: successResult(7)}
	stdin := strings.Join([]string{
		"",
		"top products",
		"n",
		"top products",
		"y",
		"quit",
	}, "\n") + "\n"

	out, err := execute(t, session, nil, stdin, "interactive")
	if err != nil {
		t.Fatalf("interactive error = %v", err)
	}
	if len(session.questions) != 2 {
		t.Fatalf("generated %d times, want 2", len(session.questions))
	}
	if session.executed != 1 {
		t.Fatalf("executed %d times, want 1", session.executed)
	}
	for _, want := range []string{
		"Initialized with OPENAI LLM provider",
		"Connected to table: main.default.sales",
		"Execute this query? (y/n)",
		"Results: 7 rows returned",
		"... and 2 more rows",
		"Goodbye!",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInteractiveSurvivesErrorsAndEOF(t *testing.T) {
	session := &fakeSession{genErr: errors.New("gemini: API error")}

	out, err := execute(t, session, nil, "first\nsecond\n", "interactive")
	if err != nil {
		t.Fatalf("interactive error = %v", err)
	}
	if strings.Count(out, "Error: gemini: API error") != 2 {
		t.Fatalf("output = %s", out)
	}
}

func TestHistoryCommand(t *testing.T) {
	store := &fakeHistory{entries: []history.Entry{{
		QueryID:   "q-9",
		Question:  "top products",
		Executed:  true,
		Status:    "success",
		RowCount:  10,
		CreatedAt: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
	}}}

	out, err := execute(t, &fakeSession{}, store, "", "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "q-9") || !strings.Contains(out, "2026-10-17 09:30:00") {
		t.Fatalf("output = %s", out)
	}

	if _, err := execute(t, &fakeSession{}, nil, "", "history"); err == nil {
		t.Fatal("expected error without history store")
	}
}

func TestRenderRowsNullAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := renderRows(&buf, assistant.Envelope{Status: assistant.StatusSuccess}, 5); err != nil {
		t.Fatalf("renderRows() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Results: 0 rows returned") {
		t.Fatalf("output = %q", buf.String())
	}
	if formatCell(nil) != "NULL" {
		t.Fatalf("formatCell(nil) = %q", formatCell(nil))
	}
}
