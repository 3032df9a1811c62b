package sqlassist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sqlassist/sqlassist/internal/assistant"
)

const previewRows = 5

func (r *runner) interactiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"repl"},
		Short:   "Ask questions in a loop and confirm each query before it runs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			env, closeEnv, err := r.open(cmd.Context())
			if err != nil {
				pterm.Error.WithWriter(out).Println("Error initializing assistant: " + err.Error())
				return err
			}
			defer closeEnv()

			pterm.Fprintln(out, "SQL Assistant")
			pterm.Fprintln(out, strings.Repeat("=", 50))
			pterm.Success.WithWriter(out).Println(fmt.Sprintf("Initialized with %s LLM provider", strings.ToUpper(env.Session.Provider())))
			pterm.Success.WithWriter(out).Println("Connected to table: " + env.Session.Table().FullName())
			pterm.Fprintln(out, "")
			pterm.Fprintln(out, "Interactive Mode (type 'exit' to quit)")
			pterm.Fprintln(out, strings.Repeat("=", 50))

			return repl(cmd.Context(), env.Session, cmd.InOrStdin(), out)
		},
	}
}

func repl(ctx context.Context, session Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		pterm.Fprint(out, "\nEnter your question: ")
		if !scanner.Scan() {
			pterm.Fprintln(out, "")
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "exit", "quit", "q":
			pterm.Fprintln(out, "Goodbye!")
			return nil
		case "":
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		preview, err := session.Query(ctx, question, false)
		if err != nil {
			pterm.Fprintln(out, "\nError: "+err.Error())
			continue
		}
		pterm.Fprintln(out, "\nGenerated SQL:\n"+preview.SQL)

		pterm.Fprint(out, "\nExecute this query? (y/n): ")
		if !scanner.Scan() {
			pterm.Fprintln(out, "")
			return scanner.Err()
		}
		if strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
			continue
		}

		result := session.Execute(ctx, preview)
		if !result.Succeeded() {
			pterm.Fprintln(out, "\nError executing query: "+result.Error)
			continue
		}
		pterm.Fprintln(out, "")
		if err := renderRows(out, result, previewRows); err != nil {
			return err
		}
	}
}

func runQuestion(ctx context.Context, session Session, question, exportAs string) (assistant.Envelope, error) {
	if exportAs != "" {
		return session.QueryAndExport(ctx, question, exportAs)
	}
	return session.Query(ctx, question, true)
}

// renderRows prints the row count and at most limit rows as a table.
func renderRows(out io.Writer, env assistant.Envelope, limit int) error {
	total := len(env.Results)
	pterm.Fprintln(out, fmt.Sprintf("Results: %d rows returned", total))
	if total == 0 {
		return nil
	}
	if limit <= 0 || limit > total {
		limit = total
	}

	data := pterm.TableData{env.Columns}
	for _, row := range env.Results[:limit] {
		cells := make([]string, len(env.Columns))
		for i, column := range env.Columns {
			cells[i] = formatCell(row[column])
		}
		data = append(data, cells)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render(); err != nil {
		return fmt.Errorf("render rows: %w", err)
	}
	if total > limit {
		pterm.Fprintln(out, fmt.Sprintf("... and %d more rows", total-limit))
	}
	return nil
}

func formatCell(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprint(value)
}
