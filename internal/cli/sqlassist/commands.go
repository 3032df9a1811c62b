package sqlassist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sqlassist/sqlassist/internal/export"
	"github.com/sqlassist/sqlassist/internal/history"
)

// DefaultExamples are the questions `examples` translates when no file is given.
var DefaultExamples = []string{
	"Show me the top 10 products by quantity",
	"What is the total revenue by region?",
	"Find all orders from the last 30 days",
}

func (r *runner) askCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Generate SQL for a question without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := questionArg(args)
			if err != nil {
				return err
			}
			env, closeEnv, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEnv()

			result, err := env.Session.Query(cmd.Context(), question, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			pterm.Fprintln(out, "Natural Language: "+result.Question)
			pterm.Fprintln(out, "")
			pterm.Fprintln(out, "Generated SQL:")
			pterm.Fprintln(out, result.SQL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result envelope as JSON")
	return cmd
}

func (r *runner) runCommand() *cobra.Command {
	var (
		asJSON   bool
		maxRows  int
		exportAs string
	)
	cmd := &cobra.Command{
		Use:   "run <question>",
		Short: "Generate SQL for a question and run it against the warehouse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := questionArg(args)
			if err != nil {
				return err
			}
			if exportAs != "" && !export.SupportedFormat(exportAs) {
				return fmt.Errorf("unsupported export format %q (use csv or parquet)", exportAs)
			}
			env, closeEnv, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEnv()

			envelope, err := runQuestion(cmd.Context(), env.Session, question, exportAs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, envelope)
			}

			pterm.Fprintln(out, "Generated SQL:")
			pterm.Fprintln(out, envelope.SQL)
			pterm.Fprintln(out, "")
			if !envelope.Succeeded() {
				return fmt.Errorf("error executing query: %s", envelope.Error)
			}
			if err := renderRows(out, envelope, maxRows); err != nil {
				return err
			}
			if envelope.Export != "" {
				pterm.Success.WithWriter(out).Println("Exported results to " + envelope.Export)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result envelope as JSON")
	cmd.Flags().IntVar(&maxRows, "rows", 20, "maximum number of rows to print")
	cmd.Flags().StringVar(&exportAs, "export", "", "upload the results to the object store as csv or parquet")
	return cmd
}

func (r *runner) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the columns of the configured table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, closeEnv, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEnv()

			schema, err := env.Session.SchemaText(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pterm.Fprintln(out, "Table: "+env.Session.Table().FullName())
			pterm.Fprintln(out, schema)
			return nil
		},
	}
}

type examplesFile struct {
	Questions []string `yaml:"questions"`
}

func (r *runner) examplesCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Translate a list of example questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			questions := DefaultExamples
			if file != "" {
				loaded, err := loadExamples(file)
				if err != nil {
					return err
				}
				questions = loaded
			}
			env, closeEnv, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEnv()

			out := cmd.OutOrStdout()
			pterm.Fprintln(out, "Example Queries:")
			for i, question := range questions {
				pterm.Fprintln(out, "")
				pterm.Fprintln(out, fmt.Sprintf("%d. Natural Language: %s", i+1, question))
				result, err := env.Session.Query(cmd.Context(), question, false)
				if err != nil {
					pterm.Fprintln(out, "   Error: "+err.Error())
					continue
				}
				pterm.Fprintln(out, "   SQL Query: "+result.SQL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a questions list")
	return cmd
}

func loadExamples(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read examples file: %w", err)
	}
	var doc examplesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse examples file: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("examples file %s has no questions", path)
	}
	return doc.Questions, nil
}

func (r *runner) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently asked questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, closeEnv, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEnv()
			if env.History == nil {
				return fmt.Errorf("query history is not configured (set SQLASSIST_HISTORY_DSN)")
			}

			entries, err := env.History.List(cmd.Context(), history.ClampLimit(limit))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				pterm.Fprintln(out, "No queries recorded yet.")
				return nil
			}
			data := pterm.TableData{{"created_at", "query_id", "status", "rows", "question"}}
			for _, entry := range entries {
				status := entry.Status
				if !entry.Executed {
					status = "generated"
				}
				data = append(data, []string{
					entry.CreatedAt.Format("2006-01-02 15:04:05"),
					entry.QueryID,
					status,
					fmt.Sprint(entry.RowCount),
					entry.Question,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", history.DefaultListLimit, "number of entries to show")
	return cmd
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
