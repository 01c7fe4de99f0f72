package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Database string
	Limit    int
	Offset   int
	Format   string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Execute a SELECT query against a survey database",
		Long: `Execute a SQL query against one of the registered databases.

The query passes the same validation as the HTTP API: it must be a
single SELECT statement, and results are capped at the configured row
limit.`,
		Example: `  # Query the default database
  surveygate query "SELECT * FROM surveys"

  # Query a specific database with a limit
  surveygate query "SELECT survey_name, status FROM surveys" --database survey.db --limit 5

  # Output as JSON
  surveygate query "SELECT COUNT(*) AS n FROM responses" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "survey.db", "Database to query")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "Maximum rows to return (0 uses the default)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Rows to skip")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json")

	return cmd
}

func runQuery(cmd *cobra.Command, sqlText string, opts *QueryOptions) error {
	cfg, logger, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	p, registry, err := openPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	env := p.Execute(cmd.Context(), opts.Database, sqlText, opts.Limit, opts.Offset)

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}

	if !env.Success {
		return fmt.Errorf("%s", env.Error)
	}

	renderResultTable(cmd.OutOrStdout(), env.Columns, env.Data)
	return nil
}

// renderResultTable prints rows in a bordered table.
func renderResultTable(w io.Writer, cols []string, rows []map[string]any) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range rows {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

// formatValue renders a cell value for table output.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case float64:
		s := fmt.Sprintf("%g", val)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	default:
		return fmt.Sprintf("%v", val)
	}
}
