package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/surveygate/internal/pipeline"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze SQL",
		Short: "Analyze a SQL query without executing it",
		Long: `Parse a SQL query and report its structure.

The query is never executed, so it does not need to reference a
registered database. The report lists referenced tables and columns and
flags joins, aggregations and subqueries.`,
		Example: `  surveygate analyze "SELECT s.survey_name, AVG(r.answer_numeric) FROM surveys s JOIN responses r ON s.survey_id = r.survey_id GROUP BY s.survey_name"

  # Machine-readable output
  surveygate analyze "SELECT * FROM surveys" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			p := pipeline.New(pipeline.Config{Logger: logger})
			report := p.Analyze(args[0])

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			if report.Error != "" {
				return fmt.Errorf("%s", report.Error)
			}

			a := report.Analysis
			fmt.Fprintf(out, "Query type:       %s\n", a.QueryType)
			fmt.Fprintf(out, "Valid SELECT:     %t\n", report.IsValidSelect)
			fmt.Fprintf(out, "Tables:           %s\n", joinOrNone(a.Tables))
			fmt.Fprintf(out, "Columns:          %s\n", joinOrNone(a.Columns))
			fmt.Fprintf(out, "Has joins:        %t\n", a.HasJoins)
			fmt.Fprintf(out, "Has aggregations: %t\n", a.HasAggregations)
			fmt.Fprintf(out, "Has subqueries:   %t\n", a.HasSubqueries)
			if report.FormattedQuery != "" {
				fmt.Fprintf(out, "\n%s\n", report.FormattedQuery)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the report as JSON")

	return cmd
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	out := items[0]
	for _, item := range items[1:] {
		out += ", " + item
	}
	return out
}
