// Package analyze extracts structural metadata from parsed SQL statements.
package analyze

import (
	"strings"

	"github.com/leapstack-labs/surveygate/pkg/parser"
)

// aggregateFunctions is the set of function names that count as aggregations.
// Lowercase; lookups fold case.
var aggregateFunctions = map[string]struct{}{
	"count":        {},
	"sum":          {},
	"avg":          {},
	"min":          {},
	"max":          {},
	"total":        {},
	"group_concat": {},
}

// QueryAnalysis holds the structural metadata of a single statement.
// It is a pure function of the AST: analyzing the same tree twice yields
// identical results.
type QueryAnalysis struct {
	QueryType       parser.StatementKind `json:"query_type"`
	Tables          []string             `json:"tables"`
	Columns         []string             `json:"columns"`
	HasJoins        bool                 `json:"has_joins"`
	HasAggregations bool                 `json:"has_aggregations"`
	HasSubqueries   bool                 `json:"has_subqueries"`
}

// Analyze walks the statement once, depth-first, and collects referenced
// tables, referenced column names (unqualified), and join/aggregation/
// subquery flags.
//
// Tables and columns keep first-occurrence order with case-insensitive
// deduplication, preserving the first-seen spelling. SELECT * contributes
// no column; SELECT 1 contributes no table. Nested SELECTs at any depth
// (derived tables, IN (SELECT ...), scalar subqueries, EXISTS, CTE bodies)
// set HasSubqueries.
func Analyze(stmt parser.Statement) *QueryAnalysis {
	w := &walker{
		analysis: &QueryAnalysis{
			QueryType: parser.Classify(stmt),
			Tables:    []string{},
			Columns:   []string{},
		},
		seenTables:  make(map[string]struct{}),
		seenColumns: make(map[string]struct{}),
	}

	if sel, ok := stmt.(*parser.SelectStmt); ok {
		w.walkSelect(sel, true)
	}

	return w.analysis
}

type walker struct {
	analysis    *QueryAnalysis
	seenTables  map[string]struct{}
	seenColumns map[string]struct{}
}

func (w *walker) addTable(name string) {
	if name == "" {
		return
	}
	key := strings.ToLower(name)
	if _, ok := w.seenTables[key]; ok {
		return
	}
	w.seenTables[key] = struct{}{}
	w.analysis.Tables = append(w.analysis.Tables, name)
}

func (w *walker) addColumn(name string) {
	if name == "" {
		return
	}
	key := strings.ToLower(name)
	if _, ok := w.seenColumns[key]; ok {
		return
	}
	w.seenColumns[key] = struct{}{}
	w.analysis.Columns = append(w.analysis.Columns, name)
}

// walkSelect walks a SELECT statement. top marks the statement the caller
// passed to Analyze; every other SELECT encountered is a subquery.
func (w *walker) walkSelect(stmt *parser.SelectStmt, top bool) {
	if stmt == nil {
		return
	}
	if !top {
		w.analysis.HasSubqueries = true
	}

	if stmt.With != nil {
		for _, cte := range stmt.With.CTEs {
			w.walkSelect(cte.Select, false)
		}
	}

	w.walkBody(stmt.Body)
}

func (w *walker) walkBody(body *parser.SelectBody) {
	if body == nil {
		return
	}
	w.walkCore(body.Left)
	w.walkBody(body.Right)
}

func (w *walker) walkCore(core *parser.SelectCore) {
	if core == nil {
		return
	}

	for _, item := range core.Columns {
		// A star item is not a column reference
		w.walkExpr(item.Expr)
	}

	if core.From != nil {
		w.walkTableRef(core.From.Source)
		for _, join := range core.From.Joins {
			w.analysis.HasJoins = true
			w.walkTableRef(join.Right)
			w.walkExpr(join.On)
			for _, col := range join.Using {
				w.addColumn(col)
			}
		}
	}

	w.walkExpr(core.Where)
	for _, e := range core.GroupBy {
		w.walkExpr(e)
	}
	w.walkExpr(core.Having)
	for _, item := range core.OrderBy {
		w.walkExpr(item.Expr)
	}
	w.walkExpr(core.Limit)
	w.walkExpr(core.Offset)
}

func (w *walker) walkTableRef(ref parser.TableRef) {
	switch t := ref.(type) {
	case *parser.TableName:
		w.addTable(t.Name)
	case *parser.DerivedTable:
		w.walkSelect(t.Select, false)
	}
}

func (w *walker) walkExpr(e parser.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *parser.ColumnRef:
		// Qualifier dropped: the analysis reports bare column names
		w.addColumn(expr.Column)
	case *parser.Literal:
		// no references
	case *parser.BinaryExpr:
		w.walkExpr(expr.Left)
		w.walkExpr(expr.Right)
	case *parser.UnaryExpr:
		w.walkExpr(expr.Expr)
	case *parser.FuncCall:
		if _, ok := aggregateFunctions[strings.ToLower(expr.Name)]; ok {
			w.analysis.HasAggregations = true
		}
		for _, arg := range expr.Args {
			w.walkExpr(arg)
		}
	case *parser.CaseExpr:
		w.walkExpr(expr.Operand)
		for _, when := range expr.Whens {
			w.walkExpr(when.Condition)
			w.walkExpr(when.Result)
		}
		w.walkExpr(expr.Else)
	case *parser.CastExpr:
		w.walkExpr(expr.Expr)
	case *parser.InExpr:
		w.walkExpr(expr.Expr)
		for _, v := range expr.Values {
			w.walkExpr(v)
		}
		w.walkSelect(expr.Query, false)
	case *parser.BetweenExpr:
		w.walkExpr(expr.Expr)
		w.walkExpr(expr.Low)
		w.walkExpr(expr.High)
	case *parser.IsNullExpr:
		w.walkExpr(expr.Expr)
	case *parser.LikeExpr:
		w.walkExpr(expr.Expr)
		w.walkExpr(expr.Pattern)
	case *parser.ParenExpr:
		w.walkExpr(expr.Expr)
	case *parser.SubqueryExpr:
		w.walkSelect(expr.Select, false)
	case *parser.ExistsExpr:
		w.walkSelect(expr.Select, false)
	}
}
