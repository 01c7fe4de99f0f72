package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/surveygate/pkg/parser"
	"github.com/leapstack-labs/surveygate/pkg/token"
)

func mustSelect(t *testing.T, sql string) *parser.SelectStmt {
	t.Helper()
	stmt, err := parser.ParseSelect(sql)
	require.NoError(t, err)
	require.NotNil(t, stmt)
	return stmt
}

func TestParse_SimpleSelect(t *testing.T) {
	stmt := mustSelect(t, "SELECT survey_id, survey_name FROM surveys")

	core := stmt.Body.Left
	require.Len(t, core.Columns, 2)
	assert.Equal(t, &parser.ColumnRef{Column: "survey_id"}, core.Columns[0].Expr)
	assert.Equal(t, &parser.ColumnRef{Column: "survey_name"}, core.Columns[1].Expr)

	name, ok := core.From.Source.(*parser.TableName)
	require.True(t, ok)
	assert.Equal(t, "surveys", name.Name)
}

func TestParse_SelectStar(t *testing.T) {
	stmt := mustSelect(t, "SELECT * FROM surveys")

	core := stmt.Body.Left
	require.Len(t, core.Columns, 1)
	assert.True(t, core.Columns[0].Star)
	assert.Empty(t, core.Columns[0].StarTable)
}

func TestParse_TableStar(t *testing.T) {
	stmt := mustSelect(t, "SELECT s.* FROM surveys s")

	core := stmt.Body.Left
	require.Len(t, core.Columns, 1)
	assert.True(t, core.Columns[0].Star)
	assert.Equal(t, "s", core.Columns[0].StarTable)

	name, ok := core.From.Source.(*parser.TableName)
	require.True(t, ok)
	assert.Equal(t, "s", name.Alias)
}

func TestParse_Aliases(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"explicit AS", "SELECT survey_name AS name FROM surveys"},
		{"bare alias", "SELECT survey_name name FROM surveys"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustSelect(t, tt.sql)
			require.Len(t, stmt.Body.Left.Columns, 1)
			assert.Equal(t, "name", stmt.Body.Left.Columns[0].Alias)
		})
	}
}

func TestParse_Joins(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		typ  parser.JoinType
	}{
		{"implicit inner", "SELECT * FROM a JOIN b ON a.id = b.id", parser.JoinInner},
		{"explicit inner", "SELECT * FROM a INNER JOIN b ON a.id = b.id", parser.JoinInner},
		{"left", "SELECT * FROM a LEFT JOIN b ON a.id = b.id", parser.JoinLeft},
		{"left outer", "SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id", parser.JoinLeft},
		{"right", "SELECT * FROM a RIGHT JOIN b ON a.id = b.id", parser.JoinRight},
		{"full outer", "SELECT * FROM a FULL OUTER JOIN b ON a.id = b.id", parser.JoinFull},
		{"cross", "SELECT * FROM a CROSS JOIN b", parser.JoinCross},
		{"comma", "SELECT * FROM a, b", parser.JoinCross},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustSelect(t, tt.sql)
			joins := stmt.Body.Left.From.Joins
			require.Len(t, joins, 1)
			assert.Equal(t, tt.typ, joins[0].Type)
		})
	}
}

func TestParse_JoinUsing(t *testing.T) {
	stmt := mustSelect(t, "SELECT * FROM responses JOIN surveys USING (survey_id)")

	joins := stmt.Body.Left.From.Joins
	require.Len(t, joins, 1)
	assert.Nil(t, joins[0].On)
	assert.Equal(t, []string{"survey_id"}, joins[0].Using)
}

func TestParse_WhereClause(t *testing.T) {
	stmt := mustSelect(t, "SELECT * FROM surveys WHERE status = 'active' AND survey_id > 1")

	and, ok := stmt.Body.Left.Where.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.AND, and.Op)

	eq, ok := and.Left.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.EQ, eq.Op)

	lit, ok := eq.Right.(*parser.Literal)
	require.True(t, ok)
	assert.Equal(t, parser.LiteralString, lit.Type)
	assert.Equal(t, "active", lit.Value)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	// a OR b AND c parses as a OR (b AND c)
	stmt := mustSelect(t, "SELECT * FROM t WHERE a OR b AND c")

	or, ok := stmt.Body.Left.Where.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.OR, or.Op)

	and, ok := or.Right.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.AND, and.Op)

	// 1 + 2 * 3 parses as 1 + (2 * 3)
	stmt = mustSelect(t, "SELECT 1 + 2 * 3")
	plus, ok := stmt.Body.Left.Columns[0].Expr.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.PLUS, plus.Op)
	mul, ok := plus.Right.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.STAR, mul.Op)
}

func TestParse_GroupByHavingOrderBy(t *testing.T) {
	stmt := mustSelect(t, `SELECT survey_id, COUNT(*) AS n
		FROM responses
		GROUP BY survey_id
		HAVING COUNT(*) > 1
		ORDER BY n DESC, survey_id`)

	core := stmt.Body.Left
	require.Len(t, core.GroupBy, 1)
	require.NotNil(t, core.Having)
	require.Len(t, core.OrderBy, 2)
	assert.True(t, core.OrderBy[0].Desc)
	assert.False(t, core.OrderBy[1].Desc)
}

func TestParse_OrderByNulls(t *testing.T) {
	stmt := mustSelect(t, "SELECT * FROM t ORDER BY a DESC NULLS LAST, b NULLS FIRST")

	core := stmt.Body.Left
	require.Len(t, core.OrderBy, 2)
	assert.Equal(t, parser.NullsLast, core.OrderBy[0].Nulls)
	assert.Equal(t, parser.NullsFirst, core.OrderBy[1].Nulls)
}

func TestParse_LimitOffset(t *testing.T) {
	t.Run("limit offset", func(t *testing.T) {
		core := mustSelect(t, "SELECT * FROM t LIMIT 10 OFFSET 5").Body.Left
		require.NotNil(t, core.Limit)
		require.NotNil(t, core.Offset)
		assert.Equal(t, "10", core.Limit.(*parser.Literal).Value)
		assert.Equal(t, "5", core.Offset.(*parser.Literal).Value)
	})

	t.Run("comma form", func(t *testing.T) {
		// LIMIT offset, limit
		core := mustSelect(t, "SELECT * FROM t LIMIT 5, 10").Body.Left
		require.NotNil(t, core.Limit)
		require.NotNil(t, core.Offset)
		assert.Equal(t, "10", core.Limit.(*parser.Literal).Value)
		assert.Equal(t, "5", core.Offset.(*parser.Literal).Value)
	})
}

func TestParse_SetOperations(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		op   parser.SetOpType
	}{
		{"union", "SELECT a FROM t UNION SELECT a FROM u", parser.SetOpUnion},
		{"union all", "SELECT a FROM t UNION ALL SELECT a FROM u", parser.SetOpUnionAll},
		{"intersect", "SELECT a FROM t INTERSECT SELECT a FROM u", parser.SetOpIntersect},
		{"except", "SELECT a FROM t EXCEPT SELECT a FROM u", parser.SetOpExcept},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := mustSelect(t, tt.sql)
			assert.Equal(t, tt.op, stmt.Body.Op)
			require.NotNil(t, stmt.Body.Right)
		})
	}
}

func TestParse_CTE(t *testing.T) {
	stmt := mustSelect(t, `WITH active AS (
		SELECT * FROM surveys WHERE status = 'active'
	)
	SELECT survey_name FROM active`)

	require.NotNil(t, stmt.With)
	assert.False(t, stmt.With.Recursive)
	require.Len(t, stmt.With.CTEs, 1)
	assert.Equal(t, "active", stmt.With.CTEs[0].Name)
	require.NotNil(t, stmt.With.CTEs[0].Select)
}

func TestParse_RecursiveCTE(t *testing.T) {
	stmt := mustSelect(t, `WITH RECURSIVE nums AS (
		SELECT 1 AS n
		UNION ALL
		SELECT n + 1 FROM nums WHERE n < 10
	)
	SELECT n FROM nums`)

	require.NotNil(t, stmt.With)
	assert.True(t, stmt.With.Recursive)
}

func TestParse_DerivedTable(t *testing.T) {
	stmt := mustSelect(t, "SELECT * FROM (SELECT survey_id FROM responses) AS r")

	derived, ok := stmt.Body.Left.From.Source.(*parser.DerivedTable)
	require.True(t, ok)
	assert.Equal(t, "r", derived.Alias)
	require.NotNil(t, derived.Select)
}

func TestParse_Subqueries(t *testing.T) {
	t.Run("in where", func(t *testing.T) {
		stmt := mustSelect(t, "SELECT * FROM responses WHERE survey_id IN (SELECT survey_id FROM surveys)")
		in, ok := stmt.Body.Left.Where.(*parser.InExpr)
		require.True(t, ok)
		require.NotNil(t, in.Query)
	})

	t.Run("scalar", func(t *testing.T) {
		stmt := mustSelect(t, "SELECT (SELECT COUNT(*) FROM responses) AS n FROM surveys")
		_, ok := stmt.Body.Left.Columns[0].Expr.(*parser.SubqueryExpr)
		require.True(t, ok)
	})

	t.Run("exists", func(t *testing.T) {
		stmt := mustSelect(t, "SELECT * FROM surveys s WHERE EXISTS (SELECT 1 FROM responses r WHERE r.survey_id = s.survey_id)")
		ex, ok := stmt.Body.Left.Where.(*parser.ExistsExpr)
		require.True(t, ok)
		require.NotNil(t, ex.Select)
		assert.False(t, ex.Not)
	})

	t.Run("not exists", func(t *testing.T) {
		stmt := mustSelect(t, "SELECT * FROM surveys s WHERE NOT EXISTS (SELECT 1 FROM responses r WHERE r.survey_id = s.survey_id)")
		ex, ok := stmt.Body.Left.Where.(*parser.ExistsExpr)
		require.True(t, ok)
		require.NotNil(t, ex.Select)
		assert.True(t, ex.Not)
	})
}

func TestParse_Expressions(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"case", "SELECT CASE WHEN x > 0 THEN 'pos' ELSE 'neg' END FROM t"},
		{"case operand", "SELECT CASE status WHEN 'active' THEN 1 ELSE 0 END FROM surveys"},
		{"cast", "SELECT CAST(answer_numeric AS INTEGER) FROM responses"},
		{"cast sized", "SELECT CAST(x AS VARCHAR(10)) FROM t"},
		{"cast multi word type", "SELECT CAST(x AS DOUBLE PRECISION) FROM t"},
		{"between", "SELECT * FROM t WHERE a BETWEEN 1 AND 10"},
		{"not between", "SELECT * FROM t WHERE a NOT BETWEEN 1 AND 10"},
		{"like", "SELECT * FROM t WHERE name LIKE '%survey%'"},
		{"not like", "SELECT * FROM t WHERE name NOT LIKE 'x%'"},
		{"is null", "SELECT * FROM t WHERE a IS NULL"},
		{"is not null", "SELECT * FROM t WHERE a IS NOT NULL"},
		{"in values", "SELECT * FROM t WHERE a IN (1, 2, 3)"},
		{"not in", "SELECT * FROM t WHERE a NOT IN (1, 2)"},
		{"unary minus", "SELECT -1 FROM t"},
		{"not", "SELECT * FROM t WHERE NOT a"},
		{"concat", "SELECT first || ' ' || last FROM t"},
		{"distinct agg", "SELECT COUNT(DISTINCT respondent_id) FROM responses"},
		{"nested funcs", "SELECT ROUND(AVG(answer_numeric), 2) FROM responses"},
		{"parens", "SELECT (1 + 2) * 3 FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustSelect(t, tt.sql)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"missing from table", "SELECT a FROM"},
		{"dangling comma", "SELECT a, FROM t"},
		{"unterminated paren", "SELECT * FROM (SELECT a FROM t"},
		{"bad where", "SELECT * FROM t WHERE"},
		{"trailing garbage", "SELECT a FROM t extra garbage here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseStatements(tt.sql)
			require.Error(t, err)

			var perr *parser.ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestParse_UnterminatedLiterals(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		msg  string
	}{
		{"string", "SELECT * FROM t WHERE name = 'abc", "unterminated string literal"},
		{"ansi identifier", `SELECT "abc FROM t`, "unterminated quoted identifier"},
		{"backtick identifier", "SELECT `abc FROM t", "unterminated quoted identifier"},
		{"bracket identifier", "SELECT [abc FROM t", "unterminated quoted identifier"},
		{"string in other statement", "DROP TABLE 'abc", "unterminated string literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseStatements(tt.sql)
			require.Error(t, err)

			var perr *parser.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Message, tt.msg)
		})
	}
}

func TestParseStatements_Multiple(t *testing.T) {
	stmts, err := parser.ParseStatements("SELECT * FROM surveys; DROP TABLE surveys")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t, parser.KindSelect, parser.Classify(stmts[0]))
	assert.Equal(t, parser.KindDrop, parser.Classify(stmts[1]))
}

func TestParseStatements_TrailingSemicolon(t *testing.T) {
	stmts, err := parser.ParseStatements("SELECT * FROM surveys;")
	require.NoError(t, err)
	assert.Len(t, stmts, 1)
}

func TestParse_RejectsMultiple(t *testing.T) {
	_, err := parser.Parse("SELECT 1; SELECT 2")
	require.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		sql  string
		kind parser.StatementKind
	}{
		{"SELECT * FROM surveys", parser.KindSelect},
		{"WITH x AS (SELECT 1) SELECT * FROM x", parser.KindSelect},
		{"INSERT INTO surveys VALUES (1)", parser.KindInsert},
		{"UPDATE surveys SET status = 'closed'", parser.KindUpdate},
		{"DELETE FROM surveys WHERE survey_id = 1", parser.KindDelete},
		{"CREATE TABLE t (id INTEGER)", parser.KindCreate},
		{"DROP TABLE surveys", parser.KindDrop},
		{"ALTER TABLE surveys ADD COLUMN x TEXT", parser.KindAlter},
		{"EXPLAIN SELECT * FROM surveys", parser.KindOther},
		{"PRAGMA table_info(surveys)", parser.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			stmts, err := parser.ParseStatements(tt.sql)
			require.NoError(t, err)
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.kind, parser.Classify(stmts[0]))
		})
	}
}

func TestParse_OtherStmtCapturesText(t *testing.T) {
	stmts, err := parser.ParseStatements("DROP TABLE surveys")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	other, ok := stmts[0].(*parser.OtherStmt)
	require.True(t, ok)
	assert.Equal(t, "DROP TABLE surveys", other.Text)
}

func TestParseError_IncludesPosition(t *testing.T) {
	_, err := parser.ParseStatements("SELECT a,\nFROM t")
	require.Error(t, err)

	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Pos.Line)
}
