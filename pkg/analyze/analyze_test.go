package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/surveygate/pkg/analyze"
	"github.com/leapstack-labs/surveygate/pkg/parser"
)

func analyzeSQL(t *testing.T, sql string) *analyze.QueryAnalysis {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	return analyze.Analyze(stmt)
}

func TestAnalyze_SelectStar(t *testing.T) {
	a := analyzeSQL(t, "SELECT * FROM surveys")

	assert.Equal(t, parser.KindSelect, a.QueryType)
	assert.Equal(t, []string{"surveys"}, a.Tables)
	assert.Equal(t, []string{}, a.Columns)
	assert.False(t, a.HasJoins)
	assert.False(t, a.HasAggregations)
	assert.False(t, a.HasSubqueries)
}

func TestAnalyze_JoinWithAggregation(t *testing.T) {
	a := analyzeSQL(t, `SELECT s.survey_name, AVG(r.answer_numeric)
		FROM surveys s JOIN responses r ON s.survey_id = r.survey_id
		GROUP BY s.survey_name`)

	assert.Equal(t, []string{"surveys", "responses"}, a.Tables)
	assert.Equal(t, []string{"survey_name", "answer_numeric", "survey_id"}, a.Columns)
	assert.True(t, a.HasJoins)
	assert.True(t, a.HasAggregations)
	assert.False(t, a.HasSubqueries)
}

func TestAnalyze_Subqueries(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"in where", "SELECT * FROM responses WHERE survey_id IN (SELECT survey_id FROM surveys)"},
		{"derived table", "SELECT * FROM (SELECT survey_id FROM responses) AS r"},
		{"scalar", "SELECT (SELECT COUNT(*) FROM responses) FROM surveys"},
		{"exists", "SELECT * FROM surveys s WHERE EXISTS (SELECT 1 FROM responses r WHERE r.survey_id = s.survey_id)"},
		{"cte body", "WITH x AS (SELECT survey_id FROM responses) SELECT * FROM x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := analyzeSQL(t, tt.sql)
			assert.True(t, a.HasSubqueries)
		})
	}
}

func TestAnalyze_SubqueryTablesCollected(t *testing.T) {
	a := analyzeSQL(t, "SELECT * FROM responses WHERE survey_id IN (SELECT survey_id FROM surveys WHERE status = 'active')")

	assert.Equal(t, []string{"responses", "surveys"}, a.Tables)
	assert.Equal(t, []string{"survey_id", "status"}, a.Columns)
}

func TestAnalyze_DeduplicationCaseInsensitive(t *testing.T) {
	a := analyzeSQL(t, "SELECT Survey_ID, survey_id, SURVEY_ID FROM Surveys, surveys")

	assert.Equal(t, []string{"Surveys"}, a.Tables)
	assert.Equal(t, []string{"Survey_ID"}, a.Columns)
}

func TestAnalyze_Aggregations(t *testing.T) {
	aggs := []string{
		"SELECT COUNT(*) FROM t",
		"SELECT sum(x) FROM t",
		"SELECT Avg(x) FROM t",
		"SELECT MIN(x), MAX(y) FROM t",
		"SELECT GROUP_CONCAT(name) FROM t",
		"SELECT ROUND(AVG(x), 2) FROM t",
	}
	for _, sql := range aggs {
		a := analyzeSQL(t, sql)
		assert.True(t, a.HasAggregations, "expected aggregation in %q", sql)
	}

	nonAggs := []string{
		"SELECT UPPER(name) FROM t",
		"SELECT LENGTH(name), ROUND(x, 2) FROM t",
	}
	for _, sql := range nonAggs {
		a := analyzeSQL(t, sql)
		assert.False(t, a.HasAggregations, "unexpected aggregation in %q", sql)
	}
}

func TestAnalyze_QualifiersDropped(t *testing.T) {
	a := analyzeSQL(t, "SELECT s.survey_name FROM surveys s WHERE s.status = 'active'")

	assert.Equal(t, []string{"survey_name", "status"}, a.Columns)
}

func TestAnalyze_UsingColumns(t *testing.T) {
	a := analyzeSQL(t, "SELECT answer_text FROM responses JOIN surveys USING (survey_id)")

	assert.True(t, a.HasJoins)
	assert.Equal(t, []string{"answer_text", "survey_id"}, a.Columns)
}

func TestAnalyze_SetOperation(t *testing.T) {
	a := analyzeSQL(t, "SELECT a FROM t UNION SELECT b FROM u")

	assert.Equal(t, []string{"t", "u"}, a.Tables)
	assert.Equal(t, []string{"a", "b"}, a.Columns)
	// Both sides of a set operation are at the same nesting level
	assert.False(t, a.HasSubqueries)
}

func TestAnalyze_NonSelect(t *testing.T) {
	stmt, err := parser.Parse("DROP TABLE surveys")
	require.NoError(t, err)

	a := analyze.Analyze(stmt)
	assert.Equal(t, parser.KindDrop, a.QueryType)
	assert.Equal(t, []string{}, a.Tables)
	assert.Equal(t, []string{}, a.Columns)
}

// Analysis is deterministic over the same tree.
func TestAnalyze_Deterministic(t *testing.T) {
	stmt, err := parser.Parse("SELECT a, b FROM t JOIN u ON t.id = u.id WHERE c > 1")
	require.NoError(t, err)

	first := analyze.Analyze(stmt)
	second := analyze.Analyze(stmt)
	assert.Equal(t, first, second)
}
