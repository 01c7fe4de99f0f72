package server_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/surveygate/internal/pipeline"
	"github.com/leapstack-labs/surveygate/internal/seed"
	"github.com/leapstack-labs/surveygate/internal/server"
	"github.com/leapstack-labs/surveygate/internal/store"
	_ "modernc.org/sqlite"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	dataDir := t.TempDir()
	path, err := seed.Run(dataDir)
	require.NoError(t, err)

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.DiscardHandler)
	st := store.NewStore("survey.db", db, logger)
	p := pipeline.New(pipeline.Config{
		Registry: store.NewRegistry(logger, st),
		Logger:   logger,
	})

	return server.New(server.Config{Pipeline: p, Logger: logger}).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	return rec, decoded
}

func TestRoot(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Survey Data API Gateway", body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestQueryEndpoint_Success(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/query", map[string]any{
		"query":    "SELECT survey_id, survey_name FROM surveys ORDER BY survey_id",
		"database": "survey.db",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["row_count"])
	assert.Equal(t, []any{"survey_id", "survey_name"}, body["columns"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 3)
	first, ok := data[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Customer Satisfaction Survey", first["survey_name"])

	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SELECT", analysis["query_type"])
}

func TestQueryEndpoint_DefaultDatabase(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/query", map[string]any{
		"query": "SELECT COUNT(*) AS n FROM surveys",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestQueryEndpoint_RejectsUnsafeSQL(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name    string
		query   string
		errPart string
	}{
		{"drop", "DROP TABLE surveys", "only SELECT queries are allowed"},
		{"stacked", "SELECT * FROM surveys; DROP TABLE surveys", "multiple statements"},
		{"broken", "SELECT * FROM surveys WHERE", "invalid SQL syntax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doJSON(t, h, http.MethodPost, "/query", map[string]any{
				"query":    tt.query,
				"database": "survey.db",
			})

			// Rejections are a normal envelope outcome, not an HTTP error.
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, false, body["success"])
			errMsg, _ := body["error"].(string)
			assert.Contains(t, errMsg, tt.errPart)
			assert.Nil(t, body["row_count"])
			assert.Nil(t, body["data"])
		})
	}
}

func TestQueryEndpoint_UnknownDatabase(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/query", map[string]any{
		"query":    "SELECT * FROM surveys",
		"database": "missing.db",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "database not found: missing.db", body["error"])
}

func TestQueryEndpoint_BadBody(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodPost, "/analyze", map[string]any{
		"query": "SELECT s.survey_name, AVG(r.answer_numeric) FROM surveys s JOIN responses r ON s.survey_id = r.survey_id GROUP BY s.survey_name",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_valid_select"])
	assert.NotEmpty(t, body["formatted_query"])

	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"surveys", "responses"}, analysis["tables"])
	assert.Equal(t, true, analysis["has_joins"])
	assert.Equal(t, true, analysis["has_aggregations"])
}

func TestDatabasesEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/databases", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"survey.db"}, body["databases"])
}

func TestTablesEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/tables/survey.db", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "survey.db", body["database"])

	tables, ok := body["tables"].([]any)
	require.True(t, ok)
	require.Len(t, tables, 4)

	first, ok := tables[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "demographics", first["name"])
	assert.EqualValues(t, 4, first["row_count"])
}

func TestTablesEndpoint_UnknownDatabase(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/tables/missing.db", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["detail"], "not found")
}

func TestSampleEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/sample/survey.db/responses?limit=2", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["row_count"])
}

func TestSampleEndpoint_BadLimit(t *testing.T) {
	h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/sample/survey.db/responses?limit=abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSampleEndpoint_UnknownTable(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/sample/survey.db/missing", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	errMsg, _ := body["error"].(string)
	assert.Contains(t, errMsg, "no such table")
}

func TestSchemaEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/schema/survey.db/questions", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "questions", body["table"])

	cols, ok := body["columns"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, cols)

	fks, ok := body["foreign_keys"].([]any)
	require.True(t, ok)
	require.Len(t, fks, 1)
	fk, ok := fks[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "surveys", fk["table"])
}

func TestSchemaEndpoint_UnknownTable(t *testing.T) {
	h := newTestServer(t)

	rec, body := doJSON(t, h, http.MethodGet, "/schema/survey.db/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["detail"], "no such table")
}
