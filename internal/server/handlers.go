package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapstack-labs/surveygate/internal/store"
)

// queryRequest is the body of POST /query and POST /analyze.
type queryRequest struct {
	Query    string `json:"query"`
	Database string `json:"database"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// errorResponse is the body of non-envelope error replies.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Survey Data API Gateway",
		"version":     "1.0.0",
		"description": "REST API gateway with SQL parsing, analysis and safe execution",
		"endpoints": map[string]string{
			"/query":                      "POST - Execute SQL queries with analysis",
			"/analyze":                    "POST - Analyze SQL queries without execution",
			"/databases":                  "GET - List available databases",
			"/tables/{database}":          "GET - List tables in a database",
			"/sample/{database}/{table}":  "GET - Get sample data from a table",
			"/schema/{database}/{table}":  "GET - Get table schema information",
		},
		"features": []string{
			"SQL query parsing and validation",
			"Query analysis (tables, columns, joins, aggregations)",
			"Query formatting and prettification",
			"Security: only SELECT queries allowed",
			"JSON response format for all results",
		},
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Database == "" {
		req.Database = "survey.db"
	}

	env := s.pipeline.Execute(r.Context(), req.Database, req.Query, req.Limit, req.Offset)
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, s.pipeline.Analyze(req.Query))
}

func (s *Server) handleDatabases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"databases": s.pipeline.Registry().List(),
	})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupStore(w, r)
	if !ok {
		return
	}

	tables, err := st.Tables(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Detail: fmt.Sprintf("Error accessing database: %s", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"database": st.Name(),
		"tables":   tables,
	})
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	database := chi.URLParam(r, "database")
	table := chi.URLParam(r, "table")

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "limit must be an integer"})
			return
		}
		limit = n
	}

	// Routed through the pipeline so the table name passes the same parser
	// and gate as client-supplied SQL.
	sqlText := fmt.Sprintf("SELECT * FROM %s", quoteIdent(table))
	env := s.pipeline.Execute(r.Context(), database, sqlText, limit, 0)
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupStore(w, r)
	if !ok {
		return
	}
	table := chi.URLParam(r, "table")

	schema, err := st.Schema(r.Context(), table)
	if err != nil {
		var notFound *store.TableNotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Detail: fmt.Sprintf("Error fetching schema: %s", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, schema)
}

// lookupStore resolves the {database} URL parameter, writing a 404 when the
// database is not registered.
func (s *Server) lookupStore(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	name := chi.URLParam(r, "database")
	st, ok := s.pipeline.Registry().Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Detail: fmt.Sprintf("Database %s not found", name),
		})
		return nil, false
	}
	return st, true
}

// decodeBody parses the JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Detail: fmt.Sprintf("invalid request body: %s", err),
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// quoteIdent quotes a table name for interpolation into the sample query.
func quoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}
		quoted = append(quoted, name[i])
	}
	return string(append(quoted, '"'))
}

// logRequests logs one line per request with the assigned request ID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
