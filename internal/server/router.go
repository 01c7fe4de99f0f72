package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// requestIDHeader carries the server-assigned request ID back to the client.
const requestIDHeader = "X-Request-Id"

// Router builds the chi mux with all API routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		middleware.Recoverer,
		middleware.Compress(5),
		corsHeaders,
		s.logRequests,
	)

	r.Get("/", s.handleRoot)
	r.Post("/query", s.handleQuery)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/databases", s.handleDatabases)
	r.Get("/tables/{database}", s.handleTables)
	r.Get("/sample/{database}/{table}", s.handleSample)
	r.Get("/schema/{database}/{table}", s.handleSchema)

	return r
}

// corsHeaders allows cross-origin access from any origin and short-circuits
// preflight requests.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestID assigns each request a UUID, exposed via the response header and
// the chi request ID context key.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
