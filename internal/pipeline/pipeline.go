// Package pipeline runs untrusted SQL through the safety gate and, when
// accepted, against a registered survey database, normalizing every outcome
// into a single response envelope.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/surveygate/internal/store"
	"github.com/leapstack-labs/surveygate/pkg/analyze"
	"github.com/leapstack-labs/surveygate/pkg/format"
	"github.com/leapstack-labs/surveygate/pkg/gate"
	"github.com/leapstack-labs/surveygate/pkg/parser"
)

// Default row bounds, enforced server-side regardless of what the caller
// asks for.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Config holds pipeline configuration.
type Config struct {
	Registry     *store.Registry
	Logger       *slog.Logger
	DefaultLimit int
	MaxLimit     int
}

// Pipeline executes the per-request state machine:
// lookup → gate → bound → execute → envelope.
type Pipeline struct {
	registry     *store.Registry
	logger       *slog.Logger
	defaultLimit int
	maxLimit     int
}

// New creates a pipeline. Zero limits fall back to the package defaults.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Pipeline{
		registry:     cfg.Registry,
		logger:       logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Registry exposes the database registry for listing endpoints.
func (p *Pipeline) Registry() *store.Registry {
	return p.registry
}

// Execute runs one query against a named database and returns the response
// envelope. The database is resolved before any parsing cost is spent;
// malformed text against an unknown database reports DatabaseNotFound, not
// a syntax error.
func (p *Pipeline) Execute(ctx context.Context, database, sqlText string, limit, offset int) *Envelope {
	st, ok := p.registry.Lookup(database)
	if !ok {
		return failureEnvelope(sqlText, fmt.Sprintf("database not found: %s", database), nil)
	}

	decision, err := gate.Authorize(sqlText)
	if err != nil {
		p.logger.Info("query rejected", "database", database, "error", err)
		return failureEnvelope(sqlText, err.Error(), nil)
	}

	bounded := p.bound(decision.Stmt, limit, offset)
	rendered := format.Select(bounded)

	result, err := st.Query(ctx, rendered)
	if err != nil {
		p.logger.Info("query failed", "database", database, "error", err)
		return failureEnvelope(sqlText, fmt.Sprintf("database error: %s", err.Error()), decision.Analysis)
	}

	p.logger.Debug("query executed",
		"database", database,
		"rows", result.RowCount(),
		"tables", strings.Join(decision.Analysis.Tables, ","),
	)

	return successEnvelope(sqlText, result.Rows, result.Columns, decision.Analysis)
}

// Analyze parses, classifies, analyzes and formats a query without touching
// any store.
func (p *Pipeline) Analyze(sqlText string) *AnalysisReport {
	report := &AnalysisReport{Query: sqlText}

	stmts, err := parser.ParseStatements(sqlText)
	if err != nil {
		report.Error = (&gate.RejectionError{Reason: gate.ReasonSyntaxError, Detail: err.Error()}).Error()
		return report
	}

	if len(stmts) > 1 {
		report.Error = (&gate.RejectionError{Reason: gate.ReasonMultipleStatements}).Error()
		return report
	}

	stmt := stmts[0]
	report.Analysis = analyze.Analyze(stmt)
	report.IsValidSelect = parser.Classify(stmt) == parser.KindSelect
	report.FormattedQuery = strings.TrimRight(format.Format(stmt), "\n")

	return report
}

// bound wraps an accepted statement in a derived-table SELECT carrying the
// clamped LIMIT/OFFSET. Operating on the AST rather than concatenating text
// keeps the gate the single source of truth for what reaches the store.
func (p *Pipeline) bound(sel *parser.SelectStmt, limit, offset int) *parser.SelectStmt {
	if limit <= 0 {
		limit = p.defaultLimit
	}
	if limit > p.maxLimit {
		limit = p.maxLimit
	}

	core := &parser.SelectCore{
		Columns: []parser.SelectItem{{Star: true}},
		From: &parser.FromClause{
			Source: &parser.DerivedTable{Select: sel, Alias: "q"},
		},
		Limit: numberLiteral(limit),
	}
	if offset > 0 {
		core.Offset = numberLiteral(offset)
	}

	return &parser.SelectStmt{Body: &parser.SelectBody{Left: core}}
}

func numberLiteral(n int) parser.Expr {
	return &parser.Literal{Type: parser.LiteralNumber, Value: fmt.Sprintf("%d", n)}
}
