// Package gate is the single authorization checkpoint between untrusted SQL
// text and store execution. No other code path may hand user-supplied text
// to a backing store.
package gate

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/surveygate/pkg/analyze"
	"github.com/leapstack-labs/surveygate/pkg/parser"
)

// Reason identifies why a statement was rejected. The set is closed and
// stable so callers can assert on it.
type Reason string

// Rejection reasons.
const (
	ReasonSyntaxError        Reason = "syntax_error"
	ReasonNotASelect         Reason = "not_a_select_statement"
	ReasonMultipleStatements Reason = "multiple_statements"
)

// RejectionError reports a rejected statement.
type RejectionError struct {
	Reason Reason
	Detail string // position info for syntax errors, statement kind otherwise
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonSyntaxError:
		return fmt.Sprintf("invalid SQL syntax: %s", e.Detail)
	case ReasonMultipleStatements:
		return "multiple statements are not allowed"
	default:
		return "only SELECT queries are allowed"
	}
}

// Decision is an accepted statement together with its analysis. The AST it
// carries has passed classification; callers may execute it.
type Decision struct {
	Stmt     *parser.SelectStmt
	Analysis *analyze.QueryAnalysis
}

// Authorize parses the input, proves it is a single SELECT statement, and
// returns the accepted AST with its structural analysis. Any failure is a
// *RejectionError; the pipeline reports it, never retries it.
//
// Multi-statement input is rejected outright, regardless of the kind of
// each individual statement: appending "; DROP TABLE x" to a valid SELECT
// must not pass.
func Authorize(sql string) (*Decision, error) {
	stmts, err := parser.ParseStatements(sql)
	if err != nil {
		return nil, &RejectionError{Reason: ReasonSyntaxError, Detail: err.Error()}
	}

	if len(stmts) > 1 {
		return nil, &RejectionError{
			Reason: ReasonMultipleStatements,
			Detail: fmt.Sprintf("%d statements", len(stmts)),
		}
	}

	stmt := stmts[0]
	if kind := parser.Classify(stmt); kind != parser.KindSelect {
		return nil, &RejectionError{Reason: ReasonNotASelect, Detail: string(kind)}
	}

	sel := stmt.(*parser.SelectStmt)
	return &Decision{
		Stmt:     sel,
		Analysis: analyze.Analyze(sel),
	}, nil
}

// RejectionReason extracts the Reason from an Authorize error. ok is false
// when err is not a rejection.
func RejectionReason(err error) (Reason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
