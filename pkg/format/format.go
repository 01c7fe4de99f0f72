package format

import "github.com/leapstack-labs/surveygate/pkg/parser"

// Format renders a parsed statement in canonical style: one top-level clause
// per line, two-space continuation indent, explicit AS for aliases, uppercase
// keywords. Reparsing the output yields a structurally equivalent AST.
//
// Format is total over anything the parser produces. A non-SELECT statement
// renders as its captured raw text.
func Format(stmt parser.Statement) string {
	p := newPrinter()
	switch s := stmt.(type) {
	case *parser.SelectStmt:
		p.formatSelectStmt(s)
	case *parser.OtherStmt:
		p.write(s.Text)
	}
	return p.String()
}

// Select renders a SELECT statement.
func Select(stmt *parser.SelectStmt) string {
	p := newPrinter()
	p.formatSelectStmt(stmt)
	return p.String()
}
