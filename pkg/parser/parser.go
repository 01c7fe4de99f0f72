// Package parser provides SQL parsing for the SQLite dialect.
//
// # Usage
//
//	stmts, err := parser.ParseStatements("SELECT a, b FROM t")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the SELECT subset
// of SQLite SQL:
//
//	input         → statement (";" statement)* [";"]
//	statement     → select_stmt | other_stmt
//	select_stmt   → [WITH [RECURSIVE] cte_list] select_body
//	select_body   → select_core [(UNION [ALL]|INTERSECT|EXCEPT) select_body]
//	select_core   → SELECT [DISTINCT] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr [OFFSET expr]]
//
// Non-SELECT statements (other_stmt) are recognized by their leading keyword
// and captured as raw text with a statement kind; see OtherStmt.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/surveygate/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	input  string
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	peek2  token.Token // second lookahead token
	errors []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{
		input: sql,
		lexer: NewLexer(sql),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// ParseStatements parses the input as a sequence of semicolon-separated
// statements. Empty statements (stray semicolons) are skipped. Input with
// no statement at all is an error.
func ParseStatements(sql string) ([]Statement, error) {
	p := NewParser(sql)
	stmts := p.parseInput()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if len(stmts) == 0 {
		return nil, &ParseError{Message: ErrEmptyStatement}
	}
	return stmts, nil
}

// Parse parses the input as exactly one statement.
func Parse(sql string) (Statement, error) {
	stmts, err := ParseStatements(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, &ParseError{Message: fmt.Sprintf("expected a single statement, got %d", len(stmts))}
	}
	return stmts[0], nil
}

// ParseSelect parses the input as exactly one SELECT statement.
func ParseSelect(sql string) (*SelectStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("expected a SELECT statement, got %s", Classify(stmt))}
	}
	return sel, nil
}

// parseInput parses the full token stream into a statement list.
func (p *Parser) parseInput() []Statement {
	var stmts []Statement
	for {
		for p.check(token.SEMI) {
			p.nextToken()
		}
		if p.check(token.EOF) {
			break
		}

		switch p.token.Type {
		case token.SELECT, token.WITH:
			stmt := p.parseSelectStmt()
			stmts = append(stmts, stmt)
			if !p.check(token.SEMI) && !p.check(token.EOF) {
				p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "; or end of input"))
				return stmts
			}
		default:
			stmts = append(stmts, p.parseOtherStmt())
		}

		if len(p.errors) > 0 {
			return stmts
		}
	}
	return stmts
}

// parseOtherStmt captures a non-SELECT statement: its kind from the leading
// keyword, its text up to the next top-level semicolon.
func (p *Parser) parseOtherStmt() *OtherStmt {
	kind := leadingKind(p.token.Type)
	start := p.token.Pos.Offset

	end := len(p.input)
	for !p.check(token.SEMI) && !p.check(token.EOF) {
		if p.check(token.ILLEGAL) {
			p.addError(illegalTokenMessage(p.token))
			return &OtherStmt{Kind: kind}
		}
		p.nextToken()
	}
	if p.check(token.SEMI) {
		end = p.token.Pos.Offset
	}

	return &OtherStmt{
		Kind: kind,
		Text: strings.TrimSpace(p.input[start:end]),
	}
}

// leadingKind maps a statement's first token to its kind.
func leadingKind(t token.Type) StatementKind {
	switch t {
	case token.INSERT:
		return KindInsert
	case token.UPDATE:
		return KindUpdate
	case token.DELETE:
		return KindDelete
	case token.CREATE:
		return KindCreate
	case token.DROP:
		return KindDrop
	case token.ALTER:
		return KindAlter
	default:
		return KindOther
	}
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.Type) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.Type) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.Type) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, t))
	return false
}

// addError adds a parse error at the current token position.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// identLike returns true if the current token can serve as an identifier:
// a plain IDENT or a non-reserved keyword used as a name.
func (p *Parser) identLike() bool {
	if p.check(token.IDENT) {
		return true
	}
	// Soft keywords usable as identifiers in practice
	switch p.token.Type {
	case token.FIRST, token.LAST, token.TABLE, token.SET, token.VALUES:
		return true
	}
	return false
}
