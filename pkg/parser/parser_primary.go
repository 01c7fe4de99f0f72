package parser

import (
	"fmt"

	"github.com/leapstack-labs/surveygate/pkg/token"
)

// Primary expression parsing: literals, column references, function calls,
// CASE, CAST, EXISTS, parenthesized expressions and scalar subqueries.

// parsePrimary parses a primary expression.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case token.NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.TRUE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "TRUE"}

	case token.FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "FALSE"}

	case token.NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "NULL"}

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.EXISTS:
		p.nextToken()
		return p.parseExistsExpr(false)

	case token.LPAREN:
		p.nextToken()
		if p.check(token.SELECT) || p.check(token.WITH) {
			sub := &SubqueryExpr{Select: p.parseSelectStmt()}
			p.expect(token.RPAREN)
			return sub
		}
		inner := p.parseExpression()
		p.expect(token.RPAREN)
		return &ParenExpr{Expr: inner}

	case token.ILLEGAL:
		p.addError(illegalTokenMessage(p.token))
		return nil
	}

	if p.identLike() {
		return p.parseIdentExpr()
	}

	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "expression"))
	return nil
}

// parseIdentExpr parses an identifier-led expression: a function call or a
// (possibly qualified) column reference.
func (p *Parser) parseIdentExpr() Expr {
	name := p.token.Literal

	// Function call
	if p.checkPeek(token.LPAREN) {
		p.nextToken() // ident
		p.nextToken() // lparen
		return p.parseFuncArgs(name)
	}

	p.nextToken()

	// Qualified column: table.column
	if p.check(token.DOT) {
		p.nextToken()
		if !p.identLike() {
			p.addError("expected column name after .")
			return &ColumnRef{Table: name}
		}
		col := &ColumnRef{Table: name, Column: p.token.Literal}
		p.nextToken()
		return col
	}

	return &ColumnRef{Column: name}
}

// parseFuncArgs parses a function call's argument list and closing paren.
func (p *Parser) parseFuncArgs(name string) Expr {
	fn := &FuncCall{Name: name}

	if p.match(token.STAR) {
		fn.Star = true
		p.expect(token.RPAREN)
		return fn
	}

	if p.match(token.DISTINCT) {
		fn.Distinct = true
	}

	if !p.check(token.RPAREN) {
		for {
			arg := p.parseExpression()
			if arg == nil {
				break
			}
			fn.Args = append(fn.Args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	p.expect(token.RPAREN)
	return fn
}

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(token.CASE)
	expr := &CaseExpr{}

	// Optional operand: CASE x WHEN ...
	if !p.check(token.WHEN) {
		expr.Operand = p.parseExpression()
	}

	for p.match(token.WHEN) {
		when := WhenClause{Condition: p.parseExpression()}
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		expr.Whens = append(expr.Whens, when)
	}

	if p.match(token.ELSE) {
		expr.Else = p.parseExpression()
	}

	p.expect(token.END)
	return expr
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	p.expect(token.CAST)
	p.expect(token.LPAREN)

	cast := &CastExpr{Expr: p.parseExpression()}

	p.expect(token.AS)
	if p.identLike() {
		cast.TypeName = p.token.Literal
		p.nextToken()
		// Multi-word type names (e.g. DOUBLE PRECISION) and sized types
		// like VARCHAR(10) keep their raw spelling
		for p.identLike() {
			cast.TypeName += " " + p.token.Literal
			p.nextToken()
		}
		if p.check(token.LPAREN) {
			cast.TypeName += "("
			p.nextToken()
			for !p.check(token.RPAREN) && !p.check(token.EOF) {
				cast.TypeName += p.token.Literal
				p.nextToken()
			}
			cast.TypeName += ")"
			p.expect(token.RPAREN)
		}
	} else {
		p.addError("expected type name in CAST")
	}

	p.expect(token.RPAREN)
	return cast
}

// parseExistsExpr parses the (SELECT ...) after [NOT] EXISTS.
func (p *Parser) parseExistsExpr(not bool) Expr {
	exists := &ExistsExpr{Not: not}

	p.expect(token.LPAREN)
	exists.Select = p.parseSelectStmt()
	p.expect(token.RPAREN)

	return exists
}
