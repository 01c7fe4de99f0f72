package parser

import (
	"fmt"

	"github.com/leapstack-labs/surveygate/pkg/token"
)

// Statement parsing: WITH clause, CTEs, SELECT body, SELECT list, ORDER BY,
// LIMIT/OFFSET.

// parseSelectStmt parses a complete SELECT statement.
func (p *Parser) parseSelectStmt() *SelectStmt {
	stmt := &SelectStmt{}

	// Optional WITH clause
	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}

	// Required SELECT body
	stmt.Body = p.parseSelectBody()

	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(token.WITH)
	with := &WithClause{}

	if p.match(token.RECURSIVE) {
		with.Recursive = true
	}

	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)

		if !p.match(token.COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}

	if !p.identLike() {
		p.addError("expected CTE name")
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	p.expect(token.AS)

	p.expect(token.LPAREN)
	cte.Select = p.parseSelectStmt()
	p.expect(token.RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	body.Left = p.parseSelectCore()

	if p.check(token.UNION) || p.check(token.INTERSECT) || p.check(token.EXCEPT) {
		switch p.token.Type {
		case token.UNION:
			p.nextToken()
			if p.match(token.ALL) {
				body.Op = SetOpUnionAll
			} else {
				body.Op = SetOpUnion
				p.match(token.DISTINCT) // optional
			}
		case token.INTERSECT:
			p.nextToken()
			body.Op = SetOpIntersect
		case token.EXCEPT:
			p.nextToken()
			body.Op = SetOpExcept
		}

		body.Right = p.parseSelectBody()
	}

	return body
}

// parseSelectCore parses a single SELECT core with its clauses.
func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(token.SELECT)
	core := &SelectCore{}

	if p.match(token.DISTINCT) {
		core.Distinct = true
	} else {
		p.match(token.ALL) // optional, consume if present
	}

	core.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		core.From = p.parseFromClause()
	}

	if p.match(token.WHERE) {
		core.Where = p.parseExpression()
	}

	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		core.GroupBy = p.parseExprList()
	}

	if p.match(token.HAVING) {
		core.Having = p.parseExpression()
	}

	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		core.OrderBy = p.parseOrderByList()
	}

	if p.match(token.LIMIT) {
		core.Limit = p.parseExpression()
		if p.match(token.OFFSET) {
			core.Offset = p.parseExpression()
		} else if p.match(token.COMMA) {
			// LIMIT offset, count (SQLite compatibility form)
			core.Offset = core.Limit
			core.Limit = p.parseExpression()
		}
	}

	return core
}

// parseSelectList parses the SELECT list.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// parseSelectItem parses one item of the SELECT list:
// "*" | table "." "*" | expr [AS identifier].
func (p *Parser) parseSelectItem() SelectItem {
	if p.check(token.STAR) {
		p.nextToken()
		return SelectItem{Star: true}
	}

	// t.* form
	if p.check(token.IDENT) && p.checkPeek(token.DOT) && p.peek2.Type == token.STAR {
		table := p.token.Literal
		p.nextToken() // ident
		p.nextToken() // dot
		p.nextToken() // star
		return SelectItem{Star: true, StarTable: table}
	}

	item := SelectItem{Expr: p.parseExpression()}

	if p.match(token.AS) {
		if !p.identLike() {
			p.addError("expected alias after AS")
			return item
		}
		item.Alias = p.token.Literal
		p.nextToken()
	} else if p.identLike() {
		// Bare alias without AS
		item.Alias = p.token.Literal
		p.nextToken()
	}

	return item
}

// parseExprList parses a comma-separated expression list.
func (p *Parser) parseExprList() []Expr {
	var exprs []Expr
	for {
		e := p.parseExpression()
		if e == nil {
			break
		}
		exprs = append(exprs, e)
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}

// parseOrderByList parses an ORDER BY item list.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem
	for {
		item := OrderByItem{Expr: p.parseExpression()}

		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}

		if p.match(token.NULLS) {
			switch p.token.Type {
			case token.FIRST:
				item.Nulls = NullsFirst
				p.nextToken()
			case token.LAST:
				item.Nulls = NullsLast
				p.nextToken()
			default:
				p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, "FIRST or LAST"))
			}
		}

		items = append(items, item)
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}
