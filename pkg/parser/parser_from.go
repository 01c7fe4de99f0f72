package parser

import "github.com/leapstack-labs/surveygate/pkg/token"

// FROM clause parsing.
//
// Grammar:
//
//	from_clause → table_ref (join_clause | "," table_ref)*
//	join_clause → join_type table_ref [ON expr | USING "(" ident_list ")"]
//	join_type   → [INNER] JOIN | LEFT [OUTER] JOIN | RIGHT [OUTER] JOIN
//	            | FULL [OUTER] JOIN | CROSS JOIN
//	table_ref   → table_name [[AS] alias] | "(" select_stmt ")" [[AS] alias]
//
// A comma in the FROM list is parsed as a CROSS join.

// parseFromClause parses a FROM clause.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{Source: p.parseTableRef()}

	for {
		switch {
		case p.check(token.COMMA):
			p.nextToken()
			from.Joins = append(from.Joins, &JoinClause{
				Type:  JoinCross,
				Right: p.parseTableRef(),
			})
		case p.isJoinStart():
			from.Joins = append(from.Joins, p.parseJoinClause())
		default:
			return from
		}
	}
}

// isJoinStart returns true if the current token starts a join clause.
func (p *Parser) isJoinStart() bool {
	switch p.token.Type {
	case token.JOIN, token.INNER, token.LEFT, token.RIGHT, token.FULL, token.CROSS:
		return true
	}
	return false
}

// parseJoinClause parses one JOIN clause.
func (p *Parser) parseJoinClause() *JoinClause {
	join := &JoinClause{Type: JoinInner}

	switch p.token.Type {
	case token.INNER:
		p.nextToken()
	case token.LEFT:
		join.Type = JoinLeft
		p.nextToken()
		p.match(token.OUTER)
	case token.RIGHT:
		join.Type = JoinRight
		p.nextToken()
		p.match(token.OUTER)
	case token.FULL:
		join.Type = JoinFull
		p.nextToken()
		p.match(token.OUTER)
	case token.CROSS:
		join.Type = JoinCross
		p.nextToken()
	}
	p.expect(token.JOIN)

	join.Right = p.parseTableRef()

	// CROSS joins take no condition
	if join.Type == JoinCross {
		return join
	}

	switch {
	case p.match(token.ON):
		join.On = p.parseExpression()
	case p.match(token.USING):
		p.expect(token.LPAREN)
		for {
			if !p.identLike() {
				p.addError("expected column name in USING")
				break
			}
			join.Using = append(join.Using, p.token.Literal)
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	return join
}

// parseTableRef parses a table reference: a table name or a derived table.
func (p *Parser) parseTableRef() TableRef {
	if p.check(token.LPAREN) {
		p.nextToken()
		derived := &DerivedTable{Select: p.parseSelectStmt()}
		p.expect(token.RPAREN)
		derived.Alias = p.parseOptionalAlias()
		return derived
	}

	if !p.identLike() {
		p.addError("expected table name")
		return &TableName{}
	}

	tbl := &TableName{Name: p.token.Literal}
	p.nextToken()

	// schema.table form: keep the bare table name, SQLite attaches no
	// schema semantics we care about here
	if p.check(token.DOT) && p.checkPeek(token.IDENT) {
		p.nextToken()
		tbl.Name = p.token.Literal
		p.nextToken()
	}

	tbl.Alias = p.parseOptionalAlias()
	return tbl
}

// parseOptionalAlias parses an optional [AS] alias after a table reference.
func (p *Parser) parseOptionalAlias() string {
	if p.match(token.AS) {
		if !p.identLike() {
			p.addError("expected alias after AS")
			return ""
		}
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	if p.identLike() {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}
