package format

import (
	"github.com/leapstack-labs/surveygate/pkg/parser"
	"github.com/leapstack-labs/surveygate/pkg/token"
)

func (p *Printer) formatSelectStmt(stmt *parser.SelectStmt) {
	if stmt == nil {
		return
	}

	if stmt.With != nil {
		p.formatWithClause(stmt.With)
	}

	if stmt.Body != nil {
		p.formatSelectBody(stmt.Body)
	}
}

func (p *Printer) formatWithClause(with *parser.WithClause) {
	p.kw(token.WITH)
	if with.Recursive {
		p.space()
		p.kw(token.RECURSIVE)
	}
	p.writeln()

	p.indent()
	p.formatList(len(with.CTEs), func(i int) {
		cte := with.CTEs[i]
		p.ident(cte.Name)
		p.space()
		p.kw(token.AS)
		p.write(" (")
		p.writeln()

		p.indent()
		p.formatSelectStmt(cte.Select)
		p.dedent()

		p.write(")")
	}, ",", true)
	p.writeln()
	p.dedent()
}

func (p *Printer) formatSelectBody(body *parser.SelectBody) {
	if body == nil {
		return
	}

	p.formatSelectCore(body.Left)

	if body.Op != parser.SetOpNone {
		switch body.Op {
		case parser.SetOpUnion:
			p.kw(token.UNION)
		case parser.SetOpUnionAll:
			p.kw(token.UNION, token.ALL)
		case parser.SetOpIntersect:
			p.kw(token.INTERSECT)
		case parser.SetOpExcept:
			p.kw(token.EXCEPT)
		}
		p.writeln()
		p.formatSelectBody(body.Right)
	}
}

func (p *Printer) formatSelectCore(sc *parser.SelectCore) {
	if sc == nil {
		return
	}

	// SELECT [DISTINCT]
	p.kw(token.SELECT)
	if sc.Distinct {
		p.space()
		p.kw(token.DISTINCT)
	}
	p.writeln()

	// Columns
	p.indent()
	p.formatList(len(sc.Columns), func(i int) { p.formatSelectItem(sc.Columns[i]) }, ",", true)
	p.writeln()
	p.dedent()

	// FROM
	if sc.From != nil {
		p.kw(token.FROM)
		p.space()
		p.formatFromClause(sc.From)
		p.writeln()
	}

	// WHERE
	if sc.Where != nil {
		p.kw(token.WHERE)
		p.writeln()
		p.indent()
		p.formatExpr(sc.Where)
		p.writeln()
		p.dedent()
	}

	// GROUP BY
	if len(sc.GroupBy) > 0 {
		p.kw(token.GROUP, token.BY)
		p.writeln()
		p.indent()
		p.formatList(len(sc.GroupBy), func(i int) { p.formatExpr(sc.GroupBy[i]) }, ",", true)
		p.writeln()
		p.dedent()
	}

	// HAVING
	if sc.Having != nil {
		p.kw(token.HAVING)
		p.writeln()
		p.indent()
		p.formatExpr(sc.Having)
		p.writeln()
		p.dedent()
	}

	// ORDER BY
	if len(sc.OrderBy) > 0 {
		p.kw(token.ORDER, token.BY)
		p.writeln()
		p.indent()
		p.formatList(len(sc.OrderBy), func(i int) { p.formatOrderByItem(sc.OrderBy[i]) }, ",", true)
		p.writeln()
		p.dedent()
	}

	// LIMIT / OFFSET
	if sc.Limit != nil {
		p.kw(token.LIMIT)
		p.space()
		p.formatExpr(sc.Limit)
		p.writeln()
	}
	if sc.Offset != nil {
		p.kw(token.OFFSET)
		p.space()
		p.formatExpr(sc.Offset)
		p.writeln()
	}
}

func (p *Printer) formatSelectItem(item parser.SelectItem) {
	if item.Star {
		if item.StarTable != "" {
			p.ident(item.StarTable)
			p.write(".")
		}
		p.write("*")
		return
	}

	p.formatExpr(item.Expr)
	if item.Alias != "" {
		p.space()
		p.kw(token.AS)
		p.space()
		p.ident(item.Alias)
	}
}

func (p *Printer) formatOrderByItem(item parser.OrderByItem) {
	p.formatExpr(item.Expr)
	if item.Desc {
		p.space()
		p.kw(token.DESC)
	}
	switch item.Nulls {
	case parser.NullsFirst:
		p.space()
		p.kw(token.NULLS, token.FIRST)
	case parser.NullsLast:
		p.space()
		p.kw(token.NULLS, token.LAST)
	}
}

func (p *Printer) formatFromClause(from *parser.FromClause) {
	p.formatTableRef(from.Source)

	for _, join := range from.Joins {
		p.writeln()
		p.formatJoinClause(join)
	}
}

func (p *Printer) formatJoinClause(join *parser.JoinClause) {
	switch join.Type {
	case parser.JoinInner:
		p.kw(token.JOIN)
	case parser.JoinLeft:
		p.kw(token.LEFT, token.JOIN)
	case parser.JoinRight:
		p.kw(token.RIGHT, token.JOIN)
	case parser.JoinFull:
		p.kw(token.FULL, token.JOIN)
	case parser.JoinCross:
		p.kw(token.CROSS, token.JOIN)
	}
	p.space()
	p.formatTableRef(join.Right)

	if join.On != nil {
		p.space()
		p.kw(token.ON)
		p.space()
		p.formatExpr(join.On)
	}
	if len(join.Using) > 0 {
		p.space()
		p.kw(token.USING)
		p.write(" (")
		p.formatList(len(join.Using), func(i int) { p.ident(join.Using[i]) }, ", ", false)
		p.write(")")
	}
}

func (p *Printer) formatTableRef(ref parser.TableRef) {
	switch t := ref.(type) {
	case *parser.TableName:
		p.ident(t.Name)
		if t.Alias != "" {
			p.space()
			p.kw(token.AS)
			p.space()
			p.ident(t.Alias)
		}
	case *parser.DerivedTable:
		p.write("(")
		p.writeln()
		p.indent()
		p.formatSelectStmt(t.Select)
		p.dedent()
		p.write(")")
		if t.Alias != "" {
			p.space()
			p.kw(token.AS)
			p.space()
			p.ident(t.Alias)
		}
	}
}
