package format

import (
	"strings"

	"github.com/leapstack-labs/surveygate/pkg/parser"
	"github.com/leapstack-labs/surveygate/pkg/token"
)

func (p *Printer) formatExpr(e parser.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *parser.Literal:
		p.formatLiteral(expr)
	case *parser.ColumnRef:
		p.formatColumnRef(expr)
	case *parser.BinaryExpr:
		p.formatExpr(expr.Left)
		p.space()
		p.write(expr.Op.String())
		p.space()
		p.formatExpr(expr.Right)
	case *parser.UnaryExpr:
		p.write(expr.Op.String())
		if expr.Op == token.NOT {
			p.space()
		}
		p.formatExpr(expr.Expr)
	case *parser.FuncCall:
		p.formatFuncCall(expr)
	case *parser.CaseExpr:
		p.formatCaseExpr(expr)
	case *parser.CastExpr:
		p.kw(token.CAST)
		p.write("(")
		p.formatExpr(expr.Expr)
		p.space()
		p.kw(token.AS)
		p.space()
		p.keyword(expr.TypeName)
		p.write(")")
	case *parser.InExpr:
		p.formatInExpr(expr)
	case *parser.BetweenExpr:
		p.formatExpr(expr.Expr)
		p.space()
		if expr.Not {
			p.kw(token.NOT)
			p.space()
		}
		p.kw(token.BETWEEN)
		p.space()
		p.formatExpr(expr.Low)
		p.space()
		p.kw(token.AND)
		p.space()
		p.formatExpr(expr.High)
	case *parser.IsNullExpr:
		p.formatExpr(expr.Expr)
		p.space()
		p.kw(token.IS)
		p.space()
		if expr.Not {
			p.kw(token.NOT)
			p.space()
		}
		p.kw(token.NULL)
	case *parser.LikeExpr:
		p.formatExpr(expr.Expr)
		p.space()
		if expr.Not {
			p.kw(token.NOT)
			p.space()
		}
		p.kw(token.LIKE)
		p.space()
		p.formatExpr(expr.Pattern)
	case *parser.ParenExpr:
		p.write("(")
		p.formatExpr(expr.Expr)
		p.write(")")
	case *parser.SubqueryExpr:
		p.formatSubquery(expr.Select)
	case *parser.ExistsExpr:
		if expr.Not {
			p.kw(token.NOT)
			p.space()
		}
		p.kw(token.EXISTS)
		p.space()
		p.formatSubquery(expr.Select)
	}
}

func (p *Printer) formatLiteral(lit *parser.Literal) {
	switch lit.Type {
	case parser.LiteralString:
		p.write("'")
		p.write(strings.ReplaceAll(lit.Value, "'", "''"))
		p.write("'")
	default:
		p.write(lit.Value)
	}
}

func (p *Printer) formatColumnRef(col *parser.ColumnRef) {
	if col.Table != "" {
		p.ident(col.Table)
		p.write(".")
	}
	p.ident(col.Column)
}

func (p *Printer) formatFuncCall(fn *parser.FuncCall) {
	p.keyword(fn.Name)
	p.write("(")
	if fn.Star {
		p.write("*")
	} else {
		if fn.Distinct {
			p.kw(token.DISTINCT)
			p.space()
		}
		p.formatList(len(fn.Args), func(i int) { p.formatExpr(fn.Args[i]) }, ", ", false)
	}
	p.write(")")
}

func (p *Printer) formatCaseExpr(expr *parser.CaseExpr) {
	p.kw(token.CASE)
	if expr.Operand != nil {
		p.space()
		p.formatExpr(expr.Operand)
	}
	p.writeln()
	p.indent()
	for _, when := range expr.Whens {
		p.kw(token.WHEN)
		p.space()
		p.formatExpr(when.Condition)
		p.space()
		p.kw(token.THEN)
		p.space()
		p.formatExpr(when.Result)
		p.writeln()
	}
	if expr.Else != nil {
		p.kw(token.ELSE)
		p.space()
		p.formatExpr(expr.Else)
		p.writeln()
	}
	p.dedent()
	p.kw(token.END)
}

func (p *Printer) formatInExpr(expr *parser.InExpr) {
	p.formatExpr(expr.Expr)
	p.space()
	if expr.Not {
		p.kw(token.NOT)
		p.space()
	}
	p.kw(token.IN)
	p.space()
	if expr.Query != nil {
		p.formatSubquery(expr.Query)
		return
	}
	p.write("(")
	p.formatList(len(expr.Values), func(i int) { p.formatExpr(expr.Values[i]) }, ", ", false)
	p.write(")")
}

// formatSubquery renders a nested SELECT inside parentheses, indented one
// level under the current line.
func (p *Printer) formatSubquery(sel *parser.SelectStmt) {
	p.write("(")
	p.writeln()
	p.indent()
	p.formatSelectStmt(sel)
	p.dedent()
	p.write(")")
}
