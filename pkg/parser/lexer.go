package parser

import (
	"strings"

	"github.com/leapstack-labs/surveygate/pkg/token"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()

	var tok token.Token
	tok.Pos = pos

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		tok.Literal = ""
	case '+':
		tok = l.newToken(token.PLUS, "+", pos)
	case '-':
		tok = l.newToken(token.MINUS, "-", pos)
	case '*':
		tok = l.newToken(token.STAR, "*", pos)
	case '/':
		tok = l.newToken(token.SLASH, "/", pos)
	case '%':
		tok = l.newToken(token.PERCENT, "%", pos)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.EQ, Literal: "==", Pos: pos}
		} else {
			tok = l.newToken(token.EQ, "=", pos)
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "<>", Pos: pos}
		default:
			tok = l.newToken(token.LT, "<", pos)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(token.GT, ">", pos)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "!=", Pos: pos}
		} else {
			tok = l.newToken(token.ILLEGAL, string(l.ch), pos)
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.DPIPE, Literal: "||", Pos: pos}
		} else {
			tok = l.newToken(token.ILLEGAL, string(l.ch), pos)
		}
	case '.':
		tok = l.newToken(token.DOT, ".", pos)
	case ',':
		tok = l.newToken(token.COMMA, ",", pos)
	case '(':
		tok = l.newToken(token.LPAREN, "(", pos)
	case ')':
		tok = l.newToken(token.RPAREN, ")", pos)
	case ';':
		tok = l.newToken(token.SEMI, ";", pos)
	case '\'':
		lit, ok := l.readString()
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: "'" + lit, Pos: pos}
		}
		tok.Type = token.STRING
		tok.Literal = lit
		tok.Pos = pos
		return tok
	case '"':
		// ANSI quoted identifier
		return l.quotedIdentToken('"', pos)
	case '`':
		// MySQL-style quoted identifier, accepted by SQLite
		return l.quotedIdentToken('`', pos)
	case '[':
		// Bracket-quoted identifier, accepted by SQLite
		lit, ok := l.readBracketIdentifier()
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: "[" + lit, Pos: pos}
		}
		tok.Type = token.IDENT
		tok.Literal = lit
		tok.Pos = pos
		return tok
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(strings.ToLower(tok.Literal))
			tok.Pos = pos
			return tok
		case isDigit(l.ch):
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			tok.Pos = pos
			return tok
		default:
			tok = l.newToken(token.ILLEGAL, string(l.ch), pos)
		}
	}

	l.readChar()
	return tok
}

// newToken creates a new single-character token.
func (l *Lexer) newToken(t token.Type, literal string, pos token.Position) token.Token {
	return token.Token{Type: t, Literal: literal, Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, line comments and block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		// Line comment (-- ...)
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		// Block comment (/* ... */)
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
			continue
		}

		break
	}
}

// readIdentifier reads an identifier: letters, digits, underscores.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal, including decimals and exponents.
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.pos]
}

// readString reads a single-quoted string literal. A doubled quote ('')
// escapes a quote. The returned literal excludes the delimiters and has
// escapes resolved. terminated is false when the input ends before the
// closing quote.
func (l *Lexer) readString() (lit string, terminated bool) {
	var sb strings.Builder
	l.readChar() // skip opening quote
	for {
		if l.ch == 0 {
			return sb.String(), false
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				sb.WriteByte('\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			break
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	return sb.String(), true
}

// quotedIdentToken lexes an identifier quoted with the given delimiter,
// mapping a missing closing quote to an ILLEGAL token.
func (l *Lexer) quotedIdentToken(quote byte, pos token.Position) token.Token {
	lit, ok := l.readQuotedIdentifier(quote)
	if !ok {
		return token.Token{Type: token.ILLEGAL, Literal: string(quote) + lit, Pos: pos}
	}
	return token.Token{Type: token.IDENT, Literal: lit, Pos: pos}
}

// readQuotedIdentifier reads an identifier quoted with the given delimiter.
func (l *Lexer) readQuotedIdentifier(quote byte) (lit string, terminated bool) {
	var sb strings.Builder
	l.readChar() // skip opening quote
	for l.ch != 0 {
		if l.ch == quote {
			if l.peekChar() == quote {
				sb.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return sb.String(), true
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	return sb.String(), false
}

// readBracketIdentifier reads a [bracketed] identifier.
func (l *Lexer) readBracketIdentifier() (lit string, terminated bool) {
	start := l.pos + 1
	l.readChar() // skip '['
	for l.ch != 0 && l.ch != ']' {
		l.readChar()
	}
	end := l.pos
	if l.ch != ']' {
		return l.input[start:end], false
	}
	l.readChar()
	return l.input[start:end], true
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
