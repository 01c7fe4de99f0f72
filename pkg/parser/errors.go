package parser

import (
	"fmt"

	"github.com/leapstack-labs/surveygate/pkg/token"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Common error messages.
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrUnterminatedIdent  = "unterminated quoted identifier"
	ErrEmptyStatement     = "empty statement"
)

// illegalTokenMessage describes an ILLEGAL token. The lexer hands back
// unterminated string and quoted-identifier literals prefixed with their
// opening delimiter so they can be told apart from stray characters.
func illegalTokenMessage(tok token.Token) string {
	if len(tok.Literal) == 0 {
		return "illegal token"
	}
	switch tok.Literal[0] {
	case '\'':
		return ErrUnterminatedString
	case '"', '`', '[':
		return ErrUnterminatedIdent
	default:
		return fmt.Sprintf("illegal character %q", tok.Literal)
	}
}
