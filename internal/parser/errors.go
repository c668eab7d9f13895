package parser

import (
	"strings"

	"github.com/karupanerura/tuffie/internal/token"
	"github.com/samber/lo"
)

// ParseError reports a token that does not fit the grammar. Expected is empty
// when no single kind would have been accepted.
type ParseError struct {
	Expected []token.Kind
	Actual   token.Token
	Context  string
	Message  string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Context)
	b.WriteString(": ")
	if e.Message != "" {
		b.WriteString(e.Message)
		b.WriteString(" ")
		b.WriteString(e.Actual.String())
		return b.String()
	}

	b.WriteString("expected ")
	b.WriteString(strings.Join(lo.Map(e.Expected, func(kind token.Kind, _ int) string {
		return kind.String()
	}), " or "))
	b.WriteString(" but got ")
	b.WriteString(e.Actual.String())
	return b.String()
}

func (e *ParseError) Expects(kind token.Kind) bool {
	return lo.Contains(e.Expected, kind)
}
