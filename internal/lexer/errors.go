package lexer

import (
	"fmt"

	"github.com/goccy/go-json"
)

const EndOfInputTerminator = "end of input"

type LexError struct {
	Char     rune
	Position int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("no rule for character %q at position %d", e.Char, e.Position)
}

// UnterminatedStringError describes a string literal that was closed by a
// statement terminator or the end of input instead of its own quote. It is a
// warning: the literal is still tokenized.
type UnterminatedStringError struct {
	Quote      byte
	Terminator string
	Position   int
}

func (e *UnterminatedStringError) Error() string {
	return fmt.Sprintf("unterminated string literal at position %d: expected %q but found %s", e.Position, string(e.Quote), e.describeTerminator())
}

func (e *UnterminatedStringError) describeTerminator() string {
	if e.Terminator == EndOfInputTerminator {
		return e.Terminator
	}
	return fmt.Sprintf("%q", e.Terminator)
}

func (e *UnterminatedStringError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"expected": string(e.Quote),
		"found":    e.Terminator,
		"position": e.Position,
		"message":  e.Error(),
	})
}
