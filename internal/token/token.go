package token

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

type Kind int

const (
	Identifier Kind = iota
	Equal
	DoubleEqual
	TripleEqual
	Number
	String
	Plus
	Minus
	DoubleMinus
	Slash
	Star
	Caret
	ConstKeyword
	LetKeyword
	Underscore
	Semicolon
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	FunctionKeyword
	Comma
	EndOfInput

	kindCount
)

var kindNames = map[Kind]string{
	Identifier:      "Identifier",
	Equal:           "Equal",
	DoubleEqual:     "DoubleEqual",
	TripleEqual:     "TripleEqual",
	Number:          "Number",
	String:          "String",
	Plus:            "Plus",
	Minus:           "Minus",
	DoubleMinus:     "DoubleMinus",
	Slash:           "Slash",
	Star:            "Star",
	Caret:           "Caret",
	ConstKeyword:    "ConstKeyword",
	LetKeyword:      "LetKeyword",
	Underscore:      "Underscore",
	Semicolon:       "Semicolon",
	LeftParen:       "LeftParen",
	RightParen:      "RightParen",
	LeftBrace:       "LeftBrace",
	RightBrace:      "RightBrace",
	FunctionKeyword: "FunctionKeyword",
	Comma:           "Comma",
	EndOfInput:      "EndOfInput",
}

var kindByName = lo.Invert(kindNames)

// Keywords maps reserved words to their kinds. Identifiers are looked up here
// after being consumed in full.
var Keywords = map[string]Kind{
	"let":   LetKeyword,
	"const": ConstKeyword,
	"fn":    FunctionKeyword,
}

func LookupIdentifier(text string) Kind {
	if kind, ok := Keywords[text]; ok {
		return kind
	}
	return Identifier
}

func (k Kind) IsValid() bool {
	return 0 <= k && k < kindCount
}

func (k Kind) String() string {
	if !k.IsValid() {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("invalid token kind: %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	kind, ok := kindByName[string(b)]
	if !ok {
		return fmt.Errorf("unknown token kind: %q", b)
	}
	*k = kind
	return nil
}

// Token is an immutable lexeme. Text is empty only for EndOfInput.
type Token struct {
	Kind Kind
	Text string
}

func New(kind Kind, text string) Token {
	return Token{Kind: kind, Text: text}
}

func EOF() Token {
	return Token{Kind: EndOfInput}
}

func (t Token) IsEOF() bool {
	return t.Kind == EndOfInput
}

func (t Token) String() string {
	if t.IsEOF() {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

type tokenJSON struct {
	Kind Kind    `json:"kind"`
	Text *string `json:"text,omitempty"`
}

func (t Token) MarshalJSON() ([]byte, error) {
	v := tokenJSON{Kind: t.Kind}
	if !t.IsEOF() {
		v.Text = &t.Text
	}
	return json.Marshal(v)
}

func (t *Token) UnmarshalJSON(b []byte) error {
	var v tokenJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	t.Kind = v.Kind
	t.Text = ""
	if v.Text != nil {
		t.Text = *v.Text
	}
	return nil
}

// InfixBindingPower returns how tightly an infix operator binds. Kinds that
// are not infix operators report ok=false.
func InfixBindingPower(kind Kind) (power uint8, rightAssociative bool, ok bool) {
	switch kind {
	case Plus, Minus:
		return 1, false, true
	case Star, Slash:
		return 2, false, true
	case Caret:
		return 3, true, true
	default:
		return 0, false, false
	}
}
