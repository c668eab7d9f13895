package lexer

import (
	"unicode/utf8"

	"github.com/karupanerura/tuffie/internal/token"
)

var punctuationKinds = map[byte]token.Kind{
	';': token.Semicolon,
	'*': token.Star,
	'+': token.Plus,
	'/': token.Slash,
	'_': token.Underscore,
	'^': token.Caret,
	'(': token.LeftParen,
	')': token.RightParen,
	'{': token.LeftBrace,
	'}': token.RightBrace,
	',': token.Comma,
}

var equalRunKinds = [...]token.Kind{
	1: token.Equal,
	2: token.DoubleEqual,
	3: token.TripleEqual,
}

var minusRunKinds = [...]token.Kind{
	1: token.Minus,
	2: token.DoubleMinus,
}

type Lexer struct {
	source   string
	index    int
	tokens   []token.Token
	warnings []*UnterminatedStringError
}

func New(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize scans the whole source. The result always ends with exactly one
// EndOfInput token. The first error aborts the scan and no tokens are returned.
func Tokenize(source string) ([]token.Token, []*UnterminatedStringError, error) {
	l := New(source)
	tokens, err := l.Tokenize()
	if err != nil {
		return nil, nil, err
	}
	return tokens, l.Warnings(), nil
}

func (l *Lexer) Tokenize() ([]token.Token, error) {
	l.index, l.tokens, l.warnings = 0, nil, nil
	for l.index < len(l.source) {
		tok, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if ok {
			l.tokens = append(l.tokens, tok)
		}
	}
	return append(l.tokens, token.EOF()), nil
}

// Warnings reports the string literals that were closed implicitly.
func (l *Lexer) Warnings() []*UnterminatedStringError {
	return l.warnings
}

func (l *Lexer) next() (token.Token, bool, error) {
	switch c := l.source[l.index]; {
	case isWhitespace(c):
		for l.index < len(l.source) && isWhitespace(l.source[l.index]) {
			l.index++
		}
		return token.Token{}, false, nil

	case c == '\'' || c == '"':
		return l.scanString(c), true, nil

	case c == '=':
		n := l.countRun('=', len(equalRunKinds)-1)
		return l.emit(equalRunKinds[n], n), true, nil

	case c == '-':
		n := l.countRun('-', len(minusRunKinds)-1)
		return l.emit(minusRunKinds[n], n), true, nil

	case isDigit(c):
		n := 1
		for l.index+n < len(l.source) && isDigit(l.source[l.index+n]) {
			n++
		}
		return l.emit(token.Number, n), true, nil

	default:
		if kind, ok := punctuationKinds[c]; ok {
			return l.emit(kind, 1), true, nil
		}
		if isIdentifierChar(c) {
			n := 1
			for l.index+n < len(l.source) && isIdentifierChar(l.source[l.index+n]) {
				n++
			}
			text := l.source[l.index : l.index+n]
			return l.emit(token.LookupIdentifier(text), n), true, nil
		}
		r, _ := utf8.DecodeRuneInString(l.source[l.index:])
		return token.Token{}, false, &LexError{Char: r, Position: l.index}
	}
}

func (l *Lexer) emit(kind token.Kind, width int) token.Token {
	tok := token.New(kind, l.source[l.index:l.index+width])
	l.index += width
	return tok
}

func (l *Lexer) countRun(c byte, limit int) int {
	n := 0
	for n < limit && l.index+n < len(l.source) && l.source[l.index+n] == c {
		n++
	}
	return n
}

// scanString consumes a quoted literal starting at the opening quote. The
// closing quote must appear on the same line. Otherwise the literal ends before
// the first statement terminator (or at the end of input) and a warning is
// recorded.
func (l *Lexer) scanString(quote byte) token.Token {
	begin := l.index
	for i := begin + 1; i < len(l.source) && l.source[i] != '\n'; i++ {
		if l.source[i] == quote {
			l.index = i + 1
			return token.New(token.String, l.source[begin+1:i])
		}
	}

	end, terminator := len(l.source), EndOfInputTerminator
	for i := begin + 1; i < len(l.source); i++ {
		if isStatementTerminator(l.source[i]) {
			end, terminator = i, string(l.source[i])
			break
		}
	}
	l.index = end
	l.warnings = append(l.warnings, &UnterminatedStringError{
		Quote:      quote,
		Terminator: terminator,
		Position:   begin,
	})
	return token.New(token.String, l.source[begin+1:end])
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentifierChar(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isStatementTerminator(c byte) bool {
	return c == ';' || c == '\n'
}
