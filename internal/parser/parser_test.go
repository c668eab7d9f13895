package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/tuffie/internal/ast"
	"github.com/karupanerura/tuffie/internal/lexer"
	"github.com/karupanerura/tuffie/internal/parser"
	"github.com/karupanerura/tuffie/internal/token"
)

func num(v int64) *ast.NumberLiteral {
	return &ast.NumberLiteral{Value: v}
}

func bin(op string, left, right ast.Expression) *ast.BinaryExpression {
	kinds := map[string]token.Kind{
		"+": token.Plus,
		"-": token.Minus,
		"*": token.Star,
		"/": token.Slash,
		"^": token.Caret,
	}
	return &ast.BinaryExpression{Left: left, Right: right, Operator: token.New(kinds[op], op)}
}

func let(name string, expr ast.Expression) *ast.LetBinding {
	return &ast.LetBinding{Name: name, Expression: expr}
}

func program(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{Body: append([]ast.Statement{}, stmts...)}
}

func mustTokenize(t *testing.T, source string) []token.Token {
	t.Helper()

	tokens, _, err := lexer.Tokenize(source)
	if err != nil {
		t.Fatal(err)
	}
	return tokens
}

func TestParse(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		source   string
		expected *ast.Program
	}{
		{
			source:   "",
			expected: program(),
		},
		{
			source:   "let hello = 2;",
			expected: program(let("hello", num(2))),
		},
		{
			source:   "let hello = 2 + 5 * 2;",
			expected: program(let("hello", bin("+", num(2), bin("*", num(5), num(2))))),
		},
		{
			source:   "let hello = 2 * 5 + 2;",
			expected: program(let("hello", bin("+", bin("*", num(2), num(5)), num(2)))),
		},
		{
			source:   "let hello = 2 - 5 - 1;",
			expected: program(let("hello", bin("-", bin("-", num(2), num(5)), num(1)))),
		},
		{
			source:   "let hello = 8 / 4 / 2;",
			expected: program(let("hello", bin("/", bin("/", num(8), num(4)), num(2)))),
		},
		{
			source:   "let hello = 2 ^ 3 ^ 2;",
			expected: program(let("hello", bin("^", num(2), bin("^", num(3), num(2))))),
		},
		{
			source:   "let hello = 2 * 3 ^ 2;",
			expected: program(let("hello", bin("*", num(2), bin("^", num(3), num(2))))),
		},
		{
			source:   "let hello = (2 + 5) * 2;",
			expected: program(let("hello", bin("*", bin("+", num(2), num(5)), num(2)))),
		},
		{
			source:   "let hello = 2 - (5 - 1);",
			expected: program(let("hello", bin("-", num(2), bin("-", num(5), num(1))))),
		},
		{
			source: "let greeting = 'hello' + name;",
			expected: program(let("greeting", bin("+",
				&ast.StringLiteral{Value: "hello"},
				&ast.Identifier{Name: "name"},
			))),
		},
		{
			source:   "const answer = 42;",
			expected: program(&ast.LetBinding{Name: "answer", Expression: num(42), Constant: true}),
		},
		{
			source: "2 + 5",
			expected: program(&ast.ExpressionStatement{
				Expression: bin("+", num(2), num(5)),
			}),
		},
		{
			source: "'a'; 1; x",
			expected: program(
				&ast.ExpressionStatement{Expression: &ast.StringLiteral{Value: "a"}},
				&ast.ExpressionStatement{Expression: num(1)},
				&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "x"}},
			),
		},
		{
			source: "fn nothing() {}",
			expected: program(&ast.FunctionDeclaration{
				Name:       "nothing",
				Parameters: []string{},
				Body:       []ast.Statement{},
			}),
		},
		{
			source: "fn add(a, b) { let c = a + b; c }",
			expected: program(&ast.FunctionDeclaration{
				Name:       "add",
				Parameters: []string{"a", "b"},
				Body: []ast.Statement{
					let("c", bin("+", &ast.Identifier{Name: "a"}, &ast.Identifier{Name: "b"})),
					&ast.ExpressionStatement{Expression: &ast.Identifier{Name: "c"}},
				},
			}),
		},
		{
			source: "fn outer() { fn inner() { 1 } } let x = 1;",
			expected: program(
				&ast.FunctionDeclaration{
					Name:       "outer",
					Parameters: []string{},
					Body: []ast.Statement{
						&ast.FunctionDeclaration{
							Name:       "inner",
							Parameters: []string{},
							Body: []ast.Statement{
								&ast.ExpressionStatement{Expression: num(1)},
							},
						},
					},
				},
				let("x", num(1)),
			),
		},
	} {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			actual, err := parser.Parse(mustTokenize(t, tt.source))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, actual); diff != "" {
				t.Errorf("program mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		source   string
		expected token.Kind
		actual   token.Token
		context  string
	}{
		{
			source:   "let hello 2;",
			expected: token.Equal,
			actual:   token.New(token.Number, "2"),
			context:  "let statement",
		},
		{
			source:   "let = 2;",
			expected: token.Identifier,
			actual:   token.New(token.Equal, "="),
			context:  "let statement",
		},
		{
			source:   "let hello = 2",
			expected: token.Semicolon,
			actual:   token.EOF(),
			context:  "let statement",
		},
		{
			source:   "const hello 2;",
			expected: token.Equal,
			actual:   token.New(token.Number, "2"),
			context:  "const statement",
		},
		{
			source:   "let hello = ;",
			expected: token.Number,
			actual:   token.New(token.Semicolon, ";"),
			context:  "expression",
		},
		{
			source:   "let hello = 2 +;",
			expected: token.Number,
			actual:   token.New(token.Semicolon, ";"),
			context:  "expression",
		},
		{
			source:   "let hello = (2 + 5;",
			expected: token.RightParen,
			actual:   token.New(token.Semicolon, ";"),
			context:  "grouped expression",
		},
		{
			source:   "+ 1",
			expected: token.EndOfInput,
			actual:   token.New(token.Plus, "+"),
			context:  "program",
		},
		{
			source:   "fn (a) {}",
			expected: token.Identifier,
			actual:   token.New(token.LeftParen, "("),
			context:  "function declaration",
		},
		{
			source:   "fn f(a,) {}",
			expected: token.Identifier,
			actual:   token.New(token.RightParen, ")"),
			context:  "function parameters",
		},
		{
			source:   "fn f(a b) {}",
			expected: token.Comma,
			actual:   token.New(token.Identifier, "b"),
			context:  "function parameters",
		},
		{
			source:   "fn f() 1",
			expected: token.LeftBrace,
			actual:   token.New(token.Number, "1"),
			context:  "function declaration",
		},
		{
			source:   "fn f() { 1",
			expected: token.RightBrace,
			actual:   token.EOF(),
			context:  "function declaration",
		},
		{
			source:   "99999999999999999999",
			expected: token.Number,
			actual:   token.New(token.Number, "99999999999999999999"),
			context:  "number literal",
		},
	} {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			actual, err := parser.Parse(mustTokenize(t, tt.source))
			if err == nil {
				t.Fatalf("should be parse error but got %v", actual)
			}
			if actual != nil {
				t.Errorf("should not return a partial program: %v", actual)
			}

			var parseErr *parser.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			if !parseErr.Expects(tt.expected) {
				t.Errorf("expect %s to be expected but got %v", tt.expected, parseErr.Expected)
			}
			if diff := cmp.Diff(tt.actual, parseErr.Actual); diff != "" {
				t.Errorf("actual token mismatch (-want +got):\n%s", diff)
			}
			if parseErr.Context != tt.context {
				t.Errorf("expect context %q but got %q", tt.context, parseErr.Context)
			}
			t.Logf("expected parse error: %v", err)
		})
	}
}

func TestParseNestingTooDeep(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		source  string
		actual  token.Token
		context string
	}{
		{
			name:    "parentheses",
			source:  strings.Repeat("(", 20_000) + "1" + strings.Repeat(")", 20_000),
			actual:  token.New(token.LeftParen, "("),
			context: "grouped expression",
		},
		{
			name:    "caret chain",
			source:  "1" + strings.Repeat(" ^ 1", 20_000),
			actual:  token.New(token.Number, "1"),
			context: "expression",
		},
		{
			name:    "function bodies",
			source:  strings.Repeat("fn f() {", 20_000) + strings.Repeat("}", 20_000),
			actual:  token.New(token.LeftBrace, "{"),
			context: "function declaration",
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			actual, err := parser.Parse(mustTokenize(t, tt.source))
			if err == nil {
				t.Fatalf("should be parse error but got %d statements", len(actual.Body))
			}

			var parseErr *parser.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			if parseErr.Context != tt.context {
				t.Errorf("expect context %q but got %q", tt.context, parseErr.Context)
			}
			if parseErr.Message != "nesting too deep" {
				t.Errorf("unexpected message: %q", parseErr.Message)
			}
			if diff := cmp.Diff(tt.actual, parseErr.Actual); diff != "" {
				t.Errorf("actual token mismatch (-want +got):\n%s", diff)
			}
		})
	}

	nested := strings.Repeat("(", 400) + "1" + strings.Repeat(")", 400)
	if _, err := parser.Parse(mustTokenize(t, nested)); err != nil {
		t.Errorf("moderate nesting should parse: %v", err)
	}
}

func TestParseWithoutEndOfInput(t *testing.T) {
	t.Parallel()

	tokens := []token.Token{
		token.New(token.Number, "1"),
		token.New(token.Plus, "+"),
		token.New(token.Number, "2"),
	}
	actual, err := parser.Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	expected := program(&ast.ExpressionStatement{Expression: bin("+", num(1), num(2))})
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
	if len(tokens) != 3 {
		t.Errorf("token buffer should not be mutated: %v", tokens)
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	actual, warnings, err := parser.ParseSource("let s = 'open;")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expect 1 warning but got %v", warnings)
	}
	expected := program(let("s", &ast.StringLiteral{Value: "open"}))
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}

	if _, _, err = parser.ParseSource("let s = 1 % 2;"); err == nil {
		t.Error("should be lex error")
	}
}

func TestRenderRoundTrip(t *testing.T) {
	t.Parallel()

	for _, source := range []string{
		"let hello = 2;",
		"let hello = 2 + 5 * 2;",
		"let hello = 2 - 5 - 1;",
		"let hello = 2 - (5 - 1);",
		"let hello = (2 + 5) * (1 - 3) / 4;",
		"let hello = 2 ^ 3 ^ 2;",
		"let hello = (2 ^ 3) ^ 2;",
		"const s = \"it's\";",
		"let s = 'say \"hi\"';",
		"'unterminated",
		"fn add(a, b) { let c = a + b; c; fn inner() {} }",
		"1; 'two'; three",
	} {
		source := source
		t.Run(source, func(t *testing.T) {
			t.Parallel()

			first, _, err := parser.ParseSource(source)
			if err != nil {
				t.Fatal(err)
			}
			rendered := ast.Render(first)

			second, warnings, err := parser.ParseSource(rendered)
			if err != nil {
				t.Fatalf("rendered source %q: %v", rendered, err)
			}
			if len(warnings) != 0 {
				t.Errorf("rendered source %q should not warn: %v", rendered, warnings)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("round trip mismatch for %q (-first +second):\n%s", rendered, diff)
			}
			if again := ast.Render(second); again != rendered {
				t.Errorf("render is not idempotent: %q != %q", rendered, again)
			}
		})
	}
}

func FuzzParse(f *testing.F) {
	for _, seed := range []string{"let a = 1 + 2 * 3;", "fn f(x) { x ^ 2 }", "(1 - 2) - 3", "'s' + \"t\""} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, source string) {
		first, _, err := parser.ParseSource(source)
		if err != nil {
			t.Logf("INVALID: %q (%v)", source, err)
			return
		}

		rendered := ast.Render(first)
		second, _, err := parser.ParseSource(rendered)
		if err != nil {
			t.Fatalf("rendered source %q of %q: %v", rendered, source, err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("round trip mismatch for %q (-first +second):\n%s", source, diff)
		}
	})
}
