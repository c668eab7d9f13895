package parser

import (
	"log"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/tuffie/internal/ast"
	"github.com/karupanerura/tuffie/internal/lexer"
	"github.com/karupanerura/tuffie/internal/token"
)

const (
	programContext              = "program"
	letContext                  = "let statement"
	constContext                = "const statement"
	functionContext             = "function declaration"
	functionParametersContext   = "function parameters"
	expressionContext           = "expression"
	groupedExpressionContext    = "grouped expression"
	numberLiteralContext        = "number literal"
	unsupportedTopLevelMessage  = "unsupported top-level token"
	unsupportedStatementMessage = "unsupported statement token"
	nestingTooDeepMessage       = "nesting too deep"
)

// maxNestingDepth bounds grouped expressions, right associative chains and
// function bodies.
const maxNestingDepth = 1000

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("TUFFIE_PARSER_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

type parser struct {
	tokens []token.Token
	index  int
	depth  int
	debug  bool
}

func Parse(tokens []token.Token) (*ast.Program, error) {
	p := &parser{tokens: tokens, debug: parserDebugLog}
	return p.parse()
}

func ParseWithDebugOutput(tokens []token.Token) (*ast.Program, error) {
	p := &parser{tokens: tokens, debug: true}
	return p.parse()
}

// ParseSource tokenizes and parses source in one step. Lexer warnings are
// returned alongside the program.
func ParseSource(source string) (*ast.Program, []*lexer.UnterminatedStringError, error) {
	tokens, warnings, err := lexer.Tokenize(source)
	if err != nil {
		return nil, nil, err
	}

	program, err := Parse(tokens)
	if err != nil {
		return nil, nil, err
	}
	return program, warnings, nil
}

func (p *parser) parse() (*ast.Program, error) {
	if p.debug {
		pp.Println(p.tokens)
	}

	body, err := p.parseStatements(token.EndOfInput)
	if err != nil {
		return nil, err
	}

	program := &ast.Program{Body: body}
	if p.debug {
		pp.Println(program)
		log.Println(ast.Render(program))
	}
	return program, nil
}

// current never runs past the buffer: a missing terminator reads as EndOfInput.
func (p *parser) current() token.Token {
	if p.index >= len(p.tokens) {
		return token.EOF()
	}
	return p.tokens[p.index]
}

func (p *parser) advance() token.Token {
	tok := p.current()
	if p.index < len(p.tokens) {
		p.index++
	}
	return tok
}

func (p *parser) enter(context string) error {
	if p.depth >= maxNestingDepth {
		return &ParseError{Actual: p.current(), Context: context, Message: nestingTooDeepMessage}
	}
	p.depth++
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) expect(kind token.Kind, context string) (token.Token, error) {
	tok := p.current()
	if tok.Kind != kind {
		return tok, &ParseError{Expected: []token.Kind{kind}, Actual: tok, Context: context}
	}
	return p.advance(), nil
}

// parseStatements reads statements until terminator. The terminator itself is
// left for the caller.
func (p *parser) parseStatements(terminator token.Kind) ([]ast.Statement, error) {
	body := []ast.Statement{}
	for {
		tok := p.current()
		if tok.Kind == terminator {
			return body, nil
		}
		if p.debug {
			log.Println("statement token: ", tok)
		}

		var stmt ast.Statement
		var err error
		switch tok.Kind {
		case token.LetKeyword:
			stmt, err = p.parseLetBinding(false)
		case token.ConstKeyword:
			stmt, err = p.parseLetBinding(true)
		case token.FunctionKeyword:
			stmt, err = p.parseFunctionDeclaration()
		case token.Number, token.String, token.Identifier, token.LeftParen:
			stmt, err = p.parseExpressionStatement()
		default:
			context, message := programContext, unsupportedTopLevelMessage
			if terminator != token.EndOfInput {
				context, message = functionContext, unsupportedStatementMessage
			}
			err = &ParseError{Expected: []token.Kind{terminator}, Actual: tok, Context: context, Message: message}
		}
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
}

func (p *parser) parseLetBinding(constant bool) (*ast.LetBinding, error) {
	context := letContext
	if constant {
		context = constContext
	}
	p.advance()

	name, err := p.expect(token.Identifier, context)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equal, context); err != nil {
		return nil, err
	}

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Semicolon, context); err != nil {
		return nil, err
	}

	return &ast.LetBinding{
		Name:       name.Text,
		Expression: expr,
		Constant:   constant,
	}, nil
}

func (p *parser) parseExpressionStatement() (*ast.ExpressionStatement, error) {
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if p.current().Kind == token.Semicolon {
		p.advance()
	}
	return &ast.ExpressionStatement{Expression: expr}, nil
}

func (p *parser) parseFunctionDeclaration() (*ast.FunctionDeclaration, error) {
	p.advance()

	name, err := p.expect(token.Identifier, functionContext)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LeftParen, functionContext); err != nil {
		return nil, err
	}

	params, err := p.parseParameters()
	if err != nil {
		return nil, err
	}

	if err := p.enter(functionContext); err != nil {
		return nil, err
	}
	defer p.leave()
	if _, err := p.expect(token.LeftBrace, functionContext); err != nil {
		return nil, err
	}

	body, err := p.parseStatements(token.RightBrace)
	if err != nil {
		return nil, err
	}
	p.advance()

	return &ast.FunctionDeclaration{
		Name:       name.Text,
		Parameters: params,
		Body:       body,
	}, nil
}

// parseParameters reads `a, b, c)` and consumes the closing parenthesis.
func (p *parser) parseParameters() ([]string, error) {
	params := []string{}
	if p.current().Kind == token.RightParen {
		p.advance()
		return params, nil
	}

	for {
		param, err := p.expect(token.Identifier, functionParametersContext)
		if err != nil {
			return nil, err
		}
		params = append(params, param.Text)

		switch tok := p.advance(); tok.Kind {
		case token.Comma:
			continue
		case token.RightParen:
			return params, nil
		default:
			return nil, &ParseError{
				Expected: []token.Kind{token.Comma, token.RightParen},
				Actual:   tok,
				Context:  functionParametersContext,
			}
		}
	}
}

// parseExpression is a Pratt parser. Operators bind while their power is at
// least minBP; left associative operators parse their right operand at
// power+1 so that equal powers fold to the left.
func (p *parser) parseExpression(minBP uint8) (ast.Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		op := p.current()
		bp, rightAssociative, isInfix := token.InfixBindingPower(op.Kind)
		if !isInfix || bp < minBP {
			return left, nil
		}
		p.advance()
		if p.debug {
			log.Println("OP", minBP, op, ast.Render(left))
		}

		right, err := p.parseRightOperand(bp, rightAssociative)
		if err != nil {
			return nil, err
		}

		left = &ast.BinaryExpression{Left: left, Right: right, Operator: op}
	}
}

func (p *parser) parseRightOperand(bp uint8, rightAssociative bool) (ast.Expression, error) {
	if !rightAssociative {
		return p.parseExpression(bp + 1)
	}

	if err := p.enter(expressionContext); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseExpression(bp)
}

func (p *parser) parsePrefix() (ast.Expression, error) {
	switch tok := p.current(); tok.Kind {
	case token.Number:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, &ParseError{
				Expected: []token.Kind{token.Number},
				Actual:   tok,
				Context:  numberLiteralContext,
				Message:  "value out of range",
			}
		}
		return &ast.NumberLiteral{Value: v}, nil

	case token.String:
		p.advance()
		return &ast.StringLiteral{Value: tok.Text}, nil

	case token.Identifier:
		p.advance()
		return &ast.Identifier{Name: tok.Text}, nil

	case token.LeftParen:
		if err := p.enter(groupedExpressionContext); err != nil {
			return nil, err
		}
		defer p.leave()

		p.advance()
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RightParen, groupedExpressionContext); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, &ParseError{
			Expected: []token.Kind{token.Number, token.String, token.Identifier, token.LeftParen},
			Actual:   tok,
			Context:  expressionContext,
		}
	}
}
