package ast

import (
	"github.com/karupanerura/tuffie/internal/token"
)

type Node interface {
	String() string
}

type Expression interface {
	Node
	expressionNode()
}

type Statement interface {
	Node
	statementNode()
}

type Program struct {
	Body []Statement
}

func (p *Program) String() string { return Render(p) }

type NumberLiteral struct {
	Value int64
}

func (*NumberLiteral) expressionNode()  {}
func (n *NumberLiteral) String() string { return Render(n) }

type StringLiteral struct {
	Value string
}

func (*StringLiteral) expressionNode()  {}
func (s *StringLiteral) String() string { return Render(s) }

// Identifier refers to a variable bound by let, const or a function parameter.
type Identifier struct {
	Name string
}

func (*Identifier) expressionNode()  {}
func (i *Identifier) String() string { return Render(i) }

type BinaryExpression struct {
	Left     Expression
	Right    Expression
	Operator token.Token
}

func (*BinaryExpression) expressionNode()  {}
func (b *BinaryExpression) String() string { return Render(b) }

// LetBinding is `let name = expr;`, or `const name = expr;` when Constant.
type LetBinding struct {
	Name       string
	Expression Expression
	Constant   bool
}

func (*LetBinding) statementNode()   {}
func (l *LetBinding) String() string { return Render(l) }

type ExpressionStatement struct {
	Expression Expression
}

func (*ExpressionStatement) statementNode()   {}
func (e *ExpressionStatement) String() string { return Render(e) }

type FunctionDeclaration struct {
	Name       string
	Parameters []string
	Body       []Statement
}

func (*FunctionDeclaration) statementNode()   {}
func (f *FunctionDeclaration) String() string { return Render(f) }
