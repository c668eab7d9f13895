package ast

import (
	"github.com/goccy/go-json"
	"github.com/karupanerura/tuffie/internal/token"
)

func (p *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string      `json:"type"`
		Body []Statement `json:"body"`
	}{"Program", nonNilStatements(p.Body)})
}

func (n *NumberLiteral) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value int64  `json:"value"`
	}{"NumberLiteral", n.Value})
}

func (s *StringLiteral) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{"StringLiteral", s.Value})
}

func (i *Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{"Identifier", i.Name})
}

func (b *BinaryExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string      `json:"type"`
		Operator token.Token `json:"operator"`
		Left     Expression  `json:"left"`
		Right    Expression  `json:"right"`
	}{"BinaryExpression", b.Operator, b.Left, b.Right})
}

func (l *LetBinding) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string     `json:"type"`
		Name       string     `json:"identifierName"`
		Constant   bool       `json:"constant,omitempty"`
		Expression Expression `json:"expression"`
	}{"LetBinding", l.Name, l.Constant, l.Expression})
}

func (e *ExpressionStatement) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string     `json:"type"`
		Expression Expression `json:"expression"`
	}{"ExpressionStatement", e.Expression})
}

func (f *FunctionDeclaration) MarshalJSON() ([]byte, error) {
	params := f.Parameters
	if params == nil {
		params = []string{}
	}
	return json.Marshal(struct {
		Type       string      `json:"type"`
		Name       string      `json:"identifierName"`
		Parameters []string    `json:"parameters"`
		Body       []Statement `json:"body"`
	}{"FunctionDeclaration", f.Name, params, nonNilStatements(f.Body)})
}

func nonNilStatements(stmts []Statement) []Statement {
	if stmts == nil {
		return []Statement{}
	}
	return stmts
}
