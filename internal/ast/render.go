package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karupanerura/tuffie/internal/token"
)

// Render reconstructs source text for a node. Tokenizing and parsing the
// output yields a structurally identical tree.
func Render(node Node) string {
	var b strings.Builder
	render(&b, node, 0)
	return b.String()
}

func render(b *strings.Builder, node Node, depth int) {
	switch n := node.(type) {
	case *Program:
		for i, stmt := range n.Body {
			if i != 0 {
				b.WriteByte('\n')
			}
			render(b, stmt, depth)
		}

	case *LetBinding:
		indent(b, depth)
		if n.Constant {
			b.WriteString("const ")
		} else {
			b.WriteString("let ")
		}
		b.WriteString(n.Name)
		b.WriteString(" = ")
		render(b, n.Expression, depth)
		b.WriteByte(';')

	case *ExpressionStatement:
		indent(b, depth)
		render(b, n.Expression, depth)
		b.WriteByte(';')

	case *FunctionDeclaration:
		indent(b, depth)
		b.WriteString("fn ")
		b.WriteString(n.Name)
		b.WriteByte('(')
		b.WriteString(strings.Join(n.Parameters, ", "))
		b.WriteString(") {")
		for _, stmt := range n.Body {
			b.WriteByte('\n')
			render(b, stmt, depth+1)
		}
		if len(n.Body) != 0 {
			b.WriteByte('\n')
			indent(b, depth)
		}
		b.WriteByte('}')

	case *NumberLiteral:
		b.WriteString(strconv.FormatInt(n.Value, 10))

	case *StringLiteral:
		quote := "'"
		if strings.Contains(n.Value, "'") {
			quote = `"`
		}
		b.WriteString(quote)
		b.WriteString(n.Value)
		b.WriteString(quote)

	case *Identifier:
		b.WriteString(n.Name)

	case *BinaryExpression:
		power, rightAssociative, _ := token.InfixBindingPower(n.Operator.Kind)
		renderOperand(b, n.Left, power, !rightAssociative)
		b.WriteByte(' ')
		b.WriteString(n.Operator.Text)
		b.WriteByte(' ')
		renderOperand(b, n.Right, power, rightAssociative)

	case nil:
		b.WriteString("<nil>")

	default:
		panic(fmt.Sprintf("should not reach here: unknown node %T", node))
	}
}

// renderOperand wraps a nested binary expression in parentheses unless the
// parser would rebuild the same shape without them.
func renderOperand(b *strings.Builder, operand Expression, parentPower uint8, sameSide bool) {
	bin, ok := operand.(*BinaryExpression)
	if !ok {
		render(b, operand, 0)
		return
	}

	power, _, _ := token.InfixBindingPower(bin.Operator.Kind)
	if power > parentPower || (power == parentPower && sameSide) {
		render(b, operand, 0)
		return
	}

	b.WriteByte('(')
	render(b, operand, 0)
	b.WriteByte(')')
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("\t")
	}
}
