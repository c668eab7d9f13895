package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/karupanerura/tuffie/internal/ast"
	"github.com/karupanerura/tuffie/internal/token"
	"github.com/karupanerura/tuffie/internal/types"
)

// Function is the value bound by a function declaration.
type Function struct {
	Declaration *ast.FunctionDeclaration
}

func (f *Function) String() string {
	return fmt.Sprintf("fn %s(%s)", f.Declaration.Name, strings.Join(f.Declaration.Parameters, ", "))
}

func (f *Function) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

type Evaluator struct {
	Environment *types.Environment
}

func New() *Evaluator {
	return &Evaluator{Environment: types.NewEnvironment()}
}

// EvaluateProgram runs every statement in order and returns one result per
// statement. Evaluation stops at the first error.
func (e *Evaluator) EvaluateProgram(program *ast.Program) ([]any, error) {
	results := make([]any, 0, len(program.Body))
	for i, stmt := range program.Body {
		ret, err := e.EvaluateStatement(stmt)
		if err != nil {
			return nil, fmt.Errorf("statement=%d: %w", i+1, err)
		}
		results = append(results, ret)
	}
	return results, nil
}

func (e *Evaluator) EvaluateStatement(stmt ast.Statement) (any, error) {
	switch s := stmt.(type) {
	case *ast.LetBinding:
		v, err := e.EvaluateExpression(s.Expression)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		if s.Constant {
			err = e.Environment.SetConstant(s.Name, v)
		} else {
			err = e.Environment.Set(s.Name, v)
		}
		if err != nil {
			return nil, err
		}
		return v, nil

	case *ast.ExpressionStatement:
		return e.EvaluateExpression(s.Expression)

	case *ast.FunctionDeclaration:
		f := &Function{Declaration: s}
		if err := e.Environment.Set(s.Name, f); err != nil {
			return nil, err
		}
		return f, nil

	default:
		panic(fmt.Sprintf("should not reach here: unknown statement %T", stmt))
	}
}

func (e *Evaluator) EvaluateExpression(expr ast.Expression) (any, error) {
	switch x := expr.(type) {
	case *ast.NumberLiteral:
		return x.Value, nil

	case *ast.StringLiteral:
		return x.Value, nil

	case *ast.Identifier:
		v, ok := e.Environment.Get(x.Name)
		if !ok {
			return nil, &types.Error{
				Tag: types.KeyErrorTag,
				Err: fmt.Errorf("undefined variable %q", x.Name),
			}
		}
		return v, nil

	case *ast.BinaryExpression:
		left, err := e.EvaluateExpression(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.EvaluateExpression(x.Right)
		if err != nil {
			return nil, err
		}
		return calculateBinary(x.Operator, left, right)

	default:
		panic(fmt.Sprintf("should not reach here: unknown expression %T", expr))
	}
}

func calculateBinary(op token.Token, left, right any) (any, error) {
	switch l := left.(type) {
	case int64:
		if r, ok := right.(int64); ok {
			return calculateInt64(op, l, r)
		}

	case string:
		if r, ok := right.(string); ok && op.Kind == token.Plus {
			return l + r, nil
		}
	}

	return nil, &types.Error{
		Tag:   types.TypeErrorTag,
		Err:   fmt.Errorf("unsupported operand types for %s: %s and %s", op.Text, typeName(left), typeName(right)),
		Extra: map[string]any{
			"operator": op.Text,
			"left":     typeName(left),
			"right":    typeName(right),
		},
	}
}

func typeName(v any) string {
	switch v.(type) {
	case int64:
		return "number"
	case string:
		return "string"
	case *Function:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func calculateInt64(op token.Token, l, r int64) (any, error) {
	var (
		ret int64
		ok  bool
	)
	switch op.Kind {
	case token.Plus:
		ret, ok = addInt64(l, r)
	case token.Minus:
		ret, ok = subInt64(l, r)
	case token.Star:
		ret, ok = mulInt64(l, r)
	case token.Slash:
		if r == 0 {
			return nil, &types.Error{
				Tag: types.ZeroDivisionErrorTag,
				Err: fmt.Errorf("division by zero: %d / %d", l, r),
			}
		}
		ret, ok = l/r, !(l == math.MinInt64 && r == -1)
	case token.Caret:
		if r < 0 {
			return nil, &types.Error{
				Tag: types.ValueErrorTag,
				Err: fmt.Errorf("negative exponent: %d ^ %d", l, r),
			}
		}
		ret, ok = powInt64(l, r)
	default:
		panic(fmt.Sprintf("should not reach here: unknown operator %s", op))
	}

	if !ok {
		return nil, &types.Error{
			Tag: types.ValueErrorTag,
			Err: fmt.Errorf("integer overflow: %d %s %d", l, op.Text, r),
		}
	}
	return ret, nil
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

func subInt64(a, b int64) (int64, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}

// powInt64 is exponentiation by squaring. The base is only squared while
// exponent bits remain.
func powInt64(base, exp int64) (int64, bool) {
	result := int64(1)
	for {
		var ok bool
		if exp&1 == 1 {
			if result, ok = mulInt64(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp == 0 {
			return result, true
		}
		if base, ok = mulInt64(base, base); !ok {
			return 0, false
		}
	}
}
