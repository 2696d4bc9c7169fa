package condition

import (
	"errors"
	"fmt"
)

var (
	ErrMissingVariable   = errors.New("missing variable")
	ErrUndefinedFunction = errors.New("function is not defined")
)

type Function func(args ...any) (any, error)

// Context supplies the variables and functions a condition may reference.
type Context struct {
	Variables map[string]any
	Functions map[string]Function
}

// Program is a compiled condition, safe to evaluate many times.
type Program struct {
	source string
	expr   Expr
}

// Compile parses a condition expression. An empty source compiles to a
// program that always evaluates to true.
func Compile(source string) (*Program, error) {
	program := Program{
		source: source,
	}

	if source == "" {
		return &program, nil
	}

	expr, err := newParser(newLexer(source)).parse()
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", source, err)
	}

	program.expr = expr

	return &program, nil
}

func (p *Program) Source() string {
	return p.source
}

// Evaluate runs the program and coerces the result to a boolean.
func (p *Program) Evaluate(evalContext Context) (bool, error) {
	if p.expr == nil {
		return true, nil
	}

	value, err := evaluate(evalContext, p.expr)
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", p.source, err)
	}

	return convertToBoolean(value), nil
}

func evaluate(evalContext Context, expr Expr) (any, error) {
	switch expr := expr.(type) {
	case *Binary:
		return evaluateBinary(evalContext, expr)

	case *Unary:
		operand, err := evaluate(evalContext, expr.Operand)
		if err != nil {
			return nil, err
		}

		return !convertToBoolean(operand), nil

	case *FunctionCall:
		return evaluateFunctionCall(evalContext, expr)

	case *Identifier:
		value, ok := evalContext.Variables[expr.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingVariable, expr.Name)
		}

		return value, nil

	case *Literal:
		return expr.Value, nil

	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func evaluateBinary(evalContext Context, expr *Binary) (any, error) {
	switch expr.Operator {
	case "||":
		leftValue, err := evaluate(evalContext, expr.Left)
		if err != nil {
			return nil, err
		}

		if convertToBoolean(leftValue) {
			return leftValue, nil
		}

		return evaluate(evalContext, expr.Right)

	case "&&":
		leftValue, err := evaluate(evalContext, expr.Left)
		if err != nil {
			return nil, err
		}

		if !convertToBoolean(leftValue) {
			return leftValue, nil
		}

		return evaluate(evalContext, expr.Right)
	}

	leftValue, err := evaluate(evalContext, expr.Left)
	if err != nil {
		return nil, err
	}

	rightValue, err := evaluate(evalContext, expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case "==":
		return valuesEqual(leftValue, rightValue), nil

	case "!=":
		return !valuesEqual(leftValue, rightValue), nil
	}

	return nil, fmt.Errorf("unsupported operator: %s", expr.Operator)
}

func evaluateFunctionCall(evalContext Context, expr *FunctionCall) (any, error) {
	function, ok := evalContext.Functions[expr.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedFunction, expr.Name)
	}

	args := make([]any, 0, len(expr.Args))
	for _, argExpr := range expr.Args {
		arg, err := evaluate(evalContext, argExpr)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	value, err := function(args...)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", expr.Name, err)
	}

	return value, nil
}

func valuesEqual(left, right any) bool {
	// numbers are always float64 after parsing, so direct comparison works
	// for the supported literal types
	return left == right
}

func convertToBoolean(value any) bool {
	switch value := value.(type) {
	case nil:
		return false

	case bool:
		return value

	case string:
		return value != ""

	case float64:
		return value != 0

	default:
		return true
	}
}
