// Package condition compiles and evaluates the boolean `when` expressions
// gating pipeline stages.
package condition

type Expr interface {
	exprNode()
}

type (
	Binary struct {
		Left     Expr
		Operator string
		Right    Expr
	}

	Unary struct {
		Operator string
		Operand  Expr
	}

	FunctionCall struct {
		Name string
		Args []Expr
	}

	Identifier struct {
		Name string
	}

	Literal struct {
		Value any
	}
)

func (*Binary) exprNode()       {}
func (*Unary) exprNode()        {}
func (*FunctionCall) exprNode() {}
func (*Identifier) exprNode()   {}
func (*Literal) exprNode()      {}
