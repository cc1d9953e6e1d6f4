package trigger

import (
	"github.com/randalmurphal/healthsim/pkg/healthsim/expr"
)

// Condition decides whether a trigger fires for a given firing context.
// Implementations must not modify the context.
type Condition interface {
	Evaluate(ctx map[string]any) bool
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func(ctx map[string]any) bool

func (f ConditionFunc) Evaluate(ctx map[string]any) bool { return f(ctx) }

// ExprCondition evaluates a compiled string expression.
type ExprCondition struct {
	expr *expr.Expression
}

// Expr compiles s into a Condition. See package expr for the grammar.
func Expr(s string) (*ExprCondition, error) {
	e, err := expr.Compile(s)
	if err != nil {
		return nil, err
	}
	return &ExprCondition{expr: e}, nil
}

// MustExpr is like Expr but panics on a malformed expression.
func MustExpr(s string) *ExprCondition {
	c, err := Expr(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *ExprCondition) Evaluate(ctx map[string]any) bool { return c.expr.Eval(ctx) }

func (c *ExprCondition) String() string { return c.expr.String() }
