package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for expression compilation.
var (
	// ErrEmptyExpression indicates a blank expression or sub-expression.
	ErrEmptyExpression = errors.New("empty expression")

	// ErrMissingOperand indicates a comparison with nothing on one side.
	ErrMissingOperand = errors.New("missing operand")
)

// BinaryOp compares two resolved operands.
type BinaryOp func(left, right any) bool

type operator struct {
	token   string
	compare BinaryOp
}

// Symbolic operators are listed longest first so ">=" is not read as ">".
var operators = []operator{
	{" startswith ", func(l, r any) bool { return strings.HasPrefix(toString(l), toString(r)) }},
	{" contains ", func(l, r any) bool { return strings.Contains(toString(l), toString(r)) }},
	{" in ", inList},
	{"==", equals},
	{"!=", func(l, r any) bool { return !equals(l, r) }},
	{">=", numeric(func(l, r float64) bool { return l >= r })},
	{"<=", numeric(func(l, r float64) bool { return l <= r })},
	{">", numeric(func(l, r float64) bool { return l > r })},
	{"<", numeric(func(l, r float64) bool { return l < r })},
}

func equals(l, r any) bool {
	lf, lok := ToFloat64(l)
	rf, rok := ToFloat64(r)
	if lok && rok {
		return lf == rf
	}
	return toString(l) == toString(r)
}

func numeric(cmp func(l, r float64) bool) BinaryOp {
	return func(l, r any) bool {
		lf, lok := ToFloat64(l)
		rf, rok := ToFloat64(r)
		return lok && rok && cmp(lf, rf)
	}
}

func inList(l, r any) bool {
	needle := toString(l)
	for _, item := range strings.Split(toString(r), ",") {
		if strings.TrimSpace(item) == needle {
			return true
		}
	}
	return false
}

// Expression is a compiled condition. It is immutable and safe for
// concurrent use.
type Expression struct {
	source string
	root   node
}

type node interface {
	eval(vars map[string]any) bool
}

type orNode []node

func (n orNode) eval(vars map[string]any) bool {
	for _, child := range n {
		if child.eval(vars) {
			return true
		}
	}
	return false
}

type andNode []node

func (n andNode) eval(vars map[string]any) bool {
	for _, child := range n {
		if !child.eval(vars) {
			return false
		}
	}
	return true
}

type notNode struct{ inner node }

func (n notNode) eval(vars map[string]any) bool { return !n.inner.eval(vars) }

type compareNode struct {
	left, right string
	op          BinaryOp
}

func (n compareNode) eval(vars map[string]any) bool {
	return n.op(Resolve(n.left, vars), Resolve(n.right, vars))
}

type truthNode struct{ operand string }

func (n truthNode) eval(vars map[string]any) bool { return IsTruthy(Resolve(n.operand, vars)) }

// Compile parses s into an Expression.
func Compile(s string) (*Expression, error) {
	root, err := parseOr(s)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", s, err)
	}
	return &Expression{source: s, root: root}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(s string) *Expression {
	e, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval evaluates the expression against vars.
func (e *Expression) Eval(vars map[string]any) bool {
	return e.root.eval(vars)
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}

// Eval compiles and evaluates s in one step.
func Eval(s string, vars map[string]any) (bool, error) {
	e, err := Compile(s)
	if err != nil {
		return false, err
	}
	return e.Eval(vars), nil
}

func parseOr(s string) (node, error) {
	parts := splitOutside(s, " or ")
	if len(parts) == 1 {
		return parseAnd(s)
	}
	n := make(orNode, 0, len(parts))
	for _, p := range parts {
		child, err := parseAnd(p)
		if err != nil {
			return nil, err
		}
		n = append(n, child)
	}
	return n, nil
}

func parseAnd(s string) (node, error) {
	parts := splitOutside(s, " and ")
	if len(parts) == 1 {
		return parseUnary(s)
	}
	n := make(andNode, 0, len(parts))
	for _, p := range parts {
		child, err := parseUnary(p)
		if err != nil {
			return nil, err
		}
		n = append(n, child)
	}
	return n, nil
}

func parseUnary(s string) (node, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyExpression
	}
	if s == "not" || s == "!" {
		return nil, fmt.Errorf("%w after %q", ErrMissingOperand, s)
	}
	if rest, ok := strings.CutPrefix(s, "not "); ok {
		inner, err := parseUnary(rest)
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	if rest, ok := strings.CutPrefix(s, "!"); ok && !strings.HasPrefix(rest, "=") {
		inner, err := parseUnary(rest)
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}

	for _, op := range operators {
		i := indexOutside(s, op.token)
		if i < 0 {
			continue
		}
		left, right := s[:i], s[i+len(op.token):]
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if left == "" || right == "" {
			return nil, fmt.Errorf("%w around %q", ErrMissingOperand, strings.TrimSpace(op.token))
		}
		return compareNode{left: left, right: right, op: op.compare}, nil
	}
	return truthNode{operand: s}, nil
}

// indexOutside returns the index of the first sep in s that is not inside a
// single- or double-quoted literal, or -1.
func indexOutside(s, sep string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(s[i:], sep):
			return i
		}
	}
	return -1
}

// splitOutside splits s around each sep that is not inside a quoted literal.
func splitOutside(s, sep string) []string {
	var parts []string
	for {
		i := indexOutside(s, sep)
		if i < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:i])
		s = s[i+len(sep):]
	}
}
