// Package expr compiles and evaluates the coordinate expressions of a
// parametric surface. Sources are parsed with the expr-lang grammar and
// restricted to numeric literals, arithmetic (including ** for powers), a
// fixed function table, a few constants and the variables the caller
// allows; nothing else is accepted.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

var (
	// ErrDisallowed is wrapped by ExpressionError when a source references
	// a name or construct outside the allow-list.
	ErrDisallowed = errors.New("disallowed expression")
	// ErrDomain is wrapped by EvaluationError when evaluation produces a
	// non-finite value (log of non-positive, divide by zero, overflow ...).
	ErrDomain = errors.New("math domain error")
)

// ExpressionError reports a source that failed to parse or referenced
// something outside the allow-list.
type ExpressionError struct {
	Slot   string
	Source string
	Err    error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression %s = %q: %v", e.Slot, e.Source, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

// Env holds variable bindings for evaluation.
type Env map[string]float64

// Expr is a compiled expression.
type Expr struct {
	slot   string
	source string
	root   node
}

// Slot returns the name the expression was compiled for.
func (e *Expr) Slot() string { return e.slot }

// String returns the original source.
func (e *Expr) String() string { return e.source }

// Eval evaluates the expression against env. Variables missing from env
// evaluate as 0.
func (e *Expr) Eval(env Env) (float64, error) {
	return e.root.eval(env)
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

// Compile parses source for slot, allowing only the given variable names.
// An empty (or whitespace) source compiles to the constant 0.
func Compile(slot, source string, allowed []string) (*Expr, error) {
	if strings.TrimSpace(source) == "" {
		return &Expr{slot: slot, source: source, root: constNode(0)}, nil
	}

	tree, err := parser.Parse(source)
	if err != nil {
		return nil, &ExpressionError{Slot: slot, Source: source, Err: err}
	}

	vars := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		vars[name] = true
	}

	c := compiler{vars: vars}
	root, err := c.compile(tree.Node)
	if err != nil {
		return nil, &ExpressionError{Slot: slot, Source: source, Err: err}
	}
	return &Expr{slot: slot, source: source, root: root}, nil
}

type compiler struct {
	vars map[string]bool
}

// Binary operators accepted in sources. ^ is XOR in the preset files, not a power.
var binaryOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true, "**": true}

func (c *compiler) compile(n ast.Node) (node, error) {
	switch n := n.(type) {
	case *ast.IntegerNode:
		return constNode(float64(n.Value)), nil

	case *ast.FloatNode:
		return constNode(n.Value), nil

	case *ast.IdentifierNode:
		if c.vars[n.Value] {
			return varNode(n.Value), nil
		}
		if v, ok := constants[n.Value]; ok {
			return constNode(v), nil
		}
		return nil, fmt.Errorf("%w: name %q", ErrDisallowed, n.Value)

	case *ast.UnaryNode:
		x, err := c.compile(n.Node)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "+":
			return x, nil
		case "-":
			return negNode{x}, nil
		}
		return nil, fmt.Errorf("%w: operator %s", ErrDisallowed, n.Operator)

	case *ast.BinaryNode:
		if !binaryOps[n.Operator] {
			return nil, fmt.Errorf("%w: operator %s", ErrDisallowed, n.Operator)
		}
		x, err := c.compile(n.Left)
		if err != nil {
			return nil, err
		}
		y, err := c.compile(n.Right)
		if err != nil {
			return nil, err
		}
		return binaryNode{op: n.Operator, x: x, y: y}, nil

	case *ast.CallNode:
		ident, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("%w: only plain function names can be called", ErrDisallowed)
		}
		return c.call(ident.Value, n.Arguments)

	case *ast.BuiltinNode:
		// The parser turns some names (ceil, floor, ...) into builtins
		return c.call(n.Name, n.Arguments)
	}

	return nil, fmt.Errorf("%w: %s", ErrDisallowed, describe(n))
}

func (c *compiler) call(name string, argNodes []ast.Node) (node, error) {
	fn, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: function %q", ErrDisallowed, name)
	}
	if len(argNodes) < fn.minArgs || len(argNodes) > fn.maxArgs {
		return nil, fmt.Errorf("%w: %s takes %s arguments, got %d", ErrDisallowed, name, fn.arity(), len(argNodes))
	}
	args := make([]node, len(argNodes))
	for i, a := range argNodes {
		arg, err := c.compile(a)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return callNode{name: name, fn: fn.call, args: args}, nil
}

// describe names a rejected construct in words.
func describe(n ast.Node) string {
	switch n.(type) {
	case *ast.StringNode:
		return "string literal"
	case *ast.BoolNode:
		return "boolean literal"
	case *ast.NilNode:
		return "nil"
	case *ast.MemberNode, *ast.ChainNode:
		return "member access or indexing"
	case *ast.SliceNode:
		return "slicing"
	case *ast.ConditionalNode:
		return "conditional expression"
	case *ast.ArrayNode, *ast.MapNode, *ast.PairNode:
		return "collection literal"
	case *ast.ClosureNode, *ast.PointerNode:
		return "closure"
	}
	return "unsupported syntax"
}

type node interface {
	eval(env Env) (float64, error)
}

type constNode float64

func (n constNode) eval(Env) (float64, error) { return float64(n), nil }

type varNode string

func (n varNode) eval(env Env) (float64, error) { return env[string(n)], nil }

type negNode struct{ x node }

func (n negNode) eval(env Env) (float64, error) {
	v, err := n.x.eval(env)
	return -v, err
}

type binaryNode struct {
	op   string
	x, y node
}

func (n binaryNode) eval(env Env) (float64, error) {
	a, err := n.x.eval(env)
	if err != nil {
		return 0, err
	}
	b, err := n.y.eval(env)
	if err != nil {
		return 0, err
	}

	var r float64
	switch n.op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "**":
		return power(a, b)
	case "/":
		if b == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrDomain)
		}
		r = a / b
	case "%":
		if b == 0 {
			return 0, fmt.Errorf("%w: modulo by zero", ErrDomain)
		}
		r = floorMod(a, b)
	}
	return finite(n.op, r)
}

type callNode struct {
	name string
	fn   func(args []float64) (float64, error)
	args []node
}

func (n callNode) eval(env Env) (float64, error) {
	var buf [2]float64
	vals := buf[:len(n.args)]
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	r, err := n.fn(vals)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", n.name, err)
	}
	return finite(n.name, r)
}

func finite(op string, r float64) (float64, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("%w: %s produced %v", ErrDomain, op, r)
	}
	return r, nil
}

// floorMod matches the sign of the divisor.
func floorMod(a, b float64) float64 {
	return a - b*math.Floor(a/b)
}
