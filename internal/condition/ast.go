package condition

import (
	"errors"
	"fmt"
	"math"
)

// ErrDivisionByZero is returned when a condition divides by zero.
var ErrDivisionByZero = errors.New("division by zero")

// UnknownIdentifierError is returned when a condition references a name
// that is not in the evaluation environment.
type UnknownIdentifierError struct {
	Name string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier %q", e.Name)
}

// Env resolves identifiers during evaluation.
type Env interface {
	Lookup(name string) (float64, bool)
}

// MapEnv adapts a count mapping to Env.
type MapEnv map[string]int

func (m MapEnv) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return float64(v), ok
}

type node interface {
	eval(env Env) (float64, error)
}

type numberLit float64

func (n numberLit) eval(Env) (float64, error) { return float64(n), nil }

type ident string

func (n ident) eval(env Env) (float64, error) {
	v, ok := env.Lookup(string(n))
	if !ok {
		return 0, &UnknownIdentifierError{Name: string(n)}
	}
	return v, nil
}

type unary struct {
	op string
	x  node
}

func (n *unary) eval(env Env) (float64, error) {
	v, err := n.x.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "-":
		return -v, nil
	case "+":
		return v, nil
	default: // "!"
		return boolValue(v == 0), nil
	}
}

// logical short-circuits and yields the deciding operand.
type logical struct {
	op   string
	l, r node
}

func (n *logical) eval(env Env) (float64, error) {
	l, err := n.l.eval(env)
	if err != nil {
		return 0, err
	}
	if (n.op == "||") == (l != 0) {
		return l, nil
	}
	return n.r.eval(env)
}

type binary struct {
	op   string
	l, r node
}

func (n *binary) eval(env Env) (float64, error) {
	l, err := n.l.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	case "//":
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Floor(l / r), nil
	default: // "%"
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		// The result takes the sign of the divisor.
		m := math.Mod(l, r)
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return m, nil
	}
}

// comparison holds a chain such as a < b <= c, true when every link holds.
type comparison struct {
	ops      []string
	operands []node
}

func (n *comparison) eval(env Env) (float64, error) {
	left, err := n.operands[0].eval(env)
	if err != nil {
		return 0, err
	}
	for i, op := range n.ops {
		right, err := n.operands[i+1].eval(env)
		if err != nil {
			return 0, err
		}
		if !compare(op, left, right) {
			return 0, nil
		}
		left = right
	}
	return 1, nil
}

func compare(op string, l, r float64) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	default: // ">="
		return l >= r
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
