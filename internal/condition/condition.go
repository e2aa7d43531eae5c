package condition

import (
	"sync"
)

// Expr is a compiled condition. It is immutable and safe for concurrent use.
type Expr struct {
	src  string
	root node
}

// Compile parses a condition.
func Compile(src string) (*Expr, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Expr{src: src, root: root}, nil
}

// String returns the source text.
func (e *Expr) String() string {
	return e.src
}

// Eval returns the numeric value of the expression.
func (e *Expr) Eval(env Env) (float64, error) {
	return e.root.eval(env)
}

// Truthy evaluates the expression and reports whether the result is non-zero.
func (e *Expr) Truthy(env Env) (bool, error) {
	v, err := e.Eval(env)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

type compiled struct {
	expr *Expr
	err  error
}

// Cache compiles each distinct source text once.
// The zero value is ready to use.
type Cache struct {
	entries sync.Map // string -> compiled
}

// Compile returns the cached compilation of src, compiling it on first use.
// Syntax errors are cached too.
func (c *Cache) Compile(src string) (*Expr, error) {
	if v, ok := c.entries.Load(src); ok {
		entry := v.(compiled)
		return entry.expr, entry.err
	}
	expr, err := Compile(src)
	v, _ := c.entries.LoadOrStore(src, compiled{expr: expr, err: err})
	entry := v.(compiled)
	return entry.expr, entry.err
}

// Eval compiles src through the cache and evaluates its truthiness.
func (c *Cache) Eval(src string, env Env) (bool, error) {
	expr, err := c.Compile(src)
	if err != nil {
		return false, err
	}
	return expr.Truthy(env)
}
