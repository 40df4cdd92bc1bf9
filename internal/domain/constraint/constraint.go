// Package constraint defines pure predicates evaluated over an access
// request, used both to attenuate capabilities (Filter) and to gate policy
// rules (PolicyRule.Condition).
package constraint

import (
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/lion-wasm/lion/internal/domain/access"
)

// Environment carries the ambient values a Constraint may reference besides
// the request itself: wall-clock time and per-subject quota counters. The
// checker populates this fresh for every evaluation.
type Environment struct {
	Now     time.Time
	Quota   map[string]int64 // arbitrary named counters, e.g. "requests_today"
}

// Constraint is a pure predicate over (request, environment). Implementations
// must not allocate on a scale proportional to request volume and must not
// perform I/O.
type Constraint interface {
	Evaluate(r access.Request, env Environment) bool
	String() string
}

// exprEnv is the flattened view of a Request+Environment handed to compiled
// expr-lang programs.
type exprEnv struct {
	Kind   string            `expr:"kind"`
	Plugin string            `expr:"plugin"`
	Target string            `expr:"target"`
	Params map[string]string `expr:"params"`
	Now    time.Time         `expr:"now"`
	Quota  map[string]int64  `expr:"quota"`
}

func toExprEnv(r access.Request, env Environment) exprEnv {
	return exprEnv{
		Kind:   string(r.Kind),
		Plugin: r.Plugin.String(),
		Target: r.Target,
		Params: r.Parameters,
		Now:    env.Now,
		Quota:  env.Quota,
	}
}

// programCache compiles each distinct expression exactly once, following the
// teacher's StatusAggregator caching pattern.
var programCache = struct {
	sync.RWMutex
	m map[string]*vm.Program
}{m: make(map[string]*vm.Program)}

func compile(expression string) (*vm.Program, error) {
	programCache.RLock()
	if p, ok := programCache.m[expression]; ok {
		programCache.RUnlock()
		return p, nil
	}
	programCache.RUnlock()

	program, err := expr.Compile(expression, expr.Env(exprEnv{}), expr.AsBool(), expr.MaxNodes(2000))
	if err != nil {
		return nil, err
	}

	programCache.Lock()
	programCache.m[expression] = program
	programCache.Unlock()

	return program, nil
}

// Expr is a Constraint backed by a compiled expr-lang boolean expression,
// evaluated against kind/plugin/target/params/now/quota.
type Expr struct {
	source  string
	program *vm.Program
}

// NewExpr compiles expression once and returns a reusable Constraint.
// Example expressions: `target == "evil.example.com"`, `params.port == "443"`.
func NewExpr(expression string) (*Expr, error) {
	program, err := compile(expression)
	if err != nil {
		return nil, err
	}
	return &Expr{source: expression, program: program}, nil
}

func (e *Expr) Evaluate(r access.Request, env Environment) bool {
	out, err := expr.Run(e.program, toExprEnv(r, env))
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}

func (e *Expr) String() string { return e.source }

// Not negates an inner constraint.
type Not struct{ Inner Constraint }

func (n Not) Evaluate(r access.Request, env Environment) bool { return !n.Inner.Evaluate(r, env) }
func (n Not) String() string                                  { return "not(" + n.Inner.String() + ")" }

// And requires every inner constraint to hold.
type And []Constraint

func (a And) Evaluate(r access.Request, env Environment) bool {
	for _, c := range a {
		if !c.Evaluate(r, env) {
			return false
		}
	}
	return true
}
func (a And) String() string { return joinConstraints(a, " && ") }

// Or requires at least one inner constraint to hold.
type Or []Constraint

func (o Or) Evaluate(r access.Request, env Environment) bool {
	for _, c := range o {
		if c.Evaluate(r, env) {
			return true
		}
	}
	return false
}
func (o Or) String() string { return joinConstraints(o, " || ") }

func joinConstraints(cs []Constraint, sep string) string {
	s := ""
	for i, c := range cs {
		if i > 0 {
			s += sep
		}
		s += c.String()
	}
	return s
}

// Always is a Constraint that always evaluates to v; useful as a neutral
// element (e.g. attenuate with Always(true) is a no-op filter).
type Always bool

func (a Always) Evaluate(access.Request, Environment) bool { return bool(a) }
func (a Always) String() string {
	if a {
		return "true"
	}
	return "false"
}
