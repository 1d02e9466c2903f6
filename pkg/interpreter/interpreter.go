// Package interpreter evaluates resolved Stone trees.
package interpreter

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/resolver"
	"stone/interpreter-go/pkg/runtime"
)

// DefaultMaxDepth bounds evaluation nesting when no limit is configured.
const DefaultMaxDepth = 10000

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxDepth bounds evaluation and resolution nesting; n <= 0 keeps the default.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxDepth = n
		}
	}
}

// WithLogger sets the logger for unit and call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithResolve switches the resolver pass on or off. Without it every name is
// looked up by name and every call runs in a NestedEnv.
func WithResolve(enabled bool) Option {
	return func(i *Interpreter) { i.resolve = enabled }
}

// WithOutput sends print output to w.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithInput feeds the read native from r.
func WithInput(r io.Reader) Option {
	return func(i *Interpreter) { i.in = bufio.NewReader(r) }
}

// WithNatives restricts the standard natives to names; empty installs all.
func WithNatives(names []string) Option {
	return func(i *Interpreter) { i.nativeNames = names }
}

// Interpreter drives evaluation of Stone units against its global scope.
type Interpreter struct {
	builtins *runtime.BasicEnv
	globals  *runtime.ResizableEnv
	natives  *Natives
	resolver *resolver.Resolver

	resolve     bool
	maxDepth    int
	depth       int
	logger      *slog.Logger
	out         io.Writer
	in          *bufio.Reader
	nativeNames []string
	started     time.Time
}

// New returns an interpreter with the standard natives installed.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		resolve:  true,
		maxDepth: DefaultMaxDepth,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.in == nil {
		i.in = bufio.NewReader(os.Stdin)
	}
	i.builtins = runtime.NewBasicEnv()
	i.globals = runtime.NewResizableEnv(resolver.NewGlobalSymbols(), i.builtins)
	i.natives = &Natives{env: i.builtins}
	i.resolver = resolver.New(resolver.WithMaxDepth(i.maxDepth), resolver.WithLogger(i.logger))
	i.installStandardNatives(i.nativeNames)
	return i
}

// GlobalEnvironment returns the global scope.
func (i *Interpreter) GlobalEnvironment() *runtime.ResizableEnv { return i.globals }

// Natives returns the native registry.
func (i *Interpreter) Natives() *Natives { return i.natives }

// Execute resolves unit against the globals, unless resolution is off, and
// evaluates it.
func (i *Interpreter) Execute(unit ast.Node) (runtime.Value, error) {
	if i.resolve {
		if err := i.resolver.Resolve(unit, i.globals.Symbols()); err != nil {
			return nil, err
		}
	}
	i.depth = 0
	return i.Eval(unit, i.globals)
}

func (i *Interpreter) debug(msg string, args ...any) {
	if i.logger != nil && i.logger.Enabled(context.Background(), slog.LevelDebug) {
		i.logger.Debug(msg, args...)
	}
}

// Eval evaluates node in env.
func (i *Interpreter) Eval(node ast.Node, env runtime.Environment) (runtime.Value, error) {
	i.depth++
	defer func() { i.depth-- }()
	if i.depth > i.maxDepth {
		return nil, diag.StackExhausted("interpreter", i.maxDepth, node.Line())
	}

	switch n := node.(type) {
	case *ast.NumberLiteral:
		return runtime.Int(n.Value), nil
	case *ast.StringLiteral:
		return runtime.Str(n.Value()), nil
	case *ast.Name:
		return i.evaluateName(n, env)
	case *ast.NullStatement:
		return runtime.Null, nil
	case *ast.BlockStatement:
		return i.evaluateBlock(n, env)
	case *ast.BinaryOp:
		return i.evaluateBinaryOp(n, env)
	case *ast.NegativeExpr:
		return i.evaluateNegative(n, env)
	case *ast.IfStatement:
		return i.evaluateIf(n, env)
	case *ast.WhileStatement:
		return i.evaluateWhile(n, env)
	case *ast.PrimaryExpr:
		return i.evaluatePostfix(n, env, 0)
	case *ast.DefStatement:
		return i.evaluateDef(n, env)
	case *ast.Closure:
		return &runtime.FunctionValue{
			Params: n.Parameters().Names(),
			Body:   n.Body(),
			Env:    env,
			Size:   n.Size,
		}, nil
	case *ast.ClassStatement:
		return i.evaluateClass(n, env)
	case *ast.ArrayLiteral:
		return i.evaluateArrayLiteral(n, env)
	default:
		return nil, diag.At(diag.KindType, node.Line(), "cannot evaluate %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateBlock(block *ast.BlockStatement, env runtime.Environment) (runtime.Value, error) {
	result := runtime.Null
	for _, stmt := range block.Children() {
		if _, skip := stmt.(*ast.NullStatement); skip {
			continue
		}
		val, err := i.Eval(stmt, env)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

func (i *Interpreter) condition(node ast.Node, env runtime.Environment) (bool, error) {
	val, err := i.Eval(node, env)
	if err != nil {
		return false, err
	}
	// Only a non-zero integer is true.
	truth, _ := runtime.Truthy(val)
	return truth, nil
}

func (i *Interpreter) evaluateIf(stmt *ast.IfStatement, env runtime.Environment) (runtime.Value, error) {
	truth, err := i.condition(stmt.Condition(), env)
	if err != nil {
		return nil, err
	}
	if truth {
		return i.Eval(stmt.Then(), env)
	}
	if alt := stmt.Else(); alt != nil {
		return i.Eval(alt, env)
	}
	return runtime.Int(0), nil
}

func (i *Interpreter) evaluateWhile(stmt *ast.WhileStatement, env runtime.Environment) (runtime.Value, error) {
	result := runtime.Int(0)
	for {
		truth, err := i.condition(stmt.Condition(), env)
		if err != nil {
			return nil, err
		}
		if !truth {
			return result, nil
		}
		if result, err = i.Eval(stmt.Body(), env); err != nil {
			return nil, err
		}
	}
}

func (i *Interpreter) evaluateDef(def *ast.DefStatement, env runtime.Environment) (runtime.Value, error) {
	fn := &runtime.FunctionValue{
		Name:   def.Name(),
		Params: def.Parameters().Names(),
		Body:   def.Body(),
		Env:    env,
		Size:   def.Size,
	}
	if err := i.bind(env, def.Index, def.Name(), fn, def.Line()); err != nil {
		return nil, err
	}
	return runtime.Str(def.Name()), nil
}

// bind stores a definition in its resolved slot, or by name when unresolved.
func (i *Interpreter) bind(env runtime.Environment, index int, name string, val runtime.Value, line int) error {
	if index < 0 {
		env.Put(name, val)
		return nil
	}
	if err := env.PutAt(0, index, val); err != nil {
		return diag.At(diag.KindAssignmentTarget, line, "cannot bind %s: %v", name, err)
	}
	return nil
}

func (i *Interpreter) evaluateArrayLiteral(lit *ast.ArrayLiteral, env runtime.Environment) (runtime.Value, error) {
	elements := make([]runtime.Value, 0, lit.Size())
	for _, child := range lit.Children() {
		val, err := i.Eval(child, env)
		if err != nil {
			return nil, err
		}
		elements = append(elements, val)
	}
	return runtime.NewArray(elements), nil
}
