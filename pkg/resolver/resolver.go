// Package resolver places every name of a Stone tree at a static location
// before evaluation: a lexical slot counted in scope hops, a class field or a
// class method. Annotations are written into the tree in place.
package resolver

import (
	"context"
	"log/slog"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
)

// DefaultMaxDepth bounds the tree walk when no limit is configured.
const DefaultMaxDepth = 10000

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth bounds the tree walk; n <= 0 keeps the default.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithLogger reports resolution events at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// Resolver walks trees and annotates them. It holds no scope state between
// calls; scopes are passed in explicitly.
type Resolver struct {
	maxDepth int
	logger   *slog.Logger
	depth    int
}

// New returns a resolver with DefaultMaxDepth unless overridden.
func New(opts ...Option) *Resolver {
	r := &Resolver{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve annotates node against scope with a default resolver.
func Resolve(node ast.Node, scope Scope) error {
	return New().Resolve(node, scope)
}

// Resolve annotates node. Reads that cannot be placed are left unresolved
// and fall back to a by-name lookup when evaluated.
func (r *Resolver) Resolve(node ast.Node, scope Scope) error {
	r.depth = 0
	return r.visit(node, scope)
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.logger != nil && r.logger.Enabled(context.Background(), slog.LevelDebug) {
		r.logger.Debug(msg, args...)
	}
}

func (r *Resolver) visit(node ast.Node, scope Scope) error {
	if node == nil {
		return nil
	}
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.maxDepth {
		return diag.StackExhausted("resolver", r.maxDepth, node.Line())
	}

	switch n := node.(type) {
	case *ast.Name:
		if loc, ok := scope.Get(n.Value()); ok {
			n.Loc = &loc
		} else {
			n.Loc = nil
			r.debug("unresolved name", "name", n.Value(), "line", n.Line())
		}
		return nil
	case *ast.BinaryOp:
		if n.Operator() == "=" {
			return r.assign(n, scope)
		}
	case *ast.DefStatement:
		loc := scope.Put(n.Name())
		n.Index = loc.Index
		size, err := r.function(n.Parameters(), n.Body(), NewSymbols(scope))
		if err != nil {
			return err
		}
		n.Size = size
		return nil
	case *ast.Closure:
		size, err := r.function(n.Parameters(), n.Body(), NewSymbols(scope))
		if err != nil {
			return err
		}
		n.Size = size
		return nil
	case *ast.ClassStatement:
		// Members are placed by ResolveClass once the superclass is known.
		n.Index = scope.Put(n.Name()).Index
		return nil
	case *ast.Dot, *ast.ParameterList:
		return nil
	}
	for _, child := range node.Children() {
		if err := r.visit(child, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) assign(n *ast.BinaryOp, scope Scope) error {
	if err := r.visit(n.Right(), scope); err != nil {
		return err
	}
	if target, ok := n.Left().(*ast.Name); ok {
		loc := scope.Put(target.Value())
		target.Loc = &loc
		return nil
	}
	return r.visit(n.Left(), scope)
}

// function declares the parameters in fn, resolves body in it and returns
// the number of slots a call needs.
func (r *Resolver) function(params *ast.ParameterList, body *ast.BlockStatement, fn *Symbols) (int, error) {
	for _, name := range params.Names() {
		fn.Add(name)
	}
	if err := r.visit(body, fn); err != nil {
		return 0, err
	}
	return fn.Size(), nil
}

// ResolveClass builds the layout of stmt on top of super (nil for a root
// class) and resolves the class body. Field initializers are resolved with
// "this" at slot 0; each method gets a scope of this plus its parameters
// whose outer chain is fields, methods, then globals.
func (r *Resolver) ResolveClass(stmt *ast.ClassStatement, super *ClassLayout, globals Scope) (*ClassLayout, error) {
	r.depth = 0
	methods := NewMethodSymbols(globals)
	fields := NewFieldSymbols(methods)
	var defs []*ast.DefStatement
	if super != nil {
		methods.copyFrom(&super.Methods.table)
		fields.copyFrom(&super.Fields.table)
		defs = append(defs, super.Defs...)
	}

	body := stmt.Body().Children()
	for _, member := range body {
		def, ok := member.(*ast.DefStatement)
		if !ok {
			continue
		}
		def.Index = methods.Add(def.Name())
		for len(defs) <= def.Index {
			defs = append(defs, nil)
		}
		defs[def.Index] = def
	}

	this := NewThisSymbols(fields)
	for _, member := range body {
		if _, ok := member.(*ast.DefStatement); ok {
			continue
		}
		if err := r.visit(member, this); err != nil {
			return nil, err
		}
	}

	for _, member := range body {
		def, ok := member.(*ast.DefStatement)
		if !ok {
			continue
		}
		scope := NewSymbols(fields)
		scope.Add(ThisName)
		size, err := r.function(def.Parameters(), def.Body(), scope)
		if err != nil {
			return nil, err
		}
		def.Size = size
	}

	layout := &ClassLayout{Fields: fields, Methods: methods, Defs: defs}
	r.debug("resolved class", "class", stmt.Name(), "fields", fields.Size(), "methods", methods.Size())
	return layout, nil
}
