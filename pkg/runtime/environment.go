package runtime

import (
	"fmt"
	"sort"

	"stone/interpreter-go/pkg/resolver"
)

// Environment stores Stone variables. Resolved code addresses slots by
// (nest, index); unresolved code addresses names. A read of a slot that was
// never assigned reports ok == false.
type Environment interface {
	Get(name string) (Value, bool)
	// Put assigns name where it is already bound in a non-global scope and
	// defines it in this environment otherwise.
	Put(name string, value Value)
	Define(name string, value Value)
	GetAt(nest, index int) (Value, bool)
	PutAt(nest, index int, value Value) error
	Outer() Environment
}

func outerAt(env Environment, nest int) (Environment, error) {
	for ; nest > 0; nest-- {
		env = env.Outer()
		if env == nil {
			return nil, fmt.Errorf("runtime: scope chain shorter than %d", nest)
		}
	}
	return env, nil
}

//-----------------------------------------------------------------------------
// BasicEnv
//-----------------------------------------------------------------------------

// BasicEnv is a name-only environment without an outer scope. It holds the
// native functions beneath the globals.
type BasicEnv struct {
	values map[string]Value
}

// NewBasicEnv returns an empty builtin scope.
func NewBasicEnv() *BasicEnv {
	return &BasicEnv{values: make(map[string]Value)}
}

// Get returns the value bound to name.
func (e *BasicEnv) Get(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Put binds name, replacing any previous value.
func (e *BasicEnv) Put(name string, value Value) { e.values[name] = value }

// Define binds name in this scope.
func (e *BasicEnv) Define(name string, value Value) { e.values[name] = value }

// Outer is always nil; the builtin scope is the root.
func (e *BasicEnv) Outer() Environment { return nil }

// GetAt always misses; the builtin scope has no slots.
func (e *BasicEnv) GetAt(nest, index int) (Value, bool) { return nil, false }

// PutAt always fails; the builtin scope has no slots.
func (e *BasicEnv) PutAt(nest, index int, value Value) error {
	return fmt.Errorf("runtime: builtin scope has no slots")
}

// Keys returns the bindings in sorted order.
func (e *BasicEnv) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

//-----------------------------------------------------------------------------
// NestedEnv
//-----------------------------------------------------------------------------

// NestedEnv is the by-name scope of a call to an unresolved function.
type NestedEnv struct {
	values map[string]Value
	outer  Environment
}

// NewNestedEnv creates an empty by-name scope under outer.
func NewNestedEnv(outer Environment) *NestedEnv {
	return &NestedEnv{values: make(map[string]Value), outer: outer}
}

// Get searches this scope, then the outer chain.
func (e *NestedEnv) Get(name string) (Value, bool) {
	if v, ok := e.values[name]; ok {
		return v, true
	}
	if e.outer == nil {
		return nil, false
	}
	return e.outer.Get(name)
}

// Put updates the nearest enclosing NestedEnv that binds name and defines
// it here otherwise. It never writes into the globals.
func (e *NestedEnv) Put(name string, value Value) {
	for env := Environment(e); env != nil; env = env.Outer() {
		nested, ok := env.(*NestedEnv)
		if !ok {
			break
		}
		if _, bound := nested.values[name]; bound {
			nested.values[name] = value
			return
		}
	}
	e.values[name] = value
}

// Define binds name in this scope only.
func (e *NestedEnv) Define(name string, value Value) { e.values[name] = value }

// Outer exposes the enclosing scope.
func (e *NestedEnv) Outer() Environment { return e.outer }

// GetAt skips this scope, which has no slots, and reads nest-1 levels out.
func (e *NestedEnv) GetAt(nest, index int) (Value, bool) {
	if nest == 0 || e.outer == nil {
		return nil, false
	}
	return e.outer.GetAt(nest-1, index)
}

// PutAt skips this scope and writes nest-1 levels out.
func (e *NestedEnv) PutAt(nest, index int, value Value) error {
	if nest == 0 || e.outer == nil {
		return fmt.Errorf("runtime: by-name scope has no slots")
	}
	return e.outer.PutAt(nest-1, index, value)
}

//-----------------------------------------------------------------------------
// ArrayEnv
//-----------------------------------------------------------------------------

// ArrayEnv is the fixed-size slot scope of a resolved call.
type ArrayEnv struct {
	values []Value
	outer  Environment
}

// NewArrayEnv creates size empty slots under outer.
func NewArrayEnv(size int, outer Environment) *ArrayEnv {
	return &ArrayEnv{values: make([]Value, size), outer: outer}
}

// Get delegates by-name reads to the outer chain.
func (e *ArrayEnv) Get(name string) (Value, bool) {
	if e.outer == nil {
		return nil, false
	}
	return e.outer.Get(name)
}

// Put delegates by-name writes to the outer chain.
func (e *ArrayEnv) Put(name string, value Value) {
	if e.outer != nil {
		e.outer.Put(name, value)
	}
}

// Define behaves like Put.
func (e *ArrayEnv) Define(name string, value Value) { e.Put(name, value) }

// Outer exposes the enclosing scope.
func (e *ArrayEnv) Outer() Environment { return e.outer }

// Size is the number of slots.
func (e *ArrayEnv) Size() int { return len(e.values) }

// GetAt reads slot index of the scope nest levels out.
func (e *ArrayEnv) GetAt(nest, index int) (Value, bool) {
	if nest > 0 {
		if e.outer == nil {
			return nil, false
		}
		return e.outer.GetAt(nest-1, index)
	}
	if index < 0 || index >= len(e.values) || e.values[index] == nil {
		return nil, false
	}
	return e.values[index], true
}

// PutAt writes slot index of the scope nest levels out.
func (e *ArrayEnv) PutAt(nest, index int, value Value) error {
	if nest > 0 {
		target, err := outerAt(e, nest)
		if err != nil {
			return err
		}
		return target.PutAt(0, index, value)
	}
	if index < 0 || index >= len(e.values) {
		return fmt.Errorf("runtime: slot %d outside a scope of %d", index, len(e.values))
	}
	e.values[index] = value
	return nil
}

//-----------------------------------------------------------------------------
// ResizableEnv
//-----------------------------------------------------------------------------

// ResizableEnv is the global scope. It shares the resolver's global table so
// names declared by later units get slots here; growth replaces only the
// backing slice.
type ResizableEnv struct {
	symbols *resolver.Symbols
	values  []Value
	outer   Environment
}

// NewResizableEnv creates the global scope over symbols, with outer as the
// builtin layer.
func NewResizableEnv(symbols *resolver.Symbols, outer Environment) *ResizableEnv {
	return &ResizableEnv{symbols: symbols, values: make([]Value, symbols.Size()), outer: outer}
}

// Symbols returns the shared global table.
func (e *ResizableEnv) Symbols() *resolver.Symbols { return e.symbols }

// Outer exposes the builtin layer.
func (e *ResizableEnv) Outer() Environment { return e.outer }

// Get reads a global by name, falling back to the builtin layer.
func (e *ResizableEnv) Get(name string) (Value, bool) {
	if idx, ok := e.symbols.Find(name); ok && idx < len(e.values) && e.values[idx] != nil {
		return e.values[idx], true
	}
	if e.outer == nil {
		return nil, false
	}
	return e.outer.Get(name)
}

// Put behaves like Define; globals are never read-only.
func (e *ResizableEnv) Put(name string, value Value) { e.Define(name, value) }

// Define binds name, registering it in the global table when new.
func (e *ResizableEnv) Define(name string, value Value) {
	idx := e.symbols.Add(name)
	e.grow(idx + 1)
	e.values[idx] = value
}

func (e *ResizableEnv) grow(n int) {
	if n <= len(e.values) {
		return
	}
	if n <= cap(e.values) {
		e.values = e.values[:n]
		return
	}
	grown := make([]Value, n, 2*n)
	copy(grown, e.values)
	e.values = grown
}

// GetAt reads a global slot, or a builtin slot when nest > 0.
func (e *ResizableEnv) GetAt(nest, index int) (Value, bool) {
	if nest > 0 {
		if e.outer == nil {
			return nil, false
		}
		return e.outer.GetAt(nest-1, index)
	}
	if index < 0 || index >= len(e.values) || e.values[index] == nil {
		return nil, false
	}
	return e.values[index], true
}

// PutAt writes a global slot, growing the scope when needed.
func (e *ResizableEnv) PutAt(nest, index int, value Value) error {
	if nest > 0 {
		if e.outer == nil {
			return fmt.Errorf("runtime: scope chain shorter than %d", nest)
		}
		return e.outer.PutAt(nest-1, index, value)
	}
	if index < 0 {
		return fmt.Errorf("runtime: negative global slot %d", index)
	}
	e.grow(index + 1)
	e.values[index] = value
	return nil
}

// Names lists the global names that currently hold a value.
func (e *ResizableEnv) Names() []string {
	var out []string
	for i, name := range e.symbols.Names() {
		if i < len(e.values) && e.values[i] != nil {
			out = append(out, name)
		}
	}
	return out
}
