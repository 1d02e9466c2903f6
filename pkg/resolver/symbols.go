package resolver

import (
	"sort"

	"stone/interpreter-go/pkg/ast"
)

// Scope is a symbol table in the resolver's scope chain.
type Scope interface {
	// Get searches outward for name.
	Get(name string) (ast.Location, bool)
	// Put resolves an assignment target, declaring it when it is not
	// visible in this scope or an enclosing non-global table.
	Put(name string) ast.Location
	Size() int

	lookup(name string, withGlobals bool) (ast.Location, bool)
}

type table struct {
	slots map[string]int
	names []string
}

func newTable() table { return table{slots: map[string]int{}} }

func (t *table) find(name string) (int, bool) {
	idx, ok := t.slots[name]
	return idx, ok
}

func (t *table) add(name string) int {
	if idx, ok := t.slots[name]; ok {
		return idx
	}
	idx := len(t.names)
	t.slots[name] = idx
	t.names = append(t.names, name)
	return idx
}

func (t *table) copyFrom(other *table) {
	for _, name := range other.names {
		t.add(name)
	}
}

//-----------------------------------------------------------------------------
// Symbols
//-----------------------------------------------------------------------------

// Symbols is a lexical scope: a global table, a function body or a closure.
type Symbols struct {
	table
	outer  Scope
	global bool
}

// NewSymbols returns a function or closure scope nested in outer.
func NewSymbols(outer Scope) *Symbols {
	return &Symbols{table: newTable(), outer: outer}
}

// NewGlobalSymbols returns the outermost table. Assignments in nested
// function scopes never reach it.
func NewGlobalSymbols() *Symbols {
	return &Symbols{table: newTable(), global: true}
}

func (s *Symbols) IsGlobal() bool { return s.global }
func (s *Symbols) Size() int      { return len(s.names) }

// Names lists the declared names in slot order.
func (s *Symbols) Names() []string { return append([]string(nil), s.names...) }

// Find returns the slot of a name declared in this table only.
func (s *Symbols) Find(name string) (int, bool) { return s.find(name) }

// Add declares name in this table, returning the existing slot if present.
func (s *Symbols) Add(name string) int { return s.add(name) }

func (s *Symbols) Get(name string) (ast.Location, bool) { return s.lookup(name, true) }

func (s *Symbols) lookup(name string, withGlobals bool) (ast.Location, bool) {
	if s.global && !withGlobals {
		return ast.Location{}, false
	}
	if idx, ok := s.find(name); ok {
		return ast.Location{Nest: 0, Index: idx}, true
	}
	if s.outer == nil {
		return ast.Location{}, false
	}
	loc, ok := s.outer.lookup(name, withGlobals)
	if !ok {
		return loc, false
	}
	if loc.IsMember() {
		if _, direct := s.outer.(*MemberSymbols); !direct {
			loc.This++
		}
		return loc, true
	}
	loc.Nest++
	return loc, true
}

func (s *Symbols) Put(name string) ast.Location {
	if idx, ok := s.find(name); ok {
		return ast.Location{Nest: 0, Index: idx}
	}
	if !s.global {
		if loc, ok := s.lookup(name, false); ok {
			return loc
		}
	}
	return ast.Location{Nest: 0, Index: s.add(name)}
}

//-----------------------------------------------------------------------------
// MemberSymbols
//-----------------------------------------------------------------------------

// MemberSymbols is a class field table or method table. Lookups through it
// do not count as a lexical hop: members live in the receiver.
type MemberSymbols struct {
	table
	outer Scope
	nest  int
}

// NewFieldSymbols returns a field table nested in outer.
func NewFieldSymbols(outer Scope) *MemberSymbols {
	return &MemberSymbols{table: newTable(), outer: outer, nest: ast.FieldNest}
}

// NewMethodSymbols returns a method table nested in outer.
func NewMethodSymbols(outer Scope) *MemberSymbols {
	return &MemberSymbols{table: newTable(), outer: outer, nest: ast.MethodNest}
}

func (m *MemberSymbols) Size() int                    { return len(m.names) }
func (m *MemberSymbols) Names() []string              { return append([]string(nil), m.names...) }
func (m *MemberSymbols) Find(name string) (int, bool) { return m.find(name) }
func (m *MemberSymbols) Add(name string) int          { return m.add(name) }

func (m *MemberSymbols) Get(name string) (ast.Location, bool) { return m.lookup(name, true) }

func (m *MemberSymbols) lookup(name string, withGlobals bool) (ast.Location, bool) {
	if idx, ok := m.find(name); ok {
		return ast.Location{Nest: m.nest, Index: idx}, true
	}
	if m.outer == nil {
		return ast.Location{}, false
	}
	return m.outer.lookup(name, withGlobals)
}

func (m *MemberSymbols) Put(name string) ast.Location {
	if loc, ok := m.lookup(name, false); ok {
		return loc
	}
	return ast.Location{Nest: m.nest, Index: m.add(name)}
}

//-----------------------------------------------------------------------------
// ThisSymbols
//-----------------------------------------------------------------------------

// ThisName is the implicit receiver parameter.
const ThisName = "this"

// ThisSymbols is the scope of field initializers: "this" at slot 0 and every
// assignment redirected to the field table.
type ThisSymbols struct {
	fields *MemberSymbols
}

// NewThisSymbols builds the method-body scope over a class's field table.
func NewThisSymbols(fields *MemberSymbols) *ThisSymbols {
	return &ThisSymbols{fields: fields}
}

func (t *ThisSymbols) Size() int { return 1 }

func (t *ThisSymbols) Get(name string) (ast.Location, bool) { return t.lookup(name, true) }

func (t *ThisSymbols) lookup(name string, withGlobals bool) (ast.Location, bool) {
	if name == ThisName {
		return ast.Location{Nest: 0, Index: 0}, true
	}
	loc, ok := t.fields.lookup(name, withGlobals)
	if ok && !loc.IsMember() {
		loc.Nest++
	}
	return loc, ok
}

func (t *ThisSymbols) Put(name string) ast.Location {
	if name == ThisName {
		return ast.Location{Nest: 0, Index: 0}
	}
	return t.fields.Put(name)
}

//-----------------------------------------------------------------------------
// ClassLayout
//-----------------------------------------------------------------------------

// ClassLayout is the flattened member layout of a class, superclass members
// first. Defs is indexed by method slot; an override replaces its parent's
// entry.
type ClassLayout struct {
	Fields  *MemberSymbols
	Methods *MemberSymbols
	Defs    []*ast.DefStatement
}

// FieldCount is the number of slots an instance needs.
func (l *ClassLayout) FieldCount() int { return l.Fields.Size() }

// Method returns the definition bound to name, if any.
func (l *ClassLayout) Method(name string) (*ast.DefStatement, int, bool) {
	idx, ok := l.Methods.Find(name)
	if !ok || idx >= len(l.Defs) {
		return nil, -1, false
	}
	return l.Defs[idx], idx, true
}

// MemberNames lists fields then methods, each sorted.
func (l *ClassLayout) MemberNames() []string {
	fields := l.Fields.Names()
	methods := l.Methods.Names()
	sort.Strings(fields)
	sort.Strings(methods)
	return append(fields, methods...)
}
