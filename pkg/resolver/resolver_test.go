package resolver

import (
	"errors"
	"strings"
	"testing"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/lexer"
	"stone/interpreter-go/pkg/parser"
)

func parse(t *testing.T, src string) []ast.Node {
	t.Helper()
	units, err := parser.NewGrammar(parser.FullGrammar()).ParseAll(lexer.NewString(src))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return units
}

// names collects every Name node with the given spelling in pre-order.
func names(node ast.Node, spelling string) []*ast.Name {
	var out []*ast.Name
	ast.Inspect(node, func(n ast.Node) bool {
		if name, ok := n.(*ast.Name); ok && name.Value() == spelling {
			out = append(out, name)
		}
		return true
	})
	return out
}

func resolveAll(t *testing.T, globals *Symbols, units []ast.Node) {
	t.Helper()
	for _, unit := range units {
		if err := Resolve(unit, globals); err != nil {
			t.Fatalf("resolve %s: %v", unit, err)
		}
	}
}

func TestGlobalsAndLocals(t *testing.T) {
	globals := NewGlobalSymbols()
	units := parse(t, "x = 1\ndef f(a) { y = a + x; y }")
	resolveAll(t, globals, units)

	if idx, ok := globals.Find("x"); !ok || idx != 0 {
		t.Fatalf("x should be global slot 0, got %d %v", idx, ok)
	}
	def := units[1].(*ast.DefStatement)
	if def.Index != 1 || def.Size != 2 {
		t.Fatalf("def annotations index=%d size=%d", def.Index, def.Size)
	}
	if loc := names(def, "a")[0].Loc; *loc != (ast.Location{Nest: 0, Index: 0}) {
		t.Fatalf("parameter location %v", loc)
	}
	if loc := names(def, "x")[0].Loc; *loc != (ast.Location{Nest: 1, Index: 0}) {
		t.Fatalf("global read from function %v", loc)
	}
	ys := names(def, "y")
	if len(ys) != 2 || *ys[0].Loc != (ast.Location{Nest: 0, Index: 1}) || *ys[1].Loc != *ys[0].Loc {
		t.Fatalf("local y misplaced")
	}
}

func TestAssignmentInsideFunctionShadowsGlobal(t *testing.T) {
	globals := NewGlobalSymbols()
	units := parse(t, "x = 1\ndef f() { x = 2 }")
	resolveAll(t, globals, units)
	loc := names(units[1], "x")[0].Loc
	if loc.Nest != 0 || loc.Index != 0 {
		t.Fatalf("assignment in a function must declare a local, got %v", loc)
	}
	if globals.Size() != 2 {
		t.Fatalf("globals should hold x and f, got %v", globals.Names())
	}
}

func TestClosureAssignsEnclosingLocal(t *testing.T) {
	globals := NewGlobalSymbols()
	units := parse(t, "def counter() { c = 0; fun () { c = c + 1 } }")
	resolveAll(t, globals, units)
	cs := names(units[0], "c")
	if len(cs) != 3 {
		t.Fatalf("expected three references to c, got %d", len(cs))
	}
	for _, c := range cs[1:] {
		if *c.Loc != (ast.Location{Nest: 1, Index: 0}) {
			t.Fatalf("closure should reach the enclosing local, got %v", c.Loc)
		}
	}
	closure := units[0].(*ast.DefStatement).Body().Child(1).(*ast.Closure)
	if closure.Size != 0 {
		t.Fatalf("closure declares no locals, size=%d", closure.Size)
	}
}

func TestRightSideResolvedBeforeTarget(t *testing.T) {
	globals := NewGlobalSymbols()
	units := parse(t, "def f() { z = z }")
	resolveAll(t, globals, units)
	zs := names(units[0], "z")
	if zs[0].Loc == nil || zs[1].Loc != nil {
		t.Fatalf("read of z must stay unresolved before its declaration: %v %v", zs[0].Loc, zs[1].Loc)
	}
}

func TestUnresolvedReadsStayNil(t *testing.T) {
	globals := NewGlobalSymbols()
	units := parse(t, "print(later)")
	resolveAll(t, globals, units)
	if names(units[0], "later")[0].Loc != nil || names(units[0], "print")[0].Loc != nil {
		t.Fatalf("unknown names should be left for the by-name fallback")
	}
}

func TestResolveClassLayout(t *testing.T) {
	globals := NewGlobalSymbols()
	units := parse(t, strings.Join([]string{
		"class A { x = 1; def get() { x }; def name() { \"A\" } }",
		"class B extends A { y = x + 1; def name() { fun () { y } } }",
	}, "\n"))
	resolveAll(t, globals, units)

	a := units[0].(*ast.ClassStatement)
	b := units[1].(*ast.ClassStatement)
	if a.Index != 0 || b.Index != 1 {
		t.Fatalf("class slots %d %d", a.Index, b.Index)
	}

	res := New()
	la, err := res.ResolveClass(a, nil, globals)
	if err != nil {
		t.Fatalf("resolve A: %v", err)
	}
	lb, err := res.ResolveClass(b, la, globals)
	if err != nil {
		t.Fatalf("resolve B: %v", err)
	}

	if la.FieldCount() != 1 || lb.FieldCount() != 2 {
		t.Fatalf("field counts %d %d", la.FieldCount(), lb.FieldCount())
	}
	if got := strings.Join(lb.MemberNames(), ","); got != "x,y,get,name" {
		t.Fatalf("member names %s", got)
	}
	override, idx, ok := lb.Method("name")
	if !ok || idx != 1 || override.Body().Len() != 1 {
		t.Fatalf("override must reuse the parent slot, idx=%d", idx)
	}
	if parent, _, _ := la.Method("name"); parent == override {
		t.Fatalf("superclass layout must keep its own definition")
	}
	if inherited, _, _ := lb.Method("get"); inherited != la.Defs[0] {
		t.Fatalf("inherited method should be shared")
	}

	xRead := names(b, "x")[0]
	if *xRead.Loc != (ast.Location{Nest: ast.FieldNest, Index: 0}) {
		t.Fatalf("field initializer read %v", xRead.Loc)
	}
	yInClosure := names(b, "y")[1]
	if *yInClosure.Loc != (ast.Location{Nest: ast.FieldNest, Index: 1, This: 1}) {
		t.Fatalf("closure in method must reach this one hop out, got %v", yInClosure.Loc)
	}
	getDef, _, _ := la.Method("get")
	if getDef.Size != 1 {
		t.Fatalf("method scope holds this only, size=%d", getDef.Size)
	}
}

func TestMethodsSeeGlobalsAndParameters(t *testing.T) {
	globals := NewGlobalSymbols()
	units := parse(t, "limit = 3\nclass C { def m(n) { this.k = n + limit } }")
	resolveAll(t, globals, units)
	cls := units[1].(*ast.ClassStatement)
	if _, err := New().ResolveClass(cls, nil, globals); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc := names(cls, "limit")[0].Loc; *loc != (ast.Location{Nest: 1, Index: 0}) {
		t.Fatalf("global read from method %v", loc)
	}
	if loc := names(cls, "this")[0].Loc; *loc != (ast.Location{Nest: 0, Index: 0}) {
		t.Fatalf("this read from method %v", loc)
	}
	if loc := names(cls, "n")[0].Loc; *loc != (ast.Location{Nest: 0, Index: 1}) {
		t.Fatalf("parameter after this %v", loc)
	}
}

func TestResolverDepthLimit(t *testing.T) {
	src := "x = " + strings.Repeat("(", 60) + "1" + strings.Repeat(")", 60)
	units := parse(t, "-1\n"+src)
	globals := NewGlobalSymbols()
	deep := New(WithMaxDepth(3))
	if err := deep.Resolve(units[1], globals); err != nil {
		t.Fatalf("parentheses add no tree levels: %v", err)
	}
	nested := parse(t, "def f() { if 1 { if 1 { if 1 { 1 } } } }")
	err := deep.Resolve(nested[0], globals)
	if !errors.Is(err, diag.ErrStackExhausted) {
		t.Fatalf("expected stack exhaustion, got %v", err)
	}
}
