package parser

import (
	"errors"
	"strings"
	"testing"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/lexer"
)

func parseUnits(t *testing.T, g *Grammar, src string) []ast.Node {
	t.Helper()
	units, err := g.ParseAll(lexer.NewString(src))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return units
}

func parseOne(t *testing.T, src string) ast.Node {
	t.Helper()
	units := parseUnits(t, NewGrammar(FullGrammar()), src)
	if len(units) != 1 {
		t.Fatalf("expected one unit for %q, got %d", src, len(units))
	}
	return units[0]
}

func TestExpressionPrecedenceAndAssociativity(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"a = b = 3", "(a = (b = 3))"},
		{"x = 1 + 2 == 3", "(x = ((1 + 2) == 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"-x * 2", "(-x * 2)"},
		{"a % b / c", "((a % b) / c)"},
		{"a < b == c > d", "(((a < b) == c) > d)"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			if got := parseOne(t, tc.src).String(); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStatements(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"if x { 1 } else { 2 }", "(if x then (1) else (2))"},
		{"if x { 1 }", "(if x then (1))"},
		{"while i < 10 { i = i + 1; j }", "(while (i < 10) do ((i = (i + 1)) j))"},
		{"def f(a, b) { a + b }", "(def f (a b) ((a + b)))"},
		{"def g() { }", "(def g () ())"},
		{"f(1, 2)(3)", "(f (1 2) (3))"},
		{"print 1, 2", "(print (1 2))"},
		{"h = fun (x) { x }", "(h = (fun (x) (x)))"},
		{"class B extends A { x = 1; def m() { x } }", "(class B : A ((x = 1) (def m () (x))))"},
		{"p = Point.new", "(p = (Point .new))"},
		{"a.b.c = 1", "((a .b .c) = 1)"},
		{"a = [1, \"s\", [2]]", `(a = [1, "s", [2]])`},
		{"a[0][1]", "(a [0] [1])"},
		{"e = []", "(e = [])"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			if got := parseOne(t, tc.src).String(); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNodeVariants(t *testing.T) {
	n := parseOne(t, "def f(a) { a }")
	def, ok := n.(*ast.DefStatement)
	if !ok {
		t.Fatalf("expected *ast.DefStatement, got %T", n)
	}
	if def.Name() != "f" || def.Parameters().Size() != 1 {
		t.Fatalf("unexpected def %s", def)
	}
	if _, ok := def.Body().Child(0).(*ast.Name); !ok {
		t.Fatalf("body reference should be a Name, got %T", def.Body().Child(0))
	}

	call := parseOne(t, "f()").(*ast.PrimaryExpr)
	args, ok := call.Postfix(0).(*ast.Arguments)
	if !ok || args.Size() != 0 {
		t.Fatalf("empty call should carry empty Arguments, got %v", call.Postfix(0))
	}
}

func TestProgramUnits(t *testing.T) {
	units := parseUnits(t, NewGrammar(FullGrammar()), "x = 1; y = 2\n\nz")
	if len(units) != 4 {
		t.Fatalf("expected 4 units, got %d", len(units))
	}
	if _, ok := units[2].(*ast.NullStatement); !ok {
		t.Fatalf("blank line should be a NullStatement, got %T", units[2])
	}
}

func TestReservedWordsAreNotIdentifiers(t *testing.T) {
	g := NewGrammar(FullGrammar())
	for _, src := range []string{"while = 1", "x = new", "fun = 2", "def extends() { }"} {
		_, err := g.ParseAll(lexer.NewString(src))
		if !errors.Is(err, diag.ErrSyntax) {
			t.Fatalf("%q: expected syntax error, got %v", src, err)
		}
	}
	if !g.IsReserved(lexer.EOL) || !g.IsReserved("==") || g.IsReserved("this") {
		t.Fatalf("reserved set mismatch: %v", g.Reserved())
	}
}

func TestSyntaxErrorDetails(t *testing.T) {
	g := NewGrammar(FullGrammar())
	_, err := g.ParseAll(lexer.NewString("x = 1\nif x { 1 ) "))
	var derr *diag.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *diag.Error, got %v", err)
	}
	if derr.Line != 2 || derr.AtEOF || derr.Actual != `")"` {
		t.Fatalf("unexpected error details %+v", derr)
	}

	_, err = g.ParseAll(lexer.NewString("def f(a) {\n a + 1\n"))
	if !errors.As(err, &derr) || !derr.AtEOF {
		t.Fatalf("unterminated block should fail at end of input, got %v", err)
	}
}

func TestGrammarLayers(t *testing.T) {
	basic := NewGrammar(GrammarOptions{})
	if _, err := basic.ParseAll(lexer.NewString("def f() { 1 }")); err == nil {
		t.Fatalf("basic grammar must reject def")
	}
	parseUnits(t, basic, "while x < 3 { x = x + 1 }")

	noArrays := NewGrammar(GrammarOptions{Functions: true})
	if _, err := noArrays.ParseAll(lexer.NewString("a = [1]")); err == nil {
		t.Fatalf("array literal must need the arrays layer")
	}
	if !NewGrammar(GrammarOptions{Classes: true}).Options().Functions {
		t.Fatalf("classes imply functions")
	}
}

func TestMaxDepth(t *testing.T) {
	src := strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200)
	_, err := NewGrammar(FullGrammar()).ParseAll(lexer.NewString(src), WithMaxDepth(50))
	if !errors.Is(err, diag.ErrStackExhausted) {
		t.Fatalf("expected stack exhaustion, got %v", err)
	}
	if _, err := NewGrammar(FullGrammar()).ParseAll(lexer.NewString(src)); err != nil {
		t.Fatalf("default depth should parse nesting of 200: %v", err)
	}
}

func TestCombinators(t *testing.T) {
	reserved := map[string]bool{",": true, "(": true, ")": true, lexer.EOL: true}
	item := NewRule(nil).Identifier(reserved, nil)
	list := NewRule(nil).Ast(item).Repeat(NewRule(nil).Sep(",").Ast(item))

	n, err := list.Parse(lexer.NewString("a, b, c"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n.String() != "(a b c)" {
		t.Fatalf("unexpected list %s", n)
	}

	rule := NewRule(nil).Token("x")
	rule.InsertChoice(NewRule(nil).Token("y"))
	for _, src := range []string{"x", "y"} {
		ok, err := rule.Match(lexer.NewString(src))
		if err != nil || !ok {
			t.Fatalf("rule should match %q after InsertChoice", src)
		}
	}

	rule.Reset(nil)
	if ok, _ := rule.Match(lexer.NewString("z")); !ok {
		t.Fatalf("an empty rule matches anything")
	}

	empty := NewRule(nil).Sep("(").Maybe(NewRule(ast.NewArguments).Ast(item)).Sep(")")
	n, err = empty.Parse(lexer.NewString("()"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if args, ok := n.(*ast.Arguments); !ok || args.Size() != 0 {
		t.Fatalf("maybe should keep the factory for the empty branch, got %T", n)
	}
}
