package parser

import (
	"sort"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/lexer"
)

// GrammarOptions selects the language layers on top of the basic statements.
// Closures and classes need functions and switch them on.
type GrammarOptions struct {
	Functions bool `yaml:"functions"`
	Closures  bool `yaml:"closures"`
	Classes   bool `yaml:"classes"`
	Arrays    bool `yaml:"arrays"`
}

// FullGrammar enables every layer.
func FullGrammar() GrammarOptions {
	return GrammarOptions{Functions: true, Closures: true, Classes: true, Arrays: true}
}

var keywords = []string{"if", "else", "while", "def", "class", "extends", "fun", "new"}

var punctuation = []string{";", "}", ")", "]", "{", "(", "[", ",", ".", lexer.EOL}

// Grammar is the Stone grammar. Each Parse call reads one top-level unit.
type Grammar struct {
	opts     GrammarOptions
	ops      Operators
	reserved map[string]bool
	program  *Rule
	settings []Option
}

func nameLeaf(tok lexer.Token) (ast.Node, error) { return ast.NewName(tok.Text, tok.Line), nil }

// NewGrammar assembles the basic grammar and layers the selected features
// onto it in place.
func NewGrammar(opts GrammarOptions, settings ...Option) *Grammar {
	if opts.Closures || opts.Classes {
		opts.Functions = true
	}
	g := &Grammar{opts: opts, ops: StoneOperators(), reserved: map[string]bool{}, settings: settings}
	for _, word := range append(append([]string{}, keywords...), punctuation...) {
		g.reserved[word] = true
	}
	for name := range g.ops {
		g.reserved[name] = true
	}
	reserved := g.reserved

	// basic
	expr := NewRule(nil).Named("expr")
	primary := NewRule(ast.NewPrimaryExpr).Named("primary").Or(
		NewRule(nil).Sep("(").Ast(expr).Sep(")"),
		NewRule(nil).Number(nil),
		NewRule(nil).Identifier(reserved, nameLeaf),
		NewRule(nil).String(nil),
	)
	factor := NewRule(nil).Named("factor").Or(
		NewRule(ast.NewNegativeExpr).Sep("-").Ast(primary),
		primary,
	)
	expr.Expression(factor, g.ops, ast.NewBinaryOp)

	statement := NewRule(nil).Named("statement")
	block := NewRule(ast.NewBlockStatement).Named("block").
		Sep("{").Option(statement).
		Repeat(NewRule(nil).Sep(";", lexer.EOL).Option(statement)).
		Sep("}")
	simple := NewRule(ast.NewPrimaryExpr).Named("simple").Ast(expr)
	statement.Or(
		NewRule(ast.NewIfStatement).Sep("if").Ast(expr).Ast(block).
			Option(NewRule(nil).Sep("else").Ast(block)),
		NewRule(ast.NewWhileStatement).Sep("while").Ast(expr).Ast(block),
		simple,
	)
	g.program = NewRule(nil).Named("program").
		Or(statement, NewRule(ast.NewNullStatement)).
		Sep(";", lexer.EOL)

	if !opts.Functions {
		return g
	}

	param := NewRule(nil).Identifier(reserved, nil)
	params := NewRule(ast.NewParameterList).Ast(param).Repeat(NewRule(nil).Sep(",").Ast(param))
	paramList := NewRule(nil).Sep("(").Maybe(params).Sep(")")
	def := NewRule(ast.NewDefStatement).Named("def").
		Sep("def").Identifier(reserved, nil).Ast(paramList).Ast(block)
	args := NewRule(ast.NewArguments).Named("args").Ast(expr).Repeat(NewRule(nil).Sep(",").Ast(expr))
	postfix := NewRule(nil).Named("postfix").Sep("(").Maybe(args).Sep(")")
	primary.Repeat(postfix)
	simple.Option(args)
	g.program.InsertChoice(def)

	if opts.Closures {
		primary.InsertChoice(NewRule(ast.NewClosure).Named("fun").Sep("fun").Ast(paramList).Ast(block))
	}

	if opts.Classes {
		member := NewRule(nil).Named("member").Or(def, simple)
		classBody := NewRule(ast.NewClassBody).Named("class_body").
			Sep("{").Option(member).
			Repeat(NewRule(nil).Sep(";", lexer.EOL).Option(member)).
			Sep("}")
		class := NewRule(ast.NewClassStatement).Named("class").
			Sep("class").Identifier(reserved, nil).
			Option(NewRule(nil).Sep("extends").Identifier(reserved, nil)).
			Ast(classBody)
		postfix.InsertChoice(NewRule(ast.NewDot).Sep(".").Or(
			NewRule(nil).Identifier(reserved, nil),
			NewRule(nil).Token("new"),
		))
		g.program.InsertChoice(class)
	}

	if opts.Arrays {
		elements := NewRule(ast.NewArrayLiteral).Ast(expr).Repeat(NewRule(nil).Sep(",").Ast(expr))
		primary.InsertChoice(NewRule(nil).Sep("[").Maybe(elements).Sep("]"))
		postfix.InsertChoice(NewRule(ast.NewArrayRef).Sep("[").Ast(expr).Sep("]"))
	}
	return g
}

// Options reports the enabled layers.
func (g *Grammar) Options() GrammarOptions { return g.opts }

// Operators returns the operator table.
func (g *Grammar) Operators() Operators { return g.ops }

// IsReserved reports whether word can never be an identifier.
func (g *Grammar) IsReserved(word string) bool { return g.reserved[word] }

// Reserved lists the reserved spellings in sorted order.
func (g *Grammar) Reserved() []string {
	out := make([]string, 0, len(g.reserved))
	for word := range g.reserved {
		out = append(out, word)
	}
	sort.Strings(out)
	return out
}

// Parse reads one top-level unit, including its terminating ";" or end of line.
// Per-call options override the ones given to NewGrammar.
func (g *Grammar) Parse(stream TokenStream, opts ...Option) (ast.Node, error) {
	return g.program.Parse(stream, append(append([]Option{}, g.settings...), opts...)...)
}

// AtEOF reports whether stream has no tokens left.
func (g *Grammar) AtEOF(stream TokenStream) (bool, error) {
	tok, err := stream.Peek(0)
	if err != nil {
		return false, err
	}
	return tok.IsEOF(), nil
}

// ParseAll reads units until the end of stream.
func (g *Grammar) ParseAll(stream TokenStream, opts ...Option) ([]ast.Node, error) {
	var units []ast.Node
	for {
		done, err := g.AtEOF(stream)
		if err != nil {
			return units, err
		}
		if done {
			return units, nil
		}
		unit, err := g.Parse(stream, opts...)
		if err != nil {
			return units, err
		}
		units = append(units, unit)
	}
}
