package parser

import (
	"sort"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/lexer"
)

// Precedence is an operator's binding strength; higher binds tighter.
type Precedence struct {
	Level     int
	LeftAssoc bool
}

// Operators maps operator spellings to their precedence.
type Operators map[string]Precedence

// Add registers an operator.
func (o Operators) Add(name string, level int, leftAssoc bool) {
	o[name] = Precedence{Level: level, LeftAssoc: leftAssoc}
}

// Names returns the registered spellings in sorted order.
func (o Operators) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StoneOperators returns the Stone operator table.
func StoneOperators() Operators {
	ops := Operators{}
	ops.Add("=", 1, false)
	ops.Add("==", 2, true)
	ops.Add(">", 2, true)
	ops.Add("<", 2, true)
	ops.Add("+", 3, true)
	ops.Add("-", 3, true)
	ops.Add("*", 4, true)
	ops.Add("/", 4, true)
	ops.Add("%", 4, true)
	return ops
}

type expression struct {
	factor  *Rule
	ops     Operators
	factory Factory
}

func (e *expression) parse(s *state, out []ast.Node) ([]ast.Node, error) {
	left, err := e.factor.parse(s)
	if err != nil {
		return nil, err
	}
	for {
		prec, ok, err := e.next(s)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if left, err = e.shift(s, left, prec.Level); err != nil {
			return nil, err
		}
	}
	return append(out, left), nil
}

// shift reads the operator at the head of the stream and its right operand,
// folding in every following operator that binds tighter than level.
func (e *expression) shift(s *state, left ast.Node, level int) (ast.Node, error) {
	tok, err := s.stream.Read()
	if err != nil {
		return nil, err
	}
	op := ast.NewLeaf(tok.Text, tok.Line)
	right, err := e.factor.parse(s)
	if err != nil {
		return nil, err
	}
	for {
		next, ok, err := e.next(s)
		if err != nil {
			return nil, err
		}
		if !ok || !rightIsExpr(level, next) {
			break
		}
		if right, err = e.shift(s, right, next.Level); err != nil {
			return nil, err
		}
	}
	return e.factory([]ast.Node{left, op, right})
}

func rightIsExpr(level int, next Precedence) bool {
	if next.LeftAssoc {
		return level < next.Level
	}
	return level <= next.Level
}

func (e *expression) next(s *state) (Precedence, bool, error) {
	tok, err := s.stream.Peek(0)
	if err != nil {
		return Precedence{}, false, err
	}
	if tok.Kind != lexer.KindIdentifier {
		return Precedence{}, false, nil
	}
	prec, ok := e.ops[tok.Text]
	return prec, ok, nil
}

func (e *expression) match(s *state) (bool, error) { return e.factor.match(s) }
func (e *expression) describe() string             { return e.factor.describe() }
