// Package parser implements a small LL(1) parser-combinator engine and the
// Stone grammar built from it. Rules are mutable: a grammar is assembled
// bottom-up and later layers extend earlier rules in place.
package parser

import (
	"context"
	"log/slog"
	"strings"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/lexer"
)

// TokenStream is the lookahead interface the engine consumes.
type TokenStream interface {
	Peek(i int) (lexer.Token, error)
	Read() (lexer.Token, error)
}

// Factory builds a list node from the children a rule collected.
type Factory func(children []ast.Node) (ast.Node, error)

// LeafFactory builds a leaf node from a single token.
type LeafFactory func(tok lexer.Token) (ast.Node, error)

// DefaultMaxDepth bounds rule nesting when no limit is configured.
const DefaultMaxDepth = 10000

// Option configures a parse.
type Option func(*state)

// WithMaxDepth bounds rule nesting; n <= 0 keeps the default.
func WithMaxDepth(n int) Option {
	return func(s *state) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithLogger traces named rule entries at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *state) { s.logger = logger }
}

type state struct {
	stream   TokenStream
	depth    int
	maxDepth int
	logger   *slog.Logger
}

func newState(stream TokenStream, opts []Option) *state {
	s := &state{stream: stream, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *state) enter(r *Rule) error {
	s.depth++
	if s.depth > s.maxDepth {
		tok, _ := s.stream.Peek(0)
		return diag.StackExhausted("parser", s.maxDepth, tok.Line)
	}
	if s.logger != nil && r.name != "" && s.logger.Enabled(context.Background(), slog.LevelDebug) {
		tok, _ := s.stream.Peek(0)
		s.logger.Debug("enter rule", "rule", r.name, "depth", s.depth, "token", tok.Describe(), "line", tok.Line)
	}
	return nil
}

func (s *state) leave() { s.depth-- }

func (s *state) mismatch(expected string) error {
	tok, err := s.stream.Peek(0)
	if err != nil {
		return err
	}
	return diag.Syntax(tok.Line, expected, tok.Describe(), tok.IsEOF())
}

type element interface {
	parse(s *state, out []ast.Node) ([]ast.Node, error)
	match(s *state) (bool, error)
	describe() string
}

// Rule is an ordered element list plus the factory applied to its result.
type Rule struct {
	name     string
	elements []element
	factory  Factory
}

// NewRule starts an empty rule. A nil factory returns a lone child unwrapped
// and wraps several children in an anonymous ast.List.
func NewRule(f Factory) *Rule {
	return &Rule{factory: f}
}

func (r *Rule) clone() *Rule {
	return &Rule{name: r.name, elements: append([]element(nil), r.elements...), factory: r.factory}
}

// Named labels the rule for debug tracing.
func (r *Rule) Named(name string) *Rule {
	r.name = name
	return r
}

// Parse consumes one match of the rule from stream.
func (r *Rule) Parse(stream TokenStream, opts ...Option) (ast.Node, error) {
	return r.parse(newState(stream, opts))
}

// Match reports whether the first element accepts the next token. An empty
// rule always matches.
func (r *Rule) Match(stream TokenStream) (bool, error) {
	return r.match(newState(stream, nil))
}

func (r *Rule) parse(s *state) (ast.Node, error) {
	if err := s.enter(r); err != nil {
		return nil, err
	}
	defer s.leave()
	var children []ast.Node
	for _, e := range r.elements {
		var err error
		if children, err = e.parse(s, children); err != nil {
			return nil, err
		}
	}
	return r.build(children)
}

func (r *Rule) build(children []ast.Node) (ast.Node, error) {
	if r.factory != nil {
		return r.factory(children)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return ast.NewList(children), nil
}

func (r *Rule) match(s *state) (bool, error) {
	if len(r.elements) == 0 {
		return true, nil
	}
	return r.elements[0].match(s)
}

func (r *Rule) describe() string {
	if len(r.elements) == 0 {
		return "nothing"
	}
	return r.elements[0].describe()
}

func (r *Rule) add(e element) *Rule {
	r.elements = append(r.elements, e)
	return r
}

// Number appends a number token; f defaults to ast.NewNumberLiteral.
func (r *Rule) Number(f LeafFactory) *Rule {
	if f == nil {
		f = func(tok lexer.Token) (ast.Node, error) {
			return ast.NewNumberLiteral(tok.Text, tok.Number, tok.Line), nil
		}
	}
	return r.add(&leafToken{what: "number", factory: f, accept: func(tok lexer.Token) bool {
		return tok.Kind == lexer.KindNumber
	}})
}

// String appends a string token; f defaults to ast.NewStringLiteral.
func (r *Rule) String(f LeafFactory) *Rule {
	if f == nil {
		f = func(tok lexer.Token) (ast.Node, error) {
			return ast.NewStringLiteral(tok.Text, tok.Line), nil
		}
	}
	return r.add(&leafToken{what: "string", factory: f, accept: func(tok lexer.Token) bool {
		return tok.Kind == lexer.KindString
	}})
}

// Identifier appends an identifier outside reserved; f defaults to ast.NewLeaf.
func (r *Rule) Identifier(reserved map[string]bool, f LeafFactory) *Rule {
	if f == nil {
		f = func(tok lexer.Token) (ast.Node, error) { return ast.NewLeaf(tok.Text, tok.Line), nil }
	}
	return r.add(&leafToken{what: "identifier", factory: f, accept: func(tok lexer.Token) bool {
		return tok.Kind == lexer.KindIdentifier && !tok.IsEOL() && !reserved[tok.Text]
	}})
}

// Token appends one of the given spellings, kept as an ast.Leaf.
func (r *Rule) Token(patterns ...string) *Rule {
	return r.add(&spelling{patterns: patterns, keep: true})
}

// Sep appends one of the given spellings and discards it.
func (r *Rule) Sep(patterns ...string) *Rule {
	return r.add(&spelling{patterns: patterns})
}

// Ast appends a nested rule.
func (r *Rule) Ast(sub *Rule) *Rule {
	return r.add(&tree{rule: sub})
}

// Or appends a choice between rules, tried in order by first element only.
func (r *Rule) Or(rules ...*Rule) *Rule {
	return r.add(&orTree{rules: rules})
}

// Maybe appends sub or, when it does not match, an empty node built with
// sub's own factory.
func (r *Rule) Maybe(sub *Rule) *Rule {
	empty := &Rule{name: sub.name, factory: sub.factory}
	return r.add(&orTree{rules: []*Rule{sub, empty}})
}

// Option appends sub at most once.
func (r *Rule) Option(sub *Rule) *Rule {
	return r.add(&repeater{rule: sub, once: true})
}

// Repeat appends sub zero or more times.
func (r *Rule) Repeat(sub *Rule) *Rule {
	return r.add(&repeater{rule: sub})
}

// Expression appends an operator-precedence expression over factor.
func (r *Rule) Expression(factor *Rule, ops Operators, f Factory) *Rule {
	return r.add(&expression{factor: factor, ops: ops, factory: f})
}

// InsertChoice makes sub the first alternative of the rule. When the rule
// does not start with a choice its current content becomes the last one.
func (r *Rule) InsertChoice(sub *Rule) *Rule {
	if len(r.elements) > 0 {
		if or, ok := r.elements[0].(*orTree); ok {
			or.rules = append([]*Rule{sub}, or.rules...)
			return r
		}
	}
	otherwise := r.clone()
	r.Reset(nil)
	return r.Or(sub, otherwise)
}

// Reset drops every element and installs f.
func (r *Rule) Reset(f Factory) *Rule {
	r.elements = nil
	r.factory = f
	return r
}

//-----------------------------------------------------------------------------
// Elements
//-----------------------------------------------------------------------------

type tree struct {
	rule *Rule
}

func (t *tree) parse(s *state, out []ast.Node) ([]ast.Node, error) {
	node, err := t.rule.parse(s)
	if err != nil {
		return nil, err
	}
	return append(out, node), nil
}

func (t *tree) match(s *state) (bool, error) { return t.rule.match(s) }
func (t *tree) describe() string             { return t.rule.describe() }

type orTree struct {
	rules []*Rule
}

func (o *orTree) choose(s *state) (*Rule, error) {
	for _, r := range o.rules {
		ok, err := r.match(s)
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
	}
	return nil, nil
}

func (o *orTree) parse(s *state, out []ast.Node) ([]ast.Node, error) {
	r, err := o.choose(s)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, s.mismatch(o.describe())
	}
	node, err := r.parse(s)
	if err != nil {
		return nil, err
	}
	return append(out, node), nil
}

func (o *orTree) match(s *state) (bool, error) {
	r, err := o.choose(s)
	return r != nil, err
}

func (o *orTree) describe() string {
	parts := make([]string, 0, len(o.rules))
	for _, r := range o.rules {
		parts = append(parts, r.describe())
	}
	return strings.Join(parts, " or ")
}

type repeater struct {
	rule *Rule
	once bool
}

func (p *repeater) parse(s *state, out []ast.Node) ([]ast.Node, error) {
	for {
		ok, err := p.rule.match(s)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		node, err := p.rule.parse(s)
		if err != nil {
			return nil, err
		}
		if list, anonymous := node.(*ast.List); !anonymous || list.Len() > 0 {
			out = append(out, node)
		}
		if p.once {
			return out, nil
		}
	}
}

func (p *repeater) match(s *state) (bool, error) { return p.rule.match(s) }
func (p *repeater) describe() string             { return p.rule.describe() }

type leafToken struct {
	what    string
	accept  func(lexer.Token) bool
	factory LeafFactory
}

func (l *leafToken) parse(s *state, out []ast.Node) ([]ast.Node, error) {
	tok, err := s.stream.Peek(0)
	if err != nil {
		return nil, err
	}
	if !l.accept(tok) {
		return nil, s.mismatch(l.what)
	}
	if _, err := s.stream.Read(); err != nil {
		return nil, err
	}
	node, err := l.factory(tok)
	if err != nil {
		return nil, diag.WithLine(err, tok.Line)
	}
	return append(out, node), nil
}

func (l *leafToken) match(s *state) (bool, error) {
	tok, err := s.stream.Peek(0)
	if err != nil {
		return false, err
	}
	return l.accept(tok), nil
}

func (l *leafToken) describe() string { return l.what }

type spelling struct {
	patterns []string
	keep     bool
}

func (sp *spelling) accepts(tok lexer.Token) bool {
	if tok.Kind != lexer.KindIdentifier {
		return false
	}
	for _, p := range sp.patterns {
		if tok.Text == p {
			return true
		}
	}
	return false
}

func (sp *spelling) parse(s *state, out []ast.Node) ([]ast.Node, error) {
	tok, err := s.stream.Peek(0)
	if err != nil {
		return nil, err
	}
	if !sp.accepts(tok) {
		return nil, s.mismatch(sp.describe())
	}
	if _, err := s.stream.Read(); err != nil {
		return nil, err
	}
	if sp.keep {
		out = append(out, ast.NewLeaf(tok.Text, tok.Line))
	}
	return out, nil
}

func (sp *spelling) match(s *state) (bool, error) {
	tok, err := s.stream.Peek(0)
	if err != nil {
		return false, err
	}
	return sp.accepts(tok), nil
}

func (sp *spelling) describe() string {
	quoted := make([]string, len(sp.patterns))
	for i, p := range sp.patterns {
		if p == lexer.EOL {
			quoted[i] = "end of line"
			continue
		}
		quoted[i] = `"` + p + `"`
	}
	return strings.Join(quoted, " or ")
}
