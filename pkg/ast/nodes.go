package ast

import (
	"fmt"
	"strings"

	"stone/interpreter-go/pkg/diag"
)

func arityError(kind NodeType, want string, children []Node) error {
	line := 0
	for _, child := range children {
		if line = child.Line(); line > 0 {
			break
		}
	}
	return diag.At(diag.KindSyntax, line, "%s needs %s children, got %d", kind, want, len(children))
}

func leafAt(children []Node, i int, kind NodeType) (*Leaf, error) {
	if leaf := asLeaf(children[i]); leaf != nil {
		return leaf, nil
	}
	return nil, diag.At(diag.KindSyntax, children[i].Line(), "%s expects a name, got %s", kind, children[i])
}

func asLeaf(n Node) *Leaf {
	switch v := n.(type) {
	case *Leaf:
		return v
	case *Name:
		return &v.Leaf
	}
	return nil
}

// BinaryOp is a binary operation: left operand, operator leaf, right operand.
type BinaryOp struct {
	List
}

// NewBinaryOp checks that the middle child is an operator leaf.
func NewBinaryOp(children []Node) (Node, error) {
	if len(children) != 3 {
		return nil, arityError(NodeBinaryOp, "3", children)
	}
	if _, err := leafAt(children, 1, NodeBinaryOp); err != nil {
		return nil, err
	}
	return &BinaryOp{List: newList(NodeBinaryOp, children)}, nil
}

// Left returns the first operand.
func (b *BinaryOp) Left() Node       { return b.Kids[0] }
func (b *BinaryOp) Operator() string { return asLeaf(b.Kids[1]).Text }
func (b *BinaryOp) Right() Node      { return b.Kids[2] }

// Line reports the operator's line, which is where the operation happens.
func (b *BinaryOp) Line() int {
	if line := b.Kids[1].Line(); line > 0 {
		return line
	}
	return b.List.Line()
}

// NegativeExpr is unary minus.
type NegativeExpr struct {
	List
}

// NewNegativeExpr wraps a single operand.
func NewNegativeExpr(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, arityError(NodeNegativeExpr, "1", children)
	}
	return &NegativeExpr{List: newList(NodeNegativeExpr, children)}, nil
}

func (n *NegativeExpr) Operand() Node  { return n.Kids[0] }
func (n *NegativeExpr) String() string { return "-" + n.Operand().String() }

// BlockStatement is a braced statement sequence. Its value is that of the
// last statement run, or null when empty.
type BlockStatement struct {
	List
}

// NewBlockStatement accepts any number of statements.
func NewBlockStatement(children []Node) (Node, error) {
	return &BlockStatement{List: newList(NodeBlockStatement, children)}, nil
}

// IfStatement holds a condition, a then block and an optional else block.
type IfStatement struct {
	List
}

// NewIfStatement accepts two or three children.
func NewIfStatement(children []Node) (Node, error) {
	if len(children) != 2 && len(children) != 3 {
		return nil, arityError(NodeIfStatement, "2 or 3", children)
	}
	return &IfStatement{List: newList(NodeIfStatement, children)}, nil
}

func (s *IfStatement) Condition() Node { return s.Kids[0] }
func (s *IfStatement) Then() Node      { return s.Kids[1] }

// Else returns nil when the statement has no else block.
func (s *IfStatement) Else() Node {
	if len(s.Kids) > 2 {
		return s.Kids[2]
	}
	return nil
}

func (s *IfStatement) String() string {
	out := "(if " + s.Condition().String() + " then " + s.Then().String()
	if e := s.Else(); e != nil {
		out += " else " + e.String()
	}
	return out + ")"
}

// WhileStatement holds a condition and a body.
type WhileStatement struct {
	List
}

// NewWhileStatement accepts exactly a condition and a body.
func NewWhileStatement(children []Node) (Node, error) {
	if len(children) != 2 {
		return nil, arityError(NodeWhileStatement, "2", children)
	}
	return &WhileStatement{List: newList(NodeWhileStatement, children)}, nil
}

func (s *WhileStatement) Condition() Node { return s.Kids[0] }
func (s *WhileStatement) Body() Node      { return s.Kids[1] }
func (s *WhileStatement) String() string {
	return "(while " + s.Condition().String() + " do " + s.Body().String() + ")"
}

// NullStatement is an empty program line.
type NullStatement struct {
	List
}

// NewNullStatement accepts no children.
func NewNullStatement(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, arityError(NodeNullStatement, "0", children)
	}
	return &NullStatement{List: newList(NodeNullStatement, nil)}, nil
}

// ParameterList is the parameter names of a def or fun.
type ParameterList struct {
	List
}

// NewParameterList requires every child to be a name.
func NewParameterList(children []Node) (Node, error) {
	for i := range children {
		if _, err := leafAt(children, i, NodeParameterList); err != nil {
			return nil, err
		}
	}
	return &ParameterList{List: newList(NodeParameterList, children)}, nil
}

// Size is the number of parameters; Name returns the i-th one.
func (p *ParameterList) Size() int         { return len(p.Kids) }
func (p *ParameterList) Name(i int) string { return asLeaf(p.Kids[i]).Text }
func (p *ParameterList) Names() []string {
	out := make([]string, len(p.Kids))
	for i := range p.Kids {
		out[i] = p.Name(i)
	}
	return out
}

// Arguments is the "(args)" call postfix.
type Arguments struct {
	List
	postfixMarker
}

// NewArguments accepts any number of argument expressions.
func NewArguments(children []Node) (Node, error) {
	return &Arguments{List: newList(NodeArguments, children)}, nil
}

func (a *Arguments) Size() int { return len(a.Kids) }

// DefStatement is a named function or method definition. Index is the
// global or method-table slot and Size the number of local slots a call
// needs; both stay -1 until the resolver runs.
type DefStatement struct {
	List

	Index int
	Size  int
}

// NewDefStatement expects a name, a parameter list and a block.
func NewDefStatement(children []Node) (Node, error) {
	if len(children) != 3 {
		return nil, arityError(NodeDefStatement, "3", children)
	}
	if _, err := leafAt(children, 0, NodeDefStatement); err != nil {
		return nil, err
	}
	if _, ok := children[1].(*ParameterList); !ok {
		return nil, diag.At(diag.KindSyntax, children[1].Line(), "def expects a parameter list")
	}
	if _, ok := children[2].(*BlockStatement); !ok {
		return nil, diag.At(diag.KindSyntax, children[2].Line(), "def expects a block")
	}
	return &DefStatement{List: newList(NodeDefStatement, children), Index: -1, Size: -1}, nil
}

func (d *DefStatement) Name() string               { return asLeaf(d.Kids[0]).Text }
func (d *DefStatement) Parameters() *ParameterList { return d.Kids[1].(*ParameterList) }
func (d *DefStatement) Body() *BlockStatement      { return d.Kids[2].(*BlockStatement) }
func (d *DefStatement) String() string {
	return "(def " + d.Name() + " " + d.Parameters().String() + " " + d.Body().String() + ")"
}

// Closure is an anonymous function literal.
type Closure struct {
	List

	Size int
}

// NewClosure expects a parameter list and a block.
func NewClosure(children []Node) (Node, error) {
	if len(children) != 2 {
		return nil, arityError(NodeClosure, "2", children)
	}
	if _, ok := children[0].(*ParameterList); !ok {
		return nil, diag.At(diag.KindSyntax, children[0].Line(), "fun expects a parameter list")
	}
	if _, ok := children[1].(*BlockStatement); !ok {
		return nil, diag.At(diag.KindSyntax, children[1].Line(), "fun expects a block")
	}
	return &Closure{List: newList(NodeClosure, children), Size: -1}, nil
}

func (c *Closure) Parameters() *ParameterList { return c.Kids[0].(*ParameterList) }
func (c *Closure) Body() *BlockStatement      { return c.Kids[1].(*BlockStatement) }
func (c *Closure) String() string {
	return "(fun " + c.Parameters().String() + " " + c.Body().String() + ")"
}

// PrimaryExpr is an operand followed by one or more postfix operators.
type PrimaryExpr struct {
	List
}

// NewPrimaryExpr returns a lone child unwrapped, so plain operands do not
// gain a tree level.
func NewPrimaryExpr(children []Node) (Node, error) {
	switch len(children) {
	case 0:
		return nil, arityError(NodePrimaryExpr, "at least 1", children)
	case 1:
		return children[0], nil
	}
	for i := 1; i < len(children); i++ {
		if _, ok := children[i].(Postfix); !ok {
			return nil, diag.At(diag.KindSyntax, children[i].Line(), "%s cannot follow an operand", children[i])
		}
	}
	return &PrimaryExpr{List: newList(NodePrimaryExpr, children)}, nil
}

// Operand is the expression the postfixes apply to.
func (p *PrimaryExpr) Operand() Node { return p.Kids[0] }

// Postfix returns the postfix nest levels from the right: 0 is the outermost.
func (p *PrimaryExpr) Postfix(nest int) Postfix {
	return p.Kids[len(p.Kids)-1-nest].(Postfix)
}

// HasPostfix reports whether a postfix exists nest levels from the right.
func (p *PrimaryExpr) HasPostfix(nest int) bool {
	return len(p.Kids)-1-nest > 0
}

// MemberCache is the inline cache of a member access site: the class it last
// resolved against and where the member lives in that class.
type MemberCache struct {
	ClassID uint64
	Field   bool
	Index   int
}

// Dot is the ".name" postfix.
type Dot struct {
	List
	postfixMarker

	Cache MemberCache
}

// NewDot expects a single member name.
func NewDot(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, arityError(NodeDot, "1", children)
	}
	if _, err := leafAt(children, 0, NodeDot); err != nil {
		return nil, err
	}
	return &Dot{List: newList(NodeDot, children)}, nil
}

func (d *Dot) Name() string   { return asLeaf(d.Kids[0]).Text }
func (d *Dot) String() string { return "." + d.Name() }

// ArrayLiteral is "[e1, e2, ...]".
type ArrayLiteral struct {
	List
}

// NewArrayLiteral accepts any number of element expressions.
func NewArrayLiteral(children []Node) (Node, error) {
	return &ArrayLiteral{List: newList(NodeArrayLiteral, children)}, nil
}

func (a *ArrayLiteral) Size() int { return len(a.Kids) }
func (a *ArrayLiteral) String() string {
	parts := make([]string, 0, len(a.Kids))
	for _, child := range a.Kids {
		parts = append(parts, child.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ArrayRef is the "[index]" postfix.
type ArrayRef struct {
	List
	postfixMarker
}

// NewArrayRef expects a single index expression.
func NewArrayRef(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, arityError(NodeArrayRef, "1", children)
	}
	return &ArrayRef{List: newList(NodeArrayRef, children)}, nil
}

func (a *ArrayRef) Index() Node    { return a.Kids[0] }
func (a *ArrayRef) String() string { return "[" + a.Index().String() + "]" }

// ClassStatement is a class definition: name, optional superclass name and
// body. Index is the global slot of the class once resolved, -1 before.
type ClassStatement struct {
	List

	Index int
}

// NewClassStatement expects one or two names followed by a ClassBody.
func NewClassStatement(children []Node) (Node, error) {
	if len(children) != 2 && len(children) != 3 {
		return nil, arityError(NodeClassStatement, "2 or 3", children)
	}
	for i := 0; i < len(children)-1; i++ {
		if _, err := leafAt(children, i, NodeClassStatement); err != nil {
			return nil, err
		}
	}
	if _, ok := children[len(children)-1].(*ClassBody); !ok {
		return nil, diag.At(diag.KindSyntax, children[0].Line(), "class expects a body")
	}
	return &ClassStatement{List: newList(NodeClassStatement, children), Index: -1}, nil
}

func (c *ClassStatement) Name() string { return asLeaf(c.Kids[0]).Text }

// SuperClass returns "" when the class extends nothing.
func (c *ClassStatement) SuperClass() string {
	if len(c.Kids) < 3 {
		return ""
	}
	return asLeaf(c.Kids[1]).Text
}

func (c *ClassStatement) Body() *ClassBody { return c.Kids[len(c.Kids)-1].(*ClassBody) }

func (c *ClassStatement) String() string {
	parent := c.SuperClass()
	if parent == "" {
		parent = "*"
	}
	return fmt.Sprintf("(class %s : %s %s)", c.Name(), parent, c.Body())
}

// ClassBody holds the field initializers and method definitions of a class.
type ClassBody struct {
	List
}

// NewClassBody accepts any number of members.
func NewClassBody(children []Node) (Node, error) {
	return &ClassBody{List: newList(NodeClassBody, children)}, nil
}
