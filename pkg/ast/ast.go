// Package ast defines the Stone syntax tree. Leaves wrap a single token,
// lists hold an ordered set of children whose count is fixed per variant.
// Nodes are immutable after parsing except for the resolution annotations
// (Location, slot counts) and the member inline cache written by later passes.
package ast

import (
	"strconv"
	"strings"
)

// NodeType names the syntax variant of a node.
type NodeType string

const (
	NodeLeaf           NodeType = "Leaf"
	NodeNumberLiteral  NodeType = "NumberLiteral"
	NodeStringLiteral  NodeType = "StringLiteral"
	NodeName           NodeType = "Name"
	NodeList           NodeType = "List"
	NodeBinaryOp       NodeType = "BinaryOp"
	NodeNegativeExpr   NodeType = "NegativeExpr"
	NodeBlockStatement NodeType = "BlockStatement"
	NodeIfStatement    NodeType = "IfStatement"
	NodeWhileStatement NodeType = "WhileStatement"
	NodeNullStatement  NodeType = "NullStatement"
	NodeParameterList  NodeType = "ParameterList"
	NodeArguments      NodeType = "Arguments"
	NodeDefStatement   NodeType = "DefStatement"
	NodeClosure        NodeType = "Closure"
	NodePrimaryExpr    NodeType = "PrimaryExpr"
	NodeDot            NodeType = "Dot"
	NodeArrayLiteral   NodeType = "ArrayLiteral"
	NodeArrayRef       NodeType = "ArrayRef"
	NodeClassStatement NodeType = "ClassStatement"
	NodeClassBody      NodeType = "ClassBody"
)

// Node is implemented by every tree element.
type Node interface {
	NodeType() NodeType
	Children() []Node
	// Line is the best-known source line, 0 when the node holds no token.
	Line() int
	String() string
}

// Postfix marks the operators that may follow a primary expression.
type Postfix interface {
	Node
	postfixNode()
}

type postfixMarker struct{}

func (postfixMarker) postfixNode() {}

type nodeImpl struct {
	Type NodeType
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }

//-----------------------------------------------------------------------------
// Leaves
//-----------------------------------------------------------------------------

// Leaf is a token kept verbatim: operators, member names, parameter names.
type Leaf struct {
	nodeImpl

	Text   string
	LineNo int
}

// NewLeaf wraps a token kept verbatim.
func NewLeaf(text string, line int) *Leaf {
	return &Leaf{nodeImpl: newNodeImpl(NodeLeaf), Text: text, LineNo: line}
}

func (l *Leaf) Children() []Node { return nil }
func (l *Leaf) Line() int        { return l.LineNo }
func (l *Leaf) String() string   { return l.Text }

// NumberLiteral is an integer literal; Value is already parsed.
type NumberLiteral struct {
	Leaf

	Value int64
}

// NewNumberLiteral keeps both the source text and the parsed value.
func NewNumberLiteral(text string, value int64, line int) *NumberLiteral {
	return &NumberLiteral{Leaf: Leaf{nodeImpl: newNodeImpl(NodeNumberLiteral), Text: text, LineNo: line}, Value: value}
}

// StringLiteral is a string literal with escapes already decoded.
type StringLiteral struct {
	Leaf
}

// NewStringLiteral wraps the decoded value.
func NewStringLiteral(value string, line int) *StringLiteral {
	return &StringLiteral{Leaf: Leaf{nodeImpl: newNodeImpl(NodeStringLiteral), Text: value, LineNo: line}}
}

func (s *StringLiteral) Value() string  { return s.Text }
func (s *StringLiteral) String() string { return strconv.Quote(s.Text) }

// Name is a variable, function or class reference. Loc stays nil until the
// resolver places it; a nil Loc is looked up by name at run time.
type Name struct {
	Leaf

	Loc *Location
}

// NewName returns an unresolved name.
func NewName(name string, line int) *Name {
	return &Name{Leaf: Leaf{nodeImpl: newNodeImpl(NodeName), Text: name, LineNo: line}}
}

func (n *Name) Value() string { return n.Text }

//-----------------------------------------------------------------------------
// Lists
//-----------------------------------------------------------------------------

// List is an anonymous group of children produced by rules without a factory.
type List struct {
	nodeImpl

	Kids []Node
}

// NewList groups children under the generic List kind.
func NewList(children []Node) *List {
	return &List{nodeImpl: newNodeImpl(NodeList), Kids: children}
}

func newList(kind NodeType, children []Node) List {
	return List{nodeImpl: newNodeImpl(kind), Kids: children}
}

func (l *List) Children() []Node { return l.Kids }

func (l *List) Child(i int) Node { return l.Kids[i] }

func (l *List) Len() int { return len(l.Kids) }

func (l *List) Line() int {
	for _, child := range l.Kids {
		if line := child.Line(); line > 0 {
			return line
		}
	}
	return 0
}

func (l *List) String() string {
	parts := make([]string, 0, len(l.Kids))
	for _, child := range l.Kids {
		parts = append(parts, child.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Inspect walks the tree depth-first, calling fn before the children of each
// node; returning false skips the children.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range node.Children() {
		Inspect(child, fn)
	}
}
