package ast

import "fmt"

// Reserved Nest values marking member locations instead of lexical hops.
const (
	MethodNest = -1
	FieldNest  = -2
)

// Location is where the resolver placed a name. For lexical locations Nest
// counts scopes outward from the innermost one. For member locations Nest is
// FieldNest or MethodNest and This counts the hops to the scope whose slot 0
// holds the receiver.
type Location struct {
	Nest  int
	Index int
	This  int
}

func (l Location) IsField() bool  { return l.Nest == FieldNest }
func (l Location) IsMethod() bool { return l.Nest == MethodNest }
func (l Location) IsMember() bool { return l.Nest < 0 }

func (l Location) String() string {
	switch l.Nest {
	case FieldNest:
		return fmt.Sprintf("field#%d(this@%d)", l.Index, l.This)
	case MethodNest:
		return fmt.Sprintf("method#%d(this@%d)", l.Index, l.This)
	default:
		return fmt.Sprintf("%d:%d", l.Nest, l.Index)
	}
}
