package runtime

import (
	"fmt"
	"sync/atomic"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/resolver"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindString
	KindArray
	KindFunction
	KindNativeFunction
	KindClass
	KindObject
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	case KindNativeFunction:
		return "native_function"
	case KindClass:
		return "class"
	case KindObject:
		return "object"
	case KindMethod:
		return "method"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

// NullValue is the type of Null.
type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

// Null is the value of expressions that produce nothing.
var Null Value = NullValue{}

// IntegerValue is a 64-bit signed integer.
type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }

// Int wraps n.
func Int(n int64) Value { return IntegerValue{Val: n} }

// StringValue is an immutable string.
type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

// Str wraps s.
func Str(s string) Value { return StringValue{Val: s} }

// Truthy reports whether v counts as true in a condition: any integer but 0.
// ok is false for non-integers.
func Truthy(v Value) (truth bool, ok bool) {
	n, isInt := v.(IntegerValue)
	if !isInt {
		return false, false
	}
	return n.Val != 0, true
}

//-----------------------------------------------------------------------------
// Compound values (compared by identity)
//-----------------------------------------------------------------------------

// ArrayValue has a fixed length and mutable elements.
type ArrayValue struct {
	Elements []Value
}

func (v *ArrayValue) Kind() Kind { return KindArray }

// NewArray takes ownership of elements.
func NewArray(elements []Value) *ArrayValue {
	return &ArrayValue{Elements: elements}
}

// FunctionValue is a user function or closure with its defining environment.
// Size < 0 marks an unresolved body that runs in a by-name NestedEnv.
type FunctionValue struct {
	Name   string
	Params []string
	Body   *ast.BlockStatement
	Env    Environment
	Size   int
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

func (v *FunctionValue) Arity() int { return len(v.Params) }

// NativeCallContext gives natives access to the caller.
type NativeCallContext struct {
	Env  Environment
	Line int
}

// NativeFunc implements a native function.
type NativeFunc func(*NativeCallContext, []Value) (Value, error)

// NativeFunctionValue is a host function. Arity < 0 accepts any count.
type NativeFunctionValue struct {
	Name  string
	Arity int
	Impl  NativeFunc
}

func (v *NativeFunctionValue) Kind() Kind { return KindNativeFunction }

var classIDs atomic.Uint64

// NextClassID returns a process-unique, non-zero class identity.
func NextClassID() uint64 { return classIDs.Add(1) }

// ClassValue is an evaluated class statement. Super is shared, not owned.
type ClassValue struct {
	ID     uint64
	Name   string
	Super  *ClassValue
	Layout *resolver.ClassLayout
	Body   *ast.ClassStatement
	Env    Environment
}

func (v *ClassValue) Kind() Kind { return KindClass }

// NewClass builds a class value with a fresh identity.
func NewClass(name string, super *ClassValue, layout *resolver.ClassLayout, body *ast.ClassStatement, env Environment) *ClassValue {
	return &ClassValue{ID: NextClassID(), Name: name, Super: super, Layout: layout, Body: body, Env: env}
}

// Lineage returns the class chain from the root class down to v.
func (v *ClassValue) Lineage() []*ClassValue {
	var chain []*ClassValue
	for c := v; c != nil; c = c.Super {
		chain = append(chain, c)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// IsSubclassOf reports whether v is other or derives from it.
func (v *ClassValue) IsSubclassOf(other *ClassValue) bool {
	for c := v; c != nil; c = c.Super {
		if c == other {
			return true
		}
	}
	return false
}

// ObjectValue is a class instance with one slot per field of its layout.
type ObjectValue struct {
	Class  *ClassValue
	Fields []Value
}

func (v *ObjectValue) Kind() Kind { return KindObject }

// NewObject allocates an instance with every field set to Null.
func NewObject(class *ClassValue) *ObjectValue {
	fields := make([]Value, class.Layout.FieldCount())
	for i := range fields {
		fields[i] = Null
	}
	return &ObjectValue{Class: class, Fields: fields}
}

// MethodValue is a method bound to its receiver.
type MethodValue struct {
	Receiver *ObjectValue
	Def      *ast.DefStatement
}

func (v *MethodValue) Kind() Kind { return KindMethod }

func (v *MethodValue) Arity() int { return v.Def.Parameters().Size() }
