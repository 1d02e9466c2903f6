// Package diag holds the error taxonomy shared by the Stone parser, resolver
// and interpreter. Every failure that aborts a top-level unit is reported as an
// *Error carrying its Kind and the best-known source line.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a Stone failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindSyntax
	KindUndefinedName
	KindArity
	KindType
	KindMember
	KindAssignmentTarget
	KindArithmetic
	KindStackExhausted
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindUndefinedName:
		return "UndefinedNameError"
	case KindArity:
		return "ArityError"
	case KindType:
		return "TypeError"
	case KindMember:
		return "MemberError"
	case KindAssignmentTarget:
		return "AssignmentTargetError"
	case KindArithmetic:
		return "ArithmeticError"
	case KindStackExhausted:
		return "StackExhaustedError"
	default:
		return "Error"
	}
}

// Error is a classified failure. Line is zero when no source line is known.
type Error struct {
	Kind    Kind
	Message string
	Line    int

	// Syntax errors only.
	Expected string
	Actual   string
	AtEOF    bool
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	return b.String()
}

// Is matches another *Error of the same kind, so errors.Is(err, diag.ErrType)
// style comparisons against the sentinels below work.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Message == "" && other.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrSyntax           = &Error{Kind: KindSyntax}
	ErrUndefinedName    = &Error{Kind: KindUndefinedName}
	ErrArity            = &Error{Kind: KindArity}
	ErrType             = &Error{Kind: KindType}
	ErrMember           = &Error{Kind: KindMember}
	ErrAssignmentTarget = &Error{Kind: KindAssignmentTarget}
	ErrArithmetic       = &Error{Kind: KindArithmetic}
	ErrStackExhausted   = &Error{Kind: KindStackExhausted}
)

// Errorf builds a classified error without line information.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At builds a classified error reported at line.
func At(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}

// Syntax reports a mandatory element that did not match the next token.
func Syntax(line int, expected, actual string, atEOF bool) *Error {
	msg := fmt.Sprintf("expected %s but found %s", expected, actual)
	if atEOF {
		msg = fmt.Sprintf("expected %s but reached end of input", expected)
	}
	return &Error{Kind: KindSyntax, Message: msg, Line: line, Expected: expected, Actual: actual, AtEOF: atEOF}
}

// StackExhausted reports a recursion bound hit by the named pass.
func StackExhausted(pass string, limit, line int) *Error {
	return &Error{Kind: KindStackExhausted, Message: fmt.Sprintf("%s exceeded the maximum depth of %d", pass, limit), Line: line}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// WithLine fills in the line of a classified error that has none yet.
// Errors that are not *Error are returned unchanged.
func WithLine(err error, line int) error {
	var e *Error
	if line <= 0 || !errors.As(err, &e) || e.Line > 0 {
		return err
	}
	e.Line = line
	return err
}
