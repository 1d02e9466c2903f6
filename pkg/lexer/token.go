package lexer

import (
	"fmt"
	"strconv"
)

// Kind identifies the token category.
type Kind int

const (
	KindEOF Kind = iota
	KindNumber
	KindString
	KindIdentifier
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindIdentifier:
		return "identifier"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// EOL is the text of the identifier token emitted at the end of every line.
const EOL = `\n`

// Token is an immutable lexeme. Keywords, operators and punctuation are all
// identifier tokens; the grammar tells them apart by text.
type Token struct {
	Kind   Kind
	Text   string
	Number int64
	Line   int
}

// IsEOF reports whether the token marks the end of input.
func (t Token) IsEOF() bool { return t.Kind == KindEOF }

// IsEOL reports whether the token marks the end of a source line.
func (t Token) IsEOL() bool { return t.Kind == KindIdentifier && t.Text == EOL }

// Describe renders the token for diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case KindEOF:
		return "end of input"
	case KindString:
		return strconv.Quote(t.Text)
	case KindIdentifier:
		if t.IsEOL() {
			return "end of line"
		}
		return strconv.Quote(t.Text)
	default:
		return t.Text
	}
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%s %s", t.Line, t.Kind, t.Describe())
}
