// Package lexer turns Stone source text into a token stream. Source is read
// one line at a time; every line contributes its tokens followed by an EOL
// token, and tokens are buffered only as far as the parser peeks ahead.
package lexer

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"stone/interpreter-go/pkg/diag"
)

// tokenPattern matches optional leading whitespace followed by one lexeme:
// a comment (2), an integer literal (3), a string literal (4), an identifier,
// a two-character operator or a single ASCII punctuation character.
var tokenPattern = regexp.MustCompile(`^\s*((//.*)|([0-9]+)|("(?:\\"|\\\\|\\n|[^"])*")|[A-Za-z_][A-Za-z0-9_]*|==|<=|>=|&&|\|\||[[:punct:]])?`)

// Lexer is a peekable token stream over a reader.
type Lexer struct {
	reader  *bufio.Reader
	queue   []Token
	hasMore bool
	line    int
}

// New returns a lexer reading from r.
func New(r io.Reader) *Lexer {
	return &Lexer{reader: bufio.NewReader(r), hasMore: true}
}

// NewString returns a lexer over src.
func NewString(src string) *Lexer {
	return New(strings.NewReader(src))
}

// Read removes and returns the next token.
func (l *Lexer) Read() (Token, error) {
	ok, err := l.fill(0)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return l.eof(), nil
	}
	tok := l.queue[0]
	l.queue = l.queue[1:]
	return tok, nil
}

// Peek returns the token i positions ahead of the next Read without consuming.
func (l *Lexer) Peek(i int) (Token, error) {
	ok, err := l.fill(i)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return l.eof(), nil
	}
	return l.queue[i], nil
}

// Line returns the number of the last line read.
func (l *Lexer) Line() int { return l.line }

func (l *Lexer) eof() Token {
	return Token{Kind: KindEOF, Line: l.line}
}

func (l *Lexer) fill(i int) (bool, error) {
	for i >= len(l.queue) {
		if !l.hasMore {
			return false, nil
		}
		if err := l.readLine(); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (l *Lexer) readLine() error {
	line, err := l.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if errors.Is(err, io.EOF) {
		l.hasMore = false
		if line == "" {
			return nil
		}
	}
	l.line++
	line = strings.TrimRight(line, "\r\n")
	if err := l.scan(line); err != nil {
		return err
	}
	l.queue = append(l.queue, Token{Kind: KindIdentifier, Text: EOL, Line: l.line})
	return nil
}

func (l *Lexer) scan(line string) error {
	pos := 0
	for pos < len(line) {
		m := tokenPattern.FindStringSubmatchIndex(line[pos:])
		if m == nil || m[2] < 0 {
			if m != nil && pos+m[1] == len(line) {
				return nil
			}
			bad := pos
			if m != nil {
				bad += m[1]
			}
			return diag.At(diag.KindSyntax, l.line, "bad token %q", line[bad:bad+1])
		}
		if err := l.addToken(line[pos:], m); err != nil {
			return err
		}
		pos += m[1]
	}
	return nil
}

func (l *Lexer) addToken(src string, m []int) error {
	text := src[m[2]:m[3]]
	switch {
	case m[4] >= 0:
		return nil
	case m[6] >= 0:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return diag.At(diag.KindSyntax, l.line, "integer literal %s out of range", text)
		}
		l.queue = append(l.queue, Token{Kind: KindNumber, Text: text, Number: n, Line: l.line})
	case m[8] >= 0:
		l.queue = append(l.queue, Token{Kind: KindString, Text: unquote(text), Line: l.line})
	default:
		if text == `"` {
			return diag.At(diag.KindSyntax, l.line, "unterminated string literal")
		}
		l.queue = append(l.queue, Token{Kind: KindIdentifier, Text: text, Line: l.line})
	}
	return nil
}

// unquote strips the surrounding quotes and resolves \" \\ and \n.
func unquote(lit string) string {
	var b strings.Builder
	body := lit[1 : len(lit)-1]
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			switch body[i+1] {
			case '"', '\\':
				i++
				c = body[i]
			case 'n':
				i++
				c = '\n'
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Tokenize reads r to the end and returns every token including the final EOF.
func Tokenize(r io.Reader) ([]Token, error) {
	lx := New(r)
	var out []Token
	for {
		tok, err := lx.Read()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.IsEOF() {
			return out, nil
		}
	}
}
