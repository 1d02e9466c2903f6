package lexer

import (
	"errors"
	"strings"
	"testing"

	"stone/interpreter-go/pkg/diag"
)

func texts(t *testing.T, src string) []string {
	t.Helper()
	toks, err := Tokenize(strings.NewReader(src))
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.IsEOF() {
			out = append(out, "<EOF>")
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}

func TestTokenizeStatementLine(t *testing.T) {
	got := texts(t, "while i < 10 { sum = sum + i } // loop\n")
	want := []string{"while", "i", "<", "10", "{", "sum", "=", "sum", "+", "i", "}", EOL, "<EOF>"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("tokens mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestTokenKindsAndLines(t *testing.T) {
	toks, err := Tokenize(strings.NewReader("x == 42\n\"hi\\n\\\"there\\\"\""))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].Kind != KindIdentifier || toks[0].Line != 1 {
		t.Fatalf("unexpected first token %v", toks[0])
	}
	if toks[1].Text != "==" {
		t.Fatalf("expected two-character operator, got %q", toks[1].Text)
	}
	if toks[2].Kind != KindNumber || toks[2].Number != 42 {
		t.Fatalf("expected number 42, got %v", toks[2])
	}
	if !toks[3].IsEOL() {
		t.Fatalf("expected EOL after first line, got %v", toks[3])
	}
	str := toks[4]
	if str.Kind != KindString || str.Text != "hi\n\"there\"" || str.Line != 2 {
		t.Fatalf("unexpected string token %#v", str)
	}
	if !toks[5].IsEOL() || !toks[6].IsEOF() {
		t.Fatalf("expected EOL then EOF, got %v %v", toks[5], toks[6])
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx := NewString("a b\nc")
	second, err := lx.Peek(1)
	if err != nil || second.Text != "b" {
		t.Fatalf("peek(1) = %v, %v", second, err)
	}
	third, _ := lx.Peek(3)
	if third.Text != "c" || third.Line != 2 {
		t.Fatalf("peek(3) should reach the next line, got %v", third)
	}
	first, _ := lx.Read()
	if first.Text != "a" {
		t.Fatalf("read after peek returned %v", first)
	}
	for i := 0; i < 4; i++ {
		if _, err := lx.Read(); err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	end, _ := lx.Read()
	if !end.IsEOF() {
		t.Fatalf("expected EOF, got %v", end)
	}
	again, _ := lx.Peek(0)
	if !again.IsEOF() {
		t.Fatalf("EOF must be sticky, got %v", again)
	}
}

func TestBadTokens(t *testing.T) {
	cases := map[string]string{
		"non-ascii":    "x = é",
		"unterminated": `s = "abc`,
		"overflow":     "n = 99999999999999999999",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Tokenize(strings.NewReader(src))
			if !errors.Is(err, diag.ErrSyntax) {
				t.Fatalf("expected syntax error, got %v", err)
			}
		})
	}
}

func TestEmptyAndBlankInput(t *testing.T) {
	if got := texts(t, ""); len(got) != 1 || got[0] != "<EOF>" {
		t.Fatalf("empty input should only yield EOF, got %v", got)
	}
	if got := texts(t, "   \n"); len(got) != 2 || got[0] != EOL {
		t.Fatalf("blank line should yield EOL, got %v", got)
	}
}
