package driver

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/interpreter"
)

func newTestSession(t *testing.T, cfg *Config, input string) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewSession(cfg, WithOutput(&out), WithInput(strings.NewReader(input))), &out
}

func TestSessionRunExecutesUnits(t *testing.T) {
	sess, out := newTestSession(t, nil, "")
	val, err := sess.Run("fib.stone", strings.NewReader(`
def fib(n) {
  if n < 2 { n } else { fib(n - 1) + fib(n - 2) }
}
print(fib(10))
fib(12)
`))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := interpreter.Stringify(val); got != "144" {
		t.Fatalf("expected 144, got %s", got)
	}
	if out.String() != "55\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSessionRunStopsAtFirstError(t *testing.T) {
	sess, out := newTestSession(t, nil, "")
	_, err := sess.Run("bad.stone", strings.NewReader("print(1)\nx = 1 / 0\nprint(2)\n"))
	if !errors.Is(err, diag.ErrArithmetic) {
		t.Fatalf("expected arithmetic error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "bad.stone: ") {
		t.Fatalf("expected source name prefix, got %q", err.Error())
	}
	if out.String() != "1\n" {
		t.Fatalf("expected only the first print, got %q", out.String())
	}
}

func TestSessionGlobalsPersistAcrossInputs(t *testing.T) {
	sess, _ := newTestSession(t, nil, "")
	if _, err := sess.EvalLine("count = 1"); err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if _, err := sess.EvalLine("def bump() { count = count + 1 }"); err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if _, err := sess.EvalLine("bump(); bump()"); err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	val, err := sess.EvalLine("count")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if got := interpreter.Stringify(val); got != "1" {
		t.Fatalf("expected function-local assignment to leave the global alone, got %s", got)
	}
}

func TestIsIncomplete(t *testing.T) {
	sess, _ := newTestSession(t, nil, "")
	_, err := sess.EvalLine("while i < 3 {\n")
	if !IsIncomplete(err) {
		t.Fatalf("expected incomplete input, got %v", err)
	}
	_, err = sess.EvalLine("1 + )\n")
	if err == nil || IsIncomplete(err) {
		t.Fatalf("expected a complete syntax error, got %v", err)
	}
	if IsIncomplete(errors.New("plain")) {
		t.Fatalf("plain errors are never incomplete")
	}
}

func TestEvalLineExecutesNothingOnSyntaxError(t *testing.T) {
	sess, out := newTestSession(t, nil, "")
	if _, err := sess.EvalLine("print(1)\nprint(\n"); err == nil {
		t.Fatalf("expected syntax error")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestSessionHonoursConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grammar.Arrays = false
	cfg.Natives = []string{"print"}
	sess, _ := newTestSession(t, cfg, "")

	if _, err := sess.EvalLine("a = [1, 2]"); !errors.Is(err, diag.ErrSyntax) {
		t.Fatalf("expected syntax error with arrays disabled, got %v", err)
	}
	if _, err := sess.EvalLine("length(\"abc\")"); !errors.Is(err, diag.ErrUndefinedName) {
		t.Fatalf("expected length to be unavailable, got %v", err)
	}
}

func TestSessionReadNative(t *testing.T) {
	sess, out := newTestSession(t, nil, "7\n")
	if _, err := sess.EvalLine("print(to_int(read()) * 6)"); err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if out.String() != "42\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSessionLogsUnits(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sess := NewSession(nil, WithOutput(&bytes.Buffer{}), WithLogger(logger))
	if _, err := sess.Run("unit.stone", strings.NewReader("1\n2\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(logs.String(), "source finished") || !strings.Contains(logs.String(), "units=2") {
		t.Fatalf("unexpected logs %q", logs.String())
	}
}

func TestSessionParse(t *testing.T) {
	sess, _ := newTestSession(t, nil, "")
	units, err := sess.Parse(strings.NewReader("x = 1 + 2 * 3\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(units) != 1 || units[0].String() != "(x = (1 + (2 * 3)))" {
		t.Fatalf("unexpected units %v", units)
	}
}
