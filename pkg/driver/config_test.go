package driver

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stone/interpreter-go/pkg/interpreter"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
max_depth: 500
resolve: false
log_level: Debug
grammar:
  classes: false
natives:
  - print
  - length
repl:
  prompt: "stone> "
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Path != path {
		t.Fatalf("expected path %s, got %s", path, cfg.Path)
	}
	if cfg.MaxDepth != 500 {
		t.Fatalf("expected max_depth 500, got %d", cfg.MaxDepth)
	}
	if cfg.Resolve {
		t.Fatalf("expected resolve to be disabled")
	}
	if cfg.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.Level())
	}
	if cfg.Grammar.Classes {
		t.Fatalf("expected classes to be disabled")
	}
	if !cfg.Grammar.Functions || !cfg.Grammar.Closures || !cfg.Grammar.Arrays {
		t.Fatalf("expected untouched grammar layers to stay enabled, got %+v", cfg.Grammar)
	}
	if strings.Join(cfg.Natives, ",") != "print,length" {
		t.Fatalf("unexpected natives %v", cfg.Natives)
	}
	if cfg.REPL.Prompt != "stone> " {
		t.Fatalf("unexpected prompt %q", cfg.REPL.Prompt)
	}
	if cfg.REPL.Continuation != DefaultConfig().REPL.Continuation {
		t.Fatalf("expected default continuation prompt, got %q", cfg.REPL.Continuation)
	}
}

func TestDecodeConfigEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("DecodeConfig returned error: %v", err)
	}
	if cfg.MaxDepth != interpreter.DefaultMaxDepth || !cfg.Resolve {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Level() != slog.LevelWarn {
		t.Fatalf("expected warn level, got %v", cfg.Level())
	}
}

func TestDecodeConfigRejectsUnknownFields(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("max_dpeth: 3\n"))
	if err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
	if !strings.Contains(err.Error(), "max_dpeth") {
		t.Fatalf("expected error to name the field, got %v", err)
	}
}

func TestDecodeConfigAggregatesValidationIssues(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader(`
max_depth: 0
log_level: loud
grammar:
  functions: false
natives: [print, print, launch]
repl:
  prompt: ""
`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 6 {
		t.Fatalf("expected 6 issues, got %d:\n%v", len(verr.Issues), verr)
	}
	msg := verr.Error()
	for _, want := range []string{"max_depth", "log_level", "grammar.functions", `"print" listed twice`, `unknown native "launch"`, "repl.prompt"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestFindConfigWalksUpward(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	writeFile(t, path, "max_depth: 42\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("FindConfig returned error: %v", err)
	}
	if found != path {
		t.Fatalf("expected %s, got %s", path, found)
	}

	cfg, err := LoadConfigFrom(nested)
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}
	if cfg.MaxDepth != 42 {
		t.Fatalf("expected max_depth 42, got %d", cfg.MaxDepth)
	}
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	cfg := DefaultConfig()
	var b strings.Builder
	logger := cfg.NewLogger(&b)
	logger.Debug("hidden")
	logger.Warn("shown")
	out := b.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output %q", out)
	}
}
