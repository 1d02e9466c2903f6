package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stone/interpreter-go/pkg/interpreter"
	"stone/interpreter-go/pkg/parser"
)

// ConfigFileName is the configuration file FindConfig looks for.
const ConfigFileName = "stone.yml"

// Config is the parsed contents of stone.yml.
type Config struct {
	Path     string
	MaxDepth int
	Resolve  bool
	LogLevel string
	Grammar  parser.GrammarOptions
	Natives  []string
	REPL     REPLConfig
}

// REPLConfig tunes the interactive loop.
type REPLConfig struct {
	Prompt       string
	Continuation string
	History      string
}

type configFile struct {
	MaxDepth *int         `yaml:"max_depth"`
	Resolve  *bool        `yaml:"resolve"`
	LogLevel string       `yaml:"log_level"`
	Grammar  *grammarFile `yaml:"grammar"`
	Natives  []string     `yaml:"natives"`
	REPL     *replFile    `yaml:"repl"`
}

type grammarFile struct {
	Functions *bool `yaml:"functions"`
	Closures  *bool `yaml:"closures"`
	Classes   *bool `yaml:"classes"`
	Arrays    *bool `yaml:"arrays"`
}

type replFile struct {
	Prompt       *string `yaml:"prompt"`
	Continuation *string `yaml:"continuation"`
	History      *string `yaml:"history"`
}

// ValidationError aggregates configuration failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// DefaultConfig is used when no stone.yml exists.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth: interpreter.DefaultMaxDepth,
		Resolve:  true,
		LogLevel: "warn",
		Grammar:  parser.FullGrammar(),
		REPL: REPLConfig{
			Prompt:       "> ",
			Continuation: "... ",
			History:      ".stone_history",
		},
	}
}

// LoadConfig parses stone.yml from disk, returning a validated configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg, err := DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	cfg.Path = absPath
	return cfg, nil
}

// DecodeConfig reads a configuration document. An empty document yields the
// defaults.
func DecodeConfig(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	cfg := raw.toConfig()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (raw configFile) toConfig() *Config {
	cfg := DefaultConfig()
	if raw.MaxDepth != nil {
		cfg.MaxDepth = *raw.MaxDepth
	}
	if raw.Resolve != nil {
		cfg.Resolve = *raw.Resolve
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if g := raw.Grammar; g != nil {
		setBool(&cfg.Grammar.Functions, g.Functions)
		setBool(&cfg.Grammar.Closures, g.Closures)
		setBool(&cfg.Grammar.Classes, g.Classes)
		setBool(&cfg.Grammar.Arrays, g.Arrays)
	}
	cfg.Natives = append(cfg.Natives, raw.Natives...)
	if r := raw.REPL; r != nil {
		setString(&cfg.REPL.Prompt, r.Prompt)
		setString(&cfg.REPL.Continuation, r.Continuation)
		setString(&cfg.REPL.History, r.History)
	}
	return cfg
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (c *Config) validate() error {
	var errs ValidationError
	if c.MaxDepth <= 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_depth must be positive, got %d", c.MaxDepth))
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		errs.Issues = append(errs.Issues, fmt.Sprintf("log_level %q must be one of debug, info, warn, error", c.LogLevel))
	}
	if !c.Grammar.Functions && (c.Grammar.Closures || c.Grammar.Classes) {
		errs.Issues = append(errs.Issues, "grammar.functions cannot be disabled while closures or classes are enabled")
	}
	known := make(map[string]bool)
	for _, name := range interpreter.StandardNatives() {
		known[name] = true
	}
	seen := make(map[string]bool)
	for i, name := range c.Natives {
		switch {
		case !known[name]:
			errs.Issues = append(errs.Issues, fmt.Sprintf("natives[%d]: unknown native %q", i, name))
		case seen[name]:
			errs.Issues = append(errs.Issues, fmt.Sprintf("natives[%d]: %q listed twice", i, name))
		}
		seen[name] = true
	}
	if c.REPL.Prompt == "" {
		errs.Issues = append(errs.Issues, "repl.prompt must not be empty")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func parseLevel(name string) (slog.Level, bool) {
	switch name {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelWarn, false
	}
}

// Level is the configured log level.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// NewLogger returns a text logger on w filtered at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// FindConfig walks from dir up to the filesystem root looking for stone.yml.
// It returns "" when none exists.
func FindConfig(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(current, ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config: stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

// LoadConfigFrom finds and loads the configuration governing dir, falling
// back to DefaultConfig.
func LoadConfigFrom(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
