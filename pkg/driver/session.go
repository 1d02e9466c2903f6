// Package driver wires configuration, source loading, the grammar and the
// interpreter into a runnable session.
package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/interpreter"
	"stone/interpreter-go/pkg/lexer"
	"stone/interpreter-go/pkg/parser"
	"stone/interpreter-go/pkg/runtime"
)

// Session owns one global scope. Units run through it share definitions.
type Session struct {
	cfg     *Config
	grammar *parser.Grammar
	interp  *interpreter.Interpreter
	logger  *slog.Logger
}

// SessionOption configures NewSession.
type SessionOption func(*sessionSettings)

type sessionSettings struct {
	out    io.Writer
	in     io.Reader
	logger *slog.Logger
}

// WithOutput sends print and time_end output to w.
func WithOutput(w io.Writer) SessionOption {
	return func(s *sessionSettings) { s.out = w }
}

// WithInput feeds the read native from r.
func WithInput(r io.Reader) SessionOption {
	return func(s *sessionSettings) { s.in = r }
}

// WithLogger sets the logger shared by the session and its interpreter.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *sessionSettings) { s.logger = logger }
}

// NewSession builds a session from cfg; a nil cfg means DefaultConfig.
func NewSession(cfg *Config, opts ...SessionOption) *Session {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var settings sessionSettings
	for _, opt := range opts {
		opt(&settings)
	}
	logger := settings.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	interpOpts := []interpreter.Option{
		interpreter.WithMaxDepth(cfg.MaxDepth),
		interpreter.WithResolve(cfg.Resolve),
		interpreter.WithNatives(cfg.Natives),
		interpreter.WithLogger(logger),
	}
	if settings.out != nil {
		interpOpts = append(interpOpts, interpreter.WithOutput(settings.out))
	}
	if settings.in != nil {
		interpOpts = append(interpOpts, interpreter.WithInput(settings.in))
	}

	return &Session{
		cfg:     cfg,
		grammar: parser.NewGrammar(cfg.Grammar, parser.WithMaxDepth(cfg.MaxDepth), parser.WithLogger(logger)),
		interp:  interpreter.New(interpOpts...),
		logger:  logger,
	}
}

// Config returns the configuration the session was built from.
func (s *Session) Config() *Config                       { return s.cfg }
func (s *Session) Grammar() *parser.Grammar              { return s.grammar }
func (s *Session) Interpreter() *interpreter.Interpreter { return s.interp }

// Run parses and executes units from r one at a time. The first failure stops
// the remaining units and is returned with name prefixed.
func (s *Session) Run(name string, r io.Reader) (runtime.Value, error) {
	stream := lexer.New(r)
	result := runtime.Null
	count := 0
	for {
		done, err := s.grammar.AtEOF(stream)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if done {
			break
		}
		unit, err := s.grammar.Parse(stream)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, blank := unit.(*ast.NullStatement); blank {
			continue
		}
		count++
		s.logger.Debug("execute unit", "source", name, "line", unit.Line(), "node", unit.NodeType())
		val, err := s.interp.Execute(unit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		result = val
	}
	s.logger.Debug("source finished", "source", name, "units", count)
	return result, nil
}

// RunSource executes a loaded program.
func (s *Session) RunSource(src *Source) (runtime.Value, error) {
	return s.Run(src.Name, strings.NewReader(src.Text))
}

// EvalLine parses all of src before executing any of it, so incomplete input
// can be detected with IsIncomplete and retried with more text appended.
func (s *Session) EvalLine(src string) (runtime.Value, error) {
	units, err := s.grammar.ParseAll(lexer.NewString(src))
	if err != nil {
		return nil, err
	}
	result := runtime.Null
	for _, unit := range units {
		if _, blank := unit.(*ast.NullStatement); blank {
			continue
		}
		val, err := s.interp.Execute(unit)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

// Parse returns the units of r without running them.
func (s *Session) Parse(r io.Reader) ([]ast.Node, error) {
	return s.grammar.ParseAll(lexer.New(r))
}

// IsIncomplete reports whether err is a syntax error caused by input ending
// too early.
func IsIncomplete(err error) bool {
	var d *diag.Error
	if !errors.As(err, &d) {
		return false
	}
	return d.Kind == diag.KindSyntax && d.AtEOF
}
