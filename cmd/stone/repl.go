package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"stone/interpreter-go/pkg/driver"
	"stone/interpreter-go/pkg/interpreter"
)

const replHelp = `:help          show this message
:quit, :exit   leave the loop
:load FILE     run FILE in this session
:reset         discard every definition
`

// lineReader is the part of liner.State the loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func runREPL(cfg *driver.Config) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath(cfg.REPL.History)
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	fmt.Fprintln(os.Stdout, cliToolVersion+" (:help for commands)")
	newSession := func() *driver.Session {
		return driver.NewSession(cfg, driver.WithLogger(cfg.NewLogger(os.Stderr)))
	}
	replLoop(ln, os.Stdout, cfg.REPL, newSession)

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return exitOK
}

// historyPath places a relative history file in the home directory.
func historyPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, name)
}

func replLoop(in lineReader, out io.Writer, prompts driver.REPLConfig, newSession func() *driver.Session) {
	sess := newSession()
	for {
		src, ok := readUnit(in, out, sess, prompts)
		if !ok {
			fmt.Fprintln(out)
			return
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		in.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			fields := strings.Fields(trimmed)
			switch fields[0] {
			case ":quit", ":exit":
				return
			case ":help":
				fmt.Fprint(out, replHelp)
			case ":reset":
				sess = newSession()
				fmt.Fprintln(out, "session reset")
			case ":load":
				if len(fields) != 2 {
					fmt.Fprintln(out, "usage: :load FILE")
					continue
				}
				loadInto(sess, out, fields[1])
			default:
				fmt.Fprintf(out, "unknown command %s\n", fields[0])
			}
		}
	}
}

// readUnit keeps prompting while the buffered input ends too early, then
// evaluates it. Parsing precedes execution, so an incomplete buffer has no
// side effects.
func readUnit(in lineReader, out io.Writer, sess *driver.Session, prompts driver.REPLConfig) (string, bool) {
	var b strings.Builder
	for {
		prompt := prompts.Prompt
		if b.Len() > 0 {
			prompt = prompts.Continuation
		}
		line, err := in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src := b.String()

		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		val, err := sess.EvalLine(src + "\n")
		if driver.IsIncomplete(err) {
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else if strings.TrimSpace(src) != "" {
			fmt.Fprintf(out, "=> %s\n", interpreter.Stringify(val))
		}
		return src, true
	}
}

func loadInto(sess *driver.Session, out io.Writer, path string) {
	src, err := driver.LoadFile(path)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	val, err := sess.RunSource(src)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "=> %s\n", interpreter.Stringify(val))
}
