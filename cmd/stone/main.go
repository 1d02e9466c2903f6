package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"stone/interpreter-go/pkg/driver"
	"stone/interpreter-go/pkg/lexer"
)

const cliToolVersion = "stone 0.1.0-dev"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return runREPLCommand(nil)
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return exitOK
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return exitOK
	case "run":
		return runCommand(args[1:])
	case "repl":
		return runREPLCommand(args[1:])
	case "tokens":
		return dumpCommand("tokens", args[1:])
	case "ast":
		return dumpCommand("ast", args[1:])
	default:
		return runCommand(args)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  stone [run] [-config FILE] [-v] FILE|-      run a program")
	fmt.Fprintln(w, "  stone run -git URL [-ref REV] PATH         run a program from a git repository")
	fmt.Fprintln(w, "  stone repl [-config FILE] [-v]             start the interactive loop")
	fmt.Fprintln(w, "  stone tokens FILE                          print the token stream")
	fmt.Fprintln(w, "  stone ast FILE                             print the parsed units")
	fmt.Fprintln(w, "  stone version")
}

type commonFlags struct {
	configPath string
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to stone.yml")
	fs.BoolVar(&c.verbose, "v", false, "log at debug level")
}

// loadConfig honours -config, then a stone.yml found above dir, then defaults.
func (c *commonFlags) loadConfig(dir string) (*driver.Config, error) {
	var (
		cfg *driver.Config
		err error
	)
	switch {
	case c.configPath != "":
		cfg, err = driver.LoadConfig(c.configPath)
	case dir != "":
		cfg, err = driver.LoadConfigFrom(dir)
	default:
		cfg = driver.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runCommand(args []string) int {
	var common commonFlags
	var gitURL, gitRef string
	fs := newFlagSet("run")
	common.register(fs)
	fs.StringVar(&gitURL, "git", "", "clone this repository and run PATH from it")
	fs.StringVar(&gitRef, "ref", "", "revision to read with -git (default HEAD)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "stone run requires exactly one source file")
		printUsage(os.Stderr)
		return exitUsage
	}
	target := fs.Arg(0)

	var (
		src *driver.Source
		err error
	)
	switch {
	case gitURL != "":
		src, err = driver.LoadGit(context.Background(), gitURL, gitRef, target)
	case target == "-":
		var data []byte
		data, err = io.ReadAll(os.Stdin)
		src = &driver.Source{Name: "<stdin>", Text: string(data), Dir: "."}
	default:
		src, err = driver.LoadFile(target)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}

	cfg, err := common.loadConfig(src.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	sess := driver.NewSession(cfg, driver.WithLogger(cfg.NewLogger(os.Stderr)))
	if _, err := sess.RunSource(src); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	return exitOK
}

func runREPLCommand(args []string) int {
	var common commonFlags
	fs := newFlagSet("repl")
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitUsage
	}
	cfg, err := common.loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	return runREPL(cfg)
}

func dumpCommand(mode string, args []string) int {
	var common commonFlags
	fs := newFlagSet(mode)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "stone %s requires exactly one source file\n", mode)
		return exitUsage
	}
	src, err := driver.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}

	if mode == "tokens" {
		tokens, err := lexer.Tokenize(strings.NewReader(src.Text))
		for _, tok := range tokens {
			fmt.Fprintln(os.Stdout, tok)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", src.Name, err)
			return exitError
		}
		return exitOK
	}

	cfg, err := common.loadConfig(src.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	sess := driver.NewSession(cfg, driver.WithLogger(cfg.NewLogger(os.Stderr)))
	units, err := sess.Parse(strings.NewReader(src.Text))
	for _, unit := range units {
		fmt.Fprintln(os.Stdout, unit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", src.Name, err)
		return exitError
	}
	return exitOK
}
