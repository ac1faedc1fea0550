// Command texp is the texp preprocessor CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"nickandperla.net/texp/internal/engine"
	"nickandperla.net/texp/internal/stdlib"
	"nickandperla.net/texp/pkg/texp"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// step is one occurrence of an order-sensitive flag.
type step struct {
	flag  string
	value string
}

// orderedFlag records every occurrence of a repeatable flag in a list
// shared with the other ordered flags.
type orderedFlag struct {
	name   string
	steps  *[]step
	isBool bool
}

func (f orderedFlag) String() string { return "" }

func (f orderedFlag) Set(v string) error {
	*f.steps = append(*f.steps, step{f.name, v})
	return nil
}

func (f orderedFlag) IsBoolFlag() bool { return f.isBool }

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("texp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, stdlib.Usage) }

	var steps []step
	var (
		outPath     = fs.String("o", "", "Output file")
		verbose     = fs.Int("v", engine.DefaultVerbose, "Verbosity level (0-3)")
		abort       = fs.Int("a", engine.DefaultAbort, "Abort level")
		quiet       = fs.Bool("q", false, "Do not write any output")
		twoPass     = fs.Bool("2", false, "Process the input twice")
		showMacros  = fs.Bool("M", false, "List the defined macros after the run")
		showBlocks  = fs.Bool("B", false, "Keep executed code lines in the output")
		version     = fs.Bool("V", false, "Print the version and exit")
		configPath  = fs.String("config", "", "TOML configuration file")
		dbPath      = fs.String("db", "", "SQLite macro library")
		save        = fs.Bool("save", false, "Write macros back to the library")
		interactive = fs.Bool("interactive", false, "Start an interactive session")
		noStdlib    = fs.Bool("no-stdlib", false, "Disable the default prelude")
	)
	fs.Var(orderedFlag{name: "i", steps: &steps}, "i", "Execute a code file (repeatable)")
	fs.Var(orderedFlag{name: "e", steps: &steps}, "e", "Execute one line of code (repeatable)")
	fs.Var(orderedFlag{name: "P", steps: &steps}, "P", "Print arguments of cmd[:n[:format]] (repeatable)")
	fs.Var(orderedFlag{name: "I", steps: &steps}, "I", "Leave a macro unexpanded (repeatable)")
	fs.Var(orderedFlag{name: "L", steps: &steps, isBool: true}, "L", "Parse LaTeX commands")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *version {
		fmt.Fprintf(stdout, "%.2f\n", texp.Version)
		return 0
	}

	cfg := &texp.Config{}
	if *configPath != "" {
		c, err := texp.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg = c
	}

	// Flags explicitly set on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.Output = *outPath
		case "v":
			cfg.Verbose = verbose
		case "a":
			cfg.Abort = abort
		case "q":
			cfg.Quiet = *quiet
		case "2":
			cfg.TwoPass = *twoPass
		case "M":
			cfg.ShowMacros = *showMacros
		case "B":
			cfg.ShowBlocks = *showBlocks
		case "db":
			cfg.DB = *dbPath
		case "save":
			cfg.Save = *save
		case "no-stdlib":
			cfg.NoStdlib = *noStdlib
		}
	})
	// -L, and -P which turns it on, lower the verbosity to 1
	for _, s := range steps {
		latexOn := (s.flag == "L" && s.value != "false") || s.flag == "P"
		if latexOn && cfg.Verbose == nil {
			one := 1
			cfg.Verbose = &one
		}
	}

	out := stdout
	if cfg.Output != "" && cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	opts := []texp.Option{texp.WithOutput(out), texp.WithStdout(stdout), texp.WithStdin(stdin), texp.WithLog(stderr)}
	opts = append(opts, cfg.Options()...)
	for _, s := range steps {
		switch s.flag {
		case "i":
			opts = append(opts, texp.WithInclude(s.value))
		case "e":
			opts = append(opts, texp.WithExpression(s.value))
		case "P":
			opts = append(opts, texp.WithPrint(s.value))
		case "I":
			opts = append(opts, texp.WithIgnore(s.value))
		case "L":
			if s.value != "false" {
				opts = append(opts, texp.WithLatex())
			}
		}
	}

	runtime, err := texp.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer runtime.Close()

	paths := fs.Args()
	switch {
	case len(paths) > 0:
		err = runtime.Run(paths)
	case *interactive || isTerminal(stdin):
		err = runREPL(runtime, stdout, stderr)
	default:
		err = runtime.RunReader("stdin", stdin)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
