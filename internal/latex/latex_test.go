package latex

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nickandperla.net/texp/internal/engine"
)

func newLatexEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *bytes.Buffer) {
	t.Helper()
	var logBuf bytes.Buffer
	e, err := engine.New(nil, append([]engine.Option{engine.WithLog(&logBuf)}, opts...)...)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	if err := Enable(e); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	return e, &logBuf
}

func run(t *testing.T, e *engine.Engine, src string) string {
	t.Helper()
	lines, err := e.Process("doc.tex", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return strings.Join(lines, "")
}

func TestNewCommandOptionalDefault(t *testing.T) {
	e, _ := newLatexEngine(t)
	got := run(t, e, "\\newcommand{\\x}[2][10]{$#2^{#1}$}\n\\x{5}\n\\x[3]{5}\n")
	want := "$5^{10}$\n$5^{3}$\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewCommandForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", "\\newcommand{\\R}{\\mathbb{R}}\nin \\R.\n", "in \\mathbb{R}.\n"},
		{"arity", "\\newcommand{\\pair}[2]{(#1, #2)}\n\\pair{a}{b}\n", "(a, b)\n"},
		{"starred", "\\newcommand*{\\half}[1]{#1/2}\n\\half{x}\n", "x/2\n"},
		{"percent kept", "\\newcommand{\\pct}[1]{#1\\%}\n\\pct{5}\n", "5\\%\n"},
		{"three params with default", "\\newcommand{\\v}[3][+]{$#2^{#1#3}$}\n\\v{a}{b}\n", "$a^{+b}$\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newLatexEngine(t)
			if got := run(t, e, tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandStages(t *testing.T) {
	c := NewCommand(`\x`, nil)
	if c.Finished {
		t.Fatalf("definition without body must not be finished")
	}
	out, err := c.Advance([]string{"3"})
	if err != nil || out.Text != `\x` || !c.HasOpt || c.NArgs != 3 {
		t.Fatalf("stage 2: %+v, %v, %+v", out, err, c)
	}
	out, err = c.Advance([]string{"$#2^{#1#3}$", "+"})
	if err != nil || !out.NoValue || !c.Finished || c.Default != "+" {
		t.Fatalf("stage 3: %+v, %v, %+v", out, err, c)
	}

	bad := NewCommand(`\y`, nil)
	if _, err := bad.Advance([]string{"two"}); !errors.Is(err, engine.ErrArity) {
		t.Errorf("expected ErrArity for a non-numeric arity, got %v", err)
	}
}

func TestCommandArity(t *testing.T) {
	c := NewCommand(`\p`, nil)
	if _, err := c.Advance([]string{"#1-#2", "2"}); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	if _, err := c.Expand([]string{"a"}); !errors.Is(err, engine.ErrArity) {
		t.Errorf("too few args: expected ErrArity, got %v", err)
	}
	if got, err := c.Expand([]string{"a", "b", ""}); err != nil || got != "a-b" {
		t.Errorf("empty extra arg: got %q, %v", got, err)
	}
	if _, err := c.Expand([]string{"a", "b", "c"}); !errors.Is(err, engine.ErrArity) {
		t.Errorf("extra arg: expected ErrArity, got %v", err)
	}
}

func TestRedefinitionWarning(t *testing.T) {
	e, logBuf := newLatexEngine(t)
	run(t, e, "\\newcommand{\\z}{a}\n\\newcommand{\\z}{b}\n")
	if !strings.Contains(logBuf.String(), `Redefining \z`) {
		t.Errorf("expected redefinition warning, log: %q", logBuf.String())
	}

	e, logBuf = newLatexEngine(t)
	got := run(t, e, "\\newcommand{\\z}{a}\n\\renewcommand{\\z}{b}\n\\z\n")
	if strings.Contains(logBuf.String(), "Redefining") {
		t.Errorf("renewcommand must not warn, log: %q", logBuf.String())
	}
	if got != "b\n" {
		t.Errorf("got %q", got)
	}
}

func TestStructuralCommandsStayInPlace(t *testing.T) {
	e, _ := newLatexEngine(t)
	in := "\\documentclass[a4paper,12pt]{article}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amsmath,graphicx}\n\\begin{document}\nhi\n\\end{document}\n"
	if got := run(t, e, in); got != in {
		t.Errorf("got %q, want input unchanged", got)
	}
	doc := e.Document()
	if doc.Class != "article" || strings.Join(doc.ClassOptions, ",") != "a4paper,12pt" {
		t.Errorf("unexpected class %q %v", doc.Class, doc.ClassOptions)
	}
	if opts, ok := doc.Packages["inputenc"]; !ok || len(opts) != 1 || opts[0] != "utf8" {
		t.Errorf("unexpected inputenc options %v", opts)
	}
	if _, ok := doc.Packages["graphicx"]; !ok {
		t.Errorf("graphicx not recorded: %v", doc.Packages)
	}
	if len(doc.Environments()) != 0 {
		t.Errorf("expected all environments closed, got %v", doc.Environments())
	}
}

func TestEnvironmentMismatchIsReported(t *testing.T) {
	e, logBuf := newLatexEngine(t)
	in := "\\begin{a}\n\\end{b}\n"
	if got := run(t, e, in); got != in {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(logBuf.String(), `expected "\end{a}"`) {
		t.Errorf("expected mismatch report, log: %q", logBuf.String())
	}
}

func TestInput(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub.tex")
	if err := os.WriteFile(sub, []byte("\\newcommand{\\y}{why}\nsub \\y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, _ := newLatexEngine(t)
	got := run(t, e, "\\input{"+filepath.Join(dir, "sub")+"}\nmain \\y\n")
	if got != "sub why\nmain why\n" {
		t.Errorf("got %q", got)
	}
}

func TestInputPath(t *testing.T) {
	if got := InputPath("chapter"); got != "chapter.tex" {
		t.Errorf("got %q", got)
	}
	if got := InputPath("table.inc"); got != "table.inc" {
		t.Errorf("got %q", got)
	}
}

func TestIgnore(t *testing.T) {
	e, _ := newLatexEngine(t)
	if err := Ignore(e, "foo"); err != nil {
		t.Fatal(err)
	}
	in := "\\newcommand{\\foo}{x}\n\\foo{1}\n"
	if got := run(t, e, in); got != in {
		t.Errorf("got %q, want input unchanged", got)
	}
}

func TestParsePrintSpec(t *testing.T) {
	tests := []struct {
		in   string
		want PrintSpec
		err  bool
	}{
		{"cite", PrintSpec{"cite", -1, "%s"}, false},
		{"input:1", PrintSpec{"input", 0, "%s"}, false},
		{"includegraphics:2:%s.pdf", PrintSpec{"includegraphics", 1, "%s.pdf"}, false},
		{"x:0", PrintSpec{}, true},
		{":1", PrintSpec{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePrintSpec(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParsePrintSpec(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParsePrintSpec(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPrintMode(t *testing.T) {
	var stdout bytes.Buffer
	e, _ := newLatexEngine(t, engine.WithStdout(&stdout))
	for _, s := range []string{"cite:1:[%s]", "usepackage"} {
		spec, err := ParsePrintSpec(s)
		if err != nil {
			t.Fatal(err)
		}
		if err := SetPrintMode(e, spec); err != nil {
			t.Fatal(err)
		}
	}
	if e.OutputEnabled() {
		t.Errorf("print mode must disable output")
	}
	run(t, e, "see \\cite{knuth}\n\\usepackage[utf8]{inputenc}\n")
	if got := stdout.String(); got != "[knuth]\ninputenc|utf8\n" {
		t.Errorf("got %q", got)
	}
	if _, ok := e.Document().Packages["inputenc"]; !ok {
		t.Errorf("print mode must chain to the structural command")
	}
}

func TestSentenceHelpers(t *testing.T) {
	e, _ := newLatexEngine(t, engine.WithVerbose(0))
	e.Table().Define("word", &engine.Native{Name: "word", Fn: func(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
		return engine.Text(UpcaseAtStart(e, "word")), nil
	}})
	e.Table().Define("m", &engine.Native{Name: "m", Fn: func(e *engine.Engine, c *engine.Call) (engine.Outcome, error) {
		return engine.Text(EnsureMath(e, "x")), nil
	}})

	got := run(t, e, "\\word{} starts. \\word{} then \\word{}\n")
	if got != "Word starts. Word then word\n" {
		t.Errorf("got %q", got)
	}
	got = run(t, e, "\\begin{equation}\n\\m{}\n\\end{equation}\n\\m{}\n")
	want := "\\begin{equation}\nx\n\\end{equation}\n\\ensuremath{x}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEnableIsIdempotent(t *testing.T) {
	e, _ := newLatexEngine(t)
	if err := Enable(e); err != nil {
		t.Fatal(err)
	}
	if p := e.Registry().Prefixes(); len(p) != 1 || p[0] != Prefix {
		t.Errorf("unexpected prefixes %q", string(p))
	}
}
