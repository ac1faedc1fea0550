package texp

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "texp.toml", `
verbose = 3
abort = 0
latex = true
include = ["a.texp", "b.texp"]
expression = ['x = "1"']
print = ["input:1"]
ignore = ["ref"]
two_pass = true
show_macros = true
db = "macros.db"
save = true
max_expansions = 50
`)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.Verbose == nil || *c.Verbose != 3 || c.Abort == nil || *c.Abort != 0 {
		t.Errorf("unexpected levels: %v %v", c.Verbose, c.Abort)
	}
	if !c.Latex || !c.TwoPass || !c.ShowMacros || !c.Save {
		t.Errorf("unexpected switches: %+v", c)
	}
	if len(c.Include) != 2 || c.Include[1] != "b.texp" || len(c.Expression) != 1 {
		t.Errorf("unexpected lists: %+v", c)
	}
	if c.DB != "macros.db" || c.MaxExpansions == nil || *c.MaxExpansions != 50 {
		t.Errorf("unexpected values: %+v", c)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "verbosity = 1\n", "unknown keys: verbosity"},
		{"wrong type", "verbose = \"high\"\n", "verbose"},
		{"syntax", "verbose = \n", "config"},
	}
	for _, tt := range tests {
		path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".toml", tt.content)
		_, err := LoadConfig(path)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: got %v, want error containing %q", tt.name, err, tt.want)
		}
	}
	if _, err := LoadConfig(dir + "/missing.toml"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestConfigOptions(t *testing.T) {
	c := &Config{Latex: true, Ignore: []string{"ref"}, Expression: []string{`R = : \mathbb{R}`}}
	var logBuf bytes.Buffer
	r, err := New(append(c.Options(), WithLog(&logBuf))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()

	if r.Engine().Verbose() != 1 {
		t.Errorf("latex mode without an explicit verbosity must use 1, got %d", r.Engine().Verbose())
	}
	got, err := r.ProcessString("doc.tex", "\\R \\ref{x}\n")
	if err != nil {
		t.Fatalf("ProcessString failed: %v", err)
	}
	if got != "\\mathbb{R} \\ref{x}\n" {
		t.Errorf("got %q", got)
	}

	v := 2
	c.Verbose = &v
	r2, err := New(c.Options()...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r2.Close()
	if r2.Engine().Verbose() != 2 {
		t.Errorf("explicit verbosity must win, got %d", r2.Engine().Verbose())
	}
}

func TestConfigPrintLowersVerbosity(t *testing.T) {
	c := &Config{Print: []string{"includegraphics:1:%s.pdf"}}
	var logBuf, stdout bytes.Buffer
	r, err := New(append(c.Options(), WithLog(&logBuf), WithStdout(&stdout))...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()

	if r.Engine().Verbose() != 1 {
		t.Errorf("print mode without an explicit verbosity must use 1, got %d", r.Engine().Verbose())
	}
	if _, err := r.ProcessString("doc.tex", "\\section{Intro}\n\\includegraphics{fig}\n"); err != nil {
		t.Fatalf("ProcessString failed: %v", err)
	}
	if stdout.String() != "fig.pdf\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if logBuf.Len() != 0 {
		t.Errorf("unknown commands must not be reported, got %q", logBuf.String())
	}
}
