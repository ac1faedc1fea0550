package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "", "-V")
	if code != 0 || out != "2.00\n" {
		t.Errorf("got %d %q", code, out)
	}
}

func TestHelp(t *testing.T) {
	code, _, errOut := runCLI(t, "", "-h")
	if code != 0 || !strings.Contains(errOut, "usage: texp") {
		t.Errorf("got %d %q", code, errOut)
	}
	if code, _, _ := runCLI(t, "", "-nosuchflag"); code != 2 {
		t.Errorf("unknown flag: got exit code %d", code)
	}
}

func TestStdin(t *testing.T) {
	code, out, errOut := runCLI(t, "%@x = \"expanded\"\n@x text\n")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "expanded text\n" {
		t.Errorf("got %q", out)
	}
}

func TestTwoPassStdin(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"implicit", []string{"-2"}, "X\n"},
		{"dash", []string{"-2", "-"}, "X\n"},
		{"dash single pass", []string{"-"}, "X\n"},
	}
	for _, tt := range tests {
		code, out, errOut := runCLI(t, "%@x = \"X\"\n@x\n", tt.args...)
		if code != 0 {
			t.Fatalf("%s: exit %d: %s", tt.name, code, errOut)
		}
		if out != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, out, tt.want)
		}
	}
}

func TestFilesAndOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "doc.texp", "%@x = \"one\"\n@x\n")
	outPath := filepath.Join(dir, "doc.tex")
	code, out, errOut := runCLI(t, "", "-o", outPath, in)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "" {
		t.Errorf("stdout must stay empty with -o, got %q", out)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "one\n" {
		t.Errorf("got %q", data)
	}
}

func TestOrderedFlags(t *testing.T) {
	dir := t.TempDir()
	inc := writeFile(t, dir, "macros.texp", "R = : \\mathbb{R}\n")
	code, out, errOut := runCLI(t, "$\\R$ and \\ref{x}\n", "-L", "-i", inc, "-I", "ref", "-e", `N = "\mathbb{N}"`)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "$\\mathbb{R}$ and \\ref{x}\n" {
		t.Errorf("got %q", out)
	}
	// -L lowers the verbosity to 1: unknown commands are not reported
	if strings.Contains(errOut, "mathbb") {
		t.Errorf("unexpected diagnostics: %s", errOut)
	}
}

func TestPrintMode(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"ignored input", "\\includegraphics{fig}\n\\input{chapter}\n",
			[]string{"-P", "includegraphics:1:%s.pdf", "-P", "input:1:%s.tex", "-I", "input"}, "fig.pdf\n"},
		{"unknown commands", "\\section{Intro}\n\\emph{x} \\includegraphics{fig}\n",
			[]string{"-P", "includegraphics:1:%s.pdf"}, "fig.pdf\n"},
	}
	for _, tt := range tests {
		code, out, errOut := runCLI(t, tt.stdin, tt.args...)
		if code != 0 {
			t.Fatalf("%s: exit %d: %s", tt.name, code, errOut)
		}
		if out != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, out, tt.want)
		}
		// -P implies -L, which lowers the verbosity to 1
		if errOut != "" {
			t.Errorf("%s: unexpected diagnostics: %q", tt.name, errOut)
		}
	}

	code, _, errOut := runCLI(t, "\\section{Intro}\n", "-P", "includegraphics", "-v", "2")
	if code != 0 || !strings.Contains(errOut, "section") {
		t.Errorf("explicit -v 2 must report unknown commands: exit %d, stderr %q", code, errOut)
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"missing file", "", []string{filepath.Join(dir, "missing.tex")}, "Error: opening input"},
		{"block failure", "%@def (\ntext\n", nil, "Error: block execution failed"},
		{"abort on unknown macro", "@nothing\n", []string{"-a", "2"}, "Error:"},
		{"bad config", "", []string{"-config", filepath.Join(dir, "missing.toml")}, "Error: config"},
	}
	for _, tt := range tests {
		code, _, errOut := runCLI(t, tt.stdin, tt.args...)
		if code != 1 || !strings.Contains(errOut, tt.want) {
			t.Errorf("%s: got exit %d, stderr %q", tt.name, code, errOut)
		}
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "texp.toml", "quiet = true\nexpression = ['x = \"from config\"']\n")

	code, out, errOut := runCLI(t, "@x\n", "-config", cfg)
	if code != 0 || out != "" {
		t.Errorf("quiet from config: exit %d, out %q, err %s", code, out, errOut)
	}

	code, out, errOut = runCLI(t, "@x\n", "-config", cfg, "-q=false")
	if code != 0 || out != "from config\n" {
		t.Errorf("flag must override config: exit %d, out %q, err %s", code, out, errOut)
	}
}

func TestShowMacros(t *testing.T) {
	code, _, errOut := runCLI(t, "%@used = \"u\"\n%@unused = \"v\"\n@used\n", "-M")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "User: unused (unused), used") {
		t.Errorf("got %q", errOut)
	}
}

func TestLibrary(t *testing.T) {
	db := filepath.Join(t.TempDir(), "macros.db")
	code, _, errOut := runCLI(t, "%@greet = \"hi %s\"\n", "-db", db, "-save")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	code, out, errOut := runCLI(t, "@greet{there}\n", "-db", db)
	if code != 0 || out != "hi there\n" {
		t.Errorf("exit %d, out %q, err %s", code, out, errOut)
	}
}
