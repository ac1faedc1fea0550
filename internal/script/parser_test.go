package script

import (
	"strings"
	"testing"

	"nickandperla.net/texp/internal/expr"
)

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"assignment", "x = \"a\" + \"b\"\n", []string{`x = ("a" + "b")`}},
		{"index assignment", "get_scope()[\"x\"] = 1\n", []string{`get_scope()["x"] = 1`}},
		{"adjacent strings", "x = \"a\" 'b'\n", []string{`x = "ab"`}},
		{"precedence", "x = not a == b or c and d\n", []string{`x = (not (a == b) or (c and d))`}},
		{"parentheses", "x = (a or b) and c\n", []string{`x = ((a or b) and c)`}},
		{"call", "f(1, g(x), \"s\")\n", []string{`f(1, g(x), "s")`}},
		{"def", "def f(a, b=\"x\"):\n    return a\n", []string{`def f(a, b="x"): ...`}},
		{"decorated def", "@outer\n@inner(1)\ndef f():\n    pass\n", []string{"@outer\n@inner(1)\ndef f(): ..."}},
		{"inline suite", "def f(): return 1\nx = 2\n", []string{"def f(): ...", "x = 2"}},
		{"with", "with _scope(\"#\"):\n    x = 1\n", []string{`with _scope("#"): ...`}},
		{"blank lines", "\n\nx = 1\n\n\ny = 2", []string{"x = 1", "y = 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(stmts) != len(tt.want) {
				t.Fatalf("got %d statements (%v), want %d", len(stmts), stmts, len(tt.want))
			}
			for i, st := range stmts {
				if got := st.String(); got != tt.want[i] {
					t.Errorf("statement %d: got %q, want %q", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestParseIfChain(t *testing.T) {
	stmts, err := Parse("if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	top, ok := stmts[0].(*expr.If)
	if !ok || len(top.Then) != 1 || len(top.Else) != 1 {
		t.Fatalf("unexpected structure: %#v", stmts[0])
	}
	elif, ok := top.Else[0].(*expr.If)
	if !ok || len(elif.Else) != 1 {
		t.Fatalf("elif not nested: %#v", top.Else[0])
	}
	if got := elif.Else[0].String(); got != "x = 3" {
		t.Errorf("else branch: got %q", got)
	}
}

func TestParseNestedBodies(t *testing.T) {
	src := "def outer(a):\n    def inner():\n        return a\n    if a:\n        return inner()\n    return \"\"\n"
	stmts, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	def := stmts[0].(*expr.Def)
	if len(def.Body) != 3 {
		t.Fatalf("got %d statements in body, want 3", len(def.Body))
	}
	if def.Body[1].Pos() != 4 {
		t.Errorf("if statement on line %d, want 4", def.Body[1].Pos())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"    x = 1\n", "unexpected indent"},
		{"f() = 1\n", "cannot assign"},
		{"def f(a=1, b):\n    pass\n", "non-default parameter"},
		{"def f(:\n", "expected NAME"},
		{"x = \n", "unexpected token"},
		{"x = 1 2\n", "expected end of line"},
		{"if a\n    pass\n", "expected :"},
		{"def f():\nreturn 1\n", "expected INDENT"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: got %v, want error containing %q", tt.input, err, tt.want)
		}
	}
}
