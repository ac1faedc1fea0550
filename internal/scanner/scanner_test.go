package scanner

import (
	"strings"
	"testing"

	"nickandperla.net/texp/internal/token"
)

func scanAll(t *testing.T, src string) []*Item {
	t.Helper()
	s := NewFromString(src)
	var items []*Item
	for {
		item, err := s.Next()
		if err != nil {
			t.Fatalf("scanning %q: %v", src, err)
		}
		items = append(items, item)
		if item.Token == token.EOF {
			return items
		}
		if len(items) > 1000 {
			t.Fatalf("scanner does not terminate on %q", src)
		}
	}
}

func tokens(items []*Item) []token.Token {
	out := make([]token.Token, len(items))
	for i, it := range items {
		out[i] = it.Token
	}
	return out
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Token
	}{
		{"assignment", "x = 1\n", []token.Token{token.NAME, token.ASSIGN, token.NUMBER, token.NEWLINE, token.EOF}},
		{"no final newline", "x", []token.Token{token.NAME, token.NEWLINE, token.EOF}},
		{"comparison", "a == b != c\n", []token.Token{token.NAME, token.EQ, token.NAME, token.NE, token.NAME, token.NEWLINE, token.EOF}},
		{"keywords", "if not x and y or None:\n", []token.Token{
			token.IF, token.NOT, token.NAME, token.AND, token.NAME, token.OR, token.NONE, token.COLON, token.NEWLINE, token.EOF,
		}},
		{"function", "def f(a):\n    return a\n", []token.Token{
			token.DEF, token.NAME, token.LPAREN, token.NAME, token.RPAREN, token.COLON, token.NEWLINE,
			token.INDENT, token.RETURN, token.NAME, token.NEWLINE, token.DEDENT, token.EOF,
		}},
		{"nested dedent", "if a:\n  if b:\n    pass\nx\n", []token.Token{
			token.IF, token.NAME, token.COLON, token.NEWLINE,
			token.INDENT, token.IF, token.NAME, token.COLON, token.NEWLINE,
			token.INDENT, token.PASS, token.NEWLINE,
			token.DEDENT, token.DEDENT, token.NAME, token.NEWLINE, token.EOF,
		}},
		{"decorator", "@wrap\n", []token.Token{token.AT, token.NAME, token.NEWLINE, token.EOF}},
		{"newline inside brackets", "f(a,\n  b)\n", []token.Token{
			token.NAME, token.LPAREN, token.NAME, token.COMMA, token.NAME, token.RPAREN, token.NEWLINE, token.EOF,
		}},
		{"continuation", "x = a + \\\n    b\n", []token.Token{
			token.NAME, token.ASSIGN, token.NAME, token.PLUS, token.NAME, token.NEWLINE, token.EOF,
		}},
		{"comments and blank lines", "# header\n\nx # trailing\n\n", []token.Token{token.NAME, token.NEWLINE, token.EOF}},
		{"index", "get_scope()[\"k\"]\n", []token.Token{
			token.NAME, token.LPAREN, token.RPAREN, token.LBRACK, token.STRING, token.RBRACK, token.NEWLINE, token.EOF,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokens(scanAll(t, tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %v, want %v (all: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`""`, ""},
		{`"a\tb\n"`, "a\tb\n"},
		{`"q\"q"`, `q"q`},
		{`"\alpha"`, `\alpha`},
		{`r"\n\alpha"`, `\n\alpha`},
		{`r"x\"y"`, `x\"y`},
		{`"""\frac{#(a)}{2}"""`, `\frac{#(a)}{2}`},
		{"\"\"\"two\nlines\"\"\"", "two\nlines"},
		{`"""a "quoted" word"""`, `a "quoted" word`},
	}
	for _, tt := range tests {
		items := scanAll(t, tt.input+"\n")
		if items[0].Token != token.STRING {
			t.Errorf("%s: got %v, want STRING", tt.input, items[0].Token)
			continue
		}
		if items[0].Value != tt.want {
			t.Errorf("%s: got %q, want %q", tt.input, items[0].Value, tt.want)
		}
	}
}

func TestLineNumbers(t *testing.T) {
	items := scanAll(t, "a\n\n\"\"\"x\ny\"\"\"\nb\n")
	var names []*Item
	for _, it := range items {
		if it.Token == token.NAME {
			names = append(names, it)
		}
	}
	if len(names) != 2 || names[0].Line != 1 || names[1].Line != 5 {
		t.Errorf("unexpected name positions: %v", items)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"\"open\n", "unterminated string"},
		{"\"\"\"never closed", "unterminated triple-quoted string"},
		{"x = $\n", "unexpected character"},
		{"if a:\n    b\n  c\n", "unindent does not match"},
		{"x \\ y\n", "unexpected '\\'"},
	}
	for _, tt := range tests {
		s := NewFromString(tt.input)
		var err error
		for i := 0; i < 100; i++ {
			var item *Item
			item, err = s.Next()
			if err != nil || item.Token == token.EOF {
				break
			}
		}
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: got error %v, want %q", tt.input, err, tt.want)
		}
	}
}

func TestPeek(t *testing.T) {
	s := NewFromString("a b\n")
	p, err := s.Peek()
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if p != n || n.Value != "a" {
		t.Errorf("Peek returned %v, Next returned %v", p, n)
	}
	n, _ = s.Next()
	if n.Value != "b" {
		t.Errorf("got %v, want b", n)
	}
}
