package macro

import (
	"errors"
	"testing"
)

func TestTableClassification(t *testing.T) {
	tbl, err := NewTable(Entry{Name: "_format", Value: Template{Text: "builtin"}})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	if err := tbl.Define("roman", Template{Text: `\mathrm{%s}`}); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if err := tbl.Define("bad_name", Template{}); err == nil {
		t.Errorf("expected error defining user name with hidden marker")
	}
	if err := tbl.Define("", Template{}); err == nil {
		t.Errorf("expected error defining empty name")
	}
	if err := tbl.DefineHidden("plain", Template{}); err == nil {
		t.Errorf("expected error defining hidden name without marker")
	}
	if _, err := NewTable(Entry{Name: "nomarker", Value: Template{}}); err == nil {
		t.Errorf("expected error registering builtin without marker")
	}

	if got := tbl.Len(User); got != 1 {
		t.Errorf("expected 1 user entry, got %d", got)
	}
	hidden := tbl.Entries(Hidden)
	if len(hidden) != 1 || !hidden[0].Builtin {
		t.Errorf("expected one builtin hidden entry, got %+v", hidden)
	}

	if err := tbl.Set("counter_", Template{Text: "0"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := tbl.Len(Hidden); got != 2 {
		t.Errorf("expected 2 hidden entries, got %d", got)
	}
}

func TestRegistryLazyTables(t *testing.T) {
	root, _ := NewTable(Entry{Name: "_format", Value: Template{Text: "f"}})
	root.Define("x", Template{Text: "root x"})
	r := NewRegistry('@', root)

	hash := r.Table('#')
	if hash == root {
		t.Fatalf("expected a distinct table for a new prefix")
	}
	if hash.Has("x") {
		t.Errorf("new table must not inherit user entries")
	}
	if !hash.Has("_format") {
		t.Errorf("new table must inherit hidden entries")
	}
	if got := r.Prefixes(); len(got) != 2 || got[1] != '#' {
		t.Errorf("expected prefixes [@ #], got %q", string(got))
	}

	// Hidden entries added later are copied on access.
	root.DefineHidden("late_", Template{Text: "late"})
	if !r.Table('#').Has("late_") {
		t.Errorf("hidden entry not synchronised on access")
	}
}

func TestRegistryActivate(t *testing.T) {
	root, _ := NewTable()
	r := NewRegistry('@', root)
	r.Table('#').Define("y", Template{Text: "hash y"})

	restore := r.Activate('#')
	if !r.Active().Has("y") {
		t.Errorf("expected # table to be active")
	}
	restore()
	if r.Active() != root {
		t.Errorf("expected root to be active after restore")
	}
}

func TestRegistryWithScope(t *testing.T) {
	root, _ := NewTable()
	root.Define("a", Template{Text: "root a"})
	r := NewRegistry('@', root)
	r.Table('#').Define("b", Template{Text: "hash b"})

	err := r.WithScope('#', func() error {
		if root.Has("a") {
			t.Errorf("root user entries must be hidden inside the scope")
		}
		if !root.Has("b") {
			t.Errorf("scope entries must be visible inside the scope")
		}
		root.Define("c", Template{Text: "new in hash"})
		return errors.New("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
	if !root.Has("a") || root.Has("c") || root.Has("b") {
		t.Errorf("root not restored: a=%v b=%v c=%v", root.Has("a"), root.Has("b"), root.Has("c"))
	}
	if !r.Table('#').Has("c") {
		t.Errorf("definition made in scope must land in the scope's table")
	}
}

func TestRegistrySetPrimary(t *testing.T) {
	root, _ := NewTable()
	r := NewRegistry('@', root)
	r.SetPrimary('\\')
	if r.Primary() != '\\' || r.Table('\\') != root {
		t.Errorf("expected root rebound to backslash")
	}
	if len(r.Prefixes()) != 1 {
		t.Errorf("expected a single prefix, got %q", string(r.Prefixes()))
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		tmpl  string
		args  []string
		named map[string]string
		want  string
		err   bool
	}{
		{`\mathrm{%s/%s}`, []string{"a", "b"}, nil, `\mathrm{a/b}`, false},
		{"no args", nil, nil, "no args", false},
		{"100%%", nil, nil, "100%", false},
		{"$%(2)s^{%(1)s}$", []string{"x", "y"}, nil, "$y^{x}$", false},
		{"%(name)s!", nil, map[string]string{"name": "hi"}, "hi!", false},
		{"%s %s", []string{"one"}, nil, "", true},
		{"%s", []string{"one", "two"}, nil, "", true},
		{"plain", []string{"extra"}, nil, "", true},
		{"50% off", nil, nil, "", true},
		{"%(3)s", []string{"a"}, nil, "", true},
	}

	for _, tt := range tests {
		got, err := Format(tt.tmpl, tt.args, tt.named)
		if tt.err {
			if err == nil {
				t.Errorf("Format(%q, %q): expected error, got %q", tt.tmpl, tt.args, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Format(%q, %q): unexpected error: %v", tt.tmpl, tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Format(%q, %q): expected %q, got %q", tt.tmpl, tt.args, tt.want, got)
		}
	}
}

func TestFormatArgCountIsDetectable(t *testing.T) {
	_, err := Format("%s", nil, nil)
	if !errors.Is(err, ErrArgCount) {
		t.Errorf("expected ErrArgCount, got %v", err)
	}
}
