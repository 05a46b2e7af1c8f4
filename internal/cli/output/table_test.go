package output

import (
	"bytes"
	"testing"
)

func render(t *testing.T, f *TableFormatter, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return buf.String()
}

func TestTableFormatter(t *testing.T) {
	type info struct {
		Version string `json:"version"`
		Dirty   bool
		Secret  string `table:"-"`
	}

	tests := []struct {
		name string
		data any
		want string
	}{
		{"nil", nil, ""},
		{
			"table",
			&Table{Headers: []string{"KEY", "N"}, Rows: [][]string{{"a", "1"}, {"long", "22"}}},
			"KEY   N\na     1\nlong  22\n",
		},
		{
			"map sorted",
			map[string]any{"b": 2, "a": []any{"x"}},
			"KEY  VALUE\na    [\"x\"]\nb    2\n",
		},
		{
			"slice",
			[]string{"k1", "k2"},
			"VALUE\nk1\nk2\n",
		},
		{
			"struct",
			info{Version: "dev", Dirty: true, Secret: "s"},
			"FIELD    VALUE\nversion  dev\nDirty    true\n",
		},
		{"scalar", "PONG", "VALUE\nPONG\n"},
		{"nil in slice", []any{nil, "v"}, "VALUE\n(nil)\nv\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, &TableFormatter{}, tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	got := render(t, &TableFormatter{NoHeaders: true}, []string{"a"})
	if got != "a\n" {
		t.Errorf("got %q, want %q", got, "a\n")
	}
}

func TestTable_AddRow(t *testing.T) {
	var tbl Table
	tbl.AddRow("a", "b")
	if len(tbl.Rows) != 1 || tbl.Rows[0][1] != "b" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}
