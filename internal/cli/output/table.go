package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
)

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table aligned in columns.
func (t *Table) Render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// TableFormatter formats data as a table. Besides *Table it accepts
// string-keyed maps (KEY/VALUE rows sorted by key), slices (one VALUE row
// per element), structs (FIELD/VALUE rows) and scalars.
type TableFormatter struct {
	NoHeaders bool
}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch t := data.(type) {
	case nil:
		return nil
	case *Table:
		return t.Render(w, f.NoHeaders)
	case Table:
		return t.Render(w, f.NoHeaders)
	}
	return toTable(reflect.ValueOf(data)).Render(w, f.NoHeaders)
}

func toTable(v reflect.Value) *Table {
	v = indirect(v)
	switch v.Kind() {
	case reflect.Map:
		t := &Table{Headers: []string{"KEY", "VALUE"}}
		keys := make([]string, 0, v.Len())
		values := make(map[string]string, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := cell(iter.Key())
			keys = append(keys, k)
			values[k] = cell(iter.Value())
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.AddRow(k, values[k])
		}
		return t
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		t := &Table{Headers: []string{"VALUE"}}
		for i := 0; i < v.Len(); i++ {
			t.AddRow(cell(v.Index(i)))
		}
		return t
	case reflect.Struct:
		t := &Table{Headers: []string{"FIELD", "VALUE"}}
		typ := v.Type()
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() || field.Tag.Get("table") == "-" {
				continue
			}
			t.AddRow(fieldName(field), cell(v.Field(i)))
		}
		return t
	}
	return &Table{Headers: []string{"VALUE"}, Rows: [][]string{{cell(v)}}}
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

// cell renders one value. Composite values are shown as compact JSON.
func cell(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return "(nil)"
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		b, err := jsonAPI.Marshal(v.Interface())
		if err != nil {
			return fmt.Sprint(v.Interface())
		}
		return string(b)
	}
	return fmt.Sprint(v.Interface())
}
