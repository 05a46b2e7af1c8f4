package config

import (
	"reflect"
	"time"
)

// Flatten returns the config as dotted koanf keys, the same keys the file,
// NSKV_* variables and overrides use. Durations are rendered as strings.
func Flatten(cfg *Config) map[string]any {
	out := make(map[string]any)
	flatten(reflect.ValueOf(cfg).Elem(), "", out)
	return out
}

var durationType = reflect.TypeOf(time.Duration(0))

func flatten(v reflect.Value, prefix string, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("koanf")
		if name == "" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		f := v.Field(i)
		switch {
		case f.Kind() == reflect.Struct:
			flatten(f, key, out)
		case f.Type() == durationType:
			out[key] = time.Duration(f.Int()).String()
		case f.Kind() == reflect.Slice:
			items := make([]any, f.Len())
			for j := range items {
				items[j] = f.Index(j).Interface()
			}
			out[key] = items
		default:
			out[key] = f.Interface()
		}
	}
}
