package templates

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// funcMap is the set of helpers available to project templates.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"toJSON": funcToJSON,
		"pyLit":  PythonLiteral,
		"noBody": noBodyStatus,
	}
}

// funcToJSON renders v as compact JSON with sorted map keys.
func funcToJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// noBodyStatus reports whether an HTTP status forbids a response body.
func noBodyStatus(status int) bool {
	return status < 200 || status == 204 || status == 304
}

// PythonLiteral renders a JSON-compatible Go value as a Python literal.
// Map keys are emitted in sorted order so output is deterministic.
func PythonLiteral(v any) (string, error) {
	var b strings.Builder
	if err := writePython(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writePython(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("None")
		return nil
	case bool:
		if val {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
		return nil
	case string:
		writePythonString(b, val)
		return nil
	case json.Number:
		b.WriteString(val.String())
		return nil
	case float32:
		return writePythonFloat(b, float64(val))
	case float64:
		return writePythonFloat(b, val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Slice, reflect.Array:
		b.WriteString("[")
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writePython(b, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		b.WriteString("]")
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("python literal: unsupported map key type %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			writePythonString(b, k)
			b.WriteString(": ")
			if err := writePython(b, rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()); err != nil {
				return err
			}
		}
		b.WriteString("}")
	default:
		return fmt.Errorf("python literal: unsupported type %T", v)
	}
	return nil
}

func writePythonFloat(b *strings.Builder, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("python literal: %v is not JSON-compatible", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	b.WriteString(s)
	return nil
}

// writePythonString emits a double-quoted string. JSON string escapes are valid Python escapes.
func writePythonString(b *strings.Builder, s string) {
	raw, _ := json.Marshal(s)
	b.Write(raw)
}
