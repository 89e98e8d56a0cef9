package property

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// typeAliases maps declared type names (manifest classes, metadata overrides
// and table column types) to an OpenAPI type and format.
var typeAliases = map[string][2]string{
	"string":       {"string", ""},
	"text":         {"string", ""},
	"char":         {"string", ""},
	"str":          {"string", ""},
	"integer":      {"integer", ""},
	"int":          {"integer", ""},
	"smallinteger": {"integer", "int32"},
	"tinyinteger":  {"integer", "int32"},
	"int32":        {"integer", "int32"},
	"biginteger":   {"integer", "int64"},
	"int64":        {"integer", "int64"},
	"number":       {"number", ""},
	"float":        {"number", "float"},
	"double":       {"number", "double"},
	"decimal":      {"number", ""},
	"boolean":      {"boolean", ""},
	"bool":         {"boolean", ""},
	"date":         {"string", "date"},
	"datetime":     {"string", "date-time"},
	"timestamp":    {"string", "date-time"},
	"time":         {"string", "time"},
	"uuid":         {"string", "uuid"},
	"binary":       {"string", "binary"},
	"json":         {"object", ""},
	"object":       {"object", ""},
	"array":        {"array", ""},
}

// TypeFor maps a declared type name to an OpenAPI type and format. Names are
// matched case-insensitively. A "[]" prefix declares an array of the named
// type and is reported through items.
func TypeFor(name string) (typ, format string, items *Property, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if elem, isSlice := strings.CutPrefix(name, "[]"); isSlice {
		t, f, _, ok := TypeFor(elem)
		if !ok {
			return "", "", nil, false
		}
		return "array", "", &Property{Type: t, Format: f}, true
	}
	info, ok := typeAliases[name]
	if !ok {
		return "", "", nil, false
	}
	return info[0], info[1], nil, true
}

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
)

// inferGoType maps a Go type to an OpenAPI type. ok is false when the type
// has no primitive mapping.
func inferGoType(t reflect.Type) (p Property, ok bool) {
	if t.Kind() == reflect.Pointer {
		p, ok = inferGoType(t.Elem())
		p.Nullable = true
		return p, ok
	}

	switch t {
	case timeType:
		return Property{Type: "string", Format: "date-time"}, true
	case uuidType:
		return Property{Type: "string", Format: "uuid"}, true
	}

	switch t.Kind() {
	case reflect.Bool:
		return Property{Type: "boolean"}, true

	case reflect.Int32, reflect.Uint32, reflect.Int16, reflect.Uint16, reflect.Int8, reflect.Uint8:
		return Property{Type: "integer", Format: "int32"}, true

	case reflect.Int64, reflect.Uint64:
		return Property{Type: "integer", Format: "int64"}, true

	case reflect.Int, reflect.Uint:
		return Property{Type: "integer"}, true

	case reflect.Float32:
		return Property{Type: "number", Format: "float"}, true

	case reflect.Float64:
		return Property{Type: "number", Format: "double"}, true

	case reflect.String:
		return Property{Type: "string"}, true

	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return Property{Type: "string", Format: "byte"}, true
		}
		items, ok := inferGoType(t.Elem())
		if !ok {
			return Property{Type: "array", Items: &Property{Type: "string"}}, false
		}
		items.Nullable = false
		return Property{Type: "array", Items: &items}, true
	}

	return Property{Type: "string"}, false
}
