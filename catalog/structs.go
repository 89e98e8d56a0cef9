package catalog

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
)

// TableNamer is implemented by entity structs whose table name is not the
// snake-case plural of the type name.
type TableNamer interface {
	TableName() string
}

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
)

// Structs is a Source reflecting entity structs. Columns come from exported
// fields in declaration order, named by their `db` tag (then `json` tag,
// then the snake-case field name). Fields tagged `db:"-"`, `json:"-"` or
// `openapi:"-"` are skipped. Each column keeps the member name the metadata
// loader records `openapi` tags under: the json name, else the field name.
type Structs []any

// FromStructs returns a Source over the given entity values.
func FromStructs(entities ...any) Structs {
	return Structs(entities)
}

// Tables reflects every entity.
func (s Structs) Tables(ctx context.Context) ([]Table, error) {
	tables := make([]Table, 0, len(s))
	for _, v := range s {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := structTable(v)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func structTable(v any) (Table, error) {
	if v == nil {
		return Table{}, oaserr.Malformed("nil entity")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t.Name() == "" {
		return Table{}, &oaserr.ClassError{Class: t.String(), Err: oaserr.Malformed("entity is not a named struct type")}
	}

	table := Table{
		Name:   TableName(t.Name()),
		Entity: metadata.ClassName(t),
	}
	if namer, ok := reflect.New(t).Interface().(TableNamer); ok {
		table.Name = namer.TableName()
	}
	collectColumns(t, &table.Columns)
	return table, nil
}

func collectColumns(t reflect.Type, columns *[]Column) {
	for i := range t.NumField() {
		field := t.Field(i)

		if field.Anonymous && field.Tag.Get("db") == "" {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft != timeType {
				collectColumns(ft, columns)
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		name := field.Tag.Get("db")
		jsonTag := field.Tag.Get("json")
		if name == "-" || jsonTag == "-" || field.Tag.Get("openapi") == "-" {
			continue
		}

		member, _, _ := strings.Cut(jsonTag, ",")
		if member == "" {
			member = field.Name
		}

		name, _, _ = strings.Cut(name, ",")
		if name == "" {
			name, _, _ = strings.Cut(jsonTag, ",")
		}
		if name == "" {
			name = SnakeCase(field.Name)
		}

		typ, nullable := columnType(field.Type)
		*columns = append(*columns, Column{Name: name, Type: typ, Nullable: nullable, Member: member})
	}
}

// columnType maps a Go field type to a column type name.
func columnType(t reflect.Type) (string, bool) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	switch t {
	case timeType:
		return "datetime", nullable
	case uuidType:
		return "uuid", nullable
	}

	switch t.Kind() {
	case reflect.Bool:
		return "boolean", nullable
	case reflect.Int8, reflect.Uint8:
		return "tinyinteger", nullable
	case reflect.Int16, reflect.Uint16:
		return "smallinteger", nullable
	case reflect.Int64, reflect.Uint64:
		return "biginteger", nullable
	case reflect.Int, reflect.Int32, reflect.Uint, reflect.Uint32:
		return "integer", nullable
	case reflect.Float32, reflect.Float64:
		return "float", nullable
	case reflect.String:
		return "string", nullable
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "binary", nullable
		}
		return "json", nullable
	case reflect.Map, reflect.Struct:
		return "json", nullable
	}
	return "string", nullable
}
