package metadata

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
)

// Kind is the kind of element a record is attached to.
type Kind int

const (
	KindClass Kind = iota
	KindProperty
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Target identifies a class, or a property or method of a class.
type Target struct {
	Kind   Kind
	Class  string
	Member string
}

// ClassTarget returns the target of a whole class.
func ClassTarget(class string) Target {
	return Target{Kind: KindClass, Class: class}
}

// PropertyTarget returns the target of a single property.
func PropertyTarget(class, property string) Target {
	return Target{Kind: KindProperty, Class: class, Member: property}
}

// MethodTarget returns the target of a single method.
func MethodTarget(class, method string) Target {
	return Target{Kind: KindMethod, Class: class, Member: method}
}

func (t Target) String() string {
	if t.Member == "" {
		return t.Class
	}
	if t.Kind == KindMethod {
		return t.Class + "::" + t.Member + "()"
	}
	return t.Class + "::$" + t.Member
}

// Record is one declarative attribute attached to a target, as a flat
// key/value record.
type Record struct {
	Target    Target
	Attribute string
	Values    map[string]any
}

// Decode decodes the record values into out, a pointer to one of the typed
// attributes. Unknown keys and values of the wrong type are malformed.
func (r Record) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "meta",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			visibilityHook,
			mapstructure.StringToSliceHookFunc("|"),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(r.Values); err != nil {
		return &oaserr.ClassError{
			Class:  r.Target.Class,
			Member: r.Target.Member,
			Err:    oaserr.Malformed("%s attribute: %v", r.Attribute, err),
		}
	}
	return nil
}

var visibilityType = reflect.TypeFor[openapi.Visibility]()

func visibilityHook(from, to reflect.Type, data any) (any, error) {
	if to != visibilityType || from.Kind() != reflect.String {
		return data, nil
	}
	return openapi.ParseVisibility(data.(string))
}

// Encode converts a typed attribute into flat record values.
func Encode(attr Attribute) (map[string]any, error) {
	values := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &values,
		TagName: "meta",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(attr); err != nil {
		return nil, fmt.Errorf("encode %s attribute: %w", attr.AttributeName(), err)
	}
	return values, nil
}

type tableKey struct {
	target    Target
	attribute string
}

// Table is the process-wide metadata table. It is populated once during the
// load phase and then only read.
type Table struct {
	records []Record
	index   map[tableKey][]int
	classes map[string]struct{}
}

// NewTable returns an empty metadata table.
func NewTable() *Table {
	return &Table{
		index:   make(map[tableKey][]int),
		classes: make(map[string]struct{}),
	}
}

// Add appends a record. Records for the same target and attribute are kept
// in insertion order.
func (t *Table) Add(target Target, attribute string, values map[string]any) {
	if values == nil {
		values = map[string]any{}
	}
	key := tableKey{target: target, attribute: attribute}
	t.index[key] = append(t.index[key], len(t.records))
	t.records = append(t.records, Record{Target: target, Attribute: attribute, Values: values})
	t.classes[target.Class] = struct{}{}
}

// Set encodes a typed attribute and appends it as a record.
func (t *Table) Set(target Target, attr Attribute) error {
	values, err := Encode(attr)
	if err != nil {
		return err
	}
	t.Add(target, attr.AttributeName(), values)
	return nil
}

// Read returns the last record of attribute on target. Absence is reported
// by the boolean, never as an error.
func (t *Table) Read(target Target, attribute string) (Record, bool) {
	idx := t.index[tableKey{target: target, attribute: attribute}]
	if len(idx) == 0 {
		return Record{}, false
	}
	return t.records[idx[len(idx)-1]], true
}

// ReadAll returns every record of attribute on target in insertion order.
func (t *Table) ReadAll(target Target, attribute string) []Record {
	idx := t.index[tableKey{target: target, attribute: attribute}]
	out := make([]Record, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.records[i])
	}
	return out
}

// HasClass reports whether any record is attached to class or its members.
func (t *Table) HasClass(class string) bool {
	_, ok := t.classes[class]
	return ok
}

// Records returns every record in insertion order.
func (t *Table) Records() []Record {
	return append([]Record(nil), t.records...)
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}
