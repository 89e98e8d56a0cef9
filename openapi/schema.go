package openapi

import (
	"fmt"
	"strings"
)

// Visibility controls whether a schema is placed in the shared registry.
type Visibility int

const (
	// VisibilityDefault schemas are registered in components.schemas and
	// referenced by name.
	VisibilityDefault Visibility = iota
	// VisibilityNever schemas are embedded inline in the single response that
	// declared them and never registered.
	VisibilityNever
	// VisibilityReadOnly schemas are registered and marked readOnly.
	VisibilityReadOnly
	// VisibilityWriteOnly schemas are registered and marked writeOnly.
	VisibilityWriteOnly
)

var visibilityNames = map[Visibility]string{
	VisibilityDefault:   "default",
	VisibilityNever:     "never",
	VisibilityReadOnly:  "readOnly",
	VisibilityWriteOnly: "writeOnly",
}

func (v Visibility) String() string {
	if name, ok := visibilityNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// Registered reports whether schemas with this visibility belong in the
// shared registry.
func (v Visibility) Registered() bool {
	return v != VisibilityNever
}

// ParseVisibility parses a visibility name case-insensitively. An empty
// string is VisibilityDefault.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "public":
		return VisibilityDefault, nil
	case "never", "private":
		return VisibilityNever, nil
	case "readonly":
		return VisibilityReadOnly, nil
	case "writeonly":
		return VisibilityWriteOnly, nil
	}
	return VisibilityDefault, fmt.Errorf("unknown visibility %q", s)
}

// Schema represents a Schema Object of OpenAPI v3.0.3.
//
// Name, Visibility and Custom describe where the schema came from and how it
// is scoped; they are not part of the wire format. For a schema of type
// "object" Properties is set, for "array" Items is set.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
type Schema struct {
	Ref string `json:"$ref,omitempty"`

	Title       string `json:"title,omitempty"`
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Example     any    `json:"example,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Nullable    bool   `json:"nullable,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
	WriteOnly   bool   `json:"writeOnly,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	// See: https://spec.openapis.org/oas/v3.0.3#properties
	Items                *Schema  `json:"items,omitempty"`
	Properties           *Schemas `json:"properties,omitempty"`
	Required             []string `json:"required,omitempty"`
	AdditionalProperties *Schema  `json:"additionalProperties,omitempty"`

	AllOf []*Schema `json:"allOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`

	Name       string     `json:"-"`
	Visibility Visibility `json:"-"`
	Custom     bool       `json:"-"`
}

// IsCustom reports whether the schema was built from a custom schema class
// rather than from entity metadata.
func (s *Schema) IsCustom() bool {
	return s != nil && s.Custom
}

// Property returns the named property schema of an object schema.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil || s.Properties == nil {
		return nil, false
	}
	return s.Properties.Get(name)
}

// PropertyNames returns the property names in declaration order.
func (s *Schema) PropertyNames() []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// RefSchema returns a schema referencing the named component schema.
//
// See: https://spec.openapis.org/oas/v3.0.3#reference-object
func RefSchema(name string) *Schema {
	return &Schema{Ref: SchemaRefPrefix + name}
}

// RefName returns the component name of a local schema reference.
func RefName(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, SchemaRefPrefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// WalkRefs calls fn for every $ref reachable from s, depth first.
func WalkRefs(s *Schema, fn func(ref string)) {
	if s == nil {
		return
	}
	if s.Ref != "" {
		fn(s.Ref)
	}
	WalkRefs(s.Items, fn)
	WalkRefs(s.AdditionalProperties, fn)
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			WalkRefs(pair.Value, fn)
		}
	}
	for _, group := range [][]*Schema{s.AllOf, s.OneOf, s.AnyOf} {
		for _, sub := range group {
			WalkRefs(sub, fn)
		}
	}
}
