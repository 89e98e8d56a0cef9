// Package property resolves the properties of a class: an ordered mapping of
// exposed name to type, format, example and visibility, built from
// declarative metadata where present and inferred from declared types
// otherwise.
package property

import (
	"strconv"

	"github.com/rs/zerolog"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/vitalvas/oasbake/catalog"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
)

// Visibility of a single property.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

// Property is a leaf of the schema tree.
type Property struct {
	Name        string
	Type        string
	Format      string
	Description string
	Example     any
	Enum        []any
	// Items describes array elements when Type is "array".
	Items      *Property
	Nullable   bool
	ReadOnly   bool
	WriteOnly  bool
	Deprecated bool
	Required   bool
	Visibility Visibility
}

// Properties maps exposed property names to properties in declaration order.
type Properties = orderedmap.OrderedMap[string, Property]

// Inference records a member whose declared type had no primitive mapping
// and was resolved to string.
type Inference struct {
	Class    string
	Property string
	Declared string
}

// Resolver resolves class properties against a metadata table.
type Resolver struct {
	table      *metadata.Table
	logger     zerolog.Logger
	inferences []Inference
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report type inferences.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver returns a resolver reading overrides from table.
func NewResolver(table *metadata.Table, opts ...Option) *Resolver {
	r := &Resolver{
		table:  table,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Inferences returns every string fallback recorded so far.
func (r *Resolver) Inferences() []Inference {
	return append([]Inference(nil), r.inferences...)
}

// Resolve returns the properties of class in declaration order. Members
// without metadata get their type inferred; hidden members are kept with
// Visibility Hidden so callers decide whether to emit them. Only malformed
// metadata is an error.
func (r *Resolver) Resolve(class *metadata.Class) (*Properties, error) {
	props := orderedmap.New[string, Property](len(class.Members))

	for _, m := range class.Members {
		prop, ok := r.infer(m)
		if !ok {
			r.record(class.Name, m)
		}
		prop.Name = m.JSONName
		prop.Required = !m.Optional

		meta, err := r.table.PropertyOf(class.Name, m.JSONName)
		if err != nil {
			return nil, err
		}
		if meta != nil {
			if err := Apply(&prop, meta); err != nil {
				return nil, &oaserr.ClassError{Class: class.Name, Member: m.JSONName, Err: err}
			}
		}

		if _, ok := props.Get(prop.Name); ok {
			return nil, &oaserr.ClassError{Class: class.Name, Member: m.JSONName, Err: oaserr.Malformed("property %q is declared twice", prop.Name)}
		}
		props.Set(prop.Name, prop)
	}

	return props, nil
}

// Column resolves a table column of an entity class: the column type name is
// mapped like a declared member type and the entity's property metadata,
// recorded under the column's member name, is applied on top.
func (r *Resolver) Column(entity string, col catalog.Column) (Property, error) {
	m := metadata.Member{Name: col.Name, JSONName: col.Name, TypeName: col.Type, Nullable: col.Nullable, Optional: col.Nullable}
	prop, ok := r.infer(m)
	if !ok {
		r.record(entity, m)
	}
	prop.Name = col.Name

	member := col.MemberName()
	meta, err := r.table.PropertyOf(entity, member)
	if err != nil {
		return Property{}, err
	}
	if meta != nil {
		if err := Apply(&prop, meta); err != nil {
			return Property{}, &oaserr.ClassError{Class: entity, Member: member, Err: err}
		}
	}
	return prop, nil
}

func (r *Resolver) infer(m metadata.Member) (Property, bool) {
	if m.Type != nil {
		prop, ok := inferGoType(m.Type)
		prop.Nullable = prop.Nullable || m.Nullable
		return prop, ok
	}

	typ, format, items, ok := TypeFor(m.TypeName)
	if !ok {
		return Property{Type: "string", Nullable: m.Nullable}, false
	}
	prop := Property{Type: typ, Format: format, Items: items, Nullable: m.Nullable}
	if typ == "array" && items == nil {
		prop.Items = &Property{Type: "string"}
	}
	return prop, true
}

func (r *Resolver) record(class string, m metadata.Member) {
	declared := m.TypeName
	if m.Type != nil {
		declared = m.Type.String()
	}
	r.inferences = append(r.inferences, Inference{Class: class, Property: m.JSONName, Declared: declared})
	r.logger.Debug().
		Str("class", class).
		Str("property", m.JSONName).
		Str("declared", declared).
		Msg("type has no primitive mapping, using string")
}

// Apply overlays declarative metadata onto an inferred property. Declared
// values win; flags only ever switch on.
func Apply(prop *Property, meta *metadata.Property) error {
	if meta.Name != "" {
		prop.Name = meta.Name
	}
	if meta.Type != "" {
		typ, format, items, ok := TypeFor(meta.Type)
		if !ok {
			return oaserr.Malformed("unknown property type %q", meta.Type)
		}
		if typ != prop.Type {
			prop.Format = ""
			prop.Items = nil
		}
		prop.Type = typ
		if format != "" {
			prop.Format = format
		}
		if items != nil {
			prop.Items = items
		}
		if prop.Type == "array" && prop.Items == nil {
			prop.Items = &Property{Type: "string"}
		}
	}
	if meta.Format != "" {
		prop.Format = meta.Format
	}
	if meta.Description != "" {
		prop.Description = meta.Description
	}
	if meta.Example != nil {
		prop.Example = coerce(prop.Type, meta.Example)
	}
	if len(meta.Enum) > 0 {
		prop.Enum = make([]any, len(meta.Enum))
		for i, v := range meta.Enum {
			prop.Enum[i] = coerce(prop.Type, v)
		}
	}
	prop.Nullable = prop.Nullable || meta.Nullable
	prop.ReadOnly = prop.ReadOnly || meta.ReadOnly
	prop.WriteOnly = prop.WriteOnly || meta.WriteOnly
	prop.Deprecated = prop.Deprecated || meta.Deprecated
	if meta.Hidden {
		prop.Visibility = Hidden
	}
	return nil
}

// coerce converts a string example or enum value to the property type, the
// way struct tag values are typed. Values that do not parse are kept.
func coerce(typ string, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}

	switch typ {
	case "integer":
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(s); err == nil {
			return v
		}
	}
	return s
}
