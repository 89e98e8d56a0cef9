// Package schema builds Schema nodes from entity table metadata and from
// custom schema classes, applying visibility scoping and name ownership.
//
// A Builder caches every schema it builds by (class, shape), so asking for
// the same class twice returns the same *openapi.Schema. Registry-facing names
// are claimed per class; a second class claiming a name is an ambiguity.
package schema

import (
	"github.com/rs/zerolog"

	"github.com/vitalvas/oasbake/catalog"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/property"
)

const shapeEntity = "entity"

type cacheKey struct {
	class string
	shape string
}

// Builder constructs schemas against one metadata table.
type Builder struct {
	table    *metadata.Table
	resolver *property.Resolver
	logger   zerolog.Logger

	cache  map[cacheKey]*openapi.Schema
	claims map[string]string // schema name -> owning class
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder returns a builder reading metadata from table and resolving
// properties with resolver.
func NewBuilder(table *metadata.Table, resolver *property.Resolver, opts ...Option) *Builder {
	b := &Builder{
		table:    table,
		resolver: resolver,
		logger:   zerolog.Nop(),
		cache:    make(map[cacheKey]*openapi.Schema),
		claims:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFromEntity builds the object schema of an entity from its table
// columns. Declarative property metadata on the entity class wins over the
// column type; hidden columns are dropped. An entity marked invisible (on
// its entity class or its table class) gets VisibilityNever.
func (b *Builder) BuildFromEntity(t catalog.Table) (*openapi.Schema, error) {
	key := cacheKey{class: t.Entity, shape: shapeEntity}
	if s, ok := b.cache[key]; ok {
		return s, nil
	}

	s := &openapi.Schema{
		Name:       metadata.ShortName(t.Entity),
		Type:       "object",
		Properties: openapi.NewSchemas(),
	}

	for _, class := range []string{t.Entity, t.Class} {
		if class == "" {
			continue
		}
		entity, err := b.table.EntityOf(class)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			continue
		}
		if entity.Hidden() {
			s.Visibility = openapi.VisibilityNever
		}
		if entity.Title != "" {
			s.Title = entity.Title
		}
		if entity.Description != "" {
			s.Description = entity.Description
		}
	}

	for _, col := range t.Columns {
		prop, err := b.resolver.Column(t.Entity, col)
		if err != nil {
			return nil, err
		}
		if prop.Visibility == property.Hidden {
			continue
		}
		if _, ok := s.Properties.Get(prop.Name); ok {
			return nil, &oaserr.ClassError{Class: t.Entity, Member: col.MemberName(), Err: oaserr.Malformed("property %q is declared twice", prop.Name)}
		}
		s.Properties.Set(prop.Name, FromProperty(prop))
	}

	if err := b.claim(s, t.Entity); err != nil {
		return nil, err
	}
	b.cache[key] = s

	b.logger.Debug().
		Str("entity", t.Entity).
		Str("schema", s.Name).
		Stringer("visibility", s.Visibility).
		Int("properties", s.Properties.Len()).
		Msg("built entity schema")

	return s, nil
}

// BuildFromCustomClass builds the schema of a custom schema class in the
// given shape. An object shape carries the class properties directly; an
// array shape wraps the object schema of the same class as its items.
func (b *Builder) BuildFromCustomClass(class *metadata.Class, shape string) (*openapi.Schema, error) {
	if class == nil {
		return nil, oaserr.Malformed("custom schema without class")
	}
	if shape == "" {
		shape = metadata.ShapeObject
	}
	if shape != metadata.ShapeObject && shape != metadata.ShapeArray {
		return nil, &oaserr.ClassError{Class: class.Name, Err: oaserr.Malformed("unknown schema type %q", shape)}
	}

	key := cacheKey{class: class.Name, shape: shape}
	if s, ok := b.cache[key]; ok {
		return s, nil
	}

	if shape == metadata.ShapeArray {
		inner, err := b.BuildFromCustomClass(class, metadata.ShapeObject)
		if err != nil {
			return nil, err
		}
		s := &openapi.Schema{
			Name:       inner.Name,
			Title:      inner.Title,
			Type:       "array",
			Items:      inner,
			Visibility: inner.Visibility,
			Custom:     true,
		}
		b.cache[key] = s
		return s, nil
	}

	meta, err := b.table.SchemaOf(class.Name)
	if err != nil {
		return nil, err
	}

	s := &openapi.Schema{
		Name:       class.ShortName(),
		Type:       "object",
		Properties: openapi.NewSchemas(),
		Custom:     true,
	}
	if meta != nil {
		if meta.Name != "" {
			s.Name = meta.Name
		}
		s.Title = meta.Title
		s.Description = meta.Description
		s.Visibility = meta.Visibility
	}
	switch s.Visibility {
	case openapi.VisibilityReadOnly:
		s.ReadOnly = true
	case openapi.VisibilityWriteOnly:
		s.WriteOnly = true
	}

	props, err := b.resolver.Resolve(class)
	if err != nil {
		return nil, err
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		if prop.Visibility == property.Hidden {
			continue
		}
		s.Properties.Set(prop.Name, FromProperty(prop))
		if prop.Required {
			s.Required = append(s.Required, prop.Name)
		}
	}

	if err := b.claim(s, class.Name); err != nil {
		return nil, err
	}
	b.cache[key] = s

	b.logger.Debug().
		Str("class", class.Name).
		Str("schema", s.Name).
		Str("shape", shape).
		Stringer("visibility", s.Visibility).
		Msg("built custom schema")

	return s, nil
}

// Inferences returns the string fallbacks recorded while resolving
// properties.
func (b *Builder) Inferences() []property.Inference {
	return b.resolver.Inferences()
}

// claim records that class owns the registry name of s. Operation-scoped
// schemas never enter the registry and claim nothing.
func (b *Builder) claim(s *openapi.Schema, class string) error {
	if !s.Visibility.Registered() {
		return nil
	}
	if owner, ok := b.claims[s.Name]; ok && owner != class {
		return &oaserr.SchemaConflictError{Name: s.Name, Existing: owner, Incoming: class}
	}
	b.claims[s.Name] = class
	return nil
}

// Registered returns the schema that belongs in the shared registry for s:
// the items object of an array schema, s itself otherwise. It returns nil
// for operation-scoped schemas.
func Registered(s *openapi.Schema) *openapi.Schema {
	if s == nil || !s.Visibility.Registered() {
		return nil
	}
	if s.Type == "array" && s.Items != nil && s.Items.Name != "" {
		return s.Items
	}
	return s
}

// Wire returns the form of s placed inside a response or request body: a
// $ref for registered objects, an array of $ref for registered arrays and
// the schema itself for operation-scoped ones.
func Wire(s *openapi.Schema) *openapi.Schema {
	reg := Registered(s)
	switch {
	case reg == nil:
		return s
	case reg == s:
		return openapi.RefSchema(s.Name)
	default:
		return &openapi.Schema{Type: "array", Items: openapi.RefSchema(reg.Name)}
	}
}

// FromProperty converts a resolved property to its schema node.
func FromProperty(p property.Property) *openapi.Schema {
	s := &openapi.Schema{
		Type:        p.Type,
		Format:      p.Format,
		Description: p.Description,
		Example:     p.Example,
		Enum:        p.Enum,
		Nullable:    p.Nullable,
		ReadOnly:    p.ReadOnly,
		WriteOnly:   p.WriteOnly,
		Deprecated:  p.Deprecated,
	}
	if p.Items != nil {
		s.Items = FromProperty(*p.Items)
	}
	return s
}
