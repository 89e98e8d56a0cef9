package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vitalvas/oasbake/oaserr"
)

// Member is one exposed property of a class.
type Member struct {
	// Name is the Go field name, or the declared name for declared classes.
	Name string
	// JSONName is the property name on the wire.
	JSONName string
	// Type is the Go type, nil for declared classes.
	Type reflect.Type
	// TypeName is the declared type used when Type is nil.
	TypeName string
	Tag      reflect.StructTag
	// Optional is set for omitempty fields and fields of pointer-embedded
	// structs.
	Optional bool
	Nullable bool
}

// Class is a reflectable class: a registered Go struct type or a class
// declared from a manifest.
type Class struct {
	// Name is the qualified class name, e.g. "app.Employee".
	Name    string
	Type    reflect.Type
	Members []Member
}

// ShortName returns the class name without its namespace.
func (c *Class) ShortName() string {
	return ShortName(c.Name)
}

// Member returns the member exposed under the given JSON name.
func (c *Class) Member(jsonName string) (Member, bool) {
	for _, m := range c.Members {
		if m.JSONName == jsonName {
			return m, true
		}
	}
	return Member{}, false
}

// ShortName strips the namespace from a qualified class name.
func ShortName(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Registry holds every class known to the generator.
type Registry struct {
	classes map[string]*Class
	order   []string
}

// NewRegistry returns an empty class registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// ClassName returns the qualified class name of a Go type.
func ClassName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// Register reflects a Go struct type (v may be a value or pointer) and
// registers it under its qualified name. Registering the same type twice
// returns the existing class.
func (r *Registry) Register(v any) (*Class, error) {
	if v == nil {
		return nil, oaserr.Malformed("cannot register nil class")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t.Name() == "" {
		return nil, &oaserr.ClassError{Class: t.String(), Err: oaserr.Malformed("not a named struct type")}
	}

	name := ClassName(t)
	if existing, ok := r.classes[name]; ok {
		if existing.Type == t {
			return existing, nil
		}
		return nil, &oaserr.ClassError{Class: name, Err: oaserr.Malformed("class name already registered by another type")}
	}

	class := &Class{Name: name, Type: t}
	collectMembers(t, &class.Members, false)
	r.add(class)
	return class, nil
}

// Declare registers a class described by name and members only.
func (r *Registry) Declare(name string, members []Member) (*Class, error) {
	if name == "" {
		return nil, oaserr.Malformed("declared class without a name")
	}
	if _, ok := r.classes[name]; ok {
		return nil, &oaserr.ClassError{Class: name, Err: oaserr.Malformed("class already registered")}
	}
	class := &Class{Name: name, Members: make([]Member, 0, len(members))}
	for _, m := range members {
		if m.JSONName == "" {
			m.JSONName = m.Name
		}
		class.Members = append(class.Members, m)
	}
	r.add(class)
	return class, nil
}

func (r *Registry) add(class *Class) {
	r.classes[class.Name] = class
	r.order = append(r.order, class.Name)
}

// Get returns the class registered under the exact name.
func (r *Registry) Get(name string) (*Class, bool) {
	class, ok := r.classes[name]
	return class, ok
}

// Classes returns every class in registration order.
func (r *Registry) Classes() []*Class {
	out := make([]*Class, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.classes[name])
	}
	return out
}

// Resolve finds a class by exact name, then by each namespace prefix in
// order, then by a unique short name.
func (r *Registry) Resolve(name string, namespaces ...string) (*Class, error) {
	if class, ok := r.classes[name]; ok {
		return class, nil
	}
	for _, ns := range namespaces {
		if ns == "" {
			continue
		}
		if class, ok := r.classes[strings.TrimSuffix(ns, ".")+"."+name]; ok {
			return class, nil
		}
	}

	short := ShortName(name)
	var found *Class
	for _, candidate := range r.order {
		if ShortName(candidate) != short {
			continue
		}
		if found != nil {
			return nil, &oaserr.ClassError{
				Class: name,
				Err:   fmt.Errorf("%w: %s and %s share the short name", oaserr.ErrClassNotFound, found.Name, candidate),
			}
		}
		found = r.classes[candidate]
	}
	if found == nil {
		return nil, &oaserr.ClassError{Class: name, Err: oaserr.ErrClassNotFound}
	}
	return found, nil
}

// collectMembers recursively collects exported struct fields in declaration
// order. Embedded structs without an explicit json name are inlined the way
// encoding/json does it; fields of pointer-embedded structs are optional.
func collectMembers(t reflect.Type, members *[]Member, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)

		// Embedded structs of unexported types still promote their fields.
		if field.Anonymous {
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					collectMembers(ft, members, allOptional || isPtr)
					continue
				}
			}
		}

		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" || field.Tag.Get("openapi") == "-" {
			continue
		}

		name, omitempty := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		*members = append(*members, Member{
			Name:     field.Name,
			JSONName: name,
			Type:     field.Type,
			Tag:      field.Tag,
			Optional: omitempty || allOptional,
			Nullable: field.Type.Kind() == reflect.Pointer,
		})
	}
}

func parseJSONTag(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero")
}
