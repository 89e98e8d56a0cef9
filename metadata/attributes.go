package metadata

import (
	"github.com/vitalvas/oasbake/openapi"
)

// Attribute names used as record keys.
const (
	AttrSchema    = "schema"
	AttrEntity    = "entity"
	AttrProperty  = "property"
	AttrOperation = "operation"
	AttrResponse  = "response"
	AttrRequest   = "request"
)

// Response schema shapes.
const (
	ShapeObject = "object"
	ShapeArray  = "array"
)

// Attribute is a typed declarative attribute.
type Attribute interface {
	AttributeName() string
}

// Schema marks a class as a custom response schema.
type Schema struct {
	Name        string             `meta:"name,omitempty"`
	Title       string             `meta:"title,omitempty"`
	Description string             `meta:"description,omitempty"`
	Visibility  openapi.Visibility `meta:"visibility,omitempty"`
}

func (Schema) AttributeName() string { return AttrSchema }

// Entity carries class-level options of an entity.
type Entity struct {
	Title       string `meta:"title,omitempty"`
	Description string `meta:"description,omitempty"`
	// Visible set to false keeps the entity out of the document.
	Visible *bool `meta:"visible,omitempty"`
}

func (Entity) AttributeName() string { return AttrEntity }

// Hidden reports whether the entity was marked invisible.
func (e Entity) Hidden() bool {
	return e.Visible != nil && !*e.Visible
}

// Property overrides what is inferred for a single property or column.
type Property struct {
	Name        string   `meta:"name,omitempty"`
	Type        string   `meta:"type,omitempty"`
	Format      string   `meta:"format,omitempty"`
	Description string   `meta:"description,omitempty"`
	Example     any      `meta:"example,omitempty"`
	Enum        []string `meta:"enum,omitempty"`
	Nullable    bool     `meta:"nullable,omitempty"`
	Hidden      bool     `meta:"hidden,omitempty"`
	ReadOnly    bool     `meta:"readOnly,omitempty"`
	WriteOnly   bool     `meta:"writeOnly,omitempty"`
	Deprecated  bool     `meta:"deprecated,omitempty"`
}

func (Property) AttributeName() string { return AttrProperty }

// Operation carries operation-level options of a handler method.
type Operation struct {
	Summary     string   `meta:"summary,omitempty"`
	Description string   `meta:"description,omitempty"`
	Tags        []string `meta:"tags,omitempty"`
	OperationID string   `meta:"operationId,omitempty"`
	Deprecated  bool     `meta:"deprecated,omitempty"`
	// Visible set to false removes the route from the document.
	Visible *bool `meta:"visible,omitempty"`
}

func (Operation) AttributeName() string { return AttrOperation }

// Hidden reports whether the operation was marked invisible.
func (o Operation) Hidden() bool {
	return o.Visible != nil && !*o.Visible
}

// Response declares one response of a handler method. A method may carry
// any number of them.
type Response struct {
	StatusCode  string   `meta:"statusCode,omitempty"`
	Description string   `meta:"description,omitempty"`
	Schema      string   `meta:"schema,omitempty"`
	SchemaType  string   `meta:"schemaType,omitempty"`
	Ref         string   `meta:"ref,omitempty"`
	MimeTypes   []string `meta:"mimeTypes,omitempty"`
}

func (Response) AttributeName() string { return AttrResponse }

// Request declares the request body of a handler method.
type Request struct {
	Description string   `meta:"description,omitempty"`
	Schema      string   `meta:"schema,omitempty"`
	SchemaType  string   `meta:"schemaType,omitempty"`
	Ref         string   `meta:"ref,omitempty"`
	MimeTypes   []string `meta:"mimeTypes,omitempty"`
	Required    *bool    `meta:"required,omitempty"`
}

func (Request) AttributeName() string { return AttrRequest }

// lookup decodes the last record of attr on target into a new T.
func lookup[T any](t *Table, target Target, attr string) (*T, error) {
	rec, ok := t.Read(target, attr)
	if !ok {
		return nil, nil
	}
	out := new(T)
	if err := rec.Decode(out); err != nil {
		return nil, err
	}
	return out, nil
}

// SchemaOf returns the schema attribute of class, or nil when absent.
func (t *Table) SchemaOf(class string) (*Schema, error) {
	return lookup[Schema](t, ClassTarget(class), AttrSchema)
}

// EntityOf returns the entity attribute of class, or nil when absent.
func (t *Table) EntityOf(class string) (*Entity, error) {
	return lookup[Entity](t, ClassTarget(class), AttrEntity)
}

// PropertyOf returns the property attribute of a class member, or nil when
// absent.
func (t *Table) PropertyOf(class, member string) (*Property, error) {
	return lookup[Property](t, PropertyTarget(class, member), AttrProperty)
}

// OperationOf returns the operation attribute of a method, or nil when absent.
func (t *Table) OperationOf(class, method string) (*Operation, error) {
	return lookup[Operation](t, MethodTarget(class, method), AttrOperation)
}

// RequestOf returns the request attribute of a method, or nil when absent.
func (t *Table) RequestOf(class, method string) (*Request, error) {
	return lookup[Request](t, MethodTarget(class, method), AttrRequest)
}

// ResponsesOf returns every response attribute of a method in declaration
// order.
func (t *Table) ResponsesOf(class, method string) ([]Response, error) {
	records := t.ReadAll(MethodTarget(class, method), AttrResponse)
	out := make([]Response, 0, len(records))
	for _, rec := range records {
		var resp Response
		if err := rec.Decode(&resp); err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}
