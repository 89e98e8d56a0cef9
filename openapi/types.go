package openapi

import (
	"net/http"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Version is the OpenAPI version emitted by this package.
const Version = "3.0.3"

// SchemaRefPrefix is the JSON pointer prefix of component schema references.
const SchemaRefPrefix = "#/components/schemas/"

// Document represents the root of an OpenAPI v3.0.3 document.
//
// See: https://spec.openapis.org/oas/v3.0.3#openapi-object
type Document struct {
	OpenAPI      string                `json:"openapi"`
	Info         Info                  `json:"info"`
	Servers      []Server              `json:"servers,omitempty"`
	Paths        *Paths                `json:"paths"`
	Components   *Components           `json:"components,omitempty"`
	Security     []SecurityRequirement `json:"security,omitempty"`
	Tags         []Tag                 `json:"tags,omitempty"`
	ExternalDocs *ExternalDocs         `json:"externalDocs,omitempty"`
}

// Paths maps path templates to path items in insertion order.
//
// See: https://spec.openapis.org/oas/v3.0.3#paths-object
type Paths = orderedmap.OrderedMap[string, *PathItem]

// Schemas maps names to schemas in insertion order. It backs both
// components.schemas and the properties of an object schema.
type Schemas = orderedmap.OrderedMap[string, *Schema]

// NewPaths returns an empty ordered path map.
func NewPaths() *Paths {
	return orderedmap.New[string, *PathItem]()
}

// NewSchemas returns an empty ordered schema map.
func NewSchemas() *Schemas {
	return orderedmap.New[string, *Schema]()
}

// NewDocument returns a document with initialized paths and schema registry.
func NewDocument(info Info) *Document {
	return &Document{
		OpenAPI: Version,
		Info:    info,
		Paths:   NewPaths(),
		Components: &Components{
			Schemas: NewSchemas(),
		},
	}
}

// Operation returns the operation registered for method and path, or nil.
func (d *Document) Operation(method, path string) *Operation {
	if d == nil || d.Paths == nil {
		return nil
	}
	item, ok := d.Paths.Get(path)
	if !ok {
		return nil
	}
	return item.GetOperation(method)
}

// Schema returns the registered component schema with the given name.
func (d *Document) Schema(name string) (*Schema, bool) {
	if d == nil || d.Components == nil || d.Components.Schemas == nil {
		return nil, false
	}
	return d.Components.Schemas.Get(name)
}

// SchemaNames returns the component schema names in registry order.
func (d *Document) SchemaNames() []string {
	if d == nil || d.Components == nil || d.Components.Schemas == nil {
		return nil
	}
	names := make([]string, 0, d.Components.Schemas.Len())
	for pair := d.Components.Schemas.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Info provides metadata about the API.
//
// See: https://spec.openapis.org/oas/v3.0.3#info-object
type Info struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	TermsOfService string   `json:"termsOfService,omitempty"`
	Contact        *Contact `json:"contact,omitempty"`
	License        *License `json:"license,omitempty"`
	Version        string   `json:"version"`
}

// Contact represents contact information for the API.
//
// See: https://spec.openapis.org/oas/v3.0.3#contact-object
type Contact struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

// License represents license information for the API.
//
// See: https://spec.openapis.org/oas/v3.0.3#license-object
type License struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Server represents a server.
//
// See: https://spec.openapis.org/oas/v3.0.3#server-object
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem describes the operations available on a single path.
//
// See: https://spec.openapis.org/oas/v3.0.3#path-item-object
type PathItem struct {
	Summary     string       `json:"summary,omitempty"`
	Description string       `json:"description,omitempty"`
	Get         *Operation   `json:"get,omitempty"`
	Put         *Operation   `json:"put,omitempty"`
	Post        *Operation   `json:"post,omitempty"`
	Delete      *Operation   `json:"delete,omitempty"`
	Options     *Operation   `json:"options,omitempty"`
	Head        *Operation   `json:"head,omitempty"`
	Patch       *Operation   `json:"patch,omitempty"`
	Trace       *Operation   `json:"trace,omitempty"`
	Parameters  []*Parameter `json:"parameters,omitempty"`
}

// methodOrder is the order operations are listed by Operations.
var methodOrder = []string{
	http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete,
	http.MethodOptions, http.MethodHead, http.MethodPatch, http.MethodTrace,
}

func (p *PathItem) slot(method string) **Operation {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return &p.Get
	case http.MethodPut:
		return &p.Put
	case http.MethodPost:
		return &p.Post
	case http.MethodDelete:
		return &p.Delete
	case http.MethodOptions:
		return &p.Options
	case http.MethodHead:
		return &p.Head
	case http.MethodPatch:
		return &p.Patch
	case http.MethodTrace:
		return &p.Trace
	}
	return nil
}

// SetOperation assigns op to the method slot of the path item. It reports
// false when the method is unknown or the slot is already taken.
func (p *PathItem) SetOperation(method string, op *Operation) bool {
	slot := p.slot(method)
	if slot == nil || *slot != nil {
		return false
	}
	*slot = op
	return true
}

// GetOperation returns the operation for method, or nil.
func (p *PathItem) GetOperation(method string) *Operation {
	slot := p.slot(method)
	if slot == nil {
		return nil
	}
	return *slot
}

// Operations returns the operations of the path item keyed by upper-case
// method, in a fixed method order.
func (p *PathItem) Operations() []MethodOperation {
	var ops []MethodOperation
	for _, method := range methodOrder {
		if op := p.GetOperation(method); op != nil {
			ops = append(ops, MethodOperation{Method: method, Operation: op})
		}
	}
	return ops
}

// MethodOperation pairs an operation with its HTTP method.
type MethodOperation struct {
	Method    string
	Operation *Operation
}

// Operation describes a single API operation on a path.
//
// See: https://spec.openapis.org/oas/v3.0.3#operation-object
type Operation struct {
	Tags        []string              `json:"tags,omitempty"`
	Summary     string                `json:"summary,omitempty"`
	Description string                `json:"description,omitempty"`
	OperationID string                `json:"operationId,omitempty"`
	Parameters  []*Parameter          `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]*Response  `json:"responses"`
	Deprecated  bool                  `json:"deprecated,omitempty"`
	Security    []SecurityRequirement `json:"security,omitempty"`
}

// Response returns the response for the given status code, creating it with
// the default description when absent.
func (o *Operation) Response(code string) *Response {
	if o.Responses == nil {
		o.Responses = make(map[string]*Response)
	}
	resp, ok := o.Responses[code]
	if !ok {
		resp = &Response{Description: ResponseDescription(code)}
		o.Responses[code] = resp
	}
	return resp
}

// Parameter describes a single operation parameter.
//
// See: https://spec.openapis.org/oas/v3.0.3#parameter-object
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Deprecated  bool    `json:"deprecated,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`
	Example     any     `json:"example,omitempty"`
}

// RequestBody describes a single request body.
//
// See: https://spec.openapis.org/oas/v3.0.3#request-body-object
type RequestBody struct {
	Description string                `json:"description,omitempty"`
	Required    bool                  `json:"required,omitempty"`
	Content     map[string]*MediaType `json:"content"`
}

// Response describes a single response from an API operation.
// Description is required even when empty.
//
// See: https://spec.openapis.org/oas/v3.0.3#response-object
type Response struct {
	Description string                `json:"description"`
	Content     map[string]*MediaType `json:"content,omitempty"`
}

// ContentFor returns the media type for mime, creating an empty one when absent.
func (r *Response) ContentFor(mime string) *MediaType {
	if r.Content == nil {
		r.Content = make(map[string]*MediaType)
	}
	mt, ok := r.Content[mime]
	if !ok {
		mt = &MediaType{}
		r.Content[mime] = mt
	}
	return mt
}

// MediaType describes a media type with a schema and optional example.
//
// Schema is the wire form: a $ref (or array of $ref) for registered schemas and
// the full schema otherwise. Resolved always holds the schema that was built,
// so callers can inspect registered schemas without chasing references.
//
// See: https://spec.openapis.org/oas/v3.0.3#media-type-object
type MediaType struct {
	Schema   *Schema `json:"schema,omitempty"`
	Example  any     `json:"example,omitempty"`
	Resolved *Schema `json:"-"`
}

// Components holds reusable OpenAPI objects.
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object
type Components struct {
	Schemas         *Schemas                   `json:"schemas,omitempty"`
	Responses       map[string]*Response       `json:"responses,omitempty"`
	Parameters      map[string]*Parameter      `json:"parameters,omitempty"`
	RequestBodies   map[string]*RequestBody    `json:"requestBodies,omitempty"`
	SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
}

// Tag adds metadata to a single tag used by Operation Objects.
//
// See: https://spec.openapis.org/oas/v3.0.3#tag-object
type Tag struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	ExternalDocs *ExternalDocs `json:"externalDocs,omitempty"`
}

// SecurityRequirement lists required security schemes for an operation.
//
// See: https://spec.openapis.org/oas/v3.0.3#security-requirement-object
type SecurityRequirement map[string][]string

// ExternalDocs allows referencing external documentation.
//
// See: https://spec.openapis.org/oas/v3.0.3#external-documentation-object
type ExternalDocs struct {
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// SecurityScheme defines a security scheme used by API operations.
//
// See: https://spec.openapis.org/oas/v3.0.3#security-scheme-object
type SecurityScheme struct {
	Type             string      `json:"type"`
	Description      string      `json:"description,omitempty"`
	Name             string      `json:"name,omitempty"`
	In               string      `json:"in,omitempty"`
	Scheme           string      `json:"scheme,omitempty"`
	BearerFormat     string      `json:"bearerFormat,omitempty"`
	Flows            *OAuthFlows `json:"flows,omitempty"`
	OpenIDConnectURL string      `json:"openIdConnectUrl,omitempty"`
}

// OAuthFlows describes the available OAuth2 flows.
//
// See: https://spec.openapis.org/oas/v3.0.3#oauth-flows-object
type OAuthFlows struct {
	Implicit          *OAuthFlow `json:"implicit,omitempty"`
	Password          *OAuthFlow `json:"password,omitempty"`
	ClientCredentials *OAuthFlow `json:"clientCredentials,omitempty"`
	AuthorizationCode *OAuthFlow `json:"authorizationCode,omitempty"`
}

// OAuthFlow describes a single OAuth2 flow configuration.
//
// See: https://spec.openapis.org/oas/v3.0.3#oauth-flow-object
type OAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty"`
	RefreshURL       string            `json:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes"`
}
