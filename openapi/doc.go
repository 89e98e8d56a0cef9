// Package openapi is the OpenAPI v3.0.3 document model produced by the
// generator, with its JSON and YAML projections.
//
// See: https://spec.openapis.org/oas/v3.0.3
//
// # Ordering
//
// Paths, component schemas and object properties are insertion-ordered
// maps, so the emitted document lists them in the order the generator
// produced them:
//
//	doc := openapi.NewDocument(openapi.Info{Title: "Employees", Version: "1.0.0"})
//	employee := &openapi.Schema{Type: "object", Properties: openapi.NewSchemas()}
//	employee.Properties.Set("id", &openapi.Schema{Type: "integer"})
//	employee.Properties.Set("gender", &openapi.Schema{Type: "string"})
//	doc.Components.Schemas.Set("Employee", employee)
//
// # Schemas
//
// A Schema carries, besides its wire fields, where it came from: Name is its
// registry name, Visibility decides whether it is registered or embedded
// inline, and Custom marks schemas built from custom schema classes. None of
// them is serialized.
//
// Registered schemas are referenced with RefSchema:
//
//	mt := &openapi.MediaType{Schema: openapi.RefSchema("Employee")}
//
// # Path Templates
//
// ParsePath converts route templates with variable macros to OpenAPI paths
// and path parameters:
//
//	path, params := openapi.ParsePath("/employees/{id:int}")
//	// path == "/employees/{id}", params[0].Schema.Type == "integer"
//
// Supported macros are uuid, int, float, slug, alpha, alphanum, date, hex
// and domain. Any other pattern yields a string parameter.
//
// # Projection
//
// Document.JSON and Document.YAML emit the same tree; ParseJSON and
// ParseYAML read documents back, which is how base documents are loaded.
// Validate runs the kin-openapi validator over the JSON projection.
package openapi
