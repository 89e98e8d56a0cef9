// Package oaserr defines the error taxonomy shared by the generator packages.
//
// Absence of metadata is never an error. Structural failures are reported
// through the sentinels below, usually wrapped in a RouteError or ClassError
// that carries the identity of the offending route or class:
//
//	doc, err := gen.Generate(ctx)
//	if errors.Is(err, oaserr.ErrClassNotFound) {
//	    var routeErr *oaserr.RouteError
//	    if errors.As(err, &routeErr) {
//	        log.Printf("broken route %s", routeErr.Route)
//	    }
//	}
package oaserr

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrClassNotFound indicates a referenced class is not registered.
	ErrClassNotFound = errors.New("class not found")

	// ErrMalformedMetadata indicates a declarative record that cannot be decoded
	// or carries an invalid value.
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrAmbiguousSchema indicates two different schemas claim one registry name.
	ErrAmbiguousSchema = errors.New("ambiguous schema name")

	// ErrUnresolvedReference indicates a $ref names no registry entry.
	ErrUnresolvedReference = errors.New("unresolved schema reference")

	// ErrDuplicateRoute indicates two routes share one (method, path) identity.
	ErrDuplicateRoute = errors.New("duplicate route")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// RouteError attaches the identity of a route to a resolution failure.
type RouteError struct {
	// Route is the route identity, e.g. "/employees/{id} (GET)".
	Route string
	// Name is the route name when one is known.
	Name string
	Err  error
}

func (e *RouteError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("route %s [%s]: %v", e.Route, e.Name, e.Err)
	}
	return fmt.Sprintf("route %s: %v", e.Route, e.Err)
}

// Unwrap returns the underlying cause for error chaining.
func (e *RouteError) Unwrap() error {
	return e.Err
}

// ClassError attaches a class name to a metadata or schema failure.
type ClassError struct {
	Class string
	// Member is the property or method name, empty for class-level failures.
	Member string
	Err    error
}

func (e *ClassError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("class %s.%s: %v", e.Class, e.Member, e.Err)
	}
	return fmt.Sprintf("class %s: %v", e.Class, e.Err)
}

// Unwrap returns the underlying cause for error chaining.
func (e *ClassError) Unwrap() error {
	return e.Err
}

// SchemaConflictError reports two distinct sources claiming one schema name.
type SchemaConflictError struct {
	Name     string
	Existing string
	Incoming string
}

func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("ambiguous schema name %q: claimed by %s and %s", e.Name, e.Existing, e.Incoming)
}

// Is reports whether target matches this error type.
func (e *SchemaConflictError) Is(target error) bool {
	return target == ErrAmbiguousSchema
}

// Malformed returns an error wrapping ErrMalformedMetadata with a message.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedMetadata, fmt.Sprintf(format, args...))
}
