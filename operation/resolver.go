// Package operation resolves one route into an Operation: its parameters,
// request body and responses, with every schema either referenced from the
// shared registry or embedded inline.
package operation

import (
	"reflect"
	"slices"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/vitalvas/oasbake/catalog"
	"github.com/vitalvas/oasbake/config"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/router"
	"github.com/vitalvas/oasbake/schema"
)

// Result is the outcome of resolving one route.
type Result struct {
	Route router.Descriptor
	// Path is the route template in OpenAPI form.
	Path      string
	Method    string
	Operation *openapi.Operation
	// Schemas lists the registry-facing schemas the operation introduced,
	// in the order they were first used.
	Schemas []*openapi.Schema
	// Hidden is set when the operation metadata removes the route from the
	// document. Operation is nil then.
	Hidden bool
}

func (r *Result) addSchema(s *openapi.Schema) {
	reg := schema.Registered(s)
	if reg == nil {
		return
	}
	for _, existing := range r.Schemas {
		if existing == reg {
			return
		}
	}
	r.Schemas = append(r.Schemas, reg)
}

// Resolver resolves routes against the metadata table, the class registry
// and the entity catalog.
type Resolver struct {
	table   *metadata.Table
	classes *metadata.Registry
	catalog *catalog.Catalog
	builder *schema.Builder
	logger  zerolog.Logger

	cfg   config.Config
	known func(name string) bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithConfig sets content type defaults, the exception schema and class
// namespaces.
func WithConfig(cfg config.Config) Option {
	return func(r *Resolver) {
		r.cfg = cfg
	}
}

// WithKnownSchemas sets the lookup used to decide whether the exception
// schema exists in the registry.
func WithKnownSchemas(known func(name string) bool) Option {
	return func(r *Resolver) {
		r.known = known
	}
}

// NewResolver returns a resolver. Without WithConfig the built-in defaults
// apply.
func NewResolver(table *metadata.Table, classes *metadata.Registry, cat *catalog.Catalog, builder *schema.Builder, opts ...Option) *Resolver {
	r := &Resolver{
		table:   table,
		classes: classes,
		catalog: cat,
		builder: builder,
		logger:  zerolog.Nop(),
		cfg:     config.Default(),
		known:   func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the operation of a route. Missing metadata falls back to
// defaults; metadata naming a class that cannot be found, or that cannot be
// decoded, fails with a RouteError carrying the route identity.
func (r *Resolver) Resolve(d router.Descriptor) (Result, error) {
	fail := func(err error) (Result, error) {
		return Result{}, &oaserr.RouteError{Route: d.Key(), Name: d.Name, Err: err}
	}

	controller := r.controllerClass(d.Controller)
	if err := r.checkAction(controller, d.Action); err != nil {
		return fail(err)
	}

	meta, err := r.table.OperationOf(controller, d.Action)
	if err != nil {
		return fail(err)
	}

	path, params := openapi.ParsePath(d.Path)
	res := Result{Route: d, Path: path, Method: d.Method}

	if meta != nil && meta.Hidden() {
		r.logger.Debug().Str("route", d.Key()).Msg("route hidden by operation metadata")
		res.Hidden = true
		return res, nil
	}

	op := &openapi.Operation{
		OperationID: d.Name,
		Parameters:  params,
	}
	tag := strings.TrimSuffix(metadata.ShortName(controller), "Controller")
	if tag != "" {
		op.Tags = []string{tag}
	}
	if op.OperationID == "" {
		op.OperationID = lowerFirst(tag) + d.Action
	}
	if meta != nil {
		op.Summary = meta.Summary
		op.Description = meta.Description
		op.Deprecated = meta.Deprecated
		if len(meta.Tags) > 0 {
			op.Tags = meta.Tags
		}
		if meta.OperationID != "" {
			op.OperationID = meta.OperationID
		}
	}
	res.Operation = op

	if err := r.requestBody(controller, d.Action, &res); err != nil {
		return fail(err)
	}
	if err := r.responses(controller, d.Action, &res); err != nil {
		return fail(err)
	}

	r.logger.Debug().
		Str("route", d.Key()).
		Str("controller", controller).
		Str("action", d.Action).
		Int("responses", len(op.Responses)).
		Int("schemas", len(res.Schemas)).
		Msg("operation resolved")

	return res, nil
}

// controllerClass maps a route controller to the class name its metadata
// is recorded under: the name as given and with a "Controller" suffix, then
// both below each controller namespace. The first class that is
// registered or carries metadata wins; otherwise the name is kept.
func (r *Resolver) controllerClass(name string) string {
	names := []string{name}
	if !strings.HasSuffix(name, "Controller") {
		names = append(names, name+"Controller")
	}
	candidates := slices.Clone(names)
	for _, ns := range r.cfg.Namespaces.Controllers {
		for _, n := range names {
			candidates = append(candidates, strings.TrimSuffix(ns, ".")+"."+n)
		}
	}

	for _, c := range candidates {
		if _, ok := r.classes.Get(c); ok || r.table.HasClass(c) {
			return c
		}
	}
	return name
}

// checkAction rejects routes to methods a registered controller type does
// not have.
func (r *Resolver) checkAction(controller, action string) error {
	class, ok := r.classes.Get(controller)
	if !ok || class.Type == nil {
		return nil
	}
	if _, ok := reflect.PointerTo(class.Type).MethodByName(action); !ok {
		return &oaserr.ClassError{Class: controller, Member: action, Err: oaserr.Malformed("controller has no such action")}
	}
	return nil
}

func (r *Resolver) requestBody(controller, action string, res *Result) error {
	req, err := r.table.RequestOf(controller, action)
	if err != nil || req == nil {
		return err
	}

	src, err := r.source(req.Schema, req.SchemaType, req.Ref)
	if err != nil {
		return err
	}
	wire, resolved, err := r.materialize(src, res)
	if err != nil {
		return err
	}

	mimes := req.MimeTypes
	if len(mimes) == 0 {
		mimes = r.cfg.RequestContentTypes
	}

	body := &openapi.RequestBody{
		Description: req.Description,
		Required:    req.Required == nil || *req.Required,
		Content:     make(map[string]*openapi.MediaType, len(mimes)),
	}
	for _, mime := range mimes {
		body.Content[mime] = &openapi.MediaType{Schema: wire, Resolved: resolved}
	}
	res.Operation.RequestBody = body
	return nil
}

func (r *Resolver) responses(controller, action string, res *Result) error {
	records, err := r.table.ResponsesOf(controller, action)
	if err != nil {
		return err
	}

	op := res.Operation
	if len(records) == 0 {
		op.Response("200")
		return nil
	}

	for _, rec := range records {
		code := rec.StatusCode
		if code == "" {
			code = "200"
		}
		if !validStatus(code) {
			return oaserr.Malformed("invalid status code %q", code)
		}

		src, err := r.source(rec.Schema, rec.SchemaType, rec.Ref)
		if err != nil {
			return err
		}
		if src.Kind == None && isErrorStatus(code) && r.cfg.ExceptionSchema != "" && r.known(r.cfg.ExceptionSchema) {
			src = Source{Kind: Reference, Name: r.cfg.ExceptionSchema, Shape: metadata.ShapeObject}
		}

		resp := op.Response(code)
		if rec.Description != "" {
			resp.Description = rec.Description
		}

		mimes := rec.MimeTypes
		if src.Kind == None && len(mimes) == 0 {
			continue
		}
		if len(mimes) == 0 {
			mimes = r.cfg.ResponseContentTypes
		}

		wire, resolved, err := r.materialize(src, res)
		if err != nil {
			return err
		}
		for _, mime := range mimes {
			mt := resp.ContentFor(mime)
			mt.Schema = wire
			mt.Resolved = resolved
		}
	}
	return nil
}

// source applies the schema decision table to one declaration: a schema
// class (entity or custom), else a reference, else nothing.
func (r *Resolver) source(class, shape, ref string) (Source, error) {
	switch shape {
	case "":
		shape = metadata.ShapeObject
	case metadata.ShapeObject, metadata.ShapeArray:
	default:
		return Source{}, oaserr.Malformed("unknown schema type %q", shape)
	}

	if class != "" && ref != "" {
		return Source{}, oaserr.Malformed("schema %q and ref %q are exclusive", class, ref)
	}

	entityNS := r.cfg.EntityNamespaces()
	switch {
	case class != "":
		if table, ok := r.catalog.Find(class, entityNS...); ok {
			return Source{Kind: Entity, Table: table, Shape: shape}, nil
		}
		c, err := r.classes.Resolve(class, entityNS...)
		if err != nil {
			return Source{}, err
		}
		if table, ok := r.catalog.Entity(c.Name); ok {
			return Source{Kind: Entity, Table: table, Shape: shape}, nil
		}
		return Source{Kind: CustomClass, Class: c, Shape: shape}, nil
	case ref != "":
		return Source{Kind: Reference, Name: referenceName(ref), Shape: shape}, nil
	}
	return Source{Kind: None}, nil
}

// materialize builds the schema of a source and returns its wire form and
// the schema that was built.
func (r *Resolver) materialize(src Source, res *Result) (*openapi.Schema, *openapi.Schema, error) {
	switch src.Kind {
	case Entity:
		s, err := r.builder.BuildFromEntity(src.Table)
		if err != nil {
			return nil, nil, err
		}
		res.addSchema(s)
		if src.Shape == metadata.ShapeArray {
			return &openapi.Schema{Type: "array", Items: schema.Wire(s)},
				&openapi.Schema{Type: "array", Items: s, Name: s.Name, Visibility: s.Visibility}, nil
		}
		return schema.Wire(s), s, nil

	case CustomClass:
		s, err := r.builder.BuildFromCustomClass(src.Class, src.Shape)
		if err != nil {
			return nil, nil, err
		}
		res.addSchema(s)
		return schema.Wire(s), s, nil

	case Reference:
		ref := openapi.RefSchema(src.Name)
		if src.Shape == metadata.ShapeArray {
			return &openapi.Schema{Type: "array", Items: ref}, nil, nil
		}
		return ref, nil, nil
	}
	return nil, nil, nil
}

// validStatus accepts "default", three-digit codes and ranges like "4XX".
func validStatus(code string) bool {
	if code == "default" {
		return true
	}
	if len(code) != 3 || code[0] < '1' || code[0] > '5' {
		return false
	}
	if strings.EqualFold(code[1:], "XX") {
		return true
	}
	return unicode.IsDigit(rune(code[1])) && unicode.IsDigit(rune(code[2]))
}

func isErrorStatus(code string) bool {
	return code != "default" && code[0] >= '4'
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
