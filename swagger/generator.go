package swagger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vitalvas/oasbake/catalog"
	"github.com/vitalvas/oasbake/config"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/operation"
	"github.com/vitalvas/oasbake/property"
	"github.com/vitalvas/oasbake/router"
	"github.com/vitalvas/oasbake/schema"
)

// RouteSource lists the routes of an application, one descriptor per
// method. *router.Router implements it.
type RouteSource interface {
	Descriptors() ([]router.Descriptor, error)
}

// Generator runs the whole pipeline: routes, tables, entity schemas,
// per-route resolution and assembly. A Generator holds only its inputs;
// every Generate call builds a new document from scratch.
type Generator struct {
	cfg     config.Config
	routes  RouteSource
	tables  []catalog.Source
	table   *metadata.Table
	classes *metadata.Registry
	base    *openapi.Document
	logger  zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger passed down to every stage.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTables adds entity table sources.
func WithTables(sources ...catalog.Source) Option {
	return func(g *Generator) {
		g.tables = append(g.tables, sources...)
	}
}

// WithBase sets the base document, overriding the configured base file.
func WithBase(doc *openapi.Document) Option {
	return func(g *Generator) {
		g.base = doc
	}
}

// NewGenerator returns a generator over the given route source and loaded
// metadata.
func NewGenerator(cfg config.Config, routes RouteSource, table *metadata.Table, classes *metadata.Registry, opts ...Option) *Generator {
	g := &Generator{
		cfg:     cfg,
		routes:  routes,
		table:   table,
		classes: classes,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the document. Any structural error aborts the run and no
// document is returned.
func (g *Generator) Generate(ctx context.Context) (*openapi.Document, error) {
	descriptors, err := g.routes.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	descriptors = filterPrefix(descriptors, g.cfg.Prefix)

	cat, err := catalog.Load(ctx, firstOf(g.cfg.EntityNamespaces()), g.tables...)
	if err != nil {
		return nil, err
	}

	base, err := g.baseDocument()
	if err != nil {
		return nil, err
	}

	resolver := property.NewResolver(g.table, property.WithLogger(g.logger))
	builder := schema.NewBuilder(g.table, resolver, schema.WithLogger(g.logger))

	var entities []*openapi.Schema
	known := make(map[string]bool)
	for _, name := range base.SchemaNames() {
		known[name] = true
	}
	for _, t := range cat.Tables() {
		s, err := builder.BuildFromEntity(t)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", t.Entity, err)
		}
		entities = append(entities, s)
		if s.Visibility.Registered() {
			known[s.Name] = true
		}
	}

	ops := operation.NewResolver(g.table, g.classes, cat, builder,
		operation.WithLogger(g.logger),
		operation.WithConfig(g.cfg),
		operation.WithKnownSchemas(func(name string) bool { return known[name] }),
	)

	results := make([]operation.Result, 0, len(descriptors))
	for _, d := range descriptors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := ops.Resolve(d)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	doc, err := NewAssembler(WithAssemblerLogger(g.logger)).Assemble(base, results, entities)
	if err != nil {
		return nil, err
	}

	for _, inf := range builder.Inferences() {
		g.logger.Info().
			Str("class", inf.Class).
			Str("property", inf.Property).
			Str("declared", inf.Declared).
			Msg("property type inferred as string")
	}

	g.logger.Info().
		Int("routes", len(descriptors)).
		Int("tables", cat.Len()).
		Int("schemas", len(doc.SchemaNames())).
		Msg("document generated")

	return doc, nil
}

// baseDocument returns the configured base document, or a bare one built
// from the configured info. Info fields the base leaves empty are filled
// from the configuration.
func (g *Generator) baseDocument() (*openapi.Document, error) {
	doc := g.base
	if doc == nil && g.cfg.BaseDocument != "" {
		var err error
		doc, err = LoadBase(g.cfg.BaseDocument)
		if err != nil {
			return nil, err
		}
	}
	if doc == nil {
		doc = openapi.NewDocument(openapi.Info{})
	}

	out := *doc
	if out.Info.Title == "" {
		out.Info.Title = g.cfg.Info.Title
	}
	if out.Info.Version == "" {
		out.Info.Version = g.cfg.Info.Version
	}
	if out.Info.Description == "" {
		out.Info.Description = g.cfg.Info.Description
	}
	return &out, nil
}

// LoadBase reads a YAML or JSON base document.
func LoadBase(path string) (*openapi.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read base document: %w", err)
	}
	doc, err := openapi.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("base document %s: %w", path, err)
	}
	return doc, nil
}

// filterPrefix keeps the routes at or below prefix.
func filterPrefix(descriptors []router.Descriptor, prefix string) []router.Descriptor {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return descriptors
	}
	out := descriptors[:0:0]
	for _, d := range descriptors {
		if d.Path == prefix || strings.HasPrefix(d.Path, prefix+"/") {
			out = append(out, d)
		}
	}
	return out
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
