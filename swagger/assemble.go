// Package swagger folds resolved operations and entity schemas into one
// OpenAPI document and runs the generation pipeline around it.
//
//	gen := swagger.NewGenerator(cfg, r, table, classes,
//	    swagger.WithTables(catalog.FromStructs(Employee{})),
//	)
//	doc, err := gen.Generate(ctx)
//	if err != nil {
//	    return err
//	}
//	return swagger.WriteFiles(ctx, doc, cfg.Output)
package swagger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/operation"
)

const (
	originBase   = "base document"
	originEntity = "entity"
)

// Assembler builds documents. It keeps no state between calls.
type Assembler struct {
	logger zerolog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithAssemblerLogger sets the assembler logger.
func WithAssemblerLogger(logger zerolog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler returns an assembler.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// assembly is the state of a single Assemble call.
type assembly struct {
	doc     *openapi.Document
	origins map[string]string
	ids     map[string]bool
}

// Assemble builds a document from base, the resolved operations and the
// entity schemas. base is not modified; its schemas seed the registry.
// Entity schemas with visibility Never are skipped. Results marked hidden
// are left out.
func (a *Assembler) Assemble(base *openapi.Document, results []operation.Result, entities []*openapi.Schema) (*openapi.Document, error) {
	as := &assembly{
		doc:     seed(base),
		origins: make(map[string]string),
		ids:     make(map[string]bool),
	}
	for _, name := range as.doc.SchemaNames() {
		as.origins[name] = originBase
	}
	for _, mo := range pathOperations(as.doc) {
		if mo.Operation.OperationID != "" {
			as.ids[mo.Operation.OperationID] = true
		}
	}

	for _, s := range entities {
		if s == nil || !s.Visibility.Registered() {
			continue
		}
		if err := as.register(s, originEntity+" "+s.Name); err != nil {
			return nil, err
		}
	}

	var added []operation.Result
	for _, res := range results {
		if res.Hidden || res.Operation == nil {
			continue
		}
		for _, s := range res.Schemas {
			if err := as.register(s, res.Route.Key()); err != nil {
				return nil, &oaserr.RouteError{Route: res.Route.Key(), Name: res.Route.Name, Err: err}
			}
		}
		if err := as.addOperation(res); err != nil {
			return nil, err
		}
		added = append(added, res)
	}

	for _, res := range added {
		if err := as.checkOperationRefs(res.Operation); err != nil {
			return nil, &oaserr.RouteError{Route: res.Route.Key(), Name: res.Route.Name, Err: err}
		}
	}
	if err := as.checkRegistryRefs(); err != nil {
		return nil, err
	}

	as.doc.Tags = mergeTags(as.doc, baseTags(base))

	a.logger.Debug().
		Int("paths", as.doc.Paths.Len()).
		Int("schemas", len(as.doc.SchemaNames())).
		Int("operations", len(added)).
		Msg("document assembled")

	return as.doc, nil
}

// seed returns a fresh document carrying everything base declares. Path
// items are copied so operations can be added without touching base.
func seed(base *openapi.Document) *openapi.Document {
	if base == nil {
		return openapi.NewDocument(openapi.Info{})
	}

	doc := openapi.NewDocument(base.Info)
	doc.Servers = base.Servers
	doc.Security = base.Security
	doc.ExternalDocs = base.ExternalDocs

	if base.Paths != nil {
		for pair := base.Paths.Oldest(); pair != nil; pair = pair.Next() {
			item := *pair.Value
			doc.Paths.Set(pair.Key, &item)
		}
	}

	if base.Components != nil {
		schemas := doc.Components.Schemas
		*doc.Components = *base.Components
		doc.Components.Schemas = schemas
		if base.Components.Schemas != nil {
			for pair := base.Components.Schemas.Oldest(); pair != nil; pair = pair.Next() {
				schemas.Set(pair.Key, pair.Value)
			}
		}
	}
	return doc
}

func baseTags(base *openapi.Document) []openapi.Tag {
	if base == nil {
		return nil
	}
	return base.Tags
}

// register inserts s under its name. The same schema, or one with an
// identical projection, is accepted again; anything else claiming the name
// is a conflict.
func (as *assembly) register(s *openapi.Schema, origin string) error {
	if s.Name == "" {
		return oaserr.Malformed("registered schema without a name (%s)", origin)
	}

	schemas := as.doc.Components.Schemas
	existing, ok := schemas.Get(s.Name)
	if !ok {
		schemas.Set(s.Name, s)
		as.origins[s.Name] = origin
		return nil
	}
	if existing == s || sameProjection(existing, s) {
		return nil
	}
	return &oaserr.SchemaConflictError{Name: s.Name, Existing: as.origins[s.Name], Incoming: origin}
}

func sameProjection(a, b *openapi.Schema) bool {
	da, err := json.Marshal(a)
	if err != nil {
		return false
	}
	db, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(da, db)
}

func (as *assembly) addOperation(res operation.Result) error {
	item, ok := as.doc.Paths.Get(res.Path)
	if !ok {
		item = &openapi.PathItem{}
		as.doc.Paths.Set(res.Path, item)
	}

	op := res.Operation
	if op.OperationID != "" {
		for as.ids[op.OperationID] {
			op.OperationID += "_" + strings.ToLower(res.Method)
		}
		as.ids[op.OperationID] = true
	}

	if !item.SetOperation(res.Method, op) {
		return &oaserr.RouteError{
			Route: res.Route.Key(),
			Name:  res.Route.Name,
			Err:   fmt.Errorf("%w: %s %s", oaserr.ErrDuplicateRoute, res.Method, res.Path),
		}
	}
	return nil
}

func (as *assembly) resolves(ref string) bool {
	name, ok := openapi.RefName(ref)
	if !ok {
		return false
	}
	_, ok = as.doc.Schema(name)
	return ok
}

func (as *assembly) checkSchema(s *openapi.Schema) error {
	var dangling string
	openapi.WalkRefs(s, func(ref string) {
		if dangling == "" && !as.resolves(ref) {
			dangling = ref
		}
	})
	if dangling != "" {
		return fmt.Errorf("%w: %s", oaserr.ErrUnresolvedReference, dangling)
	}
	return nil
}

// checkOperationRefs verifies every reference in the parameters, request
// body and responses of op.
func (as *assembly) checkOperationRefs(op *openapi.Operation) error {
	for _, p := range op.Parameters {
		if err := as.checkSchema(p.Schema); err != nil {
			return err
		}
	}
	if op.RequestBody != nil {
		for _, mime := range sortedKeys(op.RequestBody.Content) {
			if err := as.checkSchema(op.RequestBody.Content[mime].Schema); err != nil {
				return err
			}
		}
	}
	for _, code := range sortedKeys(op.Responses) {
		resp := op.Responses[code]
		for _, mime := range sortedKeys(resp.Content) {
			if err := as.checkSchema(resp.Content[mime].Schema); err != nil {
				return err
			}
		}
	}
	return nil
}

func (as *assembly) checkRegistryRefs() error {
	for pair := as.doc.Components.Schemas.Oldest(); pair != nil; pair = pair.Next() {
		if err := as.checkSchema(pair.Value); err != nil {
			return fmt.Errorf("schema %s: %w", pair.Key, err)
		}
	}
	return nil
}

func pathOperations(doc *openapi.Document) []openapi.MethodOperation {
	var ops []openapi.MethodOperation
	for pair := doc.Paths.Oldest(); pair != nil; pair = pair.Next() {
		ops = append(ops, pair.Value.Operations()...)
	}
	return ops
}

// mergeTags combines tags collected from operations with the declared ones.
// Declared tags take precedence and are kept even when no operation uses
// them. The result is sorted by name.
func mergeTags(doc *openapi.Document, declared []openapi.Tag) []openapi.Tag {
	userTags := make(map[string]openapi.Tag, len(declared))
	for _, tag := range declared {
		userTags[tag.Name] = tag
	}

	seen := make(map[string]bool)
	var tags []openapi.Tag

	for _, mo := range pathOperations(doc) {
		for _, name := range mo.Operation.Tags {
			if seen[name] {
				continue
			}
			seen[name] = true
			if userTag, ok := userTags[name]; ok {
				tags = append(tags, userTag)
			} else {
				tags = append(tags, openapi.Tag{Name: name})
			}
		}
	}

	for _, tag := range declared {
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
