// Package manifest reads the declarative input file of a generation run:
// the route table, entity tables, declared classes and metadata records,
// for applications whose routes and classes are not Go values.
//
//	routes:
//	  - prefix: /api
//	    resources:
//	      - name: Employees
//	        nested:
//	          - name: EmployeeSalaries
//	tables:
//	  - name: employees
//	    columns:
//	      - {name: id, type: integer}
//	      - {name: gender, type: string}
//	classes:
//	  - name: app.CustomResponseSchema
//	    properties:
//	      - {name: name, type: string}
//	      - {name: age, type: integer}
//	metadata:
//	  - class: app.EmployeesController
//	    method: Index
//	    attribute: response
//	    values: {schema: Employee, schemaType: array}
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vitalvas/oasbake/catalog"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/router"
)

// Manifest is the decoded input file.
type Manifest struct {
	Routes   []Scope         `yaml:"routes"`
	Tables   []catalog.Table `yaml:"tables"`
	Classes  []Class         `yaml:"classes"`
	Metadata []Record        `yaml:"metadata"`
}

// Scope groups routes below a path prefix.
type Scope struct {
	Prefix    string     `yaml:"prefix"`
	Routes    []Route    `yaml:"routes"`
	Resources []Resource `yaml:"resources"`
	Scopes    []Scope    `yaml:"scopes"`
}

// Route is a single connected route.
type Route struct {
	Name       string   `yaml:"name"`
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	Controller string   `yaml:"controller"`
	Action     string   `yaml:"action"`
}

// Resource connects the REST routes of a resource.
type Resource struct {
	Name       string         `yaml:"name"`
	Controller string         `yaml:"controller"`
	Path       string         `yaml:"path"`
	ID         string         `yaml:"id"`
	Only       []string       `yaml:"only"`
	Map        []MappedAction `yaml:"map"`
	Nested     []Resource     `yaml:"nested"`
}

// MappedAction is an additional resource action.
type MappedAction struct {
	Action string `yaml:"action"`
	// Methods defaults to GET.
	Methods []string `yaml:"methods"`
	Path    string   `yaml:"path"`
}

// Class declares a class by name and properties.
type Class struct {
	Name       string     `yaml:"name"`
	Properties []Property `yaml:"properties"`
}

// Property is one declared class property.
type Property struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
	Optional bool   `yaml:"optional"`
}

// Record is one metadata record. Property and Method are exclusive; with
// neither the record targets the class.
type Record struct {
	Class     string         `yaml:"class"`
	Property  string         `yaml:"property"`
	Method    string         `yaml:"method"`
	Attribute string         `yaml:"attribute"`
	Values    map[string]any `yaml:"values"`
}

var attributes = map[string]bool{
	metadata.AttrSchema:    true,
	metadata.AttrEntity:    true,
	metadata.AttrProperty:  true,
	metadata.AttrOperation: true,
	metadata.AttrResponse:  true,
	metadata.AttrRequest:   true,
}

// Target returns the metadata target of the record.
func (r Record) Target() (metadata.Target, error) {
	switch {
	case r.Class == "":
		return metadata.Target{}, oaserr.Malformed("record without class")
	case r.Property != "" && r.Method != "":
		return metadata.Target{}, &oaserr.ClassError{Class: r.Class, Err: oaserr.Malformed("record targets both property %q and method %q", r.Property, r.Method)}
	case r.Property != "":
		return metadata.PropertyTarget(r.Class, r.Property), nil
	case r.Method != "":
		return metadata.MethodTarget(r.Class, r.Method), nil
	}
	return metadata.ClassTarget(r.Class), nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", oaserr.ErrConfig, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the records and classes without loading them.
func (m *Manifest) Validate() error {
	var errs []error
	for i, rec := range m.Metadata {
		if _, err := rec.Target(); err != nil {
			errs = append(errs, fmt.Errorf("metadata[%d]: %w", i, err))
			continue
		}
		if !attributes[rec.Attribute] {
			errs = append(errs, fmt.Errorf("metadata[%d]: %w", i, oaserr.Malformed("unknown attribute %q", rec.Attribute)))
		}
	}
	for i, c := range m.Classes {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("classes[%d]: %w", i, oaserr.Malformed("class without a name")))
		}
	}
	return errors.Join(errs...)
}

// Apply declares the manifest classes and loads its metadata records.
func (m *Manifest) Apply(l *metadata.Loader) error {
	for _, c := range m.Classes {
		members := make([]metadata.Member, 0, len(c.Properties))
		for _, p := range c.Properties {
			members = append(members, metadata.Member{
				Name:     p.Name,
				JSONName: p.Name,
				TypeName: p.Type,
				Nullable: p.Nullable,
				Optional: p.Optional,
			})
		}
		if _, err := l.Declare(c.Name, members); err != nil {
			return err
		}
	}

	records := make([]metadata.Record, 0, len(m.Metadata))
	for _, rec := range m.Metadata {
		target, err := rec.Target()
		if err != nil {
			return err
		}
		records = append(records, metadata.Record{Target: target, Attribute: rec.Attribute, Values: rec.Values})
	}
	l.LoadRecords(records...)
	return nil
}

// TableSource returns the manifest tables as a catalog source.
func (m *Manifest) TableSource() catalog.Source {
	return catalog.Static(m.Tables)
}

// Router builds the route table. Invalid routes are reported when the
// router is walked.
func (m *Manifest) Router() *router.Router {
	r := router.NewRouter()
	for _, s := range m.Routes {
		addScope(r, s)
	}
	return r
}

func addScope(r *router.Router, s Scope) {
	if s.Prefix != "" {
		r = r.Prefix(s.Prefix)
	}
	for _, rt := range s.Routes {
		route := r.Handle(rt.Path, rt.Controller, rt.Action).Methods(rt.Methods...)
		if rt.Name != "" {
			route.Name(rt.Name)
		}
	}
	for _, res := range s.Resources {
		addResource(r, res)
	}
	for _, sub := range s.Scopes {
		addScope(r, sub)
	}
}

func addResource(r *router.Router, res Resource) {
	var opts []router.ResourceOption
	if res.Controller != "" {
		opts = append(opts, router.Controller(res.Controller))
	}
	if res.Path != "" {
		opts = append(opts, router.Path(res.Path))
	}
	if res.ID != "" {
		opts = append(opts, router.ID(res.ID))
	}
	if len(res.Only) > 0 {
		opts = append(opts, router.Only(res.Only...))
	}
	for _, a := range res.Map {
		opts = append(opts, router.Map(a.Action, a.Path, a.Methods...))
	}
	if len(res.Nested) > 0 {
		nested := res.Nested
		opts = append(opts, router.Nested(func(n *router.Router) {
			for _, child := range nested {
				addResource(n, child)
			}
		}))
	}
	r.Resources(res.Name, opts...)
}
