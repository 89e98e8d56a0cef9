package metadata

import (
	"reflect"

	"github.com/rs/zerolog"

	"github.com/vitalvas/oasbake/oaserr"
)

// SchemaProvider is implemented by custom schema classes to declare their
// class-level schema attribute.
//
//	func (EmployeeReport) OpenAPISchema() metadata.Schema {
//	    return metadata.Schema{Name: "Report", Title: "Employee report"}
//	}
type SchemaProvider interface {
	OpenAPISchema() Schema
}

// EntityProvider is implemented by entity classes to declare class-level
// entity options.
type EntityProvider interface {
	OpenAPIEntity() Entity
}

// OperationProvider is implemented by controllers to attach attributes to
// their handler methods, keyed by Go method name.
//
//	func (EmployeesController) OpenAPIOperations() map[string][]metadata.Attribute {
//	    return map[string][]metadata.Attribute{
//	        "Index": {metadata.Response{Schema: "app.Employee", SchemaType: "array"}},
//	    }
//	}
type OperationProvider interface {
	OpenAPIOperations() map[string][]Attribute
}

// Loader populates a Table and a Registry during the load phase.
type Loader struct {
	table   *Table
	classes *Registry
	logger  zerolog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used to report loaded classes.
func WithLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader returns a loader writing into table and classes.
func NewLoader(table *Table, classes *Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		table:   table,
		classes: classes,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadTypes loads every value with LoadType.
func (l *Loader) LoadTypes(values ...any) error {
	for _, v := range values {
		if _, err := l.LoadType(v); err != nil {
			return err
		}
	}
	return nil
}

// LoadType registers the class of v and records its declarative metadata:
// class-level providers, `openapi` field tags and method attributes.
func (l *Loader) LoadType(v any) (*Class, error) {
	class, err := l.classes.Register(v)
	if err != nil {
		return nil, err
	}

	ptr := reflect.New(class.Type)
	iface := ptr.Interface()

	if p, ok := iface.(SchemaProvider); ok {
		if err := l.table.Set(ClassTarget(class.Name), p.OpenAPISchema()); err != nil {
			return nil, &oaserr.ClassError{Class: class.Name, Err: err}
		}
	}
	if p, ok := iface.(EntityProvider); ok {
		if err := l.table.Set(ClassTarget(class.Name), p.OpenAPIEntity()); err != nil {
			return nil, &oaserr.ClassError{Class: class.Name, Err: err}
		}
	}

	for _, m := range class.Members {
		tag := m.Tag.Get("openapi")
		if tag == "" {
			continue
		}
		if err := l.table.Set(PropertyTarget(class.Name, m.JSONName), ParseTag(tag)); err != nil {
			return nil, &oaserr.ClassError{Class: class.Name, Member: m.JSONName, Err: err}
		}
	}

	if p, ok := iface.(OperationProvider); ok {
		for method, attrs := range p.OpenAPIOperations() {
			if _, ok := ptr.Type().MethodByName(method); !ok {
				return nil, &oaserr.ClassError{Class: class.Name, Member: method, Err: oaserr.Malformed("no such method")}
			}
			for _, attr := range attrs {
				if err := l.table.Set(MethodTarget(class.Name, method), attr); err != nil {
					return nil, &oaserr.ClassError{Class: class.Name, Member: method, Err: err}
				}
			}
		}
	}

	l.logger.Debug().
		Str("class", class.Name).
		Int("members", len(class.Members)).
		Msg("class loaded")

	return class, nil
}

// Declare registers a declared class.
func (l *Loader) Declare(name string, members []Member) (*Class, error) {
	class, err := l.classes.Declare(name, members)
	if err != nil {
		return nil, err
	}
	l.logger.Debug().Str("class", name).Int("members", len(members)).Msg("class declared")
	return class, nil
}

// LoadRecords appends records to the table in order.
func (l *Loader) LoadRecords(records ...Record) {
	for _, rec := range records {
		l.table.Add(rec.Target, rec.Attribute, rec.Values)
	}
	if len(records) > 0 {
		l.logger.Debug().Int("records", len(records)).Msg("metadata records loaded")
	}
}
