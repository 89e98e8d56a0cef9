package router

import (
	"net/http"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vitalvas/oasbake/catalog"
)

// Resource actions connected by Resources.
const (
	ActionIndex  = "index"
	ActionView   = "view"
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

type resourceAction struct {
	name    string
	methods []string
	path    string
}

var defaultActions = []resourceAction{
	{name: ActionIndex, methods: []string{http.MethodGet}, path: ""},
	{name: ActionAdd, methods: []string{http.MethodPost}, path: ""},
	{name: ActionView, methods: []string{http.MethodGet}, path: "/{id}"},
	{name: ActionEdit, methods: []string{http.MethodPatch, http.MethodPut}, path: "/{id}"},
	{name: ActionDelete, methods: []string{http.MethodDelete}, path: "/{id}"},
}

type resource struct {
	controller string
	path       string
	id         string
	only       []string
	extra      []resourceAction
	nested     func(*Router)
}

// ResourceOption configures Resources.
type ResourceOption func(*resource)

// Only limits the connected default actions.
func Only(actions ...string) ResourceOption {
	return func(r *resource) {
		r.only = actions
	}
}

// Map connects an additional action on the resource for the given methods,
// GET when none are given. The path is relative to the resource path and
// may use {id}.
func Map(action, path string, methods ...string) ResourceOption {
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	return func(r *resource) {
		r.extra = append(r.extra, resourceAction{name: action, methods: methods, path: path})
	}
}

// Controller overrides the handler class, which defaults to the resource
// name followed by "Controller".
func Controller(name string) ResourceOption {
	return func(r *resource) {
		r.controller = name
	}
}

// Path overrides the resource path, which defaults to the dasherized
// resource name.
func Path(tpl string) ResourceOption {
	return func(r *resource) {
		r.path = tpl
	}
}

// ID sets the pattern of the {id} variable, e.g. "int" or "uuid".
func ID(pattern string) ResourceOption {
	return func(r *resource) {
		r.id = pattern
	}
}

// Nested connects child routes below a single resource, e.g.
// /employees/{employee_id}/employee-salaries.
func Nested(fn func(*Router)) ResourceOption {
	return func(r *resource) {
		r.nested = fn
	}
}

// Resources connects the REST routes of a resource:
//
//	GET    /employees         index
//	POST   /employees         add
//	GET    /employees/{id}    view
//	PATCH  /employees/{id}    edit (PUT as well)
//	DELETE /employees/{id}    delete
//
// Routes are named "employees:index" and so on, and map to the action
// methods of EmployeesController with the first letter upper-cased.
func (r *Router) Resources(name string, opts ...ResourceOption) []*Route {
	res := &resource{
		controller: controllerName(name),
		path:       "/" + dasherize(name),
	}
	for _, opt := range opts {
		opt(res)
	}

	actions := make([]resourceAction, 0, len(defaultActions)+len(res.extra))
	for _, a := range defaultActions {
		if len(res.only) > 0 && !slices.Contains(res.only, a.name) {
			continue
		}
		actions = append(actions, a)
	}
	actions = append(actions, res.extra...)

	prefix := strings.ToLower(dasherize(name))
	routes := make([]*Route, 0, len(actions))
	for _, a := range actions {
		path := a.path
		if res.id != "" {
			path = strings.ReplaceAll(path, "{id}", "{id:"+res.id+"}")
		}
		route := r.NewRoute(joinPath(res.path, path)).
			Methods(a.methods...).
			Action(res.controller, methodName(a.name)).
			Name(prefix + ":" + a.name)
		routes = append(routes, route)
	}

	if res.nested != nil {
		parent := catalog.SnakeCase(catalog.Singular(strings.ReplaceAll(dasherize(name), "-", "_")))
		res.nested(r.Prefix(joinPath(res.path, "/{"+parent+"_id}")))
	}
	return routes
}

// controllerName turns "employee_salaries" or "EmployeeSalaries" into
// "EmployeeSalariesController".
func controllerName(name string) string {
	caser := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, isSeparator) {
		b.WriteString(caser.String(part))
	}
	return b.String() + "Controller"
}

// dasherize turns "EmployeeSalaries" or "employee_salaries" into
// "employee-salaries".
func dasherize(name string) string {
	var b strings.Builder
	prevLower := false
	for _, c := range name {
		switch {
		case isSeparator(c):
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			prevLower = false
			continue
		case unicode.IsUpper(c) && prevLower:
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(c))
		prevLower = unicode.IsLower(c) || unicode.IsDigit(c)
	}
	return b.String()
}

// methodName upper-cases the first letter of an action name.
func methodName(action string) string {
	if action == "" {
		return action
	}
	return strings.ToUpper(action[:1]) + action[1:]
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}
