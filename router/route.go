package router

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime"
	"strings"
)

var validMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Route is one registered path template mapped to a handler method.
type Route struct {
	router     *Router
	name       string
	methods    []string
	template   *pathTemplate
	controller string
	action     string
	err        error
}

// Name sets the name for the route. Names are unique per router tree.
func (r *Route) Name(name string) *Route {
	if r.err != nil {
		return r
	}
	if r.name != "" {
		r.err = fmt.Errorf("router: route already has name %q, can't set %q", r.name, name)
		return r
	}
	named := r.router.root().namedRoutes
	if other, ok := named[name]; ok && other != r {
		r.err = fmt.Errorf("router: route name %q already registered", name)
		return r
	}
	r.name = name
	named[name] = r
	return r
}

// Methods sets the HTTP methods of the route. Calling Methods again
// replaces the previous set.
func (r *Route) Methods(methods ...string) *Route {
	if r.err != nil {
		return r
	}
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(m)
		if !validMethods[m] {
			r.err = fmt.Errorf("router: unsupported method %q", m)
			return r
		}
		out = append(out, m)
	}
	r.methods = out
	return r
}

// Action sets the handler class and method of the route.
func (r *Route) Action(controller, action string) *Route {
	if r.err != nil {
		return r
	}
	if controller == "" || action == "" {
		r.err = errors.New("router: route needs both controller and action")
		return r
	}
	r.controller = controller
	r.action = action
	return r
}

// HandlerFunc sets the handler class and method from a method value such
// as ctrl.Index. Plain functions use their package as the handler class.
func (r *Route) HandlerFunc(f any) *Route {
	if r.err != nil {
		return r
	}
	controller, action, err := handlerName(f)
	if err != nil {
		r.err = err
		return r
	}
	return r.Action(controller, action)
}

// GetName returns the name for the route, if any.
func (r *Route) GetName() string {
	return r.name
}

// GetPathTemplate returns the path template of the route.
func (r *Route) GetPathTemplate() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.template.raw, nil
}

// GetMethods returns the methods of the route.
func (r *Route) GetMethods() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.methods) == 0 {
		return nil, errors.New("router: route doesn't have methods")
	}
	return append([]string(nil), r.methods...), nil
}

// GetVarNames returns the path variable names of the route.
func (r *Route) GetVarNames() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]string(nil), r.template.vars...), nil
}

// GetController returns the qualified or short handler class name.
func (r *Route) GetController() string {
	return r.controller
}

// GetAction returns the handler method name.
func (r *Route) GetAction() string {
	return r.action
}

// GetError returns any error that was set on the route.
func (r *Route) GetError() error {
	return r.err
}

// handlerName derives the handler class and method from a function value.
// Method values are named "pkg.(*Type).Method-fm" by the runtime.
func handlerName(f any) (string, string, error) {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "", "", fmt.Errorf("router: handler %T is not a function", f)
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return "", "", errors.New("router: cannot resolve handler name")
	}

	name := fn.Name()
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, "-fm")

	pkg, rest, ok := strings.Cut(name, ".")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("router: unexpected handler name %q", fn.Name())
	}

	idx := strings.LastIndexByte(rest, '.')
	if idx < 0 {
		return pkg, rest, nil
	}
	typ := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(rest[:idx], "("), "*"), ")")
	action := rest[idx+1:]
	if strings.HasPrefix(action, "func") {
		return "", "", fmt.Errorf("router: closure %q cannot be a handler", fn.Name())
	}
	return pkg + "." + typ, action, nil
}
