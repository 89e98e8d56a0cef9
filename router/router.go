package router

import (
	"errors"
	"fmt"
)

// SkipRouter is used as a return value from WalkFuncs to skip the rest of
// the routes of the current router.
var SkipRouter = errors.New("skip this router")

// WalkFunc is the type of the function called for each route visited by
// Walk.
type WalkFunc func(route *Route, router *Router) error

// Descriptor is one (method, path template) pair of a route, the unit
// documented as an operation.
type Descriptor struct {
	Name       string
	Method     string
	Path       string
	Controller string
	Action     string
}

// Key returns the route identity used in reports: "{path} ({METHOD})".
func (d Descriptor) Key() string {
	return fmt.Sprintf("%s (%s)", d.Path, d.Method)
}

// Router collects routes. Sub-routers created with Prefix share the named
// route table of their root.
type Router struct {
	parent      *Router
	prefix      string
	routes      []*Route
	children    []*Router
	namedRoutes map[string]*Route
}

// NewRouter returns a new router instance.
func NewRouter() *Router {
	return &Router{
		namedRoutes: make(map[string]*Route),
	}
}

func (r *Router) root() *Router {
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Prefix returns a sub-router whose routes are registered below the given
// path prefix.
func (r *Router) Prefix(tpl string) *Router {
	sub := &Router{
		parent: r,
		prefix: joinPath(r.prefix, tpl),
	}
	r.children = append(r.children, sub)
	return sub
}

// NewRoute registers a route for a path template below the router prefix.
func (r *Router) NewRoute(tpl string) *Route {
	route := &Route{router: r}
	route.template, route.err = parseTemplate(joinPath(r.prefix, tpl))
	r.routes = append(r.routes, route)
	return route
}

// Handle registers a route mapped to a controller class and action method.
func (r *Router) Handle(tpl, controller, action string) *Route {
	return r.NewRoute(tpl).Action(controller, action)
}

// HandleFunc registers a route mapped to a controller method value.
func (r *Router) HandleFunc(tpl string, f any) *Route {
	return r.NewRoute(tpl).HandlerFunc(f)
}

// Get returns a route registered with the given name.
func (r *Router) Get(name string) *Route {
	return r.root().namedRoutes[name]
}

// Walk walks the router and all its sub-routers, calling walkFn for each
// route. Routes of a router come before those of its sub-routers.
func (r *Router) Walk(walkFn WalkFunc) error {
	for _, route := range r.routes {
		err := walkFn(route, r)
		if err == SkipRouter {
			break
		}
		if err != nil {
			return err
		}
	}
	for _, sub := range r.children {
		if err := sub.Walk(walkFn); err != nil {
			return err
		}
	}
	return nil
}

// Descriptors flattens every route into one descriptor per method, in walk
// order. The first route error aborts.
func (r *Router) Descriptors() ([]Descriptor, error) {
	var out []Descriptor
	err := r.Walk(func(route *Route, _ *Router) error {
		if route.err != nil {
			return fmt.Errorf("route %q: %w", route.name, route.err)
		}
		if route.controller == "" {
			return fmt.Errorf("route %s: no handler", route.template.raw)
		}
		methods := route.methods
		if len(methods) == 0 {
			return fmt.Errorf("route %s: no methods", route.template.raw)
		}
		for _, m := range methods {
			out = append(out, route.descriptor(m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Route) descriptor(method string) Descriptor {
	return Descriptor{
		Name:       r.name,
		Method:     method,
		Path:       r.template.raw,
		Controller: r.controller,
		Action:     r.action,
	}
}
