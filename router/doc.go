// Package router collects the route table of a host application: path
// templates mapped to controller classes and action methods.
//
// The router does not serve requests. It is the route source of document
// generation, so every route carries the handler it maps to:
//
//	r := router.NewRouter()
//	api := r.Prefix("/api")
//	api.Resources("employees", router.ID("int"))
//	api.HandleFunc("/reports/{year:int}", reports.Yearly).
//		Methods(http.MethodGet).
//		Name("reports:yearly")
//
//	routes, err := r.Descriptors()
//
// # Path Variables
//
// Variables are enclosed in curly braces, optionally followed by a colon
// and a pattern. Named macros stand for common patterns:
//
//	uuid     - RFC 4122 UUID
//	int      - unsigned integer
//	float    - decimal number
//	slug     - URL-safe slug
//	alpha    - alphabetic characters
//	alphanum - alphanumeric characters
//	date     - ISO 8601 date
//	hex      - hexadecimal string
//
// Anything else after the colon is compiled as a regular expression.
//
// # Resources
//
// Resources connects index, add, view, edit and delete routes for a REST
// resource the way CakePHP does. Only, Map, Controller, Path and ID adjust
// the defaults.
package router
