package openapi

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// macroTypeMap maps route variable macros to OpenAPI type and format.
var macroTypeMap = map[string][2]string{
	"uuid":     {"string", "uuid"},
	"int":      {"integer", ""},
	"float":    {"number", ""},
	"slug":     {"string", ""},
	"alpha":    {"string", ""},
	"alphanum": {"string", ""},
	"date":     {"string", "date"},
	"hex":      {"string", ""},
	"domain":   {"string", "hostname"},
}

// pathVarRegexp matches route variables in the form {name} or {name:macro}.
var pathVarRegexp = regexp.MustCompile(`\{([^}]+)\}`)

// ParsePath extracts variables from a route path template, converts it to
// OpenAPI format, and generates path parameter objects in template order.
//
// See: https://spec.openapis.org/oas/v3.0.3#path-templating
func ParsePath(tpl string) (string, []*Parameter) {
	var params []*Parameter

	openAPIPath := pathVarRegexp.ReplaceAllStringFunc(tpl, func(match string) string {
		inner := match[1 : len(match)-1]
		varName, macroName, _ := strings.Cut(inner, ":")

		param := &Parameter{
			Name:     varName,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: "string"},
		}

		if typeInfo, ok := macroTypeMap[macroName]; ok {
			param.Schema = &Schema{Type: typeInfo[0], Format: typeInfo[1]}
		}

		params = append(params, param)
		return "{" + varName + "}"
	})

	return openAPIPath, params
}

// ResponseDescription returns a human-readable description for a response key.
//
// See: https://spec.openapis.org/oas/v3.0.3#response-object (description)
func ResponseDescription(key string) string {
	if key == "default" {
		return "Default response"
	}
	code, err := strconv.Atoi(key)
	if err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return key
}
