package metadata

import (
	"strings"
)

// ParseTag parses an `openapi` struct tag into a property attribute. Options
// are comma separated; keys with values use key=value and enum values are
// separated by a pipe:
//
//	Status string `json:"status" openapi:"description=Account state,enum=active|disabled,example=active"`
//
// Bare flags are nullable, hidden, readOnly, writeOnly and deprecated.
// Unknown keys are ignored.
func ParseTag(tag string) Property {
	var prop Property
	if tag == "" {
		return prop
	}

	for part := range strings.SplitSeq(tag, ",") {
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if hasValue {
			value = strings.TrimSpace(value)
		}

		switch key {
		case "name":
			prop.Name = value
		case "type":
			prop.Type = value
		case "format":
			prop.Format = value
		case "description":
			prop.Description = value
		case "example":
			prop.Example = value
		case "enum":
			prop.Enum = strings.Split(value, "|")
		case "nullable":
			prop.Nullable = true
		case "hidden":
			prop.Hidden = true
		case "readOnly":
			prop.ReadOnly = true
		case "writeOnly":
			prop.WriteOnly = true
		case "deprecated":
			prop.Deprecated = true
		}
	}

	return prop
}
