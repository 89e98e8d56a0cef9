package operation

import (
	"fmt"
	"strings"

	"github.com/vitalvas/oasbake/catalog"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/openapi"
)

// Kind tags the variant held by a Source.
type Kind int

const (
	// None means no schema: the content carries no schema.
	None Kind = iota
	// Entity means the schema is built from an entity table.
	Entity
	// CustomClass means the schema is built from a custom schema class.
	CustomClass
	// Reference means the content points at an existing registry entry.
	Reference
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Entity:
		return "entity"
	case CustomClass:
		return "custom"
	case Reference:
		return "reference"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Source is where the schema of a response or request body comes from.
// Exactly the fields of its Kind are set.
type Source struct {
	Kind Kind
	// Table is set for Entity.
	Table catalog.Table
	// Class is set for CustomClass.
	Class *metadata.Class
	// Shape is "object" or "array" for Entity and CustomClass.
	Shape string
	// Name is the registry name for Reference.
	Name string
}

func (s Source) String() string {
	switch s.Kind {
	case Entity:
		return fmt.Sprintf("entity %s (%s)", s.Table.Entity, s.Shape)
	case CustomClass:
		return fmt.Sprintf("custom %s (%s)", s.Class.Name, s.Shape)
	case Reference:
		return "reference " + s.Name
	}
	return "none"
}

// referenceName accepts a bare schema name or a local component reference.
func referenceName(ref string) string {
	if name, ok := openapi.RefName(ref); ok {
		return name
	}
	return strings.TrimSpace(ref)
}
