// Package metadata holds the declarative metadata the generator reads:
// a Table of attribute records keyed by target (class, property or method)
// and a Registry of reflectable classes.
//
// Both are filled once by a Loader before resolution starts and are only
// read afterwards. Records are flat key/value maps; typed views such as
// Schema, Entity, Property, Operation, Response and Request are decoded on
// lookup, so a record that cannot be decoded surfaces as a malformed
// declaration while a missing record is simply absent.
//
// Go types contribute metadata through struct tags and provider methods:
//
//	type Employee struct {
//	    ID     int    `json:"id" openapi:"readOnly,example=1"`
//	    Gender string `json:"gender" openapi:"enum=f|m|x"`
//	}
//
//	func (Employee) OpenAPIEntity() metadata.Entity {
//	    return metadata.Entity{Description: "A company employee"}
//	}
//
// Records can also be added directly with Table.Add or Table.Set, which is
// how manifest files are loaded.
package metadata
