package openapi

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validate loads the JSON projection of doc with kin-openapi, resolving every
// reference, and runs its structural validation.
func Validate(ctx context.Context, doc *Document) error {
	data, err := doc.JSON()
	if err != nil {
		return err
	}
	return ValidateData(ctx, data)
}

// ValidateData validates a serialized JSON or YAML document.
func ValidateData(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	t, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if err := t.Validate(ctx); err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	return nil
}
