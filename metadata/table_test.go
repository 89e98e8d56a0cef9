package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
)

func TestTarget(t *testing.T) {
	t.Run("string forms", func(t *testing.T) {
		assert.Equal(t, "app.Employee", ClassTarget("app.Employee").String())
		assert.Equal(t, "app.Employee::$gender", PropertyTarget("app.Employee", "gender").String())
		assert.Equal(t, "app.EmployeesController::Index()", MethodTarget("app.EmployeesController", "Index").String())
	})

	t.Run("kinds differ", func(t *testing.T) {
		assert.NotEqual(t, PropertyTarget("a.B", "x"), MethodTarget("a.B", "x"))
		assert.Equal(t, "method", KindMethod.String())
	})
}

func TestTableReadAndAbsence(t *testing.T) {
	table := NewTable()
	target := ClassTarget("app.Custom")

	_, ok := table.Read(target, AttrSchema)
	assert.False(t, ok)
	assert.False(t, table.HasClass("app.Custom"))

	table.Add(target, AttrSchema, map[string]any{"name": "First"})
	table.Add(target, AttrSchema, map[string]any{"name": "Second"})

	rec, ok := table.Read(target, AttrSchema)
	require.True(t, ok)
	assert.Equal(t, "Second", rec.Values["name"])
	assert.Len(t, table.ReadAll(target, AttrSchema), 2)
	assert.Equal(t, 2, table.Len())
	assert.True(t, table.HasClass("app.Custom"))

	t.Run("scoped per target kind", func(t *testing.T) {
		_, ok := table.Read(PropertyTarget("app.Custom", "name"), AttrSchema)
		assert.False(t, ok)
	})
}

func TestRecordDecode(t *testing.T) {
	t.Run("weakly typed values", func(t *testing.T) {
		table := NewTable()
		target := MethodTarget("app.EmployeesController", "View")
		table.Add(target, AttrResponse, map[string]any{
			"statusCode": 404,
			"mimeTypes":  "application/json|application/xml",
		})

		responses, err := table.ResponsesOf("app.EmployeesController", "View")
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, "404", responses[0].StatusCode)
		assert.Equal(t, []string{"application/json", "application/xml"}, responses[0].MimeTypes)
	})

	t.Run("visibility by name", func(t *testing.T) {
		table := NewTable()
		table.Add(ClassTarget("app.Private"), AttrSchema, map[string]any{"visibility": "never"})

		schema, err := table.SchemaOf("app.Private")
		require.NoError(t, err)
		require.NotNil(t, schema)
		assert.Equal(t, openapi.VisibilityNever, schema.Visibility)
	})

	t.Run("unknown key is malformed", func(t *testing.T) {
		table := NewTable()
		table.Add(ClassTarget("app.Custom"), AttrSchema, map[string]any{"colour": "red"})

		_, err := table.SchemaOf("app.Custom")
		require.Error(t, err)
		assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)

		var classErr *oaserr.ClassError
		require.ErrorAs(t, err, &classErr)
		assert.Equal(t, "app.Custom", classErr.Class)
	})

	t.Run("bad visibility is malformed", func(t *testing.T) {
		table := NewTable()
		table.Add(ClassTarget("app.Custom"), AttrSchema, map[string]any{"visibility": "sometimes"})

		_, err := table.SchemaOf("app.Custom")
		assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)
	})

	t.Run("absent attribute", func(t *testing.T) {
		table := NewTable()
		op, err := table.OperationOf("app.X", "Index")
		assert.NoError(t, err)
		assert.Nil(t, op)
	})
}

func TestTableSet(t *testing.T) {
	table := NewTable()
	visible := false

	require.NoError(t, table.Set(ClassTarget("app.EmployeeSalary"), Entity{Visible: &visible}))
	require.NoError(t, table.Set(ClassTarget("app.Custom"), Schema{Name: "Custom", Title: "Custom Title", Visibility: openapi.VisibilityNever}))
	require.NoError(t, table.Set(MethodTarget("app.C", "Index"), Operation{Tags: []string{"Reports"}}))

	entity, err := table.EntityOf("app.EmployeeSalary")
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.True(t, entity.Hidden())

	schema, err := table.SchemaOf("app.Custom")
	require.NoError(t, err)
	assert.Equal(t, "Custom", schema.Name)
	assert.Equal(t, "Custom Title", schema.Title)
	assert.Equal(t, openapi.VisibilityNever, schema.Visibility)

	op, err := table.OperationOf("app.C", "Index")
	require.NoError(t, err)
	assert.Equal(t, []string{"Reports"}, op.Tags)
	assert.False(t, op.Hidden())

	t.Run("zero values are omitted", func(t *testing.T) {
		values, err := Encode(Response{StatusCode: "201"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"statusCode": "201"}, values)
	})
}
