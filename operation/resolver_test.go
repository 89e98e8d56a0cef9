package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasbake/catalog"
	"github.com/vitalvas/oasbake/config"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/property"
	"github.com/vitalvas/oasbake/router"
	"github.com/vitalvas/oasbake/schema"
)

type EmployeesController struct{}

func (EmployeesController) Index()  {}
func (EmployeesController) View()   {}
func (EmployeesController) Add()    {}
func (EmployeesController) Delete() {}

type CustomResponseSchema struct {
	Name string `json:"name" openapi:"example=Paul"`
	Age  int    `json:"age" openapi:"example=32"`
}

func (CustomResponseSchema) OpenAPISchema() metadata.Schema {
	return metadata.Schema{Name: "Custom", Title: "Custom Title"}
}

type CustomResponseSchemaAttributesOnly struct {
	Name string `json:"name" openapi:"example=Paul"`
	Age  int    `json:"age" openapi:"example=32"`
}

func (CustomResponseSchemaAttributesOnly) OpenAPISchema() metadata.Schema {
	return metadata.Schema{Visibility: openapi.VisibilityNever}
}

type CustomResponseSchemaPublic struct {
	Name string `json:"name" openapi:"example=Paul"`
	Age  int    `json:"age" openapi:"example=32"`
}

type fixture struct {
	table    *metadata.Table
	resolver *Resolver
}

func newFixture(t *testing.T, methods map[string][]metadata.Attribute) *fixture {
	t.Helper()

	table := metadata.NewTable()
	classes := metadata.NewRegistry()
	loader := metadata.NewLoader(table, classes)
	require.NoError(t, loader.LoadTypes(
		EmployeesController{},
		CustomResponseSchema{},
		CustomResponseSchemaAttributesOnly{},
		CustomResponseSchemaPublic{},
	))
	for method, attrs := range methods {
		for _, attr := range attrs {
			require.NoError(t, table.Set(metadata.MethodTarget("operation.EmployeesController", method), attr))
		}
	}

	cat, err := catalog.New("operation", catalog.Table{
		Name:    "employees",
		Columns: []catalog.Column{{Name: "id", Type: "integer"}, {Name: "gender", Type: "string"}},
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Namespaces.Controllers = []string{"operation"}
	cfg.Namespaces.Entities = []string{"operation"}

	builder := schema.NewBuilder(table, property.NewResolver(table))
	return &fixture{
		table: table,
		resolver: NewResolver(table, classes, cat, builder,
			WithConfig(cfg),
			WithKnownSchemas(func(name string) bool { return name == "Exception" }),
		),
	}
}

func route(method, path, action string) router.Descriptor {
	return router.Descriptor{
		Name:       "employees:" + action,
		Method:     method,
		Path:       path,
		Controller: "Employees",
		Action:     action,
	}
}

func content(t *testing.T, res Result, code, mime string) *openapi.MediaType {
	t.Helper()
	resp, ok := res.Operation.Responses[code]
	require.True(t, ok, "response %s", code)
	mt, ok := resp.Content[mime]
	require.True(t, ok, "content %s", mime)
	return mt
}

func TestResolveCustomSchema(t *testing.T) {
	for _, shape := range []string{metadata.ShapeObject, metadata.ShapeArray} {
		t.Run(shape, func(t *testing.T) {
			f := newFixture(t, map[string][]metadata.Attribute{
				"Index": {metadata.Response{Schema: "CustomResponseSchema", SchemaType: shape}},
			})

			res, err := f.resolver.Resolve(route("GET", "/employees", "Index"))
			require.NoError(t, err)

			mt := content(t, res, "200", "application/json")
			s := mt.Resolved
			require.NotNil(t, s)
			assert.Equal(t, shape, s.Type)
			assert.True(t, s.IsCustom())
			assert.Equal(t, "Custom", s.Name)
			assert.Equal(t, "Custom Title", s.Title)

			object := s
			if shape == metadata.ShapeArray {
				require.NotNil(t, s.Items)
				object = s.Items
				assert.Equal(t, "array", mt.Schema.Type)
				assert.Equal(t, "#/components/schemas/Custom", mt.Schema.Items.Ref)
			} else {
				assert.Equal(t, "#/components/schemas/Custom", mt.Schema.Ref)
			}

			assert.Equal(t, []string{"name", "age"}, object.PropertyNames())
			name, _ := object.Property("name")
			assert.Equal(t, "string", name.Type)
			assert.Equal(t, "Paul", name.Example)
			age, _ := object.Property("age")
			assert.Equal(t, "integer", age.Type)
			assert.Equal(t, int64(32), age.Example)

			require.Len(t, res.Schemas, 1)
			assert.Same(t, object, res.Schemas[0])
		})
	}
}

func TestResolveVisibilityScoping(t *testing.T) {
	t.Run("never is inline", func(t *testing.T) {
		for _, shape := range []string{metadata.ShapeObject, metadata.ShapeArray} {
			f := newFixture(t, map[string][]metadata.Attribute{
				"Index": {metadata.Response{Schema: "CustomResponseSchemaAttributesOnly", SchemaType: shape}},
			})
			res, err := f.resolver.Resolve(route("GET", "/employees", "Index"))
			require.NoError(t, err)

			mt := content(t, res, "200", "application/json")
			assert.Equal(t, openapi.VisibilityNever, mt.Resolved.Visibility)
			assert.Same(t, mt.Resolved, mt.Schema)
			assert.Empty(t, mt.Schema.Ref)
			assert.Empty(t, res.Schemas)
		}
	})

	t.Run("default is registered", func(t *testing.T) {
		f := newFixture(t, map[string][]metadata.Attribute{
			"Index": {metadata.Response{Schema: "CustomResponseSchemaPublic", SchemaType: metadata.ShapeArray}},
		})
		res, err := f.resolver.Resolve(route("GET", "/employees", "Index"))
		require.NoError(t, err)

		mt := content(t, res, "200", "application/json")
		assert.Equal(t, openapi.VisibilityDefault, mt.Resolved.Visibility)
		require.Len(t, res.Schemas, 1)
		assert.Equal(t, "CustomResponseSchemaPublic", res.Schemas[0].Name)
	})
}

func TestResolveEntityAndReference(t *testing.T) {
	f := newFixture(t, map[string][]metadata.Attribute{
		"Index": {metadata.Response{Schema: "Employee", SchemaType: metadata.ShapeArray}},
		"View": {
			metadata.Response{Schema: "Employee"},
			metadata.Response{StatusCode: "404"},
		},
		"Add": {
			metadata.Request{Ref: "#/components/schemas/Employee"},
			metadata.Response{StatusCode: "201", Ref: "Employee", MimeTypes: []string{"application/json", "application/xml"}},
		},
	})

	t.Run("entity array", func(t *testing.T) {
		res, err := f.resolver.Resolve(route("GET", "/employees", "Index"))
		require.NoError(t, err)
		mt := content(t, res, "200", "application/json")
		assert.Equal(t, "array", mt.Schema.Type)
		assert.Equal(t, "#/components/schemas/Employee", mt.Schema.Items.Ref)
		require.Len(t, res.Schemas, 1)
		gender, ok := res.Schemas[0].Property("gender")
		require.True(t, ok)
		assert.Equal(t, "string", gender.Type)
	})

	t.Run("entity with exception fallback", func(t *testing.T) {
		res, err := f.resolver.Resolve(route("GET", "/employees/{id:int}", "View"))
		require.NoError(t, err)

		assert.Equal(t, "/employees/{id}", res.Path)
		require.Len(t, res.Operation.Parameters, 1)
		assert.Equal(t, "integer", res.Operation.Parameters[0].Schema.Type)

		assert.Equal(t, "#/components/schemas/Employee", content(t, res, "200", "application/json").Schema.Ref)
		notFound := res.Operation.Responses["404"]
		assert.Equal(t, "Not Found", notFound.Description)
		assert.Equal(t, "#/components/schemas/Exception", content(t, res, "404", "application/json").Schema.Ref)
	})

	t.Run("references", func(t *testing.T) {
		res, err := f.resolver.Resolve(route("POST", "/employees", "Add"))
		require.NoError(t, err)

		body := res.Operation.RequestBody
		require.NotNil(t, body)
		assert.True(t, body.Required)
		require.Contains(t, body.Content, "application/x-www-form-urlencoded")
		assert.Equal(t, "#/components/schemas/Employee", body.Content["application/x-www-form-urlencoded"].Schema.Ref)

		assert.Equal(t, "Created", res.Operation.Responses["201"].Description)
		assert.Len(t, res.Operation.Responses["201"].Content, 2)
		assert.Empty(t, res.Schemas)
	})
}

func TestResolveDefaults(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.resolver.Resolve(route("DELETE", "/employees/{id}", "Delete"))
	require.NoError(t, err)

	op := res.Operation
	require.Len(t, op.Responses, 1)
	ok := op.Responses["200"]
	require.NotNil(t, ok)
	assert.Equal(t, "OK", ok.Description)
	assert.Empty(t, ok.Content)
	assert.Nil(t, op.RequestBody)
	assert.Equal(t, []string{"Employees"}, op.Tags)
	assert.Equal(t, "employees:Delete", op.OperationID)

	t.Run("unnamed route", func(t *testing.T) {
		d := route("DELETE", "/employees/{id}", "Delete")
		d.Name = ""
		res, err := f.resolver.Resolve(d)
		require.NoError(t, err)
		assert.Equal(t, "employeesDelete", res.Operation.OperationID)
	})

	t.Run("unregistered controller", func(t *testing.T) {
		d := router.Descriptor{Method: "GET", Path: "/health", Controller: "app.HealthController", Action: "Check"}
		res, err := f.resolver.Resolve(d)
		require.NoError(t, err)
		assert.Equal(t, []string{"Health"}, res.Operation.Tags)
		assert.Contains(t, res.Operation.Responses, "200")
	})
}

func TestResolveOperationMetadata(t *testing.T) {
	hidden := false
	f := newFixture(t, map[string][]metadata.Attribute{
		"Index": {metadata.Operation{Summary: "List", Tags: []string{"Staff"}, OperationID: "listEmployees", Deprecated: true}},
		"View":  {metadata.Operation{Visible: &hidden}},
	})

	res, err := f.resolver.Resolve(route("GET", "/employees", "Index"))
	require.NoError(t, err)
	assert.Equal(t, "List", res.Operation.Summary)
	assert.Equal(t, []string{"Staff"}, res.Operation.Tags)
	assert.Equal(t, "listEmployees", res.Operation.OperationID)
	assert.True(t, res.Operation.Deprecated)

	res, err = f.resolver.Resolve(route("GET", "/employees/{id}", "View"))
	require.NoError(t, err)
	assert.True(t, res.Hidden)
	assert.Nil(t, res.Operation)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		action string
		attrs  []metadata.Attribute
		target error
	}{
		{"missing class", "Index", []metadata.Attribute{metadata.Response{Schema: "NoSuchSchema"}}, oaserr.ErrClassNotFound},
		{"bad schema type", "Index", []metadata.Attribute{metadata.Response{Schema: "CustomResponseSchema", SchemaType: "tree"}}, oaserr.ErrMalformedMetadata},
		{"bad status", "Index", []metadata.Attribute{metadata.Response{StatusCode: "20"}}, oaserr.ErrMalformedMetadata},
		{"schema and ref", "Index", []metadata.Attribute{metadata.Response{Schema: "CustomResponseSchema", Ref: "Employee"}}, oaserr.ErrMalformedMetadata},
		{"missing action", "Export", nil, oaserr.ErrMalformedMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string][]metadata.Attribute{"Index": tt.attrs})

			_, err := f.resolver.Resolve(route("GET", "/employees", tt.action))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var routeErr *oaserr.RouteError
			require.ErrorAs(t, err, &routeErr)
			assert.Equal(t, "/employees (GET)", routeErr.Route)
			assert.Equal(t, "employees:"+tt.action, routeErr.Name)
		})
	}

	t.Run("undecodable record", func(t *testing.T) {
		f := newFixture(t, nil)
		f.table.Add(metadata.MethodTarget("operation.EmployeesController", "Index"), metadata.AttrResponse, map[string]any{"statusCode": "200", "bogus": true})
		_, err := f.resolver.Resolve(route("GET", "/employees", "Index"))
		assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)
	})
}

func TestValidStatus(t *testing.T) {
	for _, code := range []string{"200", "404", "default", "2XX", "5xx"} {
		assert.True(t, validStatus(code), code)
	}
	for _, code := range []string{"", "20", "600", "abc", "2X0"} {
		assert.False(t, validStatus(code), code)
	}
}
