package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasbake/config"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/swagger"
)

const employees = `
routes:
  - prefix: /api
    resources:
      - name: Employees
        id: int
        only: [index, view]
        map:
          - {action: report, methods: [GET, OPTIONS], path: /report}
        nested:
          - name: EmployeeSalaries
            only: [index]
    routes:
      - {name: health, path: /health, methods: [GET], controller: HealthController, action: Check}
tables:
  - name: employees
    columns:
      - {name: id, type: integer}
      - {name: gender, type: string}
  - name: employee_salaries
    columns:
      - {name: amount, type: decimal}
classes:
  - name: app.CustomResponseSchema
    properties:
      - {name: name, type: string}
      - {name: age, type: integer}
metadata:
  - {class: app.EmployeeSalary, attribute: entity, values: {visible: false}}
  - {class: app.CustomResponseSchema, attribute: schema, values: {name: Custom, title: Custom Title}}
  - {class: app.CustomResponseSchema, property: name, attribute: property, values: {example: Paul}}
  - {class: app.CustomResponseSchema, property: age, attribute: property, values: {example: "32"}}
  - class: app.EmployeesController
    method: Index
    attribute: response
    values: {schema: Employee, schemaType: array}
  - class: app.EmployeesController
    method: Report
    attribute: response
    values: {schema: CustomResponseSchema, schemaType: array, mimeTypes: [application/json, text/csv]}
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(employees))
	require.NoError(t, err)

	require.Len(t, m.Routes, 1)
	assert.Equal(t, "/api", m.Routes[0].Prefix)
	require.Len(t, m.Routes[0].Resources, 1)
	assert.Equal(t, "EmployeeSalaries", m.Routes[0].Resources[0].Nested[0].Name)
	assert.Len(t, m.Tables, 2)
	assert.Len(t, m.Classes, 1)
	assert.Len(t, m.Metadata, 6)

	t.Run("router", func(t *testing.T) {
		ds, err := m.Router().Descriptors()
		require.NoError(t, err)

		var keys []string
		for _, d := range ds {
			keys = append(keys, d.Key())
		}
		assert.Equal(t, []string{
			"/api/health (GET)",
			"/api/employees (GET)",
			"/api/employees/{id:int} (GET)",
			"/api/employees/report (GET)",
			"/api/employees/report (OPTIONS)",
			"/api/employees/{employee_id}/employee-salaries (GET)",
		}, keys)
	})

	t.Run("apply", func(t *testing.T) {
		table := metadata.NewTable()
		classes := metadata.NewRegistry()
		require.NoError(t, m.Apply(metadata.NewLoader(table, classes)))

		class, ok := classes.Get("app.CustomResponseSchema")
		require.True(t, ok)
		assert.Len(t, class.Members, 2)
		assert.Equal(t, 6, table.Len())

		responses, err := table.ResponsesOf("app.EmployeesController", "Report")
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, []string{"application/json", "text/csv"}, responses[0].MimeTypes)
	})

	t.Run("empty", func(t *testing.T) {
		m, err := Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, m.Routes)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target error
	}{
		{"unknown key", "routs: []\n", oaserr.ErrConfig},
		{"bad yaml", "routes: [\n", oaserr.ErrConfig},
		{"record without class", "metadata:\n  - {attribute: schema}\n", oaserr.ErrMalformedMetadata},
		{"unknown attribute", "metadata:\n  - {class: app.X, attribute: colour}\n", oaserr.ErrMalformedMetadata},
		{"property and method", "metadata:\n  - {class: app.X, property: a, method: B, attribute: property}\n", oaserr.ErrMalformedMetadata},
		{"nameless class", "classes:\n  - properties: []\n", oaserr.ErrMalformedMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oasbake.manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(employees), 0o600))

	m, err := Load(path)
	require.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	t.Run("generate", func(t *testing.T) {
		table := metadata.NewTable()
		classes := metadata.NewRegistry()
		require.NoError(t, m.Apply(metadata.NewLoader(table, classes)))

		cfg := config.Default()
		cfg.Prefix = "/api"
		cfg.Namespaces.Controllers = []string{"app"}
		cfg.Namespaces.Entities = []string{"app"}

		doc, err := swagger.NewGenerator(cfg, m.Router(), table, classes,
			swagger.WithTables(m.TableSource()),
		).Generate(context.Background())
		require.NoError(t, err)

		employee, ok := doc.Schema("Employee")
		require.True(t, ok)
		gender, _ := employee.Property("gender")
		assert.Equal(t, "string", gender.Type)

		_, ok = doc.Schema("EmployeeSalary")
		assert.False(t, ok)

		report := doc.Operation("GET", "/api/employees/report")
		require.NotNil(t, report)
		require.Len(t, report.Responses["200"].Content, 2)
		csv := report.Responses["200"].Content["text/csv"]
		assert.Equal(t, "array", csv.Schema.Type)
		assert.Equal(t, "#/components/schemas/Custom", csv.Schema.Items.Ref)
		assert.Equal(t, "array", csv.Resolved.Type)
		assert.True(t, csv.Resolved.IsCustom())

		preflight := doc.Operation("OPTIONS", "/api/employees/report")
		require.NotNil(t, preflight)
		assert.Equal(t, "employees:report_options", preflight.OperationID)

		custom, ok := doc.Schema("Custom")
		require.True(t, ok)
		assert.Equal(t, "Custom Title", custom.Title)
		name, _ := custom.Property("name")
		assert.Equal(t, "Paul", name.Example)
		age, _ := custom.Property("age")
		assert.Equal(t, "integer", age.Type)
		assert.Equal(t, int64(32), age.Example)

		view := doc.Operation("GET", "/api/employees/{id}")
		require.NotNil(t, view)
		assert.Equal(t, "integer", view.Parameters[0].Schema.Type)

		assert.NoError(t, openapi.Validate(context.Background(), doc))
	})
}
