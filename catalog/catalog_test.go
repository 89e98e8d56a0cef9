package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasbake/oaserr"
)

type timestamps struct {
	Created  time.Time  `db:"created"`
	Modified *time.Time `db:"modified"`
}

type Employee struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Gender    string    `db:"gender"`
	HiredOn   time.Time `json:"hired_on"`
	ExtraNote string
	Token     uuid.UUID `db:"token"`
	Password  string    `db:"-"`
	Secret    string    `db:"secret" json:"-"`
	Internal  string    `db:"internal" openapi:"-"`
	timestamps
}

type EmployeeSalary struct {
	EmployeeID int     `db:"employee_id"`
	Amount     float64 `db:"amount"`
}

type legacy struct {
	Code string `db:"code"`
}

func (legacy) TableName() string { return "tbl_legacy" }

func TestStructsSource(t *testing.T) {
	tables, err := FromStructs(Employee{}, &EmployeeSalary{}, legacy{}).Tables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 3)

	emp := tables[0]
	assert.Equal(t, "employees", emp.Name)
	assert.Equal(t, "catalog.Employee", emp.Entity)
	assert.Equal(t, []Column{
		{Name: "id", Type: "biginteger", Member: "ID"},
		{Name: "name", Type: "string", Member: "Name"},
		{Name: "gender", Type: "string", Member: "Gender"},
		{Name: "hired_on", Type: "datetime", Member: "hired_on"},
		{Name: "extra_note", Type: "string", Member: "ExtraNote"},
		{Name: "token", Type: "uuid", Member: "Token"},
		{Name: "created", Type: "datetime", Member: "Created"},
		{Name: "modified", Type: "datetime", Nullable: true, Member: "Modified"},
	}, emp.Columns)
	assert.Equal(t, "Gender", emp.Columns[2].MemberName())
	assert.Equal(t, "gender", Column{Name: "gender"}.MemberName())

	assert.Equal(t, "employee_salaries", tables[1].Name)
	assert.Equal(t, "tbl_legacy", tables[2].Name)

	t.Run("invalid entity", func(t *testing.T) {
		_, err := FromStructs("nope").Tables(context.Background())
		assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FromStructs(Employee{}).Tables(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestCatalog(t *testing.T) {
	c, err := Load(context.Background(), "app",
		Static{{Name: "employees", Columns: []Column{{Name: "gender", Type: "string"}}}},
		Static{{Name: "employee_salaries", Entity: "hr.EmployeeSalary"}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	table, ok := c.Entity("app.Employee")
	require.True(t, ok)
	assert.Equal(t, "employees", table.Name)

	_, ok = c.Entity("hr.EmployeeSalary")
	assert.True(t, ok)

	_, ok = c.Entity("app.Missing")
	assert.False(t, ok)

	t.Run("find", func(t *testing.T) {
		table, ok := c.Find("Employee")
		require.True(t, ok)
		assert.Equal(t, "app.Employee", table.Entity)

		table, ok = c.Find("EmployeeSalary", "app", "hr")
		require.True(t, ok)
		assert.Equal(t, "employee_salaries", table.Name)

		_, ok = c.Find("Salary")
		assert.False(t, ok)
	})

	t.Run("duplicate entity", func(t *testing.T) {
		_, err := New("", Table{Name: "a", Entity: "x.A"}, Table{Name: "b", Entity: "x.A"})
		assert.ErrorIs(t, err, oaserr.ErrConfig)
	})

	t.Run("nameless table", func(t *testing.T) {
		_, err := New("", Table{})
		assert.ErrorIs(t, err, oaserr.ErrConfig)
	})
}

func TestNaming(t *testing.T) {
	cases := map[string]string{
		"employees":         "Employee",
		"employee_salaries": "EmployeeSalary",
		"addresses":         "Address",
		"people":            "Person",
		"status":            "Status",
		"boxes":             "Box",
	}
	for table, entity := range cases {
		assert.Equal(t, entity, EntityName(table), table)
	}

	assert.Equal(t, "employee_salaries", TableName("EmployeeSalary"))
	assert.Equal(t, "http_logs", TableName("HTTPLog"))
	assert.Equal(t, "keys", TableName("Key"))
	assert.Equal(t, "created_at", SnakeCase("CreatedAt"))
	assert.Equal(t, "", EntityName("__"))
}
