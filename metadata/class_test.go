package metadata

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasbake/oaserr"
)

type testBase struct {
	ID      int       `json:"id"`
	Created time.Time `json:"created"`
}

type testAudit struct {
	UpdatedBy string `json:"updated_by"`
}

type testEmployee struct {
	testBase
	*testAudit
	Name     string  `json:"name"`
	Gender   string  `json:"gender,omitempty"`
	Manager  *string `json:"manager"`
	Password string  `json:"-"`
	Internal string  `json:"internal" openapi:"-"`
	secret   string
	NoTag    bool
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	class, err := r.Register(&testEmployee{})
	require.NoError(t, err)
	assert.Equal(t, "metadata.testEmployee", class.Name)
	assert.Equal(t, "testEmployee", class.ShortName())
	assert.Equal(t, reflect.TypeFor[testEmployee](), class.Type)

	var names []string
	for _, m := range class.Members {
		names = append(names, m.JSONName)
	}
	assert.Equal(t, []string{"id", "created", "updated_by", "name", "gender", "manager", "NoTag"}, names)

	t.Run("member flags", func(t *testing.T) {
		audit, ok := class.Member("updated_by")
		require.True(t, ok)
		assert.True(t, audit.Optional)

		gender, ok := class.Member("gender")
		require.True(t, ok)
		assert.True(t, gender.Optional)
		assert.Equal(t, "Gender", gender.Name)

		manager, ok := class.Member("manager")
		require.True(t, ok)
		assert.True(t, manager.Nullable)
		assert.False(t, manager.Optional)

		_, ok = class.Member("internal")
		assert.False(t, ok)
	})

	t.Run("same type twice", func(t *testing.T) {
		again, err := r.Register(testEmployee{})
		require.NoError(t, err)
		assert.Same(t, class, again)
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := r.Register(42)
		assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := r.Register(nil)
		assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)
	})
}

func TestRegistryDeclare(t *testing.T) {
	r := NewRegistry()

	class, err := r.Declare("app.Custom", []Member{
		{Name: "name", TypeName: "string"},
		{Name: "age", TypeName: "integer"},
	})
	require.NoError(t, err)
	assert.Nil(t, class.Type)
	require.Len(t, class.Members, 2)
	assert.Equal(t, "name", class.Members[0].JSONName)

	_, err = r.Declare("app.Custom", nil)
	assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)

	_, err = r.Declare("", nil)
	assert.ErrorIs(t, err, oaserr.ErrMalformedMetadata)
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	_, err := r.Declare("app.model.Employee", nil)
	require.NoError(t, err)
	_, err = r.Declare("app.model.Custom", nil)
	require.NoError(t, err)
	_, err = r.Declare("other.Custom", nil)
	require.NoError(t, err)

	t.Run("exact", func(t *testing.T) {
		class, err := r.Resolve("app.model.Employee")
		require.NoError(t, err)
		assert.Equal(t, "app.model.Employee", class.Name)
	})

	t.Run("namespace", func(t *testing.T) {
		class, err := r.Resolve("Custom", "missing", "other.")
		require.NoError(t, err)
		assert.Equal(t, "other.Custom", class.Name)
	})

	t.Run("unique short name", func(t *testing.T) {
		class, err := r.Resolve("Employee")
		require.NoError(t, err)
		assert.Equal(t, "app.model.Employee", class.Name)
	})

	t.Run("ambiguous short name", func(t *testing.T) {
		_, err := r.Resolve("Custom")
		assert.ErrorIs(t, err, oaserr.ErrClassNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.Resolve("Nope", "app.model")
		require.Error(t, err)
		assert.ErrorIs(t, err, oaserr.ErrClassNotFound)

		var classErr *oaserr.ClassError
		require.ErrorAs(t, err, &classErr)
		assert.Equal(t, "Nope", classErr.Class)
	})

	assert.Len(t, r.Classes(), 3)
}
