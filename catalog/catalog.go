// Package catalog provides entity and table metadata: for each entity
// class, its table columns in declaration order with their column types and
// nullability.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/vitalvas/oasbake/oaserr"
)

// Column is one table column.
type Column struct {
	Name string `yaml:"name"`
	// Type is a column type name such as "string", "integer", "datetime" or
	// "uuid".
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
	// Member is the entity class member the column is exposed as. Property
	// metadata of the entity is read under it; empty means Name.
	Member string `yaml:"member"`
}

// MemberName returns the member property metadata is recorded under.
func (c Column) MemberName() string {
	if c.Member != "" {
		return c.Member
	}
	return c.Name
}

// Table describes the table behind one entity class.
type Table struct {
	Name string `yaml:"name"`
	// Entity is the qualified entity class name, e.g. "app.Employee".
	Entity string `yaml:"entity"`
	// Class is the optional qualified table class name.
	Class   string   `yaml:"class"`
	Columns []Column `yaml:"columns"`
}

// Source produces tables.
type Source interface {
	Tables(ctx context.Context) ([]Table, error)
}

// Static is a Source returning a fixed list of tables.
type Static []Table

// Tables returns the static tables.
func (s Static) Tables(context.Context) ([]Table, error) {
	return s, nil
}

// Catalog indexes tables by entity class.
type Catalog struct {
	tables   []Table
	byEntity map[string]int
}

// New indexes tables. Entity class names are derived from table names when
// unset, qualified with namespace. Two tables for one entity are rejected.
func New(namespace string, tables ...Table) (*Catalog, error) {
	c := &Catalog{byEntity: make(map[string]int, len(tables))}
	for _, t := range tables {
		if t.Entity == "" {
			if t.Name == "" {
				return nil, fmt.Errorf("%w: table without name or entity", oaserr.ErrConfig)
			}
			t.Entity = EntityName(t.Name)
			if namespace != "" {
				t.Entity = namespace + "." + t.Entity
			}
		}
		if _, ok := c.byEntity[t.Entity]; ok {
			return nil, &oaserr.ClassError{Class: t.Entity, Err: fmt.Errorf("%w: entity has more than one table", oaserr.ErrConfig)}
		}
		c.byEntity[t.Entity] = len(c.tables)
		c.tables = append(c.tables, t)
	}
	return c, nil
}

// Load collects tables from every source in order.
func Load(ctx context.Context, namespace string, sources ...Source) (*Catalog, error) {
	var all []Table
	for _, src := range sources {
		tables, err := src.Tables(ctx)
		if err != nil {
			return nil, fmt.Errorf("load tables: %w", err)
		}
		all = append(all, tables...)
	}
	return New(namespace, all...)
}

// Tables returns every table in load order.
func (c *Catalog) Tables() []Table {
	return append([]Table(nil), c.tables...)
}

// Entity returns the table of an entity class.
func (c *Catalog) Entity(class string) (Table, bool) {
	if c == nil {
		return Table{}, false
	}
	idx, ok := c.byEntity[class]
	if !ok {
		return Table{}, false
	}
	return c.tables[idx], true
}

// Find returns the table of an entity by exact class name, then by each
// namespace prefix in order, then by a unique short class name.
func (c *Catalog) Find(name string, namespaces ...string) (Table, bool) {
	if c == nil {
		return Table{}, false
	}
	if t, ok := c.Entity(name); ok {
		return t, true
	}
	for _, ns := range namespaces {
		if ns == "" {
			continue
		}
		if t, ok := c.Entity(strings.TrimSuffix(ns, ".") + "." + name); ok {
			return t, true
		}
	}

	var (
		found Table
		count int
	)
	for _, t := range c.tables {
		if shortName(t.Entity) == name {
			found = t
			count++
		}
	}
	return found, count == 1
}

func shortName(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tables)
}
