// Package introspect reads an existing relational schema and proposes a
// single-table scaffold from it: every base table becomes an entity keyed by
// its primary key, ready to be refined by hand and fed to the generator.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tuanknguyen/tablegen/schema"
)

// Column is one relational column as reported by information_schema.
type Column struct {
	Name     string
	DataType string
	Nullable bool
}

// Introspector reads the relational catalog of one database dialect.
type Introspector interface {
	// Dialect returns the driver name the introspector speaks.
	Dialect() string
	// Tables lists the base tables, sorted.
	Tables(ctx context.Context) ([]string, error)
	// Columns lists a table's columns in ordinal position order.
	Columns(ctx context.Context, table string) ([]Column, error)
	// PrimaryKey lists a table's primary key columns in key order.
	PrimaryKey(ctx context.Context, table string) ([]string, error)
}

// Constructor builds an introspector over an open database handle.
type Constructor func(db *sql.DB) Introspector

// Registry maps dialect names to introspector constructors. Like the engine
// registry it is immutable after construction.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry builds a registry from the given constructor set.
func NewRegistry(ctors map[string]Constructor) *Registry {
	copied := make(map[string]Constructor, len(ctors))
	for k, v := range ctors {
		copied[k] = v
	}
	return &Registry{ctors: copied}
}

// DefaultRegistry returns a registry with the built-in dialects.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Constructor{
		"mysql":    func(db *sql.DB) Introspector { return &MySQL{db: db} },
		"postgres": func(db *sql.DB) Introspector { return &Postgres{db: db} },
	})
}

// New constructs the introspector for the named dialect. Unknown dialects
// fail listing the registered ones.
func (r *Registry) New(dialect string, db *sql.DB) (Introspector, error) {
	ctor, ok := r.ctors[dialect]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", dialect, strings.Join(r.Dialects(), ", "))
	}
	return ctor(db), nil
}

// Dialects returns the registered dialect names, sorted.
func (r *Registry) Dialects() []string {
	out := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Scaffold introspects every base table and assembles a single-table design
// draft: one entity per relational table, partition key derived from its
// primary key. The draft is a starting point, not a finished design.
func Scaffold(ctx context.Context, in Introspector, tableName string) (*schema.Schema, error) {
	tables, err := in.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	target := &schema.Table{
		Name:         tableName,
		PartitionKey: schema.KeyDef{Name: "pk", Kind: "S"},
		SortKey:      &schema.KeyDef{Name: "sk", Kind: "S"},
	}
	for _, t := range tables {
		cols, err := in.Columns(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("columns of %s: %w", t, err)
		}
		pk, err := in.PrimaryKey(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("primary key of %s: %w", t, err)
		}
		entity, err := entityFor(t, cols, pk)
		if err != nil {
			return nil, err
		}
		target.Entities = append(target.Entities, entity)
	}
	return &schema.Schema{Tables: []*schema.Table{target}}, nil
}

func entityFor(table string, cols []Column, pk []string) (*schema.Entity, error) {
	name := inflect.Camelize(inflect.Singularize(inflect.Underscore(table)))
	tag := strings.ToUpper(inflect.Underscore(name))

	e := &schema.Entity{Name: name, Tag: tag}
	for _, c := range cols {
		e.Fields = append(e.Fields, schema.Field{Name: c.Name, Type: fieldType(c.DataType)})
	}
	if len(pk) == 0 {
		// A heap table still gets a stable key from its first column.
		if len(cols) == 0 {
			return nil, fmt.Errorf("table %s has no columns", table)
		}
		pk = []string{cols[0].Name}
	}

	partition, err := schema.ParseKeyTemplate(fmt.Sprintf("%s#{%s}", tag, pk[0]))
	if err != nil {
		return nil, fmt.Errorf("key template for %s: %w", table, err)
	}
	e.PartitionKey = partition

	sortPattern := tag
	if len(pk) > 1 {
		parts := make([]string, 0, len(pk)-1)
		for _, col := range pk[1:] {
			parts = append(parts, fmt.Sprintf("{%s}", col))
		}
		sortPattern = tag + "#" + strings.Join(parts, "#")
	}
	sortKey, err := schema.ParseKeyTemplate(sortPattern)
	if err != nil {
		return nil, fmt.Errorf("sort key template for %s: %w", table, err)
	}
	e.SortKey = sortKey
	return e, nil
}

// fieldType maps an information_schema data type to the abstract field
// type. Unrecognized types degrade to string.
func fieldType(dataType string) schema.FieldType {
	switch strings.ToLower(dataType) {
	case "int", "integer", "bigint", "smallint", "mediumint":
		return schema.TypeInt
	case "float", "double", "double precision", "real", "decimal", "numeric":
		return schema.TypeFloat
	case "bool", "boolean":
		return schema.TypeBool
	case "datetime", "timestamp", "timestamp with time zone", "timestamp without time zone", "date":
		return schema.TypeTimestamp
	case "uuid":
		return schema.TypeUUID
	case "blob", "mediumblob", "longblob", "binary", "varbinary", "bytea":
		return schema.TypeBytes
	case "json", "jsonb":
		return schema.TypeJSON
	default:
		return schema.TypeString
	}
}
