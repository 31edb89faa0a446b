package schema

// Schema is the root type describing a complete single-table design: the
// physical tables, the entities stored in them, and the access patterns
// declared against them. A Schema is owned by the validation/generation run
// that constructed it and is never shared across concurrent runs.
type Schema struct {
	Tables   []*Table         `yaml:"tables" json:"tables"`
	Patterns []*AccessPattern `yaml:"access_patterns,omitempty" json:"access_patterns,omitempty"`
}

// Table describes a DynamoDB table with its key schema, secondary indexes,
// and the entities that share it.
type Table struct {
	Name         string    `yaml:"name" json:"name"`
	PartitionKey KeyDef    `yaml:"partition_key" json:"partition_key"`
	SortKey      *KeyDef   `yaml:"sort_key,omitempty" json:"sort_key,omitempty"`
	GSIs         []GSI     `yaml:"gsis,omitempty" json:"gsis,omitempty"`
	Entities     []*Entity `yaml:"entities,omitempty" json:"entities,omitempty"`
}

// KeyDef describes one key attribute: its item attribute name and its
// DynamoDB scalar kind ("S", "N", or "B").
type KeyDef struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`
}

// GSI describes a Global Secondary Index over the owning table.
type GSI struct {
	Name         string  `yaml:"name" json:"name"`
	PartitionKey KeyDef  `yaml:"partition_key" json:"partition_key"`
	SortKey      *KeyDef `yaml:"sort_key,omitempty" json:"sort_key,omitempty"`
}

// Entity describes one logical record type stored in a table. Tag is the
// discriminator value written into every item of this type. PartitionKey and
// SortKey are key templates: both the write-path key builder and the
// read-path key lookup derive from the same template, so the two can never
// disagree.
type Entity struct {
	Name         string      `yaml:"name" json:"name"`
	Tag          string      `yaml:"tag,omitempty" json:"tag,omitempty"`
	Fields       []Field     `yaml:"fields" json:"fields"`
	PartitionKey KeyTemplate `yaml:"partition_key" json:"partition_key"`
	SortKey      KeyTemplate `yaml:"sort_key,omitempty" json:"sort_key,omitempty"`
}

// Field describes one typed entity field.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Type        FieldType `yaml:"type" json:"type"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// Table returns the table with the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Entity returns the entity with the given name, searching all tables.
func (s *Schema) Entity(name string) (*Entity, bool) {
	for _, t := range s.Tables {
		if e, ok := t.Entity(name); ok {
			return e, true
		}
	}
	return nil, false
}

// TableOf returns the table storing the named entity.
func (s *Schema) TableOf(entity string) (*Table, bool) {
	for _, t := range s.Tables {
		if _, ok := t.Entity(entity); ok {
			return t, true
		}
	}
	return nil, false
}

// PatternsFor returns the access patterns declared against the named entity,
// in declaration order.
func (s *Schema) PatternsFor(entity string) []*AccessPattern {
	var out []*AccessPattern
	for _, p := range s.Patterns {
		if p.Entity == entity {
			out = append(out, p)
		}
	}
	return out
}

// Entity returns the entity with the given name stored in t.
func (t *Table) Entity(name string) (*Entity, bool) {
	for _, e := range t.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// GSI returns the GSI with the given name declared on t.
func (t *Table) GSI(name string) (*GSI, bool) {
	for i := range t.GSIs {
		if t.GSIs[i].Name == name {
			return &t.GSIs[i], true
		}
	}
	return nil, false
}

// AttributeNames returns the set of attribute names available on items in t:
// the table key attributes plus every field of every stored entity. GSI key
// attributes must be drawn from this set.
func (t *Table) AttributeNames() map[string]struct{} {
	names := map[string]struct{}{t.PartitionKey.Name: {}}
	if t.SortKey != nil {
		names[t.SortKey.Name] = struct{}{}
	}
	for _, e := range t.Entities {
		for _, f := range e.Fields {
			names[f.Name] = struct{}{}
		}
	}
	return names
}

// Field returns the field with the given name declared on e.
func (e *Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// KeyArgs returns the ordered field names feeding the entity's key
// templates: partition key references first, then sort key references.
// These are the parameters of the read-path key lookup.
func (e *Entity) KeyArgs() []string {
	args := e.PartitionKey.Args()
	for _, a := range e.SortKey.Args() {
		args = append(args, a)
	}
	return args
}

// HasSortKey reports whether the entity writes a sort key.
func (e *Entity) HasSortKey() bool {
	return len(e.SortKey.Segments) > 0
}
