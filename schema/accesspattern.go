package schema

// AccessPattern is one named, typed operation declared against a table or
// one of its GSIs. The rate/size metadata is carried opaquely for
// illustrative output and cost tooling; nothing in this module computes
// with it.
type AccessPattern struct {
	Name        string     `yaml:"name" json:"name"`
	Op          OpKind     `yaml:"operation" json:"operation"`
	Table       string     `yaml:"table" json:"table"`
	Entity      string     `yaml:"entity" json:"entity"`
	Index       string     `yaml:"index,omitempty" json:"index,omitempty"`
	Params      []Param    `yaml:"params,omitempty" json:"params,omitempty"`
	Returns     ReturnKind `yaml:"returns" json:"returns"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`

	// Illustrative request-rate and size metadata.
	ReadsPerSecond  float64 `yaml:"reads_per_second,omitempty" json:"reads_per_second,omitempty"`
	WritesPerSecond float64 `yaml:"writes_per_second,omitempty" json:"writes_per_second,omitempty"`
	AvgItemSizeKB   float64 `yaml:"avg_item_size_kb,omitempty" json:"avg_item_size_kb,omitempty"`
}

// Param is one typed access-pattern parameter.
//
// Entity names the referenced entity for entity_ref parameters; for
// field-typed parameters it may name, together with Field, the entity field
// a usage example should source the value from. Synthetic marks parameters
// that have no natural source in a generated example chain: resolvers skip
// them, and only them, without error.
type Param struct {
	Name      string    `yaml:"name" json:"name"`
	Type      ParamType `yaml:"type" json:"type"`
	Entity    string    `yaml:"entity,omitempty" json:"entity,omitempty"`
	Field     string    `yaml:"field,omitempty" json:"field,omitempty"`
	Synthetic bool      `yaml:"synthetic,omitempty" json:"synthetic,omitempty"`
}
