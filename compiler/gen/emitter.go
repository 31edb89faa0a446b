package gen

import (
	"github.com/tuanknguyen/tablegen/schema"
)

// Emitter renders source text for one target language. Implementations
// live in the per-language subpackages and receive a Helper for everything
// that is schema- or convention-dependent, mirroring how the engine itself
// stays language-agnostic.
type Emitter interface {
	// Entity renders the entity definition: fields, key builder and key
	// lookup, and the discriminator tag.
	Entity(h Helper, e *schema.Entity) (string, error)
	// Repository renders the data-access class for one entity: the four
	// CRUD methods plus one method per access pattern declared against it.
	Repository(h Helper, e *schema.Entity) (string, error)
	// Example renders the chained usage-example file.
	Example(h Helper, steps []ExampleStep) (string, error)
}

// Helper exposes the engine's schema context and resolved conventions to
// emitters. The standard engine implements it; lookups that miss after the
// completeness gate passed return a ContractError.
type Helper interface {
	// Backend returns the active language backend.
	Backend() *Backend
	// Schema returns the schema being generated.
	Schema() *schema.Schema
	// TableOf returns the table storing the entity.
	TableOf(e *schema.Entity) *schema.Table
	// Patterns returns the access patterns declared against the entity,
	// in declaration order.
	Patterns(e *schema.Entity) []*schema.AccessPattern
	// FieldExpr returns the target type expression for a field type.
	FieldExpr(t schema.FieldType) (string, error)
	// ReturnExpr returns the target type expression for a return kind,
	// with the entity placeholder substituted.
	ReturnExpr(k schema.ReturnKind, entity string) (string, error)
	// ParamExpr returns the target type expression for a parameter type,
	// with the entity placeholder substituted for entity references.
	ParamExpr(t schema.ParamType, entity string) (string, error)
	// MethodName renders a naming template for an entity.
	MethodName(tmpl, entity string) string
	// EntityIdent returns the entity name in the backend's identifier style.
	EntityIdent(name string) string
	// SampleFields returns deterministic sample values for every field of
	// the entity, in declaration order.
	SampleFields(e *schema.Entity) []FieldValue
	// UpdateFields returns deterministic changed values for the entity's
	// non-key fields, in declaration order.
	UpdateFields(e *schema.Entity) []FieldValue
}
