package gen

import (
	"github.com/tuanknguyen/tablegen/schema"
)

// SampleProvider produces illustrative field-value expressions in the
// target language, used to synthesize entity instances in generated usage
// examples. Implementations must be deterministic: the same field always
// yields the same expression.
type SampleProvider interface {
	// SampleValue returns an expression for a field's initial value.
	SampleValue(t schema.FieldType, fieldName string) string
	// UpdateValue returns an expression for a changed value of the same
	// field, distinct from SampleValue's result where the type allows.
	UpdateValue(t schema.FieldType, fieldName string) string
	// Defaults returns a fallback expression for every field type.
	Defaults() map[schema.FieldType]string
	// UpdateDefaults returns a fallback update expression for every field type.
	UpdateDefaults() map[schema.FieldType]string
}

// UsageFormatter renders a literal runtime value into a target-language
// expression honoring the field's declared type.
type UsageFormatter interface {
	FormatValue(v any, t schema.FieldType) string
}

// ParamResolver derives access-pattern argument expressions from entities
// materialized earlier in a usage example. Resolve returns ok=false, with a
// nil error, only for parameters tagged synthetic in the schema: that is a
// valid outcome and the engine skips the example step. A non-synthetic
// parameter with no source is an error, because it signals a schema that
// cannot be demonstrated.
type ParamResolver interface {
	Resolve(p schema.Param, env *ExampleEnv) (expr string, ok bool, err error)
}

// EntityVar is one entity instance materialized earlier in an example,
// bound to a target-language variable.
type EntityVar struct {
	Var    string
	Entity *schema.Entity
}

// ExampleEnv tracks the entities materialized so far while an example is
// being chained, in creation order.
type ExampleEnv struct {
	vars  map[string]EntityVar
	order []string
}

// NewExampleEnv creates an empty environment.
func NewExampleEnv() *ExampleEnv {
	return &ExampleEnv{vars: map[string]EntityVar{}}
}

// Bind records a materialized entity under its variable name.
func (env *ExampleEnv) Bind(e *schema.Entity, varName string) {
	if _, exists := env.vars[e.Name]; !exists {
		env.order = append(env.order, e.Name)
	}
	env.vars[e.Name] = EntityVar{Var: varName, Entity: e}
}

// Lookup returns the variable bound for the named entity.
func (env *ExampleEnv) Lookup(entityName string) (EntityVar, bool) {
	v, ok := env.vars[entityName]
	return v, ok
}

// Entities returns the bound entity names in creation order.
func (env *ExampleEnv) Entities() []string {
	out := make([]string, len(env.order))
	copy(out, env.order)
	return out
}

// StepKind identifies what an example step demonstrates.
type StepKind string

// Example step kinds.
const (
	StepCreate  StepKind = "create"
	StepGet     StepKind = "get"
	StepUpdate  StepKind = "update"
	StepDelete  StepKind = "delete"
	StepPattern StepKind = "pattern"
)

// FieldValue pairs a field with a target-language value expression.
type FieldValue struct {
	Field schema.Field
	Expr  string
}

// ExampleStep is one language-agnostic step of a generated usage example.
// The engine computes the chain; the emitter renders its syntax.
type ExampleStep struct {
	Kind    StepKind
	Entity  *schema.Entity
	Pattern *schema.AccessPattern
	// Var is the variable the step's result is bound to, empty for
	// steps whose result is not used again.
	Var string
	// Method is the repository method the step calls.
	Method string
	// Args are the rendered argument expressions, in parameter order.
	Args []string
	// Fields carries the sample field values for create and update steps.
	Fields []FieldValue
	// Comment is a one-line description of the step.
	Comment string
}
