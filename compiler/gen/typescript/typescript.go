// Package typescript is the TypeScript language plugin. Entities are
// interfaces with standalone key helpers, repositories are classes over the
// TableStore support module, and all emitted identifiers are camelCase.
package typescript

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tuanknguyen/tablegen/compiler/gen"
	"github.com/tuanknguyen/tablegen/schema"
)

// Options returns the full plugin set for a generation run.
func Options() []gen.Option {
	return []gen.Option{
		gen.WithMapper(Mapper{}),
		gen.WithSamples(Samples{}),
		gen.WithFormatter(Formatter{}),
		gen.WithResolver(Resolver{}),
		gen.WithEmitter(Emitter{}),
	}
}

// Mapper is the TypeScript type mapping contract. UUIDs and timestamps
// travel as strings, matching how the document client stores them.
type Mapper struct{}

// FieldTypes implements gen.TypeMapper.
func (Mapper) FieldTypes() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeString:    "string",
		schema.TypeInt:       "number",
		schema.TypeFloat:     "number",
		schema.TypeBool:      "boolean",
		schema.TypeTimestamp: "string",
		schema.TypeUUID:      "string",
		schema.TypeBytes:     "Uint8Array",
		schema.TypeStringSet: "Set<string>",
		schema.TypeNumberSet: "Set<number>",
		schema.TypeJSON:      "Record<string, unknown>",
	}
}

// ReturnKinds implements gen.TypeMapper.
func (Mapper) ReturnKinds() map[schema.ReturnKind]string {
	return map[schema.ReturnKind]string{
		schema.ReturnEntity:     "Promise<{Entity} | undefined>",
		schema.ReturnEntityList: "Promise<{Entity}[]>",
		schema.ReturnFlag:       "Promise<boolean>",
		schema.ReturnPayload:    "Promise<Record<string, unknown>>",
		schema.ReturnNone:       "Promise<void>",
	}
}

// ParamTypes implements gen.TypeMapper.
func (m Mapper) ParamTypes() map[schema.ParamType]string {
	out := make(map[schema.ParamType]string, len(schema.ParamTypeValues()))
	for ft, expr := range m.FieldTypes() {
		out[schema.ParamType(ft)] = expr
	}
	out[schema.ParamEntityRef] = "{Entity}"
	out[schema.ParamLimit] = "number"
	return out
}

var sampleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tablegen/sample"))

// Samples produces deterministic TypeScript sample expressions.
type Samples struct{}

// SampleValue implements gen.SampleProvider.
func (Samples) SampleValue(t schema.FieldType, fieldName string) string {
	switch t {
	case schema.TypeString:
		return fmt.Sprintf("%q", sampleString(fieldName, false))
	case schema.TypeUUID:
		return fmt.Sprintf("%q", uuid.NewSHA1(sampleNamespace, []byte(fieldName)))
	case schema.TypeTimestamp:
		return `"2024-01-15T09:30:00Z"`
	}
	return ""
}

// UpdateValue implements gen.SampleProvider.
func (Samples) UpdateValue(t schema.FieldType, fieldName string) string {
	switch t {
	case schema.TypeString:
		return fmt.Sprintf("%q", sampleString(fieldName, true))
	case schema.TypeUUID:
		return fmt.Sprintf("%q", uuid.NewSHA1(sampleNamespace, []byte(fieldName+"#2")))
	case schema.TypeTimestamp:
		return `"2024-02-01T17:45:00Z"`
	}
	return ""
}

// Defaults implements gen.SampleProvider.
func (Samples) Defaults() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeInt:       "42",
		schema.TypeFloat:     "19.99",
		schema.TypeBool:      "true",
		schema.TypeBytes:     "new Uint8Array([1, 2, 3])",
		schema.TypeStringSet: `new Set(["alpha", "beta"])`,
		schema.TypeNumberSet: "new Set([1, 2, 3])",
		schema.TypeJSON:      `{ note: "sample" }`,
	}
}

// UpdateDefaults implements gen.SampleProvider.
func (Samples) UpdateDefaults() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeInt:       "43",
		schema.TypeFloat:     "24.50",
		schema.TypeBool:      "false",
		schema.TypeBytes:     "new Uint8Array([4, 5])",
		schema.TypeStringSet: `new Set(["gamma"])`,
		schema.TypeNumberSet: "new Set([4, 5])",
		schema.TypeJSON:      `{ note: "updated" }`,
	}
}

func sampleString(fieldName string, updated bool) string {
	switch {
	case strings.Contains(fieldName, "email"):
		if updated {
			return "alice.updated@example.com"
		}
		return "alice@example.com"
	case strings.Contains(fieldName, "name"):
		if updated {
			return "Alice Updated"
		}
		return "Alice Example"
	case strings.Contains(fieldName, "status"):
		if updated {
			return "inactive"
		}
		return "active"
	}
	base := strings.ReplaceAll(fieldName, "_", "-")
	if updated {
		return base + "-0002"
	}
	return base + "-0001"
}

// Formatter renders runtime values as TypeScript literals.
type Formatter struct{}

// FormatValue implements gen.UsageFormatter.
func (Formatter) FormatValue(v any, t schema.FieldType) string {
	switch t {
	case schema.TypeString, schema.TypeUUID, schema.TypeTimestamp:
		return fmt.Sprintf("%q", fmt.Sprintf("%v", v))
	case schema.TypeBool:
		if b, ok := v.(bool); ok && b {
			return "true"
		}
		return "false"
	}
	return fmt.Sprintf("%v", v)
}

// Resolver derives example arguments by property access on the variable
// bound for the source entity.
type Resolver struct{}

// Resolve implements gen.ParamResolver.
func (Resolver) Resolve(p schema.Param, env *gen.ExampleEnv) (string, bool, error) {
	if p.Type == schema.ParamLimit {
		return "10", true, nil
	}
	v, bound := env.Lookup(p.Entity)
	if !bound {
		if p.Synthetic {
			return "", false, nil
		}
		return "", false, fmt.Errorf("parameter %s needs a %s instance and none was created", p.Name, p.Entity)
	}
	if p.Type == schema.ParamEntityRef {
		return v.Var, true, nil
	}
	return v.Var + "." + p.Field, true, nil
}
