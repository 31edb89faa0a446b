// Package golang is the Go language plugin. Entities are structs with
// dynamodbav tags, repositories are types over the TableStore support file,
// and all source is built with jennifer and finished with goimports.
package golang

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

// Mapper is the Go type mapping contract. The none return kind maps to the
// empty expression: such methods return only an error.
type Mapper struct{}

// FieldTypes implements gen.TypeMapper.
func (Mapper) FieldTypes() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeString:    "string",
		schema.TypeInt:       "int64",
		schema.TypeFloat:     "float64",
		schema.TypeBool:      "bool",
		schema.TypeTimestamp: "time.Time",
		schema.TypeUUID:      "uuid.UUID",
		schema.TypeBytes:     "[]byte",
		schema.TypeStringSet: "[]string",
		schema.TypeNumberSet: "[]float64",
		schema.TypeJSON:      "map[string]any",
	}
}

// ReturnKinds implements gen.TypeMapper.
func (Mapper) ReturnKinds() map[schema.ReturnKind]string {
	return map[schema.ReturnKind]string{
		schema.ReturnEntity:     "*{Entity}",
		schema.ReturnEntityList: "[]*{Entity}",
		schema.ReturnFlag:       "bool",
		schema.ReturnPayload:    "map[string]any",
		schema.ReturnNone:       "",
	}
}

// ParamTypes implements gen.TypeMapper.
func (m Mapper) ParamTypes() map[schema.ParamType]string {
	out := make(map[schema.ParamType]string, len(schema.ParamTypeValues()))
	for ft, expr := range m.FieldTypes() {
		out[schema.ParamType(ft)] = expr
	}
	out[schema.ParamEntityRef] = "*{Entity}"
	out[schema.ParamLimit] = "int32"
	return out
}

var sampleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tablegen/sample"))

// Samples produces deterministic Go sample expressions.
type Samples struct{}

// SampleValue implements gen.SampleProvider.
func (Samples) SampleValue(t schema.FieldType, fieldName string) string {
	switch t {
	case schema.TypeString:
		return fmt.Sprintf("%q", sampleString(fieldName, false))
	case schema.TypeUUID:
		return fmt.Sprintf("uuid.MustParse(%q)", uuid.NewSHA1(sampleNamespace, []byte(fieldName)))
	case schema.TypeTimestamp:
		return "time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)"
	}
	return ""
}

// UpdateValue implements gen.SampleProvider.
func (Samples) UpdateValue(t schema.FieldType, fieldName string) string {
	switch t {
	case schema.TypeString:
		return fmt.Sprintf("%q", sampleString(fieldName, true))
	case schema.TypeUUID:
		return fmt.Sprintf("uuid.MustParse(%q)", uuid.NewSHA1(sampleNamespace, []byte(fieldName+"#2")))
	case schema.TypeTimestamp:
		return "time.Date(2024, 2, 1, 17, 45, 0, 0, time.UTC)"
	}
	return ""
}

// Defaults implements gen.SampleProvider.
func (Samples) Defaults() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeInt:       "42",
		schema.TypeFloat:     "19.99",
		schema.TypeBool:      "true",
		schema.TypeBytes:     `[]byte("payload")`,
		schema.TypeStringSet: `[]string{"alpha", "beta"}`,
		schema.TypeNumberSet: "[]float64{1, 2, 3}",
		schema.TypeJSON:      `map[string]any{"note": "sample"}`,
	}
}

// UpdateDefaults implements gen.SampleProvider.
func (Samples) UpdateDefaults() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeInt:       "43",
		schema.TypeFloat:     "24.50",
		schema.TypeBool:      "false",
		schema.TypeBytes:     `[]byte("payload-v2")`,
		schema.TypeStringSet: `[]string{"gamma"}`,
		schema.TypeNumberSet: "[]float64{4, 5}",
		schema.TypeJSON:      `map[string]any{"note": "updated"}`,
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

// Formatter renders runtime values as Go literals.
type Formatter struct{}

// FormatValue implements gen.UsageFormatter.
func (Formatter) FormatValue(v any, t schema.FieldType) string {
	switch t {
	case schema.TypeString, schema.TypeTimestamp:
		return fmt.Sprintf("%q", fmt.Sprintf("%v", v))
	case schema.TypeUUID:
		return fmt.Sprintf("uuid.MustParse(%q)", v)
	case schema.TypeBytes:
		return fmt.Sprintf("[]byte(%q)", fmt.Sprintf("%v", v))
	}
	return fmt.Sprintf("%v", v)
}

// Resolver derives example arguments by struct-field access on the
// variable bound for the source entity.
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
	return v.Var + "." + fieldName(p.Field), true, nil
}
