// Package python is the Python language plugin: type mapping, sample and
// usage value providers, example parameter resolution, and source emission
// for dataclass entities and repository classes delegating to the shared
// TableStore support file.
package python

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tuanknguyen/tablegen/compiler/gen"
	"github.com/tuanknguyen/tablegen/schema"
)

// Options returns the full plugin set for a generation run, ready to pass
// to gen.NewConfig alongside the schema and backend.
func Options() []gen.Option {
	return []gen.Option{
		gen.WithMapper(Mapper{}),
		gen.WithSamples(Samples{}),
		gen.WithFormatter(Formatter{}),
		gen.WithResolver(Resolver{}),
		gen.WithEmitter(Emitter{}),
	}
}

// Mapper is the Python type mapping contract.
type Mapper struct{}

// FieldTypes implements gen.TypeMapper.
func (Mapper) FieldTypes() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeString:    "str",
		schema.TypeInt:       "int",
		schema.TypeFloat:     "float",
		schema.TypeBool:      "bool",
		schema.TypeTimestamp: "datetime",
		schema.TypeUUID:      "uuid.UUID",
		schema.TypeBytes:     "bytes",
		schema.TypeStringSet: "set[str]",
		schema.TypeNumberSet: "set[float]",
		schema.TypeJSON:      "dict",
	}
}

// ReturnKinds implements gen.TypeMapper.
func (Mapper) ReturnKinds() map[schema.ReturnKind]string {
	return map[schema.ReturnKind]string{
		schema.ReturnEntity:     "Optional[{Entity}]",
		schema.ReturnEntityList: "list[{Entity}]",
		schema.ReturnFlag:       "bool",
		schema.ReturnPayload:    "dict",
		schema.ReturnNone:       "None",
	}
}

// ParamTypes implements gen.TypeMapper.
func (m Mapper) ParamTypes() map[schema.ParamType]string {
	out := make(map[schema.ParamType]string, len(schema.ParamTypeValues()))
	for ft, expr := range m.FieldTypes() {
		out[schema.ParamType(ft)] = expr
	}
	out[schema.ParamEntityRef] = "{Entity}"
	out[schema.ParamLimit] = "int"
	return out
}

// sampleNamespace seeds deterministic sample UUIDs: the same field name
// always produces the same identifier across runs.
var sampleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tablegen/sample"))

// Samples produces deterministic Python sample expressions.
type Samples struct{}

// SampleValue implements gen.SampleProvider.
func (Samples) SampleValue(t schema.FieldType, fieldName string) string {
	switch t {
	case schema.TypeString:
		return fmt.Sprintf("%q", sampleString(fieldName, false))
	case schema.TypeUUID:
		return fmt.Sprintf("uuid.UUID(%q)", uuid.NewSHA1(sampleNamespace, []byte(fieldName)))
	case schema.TypeTimestamp:
		return "datetime(2024, 1, 15, 9, 30, tzinfo=timezone.utc)"
	}
	return ""
}

// UpdateValue implements gen.SampleProvider.
func (Samples) UpdateValue(t schema.FieldType, fieldName string) string {
	switch t {
	case schema.TypeString:
		return fmt.Sprintf("%q", sampleString(fieldName, true))
	case schema.TypeUUID:
		return fmt.Sprintf("uuid.UUID(%q)", uuid.NewSHA1(sampleNamespace, []byte(fieldName+"#2")))
	case schema.TypeTimestamp:
		return "datetime(2024, 2, 1, 17, 45, tzinfo=timezone.utc)"
	}
	return ""
}

// Defaults implements gen.SampleProvider.
func (Samples) Defaults() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeInt:       "42",
		schema.TypeFloat:     "19.99",
		schema.TypeBool:      "True",
		schema.TypeBytes:     `b"payload"`,
		schema.TypeStringSet: `{"alpha", "beta"}`,
		schema.TypeNumberSet: "{1, 2, 3}",
		schema.TypeJSON:      `{"note": "sample"}`,
	}
}

// UpdateDefaults implements gen.SampleProvider.
func (Samples) UpdateDefaults() map[schema.FieldType]string {
	return map[schema.FieldType]string{
		schema.TypeInt:       "43",
		schema.TypeFloat:     "24.50",
		schema.TypeBool:      "False",
		schema.TypeBytes:     `b"payload-v2"`,
		schema.TypeStringSet: `{"gamma"}`,
		schema.TypeNumberSet: "{4, 5}",
		schema.TypeJSON:      `{"note": "updated"}`,
	}
}

// sampleString picks a readable sample for common field-name shapes.
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

// Formatter renders runtime values as Python literals.
type Formatter struct{}

// FormatValue implements gen.UsageFormatter.
func (Formatter) FormatValue(v any, t schema.FieldType) string {
	switch t {
	case schema.TypeString:
		return fmt.Sprintf("%q", fmt.Sprintf("%v", v))
	case schema.TypeUUID:
		return fmt.Sprintf("uuid.UUID(%q)", v)
	case schema.TypeBool:
		if b, ok := v.(bool); ok && b {
			return "True"
		}
		return "False"
	case schema.TypeBytes:
		return fmt.Sprintf("b%q", fmt.Sprintf("%v", v))
	}
	return fmt.Sprintf("%v", v)
}

// Resolver derives example arguments from earlier example steps: attribute
// access on the variable bound for the source entity.
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
