package gen

import (
	"sort"

	"github.com/tuanknguyen/tablegen/schema"
)

// TypeMapper is the per-language type mapping contract: three closed
// mappings from the abstract type domains to target-language type
// expressions. Return-kind expressions may contain the "{Entity}"
// placeholder, substituted with the referenced entity's type name.
//
// Implementations must be complete over the full enumerations;
// ValidateCompleteness is invoked when the mapper is installed into a
// Config and every later lookup assumes it passed.
type TypeMapper interface {
	// FieldTypes maps every schema.FieldType to a type expression.
	FieldTypes() map[schema.FieldType]string
	// ReturnKinds maps every schema.ReturnKind to a type expression.
	ReturnKinds() map[schema.ReturnKind]string
	// ParamTypes maps every schema.ParamType to a type expression.
	ParamTypes() map[schema.ParamType]string
}

// ValidateCompleteness diffs the three closed enumerations against the
// mapper's keys and fails with a ContractError naming the exact missing
// keys. It must be called before the mapper is used for emission; this is
// what turns "forgot a field type in language X" into an immediate load
// failure instead of a crash halfway through generation.
func ValidateCompleteness(lang string, m TypeMapper) error {
	if missing := missingFieldTypes(m.FieldTypes()); len(missing) > 0 {
		return &ContractError{Lang: lang, Domain: "field types", Missing: missing}
	}
	if missing := missingReturnKinds(m.ReturnKinds()); len(missing) > 0 {
		return &ContractError{Lang: lang, Domain: "return kinds", Missing: missing}
	}
	if missing := missingParamTypes(m.ParamTypes()); len(missing) > 0 {
		return &ContractError{Lang: lang, Domain: "parameter types", Missing: missing}
	}
	return nil
}

func missingFieldTypes(have map[schema.FieldType]string) []string {
	var missing []string
	for _, v := range schema.FieldTypeValues() {
		if _, ok := have[v]; !ok {
			missing = append(missing, string(v))
		}
	}
	sort.Strings(missing)
	return missing
}

func missingReturnKinds(have map[schema.ReturnKind]string) []string {
	var missing []string
	for _, v := range schema.ReturnKindValues() {
		if _, ok := have[v]; !ok {
			missing = append(missing, string(v))
		}
	}
	sort.Strings(missing)
	return missing
}

func missingParamTypes(have map[schema.ParamType]string) []string {
	var missing []string
	for _, v := range schema.ParamTypeValues() {
		if _, ok := have[v]; !ok {
			missing = append(missing, string(v))
		}
	}
	sort.Strings(missing)
	return missing
}
