// Package validate checks raw schema documents before they are decoded into
// the typed model. Validation never raises schema problems as errors: every
// finding is accumulated into a Result and the caller decides whether to
// proceed. All checks run to completion; the validator does not stop at the
// first failure.
package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tuanknguyen/tablegen/schema"
)

// Validate runs every structural and semantic check against the raw schema
// document, an already-deserialized nested structure as produced by
// compiler/load. The returned Result is owned by the caller.
func Validate(raw map[string]any) *Result {
	r := &Result{Inventory: Inventory{
		Entities: map[string][]string{},
		Tables:   map[string][]string{},
	}}
	tables := checkTables(r, raw)
	checkEntities(r, raw, tables)
	checkGSIAttributes(r, tables)
	checkPatterns(r, raw, tables)
	return r
}

// tableInfo is the per-table index built during structural parsing and
// consumed by the semantic checks.
type tableInfo struct {
	path  string
	gsis  map[string][]schema.KeyDef // gsi name -> key attributes
	attrs map[string]struct{}        // key attrs + entity fields
}

func checkTables(r *Result, raw map[string]any) map[string]*tableInfo {
	tables := map[string]*tableInfo{}
	rawTables, ok := raw["tables"]
	if !ok {
		r.addError("tables", "missing required key", `declare at least one table under "tables"`)
		return tables
	}
	list, ok := asList(rawTables)
	if !ok {
		r.errorf("tables", "expected a list, got %T", rawTables)
		return tables
	}
	if len(list) == 0 {
		r.addError("tables", "tables list is empty", `declare at least one table under "tables"`)
		return tables
	}
	for i, item := range list {
		path := fmt.Sprintf("tables[%d]", i)
		tbl, ok := asMap(item)
		if !ok {
			r.errorf(path, "expected a mapping, got %T", item)
			continue
		}
		name, _ := reqString(r, tbl, path, "name")
		info := &tableInfo{
			path:  path,
			gsis:  map[string][]schema.KeyDef{},
			attrs: map[string]struct{}{},
		}
		if pk, ok := checkKeyDef(r, tbl["partition_key"], path+".partition_key", true); ok {
			info.attrs[pk.Name] = struct{}{}
		}
		if rawSK, present := tbl["sort_key"]; present {
			if sk, ok := checkKeyDef(r, rawSK, path+".sort_key", true); ok {
				info.attrs[sk.Name] = struct{}{}
			}
		}
		checkGSIs(r, tbl, path, info)
		if name != "" {
			if _, dup := tables[name]; dup {
				r.addError(path+".name", fmt.Sprintf("duplicate table name %q", name), "table names must be unique")
				continue
			}
			tables[name] = info
			r.Inventory.Tables[name] = nil
		}
	}
	return tables
}

func checkGSIs(r *Result, tbl map[string]any, path string, info *tableInfo) {
	rawGSIs, present := tbl["gsis"]
	if !present {
		return
	}
	list, ok := asList(rawGSIs)
	if !ok {
		r.errorf(path+".gsis", "expected a list, got %T", rawGSIs)
		return
	}
	for i, item := range list {
		gpath := fmt.Sprintf("%s.gsis[%d]", path, i)
		g, ok := asMap(item)
		if !ok {
			r.errorf(gpath, "expected a mapping, got %T", item)
			continue
		}
		name, _ := reqString(r, g, gpath, "name")
		var keys []schema.KeyDef
		if pk, ok := checkKeyDef(r, g["partition_key"], gpath+".partition_key", true); ok {
			keys = append(keys, pk)
		}
		if rawSK, present := g["sort_key"]; present {
			if sk, ok := checkKeyDef(r, rawSK, gpath+".sort_key", true); ok {
				keys = append(keys, sk)
			}
		}
		if name != "" {
			info.gsis[name] = keys
		}
	}
}

func checkKeyDef(r *Result, v any, path string, required bool) (schema.KeyDef, bool) {
	if v == nil {
		if required {
			r.addError(path, "missing required key definition", `provide {name: <attribute>, kind: S|N|B}`)
		}
		return schema.KeyDef{}, false
	}
	m, ok := asMap(v)
	if !ok {
		r.errorf(path, "expected a mapping, got %T", v)
		return schema.KeyDef{}, false
	}
	name, nameOK := reqString(r, m, path, "name")
	kind, kindOK := reqString(r, m, path, "kind")
	if kindOK && kind != "S" && kind != "N" && kind != "B" {
		r.addError(path+".kind", fmt.Sprintf("unknown key kind %q", kind), "use S, N, or B")
		kindOK = false
	}
	return schema.KeyDef{Name: name, Kind: kind}, nameOK && kindOK
}

func checkEntities(r *Result, raw map[string]any, tables map[string]*tableInfo) {
	rawEntities, present := raw["entities"]
	if !present {
		return
	}
	byTable, ok := asMap(rawEntities)
	if !ok {
		r.errorf("entities", "expected a mapping keyed by table name, got %T", rawEntities)
		return
	}
	for tableName, rawList := range byTable {
		path := fmt.Sprintf("entities[%s]", tableName)
		info, tableKnown := tables[tableName]
		if !tableKnown {
			r.addError(path, fmt.Sprintf("entities declared for unknown table %q", tableName),
				"declare the table under tables, or fix the key")
		}
		list, ok := asList(rawList)
		if !ok {
			r.errorf(path, "expected a list, got %T", rawList)
			continue
		}
		for i, item := range list {
			epath := fmt.Sprintf("%s[%d]", path, i)
			checkEntity(r, item, epath, tableName, info)
		}
	}
}

func checkEntity(r *Result, item any, path, tableName string, info *tableInfo) {
	e, ok := asMap(item)
	if !ok {
		r.errorf(path, "expected a mapping, got %T", item)
		return
	}
	name, nameOK := reqString(r, e, path, "name")
	if nameOK {
		if !isPascalCase(name) {
			r.addWarning(path+".name", fmt.Sprintf("entity name %q is not PascalCase", name),
				"entity names conventionally start with an uppercase letter and use no underscores")
		}
		r.Inventory.Entities[name] = nil
		r.Inventory.Tables[tableName] = append(r.Inventory.Tables[tableName], name)
	}

	fields := map[string]struct{}{}
	rawFields, present := e["fields"]
	if !present {
		r.addError(path+".fields", "missing required key", "declare the entity's fields")
	} else if list, ok := asList(rawFields); !ok {
		r.errorf(path+".fields", "expected a list, got %T", rawFields)
	} else {
		for i, rawField := range list {
			fpath := fmt.Sprintf("%s.fields[%d]", path, i)
			f, ok := asMap(rawField)
			if !ok {
				r.errorf(fpath, "expected a mapping, got %T", rawField)
				continue
			}
			fname, fnameOK := reqString(r, f, fpath, "name")
			ftype, ftypeOK := reqString(r, f, fpath, "type")
			if ftypeOK && !schema.FieldType(ftype).Valid() {
				r.addError(fpath+".type", fmt.Sprintf("unknown field type %q", ftype),
					fmt.Sprintf("one of: %s", joinFieldTypes()))
			}
			if fnameOK {
				if !isSnakeCase(fname) {
					r.addWarning(fpath+".name", fmt.Sprintf("field name %q is not snake_case", fname), "")
				}
				fields[fname] = struct{}{}
				if nameOK {
					r.Inventory.Entities[name] = append(r.Inventory.Entities[name], fname)
				}
			}
		}
	}
	if info != nil {
		for f := range fields {
			info.attrs[f] = struct{}{}
		}
	}

	// Both key-derivation paths come from the same template, so the only
	// agreement check left is against an explicitly declared argument list.
	var templateArgs []string
	for _, key := range []string{"partition_key", "sort_key"} {
		rawTmpl, present := e[key]
		if !present {
			if key == "partition_key" {
				r.addError(path+".partition_key", "missing required key",
					`provide a key pattern such as "USER#{id}"`)
			}
			continue
		}
		pattern, ok := rawTmpl.(string)
		if !ok {
			r.errorf(path+"."+key, "expected a key pattern string, got %T", rawTmpl)
			continue
		}
		tmpl, err := schema.ParseKeyTemplate(pattern)
		if err != nil {
			r.addError(path+"."+key, err.Error(), "balance the braces in the key pattern")
			continue
		}
		for _, ref := range tmpl.Args() {
			if _, declared := fields[ref]; !declared {
				r.addError(path+"."+key,
					fmt.Sprintf("key pattern references undeclared field %q", ref),
					"declare the field on the entity or fix the reference")
			}
			templateArgs = append(templateArgs, ref)
		}
	}
	if rawArgs, present := e["key_arguments"]; present {
		declared, ok := stringList(rawArgs)
		if !ok {
			r.errorf(path+".key_arguments", "expected a list of field names, got %T", rawArgs)
		} else if !equalStrings(declared, templateArgs) {
			r.addError(path+".key_arguments",
				fmt.Sprintf("declared key arguments %v do not match key template references %v", declared, templateArgs),
				"key_arguments must list the template's field references in order")
		}
	}
}

// checkGSIAttributes enforces that every GSI key attribute is drawn from
// attributes declared on entities stored in the table (or the table keys).
// Runs after entity parsing so the attribute inventory is complete.
func checkGSIAttributes(r *Result, tables map[string]*tableInfo) {
	for _, info := range tables {
		for gsiName, keys := range info.gsis {
			for _, key := range keys {
				if _, ok := info.attrs[key.Name]; !ok {
					r.addError(fmt.Sprintf("%s.gsis[%s]", info.path, gsiName),
						fmt.Sprintf("GSI key attribute %q is not declared on any entity in the table", key.Name),
						"add the attribute as a field on one of the table's entities")
				}
			}
		}
	}
}

func checkPatterns(r *Result, raw map[string]any, tables map[string]*tableInfo) {
	rawPatterns, present := raw["access_patterns"]
	if !present {
		return
	}
	list, ok := asList(rawPatterns)
	if !ok {
		r.errorf("access_patterns", "expected a list, got %T", rawPatterns)
		return
	}
	for i, item := range list {
		path := fmt.Sprintf("access_patterns[%d]", i)
		p, ok := asMap(item)
		if !ok {
			r.errorf(path, "expected a mapping, got %T", item)
			continue
		}
		name, nameOK := reqString(r, p, path, "name")
		if nameOK && !isSnakeCase(name) {
			r.addWarning(path+".name", fmt.Sprintf("access pattern name %q is not snake_case", name), "")
		}
		if op, ok := reqString(r, p, path, "operation"); ok {
			kind := schema.OpKind(op)
			switch {
			case !kind.Valid():
				r.addError(path+".operation", fmt.Sprintf("unknown operation %q", op),
					fmt.Sprintf("one of: %s", joinOps()))
			case writesWholeEntity(kind) && !hasEntityRefParam(p):
				r.addError(path+".params",
					fmt.Sprintf("%s pattern declares no entity_ref parameter", op),
					`add a parameter with "type: entity_ref" carrying the item to write`)
			}
		}
		if ret, ok := reqString(r, p, path, "returns"); ok && !schema.ReturnKind(ret).Valid() {
			r.addError(path+".returns", fmt.Sprintf("unknown return kind %q", ret),
				fmt.Sprintf("one of: %s", joinReturns()))
		}
		if _, ok := p["description"]; !ok {
			r.addWarning(path, "access pattern has no description", "add a description")
		}

		var info *tableInfo
		tableName, tableOK := reqString(r, p, path, "table")
		if tableOK {
			var known bool
			if info, known = tables[tableName]; !known {
				r.addError(path+".table", fmt.Sprintf("access pattern references unknown table %q", tableName),
					"declare the table under tables")
			}
		}
		if idx, present := p["index"]; present {
			idxName, ok := idx.(string)
			switch {
			case !ok:
				r.errorf(path+".index", "expected a GSI name string, got %T", idx)
			case info != nil:
				if _, declared := info.gsis[idxName]; !declared {
					r.addError(path+".index",
						fmt.Sprintf("access pattern references GSI %q not declared on table %q", idxName, tableName),
						"declare the GSI on the table or fix the reference")
				}
			}
		}
		entityName, entityOK := reqString(r, p, path, "entity")
		if entityOK {
			if _, known := r.Inventory.Entities[entityName]; !known {
				r.addError(path+".entity", fmt.Sprintf("access pattern references unknown entity %q", entityName),
					"declare the entity under entities")
			}
		}
		checkParams(r, p, path, entityName)
	}
}

func checkParams(r *Result, p map[string]any, path, patternEntity string) {
	rawParams, present := p["params"]
	if !present {
		return
	}
	list, ok := asList(rawParams)
	if !ok {
		r.errorf(path+".params", "expected a list, got %T", rawParams)
		return
	}
	for i, item := range list {
		ppath := fmt.Sprintf("%s.params[%d]", path, i)
		param, ok := asMap(item)
		if !ok {
			r.errorf(ppath, "expected a mapping, got %T", item)
			continue
		}
		reqString(r, param, ppath, "name")
		ptype, typeOK := reqString(r, param, ppath, "type")
		if typeOK && !schema.ParamType(ptype).Valid() {
			r.addError(ppath+".type", fmt.Sprintf("unknown parameter type %q", ptype),
				"use a field type, entity_ref, or limit")
		}

		refEntity, _ := param["entity"].(string)
		if typeOK && schema.ParamType(ptype) == schema.ParamEntityRef && refEntity == "" {
			r.addError(ppath, "entity_ref parameter must name its entity", `add "entity: <Name>"`)
		}
		if refEntity != "" {
			if _, known := r.Inventory.Entities[refEntity]; !known {
				r.addError(ppath+".entity", fmt.Sprintf("parameter references unknown entity %q", refEntity),
					"declare the entity under entities")
				continue
			}
		}
		if fieldName, ok := param["field"].(string); ok && fieldName != "" {
			owner := refEntity
			if owner == "" {
				owner = patternEntity
			}
			fields, known := r.Inventory.Entities[owner]
			if !known {
				continue // entity error already reported
			}
			if !containsString(fields, fieldName) {
				r.addError(ppath+".field",
					fmt.Sprintf("parameter references field %q not declared on entity %q", fieldName, owner),
					"declare the field on the entity or fix the reference")
			}
		}
	}
}

func writesWholeEntity(op schema.OpKind) bool {
	switch op {
	case schema.OpPut, schema.OpBatchWrite, schema.OpTransactWrite:
		return true
	}
	return false
}

func hasEntityRefParam(p map[string]any) bool {
	list, ok := asList(p["params"])
	if !ok {
		return false
	}
	for _, item := range list {
		param, ok := asMap(item)
		if !ok {
			continue
		}
		if t, _ := param["type"].(string); schema.ParamType(t) == schema.ParamEntityRef {
			return true
		}
	}
	return false
}

// raw-structure helpers

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

func reqString(r *Result, m map[string]any, path, key string) (string, bool) {
	v, present := m[key]
	if !present {
		r.addError(path+"."+key, "missing required key", "")
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		r.errorf(path+"."+key, "expected a string, got %T", v)
		return "", false
	}
	if s == "" {
		r.addError(path+"."+key, "must not be empty", "")
		return "", false
	}
	return s, true
}

func stringList(v any) ([]string, bool) {
	list, ok := asList(v)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isPascalCase(s string) bool {
	if s == "" {
		return false
	}
	first := []rune(s)[0]
	return unicode.IsUpper(first) && !strings.ContainsRune(s, '_')
}

func isSnakeCase(s string) bool {
	for _, r := range s {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return s != ""
}

func joinFieldTypes() string {
	var names []string
	for _, v := range schema.FieldTypeValues() {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}

func joinOps() string {
	var names []string
	for _, v := range schema.OpKindValues() {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}

func joinReturns() string {
	var names []string
	for _, v := range schema.ReturnKindValues() {
		names = append(names, string(v))
	}
	return strings.Join(names, ", ")
}
