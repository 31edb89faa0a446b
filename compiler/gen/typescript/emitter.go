package typescript

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tuanknguyen/tablegen/compiler/gen"
	"github.com/tuanknguyen/tablegen/schema"
)

const fileHeader = "/** Generated by tablegen. DO NOT EDIT. */\n"

// Emitter renders TypeScript source. Entity files hold an interface plus
// standalone key/item helpers; repository files hold one class per entity.
// Item attribute names keep the schema's field names so stored items need
// no renaming layer.
type Emitter struct{}

// Entity implements gen.Emitter.
func (Emitter) Entity(h gen.Helper, e *schema.Entity) (string, error) {
	b := &strings.Builder{}
	b.WriteString(fileHeader)
	table := h.TableOf(e)
	cls := typeName(e.Name)
	ident := h.EntityIdent(e.Name)

	fmt.Fprintf(b, "\n/** Item type %s in table %s. */\nexport interface %s {\n", e.Tag, table.Name, cls)
	for _, f := range e.Fields {
		expr, err := h.FieldExpr(f.Type)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(b, "  %s: %s;\n", f.Name, expr)
	}
	b.WriteString("}\n")

	fmt.Fprintf(b, "\nexport const %s_TAG = %q;\n", strings.ToUpper(inflect.Underscore(e.Name)), e.Tag)

	fmt.Fprintf(b, "\nexport function %sKey(%s: %s): { pk: string; sk?: string } {\n", ident, ident, cls)
	fmt.Fprintf(b, "  return %s;\n}\n", keyObject(e, ident+"."))

	args := e.KeyArgs()
	sig := make([]string, 0, len(args))
	for _, ref := range args {
		f, ok := e.Field(ref)
		if !ok {
			return "", fmt.Errorf("key template of %s references unknown field %q", e.Name, ref)
		}
		expr, err := h.FieldExpr(f.Type)
		if err != nil {
			return "", err
		}
		sig = append(sig, fmt.Sprintf("%s: %s", ref, expr))
	}
	fmt.Fprintf(b, "\nexport function %sKeyFromArgs(%s): { pk: string; sk?: string } {\n", ident, strings.Join(sig, ", "))
	fmt.Fprintf(b, "  return %s;\n}\n", keyObject(e, ""))

	fmt.Fprintf(b, "\nexport function %sToItem(%s: %s): Record<string, unknown> {\n  return {\n", ident, ident, cls)
	fmt.Fprintf(b, "    entity: %s_TAG,\n", strings.ToUpper(inflect.Underscore(e.Name)))
	for _, f := range e.Fields {
		fmt.Fprintf(b, "    %s: %s,\n", f.Name, toItemExpr(f, ident))
	}
	b.WriteString("  };\n}\n")

	fmt.Fprintf(b, "\nexport function %sFromItem(item: Record<string, unknown>): %s {\n  return {\n", ident, cls)
	for _, f := range e.Fields {
		fmt.Fprintf(b, "    %s: %s,\n", f.Name, fromItemExpr(h, f))
	}
	b.WriteString("  };\n}\n")
	return b.String(), nil
}

// Repository implements gen.Emitter.
func (em Emitter) Repository(h gen.Helper, e *schema.Entity) (string, error) {
	b := &strings.Builder{}
	n := h.Backend().Naming
	cls := typeName(e.Name)
	ident := h.EntityIdent(e.Name)
	table := h.TableOf(e)

	b.WriteString(fileHeader)
	b.WriteString("\nimport { TableStore } from \"./storage\";\n")
	fmt.Fprintf(b, "import { %s, %sKey, %sKeyFromArgs, %sToItem, %sFromItem } from \"./%s\";\n",
		cls, ident, ident, ident, ident, ident)
	importPatternEntities(b, h, e)

	fmt.Fprintf(b, "\n/** Data access for %s items in table %s. */\nexport class %s {\n",
		cls, table.Name, h.MethodName(n.RepositoryType, e.Name))
	b.WriteString("  constructor(private readonly store: TableStore) {}\n")

	keyParams, err := keySignature(h, e)
	if err != nil {
		return "", err
	}
	keyArgs := strings.Join(e.KeyArgs(), ", ")

	fmt.Fprintf(b, "\n  async %s(%s: %s): Promise<%s> {\n", h.MethodName(n.Create, e.Name), ident, cls, cls)
	fmt.Fprintf(b, "    const key = %sKey(%s);\n", ident, ident)
	fmt.Fprintf(b, "    await this.store.putItem(key.pk, key.sk, %sToItem(%s));\n", ident, ident)
	fmt.Fprintf(b, "    return %s;\n  }\n", ident)

	fmt.Fprintf(b, "\n  async %s(%s): Promise<%s | undefined> {\n", h.MethodName(n.Get, e.Name), keyParams, cls)
	fmt.Fprintf(b, "    const key = %sKeyFromArgs(%s);\n", ident, keyArgs)
	b.WriteString("    const item = await this.store.getItem(key.pk, key.sk);\n")
	fmt.Fprintf(b, "    return item ? %sFromItem(item) : undefined;\n  }\n", ident)

	fmt.Fprintf(b, "\n  async %s(%s, updates: Record<string, unknown>): Promise<%s> {\n",
		h.MethodName(n.Update, e.Name), keyParams, cls)
	fmt.Fprintf(b, "    const key = %sKeyFromArgs(%s);\n", ident, keyArgs)
	b.WriteString("    const item = await this.store.updateItem(key.pk, key.sk, updates);\n")
	fmt.Fprintf(b, "    return %sFromItem(item);\n  }\n", ident)

	fmt.Fprintf(b, "\n  async %s(%s): Promise<boolean> {\n", h.MethodName(n.Delete, e.Name), keyParams)
	fmt.Fprintf(b, "    const key = %sKeyFromArgs(%s);\n", ident, keyArgs)
	b.WriteString("    return this.store.deleteItem(key.pk, key.sk);\n  }\n")

	for _, p := range h.Patterns(e) {
		if err := em.patternMethod(b, h, e, p); err != nil {
			return "", err
		}
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func (Emitter) patternMethod(b *strings.Builder, h gen.Helper, e *schema.Entity, p *schema.AccessPattern) error {
	ident := h.EntityIdent(e.Name)
	params := make([]string, 0, len(p.Params))
	for _, param := range p.Params {
		entity := param.Entity
		if entity == "" {
			entity = p.Entity
		}
		expr, err := h.ParamExpr(param.Type, entity)
		if err != nil {
			return err
		}
		params = append(params, fmt.Sprintf("%s: %s", h.Backend().MethodIdent(param.Name), expr))
	}
	if p.Op == schema.OpUpdate {
		params = append(params, "updates: Record<string, unknown>")
	}
	ret, err := h.ReturnExpr(p.Returns, e.Name)
	if err != nil {
		return err
	}

	if p.Description != "" {
		fmt.Fprintf(b, "\n  /** %s */", p.Description)
	}
	fmt.Fprintf(b, "\n  async %s(%s): %s {\n", h.Backend().MethodIdent(p.Name), strings.Join(params, ", "), ret)

	pk := patternKeyExpr(h, e, p)
	switch p.Op {
	case schema.OpQuery:
		index := "undefined"
		if p.Index != "" {
			index = fmt.Sprintf("%q", p.Index)
		}
		fmt.Fprintf(b, "    const items = await this.store.query(%s, %s, %s);\n", pk, index, limitArg(h, p))
		writeListReturn(b, p.Returns, ident)
	case schema.OpScan:
		fmt.Fprintf(b, "    const items = await this.store.scan(%s);\n", limitArg(h, p))
		writeListReturn(b, p.Returns, ident)
	case schema.OpGet, schema.OpBatchGet, schema.OpTransactGet:
		fmt.Fprintf(b, "    const item = await this.store.getItem(%s%s);\n", pk, patternSortArg(h, e, p))
		writeItemReturn(b, p.Returns, ident)
	case schema.OpDelete:
		fmt.Fprintf(b, "    return this.store.deleteItem(%s%s);\n", pk, patternSortArg(h, e, p))
	case schema.OpUpdate:
		fmt.Fprintf(b, "    const item = await this.store.updateItem(%s%s, updates);\n", pk, patternSortArgOrUndefined(h, e, p))
		writeItemReturn(b, p.Returns, ident)
	default: // put and the batch/transactional write variants
		ref, err := entityRefArg(h, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "    const key = %sKey(%s);\n", ident, ref)
		fmt.Fprintf(b, "    await this.store.putItem(key.pk, key.sk, %sToItem(%s));\n", ident, ref)
		writePutReturn(b, p.Returns, ref, ident)
	}
	b.WriteString("  }\n")
	return nil
}

// Example implements gen.Emitter.
func (Emitter) Example(h gen.Helper, steps []gen.ExampleStep) (string, error) {
	b := &strings.Builder{}
	b.WriteString(fileHeader)
	b.WriteString("\nimport { TableStore } from \"./storage\";\n")
	for _, e := range exampleEntities(steps) {
		ident := h.EntityIdent(e.Name)
		fmt.Fprintf(b, "import { %s } from \"./%s\";\n", typeName(e.Name), ident)
		fmt.Fprintf(b, "import { %s } from \"./%sRepository\";\n", repositoryType(h, e.Name), ident)
	}

	tables := h.Schema().Tables
	if len(tables) == 0 {
		return "", fmt.Errorf("schema declares no tables")
	}
	table := tables[0]
	b.WriteString("\nasync function main(): Promise<void> {\n")
	fmt.Fprintf(b, "  const store = new TableStore(%q);\n", table.Name)
	for _, e := range exampleEntities(steps) {
		fmt.Fprintf(b, "  const %sRepo = new %s(store);\n", h.EntityIdent(e.Name), repositoryType(h, e.Name))
	}

	for _, s := range steps {
		repo := h.EntityIdent(s.Entity.Name) + "Repo"
		fmt.Fprintf(b, "\n  // %s\n", s.Comment)
		switch s.Kind {
		case gen.StepCreate:
			fmt.Fprintf(b, "  const %s = await %s.%s({\n", s.Var, repo, s.Method)
			for _, fv := range s.Fields {
				fmt.Fprintf(b, "    %s: %s,\n", fv.Field.Name, fv.Expr)
			}
			b.WriteString("  });\n")
		case gen.StepUpdate:
			fmt.Fprintf(b, "  await %s.%s(%s, {\n", repo, s.Method, strings.Join(s.Args, ", "))
			for _, fv := range s.Fields {
				fmt.Fprintf(b, "    %s: %s,\n", fv.Field.Name, fv.Expr)
			}
			b.WriteString("  });\n")
		case gen.StepDelete:
			fmt.Fprintf(b, "  await %s.%s(%s);\n", repo, s.Method, strings.Join(s.Args, ", "))
		default:
			fmt.Fprintf(b, "  console.log(await %s.%s(%s));\n", repo, s.Method, strings.Join(s.Args, ", "))
		}
	}
	b.WriteString("}\n\nmain().catch(console.error);\n")
	return b.String(), nil
}

func typeName(entity string) string {
	return inflect.Camelize(inflect.Underscore(entity))
}

func repositoryType(h gen.Helper, entity string) string {
	return h.MethodName(h.Backend().Naming.RepositoryType, entity)
}

func exampleEntities(steps []gen.ExampleStep) []*schema.Entity {
	var out []*schema.Entity
	seen := map[string]bool{}
	for _, s := range steps {
		if !seen[s.Entity.Name] {
			seen[s.Entity.Name] = true
			out = append(out, s.Entity)
		}
	}
	return out
}

// importPatternEntities imports the mapping helpers of other entities the
// repository's pattern methods return.
func importPatternEntities(b *strings.Builder, h gen.Helper, e *schema.Entity) {
	seen := map[string]bool{e.Name: true}
	for _, p := range h.Patterns(e) {
		for _, param := range p.Params {
			if param.Type == schema.ParamEntityRef && param.Entity != "" && !seen[param.Entity] {
				seen[param.Entity] = true
				ident := h.EntityIdent(param.Entity)
				fmt.Fprintf(b, "import { %s } from \"./%s\";\n", typeName(param.Entity), ident)
			}
		}
	}
}

func keyObject(e *schema.Entity, prefix string) string {
	pk := templateLiteral(e.PartitionKey, prefix)
	if !e.HasSortKey() {
		return fmt.Sprintf("{ pk: %s }", pk)
	}
	return fmt.Sprintf("{ pk: %s, sk: %s }", pk, templateLiteral(e.SortKey, prefix))
}

// templateLiteral renders a key template as a TypeScript template literal.
func templateLiteral(t schema.KeyTemplate, prefix string) string {
	b := &strings.Builder{}
	b.WriteString("`")
	for _, s := range t.Segments {
		if s.FieldRef != "" {
			fmt.Fprintf(b, "${%s%s}", prefix, s.FieldRef)
		} else {
			b.WriteString(s.Literal)
		}
	}
	b.WriteString("`")
	return b.String()
}

func keySignature(h gen.Helper, e *schema.Entity) (string, error) {
	parts := make([]string, 0, len(e.KeyArgs()))
	for _, ref := range e.KeyArgs() {
		f, ok := e.Field(ref)
		if !ok {
			return "", fmt.Errorf("key template of %s references unknown field %q", e.Name, ref)
		}
		expr, err := h.FieldExpr(f.Type)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s: %s", ref, expr))
	}
	return strings.Join(parts, ", "), nil
}

func patternKeyExpr(h gen.Helper, e *schema.Entity, p *schema.AccessPattern) string {
	names := map[string]bool{}
	for _, param := range p.Params {
		names[param.Name] = true
	}
	covered := true
	for _, s := range e.PartitionKey.Segments {
		if s.FieldRef != "" && !names[s.FieldRef] {
			covered = false
		}
	}
	if covered {
		return patternTemplate(h, e.PartitionKey)
	}
	for _, param := range p.Params {
		if _, isField := param.Type.FieldType(); isField {
			return fmt.Sprintf("`${%s}`", h.Backend().MethodIdent(param.Name))
		}
	}
	return patternTemplate(h, e.PartitionKey)
}

// patternTemplate renders a key template against pattern parameters, which
// are camelCase in signatures.
func patternTemplate(h gen.Helper, t schema.KeyTemplate) string {
	b := &strings.Builder{}
	b.WriteString("`")
	for _, s := range t.Segments {
		if s.FieldRef != "" {
			fmt.Fprintf(b, "${%s}", h.Backend().MethodIdent(s.FieldRef))
		} else {
			b.WriteString(s.Literal)
		}
	}
	b.WriteString("`")
	return b.String()
}

func patternSortArg(h gen.Helper, e *schema.Entity, p *schema.AccessPattern) string {
	if !e.HasSortKey() {
		return ""
	}
	names := map[string]bool{}
	for _, param := range p.Params {
		names[param.Name] = true
	}
	for _, s := range e.SortKey.Segments {
		if s.FieldRef != "" && !names[s.FieldRef] {
			return ""
		}
	}
	return ", " + patternTemplate(h, e.SortKey)
}

func patternSortArgOrUndefined(h gen.Helper, e *schema.Entity, p *schema.AccessPattern) string {
	if arg := patternSortArg(h, e, p); arg != "" {
		return arg
	}
	return ", undefined"
}

func limitArg(h gen.Helper, p *schema.AccessPattern) string {
	for _, param := range p.Params {
		if param.Type == schema.ParamLimit {
			return h.Backend().MethodIdent(param.Name)
		}
	}
	return "undefined"
}

// entityRefArg names the value written by a put-like pattern. A write
// pattern must declare an entity_ref parameter; without one the method
// body would reference a name missing from its own signature.
func entityRefArg(h gen.Helper, p *schema.AccessPattern) (string, error) {
	for _, param := range p.Params {
		if param.Type == schema.ParamEntityRef {
			return h.Backend().MethodIdent(param.Name), nil
		}
	}
	return "", fmt.Errorf("pattern %s: %s operation declares no entity_ref parameter", p.Name, p.Op)
}

func writeListReturn(b *strings.Builder, k schema.ReturnKind, ident string) {
	switch k {
	case schema.ReturnEntity:
		fmt.Fprintf(b, "    return items.length > 0 ? %sFromItem(items[0]) : undefined;\n", ident)
	case schema.ReturnEntityList:
		fmt.Fprintf(b, "    return items.map(%sFromItem);\n", ident)
	case schema.ReturnFlag:
		b.WriteString("    return items.length > 0;\n")
	case schema.ReturnPayload:
		b.WriteString("    return { items };\n")
	case schema.ReturnNone:
		b.WriteString("    return;\n")
	}
}

// writePutReturn closes a write-pattern method: the written value itself
// is the only item the store round-trip can vouch for.
func writePutReturn(b *strings.Builder, k schema.ReturnKind, ref, ident string) {
	switch k {
	case schema.ReturnEntityList:
		fmt.Fprintf(b, "    return [%s];\n", ref)
	case schema.ReturnFlag:
		b.WriteString("    return true;\n")
	case schema.ReturnPayload:
		fmt.Fprintf(b, "    return %sToItem(%s);\n", ident, ref)
	case schema.ReturnNone:
		b.WriteString("    return;\n")
	default:
		fmt.Fprintf(b, "    return %s;\n", ref)
	}
}

func writeItemReturn(b *strings.Builder, k schema.ReturnKind, ident string) {
	switch k {
	case schema.ReturnEntity:
		fmt.Fprintf(b, "    return item ? %sFromItem(item) : undefined;\n", ident)
	case schema.ReturnEntityList:
		fmt.Fprintf(b, "    return item ? [%sFromItem(item)] : [];\n", ident)
	case schema.ReturnFlag:
		b.WriteString("    return item !== undefined;\n")
	case schema.ReturnPayload:
		b.WriteString("    return { ...item };\n")
	case schema.ReturnNone:
		b.WriteString("    return;\n")
	}
}

func toItemExpr(f schema.Field, ident string) string {
	access := fmt.Sprintf("%s.%s", ident, f.Name)
	switch f.Type {
	case schema.TypeStringSet, schema.TypeNumberSet:
		return fmt.Sprintf("Array.from(%s).sort()", access)
	}
	return access
}

func fromItemExpr(h gen.Helper, f schema.Field) string {
	item := fmt.Sprintf("item.%s", f.Name)
	switch f.Type {
	case schema.TypeStringSet:
		return fmt.Sprintf("new Set(%s as string[])", item)
	case schema.TypeNumberSet:
		return fmt.Sprintf("new Set(%s as number[])", item)
	}
	expr, err := h.FieldExpr(f.Type)
	if err != nil {
		return item
	}
	return fmt.Sprintf("%s as %s", item, expr)
}
