package python

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tuanknguyen/tablegen/compiler/gen"
	"github.com/tuanknguyen/tablegen/schema"
)

// fileHeader opens every generated Python file. The import block is fixed
// so output stays deterministic regardless of which types a schema uses.
const fileHeader = `"""Generated by tablegen. DO NOT EDIT."""

from __future__ import annotations

import uuid
from dataclasses import dataclass
from datetime import datetime, timezone
from typing import Any, ClassVar, Optional
`

// Emitter renders Python source: dataclass entities, repository classes
// over the TableStore support module, and a runnable usage example.
type Emitter struct{}

// Entity implements gen.Emitter.
func (Emitter) Entity(h gen.Helper, e *schema.Entity) (string, error) {
	b := &strings.Builder{}
	b.WriteString(fileHeader)
	table := h.TableOf(e)

	fmt.Fprintf(b, "\n\n@dataclass\nclass %s:\n", className(e.Name))
	fmt.Fprintf(b, "    \"\"\"Item type %s in table %s.\"\"\"\n\n", e.Tag, table.Name)
	for _, f := range e.Fields {
		expr, err := h.FieldExpr(f.Type)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(b, "    %s: %s\n", f.Name, expr)
	}
	fmt.Fprintf(b, "\n    ENTITY_TAG: ClassVar[str] = %q\n", e.Tag)

	// Key builder over a full instance.
	b.WriteString("\n    def key(self) -> dict:\n")
	fmt.Fprintf(b, "        return %s\n", keyDict(e, "self."))

	// Key lookup from raw identifier values. Both render from the same
	// key templates, so they can never disagree.
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
	fmt.Fprintf(b, "\n    @staticmethod\n    def key_from_args(%s) -> dict:\n", strings.Join(sig, ", "))
	fmt.Fprintf(b, "        return %s\n", keyDict(e, ""))

	// Item round-trip.
	b.WriteString("\n    def to_item(self) -> dict:\n        return {\n")
	fmt.Fprintf(b, "            \"entity\": %s.ENTITY_TAG,\n", className(e.Name))
	for _, f := range e.Fields {
		fmt.Fprintf(b, "            %q: %s,\n", f.Name, toItemExpr(f))
	}
	b.WriteString("        }\n")

	b.WriteString("\n    @classmethod\n    def from_item(cls, item: dict) -> ")
	fmt.Fprintf(b, "\"%s\":\n        return cls(\n", className(e.Name))
	for _, f := range e.Fields {
		fmt.Fprintf(b, "            %s=%s,\n", f.Name, fromItemExpr(f))
	}
	b.WriteString("        )\n")
	return b.String(), nil
}

// Repository implements gen.Emitter.
func (em Emitter) Repository(h gen.Helper, e *schema.Entity) (string, error) {
	b := &strings.Builder{}
	n := h.Backend().Naming
	cls := className(e.Name)
	receiver := h.EntityIdent(e.Name)
	table := h.TableOf(e)

	b.WriteString(fileHeader)
	fmt.Fprintf(b, "\nfrom storage import TableStore\nfrom %s import %s\n", receiver, cls)
	fmt.Fprintf(b, "\n\nclass %s:\n", h.MethodName(n.RepositoryType, e.Name))
	fmt.Fprintf(b, "    \"\"\"Data access for %s items in table %s.\"\"\"\n\n", cls, table.Name)
	b.WriteString("    def __init__(self, store: TableStore) -> None:\n        self._store = store\n")

	keyParams, err := keySignature(h, e)
	if err != nil {
		return "", err
	}
	keyArgs := strings.Join(e.KeyArgs(), ", ")

	fmt.Fprintf(b, "\n    def %s(self, %s: %s) -> %s:\n", h.MethodName(n.Create, e.Name), receiver, cls, cls)
	fmt.Fprintf(b, "        key = %s.key()\n", receiver)
	fmt.Fprintf(b, "        self._store.put_item(key[\"pk\"], key.get(\"sk\"), %s.to_item())\n", receiver)
	fmt.Fprintf(b, "        return %s\n", receiver)

	fmt.Fprintf(b, "\n    def %s(self%s) -> Optional[%s]:\n", h.MethodName(n.Get, e.Name), keyParams, cls)
	fmt.Fprintf(b, "        key = %s.key_from_args(%s)\n", cls, keyArgs)
	b.WriteString("        item = self._store.get_item(key[\"pk\"], key.get(\"sk\"))\n")
	fmt.Fprintf(b, "        return %s.from_item(item) if item else None\n", cls)

	fmt.Fprintf(b, "\n    def %s(self%s, updates: dict) -> Optional[%s]:\n", h.MethodName(n.Update, e.Name), keyParams, cls)
	fmt.Fprintf(b, "        key = %s.key_from_args(%s)\n", cls, keyArgs)
	b.WriteString("        item = self._store.update_item(key[\"pk\"], key.get(\"sk\"), updates)\n")
	fmt.Fprintf(b, "        return %s.from_item(item) if item else None\n", cls)

	fmt.Fprintf(b, "\n    def %s(self%s) -> bool:\n", h.MethodName(n.Delete, e.Name), keyParams)
	fmt.Fprintf(b, "        key = %s.key_from_args(%s)\n", cls, keyArgs)
	b.WriteString("        return self._store.delete_item(key[\"pk\"], key.get(\"sk\"))\n")

	for _, p := range h.Patterns(e) {
		if err := em.patternMethod(b, h, e, p); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// patternMethod renders one access-pattern method delegating to the store
// primitive matching the pattern's operation kind.
func (Emitter) patternMethod(b *strings.Builder, h gen.Helper, e *schema.Entity, p *schema.AccessPattern) error {
	cls := className(e.Name)
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
		params = append(params, fmt.Sprintf(", %s: %s", param.Name, expr))
	}
	if p.Op == schema.OpUpdate {
		params = append(params, ", updates: dict")
	}
	ret, err := h.ReturnExpr(p.Returns, e.Name)
	if err != nil {
		return err
	}

	fmt.Fprintf(b, "\n    def %s(self%s) -> %s:\n", h.Backend().MethodIdent(p.Name), strings.Join(params, ""), ret)
	if p.Description != "" {
		fmt.Fprintf(b, "        \"\"\"%s\"\"\"\n", p.Description)
	}

	pk := patternKeyExpr(e, p)
	switch p.Op {
	case schema.OpQuery:
		index := "None"
		if p.Index != "" {
			index = fmt.Sprintf("%q", p.Index)
		}
		fmt.Fprintf(b, "        items = self._store.query(%s, index=%s, limit=%s)\n", pk, index, limitArg(p))
		return writeListReturn(b, p.Returns, cls)
	case schema.OpScan:
		fmt.Fprintf(b, "        items = self._store.scan(limit=%s)\n", limitArg(p))
		return writeListReturn(b, p.Returns, cls)
	case schema.OpGet, schema.OpBatchGet, schema.OpTransactGet:
		fmt.Fprintf(b, "        item = self._store.get_item(%s%s)\n", pk, patternSortArg(e, p))
		return writeItemReturn(b, p.Returns, cls)
	case schema.OpDelete:
		fmt.Fprintf(b, "        return self._store.delete_item(%s%s)\n", pk, patternSortArg(e, p))
		return nil
	case schema.OpUpdate:
		fmt.Fprintf(b, "        item = self._store.update_item(%s%s, updates)\n", pk, patternSortArgOrNone(e, p))
		return writeItemReturn(b, p.Returns, cls)
	default: // put and the batch/transactional write variants
		ref, err := entityRefArg(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "        key = %s.key()\n", ref)
		fmt.Fprintf(b, "        self._store.put_item(key[\"pk\"], key.get(\"sk\"), %s.to_item())\n", ref)
		return writePutReturn(b, p.Returns, ref)
	}
}

// Example implements gen.Emitter.
func (Emitter) Example(h gen.Helper, steps []gen.ExampleStep) (string, error) {
	b := &strings.Builder{}
	b.WriteString(fileHeader)
	b.WriteString("\nfrom storage import TableStore\n")
	for _, e := range exampleEntities(steps) {
		fmt.Fprintf(b, "from %s import %s\n", h.EntityIdent(e.Name), className(e.Name))
		fmt.Fprintf(b, "from %s_repository import %s\n", h.EntityIdent(e.Name), repositoryType(h, e.Name))
	}

	tables := h.Schema().Tables
	if len(tables) == 0 {
		return "", fmt.Errorf("schema declares no tables")
	}
	table := tables[0]
	b.WriteString("\n\ndef main() -> None:\n")
	fmt.Fprintf(b, "    store = TableStore(%q)\n", table.Name)
	for _, e := range exampleEntities(steps) {
		fmt.Fprintf(b, "    %s_repo = %s(store)\n", h.EntityIdent(e.Name), repositoryType(h, e.Name))
	}

	for _, s := range steps {
		repo := h.EntityIdent(s.Entity.Name) + "_repo"
		fmt.Fprintf(b, "\n    # %s\n", s.Comment)
		switch s.Kind {
		case gen.StepCreate:
			fmt.Fprintf(b, "    %s = %s.%s(%s(\n", s.Var, repo, s.Method, className(s.Entity.Name))
			for _, fv := range s.Fields {
				fmt.Fprintf(b, "        %s=%s,\n", fv.Field.Name, fv.Expr)
			}
			b.WriteString("    ))\n")
		case gen.StepUpdate:
			fmt.Fprintf(b, "    %s.%s(%s, updates={\n", repo, s.Method, strings.Join(s.Args, ", "))
			for _, fv := range s.Fields {
				fmt.Fprintf(b, "        %q: %s,\n", fv.Field.Name, fv.Expr)
			}
			b.WriteString("    })\n")
		case gen.StepDelete:
			fmt.Fprintf(b, "    %s.%s(%s)\n", repo, s.Method, strings.Join(s.Args, ", "))
		default:
			fmt.Fprintf(b, "    print(%s.%s(%s))\n", repo, s.Method, strings.Join(s.Args, ", "))
		}
	}
	b.WriteString("\n\nif __name__ == \"__main__\":\n    main()\n")
	return b.String(), nil
}

func className(entity string) string {
	return inflect.Camelize(inflect.Underscore(entity))
}

func repositoryType(h gen.Helper, entity string) string {
	return h.MethodName(h.Backend().Naming.RepositoryType, entity)
}

// exampleEntities returns the distinct entities the steps touch, in first
// appearance order.
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

// keyDict renders the entity's key dict. Both the instance path and the
// raw-argument path call this with a different value prefix.
func keyDict(e *schema.Entity, prefix string) string {
	pk := fstring(e.PartitionKey, prefix)
	if !e.HasSortKey() {
		return fmt.Sprintf("{\"pk\": %s}", pk)
	}
	return fmt.Sprintf("{\"pk\": %s, \"sk\": %s}", pk, fstring(e.SortKey, prefix))
}

// fstring renders a key template as a Python f-string.
func fstring(t schema.KeyTemplate, prefix string) string {
	b := &strings.Builder{}
	b.WriteString(`f"`)
	for _, s := range t.Segments {
		if s.FieldRef != "" {
			fmt.Fprintf(b, "{%s%s}", prefix, s.FieldRef)
		} else {
			b.WriteString(s.Literal)
		}
	}
	b.WriteString(`"`)
	return b.String()
}

func keySignature(h gen.Helper, e *schema.Entity) (string, error) {
	b := &strings.Builder{}
	for _, ref := range e.KeyArgs() {
		f, ok := e.Field(ref)
		if !ok {
			return "", fmt.Errorf("key template of %s references unknown field %q", e.Name, ref)
		}
		expr, err := h.FieldExpr(f.Type)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(b, ", %s: %s", ref, expr)
	}
	return b.String(), nil
}

// patternKeyExpr renders the partition-key value for a pattern method. Key
// template references resolve against same-named parameters; a reference
// with no matching parameter falls back to the first field-typed parameter.
func patternKeyExpr(e *schema.Entity, p *schema.AccessPattern) string {
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
		return fstring(e.PartitionKey, "")
	}
	for _, param := range p.Params {
		if _, isField := param.Type.FieldType(); isField {
			return fmt.Sprintf("f\"{%s}\"", param.Name)
		}
	}
	return fstring(e.PartitionKey, "")
}

func patternSortArg(e *schema.Entity, p *schema.AccessPattern) string {
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
	return ", " + fstring(e.SortKey, "")
}

func patternSortArgOrNone(e *schema.Entity, p *schema.AccessPattern) string {
	if arg := patternSortArg(e, p); arg != "" {
		return arg
	}
	return ", None"
}

// entityRefArg names the value written by a put-like pattern. A write
// pattern must declare an entity_ref parameter; without one the method
// body would reference a name missing from its own signature.
func entityRefArg(p *schema.AccessPattern) (string, error) {
	for _, param := range p.Params {
		if param.Type == schema.ParamEntityRef {
			return param.Name, nil
		}
	}
	return "", fmt.Errorf("pattern %s: %s operation declares no entity_ref parameter", p.Name, p.Op)
}

func limitArg(p *schema.AccessPattern) string {
	for _, param := range p.Params {
		if param.Type == schema.ParamLimit {
			return param.Name
		}
	}
	return "None"
}

func writeListReturn(b *strings.Builder, k schema.ReturnKind, cls string) error {
	switch k {
	case schema.ReturnEntity:
		fmt.Fprintf(b, "        return %s.from_item(items[0]) if items else None\n", cls)
	case schema.ReturnEntityList:
		fmt.Fprintf(b, "        return [%s.from_item(item) for item in items]\n", cls)
	case schema.ReturnFlag:
		b.WriteString("        return bool(items)\n")
	case schema.ReturnPayload:
		b.WriteString("        return {\"items\": items}\n")
	case schema.ReturnNone:
		b.WriteString("        return None\n")
	}
	return nil
}

// writePutReturn closes a write-pattern method: the written value itself
// is the only item the store round-trip can vouch for.
func writePutReturn(b *strings.Builder, k schema.ReturnKind, ref string) error {
	switch k {
	case schema.ReturnEntityList:
		fmt.Fprintf(b, "        return [%s]\n", ref)
	case schema.ReturnFlag:
		b.WriteString("        return True\n")
	case schema.ReturnPayload:
		fmt.Fprintf(b, "        return %s.to_item()\n", ref)
	case schema.ReturnNone:
		b.WriteString("        return None\n")
	default:
		fmt.Fprintf(b, "        return %s\n", ref)
	}
	return nil
}

func writeItemReturn(b *strings.Builder, k schema.ReturnKind, cls string) error {
	switch k {
	case schema.ReturnEntity:
		fmt.Fprintf(b, "        return %s.from_item(item) if item else None\n", cls)
	case schema.ReturnEntityList:
		fmt.Fprintf(b, "        return [%s.from_item(item)] if item else []\n", cls)
	case schema.ReturnFlag:
		b.WriteString("        return item is not None\n")
	case schema.ReturnPayload:
		b.WriteString("        return dict(item) if item else {}\n")
	case schema.ReturnNone:
		b.WriteString("        return None\n")
	}
	return nil
}

// toItemExpr renders one field's serialization into a stored item.
func toItemExpr(f schema.Field) string {
	switch f.Type {
	case schema.TypeUUID:
		return fmt.Sprintf("str(self.%s)", f.Name)
	case schema.TypeTimestamp:
		return fmt.Sprintf("self.%s.isoformat()", f.Name)
	case schema.TypeStringSet, schema.TypeNumberSet:
		return fmt.Sprintf("sorted(self.%s)", f.Name)
	}
	return "self." + f.Name
}

// fromItemExpr renders one field's deserialization from a stored item.
func fromItemExpr(f schema.Field) string {
	item := fmt.Sprintf("item[%q]", f.Name)
	switch f.Type {
	case schema.TypeUUID:
		return fmt.Sprintf("uuid.UUID(%s)", item)
	case schema.TypeTimestamp:
		return fmt.Sprintf("datetime.fromisoformat(%s)", item)
	case schema.TypeStringSet:
		return fmt.Sprintf("set(%s)", item)
	case schema.TypeNumberSet:
		return fmt.Sprintf("{float(v) for v in %s}", item)
	}
	return item
}
