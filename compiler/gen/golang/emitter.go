package golang

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/tools/imports"

	"github.com/tuanknguyen/tablegen/compiler/gen"
	"github.com/tuanknguyen/tablegen/schema"
)

const (
	genPackage = "store"
	headerLine = "Code generated by tablegen. DO NOT EDIT."

	awsPkg   = "github.com/aws/aws-sdk-go-v2/aws"
	avPkg    = "github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	typesPkg = "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	uuidPkg  = "github.com/google/uuid"
)

// Emitter renders Go source with jennifer. Generated files live in one
// package alongside the TableStore support file; every rendered file is
// finished with goimports so raw sample expressions pull their imports in.
type Emitter struct{}

// Entity implements gen.Emitter.
func (Emitter) Entity(h gen.Helper, e *schema.Entity) (string, error) {
	f := newFile()
	name := typeName(e.Name)
	recv := receiver(e.Name)
	table := h.TableOf(e)

	f.Commentf("%s is the %s item type stored in table %s.", name, e.Tag, table.Name)
	fields := make([]jen.Code, 0, len(e.Fields))
	for _, fd := range e.Fields {
		fields = append(fields, jen.Id(fieldName(fd.Name)).Add(typeCode(fd.Type)).
			Tag(map[string]string{"dynamodbav": fd.Name}))
	}
	f.Type().Id(name).Struct(fields...)

	f.Commentf("%sTag is the discriminator value written into every %s item.", name, name)
	f.Const().Id(name + "Tag").Op("=").Lit(e.Tag)

	f.Commentf("Key returns the item key of %s.", recv)
	f.Func().Params(jen.Id(recv).Op("*").Id(name)).Id("Key").Params().
		Params(jen.String(), jen.Op("*").String()).Block(
		jen.Return(keyExpr(e.PartitionKey, recv, false), sortKeyExpr(e, recv)),
	)

	args := e.KeyArgs()
	params := make([]jen.Code, 0, len(args))
	for _, ref := range args {
		fd, ok := e.Field(ref)
		if !ok {
			return "", fmt.Errorf("key template of %s references unknown field %q", e.Name, ref)
		}
		params = append(params, jen.Id(argName(ref)).Add(typeCode(fd.Type)))
	}
	f.Commentf("%sKeyFromArgs derives the same item key from raw identifier values.", name)
	f.Func().Id(name+"KeyFromArgs").Params(params...).
		Params(jen.String(), jen.Op("*").String()).Block(
		jen.Return(keyExpr(e.PartitionKey, "", true), sortKeyExprFromArgs(e)),
	)

	f.Commentf("ToItem marshals %s into a stored item with its discriminator tag.", recv)
	f.Func().Params(jen.Id(recv).Op("*").Id(name)).Id("ToItem").Params().
		Params(jen.Map(jen.String()).Qual(typesPkg, "AttributeValue"), jen.Error()).Block(
		jen.List(jen.Id("item"), jen.Id("err")).Op(":=").Qual(avPkg, "MarshalMap").Call(jen.Id(recv)),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(jen.Lit("marshal "+e.Name+": %w"), jen.Id("err"))),
		),
		jen.Id("item").Index(jen.Lit("entity")).Op("=").Op("&").Qual(typesPkg, "AttributeValueMemberS").
			Values(jen.Dict{jen.Id("Value"): jen.Id(name + "Tag")}),
		jen.Return(jen.Id("item"), jen.Nil()),
	)

	f.Commentf("%sFromItem unmarshals a stored item into a %s.", name, name)
	f.Func().Id(name+"FromItem").Params(
		jen.Id("item").Map(jen.String()).Qual(typesPkg, "AttributeValue"),
	).Params(jen.Op("*").Id(name), jen.Error()).Block(
		jen.Id(recv).Op(":=").Op("&").Id(name).Values(),
		jen.If(
			jen.Id("err").Op(":=").Qual(avPkg, "UnmarshalMap").Call(jen.Id("item"), jen.Id(recv)),
			jen.Id("err").Op("!=").Nil(),
		).Block(
			jen.Return(jen.Nil(), jen.Qual("fmt", "Errorf").Call(jen.Lit("unmarshal "+e.Name+": %w"), jen.Id("err"))),
		),
		jen.Return(jen.Id(recv), jen.Nil()),
	)
	return render(f)
}

// Repository implements gen.Emitter.
func (em Emitter) Repository(h gen.Helper, e *schema.Entity) (string, error) {
	f := newFile()
	n := h.Backend().Naming
	name := typeName(e.Name)
	repo := h.MethodName(n.RepositoryType, e.Name)
	recv := receiver(e.Name)
	table := h.TableOf(e)

	f.Commentf("%s provides data access for %s items in table %s.", repo, name, table.Name)
	f.Type().Id(repo).Struct(jen.Id("store").Op("*").Id("TableStore"))

	f.Commentf("New%s creates a repository over the given store.", repo)
	f.Func().Id("New"+repo).Params(jen.Id("store").Op("*").Id("TableStore")).Op("*").Id(repo).Block(
		jen.Return(jen.Op("&").Id(repo).Values(jen.Dict{jen.Id("store"): jen.Id("store")})),
	)

	rr := jen.Id("r").Op("*").Id(repo)

	f.Func().Params(rr.Clone()).Id(h.MethodName(n.Create, e.Name)).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id(recv).Op("*").Id(name),
	).Params(jen.Op("*").Id(name), jen.Error()).Block(
		jen.List(jen.Id("item"), jen.Id("err")).Op(":=").Id(recv).Dot("ToItem").Call(),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Id("err"))),
		jen.List(jen.Id("pk"), jen.Id("sk")).Op(":=").Id(recv).Dot("Key").Call(),
		jen.If(
			jen.Id("err").Op(":=").Id("r").Dot("store").Dot("PutItem").Call(
				jen.Id("ctx"), jen.Id("pk"), jen.Id("sk"), jen.Id("item")),
			jen.Id("err").Op("!=").Nil(),
		).Block(jen.Return(jen.Nil(), jen.Id("err"))),
		jen.Return(jen.Id(recv), jen.Nil()),
	)

	keyParams, keyArgs, err := keySignature(e)
	if err != nil {
		return "", err
	}

	f.Func().Params(rr.Clone()).Id(h.MethodName(n.Get, e.Name)).
		Params(append([]jen.Code{jen.Id("ctx").Qual("context", "Context")}, keyParams...)...).
		Params(jen.Op("*").Id(name), jen.Error()).Block(
		jen.List(jen.Id("pk"), jen.Id("sk")).Op(":=").Id(name+"KeyFromArgs").Call(keyArgs...),
		jen.List(jen.Id("item"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("GetItem").Call(
			jen.Id("ctx"), jen.Id("pk"), jen.Id("sk")),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Id("err"))),
		jen.If(jen.Id("item").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Nil())),
		jen.Return(jen.Id(name+"FromItem").Call(jen.Id("item"))),
	)

	f.Func().Params(rr.Clone()).Id(h.MethodName(n.Update, e.Name)).
		Params(append(append([]jen.Code{jen.Id("ctx").Qual("context", "Context")}, keyParams...),
			jen.Id("updates").Map(jen.String()).Any())...).
		Params(jen.Op("*").Id(name), jen.Error()).Block(
		jen.List(jen.Id("pk"), jen.Id("sk")).Op(":=").Id(name+"KeyFromArgs").Call(keyArgs...),
		jen.List(jen.Id("item"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("UpdateItem").Call(
			jen.Id("ctx"), jen.Id("pk"), jen.Id("sk"), jen.Id("updates")),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Id("err"))),
		jen.Return(jen.Id(name+"FromItem").Call(jen.Id("item"))),
	)

	f.Func().Params(rr.Clone()).Id(h.MethodName(n.Delete, e.Name)).
		Params(append([]jen.Code{jen.Id("ctx").Qual("context", "Context")}, keyParams...)...).
		Params(jen.Bool(), jen.Error()).Block(
		jen.List(jen.Id("pk"), jen.Id("sk")).Op(":=").Id(name+"KeyFromArgs").Call(keyArgs...),
		jen.Return(jen.Id("r").Dot("store").Dot("DeleteItem").Call(jen.Id("ctx"), jen.Id("pk"), jen.Id("sk"))),
	)

	for _, p := range h.Patterns(e) {
		if err := patternMethod(f, h, e, p); err != nil {
			return "", err
		}
	}
	return render(f)
}

// patternMethod renders one access-pattern method delegating to the store
// primitive matching the pattern's operation kind.
func patternMethod(f *jen.File, h gen.Helper, e *schema.Entity, p *schema.AccessPattern) error {
	name := typeName(e.Name)
	repo := h.MethodName(h.Backend().Naming.RepositoryType, e.Name)

	params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
	for _, param := range p.Params {
		code, err := paramCode(param, p)
		if err != nil {
			return err
		}
		params = append(params, code)
	}
	if p.Op == schema.OpUpdate {
		params = append(params, jen.Id("updates").Map(jen.String()).Any())
	}

	if p.Description != "" {
		f.Commentf("%s %s", h.Backend().MethodIdent(p.Name), strings.TrimSuffix(p.Description, "."))
	}
	method := f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id(h.Backend().MethodIdent(p.Name)).Params(params...)

	rets := returnTypes(p.Returns, name)
	method.Params(rets...)

	var body []jen.Code
	pk := patternKeyCode(e, p)
	switch p.Op {
	case schema.OpQuery:
		index := jen.Nil()
		if p.Index != "" {
			index = jen.Qual(awsPkg, "String").Call(jen.Lit(p.Index))
		}
		body = append(body,
			jen.List(jen.Id("items"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("Query").Call(
				jen.Id("ctx"), pk, index, limitCode(p)))
		body = append(body, listReturn(p.Returns, name)...)
	case schema.OpScan:
		body = append(body,
			jen.List(jen.Id("items"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("Scan").Call(
				jen.Id("ctx"), limitCode(p)))
		body = append(body, listReturn(p.Returns, name)...)
	case schema.OpGet, schema.OpBatchGet, schema.OpTransactGet:
		body = append(body,
			jen.List(jen.Id("item"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("GetItem").Call(
				jen.Id("ctx"), pk, patternSortCode(e, p)))
		body = append(body, itemReturn(p.Returns, name)...)
	case schema.OpDelete:
		switch p.Returns {
		case schema.ReturnFlag:
			body = append(body,
				jen.Return(jen.Id("r").Dot("store").Dot("DeleteItem").Call(
					jen.Id("ctx"), pk, patternSortCode(e, p))))
		case schema.ReturnNone:
			body = append(body,
				jen.List(jen.Id("_"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("DeleteItem").Call(
					jen.Id("ctx"), pk, patternSortCode(e, p)),
				jen.Return(jen.Id("err")))
		default:
			body = append(body,
				jen.List(jen.Id("_"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("DeleteItem").Call(
					jen.Id("ctx"), pk, patternSortCode(e, p)),
				jen.If(jen.Id("err").Op("!=").Nil()).Block(errReturn(p.Returns)),
				jen.Return(jen.Nil(), jen.Nil()))
		}
	case schema.OpUpdate:
		body = append(body,
			jen.List(jen.Id("item"), jen.Id("err")).Op(":=").Id("r").Dot("store").Dot("UpdateItem").Call(
				jen.Id("ctx"), pk, patternSortCode(e, p), jen.Id("updates")))
		body = append(body, itemReturn(p.Returns, name)...)
	default: // put and the batch/transactional write variants
		ref, err := entityRefName(p)
		if err != nil {
			return err
		}
		body = append(body,
			jen.List(jen.Id("item"), jen.Id("err")).Op(":=").Id(ref).Dot("ToItem").Call(),
			jen.If(jen.Id("err").Op("!=").Nil()).Block(errReturn(p.Returns)),
			jen.List(jen.Id("pk"), jen.Id("sk")).Op(":=").Id(ref).Dot("Key").Call(),
			jen.If(
				jen.Id("err").Op(":=").Id("r").Dot("store").Dot("PutItem").Call(
					jen.Id("ctx"), jen.Id("pk"), jen.Id("sk"), jen.Id("item")),
				jen.Id("err").Op("!=").Nil(),
			).Block(errReturn(p.Returns)))
		body = append(body, putReturn(p.Returns, ref)...)
	}
	method.Block(body...)
	return nil
}

// Example implements gen.Emitter. The example is a plain function over the
// generated repositories; raw provider expressions are resolved into
// imports by the goimports pass.
func (Emitter) Example(h gen.Helper, steps []gen.ExampleStep) (string, error) {
	b := &strings.Builder{}
	fmt.Fprintf(b, "// %s\n\npackage %s\n\n", headerLine, genPackage)
	b.WriteString("import (\n\t\"context\"\n\t\"fmt\"\n\n\t\"github.com/aws/aws-sdk-go-v2/service/dynamodb\"\n)\n")

	tables := h.Schema().Tables
	if len(tables) == 0 {
		return "", fmt.Errorf("schema declares no tables")
	}
	table := tables[0]
	b.WriteString("\n// UsageExample walks every generated repository through its operations\n")
	b.WriteString("// against a live table.\n")
	b.WriteString("func UsageExample(ctx context.Context, client *dynamodb.Client) error {\n")
	fmt.Fprintf(b, "\tstore := NewTableStore(client, %q)\n", table.Name)
	for _, e := range exampleEntities(steps) {
		fmt.Fprintf(b, "\t%sRepo := New%s(store)\n", h.EntityIdent(e.Name), repositoryType(h, e.Name))
	}

	out := 0
	for _, s := range steps {
		repo := h.EntityIdent(s.Entity.Name) + "Repo"
		fmt.Fprintf(b, "\n\t// %s\n", s.Comment)
		switch s.Kind {
		case gen.StepCreate:
			fmt.Fprintf(b, "\t%s, err := %s.%s(ctx, &%s{\n", s.Var, repo, s.Method, typeName(s.Entity.Name))
			for _, fv := range s.Fields {
				fmt.Fprintf(b, "\t\t%s: %s,\n", fieldName(fv.Field.Name), fv.Expr)
			}
			b.WriteString("\t})\n\tif err != nil {\n\t\treturn err\n\t}\n")
		case gen.StepGet:
			out++
			fmt.Fprintf(b, "\tout%d, err := %s.%s(ctx, %s)\n", out, repo, s.Method, strings.Join(s.Args, ", "))
			fmt.Fprintf(b, "\tif err != nil {\n\t\treturn err\n\t}\n\tfmt.Println(out%d)\n", out)
		case gen.StepUpdate:
			fmt.Fprintf(b, "\tif _, err := %s.%s(ctx, %s, map[string]any{\n", repo, s.Method, strings.Join(s.Args, ", "))
			for _, fv := range s.Fields {
				fmt.Fprintf(b, "\t\t%q: %s,\n", fv.Field.Name, fv.Expr)
			}
			b.WriteString("\t}); err != nil {\n\t\treturn err\n\t}\n")
		case gen.StepDelete:
			fmt.Fprintf(b, "\tif _, err := %s.%s(ctx, %s); err != nil {\n\t\treturn err\n\t}\n",
				repo, s.Method, strings.Join(s.Args, ", "))
		case gen.StepPattern:
			if s.Pattern.Returns == schema.ReturnNone {
				fmt.Fprintf(b, "\tif err := %s.%s(ctx, %s); err != nil {\n\t\treturn err\n\t}\n",
					repo, s.Method, strings.Join(s.Args, ", "))
				continue
			}
			out++
			fmt.Fprintf(b, "\tout%d, err := %s.%s(ctx, %s)\n", out, repo, s.Method, strings.Join(s.Args, ", "))
			fmt.Fprintf(b, "\tif err != nil {\n\t\treturn err\n\t}\n\tfmt.Println(out%d)\n", out)
		}
	}
	b.WriteString("\n\treturn nil\n}\n")
	return goimports("usage_example.go", b.String())
}

func newFile() *jen.File {
	f := jen.NewFile(genPackage)
	f.HeaderComment(headerLine)
	return f
}

// render writes the jennifer file and runs it through goimports.
func render(f *jen.File) (string, error) {
	buf := &bytes.Buffer{}
	if err := f.Render(buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return goimports("generated.go", buf.String())
}

func goimports(filename, src string) (string, error) {
	out, err := imports.Process(filename, []byte(src), nil)
	if err != nil {
		return "", fmt.Errorf("goimports: %w", err)
	}
	return string(out), nil
}

func typeName(entity string) string {
	return inflect.Camelize(inflect.Underscore(entity))
}

func fieldName(field string) string {
	return inflect.Camelize(inflect.Underscore(field))
}

func argName(field string) string {
	return inflect.CamelizeDownFirst(inflect.Underscore(field))
}

func receiver(entity string) string {
	return inflect.CamelizeDownFirst(inflect.Underscore(entity))
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

// typeCode maps a field type to its jennifer representation, mirroring
// Mapper.FieldTypes.
func typeCode(t schema.FieldType) *jen.Statement {
	switch t {
	case schema.TypeString:
		return jen.String()
	case schema.TypeInt:
		return jen.Int64()
	case schema.TypeFloat:
		return jen.Float64()
	case schema.TypeBool:
		return jen.Bool()
	case schema.TypeTimestamp:
		return jen.Qual("time", "Time")
	case schema.TypeUUID:
		return jen.Qual(uuidPkg, "UUID")
	case schema.TypeBytes:
		return jen.Index().Byte()
	case schema.TypeStringSet:
		return jen.Index().String()
	case schema.TypeNumberSet:
		return jen.Index().Float64()
	default:
		return jen.Map(jen.String()).Any()
	}
}

// keyExpr renders a key template: a plain literal when it has no field
// references, a fmt.Sprintf call otherwise. fromArgs switches between
// receiver field access and raw argument names.
func keyExpr(t schema.KeyTemplate, recv string, fromArgs bool) *jen.Statement {
	format := ""
	var args []jen.Code
	for _, s := range t.Segments {
		if s.FieldRef == "" {
			format += s.Literal
			continue
		}
		format += "%v"
		if fromArgs {
			args = append(args, jen.Id(argName(s.FieldRef)))
		} else {
			args = append(args, jen.Id(recv).Dot(fieldName(s.FieldRef)))
		}
	}
	if len(args) == 0 {
		return jen.Lit(format)
	}
	return jen.Qual("fmt", "Sprintf").Call(append([]jen.Code{jen.Lit(format)}, args...)...)
}

func sortKeyExpr(e *schema.Entity, recv string) *jen.Statement {
	if !e.HasSortKey() {
		return jen.Nil()
	}
	return jen.Qual(awsPkg, "String").Call(keyExpr(e.SortKey, recv, false))
}

func sortKeyExprFromArgs(e *schema.Entity) *jen.Statement {
	if !e.HasSortKey() {
		return jen.Nil()
	}
	return jen.Qual(awsPkg, "String").Call(keyExpr(e.SortKey, "", true))
}

func keySignature(e *schema.Entity) ([]jen.Code, []jen.Code, error) {
	var params, args []jen.Code
	for _, ref := range e.KeyArgs() {
		fd, ok := e.Field(ref)
		if !ok {
			return nil, nil, fmt.Errorf("key template of %s references unknown field %q", e.Name, ref)
		}
		params = append(params, jen.Id(argName(ref)).Add(typeCode(fd.Type)))
		args = append(args, jen.Id(argName(ref)))
	}
	return params, args, nil
}

func paramCode(param schema.Param, p *schema.AccessPattern) (jen.Code, error) {
	name := argName(param.Name)
	if param.Type == schema.ParamLimit {
		return jen.Id(name).Int32(), nil
	}
	if param.Type == schema.ParamEntityRef {
		entity := param.Entity
		if entity == "" {
			entity = p.Entity
		}
		return jen.Id(name).Op("*").Id(typeName(entity)), nil
	}
	ft, ok := param.Type.FieldType()
	if !ok {
		return nil, fmt.Errorf("pattern %s parameter %s has unknown type %q", p.Name, param.Name, param.Type)
	}
	return jen.Id(name).Add(typeCode(ft)), nil
}

func returnTypes(k schema.ReturnKind, name string) []jen.Code {
	switch k {
	case schema.ReturnEntity:
		return []jen.Code{jen.Op("*").Id(name), jen.Error()}
	case schema.ReturnEntityList:
		return []jen.Code{jen.Index().Op("*").Id(name), jen.Error()}
	case schema.ReturnFlag:
		return []jen.Code{jen.Bool(), jen.Error()}
	case schema.ReturnPayload:
		return []jen.Code{jen.Map(jen.String()).Any(), jen.Error()}
	default:
		return []jen.Code{jen.Error()}
	}
}

// errReturn renders the error-path return matching the return kind.
func errReturn(k schema.ReturnKind) *jen.Statement {
	switch k {
	case schema.ReturnFlag:
		return jen.Return(jen.False(), jen.Id("err"))
	case schema.ReturnNone:
		return jen.Return(jen.Id("err"))
	default:
		return jen.Return(jen.Nil(), jen.Id("err"))
	}
}

func listReturn(k schema.ReturnKind, name string) []jen.Code {
	check := jen.If(jen.Id("err").Op("!=").Nil()).Block(errReturn(k))
	switch k {
	case schema.ReturnEntity:
		return []jen.Code{check,
			jen.If(jen.Len(jen.Id("items")).Op("==").Lit(0)).Block(jen.Return(jen.Nil(), jen.Nil())),
			jen.Return(jen.Id(name + "FromItem").Call(jen.Id("items").Index(jen.Lit(0)))),
		}
	case schema.ReturnEntityList:
		return []jen.Code{check,
			jen.Id("out").Op(":=").Make(jen.Index().Op("*").Id(name), jen.Lit(0), jen.Len(jen.Id("items"))),
			jen.For(jen.List(jen.Id("_"), jen.Id("item")).Op(":=").Range().Id("items")).Block(
				jen.List(jen.Id("e"), jen.Id("err")).Op(":=").Id(name+"FromItem").Call(jen.Id("item")),
				jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Id("err"))),
				jen.Id("out").Op("=").Append(jen.Id("out"), jen.Id("e")),
			),
			jen.Return(jen.Id("out"), jen.Nil()),
		}
	case schema.ReturnFlag:
		return []jen.Code{check, jen.Return(jen.Len(jen.Id("items")).Op(">").Lit(0), jen.Nil())}
	case schema.ReturnPayload:
		return []jen.Code{check,
			jen.Return(jen.Map(jen.String()).Any().Values(jen.Dict{jen.Lit("items"): jen.Id("items")}), jen.Nil()),
		}
	default:
		return []jen.Code{jen.Return(jen.Id("err"))}
	}
}

func itemReturn(k schema.ReturnKind, name string) []jen.Code {
	check := jen.If(jen.Id("err").Op("!=").Nil()).Block(errReturn(k))
	switch k {
	case schema.ReturnEntity:
		return []jen.Code{check,
			jen.If(jen.Id("item").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Nil())),
			jen.Return(jen.Id(name + "FromItem").Call(jen.Id("item"))),
		}
	case schema.ReturnEntityList:
		return []jen.Code{check,
			jen.If(jen.Id("item").Op("==").Nil()).Block(jen.Return(jen.Nil(), jen.Nil())),
			jen.List(jen.Id("e"), jen.Id("err")).Op(":=").Id(name+"FromItem").Call(jen.Id("item")),
			jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Id("err"))),
			jen.Return(jen.Index().Op("*").Id(name).Values(jen.Id("e")), jen.Nil()),
		}
	case schema.ReturnFlag:
		return []jen.Code{check, jen.Return(jen.Id("item").Op("!=").Nil(), jen.Nil())}
	case schema.ReturnPayload:
		return []jen.Code{check,
			jen.Id("out").Op(":=").Map(jen.String()).Any().Values(),
			jen.If(
				jen.Id("err").Op(":=").Qual(avPkg, "UnmarshalMap").Call(jen.Id("item"), jen.Op("&").Id("out")),
				jen.Id("err").Op("!=").Nil(),
			).Block(jen.Return(jen.Nil(), jen.Id("err"))),
			jen.Return(jen.Id("out"), jen.Nil()),
		}
	default:
		return []jen.Code{jen.Return(jen.Id("err"))}
	}
}

func putReturn(k schema.ReturnKind, ref string) []jen.Code {
	switch k {
	case schema.ReturnEntity:
		return []jen.Code{jen.Return(jen.Id(ref), jen.Nil())}
	case schema.ReturnEntityList:
		return []jen.Code{jen.Return(jen.Nil(), jen.Nil())}
	case schema.ReturnFlag:
		return []jen.Code{jen.Return(jen.True(), jen.Nil())}
	case schema.ReturnPayload:
		return []jen.Code{jen.Return(jen.Nil(), jen.Nil())}
	default:
		return []jen.Code{jen.Return(jen.Nil())}
	}
}

// patternKeyCode renders the partition-key value for a pattern method.
// Template references resolve against same-named parameters; a reference
// with no match falls back to the first field-typed parameter.
func patternKeyCode(e *schema.Entity, p *schema.AccessPattern) *jen.Statement {
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
		return keyExpr(e.PartitionKey, "", true)
	}
	for _, param := range p.Params {
		if _, isField := param.Type.FieldType(); isField {
			return jen.Qual("fmt", "Sprintf").Call(jen.Lit("%v"), jen.Id(argName(param.Name)))
		}
	}
	return keyExpr(e.PartitionKey, "", true)
}

func patternSortCode(e *schema.Entity, p *schema.AccessPattern) *jen.Statement {
	if !e.HasSortKey() {
		return jen.Nil()
	}
	names := map[string]bool{}
	for _, param := range p.Params {
		names[param.Name] = true
	}
	for _, s := range e.SortKey.Segments {
		if s.FieldRef != "" && !names[s.FieldRef] {
			return jen.Nil()
		}
	}
	return jen.Qual(awsPkg, "String").Call(keyExpr(e.SortKey, "", true))
}

func limitCode(p *schema.AccessPattern) *jen.Statement {
	for _, param := range p.Params {
		if param.Type == schema.ParamLimit {
			return jen.Qual(awsPkg, "Int32").Call(jen.Id(argName(param.Name)))
		}
	}
	return jen.Nil()
}

// entityRefName names the value written by a put-like pattern. A write
// pattern must declare an entity_ref parameter; without one the method
// body would reference a name missing from its own signature.
func entityRefName(p *schema.AccessPattern) (string, error) {
	for _, param := range p.Params {
		if param.Type == schema.ParamEntityRef {
			return argName(param.Name), nil
		}
	}
	return "", fmt.Errorf("pattern %s: %s operation declares no entity_ref parameter", p.Name, p.Op)
}
