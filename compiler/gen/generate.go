package gen

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/tuanknguyen/tablegen/schema"
)

// ManifestFile is the name of the run summary written into the output tree.
const ManifestFile = "tablegen.manifest.yaml"

// Report carries the summary counts of one GenerateAll run, consumed by
// the caller's results aggregation.
type Report struct {
	Language        string
	OutDir          string
	Entities        int
	Repositories    int
	SupportFiles    int
	ExampleSteps    int
	SkippedPatterns int
	Files           []string
	Fingerprint     string
}

// Generator is the standard engine variant. Each operation is a pure
// function of the injected Config; GenerateAll additionally writes files,
// but their content is fully computed before the first write so a failed
// run never leaves a half-rendered file behind a final name.
type Generator struct {
	cfg     *Config
	workers int
}

// NewGenerator creates the standard engine over a checked Config.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{cfg: cfg, workers: runtime.GOMAXPROCS(0)}
}

// Compile-time contract checks.
var (
	_ Engine = (*Generator)(nil)
	_ Helper = (*Generator)(nil)
)

// GenerateEntity renders one entity definition.
func (g *Generator) GenerateEntity(e *schema.Entity) (string, error) {
	src, err := g.cfg.Emitter.Entity(g, e)
	if err != nil {
		return "", NewGenerationError("entity", e.Name, "render entity", err)
	}
	return src, nil
}

// GenerateRepository renders one entity's data-access class.
func (g *Generator) GenerateRepository(e *schema.Entity) (string, error) {
	src, err := g.cfg.Emitter.Repository(g, e)
	if err != nil {
		return "", NewGenerationError("repository", e.Name, "render repository", err)
	}
	return src, nil
}

// GenerateAll renders and writes the whole project: entity files,
// repository files, backend support files, the optional usage example, and
// the generation manifest. Output is deterministic: identical inputs yield
// a byte-identical file set.
func (g *Generator) GenerateAll(outDir string, includeExamples bool) (*Report, error) {
	b := g.cfg.Backend
	report := &Report{Language: b.Lang, OutDir: outDir}
	files := map[string][]byte{}

	for _, t := range g.cfg.Schema.Tables {
		for _, e := range t.Entities {
			src, err := g.GenerateEntity(e)
			if err != nil {
				return nil, err
			}
			files[b.Apply(b.Naming.EntityFile, e.Name)] = []byte(src)
			report.Entities++

			src, err = g.GenerateRepository(e)
			if err != nil {
				return nil, err
			}
			files[b.Apply(b.Naming.RepositoryFile, e.Name)] = []byte(src)
			report.Repositories++
		}
	}

	for _, name := range b.SupportFiles {
		data, err := b.SupportFile(name)
		if err != nil {
			return nil, NewGenerationError("support", name, "read support file", err)
		}
		base := path.Base(name)
		if _, taken := files[base]; taken {
			return nil, NewGenerationError("support", name,
				fmt.Sprintf("support file %s collides with a generated file name", base), nil)
		}
		files[base] = data
		report.SupportFiles++
	}

	if includeExamples {
		steps, skipped, err := g.ExampleSteps()
		if err != nil {
			return nil, err
		}
		report.ExampleSteps = len(steps)
		report.SkippedPatterns = skipped
		src, err := g.cfg.Emitter.Example(g, steps)
		if err != nil {
			return nil, NewGenerationError("example", b.Naming.ExampleFile, "render usage example", err)
		}
		files[b.Naming.ExampleFile] = []byte(src)
	}

	fingerprint, err := Fingerprint(g.cfg.Schema)
	if err != nil {
		return nil, NewGenerationError("manifest", ManifestFile, "fingerprint schema", err)
	}
	report.Fingerprint = fingerprint
	report.Files = sortedFileNames(files)
	manifest, err := yaml.Marshal(Manifest{
		Language:    b.Lang,
		Fingerprint: fingerprint,
		Files:       report.Files,
	})
	if err != nil {
		return nil, NewGenerationError("manifest", ManifestFile, "encode manifest", err)
	}
	files[ManifestFile] = manifest
	report.Files = sortedFileNames(files)

	if err := writeFiles(outDir, files, g.workers); err != nil {
		return nil, err
	}
	g.cfg.Logger.Info().
		Str("language", b.Lang).
		Str("out_dir", outDir).
		Int("files", len(files)).
		Int("entities", report.Entities).
		Msg("generation complete")
	return report, nil
}

// ExampleSteps chains the usage example: every entity is created, read
// back, updated, and deleted, then every access pattern is invoked with
// arguments resolved from the entities materialized earlier. Patterns with
// an unresolvable synthetic parameter are skipped, which is a valid
// outcome, not a failure.
func (g *Generator) ExampleSteps() ([]ExampleStep, int, error) {
	b := g.cfg.Backend
	env := NewExampleEnv()
	var steps []ExampleStep

	for _, t := range g.cfg.Schema.Tables {
		for _, e := range t.Entities {
			varName := b.EntityIdent(e.Name)
			steps = append(steps, ExampleStep{
				Kind:    StepCreate,
				Entity:  e,
				Var:     varName,
				Method:  b.Apply(b.Naming.Create, e.Name),
				Fields:  g.SampleFields(e),
				Comment: fmt.Sprintf("Create a %s.", e.Name),
			})
			env.Bind(e, varName)

			keyArgs, err := g.resolveKeyArgs(e, env)
			if err != nil {
				return nil, 0, err
			}
			steps = append(steps, ExampleStep{
				Kind:    StepGet,
				Entity:  e,
				Method:  b.Apply(b.Naming.Get, e.Name),
				Args:    keyArgs,
				Comment: fmt.Sprintf("Read the %s back by key.", e.Name),
			})
			if updates := g.UpdateFields(e); len(updates) > 0 {
				steps = append(steps, ExampleStep{
					Kind:    StepUpdate,
					Entity:  e,
					Method:  b.Apply(b.Naming.Update, e.Name),
					Args:    keyArgs,
					Fields:  updates,
					Comment: fmt.Sprintf("Update the %s.", e.Name),
				})
			}
		}
	}

	skipped := 0
	for _, p := range g.cfg.Schema.Patterns {
		entity, ok := g.cfg.Schema.Entity(p.Entity)
		if !ok {
			return nil, 0, NewGenerationError("example", p.Name,
				fmt.Sprintf("access pattern references unknown entity %q", p.Entity), nil)
		}
		args, resolved, err := g.resolvePatternArgs(p, env)
		if err != nil {
			return nil, 0, err
		}
		if !resolved {
			skipped++
			continue
		}
		steps = append(steps, ExampleStep{
			Kind:    StepPattern,
			Entity:  entity,
			Pattern: p,
			Method:  b.MethodIdent(p.Name),
			Args:    args,
			Comment: patternComment(p),
		})
	}

	// Deletes come last so earlier steps can keep referencing the entities.
	for _, t := range g.cfg.Schema.Tables {
		for _, e := range t.Entities {
			keyArgs, err := g.resolveKeyArgs(e, env)
			if err != nil {
				return nil, 0, err
			}
			steps = append(steps, ExampleStep{
				Kind:    StepDelete,
				Entity:  e,
				Method:  b.Apply(b.Naming.Delete, e.Name),
				Args:    keyArgs,
				Comment: fmt.Sprintf("Delete the %s.", e.Name),
			})
		}
	}
	return steps, skipped, nil
}

// resolveKeyArgs renders the key-lookup arguments for an entity by running
// each key field through the parameter resolver.
func (g *Generator) resolveKeyArgs(e *schema.Entity, env *ExampleEnv) ([]string, error) {
	var args []string
	for _, ref := range e.KeyArgs() {
		f, ok := e.Field(ref)
		if !ok {
			return nil, NewGenerationError("example", e.Name,
				fmt.Sprintf("key template references unknown field %q", ref), nil)
		}
		expr, resolved, err := g.cfg.Resolver.Resolve(schema.Param{
			Name:   ref,
			Type:   schema.ParamType(f.Type),
			Entity: e.Name,
			Field:  ref,
		}, env)
		if err != nil {
			return nil, NewGenerationError("example", e.Name, "resolve key argument", err)
		}
		if !resolved {
			return nil, NewGenerationError("example", e.Name,
				fmt.Sprintf("key argument %q did not resolve", ref), nil)
		}
		args = append(args, expr)
	}
	return args, nil
}

// resolvePatternArgs resolves every parameter of an access pattern.
// Parameters without an explicit source default to the pattern's entity
// and their own name before resolution.
func (g *Generator) resolvePatternArgs(p *schema.AccessPattern, env *ExampleEnv) ([]string, bool, error) {
	var args []string
	for _, param := range p.Params {
		normalized := param
		if normalized.Entity == "" {
			normalized.Entity = p.Entity
		}
		if _, isField := normalized.Type.FieldType(); isField && normalized.Field == "" {
			normalized.Field = normalized.Name
		}
		expr, resolved, err := g.cfg.Resolver.Resolve(normalized, env)
		if err != nil {
			return nil, false, NewGenerationError("example", p.Name, "resolve parameter "+param.Name, err)
		}
		if !resolved {
			return nil, false, nil
		}
		args = append(args, expr)
	}
	return args, true, nil
}

func patternComment(p *schema.AccessPattern) string {
	if p.Description != "" {
		return p.Description
	}
	return fmt.Sprintf("Invoke %s.", p.Name)
}

// Helper implementation.

// Backend returns the active language backend.
func (g *Generator) Backend() *Backend { return g.cfg.Backend }

// Schema returns the schema being generated.
func (g *Generator) Schema() *schema.Schema { return g.cfg.Schema }

// TableOf returns the table storing the entity.
func (g *Generator) TableOf(e *schema.Entity) *schema.Table {
	t, _ := g.cfg.Schema.TableOf(e.Name)
	return t
}

// Patterns returns the access patterns declared against the entity.
func (g *Generator) Patterns(e *schema.Entity) []*schema.AccessPattern {
	return g.cfg.Schema.PatternsFor(e.Name)
}

// FieldExpr returns the target type expression for a field type. A miss
// here means the completeness gate was bypassed.
func (g *Generator) FieldExpr(t schema.FieldType) (string, error) {
	expr, ok := g.cfg.Mapper.FieldTypes()[t]
	if !ok {
		return "", &ContractError{Lang: g.cfg.Backend.Lang, Domain: "field types", Missing: []string{string(t)}}
	}
	return expr, nil
}

// ReturnExpr returns the target type expression for a return kind.
func (g *Generator) ReturnExpr(k schema.ReturnKind, entity string) (string, error) {
	expr, ok := g.cfg.Mapper.ReturnKinds()[k]
	if !ok {
		return "", &ContractError{Lang: g.cfg.Backend.Lang, Domain: "return kinds", Missing: []string{string(k)}}
	}
	return g.cfg.Backend.Apply(expr, entity), nil
}

// ParamExpr returns the target type expression for a parameter type.
func (g *Generator) ParamExpr(t schema.ParamType, entity string) (string, error) {
	expr, ok := g.cfg.Mapper.ParamTypes()[t]
	if !ok {
		return "", &ContractError{Lang: g.cfg.Backend.Lang, Domain: "parameter types", Missing: []string{string(t)}}
	}
	return g.cfg.Backend.Apply(expr, entity), nil
}

// MethodName renders a naming template for an entity.
func (g *Generator) MethodName(tmpl, entity string) string {
	return g.cfg.Backend.Apply(tmpl, entity)
}

// EntityIdent returns the entity name in the backend's identifier style.
func (g *Generator) EntityIdent(name string) string {
	return g.cfg.Backend.EntityIdent(name)
}

// SampleFields returns deterministic sample values for every entity field.
func (g *Generator) SampleFields(e *schema.Entity) []FieldValue {
	defaults := g.cfg.Samples.Defaults()
	out := make([]FieldValue, 0, len(e.Fields))
	for _, f := range e.Fields {
		expr := g.cfg.Samples.SampleValue(f.Type, f.Name)
		if expr == "" {
			expr = defaults[f.Type]
		}
		out = append(out, FieldValue{Field: f, Expr: expr})
	}
	return out
}

// UpdateFields returns changed values for the entity's non-key fields.
func (g *Generator) UpdateFields(e *schema.Entity) []FieldValue {
	keyFields := map[string]struct{}{}
	for _, ref := range e.KeyArgs() {
		keyFields[ref] = struct{}{}
	}
	defaults := g.cfg.Samples.UpdateDefaults()
	var out []FieldValue
	for _, f := range e.Fields {
		if _, isKey := keyFields[f.Name]; isKey {
			continue
		}
		expr := g.cfg.Samples.UpdateValue(f.Type, f.Name)
		if expr == "" {
			expr = defaults[f.Type]
		}
		out = append(out, FieldValue{Field: f, Expr: expr})
	}
	return out
}

// writeFiles writes the computed file set under outDir with bounded
// parallelism. Each file is written to a temporary path and renamed into
// place, so another process never observes a half-written file under its
// final name.
func writeFiles(outDir string, files map[string][]byte, workers int) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return NewGenerationError("write", outDir, "create output directory", err)
	}
	eg := new(errgroup.Group)
	eg.SetLimit(workers)
	for name, data := range files {
		eg.Go(func() error {
			target := filepath.Join(outDir, name)
			tmp, err := os.CreateTemp(outDir, "."+filepath.Base(name)+".*")
			if err != nil {
				return NewGenerationError("write", name, "create temp file", err)
			}
			if _, err := tmp.Write(data); err != nil {
				tmp.Close()
				os.Remove(tmp.Name())
				return NewGenerationError("write", name, "write temp file", err)
			}
			if err := tmp.Close(); err != nil {
				os.Remove(tmp.Name())
				return NewGenerationError("write", name, "close temp file", err)
			}
			if err := os.Rename(tmp.Name(), target); err != nil {
				os.Remove(tmp.Name())
				return NewGenerationError("write", name, "rename into place", err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func sortedFileNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
