package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanknguyen/tablegen/schema"
)

// The fakes below form a minimal but complete plugin set so the engine can
// be exercised without pulling in a real language subpackage.

type fakeSamples struct{}

func (fakeSamples) SampleValue(t schema.FieldType, name string) string {
	return fmt.Sprintf("sample(%s:%s)", name, t)
}

func (fakeSamples) UpdateValue(t schema.FieldType, name string) string {
	return fmt.Sprintf("update(%s:%s)", name, t)
}

func (fakeSamples) Defaults() map[schema.FieldType]string       { return nil }
func (fakeSamples) UpdateDefaults() map[schema.FieldType]string { return nil }

type fakeFormatter struct{}

func (fakeFormatter) FormatValue(v any, t schema.FieldType) string {
	return fmt.Sprintf("%v", v)
}

type fakeResolver struct{}

func (fakeResolver) Resolve(p schema.Param, env *ExampleEnv) (string, bool, error) {
	if p.Type == schema.ParamLimit {
		return "10", true, nil
	}
	v, bound := env.Lookup(p.Entity)
	if !bound {
		if p.Synthetic {
			return "", false, nil
		}
		return "", false, fmt.Errorf("no %s instance for parameter %s", p.Entity, p.Name)
	}
	return v.Var + "." + p.Field, true, nil
}

type fakeEmitter struct{}

func (fakeEmitter) Entity(h Helper, e *schema.Entity) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "entity %s tag=%s\n", e.Name, e.Tag)
	for _, f := range e.Fields {
		expr, err := h.FieldExpr(f.Type)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  %s %s\n", f.Name, expr)
	}
	return b.String(), nil
}

func (fakeEmitter) Repository(h Helper, e *schema.Entity) (string, error) {
	var b strings.Builder
	n := h.Backend().Naming
	fmt.Fprintf(&b, "repository %s\n", h.Backend().Apply(n.RepositoryType, e.Name))
	for _, tmpl := range []string{n.Create, n.Get, n.Update, n.Delete} {
		fmt.Fprintf(&b, "  %s\n", h.MethodName(tmpl, e.Name))
	}
	for _, p := range h.Patterns(e) {
		ret, err := h.ReturnExpr(p.Returns, e.Name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  %s -> %s\n", h.Backend().MethodIdent(p.Name), ret)
	}
	return b.String(), nil
}

func (fakeEmitter) Example(h Helper, steps []ExampleStep) (string, error) {
	var b strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&b, "%s %s(%s)\n", s.Kind, s.Method, strings.Join(s.Args, ", "))
	}
	return b.String(), nil
}

func testBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := LoadBackend(DefaultBackendRoot(), "python")
	require.NoError(t, err)
	return b
}

func testSchema() *schema.Schema {
	user := &schema.Entity{
		Name: "User",
		Tag:  "USER",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "email", Type: schema.TypeString},
			{Name: "created_at", Type: schema.TypeTimestamp},
		},
		PartitionKey: schema.MustParseKeyTemplate("USER#{id}"),
		SortKey:      schema.MustParseKeyTemplate("PROFILE"),
	}
	order := &schema.Entity{
		Name: "Order",
		Tag:  "ORDER",
		Fields: []schema.Field{
			{Name: "user_id", Type: schema.TypeUUID},
			{Name: "order_id", Type: schema.TypeUUID},
			{Name: "total", Type: schema.TypeFloat},
		},
		PartitionKey: schema.MustParseKeyTemplate("USER#{user_id}"),
		SortKey:      schema.MustParseKeyTemplate("ORDER#{order_id}"),
	}
	return &schema.Schema{
		Tables: []*schema.Table{{
			Name:         "app",
			PartitionKey: schema.KeyDef{Name: "pk", Kind: "S"},
			SortKey:      &schema.KeyDef{Name: "sk", Kind: "S"},
			Entities:     []*schema.Entity{user, order},
		}},
		Patterns: []*schema.AccessPattern{
			{
				Name:   "get_orders_by_user",
				Op:     schema.OpQuery,
				Table:  "app",
				Entity: "Order",
				Params: []schema.Param{
					{Name: "user_id", Type: schema.ParamType(schema.TypeUUID), Entity: "User", Field: "id"},
					{Name: "limit", Type: schema.ParamLimit},
				},
				Returns: schema.ReturnEntityList,
			},
			{
				Name:   "get_user_by_email",
				Op:     schema.OpQuery,
				Table:  "app",
				Entity: "User",
				Index:  "by_email",
				Params: []schema.Param{
					{Name: "email", Type: schema.ParamType(schema.TypeString)},
				},
				Returns: schema.ReturnEntity,
			},
		},
	}
}

func testConfig(t *testing.T, s *schema.Schema) *Config {
	t.Helper()
	cfg, err := NewConfig(
		WithSchema(s),
		WithBackend(testBackend(t)),
		WithMapper(completeMapper()),
		WithSamples(fakeSamples{}),
		WithFormatter(fakeFormatter{}),
		WithResolver(fakeResolver{}),
		WithEmitter(fakeEmitter{}),
	)
	require.NoError(t, err)
	return cfg
}

func TestNewConfig(t *testing.T) {
	t.Run("MissingEmitter", func(t *testing.T) {
		_, err := NewConfig(
			WithSchema(testSchema()),
			WithBackend(testBackend(t)),
			WithMapper(completeMapper()),
			WithSamples(fakeSamples{}),
			WithFormatter(fakeFormatter{}),
			WithResolver(fakeResolver{}),
		)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
	t.Run("IncompleteMapper", func(t *testing.T) {
		m := completeMapper()
		delete(m.fields, schema.TypeJSON)
		_, err := NewConfig(
			WithSchema(testSchema()),
			WithBackend(testBackend(t)),
			WithMapper(m),
			WithSamples(fakeSamples{}),
			WithFormatter(fakeFormatter{}),
			WithResolver(fakeResolver{}),
			WithEmitter(fakeEmitter{}),
		)
		require.Error(t, err)
		assert.True(t, IsContractError(err))
		assert.Contains(t, err.Error(), "json")
	})
}

func TestGeneratorEntity(t *testing.T) {
	g := NewGenerator(testConfig(t, testSchema()))
	e, _ := g.Schema().Entity("User")

	src, err := g.GenerateEntity(e)
	require.NoError(t, err)
	assert.Contains(t, src, "entity User tag=USER")
	assert.Contains(t, src, "email T")
}

func TestGeneratorRepository(t *testing.T) {
	g := NewGenerator(testConfig(t, testSchema()))
	e, _ := g.Schema().Entity("Order")

	src, err := g.GenerateRepository(e)
	require.NoError(t, err)
	assert.Contains(t, src, "create_order")
	assert.Contains(t, src, "delete_order")
	assert.Contains(t, src, "get_orders_by_user -> R")
}

func TestGenerateAll(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(testConfig(t, testSchema()))

	report, err := g.GenerateAll(dir, true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Entities)
	assert.Equal(t, 2, report.Repositories)
	assert.Zero(t, report.SkippedPatterns)
	assert.NotEmpty(t, report.Fingerprint)

	for _, name := range []string{
		"user.py", "user_repository.py",
		"order.py", "order_repository.py",
		"storage.py", "usage_example.py", ManifestFile,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s", name)
	}

	example, err := os.ReadFile(filepath.Join(dir, "usage_example.py"))
	require.NoError(t, err)
	// Creates precede reads, reads precede pattern calls, deletes come last.
	text := string(example)
	assert.Less(t, strings.Index(text, "create create_user"), strings.Index(text, "get get_user"))
	assert.Less(t, strings.Index(text, "get get_user"), strings.Index(text, "pattern get_orders_by_user"))
	assert.Less(t, strings.Index(text, "pattern get_orders_by_user"), strings.Index(text, "delete delete_user"))
	assert.Contains(t, text, "pattern get_orders_by_user(user.id, 10)")
}

func TestGenerateAllDeterministic(t *testing.T) {
	read := func(t *testing.T) map[string]string {
		dir := t.TempDir()
		g := NewGenerator(testConfig(t, testSchema()))
		_, err := g.GenerateAll(dir, true)
		require.NoError(t, err)
		out := map[string]string{}
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			out[e.Name()] = string(data)
		}
		return out
	}
	assert.Equal(t, read(t), read(t))
}

// An entity whose file name shadows a backend support file must fail the
// run instead of silently dropping one of the two.
func TestGenerateAllSupportCollision(t *testing.T) {
	s := testSchema()
	s.Tables[0].Entities = append(s.Tables[0].Entities, &schema.Entity{
		Name:         "Storage",
		Tag:          "STORAGE",
		Fields:       []schema.Field{{Name: "id", Type: schema.TypeUUID}},
		PartitionKey: schema.MustParseKeyTemplate("STORAGE#{id}"),
	})
	g := NewGenerator(testConfig(t, s))
	_, err := g.GenerateAll(t.TempDir(), false)
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.Contains(t, err.Error(), "storage.py")
}

func TestExampleSteps(t *testing.T) {
	t.Run("SyntheticSkips", func(t *testing.T) {
		s := testSchema()
		s.Patterns = append(s.Patterns, &schema.AccessPattern{
			Name:   "get_by_session",
			Op:     schema.OpQuery,
			Table:  "app",
			Entity: "User",
			Params: []schema.Param{
				{Name: "session_id", Type: schema.ParamType(schema.TypeString), Entity: "Session", Synthetic: true},
			},
			Returns: schema.ReturnEntity,
		})
		g := NewGenerator(testConfig(t, s))
		steps, skipped, err := g.ExampleSteps()
		require.NoError(t, err)
		assert.Equal(t, 1, skipped)
		for _, step := range steps {
			assert.NotEqual(t, "get_by_session", step.Method)
		}
	})
	t.Run("NonSyntheticUnresolvableFails", func(t *testing.T) {
		s := testSchema()
		s.Patterns = append(s.Patterns, &schema.AccessPattern{
			Name:   "get_by_session",
			Op:     schema.OpQuery,
			Table:  "app",
			Entity: "User",
			Params: []schema.Param{
				{Name: "session_id", Type: schema.ParamType(schema.TypeString), Entity: "Session"},
			},
			Returns: schema.ReturnEntity,
		})
		g := NewGenerator(testConfig(t, s))
		_, _, err := g.ExampleSteps()
		require.Error(t, err)
		assert.True(t, IsGenerationError(err))
	})
	t.Run("DefaultsParamSources", func(t *testing.T) {
		// A param with no explicit source resolves against the pattern's
		// own entity and its own name.
		g := NewGenerator(testConfig(t, testSchema()))
		steps, _, err := g.ExampleSteps()
		require.NoError(t, err)
		var found bool
		for _, step := range steps {
			if step.Method == "get_user_by_email" {
				found = true
				assert.Equal(t, []string{"user.email"}, step.Args)
			}
		}
		assert.True(t, found)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("Standard", func(t *testing.T) {
		eng, err := DefaultRegistry().New("standard", testConfig(t, testSchema()))
		require.NoError(t, err)
		assert.NotNil(t, eng)
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := DefaultRegistry().New("turbo", testConfig(t, testSchema()))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "standard")
	})
	t.Run("ImmutableAfterConstruction", func(t *testing.T) {
		ctors := map[string]Constructor{
			"standard": func(c *Config) (Engine, error) { return NewGenerator(c), nil },
		}
		r := NewRegistry(ctors)
		ctors["injected"] = ctors["standard"]
		assert.Equal(t, []string{"standard"}, r.Kinds())
	})
}
