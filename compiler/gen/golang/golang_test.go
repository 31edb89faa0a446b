package golang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanknguyen/tablegen/compiler/gen"
	"github.com/tuanknguyen/tablegen/schema"
)

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
	return &schema.Schema{
		Tables: []*schema.Table{{
			Name:         "app",
			PartitionKey: schema.KeyDef{Name: "pk", Kind: "S"},
			SortKey:      &schema.KeyDef{Name: "sk", Kind: "S"},
			GSIs: []schema.GSI{{
				Name:         "by_email",
				PartitionKey: schema.KeyDef{Name: "email", Kind: "S"},
			}},
			Entities: []*schema.Entity{user},
		}},
		Patterns: []*schema.AccessPattern{{
			Name:   "get_user_by_email",
			Op:     schema.OpQuery,
			Table:  "app",
			Entity: "User",
			Index:  "by_email",
			Params: []schema.Param{
				{Name: "email", Type: schema.ParamType(schema.TypeString)},
			},
			Returns: schema.ReturnEntity,
		}},
	}
}

func testGenerator(t *testing.T) gen.Engine {
	t.Helper()
	return engineFor(t, testSchema())
}

func engineFor(t *testing.T, s *schema.Schema) gen.Engine {
	t.Helper()
	backend, err := gen.LoadBackend(gen.DefaultBackendRoot(), "go")
	require.NoError(t, err)
	opts := append(Options(), gen.WithSchema(s), gen.WithBackend(backend))
	cfg, err := gen.NewConfig(opts...)
	require.NoError(t, err)
	eng, err := gen.DefaultRegistry().New("standard", cfg)
	require.NoError(t, err)
	return eng
}

func TestMapperComplete(t *testing.T) {
	require.NoError(t, gen.ValidateCompleteness("go", Mapper{}))
}

func TestEntityEmission(t *testing.T) {
	eng := testGenerator(t)
	src, err := eng.GenerateEntity(testSchema().Tables[0].Entities[0])
	require.NoError(t, err)

	assert.Contains(t, src, "// Code generated by tablegen. DO NOT EDIT.")
	assert.Contains(t, src, "package store")
	assert.Contains(t, src, "type User struct {")
	assert.Contains(t, src, "`dynamodbav:\"id\"`")
	assert.Contains(t, src, "`dynamodbav:\"created_at\"`")
	assert.Contains(t, src, `const UserTag = "USER"`)

	t.Run("KeyPathsShareTemplate", func(t *testing.T) {
		assert.Contains(t, src, "func (user *User) Key() (string, *string) {")
		assert.Contains(t, src, `fmt.Sprintf("USER#%v", user.Id)`)
		assert.Contains(t, src, "func UserKeyFromArgs(id uuid.UUID) (string, *string) {")
		assert.Contains(t, src, `fmt.Sprintf("USER#%v", id)`)
		assert.Contains(t, src, `aws.String("PROFILE")`)
	})
	t.Run("ItemRoundTrip", func(t *testing.T) {
		assert.Contains(t, src, "attributevalue.MarshalMap(user)")
		assert.Contains(t, src, "attributevalue.UnmarshalMap(item, user)")
		assert.Contains(t, src, `item["entity"] = &types.AttributeValueMemberS{Value: UserTag}`)
	})
}

func TestRepositoryEmission(t *testing.T) {
	eng := testGenerator(t)
	src, err := eng.GenerateRepository(testSchema().Tables[0].Entities[0])
	require.NoError(t, err)

	assert.Contains(t, src, "type UserRepository struct {")
	assert.Contains(t, src, "func NewUserRepository(store *TableStore) *UserRepository {")
	assert.Contains(t, src, "func (r *UserRepository) CreateUser(ctx context.Context, user *User) (*User, error) {")
	assert.Contains(t, src, "func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {")
	assert.Contains(t, src, "func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) (bool, error) {")

	t.Run("IndexPattern", func(t *testing.T) {
		assert.Contains(t, src, "func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {")
		assert.Contains(t, src, `aws.String("by_email")`)
	})
}

func TestWritePatternEmission(t *testing.T) {
	archive := func(params ...schema.Param) *schema.Schema {
		s := testSchema()
		s.Patterns = append(s.Patterns, &schema.AccessPattern{
			Name:    "archive_user",
			Op:      schema.OpPut,
			Table:   "app",
			Entity:  "User",
			Params:  params,
			Returns: schema.ReturnEntity,
		})
		return s
	}

	t.Run("BodyUsesEntityRefParam", func(t *testing.T) {
		s := archive(schema.Param{Name: "snapshot", Type: schema.ParamEntityRef, Entity: "User"})
		src, err := engineFor(t, s).GenerateRepository(s.Tables[0].Entities[0])
		require.NoError(t, err)
		assert.Contains(t, src, "func (r *UserRepository) ArchiveUser(ctx context.Context, snapshot *User) (*User, error) {")
		assert.Contains(t, src, "item, err := snapshot.ToItem()")
		assert.Contains(t, src, "pk, sk := snapshot.Key()")
		assert.Contains(t, src, "return snapshot, nil")
	})
	t.Run("MissingEntityRefFails", func(t *testing.T) {
		s := archive(schema.Param{Name: "id", Type: schema.ParamType(schema.TypeUUID), Entity: "User", Field: "id"})
		_, err := engineFor(t, s).GenerateRepository(s.Tables[0].Entities[0])
		require.Error(t, err)
		assert.True(t, gen.IsGenerationError(err))
		assert.Contains(t, err.Error(), "no entity_ref parameter")
	})
}

func TestUpdatePatternSignature(t *testing.T) {
	s := testSchema()
	s.Patterns = append(s.Patterns, &schema.AccessPattern{
		Name:    "touch_user",
		Op:      schema.OpUpdate,
		Table:   "app",
		Entity:  "User",
		Params:  []schema.Param{{Name: "id", Type: schema.ParamType(schema.TypeUUID), Entity: "User", Field: "id"}},
		Returns: schema.ReturnEntity,
	})
	src, err := engineFor(t, s).GenerateRepository(s.Tables[0].Entities[0])
	require.NoError(t, err)
	assert.Contains(t, src, "func (r *UserRepository) TouchUser(ctx context.Context, id uuid.UUID, updates map[string]any) (*User, error) {")
}

func TestExampleNoTables(t *testing.T) {
	_, err := engineFor(t, &schema.Schema{}).GenerateAll(t.TempDir(), true)
	require.Error(t, err)
	assert.True(t, gen.IsGenerationError(err))
	assert.Contains(t, err.Error(), "no tables")
}

func TestExampleEmission(t *testing.T) {
	backend, err := gen.LoadBackend(gen.DefaultBackendRoot(), "go")
	require.NoError(t, err)
	opts := append(Options(), gen.WithSchema(testSchema()), gen.WithBackend(backend))
	cfg, err := gen.NewConfig(opts...)
	require.NoError(t, err)
	g := gen.NewGenerator(cfg)
	steps, skipped, err := g.ExampleSteps()
	require.NoError(t, err)
	assert.Zero(t, skipped)

	src, err := Emitter{}.Example(g, steps)
	require.NoError(t, err)
	assert.Contains(t, src, "func UsageExample(ctx context.Context, client *dynamodb.Client) error {")
	assert.Contains(t, src, `store := NewTableStore(client, "app")`)
	assert.Contains(t, src, "user, err := userRepo.CreateUser(ctx, &User{")
	assert.Contains(t, src, "userRepo.GetUser(ctx, user.Id)")
	assert.Contains(t, src, "userRepo.DeleteUser(ctx, user.Id)")
	// goimports resolved the raw sample expressions into imports.
	assert.Contains(t, src, `"github.com/google/uuid"`)
}

func TestGenerateAll(t *testing.T) {
	eng := testGenerator(t)
	report, err := eng.GenerateAll(t.TempDir(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entities)
	assert.Contains(t, report.Files, "user.go")
	assert.Contains(t, report.Files, "user_repository.go")
	assert.Contains(t, report.Files, "storage.go")
	assert.Contains(t, report.Files, "usage_example.go")
}
