package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &raw))
	return raw
}

const validDoc = `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
    sort_key: {name: sk, kind: S}
    gsis:
      - name: by_email
        partition_key: {name: email, kind: S}
entities:
  app:
    - name: User
      tag: USER
      partition_key: "USER#{id}"
      sort_key: "PROFILE"
      key_arguments: [id]
      fields:
        - {name: id, type: uuid}
        - {name: email, type: string}
        - {name: age, type: int}
access_patterns:
  - name: get_user_by_email
    operation: query
    table: app
    entity: User
    index: by_email
    returns: entity
    description: Look up a user by email address.
    params:
      - {name: email, type: string, entity: User, field: email}
`

func TestValidateAccepts(t *testing.T) {
	r := Validate(decode(t, validDoc))
	require.Empty(t, r.Errors, "unexpected errors: %v", r.Errors)
	assert.True(t, r.Valid())
	assert.Empty(t, r.Warnings)
	assert.Equal(t, []string{"id", "email", "age"}, r.Inventory.Entities["User"])
	assert.Equal(t, []string{"User"}, r.Inventory.Tables["app"])
}

// N independent structural errors are all reported in one call.
func TestValidateAccumulates(t *testing.T) {
	doc := `
tables:
  - partition_key: {name: pk, kind: X}
  - name: other
`
	r := Validate(decode(t, doc))
	assert.False(t, r.Valid())
	// Three independent findings: missing table name, bad key kind,
	// missing partition key on the second table.
	require.Len(t, r.Errors, 3)
	paths := []string{r.Errors[0].Path, r.Errors[1].Path, r.Errors[2].Path}
	assert.Contains(t, paths, "tables[0].name")
	assert.Contains(t, paths, "tables[0].partition_key.kind")
	assert.Contains(t, paths, "tables[1].partition_key")
}

func TestValidateReferences(t *testing.T) {
	t.Run("unknown GSI names the pattern and index", func(t *testing.T) {
		doc := validDoc + `
  - name: get_user_by_name
    operation: query
    table: app
    entity: User
    index: by_name
    returns: entity
    description: d
`
		r := Validate(decode(t, doc))
		require.Len(t, r.Errors, 1)
		assert.Equal(t, "access_patterns[1].index", r.Errors[0].Path)
		assert.Contains(t, r.Errors[0].Message, `GSI "by_name"`)
		assert.NotEmpty(t, r.Errors[0].Suggestion)
	})

	t.Run("unknown table", func(t *testing.T) {
		doc := validDoc + `
  - name: get_thing
    operation: get
    table: missing
    entity: User
    returns: entity
    description: d
`
		r := Validate(decode(t, doc))
		require.Len(t, r.Errors, 1)
		assert.Equal(t, "access_patterns[1].table", r.Errors[0].Path)
	})

	t.Run("entity_ref must resolve", func(t *testing.T) {
		doc := validDoc + `
  - name: list_orders
    operation: query
    table: app
    entity: User
    returns: entity_list
    description: d
    params:
      - {name: owner, type: entity_ref, entity: Order}
`
		r := Validate(decode(t, doc))
		require.Len(t, r.Errors, 1)
		assert.Equal(t, "access_patterns[1].params[0].entity", r.Errors[0].Path)
	})

	t.Run("field reference must resolve on its entity", func(t *testing.T) {
		doc := validDoc + `
  - name: get_by_nickname
    operation: query
    table: app
    entity: User
    returns: entity
    description: d
    params:
      - {name: nickname, type: string, field: nickname}
`
		r := Validate(decode(t, doc))
		require.Len(t, r.Errors, 1)
		assert.Equal(t, "access_patterns[1].params[0].field", r.Errors[0].Path)
		assert.Contains(t, r.Errors[0].Message, `"User"`)
	})
}

func TestValidateKeyChecks(t *testing.T) {
	t.Run("key pattern referencing undeclared field", func(t *testing.T) {
		doc := `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
entities:
  app:
    - name: User
      partition_key: "USER#{user_id}"
      fields:
        - {name: id, type: uuid}
`
		r := Validate(decode(t, doc))
		require.Len(t, r.Errors, 1)
		assert.Contains(t, r.Errors[0].Message, `undeclared field "user_id"`)
	})

	t.Run("key_arguments must match template references", func(t *testing.T) {
		doc := `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
entities:
  app:
    - name: User
      partition_key: "USER#{id}"
      key_arguments: [email]
      fields:
        - {name: id, type: uuid}
        - {name: email, type: string}
`
		r := Validate(decode(t, doc))
		require.Len(t, r.Errors, 1)
		assert.Equal(t, "entities[app][0].key_arguments", r.Errors[0].Path)
	})

	t.Run("GSI keys must come from table attributes", func(t *testing.T) {
		doc := `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
    gsis:
      - name: by_phone
        partition_key: {name: phone, kind: S}
entities:
  app:
    - name: User
      partition_key: "USER#{id}"
      fields:
        - {name: id, type: uuid}
`
		r := Validate(decode(t, doc))
		require.Len(t, r.Errors, 1)
		assert.Contains(t, r.Errors[0].Message, `"phone"`)
	})
}

// The inventory is extracted even when semantic checks fail, so callers can
// reason about partially valid schemas.
func TestInventorySurvivesSemanticErrors(t *testing.T) {
	doc := `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
entities:
  app:
    - name: User
      partition_key: "USER#{id}"
      fields:
        - {name: id, type: uuid}
access_patterns:
  - name: broken
    operation: query
    table: nope
    entity: Nope
    returns: entity
    description: d
`
	r := Validate(decode(t, doc))
	assert.False(t, r.Valid())
	assert.Equal(t, []string{"id"}, r.Inventory.Entities["User"])
}

func TestValidateWarnings(t *testing.T) {
	doc := `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
entities:
  app:
    - name: user_record
      partition_key: "USER#{id}"
      fields:
        - {name: id, type: uuid}
        - {name: FullName, type: string}
access_patterns:
  - name: GetUser
    operation: get
    table: app
    entity: user_record
    returns: entity
`
	r := Validate(decode(t, doc))
	assert.True(t, r.Valid(), "style findings must stay warnings: %v", r.Errors)
	require.Len(t, r.Warnings, 4)
	assert.Contains(t, r.Warnings[0].Message, "not PascalCase")
}

// A present-but-empty tables list is as unusable as a missing one and
// must not reach generation.
func TestValidateEmptyTables(t *testing.T) {
	r := Validate(decode(t, "tables: []\n"))
	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "tables", r.Errors[0].Path)
	assert.Contains(t, r.Errors[0].Message, "empty")
	assert.Contains(t, r.Errors[0].Suggestion, "at least one table")
}

// Write patterns carry a whole item, so they must declare the entity_ref
// parameter the generated method body will marshal.
func TestValidateWritePatternParams(t *testing.T) {
	doc := `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
entities:
  app:
    - name: User
      tag: USER
      partition_key: "USER#{id}"
      fields:
        - {name: id, type: uuid}
access_patterns:
  - name: archive_user
    operation: %s
    table: app
    entity: User
    returns: flag
    description: Write a user snapshot.
    params:
%s
`
	withRef := `      - {name: snapshot, type: entity_ref, entity: User}`
	withoutRef := `      - {name: id, type: uuid, entity: User, field: id}`

	for _, op := range []string{"put", "batch_write", "transact_write"} {
		t.Run(op+" without entity_ref", func(t *testing.T) {
			r := Validate(decode(t, fmt.Sprintf(doc, op, withoutRef)))
			assert.False(t, r.Valid())
			require.Len(t, r.Errors, 1)
			assert.Equal(t, "access_patterns[0].params", r.Errors[0].Path)
			assert.Contains(t, r.Errors[0].Message, "no entity_ref parameter")
		})
	}
	t.Run("put with entity_ref", func(t *testing.T) {
		r := Validate(decode(t, fmt.Sprintf(doc, "put", withRef)))
		assert.True(t, r.Valid(), "unexpected errors: %v", r.Errors)
	})
	t.Run("read patterns are exempt", func(t *testing.T) {
		r := Validate(decode(t, fmt.Sprintf(doc, "scan", withoutRef)))
		assert.True(t, r.Valid(), "unexpected errors: %v", r.Errors)
	})
}

func TestIssueString(t *testing.T) {
	i := Issue{Path: "tables[0]", Message: "broken", Suggestion: "fix it"}
	assert.Equal(t, "tables[0]: broken (fix it)", i.String())
	i.Suggestion = ""
	assert.Equal(t, "tables[0]: broken", i.String())
}
