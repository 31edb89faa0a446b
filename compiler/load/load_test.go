package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanknguyen/tablegen/schema"
)

const doc = `
tables:
  - name: app
    partition_key: {name: pk, kind: S}
    sort_key: {name: sk, kind: S}
entities:
  app:
    - name: UserProfile
      partition_key: "USER#{id}"
      sort_key: "PROFILE"
      fields:
        - {name: id, type: uuid}
        - {name: email, type: string}
access_patterns:
  - name: get_user
    operation: get
    table: app
    entity: UserProfile
    returns: entity
    reads_per_second: 120
`

func TestParseAndDecode(t *testing.T) {
	raw, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Contains(t, raw, "tables")

	s, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)

	e, ok := s.Entity("UserProfile")
	require.True(t, ok)
	assert.Equal(t, "USER_PROFILE", e.Tag, "tag defaults to upper-snake entity name")
	assert.Equal(t, []string{"id"}, e.PartitionKey.Args())

	require.Len(t, s.Patterns, 1)
	assert.Equal(t, schema.OpGet, s.Patterns[0].Op)
	assert.Equal(t, 120.0, s.Patterns[0].ReadsPerSecond)
}

func TestDecodeUnknownTable(t *testing.T) {
	raw, err := Parse([]byte("tables: []\nentities:\n  ghost:\n    - {name: U, partition_key: \"U#{id}\", fields: [{name: id, type: string}]}\n"))
	require.NoError(t, err)
	_, err = Decode(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown table "ghost"`)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := File(path)
	require.NoError(t, err)
	assert.Len(t, s.Tables, 1)

	_, err = File(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	raw, err := Parse([]byte(`{"tables": [{"name": "app", "partition_key": {"name": "pk", "kind": "S"}}]}`))
	require.NoError(t, err)
	s, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, "app", s.Tables[0].Name)
}

func TestExplicitTagKept(t *testing.T) {
	raw, err := Parse([]byte(`
tables:
  - name: app
    partition_key: {name: pk, kind: S}
entities:
  app:
    - name: User
      tag: USR
      partition_key: "USR#{id}"
      fields:
        - {name: id, type: string}
`))
	require.NoError(t, err)
	s, err := Decode(raw)
	require.NoError(t, err)
	e, _ := s.Entity("User")
	assert.Equal(t, "USR", e.Tag)
}
