package introspect

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanknguyen/tablegen/schema"
)

func TestRegistry(t *testing.T) {
	t.Run("Dialects", func(t *testing.T) {
		assert.Equal(t, []string{"mysql", "postgres"}, DefaultRegistry().Dialects())
	})
	t.Run("Unknown", func(t *testing.T) {
		_, err := DefaultRegistry().New("oracle", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mysql, postgres")
	})
}

func TestFieldType(t *testing.T) {
	for input, want := range map[string]schema.FieldType{
		"varchar":                  schema.TypeString,
		"bigint":                   schema.TypeInt,
		"double precision":         schema.TypeFloat,
		"boolean":                  schema.TypeBool,
		"timestamp with time zone": schema.TypeTimestamp,
		"uuid":                     schema.TypeUUID,
		"bytea":                    schema.TypeBytes,
		"jsonb":                    schema.TypeJSON,
		"enum":                     schema.TypeString,
	} {
		assert.Equal(t, want, fieldType(input), "data type %s", input)
	}
}

func TestMySQLScaffold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))
	mock.ExpectQuery("SELECT column_name, data_type, is_nullable FROM information_schema.columns").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "char", "NO").
			AddRow("email", "varchar", "NO").
			AddRow("created_at", "datetime", "YES"))
	mock.ExpectQuery("SELECT column_name FROM information_schema.key_column_usage").
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id"))

	s, err := Scaffold(context.Background(), NewMySQL(db), "app")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, s.Tables, 1)
	table := s.Tables[0]
	assert.Equal(t, "app", table.Name)
	require.Len(t, table.Entities, 1)

	e := table.Entities[0]
	assert.Equal(t, "User", e.Name)
	assert.Equal(t, "USER", e.Tag)
	assert.Equal(t, "USER#{id}", e.PartitionKey.String())
	assert.Equal(t, "USER", e.SortKey.String())
	require.Len(t, e.Fields, 3)
	assert.Equal(t, schema.TypeTimestamp, e.Fields[2].Type)
}

func TestPostgresScaffold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("order_items"))
	mock.ExpectQuery("SELECT column_name, data_type, is_nullable FROM information_schema.columns").
		WithArgs("order_items").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("order_id", "uuid", "NO").
			AddRow("line_no", "integer", "NO").
			AddRow("total", "numeric", "NO"))
	mock.ExpectQuery("SELECT kcu.column_name").
		WithArgs("order_items").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("order_id").
			AddRow("line_no"))

	s, err := Scaffold(context.Background(), NewPostgres(db), "app")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	e := s.Tables[0].Entities[0]
	assert.Equal(t, "OrderItem", e.Name)
	assert.Equal(t, "ORDER_ITEM#{order_id}", e.PartitionKey.String())
	// Composite primary keys spill into the sort key.
	assert.Equal(t, "ORDER_ITEM#{line_no}", e.SortKey.String())
}

func TestScaffoldNoPrimaryKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("events"))
	mock.ExpectQuery("SELECT column_name, data_type, is_nullable FROM information_schema.columns").
		WithArgs("events").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("name", "varchar", "NO"))
	mock.ExpectQuery("SELECT column_name FROM information_schema.key_column_usage").
		WithArgs("events").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	s, err := Scaffold(context.Background(), NewMySQL(db), "app")
	require.NoError(t, err)
	assert.Equal(t, "EVENT#{name}", s.Tables[0].Entities[0].PartitionKey.String())
}
