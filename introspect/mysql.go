package introspect

import (
	"context"
	"database/sql"
	"fmt"

	// Drivers for the built-in dialects; Open selects one by name.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Open opens a database handle for one of the built-in dialects and pings
// it, so a bad DSN fails here rather than on the first catalog query.
func Open(ctx context.Context, dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// MySQL introspects the current database of a MySQL connection.
type MySQL struct {
	db *sql.DB
}

// NewMySQL creates a MySQL introspector over an open handle.
func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

// Dialect implements Introspector.
func (*MySQL) Dialect() string { return "mysql" }

// Tables implements Introspector.
func (m *MySQL) Tables(ctx context.Context) ([]string, error) {
	const q = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	return queryStrings(ctx, m.db, q)
}

// Columns implements Introspector.
func (m *MySQL) Columns(ctx context.Context, table string) ([]Column, error) {
	const q = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`
	return queryColumns(ctx, m.db, q, table)
}

// PrimaryKey implements Introspector.
func (m *MySQL) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	const q = `SELECT column_name FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`
	return queryStrings(ctx, m.db, q, table)
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryColumns(ctx context.Context, db *sql.DB, query string, args ...any) ([]Column, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Column
	for rows.Next() {
		var c Column
		var nullable string
		if err := rows.Scan(&c.Name, &c.DataType, &nullable); err != nil {
			return nil, err
		}
		c.Nullable = nullable == "YES"
		out = append(out, c)
	}
	return out, rows.Err()
}
