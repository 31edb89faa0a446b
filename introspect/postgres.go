package introspect

import (
	"context"
	"database/sql"
)

// Postgres introspects the public schema of a PostgreSQL connection.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL introspector over an open handle.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Dialect implements Introspector.
func (*Postgres) Dialect() string { return "postgres" }

// Tables implements Introspector.
func (p *Postgres) Tables(ctx context.Context) ([]string, error) {
	const q = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	return queryStrings(ctx, p.db, q)
}

// Columns implements Introspector.
func (p *Postgres) Columns(ctx context.Context, table string) ([]Column, error) {
	const q = `SELECT column_name, data_type, is_nullable FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`
	return queryColumns(ctx, p.db, q, table)
}

// PrimaryKey implements Introspector.
func (p *Postgres) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	const q = `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = 'public' AND tc.constraint_type = 'PRIMARY KEY' AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`
	return queryStrings(ctx, p.db, q, table)
}
