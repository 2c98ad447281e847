package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultPostgresSchema is read when no schema name is given.
const DefaultPostgresSchema = "public"

// PostgresSource renders the tables of one PostgreSQL schema as DDL.
type PostgresSource struct {
	conn   *pgx.Conn
	schema string
}

// NewPostgresSource connects to connString and reads schemaName, or
// DefaultPostgresSchema when it is empty.
func NewPostgresSource(ctx context.Context, connString, schemaName string) (*PostgresSource, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if schemaName == "" {
		schemaName = DefaultPostgresSchema
	}
	return &PostgresSource{conn: conn, schema: schemaName}, nil
}

// Close closes the connection
func (s *PostgresSource) Close() error {
	return s.conn.Close(context.Background())
}

// DDL renders every base table accepted by f, ordered by name.
func (s *PostgresSource) DDL(ctx context.Context, f Filter) (string, error) {
	names, err := s.tableNames(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get table names: %w", err)
	}

	var tables []tableDef
	for _, name := range names {
		if !f.Match(name) {
			continue
		}
		t, err := s.table(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to read table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return renderTables(tables)
}

func (s *PostgresSource) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := s.conn.Query(ctx, query, s.schema)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresSource) table(ctx context.Context, name string) (tableDef, error) {
	t := tableDef{Name: name}

	query := `
		SELECT
			column_name,
			udt_name,
			is_nullable,
			character_maximum_length,
			numeric_precision,
			numeric_scale
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := s.conn.Query(ctx, query, s.schema, name)
	if err != nil {
		return t, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			colName, udtName, nullable string
			length, precision, scale   *int64
		)
		if err := rows.Scan(&colName, &udtName, &nullable, &length, &precision, &scale); err != nil {
			return t, err
		}

		t.Columns = append(t.Columns, columnDef{
			Name:     colName,
			Type:     postgresType(udtName, length, precision, scale),
			Nullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return t, err
	}

	keys, err := s.primaryKey(ctx, name)
	if err != nil {
		return t, fmt.Errorf("failed to read primary key: %w", err)
	}
	t.markPrimaryKey(keys)
	return t, nil
}

func (s *PostgresSource) primaryKey(ctx context.Context, name string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	rows, err := s.conn.Query(ctx, query, s.schema, name)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// udt names carrying a width digit, which the DDL grammar cannot spell
var postgresUDTs = map[string]string{
	"int2":   "SMALLINT",
	"int4":   "INTEGER",
	"int8":   "BIGINT",
	"float4": "REAL",
	"float8": "DOUBLE",
	"bool":   "BOOLEAN",
}

func postgresType(udtName string, length, precision, scale *int64) string {
	if name, ok := postgresUDTs[udtName]; ok {
		return name
	}
	switch udtName {
	case "varchar", "bpchar":
		return withLength(udtName, length, nil)
	case "numeric":
		if precision != nil && scale != nil {
			return withLength(udtName, precision, scale)
		}
	}
	return normalizeType(udtName)
}
