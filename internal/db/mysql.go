package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLSource renders the tables of one MySQL database as DDL.
type MySQLSource struct {
	db         *sql.DB
	schemaName string
}

// NewMySQLSource connects with a driver DSN such as
// user:pass@tcp(localhost:3306)/app. The DSN must name a database.
func NewMySQLSource(ctx context.Context, dsn string) (*MySQLSource, error) {
	schemaName, err := ParseDatabaseName(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newMySQLSource(db, schemaName), nil
}

func newMySQLSource(db *sql.DB, schemaName string) *MySQLSource {
	return &MySQLSource{db: db, schemaName: schemaName}
}

// ParseDatabaseName returns the database named by a MySQL DSN
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("MySQL DSN does not name a database")
	}
	return cfg.DBName, nil
}

// Close closes the database connection
func (s *MySQLSource) Close() error {
	return s.db.Close()
}

// DDL renders every base table accepted by f, ordered by name.
func (s *MySQLSource) DDL(ctx context.Context, f Filter) (string, error) {
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

func (s *MySQLSource) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := s.db.QueryContext(ctx, query, s.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *MySQLSource) table(ctx context.Context, name string) (tableDef, error) {
	t := tableDef{Name: name}

	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			column_key
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query, s.schemaName, name)
	if err != nil {
		return t, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var (
			colName, dataType, nullable, key string
			length, precision, scale         sql.NullInt64
		)
		if err := rows.Scan(&colName, &dataType, &nullable, &length, &precision, &scale, &key); err != nil {
			return t, err
		}

		t.Columns = append(t.Columns, columnDef{
			Name:     colName,
			Type:     mysqlType(dataType, length, precision, scale),
			Nullable: nullable == "YES",
		})
		if key == "PRI" {
			keys = append(keys, colName)
		}
	}
	if err := rows.Err(); err != nil {
		return t, err
	}

	t.markPrimaryKey(keys)
	return t, nil
}

// mysqlType keeps lengths for character types and precision for fixed-point
// types; every other length is dropped.
func mysqlType(dataType string, length, precision, scale sql.NullInt64) string {
	switch dataType {
	case "char", "varchar", "binary", "varbinary":
		if length.Valid {
			return withLength(dataType, &length.Int64, nil)
		}
	case "decimal", "numeric":
		if precision.Valid && scale.Valid {
			return withLength(dataType, &precision.Int64, &scale.Int64)
		}
	}
	return normalizeType(dataType)
}
