package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource renders the tables of a SQLite database as DDL.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens the database file at path
func NewSQLiteSource(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// DDL renders every user table accepted by f, ordered by name.
func (s *SQLiteSource) DDL(ctx context.Context, f Filter) (string, error) {
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

func (s *SQLiteSource) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
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

func (s *SQLiteSource) table(ctx context.Context, name string) (tableDef, error) {
	t := tableDef{Name: name}

	query := fmt.Sprintf(`PRAGMA table_info("%s")`, strings.ReplaceAll(name, `"`, `""`))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return t, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var (
			cid          int
			colName      string
			colType      string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultValue, &pk); err != nil {
			return t, err
		}

		t.Columns = append(t.Columns, columnDef{
			Name:     colName,
			Type:     normalizeType(colType),
			Nullable: notNull == 0,
		})
		if pk > 0 {
			keys = append(keys, colName)
		}
	}
	if err := rows.Err(); err != nil {
		return t, err
	}

	t.markPrimaryKey(keys)
	return t, nil
}
