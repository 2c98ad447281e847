package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ddlgen/internal/parser"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantKind Kind
		wantConn string
		wantErr  bool
	}{
		{"postgres", "postgres://u:p@localhost:5432/app", KindPostgres, "postgres://u:p@localhost:5432/app", false},
		{"postgresql", "postgresql://localhost/app", KindPostgres, "postgresql://localhost/app", false},
		{"mysql", "mysql://u:p@tcp(localhost:3306)/app", KindMySQL, "u:p@tcp(localhost:3306)/app", false},
		{"sqlite", "sqlite://data/app.db", KindSQLite, "data/app.db", false},
		{"file scheme", "file:///tmp/schema.sql", KindFile, "/tmp/schema.sql", false},
		{"plain path", "schema.sql", KindFile, "schema.sql", false},
		{"empty", "", "", "", true},
		{"unknown scheme", "mongodb://localhost", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, conn, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantConn, conn)
		})
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		table  string
		want   bool
	}{
		{"zero accepts all", Filter{}, "users", true},
		{"listed", Filter{Tables: []string{"users"}}, "users", true},
		{"listed case-insensitive", Filter{Tables: []string{"USERS"}}, "users", true},
		{"not listed", Filter{Tables: []string{"users"}}, "orders", false},
		{"excluded", Filter{Exclude: []string{"schema_migrations"}}, "schema_migrations", false},
		{"listed and excluded", Filter{Tables: []string{"users"}, Exclude: []string{"users"}}, "users", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.table))
		})
	}
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Exclude: []string{"x"}}.IsZero())
}

const fileDDL = `-- users and their orders
CREATE TABLE users (id INT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE orders (order_id INT, total DECIMAL(10,2));
CREATE TABLE audit_log (log_id INT, message TEXT);
`

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(fileDDL), 0o644))

	ctx := context.Background()
	src, err := Open(ctx, path)
	require.NoError(t, err)
	defer src.Close()

	ddl, err := src.DDL(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, fileDDL, ddl, "unfiltered file is returned as is")

	ddl, err = src.DDL(ctx, Filter{Exclude: []string{"audit_log"}})
	require.NoError(t, err)

	s, err := parser.Parse(ddl, nil)
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)
	assert.Equal(t, "users", s.Tables[0].Name)
	assert.Equal(t, "orders", s.Tables[1].Name)
	assert.Equal(t, "DECIMAL(10,2)", s.Tables[1].Column("total").DeclaredType)
}

func TestFileSourceMissing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.sql"))
	_, err := src.DDL(context.Background(), Filter{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRender(t *testing.T) {
	table := tableDef{
		Name: "users",
		Columns: []columnDef{
			{Name: "id", Type: "INTEGER"},
			{Name: "email", Type: "VARCHAR(255)", Nullable: true},
			{Name: "balance", Type: "NUMERIC(12,2)"},
		},
	}
	table.markPrimaryKey([]string{"id"})

	got, err := table.render()
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE users (
    id INTEGER NOT NULL PRIMARY KEY,
    email VARCHAR(255),
    balance NUMERIC(12,2) NOT NULL
);
`, got)

	s, err := parser.Parse(got, nil)
	require.NoError(t, err)
	users := s.Tables[0]
	assert.Equal(t, "id", users.PrimaryKey.Name)
	assert.True(t, users.Column("email").IsNullable)
	assert.False(t, users.Column("balance").IsNullable)
}

func TestRenderCompositeKeyIsUnmarked(t *testing.T) {
	table := tableDef{
		Name:    "memberships",
		Columns: []columnDef{{Name: "user_id", Type: "INT"}, {Name: "group_id", Type: "INT"}},
	}
	table.markPrimaryKey([]string{"user_id", "group_id"})

	got, err := table.render()
	require.NoError(t, err)
	assert.NotContains(t, got, "PRIMARY KEY")
}

func TestRenderRejectsInexpressibleNames(t *testing.T) {
	_, err := tableDef{Name: "order items", Columns: []columnDef{{Name: "id", Type: "INT"}}}.render()
	assert.Error(t, err)

	_, err = tableDef{Name: "items", Columns: []columnDef{{Name: "unit price", Type: "INT"}}}.render()
	assert.Error(t, err)
}

func TestNormalizeType(t *testing.T) {
	tests := map[string]string{
		"INTEGER":          "INTEGER",
		"varchar(50)":      "VARCHAR(50)",
		"VARCHAR (50)":     "VARCHAR(50)",
		"numeric(10, 2)":   "NUMERIC(10,2)",
		"DOUBLE PRECISION": "DOUBLE",
		"int4":             "INT",
		"timestamptz":      "TIMESTAMPTZ",
		"":                 "BLOB",
		"UNSIGNED BIG INT": "UNSIGNED",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeType(in), in)
	}
}
