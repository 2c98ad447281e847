package ddlgen

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersDDL = `CREATE TABLE Users (Id INT PRIMARY KEY, Name VARCHAR(50) NOT NULL, Email VARCHAR(100));`

const shopDDL = `
CREATE TABLE customers (customer_id INT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE orders (order_id INT PRIMARY KEY, placed_at DATETIME NOT NULL, total DECIMAL(10,2));
CREATE TABLE schema_migrations (version_id BIGINT NOT NULL);
`

func TestGenerate(t *testing.T) {
	src, err := Generate(usersDDL, nil)
	require.NoError(t, err)

	code := string(src)
	assert.Contains(t, code, "package repository")
	assert.Contains(t, code, "type Users struct")
	assert.Contains(t, code, "Email sql.NullString `json:\"email\"`")
	assert.Contains(t, code, "func NewRepoUsers(db *sql.DB) *RepoUsers")

	again, err := Generate(usersDDL, nil)
	require.NoError(t, err)
	assert.Equal(t, src, again, "output is deterministic")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		ddl    string
		target any
	}{
		{"no tables", "SELECT 1;", new(*NoTablesFoundError)},
		{"no columns", "CREATE TABLE t (PRIMARY KEY (a));", new(*NoColumnsFoundError)},
		{"no primary key", "CREATE TABLE t (name TEXT);", new(*PrimaryKeyNotFoundError)},
		{"duplicate table", "CREATE TABLE t (id INT);\nCREATE TABLE t (id INT);", new(*DuplicateTableError)},
		{"field collision", "CREATE TABLE t (id INT, a_b TEXT, A_B TEXT);", new(*GenerateError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Generate(tt.ddl, nil)
			assert.Nil(t, src)
			assert.ErrorAs(t, err, tt.target)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestParseFilters(t *testing.T) {
	s, err := Parse(shopDDL, &Options{ExcludeTables: []string{"schema_migrations"}})
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)
	assert.Equal(t, "customers", s.Tables[0].Name)
	assert.Equal(t, "orders", s.Tables[1].Name)

	s, err = Parse(shopDDL, &Options{Tables: []string{"orders"}})
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, "orders", s.Tables[0].Name)

	_, err = Parse(shopDDL, &Options{Tables: []string{"missing"}})
	assert.ErrorAs(t, err, new(*NoTablesFoundError))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, Write(usersDDL, nil, &OutputOptions{Writer: &buf}))
	assert.Contains(t, buf.String(), "type RepoUsers struct")

	file := filepath.Join(dir, "gen", "repo.go")
	require.NoError(t, Write(usersDDL, &Options{Package: "gen"}, &OutputOptions{OutputFile: file}))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package gen")

	out := filepath.Join(dir, "store")
	require.NoError(t, Write(shopDDL, &Options{ExcludeTables: []string{"schema_migrations"}}, &OutputOptions{OutputDir: out}))
	for _, name := range []string{"repository.go", "customers.go", "orders.go"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.NoFileExists(t, filepath.Join(out, "schema_migrations.go"))
}

func TestWriteFailureLeavesNoOutput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "repo.go")

	err := Write("CREATE TABLE t (name TEXT);", nil, &OutputOptions{OutputFile: file})
	assert.ErrorAs(t, err, new(*PrimaryKeyNotFoundError))
	assert.NoFileExists(t, file)
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Describe(usersDDL, nil, "text", &buf))
	assert.Contains(t, buf.String(), "TABLE Users (PK: Id)")
	assert.Contains(t, buf.String(), "Email: VARCHAR(100) -> sql.NullString")

	assert.Error(t, Describe(usersDDL, nil, "yaml", &buf))
}

func TestGenerateFromSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE customers (customer_id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	var buf bytes.Buffer
	err = GenerateFromSource(context.Background(), "sqlite://"+path, &Options{Singularize: true}, &OutputOptions{Writer: &buf})
	require.NoError(t, err)

	code := buf.String()
	assert.Contains(t, code, "type Customer struct")
	assert.Contains(t, code, "func (repo *RepoCustomer) GetCustomerByID(ctx context.Context, id int) (*Customer, error)")
	assert.Contains(t, code, `"INSERT INTO customers (name, email) VALUES (@name, @email)"`)
}

func TestLoadDDLErrors(t *testing.T) {
	ctx := context.Background()

	_, err := LoadDDL(ctx, filepath.Join(t.TempDir(), "missing.sql"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, IsValidation(err))

	_, err = LoadDDL(ctx, "oracle://db", nil)
	assert.Error(t, err)
}

func TestRunTargets(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "shop.sql")
	require.NoError(t, os.WriteFile(input, []byte(shopDDL), 0o644))

	targets := []Target{
		{
			Source:  input,
			Options: Options{Package: "customers", Tables: []string{"customers"}},
			Output:  OutputOptions{OutputFile: filepath.Join(dir, "customers", "repo.go")},
		},
		{
			Source:  "file://" + input,
			Options: Options{Package: "orders", Tables: []string{"orders"}},
			Output:  OutputOptions{OutputDir: filepath.Join(dir, "orders")},
		},
	}
	require.NoError(t, RunTargets(context.Background(), targets))

	data, err := os.ReadFile(filepath.Join(dir, "customers", "repo.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package customers")
	assert.NotContains(t, string(data), "type Orders struct")
	assert.FileExists(t, filepath.Join(dir, "orders", "orders.go"))
}

func TestRunTargetsFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.sql")
	require.NoError(t, os.WriteFile(input, []byte("CREATE TABLE t (name TEXT);"), 0o644))

	err := RunTargets(context.Background(), []Target{
		{Source: input, Output: OutputOptions{OutputFile: filepath.Join(dir, "out.go")}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "out.go")
}

func TestRunTargetsSharedDestination(t *testing.T) {
	err := RunTargets(context.Background(), []Target{
		{Source: "a.sql", Output: OutputOptions{OutputDir: "out"}},
		{Source: "b.sql", Output: OutputOptions{OutputDir: "./out"}},
	})
	assert.ErrorContains(t, err, "both write to out")
}
