package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ddlgen/internal/parser"
	"github.com/tordrt/ddlgen/internal/schema"
)

const ddl = `
CREATE TABLE Users (Id INT PRIMARY KEY, Name VARCHAR(50) NOT NULL, Email VARCHAR(100));
CREATE TABLE order_items (item_id INT, placed DATETIME NOT NULL);
`

func mustParse(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := parser.Parse(ddl, nil)
	require.NoError(t, err)
	return s
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(mustParse(t)))

	want := `TABLE Users (PK: Id)
  Id: INT PRIMARY KEY NOT NULL -> int
  Name: VARCHAR(50) NOT NULL -> string
  Email: VARCHAR(100) -> sql.NullString

TABLE order_items (PK: item_id, inferred)
  item_id: INT -> sql.NullInt32
  placed: DATETIME NOT NULL -> time.Time
`
	assert.Equal(t, want, buf.String())
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(mustParse(t)))

	out := buf.String()
	assert.Contains(t, out, "# Schema\n\n## Users\n\nPrimary key: `Id`\n")
	assert.Contains(t, out, "| Id | INT | `int` | PRIMARY KEY, NOT NULL |\n")
	assert.Contains(t, out, "| Email | VARCHAR(100) | `sql.NullString` |  |\n")
	assert.Contains(t, out, "## order_items\n\nPrimary key: `item_id` (inferred)\n")
	assert.NotContains(t, out, "inferred`")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	f, err := New("", &buf)
	require.NoError(t, err)
	assert.IsType(t, &TextFormatter{}, f)

	f, err = New("md", &buf)
	require.NoError(t, err)
	assert.IsType(t, &MarkdownFormatter{}, f)

	_, err = New("html", &buf)
	assert.Error(t, err)
}

func TestMultiFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	files := map[string][]byte{
		"repository.go": []byte("package repository\n"),
		"users.go":      []byte("package repository\n\ntype Users struct{}\n"),
	}

	require.NoError(t, NewMultiFileWriter(dir).Write(files))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"repository.go", "users.go"}, names)

	got, err := os.ReadFile(filepath.Join(dir, "users.go"))
	require.NoError(t, err)
	assert.Equal(t, files["users.go"], got)
}

func TestMultiFileWriterRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	err := NewMultiFileWriter(dir).Write(map[string][]byte{
		"a.go":         []byte("package a\n"),
		"../escape.go": []byte("package a\n"),
	})
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is left behind")
}

func TestMultiFileWriterKeepsOldFilesOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	old := []byte("package repository\n\n// old\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.go"), old, 0o644))

	// users.go is staged before the invalid name is reached
	err := NewMultiFileWriter(dir).Write(map[string][]byte{
		"users.go": []byte("package repository\n\n// new\n"),
		"zz/a.go":  []byte("package repository\n"),
	})
	require.Error(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "users.go"))
	require.NoError(t, err)
	assert.Equal(t, old, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no staged file is left behind")
}
