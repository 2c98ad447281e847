// Package db loads DDL text from a file or a live database.
//
// A database source reads its catalog and renders every table back into the
// CREATE TABLE grammar the parser understands, so that a schema read from a
// server goes through exactly the same pipeline as a hand-written DDL file.
package db

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tordrt/ddlgen/internal/parser"
)

// Source produces DDL text.
type Source interface {
	// DDL returns CREATE TABLE statements for every table accepted by f.
	DDL(ctx context.Context, f Filter) (string, error)

	// Close releases the underlying connection, if any.
	Close() error
}

// Filter selects tables by name. An empty Tables list accepts every table;
// Exclude is applied afterwards.
type Filter struct {
	Tables  []string
	Exclude []string
}

// Match reports whether table passes the filter. Names compare case-insensitively.
func (f Filter) Match(table string) bool {
	if len(f.Tables) > 0 && !containsFold(f.Tables, table) {
		return false
	}
	return !containsFold(f.Exclude, table)
}

// IsZero reports whether the filter accepts every table.
func (f Filter) IsZero() bool {
	return len(f.Tables) == 0 && len(f.Exclude) == 0
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Kind names the backend behind a source URL.
type Kind string

// Supported source kinds.
const (
	KindFile     Kind = "file"
	KindSQLite   Kind = "sqlite"
	KindMySQL    Kind = "mysql"
	KindPostgres Kind = "postgres"
)

// ParseURL detects the source kind and returns the connection string or path
// the backend expects. A value without a known scheme is a file path.
func ParseURL(url string) (Kind, string, error) {
	if url == "" {
		return "", "", fmt.Errorf("source is required")
	}

	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return KindPostgres, url, nil
	case strings.HasPrefix(url, "mysql://"):
		// the driver takes a bare DSN
		return KindMySQL, strings.TrimPrefix(url, "mysql://"), nil
	case strings.HasPrefix(url, "sqlite://"):
		return KindSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "file://"):
		return KindFile, strings.TrimPrefix(url, "file://"), nil
	}

	if i := strings.Index(url, "://"); i > 0 {
		return "", "", fmt.Errorf("unsupported source scheme %q (must be a file path, file://, sqlite://, mysql://, postgres:// or postgresql://)", url[:i])
	}
	return KindFile, url, nil
}

// Open connects to the source named by url.
func Open(ctx context.Context, url string) (Source, error) {
	kind, conn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFile:
		return NewFileSource(conn), nil
	case KindSQLite:
		src, err := NewSQLiteSource(ctx, conn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
		return src, nil
	case KindMySQL:
		src, err := NewMySQLSource(ctx, conn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		return src, nil
	case KindPostgres:
		src, err := NewPostgresSource(ctx, conn, "")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", kind)
	}
}

// FileSource reads DDL from a file.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads.
func (s *FileSource) Path() string {
	return s.path
}

// DDL returns the file contents. With a non-zero filter only the matching
// CREATE TABLE statements are kept.
func (s *FileSource) DDL(_ context.Context, f Filter) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	if f.IsZero() {
		return string(data), nil
	}
	return FilterDDL(string(data), f)
}

// Close is a no-op.
func (s *FileSource) Close() error {
	return nil
}

// FilterDDL keeps the CREATE TABLE statements of ddl whose table passes f.
// Anything outside those statements is dropped.
func FilterDDL(ddl string, f Filter) (string, error) {
	stmts, err := parser.Extract(ddl)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, st := range stmts {
		if !f.Match(st.Name) {
			continue
		}
		fmt.Fprintf(&b, "CREATE TABLE %s (%s);\n", st.Name, st.Body)
	}
	return b.String(), nil
}
