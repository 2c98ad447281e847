package schema

import (
	"path"
)

// Schema is the ordered set of tables produced by one parse run
type Schema struct {
	Tables []*Table
}

// Table represents a parsed CREATE TABLE statement
type Table struct {
	Name    string
	Columns []*Column

	// PrimaryKey points into Columns. It is never nil for a table returned by NewTable.
	PrimaryKey *Column
}

// Column represents a single resolved column
type Column struct {
	Name string

	// DeclaredType is the uppercased type as written, precision included (e.g. VARCHAR(50)).
	DeclaredType string

	// SQLType is the base type key used for type mapping (e.g. VARCHAR).
	SQLType string

	IsNullable   bool
	IsPrimaryKey bool
	TargetType   TargetType
	JSONTag      string
}

// TargetType is a Go type referenced by generated code
type TargetType struct {
	// PkgPath is the import path of the package declaring the type, empty for builtins.
	PkgPath string
	Name    string
}

// String returns the type as it appears in Go source, e.g. sql.NullString
func (t TargetType) String() string {
	if t.PkgPath == "" {
		return t.Name
	}
	return path.Base(t.PkgPath) + "." + t.Name
}

// NeedsTime reports whether the type comes from the time package
func (t TargetType) NeedsTime() bool {
	return t.PkgPath == "time"
}

// IsNullWrapper reports whether the type is one of the database/sql Null* wrappers
func (t TargetType) IsNullWrapper() bool {
	return t.PkgPath == "database/sql"
}

// Table returns the table with the given name, or nil
func (s *Schema) Table(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NonKeyColumns returns every column except the primary key, in declaration order
func (t *Table) NonKeyColumns() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != t.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}
