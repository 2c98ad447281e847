package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Fallback types for base types the map does not know about.
var (
	FallbackNotNull  = TargetType{Name: "any"}
	FallbackNullable = TargetType{PkgPath: "database/sql", Name: "NullString"}
)

// TypeMap holds the two lookup tables from a base SQL type to a Go type:
// one for NOT NULL columns and one for nullable columns.
type TypeMap struct {
	notNull  map[string]TargetType
	nullable map[string]TargetType
}

// NewTypeMap returns an empty type map
func NewTypeMap() *TypeMap {
	return &TypeMap{
		notNull:  make(map[string]TargetType),
		nullable: make(map[string]TargetType),
	}
}

// Register maps a base type to its not-null and nullable Go types, replacing
// any previous entry. The key is case-insensitive.
func (m *TypeMap) Register(base string, notNull, nullable TargetType) *TypeMap {
	key := strings.ToUpper(base)
	m.notNull[key] = notNull
	m.nullable[key] = nullable
	return m
}

// Resolve returns the Go type for a base type. Unknown types resolve to
// FallbackNotNull or FallbackNullable.
func (m *TypeMap) Resolve(base string, nullable bool) TargetType {
	key := strings.ToUpper(base)
	if nullable {
		if t, ok := m.nullable[key]; ok {
			return t
		}
		return FallbackNullable
	}
	if t, ok := m.notNull[key]; ok {
		return t
	}
	return FallbackNotNull
}

// NotNullTypes returns a copy of the not-null table
func (m *TypeMap) NotNullTypes() map[string]TargetType {
	return copyTypes(m.notNull)
}

// NullableTypes returns a copy of the nullable table
func (m *TypeMap) NullableTypes() map[string]TargetType {
	return copyTypes(m.nullable)
}

// BaseTypes returns the registered base types, sorted
func (m *TypeMap) BaseTypes() []string {
	keys := make([]string, 0, len(m.notNull))
	for k := range m.notNull {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy that can be extended without touching m
func (m *TypeMap) Clone() *TypeMap {
	return &TypeMap{
		notNull:  copyTypes(m.notNull),
		nullable: copyTypes(m.nullable),
	}
}

func copyTypes(src map[string]TargetType) map[string]TargetType {
	dst := make(map[string]TargetType, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

var (
	goInt     = TargetType{Name: "int"}
	goInt64   = TargetType{Name: "int64"}
	goBool    = TargetType{Name: "bool"}
	goString  = TargetType{Name: "string"}
	goFloat32 = TargetType{Name: "float32"}
	goFloat64 = TargetType{Name: "float64"}
	goTime    = TargetType{PkgPath: "time", Name: "Time"}

	nullInt32   = TargetType{PkgPath: "database/sql", Name: "NullInt32"}
	nullInt64   = TargetType{PkgPath: "database/sql", Name: "NullInt64"}
	nullBool    = TargetType{PkgPath: "database/sql", Name: "NullBool"}
	nullString  = TargetType{PkgPath: "database/sql", Name: "NullString"}
	nullFloat64 = TargetType{PkgPath: "database/sql", Name: "NullFloat64"}
	nullTime    = TargetType{PkgPath: "database/sql", Name: "NullTime"}
)

// DefaultTypeMap returns a fresh map covering the common SQL Server, MySQL,
// PostgreSQL and SQLite spellings.
func DefaultTypeMap() *TypeMap {
	m := NewTypeMap()
	for _, base := range []string{"IDENTITY", "INT", "INTEGER", "SMALLINT", "TINYINT", "INT2", "INT4", "SERIAL"} {
		m.Register(base, goInt, nullInt32)
	}
	for _, base := range []string{"BIGINT", "INT8", "BIGSERIAL"} {
		m.Register(base, goInt64, nullInt64)
	}
	for _, base := range []string{"BIT", "BOOLEAN", "BOOL"} {
		m.Register(base, goBool, nullBool)
	}
	for _, base := range []string{"VARCHAR", "NVARCHAR", "TEXT", "CHAR", "NCHAR", "BPCHAR", "UUID", "UNIQUEIDENTIFIER"} {
		m.Register(base, goString, nullString)
	}
	for _, base := range []string{"DATE", "DATETIME", "DATETIME2", "TIMESTAMP", "TIMESTAMPTZ"} {
		m.Register(base, goTime, nullTime)
	}
	for _, base := range []string{"DECIMAL", "NUMERIC", "DOUBLE", "FLOAT", "FLOAT8"} {
		m.Register(base, goFloat64, nullFloat64)
	}
	// database/sql has no NullFloat32.
	for _, base := range []string{"REAL", "FLOAT4"} {
		m.Register(base, goFloat32, nullFloat64)
	}
	return m
}

// ParseTargetType parses a qualified type such as "database/sql.NullFloat64",
// "github.com/google/uuid.UUID" or a builtin such as "float64".
func ParseTargetType(s string) (TargetType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TargetType{}, fmt.Errorf("empty type")
	}
	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s, ".")
	if dot <= slash {
		if strings.ContainsAny(s, "/.") {
			return TargetType{}, fmt.Errorf("invalid type %q: missing type name after package path", s)
		}
		return TargetType{Name: s}, nil
	}
	if dot == len(s)-1 || dot == 0 {
		return TargetType{}, fmt.Errorf("invalid type %q", s)
	}
	return TargetType{PkgPath: s[:dot], Name: s[dot+1:]}, nil
}
