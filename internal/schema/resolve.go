package schema

import (
	"strings"
	"unicode"
)

// NewColumn resolves a raw column clause into a Column.
//
// nullability is "", "NULL" or "NOT NULL" and primaryKey is "" or "PRIMARY KEY",
// both case-insensitive with any inner whitespace. A column without a
// nullability keyword is nullable unless it carries the PRIMARY KEY marker.
func NewColumn(name, declaredType, nullability, primaryKey string, types *TypeMap) *Column {
	declared := strings.ToUpper(strings.TrimSpace(declaredType))
	isPK := normalizeKeyword(primaryKey) == "PRIMARY KEY"

	nullable := true
	switch normalizeKeyword(nullability) {
	case "NOT NULL":
		nullable = false
	case "NULL":
		nullable = true
	}
	if isPK {
		nullable = false
	}

	base := BaseType(declared)
	return &Column{
		Name:         name,
		DeclaredType: declared,
		SQLType:      base,
		IsNullable:   nullable,
		IsPrimaryKey: isPK,
		TargetType:   types.Resolve(base, nullable),
		JSONTag:      strings.ToLower(name),
	}
}

// BaseType returns the leading alphabetic run of a declared type, uppercased:
// DECIMAL(10,2) gives DECIMAL.
func BaseType(declared string) string {
	declared = strings.TrimSpace(declared)
	end := strings.IndexFunc(declared, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end == -1 {
		end = len(declared)
	}
	return strings.ToUpper(declared[:end])
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// NewTable builds a table from its resolved columns and settles its primary key.
//
// The first column carrying an explicit marker wins. Without one, the first
// column whose name is "id" or ends with "id" (case-insensitive) is used.
func NewTable(name string, columns []*Column) (*Table, error) {
	t := &Table{Name: name, Columns: columns}

	for _, c := range columns {
		if c.IsPrimaryKey {
			t.PrimaryKey = c
			return t, nil
		}
	}

	if pk := InferPrimaryKey(columns); pk != nil {
		t.PrimaryKey = pk
		return t, nil
	}

	return nil, &PrimaryKeyNotFoundError{Table: name}
}

// InferPrimaryKey returns the first column named like an identifier, or nil
func InferPrimaryKey(columns []*Column) *Column {
	for _, c := range columns {
		// "id" itself ends with "id"
		if strings.HasSuffix(strings.ToLower(c.Name), "id") {
			return c
		}
	}
	return nil
}
