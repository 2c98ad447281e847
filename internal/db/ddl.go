package db

import (
	"fmt"
	"regexp"
	"strings"
)

// columnDef is one catalog column, already mapped to a DDL type spelling.
type columnDef struct {
	Name       string
	Type       string // e.g. VARCHAR(50) or NUMERIC(10,2)
	Nullable   bool
	PrimaryKey bool
}

// tableDef is one catalog table in column order.
type tableDef struct {
	Name    string
	Columns []columnDef
}

var (
	identRe   = regexp.MustCompile(`^\w+$`)
	ddlTypeRe = regexp.MustCompile(`(?i)^[a-z]+(\(\d+(,\d+)?\))?$`)
)

// markPrimaryKey flags the key column when the key has exactly one column.
// Composite keys are left unmarked and the parser falls back to inference.
func (t *tableDef) markPrimaryKey(keys []string) {
	if len(keys) != 1 {
		return
	}
	for i := range t.Columns {
		if t.Columns[i].Name == keys[0] {
			t.Columns[i].PrimaryKey = true
		}
	}
}

// render writes t as a single CREATE TABLE statement.
func (t tableDef) render() (string, error) {
	if !identRe.MatchString(t.Name) {
		return "", fmt.Errorf("table %q: name cannot be expressed in DDL", t.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)
	for i, c := range t.Columns {
		if !identRe.MatchString(c.Name) {
			return "", fmt.Errorf("table %s: column %q cannot be expressed in DDL", t.Name, c.Name)
		}
		if !ddlTypeRe.MatchString(c.Type) {
			return "", fmt.Errorf("table %s: column %s has unsupported type %q", t.Name, c.Name, c.Type)
		}

		fmt.Fprintf(&b, "    %s %s", c.Name, c.Type)
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		if c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		}
		if i < len(t.Columns)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(");\n")
	return b.String(), nil
}

func renderTables(tables []tableDef) (string, error) {
	var b strings.Builder
	for i, t := range tables {
		stmt, err := t.render()
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(stmt)
	}
	return b.String(), nil
}

// withLength appends a length or precision suffix when one is known.
func withLength(base string, length, scale *int64) string {
	base = strings.ToUpper(base)
	switch {
	case length == nil:
		return base
	case scale == nil:
		return fmt.Sprintf("%s(%d)", base, *length)
	default:
		return fmt.Sprintf("%s(%d,%d)", base, *length, *scale)
	}
}

var lengthSuffixRe = regexp.MustCompile(`^\(\d+(,\d+)?\)$`)

// normalizeType reduces a catalog type to the single-word spelling the parser
// accepts: VARCHAR (50) gives VARCHAR(50), DOUBLE PRECISION gives DOUBLE.
// An empty type becomes BLOB.
func normalizeType(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	end := 0
	for end < len(raw) && raw[end] >= 'A' && raw[end] <= 'Z' {
		end++
	}
	base := raw[:end]
	if base == "" {
		return "BLOB"
	}
	if rest := strings.Join(strings.Fields(raw[end:]), ""); lengthSuffixRe.MatchString(rest) {
		return base + rest
	}
	return base
}
