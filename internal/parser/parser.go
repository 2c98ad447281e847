// Package parser extracts CREATE TABLE statements from DDL text.
//
// Parsing is two-stage pattern matching: one expression isolates each
// statement, a second one matches every comma separated clause of its body.
// Only the narrow grammar below is understood:
//
//	CREATE TABLE <name> (
//	    <column> <TYPE>[(<p>[,<s>])] [NOT NULL | NULL] [PRIMARY KEY],
//	    ...
//	);
//
// Quoted identifiers, comments, composite keys and nested expressions are
// not supported. A clause that does not match the column pattern is skipped
// without any diagnostic.
package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

var (
	createTableRe = regexp.MustCompile(`(?is)CREATE\s+TABLE\s+(\w+)\s*\((.*?)\);`)
	columnRe      = regexp.MustCompile(`(?i)^(\w+)\s+([a-z]+(?:\s*\(\s*\d+(?:\s*,\s*\d+)?\s*\))?)\s*(NOT\s+NULL|NULL)?\s*(PRIMARY\s+KEY)?`)
)

// Table-level clauses start with one of these and never describe a column.
var constraintKeywords = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"FOREIGN":    true,
	"UNIQUE":     true,
	"CHECK":      true,
	"KEY":        true,
	"INDEX":      true,
}

// Statement is one matched CREATE TABLE statement
type Statement struct {
	Name string
	Body string
}

// RawColumn is a column clause split into its tokens, before resolution
type RawColumn struct {
	Name         string
	DeclaredType string
	Nullability  string
	PrimaryKey   string
}

// Extract returns every CREATE TABLE statement in ddl, in input order
func Extract(ddl string) ([]Statement, error) {
	matches := createTableRe.FindAllStringSubmatch(ddl, -1)
	if len(matches) == 0 {
		return nil, &schema.NoTablesFoundError{}
	}

	stmts := make([]Statement, 0, len(matches))
	for _, m := range matches {
		stmts = append(stmts, Statement{Name: m[1], Body: m[2]})
	}
	return stmts, nil
}

// SplitClauses splits a table body on commas that are not nested in parentheses
func SplitClauses(body string) []string {
	var clauses []string
	depth, start := 0, 0

	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				clauses = appendClause(clauses, body[start:i])
				start = i + 1
			}
		}
	}
	return appendClause(clauses, body[start:])
}

func appendClause(clauses []string, clause string) []string {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return clauses
	}
	return append(clauses, clause)
}

// ParseColumns matches every clause of a table body against the column pattern.
// Clauses that do not match, and table-level constraint clauses, are skipped.
func ParseColumns(table, body string) ([]RawColumn, error) {
	var cols []RawColumn
	for _, clause := range SplitClauses(body) {
		if isConstraint(clause) {
			continue
		}
		m := columnRe.FindStringSubmatch(clause)
		if m == nil {
			continue
		}
		cols = append(cols, RawColumn{
			Name:         m[1],
			DeclaredType: m[2],
			Nullability:  m[3],
			PrimaryKey:   m[4],
		})
	}

	if len(cols) == 0 {
		return nil, &schema.NoColumnsFoundError{Table: table}
	}
	return cols, nil
}

func isConstraint(clause string) bool {
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return false
	}
	word := strings.ToUpper(fields[0])
	if i := strings.IndexByte(word, '('); i >= 0 {
		word = word[:i]
	}
	return constraintKeywords[word]
}

// Parse runs extraction and type resolution over ddl. Any failure aborts the
// whole run and no partial schema is returned.
func Parse(ddl string, types *schema.TypeMap) (*schema.Schema, error) {
	if types == nil {
		types = schema.DefaultTypeMap()
	}

	stmts, err := Extract(ddl)
	if err != nil {
		return nil, err
	}

	s := &schema.Schema{Tables: make([]*schema.Table, 0, len(stmts))}
	seen := make(map[string]bool, len(stmts))

	for _, stmt := range stmts {
		if seen[stmt.Name] {
			return nil, &schema.DuplicateTableError{Table: stmt.Name}
		}
		seen[stmt.Name] = true

		raw, err := ParseColumns(stmt.Name, stmt.Body)
		if err != nil {
			return nil, err
		}

		columns := make([]*schema.Column, 0, len(raw))
		for _, rc := range raw {
			columns = append(columns, schema.NewColumn(rc.Name, rc.DeclaredType, rc.Nullability, rc.PrimaryKey, types))
		}

		table, err := schema.NewTable(stmt.Name, columns)
		if err != nil {
			return nil, err
		}
		s.Tables = append(s.Tables, table)
	}

	return s, nil
}
