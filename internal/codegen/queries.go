package codegen

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

// Packages every generated repository file depends on.
var baseImports = []string{"context", "database/sql", "errors"}

// Imports returns the sorted import paths the generated code for tables needs:
// the base packages plus the package of every column type in use.
func Imports(tables []*schema.Table) []string {
	set := make(map[string]bool, len(baseImports)+2)
	for _, p := range baseImports {
		set[p] = true
	}
	for _, t := range tables {
		for _, c := range t.Columns {
			if c.TargetType.PkgPath != "" {
				set[c.TargetType.PkgPath] = true
			}
		}
	}

	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func importName(pkgPath string) string {
	return path.Base(pkgPath)
}

// QuerySet holds the SQL statements a repository runs for one table.
// Every statement binds named parameters spelled @<column>.
type QuerySet struct {
	Exists     string
	Insert     string
	Update     string // empty when the table has no column besides its key
	SelectByID string
	Delete     string
}

// Queries builds the statements for a resolved table
func Queries(t *schema.Table) QuerySet {
	pk := t.PrimaryKey.Name
	where := fmt.Sprintf(" WHERE %s = @%s", pk, pk)
	rest := t.NonKeyColumns()

	all := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		all = append(all, c.Name)
	}

	qs := QuerySet{
		Exists:     "SELECT COUNT(*) FROM " + t.Name + where,
		SelectByID: "SELECT " + strings.Join(all, ", ") + " FROM " + t.Name + where,
		Delete:     "DELETE FROM " + t.Name + where,
	}

	if len(rest) == 0 {
		qs.Insert = "INSERT INTO " + t.Name + " DEFAULT VALUES"
		return qs
	}

	names := make([]string, 0, len(rest))
	params := make([]string, 0, len(rest))
	setters := make([]string, 0, len(rest))
	for _, c := range rest {
		names = append(names, c.Name)
		params = append(params, "@"+c.Name)
		setters = append(setters, c.Name+" = @"+c.Name)
	}

	qs.Insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(names, ", "), strings.Join(params, ", "))
	qs.Update = "UPDATE " + t.Name + " SET " + strings.Join(setters, ", ") + where
	return qs
}
