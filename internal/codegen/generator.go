// Package codegen renders Go data-access code for a resolved schema.
//
// For every table the output holds an entity struct, a repository type with
// its constructor, and Insert, Update, Get<T>ByID and Delete methods running
// named-parameter SQL through database/sql. Rendering goes through jennifer and
// the result is normalised with goimports in format-only mode, so the same
// schema always produces byte-identical source.
package codegen

import (
	"bytes"
	"fmt"
	"go/token"
	"sort"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/tordrt/ddlgen/internal/schema"
)

// DefaultPackage is the package clause used when Options.Package is empty.
const DefaultPackage = "repository"

// SharedFile holds the declarations shared by every table in multi-file output.
const SharedFile = "repository.go"

const header = "Code generated by ddlgen. DO NOT EDIT."

// Options configures code generation.
type Options struct {
	// Package is the package clause of the generated code.
	Package string

	// Singularize turns plural table names into singular type names
	// (Users gives User, RepoUser and GetUserByID).
	Singularize bool
}

// Generator renders Go source for resolved schemas. It holds no state between
// calls and may be shared.
type Generator struct {
	opts Options
}

// New creates a generator
func New(opts Options) *Generator {
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	return &Generator{opts: opts}
}

// tableNames are the identifiers generated for one table.
type tableNames struct {
	Type   string
	Repo   string
	Ctor   string
	Getter string
	Var    string
	Fields []string // parallel to Table.Columns
	PK     string   // field of the primary key
}

// Generate renders the whole schema as a single Go source file.
func (g *Generator) Generate(s *schema.Schema) ([]byte, error) {
	paths := Imports(s.Tables)
	names, err := g.resolveNames(s.Tables, paths)
	if err != nil {
		return nil, err
	}

	f := g.newFile(paths)
	genErrNotFound(f)
	for i, t := range s.Tables {
		genEntity(f, t, names[i])
	}
	for i, t := range s.Tables {
		genRepo(f, t, names[i])
	}
	for i, t := range s.Tables {
		genMethods(f, t, names[i])
	}

	return render(f, "repository.go")
}

// GenerateFiles renders the schema as SharedFile plus one file per table,
// keyed by file name.
func (g *Generator) GenerateFiles(s *schema.Schema) (map[string][]byte, error) {
	paths := Imports(s.Tables)
	names, err := g.resolveNames(s.Tables, paths)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(s.Tables)+1)

	shared := g.newFile(paths)
	genErrNotFound(shared)
	src, err := render(shared, SharedFile)
	if err != nil {
		return nil, err
	}
	files[SharedFile] = src

	for i, t := range s.Tables {
		name := tableFileName(t.Name)
		if _, ok := files[name]; ok {
			return nil, &GenerateError{Table: t.Name, Message: fmt.Sprintf("file name %s is already used", name)}
		}

		f := g.newFile(Imports([]*schema.Table{t}))
		genEntity(f, t, names[i])
		genRepo(f, t, names[i])
		genMethods(f, t, names[i])

		src, err := render(f, name)
		if err != nil {
			return nil, &GenerateError{Table: t.Name, Message: "render", Cause: err}
		}
		files[name] = src
	}
	return files, nil
}

// FileNames returns the keys of a GenerateFiles result in a stable order
func FileNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func tableFileName(table string) string {
	stem := snakeName(table)
	if stem+".go" == SharedFile || hasTestSuffix(stem) {
		stem += "_table"
	}
	return stem + ".go"
}

func hasTestSuffix(stem string) bool {
	return len(stem) >= 5 && stem[len(stem)-5:] == "_test"
}

func (g *Generator) newFile(paths []string) *jen.File {
	f := jen.NewFile(g.opts.Package)
	f.HeaderComment(header)
	for _, p := range paths {
		if name := importName(p); token.IsIdentifier(name) {
			f.ImportName(p, name)
		}
	}
	return f
}

// resolveNames computes every identifier up front so that collisions are
// reported before anything is rendered.
func (g *Generator) resolveNames(tables []*schema.Table, paths []string) ([]tableNames, error) {
	declared := map[string]string{"ErrNotFound": ""}
	all := make([]tableNames, 0, len(tables))

	for _, t := range tables {
		if t.PrimaryKey == nil {
			return nil, &GenerateError{Table: t.Name, Message: "table has no primary key"}
		}

		typ := TypeName(t.Name, g.opts.Singularize)
		if !token.IsIdentifier(typ) {
			return nil, &GenerateError{Table: t.Name, Message: fmt.Sprintf("%q is not a valid Go type name", typ)}
		}

		n := tableNames{
			Type:   typ,
			Repo:   "Repo" + typ,
			Ctor:   "NewRepo" + typ,
			Getter: "Get" + typ + "ByID",
			Var:    varName(typ, paths),
		}
		for _, ident := range []string{n.Type, n.Repo, n.Ctor} {
			if other, ok := declared[ident]; ok {
				return nil, &GenerateError{Table: t.Name, Message: fmt.Sprintf("identifier %s collides with table %q", ident, other)}
			}
			declared[ident] = t.Name
		}

		fields := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			field := FieldName(c.Name)
			if !token.IsIdentifier(field) || field == "_" {
				return nil, &GenerateError{Table: t.Name, Message: fmt.Sprintf("column %q gives invalid field name %q", c.Name, field)}
			}
			if other, ok := fields[field]; ok {
				return nil, &GenerateError{Table: t.Name, Message: fmt.Sprintf("columns %q and %q both map to field %s", other, c.Name, field)}
			}
			fields[field] = c.Name
			n.Fields = append(n.Fields, field)
			if c == t.PrimaryKey {
				n.PK = field
			}
		}

		all = append(all, n)
	}
	return all, nil
}

func render(f *jen.File, filename string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, &GenerateError{Message: "render " + filename, Cause: err}
	}

	out, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, &GenerateError{Message: "format " + filename, Cause: err}
	}
	return out, nil
}
