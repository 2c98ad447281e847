package codegen

import (
	"github.com/dave/jennifer/jen"

	"github.com/tordrt/ddlgen/internal/schema"
)

const (
	pkgContext = "context"
	pkgSQL     = "database/sql"
	pkgErrors  = "errors"
)

func genErrNotFound(f *jen.File) {
	f.Comment("ErrNotFound is returned when no row matches the given primary key.")
	f.Var().Id("ErrNotFound").Op("=").Qual(pkgErrors, "New").Call(jen.Lit("repository: item not found"))
	f.Line()
}

func genEntity(f *jen.File, t *schema.Table, n tableNames) {
	f.Commentf("%s is a row of the %s table.", n.Type, t.Name)
	f.Type().Id(n.Type).StructFunc(func(grp *jen.Group) {
		for i, c := range t.Columns {
			grp.Id(n.Fields[i]).Add(goType(c.TargetType)).Tag(map[string]string{"json": c.JSONTag})
		}
	})
	f.Line()
}

func genRepo(f *jen.File, t *schema.Table, n tableNames) {
	f.Commentf("%s reads and writes %s rows.", n.Repo, t.Name)
	f.Type().Id(n.Repo).Struct(
		jen.Id("DB").Op("*").Qual(pkgSQL, "DB"),
	)
	f.Line()

	f.Commentf("%s creates a new repository for %s.", n.Ctor, t.Name)
	f.Func().Id(n.Ctor).Params(jen.Id("db").Op("*").Qual(pkgSQL, "DB")).Op("*").Id(n.Repo).Block(
		jen.Return(jen.Op("&").Id(n.Repo).Values(jen.Dict{
			jen.Id("DB"): jen.Id("db"),
		})),
	)
	f.Line()
}

func genMethods(f *jen.File, t *schema.Table, n tableNames) {
	q := Queries(t)
	genInsert(f, t, n, q)
	genUpdate(f, t, n, q)
	genGet(f, t, n, q)
	genDelete(f, t, n, q)
}

func goType(tt schema.TargetType) jen.Code {
	if tt.PkgPath == "" {
		return jen.Id(tt.Name)
	}
	return jen.Qual(tt.PkgPath, tt.Name)
}

func receiver(n tableNames) *jen.Statement {
	return jen.Id("repo").Op("*").Id(n.Repo)
}

func ctxParam() *jen.Statement {
	return jen.Id("ctx").Qual(pkgContext, "Context")
}

// named binds a column to a value with sql.Named
func named(column string, value jen.Code) jen.Code {
	return jen.Qual(pkgSQL, "Named").Call(jen.Lit(column), value)
}

// fieldArgs binds the given columns to the matching fields of the entity variable
func fieldArgs(t *schema.Table, n tableNames, cols []*schema.Column) []jen.Code {
	args := make([]jen.Code, 0, len(cols)+1)
	args = append(args, jen.Id("ctx"))
	for _, c := range cols {
		args = append(args, named(c.Name, jen.Id(n.Var).Dot(fieldOf(t, n, c))))
	}
	return args
}

func fieldOf(t *schema.Table, n tableNames, col *schema.Column) string {
	for i, c := range t.Columns {
		if c == col {
			return n.Fields[i]
		}
	}
	return FieldName(col.Name)
}

func returnIfErr(results ...jen.Code) jen.Code {
	results = append(results, jen.Err())
	return jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(results...))
}

// prepareAndExec prepares query and executes it once with args
func prepareAndExec(query string, args []jen.Code) []jen.Code {
	return []jen.Code{
		jen.List(jen.Id("stmt"), jen.Err()).Op(":=").Id("repo").Dot("DB").Dot("PrepareContext").Call(jen.Id("ctx"), jen.Lit(query)),
		returnIfErr(),
		jen.Defer().Id("stmt").Dot("Close").Call(),
		jen.Line(),
		jen.List(jen.Id("_"), jen.Err()).Op("=").Id("stmt").Dot("ExecContext").Call(args...),
		jen.Return(jen.Err()),
	}
}

func genInsert(f *jen.File, t *schema.Table, n tableNames, q QuerySet) {
	body := []jen.Code{
		jen.Var().Id("count").Int(),
		jen.If(
			jen.Err().Op(":=").Id("repo").Dot("DB").Dot("QueryRowContext").Call(
				jen.Id("ctx"),
				jen.Lit(q.Exists),
				named(t.PrimaryKey.Name, jen.Id(n.Var).Dot(n.PK)),
			).Dot("Scan").Call(jen.Op("&").Id("count")),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Err())),
		jen.If(jen.Id("count").Op(">").Lit(0)).Block(jen.Return(jen.Nil())),
		jen.Line(),
	}
	body = append(body, prepareAndExec(q.Insert, fieldArgs(t, n, t.NonKeyColumns()))...)

	f.Commentf("Insert adds %s to the %s table unless a row with the same %s exists.", n.Var, t.Name, t.PrimaryKey.Name)
	f.Comment("The primary key is left to the database.")
	f.Func().Params(receiver(n)).Id("Insert").Params(
		ctxParam(),
		jen.Id(n.Var).Op("*").Id(n.Type),
	).Error().Block(body...)
	f.Line()
}

func genUpdate(f *jen.File, t *schema.Table, n tableNames, q QuerySet) {
	params := []jen.Code{ctxParam(), jen.Id(n.Var).Op("*").Id(n.Type)}

	if q.Update == "" {
		f.Commentf("Update does nothing: %s has no column besides its primary key.", t.Name)
		f.Func().Params(receiver(n)).Id("Update").Params(params...).Error().Block(
			jen.Return(jen.Nil()),
		)
		f.Line()
		return
	}

	cols := append(t.NonKeyColumns(), t.PrimaryKey)

	f.Commentf("Update writes every column of %s to the row with the same %s.", n.Var, t.PrimaryKey.Name)
	f.Func().Params(receiver(n)).Id("Update").Params(params...).Error().Block(
		prepareAndExec(q.Update, fieldArgs(t, n, cols))...,
	)
	f.Line()
}

func genGet(f *jen.File, t *schema.Table, n tableNames, q QuerySet) {
	targets := make([]jen.Code, 0, len(t.Columns))
	for i := range t.Columns {
		targets = append(targets, jen.Op("&").Id(n.Var).Dot(n.Fields[i]))
	}

	f.Commentf("%s returns the %s row with the given %s.", n.Getter, t.Name, t.PrimaryKey.Name)
	f.Func().Params(receiver(n)).Id(n.Getter).Params(
		ctxParam(),
		jen.Id("id").Add(goType(t.PrimaryKey.TargetType)),
	).Params(jen.Op("*").Id(n.Type), jen.Error()).Block(
		jen.Id("row").Op(":=").Id("repo").Dot("DB").Dot("QueryRowContext").Call(
			jen.Id("ctx"),
			jen.Lit(q.SelectByID),
			named(t.PrimaryKey.Name, jen.Id("id")),
		),
		jen.Line(),
		jen.Var().Id(n.Var).Id(n.Type),
		jen.If(
			jen.Err().Op(":=").Id("row").Dot("Scan").Call(targets...),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Return(jen.Op("&").Id(n.Var), jen.Nil()),
	)
	f.Line()
}

func genDelete(f *jen.File, t *schema.Table, n tableNames, q QuerySet) {
	f.Commentf("Delete removes the %s row with the given %s and returns ErrNotFound if there is none.", t.Name, t.PrimaryKey.Name)
	f.Func().Params(receiver(n)).Id("Delete").Params(
		ctxParam(),
		jen.Id("id").Add(goType(t.PrimaryKey.TargetType)),
	).Error().Block(
		jen.List(jen.Id("result"), jen.Err()).Op(":=").Id("repo").Dot("DB").Dot("ExecContext").Call(
			jen.Id("ctx"),
			jen.Lit(q.Delete),
			named(t.PrimaryKey.Name, jen.Id("id")),
		),
		returnIfErr(),
		jen.List(jen.Id("affected"), jen.Err()).Op(":=").Id("result").Dot("RowsAffected").Call(),
		returnIfErr(),
		jen.If(jen.Id("affected").Op("==").Lit(0)).Block(jen.Return(jen.Id("ErrNotFound"))),
		jen.Return(jen.Nil()),
	)
	f.Line()
}
