package codegen

import (
	"go/token"
	"go/types"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var wordSep = regexp.MustCompile(`[_ ]`)

// FieldName converts a column name to the Go field name used for it: the name
// is split on underscores and spaces and every word is title-cased
// (first_name gives FirstName, userId gives Userid).
//
// Every place generated code refers to a column's field goes through here.
func FieldName(column string) string {
	// A Caser keeps state and must not be shared across goroutines.
	title := cases.Title(language.Und)

	var b strings.Builder
	for _, word := range wordSep.Split(column, -1) {
		b.WriteString(title.String(word))
	}
	return b.String()
}

// TypeName converts a table name to a Go type name. Words are split like
// FieldName but only their first letter changes, so OrderItems stays as is
// and order_items becomes OrderItems.
func TypeName(table string, singularize bool) string {
	var b strings.Builder
	for _, word := range wordSep.Split(table, -1) {
		r, size := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(word[size:])
	}

	name := b.String()
	if singularize {
		name = inflect.Singularize(name)
	}
	return name
}

// Identifiers used inside generated method bodies. A variable named after the
// entity must not shadow any of them.
var reservedVars = map[string]bool{
	"affected": true,
	"context":  true,
	"count":    true,
	"ctx":      true,
	"err":      true,
	"errors":   true,
	"id":       true,
	"repo":     true,
	"result":   true,
	"row":      true,
	"sql":      true,
	"stmt":     true,
	"time":     true,
}

// varName returns the local variable holding an entity of the given type.
// Predeclared names such as int and nil are used by the method bodies and
// must stay visible.
func varName(typeName string, imports []string) string {
	name := strings.ToLower(typeName)
	if token.IsKeyword(name) || reservedVars[name] || !token.IsIdentifier(name) || types.Universe.Lookup(name) != nil {
		return "entity"
	}
	for _, path := range imports {
		if name == importName(path) {
			return "entity"
		}
	}
	return name
}

// snakeName returns the file name stem for a table
func snakeName(table string) string {
	return strings.ToLower(wordSep.ReplaceAllString(table, "_"))
}
