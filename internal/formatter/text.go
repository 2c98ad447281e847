package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

// TextFormatter formats a resolved schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes one block per table, separated by blank lines
func (f *TextFormatter) Format(s *schema.Schema) error {
	for i, table := range s.Tables {
		if i > 0 {
			if _, err := fmt.Fprintln(f.writer); err != nil {
				return err
			}
		}
		if err := f.formatTable(table); err != nil {
			return err
		}
	}
	return nil
}

func (f *TextFormatter) formatTable(table *schema.Table) error {
	if _, err := fmt.Fprintf(f.writer, "TABLE %s (PK: %s)\n", table.Name, primaryKeyLabel(table)); err != nil {
		return err
	}

	for _, col := range table.Columns {
		if _, err := fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col)); err != nil {
			return err
		}
	}
	return nil
}

// formatColumn renders e.g. "Email: VARCHAR(100) -> sql.NullString"
func (f *TextFormatter) formatColumn(col *schema.Column) string {
	parts := []string{col.Name + ":", col.DeclaredType}
	parts = append(parts, constraints(col)...)
	parts = append(parts, "->", col.TargetType.String())
	return strings.Join(parts, " ")
}

// primaryKeyLabel names the key column and says whether it was inferred
func primaryKeyLabel(table *schema.Table) string {
	if table.PrimaryKey == nil {
		return "none"
	}
	if !table.PrimaryKey.IsPrimaryKey {
		return table.PrimaryKey.Name + ", inferred"
	}
	return table.PrimaryKey.Name
}

func constraints(col *schema.Column) []string {
	var out []string
	if col.IsPrimaryKey {
		out = append(out, "PRIMARY KEY")
	}
	if !col.IsNullable {
		out = append(out, "NOT NULL")
	}
	return out
}
