package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/ddlgen/internal/schema"
)

// MarkdownFormatter formats a resolved schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes a heading per table followed by its column list
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	if _, err := fmt.Fprint(f.writer, "# Schema\n\n"); err != nil {
		return err
	}

	for _, table := range s.Tables {
		if err := f.FormatTable(table); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable writes a single table section
func (f *MarkdownFormatter) FormatTable(table *schema.Table) error {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", table.Name)
	b.WriteString(markdownPrimaryKey(table))

	b.WriteString("| Column | SQL type | Go type | Constraints |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, col := range table.Columns {
		fmt.Fprintf(&b, "| %s | %s | `%s` | %s |\n",
			col.Name,
			col.DeclaredType,
			col.TargetType.String(),
			strings.Join(constraints(col), ", "))
	}
	b.WriteString("\n")

	_, err := io.WriteString(f.writer, b.String())
	return err
}

// markdownPrimaryKey keeps the inferred note outside the code span
func markdownPrimaryKey(table *schema.Table) string {
	switch {
	case table.PrimaryKey == nil:
		return "Primary key: none\n\n"
	case !table.PrimaryKey.IsPrimaryKey:
		return fmt.Sprintf("Primary key: `%s` (inferred)\n\n", table.PrimaryKey.Name)
	default:
		return fmt.Sprintf("Primary key: `%s`\n\n", table.PrimaryKey.Name)
	}
}
