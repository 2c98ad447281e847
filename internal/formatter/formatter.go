// Package formatter prints resolved schemas for humans and writes generated
// files to disk.
package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/ddlgen/internal/schema"
)

// Output formats for describe.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Formatter writes a resolved schema.
type Formatter interface {
	Format(s *schema.Schema) error
}

// New returns the formatter for format, writing to w
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(w), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (must be %s or %s)", format, FormatText, FormatMarkdown)
	}
}
