package codegen

import "strings"

// GenerateError reports a schema that cannot be rendered as valid Go, or
// rendered source that failed to format.
type GenerateError struct {
	Table   string // empty when not specific to one table
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerateError) Error() string {
	var b strings.Builder
	b.WriteString("ddlgen: generate")
	if e.Table != "" {
		b.WriteString(" table ")
		b.WriteString(e.Table)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerateError) Unwrap() error {
	return e.Cause
}
