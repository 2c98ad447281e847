package schema

import (
	"errors"
	"fmt"
)

// ErrValidation matches every error raised because the input DDL cannot be turned into a schema.
var ErrValidation = errors.New("ddlgen: invalid schema")

// NoTablesFoundError is returned when the input holds no CREATE TABLE statement.
type NoTablesFoundError struct{}

func (e *NoTablesFoundError) Error() string {
	return "no CREATE TABLE statements found in the input SQL"
}

// Is reports whether target is ErrValidation.
func (e *NoTablesFoundError) Is(target error) bool {
	return target == ErrValidation
}

// NoColumnsFoundError is returned when a table body yields no parseable column clause.
type NoColumnsFoundError struct {
	Table string
}

func (e *NoColumnsFoundError) Error() string {
	return fmt.Sprintf("no columns found for table %q", e.Table)
}

// Is reports whether target is ErrValidation.
func (e *NoColumnsFoundError) Is(target error) bool {
	return target == ErrValidation
}

// PrimaryKeyNotFoundError is returned when a table has no explicit primary key
// and none of its column names look like one.
type PrimaryKeyNotFoundError struct {
	Table string
}

func (e *PrimaryKeyNotFoundError) Error() string {
	return fmt.Sprintf("primary key not found or could not be inferred in table %q", e.Table)
}

// Is reports whether target is ErrValidation.
func (e *PrimaryKeyNotFoundError) Is(target error) bool {
	return target == ErrValidation
}

// DuplicateTableError is returned when the same table name is declared twice.
type DuplicateTableError struct {
	Table string
}

func (e *DuplicateTableError) Error() string {
	return fmt.Sprintf("table %q is declared more than once", e.Table)
}

// Is reports whether target is ErrValidation.
func (e *DuplicateTableError) Is(target error) bool {
	return target == ErrValidation
}

// IsValidation reports whether err was caused by invalid input DDL.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
