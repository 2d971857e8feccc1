package formschema

import "errors"

var (
	// ErrInvalidDocument is returned when a schema document cannot be parsed.
	ErrInvalidDocument = errors.New("invalid form schema document")
	// ErrInvalidForm is returned when a form definition does not produce a valid schema.
	ErrInvalidForm = errors.New("invalid form definition")
	// ErrDuplicateForm is returned when two documents define the same form name.
	ErrDuplicateForm = errors.New("duplicate form definition")
	// ErrReadFile is returned when a schema file cannot be read.
	ErrReadFile = errors.New("failed to read form schema file")
)
