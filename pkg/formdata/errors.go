package formdata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a decode failure.
type ErrorKind uint8

const (
	// KindMalformedMultipart means the body does not follow the multipart grammar.
	KindMalformedMultipart ErrorKind = iota + 1
	// KindUnexpectedEOF means the body ended inside a part or before the closing delimiter.
	KindUnexpectedEOF
	// KindSizeLimitExceeded means a field (or the part count) went over its budget.
	KindSizeLimitExceeded
	// KindMissingField means a required field had no part.
	KindMissingField
	// KindTypeMismatch means wrong arity or a value that failed coercion.
	KindTypeMismatch
	// KindUnknownField means a part named a field the schema does not declare (strict mode).
	KindUnknownField
	// KindStream means reading the underlying body failed or the context was canceled.
	KindStream
)

// Sentinel errors, one per ErrorKind. A *DecodeError matches its kind's sentinel with errors.Is.
var (
	ErrMalformedMultipart = errors.New("malformed multipart body")
	ErrUnexpectedEOF      = errors.New("unexpected end of multipart body")
	ErrSizeLimitExceeded  = errors.New("field size limit exceeded")
	ErrMissingField       = errors.New("missing required field")
	ErrTypeMismatch       = errors.New("field type mismatch")
	ErrUnknownField       = errors.New("unknown field")
	ErrStream             = errors.New("failed to read multipart body")
)

// Framing and request errors. They are reported wrapped in a *DecodeError where the decoder produces them.
var (
	ErrBoundaryNotFound     = errors.New("multipart boundary not found")
	ErrInvalidBoundary      = errors.New("invalid multipart boundary")
	ErrMissingBoundary      = errors.New("missing boundary in content type")
	ErrUnsupportedMediaType = errors.New("unsupported media type, expected multipart/form-data")
	ErrHeaderTooLarge       = errors.New("part header block too large")
	ErrInvalidSchema        = errors.New("invalid form schema")
	ErrInvalidByteSize      = errors.New("invalid byte size")
	ErrBind                 = errors.New("failed to bind form")
	ErrNotDecimal           = errors.New("not a decimal number")
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedMultipart:
		return "malformed_multipart"
	case KindUnexpectedEOF:
		return "unexpected_eof"
	case KindSizeLimitExceeded:
		return "size_limit_exceeded"
	case KindMissingField:
		return "missing_field"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindUnknownField:
		return "unknown_field"
	case KindStream:
		return "stream_error"
	default:
		return "unknown_error"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMalformedMultipart:
		return ErrMalformedMultipart
	case KindUnexpectedEOF:
		return ErrUnexpectedEOF
	case KindSizeLimitExceeded:
		return ErrSizeLimitExceeded
	case KindMissingField:
		return ErrMissingField
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindUnknownField:
		return ErrUnknownField
	case KindStream:
		return ErrStream
	default:
		return nil
	}
}

// DecodeError describes why a decode failed.
// Field, Limit, Expected and Got are filled when they apply to the kind.
type DecodeError struct {
	Kind     ErrorKind
	Field    string
	Limit    int64
	Expected string
	Got      string
	Err      error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.sentinel().Error())
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	switch e.Kind {
	case KindSizeLimitExceeded:
		fmt.Fprintf(&b, " (limit %d)", e.Limit)
	case KindTypeMismatch:
		if e.Expected != "" {
			fmt.Fprintf(&b, ": expected %s", e.Expected)
			if e.Got != "" {
				fmt.Fprintf(&b, ", got %s", e.Got)
			}
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *DecodeError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the ErrorKind of err, or 0 when err is not a *DecodeError.
func KindOf(err error) ErrorKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func malformed(err error) *DecodeError {
	return &DecodeError{Kind: KindMalformedMultipart, Err: err}
}

func unexpectedEOF(field string) *DecodeError {
	return &DecodeError{Kind: KindUnexpectedEOF, Field: field}
}

func sizeExceeded(field string, limit int64) *DecodeError {
	return &DecodeError{Kind: KindSizeLimitExceeded, Field: field, Limit: limit}
}

func mismatch(field, expected, got string) *DecodeError {
	return &DecodeError{Kind: KindTypeMismatch, Field: field, Expected: expected, Got: got}
}

func streamErr(err error) *DecodeError {
	return &DecodeError{Kind: KindStream, Err: err}
}
