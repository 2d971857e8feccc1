package formdata

import (
	"fmt"
	"strings"
)

// Type is the semantic type a field's parts are coerced to.
type Type uint8

const (
	TypeFile Type = iota + 1
	TypeString
	TypeBool
	TypeNumber
)

func (t Type) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// ParseType converts a type name (file, string, bool, number) to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file":
		return TypeFile, nil
	case "string", "text":
		return TypeString, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "number", "float", "int", "integer":
		return TypeNumber, nil
	default:
		return 0, fmt.Errorf("%w: unknown field type %q", ErrInvalidSchema, s)
	}
}

// Cardinality is how many parts a field accepts.
type Cardinality uint8

const (
	// Required fields need exactly one part.
	Required Cardinality = iota + 1
	// Optional fields accept zero or one part.
	Optional
	// List fields accept any number of parts, kept in stream order.
	List
)

func (c Cardinality) String() string {
	switch c {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case List:
		return "list"
	default:
		return fmt.Sprintf("Cardinality(%d)", uint8(c))
	}
}

// ParseCardinality converts required, optional or list to a Cardinality. Empty means Required.
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "required", "single":
		return Required, nil
	case "optional":
		return Optional, nil
	case "list", "many", "multiple":
		return List, nil
	default:
		return 0, fmt.Errorf("%w: unknown cardinality %q", ErrInvalidSchema, s)
	}
}

// Field describes one expected form field.
type Field struct {
	Name        string
	Type        Type
	Cardinality Cardinality
	// MaxSize caps the bytes accepted for the field across all of its parts.
	// Zero selects the decoder default for the field type; Unlimited removes the cap.
	MaxSize int64
	// Integer makes a TypeNumber field parse as int64 instead of float64.
	Integer bool
}

// Schema is an ordered, immutable set of fields.
// It is safe to share one Schema between concurrent decodes.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema validates fields and returns a schema preserving their order.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := f.validate(); err != nil {
			return nil, err
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid definition.
// Intended for package-level schema variables.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (f Field) validate() error {
	switch {
	case f.Name == "":
		return fmt.Errorf("%w: empty field name", ErrInvalidSchema)
	case strings.HasSuffix(f.Name, "[]"):
		return fmt.Errorf("%w: field %q: the [] suffix is implied by list cardinality", ErrInvalidSchema, f.Name)
	case f.Type < TypeFile || f.Type > TypeNumber:
		return fmt.Errorf("%w: field %q: unknown type %d", ErrInvalidSchema, f.Name, f.Type)
	case f.Cardinality < Required || f.Cardinality > List:
		return fmt.Errorf("%w: field %q: unknown cardinality %d", ErrInvalidSchema, f.Name, f.Cardinality)
	case f.MaxSize < 0 && f.MaxSize != Unlimited:
		return fmt.Errorf("%w: field %q: negative max size", ErrInvalidSchema, f.Name)
	case f.Integer && f.Type != TypeNumber:
		return fmt.Errorf("%w: field %q: integer applies to number fields only", ErrInvalidSchema, f.Name)
	}
	return nil
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// fieldName strips the list suffix browsers and form libraries append (tags[] -> tags).
func fieldName(partName string) string {
	return strings.TrimSuffix(partName, "[]")
}
