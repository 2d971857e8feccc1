package formdata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RawPart is one fully read part before coercion.
type RawPart struct {
	Name        string
	Filename    string
	HasFilename bool
	ContentType string
	Body        []byte
}

// MapOption adjusts how MapParts coerces values.
type MapOption func(*mapper)

type mapper struct {
	lenientScalars bool
}

// LenientScalars makes Bool fields also accept the HTML checkbox values on/off,
// and trims surrounding whitespace from Bool and Number values.
func LenientScalars() MapOption {
	return func(m *mapper) { m.lenientScalars = true }
}

// MapParts groups parts by field name and coerces them to the schema.
// Fields are checked in schema order and the first violation is returned.
// Parts naming undeclared fields are ignored unless strict is set, in which case
// they fail with KindUnknownField once every declared field has mapped.
func MapParts(schema *Schema, parts []RawPart, strict bool, opts ...MapOption) (*Form, error) {
	var m mapper
	for _, opt := range opts {
		opt(&m)
	}

	groups := make(map[string][]int, schema.Len())
	var unknown []string
	for i, p := range parts {
		name := fieldName(p.Name)
		if _, ok := schema.index[name]; !ok {
			unknown = append(unknown, p.Name)
			continue
		}
		groups[name] = append(groups[name], i)
	}

	form := newForm(schema.Len())
	for _, f := range schema.fields {
		matched := groups[f.Name]

		switch f.Cardinality {
		case Required, Optional:
			if len(matched) == 0 {
				if f.Cardinality == Required {
					return nil, &DecodeError{Kind: KindMissingField, Field: f.Name}
				}
				form.set(f.Name, AbsentValue())
				continue
			}
			if len(matched) > 1 {
				return nil, mismatch(f.Name, "a single value", strconv.Itoa(len(matched))+" values")
			}
			v, err := m.coerce(f, parts[matched[0]])
			if err != nil {
				return nil, err
			}
			form.set(f.Name, v)

		case List:
			items := make([]Value, 0, len(matched))
			for _, i := range matched {
				v, err := m.coerce(f, parts[i])
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			form.set(f.Name, listValue(items))
		}
	}

	if strict && len(unknown) > 0 {
		return nil, &DecodeError{Kind: KindUnknownField, Field: unknown[0]}
	}
	return form, nil
}

// coerce converts one part to the field's type.
func (m mapper) coerce(f Field, p RawPart) (Value, error) {
	switch f.Type {
	case TypeFile:
		return FileValue(&File{
			Filename:    p.Filename,
			ContentType: p.ContentType,
			Content:     p.Body,
		}), nil

	case TypeString:
		s, err := decodeText(f.Name, p)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil

	case TypeBool:
		s, err := decodeText(f.Name, p)
		if err != nil {
			return Value{}, err
		}
		b, ok := m.parseBool(s)
		if !ok {
			return Value{}, mismatch(f.Name, "bool", strconv.Quote(truncate(s)))
		}
		return BoolValue(b), nil

	case TypeNumber:
		s, err := decodeText(f.Name, p)
		if err != nil {
			return Value{}, err
		}
		if m.lenientScalars {
			s = strings.TrimSpace(s)
		}
		n, err := ParseNumber(s, f.Integer)
		if err != nil {
			expected := "number"
			if f.Integer {
				expected = "integer"
			}
			return Value{}, mismatch(f.Name, expected, strconv.Quote(truncate(s)))
		}
		return NumberValue(n), nil
	}
	return Value{}, fmt.Errorf("%w: field %q: unknown type %d", ErrInvalidSchema, f.Name, f.Type)
}

// parseBool accepts true/false in any case and 1/0. Lenient mode adds on/off
// and ignores surrounding whitespace.
func (m mapper) parseBool(s string) (bool, bool) {
	if m.lenientScalars {
		s = strings.TrimSpace(s)
	}
	switch strings.ToLower(s) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	if m.lenientScalars {
		switch strings.ToLower(s) {
		case "on":
			return true, true
		case "off":
			return false, true
		}
	}
	return false, false
}

// decodeText returns the part body as UTF-8 text, transcoding it first when the
// part declares another charset.
func decodeText(field string, p RawPart) (string, error) {
	body, err := transcode(p.ContentType, p.Body)
	if err != nil {
		return "", mismatch(field, "text in a supported charset", err.Error())
	}
	if !utf8.Valid(body) {
		return "", mismatch(field, "UTF-8 text", "invalid UTF-8")
	}
	return string(body), nil
}
