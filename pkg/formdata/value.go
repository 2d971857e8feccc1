package formdata

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueFile
	ValueString
	ValueBool
	ValueNumber
	ValueList
)

func (k ValueKind) String() string {
	switch k {
	case ValueAbsent:
		return "absent"
	case ValueFile:
		return "file"
	case ValueString:
		return "string"
	case ValueBool:
		return "bool"
	case ValueNumber:
		return "number"
	case ValueList:
		return "list"
	default:
		return "invalid"
	}
}

// File is an uploaded file held in memory.
type File struct {
	// Filename is the name the client sent, unsanitized. Empty when the part had no filename.
	Filename    string
	ContentType string
	Content     []byte
}

// Size returns the content length in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Content))
}

// Reader returns a reader over the file content.
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.Content)
}

// MediaType returns the content type without parameters, lower-cased.
func (f *File) MediaType() string {
	mt, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(f.ContentType))
	}
	return mt
}

// Extension returns the lower-cased extension of Filename, including the dot.
func (f *File) Extension() string {
	return strings.ToLower(filepath.Ext(f.Filename))
}

// Number is a parsed numeric field. It keeps the source text.
type Number struct {
	text  string
	f     float64
	i     int64
	isInt bool
}

// ParseNumber parses a decimal literal: an optional sign, digits, an optional
// fraction and an optional exponent. NaN, infinities, hex forms and digit
// separators are rejected, as are values that overflow float64. With integer
// set only whole numbers are accepted.
func ParseNumber(s string, integer bool) (Number, error) {
	if !isDecimal(s, integer) {
		return Number{}, fmt.Errorf("%w: %q", ErrNotDecimal, s)
	}
	if integer {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Number{}, err
		}
		return Number{text: s, i: i, f: float64(i), isInt: true}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, err
	}
	return Number{text: s, f: f}, nil
}

// isDecimal matches [+-]digits[.digits][(e|E)[+-]digits], or only [+-]digits when integer is set.
// A fraction may also start with the dot (".5") or end with it ("5.").
func isDecimal(s string, integer bool) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := countDigits(s[i:])
	i += intDigits
	if integer {
		return intDigits > 0 && i == len(s)
	}

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i++
		fracDigits = countDigits(s[i:])
		i += fracDigits
	}
	if intDigits+fracDigits == 0 {
		return false
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := countDigits(s[i:])
		if expDigits == 0 {
			return false
		}
		i += expDigits
	}
	return i == len(s)
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// Float64 returns the value as float64.
func (n Number) Float64() float64 { return n.f }

// Int64 returns the integer value; ok is false unless the field was parsed as an integer.
func (n Number) Int64() (int64, bool) { return n.i, n.isInt }

// IsInt reports whether the number was parsed as an integer.
func (n Number) IsInt() bool { return n.isInt }

func (n Number) String() string { return n.text }

// Value is the decoded value of one schema field.
// The zero Value is absent.
type Value struct {
	kind ValueKind
	file *File
	str  string
	b    bool
	num  Number
	list []Value
}

func FileValue(f *File) Value       { return Value{kind: ValueFile, file: f} }
func StringValue(s string) Value    { return Value{kind: ValueString, str: s} }
func BoolValue(b bool) Value        { return Value{kind: ValueBool, b: b} }
func NumberValue(n Number) Value    { return Value{kind: ValueNumber, num: n} }
func AbsentValue() Value            { return Value{} }
func listValue(items []Value) Value { return Value{kind: ValueList, list: items} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether an optional field had no part.
func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

func (v Value) AsFile() (*File, bool)     { return v.file, v.kind == ValueFile }
func (v Value) AsString() (string, bool)  { return v.str, v.kind == ValueString }
func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == ValueBool }
func (v Value) AsNumber() (Number, bool)  { return v.num, v.kind == ValueNumber }
func (v Value) AsList() ([]Value, bool)   { return v.list, v.kind == ValueList }

// Interface returns the value as plain Go data: nil, *File, string, bool,
// int64 or float64, or []any for lists.
func (v Value) Interface() any {
	switch v.kind {
	case ValueFile:
		return v.file
	case ValueString:
		return v.str
	case ValueBool:
		return v.b
	case ValueNumber:
		if v.num.isInt {
			return v.num.i
		}
		return v.num.f
	case ValueList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether two values hold the same variant and data.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueFile:
		if v.file == nil || o.file == nil {
			return v.file == o.file
		}
		return v.file.Filename == o.file.Filename &&
			v.file.ContentType == o.file.ContentType &&
			bytes.Equal(v.file.Content, o.file.Content)
	case ValueString:
		return v.str == o.str
	case ValueBool:
		return v.b == o.b
	case ValueNumber:
		return v.num == o.num
	case ValueList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
	}
	return true
}

// Form is a decoded form: one value per schema field, in schema order.
// It is owned by the caller; the decoder keeps no reference to it.
type Form struct {
	names  []string
	values map[string]Value
}

func newForm(size int) *Form {
	return &Form{
		names:  make([]string, 0, size),
		values: make(map[string]Value, size),
	}
}

func (f *Form) set(name string, v Value) {
	f.names = append(f.names, name)
	f.values[name] = v
}

// Lookup returns the value of a field and whether the schema declared it.
func (f *Form) Lookup(name string) (Value, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Get returns the value of a field, absent for undeclared names.
func (f *Form) Get(name string) Value {
	return f.values[name]
}

// Names returns the field names in schema order.
func (f *Form) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of fields.
func (f *Form) Len() int {
	return len(f.names)
}

// Map returns the form as plain Go data, see Value.Interface.
func (f *Form) Map() map[string]any {
	out := make(map[string]any, len(f.names))
	for _, name := range f.names {
		out[name] = f.values[name].Interface()
	}
	return out
}

// Equal reports whether two forms hold the same fields and values.
func (f *Form) Equal(o *Form) bool {
	if f == nil || o == nil {
		return f == o
	}
	if len(f.names) != len(o.names) {
		return false
	}
	for i, name := range f.names {
		if o.names[i] != name || !f.values[name].Equal(o.values[name]) {
			return false
		}
	}
	return true
}

// File returns the first file of a file field, or nil.
func (f *Form) File(name string) *File {
	files := f.Files(name)
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// Files returns every file of a file field.
func (f *Form) Files(name string) []*File {
	var out []*File
	for _, v := range f.flatten(name) {
		if file, ok := v.AsFile(); ok {
			out = append(out, file)
		}
	}
	return out
}

// String returns the first string value of a field, or "".
func (f *Form) String(name string) string {
	s := f.Strings(name)
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Strings returns every string value of a field.
func (f *Form) Strings(name string) []string {
	var out []string
	for _, v := range f.flatten(name) {
		if s, ok := v.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}

// Bool returns the first bool value of a field, or false.
func (f *Form) Bool(name string) bool {
	for _, v := range f.flatten(name) {
		if b, ok := v.AsBool(); ok {
			return b
		}
	}
	return false
}

// Int returns the first number value of a field truncated to int64, or 0.
func (f *Form) Int(name string) int64 {
	for _, v := range f.flatten(name) {
		if n, ok := v.AsNumber(); ok {
			if i, isInt := n.Int64(); isInt {
				return i
			}
			return int64(n.Float64())
		}
	}
	return 0
}

// Float returns the first number value of a field, or 0.
func (f *Form) Float(name string) float64 {
	for _, v := range f.flatten(name) {
		if n, ok := v.AsNumber(); ok {
			return n.Float64()
		}
	}
	return 0
}

func (f *Form) flatten(name string) []Value {
	v := f.values[name]
	if items, ok := v.AsList(); ok {
		return items
	}
	if v.IsAbsent() {
		return nil
	}
	return []Value{v}
}
