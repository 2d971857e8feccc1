package formdata

import (
	"fmt"
	"reflect"
	"strings"
)

var fileType = reflect.TypeOf(File{})

// Unmarshal copies a decoded form into the struct pointed to by v.
//
// Struct fields are matched by the `form:"name"` tag; untagged fields use the
// lower-cased field name and `form:"-"` skips a field. Supported field types:
//   - string, bool, int*, uint*, float*
//   - formdata.File and *formdata.File for file fields
//   - pointers for optional fields (nil when the value is absent)
//   - slices of the above for list fields
//
// Example:
//
//	type UploadRequest struct {
//		Avatar  formdata.File  `form:"avatar"`
//		Tags    []string       `form:"tags"`
//		Public  *bool          `form:"public"`
//		Width   int            `form:"width"`
//	}
//
//	var req UploadRequest
//	if err := formdata.Unmarshal(form, &req); err != nil {
//		return err
//	}
func Unmarshal(form *Form, v any) error {
	if form == nil {
		return fmt.Errorf("%w: nil form", ErrBind)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: target must be a non-nil pointer", ErrBind)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a pointer to struct", ErrBind)
	}

	rt := rv.Type()
	for i := range rv.NumField() {
		field := rv.Field(i)
		structField := rt.Field(i)
		if !field.CanSet() {
			continue
		}

		name, skip := formTag(structField)
		if skip {
			continue
		}
		value, ok := form.Lookup(name)
		if !ok || value.IsAbsent() {
			continue
		}
		if err := assign(field, value); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrBind, structField.Name, err)
		}
	}
	return nil
}

func formTag(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("form")
	switch tag {
	case "":
		return strings.ToLower(f.Name), false
	case "-":
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, name == ""
}

func assign(field reflect.Value, v Value) error {
	t := field.Type()

	if t.Kind() == reflect.Ptr && t.Elem() != fileType {
		if field.IsNil() {
			field.Set(reflect.New(t.Elem()))
		}
		return assign(field.Elem(), v)
	}

	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		items, ok := v.AsList()
		if !ok {
			items = []Value{v}
		}
		slice := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			if err := assign(slice.Index(i), item); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	switch v.Kind() {
	case ValueFile:
		f, _ := v.AsFile()
		switch t {
		case fileType:
			field.Set(reflect.ValueOf(*f))
		case reflect.PointerTo(fileType):
			field.Set(reflect.ValueOf(f))
		default:
			if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
				field.SetBytes(f.Content)
				return nil
			}
			return fmt.Errorf("cannot assign file to %s", t)
		}
		return nil

	case ValueString:
		s, _ := v.AsString()
		if t.Kind() != reflect.String {
			return fmt.Errorf("cannot assign string to %s", t)
		}
		field.SetString(s)
		return nil

	case ValueBool:
		b, _ := v.AsBool()
		if t.Kind() != reflect.Bool {
			return fmt.Errorf("cannot assign bool to %s", t)
		}
		field.SetBool(b)
		return nil

	case ValueNumber:
		n, _ := v.AsNumber()
		return assignNumber(field, n)
	}
	return fmt.Errorf("cannot assign %s value to %s", v.Kind(), t)
}

func assignNumber(field reflect.Value, n Number) error {
	t := field.Type()
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		if field.OverflowFloat(n.Float64()) {
			return fmt.Errorf("value %s overflows %s", n, t)
		}
		field.SetFloat(n.Float64())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := integral(n)
		if !ok || field.OverflowInt(i) {
			return fmt.Errorf("invalid %s value %s", t, n)
		}
		field.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := integral(n)
		if !ok || i < 0 || field.OverflowUint(uint64(i)) {
			return fmt.Errorf("invalid %s value %s", t, n)
		}
		field.SetUint(uint64(i))

	default:
		return fmt.Errorf("cannot assign number to %s", t)
	}
	return nil
}

// integral returns n as int64 when it has no fractional part.
func integral(n Number) (int64, bool) {
	if i, ok := n.Int64(); ok {
		return i, true
	}
	f := n.Float64()
	if f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
