// Package formdata decodes multipart/form-data bodies into typed values while
// enforcing per-field size budgets during the read.
//
// The decoder streams the body once. Each part is split off at its boundary
// delimiter, its header block is parsed, and its body is read under the byte
// budget of the schema field it belongs to. A field that goes over budget fails
// the decode as soon as the first byte past the limit arrives, so an oversized
// upload is never buffered in full. Once the body is consumed the parts are
// mapped onto the schema: arity is checked, text is validated as UTF-8 and
// booleans and numbers are parsed.
//
// # Schema
//
// A Schema is an ordered table of fields. Each field has a type (file, string,
// bool, number), a cardinality (required, optional, list) and a byte budget:
//
//	var profileSchema = formdata.MustSchema(
//	    formdata.Field{Name: "avatar", Type: formdata.TypeFile, Cardinality: formdata.Required, MaxSize: 5 << 20},
//	    formdata.Field{Name: "tags", Type: formdata.TypeString, Cardinality: formdata.List},
//	    formdata.Field{Name: "public", Type: formdata.TypeBool, Cardinality: formdata.Optional},
//	    formdata.Field{Name: "age", Type: formdata.TypeNumber, Cardinality: formdata.Optional, Integer: true},
//	)
//
// Fields that leave MaxSize at zero get the decoder default for their type
// (10 MiB for files, 1 MiB for text). A schema is immutable and can be shared
// by any number of concurrent decodes.
//
// # Decoding
//
//	form, err := formdata.Decode(ctx, profileSchema, boundary, body)
//	if err != nil {
//	    return err
//	}
//	avatar := form.File("avatar")
//	tags := form.Strings("tags")
//
// For HTTP handlers FromRequest extracts the boundary from the request and
// DefaultErrorHandler turns failures into JSON responses. Unmarshal copies a
// decoded form into a tagged struct.
//
// # Errors
//
// Every decode failure is a *DecodeError whose Kind tells framing problems
// (KindMalformedMultipart, KindUnexpectedEOF) from budget violations
// (KindSizeLimitExceeded) and schema violations (KindMissingField,
// KindTypeMismatch, KindUnknownField). Use errors.Is with the matching
// sentinel or errors.As to read the field name and limit:
//
//	var de *formdata.DecodeError
//	if errors.As(err, &de) && de.Kind == formdata.KindSizeLimitExceeded {
//	    log.Printf("field %s is over %d bytes", de.Field, de.Limit)
//	}
//
// Decoding never returns a partial form and never retries; the body is a
// one-shot stream.
package formdata
