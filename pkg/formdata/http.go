package formdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

// FromRequest decodes a multipart/form-data request body against schema.
// The boundary is taken from the request Content-Type; r.Context() bounds the read.
//
// Example:
//
//	var uploadSchema = formdata.MustSchema(
//		formdata.Field{Name: "avatar", Type: formdata.TypeFile, Cardinality: formdata.Required, MaxSize: 5 << 20},
//		formdata.Field{Name: "tags", Type: formdata.TypeString, Cardinality: formdata.List},
//	)
//
//	func upload(w http.ResponseWriter, r *http.Request) {
//		form, err := formdata.FromRequest(r, uploadSchema)
//		if err != nil {
//			formdata.DefaultErrorHandler(w, r, err)
//			return
//		}
//		avatar := form.File("avatar")
//		// ...
//	}
func FromRequest(r *http.Request, schema *Schema, opts ...Option) (*Form, error) {
	return NewDecoder(opts...).DecodeRequest(r, schema)
}

// DecodeRequest decodes the body of r, see FromRequest.
func (d *Decoder) DecodeRequest(r *http.Request, schema *Schema) (*Form, error) {
	boundary, err := BoundaryFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return d.Decode(r.Context(), schema, boundary, r.Body)
}

// BoundaryFromContentType extracts and validates the boundary of a multipart/form-data content type.
func BoundaryFromContentType(contentType string) (string, error) {
	if contentType == "" {
		return "", fmt.Errorf("%w: missing content type", ErrUnsupportedMediaType)
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedMediaType, err)
	}
	if mediaType != "multipart/form-data" {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedMediaType, mediaType)
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return "", ErrMissingBoundary
	}
	if err := ValidateBoundary(boundary); err != nil {
		return "", err
	}
	return boundary, nil
}

// StatusCode maps a decode error to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrMissingBoundary), errors.Is(err, ErrInvalidBoundary):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	switch KindOf(err) {
	case KindSizeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case KindMissingField, KindTypeMismatch, KindUnknownField:
		return http.StatusUnprocessableEntity
	case KindMalformedMultipart, KindUnexpectedEOF, KindStream:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body written by DefaultErrorHandler.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Limit    int64  `json:"limit,omitempty"`
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

// NewErrorResponse describes err for clients.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: "internal_error", Message: "failed to decode form"}

	var de *DecodeError
	switch {
	case errors.As(err, &de):
		resp = ErrorResponse{
			Error:    de.Kind.String(),
			Message:  de.Error(),
			Field:    de.Field,
			Limit:    de.Limit,
			Expected: de.Expected,
			Got:      de.Got,
		}
	case errors.Is(err, ErrUnsupportedMediaType):
		resp = ErrorResponse{Error: "unsupported_media_type", Message: err.Error()}
	case errors.Is(err, ErrMissingBoundary), errors.Is(err, ErrInvalidBoundary):
		resp = ErrorResponse{Error: "invalid_boundary", Message: err.Error()}
	}
	return resp
}

// ErrorHandler converts a decode error into an HTTP response.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler writes the status from StatusCode and an ErrorResponse JSON body.
// The connection is marked for closing because the request body may be partly unread.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Connection", "close")
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(NewErrorResponse(err))
}
