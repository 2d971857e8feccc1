package formdata

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dmitrymomot/formkit/pkg/logger"
)

const (
	// DefaultFileMaxSize is the per-field budget of file fields without an explicit MaxSize.
	DefaultFileMaxSize int64 = 10 << 20 // 10 MiB
	// DefaultValueMaxSize is the per-field budget of text fields without an explicit MaxSize.
	// Undeclared parts are drained under the same cap.
	DefaultValueMaxSize int64 = 1 << 20 // 1 MiB
	// DefaultMaxParts caps the number of parts in one body.
	DefaultMaxParts = 1000
)

var errTooManyParts = errors.New("too many parts")

// Option configures a Decoder.
type Option func(*Decoder)

// WithStrict rejects parts whose name the schema does not declare.
func WithStrict(strict bool) Option {
	return func(d *Decoder) { d.strict = strict }
}

// WithLenientScalars accepts on/off for Bool fields and ignores whitespace
// around Bool and Number values.
func WithLenientScalars(lenient bool) Option {
	return func(d *Decoder) { d.lenientScalars = lenient }
}

// WithDefaultFileMaxSize sets the budget of file fields that leave MaxSize at zero.
func WithDefaultFileMaxSize(n int64) Option {
	return func(d *Decoder) {
		if n > 0 || n == Unlimited {
			d.fileMaxSize = n
		}
	}
}

// WithDefaultValueMaxSize sets the budget of non-file fields that leave MaxSize at zero.
func WithDefaultValueMaxSize(n int64) Option {
	return func(d *Decoder) {
		if n > 0 || n == Unlimited {
			d.valueMaxSize = n
		}
	}
}

// WithMaxParts caps how many parts a body may contain.
func WithMaxParts(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxParts = n
		}
	}
}

// WithMaxHeaderBytes caps the header block of each part.
func WithMaxHeaderBytes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxHeaderBytes = n
		}
	}
}

// WithLogger sets the logger for part level debug events. Nil keeps the silent default.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// Decoder decodes multipart/form-data bodies against a Schema.
// A Decoder holds only configuration and is safe for concurrent use.
type Decoder struct {
	strict         bool
	lenientScalars bool
	fileMaxSize    int64
	valueMaxSize   int64
	maxParts       int
	maxHeaderBytes int
	logger         *slog.Logger
}

// NewDecoder returns a Decoder with the given options applied over the defaults.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		fileMaxSize:    DefaultFileMaxSize,
		valueMaxSize:   DefaultValueMaxSize,
		maxParts:       DefaultMaxParts,
		maxHeaderBytes: DefaultMaxHeaderBytes,
		logger:         logger.Noop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode is a shortcut for NewDecoder(opts...).Decode.
func Decode(ctx context.Context, schema *Schema, boundary string, body io.Reader, opts ...Option) (*Form, error) {
	return NewDecoder(opts...).Decode(ctx, schema, boundary, body)
}

// Decode reads body, split on boundary, and maps it onto schema.
// It returns either a complete form or the first error; there is no partial result.
// Failures are *DecodeError values, classified by kind.
func (d *Decoder) Decode(ctx context.Context, schema *Schema, boundary string, body io.Reader) (*Form, error) {
	if schema == nil {
		return nil, ErrInvalidSchema
	}
	if err := ValidateBoundary(boundary); err != nil {
		return nil, malformed(err)
	}

	parts, err := d.readParts(ctx, schema, boundary, body)
	if err != nil {
		d.logger.DebugContext(ctx, "multipart decode failed", logger.Error(err))
		return nil, err
	}

	var mapOpts []MapOption
	if d.lenientScalars {
		mapOpts = append(mapOpts, LenientScalars())
	}
	form, err := MapParts(schema, parts, d.strict, mapOpts...)
	if err != nil {
		d.logger.DebugContext(ctx, "multipart mapping failed", logger.Error(err))
		return nil, err
	}

	d.logger.DebugContext(ctx, "multipart form decoded",
		logger.Count(len(parts)),
		logger.Fields(form.Len()),
	)
	return form, nil
}

// readParts splits the body and reads every declared part under its field budget.
func (d *Decoder) readParts(ctx context.Context, schema *Schema, boundary string, body io.Reader) ([]RawPart, error) {
	mr := NewReader(&contextReader{ctx: ctx, r: body}, boundary, WithHeaderLimit(d.maxHeaderBytes))

	var parts []RawPart
	used := make(map[string]int64)
	for count := 0; ; count++ {
		if err := ctx.Err(); err != nil {
			return nil, streamErr(err)
		}

		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return parts, nil
		}
		if err != nil {
			return nil, err
		}
		if count >= d.maxParts {
			return nil, &DecodeError{Kind: KindSizeLimitExceeded, Limit: int64(d.maxParts), Err: errTooManyParts}
		}

		header, err := ParsePartHeader(p.Header())
		if err != nil {
			return nil, err
		}

		name := fieldName(header.Name)
		field, known := schema.Field(name)
		if !known {
			if d.strict {
				return nil, &DecodeError{Kind: KindUnknownField, Field: header.Name}
			}
			n, err := discardLimited(p, header.Name, d.valueMaxSize)
			if err != nil {
				return nil, err
			}
			d.logger.DebugContext(ctx, "skipped undeclared part", logger.Field(header.Name), logger.Bytes(n))
			continue
		}

		limit := d.limitFor(field)
		remaining := limit
		if limit != Unlimited {
			remaining = limit - used[name]
		}
		data, err := ReadLimited(p, name, remaining)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) && de.Kind == KindSizeLimitExceeded {
				return nil, sizeExceeded(name, limit)
			}
			return nil, err
		}
		used[name] += int64(len(data))

		d.logger.DebugContext(ctx, "read part",
			logger.Field(name),
			logger.Filename(header.Filename),
			logger.Bytes(int64(len(data))),
		)
		parts = append(parts, RawPart{
			Name:        header.Name,
			Filename:    header.Filename,
			HasFilename: header.HasFilename,
			ContentType: header.ContentType,
			Body:        data,
		})
	}
}

// limitFor resolves the byte budget of a field.
func (d *Decoder) limitFor(f Field) int64 {
	if f.MaxSize != 0 {
		return f.MaxSize
	}
	if f.Type == TypeFile {
		return d.fileMaxSize
	}
	return d.valueMaxSize
}

// contextReader fails reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
