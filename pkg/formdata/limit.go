package formdata

import (
	"bytes"
	"errors"
	"io"
	"math"
)

// Unlimited disables the size cap of a field.
const Unlimited int64 = -1

const readChunkSize = 32 << 10

// ReadLimited reads r to EOF and returns its bytes, failing with a
// KindSizeLimitExceeded error as soon as more than limit bytes arrive.
// At most limit+1 bytes are read from r. A limit of Unlimited reads everything.
func ReadLimited(r io.Reader, field string, limit int64) ([]byte, error) {
	if limit < 0 || limit == math.MaxInt64 {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return nil, withField(err, field)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	lr := io.LimitReader(r, limit+1)
	chunk := make([]byte, min(int64(readChunkSize), limit+1))
	for {
		n, err := lr.Read(chunk)
		if n > 0 {
			if int64(buf.Len()+n) > limit {
				return nil, sizeExceeded(field, limit)
			}
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, withField(err, field)
		}
	}
}

// discardLimited drains r without keeping its bytes, under the same limit rule as ReadLimited.
func discardLimited(r io.Reader, field string, limit int64) (int64, error) {
	if limit < 0 || limit == math.MaxInt64 {
		n, err := io.Copy(io.Discard, r)
		if err != nil {
			return n, withField(err, field)
		}
		return n, nil
	}
	n, err := io.Copy(io.Discard, io.LimitReader(r, limit+1))
	if err != nil {
		return n, withField(err, field)
	}
	if n > limit {
		return n, sizeExceeded(field, limit)
	}
	return n, nil
}

// withField attaches the field name to a read error.
func withField(err error, field string) error {
	var de *DecodeError
	if errors.As(err, &de) {
		if de.Field != "" {
			return de
		}
		annotated := *de
		annotated.Field = field
		return &annotated
	}
	e := streamErr(err)
	e.Field = field
	return e
}
