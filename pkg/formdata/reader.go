package formdata

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const (
	// DefaultMaxHeaderBytes caps the header block of a single part.
	DefaultMaxHeaderBytes = 16 << 10 // 16 KiB

	// maxBoundaryLength comes from RFC 2046.
	maxBoundaryLength = 70

	readBufferSize = 32 << 10
	// peekSlack leaves room after a delimiter to tell "--" or LWSP+CRLF from body bytes.
	peekSlack = 4
)

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithHeaderLimit caps the size of each part's header block. Non-positive values are ignored.
func WithHeaderLimit(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxHeaderBytes = n
		}
	}
}

// Reader splits a multipart/form-data stream into parts.
// It is forward-only: each part must be consumed before the next one is requested,
// and unread body bytes are discarded by NextPart.
type Reader struct {
	br        *bufio.Reader
	current   *Part
	partsRead int
	done      bool
	err       error

	nl             []byte // line ending used by the stream, "\r\n" unless the first delimiter uses "\n"
	nlDashBoundary []byte // nl + "--" + boundary
	dashBoundary   []byte // "--" + boundary

	maxHeaderBytes int
}

// NewReader returns a Reader that splits r on the given boundary.
// An invalid boundary is reported by the first call to NextPart.
func NewReader(r io.Reader, boundary string, opts ...ReaderOption) *Reader {
	b := []byte("\r\n--" + boundary)
	rd := &Reader{
		nl:             b[:2],
		nlDashBoundary: b,
		dashBoundary:   b[2:],
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}
	for _, opt := range opts {
		opt(rd)
	}
	if err := ValidateBoundary(boundary); err != nil {
		rd.err = malformed(err)
	}
	rd.br = bufio.NewReaderSize(r, readBufferSize)
	return rd
}

// ValidateBoundary checks a boundary against the RFC 2046 grammar:
// 1 to 70 characters from bchars, not ending with a space.
func ValidateBoundary(boundary string) error {
	if len(boundary) == 0 || len(boundary) > maxBoundaryLength {
		return ErrInvalidBoundary
	}
	for i := 0; i < len(boundary); i++ {
		if !isBoundaryChar(boundary[i]) {
			return ErrInvalidBoundary
		}
	}
	if boundary[len(boundary)-1] == ' ' {
		return ErrInvalidBoundary
	}
	return nil
}

func isBoundaryChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '\'', '(', ')', '+', '_', ',', '-', '.', '/', ':', '=', '?', ' ':
		return true
	}
	return false
}

// NextPart advances to the next part and returns it.
// It returns io.EOF after the closing delimiter; any other error is a *DecodeError
// and is returned again by every later call.
func (r *Reader) NextPart() (*Part, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}
	if r.current != nil {
		if _, err := io.Copy(io.Discard, r.current); err != nil {
			return nil, r.fail(err)
		}
		r.current = nil
	}

	sawNewline := false
	for {
		line, err := r.br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if r.partsRead == 0 {
				continue // over-long preamble line
			}
			return nil, r.fail(malformed(errors.New("unexpected data after part body")))
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, r.fail(streamErr(err))
		}
		atEOF := err != nil

		if r.isFinalDelimiter(line) {
			r.done = true
			return nil, io.EOF
		}
		if r.isDelimiter(line) {
			if atEOF {
				return nil, r.fail(unexpectedEOF(""))
			}
			if r.partsRead == 0 && !bytes.HasSuffix(line, []byte("\r\n")) {
				r.nl = r.nl[1:]
				r.nlDashBoundary = r.nlDashBoundary[1:]
			}
			header, err := r.readHeaderBlock()
			if err != nil {
				return nil, r.fail(err)
			}
			r.partsRead++
			r.current = &Part{r: r, header: header}
			return r.current, nil
		}
		if atEOF {
			if r.partsRead == 0 {
				return nil, r.fail(malformed(ErrBoundaryNotFound))
			}
			return nil, r.fail(unexpectedEOF(""))
		}
		if r.partsRead == 0 {
			continue // preamble
		}
		if !sawNewline && bytes.Equal(line, r.nl) {
			sawNewline = true
			continue
		}
		return nil, r.fail(malformed(errors.New("expected boundary delimiter")))
	}
}

// readHeaderBlock returns the header lines of a part without the terminating blank line.
func (r *Reader) readHeaderBlock() ([]byte, error) {
	var block []byte
	partial := false
	for {
		chunk, err := r.br.ReadSlice('\n')
		if len(block)+len(chunk) > r.maxHeaderBytes {
			return nil, malformed(ErrHeaderTooLarge)
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			block = append(block, chunk...)
			partial = true
			continue
		case errors.Is(err, io.EOF):
			return nil, unexpectedEOF("")
		case err != nil:
			return nil, streamErr(err)
		}
		if !partial && (string(chunk) == "\r\n" || string(chunk) == "\n") {
			return block, nil
		}
		block = append(block, chunk...)
		partial = false
	}
}

func (r *Reader) isDelimiter(line []byte) bool {
	rest, ok := bytes.CutPrefix(line, r.dashBoundary)
	if !ok {
		return false
	}
	rest = skipLWSP(rest)
	// A bare delimiter at EOF is still a delimiter; the caller reports the truncation.
	return len(rest) == 0 || string(rest) == "\r\n" || string(rest) == "\n"
}

func (r *Reader) isFinalDelimiter(line []byte) bool {
	rest, ok := bytes.CutPrefix(line, r.dashBoundary)
	if !ok {
		return false
	}
	rest, ok = bytes.CutPrefix(rest, []byte("--"))
	if !ok {
		return false
	}
	rest = skipLWSP(rest)
	return len(rest) == 0 || string(rest) == "\r\n" || string(rest) == "\n"
}

func (r *Reader) fail(err error) error {
	if r.err == nil {
		r.err = err
	}
	return r.err
}

type delimiterMatch uint8

const (
	matchNo delimiterMatch = iota
	matchYes
	matchNeedMore
)

// delimiterFollows inspects the bytes after a "\r\n--boundary" match.
func delimiterFollows(rest []byte, atEOF bool) delimiterMatch {
	undecided := matchNeedMore
	if atEOF {
		undecided = matchNo
	}
	if len(rest) == 0 {
		return undecided
	}
	if rest[0] == '-' {
		if len(rest) < 2 {
			return undecided
		}
		if rest[1] == '-' {
			return matchYes
		}
		return matchNo
	}
	rest = skipLWSP(rest)
	switch {
	case len(rest) == 0:
		return undecided
	case rest[0] == '\n':
		return matchYes
	case rest[0] == '\r':
		if len(rest) < 2 {
			return undecided
		}
		if rest[1] == '\n' {
			return matchYes
		}
	}
	return matchNo
}

// scanBody reports how many leading bytes of buf are body content, whether the part
// ends right after them, and whether more input is needed to decide.
func (r *Reader) scanBody(buf []byte, atEOF bool) (n int, end, more bool) {
	from := 0
	for {
		i := bytes.Index(buf[from:], r.nlDashBoundary)
		if i < 0 {
			break
		}
		i += from
		switch delimiterFollows(buf[i+len(r.nlDashBoundary):], atEOF) {
		case matchYes:
			return i, true, false
		case matchNeedMore:
			return i, false, i == 0
		}
		from = i + 1
	}
	if atEOF {
		return len(buf), false, false
	}
	// Hold back a tail that could be the start of a delimiter split across reads.
	n = len(buf) - (len(r.nlDashBoundary) - 1)
	if n <= 0 {
		return 0, false, true
	}
	return n, false, false
}

// Part is one section of a multipart body. Read returns its body up to the next delimiter.
type Part struct {
	r      *Reader
	header []byte

	avail int  // buffered bytes known to be body
	end   bool // a delimiter follows the avail bytes
	grow  bool // the last scan needs more input than is buffered
	err   error
}

// Header returns the raw header block of the part, without the blank line that ends it.
func (p *Part) Header() []byte {
	return p.header
}

// Read reads body bytes. It returns io.EOF at the delimiter that ends the part
// and a *DecodeError of kind KindUnexpectedEOF if the stream ends first.
func (p *Part) Read(d []byte) (int, error) {
	if len(d) == 0 {
		return 0, nil
	}
	for p.avail == 0 && !p.end {
		if p.err != nil {
			return 0, p.err
		}
		if err := p.fill(); err != nil {
			p.err = p.r.fail(err)
			return 0, p.err
		}
	}
	if p.avail == 0 {
		return 0, io.EOF
	}
	n, _ := p.r.br.Read(d[:min(len(d), p.avail)])
	p.avail -= n
	return n, nil
}

func (p *Part) fill() error {
	br := p.r.br
	want := max(br.Buffered(), len(p.r.nlDashBoundary)+peekSlack)
	if p.grow {
		want = max(want, br.Buffered()+1)
		p.grow = false
	}
	want = min(want, br.Size())

	buf, err := br.Peek(want)
	atEOF := false
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			atEOF = true
		case errors.Is(err, bufio.ErrBufferFull):
		default:
			return streamErr(err)
		}
	}

	n, end, more := p.r.scanBody(buf, atEOF)
	switch {
	case n > 0 || end:
		p.avail, p.end = n, end
	case atEOF:
		return unexpectedEOF("")
	case more && len(buf) >= br.Size():
		// Whitespace after a delimiter candidate fills the buffer; it cannot be a delimiter.
		p.avail = 1
	default:
		p.grow = true
	}
	return nil
}
