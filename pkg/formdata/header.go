package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"net/textproto"
	"net/url"
	"strings"
)

// Content types assumed when a part does not declare one.
const (
	DefaultTextContentType = "text/plain"
	DefaultFileContentType = "application/octet-stream"
)

// PartHeader is the parsed header block of one part.
type PartHeader struct {
	// Name is the form field name from Content-Disposition.
	Name string
	// Filename is the client supplied file name. It is only meaningful when HasFilename is set.
	Filename    string
	HasFilename bool
	// ContentType is the declared Content-Type or the default for the part's kind.
	ContentType string
	// Header holds every header line of the part.
	Header textproto.MIMEHeader
}

// ParsePartHeader parses a raw header block (the bytes before the blank line).
// The block must contain a form-data Content-Disposition with a non-empty name.
func ParsePartHeader(raw []byte) (PartHeader, error) {
	header, err := parseHeaderLines(raw)
	if err != nil {
		return PartHeader{}, malformed(err)
	}

	cd := header.Get("Content-Disposition")
	if cd == "" {
		return PartHeader{}, malformed(errors.New("missing Content-Disposition header"))
	}
	disposition, params, err := parseDisposition(cd)
	if err != nil {
		return PartHeader{}, malformed(err)
	}
	if !strings.EqualFold(disposition, "form-data") {
		return PartHeader{}, malformed(fmt.Errorf("unsupported disposition %q", disposition))
	}

	ph := PartHeader{Name: params["name"], Header: header}
	if ph.Name == "" {
		return PartHeader{}, malformed(errors.New("Content-Disposition without field name"))
	}

	if ext, ok := params["filename*"]; ok {
		name, err := decodeExtValue(ext)
		if err != nil {
			return PartHeader{}, malformed(err)
		}
		ph.Filename, ph.HasFilename = name, true
	} else if name, ok := params["filename"]; ok {
		ph.Filename, ph.HasFilename = name, true
	}

	ph.ContentType = strings.TrimSpace(header.Get("Content-Type"))
	if ph.ContentType == "" {
		if ph.HasFilename {
			ph.ContentType = DefaultFileContentType
		} else {
			ph.ContentType = DefaultTextContentType
		}
	}
	return ph, nil
}

func parseHeaderLines(raw []byte) (textproto.MIMEHeader, error) {
	header := make(textproto.MIMEHeader)
	var lastKey string
	for len(raw) > 0 {
		var line []byte
		line, raw, _ = bytes.Cut(raw, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			break
		}

		// Folded continuation of the previous header value.
		if line[0] == ' ' || line[0] == '\t' {
			if lastKey == "" {
				return nil, errors.New("header continuation without a header")
			}
			values := header[lastKey]
			values[len(values)-1] += " " + string(bytes.TrimSpace(line))
			continue
		}

		key, value, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			return nil, fmt.Errorf("header line %q is not a Name: value pair", truncate(string(line)))
		}
		if len(key) == 0 || !isToken(string(key)) {
			return nil, fmt.Errorf("invalid header name %q", truncate(string(key)))
		}
		lastKey = textproto.CanonicalMIMEHeaderKey(string(key))
		header.Add(lastKey, string(bytes.TrimSpace(value)))
	}
	return header, nil
}

// parseDisposition splits `form-data; name="x"; filename="y"` into its type and
// lower-cased parameters. In quoted values a backslash escapes the next character.
func parseDisposition(s string) (string, map[string]string, error) {
	disposition, rest, _ := strings.Cut(s, ";")
	disposition = strings.TrimSpace(disposition)
	if disposition == "" || !isToken(disposition) {
		return "", nil, fmt.Errorf("invalid disposition type %q", truncate(disposition))
	}

	params := make(map[string]string)
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			return disposition, params, nil
		}
		if rest[0] == ';' {
			rest = rest[1:]
			continue
		}

		key, after, ok := strings.Cut(rest, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" || !isToken(key) {
			return "", nil, fmt.Errorf("invalid disposition parameter %q", truncate(rest))
		}
		after = strings.TrimLeft(after, " \t")

		var value string
		if strings.HasPrefix(after, `"`) {
			var err error
			value, rest, err = consumeQuoted(after[1:])
			if err != nil {
				return "", nil, err
			}
			rest = strings.TrimLeft(rest, " \t")
			if rest != "" && rest[0] != ';' {
				return "", nil, fmt.Errorf("unexpected data after parameter %q", key)
			}
		} else {
			value, rest, _ = strings.Cut(after, ";")
			value = strings.TrimSpace(value)
		}

		if _, dup := params[key]; dup {
			return "", nil, fmt.Errorf("duplicate disposition parameter %q", key)
		}
		params[key] = value
	}
}

// consumeQuoted reads a quoted string whose opening quote was already consumed.
func consumeQuoted(s string) (value, rest string, err error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			return b.String(), s[i+1:], nil
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", "", errors.New("unterminated quoted string")
}

// decodeExtValue decodes an RFC 5987 value such as UTF-8''na%C3%AFve.txt.
func decodeExtValue(v string) (string, error) {
	charset, rest, ok := strings.Cut(v, "'")
	if !ok {
		return "", fmt.Errorf("invalid extended parameter %q", truncate(v))
	}
	_, encoded, ok := strings.Cut(rest, "'")
	if !ok {
		return "", fmt.Errorf("invalid extended parameter %q", truncate(v))
	}
	if !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		return "", fmt.Errorf("unsupported filename charset %q", charset)
	}
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid extended parameter encoding: %w", err)
	}
	return decoded, nil
}

func isToken(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte(`()<>@,;:\"/[]?={}`, c) >= 0 {
			return false
		}
	}
	return s != ""
}

func skipLWSP(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}

// truncate keeps client supplied text short in error messages.
func truncate(s string) string {
	const maxLen = 40
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
