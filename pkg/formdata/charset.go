package formdata

import (
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// transcode converts body to UTF-8 when contentType carries a charset other than UTF-8.
// Bodies without a charset, or with an unparsable content type, are returned as is.
func transcode(contentType string, body []byte) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	switch charset {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return body, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q", charset)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %v", charset, err)
	}
	return out, nil
}
