package formdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/formdata"
)

func TestParsePartHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		wantName    string
		wantFile    string
		hasFilename bool
		contentType string
	}{
		{
			name:        "text field",
			raw:         "Content-Disposition: form-data; name=\"title\"\r\n",
			wantName:    "title",
			contentType: formdata.DefaultTextContentType,
		},
		{
			name:        "file with content type",
			raw:         "Content-Disposition: form-data; name=\"avatar\"; filename=\"me and you.png\"\r\nContent-Type: image/png\r\n",
			wantName:    "avatar",
			wantFile:    "me and you.png",
			hasFilename: true,
			contentType: "image/png",
		},
		{
			name:        "file without content type",
			raw:         "Content-Disposition: form-data; name=\"doc\"; filename=\"a.bin\"\r\n",
			wantName:    "doc",
			wantFile:    "a.bin",
			hasFilename: true,
			contentType: formdata.DefaultFileContentType,
		},
		{
			name:        "empty filename still marks a file",
			raw:         "Content-Disposition: form-data; name=\"doc\"; filename=\"\"\r\n",
			wantName:    "doc",
			hasFilename: true,
			contentType: formdata.DefaultFileContentType,
		},
		{
			name:        "extended filename wins",
			raw:         "Content-Disposition: form-data; name=\"doc\"; filename=\"EUR rates.txt\"; filename*=UTF-8''%E2%82%AC%20rates.txt\r\n",
			wantName:    "doc",
			wantFile:    "€ rates.txt",
			hasFilename: true,
			contentType: formdata.DefaultFileContentType,
		},
		{
			name:        "escaped quote and case insensitive keys",
			raw:         "content-disposition: Form-Data; NAME=\"say \\\"hi\\\"\"\r\ncontent-type: text/plain; charset=utf-8\r\n",
			wantName:    `say "hi"`,
			contentType: "text/plain; charset=utf-8",
		},
		{
			name:        "escaped filename uses the same rule as name",
			raw:         "Content-Disposition: form-data; name=\"doc\"; filename=\"a\\\"b\\\\c.txt\"\r\n",
			wantName:    "doc",
			wantFile:    `a"b\c.txt`,
			hasFilename: true,
			contentType: formdata.DefaultFileContentType,
		},
		{
			name:        "unquoted parameters",
			raw:         "Content-Disposition: form-data; name=title\n",
			wantName:    "title",
			contentType: formdata.DefaultTextContentType,
		},
		{
			name:        "folded header",
			raw:         "Content-Disposition: form-data;\r\n name=\"folded\"\r\n",
			wantName:    "folded",
			contentType: formdata.DefaultTextContentType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ph, err := formdata.ParsePartHeader([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, ph.Name)
			assert.Equal(t, tt.wantFile, ph.Filename)
			assert.Equal(t, tt.hasFilename, ph.HasFilename)
			assert.Equal(t, tt.contentType, ph.ContentType)
		})
	}
}

func TestParsePartHeaderExtraHeaders(t *testing.T) {
	t.Parallel()

	ph, err := formdata.ParsePartHeader([]byte("Content-Disposition: form-data; name=\"a\"\r\nX-Trace: 1\r\nX-Trace: 2\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ph.Header["X-Trace"])
}

func TestParsePartHeaderErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no disposition":         "Content-Type: text/plain\r\n",
		"attachment disposition": "Content-Disposition: attachment; name=\"a\"\r\n",
		"missing name":           "Content-Disposition: form-data; filename=\"a.txt\"\r\n",
		"empty name":             "Content-Disposition: form-data; name=\"\"\r\n",
		"line without colon":     "Content-Disposition: form-data; name=\"a\"\r\nnot a header\r\n",
		"continuation first":     " folded\r\nContent-Disposition: form-data; name=\"a\"\r\n",
		"unterminated quote":     "Content-Disposition: form-data; name=\"a\r\n",
		"duplicate parameter":    "Content-Disposition: form-data; name=\"a\"; name=\"b\"\r\n",
		"bad extended filename":  "Content-Disposition: form-data; name=\"a\"; filename*=latin1''x\r\n",
		"junk after quoted":      "Content-Disposition: form-data; name=\"a\"b\r\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := formdata.ParsePartHeader([]byte(raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, formdata.ErrMalformedMultipart)
		})
	}
}
