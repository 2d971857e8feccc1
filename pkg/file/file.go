package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formkit/pkg/formdata"
)

// Stored describes a decoded file after it was written to a storage backend.
type Stored struct {
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	MIMEType     string `json:"mime_type"`
	Extension    string `json:"extension,omitempty"`
	Key          string `json:"key"`
	AbsolutePath string `json:"-"`
	SHA256       string `json:"sha256"`
}

// Storage persists decoded form files.
type Storage interface {
	// Save writes f under key. A key ending in "/" (or empty) is treated as a
	// directory and the sanitized filename is appended.
	Save(ctx context.Context, f *formdata.File, key string) (*Stored, error)
	// Delete removes a stored file.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) bool
	// URL returns the public URL of key.
	URL(key string) string
}

var imageMIMETypes = []string{
	"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml",
	"image/bmp", "image/tiff", "image/heic", "image/heif", "image/avif",
}

// DetectMIMEType sniffs the content of f. When sniffing only finds generic
// binary or text the declared part Content-Type wins, since browsers know
// types such as image/svg+xml that content sniffing cannot tell apart.
func DetectMIMEType(f *formdata.File) string {
	if f == nil {
		return formdata.DefaultFileContentType
	}
	sniffed := http.DetectContentType(f.Content)
	mediaType, _, _ := strings.Cut(sniffed, ";")
	switch mediaType {
	case "application/octet-stream", "text/plain":
		if declared := f.MediaType(); declared != "" && declared != formdata.DefaultFileContentType {
			return declared
		}
	}
	return sniffed
}

// IsImage reports whether f holds an image, by sniffed type with an extension fallback.
func IsImage(f *formdata.File) bool {
	if f == nil {
		return false
	}
	mediaType, _, _ := strings.Cut(DetectMIMEType(f), ";")
	if slices.Contains(imageMIMETypes, mediaType) {
		return true
	}
	switch strings.ToLower(f.Extension()) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".tiff", ".tif", ".heic", ".heif", ".avif":
		return mediaType == "application/octet-stream"
	}
	return false
}

// ValidateMIMEType checks the sniffed type of f against allowed. No allowed
// types accepts everything.
//
//	if err := file.ValidateMIMEType(avatar, "image/png", "image/jpeg"); err != nil {
//		return err
//	}
func ValidateMIMEType(f *formdata.File, allowed ...string) error {
	if f == nil {
		return ErrNilFile
	}
	if len(allowed) == 0 {
		return nil
	}
	mediaType, _, _ := strings.Cut(DetectMIMEType(f), ";")
	if slices.Contains(allowed, mediaType) {
		return nil
	}
	return fmt.Errorf("MIME type %s not in allowed types %v: %w", mediaType, allowed, ErrMIMETypeNotAllowed)
}

// Hash returns the hex encoded SHA-256 of the file content.
func Hash(f *formdata.File) string {
	if f == nil {
		return ""
	}
	sum := sha256.Sum256(f.Content)
	return hex.EncodeToString(sum[:])
}

// SanitizeFilename strips path components and NUL bytes from a client
// supplied filename. Empty and special names become "unnamed".
//
//	file.SanitizeFilename("../../../etc/passwd")  // "passwd"
//	file.SanitizeFilename(`C:\Users\me\cv.pdf`)   // "cv.pdf"
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}
	return filename
}

// ObjectKey builds a collision free key for f below prefix: a random UUID plus
// the lower-cased extension of the original filename.
//
//	file.ObjectKey("avatars", f) // "avatars/4f0c...e1.png"
func ObjectKey(prefix string, f *formdata.File) string {
	name := uuid.NewString()
	if f != nil {
		name += strings.ToLower(filepath.Ext(SanitizeFilename(f.Filename)))
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// targetKey appends the sanitized filename to directory style keys.
func targetKey(key string, f *formdata.File) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key + SanitizeFilename(f.Filename)
	}
	return key
}

func describe(f *formdata.File, key string) *Stored {
	return &Stored{
		Filename:  SanitizeFilename(f.Filename),
		Size:      f.Size(),
		MIMEType:  DetectMIMEType(f),
		Extension: f.Extension(),
		Key:       key,
		SHA256:    Hash(f),
	}
}
