// Package storage keeps product images. The catalog only sees the
// ImageStore interface; the backend is picked from configuration.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ImageStore interface {
	// Save stores the image read from body and returns its storage key.
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
	// Delete removes the object under key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// URL returns a link a client can fetch the image from.
	URL(ctx context.Context, key string) (string, error)
}

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Extension returns the lower-cased extension of filename.
func Extension(filename string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
}

// IsAllowedImage reports whether filename has a jpg, jpeg or png extension.
func IsAllowedImage(filename string) bool {
	_, ok := allowedExtensions[Extension(filename)]
	return ok
}

// ContentType guesses the MIME type from the extension.
func ContentType(filename string) string {
	if ct := mime.TypeByExtension(Extension(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// now is a seam for tests.
var now = time.Now

// NewStorageKey returns a fresh key for an upload. The client supplied name
// only contributes its extension, so it can never escape the key space.
func NewStorageKey(filename string) string {
	d := now()
	return fmt.Sprintf("products/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), Extension(filename))
}
