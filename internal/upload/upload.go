// Package upload validates image uploads and hands them to a storage backend.
package upload

import (
	"bytes"         // Buffer for the sniffed payload
	"context"       // Context for backend calls
	"fmt"           // Filename formatting
	"io"            // Reader helpers
	"path/filepath" // Extension parsing
	"strings"       // Case folding
	"time"          // Timestamp in generated names

	"shop_api/internal/apperr" // Error taxonomy

	"github.com/gabriel-vasile/mimetype" // Content sniffing
	"github.com/google/uuid"             // Unique filename suffix
)

// DefaultMaxBytes is the upload size limit when none is configured
const DefaultMaxBytes int64 = 5 << 20

// Storage persists an uploaded object and returns the URL it is served from
type Storage interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)
}

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var allowedExt = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// Uploader enforces the size and type rules before writing to Storage
type Uploader struct {
	store    Storage          // Backend
	maxBytes int64            // Size limit
	now      func() time.Time // Clock for generated names
}

// NewUploader creates an Uploader; maxBytes <= 0 selects DefaultMaxBytes
func NewUploader(store Storage, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Uploader{store: store, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes returns the configured size limit
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// SaveImage validates body as a jpeg, png or gif no larger than the limit and
// stores it as "<field>-<unix-ms>-<uuid><ext>". The type is accepted when
// either the sniffed MIME type or the original extension is allowed.
func (u *Uploader) SaveImage(ctx context.Context, field, originalName string, body io.Reader) (string, error) {
	// Read one byte past the limit so oversize payloads are detected
	data, err := io.ReadAll(io.LimitReader(body, u.maxBytes+1))
	if err != nil {
		return "", apperr.Upload(apperr.CodeIOFailure, "failed to read upload", err)
	}
	if int64(len(data)) > u.maxBytes {
		return "", apperr.Upload(apperr.CodeTooLarge, fmt.Sprintf("file exceeds the %d MB limit", u.maxBytes>>20), nil)
	}
	if len(data) == 0 {
		return "", apperr.Upload(apperr.CodeNoFile, "uploaded file is empty", nil)
	}

	mt := mimetype.Detect(data)                        // Sniff content type
	ext := strings.ToLower(filepath.Ext(originalName)) // Extension as supplied by the client
	if !allowedMIME[mt.String()] && !allowedExt[ext] {
		return "", apperr.Upload(apperr.CodeUnsupportedType, "only images are allowed (jpeg, jpg, png, gif)", nil)
	}
	if !allowedExt[ext] {
		// Only image extensions are stored, so static serving never picks another type
		ext = mt.Extension()
	}

	name := fmt.Sprintf("%s-%d-%s%s", field, u.now().UnixMilli(), uuid.NewString(), ext)
	url, err := u.store.Put(ctx, name, bytes.NewReader(data), int64(len(data)), mt.String())
	if err != nil {
		return "", apperr.Upload(apperr.CodeIOFailure, "failed to store upload", err)
	}
	return url, nil
}
