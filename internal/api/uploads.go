package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// allowedImages maps accepted upload types to file extensions
var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadStore keeps uploaded images on local disk and serves them under URLPrefix
type UploadStore struct {
	dir       string
	urlPrefix string
}

// NewUploadStore creates the upload directory if it doesn't exist
func NewUploadStore(dir, urlPrefix string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Dir returns the directory served as static files
func (u *UploadStore) Dir() string {
	return u.dir
}

// DetectImage sniffs the content type and returns it with its file extension.
// ok is false for anything that is not an accepted image.
func DetectImage(data []byte) (mimeType, ext string, ok bool) {
	detected := mimetype.Detect(data)
	for current := detected; current != nil; current = current.Parent() {
		if ext, found := allowedImages[current.String()]; found {
			return current.String(), ext, true
		}
	}
	return detected.String(), "", false
}

// Save writes the image under a fresh name and returns the URL it is served at
func (u *UploadStore) Save(data []byte, ext string) (string, error) {
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(u.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return u.urlPrefix + "/" + name, nil
}
