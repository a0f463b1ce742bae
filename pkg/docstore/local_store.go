package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes documents to the local filesystem. Used in development
// and in tests.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates a filesystem-backed document store rooted at dir
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "file://" + dir
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

// Save writes the file under the store's directory
func (s *LocalStore) Save(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if !AllowedContentType(contentType) {
		return "", fmt.Errorf("unsupported file type: %s", contentType)
	}

	// Object names may contain path separators (e.g. technician-id/doc-type)
	path := filepath.Join(s.dir, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.urlPrefix, objectName), nil
}

// GetName returns the store name
func (s *LocalStore) GetName() string {
	return "local"
}
