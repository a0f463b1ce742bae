package docstore

import "context"

// Store defines the interface for the external document store. Uploads return
// an opaque file reference (URL or key); the workflow engine never looks
// inside it. Failures are per-file and never affect already-stored documents.
type Store interface {
	// Save stores the file content and returns its opaque reference
	Save(ctx context.Context, objectName, contentType string, data []byte) (string, error)

	// GetName returns the name of the store implementation
	GetName() string
}

// Allowed upload content types. Identity documents arrive as scans or photos.
var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// AllowedContentType reports whether ct may be uploaded as a document
func AllowedContentType(ct string) bool {
	return allowedContentTypes[ct]
}
