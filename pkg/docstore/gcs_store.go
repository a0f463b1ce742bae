package docstore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSStore stores documents in a Google Cloud Storage bucket
type GCSStore struct {
	client    *storage.Client
	bucket    string
	urlPrefix string
}

// GCSConfig holds configuration for the GCS document store
type GCSConfig struct {
	Bucket string
	// URLPrefix is prepended to object names to form the returned file
	// reference. Defaults to the public storage URL of the bucket.
	URLPrefix string
}

// NewGCSStore creates a GCS-backed document store. Credentials come from
// application default credentials.
func NewGCSStore(ctx context.Context, config GCSConfig) (*GCSStore, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	urlPrefix := config.URLPrefix
	if urlPrefix == "" {
		urlPrefix = fmt.Sprintf("https://storage.googleapis.com/%s", config.Bucket)
	}

	return &GCSStore{
		client:    client,
		bucket:    config.Bucket,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

// Save uploads the file and returns its public URL as the file reference
func (s *GCSStore) Save(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if !AllowedContentType(contentType) {
		return "", fmt.Errorf("unsupported file type: %s", contentType)
	}

	wc := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.urlPrefix, objectName), nil
}

// GetName returns the store name
func (s *GCSStore) GetName() string {
	return "gcs"
}

// Close releases the underlying client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
