package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "https://docs.example.com")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "tech-1/aadhaar.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/tech-1/aadhaar.pdf", ref)

	data, err := os.ReadFile(filepath.Join(dir, "tech-1", "aadhaar.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestLocalStore_Save_RejectsUnknownContentType(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "x.exe", "application/octet-stream", []byte{0x4d, 0x5a})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestAllowedContentType(t *testing.T) {
	assert.True(t, AllowedContentType("application/pdf"))
	assert.True(t, AllowedContentType("image/jpeg"))
	assert.True(t, AllowedContentType("image/png"))
	assert.False(t, AllowedContentType("text/html"))
}
