package testutil

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"vfs-go/internal/storage"
	"vfs-go/internal/vfs"
)

// NewTestBackend creates a new in-memory backend for testing.
func NewTestBackend() *storage.MemoryBackend {
	return storage.NewMemoryBackend("https://cdn.test")
}

// NewTestFilesystemBackend creates a filesystem backend below t.TempDir().
func NewTestFilesystemBackend(t *testing.T) *storage.FilesystemBackend {
	t.Helper()
	b, err := storage.NewFilesystemBackend(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	if err != nil {
		t.Fatalf("failed to create filesystem backend: %v", err)
	}
	return b
}

// RecordingBackend wraps a StorageBackend, counts calls and can inject
// failures. It hides any DirectoryBackend capability of the wrapped backend,
// so it always behaves like an object store.
type RecordingBackend struct {
	vfs.StorageBackend

	mu        sync.Mutex
	UploadErr error
	DeleteErr error
	uploads   []string
	deletes   []string
}

// NewRecordingBackend wraps b.
func NewRecordingBackend(b vfs.StorageBackend) *RecordingBackend {
	return &RecordingBackend{StorageBackend: b}
}

func (r *RecordingBackend) Upload(ctx context.Context, rd io.Reader, size int64, physicalPath string, mimeType string) (*vfs.UploadResult, error) {
	r.mu.Lock()
	r.uploads = append(r.uploads, physicalPath)
	err := r.UploadErr
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return r.StorageBackend.Upload(ctx, rd, size, physicalPath, mimeType)
}

func (r *RecordingBackend) Delete(ctx context.Context, physicalPath string) error {
	r.mu.Lock()
	r.deletes = append(r.deletes, physicalPath)
	err := r.DeleteErr
	r.mu.Unlock()

	if err != nil {
		return err
	}
	return r.StorageBackend.Delete(ctx, physicalPath)
}

// Uploads returns the physical paths passed to Upload, in call order.
func (r *RecordingBackend) Uploads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uploads...)
}

// Deletes returns the physical paths passed to Delete, in call order.
func (r *RecordingBackend) Deletes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deletes...)
}
