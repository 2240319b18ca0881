package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"vfs-go/internal/vfs"
)

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryBackend is an in-memory object store with the semantics of S3:
// keys are flat, prefixes exist only through the objects below them.
// This implementation is safe for concurrent use.
type MemoryBackend struct {
	publicURL string
	objects   map[string]memoryObject
	mu        sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(publicURL string) *MemoryBackend {
	return &MemoryBackend{
		publicURL: strings.TrimSuffix(publicURL, "/"),
		objects:   make(map[string]memoryObject),
	}
}

func (m *MemoryBackend) Kind() string { return "memory" }

func (m *MemoryBackend) Upload(ctx context.Context, r io.Reader, size int64, physicalPath string, mimeType string) (*vfs.UploadResult, error) {
	k := key(physicalPath)
	if k == "" {
		return nil, vfs.NewError(vfs.KindBackendWrite, "empty object path")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, vfs.WrapError(vfs.KindBackendWrite, err, "reading %s", k)
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, vfs.NewError(vfs.KindBackendWrite, "writing %s: size mismatch: expected %d bytes, got %d", k, size, len(data))
	}

	m.mu.Lock()
	m.objects[k] = memoryObject{data: data, contentType: mimeType, modified: time.Now()}
	m.mu.Unlock()

	url, _ := m.URL(ctx, k)
	return &vfs.UploadResult{ResolvedPath: k, PublicURL: url, Size: int64(len(data))}, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, physicalPath string) error {
	k := key(physicalPath)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[k]; !ok {
		return fmt.Errorf("%w: %s", vfs.ErrObjectNotFound, k)
	}
	delete(m.objects, k)
	return nil
}

func (m *MemoryBackend) Exists(ctx context.Context, physicalPath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[key(physicalPath)]
	return ok
}

func (m *MemoryBackend) URL(ctx context.Context, physicalPath string) (string, error) {
	return m.publicURL + "/" + escapePath(key(physicalPath)), nil
}

// List groups keys below prefix by their next path segment.
func (m *MemoryBackend) List(ctx context.Context, prefix string) ([]vfs.ObjectInfo, error) {
	dir := key(prefix)
	if dir != "" {
		dir += "/"
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	objects := []vfs.ObjectInfo{}
	for k, obj := range m.objects {
		if !strings.HasPrefix(k, dir) {
			continue
		}
		rest := strings.TrimPrefix(k, dir)
		if name, _, nested := strings.Cut(rest, "/"); nested {
			if !seen[name] {
				seen[name] = true
				objects = append(objects, vfs.ObjectInfo{Name: name, Path: dir + name, IsDirectory: true})
			}
			continue
		}
		url, _ := m.URL(ctx, k)
		objects = append(objects, vfs.ObjectInfo{
			Name:         rest,
			Path:         k,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
			URL:          url,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// Get returns a copy of the object at physicalPath. Used by tests.
func (m *MemoryBackend) Get(physicalPath string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key(physicalPath)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}

// Len returns the number of stored objects.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Compile-time check that MemoryBackend implements vfs.StorageBackend
var _ vfs.StorageBackend = (*MemoryBackend)(nil)
