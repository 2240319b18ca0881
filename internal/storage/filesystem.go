package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"vfs-go/internal/vfs"
)

// FilesystemBackend stores objects as files below a root directory:
//
//	<root>/
//	  user_1/
//	    otchety/
//	      20240115103000_ab12cd34.pdf
//
// Objects are served by a web server under publicURL.
type FilesystemBackend struct {
	root      string
	publicURL string
}

// NewFilesystemBackend creates a backend rooted at root, creating it if needed.
func NewFilesystemBackend(root, publicURL string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemBackend{
		root:      root,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Root returns the directory objects are stored under.
func (b *FilesystemBackend) Root() string {
	return b.root
}

func (b *FilesystemBackend) Kind() string { return "filesystem" }

// key normalises a physical path so it cannot escape the root.
func key(physicalPath string) string {
	return strings.TrimPrefix(path.Clean("/"+physicalPath), "/")
}

func (b *FilesystemBackend) fullPath(physicalPath string) string {
	return filepath.Join(b.root, filepath.FromSlash(key(physicalPath)))
}

// Upload writes the object using an atomic write (temp file + rename).
// A negative size skips the size check.
func (b *FilesystemBackend) Upload(ctx context.Context, r io.Reader, size int64, physicalPath string, mimeType string) (*vfs.UploadResult, error) {
	k := key(physicalPath)
	if k == "" {
		return nil, vfs.NewError(vfs.KindBackendWrite, "empty object path")
	}
	destPath := b.fullPath(k)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return nil, vfs.WrapError(vfs.KindBackendWrite, err, "creating directory for %s", k)
	}

	written, err := writeFile(destPath, r, size)
	if err != nil {
		return nil, vfs.WrapError(vfs.KindBackendWrite, err, "writing %s", k)
	}

	publicURL, _ := b.URL(ctx, k)
	return &vfs.UploadResult{
		ResolvedPath: k,
		PublicURL:    publicURL,
		Size:         written,
	}, nil
}

// writeFile writes data from r to destPath using atomic write (temp file + rename).
func writeFile(destPath string, r io.Reader, expectedSize int64) (int64, error) {
	// Temp file in the same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	if expectedSize >= 0 && written != expectedSize {
		return 0, fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return written, nil
}

func (b *FilesystemBackend) Delete(ctx context.Context, physicalPath string) error {
	k := key(physicalPath)
	info, err := os.Stat(b.fullPath(k))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", vfs.ErrObjectNotFound, k)
		}
		return vfs.WrapError(vfs.KindBackendDelete, err, "deleting %s", k)
	}
	if info.IsDir() {
		return vfs.NewError(vfs.KindBackendDelete, "deleting %s: is a directory", k)
	}
	if err := os.Remove(b.fullPath(k)); err != nil {
		return vfs.WrapError(vfs.KindBackendDelete, err, "deleting %s", k)
	}
	return nil
}

func (b *FilesystemBackend) Exists(ctx context.Context, physicalPath string) bool {
	k := key(physicalPath)
	if k == "" {
		return false
	}
	_, err := os.Stat(b.fullPath(k))
	return err == nil
}

// URL returns publicURL joined with the escaped path. No I/O is done.
func (b *FilesystemBackend) URL(ctx context.Context, physicalPath string) (string, error) {
	return b.publicURL + "/" + escapePath(key(physicalPath)), nil
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func (b *FilesystemBackend) List(ctx context.Context, prefix string) ([]vfs.ObjectInfo, error) {
	dir := key(prefix)
	entries, err := os.ReadDir(b.fullPath(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []vfs.ObjectInfo{}, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	objects := make([]vfs.ObjectInfo, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed while listing
		}
		p := path.Join(dir, e.Name())
		obj := vfs.ObjectInfo{
			Name:         e.Name(),
			Path:         p,
			LastModified: info.ModTime(),
			IsDirectory:  e.IsDir(),
		}
		if !e.IsDir() {
			obj.Size = info.Size()
			obj.URL, _ = b.URL(ctx, p)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// CreateDir creates physicalPath and any missing parents.
func (b *FilesystemBackend) CreateDir(ctx context.Context, physicalPath string) error {
	if err := os.MkdirAll(b.fullPath(physicalPath), 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", key(physicalPath), err)
	}
	return nil
}

// MoveDir renames a directory. A missing source only creates the target,
// an existing target is an error.
func (b *FilesystemBackend) MoveDir(ctx context.Context, from, to string) error {
	src, dst := b.fullPath(from), b.fullPath(to)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("moving %s: %s: %w", key(from), key(to), fs.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", key(to), err)
	}
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return b.CreateDir(ctx, to)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", key(from), key(to), err)
	}
	return nil
}

// RemoveDir removes physicalPath if it is empty. A missing directory is fine.
func (b *FilesystemBackend) RemoveDir(ctx context.Context, physicalPath string) error {
	if key(physicalPath) == "" {
		return fmt.Errorf("refusing to remove storage root")
	}
	if err := os.Remove(b.fullPath(physicalPath)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing directory %s: %w", key(physicalPath), err)
	}
	return nil
}

// MoveObject renames a single object, creating the target directory.
func (b *FilesystemBackend) MoveObject(ctx context.Context, from, to string) error {
	src, dst := b.fullPath(from), b.fullPath(to)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", vfs.ErrObjectNotFound, key(from))
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", key(to), err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", key(from), key(to), err)
	}
	return nil
}

// Compile-time check that FilesystemBackend implements vfs.DirectoryBackend
var _ vfs.DirectoryBackend = (*FilesystemBackend)(nil)
