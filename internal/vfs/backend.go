package vfs

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned (wrapped) by StorageBackend.Delete when the
// object does not exist. Callers log it and carry on.
var ErrObjectNotFound = errors.New("object not found")

// UploadResult describes an object written by StorageBackend.Upload.
type UploadResult struct {
	ResolvedPath string
	PublicURL    string
	Size         int64
}

// ObjectInfo describes one entry returned by StorageBackend.List.
type ObjectInfo struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	IsDirectory  bool      `json:"isDirectory"`
	URL          string    `json:"url,omitempty"`
}

// StorageBackend stores the bytes of files under backend-relative physical
// paths. Callers never branch on the implementation; directory handling,
// content-type headers and ACLs are internal to each backend.
type StorageBackend interface {
	// Upload writes size bytes from r to physicalPath, creating missing
	// intermediate directories or prefixes. An existing object is overwritten.
	Upload(ctx context.Context, r io.Reader, size int64, physicalPath string, mimeType string) (*UploadResult, error)

	// Delete removes the object at physicalPath. A missing object yields an
	// error wrapping ErrObjectNotFound.
	Delete(ctx context.Context, physicalPath string) error

	// Exists reports whether an object exists at physicalPath. It never fails.
	Exists(ctx context.Context, physicalPath string) bool

	// URL returns the public URL for physicalPath.
	URL(ctx context.Context, physicalPath string) (string, error)

	// List returns the direct children of prefix. Diagnostics only.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Kind names the backend for logs.
	Kind() string
}

// DirectoryBackend is implemented by backends that keep real directories.
// Folder creation, rename and delete touch the physical tree only when the
// configured backend implements it; object stores create prefixes implicitly.
type DirectoryBackend interface {
	StorageBackend

	CreateDir(ctx context.Context, physicalPath string) error
	MoveDir(ctx context.Context, from, to string) error
	// RemoveDir removes physicalPath if it is empty.
	RemoveDir(ctx context.Context, physicalPath string) error
	MoveObject(ctx context.Context, from, to string) error
}
