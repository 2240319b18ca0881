package vfs

import (
	"context"

	"vfs-go/internal/database/sqlc"
)

// Folder and File are the persisted rows.
type (
	Folder = sqlc.Folder
	File   = sqlc.File
)

// Subtree is a snapshot of a folder, all its descendant folders, and every
// file stored anywhere below it. Folders are ordered parent before children.
type Subtree struct {
	Folders []*Folder
	Files   []*File
}

// FolderRewrite is the new naming of one folder after a rename.
type FolderRewrite struct {
	ID          int64
	Name        string
	Path        string
	VirtualPath string
}

// FileRewrite is the new location of one file after a rename.
type FileRewrite struct {
	ID          int64
	Path        string
	VirtualPath string
}

// FileLocation is the new placement of a file after a move.
type FileLocation struct {
	ID              int64
	FolderID        *int64
	StorageFilename string
	Path            string
	VirtualPath     string
}

// Database provides folder and file metadata persistence.
// Find* methods return nil, nil when the row does not exist.
type Database interface {
	// Folder operations

	// CreateFolder inserts a folder. A sibling name clash is a KindConflict error.
	CreateFolder(ctx context.Context, folder *Folder) (*Folder, error)

	FindFolderByID(ctx context.Context, id int64) (*Folder, error)

	// ListFolders returns the children of parentID ordered by name, or the
	// owner's root folders when parentID is nil.
	ListFolders(ctx context.Context, ownerID int64, parentID *int64) ([]*Folder, error)

	// ListFoldersByOwner returns every folder of an owner.
	ListFoldersByOwner(ctx context.Context, ownerID int64) ([]*Folder, error)

	// LoadSubtree reads the folder rooted at rootID and everything below it.
	LoadSubtree(ctx context.Context, rootID int64) (*Subtree, error)

	// ApplyPathRewrites persists all rewrites in a single transaction.
	ApplyPathRewrites(ctx context.Context, folders []FolderRewrite, files []FileRewrite) error

	DeleteFolder(ctx context.Context, id int64) error

	// CountFolderContents returns the number of direct child folders and files.
	CountFolderContents(ctx context.Context, id int64) (folders int64, files int64, err error)

	// File operations

	CreateFile(ctx context.Context, file *File) (*File, error)
	FindFileByID(ctx context.Context, id int64) (*File, error)

	// FindFilesByIDs returns the files that exist among ids, ordered by id.
	FindFilesByIDs(ctx context.Context, ids []int64) ([]*File, error)

	// ListFiles returns the files in folderID, or the owner's root files when
	// folderID is nil.
	ListFiles(ctx context.Context, ownerID int64, folderID *int64) ([]*File, error)

	UpdateFileLocation(ctx context.Context, loc FileLocation) error
	DeleteFile(ctx context.Context, id int64) error

	CountFolders(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)

	// Close closes the database connection.
	Close() error
}

// ContentItem is a piece of content with a rich-text body.
type ContentItem struct {
	ID    int64
	Title string
	Body  string
}

// ExplicitLink is a row of the content-to-file link table.
type ExplicitLink struct {
	FileID       int64
	ContentID    int64
	ContentTitle string
}

// ContentStore is the content collaborator consulted by ReferenceGuard.
type ContentStore interface {
	ListContentWithBody(ctx context.Context) ([]ContentItem, error)
	ListExplicitLinks(ctx context.Context, fileIDs []int64) ([]ExplicitLink, error)
	// RemoveFileLinks drops every explicit link to fileID.
	RemoveFileLinks(ctx context.Context, fileID int64) error
}
